package storage

import (
	"context"
	"net/url"
	"testing"

	"formation/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3ClientDisabledWithoutCredentials(t *testing.T) {
	client, err := NewS3Client(context.Background(), &config.Config{S3Region: "us-east-1"})
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewS3ClientPathStyleEndpoint(t *testing.T) {
	client, err := NewS3Client(context.Background(), &config.Config{
		S3URL:       "http://localhost:9000",
		S3Region:    "us-east-1",
		S3AccessKey: "key",
		S3SecretKey: "secret",
	})
	require.NoError(t, err)
	require.NotNil(t, client)

	req, err := s3.NewPresignClient(client).PresignGetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String("media"),
		Key:    aws.String("a/b.pdf"),
	})
	require.NoError(t, err)
	u, err := url.Parse(req.URL)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/media/a/b.pdf", u.Path)
}
