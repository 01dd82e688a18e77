package service

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Upload kinds accepted by the admin media endpoint, mapped to key prefixes.
var uploadPrefixes = map[string]string{
	"hero":             "landing/hero",
	"feature":          "landing/features",
	"course-thumbnail": "courses/thumbnails",
	"lesson-video":     "courses/videos",
}

// UploadTarget tells the browser where to PUT a file.
type UploadTarget struct {
	UploadURL string    `json:"upload_url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

type MediaService interface {
	PresignUpload(ctx context.Context, kind, filename, contentType string) (*UploadTarget, error)
	PresignDownload(ctx context.Context, key, filename string) (string, error)
}

type mediaService struct {
	presignClient *s3.PresignClient
	bucketName    string
	ttl           time.Duration
	logger        zerolog.Logger
	now           func() time.Time
}

// NewMediaService returns a service that fails every call with
// ErrStorageDisabled when s3Client is nil.
func NewMediaService(s3Client *s3.Client, bucketName string, ttl time.Duration, logger zerolog.Logger) MediaService {
	s := &mediaService{
		bucketName: bucketName,
		ttl:        ttl,
		logger:     logger.With().Str("service", "MediaService").Logger(),
		now:        time.Now,
	}
	if s3Client != nil {
		s.presignClient = s3.NewPresignClient(s3Client)
	}
	return s
}

func (s *mediaService) PresignUpload(ctx context.Context, kind, filename, contentType string) (*UploadTarget, error) {
	if s.presignClient == nil {
		return nil, ErrStorageDisabled
	}
	prefix, ok := uploadPrefixes[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown upload kind %q", ErrInvalidInput, kind)
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: content type %q", ErrInvalidInput, contentType)
	}
	wantVideo := kind == "lesson-video"
	if (wantVideo && !strings.HasPrefix(mediaType, "video/")) || (!wantVideo && !strings.HasPrefix(mediaType, "image/")) {
		return nil, fmt.Errorf("%w: %s not allowed for %s", ErrInvalidInput, mediaType, kind)
	}

	key := fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), strings.ToLower(path.Ext(filename)))
	req, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		ContentType: aws.String(mediaType),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		s.logger.Error().Err(err).Str("object_key", key).Msg("Failed to generate presigned PUT URL")
		return nil, fmt.Errorf("failed to generate presigned PUT URL: %w", err)
	}
	return &UploadTarget{UploadURL: req.URL, Key: key, ExpiresAt: s.now().Add(s.ttl)}, nil
}

// PresignDownload signs a GET for key; a non-empty filename makes browsers
// save the object under that name.
func (s *mediaService) PresignDownload(ctx context.Context, key, filename string) (string, error) {
	if s.presignClient == nil {
		return "", ErrStorageDisabled
	}
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	}
	if filename != "" {
		input.ResponseContentDisposition = aws.String(mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	}
	resp, err := s.presignClient.PresignGetObject(ctx, input, s3.WithPresignExpires(s.ttl))
	if err != nil {
		s.logger.Error().Err(err).Str("storage_path", key).Msg("Failed to generate presigned URL")
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return resp.URL, nil
}
