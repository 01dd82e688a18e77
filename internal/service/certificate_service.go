package service

import (
	"context"

	"formation/internal/apiclient"
	"formation/internal/model"
)

type CertificateService interface {
	ListMine(ctx context.Context) ([]model.Certificate, error)
	DownloadURL(ctx context.Context, id string) (string, error)
}

type certificateService struct {
	client *apiclient.Client
	media  MediaService
}

func NewCertificateService(client *apiclient.Client, media MediaService) CertificateService {
	return &certificateService{client: client, media: media}
}

func (s *certificateService) ListMine(ctx context.Context) ([]model.Certificate, error) {
	return s.client.ListMyCertificates(ctx)
}

// DownloadURL returns a short-lived link to the certificate PDF.
func (s *certificateService) DownloadURL(ctx context.Context, id string) (string, error) {
	cert, err := s.client.GetCertificate(ctx, id)
	if apiclient.IsNotFound(err) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if cert.FileKey == "" {
		return "", ErrNotFound
	}
	return s.media.PresignDownload(ctx, cert.FileKey, "certificate-"+cert.Code+".pdf")
}
