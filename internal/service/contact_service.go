package service

import (
	"context"

	"formation/internal/apiclient"
	"formation/internal/model"
	"formation/internal/pubsub"

	"github.com/rs/zerolog"
)

const EventContactSubmitted = "contact.submitted"

// ContactService handles the public contact form and the admin inbox.
type ContactService interface {
	Submit(ctx context.Context, msg model.ContactMessage) (*model.ContactMessage, error)
	List(ctx context.Context, unreadOnly bool) ([]model.ContactMessage, error)
	MarkRead(ctx context.Context, id string, read bool) (*model.ContactMessage, error)
	Delete(ctx context.Context, id string) error
}

type contactService struct {
	client    *apiclient.Client
	publisher pubsub.Publisher
	topic     string
	logger    zerolog.Logger
}

func NewContactService(client *apiclient.Client, publisher pubsub.Publisher, topic string, logger zerolog.Logger) ContactService {
	return &contactService{
		client:    client,
		publisher: publisher,
		topic:     topic,
		logger:    logger.With().Str("service", "ContactService").Logger(),
	}
}

func (s *contactService) Submit(ctx context.Context, msg model.ContactMessage) (*model.ContactMessage, error) {
	created, err := s.client.SubmitContact(ctx, msg)
	if err != nil {
		return nil, err
	}
	if s.publisher != nil && s.topic != "" {
		if _, err := pubsub.PublishEvent(ctx, s.publisher, s.topic, EventContactSubmitted, created); err != nil {
			s.logger.Warn().Err(err).Str("topic", s.topic).Msg("Failed to publish contact event")
		}
	}
	return created, nil
}

func (s *contactService) List(ctx context.Context, unreadOnly bool) ([]model.ContactMessage, error) {
	return s.client.ListContactMessages(ctx, unreadOnly)
}

func (s *contactService) MarkRead(ctx context.Context, id string, read bool) (*model.ContactMessage, error) {
	msg, err := s.client.MarkContactRead(ctx, id, read)
	if apiclient.IsNotFound(err) {
		return nil, ErrNotFound
	}
	return msg, err
}

func (s *contactService) Delete(ctx context.Context, id string) error {
	err := s.client.DeleteContactMessage(ctx, id)
	if apiclient.IsNotFound(err) {
		return ErrNotFound
	}
	return err
}
