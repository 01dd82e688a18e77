package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"formation/internal/model"
	"formation/internal/pubsub"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	topics   []string
	payloads [][]byte
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, payload []byte, _ map[string]string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return "m1", nil
}

func contactUpstream(t *testing.T) *upstream {
	u := newUpstream(t)
	u.handle("POST /admin/contact/{$}", func(w http.ResponseWriter, r *http.Request) {
		var msg model.ContactMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		msg.ID = "m1"
		writeJSON(w, http.StatusCreated, msg)
	})
	return u
}

func TestContactSubmitPublishesEvent(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewContactService(contactUpstream(t).client, pub, "contact-submitted", zerolog.Nop())

	created, err := svc.Submit(context.Background(), model.ContactMessage{Name: "Amina", Email: "a@b.dz", Subject: "Info", Message: "Bonjour"})
	require.NoError(t, err)
	assert.Equal(t, "m1", created.ID)

	require.Len(t, pub.payloads, 1)
	assert.Equal(t, "contact-submitted", pub.topics[0])
	var ev pubsub.Event
	require.NoError(t, json.Unmarshal(pub.payloads[0], &ev))
	assert.Equal(t, EventContactSubmitted, ev.Type)
}

func TestContactSubmitSurvivesPublishFailure(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("pubsub down")}
	svc := NewContactService(contactUpstream(t).client, pub, "contact-submitted", zerolog.Nop())

	created, err := svc.Submit(context.Background(), model.ContactMessage{Name: "Amina", Email: "a@b.dz", Subject: "Info", Message: "Bonjour"})
	require.NoError(t, err)
	assert.Equal(t, "m1", created.ID)
}

func TestContactMarkReadNotFound(t *testing.T) {
	u := newUpstream(t)
	u.handle("PATCH /admin/contact/{id}/{$}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
	})
	svc := NewContactService(u.client, pubsub.NopPublisher{}, "", zerolog.Nop())

	_, err := svc.MarkRead(context.Background(), "x", true)
	assert.ErrorIs(t, err, ErrNotFound)
}
