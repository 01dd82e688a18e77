package inmem

import (
	"context"
	"sync"
	"time"

	"formation/internal/model"
	"formation/internal/repository"

	"github.com/google/uuid"
)

// DLQRepository keeps dead letters in memory; Messages exposes them for inspection.
type DLQRepository struct {
	mu       sync.Mutex
	messages []model.DeadLetterMessage
}

var _ repository.DLQRepository = (*DLQRepository)(nil)

func NewDLQRepository() *DLQRepository {
	return &DLQRepository{}
}

func (r *DLQRepository) Create(_ context.Context, message *model.DeadLetterMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := *message
	m.ID = uuid.NewString()
	m.CreatedAt = time.Now().UTC()
	m.UpdatedAt = m.CreatedAt
	r.messages = append(r.messages, m)
	return nil
}

func (r *DLQRepository) Messages() []model.DeadLetterMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.DeadLetterMessage(nil), r.messages...)
}
