package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"formation/internal/model"
	"formation/internal/repository"

	"github.com/google/uuid"
)

type quizAttemptRepo struct {
	mu       sync.RWMutex
	attempts []model.QuizAttempt
}

func NewQuizAttemptRepo() repository.QuizAttemptRepository {
	return &quizAttemptRepo{}
}

func (r *quizAttemptRepo) Create(_ context.Context, a *model.QuizAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.SubmittedAt.IsZero() {
		a.SubmittedAt = time.Now().UTC()
	}
	r.attempts = append(r.attempts, *a)
	return nil
}

func (r *quizAttemptRepo) ListByUser(_ context.Context, userID, quizID string) ([]model.QuizAttempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.QuizAttempt{}
	for _, a := range r.attempts {
		if a.UserID == userID && (quizID == "" || a.QuizID == quizID) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}
