// Package inmem holds process-local repository implementations, used when no
// database is configured and in tests.
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

type enrollmentRepo struct {
	mu    sync.Mutex
	table map[string]*model.Enrollment // user_id/course_id -> row
	now   func() time.Time
}

func NewEnrollmentRepo() repository.EnrollmentRepository {
	return &enrollmentRepo{table: make(map[string]*model.Enrollment), now: time.Now}
}

func enrollmentKey(userID, courseID string) string {
	return userID + "/" + courseID
}

func cloneEnrollment(e *model.Enrollment) *model.Enrollment {
	c := *e
	c.CompletedLessons = append([]string{}, e.CompletedLessons...)
	if e.LastLessonID != nil {
		v := *e.LastLessonID
		c.LastLessonID = &v
	}
	if e.CompletedAt != nil {
		v := *e.CompletedAt
		c.CompletedAt = &v
	}
	return &c
}

func (r *enrollmentRepo) Create(_ context.Context, e *model.Enrollment) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := enrollmentKey(e.UserID, e.CourseID)
	if existing, ok := r.table[key]; ok {
		*e = *cloneEnrollment(existing)
		return false, nil
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := r.now()
	e.EnrolledAt = now
	e.UpdatedAt = now
	if e.CompletedLessons == nil {
		e.CompletedLessons = []string{}
	}
	r.table[key] = cloneEnrollment(e)
	return true, nil
}

func (r *enrollmentRepo) Get(_ context.Context, userID, courseID string) (*model.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.table[enrollmentKey(userID, courseID)]
	if !ok {
		return nil, repository.ErrEnrollmentNotFound
	}
	return cloneEnrollment(e), nil
}

func (r *enrollmentRepo) ListByUser(_ context.Context, userID string) ([]model.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Enrollment{}
	for _, e := range r.table {
		if e.UserID == userID {
			out = append(out, *cloneEnrollment(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *enrollmentRepo) ListAll(_ context.Context, limit, offset int) ([]model.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]model.Enrollment, 0, len(r.table))
	for _, e := range r.table {
		all = append(all, *cloneEnrollment(e))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].EnrolledAt.Before(all[j].EnrolledAt) })
	if offset >= len(all) {
		return []model.Enrollment{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *enrollmentRepo) Mutate(_ context.Context, userID, courseID string, fn func(e *model.Enrollment) error) (*model.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := enrollmentKey(userID, courseID)
	existing, ok := r.table[key]
	if !ok {
		return nil, repository.ErrEnrollmentNotFound
	}
	e := cloneEnrollment(existing)
	if err := fn(e); err != nil {
		return nil, err
	}
	e.UpdatedAt = r.now()
	r.table[key] = cloneEnrollment(e)
	return e, nil
}

func (r *enrollmentRepo) MarkSynced(_ context.Context, userID, courseID string, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.table[enrollmentKey(userID, courseID)]; ok && !e.UpdatedAt.After(updatedAt) {
		e.Synced = true
	}
	return nil
}
