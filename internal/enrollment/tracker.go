// Package enrollment tracks students' course enrollments and lesson progress.
package enrollment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"formation/internal/model"
	"formation/internal/pubsub"
	"formation/internal/repository"

	"github.com/rs/zerolog"
)

var (
	ErrNotEnrolled      = errors.New("not enrolled in this course")
	ErrEnrollmentClosed = errors.New("enrollment is no longer active")
)

const (
	EventEnrollmentCreated   = "enrollment.created"
	EventEnrollmentCompleted = "enrollment.completed"
	EventEnrollmentDropped   = "enrollment.dropped"
)

// Queue receives progress sync jobs.
type Queue interface {
	Send(ctx context.Context, queue string, payload []byte) error
}

// SyncJob asks the worker to push the current state of one enrollment upstream.
type SyncJob struct {
	UserID   string `json:"user_id"`
	CourseID string `json:"course_id"`
}

type Config struct {
	QueueName string
	Topic     string
}

type Tracker struct {
	repo      repository.EnrollmentRepository
	attempts  repository.QuizAttemptRepository
	queue     Queue
	publisher pubsub.Publisher
	cfg       Config
	logger    zerolog.Logger
	now       func() time.Time
}

func NewTracker(
	repo repository.EnrollmentRepository,
	attempts repository.QuizAttemptRepository,
	queue Queue,
	publisher pubsub.Publisher,
	cfg Config,
	logger zerolog.Logger,
) *Tracker {
	return &Tracker{
		repo:      repo,
		attempts:  attempts,
		queue:     queue,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.With().Str("service", "EnrollmentTracker").Logger(),
		now:       time.Now,
	}
}

// Enroll registers userID in courseID and reports whether a new enrollment
// was created. Enrolling twice returns the existing enrollment; a dropped
// enrollment is reactivated.
func (t *Tracker) Enroll(ctx context.Context, userID, courseID string, totalLessons int) (*model.Enrollment, bool, error) {
	e := &model.Enrollment{
		UserID:           userID,
		CourseID:         courseID,
		Status:           model.EnrollmentActive,
		TotalLessons:     totalLessons,
		CompletedLessons: []string{},
	}
	created, err := t.repo.Create(ctx, e)
	if err != nil {
		t.logger.Error().Err(err).Str("user_id", userID).Str("course_id", courseID).Msg("Failed to create enrollment")
		return nil, false, fmt.Errorf("failed to enroll: %w", err)
	}

	if !created {
		if e.Status != model.EnrollmentDropped && (totalLessons <= 0 || e.TotalLessons == totalLessons) {
			return e, false, nil
		}
		e, err = t.update(ctx, userID, courseID, func(e *model.Enrollment) (bool, error) {
			if e.Status == model.EnrollmentDropped {
				e.Status = model.EnrollmentActive
			}
			if totalLessons > 0 {
				e.TotalLessons = totalLessons
			}
			return true, nil
		})
		if err != nil {
			return nil, false, fmt.Errorf("failed to reactivate enrollment: %w", err)
		}
		return e, false, nil
	}

	t.publish(ctx, EventEnrollmentCreated, e)
	t.enqueueSync(ctx, userID, courseID)
	return e, true, nil
}

func (t *Tracker) Get(ctx context.Context, userID, courseID string) (*model.Enrollment, error) {
	e, err := t.repo.Get(ctx, userID, courseID)
	if errors.Is(err, repository.ErrEnrollmentNotFound) {
		return nil, ErrNotEnrolled
	}
	return e, err
}

func (t *Tracker) IsEnrolled(ctx context.Context, userID, courseID string) (bool, error) {
	e, err := t.Get(ctx, userID, courseID)
	if errors.Is(err, ErrNotEnrolled) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return e.Status != model.EnrollmentDropped, nil
}

func (t *Tracker) List(ctx context.Context, userID string) ([]model.Enrollment, error) {
	return t.repo.ListByUser(ctx, userID)
}

// CompleteLesson counts lessonID once towards the enrollment's progress.
// totalLessons, when positive, refreshes the course size first.
func (t *Tracker) CompleteLesson(ctx context.Context, userID, courseID, lessonID string, totalLessons int) (*model.Enrollment, error) {
	return t.update(ctx, userID, courseID, func(e *model.Enrollment) (bool, error) {
		if e.Status == model.EnrollmentDropped {
			return false, ErrEnrollmentClosed
		}
		changed := totalLessons > 0 && resize(e, totalLessons)
		if !e.HasCompleted(lessonID) {
			e.CompletedLessons = append(e.CompletedLessons, lessonID)
			changed = true
		}
		last := lessonID
		e.LastLessonID = &last
		return changed, nil
	})
}

// SetTotalLessons updates the course size, e.g. after lessons were added upstream.
func (t *Tracker) SetTotalLessons(ctx context.Context, userID, courseID string, totalLessons int) (*model.Enrollment, error) {
	if totalLessons < 0 {
		return nil, fmt.Errorf("invalid lesson count %d", totalLessons)
	}
	return t.update(ctx, userID, courseID, func(e *model.Enrollment) (bool, error) {
		return resize(e, totalLessons), nil
	})
}

func resize(e *model.Enrollment, totalLessons int) bool {
	if e.TotalLessons == totalLessons {
		return false
	}
	e.TotalLessons = totalLessons
	return true
}

// update applies fn to the stored enrollment and recomputes its progress.
// When fn reports a change the enrollment is queued for sync, and a
// transition into completed publishes an event.
func (t *Tracker) update(ctx context.Context, userID, courseID string, fn func(e *model.Enrollment) (bool, error)) (*model.Enrollment, error) {
	changed := false
	wasCompleted := false
	e, err := t.repo.Mutate(ctx, userID, courseID, func(e *model.Enrollment) error {
		wasCompleted = e.Status == model.EnrollmentCompleted
		var err error
		if changed, err = fn(e); err != nil {
			return err
		}
		e.Recompute(t.now())
		if changed {
			e.Synced = false
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrEnrollmentNotFound) {
			return nil, ErrNotEnrolled
		}
		return nil, err
	}

	if changed {
		t.enqueueSync(ctx, userID, courseID)
		if !wasCompleted && e.Status == model.EnrollmentCompleted {
			t.logger.Info().Str("user_id", userID).Str("course_id", courseID).Msg("Course completed")
			t.publish(ctx, EventEnrollmentCompleted, e)
		}
	}
	return e, nil
}

func (t *Tracker) Drop(ctx context.Context, userID, courseID string) (*model.Enrollment, error) {
	e, err := t.repo.Mutate(ctx, userID, courseID, func(e *model.Enrollment) error {
		e.Status = model.EnrollmentDropped
		e.Synced = false
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrEnrollmentNotFound) {
			return nil, ErrNotEnrolled
		}
		return nil, err
	}
	t.enqueueSync(ctx, userID, courseID)
	t.publish(ctx, EventEnrollmentDropped, e)
	return e, nil
}

// RecordQuizAttempt stores a graded attempt. The user must be enrolled in courseID.
func (t *Tracker) RecordQuizAttempt(ctx context.Context, a *model.QuizAttempt) error {
	ok, err := t.IsEnrolled(ctx, a.UserID, a.CourseID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotEnrolled
	}
	if err := t.attempts.Create(ctx, a); err != nil {
		return fmt.Errorf("failed to record quiz attempt: %w", err)
	}
	return nil
}

// BestAttempt returns the highest scoring attempt, or nil if there is none.
func (t *Tracker) BestAttempt(ctx context.Context, userID, quizID string) (*model.QuizAttempt, error) {
	attempts, err := t.attempts.ListByUser(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}
	var best *model.QuizAttempt
	for i := range attempts {
		if best == nil || attempts[i].Score > best.Score {
			best = &attempts[i]
		}
	}
	return best, nil
}

// Stats summarises the non-dropped enrollments of userID.
func (t *Tracker) Stats(ctx context.Context, userID string) (*model.EnrollmentStats, error) {
	enrollments, err := t.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return computeStats(enrollments), nil
}

func computeStats(enrollments []model.Enrollment) *model.EnrollmentStats {
	stats := &model.EnrollmentStats{}
	total := 0
	for _, e := range enrollments {
		if e.Status == model.EnrollmentDropped {
			continue
		}
		stats.Enrolled++
		total += e.Progress
		if e.Status == model.EnrollmentCompleted {
			stats.Completed++
		} else {
			stats.InProgress++
		}
	}
	if stats.Enrolled > 0 {
		stats.AverageProgress = float64(total) / float64(stats.Enrolled)
	}
	return stats
}

func (t *Tracker) enqueueSync(ctx context.Context, userID, courseID string) {
	if t.queue == nil {
		return
	}
	payload, err := json.Marshal(SyncJob{UserID: userID, CourseID: courseID})
	if err != nil {
		t.logger.Error().Err(err).Msg("Failed to marshal progress sync job")
		return
	}
	if err := t.queue.Send(ctx, t.cfg.QueueName, payload); err != nil {
		// Progress is stored locally and stays unsynced until the next change.
		t.logger.Error().Err(err).Str("queue", t.cfg.QueueName).Str("course_id", courseID).Msg("Failed to enqueue progress sync")
	}
}

func (t *Tracker) publish(ctx context.Context, eventType string, e *model.Enrollment) {
	if t.publisher == nil || t.cfg.Topic == "" {
		return
	}
	if _, err := pubsub.PublishEvent(ctx, t.publisher, t.cfg.Topic, eventType, e); err != nil {
		t.logger.Warn().Err(err).Str("event", eventType).Msg("Failed to publish enrollment event")
	}
}
