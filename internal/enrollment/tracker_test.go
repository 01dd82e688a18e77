package enrollment

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"formation/internal/model"
	"formation/internal/repository/inmem"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingQueue struct {
	mu   sync.Mutex
	jobs []SyncJob
	err  error
}

func (q *recordingQueue) Send(_ context.Context, queue string, payload []byte) error {
	if q.err != nil {
		return q.err
	}
	var job SyncJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return err
	}
	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	q.mu.Unlock()
	return nil
}

func (q *recordingQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

type recordingPublisher struct {
	mu    sync.Mutex
	types []string
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, _ []byte, attrs map[string]string) (string, error) {
	p.mu.Lock()
	p.types = append(p.types, attrs["type"])
	p.mu.Unlock()
	return "id", nil
}

func newTestTracker() (*Tracker, *recordingQueue, *recordingPublisher) {
	q := &recordingQueue{}
	p := &recordingPublisher{}
	tr := NewTracker(inmem.NewEnrollmentRepo(), inmem.NewQuizAttemptRepo(), q, p,
		Config{QueueName: "progress_sync_queue", Topic: "enrollment-events"}, zerolog.Nop())
	return tr, q, p
}

func TestEnrollIsIdempotent(t *testing.T) {
	tr, q, p := newTestTracker()
	ctx := context.Background()

	first, created, err := tr.Enroll(ctx, "u1", "c1", 4)
	require.NoError(t, err)
	assert.True(t, created)
	second, created, err := tr.Enroll(ctx, "u1", "c1", 4)
	require.NoError(t, err)
	assert.False(t, created)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, model.EnrollmentActive, second.Status)
	assert.Equal(t, 1, q.count())
	assert.Equal(t, []string{EventEnrollmentCreated}, p.types)

	list, err := tr.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCompleteLessonCountsOnce(t *testing.T) {
	tr, q, _ := newTestTracker()
	ctx := context.Background()
	_, _, err := tr.Enroll(ctx, "u1", "c1", 4)
	require.NoError(t, err)

	e, err := tr.CompleteLesson(ctx, "u1", "c1", "l1", 0)
	require.NoError(t, err)
	assert.Equal(t, 25, e.Progress)
	require.NotNil(t, e.LastLessonID)
	assert.Equal(t, "l1", *e.LastLessonID)

	e, err = tr.CompleteLesson(ctx, "u1", "c1", "l1", 0)
	require.NoError(t, err)
	assert.Equal(t, 25, e.Progress)
	assert.Equal(t, []string{"l1"}, e.CompletedLessons)
	assert.Equal(t, 2, q.count(), "repeat completion does not enqueue")
}

func TestCompletingAllLessonsCompletesCourse(t *testing.T) {
	tr, _, p := newTestTracker()
	ctx := context.Background()
	_, _, err := tr.Enroll(ctx, "u1", "c1", 2)
	require.NoError(t, err)

	_, err = tr.CompleteLesson(ctx, "u1", "c1", "l1", 2)
	require.NoError(t, err)
	e, err := tr.CompleteLesson(ctx, "u1", "c1", "l2", 2)
	require.NoError(t, err)

	assert.Equal(t, 100, e.Progress)
	assert.Equal(t, model.EnrollmentCompleted, e.Status)
	assert.NotNil(t, e.CompletedAt)
	assert.Equal(t, []string{EventEnrollmentCreated, EventEnrollmentCompleted}, p.types)

	stats, err := tr.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 100.0, stats.AverageProgress)
}

func TestSetTotalLessonsRecomputes(t *testing.T) {
	tr, _, _ := newTestTracker()
	ctx := context.Background()
	_, _, err := tr.Enroll(ctx, "u1", "c1", 4)
	require.NoError(t, err)
	_, err = tr.CompleteLesson(ctx, "u1", "c1", "l1", 0)
	require.NoError(t, err)

	e, err := tr.SetTotalLessons(ctx, "u1", "c1", 3)
	require.NoError(t, err)
	assert.Equal(t, 33, e.Progress)

	_, err = tr.SetTotalLessons(ctx, "u2", "c1", 3)
	assert.ErrorIs(t, err, ErrNotEnrolled)
}

func TestGrowingCourseReopensCompletedEnrollment(t *testing.T) {
	tr, q, p := newTestTracker()
	ctx := context.Background()
	_, _, err := tr.Enroll(ctx, "u1", "c1", 2)
	require.NoError(t, err)
	_, err = tr.CompleteLesson(ctx, "u1", "c1", "l1", 0)
	require.NoError(t, err)
	_, err = tr.CompleteLesson(ctx, "u1", "c1", "l2", 0)
	require.NoError(t, err)

	e, err := tr.CompleteLesson(ctx, "u1", "c1", "l2", 4)
	require.NoError(t, err)
	assert.Equal(t, 50, e.Progress)
	assert.Equal(t, model.EnrollmentActive, e.Status)
	assert.Nil(t, e.CompletedAt)

	stats, err := tr.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Completed)
	assert.Equal(t, 1, stats.InProgress)

	jobs := q.count()
	_, err = tr.SetTotalLessons(ctx, "u1", "c1", 4)
	require.NoError(t, err)
	assert.Equal(t, jobs, q.count(), "unchanged size does not enqueue")

	_, err = tr.SetTotalLessons(ctx, "u1", "c1", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{EventEnrollmentCreated, EventEnrollmentCompleted, EventEnrollmentCompleted}, p.types)
}

func TestCompleteLessonRequiresEnrollment(t *testing.T) {
	tr, _, _ := newTestTracker()
	_, err := tr.CompleteLesson(context.Background(), "u1", "nope", "l1", 0)
	assert.ErrorIs(t, err, ErrNotEnrolled)
}

func TestDropAndReenroll(t *testing.T) {
	tr, _, _ := newTestTracker()
	ctx := context.Background()
	_, _, err := tr.Enroll(ctx, "u1", "c1", 3)
	require.NoError(t, err)
	_, err = tr.CompleteLesson(ctx, "u1", "c1", "l1", 0)
	require.NoError(t, err)

	dropped, err := tr.Drop(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentDropped, dropped.Status)

	_, err = tr.CompleteLesson(ctx, "u1", "c1", "l2", 0)
	assert.ErrorIs(t, err, ErrEnrollmentClosed)

	ok, err := tr.IsEnrolled(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.False(t, ok)

	again, _, err := tr.Enroll(ctx, "u1", "c1", 3)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentActive, again.Status)
	assert.Equal(t, []string{"l1"}, again.CompletedLessons, "progress survives a drop")
}

func TestConcurrentCompletionsAreNotLost(t *testing.T) {
	tr, _, _ := newTestTracker()
	ctx := context.Background()
	_, _, err := tr.Enroll(ctx, "u1", "c1", 10)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, l := range []string{"l0", "l1", "l2", "l3", "l4", "l5", "l6", "l7", "l8", "l9"} {
		wg.Add(1)
		go func(l string) {
			defer wg.Done()
			_, err := tr.CompleteLesson(ctx, "u1", "c1", l, 0)
			assert.NoError(t, err)
		}(l)
	}
	wg.Wait()

	e, err := tr.Get(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, 100, e.Progress)
	assert.Len(t, e.CompletedLessons, 10)
}

func TestQueueFailureDoesNotFailProgress(t *testing.T) {
	tr, q, _ := newTestTracker()
	q.err = errors.New("queue down")
	ctx := context.Background()

	_, _, err := tr.Enroll(ctx, "u1", "c1", 2)
	require.NoError(t, err)
	e, err := tr.CompleteLesson(ctx, "u1", "c1", "l1", 0)
	require.NoError(t, err)
	assert.Equal(t, 50, e.Progress)
	assert.False(t, e.Synced)
}

func TestQuizAttempts(t *testing.T) {
	tr, _, _ := newTestTracker()
	ctx := context.Background()

	err := tr.RecordQuizAttempt(ctx, &model.QuizAttempt{UserID: "u1", CourseID: "c1", QuizID: "q1", Score: 40})
	assert.ErrorIs(t, err, ErrNotEnrolled)

	_, _, err = tr.Enroll(ctx, "u1", "c1", 2)
	require.NoError(t, err)
	require.NoError(t, tr.RecordQuizAttempt(ctx, &model.QuizAttempt{UserID: "u1", CourseID: "c1", QuizID: "q1", Score: 40}))
	require.NoError(t, tr.RecordQuizAttempt(ctx, &model.QuizAttempt{UserID: "u1", CourseID: "c1", QuizID: "q1", Score: 85, Passed: true}))
	require.NoError(t, tr.RecordQuizAttempt(ctx, &model.QuizAttempt{UserID: "u1", CourseID: "c1", QuizID: "q2", Score: 99}))

	best, err := tr.BestAttempt(ctx, "u1", "q1")
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, 85, best.Score)

	none, err := tr.BestAttempt(ctx, "u2", "q1")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestComputeStatsSkipsDropped(t *testing.T) {
	stats := computeStats([]model.Enrollment{
		{Status: model.EnrollmentActive, Progress: 50},
		{Status: model.EnrollmentCompleted, Progress: 100},
		{Status: model.EnrollmentDropped, Progress: 10},
	})
	assert.Equal(t, 2, stats.Enrolled)
	assert.Equal(t, 1, stats.InProgress)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 75.0, stats.AverageProgress)
}
