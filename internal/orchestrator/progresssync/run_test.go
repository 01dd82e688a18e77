package progresssync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"formation/internal/apiclient"
	"formation/internal/enrollment"
	"formation/internal/model"
	"formation/internal/pgmq"
	"formation/internal/repository"
	"formation/internal/repository/inmem"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	mu       sync.Mutex
	pending  [][]*pgmq.Message
	deleted  []int64
	archived []int64
	sent     map[string][][]byte
}

func (q *fakeQueue) ReadWithPoll(ctx context.Context, _ string, _, _, _ int) ([]*pgmq.Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil, ctx.Err()
	}
	batch := q.pending[0]
	q.pending = q.pending[1:]
	return batch, nil
}

func (q *fakeQueue) Send(_ context.Context, queue string, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.sent == nil {
		q.sent = make(map[string][][]byte)
	}
	q.sent[queue] = append(q.sent[queue], payload)
	return nil
}

func (q *fakeQueue) Delete(_ context.Context, _ string, ids []int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.deleted = append(q.deleted, ids...)
	return nil
}

func (q *fakeQueue) Archive(_ context.Context, _ string, id int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.archived = append(q.archived, id)
	return nil
}

// fakeSyncer fails with errs in order, then succeeds.
type fakeSyncer struct {
	errs    []error
	calls   int
	updates []apiclient.ProgressUpdate
	tokens  []string
}

func (s *fakeSyncer) SyncProgress(ctx context.Context, update apiclient.ProgressUpdate) error {
	s.calls++
	s.updates = append(s.updates, update)
	s.tokens = append(s.tokens, apiclient.TokenFromContext(ctx))
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return err
	}
	return nil
}

type fixture struct {
	queue  *fakeQueue
	repo   repository.EnrollmentRepository
	dlq    *inmem.DLQRepository
	syncer *fakeSyncer
	worker *Worker
	sleeps []time.Duration
}

func newFixture(t *testing.T, errs ...error) *fixture {
	t.Helper()
	f := &fixture{
		queue:  &fakeQueue{},
		repo:   inmem.NewEnrollmentRepo(),
		dlq:    inmem.NewDLQRepository(),
		syncer: &fakeSyncer{errs: errs},
	}
	f.worker = NewWorker(f.queue, f.repo, f.dlq, f.syncer, Config{
		QueueName:           "progress_sync_queue",
		DeadLetterQueueName: "progress_sync_queue_dlq",
		MaxRetries:          3,
		BackoffInitial:      time.Second,
		BackoffMax:          90 * time.Second,
		ServiceToken:        "svc-token",
	}, zerolog.Nop())
	f.worker.sleep = func(_ context.Context, d time.Duration) error {
		f.sleeps = append(f.sleeps, d)
		return nil
	}

	_, err := f.repo.Create(context.Background(), &model.Enrollment{
		UserID:           "u1",
		CourseID:         "c1",
		Status:           model.EnrollmentActive,
		Progress:         50,
		TotalLessons:     2,
		CompletedLessons: []string{"l1"},
	})
	require.NoError(t, err)
	return f
}

func jobMessage(t *testing.T, id int64, userID, courseID string) *pgmq.Message {
	t.Helper()
	data, err := json.Marshal(enrollment.SyncJob{UserID: userID, CourseID: courseID})
	require.NoError(t, err)
	return &pgmq.Message{ID: id, Data: data}
}

func TestProcess_SyncsAndAcknowledges(t *testing.T) {
	f := newFixture(t)

	f.worker.Process(context.Background(), jobMessage(t, 7, "u1", "c1"))

	require.Equal(t, 1, f.syncer.calls)
	assert.Equal(t, "svc-token", f.syncer.tokens[0])
	assert.Equal(t, 50, f.syncer.updates[0].Progress)
	assert.Equal(t, []string{"l1"}, f.syncer.updates[0].CompletedLessons)
	assert.Equal(t, []int64{7}, f.queue.deleted)

	e, err := f.repo.Get(context.Background(), "u1", "c1")
	require.NoError(t, err)
	assert.True(t, e.Synced)
}

func TestProcess_RetriesWithExponentialBackoff(t *testing.T) {
	upstreamDown := &apiclient.APIError{Status: http.StatusBadGateway}
	f := newFixture(t, upstreamDown, upstreamDown)

	f.worker.Process(context.Background(), jobMessage(t, 1, "u1", "c1"))

	assert.Equal(t, 3, f.syncer.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, f.sleeps)
	assert.Equal(t, []int64{1}, f.queue.deleted)
	assert.Empty(t, f.dlq.Messages())
}

func TestProcess_ExhaustedRetriesGoToDeadLetter(t *testing.T) {
	boom := errors.New("connection reset")
	f := newFixture(t, boom, boom, boom)

	f.worker.Process(context.Background(), jobMessage(t, 3, "u1", "c1"))

	assert.Equal(t, 3, f.syncer.calls)
	dead := f.dlq.Messages()
	require.Len(t, dead, 1)
	assert.Equal(t, int64(3), dead[0].MessageID)
	assert.Equal(t, 3, dead[0].Attempts)
	assert.Equal(t, "connection reset", dead[0].LastError)
	assert.Len(t, f.queue.sent["progress_sync_queue_dlq"], 1)
	assert.Equal(t, []int64{3}, f.queue.archived)
	assert.Empty(t, f.queue.deleted)

	e, err := f.repo.Get(context.Background(), "u1", "c1")
	require.NoError(t, err)
	assert.False(t, e.Synced)
}

func TestProcess_ClientErrorIsNotRetried(t *testing.T) {
	f := newFixture(t, &apiclient.APIError{Status: http.StatusBadRequest, Detail: "unknown course"})

	f.worker.Process(context.Background(), jobMessage(t, 4, "u1", "c1"))

	assert.Equal(t, 1, f.syncer.calls)
	assert.Empty(t, f.sleeps)
	assert.Len(t, f.dlq.Messages(), 1)
}

func TestProcess_MalformedJobIsArchived(t *testing.T) {
	f := newFixture(t)

	f.worker.Process(context.Background(), &pgmq.Message{ID: 9, Data: []byte(`{"user_id":`)})

	assert.Zero(t, f.syncer.calls)
	assert.Equal(t, []int64{9}, f.queue.archived)
}

func TestProcess_MissingEnrollmentIsDropped(t *testing.T) {
	f := newFixture(t)

	f.worker.Process(context.Background(), jobMessage(t, 5, "u2", "c1"))

	assert.Zero(t, f.syncer.calls)
	assert.Equal(t, []int64{5}, f.queue.deleted)
}

func TestProcess_AlreadySyncedSkipsUpstream(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e, err := f.repo.Get(ctx, "u1", "c1")
	require.NoError(t, err)
	require.NoError(t, f.repo.MarkSynced(ctx, "u1", "c1", e.UpdatedAt))

	f.worker.Process(ctx, jobMessage(t, 6, "u1", "c1"))

	assert.Zero(t, f.syncer.calls)
	assert.Equal(t, []int64{6}, f.queue.deleted)
}

func TestRun_DrainsQueueUntilCancelled(t *testing.T) {
	f := newFixture(t)
	f.queue.pending = [][]*pgmq.Message{{jobMessage(t, 1, "u1", "c1"), jobMessage(t, 2, "u2", "c9")}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.worker.Run(ctx) }()

	require.Eventually(t, func() bool {
		f.queue.mu.Lock()
		defer f.queue.mu.Unlock()
		return len(f.queue.deleted) == 2
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestConfig_VisibilityCoversBatch(t *testing.T) {
	cfg := Config{MaxRetries: 4, BackoffInitial: time.Second, BackoffMax: 3 * time.Second, RequestTimeout: 5 * time.Second, PollMaxMsg: 2}
	// (4 requests of 5s + 1 + 2 + 3 seconds of backoff) per message, two messages, plus headroom.
	assert.Equal(t, 82, cfg.visibilityTimeoutSec())

	defaults := Config{MaxRetries: 5, BackoffInitial: time.Second, BackoffMax: 60 * time.Second, RequestTimeout: 15 * time.Second, PollMaxMsg: 10}
	assert.Equal(t, 930, defaults.visibilityTimeoutSec())
}

func TestConfig_VisibilityCoversFailingMessage(t *testing.T) {
	boom := errors.New("connection reset")
	f := newFixture(t, boom, boom, boom)
	f.worker.cfg.RequestTimeout = 10 * time.Second

	f.worker.Process(context.Background(), jobMessage(t, 1, "u1", "c1"))

	worst := time.Duration(f.syncer.calls) * f.worker.cfg.RequestTimeout
	for _, d := range f.sleeps {
		worst += d
	}
	assert.Greater(t, time.Duration(f.worker.cfg.visibilityTimeoutSec())*time.Second, worst)
}
