// Package progresssync pushes locally tracked course progress to the upstream
// API. Jobs are enqueued by the enrollment tracker on every change.
package progresssync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"formation/internal/apiclient"
	"formation/internal/enrollment"
	"formation/internal/model"
	"formation/internal/pgmq"
	"formation/internal/repository"

	"github.com/rs/zerolog"
)

// Queue is the subset of the pgmq client the worker needs.
type Queue interface {
	ReadWithPoll(ctx context.Context, queue string, visibilityTimeoutSec, maxMessages, timeoutSec int) ([]*pgmq.Message, error)
	Send(ctx context.Context, queue string, payload []byte) error
	Delete(ctx context.Context, queue string, msgIDs []int64) error
	Archive(ctx context.Context, queue string, msgID int64) error
}

type Syncer interface {
	SyncProgress(ctx context.Context, update apiclient.ProgressUpdate) error
}

type Config struct {
	QueueName           string
	DeadLetterQueueName string
	PollTimeoutSec      int
	PollMaxMsg          int
	MaxRetries          int
	BackoffInitial      time.Duration
	BackoffMax          time.Duration
	// RequestTimeout bounds one upstream call.
	RequestTimeout time.Duration
	// ServiceToken authenticates the worker against the upstream API.
	ServiceToken string
}

// visibilityTimeoutSec hides a read batch from other workers while it is
// being processed. Messages of a batch are handled one after another, so it
// covers the worst case of every message using all its attempts and backoffs.
func (c Config) visibilityTimeoutSec() int {
	retries := c.MaxRetries
	if retries < 1 {
		retries = 1
	}
	batch := c.PollMaxMsg
	if batch < 1 {
		batch = 1
	}
	perMsg := time.Duration(retries) * c.RequestTimeout
	backoff := c.BackoffInitial
	for i := 1; i < retries; i++ {
		perMsg += backoff
		backoff = nextBackoff(backoff, c.BackoffMax)
	}
	return int((time.Duration(batch)*perMsg).Round(time.Second)/time.Second) + 30
}

type Worker struct {
	queue       Queue
	enrollments repository.EnrollmentRepository
	dlq         repository.DLQRepository
	syncer      Syncer
	cfg         Config
	logger      zerolog.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewWorker(
	queue Queue,
	enrollments repository.EnrollmentRepository,
	dlq repository.DLQRepository,
	syncer Syncer,
	cfg Config,
	logger zerolog.Logger,
) *Worker {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	if cfg.PollMaxMsg <= 0 {
		cfg.PollMaxMsg = 1
	}
	return &Worker{
		queue:       queue,
		enrollments: enrollments,
		dlq:         dlq,
		syncer:      syncer,
		cfg:         cfg,
		logger:      logger.With().Str("orchestrator", "progress-sync").Logger(),
		sleep:       sleepCtx,
	}
}

// Run polls the queue until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Str("queue", w.cfg.QueueName).Msg("Starting progress sync orchestrator")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Shutting down progress sync orchestrator")
			return nil
		default:
		}

		msgs, err := w.queue.ReadWithPoll(ctx, w.cfg.QueueName, w.cfg.visibilityTimeoutSec(), w.cfg.PollMaxMsg, w.cfg.PollTimeoutSec)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Error().Err(err).Msg("Error reading progress sync queue")
			_ = w.sleep(ctx, time.Second)
			continue
		}
		for _, msg := range msgs {
			w.Process(ctx, msg)
		}
	}
}

// Process handles one queue message. The message is always acknowledged
// except when the enrollment could not be loaded; it then reappears after
// the visibility timeout.
func (w *Worker) Process(ctx context.Context, msg *pgmq.Message) {
	log := w.logger.With().Int64("msg_id", msg.ID).Logger()

	var job enrollment.SyncJob
	if err := json.Unmarshal(msg.Data, &job); err != nil || job.UserID == "" || job.CourseID == "" {
		log.Error().Err(err).Str("payload", string(msg.Data)).Msg("Malformed progress sync job; archiving message")
		w.archive(ctx, msg.ID)
		return
	}
	log = log.With().Str("user_id", job.UserID).Str("course_id", job.CourseID).Logger()

	e, err := w.enrollments.Get(ctx, job.UserID, job.CourseID)
	if err != nil {
		if errors.Is(err, repository.ErrEnrollmentNotFound) {
			log.Warn().Msg("Enrollment no longer exists; deleting message")
			w.delete(ctx, msg.ID)
			return
		}
		log.Error().Err(err).Msg("Failed to load enrollment; will retry")
		return
	}
	if e.Synced {
		w.delete(ctx, msg.ID)
		return
	}

	update := apiclient.ProgressUpdate{
		UserID:           e.UserID,
		CourseID:         e.CourseID,
		Status:           e.Status,
		Progress:         e.Progress,
		CompletedLessons: e.CompletedLessons,
		CompletedAt:      e.CompletedAt,
	}
	reqCtx := apiclient.WithToken(ctx, w.cfg.ServiceToken)

	backoff := w.cfg.BackoffInitial
	var syncErr error
	attempts := 0
	for attempts < w.cfg.MaxRetries {
		attempts++
		start := time.Now()
		syncErr = w.syncer.SyncProgress(reqCtx, update)
		if syncErr == nil {
			log.Info().Str("duration", time.Since(start).String()).Int("progress", e.Progress).Msg("Progress synced")
			break
		}
		if ctx.Err() != nil {
			return
		}
		if permanent(syncErr) {
			log.Error().Err(syncErr).Msg("Upstream rejected progress update")
			break
		}
		log.Error().Err(syncErr).Int("attempt", attempts).Msg("Progress sync failed, retrying")
		if attempts < w.cfg.MaxRetries {
			if err := w.sleep(ctx, backoff); err != nil {
				return
			}
			backoff = nextBackoff(backoff, w.cfg.BackoffMax)
		}
	}

	if syncErr != nil {
		w.deadLetter(ctx, msg, syncErr, attempts)
		log.Warn().Int("attempts", attempts).Err(syncErr).Msg("Exhausted progress sync retries; moving job to DLQ")
		return
	}

	// A change made while the request was in flight keeps the row unsynced.
	if err := w.enrollments.MarkSynced(ctx, e.UserID, e.CourseID, e.UpdatedAt); err != nil {
		log.Error().Err(err).Msg("Failed to mark enrollment as synced")
	}
	w.delete(ctx, msg.ID)
}

func (w *Worker) deadLetter(ctx context.Context, msg *pgmq.Message, cause error, attempts int) {
	record := &model.DeadLetterMessage{
		QueueName: w.cfg.QueueName,
		MessageID: msg.ID,
		Payload:   string(msg.Data),
		LastError: cause.Error(),
		Attempts:  attempts,
		Status:    "failed",
	}
	if err := w.dlq.Create(ctx, record); err != nil {
		w.logger.Error().Err(err).Int64("msg_id", msg.ID).Msg("Failed to record dead letter")
	}
	if w.cfg.DeadLetterQueueName != "" {
		if err := w.queue.Send(ctx, w.cfg.DeadLetterQueueName, msg.Data); err != nil {
			w.logger.Error().Err(err).Str("dlq", w.cfg.DeadLetterQueueName).Msg("Failed to send message to dead-letter queue")
		}
	}
	w.archive(ctx, msg.ID)
}

func (w *Worker) delete(ctx context.Context, id int64) {
	if err := w.queue.Delete(ctx, w.cfg.QueueName, []int64{id}); err != nil {
		w.logger.Error().Err(err).Int64("msg_id", id).Msg("Error deleting progress sync message")
	}
}

func (w *Worker) archive(ctx context.Context, id int64) {
	if err := w.queue.Archive(ctx, w.cfg.QueueName, id); err != nil {
		w.logger.Error().Err(err).Int64("msg_id", id).Msg("Error archiving progress sync message")
	}
}

// permanent reports upstream answers that retrying cannot fix.
func permanent(err error) bool {
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return apiErr.Status >= 400 && apiErr.Status < 500
}

func nextBackoff(d, max time.Duration) time.Duration {
	d *= 2
	if max > 0 && d > max {
		d = max
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
