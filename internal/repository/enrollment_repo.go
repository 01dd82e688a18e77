package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"formation/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrEnrollmentNotFound = errors.New("enrollment not found")

type EnrollmentRepository interface {
	// Create inserts e unless the user is already enrolled in the course, in
	// which case e is overwritten with the existing row and created is false.
	Create(ctx context.Context, e *model.Enrollment) (created bool, err error)
	Get(ctx context.Context, userID, courseID string) (*model.Enrollment, error)
	ListByUser(ctx context.Context, userID string) ([]model.Enrollment, error)
	ListAll(ctx context.Context, limit, offset int) ([]model.Enrollment, error)
	// Mutate loads the enrollment under a row lock, applies fn and persists
	// the result. fn returning an error aborts without writing.
	Mutate(ctx context.Context, userID, courseID string, fn func(e *model.Enrollment) error) (*model.Enrollment, error)
	// MarkSynced flags the row as synced if it was not modified after updatedAt.
	MarkSynced(ctx context.Context, userID, courseID string, updatedAt time.Time) error
}

type enrollmentRepo struct {
	pool *pgxpool.Pool
}

func NewEnrollmentRepo(pool *pgxpool.Pool) EnrollmentRepository {
	return &enrollmentRepo{pool: pool}
}

const enrollmentColumns = `id, user_id, course_id, status, progress, completed_lessons, total_lessons,
	last_lesson_id, synced, enrolled_at, completed_at, updated_at`

func scanEnrollment(row pgx.Row) (*model.Enrollment, error) {
	var e model.Enrollment
	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.CourseID,
		&e.Status,
		&e.Progress,
		&e.CompletedLessons,
		&e.TotalLessons,
		&e.LastLessonID,
		&e.Synced,
		&e.EnrolledAt,
		&e.CompletedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if e.CompletedLessons == nil {
		e.CompletedLessons = []string{}
	}
	return &e, nil
}

func (r *enrollmentRepo) Create(ctx context.Context, e *model.Enrollment) (bool, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CompletedLessons == nil {
		e.CompletedLessons = []string{}
	}
	query := `
		INSERT INTO enrollments (id, user_id, course_id, status, progress, completed_lessons, total_lessons)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, course_id) DO NOTHING
		RETURNING ` + enrollmentColumns
	created, err := scanEnrollment(r.pool.QueryRow(ctx, query,
		e.ID, e.UserID, e.CourseID, e.Status, e.Progress, e.CompletedLessons, e.TotalLessons))
	if err == nil {
		*e = *created
		return true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("creating enrollment: %w", err)
	}
	existing, err := r.Get(ctx, e.UserID, e.CourseID)
	if err != nil {
		return false, err
	}
	*e = *existing
	return false, nil
}

func (r *enrollmentRepo) Get(ctx context.Context, userID, courseID string) (*model.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE user_id = $1 AND course_id = $2`
	e, err := scanEnrollment(r.pool.QueryRow(ctx, query, userID, courseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("getting enrollment: %w", err)
	}
	return e, nil
}

func (r *enrollmentRepo) ListByUser(ctx context.Context, userID string) ([]model.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE user_id = $1 ORDER BY updated_at DESC`
	return r.list(ctx, query, userID)
}

func (r *enrollmentRepo) ListAll(ctx context.Context, limit, offset int) ([]model.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments ORDER BY enrolled_at ASC LIMIT $1 OFFSET $2`
	return r.list(ctx, query, limit, offset)
}

func (r *enrollmentRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.Enrollment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := []model.Enrollment{}
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning enrollment: %w", err)
		}
		enrollments = append(enrollments, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating enrollments: %w", err)
	}
	return enrollments, nil
}

func (r *enrollmentRepo) Mutate(ctx context.Context, userID, courseID string, fn func(e *model.Enrollment) error) (*model.Enrollment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE user_id = $1 AND course_id = $2 FOR UPDATE`
	e, err := scanEnrollment(tx.QueryRow(ctx, query, userID, courseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("locking enrollment: %w", err)
	}

	if err := fn(e); err != nil {
		return nil, err
	}

	update := `
		UPDATE enrollments
		SET status = $1, progress = $2, completed_lessons = $3, total_lessons = $4,
			last_lesson_id = $5, synced = $6, completed_at = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING updated_at
	`
	if err := tx.QueryRow(ctx, update,
		e.Status, e.Progress, e.CompletedLessons, e.TotalLessons,
		e.LastLessonID, e.Synced, e.CompletedAt, e.ID,
	).Scan(&e.UpdatedAt); err != nil {
		return nil, fmt.Errorf("updating enrollment: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing enrollment: %w", err)
	}
	return e, nil
}

func (r *enrollmentRepo) MarkSynced(ctx context.Context, userID, courseID string, updatedAt time.Time) error {
	query := `UPDATE enrollments SET synced = TRUE WHERE user_id = $1 AND course_id = $2 AND updated_at <= $3`
	if _, err := r.pool.Exec(ctx, query, userID, courseID, updatedAt); err != nil {
		return fmt.Errorf("marking enrollment synced: %w", err)
	}
	return nil
}
