package repository

import (
	"context"
	"fmt"

	"formation/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type QuizAttemptRepository interface {
	Create(ctx context.Context, a *model.QuizAttempt) error
	ListByUser(ctx context.Context, userID, quizID string) ([]model.QuizAttempt, error)
}

type quizAttemptRepo struct {
	pool *pgxpool.Pool
}

func NewQuizAttemptRepo(pool *pgxpool.Pool) QuizAttemptRepository {
	return &quizAttemptRepo{pool: pool}
}

func (r *quizAttemptRepo) Create(ctx context.Context, a *model.QuizAttempt) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	query := `
		INSERT INTO quiz_attempts (id, quiz_id, user_id, course_id, score, passed)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING submitted_at
	`
	if err := r.pool.QueryRow(ctx, query, a.ID, a.QuizID, a.UserID, a.CourseID, a.Score, a.Passed).Scan(&a.SubmittedAt); err != nil {
		return fmt.Errorf("creating quiz attempt: %w", err)
	}
	return nil
}

// ListByUser returns a user's attempts at quizID, newest first. An empty
// quizID lists attempts at every quiz.
func (r *quizAttemptRepo) ListByUser(ctx context.Context, userID, quizID string) ([]model.QuizAttempt, error) {
	query := `
		SELECT id, quiz_id, user_id, course_id, score, passed, submitted_at
		FROM quiz_attempts
		WHERE user_id = $1 AND ($2 = '' OR quiz_id = $2)
		ORDER BY submitted_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID, quizID)
	if err != nil {
		return nil, fmt.Errorf("listing quiz attempts: %w", err)
	}
	defer rows.Close()

	attempts := []model.QuizAttempt{}
	for rows.Next() {
		var a model.QuizAttempt
		if err := rows.Scan(&a.ID, &a.QuizID, &a.UserID, &a.CourseID, &a.Score, &a.Passed, &a.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scanning quiz attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
