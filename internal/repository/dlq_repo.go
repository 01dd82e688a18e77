package repository

import (
	"context"

	"formation/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DLQRepository interface {
	Create(ctx context.Context, message *model.DeadLetterMessage) error
}

type dlqRepository struct {
	pool *pgxpool.Pool
}

func NewDLQRepository(pool *pgxpool.Pool) DLQRepository {
	return &dlqRepository{pool: pool}
}

func (r *dlqRepository) Create(ctx context.Context, message *model.DeadLetterMessage) error {
	query := `
        INSERT INTO dead_letter_messages (queue_name, message_id, payload, last_error, attempts, status)
        VALUES ($1, $2, $3::jsonb, $4, $5, $6)
    `
	_, err := r.pool.Exec(
		ctx,
		query,
		message.QueueName,
		message.MessageID,
		message.Payload,
		message.LastError,
		message.Attempts,
		message.Status,
	)
	return err
}
