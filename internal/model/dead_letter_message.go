package model

import "time"

// DeadLetterMessage is a queue job that exhausted its retries.
type DeadLetterMessage struct {
	ID        string    `db:"id"`
	QueueName string    `db:"queue_name"`
	MessageID int64     `db:"message_id"`
	Payload   string    `db:"payload"` // JSON
	LastError string    `db:"last_error"`
	Attempts  int       `db:"attempts"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
