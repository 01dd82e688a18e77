package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrepareDSN(t *testing.T) {
	tests := []struct {
		dsn         string
		development bool
		want        string
	}{
		{"postgres://u:p@localhost:5432/db", true, "postgres://u:p@localhost:5432/db?sslmode=disable"},
		{"postgres://u:p@localhost:5432/db?application_name=x", true, "postgres://u:p@localhost:5432/db?application_name=x&sslmode=disable"},
		{"host=localhost dbname=db", true, "host=localhost dbname=db sslmode=disable"},
		{"postgres://u:p@localhost/db?sslmode=require", true, "postgres://u:p@localhost/db?sslmode=require"},
		{"postgres://u:p@db.internal/db", false, "postgres://u:p@db.internal/db"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PrepareDSN(tt.dsn, tt.development), tt.dsn)
	}
}
