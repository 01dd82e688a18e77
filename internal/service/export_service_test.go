package service

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"formation/internal/model"
	"formation/internal/repository/inmem"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func readSheet(t *testing.T, data []byte, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestExportEnrollments(t *testing.T) {
	repo := inmem.NewEnrollmentRepo()
	ctx := context.Background()
	for _, course := range []string{"c1", "c2"} {
		_, err := repo.Create(ctx, &model.Enrollment{UserID: "u1", CourseID: course, Status: model.EnrollmentActive, TotalLessons: 4})
		require.NoError(t, err)
	}
	svc := NewExportService(nil, repo, zerolog.Nop())

	var buf bytes.Buffer
	require.NoError(t, svc.ExportEnrollments(ctx, &buf))

	rows := readSheet(t, buf.Bytes(), "Enrollments")
	require.Len(t, rows, 3)
	assert.Equal(t, "User", rows[0][0])
	assert.Equal(t, "u1", rows[1][0])
	assert.Equal(t, "4", rows[1][5])
}

func TestExportContacts(t *testing.T) {
	u := newUpstream(t)
	u.handle("GET /admin/contact/{$}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []model.ContactMessage{
			{ID: "m1", Name: "Amina", Email: "a@b.dz", Wilaya: "16", Subject: "Info", Message: "Bonjour", CreatedAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
		})
	})
	svc := NewExportService(u.client, inmem.NewEnrollmentRepo(), zerolog.Nop())

	var buf bytes.Buffer
	require.NoError(t, svc.ExportContacts(context.Background(), &buf))

	rows := readSheet(t, buf.Bytes(), "Contacts")
	require.Len(t, rows, 2)
	assert.Equal(t, "2025-03-01T09:00:00Z", rows[1][0])
	assert.Equal(t, "Amina", rows[1][1])
	assert.Equal(t, "16", rows[1][4])
	assert.Equal(t, "Bonjour", rows[1][6])
}
