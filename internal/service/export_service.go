package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"formation/internal/apiclient"
	"formation/internal/model"
	"formation/internal/repository"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const exportPageSize = 500

// ExportService writes back-office spreadsheets.
type ExportService interface {
	ExportContacts(ctx context.Context, w io.Writer) error
	ExportEnrollments(ctx context.Context, w io.Writer) error
}

type exportService struct {
	client *apiclient.Client
	repo   repository.EnrollmentRepository
	logger zerolog.Logger
}

func NewExportService(client *apiclient.Client, repo repository.EnrollmentRepository, logger zerolog.Logger) ExportService {
	return &exportService{
		client: client,
		repo:   repo,
		logger: logger.With().Str("service", "ExportService").Logger(),
	}
}

func (s *exportService) ExportContacts(ctx context.Context, w io.Writer) error {
	messages, err := s.client.ListContactMessages(ctx, false)
	if err != nil {
		return err
	}
	rows := make([][]interface{}, 0, len(messages))
	for _, m := range messages {
		rows = append(rows, []interface{}{
			m.CreatedAt.Format(time.RFC3339), m.Name, m.Email, m.Phone, m.Wilaya, m.Subject, m.Message, m.IsRead,
		})
	}
	return s.write(w, "Contacts",
		[]interface{}{"Received", "Name", "Email", "Phone", "Wilaya", "Subject", "Message", "Read"}, rows)
}

func (s *exportService) ExportEnrollments(ctx context.Context, w io.Writer) error {
	var rows [][]interface{}
	for offset := 0; ; offset += exportPageSize {
		page, err := s.repo.ListAll(ctx, exportPageSize, offset)
		if err != nil {
			return fmt.Errorf("failed to list enrollments: %w", err)
		}
		for _, e := range page {
			rows = append(rows, enrollmentRow(e))
		}
		if len(page) < exportPageSize {
			break
		}
	}
	return s.write(w, "Enrollments",
		[]interface{}{"User", "Course", "Status", "Progress", "Lessons completed", "Total lessons", "Enrolled", "Completed", "Synced"}, rows)
}

func enrollmentRow(e model.Enrollment) []interface{} {
	completed := ""
	if e.CompletedAt != nil {
		completed = e.CompletedAt.Format(time.RFC3339)
	}
	return []interface{}{
		e.UserID, e.CourseID, e.Status, e.Progress, len(e.CompletedLessons), e.TotalLessons,
		e.EnrolledAt.Format(time.RFC3339), completed, e.Synced,
	}
}

func (s *exportService) write(w io.Writer, sheet string, header []interface{}, rows [][]interface{}) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing excel file")
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to open sheet writer: %w", err)
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	s.logger.Debug().Str("sheet", sheet).Int("rows", len(rows)).Msg("Spreadsheet exported")
	return nil
}
