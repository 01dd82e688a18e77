package model

import (
	"math"
	"time"
)

const (
	EnrollmentActive    = "active"
	EnrollmentCompleted = "completed"
	EnrollmentDropped   = "dropped"
)

// Enrollment links a student to a course and tracks lesson completion.
type Enrollment struct {
	ID               string     `db:"id" json:"id"`
	UserID           string     `db:"user_id" json:"user_id"`
	CourseID         string     `db:"course_id" json:"course_id"`
	Status           string     `db:"status" json:"status"`
	Progress         int        `db:"progress" json:"progress"`
	CompletedLessons []string   `db:"completed_lessons" json:"completed_lessons"`
	TotalLessons     int        `db:"total_lessons" json:"total_lessons"`
	LastLessonID     *string    `db:"last_lesson_id" json:"last_lesson_id,omitempty"`
	Synced           bool       `db:"synced" json:"synced"`
	EnrolledAt       time.Time  `db:"enrolled_at" json:"enrolled_at"`
	CompletedAt      *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// HasCompleted reports whether lessonID is already counted.
func (e *Enrollment) HasCompleted(lessonID string) bool {
	for _, id := range e.CompletedLessons {
		if id == lessonID {
			return true
		}
	}
	return false
}

// Recompute derives Progress and Status from CompletedLessons and TotalLessons.
// Only counting every lesson completes the enrollment; until then Progress
// stays below 100. A completed enrollment whose course grew is active again.
func (e *Enrollment) Recompute(now time.Time) {
	if e.TotalLessons <= 0 {
		e.Progress = 0
		return
	}
	done := len(e.CompletedLessons)
	if done >= e.TotalLessons {
		e.Progress = 100
		if e.Status != EnrollmentDropped {
			e.Status = EnrollmentCompleted
			if e.CompletedAt == nil {
				t := now
				e.CompletedAt = &t
			}
		}
		return
	}

	p := int(math.Round(100 * float64(done) / float64(e.TotalLessons)))
	if p > 99 {
		p = 99
	}
	e.Progress = p
	if e.Status == EnrollmentCompleted {
		e.Status = EnrollmentActive
		e.CompletedAt = nil
	}
}

// EnrollmentStats summarises a student's dashboard.
type EnrollmentStats struct {
	Enrolled        int     `json:"enrolled"`
	Completed       int     `json:"completed"`
	InProgress      int     `json:"in_progress"`
	AverageProgress float64 `json:"average_progress"`
}
