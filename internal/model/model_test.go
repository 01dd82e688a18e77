package model

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrollmentRecompute(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	e := &Enrollment{Status: EnrollmentActive, TotalLessons: 3, CompletedLessons: []string{"a"}}
	e.Recompute(now)
	assert.Equal(t, 33, e.Progress)
	assert.Equal(t, EnrollmentActive, e.Status)
	assert.Nil(t, e.CompletedAt)

	e.CompletedLessons = append(e.CompletedLessons, "b", "c")
	e.Recompute(now)
	assert.Equal(t, 100, e.Progress)
	assert.Equal(t, EnrollmentCompleted, e.Status)
	if assert.NotNil(t, e.CompletedAt) {
		assert.True(t, e.CompletedAt.Equal(now))
	}
}

func TestEnrollmentRecomputeClampsAndZeroTotal(t *testing.T) {
	e := &Enrollment{Status: EnrollmentActive, TotalLessons: 1, CompletedLessons: []string{"a", "b"}}
	e.Recompute(time.Now())
	assert.Equal(t, 100, e.Progress)

	e = &Enrollment{Status: EnrollmentActive, CompletedLessons: []string{"a"}}
	e.Recompute(time.Now())
	assert.Equal(t, 0, e.Progress)
	assert.Equal(t, EnrollmentActive, e.Status)
}

func TestEnrollmentRecomputeCompletesOnlyOnLastLesson(t *testing.T) {
	lessons := make([]string, 199)
	for i := range lessons {
		lessons[i] = fmt.Sprintf("l%d", i)
	}
	e := &Enrollment{Status: EnrollmentActive, TotalLessons: 200, CompletedLessons: lessons}
	e.Recompute(time.Now())
	assert.Equal(t, 99, e.Progress)
	assert.Equal(t, EnrollmentActive, e.Status)
	assert.Nil(t, e.CompletedAt)

	e.CompletedLessons = append(e.CompletedLessons, "l199")
	e.Recompute(time.Now())
	assert.Equal(t, 100, e.Progress)
	assert.Equal(t, EnrollmentCompleted, e.Status)
}

func TestEnrollmentRecomputeReopensWhenCourseGrows(t *testing.T) {
	now := time.Now()
	e := &Enrollment{Status: EnrollmentActive, TotalLessons: 2, CompletedLessons: []string{"a", "b"}}
	e.Recompute(now)
	require.Equal(t, EnrollmentCompleted, e.Status)

	e.TotalLessons = 4
	e.Recompute(now)
	assert.Equal(t, 50, e.Progress)
	assert.Equal(t, EnrollmentActive, e.Status)
	assert.Nil(t, e.CompletedAt)

	dropped := &Enrollment{Status: EnrollmentDropped, TotalLessons: 4, CompletedLessons: []string{"a", "b"}}
	dropped.Recompute(now)
	assert.Equal(t, EnrollmentDropped, dropped.Status)
	dropped.TotalLessons = 2
	dropped.Recompute(now)
	assert.Equal(t, EnrollmentDropped, dropped.Status)
	assert.Equal(t, 100, dropped.Progress)
}

func TestCurriculumLessons(t *testing.T) {
	c := Curriculum{Sections: []Section{
		{ID: "s1", Lessons: []Lesson{{ID: "l1"}, {ID: "l2"}}},
		{ID: "s2", Lessons: []Lesson{{ID: "l3"}}},
	}}
	assert.Equal(t, 3, c.LessonCount())
	assert.True(t, c.HasLesson("l3"))
	assert.False(t, c.HasLesson("l9"))
}
