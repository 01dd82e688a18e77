package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"formation/internal/apiclient"
	"formation/internal/enrollment"
	"formation/internal/model"

	"github.com/rs/zerolog"
)

// Dashboard is the student's overview page.
type Dashboard struct {
	Enrollments []model.Enrollment    `json:"enrollments"`
	Stats       model.EnrollmentStats `json:"stats"`
}

// QuizOutcome is a graded attempt together with the student's best one.
type QuizOutcome struct {
	Attempt model.QuizAttempt  `json:"attempt"`
	Best    *model.QuizAttempt `json:"best"`
}

// StudentService covers the authenticated student's learning flow.
type StudentService interface {
	// Enroll reports whether a new enrollment was created.
	Enroll(ctx context.Context, userID, courseSlug string) (*model.Enrollment, bool, error)
	ListEnrollments(ctx context.Context, userID string) ([]model.Enrollment, error)
	Dashboard(ctx context.Context, userID string) (*Dashboard, error)
	CompleteLesson(ctx context.Context, userID, courseID, lessonID string) (*model.Enrollment, error)
	Drop(ctx context.Context, userID, courseID string) (*model.Enrollment, error)
	GetQuiz(ctx context.Context, userID, courseID, quizID string) (*model.Quiz, error)
	SubmitQuiz(ctx context.Context, userID, courseID, quizID string, answers map[string]int) (*QuizOutcome, error)
}

type studentService struct {
	client  *apiclient.Client
	tracker *enrollment.Tracker
	logger  zerolog.Logger
}

func NewStudentService(client *apiclient.Client, tracker *enrollment.Tracker, logger zerolog.Logger) StudentService {
	return &studentService{
		client:  client,
		tracker: tracker,
		logger:  logger.With().Str("service", "StudentService").Logger(),
	}
}

func (s *studentService) curriculum(ctx context.Context, course string) (*model.Curriculum, error) {
	cur, err := s.client.GetCurriculum(ctx, course)
	if apiclient.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return cur, nil
}

func (s *studentService) Enroll(ctx context.Context, userID, courseSlug string) (*model.Enrollment, bool, error) {
	cur, err := s.curriculum(ctx, courseSlug)
	if err != nil {
		return nil, false, err
	}
	if !cur.Course.IsPublished {
		return nil, false, ErrNotFound
	}
	e, created, err := s.tracker.Enroll(ctx, userID, cur.Course.ID, cur.LessonCount())
	if err != nil {
		return nil, false, err
	}
	if created {
		// The sync worker pushes the full state later; a failure here only
		// delays the upstream record.
		if err := s.client.Enroll(ctx, cur.Course.ID); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Str("course_id", cur.Course.ID).Msg("Upstream enrollment failed")
		}
	}
	return e, created, nil
}

func (s *studentService) ListEnrollments(ctx context.Context, userID string) ([]model.Enrollment, error) {
	return s.tracker.List(ctx, userID)
}

// Dashboard first adopts upstream course sizes so that lessons added since
// enrolling show up in progress. Upstream being unavailable is not fatal.
func (s *studentService) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	s.reconcileCourseSizes(ctx, userID)

	list, err := s.tracker.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.tracker.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Dashboard{Enrollments: list, Stats: *stats}, nil
}

func (s *studentService) reconcileCourseSizes(ctx context.Context, userID string) {
	remote, err := s.client.ListMyEnrollments(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to list upstream enrollments")
		return
	}
	for _, r := range remote {
		if r.CourseID == "" || r.TotalLessons <= 0 {
			continue
		}
		local, err := s.tracker.Get(ctx, userID, r.CourseID)
		if err != nil || local.TotalLessons == r.TotalLessons {
			continue
		}
		if _, err := s.tracker.SetTotalLessons(ctx, userID, r.CourseID, r.TotalLessons); err != nil {
			s.logger.Warn().Err(err).Str("course_id", r.CourseID).Msg("Failed to update course size")
		}
	}
}

// CompleteLesson checks lessonID against the live curriculum before counting it.
func (s *studentService) CompleteLesson(ctx context.Context, userID, courseID, lessonID string) (*model.Enrollment, error) {
	if _, err := s.tracker.Get(ctx, userID, courseID); err != nil {
		return nil, err
	}
	cur, err := s.curriculum(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !cur.HasLesson(lessonID) {
		return nil, ErrLessonNotFound
	}
	return s.tracker.CompleteLesson(ctx, userID, courseID, lessonID, cur.LessonCount())
}

func (s *studentService) Drop(ctx context.Context, userID, courseID string) (*model.Enrollment, error) {
	return s.tracker.Drop(ctx, userID, courseID)
}

// GetQuiz returns a quiz of a course the student is enrolled in.
func (s *studentService) GetQuiz(ctx context.Context, userID, courseID, quizID string) (*model.Quiz, error) {
	ok, err := s.tracker.IsEnrolled(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, enrollment.ErrNotEnrolled
	}
	quiz, err := s.client.GetQuiz(ctx, quizID)
	if apiclient.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *studentService) SubmitQuiz(ctx context.Context, userID, courseID, quizID string, answers map[string]int) (*QuizOutcome, error) {
	ok, err := s.tracker.IsEnrolled(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, enrollment.ErrNotEnrolled
	}

	res, err := s.client.SubmitQuiz(ctx, quizID, answers)
	if apiclient.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to grade quiz: %w", err)
	}

	attempt := model.QuizAttempt{
		QuizID:      quizID,
		UserID:      userID,
		CourseID:    courseID,
		Score:       res.Score,
		Passed:      res.Passed,
		SubmittedAt: time.Now().UTC(),
	}
	if err := s.tracker.RecordQuizAttempt(ctx, &attempt); err != nil {
		if errors.Is(err, enrollment.ErrNotEnrolled) {
			return nil, err
		}
		// The upstream grade stands even if we fail to keep a local copy.
		s.logger.Error().Err(err).Str("quiz_id", quizID).Msg("Failed to record quiz attempt")
	}

	best, err := s.tracker.BestAttempt(ctx, userID, quizID)
	if err != nil {
		s.logger.Warn().Err(err).Str("quiz_id", quizID).Msg("Failed to load best attempt")
	}
	if best == nil {
		best = &attempt
	}
	return &QuizOutcome{Attempt: attempt, Best: best}, nil
}
