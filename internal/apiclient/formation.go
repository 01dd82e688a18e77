package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"formation/internal/model"

	"golang.org/x/sync/errgroup"
)

type CourseFilter struct {
	Category      string
	Search        string
	Level         string
	PublishedOnly bool
	Limit         int
}

func (f CourseFilter) values() url.Values {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Level != "" {
		q.Set("level", f.Level)
	}
	if f.PublishedOnly {
		q.Set("is_published", "true")
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

func (c *Client) ListCourses(ctx context.Context, filter CourseFilter) ([]model.Course, error) {
	courses, err := getList[model.Course](ctx, c, "/formation/courses/", filter.values())
	if err != nil {
		return nil, err
	}
	if filter.Limit > 0 && len(courses) > filter.Limit {
		courses = courses[:filter.Limit]
	}
	return courses, nil
}

// GetCourse looks a course up by slug or ID.
func (c *Client) GetCourse(ctx context.Context, slug string) (*model.Course, error) {
	var course model.Course
	if err := c.do(ctx, http.MethodGet, "/formation/courses/"+url.PathEscape(slug)+"/", nil, nil, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	return getList[model.Category](ctx, c, "/formation/categories/", nil)
}

func (c *Client) CreateCategory(ctx context.Context, cat model.Category) (*model.Category, error) {
	var created model.Category
	if err := c.do(ctx, http.MethodPost, "/formation/categories/", nil, cat, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) UpdateCategory(ctx context.Context, id string, cat model.Category) (*model.Category, error) {
	var updated model.Category
	if err := c.do(ctx, http.MethodPut, "/formation/categories/"+url.PathEscape(id)+"/", nil, cat, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/formation/categories/"+url.PathEscape(id)+"/", nil, nil, nil)
}

func (c *Client) ListSections(ctx context.Context, courseID string) ([]model.Section, error) {
	return getList[model.Section](ctx, c, "/formation/courses/"+url.PathEscape(courseID)+"/sections/", nil)
}

func (c *Client) ListLessons(ctx context.Context, sectionID string) ([]model.Lesson, error) {
	return getList[model.Lesson](ctx, c, "/formation/sections/"+url.PathEscape(sectionID)+"/lessons/", nil)
}

// GetCurriculum loads a course with its ordered sections and lessons. Sections
// returned without embedded lessons are filled in concurrently.
func (c *Client) GetCurriculum(ctx context.Context, slug string) (*model.Curriculum, error) {
	course, err := c.GetCourse(ctx, slug)
	if err != nil {
		return nil, err
	}
	sections, err := c.ListSections(ctx, course.ID)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range sections {
		if len(sections[i].Lessons) > 0 {
			continue
		}
		g.Go(func() error {
			lessons, err := c.ListLessons(gctx, sections[i].ID)
			if err != nil {
				return err
			}
			sections[i].Lessons = lessons
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(sections, func(a, b int) bool { return sections[a].Order < sections[b].Order })
	for i := range sections {
		lessons := sections[i].Lessons
		sort.SliceStable(lessons, func(a, b int) bool { return lessons[a].Order < lessons[b].Order })
	}
	return &model.Curriculum{Course: *course, Sections: sections}, nil
}

func (c *Client) GetQuiz(ctx context.Context, id string) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := c.do(ctx, http.MethodGet, "/formation/quizzes/"+url.PathEscape(id)+"/", nil, nil, &quiz); err != nil {
		return nil, err
	}
	return &quiz, nil
}

// QuizResult is the graded outcome of a quiz submission.
type QuizResult struct {
	Score  int  `json:"score"`
	Passed bool `json:"passed"`
}

// SubmitQuiz sends answers keyed by question ID to choice index.
func (c *Client) SubmitQuiz(ctx context.Context, id string, answers map[string]int) (*QuizResult, error) {
	var res QuizResult
	body := map[string]interface{}{"answers": answers}
	if err := c.do(ctx, http.MethodPost, "/formation/quizzes/"+url.PathEscape(id)+"/submit/", nil, body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) ListMyCertificates(ctx context.Context) ([]model.Certificate, error) {
	return getList[model.Certificate](ctx, c, "/formation/certificates/", nil)
}

func (c *Client) GetCertificate(ctx context.Context, id string) (*model.Certificate, error) {
	var cert model.Certificate
	if err := c.do(ctx, http.MethodGet, "/formation/certificates/"+url.PathEscape(id)+"/", nil, nil, &cert); err != nil {
		return nil, err
	}
	return &cert, nil
}

// ProgressUpdate is pushed upstream by the progress sync worker.
type ProgressUpdate struct {
	UserID           string     `json:"user_id"`
	CourseID         string     `json:"course_id"`
	Status           string     `json:"status"`
	Progress         int        `json:"progress"`
	CompletedLessons []string   `json:"completed_lessons"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

func (c *Client) SyncProgress(ctx context.Context, update ProgressUpdate) error {
	return c.do(ctx, http.MethodPost, "/formation/enrollments/sync/", nil, update, nil)
}

// Enroll registers the caller in courseID upstream.
func (c *Client) Enroll(ctx context.Context, courseID string) error {
	body := map[string]string{"course_id": courseID}
	return c.do(ctx, http.MethodPost, "/formation/enrollments/", nil, body, nil)
}

func (c *Client) ListMyEnrollments(ctx context.Context) ([]model.Enrollment, error) {
	return getList[model.Enrollment](ctx, c, "/formation/enrollments/", nil)
}
