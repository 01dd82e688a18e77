package model

import "time"

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
}

type Course struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Description   string    `json:"description"`
	CategoryID    string    `json:"category_id,omitempty"`
	Price         float64   `json:"price"`
	Level         string    `json:"level,omitempty"`
	Thumbnail     string    `json:"thumbnail,omitempty"`
	IsPublished   bool      `json:"is_published"`
	DurationHours float64   `json:"duration_hours,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
}

type Section struct {
	ID       string   `json:"id"`
	CourseID string   `json:"course_id"`
	Title    string   `json:"title"`
	Order    int      `json:"order"`
	Lessons  []Lesson `json:"lessons,omitempty"`
}

type Lesson struct {
	ID              string `json:"id"`
	SectionID       string `json:"section_id"`
	Title           string `json:"title"`
	Order           int    `json:"order"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	VideoURL        string `json:"video_url,omitempty"`
}

// Curriculum is the ordered section/lesson tree of a course.
type Curriculum struct {
	Course   Course    `json:"course"`
	Sections []Section `json:"sections"`
}

// LessonCount returns the total number of lessons across all sections.
func (c *Curriculum) LessonCount() int {
	n := 0
	for _, s := range c.Sections {
		n += len(s.Lessons)
	}
	return n
}

// HasLesson reports whether lessonID belongs to the curriculum.
func (c *Curriculum) HasLesson(lessonID string) bool {
	for _, s := range c.Sections {
		for _, l := range s.Lessons {
			if l.ID == lessonID {
				return true
			}
		}
	}
	return false
}

type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Choices []string `json:"choices"`
}

type Quiz struct {
	ID           string     `json:"id"`
	LessonID     string     `json:"lesson_id"`
	Title        string     `json:"title"`
	PassingScore int        `json:"passing_score"`
	Questions    []Question `json:"questions,omitempty"`
}

type QuizAttempt struct {
	ID          string    `db:"id" json:"id"`
	QuizID      string    `db:"quiz_id" json:"quiz_id"`
	UserID      string    `db:"user_id" json:"user_id"`
	CourseID    string    `db:"course_id" json:"course_id"`
	Score       int       `db:"score" json:"score"`
	Passed      bool      `db:"passed" json:"passed"`
	SubmittedAt time.Time `db:"submitted_at" json:"submitted_at"`
}

type Certificate struct {
	ID       string    `json:"id"`
	CourseID string    `json:"course_id"`
	UserID   string    `json:"user_id"`
	Code     string    `json:"code"`
	IssuedAt time.Time `json:"issued_at"`
	FileKey  string    `json:"file_key,omitempty"`
}
