package dto

import (
	"time"

	"formation/internal/model"
)

type HeroRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Subtitle string `json:"subtitle" validate:"max=500"`
	CTAText  string `json:"cta_text" validate:"required_with=CTALink,max=60"`
	CTALink  string `json:"cta_link" validate:"omitempty,uri"`
	ImageURL string `json:"image_url" validate:"omitempty,url"`
}

func (r HeroRequest) ToModel() model.Hero {
	return model.Hero{Title: r.Title, Subtitle: r.Subtitle, CTAText: r.CTAText, CTALink: r.CTALink, ImageURL: r.ImageURL}
}

type CountdownRequest struct {
	Title      string    `json:"title" validate:"required,max=200"`
	TargetDate time.Time `json:"target_date" validate:"required"`
	IsActive   bool      `json:"is_active"`
}

func (r CountdownRequest) ToModel() model.Countdown {
	return model.Countdown{Title: r.Title, TargetDate: r.TargetDate, IsActive: r.IsActive}
}

type FeatureRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
	Icon        string `json:"icon"`
	Order       int    `json:"order" validate:"gte=0"`
}

func (r FeatureRequest) ToModel() model.Feature {
	return model.Feature{Title: r.Title, Description: r.Description, Icon: r.Icon, Order: r.Order}
}

type CourseRequest struct {
	Title         string  `json:"title" validate:"required,max=200"`
	Slug          string  `json:"slug" validate:"required,max=200"`
	Description   string  `json:"description"`
	CategoryID    string  `json:"category_id"`
	Price         float64 `json:"price" validate:"gte=0"`
	Level         string  `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Thumbnail     string  `json:"thumbnail"`
	IsPublished   bool    `json:"is_published"`
	DurationHours float64 `json:"duration_hours" validate:"gte=0"`
}

func (r CourseRequest) ToModel() model.Course {
	return model.Course{
		Title:         r.Title,
		Slug:          r.Slug,
		Description:   r.Description,
		CategoryID:    r.CategoryID,
		Price:         r.Price,
		Level:         r.Level,
		Thumbnail:     r.Thumbnail,
		IsPublished:   r.IsPublished,
		DurationHours: r.DurationHours,
	}
}

type CategoryRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Slug        string `json:"slug" validate:"required,max=120"`
	Description string `json:"description"`
}

func (r CategoryRequest) ToModel() model.Category {
	return model.Category{Name: r.Name, Slug: r.Slug, Description: r.Description}
}

type FAQRequest struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
	Order    int    `json:"order" validate:"gte=0"`
	IsActive bool   `json:"is_active"`
}

func (r FAQRequest) ToModel() model.FAQItem {
	return model.FAQItem{Question: r.Question, Answer: r.Answer, Order: r.Order, IsActive: r.IsActive}
}

type UploadURLRequest struct {
	Kind        string `json:"kind" validate:"required,oneof=hero feature course-thumbnail lesson-video"`
	Filename    string `json:"filename" validate:"required,max=255"`
	ContentType string `json:"content_type" validate:"required"`
}
