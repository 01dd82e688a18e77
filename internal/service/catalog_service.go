package service

import (
	"context"

	"formation/internal/apiclient"
	"formation/internal/model"
)

// CatalogService serves the public course catalog.
type CatalogService interface {
	ListCourses(ctx context.Context, filter apiclient.CourseFilter) ([]model.Course, error)
	GetCourse(ctx context.Context, slug string) (*model.Course, error)
	GetCurriculum(ctx context.Context, slug string) (*model.Curriculum, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
}

type catalogService struct {
	client *apiclient.Client
}

func NewCatalogService(client *apiclient.Client) CatalogService {
	return &catalogService{client: client}
}

// ListCourses only ever returns published courses.
func (s *catalogService) ListCourses(ctx context.Context, filter apiclient.CourseFilter) ([]model.Course, error) {
	filter.PublishedOnly = true
	courses, err := s.client.ListCourses(ctx, filter)
	if err != nil {
		return nil, err
	}
	published := courses[:0]
	for _, c := range courses {
		if c.IsPublished {
			published = append(published, c)
		}
	}
	return published, nil
}

func (s *catalogService) GetCourse(ctx context.Context, slug string) (*model.Course, error) {
	course, err := s.client.GetCourse(ctx, slug)
	if apiclient.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !course.IsPublished {
		return nil, ErrNotFound
	}
	return course, nil
}

func (s *catalogService) GetCurriculum(ctx context.Context, slug string) (*model.Curriculum, error) {
	cur, err := s.client.GetCurriculum(ctx, slug)
	if apiclient.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !cur.Course.IsPublished {
		return nil, ErrNotFound
	}
	return cur, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.client.ListCategories(ctx)
}
