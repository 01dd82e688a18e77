package service

import (
	"context"

	"formation/internal/apiclient"
	"formation/internal/model"

	"github.com/rs/zerolog"
)

// LandingInvalidator drops cached landing pages.
type LandingInvalidator interface {
	Invalidate(ctx context.Context, locales ...string) error
}

// AdminService proxies back-office CRUD. Writes to content shown on the
// landing page invalidate its cache for every locale.
type AdminService interface {
	GetHero(ctx context.Context) (*model.Hero, error)
	UpdateHero(ctx context.Context, hero model.Hero) (*model.Hero, error)
	GetCountdown(ctx context.Context) (*model.Countdown, error)
	UpdateCountdown(ctx context.Context, c model.Countdown) (*model.Countdown, error)

	ListFeatures(ctx context.Context) ([]model.Feature, error)
	CreateFeature(ctx context.Context, f model.Feature) (*model.Feature, error)
	UpdateFeature(ctx context.Context, id string, f model.Feature) (*model.Feature, error)
	DeleteFeature(ctx context.Context, id string) error

	ListCourses(ctx context.Context) ([]model.Course, error)
	CreateCourse(ctx context.Context, c model.Course) (*model.Course, error)
	UpdateCourse(ctx context.Context, id string, c model.Course) (*model.Course, error)
	DeleteCourse(ctx context.Context, id string) error

	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, c model.Category) (*model.Category, error)
	UpdateCategory(ctx context.Context, id string, c model.Category) (*model.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	ListFAQ(ctx context.Context) ([]model.FAQItem, error)
	CreateFAQ(ctx context.Context, item model.FAQItem) (*model.FAQItem, error)
	UpdateFAQ(ctx context.Context, id string, item model.FAQItem) (*model.FAQItem, error)
	DeleteFAQ(ctx context.Context, id string) error
}

type adminService struct {
	client  *apiclient.Client
	landing LandingInvalidator
	logger  zerolog.Logger
}

func NewAdminService(client *apiclient.Client, landing LandingInvalidator, logger zerolog.Logger) AdminService {
	return &adminService{
		client:  client,
		landing: landing,
		logger:  logger.With().Str("service", "AdminService").Logger(),
	}
}

func (s *adminService) invalidate(ctx context.Context, what string) {
	if s.landing == nil {
		return
	}
	if err := s.landing.Invalidate(context.WithoutCancel(ctx)); err != nil {
		s.logger.Error().Err(err).Str("changed", what).Msg("Failed to invalidate landing cache")
	}
}

func notFound(err error) error {
	if apiclient.IsNotFound(err) {
		return ErrNotFound
	}
	return err
}

// written returns v unless err is set; on success the landing cache is dropped.
func written[T any](s *adminService, ctx context.Context, what string, v *T, err error) (*T, error) {
	if err != nil {
		return nil, notFound(err)
	}
	s.invalidate(ctx, what)
	return v, nil
}

func (s *adminService) GetHero(ctx context.Context) (*model.Hero, error) {
	return s.client.GetHero(ctx)
}

func (s *adminService) UpdateHero(ctx context.Context, hero model.Hero) (*model.Hero, error) {
	v, err := s.client.UpdateHero(ctx, hero)
	return written(s, ctx, "hero", v, err)
}

func (s *adminService) GetCountdown(ctx context.Context) (*model.Countdown, error) {
	return s.client.GetCountdown(ctx)
}

func (s *adminService) UpdateCountdown(ctx context.Context, c model.Countdown) (*model.Countdown, error) {
	v, err := s.client.UpdateCountdown(ctx, c)
	return written(s, ctx, "countdown", v, err)
}

func (s *adminService) ListFeatures(ctx context.Context) ([]model.Feature, error) {
	return s.client.ListFeatures(ctx)
}

func (s *adminService) CreateFeature(ctx context.Context, f model.Feature) (*model.Feature, error) {
	v, err := s.client.CreateFeature(ctx, f)
	return written(s, ctx, "feature", v, err)
}

func (s *adminService) UpdateFeature(ctx context.Context, id string, f model.Feature) (*model.Feature, error) {
	v, err := s.client.UpdateFeature(ctx, id, f)
	return written(s, ctx, "feature", v, err)
}

func (s *adminService) DeleteFeature(ctx context.Context, id string) error {
	if err := s.client.DeleteFeature(ctx, id); err != nil {
		return notFound(err)
	}
	s.invalidate(ctx, "feature")
	return nil
}

func (s *adminService) ListCourses(ctx context.Context) ([]model.Course, error) {
	return s.client.ListAdminCourses(ctx)
}

func (s *adminService) CreateCourse(ctx context.Context, c model.Course) (*model.Course, error) {
	v, err := s.client.CreateCourse(ctx, c)
	return written(s, ctx, "course", v, err)
}

func (s *adminService) UpdateCourse(ctx context.Context, id string, c model.Course) (*model.Course, error) {
	v, err := s.client.UpdateCourse(ctx, id, c)
	return written(s, ctx, "course", v, err)
}

func (s *adminService) DeleteCourse(ctx context.Context, id string) error {
	if err := s.client.DeleteCourse(ctx, id); err != nil {
		return notFound(err)
	}
	s.invalidate(ctx, "course")
	return nil
}

// Categories are not shown on the landing page; no invalidation.
func (s *adminService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.client.ListCategories(ctx)
}

func (s *adminService) CreateCategory(ctx context.Context, c model.Category) (*model.Category, error) {
	return s.client.CreateCategory(ctx, c)
}

func (s *adminService) UpdateCategory(ctx context.Context, id string, c model.Category) (*model.Category, error) {
	v, err := s.client.UpdateCategory(ctx, id, c)
	return v, notFound(err)
}

func (s *adminService) DeleteCategory(ctx context.Context, id string) error {
	return notFound(s.client.DeleteCategory(ctx, id))
}

func (s *adminService) ListFAQ(ctx context.Context) ([]model.FAQItem, error) {
	return s.client.ListFAQ(ctx, false)
}

func (s *adminService) CreateFAQ(ctx context.Context, item model.FAQItem) (*model.FAQItem, error) {
	v, err := s.client.CreateFAQ(ctx, item)
	return written(s, ctx, "faq", v, err)
}

func (s *adminService) UpdateFAQ(ctx context.Context, id string, item model.FAQItem) (*model.FAQItem, error) {
	v, err := s.client.UpdateFAQ(ctx, id, item)
	return written(s, ctx, "faq", v, err)
}

func (s *adminService) DeleteFAQ(ctx context.Context, id string) error {
	if err := s.client.DeleteFAQ(ctx, id); err != nil {
		return notFound(err)
	}
	s.invalidate(ctx, "faq")
	return nil
}
