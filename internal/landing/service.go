// Package landing assembles and caches the public landing page.
//
// Pages are cached per locale. A fresh page is served from the store; a stale
// page is served immediately while a single background refetch runs, at most
// once per cooldown; a missing page is fetched, and concurrent callers for
// the same locale share one upstream fetch.
package landing

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"formation/internal/apiclient"
	"formation/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Fetcher is the subset of the upstream API used to build a landing page.
type Fetcher interface {
	GetHero(ctx context.Context) (*model.Hero, error)
	GetCountdown(ctx context.Context) (*model.Countdown, error)
	ListFeatures(ctx context.Context) ([]model.Feature, error)
	ListCourses(ctx context.Context, filter apiclient.CourseFilter) ([]model.Course, error)
	ListFAQ(ctx context.Context, activeOnly bool) ([]model.FAQItem, error)
}

type Options struct {
	TTL          time.Duration
	Cooldown     time.Duration
	CourseLimit  int
	FetchTimeout time.Duration
	Locales      []string
}

type Service struct {
	fetcher Fetcher
	store   Store
	opts    Options
	logger  zerolog.Logger

	group singleflight.Group

	mu          sync.Mutex
	lastRefetch map[string]time.Time
	// generation is bumped by Invalidate so fetches started before an
	// invalidation do not write their result back to the store.
	generation map[string]uint64

	background sync.WaitGroup
	now        func() time.Time
}

func NewService(fetcher Fetcher, store Store, opts Options, logger zerolog.Logger) *Service {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 20 * time.Second
	}
	return &Service{
		fetcher:     fetcher,
		store:       store,
		opts:        opts,
		logger:      logger.With().Str("service", "LandingService").Logger(),
		lastRefetch: make(map[string]time.Time),
		generation:  make(map[string]uint64),
		now:         time.Now,
	}
}

// Get returns the landing page for locale.
func (s *Service) Get(ctx context.Context, locale string) (*model.LandingPage, error) {
	page, ok, err := s.store.Get(ctx, locale)
	if err != nil {
		s.logger.Warn().Err(err).Str("locale", locale).Msg("Landing cache read failed, fetching from upstream")
		ok = false
	}
	if ok {
		if s.now().Sub(page.FetchedAt) >= s.opts.TTL {
			s.refetchInBackground(locale)
		}
		return page, nil
	}
	return s.load(ctx, locale)
}

// Refresh fetches the page now, joining any fetch already in flight.
func (s *Service) Refresh(ctx context.Context, locale string) (*model.LandingPage, error) {
	return s.load(ctx, locale)
}

// Invalidate drops cached pages. With no locales every configured locale is dropped.
func (s *Service) Invalidate(ctx context.Context, locales ...string) error {
	if len(locales) == 0 {
		locales = s.opts.Locales
	}
	s.mu.Lock()
	for _, l := range locales {
		delete(s.lastRefetch, l)
		s.generation[l]++
		s.group.Forget(l)
	}
	s.mu.Unlock()
	if err := s.store.Delete(ctx, locales...); err != nil {
		return fmt.Errorf("failed to invalidate landing cache: %w", err)
	}
	s.logger.Info().Strs("locales", locales).Msg("Landing cache invalidated")
	return nil
}

// Wait blocks until background refetches have finished.
func (s *Service) Wait() {
	s.background.Wait()
}

func (s *Service) refetchInBackground(locale string) {
	s.mu.Lock()
	last, seen := s.lastRefetch[locale]
	if seen && s.now().Sub(last) < s.opts.Cooldown {
		s.mu.Unlock()
		return
	}
	s.lastRefetch[locale] = s.now()
	s.mu.Unlock()

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		if _, err := s.load(context.Background(), locale); err != nil {
			s.logger.Warn().Err(err).Str("locale", locale).Msg("Background landing refetch failed, keeping stale page")
		}
	}()
}

func (s *Service) load(ctx context.Context, locale string) (*model.LandingPage, error) {
	ch := s.group.DoChan(locale, func() (interface{}, error) {
		// The shared fetch must outlive any single caller's cancellation.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.FetchTimeout)
		defer cancel()

		s.mu.Lock()
		gen := s.generation[locale]
		s.mu.Unlock()

		page, err := s.fetch(fctx, locale)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		current := s.generation[locale] == gen
		if current {
			s.lastRefetch[locale] = s.now()
		}
		s.mu.Unlock()
		if !current {
			return page, nil
		}
		if err := s.store.Set(fctx, locale, page); err != nil {
			s.logger.Warn().Err(err).Str("locale", locale).Msg("Failed to store landing page")
		}
		return page, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.LandingPage), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) fetch(ctx context.Context, locale string) (*model.LandingPage, error) {
	ctx = apiclient.WithLocale(ctx, locale)
	page := &model.LandingPage{
		Locale:   locale,
		Features: []model.Feature{},
		Courses:  []model.Course{},
		FAQ:      []model.FAQItem{},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hero, err := s.fetcher.GetHero(gctx)
		if err != nil {
			return fmt.Errorf("failed to fetch hero: %w", err)
		}
		page.Hero = *hero
		return nil
	})
	g.Go(func() error {
		countdown, err := s.fetcher.GetCountdown(gctx)
		if err != nil {
			s.logger.Warn().Err(err).Str("locale", locale).Msg("Countdown unavailable")
			return nil
		}
		if countdown != nil && countdown.IsActive && countdown.TargetDate.After(s.now()) {
			page.Countdown = countdown
		}
		return nil
	})
	g.Go(func() error {
		features, err := s.fetcher.ListFeatures(gctx)
		if err != nil {
			s.logger.Warn().Err(err).Str("locale", locale).Msg("Features unavailable")
			return nil
		}
		sort.SliceStable(features, func(i, j int) bool { return features[i].Order < features[j].Order })
		page.Features = features
		return nil
	})
	g.Go(func() error {
		courses, err := s.fetcher.ListCourses(gctx, apiclient.CourseFilter{PublishedOnly: true, Limit: s.opts.CourseLimit})
		if err != nil {
			s.logger.Warn().Err(err).Str("locale", locale).Msg("Courses unavailable")
			return nil
		}
		published := make([]model.Course, 0, len(courses))
		for _, c := range courses {
			if c.IsPublished {
				published = append(published, c)
			}
		}
		page.Courses = published
		return nil
	})
	g.Go(func() error {
		faq, err := s.fetcher.ListFAQ(gctx, true)
		if err != nil {
			s.logger.Warn().Err(err).Str("locale", locale).Msg("FAQ unavailable")
			return nil
		}
		active := make([]model.FAQItem, 0, len(faq))
		for _, item := range faq {
			if item.IsActive {
				active = append(active, item)
			}
		}
		sort.SliceStable(active, func(i, j int) bool { return active[i].Order < active[j].Order })
		page.FAQ = active
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	page.FetchedAt = s.now()
	return page, nil
}
