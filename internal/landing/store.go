package landing

import (
	"context"
	"sync"

	"formation/internal/model"
)

// Store persists assembled landing pages per locale.
type Store interface {
	Get(ctx context.Context, locale string) (*model.LandingPage, bool, error)
	Set(ctx context.Context, locale string, page *model.LandingPage) error
	Delete(ctx context.Context, locales ...string) error
}

type memoryStore struct {
	mu    sync.RWMutex
	pages map[string]*model.LandingPage
}

// NewMemoryStore returns a process-local Store.
func NewMemoryStore() Store {
	return &memoryStore{pages: make(map[string]*model.LandingPage)}
}

func (s *memoryStore) Get(_ context.Context, locale string) (*model.LandingPage, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	page, ok := s.pages[locale]
	return page, ok, nil
}

func (s *memoryStore) Set(_ context.Context, locale string, page *model.LandingPage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[locale] = page
	return nil
}

func (s *memoryStore) Delete(_ context.Context, locales ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range locales {
		delete(s.pages, l)
	}
	return nil
}
