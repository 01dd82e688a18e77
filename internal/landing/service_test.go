package landing

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"formation/internal/apiclient"
	"formation/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	heroCalls   int32
	heroErr     atomic.Value // error
	featuresErr error
	gate        chan struct{}
	countdown   *model.Countdown
	courses     []model.Course
	faq         []model.FAQItem
}

func (f *fakeFetcher) GetHero(ctx context.Context) (*model.Hero, error) {
	atomic.AddInt32(&f.heroCalls, 1)
	if f.gate != nil {
		<-f.gate
	}
	if err, ok := f.heroErr.Load().(error); ok && err != nil {
		return nil, err
	}
	return &model.Hero{Title: "Apprenez en ligne (" + apiclient.LocaleFromContext(ctx) + ")"}, nil
}

func (f *fakeFetcher) GetCountdown(context.Context) (*model.Countdown, error) {
	return f.countdown, nil
}

func (f *fakeFetcher) ListFeatures(context.Context) ([]model.Feature, error) {
	if f.featuresErr != nil {
		return nil, f.featuresErr
	}
	return []model.Feature{{ID: "b", Order: 2}, {ID: "a", Order: 1}}, nil
}

func (f *fakeFetcher) ListCourses(context.Context, apiclient.CourseFilter) ([]model.Course, error) {
	return f.courses, nil
}

func (f *fakeFetcher) ListFAQ(context.Context, bool) ([]model.FAQItem, error) {
	return f.faq, nil
}

func (f *fakeFetcher) calls() int32 { return atomic.LoadInt32(&f.heroCalls) }

func (f *fakeFetcher) failHero(err error) { f.heroErr.Store(err) }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var errNoHero = errors.New("no hero")

func newTestService(f *fakeFetcher, ttl, cooldown time.Duration) (*Service, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewService(f, NewMemoryStore(), Options{
		TTL:         ttl,
		Cooldown:    cooldown,
		CourseLimit: 8,
		Locales:     []string{"fr", "ar", "en"},
	}, zerolog.Nop())
	svc.now = clock.Now
	return svc, clock
}

func TestGetServesFreshPageFromCache(t *testing.T) {
	f := &fakeFetcher{}
	svc, clock := newTestService(f, time.Minute, 30*time.Second)
	ctx := context.Background()

	first, err := svc.Get(ctx, "fr")
	require.NoError(t, err)
	assert.Equal(t, "Apprenez en ligne (fr)", first.Hero.Title)

	clock.Advance(30 * time.Second)
	second, err := svc.Get(ctx, "fr")
	require.NoError(t, err)
	svc.Wait()

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), f.calls())
}

func TestLocalesAreCachedSeparately(t *testing.T) {
	f := &fakeFetcher{}
	svc, _ := newTestService(f, time.Minute, time.Second)

	fr, err := svc.Get(context.Background(), "fr")
	require.NoError(t, err)
	ar, err := svc.Get(context.Background(), "ar")
	require.NoError(t, err)

	assert.Equal(t, "fr", fr.Locale)
	assert.Equal(t, "ar", ar.Locale)
	assert.Equal(t, int32(2), f.calls())
}

func TestConcurrentGetsShareOneFetch(t *testing.T) {
	f := &fakeFetcher{gate: make(chan struct{})}
	svc, _ := newTestService(f, time.Minute, time.Second)

	const callers = 10
	pages := make([]*model.LandingPage, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			page, err := svc.Get(context.Background(), "fr")
			assert.NoError(t, err)
			pages[i] = page
		}(i)
	}

	time.Sleep(100 * time.Millisecond)
	close(f.gate)
	wg.Wait()

	assert.Equal(t, int32(1), f.calls())
	for _, p := range pages {
		assert.Same(t, pages[0], p)
	}
}

func TestStalePageIsServedWhileRefetching(t *testing.T) {
	f := &fakeFetcher{}
	svc, clock := newTestService(f, time.Minute, 30*time.Second)
	ctx := context.Background()

	first, err := svc.Get(ctx, "fr")
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	stale, err := svc.Get(ctx, "fr")
	require.NoError(t, err)
	assert.Same(t, first, stale)

	svc.Wait()
	assert.Equal(t, int32(2), f.calls())

	fresh, err := svc.Get(ctx, "fr")
	require.NoError(t, err)
	assert.True(t, fresh.FetchedAt.After(first.FetchedAt))
	svc.Wait()
	assert.Equal(t, int32(2), f.calls())
}

func TestBackgroundRefetchRespectsCooldown(t *testing.T) {
	f := &fakeFetcher{}
	svc, clock := newTestService(f, time.Minute, 30*time.Second)
	ctx := context.Background()

	_, err := svc.Get(ctx, "fr")
	require.NoError(t, err)

	f.failHero(errNoHero)
	clock.Advance(2 * time.Minute)
	_, err = svc.Get(ctx, "fr")
	require.NoError(t, err)
	svc.Wait()
	assert.Equal(t, int32(2), f.calls())

	// Refetch failed; within the cooldown the stale page is served without retrying.
	clock.Advance(10 * time.Second)
	_, err = svc.Get(ctx, "fr")
	require.NoError(t, err)
	svc.Wait()
	assert.Equal(t, int32(2), f.calls())

	clock.Advance(25 * time.Second)
	_, err = svc.Get(ctx, "fr")
	require.NoError(t, err)
	svc.Wait()
	assert.Equal(t, int32(3), f.calls())
}

func TestInvalidateForcesFetch(t *testing.T) {
	f := &fakeFetcher{}
	svc, _ := newTestService(f, time.Hour, time.Second)
	ctx := context.Background()

	_, err := svc.Get(ctx, "fr")
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(ctx))
	_, err = svc.Get(ctx, "fr")
	require.NoError(t, err)

	assert.Equal(t, int32(2), f.calls())
}

func TestHeroFailureFailsFetch(t *testing.T) {
	f := &fakeFetcher{}
	f.failHero(errNoHero)
	svc, _ := newTestService(f, time.Minute, time.Second)

	_, err := svc.Get(context.Background(), "fr")
	require.Error(t, err)
	assert.ErrorIs(t, err, errNoHero)
}

func TestSectionsDegradeAndFilter(t *testing.T) {
	f := &fakeFetcher{
		featuresErr: errors.New("features down"),
		countdown:   &model.Countdown{Title: "Rentrée", IsActive: true, TargetDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)},
		courses:     []model.Course{{ID: "1", IsPublished: true}, {ID: "2", IsPublished: false}},
		faq: []model.FAQItem{
			{ID: "q2", Order: 2, IsActive: true},
			{ID: "q1", Order: 1, IsActive: true},
			{ID: "q3", Order: 0, IsActive: false},
		},
	}
	svc, _ := newTestService(f, time.Minute, time.Second)

	page, err := svc.Get(context.Background(), "fr")
	require.NoError(t, err)

	assert.Empty(t, page.Features)
	assert.Nil(t, page.Countdown, "expired countdown is hidden")
	require.Len(t, page.Courses, 1)
	assert.Equal(t, "1", page.Courses[0].ID)
	require.Len(t, page.FAQ, 2)
	assert.Equal(t, "q1", page.FAQ[0].ID)
}

func TestRefreshReplacesCachedPage(t *testing.T) {
	f := &fakeFetcher{}
	svc, clock := newTestService(f, time.Hour, time.Second)
	ctx := context.Background()

	first, err := svc.Get(ctx, "en")
	require.NoError(t, err)
	clock.Advance(time.Second)
	refreshed, err := svc.Refresh(ctx, "en")
	require.NoError(t, err)
	cached, err := svc.Get(ctx, "en")
	require.NoError(t, err)

	assert.NotSame(t, first, refreshed)
	assert.Same(t, refreshed, cached)
}

func TestInvalidateDuringFetchDiscardsStaleResult(t *testing.T) {
	f := &fakeFetcher{gate: make(chan struct{})}
	svc, _ := newTestService(f, time.Minute, time.Second)
	ctx := context.Background()

	type result struct {
		page *model.LandingPage
		err  error
	}
	done := make(chan result, 1)
	go func() {
		page, err := svc.Refresh(ctx, "fr")
		done <- result{page, err}
	}()
	require.Eventually(t, func() bool { return f.calls() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, svc.Invalidate(ctx, "fr"))
	close(f.gate)

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, "fr", res.page.Locale)

	_, cached, err := svc.store.Get(ctx, "fr")
	require.NoError(t, err)
	assert.False(t, cached, "a fetch started before Invalidate must not repopulate the cache")

	_, err = svc.Get(ctx, "fr")
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.calls())
	_, cached, err = svc.store.Get(ctx, "fr")
	require.NoError(t, err)
	assert.True(t, cached)
}
