package service

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"formation/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingInvalidator struct {
	calls int32
}

func (c *countingInvalidator) Invalidate(context.Context, ...string) error {
	atomic.AddInt32(&c.calls, 1)
	return nil
}

func TestAdminWritesInvalidateLanding(t *testing.T) {
	u := newUpstream(t)
	u.handle("PUT /admin/hero/{$}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, model.Hero{Title: "Nouveau"})
	})
	u.handle("POST /admin/faq/{$}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "boom"})
	})
	u.handle("DELETE /admin/features/{id}/{$}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "f1" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
	})
	u.handle("POST /formation/categories/{$}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, model.Category{ID: "cat1", Name: "Dev"})
	})
	inv := &countingInvalidator{}
	svc := NewAdminService(u.client, inv, zerolog.Nop())
	ctx := context.Background()

	hero, err := svc.UpdateHero(ctx, model.Hero{Title: "Nouveau"})
	require.NoError(t, err)
	assert.Equal(t, "Nouveau", hero.Title)
	assert.Equal(t, int32(1), atomic.LoadInt32(&inv.calls))

	_, err = svc.CreateFAQ(ctx, model.FAQItem{Question: "?"})
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&inv.calls), "failed write keeps the cache")

	require.NoError(t, svc.DeleteFeature(ctx, "f1"))
	assert.Equal(t, int32(2), atomic.LoadInt32(&inv.calls))

	assert.ErrorIs(t, svc.DeleteFeature(ctx, "nope"), ErrNotFound)

	_, err = svc.CreateCategory(ctx, model.Category{Name: "Dev"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&inv.calls), "categories are not on the landing page")
}
