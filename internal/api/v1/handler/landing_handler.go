package handler

import (
	"context"
	"net/http"

	"formation/internal/locale"
	"formation/internal/middleware"
	"formation/internal/model"

	"github.com/rs/zerolog"
)

type LandingService interface {
	Get(ctx context.Context, locale string) (*model.LandingPage, error)
	Refresh(ctx context.Context, locale string) (*model.LandingPage, error)
	Invalidate(ctx context.Context, locales ...string) error
}

type LandingHandler struct {
	landing LandingService
	locales *locale.Matcher
	logger  zerolog.Logger
}

func NewLandingHandler(landing LandingService, locales *locale.Matcher, logger zerolog.Logger) *LandingHandler {
	return &LandingHandler{landing: landing, locales: locales, logger: logger}
}

// RegisterRoutes mounts the public landing page and its admin refresh hook.
func (h *LandingHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.HandleFunc("/landing", h.getLanding)
	mux.Handle("/landing/refresh", authMw(middleware.AdminOnly(http.HandlerFunc(h.refreshLanding))))
}

// getLanding godoc
// @Summary Get the landing page
// @Description Returns hero, countdown, features, featured courses and FAQ for the requested locale. Served from cache; stale pages are refreshed in the background.
// @Tags landing
// @Produce json
// @Param lang query string false "Locale (fr, ar, en); defaults to Accept-Language"
// @Success 200 {object} model.LandingPage
// @Failure 502 {string} string "Upstream API unavailable"
// @Router /landing [get]
func (h *LandingHandler) getLanding(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	loc := h.locales.FromRequest(r)
	page, err := h.landing.Get(r.Context(), loc)
	if err != nil {
		writeError(w, h.logger, err, "load landing page")
		return
	}
	w.Header().Set("Content-Language", page.Locale)
	w.Header().Set("Vary", "Accept-Language")
	writeJSON(w, http.StatusOK, page)
}

// refreshLanding godoc
// @Summary Refresh the landing page cache
// @Description Drops the cached landing page for every locale and reloads the requested one.
// @Tags landing,admin
// @Produce json
// @Param lang query string false "Locale to reload"
// @Success 200 {object} model.LandingPage
// @Failure 403 {string} string "Admin access required"
// @Router /landing/refresh [post]
// @Security BearerAuth
func (h *LandingHandler) refreshLanding(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.landing.Invalidate(r.Context()); err != nil {
		writeError(w, h.logger, err, "invalidate landing cache")
		return
	}
	page, err := h.landing.Refresh(r.Context(), h.locales.FromRequest(r))
	if err != nil {
		writeError(w, h.logger, err, "refresh landing page")
		return
	}
	writeJSON(w, http.StatusOK, page)
}
