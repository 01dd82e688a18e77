package handler

import (
	"net/http"
	"strconv"

	"formation/internal/apiclient"
	"formation/internal/locale"
	"formation/internal/service"

	"github.com/rs/zerolog"
)

// CourseHandler serves the public catalog.
type CourseHandler struct {
	catalog service.CatalogService
	locales *locale.Matcher
	logger  zerolog.Logger
}

func NewCourseHandler(catalog service.CatalogService, locales *locale.Matcher, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{catalog: catalog, locales: locales, logger: logger}
}

// RegisterRoutes mounts catalog routes. They are public; authMw is unused.
func (h *CourseHandler) RegisterRoutes(mux *http.ServeMux, _ func(http.Handler) http.Handler) {
	mux.HandleFunc("/courses", h.listCourses)
	mux.HandleFunc("/courses/", h.handleCourse)
	mux.HandleFunc("/categories", h.listCategories)
}

// listCourses godoc
// @Summary List published courses
// @Tags courses
// @Produce json
// @Param category query string false "Category slug"
// @Param search query string false "Full-text search"
// @Param level query string false "beginner, intermediate or advanced"
// @Param limit query int false "Maximum number of courses"
// @Success 200 {array} model.Course
// @Router /courses [get]
func (h *CourseHandler) listCourses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	filter := apiclient.CourseFilter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
		Level:    q.Get("level"),
	}
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		filter.Limit = n
	}
	ctx := apiclient.WithLocale(r.Context(), h.locales.FromRequest(r))
	courses, err := h.catalog.ListCourses(ctx, filter)
	if err != nil {
		writeError(w, h.logger, err, "list courses")
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

func (h *CourseHandler) handleCourse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	parts := pathSegments(r.URL.Path, "/courses/")
	switch {
	case len(parts) == 1:
		h.getCourse(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "curriculum":
		h.getCurriculum(w, r, parts[0])
	default:
		http.NotFound(w, r)
	}
}

// getCourse godoc
// @Summary Get a course
// @Tags courses
// @Produce json
// @Param slug path string true "Course slug"
// @Success 200 {object} model.Course
// @Failure 404 {string} string "Not found"
// @Router /courses/{slug} [get]
func (h *CourseHandler) getCourse(w http.ResponseWriter, r *http.Request, slug string) {
	ctx := apiclient.WithLocale(r.Context(), h.locales.FromRequest(r))
	course, err := h.catalog.GetCourse(ctx, slug)
	if err != nil {
		writeError(w, h.logger, err, "retrieve course")
		return
	}
	writeJSON(w, http.StatusOK, course)
}

// getCurriculum godoc
// @Summary Get a course's sections and lessons
// @Tags courses
// @Produce json
// @Param slug path string true "Course slug"
// @Success 200 {object} model.Curriculum
// @Failure 404 {string} string "Not found"
// @Router /courses/{slug}/curriculum [get]
func (h *CourseHandler) getCurriculum(w http.ResponseWriter, r *http.Request, slug string) {
	ctx := apiclient.WithLocale(r.Context(), h.locales.FromRequest(r))
	cur, err := h.catalog.GetCurriculum(ctx, slug)
	if err != nil {
		writeError(w, h.logger, err, "retrieve curriculum")
		return
	}
	writeJSON(w, http.StatusOK, cur)
}

// listCategories godoc
// @Summary List course categories
// @Tags courses
// @Produce json
// @Success 200 {array} model.Category
// @Router /categories [get]
func (h *CourseHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := apiclient.WithLocale(r.Context(), h.locales.FromRequest(r))
	cats, err := h.catalog.ListCategories(ctx)
	if err != nil {
		writeError(w, h.logger, err, "list categories")
		return
	}
	writeJSON(w, http.StatusOK, cats)
}
