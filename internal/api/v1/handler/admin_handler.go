package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"formation/internal/api/v1/dto"
	"formation/internal/middleware"
	"formation/internal/model"
	"formation/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler serves the back-office. Every route requires an admin token.
type AdminHandler struct {
	admin    service.AdminService
	media    service.MediaService
	exports  service.ExportService
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewAdminHandler(
	admin service.AdminService,
	media service.MediaService,
	exports service.ExportService,
	validate *validator.Validate,
	logger zerolog.Logger,
) *AdminHandler {
	return &AdminHandler{admin: admin, media: media, exports: exports, validate: validate, logger: logger}
}

// resource describes a CRUD collection proxied to the upstream admin API.
type resource[R any, M any] struct {
	name    string
	prefix  string
	toModel func(R) M
	list    func(ctx context.Context) ([]M, error)
	create  func(ctx context.Context, m M) (*M, error)
	update  func(ctx context.Context, id string, m M) (*M, error)
	remove  func(ctx context.Context, id string) error
}

func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	admin := func(f http.HandlerFunc) http.Handler { return authMw(middleware.AdminOnly(f)) }

	mux.Handle("/admin/hero", admin(h.handleHero))
	mux.Handle("/admin/countdown", admin(h.handleCountdown))

	registerResource(mux, admin, h, resource[dto.FeatureRequest, model.Feature]{
		name: "feature", prefix: "/admin/features",
		toModel: dto.FeatureRequest.ToModel,
		list:    h.admin.ListFeatures, create: h.admin.CreateFeature,
		update: h.admin.UpdateFeature, remove: h.admin.DeleteFeature,
	})
	registerResource(mux, admin, h, resource[dto.CourseRequest, model.Course]{
		name: "course", prefix: "/admin/courses",
		toModel: dto.CourseRequest.ToModel,
		list:    h.admin.ListCourses, create: h.admin.CreateCourse,
		update: h.admin.UpdateCourse, remove: h.admin.DeleteCourse,
	})
	registerResource(mux, admin, h, resource[dto.CategoryRequest, model.Category]{
		name: "category", prefix: "/admin/categories",
		toModel: dto.CategoryRequest.ToModel,
		list:    h.admin.ListCategories, create: h.admin.CreateCategory,
		update: h.admin.UpdateCategory, remove: h.admin.DeleteCategory,
	})
	registerResource(mux, admin, h, resource[dto.FAQRequest, model.FAQItem]{
		name: "FAQ item", prefix: "/admin/faq",
		toModel: dto.FAQRequest.ToModel,
		list:    h.admin.ListFAQ, create: h.admin.CreateFAQ,
		update: h.admin.UpdateFAQ, remove: h.admin.DeleteFAQ,
	})

	mux.Handle("/admin/media/upload-url", admin(h.uploadURL))
	mux.Handle("/admin/export/", admin(h.export))
}

func registerResource[R any, M any](mux *http.ServeMux, admin func(http.HandlerFunc) http.Handler, h *AdminHandler, res resource[R, M]) {
	mux.Handle(res.prefix, admin(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			items, err := res.list(r.Context())
			if err != nil {
				writeError(w, h.logger, err, "list "+res.name+"s")
				return
			}
			writeJSON(w, http.StatusOK, items)
		case http.MethodPost:
			var req R
			if !decodeAndValidate(w, r, h.validate, &req) {
				return
			}
			created, err := res.create(r.Context(), res.toModel(req))
			if err != nil {
				writeError(w, h.logger, err, "create "+res.name)
				return
			}
			writeJSON(w, http.StatusCreated, created)
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	}))

	mux.Handle(res.prefix+"/", admin(func(w http.ResponseWriter, r *http.Request) {
		parts := pathSegments(r.URL.Path, res.prefix+"/")
		if len(parts) != 1 {
			http.NotFound(w, r)
			return
		}
		id := parts[0]
		switch r.Method {
		case http.MethodPut:
			var req R
			if !decodeAndValidate(w, r, h.validate, &req) {
				return
			}
			updated, err := res.update(r.Context(), id, res.toModel(req))
			if err != nil {
				writeError(w, h.logger, err, "update "+res.name)
				return
			}
			writeJSON(w, http.StatusOK, updated)
		case http.MethodDelete:
			if err := res.remove(r.Context(), id); err != nil {
				writeError(w, h.logger, err, "delete "+res.name)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}
	}))
}

// handleHero godoc
// @Summary Get or replace the landing hero
// @Tags admin
// @Accept json
// @Produce json
// @Param hero body dto.HeroRequest false "Hero content (PUT)"
// @Success 200 {object} model.Hero
// @Router /admin/hero [get]
// @Router /admin/hero [put]
// @Security BearerAuth
func (h *AdminHandler) handleHero(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		hero, err := h.admin.GetHero(r.Context())
		if err != nil {
			writeError(w, h.logger, err, "retrieve hero")
			return
		}
		writeJSON(w, http.StatusOK, hero)
	case http.MethodPut:
		var req dto.HeroRequest
		if !decodeAndValidate(w, r, h.validate, &req) {
			return
		}
		hero, err := h.admin.UpdateHero(r.Context(), req.ToModel())
		if err != nil {
			writeError(w, h.logger, err, "update hero")
			return
		}
		writeJSON(w, http.StatusOK, hero)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// handleCountdown godoc
// @Summary Get or replace the landing countdown
// @Tags admin
// @Accept json
// @Produce json
// @Param countdown body dto.CountdownRequest false "Countdown (PUT)"
// @Success 200 {object} model.Countdown
// @Success 204 "No countdown configured"
// @Router /admin/countdown [get]
// @Router /admin/countdown [put]
// @Security BearerAuth
func (h *AdminHandler) handleCountdown(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		c, err := h.admin.GetCountdown(r.Context())
		if err != nil {
			writeError(w, h.logger, err, "retrieve countdown")
			return
		}
		if c == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, c)
	case http.MethodPut:
		var req dto.CountdownRequest
		if !decodeAndValidate(w, r, h.validate, &req) {
			return
		}
		c, err := h.admin.UpdateCountdown(r.Context(), req.ToModel())
		if err != nil {
			writeError(w, h.logger, err, "update countdown")
			return
		}
		writeJSON(w, http.StatusOK, c)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// uploadURL godoc
// @Summary Get a presigned upload URL for landing or course media
// @Tags admin
// @Accept json
// @Produce json
// @Param request body dto.UploadURLRequest true "File to upload"
// @Success 200 {object} service.UploadTarget
// @Failure 503 {string} string "Media storage is not configured"
// @Router /admin/media/upload-url [post]
// @Security BearerAuth
func (h *AdminHandler) uploadURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.UploadURLRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	target, err := h.media.PresignUpload(r.Context(), req.Kind, req.Filename, req.ContentType)
	if err != nil {
		writeError(w, h.logger, err, "generate upload URL")
		return
	}
	writeJSON(w, http.StatusOK, target)
}

// export godoc
// @Summary Download contacts or enrollments as a spreadsheet
// @Tags admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param kind path string true "contacts or enrollments"
// @Success 200 {file} file
// @Router /admin/export/{kind} [get]
// @Security BearerAuth
func (h *AdminHandler) export(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	parts := pathSegments(r.URL.Path, "/admin/export/")
	if len(parts) != 1 {
		http.NotFound(w, r)
		return
	}
	// Buffer so a failed export can still answer with an error status.
	var buf bytes.Buffer
	var err error
	switch parts[0] {
	case "contacts":
		err = h.exports.ExportContacts(r.Context(), &buf)
	case "enrollments":
		err = h.exports.ExportEnrollments(r.Context(), &buf)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		writeError(w, h.logger, err, "export "+parts[0])
		return
	}
	filename := fmt.Sprintf("%s-%s.xlsx", parts[0], time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
