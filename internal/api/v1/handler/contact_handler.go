package handler

import (
	"net/http"

	"formation/internal/api/v1/dto"
	"formation/internal/middleware"
	"formation/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type ContactHandler struct {
	contacts service.ContactService
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewContactHandler(contacts service.ContactService, validate *validator.Validate, logger zerolog.Logger) *ContactHandler {
	return &ContactHandler{contacts: contacts, validate: validate, logger: logger}
}

// RegisterRoutes mounts the public form and the admin inbox.
func (h *ContactHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.HandleFunc("/contact", h.submit)
	mux.Handle("/admin/contact", authMw(middleware.AdminOnly(http.HandlerFunc(h.list))))
	mux.Handle("/admin/contact/", authMw(middleware.AdminOnly(http.HandlerFunc(h.handleMessage))))
}

// submit godoc
// @Summary Send a message through the contact form
// @Tags contact
// @Accept json
// @Produce json
// @Param message body dto.ContactRequest true "Contact form"
// @Success 201 {object} model.ContactMessage
// @Failure 400 {string} string "Validation failed"
// @Router /contact [post]
func (h *ContactHandler) submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.ContactRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	created, err := h.contacts.Submit(r.Context(), req.ToModel())
	if err != nil {
		writeError(w, h.logger, err, "send message")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// list godoc
// @Summary List contact messages
// @Tags admin
// @Produce json
// @Param unread query bool false "Only unread messages"
// @Success 200 {array} model.ContactMessage
// @Router /admin/contact [get]
// @Security BearerAuth
func (h *ContactHandler) list(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	msgs, err := h.contacts.List(r.Context(), r.URL.Query().Get("unread") == "true")
	if err != nil {
		writeError(w, h.logger, err, "list messages")
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// handleMessage godoc
// @Summary Mark a contact message read/unread, or delete it
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Message ID"
// @Param request body dto.ContactReadRequest false "Read flag (PATCH)"
// @Success 200 {object} model.ContactMessage
// @Success 204
// @Router /admin/contact/{id} [patch]
// @Router /admin/contact/{id} [delete]
// @Security BearerAuth
func (h *ContactHandler) handleMessage(w http.ResponseWriter, r *http.Request) {
	parts := pathSegments(r.URL.Path, "/admin/contact/")
	if len(parts) != 1 {
		http.NotFound(w, r)
		return
	}
	id := parts[0]
	switch r.Method {
	case http.MethodPatch:
		var req dto.ContactReadRequest
		if !decodeAndValidate(w, r, h.validate, &req) {
			return
		}
		msg, err := h.contacts.MarkRead(r.Context(), id, *req.IsRead)
		if err != nil {
			writeError(w, h.logger, err, "update message")
			return
		}
		writeJSON(w, http.StatusOK, msg)
	case http.MethodDelete:
		if err := h.contacts.Delete(r.Context(), id); err != nil {
			writeError(w, h.logger, err, "delete message")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}
