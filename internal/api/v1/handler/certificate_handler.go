package handler

import (
	"net/http"

	"formation/internal/api/v1/dto"
	"formation/internal/service"

	"github.com/rs/zerolog"
)

type CertificateHandler struct {
	certificates service.CertificateService
	logger       zerolog.Logger
}

func NewCertificateHandler(certificates service.CertificateService, logger zerolog.Logger) *CertificateHandler {
	return &CertificateHandler{certificates: certificates, logger: logger}
}

func (h *CertificateHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/me/certificates", authMw(http.HandlerFunc(h.listCertificates)))
	mux.Handle("/me/certificates/", authMw(http.HandlerFunc(h.downloadCertificate)))
}

// listCertificates godoc
// @Summary List my certificates
// @Tags certificates
// @Produce json
// @Success 200 {array} model.Certificate
// @Router /me/certificates [get]
// @Security BearerAuth
func (h *CertificateHandler) listCertificates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	certs, err := h.certificates.ListMine(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "list certificates")
		return
	}
	writeJSON(w, http.StatusOK, certs)
}

// downloadCertificate godoc
// @Summary Get a download link for a certificate
// @Tags certificates
// @Produce json
// @Param id path string true "Certificate ID"
// @Success 200 {object} dto.DownloadResponse
// @Failure 404 {string} string "Not found"
// @Router /me/certificates/{id}/download [get]
// @Security BearerAuth
func (h *CertificateHandler) downloadCertificate(w http.ResponseWriter, r *http.Request) {
	parts := pathSegments(r.URL.Path, "/me/certificates/")
	if len(parts) != 2 || parts[1] != "download" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	link, err := h.certificates.DownloadURL(r.Context(), parts[0])
	if err != nil {
		writeError(w, h.logger, err, "generate certificate link")
		return
	}
	writeJSON(w, http.StatusOK, dto.DownloadResponse{URL: link})
}
