package handler

import (
	"net/http"

	"formation/internal/api/v1/dto"
	"formation/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type AuthHandler struct {
	authService service.AuthService
	validate    *validator.Validate
	logger      zerolog.Logger
}

func NewAuthHandler(authService service.AuthService, validate *validator.Validate, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, validate: validate, logger: logger}
}

func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.HandleFunc("/auth/login", h.post(h.login))
	mux.HandleFunc("/auth/register", h.post(h.register))
	mux.HandleFunc("/auth/refresh", h.post(h.refresh))
	mux.HandleFunc("/auth/verify-email", h.post(h.verifyEmail))
	mux.HandleFunc("/auth/resend-verification", h.post(h.resendVerification))
	mux.HandleFunc("/auth/password-reset", h.post(h.passwordReset))
	mux.Handle("/auth/me", authMw(http.HandlerFunc(h.me)))
}

func (h *AuthHandler) post(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

// login godoc
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body dto.LoginRequest true "Email and password"
// @Success 200 {object} model.AuthTokens
// @Failure 400 {string} string "Validation failed"
// @Failure 401 {string} string "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	tokens, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err, "log in")
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

// register godoc
// @Summary Create a student account
// @Tags auth
// @Accept json
// @Produce json
// @Param account body dto.RegisterRequest true "Registration form"
// @Success 201 {object} model.User
// @Failure 400 {string} string "Validation failed"
// @Router /auth/register [post]
func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	user, err := h.authService.Register(r.Context(), req.ToClient())
	if err != nil {
		writeError(w, h.logger, err, "register")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// refresh godoc
// @Summary Refresh an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param token body dto.RefreshRequest true "Refresh token"
// @Success 200 {object} model.AuthTokens
// @Router /auth/refresh [post]
func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	tokens, err := h.authService.Refresh(r.Context(), req.Refresh)
	if err != nil {
		writeError(w, h.logger, err, "refresh token")
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

// verifyEmail godoc
// @Summary Verify an email address
// @Description Safe to call repeatedly with the same token.
// @Tags auth
// @Accept json
// @Produce json
// @Param token body dto.VerifyEmailRequest true "Verification token"
// @Success 200 {object} apiclient.VerifyEmailResult
// @Router /auth/verify-email [post]
func (h *AuthHandler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyEmailRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	res, err := h.authService.VerifyEmail(r.Context(), req.Token)
	if err != nil {
		writeError(w, h.logger, err, "verify email")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// resendVerification godoc
// @Summary Resend the verification email
// @Tags auth
// @Accept json
// @Param email body dto.EmailRequest true "Account email"
// @Success 202
// @Router /auth/resend-verification [post]
func (h *AuthHandler) resendVerification(w http.ResponseWriter, r *http.Request) {
	var req dto.EmailRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	if err := h.authService.ResendVerification(r.Context(), req.Email); err != nil {
		writeError(w, h.logger, err, "resend verification")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// passwordReset godoc
// @Summary Request a password reset email
// @Tags auth
// @Accept json
// @Param email body dto.EmailRequest true "Account email"
// @Success 202
// @Router /auth/password-reset [post]
func (h *AuthHandler) passwordReset(w http.ResponseWriter, r *http.Request) {
	var req dto.EmailRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	if err := h.authService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeError(w, h.logger, err, "request password reset")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} model.User
// @Failure 401 {string} string "Unauthorized"
// @Router /auth/me [get]
// @Security BearerAuth
func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	user, err := h.authService.Me(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "load profile")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
