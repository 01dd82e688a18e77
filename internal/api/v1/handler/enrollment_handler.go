package handler

import (
	"net/http"

	"formation/internal/api/v1/dto"
	"formation/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// EnrollmentHandler serves the student dashboard under /me.
type EnrollmentHandler struct {
	students service.StudentService
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewEnrollmentHandler(students service.StudentService, validate *validator.Validate, logger zerolog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{students: students, validate: validate, logger: logger}
}

func (h *EnrollmentHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/me/enrollments", authMw(http.HandlerFunc(h.handleEnrollments)))
	mux.Handle("/me/enrollments/", authMw(http.HandlerFunc(h.handleEnrollment)))
	mux.Handle("/me/quizzes/", authMw(http.HandlerFunc(h.handleQuiz)))
}

func (h *EnrollmentHandler) handleEnrollments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listEnrollments(w, r)
	case http.MethodPost:
		h.enroll(w, r)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// handleEnrollment routes /me/enrollments/stats,
// /me/enrollments/{courseId} and
// /me/enrollments/{courseId}/lessons/{lessonId}/complete.
func (h *EnrollmentHandler) handleEnrollment(w http.ResponseWriter, r *http.Request) {
	parts := pathSegments(r.URL.Path, "/me/enrollments/")
	switch {
	case len(parts) == 1 && parts[0] == "stats" && r.Method == http.MethodGet:
		h.stats(w, r)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.drop(w, r, parts[0])
	case len(parts) == 4 && parts[1] == "lessons" && parts[3] == "complete" && r.Method == http.MethodPost:
		h.completeLesson(w, r, parts[0], parts[2])
	case len(parts) == 1 || len(parts) == 4:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	default:
		http.NotFound(w, r)
	}
}

// listEnrollments godoc
// @Summary List my enrollments
// @Tags enrollments
// @Produce json
// @Success 200 {array} model.Enrollment
// @Failure 401 {string} string "Unauthorized"
// @Router /me/enrollments [get]
// @Security BearerAuth
func (h *EnrollmentHandler) listEnrollments(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDOrUnauthorized(w, r)
	if !ok {
		return
	}
	list, err := h.students.ListEnrollments(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err, "list enrollments")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// enroll godoc
// @Summary Enroll in a course
// @Description Idempotent: enrolling again returns the existing enrollment with 200.
// @Tags enrollments
// @Accept json
// @Produce json
// @Param request body dto.EnrollRequest true "Course slug or ID"
// @Success 200 {object} model.Enrollment
// @Success 201 {object} model.Enrollment
// @Failure 404 {string} string "Not found"
// @Router /me/enrollments [post]
// @Security BearerAuth
func (h *EnrollmentHandler) enroll(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDOrUnauthorized(w, r)
	if !ok {
		return
	}
	var req dto.EnrollRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	e, created, err := h.students.Enroll(r.Context(), userID, req.Course)
	if err != nil {
		writeError(w, h.logger, err, "enroll")
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, e)
}

// stats godoc
// @Summary Dashboard statistics
// @Tags enrollments
// @Produce json
// @Success 200 {object} service.Dashboard
// @Router /me/enrollments/stats [get]
// @Security BearerAuth
func (h *EnrollmentHandler) stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDOrUnauthorized(w, r)
	if !ok {
		return
	}
	d, err := h.students.Dashboard(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err, "load dashboard")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// completeLesson godoc
// @Summary Mark a lesson as completed
// @Description Completing the same lesson twice counts it once.
// @Tags enrollments
// @Produce json
// @Param courseId path string true "Course ID"
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} model.Enrollment
// @Failure 404 {string} string "Not enrolled or unknown lesson"
// @Failure 409 {string} string "Enrollment is no longer active"
// @Router /me/enrollments/{courseId}/lessons/{lessonId}/complete [post]
// @Security BearerAuth
func (h *EnrollmentHandler) completeLesson(w http.ResponseWriter, r *http.Request, courseID, lessonID string) {
	userID, ok := userIDOrUnauthorized(w, r)
	if !ok {
		return
	}
	e, err := h.students.CompleteLesson(r.Context(), userID, courseID, lessonID)
	if err != nil {
		writeError(w, h.logger, err, "complete lesson")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// drop godoc
// @Summary Drop a course
// @Tags enrollments
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} model.Enrollment
// @Router /me/enrollments/{courseId} [delete]
// @Security BearerAuth
func (h *EnrollmentHandler) drop(w http.ResponseWriter, r *http.Request, courseID string) {
	userID, ok := userIDOrUnauthorized(w, r)
	if !ok {
		return
	}
	e, err := h.students.Drop(r.Context(), userID, courseID)
	if err != nil {
		writeError(w, h.logger, err, "drop course")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// handleQuiz routes /me/quizzes/{quizId} and /me/quizzes/{quizId}/attempts.
func (h *EnrollmentHandler) handleQuiz(w http.ResponseWriter, r *http.Request) {
	parts := pathSegments(r.URL.Path, "/me/quizzes/")
	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.getQuiz(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "attempts" && r.Method == http.MethodPost:
		h.submitQuiz(w, r, parts[0])
	case len(parts) == 1 || (len(parts) == 2 && parts[1] == "attempts"):
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	default:
		http.NotFound(w, r)
	}
}

// getQuiz godoc
// @Summary Get a quiz
// @Tags enrollments
// @Produce json
// @Param quizId path string true "Quiz ID"
// @Param course_id query string true "Course the quiz belongs to"
// @Success 200 {object} model.Quiz
// @Failure 400 {string} string "Missing course_id"
// @Failure 404 {string} string "Not enrolled or unknown quiz"
// @Router /me/quizzes/{quizId} [get]
// @Security BearerAuth
func (h *EnrollmentHandler) getQuiz(w http.ResponseWriter, r *http.Request, quizID string) {
	userID, ok := userIDOrUnauthorized(w, r)
	if !ok {
		return
	}
	courseID := r.URL.Query().Get("course_id")
	if courseID == "" {
		http.Error(w, "course_id is required", http.StatusBadRequest)
		return
	}
	quiz, err := h.students.GetQuiz(r.Context(), userID, courseID, quizID)
	if err != nil {
		writeError(w, h.logger, err, "get quiz")
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

// submitQuiz godoc
// @Summary Submit a quiz attempt
// @Tags enrollments
// @Accept json
// @Produce json
// @Param quizId path string true "Quiz ID"
// @Param request body dto.QuizSubmitRequest true "Answers keyed by question ID"
// @Success 201 {object} service.QuizOutcome
// @Router /me/quizzes/{quizId}/attempts [post]
// @Security BearerAuth
func (h *EnrollmentHandler) submitQuiz(w http.ResponseWriter, r *http.Request, quizID string) {
	userID, ok := userIDOrUnauthorized(w, r)
	if !ok {
		return
	}
	var req dto.QuizSubmitRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	out, err := h.students.SubmitQuiz(r.Context(), userID, req.CourseID, quizID, req.Answers)
	if err != nil {
		writeError(w, h.logger, err, "submit quiz")
		return
	}
	writeJSON(w, http.StatusCreated, out)
}
