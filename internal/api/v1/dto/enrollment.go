package dto

type EnrollRequest struct {
	// Course slug or ID.
	Course string `json:"course" validate:"required"`
}

type QuizSubmitRequest struct {
	CourseID string         `json:"course_id" validate:"required"`
	Answers  map[string]int `json:"answers" validate:"required,min=1"`
}

type DownloadResponse struct {
	URL string `json:"url"`
}
