package dto

import "formation/internal/model"

type ContactRequest struct {
	Name    string `json:"name" validate:"required,max=120"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"omitempty,dzphone"`
	Wilaya  string `json:"wilaya" validate:"omitempty,wilaya"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

func (r ContactRequest) ToModel() model.ContactMessage {
	return model.ContactMessage{
		Name:    r.Name,
		Email:   r.Email,
		Phone:   r.Phone,
		Wilaya:  r.Wilaya,
		Subject: r.Subject,
		Message: r.Message,
	}
}

type ContactReadRequest struct {
	IsRead *bool `json:"is_read" validate:"required"`
}
