package dto

import "formation/internal/apiclient"

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Phone     string `json:"phone" validate:"required,dzphone"`
	Wilaya    string `json:"wilaya" validate:"required,wilaya"`
}

func (r RegisterRequest) ToClient() apiclient.RegisterRequest {
	return apiclient.RegisterRequest{
		Email:     r.Email,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
		Wilaya:    r.Wilaya,
	}
}

type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

// EmailRequest is used by resend-verification and password-reset.
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}
