package apiclient

import (
	"context"
	"net/http"

	"formation/internal/model"
)

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
	Wilaya    string `json:"wilaya,omitempty"`
}

// VerifyEmailResult is the upstream answer to an email verification.
type VerifyEmailResult struct {
	Verified bool   `json:"verified"`
	Detail   string `json:"detail,omitempty"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*model.AuthTokens, error) {
	body := map[string]string{"email": email, "password": password}
	var tokens model.AuthTokens
	if err := c.do(ctx, http.MethodPost, "/auth/login/", nil, body, &tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodPost, "/auth/register/", nil, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*model.AuthTokens, error) {
	body := map[string]string{"refresh": refreshToken}
	var tokens model.AuthTokens
	if err := c.do(ctx, http.MethodPost, "/auth/token/refresh/", nil, body, &tokens); err != nil {
		return nil, err
	}
	if tokens.Refresh == "" {
		tokens.Refresh = refreshToken
	}
	return &tokens, nil
}

// Me returns the user owning the token carried by ctx.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodGet, "/auth/me/", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) VerifyEmail(ctx context.Context, token string) (*VerifyEmailResult, error) {
	body := map[string]string{"token": token}
	var res VerifyEmailResult
	if err := c.do(ctx, http.MethodPost, "/auth/verify-email/", nil, body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) ResendVerification(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/resend-verification/", nil, map[string]string{"email": email}, nil)
}

func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/password-reset/", nil, map[string]string{"email": email}, nil)
}
