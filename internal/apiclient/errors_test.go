package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"detail", &APIError{Status: 400, Detail: "Invalid credentials."}, "Invalid credentials."},
		{"non field", &APIError{Status: 400, Fields: map[string][]string{"non_field_errors": {"Bad pair."}}}, "Bad pair."},
		{"unauthorized", &APIError{Status: 401}, "Your session has expired. Please sign in again."},
		{"forbidden", &APIError{Status: 403}, "You do not have permission to perform this action."},
		{"not found", fmt.Errorf("wrap: %w", &APIError{Status: 404}), "The requested resource was not found."},
		{"server", &APIError{Status: 503}, "The server encountered an error. Please try again later."},
		{"deadline", context.DeadlineExceeded, "The server took too long to respond. Please try again."},
		{"other", errors.New("boom"), "An unexpected error occurred."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestUserMessageUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, time.Second, zerolog.Nop())
	_, err := c.GetHero(context.Background())
	assert.Error(t, err)
	assert.Equal(t, "Unable to reach the server. Please check your connection.", UserMessage(err))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(err))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(&APIError{Status: 404}))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(&APIError{Status: 500}))
	assert.Equal(t, http.StatusGatewayTimeout, HTTPStatus(context.DeadlineExceeded))
	assert.True(t, IsUnauthorized(&APIError{Status: 401}))
}

func TestParseAPIErrorHTMLBody(t *testing.T) {
	e := parseAPIError(502, []byte("<html>bad gateway</html>"))
	assert.Equal(t, "", e.Detail)
	assert.Contains(t, e.Error(), "Bad Gateway")
}

func TestParseAPIErrorKeepsCode(t *testing.T) {
	e := parseAPIError(401, []byte(`{"detail":"Given token not valid for any token type","code":"token_not_valid","messages":[]}`))
	assert.Equal(t, "token_not_valid", e.Code)
	assert.Equal(t, "Given token not valid for any token type", e.Detail)
	assert.NotContains(t, e.Fields, "code")

	e = parseAPIError(400, []byte(`{"email":["This field is required."]}`))
	assert.Empty(t, e.Code)
	assert.Equal(t, []string{"This field is required."}, e.Fields["email"])
}

func TestIsUpstream(t *testing.T) {
	assert.True(t, IsUpstream(&APIError{Status: 404}))
	assert.True(t, IsUpstream(fmt.Errorf("GET /x: %w", context.DeadlineExceeded)))
	assert.False(t, IsUpstream(errors.New("local failure")))
	assert.False(t, IsUpstream(nil))
}
