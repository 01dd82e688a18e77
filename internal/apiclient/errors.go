package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
)

// APIError is a non-2xx response from the upstream API.
type APIError struct {
	Status int
	// Code is the machine readable error code, e.g. "token_not_valid".
	Code   string
	Detail string
	// Fields holds per-field validation messages (Django serializer errors).
	Fields map[string][]string
}

func (e *APIError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.firstFieldError()
	}
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("upstream API returned status %d: %s", e.Status, msg)
}

func (e *APIError) firstFieldError() string {
	if len(e.Fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if msgs := e.Fields[k]; len(msgs) > 0 {
			if k == "non_field_errors" {
				return msgs[0]
			}
			return k + ": " + msgs[0]
		}
	}
	return ""
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	if len(body) == 0 {
		return apiErr
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		apiErr.Detail = strings.TrimSpace(string(body))
		if len(apiErr.Detail) > 200 || strings.HasPrefix(apiErr.Detail, "<") {
			apiErr.Detail = ""
		}
		return apiErr
	}
	for key, raw := range payload {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			switch key {
			case "detail", "message", "error":
				apiErr.Detail = s
				continue
			case "code":
				apiErr.Code = s
				continue
			}
			apiErr.addField(key, s)
			continue
		}
		var list []string
		if err := json.Unmarshal(raw, &list); err == nil {
			for _, m := range list {
				apiErr.addField(key, m)
			}
		}
	}
	return apiErr
}

func (e *APIError) addField(key, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[key] = append(e.Fields[key], msg)
}

func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func IsNotFound(err error) bool     { return statusOf(err) == http.StatusNotFound }
func IsUnauthorized(err error) bool { return statusOf(err) == http.StatusUnauthorized }
func IsForbidden(err error) bool    { return statusOf(err) == http.StatusForbidden }

// HTTPStatus maps err to the status a handler should answer with.
func HTTPStatus(err error) int {
	if s := statusOf(err); s != 0 {
		if s >= 500 {
			return http.StatusBadGateway
		}
		return s
	}
	if isTimeout(err) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// UserMessage turns err into a message suitable for a banner or toast.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusBadRequest:
			if apiErr.Detail != "" {
				return apiErr.Detail
			}
			if msg := apiErr.firstFieldError(); msg != "" {
				return msg
			}
			return "The submitted data is invalid."
		case apiErr.Status == http.StatusUnauthorized:
			return "Your session has expired. Please sign in again."
		case apiErr.Status == http.StatusForbidden:
			return "You do not have permission to perform this action."
		case apiErr.Status == http.StatusNotFound:
			return "The requested resource was not found."
		case apiErr.Status == http.StatusTooManyRequests:
			return "Too many requests. Please wait a moment and try again."
		case apiErr.Status >= 500:
			return "The server encountered an error. Please try again later."
		}
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		return "The request could not be completed."
	}
	if errors.Is(err, context.Canceled) {
		return "The request was cancelled."
	}
	if isTimeout(err) {
		return "The server took too long to respond. Please try again."
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return "Unable to reach the server. Please check your connection."
	}
	return "An unexpected error occurred."
}

// IsUpstream reports whether err came from talking to the upstream API, as
// opposed to a local failure.
func IsUpstream(err error) bool {
	if statusOf(err) != 0 || isTimeout(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
