package api

import (
	"fmt"
	"net/http"
	"strings"
)

// maxBodyInMessage caps how much of a non-JSON body ends up in error text
const maxBodyInMessage = 512

// ErrorDetail is one entry of the errors array of a failed API response
type ErrorDetail struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
}

// APIError is returned when Cloudflare answers with success=false
type APIError struct {
	Message    string
	StatusCode int
	Errors     []ErrorDetail
}

func (e *APIError) Error() string {
	return "API request failed: " + e.Message
}

// Hint returns a short suggestion for common failures, or ""
func (e *APIError) Hint() string {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return "check that CLOUDFLARE_API_TOKEN is valid"
	case http.StatusForbidden:
		return "your API token may be missing the Workers Scripts:Edit permission"
	case http.StatusNotFound:
		return "check CLOUDFLARE_ACCOUNT_ID and the worker name"
	case http.StatusTooManyRequests:
		return "rate limited, try again in a few seconds"
	}

	lower := strings.ToLower(e.Message)
	if strings.Contains(lower, "invalid") && strings.Contains(lower, "token") {
		return "check that CLOUDFLARE_API_TOKEN is valid"
	}
	return ""
}

// InvalidResponseError is returned when the response body is not JSON
type InvalidResponseError struct {
	Body       string
	StatusCode int
	Err        error
}

func (e *InvalidResponseError) Error() string {
	body := e.Body
	if len(body) > maxBodyInMessage {
		body = body[:maxBodyInMessage] + "..."
	}
	return fmt.Sprintf("Invalid JSON response from API (status %d): %s", e.StatusCode, body)
}

func (e *InvalidResponseError) Unwrap() error {
	return e.Err
}
