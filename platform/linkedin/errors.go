package linkedin

import (
	"fmt"
	"net/http"
)

// PlatformError is a typed LinkedIn API failure. UserMessage carries the
// string surfaced to end users; Message keeps the raw platform text for
// logs.
type PlatformError struct {
	StatusCode  int    `json:"status_code"`
	ServiceCode int    `json:"service_code,omitempty"`
	Message     string `json:"message"`
	UserMessage string `json:"user_message"`
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("linkedin: %s (status %d, service code %d)", e.Message, e.StatusCode, e.ServiceCode)
}

func userMessageFor(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "LinkedIn rejected the stored credentials. Please reconnect your account."
	case http.StatusForbidden:
		return "LinkedIn denied permission to publish with this account."
	case http.StatusUnprocessableEntity:
		return "LinkedIn rejected the post content (possible duplicate)."
	case http.StatusTooManyRequests:
		return "LinkedIn rate limit reached. The post will be retried automatically."
	default:
		return "Failed to publish to LinkedIn"
	}
}
