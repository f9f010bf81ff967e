package graph

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNoToken is returned when a call is attempted without an access token.
var ErrNoToken = errors.New("graph: access token is empty")

// Kind groups provider error codes by the operator action they call for.
type Kind string

const (
	KindPermission Kind = "permission"
	KindToken      Kind = "token"
	KindParameter  Kind = "parameter"
	KindThrottled  Kind = "throttled"
	KindServer     Kind = "server"
	KindUnknown    Kind = "unknown"
)

// APIError is a non-2xx Graph API response. Code and Message are passed
// through unchanged from the provider's error object.
type APIError struct {
	Status    int    `json:"-"`
	Code      int    `json:"code"`
	Subcode   int    `json:"error_subcode"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	FBTraceID string `json:"fbtrace_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("graph: status %d code %d: %s", e.Status, e.Code, e.Message)
}

// Kind classifies e by provider code, falling back to the HTTP status.
func (e *APIError) Kind() Kind {
	switch {
	case e.Code == 190:
		return KindToken
	case e.Code == 3 || e.Code == 10 || (e.Code >= 200 && e.Code <= 299):
		return KindPermission
	case e.Code == 100:
		return KindParameter
	case e.Code == 4 || e.Code == 17 || e.Code == 32 || e.Code == 613:
		return KindThrottled
	case e.Status >= http.StatusInternalServerError:
		return KindServer
	}
	return KindUnknown
}

// IsDuplicate reports whether the provider rejected the call because the
// same reply already exists.
func (e *APIError) IsDuplicate() bool {
	m := strings.ToLower(e.Message)
	return strings.Contains(m, "duplicate") ||
		(strings.Contains(m, "already") && (strings.Contains(m, "replied") || strings.Contains(m, "exists") || strings.Contains(m, "sent")))
}

// Temporary reports whether retrying later may succeed.
func (e *APIError) Temporary() bool {
	k := e.Kind()
	return k == KindThrottled || k == KindServer
}

// Guidance is the operator hint logged next to a failed call.
func (e *APIError) Guidance() string {
	switch e.Kind() {
	case KindPermission:
		return "check token permissions (instagram_manage_messages, instagram_manage_comments); re-authenticate or submit the app for review"
	case KindToken:
		return "token may be expired or invalid; re-authenticate to obtain a new token"
	case KindParameter:
		return "check the comment id / recipient format"
	case KindThrottled:
		return "provider rate limit reached; calls resume when the window resets"
	case KindServer:
		return "provider error; a redelivery will retry"
	}
	return ""
}

// AsAPIError unwraps err to an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
