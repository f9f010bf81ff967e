// Package handlers provides the HTTP handlers for the provider webhook, the
// dashboard API and the operator endpoints.
//
// This file holds the response helpers shared by every handler. Errors are
// always written as an ErrorResponse with a stable code; fail() also logs
// server-side failures through the request-scoped logger.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "automation not found"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-ig-automation/internal/domain"
	"github.com/tbourn/go-ig-automation/internal/http/middleware"
	"github.com/tbourn/go-ig-automation/internal/kv"
	"github.com/tbourn/go-ig-automation/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"automation not found"`
}

// fail aborts the request with a structured error. Statuses >= 500 are
// logged with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for the router.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr maps a service, domain or store error onto the envelope. Unknown
// errors become 500 without leaking their text.
func failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, kv.ErrUnavailable), errors.Is(err, services.ErrStoreUnavailable):
		fail(c, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, "automation store unavailable")
	case errors.Is(err, domain.ErrInvalidRule):
		fail(c, http.StatusBadRequest, ErrCodeInvalidRule, err.Error())
	case errors.Is(err, services.ErrInvalidID):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "id must be 1-128 characters of [A-Za-z0-9_-]")
	case errors.Is(err, services.ErrInvalidPeriod):
		fail(c, http.StatusBadRequest, ErrCodeInvalidPeriod, err.Error())
	case errors.Is(err, services.ErrAutomationNotFound),
		errors.Is(err, services.ErrAccountNotFound),
		errors.Is(err, services.ErrRecordNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrNotOwner):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, services.ErrQuotaExceeded):
		fail(c, http.StatusTooManyRequests, ErrCodeQuotaExceeded, err.Error())
	default:
		middleware.LoggerFrom(c).Error().Err(err).Msg("unhandled service error")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
