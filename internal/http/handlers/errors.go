// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are the stable, machine-readable half of the ErrorResponse envelope;
// clients branch on them rather than on messages. They are lowercase
// snake_case. Generic codes mirror HTTP status semantics, the rest name a
// specific failure of the webhook or dashboard surface.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "quota_exceeded",
//	  "message": "daily automation quota exceeded"
//	}
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Webhook:
	ErrCodeInvalidSignature = "invalid_signature"
	ErrCodeMalformedPayload = "malformed_payload"
	ErrCodeUnknownObject    = "unknown_object"
	ErrCodeStoreUnavailable = "store_unavailable"

	// Dashboard:
	ErrCodeInvalidRule   = "invalid_rule"
	ErrCodeInvalidPeriod = "invalid_period"
	ErrCodeQuotaExceeded = "quota_exceeded"
	ErrCodeCleanupFailed = "cleanup_failed"
	ErrCodeNoTokenFile   = "no_token_file"
)
