// Package services defines the business logic of the automation backend:
// webhook dispatch, outbound actions, automation rule management, analytics,
// and maintenance. This file centralizes service-level error values so that
// they can be consistently returned by service methods and checked by callers.
//
// Translation into HTTP status codes is performed at the handler layer.
package services

import "errors"

// Webhook errors.
var (
	// ErrMissingVerifyParams is returned when the subscription handshake
	// lacks hub.mode, hub.verify_token or hub.challenge.
	ErrMissingVerifyParams = errors.New("missing verification parameters")

	// ErrVerifyTokenMismatch is returned when the handshake token does not
	// match the configured verify token, or the mode is not "subscribe".
	ErrVerifyTokenMismatch = errors.New("verify token mismatch")

	// ErrInvalidSignature is returned when X-Hub-Signature-256 is missing or
	// does not match the body.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrMalformedPayload is returned when the delivery body is not valid JSON.
	ErrMalformedPayload = errors.New("malformed webhook payload")

	// ErrUnknownObject is returned when the payload object is not the
	// configured provider object.
	ErrUnknownObject = errors.New("unrecognized webhook object")

	// ErrStoreUnavailable means the key-value store could not be reached, so
	// no outbound action was attempted. The provider should redeliver.
	ErrStoreUnavailable = errors.New("automation store unavailable")
)

// Dashboard errors.
var (
	// ErrAutomationNotFound indicates no automation rule exists for the media id.
	ErrAutomationNotFound = errors.New("automation not found")

	// ErrNotOwner is returned when a caller writes or deletes a rule owned
	// by another user.
	ErrNotOwner = errors.New("automation belongs to another user")

	// ErrInvalidID is returned for blank or malformed media/account ids.
	ErrInvalidID = errors.New("invalid id")

	// ErrQuotaExceeded is returned when a user exceeds the daily automation
	// write quota.
	ErrQuotaExceeded = errors.New("daily automation quota exceeded")

	// ErrInvalidPeriod is returned for an unknown analytics period.
	ErrInvalidPeriod = errors.New("period must be one of: today, week, all")

	// ErrAccountNotFound indicates the business account is not registered.
	ErrAccountNotFound = errors.New("account not found")

	// ErrRecordNotFound indicates there is no reply record for a comment.
	ErrRecordNotFound = errors.New("reply record not found")
)
