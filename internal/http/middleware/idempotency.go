// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements Idempotency-Key support for dashboard writes. The
// validator checks the header, stashes the key, and asks a lookup whether the
// same (user, resource, key) already completed. On a hit the request is
// flagged as a replay and exempted from rate limiting; the handler decides
// how to answer it. Recording completed keys is the handler's job.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying the idempotency key.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"
)

var defaultIdemPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the validated key stored by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether the request repeats a completed operation.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions configures IdempotencyValidator.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters; nil uses ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
	// Resource derives the scope of a key from the request. nil uses
	// ResourceFromRoute.
	Resource func(*gin.Context) string
}

// IdempotencyLookup reports whether a still-valid completion exists for
// (userID, resource, key). TTLs are enforced by the implementation. Lookup
// errors never block the request.
type IdempotencyLookup func(ctx context.Context, userID, resource, key string, now time.Time) (exists bool, err error)

// ResourceFromRoute scopes keys to the matched route and its parameters,
// e.g. "PUT /api/v1/automations/:mediaId|17900".
func ResourceFromRoute(c *gin.Context) string {
	res := c.Request.Method + " " + c.FullPath()
	for _, p := range c.Params {
		res += "|" + p.Value
	}
	return res
}

// IdempotencyValidator validates the Idempotency-Key header on unsafe
// methods. Absent header: no-op. Invalid header: 400. Replay: flags the
// context (see IsReplay, IsRateBypass) and continues.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultIdemPattern
	}
	resourceOf := opts.Resource
	if resourceOf == nil {
		resourceOf = ResourceFromRoute
	}

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			exists, err := lookup(c.Request.Context(), userIDFromCtx(c), resourceOf(c), key, time.Now().UTC())
			if err != nil {
				LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
			}
			if exists {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}
		c.Next()
	}
}

// userIDFromCtx returns the caller identity set by UserID(), or "anonymous".
func userIDFromCtx(c *gin.Context) string {
	if v, ok := c.Get(userIDKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "anonymous"
}

// UserIDFrom is the exported variant of userIDFromCtx for handlers.
func UserIDFrom(c *gin.Context) string { return userIDFromCtx(c) }
