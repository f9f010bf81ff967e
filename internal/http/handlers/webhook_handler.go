// Webhook HTTP handlers.
//
// This file exposes the provider callback endpoint:
//   - GET  /webhook/instagram   (subscription handshake)
//   - POST /webhook/instagram   (event delivery)
//
// Deliveries are answered only after every event in the body was processed,
// so a 503 reliably tells the provider to redeliver.
package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-ig-automation/internal/http/middleware"
	"github.com/tbourn/go-ig-automation/internal/services"
)

// HeaderSignature carries the provider's HMAC of the delivery body.
const HeaderSignature = "X-Hub-Signature-256"

// maxWebhookBody caps a delivery body. Provider batches stay far below this.
const maxWebhookBody = 1 << 20

// eventReceived is the acknowledgement body the provider expects.
const eventReceived = "EVENT_RECEIVED"

// VerifyWebhook godoc
// @ID          verifyWebhook
// @Summary     Webhook subscription handshake
// @Description Echoes hub.challenge when hub.mode is "subscribe" and hub.verify_token matches.
// @Tags        Webhook
// @Produce     plain
//
// @Param       hub.mode          query  string  true  "Must be subscribe"  example(subscribe)
// @Param       hub.verify_token  query  string  true  "Configured verify token"
// @Param       hub.challenge     query  string  true  "Challenge to echo"  example(1158201444)
//
// @Success     200  {string}  string                  "Challenge"
// @Failure     400  {object}  handlers.ErrorResponse  "Missing parameters"
// @Failure     403  {object}  handlers.ErrorResponse  "Verification failed"
// @Router      /webhook/instagram [get]
func (h *Handlers) VerifyWebhook(c *gin.Context) {
	challenge, err := h.webhook.VerifySubscription(
		c.Query("hub.mode"),
		c.Query("hub.verify_token"),
		c.Query("hub.challenge"),
	)
	switch {
	case errors.Is(err, services.ErrMissingVerifyParams):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "hub.mode, hub.verify_token and hub.challenge are required")
		return
	case err != nil:
		fail(c, http.StatusForbidden, ErrCodeForbidden, "verification failed")
		return
	}
	c.String(http.StatusOK, challenge)
}

// ReceiveWebhook godoc
// @ID          receiveWebhook
// @Summary     Receive webhook events
// @Description Processes comment, live comment and messaging events. When an app secret is
// @Description configured, X-Hub-Signature-256 must match the body.
// @Tags        Webhook
// @Accept      json
// @Produce     plain
//
// @Param       X-Hub-Signature-256  header  string  false  "sha256=<hex HMAC of body>"
// @Param       body                 body    domain.WebhookPayload  true  "Provider delivery"
//
// @Success     200  {string}  string                  "EVENT_RECEIVED"
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed payload"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid signature"
// @Failure     404  {object}  handlers.ErrorResponse  "Unrecognized object"
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable; provider should redeliver"
// @Router      /webhook/instagram [post]
func (h *Handlers) ReceiveWebhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeMalformedPayload, "unreadable body")
		return
	}

	// Rule delays can run past the server's WriteTimeout; the provider must
	// still get an answer once processing ends.
	if err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		middleware.LoggerFrom(c).Debug().Err(err).Msg("clear write deadline")
	}

	err = h.webhook.HandleDelivery(c.Request.Context(), body, c.GetHeader(HeaderSignature))
	switch {
	case err == nil:
		c.String(http.StatusOK, eventReceived)
	case errors.Is(err, services.ErrInvalidSignature):
		fail(c, http.StatusUnauthorized, ErrCodeInvalidSignature, "invalid signature")
	case errors.Is(err, services.ErrMalformedPayload):
		fail(c, http.StatusBadRequest, ErrCodeMalformedPayload, "malformed payload")
	case errors.Is(err, services.ErrUnknownObject):
		fail(c, http.StatusNotFound, ErrCodeUnknownObject, "unrecognized object")
	default:
		failErr(c, err)
	}
}
