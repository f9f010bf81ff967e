// Automation HTTP handlers.
//
// This file exposes the dashboard endpoints for automation rules:
//   - GET    /automations                    (list, scoped to X-User-ID when set)
//   - GET    /automations/{mediaId}
//   - PUT    /automations/{mediaId}          (create or replace, Idempotency-Key aware)
//   - DELETE /automations/{mediaId}
//   - GET    /dm-automations                 (account ids with a DM rule)
//   - GET    /dm-automations/{accountId}
//   - PUT    /dm-automations/{accountId}
//   - DELETE /dm-automations/{accountId}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-ig-automation/internal/domain"
	"github.com/tbourn/go-ig-automation/internal/http/middleware"
	"github.com/tbourn/go-ig-automation/internal/repo"
)

// ListAutomationsResponse maps media ids to their rules.
type ListAutomationsResponse struct {
	Automations map[string]domain.AutomationRule `json:"automations"`
	Count       int                              `json:"count"`
}

// AutomationResponse wraps one stored rule.
type AutomationResponse struct {
	MediaID    string                 `json:"mediaId" example:"17895695668004550"`
	Automation *domain.AutomationRule `json:"automation"`
}

// DMAutomationResponse wraps one stored DM rule.
type DMAutomationResponse struct {
	AccountID  string                   `json:"accountId" example:"17841400000000000"`
	Automation *domain.DMAutomationRule `json:"automation"`
}

// ListAutomations godoc
// @ID          listAutomations
// @Summary     List automation rules
// @Description Returns the rules owned by X-User-ID, or every rule when the header is absent.
// @Tags        Automations
// @Produce     json
//
// @Param       X-User-ID  header  string  false  "Owner filter"  example(user123)
//
// @Success     200  {object}  handlers.ListAutomationsResponse
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /automations [get]
func (h *Handlers) ListAutomations(c *gin.Context) {
	rules, err := h.automations.List(c.Request.Context(), userID(c))
	if err != nil {
		failErr(c, err)
		return
	}
	if rules == nil {
		rules = map[string]domain.AutomationRule{}
	}
	ok(c, http.StatusOK, ListAutomationsResponse{Automations: rules, Count: len(rules)})
}

// GetAutomation godoc
// @ID          getAutomation
// @Summary     Get an automation rule
// @Tags        Automations
// @Produce     json
//
// @Param       mediaId  path  string  true  "Media id"
//
// @Success     200  {object}  handlers.AutomationResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid id"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /automations/{mediaId} [get]
func (h *Handlers) GetAutomation(c *gin.Context) {
	mediaID := c.Param("mediaId")
	r, err := h.automations.Get(c.Request.Context(), mediaID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, AutomationResponse{MediaID: mediaID, Automation: r})
}

// PutAutomation godoc
// @ID          putAutomation
// @Summary     Create or replace an automation rule
// @Description Validates and stores the rule. Creating a rule consumes one unit of the caller's
// @Description daily quota; replacing an existing rule does not. A repeated Idempotency-Key
// @Description returns the stored rule without side effects.
// @Tags        Automations
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false  "Rule owner"  example(user123)
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"
// @Param       mediaId          path    string  true   "Media id"
// @Param       body             body    domain.AutomationRule  true  "Rule"
//
// @Success     200  {object}  handlers.AutomationResponse  "Replaced or replayed"
// @Success     201  {object}  handlers.AutomationResponse  "Created"
// @Failure     400  {object}  handlers.ErrorResponse       "Invalid rule"
// @Failure     403  {object}  handlers.ErrorResponse       "Owned by another user"
// @Failure     429  {object}  handlers.ErrorResponse       "Daily quota exceeded"
// @Failure     503  {object}  handlers.ErrorResponse       "Store unavailable"
// @Router      /automations/{mediaId} [put]
func (h *Handlers) PutAutomation(c *gin.Context) {
	ctx := c.Request.Context()
	mediaID := c.Param("mediaId")

	// Replay path: answer from the stored rule.
	if middleware.IsReplay(c) {
		if prev, err := h.automations.Get(ctx, mediaID); err == nil {
			c.Header("Idempotency-Replayed", "true")
			ok(c, http.StatusOK, AutomationResponse{MediaID: mediaID, Automation: prev})
			return
		}
	}

	var rule domain.AutomationRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	created, err := h.automations.Put(ctx, userID(c), mediaID, &rule)
	if err != nil {
		failErr(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.rememberIdempotency(c, status)
	ok(c, status, AutomationResponse{MediaID: mediaID, Automation: &rule})
}

// DeleteAutomation godoc
// @ID          deleteAutomation
// @Summary     Delete an automation rule
// @Tags        Automations
//
// @Param       X-User-ID  header  string  false  "Owner index to update"
// @Param       mediaId    path    string  true   "Media id"
//
// @Success     204  "Deleted"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid id"
// @Failure     403  {object}  handlers.ErrorResponse  "Owned by another user"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /automations/{mediaId} [delete]
func (h *Handlers) DeleteAutomation(c *gin.Context) {
	if err := h.automations.Delete(c.Request.Context(), userID(c), c.Param("mediaId")); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// ListDMAutomationsResponse lists the accounts with a DM rule.
type ListDMAutomationsResponse struct {
	Accounts []string `json:"accounts"`
	Count    int      `json:"count"`
}

// ListDMAutomations godoc
// @ID          listDMAutomations
// @Summary     List accounts with a DM automation
// @Tags        DM Automations
// @Produce     json
//
// @Success     200  {object}  handlers.ListDMAutomationsResponse
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /dm-automations [get]
func (h *Handlers) ListDMAutomations(c *gin.Context) {
	ids, err := h.automations.ListDM(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListDMAutomationsResponse{Accounts: ids, Count: len(ids)})
}

// GetDMAutomation godoc
// @ID          getDMAutomation
// @Summary     Get the DM automation of an account
// @Tags        DM Automations
// @Produce     json
//
// @Param       accountId  path  string  true  "Business account id"
//
// @Success     200  {object}  handlers.DMAutomationResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid id"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /dm-automations/{accountId} [get]
func (h *Handlers) GetDMAutomation(c *gin.Context) {
	accountID := c.Param("accountId")
	r, err := h.automations.GetDM(c.Request.Context(), accountID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, DMAutomationResponse{AccountID: accountID, Automation: r})
}

// PutDMAutomation godoc
// @ID          putDMAutomation
// @Summary     Create or replace the DM automation of an account
// @Tags        DM Automations
// @Accept      json
// @Produce     json
//
// @Param       accountId  path  string  true  "Business account id"
// @Param       body       body  domain.DMAutomationRule  true  "Rule"
//
// @Success     200  {object}  handlers.DMAutomationResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid rule"
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /dm-automations/{accountId} [put]
func (h *Handlers) PutDMAutomation(c *gin.Context) {
	accountID := c.Param("accountId")

	var rule domain.DMAutomationRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if err := h.automations.PutDM(c.Request.Context(), accountID, &rule); err != nil {
		failErr(c, err)
		return
	}
	h.rememberIdempotency(c, http.StatusOK)
	ok(c, http.StatusOK, DMAutomationResponse{AccountID: accountID, Automation: &rule})
}

// DeleteDMAutomation godoc
// @ID          deleteDMAutomation
// @Summary     Delete the DM automation of an account
// @Tags        DM Automations
//
// @Param       accountId  path  string  true  "Business account id"
//
// @Success     204  "Deleted"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid id"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /dm-automations/{accountId} [delete]
func (h *Handlers) DeleteDMAutomation(c *gin.Context) {
	if err := h.automations.DeleteDM(c.Request.Context(), c.Param("accountId")); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// rememberIdempotency records a completed write under the request's
// Idempotency-Key (best effort).
func (h *Handlers) rememberIdempotency(c *gin.Context, status int) {
	key, hasKey := middleware.GetIdempotencyKey(c)
	if !hasKey || h.db == nil {
		return
	}
	_, err := repo.CreateIdempotency(c.Request.Context(), h.db,
		middleware.UserIDFrom(c), middleware.ResourceFromRoute(c), key, status, h.idemTTL)
	if err != nil && !errors.Is(err, repo.ErrDuplicate) {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("store idempotency key")
	}
}
