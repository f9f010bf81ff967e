// Operator HTTP handlers, mounted behind middleware.RequireAdminKey:
//   - POST /admin/token                  (set or reload the bot credential)
//   - POST /admin/cleanup                (sweep expired daily analytics)
//   - PUT  /admin/accounts/{accountId}   (register a business account)
package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-ig-automation/internal/credentials"
	"github.com/tbourn/go-ig-automation/internal/domain"
	"github.com/tbourn/go-ig-automation/internal/services"
)

// UpdateTokenRequest optionally carries a new bot token. An empty body
// reloads the configured token file instead.
type UpdateTokenRequest struct {
	Token string `json:"token"`
}

// RegisterAccountRequest is the payload for PUT /admin/accounts/{accountId}.
type RegisterAccountRequest struct {
	PageID    string `json:"page_id"    example:"104000000000000"`
	PageName  string `json:"page_name"  example:"Acme Store"`
	Username  string `json:"username"   example:"acme"`
	PageToken string `json:"page_token"`
}

// UpdateToken godoc
// @ID          updateBotToken
// @Summary     Replace or reload the bot token
// @Tags        Admin
// @Accept      json
// @Produce     json
//
// @Param       X-Admin-Key  header  string                       true   "Operator key"
// @Param       body         body    handlers.UpdateTokenRequest  false  "New token"
//
// @Success     200  {object}  credentials.Status
// @Failure     400  {object}  handlers.ErrorResponse  "No token and no token file"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid admin key"
// @Router      /admin/token [post]
func (h *Handlers) UpdateToken(c *gin.Context) {
	var req UpdateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	st, err := h.bot.UpdateToken(c.Request.Context(), strings.TrimSpace(req.Token))
	switch {
	case errors.Is(err, credentials.ErrNoTokenFile):
		fail(c, http.StatusBadRequest, ErrCodeNoTokenFile, "no token given and no token file configured")
		return
	case errors.Is(err, credentials.ErrEmptyToken):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "token file is empty")
		return
	case err != nil:
		// Reload errors can embed the file path; keep them out of the body.
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}

// RunCleanup godoc
// @ID          runCleanup
// @Summary     Delete expired daily analytics keys
// @Tags        Admin
// @Produce     json
//
// @Param       X-Admin-Key  header  string  true  "Operator key"
//
// @Success     200  {object}  services.CleanupResult
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid admin key"
// @Failure     500  {object}  handlers.ErrorResponse  "Cleanup failed"
// @Router      /admin/cleanup [post]
func (h *Handlers) RunCleanup(c *gin.Context) {
	res, err := h.maintenance.Cleanup(c.Request.Context(), time.Now().UTC())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCleanupFailed, "cleanup incomplete")
		return
	}
	ok(c, http.StatusOK, res)
}

// RegisterAccount godoc
// @ID          registerAccount
// @Summary     Register or update a business account
// @Description Stores the linked page and its access token, used for private replies.
// @Tags        Admin
// @Accept      json
// @Produce     json
//
// @Param       X-Admin-Key  header  string                           true  "Operator key"
// @Param       accountId    path    string                           true  "Business account id"
// @Param       body         body    handlers.RegisterAccountRequest  true  "Account"
//
// @Success     200  {object}  domain.Account
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid admin key"
// @Router      /admin/accounts/{accountId} [put]
func (h *Handlers) RegisterAccount(c *gin.Context) {
	var req RegisterAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	a := &domain.Account{
		ID:        c.Param("accountId"),
		PageID:    strings.TrimSpace(req.PageID),
		PageName:  strings.TrimSpace(req.PageName),
		Username:  strings.TrimSpace(req.Username),
		PageToken: req.PageToken,
	}
	if err := h.accounts.Register(c.Request.Context(), a); err != nil {
		if errors.Is(err, services.ErrInvalidID) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "account id required")
			return
		}
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, a)
}
