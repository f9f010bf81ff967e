// Analytics HTTP handlers.
//
// Read-only dashboard endpoints:
//   - GET /comments/{commentId}/reply
//   - GET /analytics?period=today|week|all
//   - GET /analytics/events?type=&limit=
//   - GET /accounts/{accountId}/dms?limit=
//   - GET /accounts/{accountId}/actions?page=&page_size=   (ETag support)
//   - GET /bot/status
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-ig-automation/internal/domain"
	"github.com/tbourn/go-ig-automation/internal/repo"
	"github.com/tbourn/go-ig-automation/internal/services"
	"github.com/tbourn/go-ig-automation/internal/utils"
)

// DMHistoryResponse lists sent DMs, newest first.
type DMHistoryResponse struct {
	AccountID string            `json:"accountId"`
	DMs       []domain.DMRecord `json:"dms"`
	Count     int               `json:"count"`
}

// ListActionsResponse wraps a page of outbound action logs.
type ListActionsResponse struct {
	Actions    []domain.ActionLog `json:"actions"`
	Pagination Pagination         `json:"pagination"`
}

// GetCommentReply godoc
// @ID          getCommentReply
// @Summary     Get how a comment was handled
// @Tags        Analytics
// @Produce     json
//
// @Param       commentId  path  string  true  "Comment id"
//
// @Success     200  {object}  domain.ReplyRecord
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid id"
// @Failure     404  {object}  handlers.ErrorResponse  "No record"
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /comments/{commentId}/reply [get]
func (h *Handlers) GetCommentReply(c *gin.Context) {
	rec, err := h.analytics.ReplyRecord(c.Request.Context(), c.Param("commentId"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, rec)
}

// GetAnalytics godoc
// @ID          getAnalytics
// @Summary     Analytics summary
// @Description today: daily counters and event counts. week: last seven UTC days. all: lifetime counters.
// @Tags        Analytics
// @Produce     json
//
// @Param       period  query  string  false  "Period"  Enums(today, week, all)  default(today)
//
// @Success     200  {object}  domain.AnalyticsSummary
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid period"
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /analytics [get]
func (h *Handlers) GetAnalytics(c *gin.Context) {
	sum, err := h.analytics.Summary(c.Request.Context(), c.Query("period"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, sum)
}

// EventsResponse lists recent analytics events of one type.
type EventsResponse struct {
	Type   string         `json:"type"`
	Events []domain.Event `json:"events"`
	Count  int            `json:"count"`
}

// ListEvents godoc
// @ID          listEvents
// @Summary     Recent analytics events of one type
// @Tags        Analytics
// @Produce     json
//
// @Param       type   query  string  true   "Event type"  example(automation_created)
// @Param       limit  query  int     false  "Max items"   minimum(1) maximum(100) default(50)
//
// @Success     200  {object}  handlers.EventsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid type"
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /analytics/events [get]
func (h *Handlers) ListEvents(c *gin.Context) {
	typ := c.Query("type")
	limit := utils.AtoiDefault(c.Query("limit"), services.DefaultDMHistoryLimit)

	events, err := h.analytics.RecentEvents(c.Request.Context(), typ, limit)
	if err != nil {
		failErr(c, err)
		return
	}
	if events == nil {
		events = []domain.Event{}
	}
	ok(c, http.StatusOK, EventsResponse{Type: typ, Events: events, Count: len(events)})
}

// ListDMs godoc
// @ID          listDMs
// @Summary     Sent DM history of an account
// @Tags        Analytics
// @Produce     json
//
// @Param       accountId  path   string  true   "Business account id"
// @Param       limit      query  int     false  "Max items"  minimum(1) maximum(100) default(50)
//
// @Success     200  {object}  handlers.DMHistoryResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid id"
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /accounts/{accountId}/dms [get]
func (h *Handlers) ListDMs(c *gin.Context) {
	accountID := c.Param("accountId")
	limit := utils.AtoiDefault(c.Query("limit"), services.DefaultDMHistoryLimit)

	dms, err := h.analytics.DMHistory(c.Request.Context(), accountID, limit)
	if err != nil {
		failErr(c, err)
		return
	}
	if dms == nil {
		dms = []domain.DMRecord{}
	}
	ok(c, http.StatusOK, DMHistoryResponse{AccountID: accountID, DMs: dms, Count: len(dms)})
}

// ListActions godoc
// @ID          listActions
// @Summary     Outbound action log of an account
// @Description Paginated, newest first. Responds 304 when If-None-Match matches the current ETag.
// @Tags        Analytics
// @Produce     json
//
// @Param       accountId      path    string  true   "Business account id"
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Param       If-None-Match  header  string  false  "ETag from a previous response"
//
// @Success     200  {object}  handlers.ListActionsResponse
// @Success     304  "Not modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid id"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /accounts/{accountId}/actions [get]
func (h *Handlers) ListActions(c *gin.Context) {
	ctx := c.Request.Context()
	accountID := c.Param("accountId")

	// ETag pre-check (best effort).
	if h.db != nil {
		count, newest, err := repo.ActionLogStats(ctx, h.db, accountID)
		if err == nil {
			var ts int64
			if newest != nil {
				ts = newest.UnixNano()
			}
			etag := fmt.Sprintf(`W/"actions:%s:%d:%d"`, accountID, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	page, pageSize := clampPagination(c)
	items, total, err := h.analytics.Actions(ctx, accountID, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListActionsResponse{
		Actions: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// BotStatus godoc
// @ID          botStatus
// @Summary     Bot credential status
// @Description Reports whether a bot token is configured, with a masked preview.
// @Tags        Bot
// @Produce     json
//
// @Success     200  {object}  credentials.Status
// @Router      /bot/status [get]
func (h *Handlers) BotStatus(c *gin.Context) {
	ok(c, http.StatusOK, h.bot.Status())
}
