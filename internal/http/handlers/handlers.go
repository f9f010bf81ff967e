// Handler wiring.
//
// Handlers are transport-thin: they validate input, call application services
// through the contracts below, and translate results into HTTP responses
// (including conditional and idempotent replays).
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-ig-automation/internal/credentials"
	"github.com/tbourn/go-ig-automation/internal/domain"
	"github.com/tbourn/go-ig-automation/internal/http/middleware"
	"github.com/tbourn/go-ig-automation/internal/services"
	"github.com/tbourn/go-ig-automation/internal/utils"
)

//
// Service contracts (context-aware)
//

// WebhookService handles provider callbacks.
type WebhookService interface {
	// VerifySubscription returns the challenge to echo for a valid handshake.
	VerifySubscription(mode, token, challenge string) (string, error)
	// HandleDelivery verifies and processes one delivery body.
	HandleDelivery(ctx context.Context, body []byte, signature string) error
}

// AutomationService manages per-media and per-account automation rules.
type AutomationService interface {
	List(ctx context.Context, userID string) (map[string]domain.AutomationRule, error)
	Get(ctx context.Context, mediaID string) (*domain.AutomationRule, error)
	Put(ctx context.Context, userID, mediaID string, r *domain.AutomationRule) (created bool, err error)
	Delete(ctx context.Context, userID, mediaID string) error
	GetDM(ctx context.Context, accountID string) (*domain.DMAutomationRule, error)
	PutDM(ctx context.Context, accountID string, r *domain.DMAutomationRule) error
	DeleteDM(ctx context.Context, accountID string) error
	ListDM(ctx context.Context) ([]string, error)
}

// AnalyticsService answers dashboard read queries.
type AnalyticsService interface {
	Summary(ctx context.Context, period string) (*domain.AnalyticsSummary, error)
	DMHistory(ctx context.Context, accountID string, limit int) ([]domain.DMRecord, error)
	Actions(ctx context.Context, accountID string, page, pageSize int) ([]domain.ActionLog, int64, error)
	ReplyRecord(ctx context.Context, commentID string) (*domain.ReplyRecord, error)
	RecentEvents(ctx context.Context, typ string, limit int) ([]domain.Event, error)
}

// BotService reports and rotates the bot credential.
type BotService interface {
	Status() credentials.Status
	UpdateToken(ctx context.Context, token string) (credentials.Status, error)
}

// MaintenanceService runs on-demand cleanup.
type MaintenanceService interface {
	Cleanup(ctx context.Context, now time.Time) (services.CleanupResult, error)
}

// AccountService registers connected accounts.
type AccountService interface {
	Register(ctx context.Context, a *domain.Account) error
}

// Deps bundles the services behind the HTTP surface. DB is optional; when
// set it backs ETags on the action log and Idempotency-Key bookkeeping.
type Deps struct {
	Webhook     WebhookService
	Automations AutomationService
	Analytics   AnalyticsService
	Bot         BotService
	Maintenance MaintenanceService
	Accounts    AccountService
	DB          *gorm.DB

	// IdempotencyTTL bounds how long a completed write can be replayed.
	IdempotencyTTL time.Duration
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	webhook     WebhookService
	automations AutomationService
	analytics   AnalyticsService
	bot         BotService
	maintenance MaintenanceService
	accounts    AccountService
	db          *gorm.DB
	idemTTL     time.Duration
}

// New constructs Handlers bound to d.
func New(d Deps) *Handlers {
	ttl := d.IdempotencyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Handlers{
		webhook:     d.Webhook,
		automations: d.Automations,
		analytics:   d.Analytics,
		bot:         d.Bot,
		maintenance: d.Maintenance,
		accounts:    d.Accounts,
		db:          d.DB,
		idemTTL:     ttl,
	}
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

//
// Helpers
//

// userID returns the caller identity set by middleware.UserID, or "" when
// the request is anonymous.
func userID(c *gin.Context) string {
	if u := middleware.UserIDFrom(c); u != "anonymous" {
		return u
	}
	return ""
}

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = max(utils.AtoiDefault(c.Query("page"), defaultPage), 1)
	pageSize = utils.ClampInt(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}
