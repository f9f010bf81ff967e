// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Provider webhooks are never throttled by the dashboard limiter
//   - All dependencies injected through Backends
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-ig-automation/docs"
	"github.com/tbourn/go-ig-automation/internal/config"
	"github.com/tbourn/go-ig-automation/internal/credentials"
	"github.com/tbourn/go-ig-automation/internal/domain"
	"github.com/tbourn/go-ig-automation/internal/gate"
	"github.com/tbourn/go-ig-automation/internal/http/handlers"
	"github.com/tbourn/go-ig-automation/internal/http/middleware"
	"github.com/tbourn/go-ig-automation/internal/kv"
	"github.com/tbourn/go-ig-automation/internal/repo"
	"github.com/tbourn/go-ig-automation/internal/services"
)

// accountRepoShim adapts the repository free functions to services.AccountRepo.
type accountRepoShim struct{}

// UpsertAccount proxies repo.UpsertAccount.
func (accountRepoShim) UpsertAccount(ctx context.Context, db *gorm.DB, a *domain.Account) error {
	return repo.UpsertAccount(ctx, db, a)
}

// GetAccount proxies repo.GetAccount.
func (accountRepoShim) GetAccount(ctx context.Context, db *gorm.DB, id string) (*domain.Account, error) {
	return repo.GetAccount(ctx, db, id)
}

// actionLogRepoShim adapts the repository free functions to
// services.ActionLogRepo.
type actionLogRepoShim struct{}

// CreateActionLog proxies repo.CreateActionLog.
func (actionLogRepoShim) CreateActionLog(ctx context.Context, db *gorm.DB, l *domain.ActionLog) error {
	return repo.CreateActionLog(ctx, db, l)
}

// CountActionLogs proxies repo.CountActionLogs (pagination support).
func (actionLogRepoShim) CountActionLogs(ctx context.Context, db *gorm.DB, accountID string) (int64, error) {
	return repo.CountActionLogs(ctx, db, accountID)
}

// ListActionLogsPage proxies repo.ListActionLogsPage (pagination support).
func (actionLogRepoShim) ListActionLogsPage(ctx context.Context, db *gorm.DB, accountID string, offset, limit int) ([]domain.ActionLog, error) {
	return repo.ListActionLogsPage(ctx, db, accountID, offset, limit)
}

// Backends are the process-wide resources the services are built on.
type Backends struct {
	DB    *gorm.DB
	Store kv.Store
	Graph services.GraphAPI
	Creds *credentials.Reloadable
}

// Services exposes the wired application services so the caller can share
// them with background jobs (and tests can tune them).
type Services struct {
	Webhook     *services.WebhookService
	Automations *services.AutomationService
	Analytics   *services.AnalyticsService
	Maintenance *services.MaintenanceService
	Bot         *services.BotService
	Accounts    *services.AccountService
}

// healthTimeout bounds the Redis ping behind /health.
const healthTimeout = 2 * time.Second

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and returns the services it built.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID and UserID: correlation id and caller identity
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per user/IP, webhooks and health exempt)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, b Backends, cfg config.Config) *Services {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())
	r.Use(middleware.UserID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{middleware.HeaderAdminKey, handlers.HeaderSignature},
		MaskParams:  []string{"hub.verify_token"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics("/metrics"))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, userID, resource, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, b.DB, userID, resource, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	rl.Skip = func(c *gin.Context) bool {
		p := c.Request.URL.Path
		return strings.HasPrefix(p, "/webhook/") || p == "/health"
	}
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	allowHeaders := []string{
		"Origin", "Content-Type", "Accept", "Authorization",
		"X-User-ID", middleware.HeaderIdempotencyKey, middleware.HeaderAdminKey,
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag", "Idempotency-Replayed"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist.
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag", "Idempotency-Replayed"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", health(b.Store))

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	svc := buildServices(b, cfg)
	h := handlers.New(handlers.Deps{
		Webhook:        svc.Webhook,
		Automations:    svc.Automations,
		Analytics:      svc.Analytics,
		Bot:            svc.Bot,
		Maintenance:    svc.Maintenance,
		Accounts:       svc.Accounts,
		DB:             b.DB,
		IdempotencyTTL: cfg.IdempotencyTTL,
	})

	// Provider webhook
	r.GET("/webhook/instagram", h.VerifyWebhook)
	r.POST("/webhook/instagram", h.ReceiveWebhook)

	// Dashboard API
	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(gzip.Gzip(gzip.DefaultCompression))
	{
		// Comment automations
		api.GET("/automations", h.ListAutomations)
		api.GET("/automations/:mediaId", h.GetAutomation)
		api.PUT("/automations/:mediaId", h.PutAutomation)
		api.DELETE("/automations/:mediaId", h.DeleteAutomation)

		// DM automations
		api.GET("/dm-automations", h.ListDMAutomations)
		api.GET("/dm-automations/:accountId", h.GetDMAutomation)
		api.PUT("/dm-automations/:accountId", h.PutDMAutomation)
		api.DELETE("/dm-automations/:accountId", h.DeleteDMAutomation)

		// Analytics
		api.GET("/comments/:commentId/reply", h.GetCommentReply)
		api.GET("/analytics", h.GetAnalytics)
		api.GET("/analytics/events", h.ListEvents)
		api.GET("/accounts/:accountId/dms", h.ListDMs)
		api.GET("/accounts/:accountId/actions", h.ListActions)
		api.GET("/bot/status", h.BotStatus)
	}

	// Operator routes
	admin := r.Group("/admin", middleware.RequireAdminKey(cfg.AdminKey))
	{
		admin.POST("/token", h.UpdateToken)
		admin.POST("/cleanup", h.RunCleanup)
		admin.PUT("/accounts/:accountId", h.RegisterAccount)
	}

	return svc
}

// buildServices wires services ← repos/store/db/graph.
func buildServices(b Backends, cfg config.Config) *Services {
	rules := repo.NewAutomationRepo(b.Store)
	dmRules := repo.NewDMAutomationRepo(b.Store)
	analytics := repo.NewAnalyticsRepo(b.Store)
	g := gate.New(b.Store, gate.WithRecordTTL(cfg.Webhook.ReplyRecordTTL))

	accounts := services.NewAccountService(b.DB, accountRepoShim{})
	exec := services.NewActionExecutor(b.Graph, b.DB, actionLogRepoShim{})

	automations := services.NewAutomationService(rules, dmRules, g, analytics)
	automations.DailyQuota = cfg.Limits.AutomationsPerUserDay

	return &Services{
		Webhook: &services.WebhookService{
			Rules:            rules,
			DMRules:          dmRules,
			Gate:             g,
			Analytics:        analytics,
			Actions:          exec,
			Credentials:      b.Creds,
			Accounts:         accounts,
			Webhook:          cfg.Webhook,
			Limits:           cfg.Limits,
			CheckPermissions: cfg.Graph.CheckPrivateReplyPerm,
		},
		Automations: automations,
		Analytics: &services.AnalyticsService{
			Analytics: analytics,
			Records:   g,
			DB:        b.DB,
			Logs:      actionLogRepoShim{},
		},
		Maintenance: &services.MaintenanceService{Analytics: analytics},
		Bot:         &services.BotService{Creds: b.Creds},
		Accounts:    accounts,
	}
}

// health reports 200 when Redis answers a ping and 503 otherwise.
func health(s kv.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()
		if err := s.Ping(ctx); err != nil {
			status := "degraded"
			if errors.Is(err, context.DeadlineExceeded) {
				status = "timeout"
			}
			middleware.LoggerFrom(c).Warn().Err(err).Msg("health: redis ping failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": status, "redis": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "redis": "up"})
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
