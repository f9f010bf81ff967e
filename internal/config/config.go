// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, Redis/SQLite locations, webhook secrets,
// Graph API access, automation limits, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/adhocore/gronx"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-ig-automation")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// WebhookConfig holds the inbound provider webhook settings.
type WebhookConfig struct {
	VerifyToken       string        // WEBHOOK_VERIFY_TOKEN, echoed handshake secret
	Object            string        // WEBHOOK_OBJECT, expected payload "object" value
	AppSecret         string        // APP_SECRET, enables X-Hub-Signature-256 checks when set
	BusinessAccountID string        // INSTAGRAM_BUSINESS_ACCOUNT_ID, extra self-loop guard
	Concurrency       int           // WEBHOOK_CONCURRENCY, events processed in parallel per delivery
	CommentDedupTTL   time.Duration // COMMENT_DEDUP_TTL
	ReplyRecordTTL    time.Duration // REPLY_RECORD_TTL
}

// GraphConfig holds outbound Graph API settings.
type GraphConfig struct {
	BaseURL               string        // GRAPH_API_BASE
	Timeout               time.Duration // GRAPH_TIMEOUT
	BotToken              string        // INSTAGRAM_BOT_ACCESS_TOKEN
	BotTokenFile          string        // BOT_TOKEN_FILE, watched for rotation
	CheckPrivateReplyPerm bool          // PRIVATE_REPLY_PERMISSION_CHECK
}

// LimitsConfig holds the fixed-window budgets applied by the rate gate.
type LimitsConfig struct {
	Window                time.Duration // RATE_WINDOW
	RepliesPerMedia       int           // REPLY_RATE_LIMIT
	PrivateRepliesPerAcct int           // PRIVATE_REPLY_RATE_LIMIT
	KeywordDMsPerSender   int           // DM_KEYWORD_RATE_LIMIT
	AutomationsPerUserDay int           // AUTOMATION_DAILY_QUOTA
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 120s, delayed sends hold the webhook response
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for dashboard API routes

	// Storage
	RedisURL string // REDIS_URL (redis:// or rediss://)
	DBPath   string // SQLite path for accounts and the action log

	// Dashboard API rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig
	AdminKey string // ADMIN_KEY, admin routes are disabled when empty

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Automation
	Webhook WebhookConfig
	Graph   GraphConfig
	Limits  LimitsConfig

	// Maintenance
	CleanupCron string // CLEANUP_CRON, empty disables the scheduled cleanup

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 120*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Storage
		RedisURL: cleanRedisURL(getenv("REDIS_URL", getenv("REDIS_PRIVATE_URL", "redis://localhost:6379"))),
		DBPath:   getenv("DB_PATH", "app.db"),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},
		AdminKey: getenv("ADMIN_KEY", ""),

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		Webhook: WebhookConfig{
			VerifyToken:       getenv("WEBHOOK_VERIFY_TOKEN", ""),
			Object:            strings.ToLower(getenv("WEBHOOK_OBJECT", "instagram")),
			AppSecret:         getenv("APP_SECRET", ""),
			BusinessAccountID: getenv("INSTAGRAM_BUSINESS_ACCOUNT_ID", ""),
			Concurrency:       getint("WEBHOOK_CONCURRENCY", 8),
			CommentDedupTTL:   getdur("COMMENT_DEDUP_TTL", 600*time.Second),
			ReplyRecordTTL:    getdur("REPLY_RECORD_TTL", 30*24*time.Hour),
		},
		Graph: GraphConfig{
			BaseURL:               strings.TrimRight(getenv("GRAPH_API_BASE", "https://graph.facebook.com/v18.0"), "/"),
			Timeout:               getdur("GRAPH_TIMEOUT", 10*time.Second),
			BotToken:              strings.TrimSpace(getenv("INSTAGRAM_BOT_ACCESS_TOKEN", "")),
			BotTokenFile:          getenv("BOT_TOKEN_FILE", ""),
			CheckPrivateReplyPerm: getbool("PRIVATE_REPLY_PERMISSION_CHECK", false),
		},
		Limits: LimitsConfig{
			Window:                getdur("RATE_WINDOW", time.Hour),
			RepliesPerMedia:       getint("REPLY_RATE_LIMIT", 20),
			PrivateRepliesPerAcct: getint("PRIVATE_REPLY_RATE_LIMIT", 750),
			KeywordDMsPerSender:   getint("DM_KEYWORD_RATE_LIMIT", 10),
			AutomationsPerUserDay: getint("AUTOMATION_DAILY_QUOTA", 100),
		},

		CleanupCron: getenv("CLEANUP_CRON", "0 3 * * *"),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-ig-automation"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.Webhook.Concurrency < 1 {
		cfg.Webhook.Concurrency = 1
	}
	if strings.EqualFold(strings.TrimSpace(cfg.CleanupCron), "off") {
		cfg.CleanupCron = ""
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if !strings.HasPrefix(cfg.RedisURL, "redis://") && !strings.HasPrefix(cfg.RedisURL, "rediss://") {
		return cfg, errors.New("REDIS_URL must start with redis:// or rediss://")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.Webhook.Object == "" {
		return cfg, errors.New("WEBHOOK_OBJECT must not be empty")
	}
	if cfg.Webhook.CommentDedupTTL <= 0 {
		return cfg, errors.New("COMMENT_DEDUP_TTL must be > 0")
	}
	if cfg.Webhook.ReplyRecordTTL < 7*24*time.Hour || cfg.Webhook.ReplyRecordTTL > 30*24*time.Hour {
		return cfg, errors.New("REPLY_RECORD_TTL must be between 168h and 720h")
	}
	if !strings.HasPrefix(cfg.Graph.BaseURL, "http://") && !strings.HasPrefix(cfg.Graph.BaseURL, "https://") {
		return cfg, errors.New("GRAPH_API_BASE must be an http(s) URL")
	}
	if cfg.Graph.Timeout <= 0 {
		return cfg, errors.New("GRAPH_TIMEOUT must be > 0")
	}
	if cfg.Limits.Window <= 0 {
		return cfg, errors.New("RATE_WINDOW must be > 0")
	}
	if cfg.Limits.RepliesPerMedia < 1 || cfg.Limits.PrivateRepliesPerAcct < 1 ||
		cfg.Limits.KeywordDMsPerSender < 1 || cfg.Limits.AutomationsPerUserDay < 1 {
		return cfg, errors.New("rate limits must be >= 1")
	}
	if cfg.CleanupCron != "" && !gronx.IsValid(cfg.CleanupCron) {
		return cfg, errors.New("CLEANUP_CRON must be a valid cron expression or \"off\"")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}

// cleanRedisURL trims whitespace and stray URL-encoded spaces that some
// hosting dashboards leave around pasted connection strings.
func cleanRedisURL(u string) string {
	u = strings.TrimSpace(u)
	u = strings.TrimPrefix(u, "%20")
	u = strings.TrimSuffix(u, "%20")
	return u
}
