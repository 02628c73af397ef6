// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server settings,
// logging, database paths, the webhook verification secrets, the external
// inventory backend credentials, matching thresholds, rate limiting, and
// observability.
//
// The config struct is injected into the orchestrator at construction;
// extractor/matcher/verifier never read ambient environment state themselves.
package config

import (
	"errors"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tiptophouse/diamond-webhook/internal/sysutil"
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
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// WebhookConfig holds the inbound verification settings.
//
// An empty Secret is tolerated: verification degrades to the User-Agent
// check only. That is a deliberate backward-compatibility allowance for
// webhooks registered before secret tokens existed, and it is logged as a
// warning at verification time rather than silently accepted.
type WebhookConfig struct {
	Secret              string         // TELEGRAM_WEBHOOK_SECRET (optional)
	RequiredUserAgent   string         // substring the client identity must contain
	AllowedSourceRanges []netip.Prefix // CIDR allowlist, log-only signal
}

// BackendConfig holds the external FastAPI inventory collaborator settings.
type BackendConfig struct {
	BaseURL      string        // BACKEND_BASE_URL
	AccessToken  string        // BACKEND_ACCESS_TOKEN (Bearer)
	FetchTimeout time.Duration // per-request HTTP client timeout
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test

	// Logging
	LogLevel    string // debug|info|warn|error|fatal|panic
	LogPretty   bool
	APIBasePath string

	// App
	DBPath string // SQLite path

	// Webhook processing
	Webhook       WebhookConfig
	Backend       BackendConfig
	TargetGroupID int64   // 0 = process any group
	Threshold     float64 // message-confidence gate, inclusive
	PaymentPhrase string  // payment-confirmation phrase (substring match)
	DedupeEnabled bool    // per-(update, dealer) notification dedupe keys

	// Rate limiting (admin API only; the webhook route is exempt)
	RateRPS   float64
	RateBurst int

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// telegramRanges are the published Telegram webhook egress networks. Used as
// the default log-only source allowlist.
var telegramRanges = []string{"149.154.160.0/20", "91.108.4.0/22"}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables, applies defaults,
// normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:   getbool("LOG_PRETTY", false),
		APIBasePath: normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath: getenv("DB_PATH", "app.db"),

		// Webhook processing
		Webhook: WebhookConfig{
			Secret:            getenv("TELEGRAM_WEBHOOK_SECRET", ""),
			RequiredUserAgent: getenv("WEBHOOK_REQUIRED_USER_AGENT", "TelegramBot"),
		},
		Backend: BackendConfig{
			BaseURL:      strings.TrimRight(getenv("BACKEND_BASE_URL", ""), "/"),
			AccessToken:  getenv("BACKEND_ACCESS_TOKEN", ""),
			FetchTimeout: getdur("BACKEND_FETCH_TIMEOUT", 10*time.Second),
		},
		TargetGroupID: getint64("TARGET_GROUP_ID", 0),
		Threshold:     getfloat("CONFIDENCE_THRESHOLD", 0.3),
		PaymentPhrase: getenv("PAYMENT_CONFIRMATION_PHRASE", "payment confirmed"),
		DedupeEnabled: getbool("NOTIFICATION_DEDUPE", false),

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

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "diamond-webhook"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	ranges, err := parseRanges(getenv("WEBHOOK_ALLOWED_SOURCE_RANGES", strings.Join(telegramRanges, ",")))
	if err != nil {
		return cfg, err
	}
	cfg.Webhook.AllowedSourceRanges = ranges

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
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
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if strings.TrimSpace(cfg.Webhook.RequiredUserAgent) == "" {
		return cfg, errors.New("WEBHOOK_REQUIRED_USER_AGENT must not be empty")
	}
	if cfg.Backend.FetchTimeout <= 0 {
		return cfg, errors.New("BACKEND_FETCH_TIMEOUT must be > 0")
	}
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return cfg, errors.New("CONFIDENCE_THRESHOLD must be between 0 and 1")
	}
	if strings.TrimSpace(cfg.PaymentPhrase) == "" {
		return cfg, errors.New("PAYMENT_CONFIRMATION_PHRASE must not be empty")
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
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers ----

func getenv(k, def string) string {
	return sysutil.FirstNonEmpty(os.Getenv(k), def)
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

func getint64(k string, def int64) int64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	v, ok := os.LookupEnv(k)
	if !ok || v == "" {
		return def
	}
	if sysutil.IsTruthy(v) {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "0", "false", "no", "n", "off":
		return false
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

// parseRanges parses a comma-separated CIDR list.
func parseRanges(s string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, 4)
	for _, part := range splitCSV(s) {
		p, err := netip.ParsePrefix(part)
		if err != nil {
			return nil, errors.New("WEBHOOK_ALLOWED_SOURCE_RANGES contains an invalid CIDR: " + part)
		}
		out = append(out, p)
	}
	return out, nil
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
