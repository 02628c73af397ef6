// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS, and
// security headers.
//
// Design goals:
//   - Observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - The webhook route sits OUTSIDE the rate-limited admin group: the
//     messaging platform must only ever see 200/401/500, never a 429
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tiptophouse/diamond-webhook/internal/config"
	"github.com/tiptophouse/diamond-webhook/internal/http/handlers"
	"github.com/tiptophouse/diamond-webhook/internal/http/middleware"
	"github.com/tiptophouse/diamond-webhook/internal/inventory"
	"github.com/tiptophouse/diamond-webhook/internal/match"
	"github.com/tiptophouse/diamond-webhook/internal/repo"
	"github.com/tiptophouse/diamond-webhook/internal/services"
	"github.com/tiptophouse/diamond-webhook/internal/verify"
)

// directoryShim adapts the repository free functions to the
// services.DealerDirectory interface expected by the orchestrator. This
// keeps services decoupled from the concrete repo package while reusing
// the existing functions.
type directoryShim struct{ db *gorm.DB }

// ListActiveDealerIDs proxies repo.ListActiveDealerIDs.
func (d directoryShim) ListActiveDealerIDs(ctx context.Context) ([]int64, error) {
	return repo.ListActiveDealerIDs(ctx, d.db)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given
// Gin engine: the platform webhook entry point, the versioned admin API,
// and the health/metrics endpoints.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. CORS (forced ACAO: * when no allowlist is configured — the platform
//     sends no Origin header, and preflight OPTIONS must succeed)
//  8. Security headers
//  9. Rate limiter — admin group only
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging
	r.Use(middleware.Logger())

	// 4) Panic recovery (the webhook handler adds its own plain-text recover)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) CORS posture
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// 8) Security headers
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
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: verifier + orchestrator ← config/db/backend
	verifier := verify.New(verify.Options{
		Secret:              cfg.Webhook.Secret,
		RequiredUserAgent:   cfg.Webhook.RequiredUserAgent,
		AllowedSourceRanges: cfg.Webhook.AllowedSourceRanges,
	})
	backend := inventory.NewClient(cfg.Backend.BaseURL, cfg.Backend.AccessToken, cfg.Backend.FetchTimeout)
	svc := &services.WebhookService{
		DB:            db,
		Matcher:       match.New(backend),
		Directory:     directoryShim{db: db},
		Dispatcher:    &services.NotificationDispatcher{DB: db, DedupeEnabled: cfg.DedupeEnabled},
		PostGen:       backend,
		Threshold:     cfg.Threshold,
		TargetGroupID: cfg.TargetGroupID,
		PaymentPhrase: cfg.PaymentPhrase,
	}

	// Platform entry point — outside the rate-limited group.
	wh := handlers.NewWebhook(verifier, svc)
	r.POST("/webhook", wh.Handle)

	// 9) Admin API with token-bucket rate limiting per client IP.
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
	admin := handlers.NewAdmin(db)
	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(rl.Handler())
	{
		api.GET("/notifications", admin.ListNotifications)
		api.GET("/clicks", admin.ListClicks)
		api.GET("/dealers", admin.ListDealers)
		api.POST("/dealers", admin.RegisterDealer)
	}
}

// limitBody caps the request body size for all endpoints using
// http.MaxBytesReader; oversized bodies error on downstream reads.
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
