// Package httpapi wires the HTTP transport (Gin) to the submission service,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, rate limiting and admin auth.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic router setup; all dependencies injected
//   - One process serves the API and, optionally, the built frontend
package httpapi

import (
	"context"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/skiline-backend/internal/config"
	"github.com/tbourn/skiline-backend/internal/http/handlers"
	"github.com/tbourn/skiline-backend/internal/http/middleware"
	"github.com/tbourn/skiline-backend/internal/services"
)

// maxBodyBytes caps form posts. The largest legitimate payload is a contact
// message of a few KiB.
const maxBodyBytes = 64 << 10

// Deps carries the collaborators RegisterRoutes mounts.
type Deps struct {
	// Submissions backs every API route.
	Submissions handlers.SubmissionService
	// Keys, when set, lets the edge recognise replays before rate limiting.
	Keys services.IdempotencyStore
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Gzip (excluding /metrics)
//  7. Metrics
//  8. CORS and Security headers
//
// Per route, the idempotency validator runs before the rate limiter so a
// replayed post does not spend a token.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	// Rate limit buckets key on ClientIP, so forwarded headers only count
	// when they come from a configured proxy.
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Error().Err(err).Msg("invalid trusted proxies; trusting none")
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{middleware.HeaderIdempotencyKey},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.Use(corsMiddleware(cfg.CORS))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(deps.Submissions)
	lookup := idempotencyLookup(deps.Keys)
	rl := middleware.NewFormLimiter(cfg.RateRPS, cfg.RateBurst, middleware.ByFormAndClient())

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.POST("/join-us",
			middleware.IdempotencyValidator(middleware.IdempotencyOptions{Scope: services.ScopeApplication}, lookup),
			rl.Handler(),
			h.SubmitApplication)
		api.POST("/contact",
			middleware.IdempotencyValidator(middleware.IdempotencyOptions{Scope: services.ScopeContact}, lookup),
			rl.Handler(),
			h.SubmitContact)

		admin := api.Group("/admin",
			middleware.AdminAuth(cfg.AdminToken),
			middleware.SecurityHeaders(middleware.SecurityOptions{NoStore: true}))
		admin.GET("/applications", h.ListApplications)
		admin.GET("/contacts", h.ListContacts)
	}

	r.NoRoute(noRoute(cfg))
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})
}

// idempotencyLookup adapts an IdempotencyStore to the middleware callback.
// A nil store disables edge replay detection.
func idempotencyLookup(keys services.IdempotencyStore) middleware.IdempotencyLookup {
	if keys == nil {
		return nil
	}
	return func(ctx context.Context, scope, key string, now time.Time) (bool, error) {
		if _, err := keys.Lookup(ctx, scope, key, now); err != nil {
			return false, err
		}
		return true, nil
	}
}

// corsMiddleware allows every origin when none is configured, otherwise only
// the allowlist. Credentials are never allowed; admin auth uses a bearer
// header.
func corsMiddleware(cc config.CORSConfig) gin.HandlerFunc {
	conf := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
		ExposeHeaders: []string{middleware.HeaderRequestID, middleware.HeaderIdempotencyReplayed, "Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cc.AllowedOrigins) == 0 {
		conf.AllowAllOrigins = true
	} else {
		conf.AllowOrigins = cc.AllowedOrigins
	}
	return cors.New(conf)
}

// noRoute answers unknown API paths with the JSON 404 envelope. When a
// frontend build is configured, other GET/HEAD requests are served from it,
// falling back to index.html for client-side routes.
func noRoute(cfg config.Config) gin.HandlerFunc {
	apiPrefix := strings.TrimRight(cfg.APIBasePath, "/") + "/"
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		m := c.Request.Method
		if cfg.StaticDir == "" || (m != http.MethodGet && m != http.MethodHead) ||
			(apiPrefix != "/" && strings.HasPrefix(p+"/", apiPrefix)) {
			handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
			return
		}
		if f, ok := staticFile(cfg.StaticDir, p); ok {
			c.File(f)
			return
		}
		index := filepath.Join(cfg.StaticDir, "index.html")
		if _, err := os.Stat(index); err != nil {
			handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
			return
		}
		c.File(index)
	}
}

// staticFile resolves urlPath inside dir. Cleaning against "/" keeps ".."
// segments from escaping dir. Directories never match.
func staticFile(dir, urlPath string) (string, bool) {
	clean := path.Clean("/" + urlPath)
	if clean == "/" {
		return "", false
	}
	full := filepath.Join(dir, filepath.FromSlash(clean))
	fi, err := os.Stat(full)
	if err != nil || fi.IsDir() {
		return "", false
	}
	return full, true
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// fail JSON binding and are answered 400.
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
