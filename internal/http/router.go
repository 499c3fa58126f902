// Package httpapi wires the Gin transport to the booking service: tracing,
// correlation ids, redacted logging, panic recovery, body limits, metrics,
// compression, CORS and security headers, then the booking route behind its
// rate limit and idempotency check.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/ashinemobile/booking-backend/docs"
	"github.com/ashinemobile/booking-backend/internal/config"
	"github.com/ashinemobile/booking-backend/internal/http/handlers"
	"github.com/ashinemobile/booking-backend/internal/http/middleware"
	"github.com/ashinemobile/booking-backend/internal/ratelimit"
	"github.com/ashinemobile/booking-backend/internal/repo"
)

// Deps are the collaborators RegisterRoutes mounts.
type Deps struct {
	// Booking processes submissions.
	Booking handlers.Booker
	// Limiter guards the booking route; nil means ratelimit.DefaultLimit in memory.
	Limiter *ratelimit.Limiter
	// DB stores idempotency records; nil disables replays (the header is
	// still validated).
	DB *gorm.DB
}

// replayRepo adapts the repo functions to handlers.ReplayStore.
type replayRepo struct {
	db  *gorm.DB
	ttl time.Duration
}

// Save stores the provider id for (scope, key). A concurrent retry that
// stored the same key first is not an error.
func (r replayRepo) Save(ctx context.Context, scope, key, requestHash, messageID string) error {
	_, err := repo.CreateIdempotency(ctx, r.db, scope, key, requestHash, messageID, http.StatusOK, r.ttl)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}

// lookup answers IdempotencyValidator from the repo.
func (r replayRepo) lookup(ctx context.Context, scope, key string, now time.Time) (middleware.StoredResult, bool, error) {
	rec, err := repo.GetIdempotency(ctx, r.db, scope, key, now)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return middleware.StoredResult{}, false, nil
	case err != nil:
		return middleware.StoredResult{}, false, err
	}
	return middleware.StoredResult{MessageID: rec.MessageID, RequestHash: rec.RequestHash}, true, nil
}

// RegisterRoutes attaches middleware and endpoints to r.
//
// Global middleware order:
//  1. OpenTelemetry
//  2. RequestID
//  3. RedactingLogger (also attaches the request-scoped logger)
//  4. Recovery
//  5. Body size limit
//  6. Metrics (+ GET /metrics)
//  7. gzip
//  8. CORS and security headers
//
// The booking route then runs FixedWindow before IdempotencyValidator, so
// every request, replay or not, counts against the quota before anything
// else happens.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{middleware.HeaderIdempotencyKey},
	}))
	r.Use(middleware.Recovery())

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 64 << 10
	}
	r.Use(limitBody(maxBody))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.MsgNotFound)
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.MsgNotAllowed)
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	limiter := deps.Limiter
	if limiter == nil {
		limiter = ratelimit.New(ratelimit.NewMemoryStore(), ratelimit.DefaultLimit)
	}

	var (
		replays handlers.ReplayStore
		lookup  middleware.IdempotencyLookup
	)
	if deps.DB != nil {
		rr := replayRepo{db: deps.DB, ttl: cfg.IdempotencyTTL}
		if rr.ttl <= 0 {
			rr.ttl = 24 * time.Hour
		}
		replays, lookup = rr, rr.lookup
	}

	h := handlers.NewBookingHandler(deps.Booking, replays)

	api := groupWithPrefix(r, cfg.APIBasePath)
	api.POST("/booking",
		middleware.FixedWindow(limiter, middleware.BookingKey),
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, lookup),
		h.CreateBooking,
	)
}

// corsMiddleware allows any origin when none is configured; otherwise only
// the listed origins, echoed back with Vary: Origin.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	base := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Accept-Language", middleware.HeaderIdempotencyKey},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	if len(origins) == 0 {
		base.AllowAllOrigins = true
		return []gin.HandlerFunc{
			// Set ACAO even without an Origin header so simple checks see it.
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(base),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	base.AllowOrigins = origins
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(base),
	}
}

// limitBody caps request bodies at maxBytes; reads past the cap fail.
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
