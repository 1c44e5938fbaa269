package http

import (
	"io"
	"net/http"
	"time"

	"github.com/Miraines/MoonyAndStarry/records-api/internal/adapters/transport/http/handler"
	httpmw "github.com/Miraines/MoonyAndStarry/records-api/internal/adapters/transport/http/middleware"
	"github.com/Miraines/MoonyAndStarry/records-api/internal/adapters/transport/http/router"
	appsvc "github.com/Miraines/MoonyAndStarry/records-api/internal/app/auth/service"
	"github.com/Miraines/MoonyAndStarry/records-api/internal/infra/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	MetricsPath       = "/metrics"
	rateLimitCacheTTL = time.Hour
	rateLimitCache    = 10_000
)

// NewEngine wires the gin edge (recovery, logging, rate limit, CORS, metrics)
// in front of the dispatcher. Every path other than /metrics reaches the
// dispatcher through NoRoute, whatever the method.
func NewEngine(cfg *config.Config, svc appsvc.Service, reg *prometheus.Registry, log *zap.Logger) *gin.Engine {
	engine := gin.New()
	engine.HandleMethodNotAllowed = false
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false

	engine.Use(recovery(log))
	engine.Use(httpmw.RequestLogger(log))
	if cfg.RateLimitRPS > 0 {
		engine.Use(httpmw.NewRateLimitPerIP(cfg.RateLimitRPS, cfg.RateLimitBurst, rateLimitCache, rateLimitCacheTTL))
	}
	if len(cfg.AllowedOrigins) > 0 {
		engine.Use(cors.New(cors.Config{
			AllowOrigins: cfg.AllowedOrigins,
			AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders: []string{
				"Origin", "Content-Type", "Accept",
				"Authorization", "Token",
				"X-Requested-With", httpmw.HeaderRequestID,
			},
			ExposeHeaders: []string{"Content-Length", httpmw.HeaderRequestID},
			MaxAge:        12 * time.Hour,
		}))
	}
	if cfg.MetricsEnabled && reg != nil {
		engine.Use(httpmw.NewMetrics(reg).Handler())
		engine.GET(MetricsPath, gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	dispatcher := router.NewDispatcher(handler.NewRoutes(svc, log), cfg.MaxBodyBytes, log)
	engine.NoRoute(gin.WrapH(dispatcher))
	return engine
}

// recovery logs the panic through zap and answers with the usual error body
// instead of gin's empty 500.
func recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, rec any) {
		log.Error("panic recovered",
			zap.String("request_id", httpmw.RequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", rec),
			zap.Stack("stack"),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, handler.ErrorBody{Error: "internal server error"})
	})
}
