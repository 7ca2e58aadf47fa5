package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"go.ngs.io/pollen-api/internal/observability"
	"go.ngs.io/pollen-api/internal/usecase"
)

// RouterConfig holds the HTTP-level settings.
type RouterConfig struct {
	// AllowedOrigins for CORS. Empty allows all origins.
	AllowedOrigins []string

	// Token bucket applied to the API routes. RateLimitRPS <= 0 disables limiting.
	RateLimitRPS   float64
	RateLimitBurst int
}

// SetupRouter creates and configures the Gin router.
func SetupRouter(forecastUC *usecase.ForecastUseCase, cache *usecase.SnapshotCache, cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(metricsMiddleware())

	// Setup CORS middleware.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "HEAD", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	handler := NewHandler(forecastUC, cache)

	// API v1 routes.
	v1 := router.Group("/v1")
	if cfg.RateLimitRPS > 0 {
		v1.Use(rateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}
	v1.GET("/pollen", handler.GetPollen)

	// Health check.
	router.GET("/health", handler.HealthCheck)

	// Prometheus metrics.
	router.GET("/metrics", gin.WrapH(observability.Handler()))

	return router
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		if endpoint == "/metrics" {
			return
		}
		observability.ObserveRequest(endpoint, c.Request.Method, c.Writer.Status(), time.Since(started))
	}
}
