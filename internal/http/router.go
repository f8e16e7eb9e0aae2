package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.ngs.io/xsec-api/internal/metrics"
	"go.ngs.io/xsec-api/internal/usecase"
)

// RouterConfig configures the middleware stack.
type RouterConfig struct {
	// AllowedOrigins lists CORS origins; empty allows all origins.
	AllowedOrigins []string
	// RateLimitRPS and RateLimitBurst size the per-client token bucket.
	// A zero rate disables rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int64
}

// SetupRouter creates and configures the Gin router.
func SetupRouter(xsecUC *usecase.CrossSectionUseCase, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(RequestLogger())
	router.Use(metrics.Middleware())

	// Setup CORS middleware.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{requestIDHeader}
	router.Use(cors.New(corsConfig))

	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		limiter := NewRateLimiter(cfg.RateLimitRPS, burst)
		limiter.startCleanup(30 * time.Minute)
		router.Use(limiter.Middleware())
	}

	// Create handler.
	handler := NewHandler(xsecUC)

	// API v1 routes.
	v1 := router.Group("/v1")
	v1.GET("/xsec", handler.GetCrossSection)
	v1.GET("/spectrum", handler.GetSpectrum)
	v1.GET("/isotopologues", handler.GetIsotopologues)
	v1.GET("/tables", handler.GetTables)
	v1.DELETE("/tables/:name", handler.DeleteTable)

	// Health check and metrics.
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
