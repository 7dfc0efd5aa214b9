// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"txprop/internal/domain/member"
	"txprop/internal/domain/order"
	"txprop/internal/infrastructure/http/v1/handlers"
	"txprop/internal/infrastructure/http/v1/middleware"
	"txprop/internal/infrastructure/metrics"
	"txprop/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Health reports backend status
	Health *handlers.HealthHandler

	Orders *order.Service

	// Members is keyed by layout name (handlers.Layout*)
	Members map[string]*member.Service

	// Metrics and Gatherer are optional; /metrics is served when both are set.
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace(cfg.Logger))
	router.Use(middleware.Logger(cfg.Logger))
	if cfg.Metrics != nil {
		router.Use(middleware.Metrics(cfg.Metrics))
	}
	router.Use(middleware.ErrorHandler())

	health := router.Group("/health")
	{
		health.GET("/live", cfg.Health.Live)
		health.GET("/ready", cfg.Health.Ready)
		health.GET("/info", cfg.Health.Info)
	}

	if cfg.Metrics != nil && cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	baseHandler := handlers.NewBaseHandler()
	v1 := router.Group("/api/v1")
	{
		orderHandler := handlers.NewOrderHandler(baseHandler, cfg.Orders)
		orders := v1.Group("/orders")
		orders.POST("", orderHandler.Place)
		orders.GET("/:id", orderHandler.Get)

		memberHandler := handlers.NewMemberHandler(baseHandler, cfg.Members)
		members := v1.Group("/members")
		members.POST("/join", memberHandler.Join)
		members.GET("/:username", memberHandler.Get)
	}

	return router
}
