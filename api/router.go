// Package api exposes the pipeline tables as a read-only HTTP API.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pricepipe/metrics"
	"pricepipe/utils"
)

// NewRouter wires the public and API-key protected routes.
func NewRouter(h *Handler, apiKey string, logger *utils.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger), metrics.GinPrometheusMiddleware())

	router.GET("/", h.Welcome)
	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	protected := router.Group("/")
	protected.Use(RequireAPIKey(apiKey))
	{
		protected.GET("/product-masters", h.ListProductMasters)
		protected.GET("/products", h.ListProducts)
		protected.GET("/recommendations/today", h.TodayRecommendations)
	}

	return router
}
