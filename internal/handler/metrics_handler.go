package handler

import (
	"purchaseflow/internal/metrics"

	"github.com/gin-gonic/gin"
)

type MetricsHandler struct {
	metrics *metrics.Metrics
}

func NewMetricsHandler(m *metrics.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: m}
}

func (h *MetricsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
}
