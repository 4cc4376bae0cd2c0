// Package httpapi serves the public certificate verification endpoints.
package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alexanderramin/learnpath/internal/logger"
)

type RouterConfig struct {
	Log                *logger.Logger
	CertificateHandler *CertificateHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger.OrNop(cfg.Log)))

	router.GET("/healthcheck", HealthCheck)
	api := router.Group("/api")
	{
		api.GET("/certificates/:id", cfg.CertificateHandler.Verify)
	}
	return router
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
