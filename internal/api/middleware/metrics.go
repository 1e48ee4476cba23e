package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/recipehub/internal/metrics"
)

// Metrics 记录请求数与耗时，route 使用路由模板避免标签爆炸
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
