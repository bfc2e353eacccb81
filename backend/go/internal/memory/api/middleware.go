package api

import (
	"net/http"
	"time"

	"MedMemory/backend/go/internal/models"
	"MedMemory/backend/go/pkg/logger"
	"MedMemory/backend/go/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the trace ID of a request.
const RequestIDHeader = "X-Request-ID"

// RateLimit 创建一个 Gin 中间件，超过令牌桶速率的请求返回 429。
func RateLimit(limiter ratelimiter.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "请求过于频繁"})
			return
		}
		c.Next()
	}
}

// RequestLogger 为每个请求分配追踪 ID，并在请求结束后记录一条结构化访问日志。
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		traceID := c.GetHeader(RequestIDHeader)
		if traceID == "" {
			traceID = uuid.New().String()
		}
		c.Header(RequestIDHeader, traceID)

		c.Next()

		entry := log.WithTrace(traceID).WithRequest(models.RequestInfo{
			Method:     c.Request.Method,
			Path:       c.FullPath(),
			RemoteAddr: c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
			Status:     c.Writer.Status(),
			LatencyMS:  time.Since(start).Milliseconds(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Error("request completed")
			return
		}
		entry.Info("request completed")
	}
}
