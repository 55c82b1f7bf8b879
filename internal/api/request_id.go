package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDMiddleware 请求 ID 中间件
// 透传上游的 X-Request-ID,没有时生成;同时写入请求上下文,
// 供审计日志关联
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		ctx := context.WithValue(c.Request.Context(), "request_id", requestID) //nolint:staticcheck
		ctx = context.WithValue(ctx, "ip", c.ClientIP())                       //nolint:staticcheck
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
