package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// principalKey gin context 中主体的键
const principalKey = "principal"

// Middleware Bearer Token 认证中间件
// 验证通过后把 Principal 放入 gin context,供控制器读取
func Middleware(validator *TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": 401, "message": "missing authorization header"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": 401, "message": "invalid authorization header"})
			return
		}

		claims, err := validator.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": 401, "message": "invalid token"})
			return
		}

		p := claims.Principal()
		c.Set(principalKey, p)
		c.Set("user_id", p.UserID)
		c.Next()
	}
}

// FromContext 从 gin context 获取调用者主体
func FromContext(c *gin.Context) *Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(*Principal); ok {
			return p
		}
	}
	return nil
}
