package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const apiKeyContextKey = "api_key"

// APIKey 从请求头读取远程接口的 API Key，存入上下文
// 不做校验，请求体里的 apiKey 优先
func APIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := extractAPIKey(c); key != "" {
			c.Set(apiKeyContextKey, key)
		}
		c.Next()
	}
}

// extractAPIKey 优先 x-api-key，其次 Authorization: Bearer
func extractAPIKey(c *gin.Context) string {
	if key := strings.TrimSpace(c.GetHeader("x-api-key")); key != "" {
		return key
	}
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// GetAPIKey 从上下文获取 API Key（没有返回空字符串）
func GetAPIKey(c *gin.Context) string {
	if key, exists := c.Get(apiKeyContextKey); exists {
		if s, ok := key.(string); ok {
			return s
		}
	}
	return ""
}

// RequireAdminToken 管理接口校验 X-Admin-Token，未配置 token 时关闭管理接口
func RequireAdminToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "管理接口未启用"})
			return
		}
		given := c.GetHeader("X-Admin-Token")
		if subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "需要管理员权限"})
			return
		}
		c.Next()
	}
}
