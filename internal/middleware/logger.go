package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// 探活和指标抓取不记录日志
var quietPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// Logger 请求日志中间件
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		if _, ok := quietPaths[path]; ok {
			return
		}
		log.Printf("[HTTP] %s %s %s %d %d %v",
			c.Request.Method,
			path,
			c.ClientIP(),
			c.Writer.Status(),
			c.Writer.Size(),
			time.Since(start),
		)
	}
}
