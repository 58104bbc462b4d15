package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/user/dataminer/internal/handler"
	"github.com/user/dataminer/internal/middleware"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler) {
	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"initialized": h.Extraction.Initialized(),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(middleware.APIKey())
	{
		// ==================== 数据提取 ====================
		api.POST("/extract", h.Extract)
		api.POST("/extract/async", h.ExtractAsync)
		api.GET("/runs/:id", h.RunStatus)
		api.GET("/platforms", h.Platforms)

		// ==================== 表格 ====================
		api.GET("/tables", h.ListTables)
		api.GET("/tables/selection", h.CurrentSelection)
		api.POST("/tables/:id/select", h.SelectTable)
		api.GET("/tables/:id/records", h.TableRecords)
		api.GET("/tables/:id/export", h.ExportTable)

		// ==================== 媒体代理 ====================
		api.GET("/proxy/media", h.ProxyMedia)
		api.GET("/download/proxy", h.ProxyDownload)
	}

	// ==================== 管理接口 ====================
	admin := r.Group("/api/admin")
	admin.Use(middleware.RequireAdminToken(h.Config.AdminToken))
	{
		admin.GET("/cache", h.AdminCache)
		admin.POST("/cache/clean", h.AdminCacheClean)
	}
}
