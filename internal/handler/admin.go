package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/dataminer/internal/utils"
)

// AdminCache 提取缓存和任务统计
func (h *Handler) AdminCache(c *gin.Context) {
	cache := h.Extraction.Cache()
	utils.Success(c, gin.H{
		"entries":    cache.Len(),
		"ttlSeconds": h.Config.CacheTTL.Seconds(),
	})
}

// AdminCacheClean 清空提取缓存并清理过期任务
func (h *Handler) AdminCacheClean(c *gin.Context) {
	cache := h.Extraction.Cache()
	entries := cache.Len()
	cache.Clear()
	if h.Cleanup != nil {
		h.Cleanup.RunCleanup()
	}

	utils.Success(c, gin.H{
		"affected": entries,
		"message":  "清理完成",
	})
}
