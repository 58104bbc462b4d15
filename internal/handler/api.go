package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/user/dataminer/internal/middleware"
	"github.com/user/dataminer/internal/model"
	"github.com/user/dataminer/internal/service"
	"github.com/user/dataminer/internal/utils"
)

// bindExtraction 解析提取请求，body 中没有 apiKey 时使用请求头里的
func (h *Handler) bindExtraction(c *gin.Context) (*model.ExtractionRequest, bool) {
	var req model.ExtractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "请求参数错误: "+err.Error())
		return nil, false
	}
	if req.APIKey == "" {
		req.APIKey = middleware.GetAPIKey(c)
	}
	if err := h.Extraction.EnsureInitialized(c.Request.Context()); err != nil {
		utils.ServiceUnavailable(c, "数据提取服务未初始化: "+err.Error())
		return nil, false
	}
	return &req, true
}

// Extract 同步执行一次提取并写入表格
func (h *Handler) Extract(c *gin.Context) {
	req, ok := h.bindExtraction(c)
	if !ok {
		return
	}

	resp := h.Extraction.ExtractAndUpdate(c.Request.Context(), req, service.RunListener{})
	if !resp.Success {
		utils.ErrorWithData(c, http.StatusUnprocessableEntity, resp.Message, resp)
		return
	}
	utils.SuccessWithMessage(c, resp.Message, resp)
}

// ExtractAsync 后台执行提取，立即返回任务 ID
func (h *Handler) ExtractAsync(c *gin.Context) {
	req, ok := h.bindExtraction(c)
	if !ok {
		return
	}

	id := h.Runs.Start(req)
	utils.Accepted(c, "任务已创建", gin.H{"runId": id})
}

// RunStatus 查询后台任务进度
func (h *Handler) RunStatus(c *gin.Context) {
	status, ok := h.Runs.Get(c.Param("id"))
	if !ok {
		utils.NotFound(c, "任务不存在或已过期")
		return
	}
	utils.Success(c, status)
}

// Platforms 支持的平台和提取类型
func (h *Handler) Platforms(c *gin.Context) {
	utils.Success(c, service.SupportMatrix())
}
