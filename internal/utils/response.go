package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一API响应结构，与远程提取接口的返回结构一致
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Success bool        `json:"success"`
}

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{
		Code:    status,
		Message: message,
		Data:    data,
		Success: status < http.StatusBadRequest,
	})
}

// Success 返回成功响应
func Success(c *gin.Context, data interface{}) {
	respond(c, http.StatusOK, "success", data)
}

// SuccessWithMessage 返回成功响应并自定义消息
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	respond(c, http.StatusOK, message, data)
}

// Accepted 任务已受理，在后台执行
func Accepted(c *gin.Context, message string, data interface{}) {
	respond(c, http.StatusAccepted, message, data)
}

// Error 返回错误响应
func Error(c *gin.Context, code int, message string) {
	respond(c, code, message, nil)
}

// ErrorWithData 返回错误响应并附带数据（如提取失败时的结构化结果）
func ErrorWithData(c *gin.Context, code int, message string, data interface{}) {
	respond(c, code, message, data)
}

// BadRequest 400
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// Forbidden 403
func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "禁止访问"
	}
	Error(c, http.StatusForbidden, message)
}

// NotFound 404
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "资源不存在"
	}
	Error(c, http.StatusNotFound, message)
}

// Gone 410，用于过期的代理链接
func Gone(c *gin.Context, message string) {
	Error(c, http.StatusGone, message)
}

// InternalServerError 500
func InternalServerError(c *gin.Context, message string) {
	if message == "" {
		message = "服务器内部错误"
	}
	Error(c, http.StatusInternalServerError, message)
}

// ServiceUnavailable 503
func ServiceUnavailable(c *gin.Context, message string) {
	Error(c, http.StatusServiceUnavailable, message)
}
