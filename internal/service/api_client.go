package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/user/dataminer/internal/metrics"
	"github.com/user/dataminer/internal/utils"
)

const (
	// CodeInsufficientCredits 远程接口积分不足的业务码
	CodeInsufficientCredits = 4001

	creditsExhaustedPhrase = "Credits 已耗尽"
	defaultCreditsMessage  = "您的 Credits 已耗尽，请前往 https://data.snappdown.com 充值后使用"
)

// InsufficientCreditsError 积分不足，提取策略据此返回部分结果
type InsufficientCreditsError struct {
	Code    int
	Message string
}

func (e *InsufficientCreditsError) Error() string {
	if e.Message == "" {
		return defaultCreditsMessage
	}
	return e.Message
}

// AsInsufficientCredits 判断错误链中是否包含积分不足
func AsInsufficientCredits(err error) (*InsufficientCreditsError, bool) {
	var target *InsufficientCreditsError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// apiEnvelope 远程接口统一响应
type apiEnvelope struct {
	Success bool            `json:"success"`
	Code    utils.FlexInt   `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// APIClient 远程提取接口客户端
type APIClient struct {
	http    *utils.HTTPClient
	baseURL string
}

// NewAPIClient 创建客户端，请求路径为 {baseURL}/api{endpoint}
func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	return &APIClient{
		http:    utils.NewHTTPClient(timeout),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Post 发送提取请求，成功时把 data 解析到 out（out 为 nil 时忽略）
func (c *APIClient) Post(ctx context.Context, apiKey, endpoint string, payload, out interface{}) error {
	var env apiEnvelope
	headers := map[string]string{"x-api-key": apiKey}

	_, err := c.http.PostJSON(ctx, c.baseURL+"/api"+endpoint, headers, payload, &env)
	if err != nil {
		metrics.RemoteRequestsTotal.WithLabelValues(endpoint, "transport_error").Inc()
		return fmt.Errorf("请求 %s 失败: %w", endpoint, err)
	}

	code := int(env.Code.Int64())
	if code == CodeInsufficientCredits || (code == 500 && strings.Contains(env.Message, creditsExhaustedPhrase)) {
		metrics.RemoteRequestsTotal.WithLabelValues(endpoint, "credits").Inc()
		return &InsufficientCreditsError{Code: code, Message: env.Message}
	}

	if !env.Success {
		metrics.RemoteRequestsTotal.WithLabelValues(endpoint, "api_error").Inc()
		msg := env.Message
		if msg == "" {
			msg = "Unknown error"
		}
		return fmt.Errorf("API request failed: %s", msg)
	}

	metrics.RemoteRequestsTotal.WithLabelValues(endpoint, "ok").Inc()
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		log.Printf("[APIClient] 解析 %s 响应数据失败: %v", endpoint, err)
		return fmt.Errorf("解析 %s 响应数据失败: %w", endpoint, err)
	}
	return nil
}
