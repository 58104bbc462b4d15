package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/user/dataminer/internal/model"
	"github.com/user/dataminer/internal/utils"
	"golang.org/x/sync/singleflight"
)

// DecoratorFunc 包装一个 Extractor，附加一项通用能力
type DecoratorFunc func(inner Extractor) Extractor

// Chain 依次套上装饰器，decorators 按从外到内的顺序给出
// Chain(s, Cache, Validate) 等价于 Cache(Validate(s))
func Chain(strategy Extractor, decorators ...DecoratorFunc) Extractor {
	e := strategy
	for i := len(decorators) - 1; i >= 0; i-- {
		e = decorators[i](e)
	}
	return e
}

var httpURLPattern = regexp.MustCompile(`^https?://.+`)

// ValidatorDecorator 参数校验，校验失败时不调用内层
type ValidatorDecorator struct {
	inner  Extractor
	apiKey string
}

// WithValidation 校验装饰器
func WithValidation(apiKey string) DecoratorFunc {
	return func(inner Extractor) Extractor {
		return &ValidatorDecorator{inner: inner, apiKey: apiKey}
	}
}

// Extract 校验链接和 API Key，成功后清理记录
func (d *ValidatorDecorator) Extract(ctx context.Context, url string) (*model.ExtractResult, error) {
	if msg := validateInput(url, d.apiKey); msg != "" {
		return &model.ExtractResult{Success: false, Data: []*model.FlatRecord{}, Message: msg}, nil
	}

	result, err := d.inner.Extract(ctx, url)
	if err != nil || result == nil || !result.Success {
		return result, err
	}
	for _, rec := range result.Data {
		cleanRecord(rec)
	}
	return result, nil
}

// validateInput 返回错误提示，通过时返回空字符串
func validateInput(url, apiKey string) string {
	if strings.TrimSpace(url) == "" {
		return "请输入有效的URL"
	}
	if strings.TrimSpace(apiKey) == "" {
		return "请输入有效的API Key"
	}
	for _, line := range utils.SplitURLs(url) {
		if !httpURLPattern.MatchString(line) {
			return fmt.Sprintf("无效的URL格式: %s", line)
		}
	}
	return ""
}

// cleanRecord 字符串去掉首尾空白，nil 替换为空字符串（保持字段集合不变）
func cleanRecord(rec *model.FlatRecord) {
	for _, k := range rec.Keys() {
		v, _ := rec.Get(k)
		switch val := v.(type) {
		case nil:
			rec.Set(k, "")
		case string:
			rec.Set(k, strings.TrimSpace(val))
		}
	}
}

// ExtractionCache 提取结果缓存，由 ExtractionService 持有，在多次提取之间共享
type ExtractionCache struct {
	store *utils.TTLCache[*model.ExtractResult]
	group singleflight.Group
}

// NewExtractionCache 创建缓存
func NewExtractionCache(ttl time.Duration) *ExtractionCache {
	return &ExtractionCache{store: utils.NewTTLCache[*model.ExtractResult](ttl)}
}

// WithClock 替换时钟（测试用）
func (c *ExtractionCache) WithClock(now func() time.Time) *ExtractionCache {
	c.store.WithClock(now)
	return c
}

// Get 命中时返回副本
func (c *ExtractionCache) Get(key string) (*model.ExtractResult, bool) {
	r, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

// Set 只缓存成功的结果
func (c *ExtractionCache) Set(key string, result *model.ExtractResult) {
	if result == nil || !result.Success {
		return
	}
	c.store.Set(key, result.Clone())
}

// Clear 清空
func (c *ExtractionCache) Clear() {
	c.store.Clear()
}

// Len 条数
func (c *ExtractionCache) Len() int {
	return c.store.Len()
}

// CacheKey 缓存 key：url_apiKey_{range}_{startDate}_{extractType}_{includeReplies}
func CacheKey(url string, opts ExtractOptions) string {
	return fmt.Sprintf("%s_%s_%s_%s_%s_%t", url, opts.APIKey, opts.Range.String(), opts.StartDate, opts.ExtractType, opts.IncludeReplies)
}

// CacheDecorator 缓存装饰器
type CacheDecorator struct {
	inner Extractor
	cache *ExtractionCache
	key   string
}

// WithCache 缓存装饰器，key 由调用方根据提取参数生成
func WithCache(cache *ExtractionCache, key string) DecoratorFunc {
	return func(inner Extractor) Extractor {
		return &CacheDecorator{inner: inner, cache: cache, key: key}
	}
}

// Extract 命中缓存时不调用内层；相同 key 的并发请求只执行一次
func (d *CacheDecorator) Extract(ctx context.Context, url string) (*model.ExtractResult, error) {
	if cached, ok := d.cache.Get(d.key); ok {
		cached.Message += " (来自缓存)"
		return cached, nil
	}

	val, err, shared := d.cache.group.Do(d.key, func() (interface{}, error) {
		result, err := d.inner.Extract(ctx, url)
		if err != nil {
			return nil, err
		}
		d.cache.Set(d.key, result)
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	result, _ := val.(*model.ExtractResult)
	if shared && result != nil {
		result = result.Clone()
	}
	return result, nil
}
