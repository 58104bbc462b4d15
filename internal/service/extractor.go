package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/user/dataminer/internal/model"
	"github.com/user/dataminer/internal/utils"
)

// 所有记录都会带上的提取时间列
const fieldExtractedAt = "提取时间"

// Extractor 数据提取能力
// 返回 error 表示致命错误；业务上的失败通过 Success=false 的结果返回
type Extractor interface {
	Extract(ctx context.Context, url string) (*model.ExtractResult, error)
}

// TableNamer 根据提取结果生成表格名称，只有具体策略实现
type TableNamer interface {
	TypeDisplayName(records []*model.FlatRecord) string
}

// ExtractOptions 单次提取的参数
type ExtractOptions struct {
	APIKey         string
	Range          model.Range
	StartDate      string
	ExtractType    model.ExtractType
	IncludeReplies bool
	OnProgress     model.ProgressFunc
}

// Pacing 请求间隔
type Pacing struct {
	PageDelay  time.Duration // 翻页间隔
	ReplyDelay time.Duration // 回复请求间隔
	URLDelay   time.Duration // 多链接之间的间隔
}

// DefaultPacing 默认请求间隔
func DefaultPacing() Pacing {
	return Pacing{
		PageDelay:  time.Second,
		ReplyDelay: 500 * time.Millisecond,
		URLDelay:   100 * time.Millisecond,
	}
}

// Deps 各提取策略共用的依赖
type Deps struct {
	Client   *APIClient
	Signer   *utils.ProxySigner
	Resolver *ShortLinkResolver
	Pacing   Pacing
	Now      func() time.Time
	Sleep    func(ctx context.Context, d time.Duration) error // 为空时使用 sleepContext
}

// baseExtractor 提取策略共用的请求、进度和积分不足处理
type baseExtractor struct {
	deps     Deps
	opts     ExtractOptions
	platform model.Platform
	tag      string
}

func newBase(deps Deps, opts ExtractOptions, platform model.Platform, kind model.ExtractType, tag string) baseExtractor {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Signer == nil {
		deps.Signer = utils.NewProxySigner("", "")
	}
	if deps.Sleep == nil {
		deps.Sleep = sleepContext
	}
	opts.ExtractType = kind
	return baseExtractor{deps: deps, opts: opts, platform: platform, tag: tag}
}

func (b *baseExtractor) request(ctx context.Context, endpoint string, payload, out interface{}) error {
	return b.deps.Client.Post(ctx, b.opts.APIKey, endpoint, payload, out)
}

func (b *baseExtractor) report(progress float64, message string) {
	if b.opts.OnProgress != nil {
		b.opts.OnProgress(progress, message)
	}
}

func (b *baseExtractor) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	return b.deps.Sleep(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (b *baseExtractor) platformName() string {
	return PlatformName(b.platform)
}

// nowMillis 提取时间（毫秒）
func (b *baseExtractor) nowMillis() int64 {
	return b.deps.Now().UnixMilli()
}

// startMillis 起始日期（毫秒），未设置或无法解析时返回 false
func (b *baseExtractor) startMillis() (int64, bool) {
	if b.opts.StartDate == "" {
		return 0, false
	}
	t, ok := utils.ParseDateTime(b.opts.StartDate)
	if !ok {
		log.Printf("[%s] 无法解析起始日期: %s", b.tag, b.opts.StartDate)
		return 0, false
	}
	return t.UnixMilli(), true
}

// media 需要时转换为代理链接
func (b *baseExtractor) media(rawURL string) string {
	return b.deps.Signer.SmartURL(rawURL, string(b.platform))
}

// download 字幕等文件的下载代理链接
func (b *baseExtractor) download(rawURL, filename string) string {
	if rawURL == "" {
		return ""
	}
	return b.deps.Signer.DownloadURL(rawURL, utils.DefaultProxyExpire, string(b.platform), "", filename)
}

func (b *baseExtractor) success(records []*model.FlatRecord, message string) *model.ExtractResult {
	model.HomogenizeRecords(records)
	return &model.ExtractResult{
		Success:     true,
		Data:        records,
		Message:     message,
		TotalCount:  len(records),
		Platform:    b.platformName(),
		ExtractType: b.opts.ExtractType,
	}
}

func (b *baseExtractor) failure(message string) *model.ExtractResult {
	return &model.ExtractResult{
		Success:     false,
		Data:        []*model.FlatRecord{},
		Message:     message,
		Platform:    b.platformName(),
		ExtractType: b.opts.ExtractType,
	}
}

// insufficientCredits 积分不足：已有数据时返回部分结果，否则返回失败
func (b *baseExtractor) insufficientCredits(err *InsufficientCreditsError, records []*model.FlatRecord, pages int) *model.ExtractResult {
	log.Printf("[%s] 积分不足，停止继续提取", b.tag)
	if len(records) == 0 {
		return b.failure(err.Error())
	}
	b.report(90, "正在格式化已获取的数据...")
	msg := fmt.Sprintf("积分不足，已获取 %d 条数据（%d 页）。%s", len(records), pages, err.Error())
	return b.success(records, msg)
}

// page 一页数据
type page[T any] struct {
	items   []T  // 去重后的新数据
	hasMore bool // 是否还有下一页
	reached bool // 已到达起始日期
}

// paginate 按页拉取，最多 Range.MaxPages() 页
// 返回已获取的数据和成功的页数；出错时数据仍然有效，由调用方决定如何处理
// fetch 出错时返回的 items 也会保留（例如主评论已获取、回复时积分不足）
func paginate[T any](ctx context.Context, b *baseExtractor, span float64, fetch func(ctx context.Context, pageNo int) (page[T], error)) ([]T, int, error) {
	maxPages := b.opts.Range.MaxPages()
	var all []T
	pages := 0

	for pageNo := 1; pageNo <= maxPages; pageNo++ {
		b.report(float64(pageNo-1)/float64(maxPages)*span, fmt.Sprintf("正在获取第 %d 页数据...", pageNo))

		p, err := fetch(ctx, pageNo)
		if err != nil {
			return append(all, p.items...), pages, err
		}
		// 最后一页为空时不计入页数
		if len(p.items) > 0 || p.hasMore {
			pages++
		}
		all = append(all, p.items...)

		if !p.hasMore || p.reached || pageNo == maxPages {
			break
		}
		if err := b.sleep(ctx, b.deps.Pacing.PageDelay); err != nil {
			return all, pages, err
		}
	}
	return all, pages, nil
}

// extractEach 逐个提取多个链接，单个失败时跳过
func (b *baseExtractor) extractEach(ctx context.Context, rawURL string, fetch func(ctx context.Context, url string) (*model.FlatRecord, error)) (*model.ExtractResult, error) {
	urls := utils.SplitURLs(rawURL)
	records := make([]*model.FlatRecord, 0, len(urls))

	for i, u := range urls {
		b.report(float64(i)/float64(len(urls))*90, fmt.Sprintf("正在提取第 %d/%d 个链接...", i+1, len(urls)))

		rec, err := fetch(ctx, u)
		if err != nil {
			if credits, ok := AsInsufficientCredits(err); ok {
				return b.insufficientCredits(credits, records, i), nil
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("[%s] 提取失败，跳过 %s: %v", b.tag, u, err)
			continue
		}
		if rec != nil {
			records = append(records, rec)
		}

		if i < len(urls)-1 {
			if err := b.sleep(ctx, b.deps.Pacing.URLDelay); err != nil {
				return nil, err
			}
		}
	}

	if len(records) == 0 {
		return b.failure("所有URL都提取失败，请检查URL格式或网络连接"), nil
	}
	b.report(100, fmt.Sprintf("详情提取完成，成功提取 %d 条数据", len(records)))
	return b.success(records, fmt.Sprintf("%s详情提取成功，共提取 %d 条数据", b.platformName(), len(records))), nil
}

// 视频分辨率列

func resolutionKey(label string) string {
	return "视频分辨率_" + label
}

// initResolutionColumns 预先写入所有分辨率列，保证记录字段一致
func initResolutionColumns(rec *model.FlatRecord) {
	for _, label := range utils.SupportedResolutions {
		rec.Set(resolutionKey(label), "")
	}
}

// setResolution 只写入支持的分辨率，同一分辨率保留第一个链接
func setResolution(rec *model.FlatRecord, label, link string) {
	if link == "" || !utils.IsSupportedResolution(label) {
		return
	}
	rec.SetIfEmpty(resolutionKey(label), link)
}
