package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/user/dataminer/internal/metrics"
	"github.com/user/dataminer/internal/model"
	"golang.org/x/sync/singleflight"
)

// ErrNotInitialized 提取前必须先调用 Initialize
var ErrNotInitialized = errors.New("数据提取服务未初始化")

// RunListener 接收一次提取流程的阶段和进度
type RunListener struct {
	OnProgress model.ProgressFunc
	OnState    func(state model.RunState)
}

func (l RunListener) progress(p float64, msg string) {
	if l.OnProgress != nil {
		l.OnProgress(p, msg)
	}
}

func (l RunListener) state(s model.RunState) {
	if l.OnState != nil {
		l.OnState(s)
	}
}

// ExtractionService 串联平台检测、数据提取和表格同步
type ExtractionService struct {
	factory     *Factory
	tables      *TableService
	cache       *ExtractionCache
	initialized atomic.Bool
	initGroup   singleflight.Group
}

// NewExtractionService 创建服务，cache 在多次提取之间共享
func NewExtractionService(factory *Factory, tables *TableService, cache *ExtractionCache) *ExtractionService {
	return &ExtractionService{factory: factory, tables: tables, cache: cache}
}

// Initialize 加载表格列表，成功后才能提取
func (s *ExtractionService) Initialize(ctx context.Context) error {
	if err := s.tables.Initialize(ctx); err != nil {
		log.Printf("[ExtractionService] 初始化失败: %v", err)
		return err
	}
	s.initialized.Store(true)
	return nil
}

// Initialized 是否已初始化
func (s *ExtractionService) Initialized() bool {
	return s.initialized.Load()
}

// EnsureInitialized 未初始化时重试一次，并发请求共用同一次初始化
func (s *ExtractionService) EnsureInitialized(ctx context.Context) error {
	if s.Initialized() {
		return nil
	}
	_, err, _ := s.initGroup.Do("init", func() (interface{}, error) {
		if s.Initialized() {
			return nil, nil
		}
		log.Printf("[ExtractionService] 重试初始化")
		return nil, s.Initialize(ctx)
	})
	return err
}

// AvailableTables 可用的表格
func (s *ExtractionService) AvailableTables(ctx context.Context) ([]model.TableMeta, error) {
	return s.tables.TableList(ctx)
}

// CurrentSelection 当前选中的表格
func (s *ExtractionService) CurrentSelection(ctx context.Context) *model.Selection {
	return s.tables.CurrentSelection(ctx)
}

// SelectTable 切换当前表格
func (s *ExtractionService) SelectTable(ctx context.Context, id string) error {
	return s.tables.SelectTable(ctx, id)
}

// Cache 提取结果缓存
func (s *ExtractionService) Cache() *ExtractionCache {
	return s.cache
}

// ExtractAndUpdate 执行一次完整的提取流程，总是返回结构化的结果
// 进度分段：0-10 准备，10-60 提取，60-95 写入表格，95-100 收尾
func (s *ExtractionService) ExtractAndUpdate(ctx context.Context, req *model.ExtractionRequest, l RunListener) *model.ExtractionResponse {
	fail := func(err error) *model.ExtractionResponse {
		log.Printf("[ExtractionService] 数据提取失败: %v", err)
		l.state(model.RunFailed)
		l.progress(100, fmt.Sprintf("提取失败: %v", err))
		return &model.ExtractionResponse{Success: false, Message: fmt.Sprintf("数据提取失败: %v", err)}
	}

	if !s.Initialized() {
		return fail(ErrNotInitialized)
	}

	l.state(model.RunDetecting)
	l.progress(0, "开始数据提取流程...")

	platform := DetectPlatform(req.URL)
	l.progress(5, fmt.Sprintf("检测到%s平台，开始提取%s", PlatformName(platform), req.ExtractType.DisplayName()))

	opts := ExtractOptions{
		APIKey:         req.APIKey,
		Range:          NormalizeRange(req.Range, req.RangeType),
		StartDate:      req.StartDate,
		ExtractType:    req.ExtractType,
		IncludeReplies: req.IncludeReplies,
		OnProgress: func(p float64, msg string) {
			l.progress(10+p*0.5, msg)
		},
	}

	strategy, err := s.factory.Create(req.ExtractType, req.URL, opts)
	if err != nil {
		metrics.ExtractionsTotal.WithLabelValues(string(platform), string(req.ExtractType), "error").Inc()
		return fail(err)
	}
	chain := Chain(strategy,
		WithCache(s.cache, CacheKey(req.URL, opts)),
		WithValidation(req.APIKey),
	)

	l.state(model.RunExtracting)
	l.progress(10, "正在提取数据...")

	result, err := chain.Extract(ctx, req.URL)
	if err != nil {
		metrics.ExtractionsTotal.WithLabelValues(string(platform), string(req.ExtractType), "error").Inc()
		return fail(err)
	}
	if !result.Success {
		metrics.ExtractionsTotal.WithLabelValues(string(platform), string(req.ExtractType), "failed").Inc()
		msg := result.Message
		if msg == "" {
			msg = "数据提取失败"
		}
		l.state(model.RunFailed)
		l.progress(100, msg)
		return &model.ExtractionResponse{Success: false, Message: msg, ExtractResult: result}
	}
	metrics.ExtractionsTotal.WithLabelValues(string(platform), string(req.ExtractType), "success").Inc()

	count := len(result.Data)
	l.progress(60, fmt.Sprintf("数据提取完成，共获取 %d 条数据", count))

	l.state(model.RunSyncing)
	tableResult := s.tables.UpdateTable(ctx, result.Data, TableUpdateOptions{
		TableOptions: req.TableOptions,
		OnProgress: func(p float64, msg string) {
			l.progress(60+p*0.35, msg)
		},
	}, strategy)

	if !tableResult.Success {
		l.state(model.RunFailed)
		l.progress(100, tableResult.Message)
		return &model.ExtractionResponse{
			Success:        false,
			Message:        fmt.Sprintf("数据提取成功，但表格更新失败: %s", tableResult.Message),
			ExtractResult:  result,
			TableResult:    tableResult,
			ExtractedCount: count,
		}
	}

	l.progress(95, "正在完成...")
	l.state(model.RunDone)
	l.progress(100, "数据提取和表格更新完成！")
	return &model.ExtractionResponse{
		Success:          true,
		Message:          fmt.Sprintf("成功提取 %d 条数据并更新到表格", count),
		ExtractResult:    result,
		TableResult:      tableResult,
		ExtractedCount:   count,
		TableRecordCount: tableResult.RecordCount,
	}
}

// NormalizeRange 计算实际的提取范围
// range_type 优先：all 表示全部，custom 使用 range 的数字（默认 1），数字直接覆盖 range
func NormalizeRange(rng, rangeType *model.RangeSpec) model.Range {
	if rangeType != nil && rangeType.Kind != "" {
		switch rangeType.Kind {
		case model.RangeKindAll:
			return model.RangeAll()
		case model.RangeKindCustom:
			if rng != nil && rng.Kind == model.RangeKindCount && rng.Count > 0 {
				return model.RangeOf(rng.Count)
			}
			return model.RangeOf(1)
		case model.RangeKindCount:
			return model.RangeOf(rangeType.Count)
		}
	}

	if rng != nil {
		switch rng.Kind {
		case model.RangeKindAll:
			return model.RangeAll()
		case model.RangeKindCount:
			if rng.Count > 0 {
				return model.RangeOf(rng.Count)
			}
		}
	}
	return model.RangeOf(1)
}
