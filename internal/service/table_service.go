package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/user/dataminer/internal/metrics"
	"github.com/user/dataminer/internal/model"
	"github.com/user/dataminer/internal/repository"
	"github.com/user/dataminer/internal/utils"
)

// DefaultBatchSize 每批写入的记录数
const DefaultBatchSize = 100

// 超过该值的整数转为字符串写入
const maxSafeInteger = 1<<53 - 1

var (
	unsafeFieldChars = regexp.MustCompile(`[^\x{4e00}-\x{9fa5}a-zA-Z0-9_]`)
	leadingDigit     = regexp.MustCompile(`^\d`)
)

// TableUpdateOptions 表格同步参数
type TableUpdateOptions struct {
	model.TableOptions
	OnProgress model.ProgressFunc
}

// TableService 把提取结果同步到表格
type TableService struct {
	host      repository.TableHost
	batchSize int
	now       func() time.Time

	mu     sync.RWMutex
	tables []model.TableMeta
}

// NewTableService 创建表格同步服务，batchSize <= 0 时使用默认值
func NewTableService(host repository.TableHost, batchSize int) *TableService {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &TableService{host: host, batchSize: batchSize, now: time.Now}
}

// WithClock 替换时钟（测试用）
func (s *TableService) WithClock(now func() time.Time) *TableService {
	s.now = now
	return s
}

// Initialize 加载表格列表
func (s *TableService) Initialize(ctx context.Context) error {
	list, err := s.host.GetTableMetaList(ctx)
	if err != nil {
		log.Printf("[TableService] 初始化失败: %v", err)
		return fmt.Errorf("无法初始化表格服务: %w", err)
	}
	s.setTables(list)
	return nil
}

func (s *TableService) setTables(list []model.TableMeta) {
	s.mu.Lock()
	s.tables = list
	s.mu.Unlock()
}

// TableList 表格列表，未加载时先加载
func (s *TableService) TableList(ctx context.Context) ([]model.TableMeta, error) {
	s.mu.RLock()
	n := len(s.tables)
	s.mu.RUnlock()
	if n == 0 {
		if err := s.Initialize(ctx); err != nil {
			return nil, err
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.TableMeta, len(s.tables))
	copy(out, s.tables)
	return out, nil
}

// CurrentSelection 当前选中的表格，获取失败时返回空选择
func (s *TableService) CurrentSelection(ctx context.Context) *model.Selection {
	sel, err := s.host.GetSelection(ctx)
	if err != nil || sel == nil {
		if err != nil {
			log.Printf("[TableService] 获取当前选择失败: %v", err)
		}
		return &model.Selection{}
	}
	return sel
}

// SelectTable 设置当前选中的表格
func (s *TableService) SelectTable(ctx context.Context, id string) error {
	if err := s.host.SelectTable(ctx, id); err != nil {
		return fmt.Errorf("选择表格失败: %w", err)
	}
	return nil
}

// UpdateTable 创建或定位表格，补齐字段后分批写入记录
// 写入之前的任何失败都会让整个同步失败；写入阶段的失败只影响对应的行
func (s *TableService) UpdateTable(ctx context.Context, records []*model.FlatRecord, opts TableUpdateOptions, namer TableNamer) *model.TableUpdateResult {
	report := func(p float64, msg string) {
		if opts.OnProgress != nil {
			opts.OnProgress(p, msg)
		}
	}
	log.Printf("[TableService] 开始更新表格，数据条数: %d", len(records))
	report(0, "开始表格更新...")

	tableID := opts.TableID
	tableName := opts.TableName

	if opts.CreateNewTable || tableID == "" {
		report(10, "正在创建新表格...")
		id, name, err := s.createTable(ctx, records, namer)
		if err != nil {
			return &model.TableUpdateResult{Success: false, Message: err.Error()}
		}
		tableID, tableName = id, name
		report(30, "新表格创建完成")
	}
	if tableID == "" {
		return &model.TableUpdateResult{Success: false, Message: "无法确定目标表格"}
	}

	report(35, "正在获取表格实例...")
	table, err := s.host.GetTableByID(ctx, tableID)
	if err != nil {
		log.Printf("[TableService] 获取表格失败 %s: %v", tableID, err)
		return &model.TableUpdateResult{Success: false, Message: fmt.Sprintf("获取表格失败: %v", err)}
	}
	if tableName == "" {
		tableName = table.Name()
	}

	report(40, "正在检查和添加字段...")
	if err := s.ensureFields(ctx, table, records); err != nil {
		return &model.TableUpdateResult{Success: false, Message: err.Error()}
	}

	fields, err := table.GetFieldMetaList(ctx)
	if err != nil {
		return &model.TableUpdateResult{Success: false, Message: fmt.Sprintf("获取字段列表失败: %v", err)}
	}

	report(60, "正在添加记录到表格...")
	count := s.addRecords(ctx, table, records, fields, func(p float64, msg string) {
		report(60+p*0.3, msg)
	})
	metrics.TableRecordsWritten.Add(float64(count))

	report(100, "表格更新完成！")
	return &model.TableUpdateResult{
		Success:     true,
		Message:     fmt.Sprintf("成功添加 %d 条记录到表格", count),
		RecordCount: count,
		TableID:     tableID,
		TableName:   tableName,
	}
}

func (s *TableService) createTable(ctx context.Context, records []*model.FlatRecord, namer TableNamer) (string, string, error) {
	name := s.tableName(namer, records)

	var fields []model.FieldConfig
	if len(records) > 0 {
		first := records[0]
		seen := make(map[string]struct{})
		for _, key := range first.Keys() {
			cfg := fieldConfigFor(first, key)
			if _, ok := seen[cfg.Name]; ok {
				continue
			}
			seen[cfg.Name] = struct{}{}
			fields = append(fields, cfg)
		}
	}

	id, err := s.host.AddTable(ctx, name, fields)
	if err != nil {
		log.Printf("[TableService] 创建表格失败 %s: %v", name, err)
		return "", "", fmt.Errorf("创建表格失败: %w", err)
	}

	if list, err := s.host.GetTableMetaList(ctx); err == nil {
		s.setTables(list)
	}
	log.Printf("[TableService] 新表格创建成功: %s (%s)", name, id)
	return id, name, nil
}

// tableName {类型名称}_{MMDDHHmmss}
func (s *TableService) tableName(namer TableNamer, records []*model.FlatRecord) string {
	typeName := "数据提取"
	if namer != nil {
		if n := namer.TypeDisplayName(records); n != "" {
			typeName = n
		}
	}
	return typeName + "_" + s.now().Format("0102150405")
}

// ensureFields 只新增缺失的字段，不删除表格中已有的字段
func (s *TableService) ensureFields(ctx context.Context, table repository.Table, records []*model.FlatRecord) error {
	if len(records) == 0 {
		return nil
	}

	existing, err := table.GetFieldMetaList(ctx)
	if err != nil {
		return fmt.Errorf("获取字段列表失败: %w", err)
	}
	have := make(map[string]struct{}, len(existing))
	for _, f := range existing {
		have[f.Name] = struct{}{}
	}

	first := records[0]
	for _, key := range first.Keys() {
		cfg := fieldConfigFor(first, key)
		if _, ok := have[cfg.Name]; ok {
			continue
		}
		if _, err := table.AddField(ctx, cfg); err != nil {
			log.Printf("[TableService] 添加字段 %s 失败: %v", cfg.Name, err)
			return fmt.Errorf("添加字段 %s 失败: %w", cfg.Name, err)
		}
		have[cfg.Name] = struct{}{}
		log.Printf("[TableService] 添加字段: %s (%s)", cfg.Name, cfg.Type)
	}
	return nil
}

// addRecords 分批写入，批量失败时逐条重试，返回成功写入的条数
func (s *TableService) addRecords(ctx context.Context, table repository.Table, records []*model.FlatRecord, fields []model.TableFieldMeta, onProgress model.ProgressFunc) int {
	if len(records) == 0 {
		return 0
	}
	total := 0
	batches := (len(records) + s.batchSize - 1) / s.batchSize

	for b := 0; b < batches; b++ {
		start := b * s.batchSize
		end := start + s.batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]
		onProgress(float64(b)/float64(batches)*100, fmt.Sprintf("正在处理第 %d/%d 批记录...", b+1, batches))

		payload := make([]model.RecordFields, len(batch))
		for i, rec := range batch {
			payload[i] = ConvertToTableFields(rec, fields)
		}

		_, err := table.AddRecords(ctx, payload)
		if err == nil {
			total += len(payload)
		} else {
			log.Printf("[TableService] 第 %d 批写入失败，改为逐条写入: %v", b+1, err)
			for i, row := range payload {
				if _, err := table.AddRecord(ctx, row); err != nil {
					log.Printf("[TableService] 第 %d 条记录写入失败: %v", start+i+1, err)
					continue
				}
				total++
			}
		}
		onProgress(float64(b+1)/float64(batches)*100, fmt.Sprintf("第 %d/%d 批记录添加完成", b+1, batches))
	}

	log.Printf("[TableService] 记录添加完成，共成功添加 %d 条记录", total)
	return total
}

func fieldConfigFor(rec *model.FlatRecord, key string) model.FieldConfig {
	value, _ := rec.Get(key)
	cfg := model.FieldConfig{Name: SanitizeFieldName(key), Type: InferFieldType(value, key)}
	if cfg.Type == model.FieldDateTime || cfg.Type == model.FieldCreatedTime {
		cfg.Property = &model.FieldProperty{DateFormat: model.DateTimeDisplayFormat}
	}
	return cfg
}

// SanitizeFieldName 只保留中文、英文、数字和下划线，不能以数字开头
func SanitizeFieldName(name string) string {
	s := unsafeFieldChars.ReplaceAllString(strings.TrimSpace(name), "")
	if s == "" {
		s = "field"
	}
	if leadingDigit.MatchString(s) {
		s = "field_" + s
	}
	return s
}

// InferFieldType 根据样本值推断列类型，"提取时间" 固定为创建时间列
func InferFieldType(value interface{}, name string) model.FieldType {
	if name == fieldExtractedAt {
		return model.FieldCreatedTime
	}

	switch v := value.(type) {
	case int, int32, int64, float32, float64:
		return model.FieldNumber
	case bool:
		return model.FieldCheckbox
	case string:
		s := strings.TrimSpace(v)
		switch {
		case strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://"):
			return model.FieldURL
		case utils.IsDateTimeString(s):
			return model.FieldDateTime
		case utils.IsNumericString(s):
			return model.FieldNumber
		}
	}
	return model.FieldText
}

// ConvertToTableFields 把一条记录转换为以列 ID 为 key 的数据
// 找不到对应列的字段会被跳过
func ConvertToTableFields(rec *model.FlatRecord, fields []model.TableFieldMeta) model.RecordFields {
	byName := make(map[string]model.TableFieldMeta, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}

	out := model.RecordFields{}
	rec.Range(func(key string, value interface{}) bool {
		if value == nil || value == "" {
			return true
		}
		name := SanitizeFieldName(key)
		field, ok := byName[name]
		if !ok {
			log.Printf("[TableService] 警告: 未找到字段 %q 对应的列，跳过该字段", name)
			return true
		}
		if v, ok := convertValue(value, field.Type); ok {
			out[field.ID] = v
		}
		return true
	})
	return out
}

// convertValue 按列类型转换值，第二个返回值为 false 表示跳过
func convertValue(value interface{}, fieldType model.FieldType) (interface{}, bool) {
	switch fieldType {
	case model.FieldCreatedTime:
		return nil, false
	case model.FieldDateTime:
		return toEpochMillis(value)
	}

	switch v := value.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, false
		}
		if fieldType == model.FieldNumber && utils.IsNumericString(s) {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f, true
			}
		}
		return s, true
	case bool:
		return v, true
	case int:
		return normalizeInt(int64(v)), true
	case int32:
		return int64(v), true
	case int64:
		return normalizeInt(v), true
	case float32:
		return normalizeFloat(float64(v))
	case float64:
		return normalizeFloat(v)
	}
	return fmt.Sprint(value), true
}

func normalizeInt(n int64) interface{} {
	if n > maxSafeInteger {
		return strconv.FormatInt(n, 10)
	}
	return n
}

func normalizeFloat(f float64) (interface{}, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	if f > maxSafeInteger {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return f, true
}

// toEpochMillis 时间列的值：字符串解析为毫秒；数字小于 1e10 视为秒
func toEpochMillis(value interface{}) (interface{}, bool) {
	var n float64
	switch v := value.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, false
		}
		t, ok := utils.ParseDateTime(s)
		if !ok {
			log.Printf("[TableService] 警告: 无法解析时间值 %q", s)
			return nil, false
		}
		return t.UnixMilli(), true
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case float64:
		n = v
	default:
		return nil, false
	}
	if n <= 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, false
	}
	if n < 10000000000 {
		n *= 1000
	}
	return int64(n), true
}
