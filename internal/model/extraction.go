package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// MaxPageLimit 单次提取的最大页数
const MaxPageLimit = 100

// Range 提取范围：具体页数或全部
type Range struct {
	All   bool
	Count int
}

// RangeAll 提取全部
func RangeAll() Range { return Range{All: true} }

// RangeOf 提取指定页数
func RangeOf(n int) Range { return Range{Count: n} }

// MaxPages 实际允许的最大请求页数，不超过 MaxPageLimit
func (r Range) MaxPages() int {
	if r.All {
		return MaxPageLimit
	}
	n := r.Count
	if n < 1 {
		n = 1
	}
	if n > MaxPageLimit {
		n = MaxPageLimit
	}
	return n
}

func (r Range) String() string {
	if r.All {
		return "all"
	}
	return strconv.Itoa(r.Count)
}

// RangeKind RangeSpec 的取值种类
type RangeKind string

const (
	RangeKindCount  RangeKind = "count"
	RangeKindAll    RangeKind = "all"
	RangeKindCustom RangeKind = "custom"
)

// RangeSpec 请求中的 range / range_type 字段，可以是数字、"all" 或 "custom"
type RangeSpec struct {
	Kind  RangeKind
	Count int
}

// UnmarshalJSON 兼容数字、数字字符串、"all"、"custom"
func (s *RangeSpec) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	if data[0] != '"' {
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("无效的范围值: %s", data)
		}
		s.Kind = RangeKindCount
		s.Count = int(n)
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	return s.parse(str)
}

// MarshalJSON 输出为数字或字符串
func (s RangeSpec) MarshalJSON() ([]byte, error) {
	if s.Kind == RangeKindCount || s.Kind == "" {
		return json.Marshal(s.Count)
	}
	return json.Marshal(string(s.Kind))
}

// ParseRangeSpec 解析命令行或查询参数中的范围
func ParseRangeSpec(str string) (*RangeSpec, error) {
	s := &RangeSpec{}
	if err := s.parse(str); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *RangeSpec) parse(str string) error {
	str = strings.ToLower(strings.TrimSpace(str))
	switch str {
	case "all":
		s.Kind = RangeKindAll
	case "custom":
		s.Kind = RangeKindCustom
	default:
		n, err := strconv.Atoi(str)
		if err != nil {
			return fmt.Errorf("无效的范围值: %q", str)
		}
		s.Kind = RangeKindCount
		s.Count = n
	}
	return nil
}

// TableOptions 目标表格选项
type TableOptions struct {
	TableID        string `json:"tableId,omitempty"`
	CreateNewTable bool   `json:"createNewTable,omitempty"`
	TableName      string `json:"tableName,omitempty"`
}

// ExtractionRequest 一次提取请求，构造后不再修改
type ExtractionRequest struct {
	APIKey         string       `json:"apiKey"`
	ExtractType    ExtractType  `json:"extractType" binding:"required,oneof=homepage details comments"`
	URL            string       `json:"url" binding:"required"`
	Range          *RangeSpec   `json:"range,omitempty"`
	RangeType      *RangeSpec   `json:"range_type,omitempty"`
	StartDate      string       `json:"startDate,omitempty" binding:"omitempty,startdate"`
	IncludeReplies bool         `json:"includeReplies,omitempty"`
	TableOptions   TableOptions `json:"tableOptions"`
}

// ExtractResult 提取策略的输出
type ExtractResult struct {
	Success     bool          `json:"success"`
	Data        []*FlatRecord `json:"data"`
	Message     string        `json:"message,omitempty"`
	TotalCount  int           `json:"totalCount"`
	Platform    string        `json:"platform,omitempty"`
	ExtractType ExtractType   `json:"extractType,omitempty"`
}

// Clone 复制结果，记录本身也会复制
func (r *ExtractResult) Clone() *ExtractResult {
	c := *r
	c.Data = make([]*FlatRecord, len(r.Data))
	for i, rec := range r.Data {
		c.Data[i] = rec.Clone()
	}
	return &c
}

// TableUpdateResult 表格同步结果
type TableUpdateResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	RecordCount int    `json:"recordCount"`
	TableID     string `json:"tableId,omitempty"`
	TableName   string `json:"tableName,omitempty"`
}

// ExtractionResponse 一次完整提取流程的结果
type ExtractionResponse struct {
	Success          bool               `json:"success"`
	Message          string             `json:"message"`
	ExtractResult    *ExtractResult     `json:"extractResult,omitempty"`
	TableResult      *TableUpdateResult `json:"tableResult,omitempty"`
	ExtractedCount   int                `json:"extractedCount"`
	TableRecordCount int                `json:"tableRecordCount"`
}

// ProgressFunc 进度回调，progress 取值 0-100
type ProgressFunc func(progress float64, message string)
