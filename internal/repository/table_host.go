package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/user/dataminer/internal/model"
)

// ErrTableNotFound 表格不存在
var ErrTableNotFound = errors.New("表格不存在")

// TableHost 承载数据表格的宿主
type TableHost interface {
	GetTableMetaList(ctx context.Context) ([]model.TableMeta, error)
	GetTableByID(ctx context.Context, id string) (Table, error)
	AddTable(ctx context.Context, name string, fields []model.FieldConfig) (string, error)
	GetSelection(ctx context.Context) (*model.Selection, error)
	SelectTable(ctx context.Context, id string) error
}

// Table 单个表格
type Table interface {
	ID() string
	Name() string
	GetFieldMetaList(ctx context.Context) ([]model.TableFieldMeta, error)
	AddField(ctx context.Context, field model.FieldConfig) (string, error)
	// AddRecords 批量写入，任意一行失败则整批不写入
	AddRecords(ctx context.Context, records []model.RecordFields) ([]string, error)
	AddRecord(ctx context.Context, record model.RecordFields) (string, error)
	ListRecords(ctx context.Context, limit, offset int) ([]model.TableRecord, int64, error)
}

// validateFieldConfig 新建列的校验
func validateFieldConfig(field model.FieldConfig) error {
	if strings.TrimSpace(field.Name) == "" {
		return errors.New("字段名不能为空")
	}
	if !field.Type.Valid() {
		return fmt.Errorf("未知的字段类型: %s", field.Type)
	}
	return nil
}

// validateRecord 按列类型校验一行数据
func validateRecord(fields map[string]model.TableFieldMeta, record model.RecordFields) error {
	for id, value := range record {
		field, ok := fields[id]
		if !ok {
			return fmt.Errorf("字段 %s 不存在", id)
		}
		if err := validateValue(field, value); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(field model.TableFieldMeta, value interface{}) error {
	switch field.Type {
	case model.FieldCreatedTime:
		return fmt.Errorf("字段 %s 由系统自动填充，不能写入", field.Name)
	case model.FieldNumber:
		if isNumber(value) {
			return nil
		}
		if s, ok := value.(string); ok {
			if _, err := strconv.ParseFloat(s, 64); err == nil {
				return nil
			}
		}
		return fmt.Errorf("字段 %s 需要数字，实际为 %v", field.Name, value)
	case model.FieldDateTime:
		if isNumber(value) {
			return nil
		}
		return fmt.Errorf("字段 %s 需要时间戳，实际为 %v", field.Name, value)
	case model.FieldCheckbox:
		if _, ok := value.(bool); ok {
			return nil
		}
		return fmt.Errorf("字段 %s 需要布尔值，实际为 %v", field.Name, value)
	}
	return nil
}

func isNumber(v interface{}) bool {
	switch v.(type) {
	case int, int32, int64, float32, float64:
		return true
	}
	return false
}
