package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/user/dataminer/internal/model"
	"github.com/user/dataminer/internal/repository"
	"github.com/xuri/excelize/v2"
)

const (
	exportSheetName = "数据"
	exportPageSize  = 500
)

// ExportService 把表格导出为 xlsx
type ExportService struct {
	host repository.TableHost
}

// NewExportService 创建导出服务
func NewExportService(host repository.TableHost) *ExportService {
	return &ExportService{host: host}
}

// ExportXLSX 写入 w，返回表格名称
func (s *ExportService) ExportXLSX(ctx context.Context, tableID string, w io.Writer) (string, error) {
	table, err := s.host.GetTableByID(ctx, tableID)
	if err != nil {
		return "", err
	}
	fields, err := table.GetFieldMetaList(ctx)
	if err != nil {
		return "", fmt.Errorf("获取字段列表失败: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("[ExportService] 关闭文件失败: %v", err)
		}
	}()
	if err := f.SetSheetName(f.GetSheetName(0), exportSheetName); err != nil {
		return "", err
	}

	header := make([]interface{}, len(fields))
	for i, field := range fields {
		header[i] = field.Name
	}
	if err := f.SetSheetRow(exportSheetName, "A1", &header); err != nil {
		return "", err
	}
	if len(fields) > 0 {
		style, err := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true},
			Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
		})
		if err != nil {
			return "", err
		}
		last, _ := excelize.CoordinatesToCellName(len(fields), 1)
		if err := f.SetCellStyle(exportSheetName, "A1", last, style); err != nil {
			return "", err
		}
		if err := f.SetPanes(exportSheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
			return "", err
		}
	}

	row := 2
	for offset := 0; ; offset += exportPageSize {
		records, total, err := table.ListRecords(ctx, exportPageSize, offset)
		if err != nil {
			return "", fmt.Errorf("读取记录失败: %w", err)
		}
		for _, rec := range records {
			values := make([]interface{}, len(fields))
			for i, field := range fields {
				values[i] = exportCell(field, rec)
			}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetSheetRow(exportSheetName, cell, &values); err != nil {
				return "", err
			}
			row++
		}
		if len(records) == 0 || int64(offset+len(records)) >= total {
			break
		}
	}

	if err := f.Write(w); err != nil {
		return "", fmt.Errorf("写入xlsx失败: %w", err)
	}
	return table.Name(), nil
}

// exportCell 时间列转为本地时间字符串
func exportCell(field model.TableFieldMeta, rec model.TableRecord) interface{} {
	switch field.Type {
	case model.FieldCreatedTime:
		return rec.CreatedAt.Local().Format("2006-01-02 15:04:05")
	case model.FieldDateTime:
		if ms, ok := toInt64(rec.Fields[field.ID]); ok {
			return time.UnixMilli(ms).Local().Format("2006-01-02 15:04:05")
		}
	}
	v, ok := rec.Fields[field.ID]
	if !ok || v == nil {
		return ""
	}
	return v
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	}
	return 0, false
}
