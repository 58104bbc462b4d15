package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/user/dataminer/internal/model"
	"github.com/user/dataminer/internal/repository"
	"github.com/xuri/excelize/v2"
)

func TestExportXLSX(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryTableStore()
	id, err := store.AddTable(ctx, "导出测试", []model.FieldConfig{
		{Name: "标题", Type: model.FieldText},
		{Name: "点赞数", Type: model.FieldNumber},
		{Name: "发布时间", Type: model.FieldDateTime},
	})
	if err != nil {
		t.Fatal(err)
	}
	table, _ := store.GetTableByID(ctx, id)
	fields, _ := table.GetFieldMetaList(ctx)
	ids := map[string]string{}
	for _, f := range fields {
		ids[f.Name] = f.ID
	}

	published := time.Date(2024, 3, 5, 8, 30, 0, 0, time.Local)
	_, err = table.AddRecords(ctx, []model.RecordFields{
		{ids["标题"]: "第一条", ids["点赞数"]: float64(7), ids["发布时间"]: published.UnixMilli()},
		{ids["标题"]: "第二条"},
	})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	name, err := NewExportService(store).ExportXLSX(ctx, id, &buf)
	if err != nil {
		t.Fatalf("ExportXLSX: %v", err)
	}
	if name != "导出测试" {
		t.Errorf("name = %q", name)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows("数据")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %v", rows)
	}
	if rows[0][0] != "标题" || rows[0][1] != "点赞数" || rows[0][2] != "发布时间" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "第一条" || rows[1][1] != "7" || rows[1][2] != "2024-03-05 08:30:00" {
		t.Errorf("row 1 = %v", rows[1])
	}
	if rows[2][0] != "第二条" {
		t.Errorf("row 2 = %v", rows[2])
	}
}

func TestExportXLSXUnknownTable(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewExportService(repository.NewMemoryTableStore()).ExportXLSX(context.Background(), "missing", &buf)
	if err == nil {
		t.Fatal("expected error")
	}
}
