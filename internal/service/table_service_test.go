package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/user/dataminer/internal/model"
	"github.com/user/dataminer/internal/repository"
)

type namer string

func (n namer) TypeDisplayName([]*model.FlatRecord) string { return string(n) }

func record(kv ...interface{}) *model.FlatRecord {
	rec := model.NewFlatRecord()
	for i := 0; i+1 < len(kv); i += 2 {
		rec.Set(kv[i].(string), kv[i+1])
	}
	return rec
}

func TestSanitizeFieldName(t *testing.T) {
	cases := map[string]string{
		"点赞数":           "点赞数",
		"视频分辨率_1080p":   "视频分辨率_1080p",
		" 作者 (昵称) ":     "作者昵称",
		"1st":           "field_1st",
		"!!!":           "field",
		"IP归属地":         "IP归属地",
		"a-b.c":         "abc",
	}
	for in, want := range cases {
		got := SanitizeFieldName(in)
		if got != want {
			t.Errorf("SanitizeFieldName(%q) = %q, want %q", in, got, want)
		}
		if again := SanitizeFieldName(got); again != got {
			t.Errorf("not idempotent: %q -> %q", got, again)
		}
	}
}

func TestInferFieldType(t *testing.T) {
	cases := []struct {
		value interface{}
		name  string
		want  model.FieldType
	}{
		{int64(1700000000000), "提取时间", model.FieldCreatedTime},
		{int64(5), "点赞数", model.FieldNumber},
		{3.5, "平均评分", model.FieldNumber},
		{true, "是否直播", model.FieldCheckbox},
		{"https://example.com/a.jpg", "封面", model.FieldURL},
		{"2024-01-02 03:04:05", "发布时间", model.FieldDateTime},
		{"2024年1月2日", "发布时间", model.FieldDateTime},
		{"2025/1/25 下午6:47:05", "发布时间", model.FieldDateTime},
		{"12:30", "时间", model.FieldText},
		{"12345", "ID", model.FieldNumber},
		{"-3.25", "数值", model.FieldNumber},
		{"hello", "描述", model.FieldText},
		{"", "空", model.FieldText},
		{nil, "空值", model.FieldText},
	}
	for _, tc := range cases {
		if got := InferFieldType(tc.value, tc.name); got != tc.want {
			t.Errorf("InferFieldType(%v, %q) = %s, want %s", tc.value, tc.name, got, tc.want)
		}
	}
}

func TestConvertToTableFields(t *testing.T) {
	fields := []model.TableFieldMeta{
		{ID: "f1", Name: "标题", Type: model.FieldText},
		{ID: "f2", Name: "点赞数", Type: model.FieldNumber},
		{ID: "f3", Name: "发布时间", Type: model.FieldDateTime},
		{ID: "f4", Name: "提取时间", Type: model.FieldCreatedTime},
		{ID: "f5", Name: "大数", Type: model.FieldNumber},
		{ID: "f6", Name: "秒时间", Type: model.FieldDateTime},
		{ID: "f7", Name: "评分", Type: model.FieldNumber},
	}
	rec := record(
		"标题", "  hi  ",
		"点赞数", "42",
		"发布时间", "2024-01-02 03:04:05",
		"提取时间", int64(1700000000000),
		"大数", int64(1)<<60,
		"秒时间", int64(1700000000),
		"评分", 0.0/zero(),
		"未知列", "x",
		"空", "",
	)

	out := ConvertToTableFields(rec, fields)
	if out["f1"] != "hi" {
		t.Errorf("text = %v", out["f1"])
	}
	if out["f2"] != float64(42) {
		t.Errorf("numeric string = %v (%T)", out["f2"], out["f2"])
	}
	want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local).UnixMilli()
	if out["f3"] != want {
		t.Errorf("datetime = %v, want %d", out["f3"], want)
	}
	if _, ok := out["f4"]; ok {
		t.Error("created time column must not be written")
	}
	if out["f5"] != "1152921504606846976" {
		t.Errorf("unsafe integer = %v", out["f5"])
	}
	if out["f6"] != int64(1700000000000) {
		t.Errorf("seconds timestamp = %v", out["f6"])
	}
	if _, ok := out["f7"]; ok {
		t.Error("NaN must be skipped")
	}
	if len(out) != 5 {
		t.Errorf("fields = %v", out)
	}
}

func zero() float64 { return 0 }

func newTestTableService(store *repository.MemoryTableStore) *TableService {
	return NewTableService(store, 2).WithClock(func() time.Time {
		return time.Date(2024, 3, 5, 7, 8, 9, 0, time.Local)
	})
}

func TestUpdateTableCreatesTable(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryTableStore()
	svc := newTestTableService(store)

	records := []*model.FlatRecord{
		record("标题", "a", "点赞数", int64(1), "链接", "https://x.com/1", "提取时间", int64(1)),
		record("标题", "b", "点赞数", int64(2), "链接", "https://x.com/2", "提取时间", int64(1)),
		record("标题", "c", "点赞数", int64(3), "链接", "https://x.com/3", "提取时间", int64(1)),
	}
	var progress []float64
	result := svc.UpdateTable(ctx, records, TableUpdateOptions{
		TableOptions: model.TableOptions{CreateNewTable: true},
		OnProgress:   func(p float64, _ string) { progress = append(progress, p) },
	}, namer("抖音详情"))

	if !result.Success || result.RecordCount != 3 {
		t.Fatalf("result = %+v", result)
	}
	if result.TableName != "抖音详情_0305070809" {
		t.Errorf("TableName = %q", result.TableName)
	}
	if result.Message != "成功添加 3 条记录到表格" {
		t.Errorf("Message = %q", result.Message)
	}

	table, err := store.GetTableByID(ctx, result.TableID)
	if err != nil {
		t.Fatal(err)
	}
	fields, _ := table.GetFieldMetaList(ctx)
	types := map[string]model.FieldType{}
	for _, f := range fields {
		types[f.Name] = f.Type
	}
	if types["点赞数"] != model.FieldNumber || types["链接"] != model.FieldURL || types["提取时间"] != model.FieldCreatedTime {
		t.Errorf("field types = %v", types)
	}

	rows, total, _ := table.ListRecords(ctx, 10, 0)
	if total != 3 || len(rows) != 3 {
		t.Errorf("rows = %d/%d", len(rows), total)
	}

	for i := 1; i < len(progress); i++ {
		if progress[i] < progress[i-1] {
			t.Errorf("progress went backwards: %v", progress)
			break
		}
	}
	if progress[len(progress)-1] != 100 {
		t.Errorf("last progress = %v", progress[len(progress)-1])
	}
}

func TestUpdateTableEmptyRecords(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryTableStore()
	svc := newTestTableService(store)

	result := svc.UpdateTable(ctx, nil, TableUpdateOptions{}, namer("快手评论"))
	if !result.Success || result.RecordCount != 0 {
		t.Fatalf("result = %+v", result)
	}
	table, err := store.GetTableByID(ctx, result.TableID)
	if err != nil {
		t.Fatal(err)
	}
	if fields, _ := table.GetFieldMetaList(ctx); len(fields) != 0 {
		t.Errorf("fields = %v, want none", fields)
	}
}

func TestUpdateTableKeepsExistingColumns(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryTableStore()
	id, err := store.AddTable(ctx, "已有表格", []model.FieldConfig{
		{Name: "旧列", Type: model.FieldText},
		{Name: "标题", Type: model.FieldText},
	})
	if err != nil {
		t.Fatal(err)
	}

	svc := newTestTableService(store)
	result := svc.UpdateTable(ctx, []*model.FlatRecord{record("标题", "a", "新列", int64(1))},
		TableUpdateOptions{TableOptions: model.TableOptions{TableID: id}}, nil)
	if !result.Success || result.TableName != "已有表格" {
		t.Fatalf("result = %+v", result)
	}

	table, _ := store.GetTableByID(ctx, id)
	fields, _ := table.GetFieldMetaList(ctx)
	var names []string
	for _, f := range fields {
		names = append(names, f.Name)
	}
	if strings.Join(names, ",") != "旧列,标题,新列" {
		t.Errorf("fields = %v", names)
	}
}

func TestUpdateTableFallsBackToSingleRecords(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryTableStore()
	svc := newTestTableService(store)

	// 第一条决定列类型为数字，第二条的值无法写入数字列
	records := []*model.FlatRecord{
		record("标题", "a", "数量", int64(1)),
		record("标题", "b", "数量", "很多"),
		record("标题", "c", "数量", int64(3)),
	}
	result := svc.UpdateTable(ctx, records, TableUpdateOptions{}, namer("测试"))
	if !result.Success {
		t.Fatalf("result = %+v", result)
	}
	if result.RecordCount != 2 {
		t.Errorf("RecordCount = %d, want 2", result.RecordCount)
	}
	table, _ := store.GetTableByID(ctx, result.TableID)
	if _, total, _ := table.ListRecords(ctx, 10, 0); total != 2 {
		t.Errorf("stored rows = %d", total)
	}
}

func TestUpdateTableUnknownTable(t *testing.T) {
	svc := newTestTableService(repository.NewMemoryTableStore())
	result := svc.UpdateTable(context.Background(), []*model.FlatRecord{record("a", "b")},
		TableUpdateOptions{TableOptions: model.TableOptions{TableID: "missing"}}, nil)
	if result.Success || !strings.Contains(result.Message, "表格不存在") {
		t.Errorf("result = %+v", result)
	}
}
