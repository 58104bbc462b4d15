package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/user/dataminer/internal/config"
)

func fakeRemote(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/api/dy/video/info" {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "code": 400, "message": "unknown endpoint"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "code": 200, "data": map[string]interface{}{
			"aweme_detail": map[string]interface{}{
				"aweme_id": "1",
				"desc":     "命令行测试",
				"author":   map[string]interface{}{"nickname": "作者"},
			},
		}})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunWritesSummaryAndXLSX(t *testing.T) {
	srv := fakeRemote(t)
	xlsx := filepath.Join(t.TempDir(), "out.xlsx")
	opts := &options{
		APIKey:     "k",
		Type:       "details",
		URLs:       []string{"https://www.douyin.com/video/1"},
		Range:      "1",
		APIBaseURL: srv.URL,
		XLSX:       xlsx,
		Quiet:      true,
	}

	var stdout, stderr bytes.Buffer
	ok, err := run(context.Background(), opts, &config.Config{}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !ok {
		t.Fatalf("run failed: %s", stdout.String())
	}
	out := stdout.String()
	for _, want := range []string{"成功提取 1 条数据并更新到表格", "平台: 抖音", "写入: 1 条", "已导出"} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout missing %q:\n%s", want, out)
		}
	}
	if info, err := os.Stat(xlsx); err != nil || info.Size() == 0 {
		t.Errorf("xlsx not written: %v", err)
	}
}

func TestRunJSONAndFailure(t *testing.T) {
	srv := fakeRemote(t)
	opts := &options{
		APIKey:     "k",
		Type:       "comments",
		URLs:       []string{"https://www.douyin.com/video/1"},
		Range:      "1",
		APIBaseURL: srv.URL,
		JSON:       true,
	}

	var stdout, stderr bytes.Buffer
	ok, err := run(context.Background(), opts, &config.Config{}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if ok {
		t.Fatal("expected failed extraction")
	}
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout.String())
	}
	if resp.Success || resp.Message == "" {
		t.Errorf("resp = %+v", resp)
	}
	if !strings.Contains(stderr.String(), "%]") {
		t.Errorf("progress not printed: %q", stderr.String())
	}
}

func TestRunRejectsBadArguments(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if _, err := run(context.Background(), &options{Range: "lots"}, &config.Config{}, &stdout, &stderr); err == nil {
		t.Error("bad range accepted")
	}
	if _, err := run(context.Background(), &options{Range: "1", StartDate: "someday"}, &config.Config{}, &stdout, &stderr); err == nil {
		t.Error("bad start date accepted")
	}
}
