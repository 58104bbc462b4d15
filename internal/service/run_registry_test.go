package service

import (
	"testing"
	"time"

	"github.com/user/dataminer/internal/model"
)

func TestRunRegistry(t *testing.T) {
	svc, _ := newTestExtractionService(t, douyinDetailsAPI())
	runs := NewRunRegistry(svc, 10, time.Hour)

	id := runs.Start(&model.ExtractionRequest{
		APIKey: "k", ExtractType: model.ExtractDetails, URL: "https://www.douyin.com/video/42",
	})
	if id == "" {
		t.Fatal("empty run id")
	}
	runs.Wait()

	status, ok := runs.Get(id)
	if !ok {
		t.Fatal("run not found")
	}
	if status.State != model.RunDone || status.Progress != 100 {
		t.Errorf("status = %s %v", status.State, status.Progress)
	}
	if status.Response == nil || status.Response.ExtractedCount != 1 {
		t.Errorf("response = %+v", status.Response)
	}
	if status.URL != "https://www.douyin.com/video/42" || status.ExtractType != model.ExtractDetails {
		t.Errorf("status = %+v", status)
	}

	if _, ok := runs.Get("missing"); ok {
		t.Error("unknown id should not be found")
	}
}

func TestRunRegistryFailedRun(t *testing.T) {
	svc, _ := newTestExtractionService(t, douyinDetailsAPI())
	runs := NewRunRegistry(svc, 10, time.Hour)

	id := runs.Start(&model.ExtractionRequest{ExtractType: model.ExtractDetails, URL: "https://www.douyin.com/video/42"})
	runs.Wait()

	status, _ := runs.Get(id)
	if status.State != model.RunFailed || status.Message != "请输入有效的API Key" {
		t.Errorf("status = %s %q", status.State, status.Message)
	}
}
