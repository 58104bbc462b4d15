package service

import (
	"testing"
	"time"

	"github.com/user/dataminer/internal/model"
	"github.com/user/dataminer/internal/repository"
)

func TestCleanupServiceRunCleanup(t *testing.T) {
	svc := NewExtractionService(NewFactory(Deps{}), NewTableService(repository.NewMemoryTableStore(), 0), NewExtractionCache(time.Minute))
	runs := NewRunRegistry(svc, 10, 10*time.Millisecond)
	cache := NewExtractionCache(10 * time.Millisecond)

	// 未初始化的服务会立即失败
	id := runs.Start(&model.ExtractionRequest{APIKey: "k", ExtractType: model.ExtractDetails, URL: "https://www.douyin.com/video/1"})
	runs.Wait()
	cache.Set("k", successResult("a")())
	if cache.Len() != 1 {
		t.Fatalf("cache len = %d", cache.Len())
	}

	time.Sleep(30 * time.Millisecond)
	cleanup := NewCleanupService(runs, cache, time.Hour)
	cleanup.RunCleanup()

	if _, ok := runs.Get(id); ok {
		t.Error("expired run should be purged")
	}
	if cache.Len() != 0 {
		t.Errorf("cache len = %d after cleanup", cache.Len())
	}
}

func TestCleanupServiceStop(t *testing.T) {
	cleanup := NewCleanupService(nil, nil, 0)
	if cleanup.interval != 10*time.Minute {
		t.Errorf("default interval = %v", cleanup.interval)
	}
	cleanup.Start()
	cleanup.Stop()
	cleanup.Stop()
}
