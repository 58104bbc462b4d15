package service

import (
	"log"
	"sync"
	"time"
)

// CleanupService 定时清理过期的任务状态和缓存
type CleanupService struct {
	runs     *RunRegistry
	cache    *ExtractionCache
	interval time.Duration

	stop chan struct{}
	once sync.Once
}

// NewCleanupService 创建清理服务
func NewCleanupService(runs *RunRegistry, cache *ExtractionCache, interval time.Duration) *CleanupService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &CleanupService{runs: runs, cache: cache, interval: interval, stop: make(chan struct{})}
}

// Start 启动定时清理任务
func (s *CleanupService) Start() {
	ticker := time.NewTicker(s.interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.RunCleanup()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop 停止定时任务
func (s *CleanupService) Stop() {
	s.once.Do(func() { close(s.stop) })
}

// RunCleanup 执行一次清理
func (s *CleanupService) RunCleanup() {
	if s.runs != nil {
		if n := s.runs.Purge(); n > 0 {
			log.Printf("[CleanupService] 已清理 %d 个过期任务", n)
		}
	}
	if s.cache != nil {
		s.cache.store.DeleteExpired()
	}
}
