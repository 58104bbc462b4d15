package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/user/dataminer/internal/model"
	"github.com/user/dataminer/internal/utils"
)

// RunRegistry 后台执行的提取任务，按 LRU 保留最近的任务状态
type RunRegistry struct {
	service *ExtractionService
	timeout time.Duration

	mu   sync.Mutex
	runs *utils.LRUCache[*model.RunStatus]
	wg   sync.WaitGroup
}

// NewRunRegistry size 为保留的任务数，ttl 为状态保留时长
func NewRunRegistry(service *ExtractionService, size int, ttl time.Duration) *RunRegistry {
	return &RunRegistry{
		service: service,
		timeout: 30 * time.Minute,
		runs:    utils.NewLRUCache[*model.RunStatus](size, ttl),
	}
}

// Start 在后台启动一次提取，返回任务 ID
func (r *RunRegistry) Start(req *model.ExtractionRequest) string {
	id := uuid.NewString()
	now := time.Now()
	r.mu.Lock()
	r.runs.Set(id, &model.RunStatus{
		ID:          id,
		State:       model.RunIdle,
		ExtractType: req.ExtractType,
		URL:         req.URL,
		StartedAt:   now,
		UpdatedAt:   now,
	})
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("[RunRegistry] 任务 %s 异常退出: %v", id, rec)
				r.update(id, func(s *model.RunStatus) {
					s.State = model.RunFailed
					s.Message = "任务异常退出"
				})
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		resp := r.service.ExtractAndUpdate(ctx, req, RunListener{
			OnProgress: func(p float64, msg string) {
				r.update(id, func(s *model.RunStatus) {
					s.Progress = p
					s.Message = msg
				})
			},
			OnState: func(state model.RunState) {
				r.update(id, func(s *model.RunStatus) { s.State = state })
			},
		})

		r.update(id, func(s *model.RunStatus) {
			s.Response = resp
			s.Message = resp.Message
			if resp.Success {
				s.State = model.RunDone
			} else {
				s.State = model.RunFailed
			}
		})
		log.Printf("[RunRegistry] 任务 %s 完成: %s", id, resp.Message)
	}()
	return id
}

func (r *RunRegistry) update(id string, fn func(s *model.RunStatus)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.runs.Get(id)
	if !ok {
		return
	}
	fn(s)
	s.UpdatedAt = time.Now()
}

// Get 任务状态的副本
func (r *RunRegistry) Get(id string) (*model.RunStatus, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.runs.Get(id)
	if !ok {
		return nil, false
	}
	c := *s
	return &c, true
}

// Wait 等待所有后台任务结束
func (r *RunRegistry) Wait() {
	r.wg.Wait()
}

// Purge 清理过期的任务状态
func (r *RunRegistry) Purge() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs.RemoveExpired()
}
