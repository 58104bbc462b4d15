package model

import "time"

// RunState 提取流程所处的阶段
type RunState string

const (
	RunIdle       RunState = "idle"
	RunDetecting  RunState = "detecting"
	RunExtracting RunState = "extracting"
	RunSyncing    RunState = "syncing"
	RunDone       RunState = "done"
	RunFailed     RunState = "failed"
)

// Finished 是否已结束
func (s RunState) Finished() bool {
	return s == RunDone || s == RunFailed
}

// RunStatus 异步提取任务的状态快照
type RunStatus struct {
	ID          string              `json:"id"`
	State       RunState            `json:"state"`
	Progress    float64             `json:"progress"`
	Message     string              `json:"message"`
	ExtractType ExtractType         `json:"extractType"`
	URL         string              `json:"url"`
	Response    *ExtractionResponse `json:"response,omitempty"`
	StartedAt   time.Time           `json:"startedAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}
