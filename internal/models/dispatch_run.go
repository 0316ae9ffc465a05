package models

import "time"

const (
	RunStateRunning   = "running"
	RunStateSucceeded = "succeeded"
	RunStateFailed    = "failed"
)

// DispatchRun is the audit row kept for every action and query execution.
type DispatchRun struct {
	ID         string     `gorm:"primaryKey;column:id" json:"id"`
	Target     string     `gorm:"column:target;index" json:"target"`
	Discipline string     `gorm:"column:discipline" json:"discipline"`
	Params     string     `gorm:"column:params" json:"params"`
	State      string     `gorm:"column:state" json:"state"`
	ExitCode   *int       `gorm:"column:exit_code" json:"exit_code,omitempty"`
	Error      string     `gorm:"column:error" json:"error,omitempty"`
	RequestID  string     `gorm:"column:request_id" json:"request_id,omitempty"`
	StartedAt  time.Time  `gorm:"column:started_at;index" json:"started_at"`
	FinishedAt *time.Time `gorm:"column:finished_at" json:"finished_at,omitempty"`
}

func (DispatchRun) TableName() string {
	return "dispatch_runs"
}

// DispatchEvent is published when a run starts and when it finishes.
type DispatchEvent struct {
	RunID      string    `json:"run_id"`
	Host       string    `json:"host"`
	Target     string    `json:"target"`
	Discipline string    `json:"discipline"`
	State      string    `json:"state"`
	ExitCode   *int      `json:"exit_code,omitempty"`
	At         time.Time `json:"at"`
}
