package jobs

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the status of a job execution
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// JobExecution tracks the execution history of background jobs
type JobExecution struct {
	ID               uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	JobName          string     `gorm:"size:100;not null;index:idx_job_started,priority:1" json:"job_name"`
	Status           JobStatus  `gorm:"size:20;not null;default:running" json:"status"`
	StartedAt        time.Time  `gorm:"not null;index:idx_job_started,priority:2" json:"started_at"`
	CompletedAt      *time.Time `gorm:"" json:"completed_at"`
	DurationMs       int64      `gorm:"default:0" json:"duration_ms"`
	RecordsProcessed int64      `gorm:"default:0" json:"records_processed"`
	Error            string     `gorm:"type:text" json:"error,omitempty"`
}

// TableName returns the table name for JobExecution
func (JobExecution) TableName() string {
	return "job_executions"
}

// JobDefinition defines a scheduled job
type JobDefinition struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Schedule    string        `json:"schedule"`
	Timeout     time.Duration `json:"-"`
	Handler     JobHandler    `json:"-"`
	Enabled     bool          `json:"enabled"`
}

// JobHandler is the function signature for job handlers. It returns the
// number of records it processed so the execution record can report it.
type JobHandler func() (int64, error)
