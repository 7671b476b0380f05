package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Status of a background job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusRetrying   Status = "retrying"
)

// Job is a persisted background task. Every scheduled run leaves a row, so
// ingestion outcomes stay observable instead of vanishing into a goroutine.
type Job struct {
	ID      uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Type    string         `gorm:"type:varchar(100);not null;index"`
	Payload datatypes.JSON `gorm:"type:jsonb"`

	Status     Status `gorm:"type:varchar(20);not null;default:'pending';index"`
	Attempts   int    `gorm:"not null;default:0"`
	MaxRetries int    `gorm:"not null;default:3"`

	ScheduledAt *time.Time `gorm:"index"`
	StartedAt   *time.Time
	CompletedAt *time.Time
	FailedAt    *time.Time

	Error  string         `gorm:"type:text"`
	Result datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Job) TableName() string {
	return "jobs"
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}

// Handler processes one job type. Handle returns the result payload to store
// on completion.
type Handler interface {
	Handle(ctx context.Context, job *Job) (result interface{}, err error)
	GetType() string
}
