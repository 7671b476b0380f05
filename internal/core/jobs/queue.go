package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Queue stores and claims jobs in Postgres.
type Queue struct {
	db *gorm.DB
}

func NewQueue(db *gorm.DB) *Queue {
	return &Queue{db: db}
}

// Enqueue persists a new pending job.
func (q *Queue) Enqueue(ctx context.Context, jobType string, payload interface{}, maxRetries int) (*Job, error) {
	if maxRetries <= 0 {
		maxRetries = 3
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("serialize payload: %w", err)
	}

	job := &Job{
		Type:       jobType,
		Payload:    payloadJSON,
		Status:     StatusPending,
		MaxRetries: maxRetries,
	}
	if err := q.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}

// Dequeue claims the next runnable job, oldest first. Returns (nil, nil) when
// the queue is empty. The claim happens in a transaction so two workers never
// take the same job.
func (q *Queue) Dequeue(ctx context.Context) (*Job, error) {
	var job Job

	err := q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.
			Where("status IN ?", []Status{StatusPending, StatusRetrying}).
			Where("scheduled_at IS NULL OR scheduled_at <= ?", time.Now()).
			Order("created_at ASC").
			Limit(1).
			First(&job).Error
		if err != nil {
			return err
		}

		now := time.Now()
		job.Status = StatusProcessing
		job.StartedAt = &now
		job.Attempts++
		return tx.Save(&job).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("dequeue job: %w", err)
	}
	return &job, nil
}

// MarkCompleted records a successful run with its result payload.
func (q *Queue) MarkCompleted(ctx context.Context, jobID uuid.UUID, result interface{}) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":       StatusCompleted,
		"completed_at": now,
	}
	if result != nil {
		resultJSON, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("serialize result: %w", err)
		}
		updates["result"] = resultJSON
	}
	return q.db.WithContext(ctx).Model(&Job{}).Where("id = ?", jobID).Updates(updates).Error
}

// MarkFailed records a failed run. Jobs with remaining attempts are
// rescheduled with exponential backoff; exhausted jobs go to failed.
func (q *Queue) MarkFailed(ctx context.Context, jobID uuid.UUID, runErr error) error {
	var job Job
	if err := q.db.WithContext(ctx).First(&job, "id = ?", jobID).Error; err != nil {
		return fmt.Errorf("find job: %w", err)
	}

	now := time.Now()
	job.Error = runErr.Error()
	job.FailedAt = &now

	if job.Attempts < job.MaxRetries {
		scheduleAt := now.Add(backoff(job.Attempts))
		job.Status = StatusRetrying
		job.ScheduledAt = &scheduleAt
	} else {
		job.Status = StatusFailed
	}

	return q.db.WithContext(ctx).Save(&job).Error
}

// ListRecent returns the latest jobs for operator inspection.
func (q *Queue) ListRecent(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []Job
	err := q.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return out, nil
}

func backoff(attempts int) time.Duration {
	d := time.Duration(1<<uint(attempts)) * 30 * time.Second
	if d > 30*time.Minute {
		d = 30 * time.Minute
	}
	return d
}
