// Package queue is a database-backed background job queue used for
// best-effort work such as applicant notifications. Jobs are persisted in the
// jobs table, claimed by workers with a conditional update, and retried with
// exponential backoff.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeNotifyLoanStatus JobType = "notify_loan_status"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusRetrying   JobStatus = "retrying"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job represents a background job
type Job struct {
	ID         uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Type       JobType         `json:"type" gorm:"type:varchar(50);not null;index"`
	Payload    json.RawMessage `json:"payload"`
	Status     JobStatus       `json:"status" gorm:"type:varchar(20);not null;index"`
	RetryCount int             `json:"retry_count" gorm:"default:0"`
	MaxRetries int             `json:"max_retries" gorm:"default:3"`
	NextRetry  *time.Time      `json:"next_retry,omitempty"`
	Error      string          `json:"error,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// JobHandler is a function that processes a job
type JobHandler func(ctx context.Context, job Job) (interface{}, error)

// Queue persists and dispatches background jobs
type Queue struct {
	db       *gorm.DB
	redis    *RedisClient
	handlers map[JobType]JobHandler
}

// NewQueue creates a new queue. The redis client is optional; when present it
// is used to wake workers immediately instead of waiting for the next poll.
func NewQueue(db *gorm.DB, redis *RedisClient) *Queue {
	return &Queue{
		db:       db,
		redis:    redis,
		handlers: make(map[JobType]JobHandler),
	}
}

// RegisterHandler registers a handler for a job type
func (q *Queue) RegisterHandler(jobType JobType, handler JobHandler) {
	q.handlers[jobType] = handler
}

// EnqueueJob adds a job to the queue
func (q *Queue) EnqueueJob(jobType JobType, payload interface{}) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job payload: %w", err)
	}

	job := Job{
		ID:         uuid.New(),
		Type:       jobType,
		Payload:    payloadBytes,
		Status:     JobStatusPending,
		MaxRetries: 3,
	}
	if err := q.db.Create(&job).Error; err != nil {
		return "", fmt.Errorf("failed to enqueue job: %w", err)
	}

	if q.redis != nil {
		if err := q.redis.Push(job.ID.String()); err != nil {
			log.Printf("Failed to publish job wake-up for %s: %v", job.ID, err)
		}
	}

	return job.ID.String(), nil
}

// GetJob retrieves a job by ID
func (q *Queue) GetJob(jobID string) (*Job, error) {
	var job Job
	if err := q.db.First(&job, "id = ?", jobID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("job not found")
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// claimNext atomically claims the oldest pending job. Returns nil when the
// queue is empty or another worker won the claim.
func (q *Queue) claimNext() (*Job, error) {
	var job Job
	err := q.db.Where("status = ?", JobStatusPending).Order("created_at ASC").First(&job).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}

	res := q.db.Model(&Job{}).
		Where("id = ? AND status = ?", job.ID, JobStatusPending).
		Update("status", JobStatusProcessing)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}

	job.Status = JobStatusProcessing
	return &job, nil
}

// processJob runs the registered handler and settles the job's outcome
func (q *Queue) processJob(ctx context.Context, job Job) {
	handler, ok := q.handlers[job.Type]
	if !ok {
		log.Printf("No handler registered for job type %s", job.Type)
		q.settleFailure(job, fmt.Errorf("no handler for job type %s", job.Type))
		return
	}

	result, err := handler(ctx, job)
	if err != nil {
		q.scheduleRetry(job, err)
		return
	}

	var resultJSON []byte
	if result != nil {
		if resultJSON, err = json.Marshal(result); err != nil {
			log.Printf("Failed to marshal result for job %s: %v", job.ID, err)
		}
	}

	if err := q.db.Model(&Job{}).
		Where("id = ?", job.ID).
		Updates(map[string]interface{}{
			"status": JobStatusCompleted,
			"result": resultJSON,
			"error":  "",
		}).Error; err != nil {
		log.Printf("Failed to mark job %s completed: %v", job.ID, err)
	}
}

// scheduleRetry schedules a failed job for retry with exponential backoff, or
// fails it permanently once retries are exhausted
func (q *Queue) scheduleRetry(job Job, cause error) {
	retryCount := job.RetryCount + 1
	if retryCount > job.MaxRetries {
		log.Printf("Job %s exceeded %d retries: %v", job.ID, job.MaxRetries, cause)
		q.settleFailure(job, cause)
		return
	}

	nextRetry := time.Now().Add(calculateBackoff(retryCount))
	log.Printf("Scheduling retry %d/%d for job %s at %s: %v",
		retryCount, job.MaxRetries, job.ID, nextRetry.Format(time.RFC3339), cause)

	if err := q.db.Model(&Job{}).
		Where("id = ?", job.ID).
		Updates(map[string]interface{}{
			"status":      JobStatusRetrying,
			"retry_count": retryCount,
			"next_retry":  nextRetry,
			"error":       cause.Error(),
		}).Error; err != nil {
		log.Printf("Failed to schedule retry for job %s: %v", job.ID, err)
	}
}

func (q *Queue) settleFailure(job Job, cause error) {
	if err := q.db.Model(&Job{}).
		Where("id = ?", job.ID).
		Updates(map[string]interface{}{
			"status": JobStatusFailed,
			"error":  cause.Error(),
		}).Error; err != nil {
		log.Printf("Failed to mark job %s failed: %v", job.ID, err)
	}
}

// requeueDueRetries moves retrying jobs whose backoff has elapsed back to
// pending so workers pick them up
func (q *Queue) requeueDueRetries() {
	res := q.db.Model(&Job{}).
		Where("status = ? AND next_retry <= ?", JobStatusRetrying, time.Now()).
		Update("status", JobStatusPending)
	if res.Error != nil {
		log.Printf("Failed to requeue retrying jobs: %v", res.Error)
		return
	}
	if res.RowsAffected > 0 {
		log.Printf("Requeued %d jobs for retry", res.RowsAffected)
	}
}

// calculateBackoff returns the delay before retry attempt n: 30s base doubled
// per attempt, capped at 30m, with jitter to spread concurrent retries
func calculateBackoff(attempt int) time.Duration {
	interval := 30 * time.Second
	for i := 1; i < attempt; i++ {
		interval *= 2
		if interval > 30*time.Minute {
			interval = 30 * time.Minute
			break
		}
	}
	jitter := time.Duration(rand.Int63n(int64(interval / 5)))
	return interval + jitter
}
