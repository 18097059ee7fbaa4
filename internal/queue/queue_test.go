package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestPayload is a simple job payload for testing
type TestPayload struct {
	LoanID  string `json:"loan_id"`
	Message string `json:"message"`
}

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Job{}))
	return db
}

func TestEnqueueJob(t *testing.T) {
	db := setupTestDB(t)
	queue := NewQueue(db, nil)

	payload := TestPayload{LoanID: "loan-1", Message: "status changed"}
	jobID, err := queue.EnqueueJob(JobTypeNotifyLoanStatus, payload)
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	var job Job
	require.NoError(t, db.First(&job, "id = ?", jobID).Error)
	assert.Equal(t, JobTypeNotifyLoanStatus, job.Type)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 3, job.MaxRetries)

	var stored TestPayload
	require.NoError(t, json.Unmarshal(job.Payload, &stored))
	assert.Equal(t, payload, stored)
}

func TestGetJob(t *testing.T) {
	db := setupTestDB(t)
	queue := NewQueue(db, nil)

	jobID, err := queue.EnqueueJob(JobTypeNotifyLoanStatus, TestPayload{LoanID: "loan-2"})
	require.NoError(t, err)

	job, err := queue.GetJob(jobID)
	require.NoError(t, err)
	assert.Equal(t, jobID, job.ID.String())

	_, err = queue.GetJob(uuid.NewString())
	assert.Error(t, err)
}

func TestClaimNext(t *testing.T) {
	db := setupTestDB(t)
	queue := NewQueue(db, nil)

	// Empty queue yields no job and no error.
	job, err := queue.claimNext()
	require.NoError(t, err)
	assert.Nil(t, job)

	first, err := queue.EnqueueJob(JobTypeNotifyLoanStatus, TestPayload{LoanID: "older"})
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	_, err = queue.EnqueueJob(JobTypeNotifyLoanStatus, TestPayload{LoanID: "newer"})
	require.NoError(t, err)

	// Oldest job wins and moves to processing.
	claimed, err := queue.claimNext()
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, first, claimed.ID.String())
	assert.Equal(t, JobStatusProcessing, claimed.Status)

	// The claimed job is no longer claimable.
	second, err := queue.claimNext()
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.NotEqual(t, claimed.ID, second.ID)
}

func TestProcessJobSuccess(t *testing.T) {
	db := setupTestDB(t)
	queue := NewQueue(db, nil)

	var handled TestPayload
	queue.RegisterHandler(JobTypeNotifyLoanStatus, func(ctx context.Context, job Job) (interface{}, error) {
		require.NoError(t, json.Unmarshal(job.Payload, &handled))
		return map[string]string{"status": "delivered"}, nil
	})

	jobID, err := queue.EnqueueJob(JobTypeNotifyLoanStatus, TestPayload{LoanID: "loan-3"})
	require.NoError(t, err)

	claimed, err := queue.claimNext()
	require.NoError(t, err)
	queue.processJob(context.Background(), *claimed)

	assert.Equal(t, "loan-3", handled.LoanID)

	var job Job
	require.NoError(t, db.First(&job, "id = ?", jobID).Error)
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Contains(t, string(job.Result), "delivered")
	assert.Empty(t, job.Error)
}

func TestProcessJobRetriesThenFails(t *testing.T) {
	db := setupTestDB(t)
	queue := NewQueue(db, nil)

	attempts := 0
	queue.RegisterHandler(JobTypeNotifyLoanStatus, func(ctx context.Context, job Job) (interface{}, error) {
		attempts++
		return nil, errors.New("smtp unreachable")
	})

	jobID, err := queue.EnqueueJob(JobTypeNotifyLoanStatus, TestPayload{LoanID: "loan-4"})
	require.NoError(t, err)

	// First failure schedules a retry with backoff.
	claimed, err := queue.claimNext()
	require.NoError(t, err)
	queue.processJob(context.Background(), *claimed)

	var job Job
	require.NoError(t, db.First(&job, "id = ?", jobID).Error)
	assert.Equal(t, JobStatusRetrying, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	require.NotNil(t, job.NextRetry)
	assert.True(t, job.NextRetry.After(time.Now()))
	assert.Equal(t, "smtp unreachable", job.Error)

	// Exhaust the remaining retries.
	for i := 0; i < job.MaxRetries; i++ {
		require.NoError(t, db.First(&job, "id = ?", jobID).Error)
		queue.processJob(context.Background(), job)
	}

	require.NoError(t, db.First(&job, "id = ?", jobID).Error)
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, 1+job.MaxRetries, attempts)
}

func TestProcessJobNoHandler(t *testing.T) {
	db := setupTestDB(t)
	queue := NewQueue(db, nil)

	jobID, err := queue.EnqueueJob(JobType("unknown_type"), TestPayload{})
	require.NoError(t, err)

	claimed, err := queue.claimNext()
	require.NoError(t, err)
	queue.processJob(context.Background(), *claimed)

	var job Job
	require.NoError(t, db.First(&job, "id = ?", jobID).Error)
	assert.Equal(t, JobStatusFailed, job.Status)
}

func TestRequeueDueRetries(t *testing.T) {
	db := setupTestDB(t)
	queue := NewQueue(db, nil)

	due := time.Now().Add(-1 * time.Minute)
	notDue := time.Now().Add(10 * time.Minute)

	dueJob := Job{ID: uuid.New(), Type: JobTypeNotifyLoanStatus, Status: JobStatusRetrying, NextRetry: &due, MaxRetries: 3}
	futureJob := Job{ID: uuid.New(), Type: JobTypeNotifyLoanStatus, Status: JobStatusRetrying, NextRetry: &notDue, MaxRetries: 3}
	require.NoError(t, db.Create(&dueJob).Error)
	require.NoError(t, db.Create(&futureJob).Error)

	queue.requeueDueRetries()

	var refreshed Job
	require.NoError(t, db.First(&refreshed, "id = ?", dueJob.ID).Error)
	assert.Equal(t, JobStatusPending, refreshed.Status)

	var refreshedFuture Job
	require.NoError(t, db.First(&refreshedFuture, "id = ?", futureJob.ID).Error)
	assert.Equal(t, JobStatusRetrying, refreshedFuture.Status)
}

func TestCalculateBackoffGrowsAndCaps(t *testing.T) {
	previous := time.Duration(0)
	for attempt := 1; attempt <= 5; attempt++ {
		backoff := calculateBackoff(attempt)
		assert.Greater(t, backoff, previous/2, "attempt %d", attempt)
		assert.LessOrEqual(t, backoff, 30*time.Minute+6*time.Minute)
		previous = backoff
	}
}
