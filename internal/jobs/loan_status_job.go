package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/veriloan/backend/internal/models"
	"github.com/veriloan/backend/internal/queue"
	"github.com/veriloan/backend/internal/services/notification"
	"gorm.io/gorm"
)

// LoanStatusJobPayload represents the payload for a loan status notification job
type LoanStatusJobPayload struct {
	LoanID uuid.UUID         `json:"loan_id"`
	Status models.LoanStatus `json:"status"`
}

// LoanStatusJob delivers loan status change notifications to applicants
type LoanStatusJob struct {
	db       *gorm.DB
	notifier *notification.Service
}

// NewLoanStatusJob creates a loan status notification job handler
func NewLoanStatusJob(db *gorm.DB, notifier *notification.Service) *LoanStatusJob {
	return &LoanStatusJob{db: db, notifier: notifier}
}

// RegisterLoanStatusJobHandlers registers the loan status job handler
func RegisterLoanStatusJobHandlers(q *queue.Queue, db *gorm.DB, notifier *notification.Service) {
	handler := NewLoanStatusJob(db, notifier)
	q.RegisterHandler(queue.JobTypeNotifyLoanStatus, func(ctx context.Context, job queue.Job) (interface{}, error) {
		if err := handler.ProcessLoanStatusNotification(ctx, job); err != nil {
			return nil, err
		}
		return map[string]interface{}{"status": "delivered"}, nil
	})
}

// ProcessLoanStatusNotification loads the loan and applicant and sends the
// email and SMS notifications. A stale payload (the loan moved on since
// enqueue) still notifies with the loan's current status.
func (j *LoanStatusJob) ProcessLoanStatusNotification(ctx context.Context, job queue.Job) error {
	var payload LoanStatusJobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal loan status job payload: %w", err)
	}

	var loan models.LoanApplication
	if err := j.db.First(&loan, "id = ?", payload.LoanID).Error; err != nil {
		return fmt.Errorf("failed to load loan %s: %w", payload.LoanID, err)
	}

	var user models.User
	if err := j.db.First(&user, "id = ?", loan.UserID).Error; err != nil {
		return fmt.Errorf("failed to load user %s: %w", loan.UserID, err)
	}

	if err := j.notifier.SendLoanStatusEmail(&user, &loan); err != nil {
		return fmt.Errorf("failed to send status email: %w", err)
	}

	// SMS is secondary; a provider failure should not retry the whole job
	// and re-send the email.
	if err := j.notifier.SendLoanStatusSMS(&user, &loan); err != nil {
		log.Printf("Failed to send status SMS for loan %s: %v", loan.ID, err)
	}

	return nil
}
