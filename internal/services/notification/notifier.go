package notification

import (
	"log"

	"github.com/google/uuid"
	"github.com/veriloan/backend/internal/models"
	"github.com/veriloan/backend/internal/queue"
)

// QueueNotifier hands status changes to the background queue so delivery
// never blocks a verification flow
type QueueNotifier struct {
	queue *queue.Queue
}

// NewQueueNotifier creates a queue-backed notifier
func NewQueueNotifier(q *queue.Queue) *QueueNotifier {
	return &QueueNotifier{queue: q}
}

// LoanStatusChanged enqueues a notification job. Enqueue failures are logged
// and swallowed: notifications are best effort.
func (n *QueueNotifier) LoanStatusChanged(loan *models.LoanApplication) {
	payload := struct {
		LoanID uuid.UUID         `json:"loan_id"`
		Status models.LoanStatus `json:"status"`
	}{
		LoanID: loan.ID,
		Status: loan.Status,
	}

	if _, err := n.queue.EnqueueJob(queue.JobTypeNotifyLoanStatus, payload); err != nil {
		log.Printf("Failed to enqueue status notification for loan %s: %v", loan.ID, err)
	}
}
