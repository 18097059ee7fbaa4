package jobs

import (
	"github.com/veriloan/backend/internal/queue"
	"github.com/veriloan/backend/internal/services/notification"
	"gorm.io/gorm"
)

// RegisterAllJobHandlers registers all job handlers with the queue
func RegisterAllJobHandlers(q *queue.Queue, db *gorm.DB, notifier *notification.Service) {
	RegisterLoanStatusJobHandlers(q, db, notifier)
}
