package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoanType represents the product a borrower applies for
type LoanType string

const (
	LoanTypePersonal  LoanType = "Personal Loan"
	LoanTypeHome      LoanType = "Home Loan"
	LoanTypeCar       LoanType = "Car Loan"
	LoanTypeEducation LoanType = "Education Loan"
	LoanTypeBusiness  LoanType = "Business Loan"
	LoanTypeGold      LoanType = "Gold Loan"
)

// LoanTypes lists every supported loan product
var LoanTypes = []LoanType{
	LoanTypePersonal,
	LoanTypeHome,
	LoanTypeCar,
	LoanTypeEducation,
	LoanTypeBusiness,
	LoanTypeGold,
}

// ValidLoanType reports whether s is a supported loan product
func ValidLoanType(s string) bool {
	for _, t := range LoanTypes {
		if string(t) == s {
			return true
		}
	}
	return false
}

// LoanStatus represents the aggregate status of a loan application
type LoanStatus string

const (
	LoanStatusPending           LoanStatus = "pending"
	LoanStatusDocumentsRequired LoanStatus = "documents_required"
	LoanStatusProcessing        LoanStatus = "processing"
	LoanStatusApproved          LoanStatus = "approved"
	LoanStatusRejected          LoanStatus = "rejected"
)

// ValidLoanStatus reports whether s is a known loan status
func ValidLoanStatus(s string) bool {
	switch LoanStatus(s) {
	case LoanStatusPending, LoanStatusDocumentsRequired, LoanStatusProcessing,
		LoanStatusApproved, LoanStatusRejected:
		return true
	}
	return false
}

// LoanApplication is the aggregate borrower request being processed toward a decision.
// Status and ApplicationProgress are derived by the orchestrator from the two
// verification flags, except for terminal admin decisions which are sticky.
type LoanApplication struct {
	ID                      uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Reference               string         `gorm:"type:varchar(40);uniqueIndex" json:"reference"`
	UserID                  uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User                    User           `gorm:"foreignKey:UserID" json:"-"`
	LoanType                LoanType       `gorm:"type:varchar(30);not null" json:"loan_type"`
	Amount                  float64        `gorm:"not null" json:"amount"`
	Tenure                  int            `gorm:"not null" json:"tenure"` // months
	InterestRate            float64        `gorm:"not null" json:"interest_rate"`
	EMI                     float64        `json:"emi"`
	Purpose                 string         `gorm:"type:text;not null" json:"purpose"`
	Status                  LoanStatus     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	StatusRemarks           string         `gorm:"type:text" json:"status_remarks,omitempty"`
	StatusUpdatedAt         *time.Time     `json:"status_updated_at,omitempty"`
	StatusUpdatedBy         *uuid.UUID     `gorm:"type:uuid" json:"status_updated_by,omitempty"`
	ApplicationProgress     int            `gorm:"default:10" json:"application_progress"`
	DocumentsSubmitted      bool           `gorm:"default:false" json:"documents_submitted"`
	VideoInterviewCompleted bool           `gorm:"default:false" json:"video_interview_completed"`
	CreatedAt               time.Time      `json:"created_at"`
	UpdatedAt               time.Time      `json:"updated_at"`
	DeletedAt               gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns an ID when one was not set by the caller
func (l *LoanApplication) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// HasTerminalStatus reports whether an admin decision has closed the application.
// Terminal statuses are sticky: derived recomputation must not overwrite them.
func (l *LoanApplication) HasTerminalStatus() bool {
	return l.Status == LoanStatusApproved || l.Status == LoanStatusRejected
}
