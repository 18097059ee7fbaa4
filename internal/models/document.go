package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentType represents the type of KYC document uploaded for a loan
type DocumentType string

const (
	DocumentTypeAadhaar         DocumentType = "Aadhaar Card"
	DocumentTypePAN             DocumentType = "PAN Card"
	DocumentTypeSalarySlip      DocumentType = "Salary Slip"
	DocumentTypeBankStatement   DocumentType = "Bank Statement"
	DocumentTypeEmploymentProof DocumentType = "Employment Proof"
	DocumentTypeAddressProof    DocumentType = "Address Proof"
	DocumentTypePhotoID         DocumentType = "Photo ID"
	DocumentTypeIncomeTaxReturn DocumentType = "Income Tax Return"
	DocumentTypeProperty        DocumentType = "Property Document"
	DocumentTypeBusinessProof   DocumentType = "Business Proof"
)

// DocumentTypes lists every accepted document type
var DocumentTypes = []DocumentType{
	DocumentTypeAadhaar,
	DocumentTypePAN,
	DocumentTypeSalarySlip,
	DocumentTypeBankStatement,
	DocumentTypeEmploymentProof,
	DocumentTypeAddressProof,
	DocumentTypePhotoID,
	DocumentTypeIncomeTaxReturn,
	DocumentTypeProperty,
	DocumentTypeBusinessProof,
}

// ValidDocumentType reports whether s is an accepted document type
func ValidDocumentType(s string) bool {
	for _, t := range DocumentTypes {
		if string(t) == s {
			return true
		}
	}
	return false
}

// DocumentStatus represents the verification state of an uploaded document
type DocumentStatus string

const (
	DocumentStatusPending            DocumentStatus = "pending"
	DocumentStatusVerified           DocumentStatus = "verified"
	DocumentStatusRejected           DocumentStatus = "rejected"
	DocumentStatusNeedsClarification DocumentStatus = "needs_clarification"
)

// ValidDocumentStatus reports whether s is a known verification status
func ValidDocumentStatus(s string) bool {
	switch DocumentStatus(s) {
	case DocumentStatusPending, DocumentStatusVerified,
		DocumentStatusRejected, DocumentStatusNeedsClarification:
		return true
	}
	return false
}

// DocumentRecord is one uploaded KYC artifact and its verification outcome.
// Replacing a rejected document creates a new record; the prior one is kept for
// audit with IsActive=false. The "current" document for a (loan, type) pair is
// the latest active record.
type DocumentRecord struct {
	ID                 uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             uuid.UUID         `gorm:"type:uuid;not null;index" json:"user_id"`
	User               User              `gorm:"foreignKey:UserID" json:"-"`
	LoanID             *uuid.UUID        `gorm:"type:uuid;index" json:"loan_id,omitempty"`
	DocumentType       DocumentType      `gorm:"type:varchar(30);not null;index" json:"document_type"`
	DocumentNumber     string            `gorm:"type:varchar(100);not null" json:"document_number"`
	FileRef            string            `gorm:"type:text;not null" json:"file_ref"`
	FileType           string            `gorm:"type:varchar(100)" json:"file_type"`
	VerificationStatus DocumentStatus    `gorm:"type:varchar(25);not null;default:'pending'" json:"verification_status"`
	ConfidenceScore    *float64          `json:"confidence_score,omitempty"`
	ExtractedFields    map[string]string `gorm:"serializer:json" json:"extracted_fields,omitempty"`
	VerifiedAt         *time.Time        `json:"verified_at,omitempty"`
	VerifiedBy         *uuid.UUID        `gorm:"type:uuid" json:"verified_by,omitempty"`
	Notes              string            `gorm:"type:text" json:"notes,omitempty"`
	IsActive           bool              `gorm:"default:true;index" json:"is_active"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
	DeletedAt          gorm.DeletedAt    `gorm:"index" json:"-"`
}

// BeforeCreate assigns an ID when one was not set by the caller
func (d *DocumentRecord) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
