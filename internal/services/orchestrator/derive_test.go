package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/veriloan/backend/internal/models"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name         string
		docs         bool
		video        bool
		wantStatus   models.LoanStatus
		wantProgress int
	}{
		{"nothing verified", false, false, models.LoanStatusPending, 10},
		{"documents only", true, false, models.LoanStatusDocumentsRequired, 40},
		{"interview only", false, true, models.LoanStatusDocumentsRequired, 40},
		{"both verified", true, true, models.LoanStatusProcessing, 70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, progress := DeriveStatus(tt.docs, tt.video)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantProgress, progress)
		})
	}
}

func TestApplyDerived(t *testing.T) {
	loan := &models.LoanApplication{
		Status:                  models.LoanStatusPending,
		ApplicationProgress:     10,
		DocumentsSubmitted:      true,
		VideoInterviewCompleted: true,
	}

	ApplyDerived(loan)
	assert.Equal(t, models.LoanStatusProcessing, loan.Status)
	assert.Equal(t, 70, loan.ApplicationProgress)
}

func TestApplyDerivedTerminalIsSticky(t *testing.T) {
	for _, status := range []models.LoanStatus{models.LoanStatusApproved, models.LoanStatusRejected} {
		loan := &models.LoanApplication{
			Status:                  status,
			ApplicationProgress:     70,
			DocumentsSubmitted:      false,
			VideoInterviewCompleted: false,
		}

		ApplyDerived(loan)
		assert.Equal(t, status, loan.Status)
		assert.Equal(t, 100, loan.ApplicationProgress)
	}
}

func TestRequiredDocuments(t *testing.T) {
	for _, loanType := range []models.LoanType{
		models.LoanTypePersonal, models.LoanTypeHome, models.LoanTypeCar,
		models.LoanTypeEducation, models.LoanTypeBusiness, models.LoanTypeGold,
	} {
		required := RequiredDocuments(loanType)
		assert.Contains(t, required, models.DocumentTypeAadhaar, "loan type %s", loanType)
		assert.Contains(t, required, models.DocumentTypePAN, "loan type %s", loanType)
	}

	assert.Contains(t, RequiredDocuments(models.LoanTypeHome), models.DocumentTypeProperty)
	assert.Contains(t, RequiredDocuments(models.LoanTypeBusiness), models.DocumentTypeBusinessProof)
	assert.Contains(t, RequiredDocuments(models.LoanTypeBusiness), models.DocumentTypeBankStatement)
	assert.Contains(t, RequiredDocuments(models.LoanTypePersonal), models.DocumentTypeSalarySlip)
}
