package orchestrator

import "github.com/veriloan/backend/internal/models"

// Application progress milestones
const (
	progressStarted      = 10
	progressOneFlowDone  = 40
	progressBothFlowDone = 70
	progressDecided      = 100
)

// DeriveStatus returns the derived status and progress for a loan given its
// two verification flags. It covers the non-terminal case only; terminal admin
// decisions are handled by ApplyDerived.
func DeriveStatus(documentsSubmitted, videoInterviewCompleted bool) (models.LoanStatus, int) {
	switch {
	case documentsSubmitted && videoInterviewCompleted:
		return models.LoanStatusProcessing, progressBothFlowDone
	case documentsSubmitted || videoInterviewCompleted:
		return models.LoanStatusDocumentsRequired, progressOneFlowDone
	default:
		return models.LoanStatusPending, progressStarted
	}
}

// ApplyDerived recomputes Status and ApplicationProgress on the loan from its
// verification flags. A terminal admin decision is sticky: only progress is
// normalized, the status is never overwritten. Safe to call redundantly.
func ApplyDerived(loan *models.LoanApplication) {
	if loan.HasTerminalStatus() {
		loan.ApplicationProgress = progressDecided
		return
	}

	status, progress := DeriveStatus(loan.DocumentsSubmitted, loan.VideoInterviewCompleted)
	loan.Status = status
	loan.ApplicationProgress = progress
}

// RequiredDocuments returns the document types a loan of the given type must
// have verified before documentsSubmitted counts as satisfied. The base KYC
// pair applies to every product.
func RequiredDocuments(loanType models.LoanType) []models.DocumentType {
	base := []models.DocumentType{
		models.DocumentTypeAadhaar,
		models.DocumentTypePAN,
	}

	switch loanType {
	case models.LoanTypePersonal, models.LoanTypeCar:
		return append(base, models.DocumentTypeSalarySlip)
	case models.LoanTypeHome:
		return append(base, models.DocumentTypeProperty)
	case models.LoanTypeBusiness:
		return append(base, models.DocumentTypeBusinessProof, models.DocumentTypeBankStatement)
	default:
		return base
	}
}
