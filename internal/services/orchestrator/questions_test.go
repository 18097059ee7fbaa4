package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veriloan/backend/internal/models"
)

func TestQuestionsForLoanSharedPrefix(t *testing.T) {
	for loanType := range typeQuestions {
		questions := QuestionsForLoan(loanType, "English")
		require.GreaterOrEqual(t, len(questions), 3, "loan type %s", loanType)

		assert.Equal(t, "q1", questions[0].QuestionID)
		assert.Equal(t, "Introduction", questions[0].Category)
		assert.Equal(t, "q2", questions[1].QuestionID)
		assert.Equal(t, "Loan Purpose", questions[1].Category)
	}
}

func TestQuestionsForLoanDeterministicOrder(t *testing.T) {
	first := QuestionsForLoan(models.LoanTypeBusiness, "Hindi")
	second := QuestionsForLoan(models.LoanTypeBusiness, "Hindi")

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].QuestionID, second[i].QuestionID)
		assert.Equal(t, i, first[i].Position)
		assert.Equal(t, "Hindi", first[i].Language)
		assert.False(t, first[i].IsAnswered)
	}
}

func TestQuestionsForLoanBusinessHasExtraPrompt(t *testing.T) {
	business := QuestionsForLoan(models.LoanTypeBusiness, "")
	assert.Len(t, business, 4)
	assert.Equal(t, "English", business[0].Language)

	personal := QuestionsForLoan(models.LoanTypePersonal, "")
	assert.Len(t, personal, 3)
}

func TestQuestionsForUnknownLoanType(t *testing.T) {
	questions := QuestionsForLoan(models.LoanType("Boat Loan"), "English")
	// Unknown types still get the shared prompts.
	assert.Len(t, questions, 2)
}
