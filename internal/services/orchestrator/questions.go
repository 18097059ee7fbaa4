package orchestrator

import "github.com/veriloan/backend/internal/models"

// questionSpec is the static definition of one interview prompt
type questionSpec struct {
	id       string
	text     string
	mediaRef string
	category string
}

// Every loan starts with the same two prompts; type-specific prompts follow.
var baseQuestions = []questionSpec{
	{
		id:       "q1",
		text:     "Please introduce yourself and tell us about your profession.",
		mediaRef: "/videos/prompts/introduction.mp4",
		category: "Introduction",
	},
	{
		id:       "q2",
		text:     "What is the purpose of your loan application?",
		mediaRef: "/videos/prompts/purpose.mp4",
		category: "Loan Purpose",
	},
}

var typeQuestions = map[models.LoanType][]questionSpec{
	models.LoanTypePersonal: {
		{
			id:       "q3",
			text:     "How do you plan to repay this loan?",
			mediaRef: "/videos/prompts/personal_repayment.mp4",
			category: "Repayment",
		},
	},
	models.LoanTypeBusiness: {
		{
			id:       "q3",
			text:     "Tell us about your business and how long you have been operating.",
			mediaRef: "/videos/prompts/business_details.mp4",
			category: "Business Details",
		},
		{
			id:       "q4",
			text:     "How will this loan help grow your business?",
			mediaRef: "/videos/prompts/business_growth.mp4",
			category: "Business Details",
		},
	},
	models.LoanTypeHome: {
		{
			id:       "q3",
			text:     "Tell us about the property you intend to purchase.",
			mediaRef: "/videos/prompts/home_property.mp4",
			category: "Property Details",
		},
	},
	models.LoanTypeCar: {
		{
			id:       "q3",
			text:     "Which vehicle are you planning to buy and how will you use it?",
			mediaRef: "/videos/prompts/car_details.mp4",
			category: "Vehicle Details",
		},
	},
	models.LoanTypeEducation: {
		{
			id:       "q3",
			text:     "Which course and institution is this loan for?",
			mediaRef: "/videos/prompts/education_details.mp4",
			category: "Education Details",
		},
	},
	models.LoanTypeGold: {
		{
			id:       "q3",
			text:     "Describe the gold assets you are pledging against this loan.",
			mediaRef: "/videos/prompts/gold_details.mp4",
			category: "Collateral Details",
		},
	},
}

// QuestionsForLoan builds the ordered question list for a loan type. The order
// is fixed: calling it twice for the same type yields the same list, which
// keeps session creation idempotent.
func QuestionsForLoan(loanType models.LoanType, language string) []models.InterviewQuestion {
	if language == "" {
		language = "English"
	}

	specs := make([]questionSpec, 0, len(baseQuestions)+2)
	specs = append(specs, baseQuestions...)
	specs = append(specs, typeQuestions[loanType]...)

	questions := make([]models.InterviewQuestion, 0, len(specs))
	for i, spec := range specs {
		questions = append(questions, models.InterviewQuestion{
			QuestionID:     spec.id,
			Position:       i,
			PromptText:     spec.text,
			PromptMediaRef: spec.mediaRef,
			Language:       language,
			Category:       spec.category,
			IsAnswered:     false,
		})
	}

	return questions
}
