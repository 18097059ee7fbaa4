package handlers

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/veriloan/backend/internal/models"
	"github.com/veriloan/backend/internal/services/orchestrator"
	"github.com/veriloan/backend/internal/utils"
	"gorm.io/gorm"
)

// LoanHandler handles loan application requests
type LoanHandler struct {
	db           *gorm.DB
	orchestrator *orchestrator.Orchestrator
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(db *gorm.DB, orch *orchestrator.Orchestrator) *LoanHandler {
	return &LoanHandler{db: db, orchestrator: orch}
}

// CreateLoanRequest represents the request body for a new loan application
type CreateLoanRequest struct {
	LoanType     string  `json:"loan_type" binding:"required"`
	Amount       float64 `json:"amount" binding:"required,gt=0"`
	Tenure       int     `json:"tenure" binding:"required,gt=0"`
	InterestRate float64 `json:"interest_rate" binding:"required,gt=0"`
	Purpose      string  `json:"purpose" binding:"required"`
}

// UpdateLoanStatusRequest represents the admin status override body
type UpdateLoanStatusRequest struct {
	Status  string `json:"status" binding:"required"`
	Remarks string `json:"remarks"`
}

// CreateLoan creates a new loan application for the authenticated user
func (h *LoanHandler) CreateLoan(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidLoanType(req.LoanType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid loan type"})
		return
	}

	loan := models.LoanApplication{
		Reference:    utils.GenerateReference("LOAN"),
		UserID:       actor.ID,
		LoanType:     models.LoanType(req.LoanType),
		Amount:       req.Amount,
		Tenure:       req.Tenure,
		InterestRate: req.InterestRate,
		EMI:          calculateEMI(req.Amount, req.InterestRate, req.Tenure),
		Purpose:      req.Purpose,
		Status:       models.LoanStatusPending,
	}

	if err := h.db.Create(&loan).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create loan application"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"loan": loan})
}

// GetLoans lists the caller's loan applications; admins see all
func (h *LoanHandler) GetLoans(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	query := h.db.Order("created_at DESC")
	if !actor.IsAdmin {
		query = query.Where("user_id = ?", actor.ID)
	} else if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var loans []models.LoanApplication
	if err := query.Find(&loans).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch loans"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"loans": loans})
}

// GetLoan returns one loan application visible to the caller
func (h *LoanHandler) GetLoan(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	loanID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid loan ID"})
		return
	}

	var loan models.LoanApplication
	if err := h.db.First(&loan, "id = ?", loanID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Loan not found"})
		return
	}
	if !actor.IsAdmin && loan.UserID != actor.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to view this loan"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"loan": loan})
}

// UpdateLoanStatus is the admin status override endpoint
func (h *LoanHandler) UpdateLoanStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	loanID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid loan ID"})
		return
	}

	var req UpdateLoanStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	loan, err := h.orchestrator.UpdateLoanStatus(c.Request.Context(), actor, loanID, req.Status, req.Remarks)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"loan": loan})
}

// calculateEMI computes the equated monthly installment for a loan with
// monthly compounding. A zero rate degrades to straight division.
func calculateEMI(principal, annualRate float64, tenureMonths int) float64 {
	if tenureMonths <= 0 {
		return 0
	}
	monthlyRate := annualRate / 12 / 100
	if monthlyRate == 0 {
		return math.Round(principal/float64(tenureMonths)*100) / 100
	}
	factor := math.Pow(1+monthlyRate, float64(tenureMonths))
	emi := principal * monthlyRate * factor / (factor - 1)
	return math.Round(emi*100) / 100
}
