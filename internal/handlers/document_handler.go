package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/veriloan/backend/internal/models"
	"github.com/veriloan/backend/internal/services/orchestrator"
	"gorm.io/gorm"
)

// maxDocumentSize caps document uploads at 10 MB
const maxDocumentSize = 10 << 20

// DocumentHandler handles document upload and review requests
type DocumentHandler struct {
	db           *gorm.DB
	orchestrator *orchestrator.Orchestrator
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(db *gorm.DB, orch *orchestrator.Orchestrator) *DocumentHandler {
	return &DocumentHandler{db: db, orchestrator: orch}
}

// VerifyDocumentRequest represents the admin review body
type VerifyDocumentRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

// UploadDocument accepts a multipart document upload and runs verification.
// On verification service failure the pending record is still returned with
// 503 so the client can resubmit later.
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	loanID, err := uuid.Parse(c.PostForm("loan_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid loan ID"})
		return
	}

	fileHeader, err := c.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Document file is required"})
		return
	}
	if fileHeader.Size > maxDocumentSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Document exceeds maximum size"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read document"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read document"})
		return
	}

	record, err := h.orchestrator.SubmitDocument(c.Request.Context(), actor, orchestrator.SubmitDocumentInput{
		LoanID:         loanID,
		DocumentType:   c.PostForm("document_type"),
		DocumentNumber: c.PostForm("document_number"),
		FileName:       fileHeader.Filename,
		FileType:       fileHeader.Header.Get("Content-Type"),
		Content:        content,
	})
	if err != nil {
		if record != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":    "Verification service unavailable, document saved as pending",
				"document": record,
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"document": record})
}

// GetDocuments lists the caller's documents, filterable by loan and type.
// Admins see all documents and can filter by verification status.
func (h *DocumentHandler) GetDocuments(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	query := h.db.Where("is_active = ?", true).Order("created_at DESC")
	if !actor.IsAdmin {
		query = query.Where("user_id = ?", actor.ID)
	} else if status := c.Query("status"); status != "" {
		query = query.Where("verification_status = ?", status)
	}
	if loanID := c.Query("loan"); loanID != "" {
		query = query.Where("loan_id = ?", loanID)
	}
	if docType := c.Query("documentType"); docType != "" {
		query = query.Where("document_type = ?", docType)
	}

	var documents []models.DocumentRecord
	if err := query.Find(&documents).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch documents"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": documents})
}

// GetDocument returns one document record, superseded versions included
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document ID"})
		return
	}

	var document models.DocumentRecord
	if err := h.db.First(&document, "id = ?", documentID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}
	if !actor.IsAdmin && document.UserID != actor.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to view this document"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"document": document})
}

// VerifyDocument is the admin manual review endpoint for pending documents
func (h *DocumentHandler) VerifyDocument(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document ID"})
		return
	}

	var req VerifyDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.orchestrator.OverrideDocumentStatus(c.Request.Context(), actor, documentID, req.Status, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"document": record})
}
