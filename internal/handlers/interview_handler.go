package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/veriloan/backend/internal/services/orchestrator"
)

// maxResponseSize caps interview response uploads at 50 MB
const maxResponseSize = 50 << 20

// InterviewHandler handles video interview session requests
type InterviewHandler struct {
	orchestrator *orchestrator.Orchestrator
}

// NewInterviewHandler creates a new interview handler
func NewInterviewHandler(orch *orchestrator.Orchestrator) *InterviewHandler {
	return &InterviewHandler{orchestrator: orch}
}

// CreateSessionRequest represents the session create body
type CreateSessionRequest struct {
	LoanID uuid.UUID `json:"loan_id" binding:"required"`
}

// CreateSession returns the loan's interview session, creating it on first
// access. Calling it again returns the existing session unchanged.
func (h *InterviewHandler) CreateSession(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.orchestrator.CreateOrResumeSession(c.Request.Context(), actor, req.LoanID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// GetSession returns a session with its questions
func (h *InterviewHandler) GetSession(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	session, err := h.orchestrator.GetSession(c.Request.Context(), actor, c.Param("sessionId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// NextQuestion returns the first unanswered question in prompt order, or
// completed=true when none remain
func (h *InterviewHandler) NextQuestion(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	session, err := h.orchestrator.GetSession(c.Request.Context(), actor, c.Param("sessionId"))
	if err != nil {
		respondError(c, err)
		return
	}

	for _, q := range session.Questions {
		if !q.IsAnswered {
			c.JSON(http.StatusOK, gin.H{"question": q, "completed": false})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"question": nil, "completed": true})
}

// UploadResponse accepts a multipart recorded answer for one question
func (h *InterviewHandler) UploadResponse(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("video")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Response recording is required"})
		return
	}
	if fileHeader.Size > maxResponseSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Recording exceeds maximum size"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read recording"})
		return
	}
	defer file.Close()

	media, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read recording"})
		return
	}

	question, err := h.orchestrator.SubmitAnswer(
		c.Request.Context(), actor,
		c.Param("sessionId"), c.Param("questionId"),
		media, fileHeader.Filename,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"question": question})
}

// CompleteSession marks a fully answered session completed
func (h *InterviewHandler) CompleteSession(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	session, err := h.orchestrator.CompleteSession(c.Request.Context(), actor, c.Param("sessionId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// AbandonSession terminally abandons a session
func (h *InterviewHandler) AbandonSession(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	session, err := h.orchestrator.AbandonSession(c.Request.Context(), actor, c.Param("sessionId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}
