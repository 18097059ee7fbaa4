// Package orchestrator drives the verification workflows that gate loan
// approval: the document verification lifecycle, the video interview session
// state machine, and the aggregate loan status derived from both. It is the
// only component that writes document verification statuses, question answer
// state, session completion and the loan's derived fields.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/veriloan/backend/internal/models"
	"github.com/veriloan/backend/internal/services/storage"
	"github.com/veriloan/backend/internal/services/verification"
	"gorm.io/gorm"
)

// DefaultConfidenceThreshold is the minimum confidence for automatic
// document verification
const DefaultConfidenceThreshold = 0.7

// Actor identifies the caller of an orchestration operation
type Actor struct {
	ID      uuid.UUID
	IsAdmin bool
}

// terminalStatuses guard conditional loan writes: once an admin decision
// lands, no derived write may touch the status again.
var terminalStatuses = []models.LoanStatus{
	models.LoanStatusApproved,
	models.LoanStatusRejected,
}

// Notifier receives best-effort status change notifications. Implementations
// must never block; failures are logged, not propagated.
type Notifier interface {
	LoanStatusChanged(loan *models.LoanApplication)
}

// Orchestrator coordinates document and interview verification for loans
type Orchestrator struct {
	db        *gorm.DB
	verifier  verification.Client
	store     storage.Store
	notifier  Notifier
	threshold float64
}

// New creates an orchestrator. A nil notifier disables notifications; a
// non-positive threshold falls back to the default.
func New(db *gorm.DB, verifier verification.Client, store storage.Store, notifier Notifier, threshold float64) *Orchestrator {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	return &Orchestrator{
		db:        db,
		verifier:  verifier,
		store:     store,
		notifier:  notifier,
		threshold: threshold,
	}
}

// SubmitDocumentInput carries one document upload
type SubmitDocumentInput struct {
	LoanID         uuid.UUID
	DocumentType   string
	DocumentNumber string
	FileName       string
	FileType       string
	Content        []byte
}

// SubmitDocument stores an uploaded document, creates a pending record
// superseding any previous upload for the same (loan, type) pair, and runs
// verification synchronously. When the verification service fails the record
// stays pending and ErrVerificationUnavailable is returned alongside it so the
// client can retry.
func (o *Orchestrator) SubmitDocument(ctx context.Context, actor Actor, in SubmitDocumentInput) (*models.DocumentRecord, error) {
	if !models.ValidDocumentType(in.DocumentType) {
		return nil, fmt.Errorf("%w: unknown document type %q", models.ErrValidation, in.DocumentType)
	}
	if in.DocumentNumber == "" {
		return nil, fmt.Errorf("%w: document number is required", models.ErrValidation)
	}
	if len(in.Content) == 0 {
		return nil, fmt.Errorf("%w: document file is required", models.ErrValidation)
	}

	loan, err := o.loadLoan(in.LoanID)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, loan.UserID); err != nil {
		return nil, err
	}

	hint := in.FileName
	if hint == "" {
		hint = in.DocumentType
	}
	fileRef, err := o.store.Save(ctx, in.Content, hint)
	if err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	record := models.DocumentRecord{
		UserID:             loan.UserID,
		LoanID:             &loan.ID,
		DocumentType:       models.DocumentType(in.DocumentType),
		DocumentNumber:     in.DocumentNumber,
		FileRef:            fileRef,
		FileType:           in.FileType,
		VerificationStatus: models.DocumentStatusPending,
		IsActive:           true,
	}

	// Supersede the previous upload for this (loan, type) pair and create the
	// new pending record in one transaction, so there is always exactly one
	// active record per pair.
	err = o.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.DocumentRecord{}).
			Where("loan_id = ? AND document_type = ? AND is_active = ?", loan.ID, record.DocumentType, true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create document record: %w", err)
	}

	result, err := o.verifier.VerifyDocument(ctx, in.Content, in.DocumentType)
	if err != nil {
		// Record stays pending; the client may resubmit once the service is
		// back. The previous record was already superseded, so the aggregate
		// must be recomputed against the new pending one.
		if _, recErr := o.RecomputeLoanAggregate(ctx, loan.ID); recErr != nil {
			log.Printf("Failed to recompute loan %s after verification outage: %v", loan.ID, recErr)
		}
		return &record, fmt.Errorf("%w: %v", models.ErrVerificationUnavailable, err)
	}

	status := models.DocumentStatusRejected
	if result.Verified && result.Confidence >= o.threshold {
		status = models.DocumentStatusVerified
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"verification_status": status,
		"confidence_score":    result.Confidence,
		"verified_at":         now,
	}
	res := o.db.Model(&models.DocumentRecord{}).
		Where("id = ? AND verification_status = ?", record.ID, models.DocumentStatusPending).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update document record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: document %s already transitioned", models.ErrConflict, record.ID)
	}

	record.VerificationStatus = status
	record.ConfidenceScore = &result.Confidence
	record.VerifiedAt = &now
	if len(result.ExtractedFields) > 0 {
		if err := o.db.Model(&models.DocumentRecord{}).
			Where("id = ?", record.ID).
			Update("extracted_fields", result.ExtractedFields).Error; err != nil {
			return nil, fmt.Errorf("failed to store extracted fields: %w", err)
		}
		record.ExtractedFields = result.ExtractedFields
	}

	if _, err := o.RecomputeLoanAggregate(ctx, loan.ID); err != nil {
		return nil, err
	}

	return &record, nil
}

// OverrideDocumentStatus lets an admin settle a pending document manually.
// Per the lifecycle, only pending documents can transition; anything else is a
// conflict and the borrower must upload a replacement instead.
func (o *Orchestrator) OverrideDocumentStatus(ctx context.Context, actor Actor, documentID uuid.UUID, status, notes string) (*models.DocumentRecord, error) {
	if !actor.IsAdmin {
		return nil, fmt.Errorf("%w: admin access required", models.ErrNotAuthorized)
	}
	if !models.ValidDocumentStatus(status) || models.DocumentStatus(status) == models.DocumentStatusPending {
		return nil, fmt.Errorf("%w: invalid verification status %q", models.ErrValidation, status)
	}

	var record models.DocumentRecord
	if err := o.db.First(&record, "id = ?", documentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: document %s", models.ErrNotFound, documentID)
		}
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	if !record.IsActive {
		return nil, fmt.Errorf("%w: document %s has been superseded", models.ErrConflict, documentID)
	}
	if record.VerificationStatus != models.DocumentStatusPending {
		return nil, fmt.Errorf("%w: document %s already transitioned", models.ErrConflict, documentID)
	}

	now := time.Now().UTC()
	res := o.db.Model(&models.DocumentRecord{}).
		Where("id = ? AND verification_status = ?", record.ID, models.DocumentStatusPending).
		Updates(map[string]interface{}{
			"verification_status": status,
			"verified_at":         now,
			"verified_by":         actor.ID,
			"notes":               notes,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update document record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: document %s already transitioned", models.ErrConflict, record.ID)
	}

	record.VerificationStatus = models.DocumentStatus(status)
	record.VerifiedAt = &now
	record.VerifiedBy = &actor.ID
	record.Notes = notes

	if record.LoanID != nil {
		if _, err := o.RecomputeLoanAggregate(ctx, *record.LoanID); err != nil {
			return nil, err
		}
	}

	return &record, nil
}

// CreateOrResumeSession returns the loan's active interview session, creating
// it with the loan type's question set on first access. Idempotent: a second
// call returns the same session.
func (o *Orchestrator) CreateOrResumeSession(ctx context.Context, actor Actor, loanID uuid.UUID) (*models.InterviewSession, error) {
	loan, err := o.loadLoan(loanID)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, loan.UserID); err != nil {
		return nil, err
	}

	if session, err := o.activeSession(loanID); err == nil {
		return session, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	language := "English"
	var owner models.User
	if err := o.db.First(&owner, "id = ?", loan.UserID).Error; err == nil && owner.PreferredLanguage != "" {
		language = owner.PreferredLanguage
	}

	session := models.InterviewSession{
		SessionID:        uuid.NewString(),
		UserID:           loan.UserID,
		LoanID:           loan.ID,
		CompletionStatus: models.SessionStatusNotStarted,
		Questions:        QuestionsForLoan(loan.LoanType, language),
	}
	if err := o.db.Create(&session).Error; err != nil {
		// A concurrent call may have won the partial unique index race;
		// resume whatever it created.
		if existing, lookupErr := o.activeSession(loanID); lookupErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &session, nil
}

// GetSession loads a session with its questions for the owner or an admin
func (o *Orchestrator) GetSession(ctx context.Context, actor Actor, sessionID string) (*models.InterviewSession, error) {
	session, err := o.loadSession(sessionID)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, session.UserID); err != nil {
		return nil, err
	}
	return session, nil
}

// SubmitAnswer records a response for one unanswered question: the media is
// persisted, transcribed and scored, then the question is marked answered.
// Answers are final; resubmission fails with ErrAlreadyAnswered. A
// verification failure leaves the question unanswered so the client can retry.
func (o *Orchestrator) SubmitAnswer(ctx context.Context, actor Actor, sessionID, questionID string, media []byte, mediaName string) (*models.InterviewQuestion, error) {
	if len(media) == 0 {
		return nil, fmt.Errorf("%w: response media is required", models.ErrValidation)
	}

	session, err := o.loadSession(sessionID)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, session.UserID); err != nil {
		return nil, err
	}
	if session.CompletionStatus == models.SessionStatusAbandoned {
		return nil, fmt.Errorf("%w: session %s was abandoned", models.ErrConflict, sessionID)
	}

	var question *models.InterviewQuestion
	for i := range session.Questions {
		if session.Questions[i].QuestionID == questionID {
			question = &session.Questions[i]
			break
		}
	}
	if question == nil {
		return nil, fmt.Errorf("%w: question %s", models.ErrNotFound, questionID)
	}
	if question.IsAnswered {
		return nil, fmt.Errorf("%w: question %s", models.ErrAlreadyAnswered, questionID)
	}

	hint := mediaName
	if hint == "" {
		hint = fmt.Sprintf("response-%s.webm", questionID)
	}
	mediaRef, err := o.store.Save(ctx, media, hint)
	if err != nil {
		return nil, fmt.Errorf("failed to store response media: %w", err)
	}

	result, err := o.verifier.TranscribeAndScore(ctx, media, questionID)
	if err != nil {
		// Question stays unanswered; the client must resubmit.
		return nil, fmt.Errorf("%w: %v", models.ErrVerificationUnavailable, err)
	}

	// Low confidence is recorded, never dropped; the answer still counts.
	now := time.Now().UTC()
	res := o.db.Model(&models.InterviewQuestion{}).
		Where("id = ? AND is_answered = ?", question.ID, false).
		Updates(map[string]interface{}{
			"is_answered":        true,
			"response_media_ref": mediaRef,
			"transcript":         result.Transcript,
			"confidence":         result.Confidence,
			"sentiment_score":    result.SentimentScore,
			"answered_at":        now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update question: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: question %s", models.ErrAlreadyAnswered, questionID)
	}

	question.IsAnswered = true
	question.ResponseMediaRef = mediaRef
	question.Transcript = result.Transcript
	question.Confidence = &result.Confidence
	question.SentimentScore = &result.SentimentScore
	question.AnsweredAt = &now

	if err := o.recomputeSessionStatus(ctx, session.ID); err != nil {
		return nil, err
	}

	return question, nil
}

// CompleteSession marks a fully answered session completed. Idempotent for an
// already completed session; fails with ErrIncompleteAnswers otherwise.
func (o *Orchestrator) CompleteSession(ctx context.Context, actor Actor, sessionID string) (*models.InterviewSession, error) {
	session, err := o.loadSession(sessionID)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, session.UserID); err != nil {
		return nil, err
	}
	if session.CompletionStatus == models.SessionStatusAbandoned {
		return nil, fmt.Errorf("%w: session %s was abandoned", models.ErrConflict, sessionID)
	}
	if session.CompletionStatus == models.SessionStatusCompleted {
		return session, nil
	}

	for _, q := range session.Questions {
		if !q.IsAnswered {
			return nil, fmt.Errorf("%w: question %s", models.ErrIncompleteAnswers, q.QuestionID)
		}
	}

	if err := o.recomputeSessionStatus(ctx, session.ID); err != nil {
		return nil, err
	}

	return o.loadSession(sessionID)
}

// AbandonSession terminally abandons a session. A completed session cannot be
// abandoned; a new session must be created to retry the interview.
func (o *Orchestrator) AbandonSession(ctx context.Context, actor Actor, sessionID string) (*models.InterviewSession, error) {
	session, err := o.loadSession(sessionID)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, session.UserID); err != nil {
		return nil, err
	}
	if session.CompletionStatus == models.SessionStatusCompleted {
		return nil, fmt.Errorf("%w: session %s is completed", models.ErrConflict, sessionID)
	}
	if session.CompletionStatus == models.SessionStatusAbandoned {
		return session, nil
	}

	if err := o.db.Model(&models.InterviewSession{}).
		Where("id = ? AND completion_status NOT IN ?", session.ID,
			[]models.SessionStatus{models.SessionStatusCompleted, models.SessionStatusAbandoned}).
		Update("completion_status", models.SessionStatusAbandoned).Error; err != nil {
		return nil, fmt.Errorf("failed to abandon session: %w", err)
	}

	session.CompletionStatus = models.SessionStatusAbandoned
	if _, err := o.RecomputeLoanAggregate(ctx, session.LoanID); err != nil {
		return nil, err
	}
	return session, nil
}

// UpdateLoanStatus is the admin override path. Approved and rejected are
// terminal and sticky: once set, neither derivation nor a further override
// changes the status (reopening is not supported).
func (o *Orchestrator) UpdateLoanStatus(ctx context.Context, actor Actor, loanID uuid.UUID, status, remarks string) (*models.LoanApplication, error) {
	if !actor.IsAdmin {
		return nil, fmt.Errorf("%w: admin access required", models.ErrNotAuthorized)
	}
	if !models.ValidLoanStatus(status) {
		return nil, fmt.Errorf("%w: invalid loan status %q", models.ErrValidation, status)
	}

	loan, err := o.loadLoan(loanID)
	if err != nil {
		return nil, err
	}
	if loan.HasTerminalStatus() {
		return nil, fmt.Errorf("%w: loan %s already %s", models.ErrConflict, loanID, loan.Status)
	}

	now := time.Now().UTC()
	loan.Status = models.LoanStatus(status)
	loan.StatusRemarks = remarks
	loan.StatusUpdatedAt = &now
	loan.StatusUpdatedBy = &actor.ID
	if loan.HasTerminalStatus() {
		loan.ApplicationProgress = progressDecided
	}

	// Conditional on the loan still being undecided, so two concurrent admin
	// decisions cannot overwrite each other.
	res := o.db.Model(&models.LoanApplication{}).
		Where("id = ? AND status NOT IN ?", loan.ID, terminalStatuses).
		Updates(map[string]interface{}{
			"status":               loan.Status,
			"status_remarks":       loan.StatusRemarks,
			"status_updated_at":    now,
			"status_updated_by":    actor.ID,
			"application_progress": loan.ApplicationProgress,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update loan status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: loan %s already decided", models.ErrConflict, loanID)
	}

	o.notifyStatusChange(loan)
	return loan, nil
}

// RecomputeLoanAggregate recomputes documentsSubmitted, videoInterviewCompleted
// and the derived status/progress from the loan's sub-entities. Idempotent:
// recomputing with unchanged inputs yields the same result.
func (o *Orchestrator) RecomputeLoanAggregate(ctx context.Context, loanID uuid.UUID) (*models.LoanApplication, error) {
	loan, err := o.loadLoan(loanID)
	if err != nil {
		return nil, err
	}

	docsOK, err := o.documentsComplete(loan)
	if err != nil {
		return nil, err
	}
	videoOK, err := o.interviewComplete(loan.ID)
	if err != nil {
		return nil, err
	}

	previousStatus := loan.Status
	loan.DocumentsSubmitted = docsOK
	loan.VideoInterviewCompleted = videoOK
	ApplyDerived(loan)

	// The derived write is conditional on the loan still being undecided. An
	// admin decision committing after the read above wins: only the flags are
	// recorded then, never the derived status or progress.
	res := o.db.Model(&models.LoanApplication{}).
		Where("id = ? AND status NOT IN ?", loan.ID, terminalStatuses).
		Updates(map[string]interface{}{
			"documents_submitted":       loan.DocumentsSubmitted,
			"video_interview_completed": loan.VideoInterviewCompleted,
			"status":                    loan.Status,
			"application_progress":      loan.ApplicationProgress,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update loan aggregate: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if err := o.db.Model(&models.LoanApplication{}).
			Where("id = ?", loan.ID).
			Updates(map[string]interface{}{
				"documents_submitted":       loan.DocumentsSubmitted,
				"video_interview_completed": loan.VideoInterviewCompleted,
			}).Error; err != nil {
			return nil, fmt.Errorf("failed to update loan flags: %w", err)
		}
		return o.loadLoan(loanID)
	}

	if loan.Status != previousStatus {
		o.notifyStatusChange(loan)
	}

	return loan, nil
}

// documentsComplete reports whether every required document type for the loan
// has its current (active) record verified
func (o *Orchestrator) documentsComplete(loan *models.LoanApplication) (bool, error) {
	var records []models.DocumentRecord
	if err := o.db.
		Where("loan_id = ? AND is_active = ?", loan.ID, true).
		Find(&records).Error; err != nil {
		return false, fmt.Errorf("failed to load documents: %w", err)
	}

	current := make(map[models.DocumentType]models.DocumentStatus, len(records))
	for _, r := range records {
		current[r.DocumentType] = r.VerificationStatus
	}

	for _, required := range RequiredDocuments(loan.LoanType) {
		if current[required] != models.DocumentStatusVerified {
			return false, nil
		}
	}
	return true, nil
}

// interviewComplete reports whether the loan has a completed, non-abandoned
// interview session
func (o *Orchestrator) interviewComplete(loanID uuid.UUID) (bool, error) {
	var count int64
	if err := o.db.Model(&models.InterviewSession{}).
		Where("loan_id = ? AND completion_status = ?", loanID, models.SessionStatusCompleted).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count > 0, nil
}

// recomputeSessionStatus rescans the session's questions and advances the
// session state machine; reaching Completed triggers the loan aggregate
// recompute.
func (o *Orchestrator) recomputeSessionStatus(ctx context.Context, sessionRowID uuid.UUID) error {
	var total, unanswered int64
	if err := o.db.Model(&models.InterviewQuestion{}).
		Where("session_row_id = ?", sessionRowID).
		Count(&total).Error; err != nil {
		return fmt.Errorf("failed to count questions: %w", err)
	}
	if err := o.db.Model(&models.InterviewQuestion{}).
		Where("session_row_id = ? AND is_answered = ?", sessionRowID, false).
		Count(&unanswered).Error; err != nil {
		return fmt.Errorf("failed to count unanswered questions: %w", err)
	}

	var session models.InterviewSession
	if err := o.db.First(&session, "id = ?", sessionRowID).Error; err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	if total > 0 && unanswered == 0 {
		now := time.Now().UTC()
		res := o.db.Model(&models.InterviewSession{}).
			Where("id = ? AND completion_status NOT IN ?", sessionRowID,
				[]models.SessionStatus{models.SessionStatusCompleted, models.SessionStatusAbandoned}).
			Updates(map[string]interface{}{
				"completion_status": models.SessionStatusCompleted,
				"completed_at":      now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to complete session: %w", res.Error)
		}
		if res.RowsAffected > 0 {
			if _, err := o.RecomputeLoanAggregate(ctx, session.LoanID); err != nil {
				return err
			}
		}
		return nil
	}

	return o.db.Model(&models.InterviewSession{}).
		Where("id = ? AND completion_status = ?", sessionRowID, models.SessionStatusNotStarted).
		Update("completion_status", models.SessionStatusInProgress).Error
}

func (o *Orchestrator) notifyStatusChange(loan *models.LoanApplication) {
	if o.notifier == nil {
		return
	}
	o.notifier.LoanStatusChanged(loan)
}

func (o *Orchestrator) loadLoan(loanID uuid.UUID) (*models.LoanApplication, error) {
	var loan models.LoanApplication
	if err := o.db.First(&loan, "id = ?", loanID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: loan %s", models.ErrNotFound, loanID)
		}
		return nil, fmt.Errorf("failed to load loan: %w", err)
	}
	return &loan, nil
}

func (o *Orchestrator) loadSession(sessionID string) (*models.InterviewSession, error) {
	var session models.InterviewSession
	err := o.db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&session, "session_id = ?", sessionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: session %s", models.ErrNotFound, sessionID)
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &session, nil
}

// activeSession returns the loan's current non-abandoned session
func (o *Orchestrator) activeSession(loanID uuid.UUID) (*models.InterviewSession, error) {
	var session models.InterviewSession
	err := o.db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("loan_id = ? AND completion_status != ?", loanID, models.SessionStatusAbandoned).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func authorize(actor Actor, ownerID uuid.UUID) error {
	if actor.IsAdmin || actor.ID == ownerID {
		return nil
	}
	return fmt.Errorf("%w: caller does not own this resource", models.ErrNotAuthorized)
}
