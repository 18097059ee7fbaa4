package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionStatus represents the completion state of a video interview session
type SessionStatus string

const (
	SessionStatusNotStarted SessionStatus = "not_started"
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusAbandoned  SessionStatus = "abandoned"
)

// InterviewSession is the ordered set of video interview questions for one loan.
// At most one non-abandoned session exists per loan; CompletionStatus is
// Completed iff every question has been answered.
type InterviewSession struct {
	ID               uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID        string              `gorm:"type:varchar(64);uniqueIndex;not null" json:"session_id"`
	UserID           uuid.UUID           `gorm:"type:uuid;not null;index" json:"user_id"`
	User             User                `gorm:"foreignKey:UserID" json:"-"`
	LoanID           uuid.UUID           `gorm:"type:uuid;not null;index" json:"loan_id"`
	Loan             LoanApplication     `gorm:"foreignKey:LoanID" json:"-"`
	CompletionStatus SessionStatus       `gorm:"type:varchar(20);not null;default:'not_started'" json:"completion_status"`
	Questions        []InterviewQuestion `gorm:"foreignKey:SessionRowID" json:"questions"`
	CompletedAt      *time.Time          `json:"completed_at,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// BeforeCreate assigns an ID when one was not set by the caller
func (s *InterviewSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// InterviewQuestion is one prompt within a session plus its response state.
// Once IsAnswered is set the transcript and media ref are immutable.
type InterviewQuestion struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SessionRowID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"-"`
	QuestionID       string     `gorm:"type:varchar(16);not null" json:"question_id"`
	Position         int        `gorm:"not null" json:"position"`
	PromptText       string     `gorm:"type:text;not null" json:"prompt_text"`
	PromptMediaRef   string     `gorm:"type:text" json:"prompt_media_ref,omitempty"`
	Language         string     `gorm:"type:varchar(30);default:'English'" json:"language"`
	Category         string     `gorm:"type:varchar(50)" json:"category,omitempty"`
	IsAnswered       bool       `gorm:"default:false" json:"is_answered"`
	ResponseMediaRef string     `gorm:"type:text" json:"response_media_ref,omitempty"`
	Transcript       string     `gorm:"type:text" json:"transcript,omitempty"`
	Confidence       *float64   `json:"confidence,omitempty"`
	SentimentScore   *float64   `json:"sentiment_score,omitempty"`
	AnsweredAt       *time.Time `json:"answered_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// BeforeCreate assigns an ID when one was not set by the caller
func (q *InterviewQuestion) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}
