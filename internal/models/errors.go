package models

import "errors"

// Orchestration error taxonomy. Handlers map these to HTTP statuses; callers
// match with errors.Is so services can wrap them with context.
var (
	// ErrValidation indicates bad input rejected before any write
	ErrValidation = errors.New("validation failed")

	// ErrNotAuthorized indicates the caller is neither the owner nor an admin
	ErrNotAuthorized = errors.New("not authorized")

	// ErrNotFound indicates an unknown loan, session, question or document id
	ErrNotFound = errors.New("record not found")

	// ErrConflict indicates a concurrent or duplicate submission against a
	// record that already reached a terminal state; safe to retry after a
	// fresh read
	ErrConflict = errors.New("conflicting update")

	// ErrAlreadyAnswered indicates a resubmission against an answered question
	ErrAlreadyAnswered = errors.New("question already answered")

	// ErrVerificationUnavailable indicates the verification service timed out
	// or failed; the record keeps its pre-call state and the client may retry
	ErrVerificationUnavailable = errors.New("verification service unavailable")

	// ErrIncompleteAnswers indicates completion was requested while at least
	// one question is unanswered
	ErrIncompleteAnswers = errors.New("session has unanswered questions")
)
