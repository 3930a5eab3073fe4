package util

import "errors"

var (
	ErrInterviewNotFound = errors.New("interview not found")
	ErrQuestionNotFound  = errors.New("question not found")

	// Invalid-state errors: the session exists but the operation is not
	// legal in its current status.
	ErrInterviewFinished = errors.New("interview already finished")
	ErrNoPendingQuestion = errors.New("no question outstanding for this interview")
	ErrQuestionMismatch  = errors.New("submitted question does not match the outstanding question")
	ErrReportNotReady    = errors.New("report not ready: interview still in progress")

	ErrEmptyAnswer        = errors.New("answer text must not be empty")
	ErrEmptyCandidateName = errors.New("candidate name must not be empty")

	ErrInvalidCredentials = errors.New("invalid credentials")
)
