package submission

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrNotAccepting        = errors.New("form is not accepting submissions")
	ErrDuplicateSubmission = errors.New("a submission for this form already exists")
)

// FieldError reports one per-field validation failure.
type FieldError struct {
	FieldID int64
	Label   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

// SizeLimitError reports an upload that exceeds the attachment cap.
type SizeLimitError struct {
	FieldID int64
	Label   string
	Size    int64
	Limit   int64
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("File for '%s' exceeds %dMB limit.", e.Label, e.Limit/(1<<20))
}

// ValidationError aggregates every per-field failure of one submission
// attempt. The pipeline collects all of them before rolling back, so the
// applicant sees the complete list at once.
type ValidationError struct {
	FieldErrors []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, fe := range e.FieldErrors {
		msgs[i] = fe.Error()
	}
	return "submission rejected: " + strings.Join(msgs, " ")
}

// Unwrap exposes the individual field errors to errors.As and errors.Is.
func (e *ValidationError) Unwrap() []error {
	return e.FieldErrors
}

// Messages returns the human-readable failure list for API responses.
func (e *ValidationError) Messages() []string {
	msgs := make([]string, len(e.FieldErrors))
	for i, fe := range e.FieldErrors {
		msgs[i] = fe.Error()
	}
	return msgs
}
