package submission

import (
	"context"
)

// Repository defines the interface for submission storage.
type Repository interface {
	// Create inserts the submission row and fills in the generated id.
	// A second submission for the same (form, user) pair trips the
	// unique constraint and returns ErrDuplicateSubmission.
	Create(ctx context.Context, sub *Submission) error

	// AddAnswers persists a submission's answer rows in one transaction.
	AddAnswers(ctx context.Context, submissionID int64, answers []*Answer) error

	// Delete removes a submission and its answers. Used to roll back a
	// rejected attempt.
	Delete(ctx context.Context, submissionID int64) error

	// GetByID loads a submission with its answers, tenant-scoped.
	GetByID(ctx context.Context, tenantID, submissionID int64) (*Submission, error)

	// Exists reports whether the user already submitted to the form.
	Exists(ctx context.Context, formID int64, userID string) (bool, error)

	// ListByForm returns a form's submissions with applicant identity,
	// newest first, answers included.
	ListByForm(ctx context.Context, tenantID, formID int64) ([]*WithApplicant, error)

	// ListByUser returns the user's own submissions, answers included.
	ListByUser(ctx context.Context, userID string) ([]*Submission, error)

	// CountByForm returns submission totals for dashboard views.
	CountByForm(ctx context.Context, tenantID, formID int64) (int, error)
}
