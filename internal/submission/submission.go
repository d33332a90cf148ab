package submission

import (
	"io"
	"time"
)

// Submission is one applicant's response to a form. The (FormID, UserID)
// pair is unique: an applicant applies to a given form at most once.
type Submission struct {
	ID          int64     `json:"id"`
	FormID      int64     `json:"form_id"`
	TenantID    int64     `json:"tenant_id"`
	UserID      string    `json:"user_id"`
	SubmittedAt time.Time `json:"submitted_at"`
	Answers     []*Answer `json:"answers,omitempty"`
}

// Answer records one field's response. For file fields Value holds the
// stored object path and Filename the name the applicant uploaded under,
// so detail views and exports can show "resume.pdf" rather than the token
// path.
type Answer struct {
	ID           int64  `json:"id"`
	SubmissionID int64  `json:"submission_id"`
	FieldID      int64  `json:"field_id"`
	Value        string `json:"value"`
	Filename     string `json:"filename,omitempty"`
	IsFile       bool   `json:"is_file"`
}

// Upload is an incoming file attachment, decoded from a multipart part. Size
// is the declared length; the pipeline enforces the cap before storing.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// Input carries the raw values of one submission attempt, keyed by field id.
type Input struct {
	Values map[int64]string
	Files  map[int64]*Upload
}

// WithApplicant is the staff-facing read model: a submission joined with
// the applicant's identity for listings and exports.
type WithApplicant struct {
	Submission
	ApplicantName  string `json:"applicant_name"`
	ApplicantEmail string `json:"applicant_email"`
}
