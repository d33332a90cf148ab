// Copyright 2026 The OpenAdmit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package submission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/openadmit/openadmit/internal/audit"
	"github.com/openadmit/openadmit/internal/filestore"
	"github.com/openadmit/openadmit/internal/form"
	"github.com/openadmit/openadmit/internal/id"
	"github.com/openadmit/openadmit/internal/observability/logger"
)

// DefaultMaxUploadBytes caps a single attachment at 5 MiB.
const DefaultMaxUploadBytes = 5 << 20

// Service runs the submission intake pipeline.
type Service struct {
	repo           Repository
	files          filestore.Store
	auditLogger    audit.Logger
	maxUploadBytes int64
	now            func() time.Time
}

// NewService creates a submission service. maxUploadBytes <= 0 selects the
// default 5 MiB cap.
func NewService(repo Repository, files filestore.Store, auditLogger audit.Logger, maxUploadBytes int64) *Service {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Service{
		repo:           repo,
		files:          files,
		auditLogger:    auditLogger,
		maxUploadBytes: maxUploadBytes,
		now:            time.Now,
	}
}

// Submit runs one application attempt through the intake pipeline.
//
// Preconditions run in order: the form must be accepting (Active and inside
// its date window) and the user must not have submitted already. Then the
// submission row is created up front so its id can anchor stored file paths,
// every field is validated and every failure collected, and finally either
// all answers commit or the attempt is rolled back: stored files removed,
// submission row deleted, nothing half-recorded.
func (s *Service) Submit(ctx context.Context, f *form.Form, userID string, input *Input) (*Submission, error) {
	now := s.now()
	if !f.AcceptingAt(now) {
		s.rejected(ctx, f, userID, "not_accepting")
		return nil, ErrNotAccepting
	}

	exists, err := s.repo.Exists(ctx, f.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing submission: %w", err)
	}
	if exists {
		s.rejected(ctx, f, userID, "duplicate")
		return nil, ErrDuplicateSubmission
	}

	sub := &Submission{
		FormID:      f.ID,
		TenantID:    f.TenantID,
		UserID:      userID,
		SubmittedAt: now,
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		if errors.Is(err, ErrDuplicateSubmission) {
			// Lost the race against a concurrent attempt by the same
			// user; the constraint keeps exactly one row.
			s.rejected(ctx, f, userID, "duplicate")
			return nil, ErrDuplicateSubmission
		}
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	answers, storedPaths, fieldErrs := s.collectAnswers(ctx, f, sub, input)
	if len(fieldErrs) > 0 {
		s.rollback(ctx, sub, storedPaths)
		s.rejected(ctx, f, userID, "validation")
		return nil, &ValidationError{FieldErrors: fieldErrs}
	}

	if err := s.repo.AddAnswers(ctx, sub.ID, answers); err != nil {
		s.rollback(ctx, sub, storedPaths)
		return nil, fmt.Errorf("failed to record answers: %w", err)
	}
	sub.Answers = answers

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeSubmissionReceived,
		TenantID: f.TenantID,
		ActorID:  userID,
		Resource: "submission",
		Metadata: map[string]any{
			"form_id":       f.ID,
			"submission_id": sub.ID,
		},
	})

	return sub, nil
}

// collectAnswers walks the schema in render order, validating every field
// and storing accepted files as it goes. It never stops at the first
// problem: all failures come back together.
func (s *Service) collectAnswers(ctx context.Context, f *form.Form, sub *Submission, input *Input) ([]*Answer, []string, []error) {
	var (
		answers     []*Answer
		storedPaths []string
		fieldErrs   []error
	)

	for _, fld := range f.AllFields() {
		if fld.FieldType == form.FieldTypeFile {
			upload := input.Files[fld.ID]
			if upload == nil || upload.Size == 0 {
				if fld.Required {
					fieldErrs = append(fieldErrs, requiredErr(fld))
				}
				continue
			}
			if upload.Size > s.maxUploadBytes {
				fieldErrs = append(fieldErrs, &SizeLimitError{
					FieldID: fld.ID,
					Label:   fld.Label,
					Size:    upload.Size,
					Limit:   s.maxUploadBytes,
				})
				continue
			}

			storedPath, err := s.storeFile(ctx, sub, fld, upload)
			if err != nil {
				slog.ErrorContext(ctx, "failed to store attachment",
					logger.SubmissionID(sub.ID), logger.FieldID(fld.ID), logger.Error(err))
				fieldErrs = append(fieldErrs, &FieldError{
					FieldID: fld.ID,
					Label:   fld.Label,
					Message: fmt.Sprintf("File for '%s' could not be stored.", fld.Label),
				})
				continue
			}
			storedPaths = append(storedPaths, storedPath)
			answers = append(answers, &Answer{
				SubmissionID: sub.ID,
				FieldID:      fld.ID,
				Value:        storedPath,
				Filename:     upload.Filename,
				IsFile:       true,
			})
			continue
		}

		value := strings.TrimSpace(input.Values[fld.ID])
		if value == "" {
			if fld.Required {
				fieldErrs = append(fieldErrs, requiredErr(fld))
			}
			continue
		}
		answers = append(answers, &Answer{
			SubmissionID: sub.ID,
			FieldID:      fld.ID,
			Value:        value,
		})
	}

	return answers, storedPaths, fieldErrs
}

// storeFile writes an accepted upload under a path derived from the
// submission, so one RemoveAll on the submission prefix cleans everything.
func (s *Service) storeFile(ctx context.Context, sub *Submission, fld *form.Field, upload *Upload) (string, error) {
	ext := strings.ToLower(path.Ext(upload.Filename))
	storedPath := fmt.Sprintf("uploads/%s/%d/field_%d_%s%s",
		sub.UserID, sub.ID, fld.ID, id.NewFileToken(), ext)

	reader := io.LimitReader(upload.Content, s.maxUploadBytes)
	if err := s.files.Save(ctx, storedPath, reader, upload.Size); err != nil {
		return "", err
	}
	return storedPath, nil
}

// rollback undoes a rejected attempt: stored files first, then the
// submission row. Failures are logged, not returned, so the applicant still
// gets the validation verdict.
func (s *Service) rollback(ctx context.Context, sub *Submission, storedPaths []string) {
	for _, p := range storedPaths {
		if err := s.files.Remove(ctx, p); err != nil {
			slog.WarnContext(ctx, "failed to remove attachment during rollback",
				logger.SubmissionID(sub.ID), logger.FilePath(p), logger.Error(err))
		}
	}
	if err := s.repo.Delete(ctx, sub.ID); err != nil {
		slog.ErrorContext(ctx, "failed to delete rejected submission",
			logger.SubmissionID(sub.ID), logger.Error(err))
	}
}

func (s *Service) rejected(ctx context.Context, f *form.Form, userID, reason string) {
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeSubmissionRejected,
		TenantID: f.TenantID,
		ActorID:  userID,
		Resource: "submission",
		Metadata: map[string]any{
			"form_id": f.ID,
			"reason":  reason,
		},
	})
}

func requiredErr(fld *form.Field) error {
	return &FieldError{
		FieldID: fld.ID,
		Label:   fld.Label,
		Message: fmt.Sprintf("'%s' is required.", fld.Label),
	}
}

// Get loads a submission with answers, tenant-scoped.
func (s *Service) Get(ctx context.Context, tenantID, submissionID int64) (*Submission, error) {
	return s.repo.GetByID(ctx, tenantID, submissionID)
}

// ListByForm returns a form's submissions with applicant identity.
func (s *Service) ListByForm(ctx context.Context, tenantID, formID int64) ([]*WithApplicant, error) {
	return s.repo.ListByForm(ctx, tenantID, formID)
}

// ListByUser returns the applicant's own submissions.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*Submission, error) {
	return s.repo.ListByUser(ctx, userID)
}

// CountByForm returns the number of submissions on a form.
func (s *Service) CountByForm(ctx context.Context, tenantID, formID int64) (int, error) {
	return s.repo.CountByForm(ctx, tenantID, formID)
}

// OpenAttachment streams a stored answer file.
func (s *Service) OpenAttachment(ctx context.Context, storedPath string) (io.ReadCloser, error) {
	return s.files.Open(ctx, storedPath)
}
