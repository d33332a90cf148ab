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

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/openadmit/openadmit/internal/submission"
)

// SubmissionRepository implements submission.Repository
type SubmissionRepository struct {
	db *DB
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create inserts the submission row. The unique constraint on
// (form_id, user_id) turns a concurrent second attempt into
// ErrDuplicateSubmission.
func (r *SubmissionRepository) Create(ctx context.Context, sub *submission.Submission) error {
	err := r.db.pool.QueryRow(ctx, `
		INSERT INTO submissions (form_id, tenant_id, user_id, submitted_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, sub.FormID, sub.TenantID, sub.UserID, sub.SubmittedAt).Scan(&sub.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return submission.ErrDuplicateSubmission
		}
		return fmt.Errorf("failed to insert submission: %w", err)
	}
	return nil
}

// AddAnswers persists a submission's answers in one transaction.
func (r *SubmissionRepository) AddAnswers(ctx context.Context, submissionID int64, answers []*submission.Answer) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, a := range answers {
		err := tx.QueryRow(ctx, `
			INSERT INTO answers (submission_id, field_id, value, filename, is_file)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, submissionID, a.FieldID, a.Value, a.Filename, a.IsFile).Scan(&a.ID)
		if err != nil {
			return fmt.Errorf("failed to insert answer: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit answers: %w", err)
	}
	return nil
}

// Delete removes a submission; its answers go by cascade.
func (r *SubmissionRepository) Delete(ctx context.Context, submissionID int64) error {
	result, err := r.db.pool.Exec(ctx, `
		DELETE FROM submissions WHERE id = $1
	`, submissionID)
	if err != nil {
		return fmt.Errorf("failed to delete submission: %w", err)
	}
	if result.RowsAffected() == 0 {
		return submission.ErrSubmissionNotFound
	}
	return nil
}

// GetByID loads a submission with its answers, tenant-scoped.
func (r *SubmissionRepository) GetByID(ctx context.Context, tenantID, submissionID int64) (*submission.Submission, error) {
	var sub submission.Submission
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, form_id, tenant_id, user_id, submitted_at
		FROM submissions
		WHERE id = $1 AND tenant_id = $2
	`, submissionID, tenantID).Scan(&sub.ID, &sub.FormID, &sub.TenantID, &sub.UserID, &sub.SubmittedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, submission.ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	answers, err := r.loadAnswers(ctx, []int64{sub.ID})
	if err != nil {
		return nil, err
	}
	sub.Answers = answers[sub.ID]
	return &sub, nil
}

// Exists reports whether the user already submitted to the form.
func (r *SubmissionRepository) Exists(ctx context.Context, formID int64, userID string) (bool, error) {
	var exists bool
	err := r.db.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM submissions WHERE form_id = $1 AND user_id = $2)
	`, formID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check submission: %w", err)
	}
	return exists, nil
}

// ListByForm returns a form's submissions joined with applicant identity,
// newest first, answers included.
func (r *SubmissionRepository) ListByForm(ctx context.Context, tenantID, formID int64) ([]*submission.WithApplicant, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT s.id, s.form_id, s.tenant_id, s.user_id, s.submitted_at, u.full_name, u.email
		FROM submissions s
		JOIN users u ON u.id = s.user_id
		WHERE s.form_id = $1 AND s.tenant_id = $2
		ORDER BY s.submitted_at DESC
	`, formID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var subs []*submission.WithApplicant
	var ids []int64
	for rows.Next() {
		var sub submission.WithApplicant
		if err := rows.Scan(
			&sub.ID, &sub.FormID, &sub.TenantID, &sub.UserID, &sub.SubmittedAt,
			&sub.ApplicantName, &sub.ApplicantEmail,
		); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, &sub)
		ids = append(ids, sub.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	answers, err := r.loadAnswers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, sub := range subs {
		sub.Answers = answers[sub.ID]
	}
	return subs, nil
}

// ListByUser returns the user's own submissions, answers included.
func (r *SubmissionRepository) ListByUser(ctx context.Context, userID string) ([]*submission.Submission, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, form_id, tenant_id, user_id, submitted_at
		FROM submissions
		WHERE user_id = $1
		ORDER BY submitted_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var subs []*submission.Submission
	var ids []int64
	for rows.Next() {
		var sub submission.Submission
		if err := rows.Scan(&sub.ID, &sub.FormID, &sub.TenantID, &sub.UserID, &sub.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, &sub)
		ids = append(ids, sub.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	answers, err := r.loadAnswers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, sub := range subs {
		sub.Answers = answers[sub.ID]
	}
	return subs, nil
}

// CountByForm returns submission totals for dashboard views.
func (r *SubmissionRepository) CountByForm(ctx context.Context, tenantID, formID int64) (int, error) {
	var count int
	err := r.db.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM submissions WHERE form_id = $1 AND tenant_id = $2
	`, formID, tenantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	return count, nil
}

func (r *SubmissionRepository) loadAnswers(ctx context.Context, submissionIDs []int64) (map[int64][]*submission.Answer, error) {
	bySubmission := make(map[int64][]*submission.Answer)
	if len(submissionIDs) == 0 {
		return bySubmission, nil
	}

	rows, err := r.db.pool.Query(ctx, `
		SELECT id, submission_id, field_id, value, filename, is_file
		FROM answers
		WHERE submission_id = ANY($1)
		ORDER BY id
	`, submissionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a submission.Answer
		if err := rows.Scan(&a.ID, &a.SubmissionID, &a.FieldID, &a.Value, &a.Filename, &a.IsFile); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		bySubmission[a.SubmissionID] = append(bySubmission[a.SubmissionID], &a)
	}
	return bySubmission, rows.Err()
}
