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

package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/openadmit/openadmit/internal/identity"
	"github.com/openadmit/openadmit/internal/submission"
)

// SubmissionRepository is an in-memory submission.Repository. It enforces
// the one-submission-per-form-per-user constraint the way the unique index
// does in PostgreSQL.
type SubmissionRepository struct {
	mu     sync.Mutex
	nextID int64
	subs   map[int64]*submission.Submission

	// Users resolves applicant identity for ListByForm. Optional.
	Users *UserRepository
}

func NewSubmissionRepository() *SubmissionRepository {
	return &SubmissionRepository{subs: make(map[int64]*submission.Submission)}
}

func (r *SubmissionRepository) Create(ctx context.Context, sub *submission.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if s.FormID == sub.FormID && s.UserID == sub.UserID {
			return submission.ErrDuplicateSubmission
		}
	}
	r.nextID++
	sub.ID = r.nextID
	clone := *sub
	clone.Answers = nil
	r.subs[sub.ID] = &clone
	return nil
}

func (r *SubmissionRepository) AddAnswers(ctx context.Context, submissionID int64, answers []*submission.Answer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[submissionID]
	if !ok {
		return submission.ErrSubmissionNotFound
	}
	for _, a := range answers {
		r.nextID++
		a.ID = r.nextID
		a.SubmissionID = submissionID
		clone := *a
		sub.Answers = append(sub.Answers, &clone)
	}
	return nil
}

func (r *SubmissionRepository) Delete(ctx context.Context, submissionID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[submissionID]; !ok {
		return submission.ErrSubmissionNotFound
	}
	delete(r.subs, submissionID)
	return nil
}

func (r *SubmissionRepository) GetByID(ctx context.Context, tenantID, submissionID int64) (*submission.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[submissionID]
	if !ok || sub.TenantID != tenantID {
		return nil, submission.ErrSubmissionNotFound
	}
	return cloneSubmission(sub), nil
}

func (r *SubmissionRepository) Exists(ctx context.Context, formID int64, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if s.FormID == formID && s.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *SubmissionRepository) ListByForm(ctx context.Context, tenantID, formID int64) ([]*submission.WithApplicant, error) {
	r.mu.Lock()
	subs := make([]*submission.Submission, 0, len(r.subs))
	for _, s := range r.subs {
		if s.FormID == formID && s.TenantID == tenantID {
			subs = append(subs, cloneSubmission(s))
		}
	}
	r.mu.Unlock()

	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmittedAt.After(subs[j].SubmittedAt) })

	out := make([]*submission.WithApplicant, 0, len(subs))
	for _, s := range subs {
		wa := &submission.WithApplicant{Submission: *s}
		if r.Users != nil {
			if u, err := r.Users.GetByID(ctx, s.UserID); err == nil {
				wa.ApplicantName = u.FullName
				wa.ApplicantEmail = u.Email
			} else if err != identity.ErrUserNotFound {
				return nil, err
			}
		}
		out = append(out, wa)
	}
	return out, nil
}

func (r *SubmissionRepository) ListByUser(ctx context.Context, userID string) ([]*submission.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*submission.Submission
	for _, s := range r.subs {
		if s.UserID == userID {
			out = append(out, cloneSubmission(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (r *SubmissionRepository) CountByForm(ctx context.Context, tenantID, formID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, s := range r.subs {
		if s.FormID == formID && s.TenantID == tenantID {
			count++
		}
	}
	return count, nil
}

// HasAnswersForField reports whether any stored answer references the field.
// Wire it into FormRepository.AnswerCheck to mirror the restrict constraint.
func (r *SubmissionRepository) HasAnswersForField(fieldID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		for _, a := range s.Answers {
			if a.FieldID == fieldID {
				return true
			}
		}
	}
	return false
}

// HasSubmissionsForForm reports whether any submission references the form.
// Wire it into FormRepository.SubmissionCheck to mirror the restrict
// constraint.
func (r *SubmissionRepository) HasSubmissionsForForm(formID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if s.FormID == formID {
			return true
		}
	}
	return false
}

// Count reports how many submissions are stored, across all forms.
func (r *SubmissionRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

func cloneSubmission(s *submission.Submission) *submission.Submission {
	out := *s
	out.Answers = nil
	for _, a := range s.Answers {
		clone := *a
		out.Answers = append(out.Answers, &clone)
	}
	return &out
}
