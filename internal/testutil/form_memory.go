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

	"github.com/openadmit/openadmit/internal/form"
	"github.com/openadmit/openadmit/internal/store"
)

// FormRepository is an in-memory form.Repository. It applies reconciliation
// plans with the same delete/update/insert semantics as the PostgreSQL
// implementation, including the refusal to delete fields with recorded
// answers when AnswerCheck is wired.
type FormRepository struct {
	mu     sync.Mutex
	nextID int64
	forms  map[int64]*form.Form

	// AnswerCheck reports whether a field has recorded answers. Deleting
	// such a field fails with a PersistenceError, mirroring the restrict
	// constraint in the real store.
	AnswerCheck func(fieldID int64) bool

	// SubmissionCheck reports whether a form has recorded submissions.
	// Deleting such a form fails with a PersistenceError, mirroring the
	// restrict constraint in the real store.
	SubmissionCheck func(formID int64) bool
}

func NewFormRepository() *FormRepository {
	return &FormRepository{forms: make(map[int64]*form.Form)}
}

func (r *FormRepository) nextIDLocked() int64 {
	r.nextID++
	return r.nextID
}

func (r *FormRepository) CreateTree(ctx context.Context, f *form.Form) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f.ID = r.nextIDLocked()
	for _, s := range f.Sections {
		s.ID = r.nextIDLocked()
		s.FormID = f.ID
		for _, fld := range s.Fields {
			fld.ID = r.nextIDLocked()
			fld.SectionID = s.ID
			for _, opt := range fld.Options {
				opt.ID = r.nextIDLocked()
				opt.FieldID = fld.ID
			}
		}
	}
	r.forms[f.ID] = cloneForm(f)
	return nil
}

func (r *FormRepository) ApplyPlan(ctx context.Context, plan *form.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.forms[plan.Form.ID]
	if !ok || stored.TenantID != plan.Form.TenantID {
		return form.ErrFormNotFound
	}

	deleteSections := make(map[int64]bool, len(plan.DeleteSectionIDs))
	for _, id := range plan.DeleteSectionIDs {
		deleteSections[id] = true
	}
	deleteFields := make(map[int64]bool, len(plan.DeleteFieldIDs))
	for _, id := range plan.DeleteFieldIDs {
		deleteFields[id] = true
	}

	if r.AnswerCheck != nil {
		for _, s := range stored.Sections {
			for _, fld := range s.Fields {
				doomed := deleteFields[fld.ID] || deleteSections[s.ID]
				if doomed && r.AnswerCheck(fld.ID) {
					return store.NewPersistenceError("delete field", nil)
				}
			}
		}
	}

	next := cloneForm(plan.Form)
	next.Sections = nil

	updates := make(map[int64]*form.Section, len(plan.UpdateSections))
	for _, s := range plan.UpdateSections {
		updates[s.ID] = s
	}
	fieldUpdates := make(map[int64]*form.Field, len(plan.UpdateFields))
	for _, fld := range plan.UpdateFields {
		fieldUpdates[fld.ID] = fld
	}

	for _, s := range stored.Sections {
		if deleteSections[s.ID] {
			continue
		}
		upd := updates[s.ID]
		kept := &form.Section{
			ID:          s.ID,
			FormID:      next.ID,
			Title:       upd.Title,
			Description: upd.Description,
			OrderIndex:  upd.OrderIndex,
		}
		for _, fld := range s.Fields {
			if deleteFields[fld.ID] {
				continue
			}
			fu := fieldUpdates[fld.ID]
			keptField := &form.Field{
				ID:         fld.ID,
				SectionID:  s.ID,
				Label:      fu.Label,
				FieldType:  fu.FieldType,
				Required:   fu.Required,
				OrderIndex: fu.OrderIndex,
			}
			for _, opt := range plan.ReplaceOptions[fld.ID] {
				keptField.Options = append(keptField.Options, &form.Option{
					ID:      r.nextIDLocked(),
					FieldID: fld.ID,
					Value:   opt.Value,
				})
			}
			kept.Fields = append(kept.Fields, keptField)
		}
		for _, fld := range plan.InsertFields[s.ID] {
			inserted := cloneField(fld)
			inserted.ID = r.nextIDLocked()
			inserted.SectionID = s.ID
			for _, opt := range inserted.Options {
				opt.ID = r.nextIDLocked()
				opt.FieldID = inserted.ID
			}
			kept.Fields = append(kept.Fields, inserted)
		}
		next.Sections = append(next.Sections, kept)
	}

	for _, s := range plan.InsertSections {
		inserted := cloneSection(s)
		inserted.ID = r.nextIDLocked()
		inserted.FormID = next.ID
		for _, fld := range inserted.Fields {
			fld.ID = r.nextIDLocked()
			fld.SectionID = inserted.ID
			for _, opt := range fld.Options {
				opt.ID = r.nextIDLocked()
				opt.FieldID = fld.ID
			}
		}
		next.Sections = append(next.Sections, inserted)
	}

	r.forms[next.ID] = next
	return nil
}

func (r *FormRepository) GetTree(ctx context.Context, tenantID, formID int64) (*form.Form, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.forms[formID]
	if !ok || f.TenantID != tenantID {
		return nil, form.ErrFormNotFound
	}
	out := cloneForm(f)
	out.SortTree()
	return out, nil
}

func (r *FormRepository) GetTreeByCode(ctx context.Context, tenantID int64, code string) (*form.Form, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.forms {
		if f.TenantID == tenantID && f.PublicCode == code {
			out := cloneForm(f)
			out.SortTree()
			return out, nil
		}
	}
	return nil, form.ErrFormNotFound
}

func (r *FormRepository) GetByID(ctx context.Context, formID int64) (*form.Form, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.forms[formID]
	if !ok {
		return nil, form.ErrFormNotFound
	}
	out := cloneForm(f)
	out.Sections = nil
	return out, nil
}

func (r *FormRepository) List(ctx context.Context, tenantID int64) ([]*form.Form, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*form.Form
	for _, f := range r.forms {
		if f.TenantID == tenantID {
			clone := cloneForm(f)
			clone.Sections = nil
			out = append(out, clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *FormRepository) Delete(ctx context.Context, tenantID, formID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.forms[formID]
	if !ok || f.TenantID != tenantID {
		return form.ErrFormNotFound
	}
	if r.SubmissionCheck != nil && r.SubmissionCheck(formID) {
		return store.NewPersistenceError("delete form", nil)
	}
	delete(r.forms, formID)
	return nil
}

func cloneForm(f *form.Form) *form.Form {
	out := *f
	out.Sections = nil
	for _, s := range f.Sections {
		out.Sections = append(out.Sections, cloneSection(s))
	}
	return &out
}

func cloneSection(s *form.Section) *form.Section {
	out := *s
	out.Fields = nil
	for _, fld := range s.Fields {
		out.Fields = append(out.Fields, cloneField(fld))
	}
	return &out
}

func cloneField(fld *form.Field) *form.Field {
	out := *fld
	out.Options = nil
	for _, opt := range fld.Options {
		clone := *opt
		out.Options = append(out.Options, &clone)
	}
	return &out
}
