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

package form

// Plan is the computed set of mutations that turns a persisted form tree
// into the desired state of an edit. It is produced by BuildPlan without
// touching storage and applied by the repository in a single transaction.
type Plan struct {
	// Form carries the root-level column updates (name, description,
	// status, dates). Identity fields (ID, TenantID, PublicCode,
	// ApplicationURL, CreatedAt) are taken from the persisted row and
	// never change on edit.
	Form *Form

	// DeleteSectionIDs and DeleteFieldIDs list survivors of the
	// delete-by-omission rule. Descendants of a deleted section are NOT
	// listed: cascade handles them, so a section id here implies its
	// whole subtree goes.
	DeleteSectionIDs []int64
	DeleteFieldIDs   []int64

	// UpdateSections and UpdateFields are existing rows whose columns are
	// rewritten in place.
	UpdateSections []*Section
	UpdateFields   []*Field

	// InsertSections are new sections with their full field subtrees
	// attached; the repository assigns ids top-down.
	InsertSections []*Section

	// InsertFields maps an existing section id to the new fields added
	// under it.
	InsertFields map[int64][]*Field

	// ReplaceOptions maps a surviving field id to its full new option
	// set. Present for every updated choice field: options are replaced
	// wholesale, never diffed.
	ReplaceOptions map[int64][]*Option
}

// Empty reports whether applying the plan would change nothing structural.
// The form row itself is always rewritten, so Empty only concerns the tree.
func (p *Plan) Empty() bool {
	return len(p.DeleteSectionIDs) == 0 &&
		len(p.DeleteFieldIDs) == 0 &&
		len(p.UpdateSections) == 0 &&
		len(p.UpdateFields) == 0 &&
		len(p.InsertSections) == 0 &&
		len(p.InsertFields) == 0 &&
		len(p.ReplaceOptions) == 0
}

// BuildPlan diffs the persisted tree against the desired edit.
//
// For sections and fields alike, entries partition three ways:
//   - edit id > 0 and present in storage: update in place
//   - edit id <= 0: insert
//   - stored id absent from the edit: delete
//
// An edit entry with a positive id that matches nothing in storage is
// dropped silently; it referred to a row a concurrent edit already removed.
// Options are never diffed: every surviving field gets its option rows
// replaced with the edit's values.
func BuildPlan(existing *Form, edit *FormEdit) *Plan {
	plan := &Plan{
		Form: &Form{
			ID:             existing.ID,
			TenantID:       existing.TenantID,
			Name:           edit.Name,
			Description:    edit.Description,
			Status:         edit.Status,
			StartDate:      edit.StartDate,
			EndDate:        edit.EndDate,
			PublicCode:     existing.PublicCode,
			ApplicationURL: existing.ApplicationURL,
			CreatedAt:      existing.CreatedAt,
		},
		InsertFields:   make(map[int64][]*Field),
		ReplaceOptions: make(map[int64][]*Option),
	}

	existingSections := make(map[int64]*Section, len(existing.Sections))
	for _, s := range existing.Sections {
		existingSections[s.ID] = s
	}

	editedSections := make(map[int64]bool, len(edit.Sections))
	for _, se := range edit.Sections {
		if se.ID > 0 {
			editedSections[se.ID] = true
		}
	}
	for _, s := range existing.Sections {
		if !editedSections[s.ID] {
			plan.DeleteSectionIDs = append(plan.DeleteSectionIDs, s.ID)
		}
	}

	for _, se := range edit.Sections {
		if se.ID <= 0 {
			plan.InsertSections = append(plan.InsertSections, newSectionTree(existing.ID, se))
			continue
		}
		stored, ok := existingSections[se.ID]
		if !ok {
			continue
		}

		plan.UpdateSections = append(plan.UpdateSections, &Section{
			ID:          stored.ID,
			FormID:      existing.ID,
			Title:       se.Title,
			Description: se.Description,
			OrderIndex:  se.OrderIndex,
		})
		planFields(plan, stored, se)
	}

	return plan
}

// planFields diffs the fields of one surviving section.
func planFields(plan *Plan, stored *Section, edit *SectionEdit) {
	existingFields := make(map[int64]*Field, len(stored.Fields))
	for _, f := range stored.Fields {
		existingFields[f.ID] = f
	}

	editedFields := make(map[int64]bool, len(edit.Fields))
	for _, fe := range edit.Fields {
		if fe.ID > 0 {
			editedFields[fe.ID] = true
		}
	}
	for _, f := range stored.Fields {
		if !editedFields[f.ID] {
			plan.DeleteFieldIDs = append(plan.DeleteFieldIDs, f.ID)
		}
	}

	for _, fe := range edit.Fields {
		if fe.ID <= 0 {
			plan.InsertFields[stored.ID] = append(plan.InsertFields[stored.ID], newField(stored.ID, fe))
			continue
		}
		if _, ok := existingFields[fe.ID]; !ok {
			continue
		}

		plan.UpdateFields = append(plan.UpdateFields, &Field{
			ID:         fe.ID,
			SectionID:  stored.ID,
			Label:      fe.Label,
			FieldType:  fe.FieldType,
			Required:   fe.Required,
			OrderIndex: fe.OrderIndex,
		})
		plan.ReplaceOptions[fe.ID] = newOptions(fe.ID, fe.Options)
	}
}

// newSectionTree builds an insertable section with its whole field subtree.
func newSectionTree(formID int64, se *SectionEdit) *Section {
	s := &Section{
		FormID:      formID,
		Title:       se.Title,
		Description: se.Description,
		OrderIndex:  se.OrderIndex,
	}
	for _, fe := range se.Fields {
		s.Fields = append(s.Fields, newField(0, fe))
	}
	return s
}

func newField(sectionID int64, fe *FieldEdit) *Field {
	f := &Field{
		SectionID:  sectionID,
		Label:      fe.Label,
		FieldType:  fe.FieldType,
		Required:   fe.Required,
		OrderIndex: fe.OrderIndex,
	}
	f.Options = newOptions(0, fe.Options)
	return f
}

func newOptions(fieldID int64, values []string) []*Option {
	if len(values) == 0 {
		return nil
	}
	opts := make([]*Option, 0, len(values))
	for _, v := range values {
		opts = append(opts, &Option{FieldID: fieldID, Value: v})
	}
	return opts
}
