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

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureForm() *Form {
	return &Form{
		ID:         10,
		TenantID:   1,
		Name:       "Fall 2025",
		Status:     StatusActive,
		PublicCode: "A1B2C3",
		CreatedAt:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Sections: []*Section{
			{
				ID:     100,
				FormID: 10,
				Title:  "Personal",
				Fields: []*Field{
					{ID: 1000, SectionID: 100, Label: "Full Name", FieldType: FieldTypeText, Required: true},
					{ID: 1001, SectionID: 100, Label: "Country", FieldType: FieldTypeSelect, Options: []*Option{
						{ID: 5000, FieldID: 1001, Value: "US"},
						{ID: 5001, FieldID: 1001, Value: "CA"},
					}},
				},
			},
			{
				ID:     101,
				FormID: 10,
				Title:  "Documents",
				Fields: []*Field{
					{ID: 1002, SectionID: 101, Label: "Transcript", FieldType: FieldTypeFile, Required: true},
				},
			},
		},
	}
}

// TestPurpose: Validates the three-way partition of edited entries: present
// positive ids update, non-positive ids insert, omitted stored ids delete.
// Scope: Unit Test
// Expected: Each stored section and field lands in exactly one of the
// update, insert or delete sets.
// Test Case ID: REC-01
func TestBuildPlan_Partition(t *testing.T) {
	existing := fixtureForm()

	edit := &FormEdit{
		ID:     10,
		Name:   "Fall 2025 (v2)",
		Status: StatusActive,
		Sections: []*SectionEdit{
			{
				ID:    100,
				Title: "Personal Details",
				Fields: []*FieldEdit{
					{ID: 1000, Label: "Legal Name", FieldType: FieldTypeText, Required: true},
					{ID: -1, Label: "Email", FieldType: FieldTypeEmail, Required: true},
					// 1001 omitted: deleted
				},
			},
			// section 101 omitted: deleted with its subtree
			{
				ID:    0,
				Title: "Essays",
				Fields: []*FieldEdit{
					{Label: "Motivation", FieldType: FieldTypeTextarea},
				},
			},
		},
	}

	plan := BuildPlan(existing, edit)

	assert.Equal(t, []int64{101}, plan.DeleteSectionIDs)
	assert.Equal(t, []int64{1001}, plan.DeleteFieldIDs)

	require.Len(t, plan.UpdateSections, 1)
	assert.Equal(t, int64(100), plan.UpdateSections[0].ID)
	assert.Equal(t, "Personal Details", plan.UpdateSections[0].Title)

	require.Len(t, plan.UpdateFields, 1)
	assert.Equal(t, int64(1000), plan.UpdateFields[0].ID)
	assert.Equal(t, "Legal Name", plan.UpdateFields[0].Label)

	require.Len(t, plan.InsertFields[100], 1)
	assert.Equal(t, "Email", plan.InsertFields[100][0].Label)

	require.Len(t, plan.InsertSections, 1)
	assert.Equal(t, "Essays", plan.InsertSections[0].Title)
	require.Len(t, plan.InsertSections[0].Fields, 1)
	assert.Equal(t, "Motivation", plan.InsertSections[0].Fields[0].Label)
}

// TestPurpose: Validates that descendants of a deleted section are not
// individually listed; the cascade owns them.
// Scope: Unit Test
// Expected: Deleting section 101 does not put field 1002 in DeleteFieldIDs.
// Test Case ID: REC-02
func TestBuildPlan_DeletedSectionOwnsSubtree(t *testing.T) {
	existing := fixtureForm()

	edit := &FormEdit{
		ID:     10,
		Name:   "Fall 2025",
		Status: StatusActive,
		Sections: []*SectionEdit{
			{ID: 100, Title: "Personal", Fields: []*FieldEdit{
				{ID: 1000, Label: "Full Name", FieldType: FieldTypeText, Required: true},
				{ID: 1001, Label: "Country", FieldType: FieldTypeSelect, Options: []string{"US"}},
			}},
		},
	}

	plan := BuildPlan(existing, edit)

	assert.Equal(t, []int64{101}, plan.DeleteSectionIDs)
	assert.Empty(t, plan.DeleteFieldIDs)
}

// TestPurpose: Validates that option rows of a surviving field are replaced
// wholesale rather than diffed.
// Scope: Unit Test
// Expected: ReplaceOptions carries the edit's values for every updated
// field, even when they match the stored ones.
// Test Case ID: REC-03
func TestBuildPlan_OptionsReplacedWholesale(t *testing.T) {
	existing := fixtureForm()

	edit := &FormEdit{
		ID:     10,
		Name:   "Fall 2025",
		Status: StatusActive,
		Sections: []*SectionEdit{
			{ID: 100, Title: "Personal", Fields: []*FieldEdit{
				{ID: 1000, Label: "Full Name", FieldType: FieldTypeText, Required: true},
				{ID: 1001, Label: "Country", FieldType: FieldTypeSelect, Options: []string{"US", "CA", "MX"}},
			}},
			{ID: 101, Title: "Documents", Fields: []*FieldEdit{
				{ID: 1002, Label: "Transcript", FieldType: FieldTypeFile, Required: true},
			}},
		},
	}

	plan := BuildPlan(existing, edit)

	require.Contains(t, plan.ReplaceOptions, int64(1001))
	opts := plan.ReplaceOptions[int64(1001)]
	require.Len(t, opts, 3)
	assert.Equal(t, "MX", opts[2].Value)

	// Non-choice fields get an empty replacement set.
	assert.Empty(t, plan.ReplaceOptions[int64(1000)])
}

// TestPurpose: Validates that an edit referencing a positive id that no
// longer exists in storage is dropped silently.
// Scope: Unit Test
// Expected: The stale entry produces neither an update nor an insert.
// Test Case ID: REC-04
func TestBuildPlan_StaleIDIgnored(t *testing.T) {
	existing := fixtureForm()

	edit := &FormEdit{
		ID:     10,
		Name:   "Fall 2025",
		Status: StatusActive,
		Sections: []*SectionEdit{
			{ID: 100, Title: "Personal", Fields: []*FieldEdit{
				{ID: 1000, Label: "Full Name", FieldType: FieldTypeText, Required: true},
				{ID: 1001, Label: "Country", FieldType: FieldTypeSelect, Options: []string{"US"}},
				{ID: 99999, Label: "Ghost", FieldType: FieldTypeText},
			}},
			{ID: 88888, Title: "Ghost Section"},
			{ID: 101, Title: "Documents", Fields: []*FieldEdit{
				{ID: 1002, Label: "Transcript", FieldType: FieldTypeFile, Required: true},
			}},
		},
	}

	plan := BuildPlan(existing, edit)

	assert.Empty(t, plan.DeleteSectionIDs)
	assert.Empty(t, plan.DeleteFieldIDs)
	assert.Len(t, plan.UpdateSections, 2)
	assert.Len(t, plan.UpdateFields, 3)
	assert.Empty(t, plan.InsertSections)
	assert.Empty(t, plan.InsertFields)
}

// TestPurpose: Validates that a malformed edit tree is rejected before any
// planning: an edit with no sections, or with a field-less section, would
// wipe schema by omission and must fail validation instead.
// Scope: Unit Test
// Expected: Both shapes return a ValidationError naming the structural
// problem; a well-formed edit passes.
// Test Case ID: REC-05
func TestFormEdit_Validate_RejectsEmptyTree(t *testing.T) {
	noSections := &FormEdit{ID: 10, Name: "Fall 2025", Status: StatusActive}

	var v *ValidationError
	require.ErrorAs(t, noSections.Validate(), &v)
	assert.Contains(t, v.Messages, "a form needs at least one section")

	emptySection := &FormEdit{
		ID:     10,
		Name:   "Fall 2025",
		Status: StatusActive,
		Sections: []*SectionEdit{
			{Title: "Personal"},
		},
	}

	v = nil
	require.ErrorAs(t, emptySection.Validate(), &v)
	assert.Contains(t, v.Messages, "section 1: at least one field is required")
}

// TestPurpose: Validates that form identity survives an edit: the public
// code and creation time come from storage, never from the client.
// Scope: Unit Test
// Expected: The plan's form keeps PublicCode and CreatedAt of the stored row
// while taking name, status and dates from the edit.
// Test Case ID: REC-06
func TestBuildPlan_IdentityPreserved(t *testing.T) {
	existing := fixtureForm()

	edit := &FormEdit{
		ID:        10,
		Name:      "Renamed",
		Status:    StatusPaused,
		StartDate: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
	}

	plan := BuildPlan(existing, edit)

	assert.Equal(t, "A1B2C3", plan.Form.PublicCode)
	assert.Equal(t, existing.CreatedAt, plan.Form.CreatedAt)
	assert.Equal(t, existing.TenantID, plan.Form.TenantID)
	assert.Equal(t, "Renamed", plan.Form.Name)
	assert.Equal(t, StatusPaused, plan.Form.Status)
}
