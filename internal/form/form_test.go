package form

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcceptingAt(t *testing.T) {
	start := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	f := &Form{Status: StatusActive, StartDate: start, EndDate: end}

	assert.True(t, f.AcceptingAt(start))
	assert.True(t, f.AcceptingAt(end))
	assert.True(t, f.AcceptingAt(start.AddDate(0, 1, 0)))
	assert.False(t, f.AcceptingAt(start.Add(-time.Second)))
	assert.False(t, f.AcceptingAt(end.Add(time.Second)))

	f.Status = StatusPaused
	assert.False(t, f.AcceptingAt(start.AddDate(0, 1, 0)))

	f.Status = StatusDraft
	assert.False(t, f.AcceptingAt(start.AddDate(0, 1, 0)))
}

func TestSortTree_OrderIndexThenID(t *testing.T) {
	f := &Form{
		Sections: []*Section{
			{ID: 3, OrderIndex: 1},
			{ID: 1, OrderIndex: 2},
			{ID: 2, OrderIndex: 1, Fields: []*Field{
				{ID: 30, OrderIndex: 5},
				{ID: 10, OrderIndex: 5},
				{ID: 20, OrderIndex: 1},
			}},
		},
	}

	f.SortTree()

	assert.Equal(t, int64(2), f.Sections[0].ID)
	assert.Equal(t, int64(3), f.Sections[1].ID)
	assert.Equal(t, int64(1), f.Sections[2].ID)

	fields := f.Sections[0].Fields
	assert.Equal(t, int64(20), fields[0].ID)
	assert.Equal(t, int64(10), fields[1].ID)
	assert.Equal(t, int64(30), fields[2].ID)
}

func TestFormEdit_Validate_CollectsAllProblems(t *testing.T) {
	edit := &FormEdit{
		Name:   "",
		Status: "Open",
		Sections: []*SectionEdit{
			{Title: "", Fields: []*FieldEdit{
				{Label: "", FieldType: "dropdown"},
				{Label: "Country", FieldType: FieldTypeSelect},
			}},
		},
	}

	err := edit.Validate()
	require.Error(t, err)

	var v *ValidationError
	require.ErrorAs(t, err, &v)
	assert.Len(t, v.Messages, 6)
}

func TestFormEdit_Validate_DateWindow(t *testing.T) {
	edit := &FormEdit{
		Name:      "Fall 2025",
		Status:    StatusDraft,
		StartDate: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
	}

	var v *ValidationError
	require.ErrorAs(t, edit.Validate(), &v)
	assert.Contains(t, v.Messages[0], "end date")
}

func TestFormEdit_Validate_OK(t *testing.T) {
	edit := &FormEdit{
		Name:   "Fall 2025",
		Status: StatusActive,
		Sections: []*SectionEdit{
			{Title: "Personal", Fields: []*FieldEdit{
				{Label: "Name", FieldType: FieldTypeText, Required: true},
				{Label: "Country", FieldType: FieldTypeSelect, Options: []string{"US"}},
			}},
		},
	}
	assert.NoError(t, edit.Validate())
}
