package form

import (
	"sort"
	"time"
)

// Form status values
const (
	StatusDraft  = "Draft"
	StatusActive = "Active"
	StatusPaused = "Paused"
)

// Field types
const (
	FieldTypeText     = "text"
	FieldTypeTextarea = "textarea"
	FieldTypeSelect   = "select"
	FieldTypeRadio    = "radio"
	FieldTypeCheckbox = "checkbox"
	FieldTypeDate     = "date"
	FieldTypeEmail    = "email"
	FieldTypeNumber   = "number"
	FieldTypeFile     = "file"
)

// Form is a tenant's configurable application definition: the root of the
// Section → Field → Option schema tree.
type Form struct {
	ID             int64      `json:"id"`
	TenantID       int64      `json:"tenant_id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Status         string     `json:"status"`
	StartDate      time.Time  `json:"start_date"`
	EndDate        time.Time  `json:"end_date"`
	ApplicationURL string     `json:"application_url"`
	PublicCode     string     `json:"public_code"`
	CreatedAt      time.Time  `json:"created_at"`
	Sections       []*Section `json:"sections,omitempty"`
}

// Section groups fields within a form
type Section struct {
	ID          int64    `json:"id"`
	FormID      int64    `json:"form_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	OrderIndex  int      `json:"order_index"`
	Fields      []*Field `json:"fields,omitempty"`
}

// Field is a single question within a section
type Field struct {
	ID         int64     `json:"id"`
	SectionID  int64     `json:"section_id"`
	Label      string    `json:"label"`
	FieldType  string    `json:"field_type"`
	Required   bool      `json:"required"`
	OrderIndex int       `json:"order_index"`
	Options    []*Option `json:"options,omitempty"`
}

// Option is one selectable value of a choice field
type Option struct {
	ID      int64  `json:"id"`
	FieldID int64  `json:"field_id"`
	Value   string `json:"value"`
}

// ValidFieldType reports whether t is a known field type.
func ValidFieldType(t string) bool {
	switch t {
	case FieldTypeText, FieldTypeTextarea, FieldTypeSelect, FieldTypeRadio,
		FieldTypeCheckbox, FieldTypeDate, FieldTypeEmail, FieldTypeNumber,
		FieldTypeFile:
		return true
	}
	return false
}

// IsChoiceType reports whether fields of type t carry options.
func IsChoiceType(t string) bool {
	switch t {
	case FieldTypeSelect, FieldTypeRadio, FieldTypeCheckbox:
		return true
	}
	return false
}

// AcceptingAt reports whether the form accepts submissions at the given
// time: status Active and inside the [StartDate, EndDate] window.
func (f *Form) AcceptingAt(now time.Time) bool {
	if f.Status != StatusActive {
		return false
	}
	return !now.Before(f.StartDate) && !now.After(f.EndDate)
}

// SortTree orders the schema tree for rendering and export: order index
// ascending, ties broken by id ascending. Insertion order is never relied on.
func (f *Form) SortTree() {
	sort.SliceStable(f.Sections, func(i, j int) bool {
		if f.Sections[i].OrderIndex != f.Sections[j].OrderIndex {
			return f.Sections[i].OrderIndex < f.Sections[j].OrderIndex
		}
		return f.Sections[i].ID < f.Sections[j].ID
	})
	for _, s := range f.Sections {
		sort.SliceStable(s.Fields, func(i, j int) bool {
			if s.Fields[i].OrderIndex != s.Fields[j].OrderIndex {
				return s.Fields[i].OrderIndex < s.Fields[j].OrderIndex
			}
			return s.Fields[i].ID < s.Fields[j].ID
		})
	}
}

// AllFields returns every field of the form in render order. SortTree must
// have been called (repositories return sorted trees).
func (f *Form) AllFields() []*Field {
	var fields []*Field
	for _, s := range f.Sections {
		fields = append(fields, s.Fields...)
	}
	return fields
}

// FieldByID looks up a field anywhere in the tree.
func (f *Form) FieldByID(fieldID int64) *Field {
	for _, s := range f.Sections {
		for _, fld := range s.Fields {
			if fld.ID == fieldID {
				return fld
			}
		}
	}
	return nil
}
