package form

import (
	"fmt"
	"strings"
	"time"
)

// FormEdit is a full desired-state description of a form's schema as sent by
// a staff client. IDs greater than zero refer to existing rows; zero or
// negative IDs mark new entries. Anything persisted but absent from the edit
// is deleted.
type FormEdit struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Status      string         `json:"status"`
	StartDate   time.Time      `json:"start_date"`
	EndDate     time.Time      `json:"end_date"`
	Sections    []*SectionEdit `json:"sections"`
}

// SectionEdit describes one section of the desired schema.
type SectionEdit struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	OrderIndex  int          `json:"order_index"`
	Fields      []*FieldEdit `json:"fields"`
}

// FieldEdit describes one field of the desired schema. Options are plain
// values: on update the stored option rows are replaced wholesale, so option
// identity is never tracked across edits.
type FieldEdit struct {
	ID         int64    `json:"id"`
	Label      string   `json:"label"`
	FieldType  string   `json:"field_type"`
	Required   bool     `json:"required"`
	OrderIndex int      `json:"order_index"`
	Options    []string `json:"options"`
}

// Validate checks the edit for structural problems before any reconciliation
// work starts. All problems are reported, not just the first.
func (e *FormEdit) Validate() error {
	var v ValidationError

	if strings.TrimSpace(e.Name) == "" {
		v.Add("form name is required")
	}
	switch e.Status {
	case StatusDraft, StatusActive, StatusPaused:
	default:
		v.Add(fmt.Sprintf("unknown form status %q", e.Status))
	}
	if !e.StartDate.IsZero() && !e.EndDate.IsZero() && e.EndDate.Before(e.StartDate) {
		v.Add("end date must not precede start date")
	}
	if len(e.Sections) == 0 {
		v.Add("a form needs at least one section")
	}

	for si, sec := range e.Sections {
		if strings.TrimSpace(sec.Title) == "" {
			v.Add(fmt.Sprintf("section %d: title is required", si+1))
		}
		if len(sec.Fields) == 0 {
			v.Add(fmt.Sprintf("section %d: at least one field is required", si+1))
		}
		for fi, fld := range sec.Fields {
			if strings.TrimSpace(fld.Label) == "" {
				v.Add(fmt.Sprintf("section %d, field %d: label is required", si+1, fi+1))
			}
			if !ValidFieldType(fld.FieldType) {
				v.Add(fmt.Sprintf("section %d, field %d: unknown field type %q", si+1, fi+1, fld.FieldType))
			}
			if IsChoiceType(fld.FieldType) && len(fld.Options) == 0 {
				v.Add(fmt.Sprintf("section %d, field %d: %s fields need at least one option", si+1, fi+1, fld.FieldType))
			}
		}
	}

	if v.Empty() {
		return nil
	}
	return &v
}
