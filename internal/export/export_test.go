package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/openadmit/openadmit/internal/form"
	"github.com/openadmit/openadmit/internal/submission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportFixture() (*form.Form, []*submission.WithApplicant) {
	f := &form.Form{
		ID:       10,
		TenantID: 1,
		Name:     "Fall 2025",
		Sections: []*form.Section{
			{ID: 100, Fields: []*form.Field{
				{ID: 1000, Label: "Full Name", FieldType: form.FieldTypeText},
				{ID: 1001, Label: "Country", FieldType: form.FieldTypeSelect},
			}},
			{ID: 101, OrderIndex: 1, Fields: []*form.Field{
				{ID: 1002, Label: "Transcript", FieldType: form.FieldTypeFile},
			}},
		},
	}

	subs := []*submission.WithApplicant{
		{
			Submission: submission.Submission{
				ID:          7,
				FormID:      10,
				SubmittedAt: time.Date(2025, 9, 14, 10, 30, 0, 0, time.UTC),
				Answers: []*submission.Answer{
					{FieldID: 1000, Value: "Ada Lovelace"},
					{FieldID: 1002, Value: "uploads/u1/7/field_1002_x.pdf", Filename: "grades.pdf", IsFile: true},
				},
			},
			ApplicantName:  "Ada Lovelace",
			ApplicantEmail: "ada@example.com",
		},
	}
	return f, subs
}

func TestWriteCSV_HeaderAndRows(t *testing.T) {
	f, subs := exportFixture()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, f, subs))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, []string{
		"Submission ID", "Applicant Name", "Email", "Submitted On",
		"Full Name", "Country", "Transcript",
	}, records[0])

	row := records[1]
	assert.Equal(t, "7", row[0])
	assert.Equal(t, "Ada Lovelace", row[1])
	assert.Equal(t, "ada@example.com", row[2])
	assert.Equal(t, "2025-09-14 10:30", row[3])
	assert.Equal(t, "Ada Lovelace", row[4])
	// Unanswered field exports as empty cell.
	assert.Equal(t, "", row[5])
	// File answers show the uploaded name, not the stored object path.
	assert.Equal(t, "grades.pdf", row[6])
}

func TestWriteXLSX_ProducesWorkbook(t *testing.T) {
	f, subs := exportFixture()

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, f, subs))
	// XLSX files are zip archives.
	assert.Equal(t, []byte{'P', 'K'}, buf.Bytes()[:2])
}

func TestFilename(t *testing.T) {
	now := time.Date(2025, 9, 14, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Fall_2025_Applications_20250914.csv", Filename("Fall 2025", "csv", now))
	assert.Equal(t, "Fall_2025_Applications_20250914.xlsx", Filename("Fall/2025", "xlsx", now))
}
