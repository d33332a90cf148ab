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

// Package export renders a form's submissions as spreadsheet files for
// staff download. Columns follow the schema tree's render order, so the
// export matches what applicants saw.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/openadmit/openadmit/internal/form"
	"github.com/openadmit/openadmit/internal/submission"
)

const timeLayout = "2006-01-02 15:04"

// Filename builds the download name for an export, e.g.
// "Fall_2025_Applications_20250914.csv".
func Filename(formName, ext string, now time.Time) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, formName)
	return fmt.Sprintf("%s_Applications_%s.%s", safe, now.Format("20060102"), ext)
}

// header returns the fixed columns followed by one column per schema field.
func header(f *form.Form) ([]string, []*form.Field) {
	fields := f.AllFields()
	row := []string{"Submission ID", "Applicant Name", "Email", "Submitted On"}
	for _, fld := range fields {
		row = append(row, fld.Label)
	}
	return row, fields
}

// row renders one submission. Unanswered fields produce empty cells; file
// answers export the name the applicant uploaded under, not the stored path.
func row(sub *submission.WithApplicant, fields []*form.Field) []string {
	byField := make(map[int64]string, len(sub.Answers))
	for _, a := range sub.Answers {
		if a.IsFile && a.Filename != "" {
			byField[a.FieldID] = a.Filename
			continue
		}
		byField[a.FieldID] = a.Value
	}

	out := []string{
		strconv.FormatInt(sub.ID, 10),
		sub.ApplicantName,
		sub.ApplicantEmail,
		sub.SubmittedAt.Format(timeLayout),
	}
	for _, fld := range fields {
		out = append(out, byField[fld.ID])
	}
	return out
}

// WriteCSV streams the export as CSV.
func WriteCSV(w io.Writer, f *form.Form, subs []*submission.WithApplicant) error {
	cw := csv.NewWriter(w)

	head, fields := header(f)
	if err := cw.Write(head); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, sub := range subs {
		if err := cw.Write(row(sub, fields)); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// WriteXLSX streams the export as an Excel workbook with one sheet named
// "Applications".
func WriteXLSX(w io.Writer, f *form.Form, subs []*submission.WithApplicant) error {
	wb := excelize.NewFile()
	defer wb.Close()

	const sheet = "Applications"
	idx, err := wb.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	wb.SetActiveSheet(idx)
	if err := wb.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	head, fields := header(f)
	if err := writeSheetRow(wb, sheet, 1, head); err != nil {
		return err
	}
	for i, sub := range subs {
		if err := writeSheetRow(wb, sheet, i+2, row(sub, fields)); err != nil {
			return err
		}
	}

	if err := wb.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheetRow(wb *excelize.File, sheet string, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("failed to compute cell name: %w", err)
	}
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := wb.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write sheet row: %w", err)
	}
	return nil
}
