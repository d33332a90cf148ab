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
	"github.com/openadmit/openadmit/internal/form"
	"github.com/openadmit/openadmit/internal/store"
)

// FormRepository implements form.Repository
type FormRepository struct {
	db *DB
}

// NewFormRepository creates a new form repository
func NewFormRepository(db *DB) *FormRepository {
	return &FormRepository{db: db}
}

// CreateTree inserts a new form with its whole schema tree in one transaction.
func (r *FormRepository) CreateTree(ctx context.Context, f *form.Form) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO forms (tenant_id, name, description, status, start_date, end_date, public_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, f.TenantID, f.Name, f.Description, f.Status, f.StartDate, f.EndDate, f.PublicCode, f.CreatedAt).Scan(&f.ID)
	if err != nil {
		return fmt.Errorf("failed to insert form: %w", err)
	}

	for _, s := range f.Sections {
		s.FormID = f.ID
		if err := insertSectionTree(ctx, tx, s); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit form: %w", err)
	}
	return nil
}

// ApplyPlan executes a reconciliation plan in one transaction. Deletes run
// first so reordered trees never collide, then updates, then inserts.
func (r *FormRepository) ApplyPlan(ctx context.Context, plan *form.Plan) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, fieldID := range plan.DeleteFieldIDs {
		if _, err := tx.Exec(ctx, `DELETE FROM form_fields WHERE id = $1`, fieldID); err != nil {
			return mapFKViolation(err, "delete field")
		}
	}
	for _, sectionID := range plan.DeleteSectionIDs {
		if _, err := tx.Exec(ctx, `DELETE FROM form_sections WHERE id = $1`, sectionID); err != nil {
			return mapFKViolation(err, "delete section")
		}
	}

	f := plan.Form
	result, err := tx.Exec(ctx, `
		UPDATE forms SET name = $3, description = $4, status = $5, start_date = $6, end_date = $7
		WHERE id = $1 AND tenant_id = $2
	`, f.ID, f.TenantID, f.Name, f.Description, f.Status, f.StartDate, f.EndDate)
	if err != nil {
		return fmt.Errorf("failed to update form: %w", err)
	}
	if result.RowsAffected() == 0 {
		return form.ErrFormNotFound
	}

	for _, s := range plan.UpdateSections {
		_, err := tx.Exec(ctx, `
			UPDATE form_sections SET title = $2, description = $3, order_index = $4
			WHERE id = $1 AND form_id = $5
		`, s.ID, s.Title, s.Description, s.OrderIndex, f.ID)
		if err != nil {
			return fmt.Errorf("failed to update section: %w", err)
		}
	}

	for _, fld := range plan.UpdateFields {
		_, err := tx.Exec(ctx, `
			UPDATE form_fields SET label = $2, field_type = $3, required = $4, order_index = $5
			WHERE id = $1
		`, fld.ID, fld.Label, fld.FieldType, fld.Required, fld.OrderIndex)
		if err != nil {
			return fmt.Errorf("failed to update field: %w", err)
		}
	}

	// Options of surviving fields are replaced wholesale.
	for fieldID, opts := range plan.ReplaceOptions {
		if _, err := tx.Exec(ctx, `DELETE FROM field_options WHERE field_id = $1`, fieldID); err != nil {
			return fmt.Errorf("failed to clear options: %w", err)
		}
		for _, opt := range opts {
			if _, err := tx.Exec(ctx, `
				INSERT INTO field_options (field_id, value) VALUES ($1, $2)
			`, fieldID, opt.Value); err != nil {
				return fmt.Errorf("failed to insert option: %w", err)
			}
		}
	}

	for sectionID, fields := range plan.InsertFields {
		for _, fld := range fields {
			fld.SectionID = sectionID
			if err := insertField(ctx, tx, fld); err != nil {
				return err
			}
		}
	}

	for _, s := range plan.InsertSections {
		s.FormID = f.ID
		if err := insertSectionTree(ctx, tx, s); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit plan: %w", err)
	}
	return nil
}

func insertSectionTree(ctx context.Context, tx pgx.Tx, s *form.Section) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO form_sections (form_id, title, description, order_index)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, s.FormID, s.Title, s.Description, s.OrderIndex).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("failed to insert section: %w", err)
	}

	for _, fld := range s.Fields {
		fld.SectionID = s.ID
		if err := insertField(ctx, tx, fld); err != nil {
			return err
		}
	}
	return nil
}

func insertField(ctx context.Context, tx pgx.Tx, fld *form.Field) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO form_fields (section_id, label, field_type, required, order_index)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, fld.SectionID, fld.Label, fld.FieldType, fld.Required, fld.OrderIndex).Scan(&fld.ID)
	if err != nil {
		return fmt.Errorf("failed to insert field: %w", err)
	}

	for _, opt := range fld.Options {
		opt.FieldID = fld.ID
		if _, err := tx.Exec(ctx, `
			INSERT INTO field_options (field_id, value) VALUES ($1, $2)
		`, fld.ID, opt.Value); err != nil {
			return fmt.Errorf("failed to insert option: %w", err)
		}
	}
	return nil
}

// mapFKViolation turns a restrict-constraint failure (a field that already
// has recorded answers) into a PersistenceError the service layer can
// surface without parsing driver errors.
func mapFKViolation(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return store.NewPersistenceError(op, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// GetTree loads a tenant's form with its full, sorted schema tree.
func (r *FormRepository) GetTree(ctx context.Context, tenantID, formID int64) (*form.Form, error) {
	f, err := r.getForm(ctx, `WHERE id = $1 AND tenant_id = $2`, formID, tenantID)
	if err != nil {
		return nil, err
	}
	if err := r.loadTree(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// GetTreeByCode resolves a public application link to its form tree.
func (r *FormRepository) GetTreeByCode(ctx context.Context, tenantID int64, code string) (*form.Form, error) {
	f, err := r.getForm(ctx, `WHERE tenant_id = $1 AND public_code = $2`, tenantID, code)
	if err != nil {
		return nil, err
	}
	if err := r.loadTree(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// GetByID loads a form row without its tree, unscoped by tenant.
func (r *FormRepository) GetByID(ctx context.Context, formID int64) (*form.Form, error) {
	return r.getForm(ctx, `WHERE id = $1`, formID)
}

func (r *FormRepository) getForm(ctx context.Context, where string, args ...any) (*form.Form, error) {
	var f form.Form
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, tenant_id, name, description, status, start_date, end_date, public_code, created_at
		FROM forms `+where,
		args...,
	).Scan(
		&f.ID, &f.TenantID, &f.Name, &f.Description, &f.Status,
		&f.StartDate, &f.EndDate, &f.PublicCode, &f.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, form.ErrFormNotFound
		}
		return nil, fmt.Errorf("failed to get form: %w", err)
	}
	return &f, nil
}

// loadTree fills in sections, fields and options, sorted by order index.
func (r *FormRepository) loadTree(ctx context.Context, f *form.Form) error {
	sections, err := r.loadSections(ctx, f.ID)
	if err != nil {
		return err
	}
	f.Sections = sections

	fieldsBySection, fieldIDs, err := r.loadFields(ctx, f.ID)
	if err != nil {
		return err
	}
	for _, s := range f.Sections {
		s.Fields = fieldsBySection[s.ID]
	}

	if len(fieldIDs) > 0 {
		if err := r.loadOptions(ctx, f); err != nil {
			return err
		}
	}

	f.SortTree()
	return nil
}

func (r *FormRepository) loadSections(ctx context.Context, formID int64) ([]*form.Section, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, form_id, title, description, order_index
		FROM form_sections
		WHERE form_id = $1
		ORDER BY order_index, id
	`, formID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sections: %w", err)
	}
	defer rows.Close()

	var sections []*form.Section
	for rows.Next() {
		var s form.Section
		if err := rows.Scan(&s.ID, &s.FormID, &s.Title, &s.Description, &s.OrderIndex); err != nil {
			return nil, fmt.Errorf("failed to scan section: %w", err)
		}
		sections = append(sections, &s)
	}
	return sections, rows.Err()
}

func (r *FormRepository) loadFields(ctx context.Context, formID int64) (map[int64][]*form.Field, []int64, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT ff.id, ff.section_id, ff.label, ff.field_type, ff.required, ff.order_index
		FROM form_fields ff
		JOIN form_sections fs ON fs.id = ff.section_id
		WHERE fs.form_id = $1
		ORDER BY ff.order_index, ff.id
	`, formID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load fields: %w", err)
	}
	defer rows.Close()

	bySection := make(map[int64][]*form.Field)
	var ids []int64
	for rows.Next() {
		var fld form.Field
		if err := rows.Scan(&fld.ID, &fld.SectionID, &fld.Label, &fld.FieldType, &fld.Required, &fld.OrderIndex); err != nil {
			return nil, nil, fmt.Errorf("failed to scan field: %w", err)
		}
		bySection[fld.SectionID] = append(bySection[fld.SectionID], &fld)
		ids = append(ids, fld.ID)
	}
	return bySection, ids, rows.Err()
}

func (r *FormRepository) loadOptions(ctx context.Context, f *form.Form) error {
	rows, err := r.db.pool.Query(ctx, `
		SELECT fo.id, fo.field_id, fo.value
		FROM field_options fo
		JOIN form_fields ff ON ff.id = fo.field_id
		JOIN form_sections fs ON fs.id = ff.section_id
		WHERE fs.form_id = $1
		ORDER BY fo.id
	`, f.ID)
	if err != nil {
		return fmt.Errorf("failed to load options: %w", err)
	}
	defer rows.Close()

	byField := make(map[int64][]*form.Option)
	for rows.Next() {
		var opt form.Option
		if err := rows.Scan(&opt.ID, &opt.FieldID, &opt.Value); err != nil {
			return fmt.Errorf("failed to scan option: %w", err)
		}
		byField[opt.FieldID] = append(byField[opt.FieldID], &opt)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, s := range f.Sections {
		for _, fld := range s.Fields {
			fld.Options = byField[fld.ID]
		}
	}
	return nil
}

// List returns a tenant's forms without trees, newest first.
func (r *FormRepository) List(ctx context.Context, tenantID int64) ([]*form.Form, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, tenant_id, name, description, status, start_date, end_date, public_code, created_at
		FROM forms
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}
	defer rows.Close()

	var forms []*form.Form
	for rows.Next() {
		var f form.Form
		if err := rows.Scan(
			&f.ID, &f.TenantID, &f.Name, &f.Description, &f.Status,
			&f.StartDate, &f.EndDate, &f.PublicCode, &f.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan form: %w", err)
		}
		forms = append(forms, &f)
	}
	return forms, rows.Err()
}

// Delete removes a form with its schema tree. Submissions reference forms
// with a restrict constraint, so a form that has recorded applications
// cannot be deleted; the violation surfaces as a PersistenceError.
func (r *FormRepository) Delete(ctx context.Context, tenantID, formID int64) error {
	result, err := r.db.pool.Exec(ctx, `
		DELETE FROM forms WHERE id = $1 AND tenant_id = $2
	`, formID, tenantID)
	if err != nil {
		return mapFKViolation(err, "delete form")
	}
	if result.RowsAffected() == 0 {
		return form.ErrFormNotFound
	}
	return nil
}
