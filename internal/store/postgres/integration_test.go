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

//go:build integration
// +build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/openadmit/openadmit/internal/form"
	"github.com/openadmit/openadmit/internal/store"
	"github.com/openadmit/openadmit/internal/submission"
	"github.com/openadmit/openadmit/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connectDB(t *testing.T) *DB {
	t.Helper()

	ctx := context.Background()
	cfg := Config{
		Host:            "localhost",
		Port:            "5432",
		User:            "openadmit",
		Password:        "openadmit_dev_password",
		Database:        "openadmit",
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Minute,
	}

	db, err := New(ctx, cfg)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to database: %v", err)
	}
	t.Cleanup(db.Close)

	if err := db.Migrate(ctx, InitialSchema); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func createTestTenant(t *testing.T, db *DB, name string) *tenant.Tenant {
	t.Helper()
	ctx := context.Background()

	tn := &tenant.Tenant{
		Name:      name,
		Email:     "admissions@" + uuid.NewString() + ".edu",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, NewTenantRepository(db).Create(ctx, tn))
	t.Cleanup(func() {
		db.pool.Exec(ctx, "DELETE FROM tenants WHERE id = $1", tn.ID)
	})
	return tn
}

func createTestForm(t *testing.T, db *DB, tenantID int64) *form.Form {
	t.Helper()
	ctx := context.Background()

	f := &form.Form{
		TenantID:   tenantID,
		Name:       "Fall Intake",
		Status:     form.StatusActive,
		StartDate:  time.Now().AddDate(0, 0, -1).UTC(),
		EndDate:    time.Now().AddDate(0, 1, 0).UTC(),
		PublicCode: uuid.NewString()[:6],
		CreatedAt:  time.Now().UTC(),
		Sections: []*form.Section{
			{Title: "Personal", Fields: []*form.Field{
				{Label: "Full Name", FieldType: form.FieldTypeText, Required: true},
				{Label: "Country", FieldType: form.FieldTypeSelect, OrderIndex: 1,
					Options: []*form.Option{{Value: "US"}, {Value: "CA"}}},
			}},
		},
	}
	require.NoError(t, NewFormRepository(db).CreateTree(ctx, f))
	return f
}

func createTestUser(t *testing.T, db *DB, tenantID int64) string {
	t.Helper()
	ctx := context.Background()

	id := uuid.NewString()
	_, err := db.pool.Exec(ctx, `
		INSERT INTO users (id, tenant_id, email, full_name, role, password_hash, created_at)
		VALUES ($1, $2, $3, 'Test Applicant', 'student', 'x', $4)
	`, id, tenantID, id+"@example.com", time.Now().UTC())
	require.NoError(t, err)
	return id
}

// TestPurpose: Validates that a schema edit round-trips through the
// database: renamed fields update in place, omitted fields are removed,
// new fields appear and option lists are replaced wholesale.
// Scope: Database Integration Test
// Expected: After ApplyPlan, GetTree reflects exactly the edited tree and
// surviving ids are unchanged.
// Test Case ID: INT-01
func TestFormRepository_ReconcileRoundTrip(t *testing.T) {
	db := connectDB(t)
	ctx := context.Background()
	tn := createTestTenant(t, db, "Roundtrip University")
	f := createTestForm(t, db, tn.ID)
	repo := NewFormRepository(db)

	stored, err := repo.GetTree(ctx, tn.ID, f.ID)
	require.NoError(t, err)
	section := stored.Sections[0]
	nameField := section.Fields[0]
	countryField := section.Fields[1]

	edit := &form.FormEdit{
		ID:        stored.ID,
		Name:      "Fall Intake (Revised)",
		Status:    form.StatusActive,
		StartDate: stored.StartDate,
		EndDate:   stored.EndDate,
		Sections: []*form.SectionEdit{
			{ID: section.ID, Title: "Applicant", Fields: []*form.FieldEdit{
				{ID: nameField.ID, Label: "Legal Name", FieldType: form.FieldTypeText, Required: true},
				// Country is omitted and must go; Essay is new.
				{Label: "Essay", FieldType: form.FieldTypeTextarea, OrderIndex: 1},
			}},
		},
	}
	require.NoError(t, repo.ApplyPlan(ctx, form.BuildPlan(stored, edit)))

	after, err := repo.GetTree(ctx, tn.ID, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fall Intake (Revised)", after.Name)
	assert.Equal(t, stored.PublicCode, after.PublicCode)
	require.Len(t, after.Sections, 1)
	assert.Equal(t, "Applicant", after.Sections[0].Title)

	fields := after.Sections[0].Fields
	require.Len(t, fields, 2)
	assert.Equal(t, nameField.ID, fields[0].ID)
	assert.Equal(t, "Legal Name", fields[0].Label)
	assert.Equal(t, "Essay", fields[1].Label)
	for _, fld := range fields {
		assert.NotEqual(t, countryField.ID, fld.ID)
	}
}

// TestPurpose: Validates the one-application-per-form constraint at the
// database level, including the insert race the service cannot see.
// Scope: Database Integration Test
// Expected: The second insert for the same (form, user) pair fails with
// ErrDuplicateSubmission.
// Test Case ID: INT-02
func TestSubmissionRepository_DuplicateConstraint(t *testing.T) {
	db := connectDB(t)
	ctx := context.Background()
	tn := createTestTenant(t, db, "Duplicate University")
	f := createTestForm(t, db, tn.ID)
	userID := createTestUser(t, db, tn.ID)
	repo := NewSubmissionRepository(db)

	first := &submission.Submission{FormID: f.ID, TenantID: tn.ID, UserID: userID, SubmittedAt: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, first))
	require.NotZero(t, first.ID)

	second := &submission.Submission{FormID: f.ID, TenantID: tn.ID, UserID: userID, SubmittedAt: time.Now().UTC()}
	err := repo.Create(ctx, second)
	assert.ErrorIs(t, err, submission.ErrDuplicateSubmission)
}

// TestPurpose: Validates that a field with recorded answers cannot be
// removed by a schema edit: the restrict constraint surfaces as a
// persistence error and the transaction leaves the tree untouched.
// Scope: Database Integration Test
// Expected: ApplyPlan fails with a PersistenceError; the field is still
// present afterwards.
// Test Case ID: INT-03
func TestFormRepository_DeleteAnsweredFieldRestricted(t *testing.T) {
	db := connectDB(t)
	ctx := context.Background()
	tn := createTestTenant(t, db, "Restrict University")
	f := createTestForm(t, db, tn.ID)
	userID := createTestUser(t, db, tn.ID)
	formRepo := NewFormRepository(db)
	subRepo := NewSubmissionRepository(db)

	stored, err := formRepo.GetTree(ctx, tn.ID, f.ID)
	require.NoError(t, err)
	section := stored.Sections[0]
	answered := section.Fields[0]

	sub := &submission.Submission{FormID: f.ID, TenantID: tn.ID, UserID: userID, SubmittedAt: time.Now().UTC()}
	require.NoError(t, subRepo.Create(ctx, sub))
	require.NoError(t, subRepo.AddAnswers(ctx, sub.ID, []*submission.Answer{
		{FieldID: answered.ID, Value: "Ada Lovelace"},
	}))

	// An edit that keeps the section but drops the answered field.
	edit := &form.FormEdit{
		ID:        stored.ID,
		Name:      stored.Name,
		Status:    stored.Status,
		StartDate: stored.StartDate,
		EndDate:   stored.EndDate,
		Sections: []*form.SectionEdit{
			{ID: section.ID, Title: section.Title, Fields: []*form.FieldEdit{
				{ID: section.Fields[1].ID, Label: section.Fields[1].Label,
					FieldType: section.Fields[1].FieldType, Options: []string{"US", "CA"}},
			}},
		},
	}
	err = formRepo.ApplyPlan(ctx, form.BuildPlan(stored, edit))

	var persistErr *store.PersistenceError
	require.ErrorAs(t, err, &persistErr)

	after, err := formRepo.GetTree(ctx, tn.ID, f.ID)
	require.NoError(t, err)
	require.NotNil(t, after.FieldByID(answered.ID))
}

// TestPurpose: Validates strict tenant isolation on schema reads: a form
// cannot be fetched under another tenant's id, by row id or public code.
// Scope: Database Integration Test
// Security: Multi-tenant Data Separation (CWE-284)
// Expected: GetTree and GetTreeByCode under the wrong tenant fail with
// ErrFormNotFound even though the row exists.
// Test Case ID: ISO-01
func TestFormRepository_TenantIsolation(t *testing.T) {
	db := connectDB(t)
	ctx := context.Background()
	tenantA := createTestTenant(t, db, fmt.Sprintf("Tenant A %s", uuid.NewString()[:8]))
	tenantB := createTestTenant(t, db, fmt.Sprintf("Tenant B %s", uuid.NewString()[:8]))
	f := createTestForm(t, db, tenantA.ID)
	repo := NewFormRepository(db)

	_, err := repo.GetTree(ctx, tenantA.ID, f.ID)
	require.NoError(t, err)

	_, err = repo.GetTree(ctx, tenantB.ID, f.ID)
	assert.ErrorIs(t, err, form.ErrFormNotFound)

	_, err = repo.GetTreeByCode(ctx, tenantB.ID, f.PublicCode)
	assert.ErrorIs(t, err, form.ErrFormNotFound)
}
