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
	"context"
	"testing"

	"github.com/openadmit/openadmit/internal/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateTree(ctx context.Context, f *Form) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *mockRepo) ApplyPlan(ctx context.Context, plan *Plan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *mockRepo) GetTree(ctx context.Context, tenantID, formID int64) (*Form, error) {
	args := m.Called(ctx, tenantID, formID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Form), args.Error(1)
}

func (m *mockRepo) GetTreeByCode(ctx context.Context, tenantID int64, code string) (*Form, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Form), args.Error(1)
}

func (m *mockRepo) GetByID(ctx context.Context, formID int64) (*Form, error) {
	args := m.Called(ctx, formID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Form), args.Error(1)
}

func (m *mockRepo) List(ctx context.Context, tenantID int64) ([]*Form, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]*Form), args.Error(1)
}

func (m *mockRepo) Delete(ctx context.Context, tenantID, formID int64) error {
	args := m.Called(ctx, tenantID, formID)
	return args.Error(0)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, tenantID int64, code string) (*Form, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Form), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, f *Form) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *mockCache) Invalidate(ctx context.Context, tenantID int64, code string) error {
	args := m.Called(ctx, tenantID, code)
	return args.Error(0)
}

type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) Log(ctx context.Context, event audit.Event) {
	m.Called(ctx, event)
}

// TestPurpose: Validates that saving an edit with id <= 0 creates a new form
// with a generated public code, and that the application URL is derived from
// the persisted code on read rather than stored.
// Scope: Unit Test
// Expected: The insert carries a 6-character code; the returned form's URL
// has the shape {base}/apply/{tenant}/{code} built from the read-back row.
// Test Case ID: FRM-01
func TestForm_Service_Reconcile_CreatesNewForm(t *testing.T) {
	repo := new(mockRepo)
	auditLogger := new(mockAudit)
	service := NewService(repo, nil, auditLogger, "https://portal.example.com")

	ctx := context.Background()
	var createdID int64 = 42
	var code string

	repo.On("CreateTree", ctx, mock.MatchedBy(func(f *Form) bool {
		code = f.PublicCode
		f.ID = createdID
		return f.TenantID == 1 && len(f.PublicCode) == 6
	})).Return(nil)
	// The read-back row has no URL column; the service must derive it.
	repo.On("GetTree", ctx, int64(1), createdID).Return(
		&Form{ID: createdID, TenantID: 1, Name: "Fall 2025", PublicCode: "G7H8J9"}, nil)
	auditLogger.On("Log", ctx, mock.MatchedBy(func(e audit.Event) bool {
		return e.Type == audit.TypeFormCreated && e.TenantID == 1
	})).Return()

	edit := &FormEdit{
		Name:   "Fall 2025",
		Status: StatusDraft,
		Sections: []*SectionEdit{
			{Title: "Personal", Fields: []*FieldEdit{
				{Label: "Full Name", FieldType: FieldTypeText, Required: true},
			}},
		},
	}
	saved, err := service.Reconcile(ctx, 1, edit)

	require.NoError(t, err)
	assert.Equal(t, createdID, saved.ID)
	assert.Len(t, code, 6)
	assert.Equal(t, "https://portal.example.com/apply/1/G7H8J9", saved.ApplicationURL)

	repo.AssertExpectations(t)
	auditLogger.AssertExpectations(t)
}

// TestPurpose: Validates that editing an existing form diffs against the
// stored tree, applies the plan and invalidates the published-schema cache.
// Scope: Unit Test
// Expected: ApplyPlan receives the computed deletions; the cache entry for
// the form's public code is invalidated; the fresh tree is returned.
// Test Case ID: FRM-02
func TestForm_Service_Reconcile_AppliesPlanAndInvalidatesCache(t *testing.T) {
	repo := new(mockRepo)
	cache := new(mockCache)
	auditLogger := new(mockAudit)
	service := NewService(repo, cache, auditLogger, "https://portal.example.com")

	ctx := context.Background()
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

	repo.On("GetTree", ctx, int64(1), int64(10)).Return(existing, nil).Once()
	repo.On("ApplyPlan", ctx, mock.MatchedBy(func(p *Plan) bool {
		return len(p.DeleteSectionIDs) == 1 && p.DeleteSectionIDs[0] == 101
	})).Return(nil)
	cache.On("Invalidate", ctx, int64(1), "A1B2C3").Return(nil)
	repo.On("GetTree", ctx, int64(1), int64(10)).Return(existing, nil).Once()
	auditLogger.On("Log", ctx, mock.MatchedBy(func(e audit.Event) bool {
		return e.Type == audit.TypeFormUpdated
	})).Return()

	_, err := service.Reconcile(ctx, 1, edit)

	require.NoError(t, err)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

// TestPurpose: Validates that a structurally invalid edit never reaches
// storage.
// Scope: Unit Test
// Expected: Reconcile returns a ValidationError without any repository call.
// Test Case ID: FRM-03
func TestForm_Service_Reconcile_RejectsInvalidEdit(t *testing.T) {
	repo := new(mockRepo)
	service := NewService(repo, nil, new(mockAudit), "https://portal.example.com")

	_, err := service.Reconcile(context.Background(), 1, &FormEdit{Name: "", Status: "Bogus"})

	var v *ValidationError
	require.ErrorAs(t, err, &v)
	repo.AssertNotCalled(t, "CreateTree", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "ApplyPlan", mock.Anything, mock.Anything)
}

// TestPurpose: Validates the cache-aside path for public link resolution.
// Scope: Unit Test
// Expected: A cache hit skips the repository; a miss loads and caches.
// Test Case ID: FRM-04
func TestForm_Service_ResolvePublic_CacheAside(t *testing.T) {
	repo := new(mockRepo)
	cache := new(mockCache)
	service := NewService(repo, cache, new(mockAudit), "https://portal.example.com")

	ctx := context.Background()
	cached := &Form{ID: 10, TenantID: 1, PublicCode: "A1B2C3"}

	cache.On("Get", ctx, int64(1), "A1B2C3").Return(cached, nil).Once()
	got, err := service.ResolvePublic(ctx, 1, "A1B2C3")
	require.NoError(t, err)
	assert.Equal(t, cached, got)
	assert.Equal(t, "https://portal.example.com/apply/1/A1B2C3", got.ApplicationURL)
	repo.AssertNotCalled(t, "GetTreeByCode", mock.Anything, mock.Anything, mock.Anything)

	cache.On("Get", ctx, int64(1), "D4E5F6").Return(nil, nil).Once()
	fresh := &Form{ID: 11, TenantID: 1, PublicCode: "D4E5F6"}
	repo.On("GetTreeByCode", ctx, int64(1), "D4E5F6").Return(fresh, nil)
	cache.On("Set", ctx, fresh).Return(nil)

	got, err = service.ResolvePublic(ctx, 1, "D4E5F6")
	require.NoError(t, err)
	assert.Equal(t, fresh, got)

	cache.AssertExpectations(t)
	repo.AssertExpectations(t)
}
