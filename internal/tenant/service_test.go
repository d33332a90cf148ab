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

package tenant

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

func (m *mockRepo) Create(ctx context.Context, t *Tenant) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id int64) (*Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Tenant), args.Error(1)
}

func (m *mockRepo) GetByName(ctx context.Context, name string) (*Tenant, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Tenant), args.Error(1)
}

func (m *mockRepo) Update(ctx context.Context, t *Tenant) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockRepo) List(ctx context.Context, limit, offset int) ([]*Tenant, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*Tenant), args.Error(1)
}

type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) Log(ctx context.Context, event audit.Event) {
	m.Called(ctx, event)
}

// TestPurpose: Validates institution onboarding: required contact details
// and an audit trail.
// Scope: Unit Test
// Expected: A tenant with name and email is created and audited; missing
// fields are rejected before any repository call.
// Test Case ID: TEN-01
func TestTenant_Service_Create(t *testing.T) {
	repo := new(mockRepo)
	auditLogger := new(mockAudit)
	service := NewService(repo, auditLogger)
	ctx := context.Background()

	repo.On("Create", ctx, mock.MatchedBy(func(tn *Tenant) bool {
		return tn.Name == "Springfield University" && !tn.CreatedAt.IsZero()
	})).Return(nil)
	auditLogger.On("Log", ctx, mock.MatchedBy(func(e audit.Event) bool {
		return e.Type == audit.TypeTenantCreated
	})).Return()

	created, err := service.Create(ctx, &Tenant{
		Name:  "Springfield University",
		Email: "admissions@springfield.edu",
	})
	require.NoError(t, err)
	assert.Equal(t, "Springfield University", created.Name)
	repo.AssertExpectations(t)

	_, err = service.Create(ctx, &Tenant{Email: "admissions@springfield.edu"})
	assert.Error(t, err)
	_, err = service.Create(ctx, &Tenant{Name: "No Contact"})
	assert.Error(t, err)
}
