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

package identity

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/openadmit/openadmit/internal/audit"
	"github.com/openadmit/openadmit/internal/auth"
	"github.com/openadmit/openadmit/internal/authz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *mockRepo) GetByEmail(ctx context.Context, tenantID int64, email string) (*User, error) {
	args := m.Called(ctx, tenantID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *mockRepo) ListByTenant(ctx context.Context, tenantID int64) ([]*User, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]*User), args.Error(1)
}

type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) Log(ctx context.Context, event audit.Event) {
	m.Called(ctx, event)
}

func testHasher() *auth.PasswordHasher {
	// Cheap parameters keep the suite fast.
	return auth.NewPasswordHasher(8192, 1, 1, 16, 32)
}

// TestPurpose: Validates that registration normalizes the email, hashes the
// password and assigns a UUIDv7 id under the caller's tenant.
// Scope: Unit Test
// Expected: The stored user has a lowercase email, a UUIDv7 id, the given
// role and no plaintext password.
// Test Case ID: IDN-01
func TestIdentity_Service_Register(t *testing.T) {
	repo := new(mockRepo)
	auditLogger := new(mockAudit)
	service := NewService(repo, testHasher(), auditLogger)

	ctx := context.Background()
	repo.On("GetByEmail", ctx, int64(1), "ada@example.com").Return(nil, ErrUserNotFound)
	repo.On("Create", ctx, mock.MatchedBy(func(u *User) bool {
		uid, err := uuid.Parse(u.ID)
		if err != nil || uid.Version() != 7 {
			return false
		}
		return u.TenantID == 1 &&
			u.Email == "ada@example.com" &&
			u.Role == authz.RoleStudent &&
			u.PasswordHash != "" &&
			u.PasswordHash != "s3cret"
	})).Return(nil)
	auditLogger.On("Log", ctx, mock.MatchedBy(func(e audit.Event) bool {
		return e.Type == audit.TypeUserCreated && e.TenantID == 1
	})).Return()

	user, err := service.Register(ctx, 1, "  Ada@Example.com ", "Ada Lovelace", authz.RoleStudent, "s3cret")

	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	repo.AssertExpectations(t)
}

// TestPurpose: Validates rejection of duplicate emails within a tenant and
// of unknown roles.
// Scope: Unit Test
// Expected: ErrUserAlreadyExists for a taken address; ErrInvalidRole for a
// made-up role.
// Test Case ID: IDN-02
func TestIdentity_Service_Register_Rejections(t *testing.T) {
	repo := new(mockRepo)
	service := NewService(repo, testHasher(), new(mockAudit))
	ctx := context.Background()

	repo.On("GetByEmail", ctx, int64(1), "taken@example.com").Return(&User{ID: "u-1"}, nil)
	_, err := service.Register(ctx, 1, "taken@example.com", "X", authz.RoleStudent, "pw")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	_, err = service.Register(ctx, 1, "new@example.com", "X", "root", "pw")
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = service.Register(ctx, 1, "not-an-email", "X", authz.RoleStudent, "pw")
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

// TestPurpose: Validates tenant-scoped authentication: the same address may
// exist under two tenants with different passwords.
// Scope: Unit Test
// Expected: Wrong password and unknown user both yield
// ErrInvalidCredentials; the right pair yields the user.
// Test Case ID: IDN-03
func TestIdentity_Service_Authenticate(t *testing.T) {
	repo := new(mockRepo)
	auditLogger := new(mockAudit)
	hasher := testHasher()
	service := NewService(repo, hasher, auditLogger)
	ctx := context.Background()

	hash, err := hasher.Hash("correct-pw")
	require.NoError(t, err)
	stored := &User{ID: "u-1", TenantID: 1, Email: "ada@example.com", PasswordHash: hash}

	auditLogger.On("Log", ctx, mock.Anything).Return()
	repo.On("GetByEmail", ctx, int64(1), "ada@example.com").Return(stored, nil)
	repo.On("GetByEmail", ctx, int64(2), "ada@example.com").Return(nil, ErrUserNotFound)

	user, err := service.Authenticate(ctx, 1, "ada@example.com", "correct-pw")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)

	_, err = service.Authenticate(ctx, 1, "ada@example.com", "wrong-pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = service.Authenticate(ctx, 2, "ada@example.com", "correct-pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
