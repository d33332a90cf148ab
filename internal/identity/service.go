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
	"fmt"
	"strings"
	"time"

	"github.com/openadmit/openadmit/internal/audit"
	"github.com/openadmit/openadmit/internal/auth"
	"github.com/openadmit/openadmit/internal/authz"
	"github.com/openadmit/openadmit/internal/id"
)

// Service provides identity-related business logic
type Service struct {
	repo        Repository
	hasher      *auth.PasswordHasher
	auditLogger audit.Logger
}

// NewService creates a new identity service
func NewService(repo Repository, hasher *auth.PasswordHasher, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		hasher:      hasher,
		auditLogger: auditLogger,
	}
}

// Register creates a new user under a tenant with the given role.
func (s *Service) Register(ctx context.Context, tenantID int64, email, fullName, role, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !isValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if !authz.ValidRole(role) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRole, role)
	}
	if password == "" {
		return nil, fmt.Errorf("password is required")
	}

	existing, err := s.repo.GetByEmail(ctx, tenantID, email)
	if err == nil && existing != nil {
		return nil, ErrUserAlreadyExists
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		ID:           id.NewUUIDv7(),
		TenantID:     tenantID,
		Email:        email,
		FullName:     fullName,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeUserCreated,
		TenantID: tenantID,
		ActorID:  user.ID,
		Resource: "user",
		Metadata: map[string]any{"email": email, "role": role},
	})

	return user, nil
}

// Authenticate verifies a tenant-scoped email/password pair.
func (s *Service) Authenticate(ctx context.Context, tenantID int64, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetByEmail(ctx, tenantID, email)
	if err != nil {
		if err == ErrUserNotFound {
			s.auditLogger.Log(ctx, audit.Event{
				Type:     audit.TypeLoginFailed,
				TenantID: tenantID,
				Resource: "user",
				Metadata: map[string]any{"email": email},
			})
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeLoginFailed,
			TenantID: tenantID,
			ActorID:  user.ID,
			Resource: "user",
		})
		return nil, ErrInvalidCredentials
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeLoginSuccess,
		TenantID: tenantID,
		ActorID:  user.ID,
		Resource: "user",
	})

	return user, nil
}

// GetByID retrieves a user by ID
func (s *Service) GetByID(ctx context.Context, userID string) (*User, error) {
	return s.repo.GetByID(ctx, userID)
}

// ListByTenant lists all users of a tenant
func (s *Service) ListByTenant(ctx context.Context, tenantID int64) ([]*User, error) {
	return s.repo.ListByTenant(ctx, tenantID)
}

// isValidEmail performs a minimal sanity check; real validation happens when
// mail is actually sent.
func isValidEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.ContainsAny(email, " \t")
}
