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
	"fmt"
	"strings"
	"time"

	"github.com/openadmit/openadmit/internal/audit"
)

// Service provides tenant management business logic
type Service struct {
	repo        Repository
	auditLogger audit.Logger
}

// NewService creates a new tenant service
func NewService(repo Repository, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		auditLogger: auditLogger,
	}
}

// Create registers a new institution. Name and contact email are required.
func (s *Service) Create(ctx context.Context, t *Tenant) (*Tenant, error) {
	if strings.TrimSpace(t.Name) == "" {
		return nil, fmt.Errorf("tenant name is required")
	}
	if strings.TrimSpace(t.Email) == "" {
		return nil, fmt.Errorf("tenant contact email is required")
	}

	t.CreatedAt = time.Now()
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeTenantCreated,
		TenantID: t.ID,
		Resource: "tenant",
		Metadata: map[string]any{"name": t.Name},
	})

	return t, nil
}

// Get retrieves a tenant by ID
func (s *Service) Get(ctx context.Context, id int64) (*Tenant, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByName retrieves a tenant by name
func (s *Service) GetByName(ctx context.Context, name string) (*Tenant, error) {
	return s.repo.GetByName(ctx, name)
}

// List lists tenants with pagination
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Tenant, error) {
	return s.repo.List(ctx, limit, offset)
}
