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

// Package testutil provides in-memory repository implementations for service
// and end-to-end tests that do not need PostgreSQL.
package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/openadmit/openadmit/internal/audit"
	"github.com/openadmit/openadmit/internal/identity"
	"github.com/openadmit/openadmit/internal/tenant"
)

// RecordingAuditLogger keeps every audit event for assertions.
type RecordingAuditLogger struct {
	mu     sync.Mutex
	Events []audit.Event
}

func (l *RecordingAuditLogger) Log(ctx context.Context, event audit.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Events = append(l.Events, event)
}

// EventsOfType returns recorded events matching the given audit type.
func (l *RecordingAuditLogger) EventsOfType(t string) []audit.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []audit.Event
	for _, e := range l.Events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// TenantRepository is an in-memory tenant.Repository.
type TenantRepository struct {
	mu      sync.Mutex
	nextID  int64
	tenants map[int64]*tenant.Tenant
}

func NewTenantRepository() *TenantRepository {
	return &TenantRepository{tenants: make(map[int64]*tenant.Tenant)}
}

func (r *TenantRepository) Create(ctx context.Context, t *tenant.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	t.ID = r.nextID
	clone := *t
	r.tenants[t.ID] = &clone
	return nil
}

func (r *TenantRepository) GetByID(ctx context.Context, id int64) (*tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *TenantRepository) GetByName(ctx context.Context, name string) (*tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tenants {
		if t.Name == name {
			clone := *t
			return &clone, nil
		}
	}
	return nil, tenant.ErrTenantNotFound
}

func (r *TenantRepository) Update(ctx context.Context, t *tenant.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tenants[t.ID]; !ok {
		return tenant.ErrTenantNotFound
	}
	clone := *t
	r.tenants[t.ID] = &clone
	return nil
}

func (r *TenantRepository) List(ctx context.Context, limit, offset int) ([]*tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*tenant.Tenant
	for _, t := range r.tenants {
		clone := *t
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// UserRepository is an in-memory identity.Repository.
type UserRepository struct {
	mu    sync.Mutex
	users map[string]*identity.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*identity.User)}
}

func (r *UserRepository) Create(ctx context.Context, user *identity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.TenantID == user.TenantID && u.Email == user.Email {
			return identity.ErrUserAlreadyExists
		}
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*identity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, tenantID int64, email string) (*identity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.TenantID == tenantID && u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, identity.ErrUserNotFound
}

func (r *UserRepository) ListByTenant(ctx context.Context, tenantID int64) ([]*identity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*identity.User
	for _, u := range r.users {
		if u.TenantID == tenantID {
			clone := *u
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
