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
	"github.com/openadmit/openadmit/internal/identity"
)

// UserRepository implements identity.Repository
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *identity.User) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO users (id, tenant_id, email, full_name, role, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, user.ID, user.TenantID, user.Email, user.FullName, user.Role, user.PasswordHash, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return identity.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*identity.User, error) {
	var user identity.User
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, tenant_id, email, full_name, role, password_hash, created_at
		FROM users
		WHERE id = $1
	`, id).Scan(
		&user.ID, &user.TenantID, &user.Email, &user.FullName,
		&user.Role, &user.PasswordHash, &user.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, identity.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by tenant-scoped email
func (r *UserRepository) GetByEmail(ctx context.Context, tenantID int64, email string) (*identity.User, error) {
	var user identity.User
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, tenant_id, email, full_name, role, password_hash, created_at
		FROM users
		WHERE tenant_id = $1 AND email = $2
	`, tenantID, email).Scan(
		&user.ID, &user.TenantID, &user.Email, &user.FullName,
		&user.Role, &user.PasswordHash, &user.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, identity.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// ListByTenant lists all users of a tenant
func (r *UserRepository) ListByTenant(ctx context.Context, tenantID int64) ([]*identity.User, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, tenant_id, email, full_name, role, password_hash, created_at
		FROM users
		WHERE tenant_id = $1
		ORDER BY created_at
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*identity.User
	for rows.Next() {
		var user identity.User
		if err := rows.Scan(
			&user.ID, &user.TenantID, &user.Email, &user.FullName,
			&user.Role, &user.PasswordHash, &user.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}
	return users, rows.Err()
}
