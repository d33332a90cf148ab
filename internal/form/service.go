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
	"fmt"
	"log/slog"
	"time"

	"github.com/openadmit/openadmit/internal/audit"
	"github.com/openadmit/openadmit/internal/id"
	"github.com/openadmit/openadmit/internal/observability/logger"
)

// Service provides form schema management business logic.
type Service struct {
	repo        Repository
	cache       SchemaCache
	auditLogger audit.Logger
	baseURL     string
}

// NewService creates a new form service. baseURL is the externally reachable
// origin used to build public application links.
func NewService(repo Repository, cache SchemaCache, auditLogger audit.Logger, baseURL string) *Service {
	if cache == nil {
		cache = NoopSchemaCache{}
	}
	return &Service{
		repo:        repo,
		cache:       cache,
		auditLogger: auditLogger,
		baseURL:     baseURL,
	}
}

// Reconcile saves a form edit for a tenant. An edit with ID <= 0 creates a
// new form; otherwise the persisted tree is diffed against the edit and the
// resulting plan applied in one transaction. Either way the fresh tree is
// read back and returned.
func (s *Service) Reconcile(ctx context.Context, tenantID int64, edit *FormEdit) (*Form, error) {
	if err := edit.Validate(); err != nil {
		return nil, err
	}

	if edit.ID <= 0 {
		return s.create(ctx, tenantID, edit)
	}

	existing, err := s.repo.GetTree(ctx, tenantID, edit.ID)
	if err != nil {
		return nil, err
	}

	plan := BuildPlan(existing, edit)
	if err := s.repo.ApplyPlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to apply form changes: %w", err)
	}

	if err := s.cache.Invalidate(ctx, tenantID, existing.PublicCode); err != nil {
		slog.WarnContext(ctx, "failed to invalidate schema cache",
			logger.FormID(existing.ID), logger.Error(err))
	}

	updated, err := s.repo.GetTree(ctx, tenantID, edit.ID)
	if err != nil {
		return nil, err
	}
	s.withURL(updated)

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeFormUpdated,
		TenantID: tenantID,
		Resource: "form",
		Metadata: map[string]any{
			"form_id":  updated.ID,
			"sections": len(updated.Sections),
		},
	})

	return updated, nil
}

// create persists a brand-new form tree. The public code is generated once
// here and never changes for the life of the form, so published application
// links survive later edits.
func (s *Service) create(ctx context.Context, tenantID int64, edit *FormEdit) (*Form, error) {
	f := &Form{
		TenantID:    tenantID,
		Name:        edit.Name,
		Description: edit.Description,
		Status:      edit.Status,
		StartDate:   edit.StartDate,
		EndDate:     edit.EndDate,
		PublicCode:  id.NewPublicCode(),
		CreatedAt:   time.Now(),
	}

	for _, se := range edit.Sections {
		f.Sections = append(f.Sections, newSectionTree(0, se))
	}

	if err := s.repo.CreateTree(ctx, f); err != nil {
		return nil, fmt.Errorf("failed to create form: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeFormCreated,
		TenantID: tenantID,
		Resource: "form",
		Metadata: map[string]any{
			"form_id": f.ID,
			"name":    f.Name,
		},
	})

	created, err := s.repo.GetTree(ctx, tenantID, f.ID)
	if err != nil {
		return nil, err
	}
	return s.withURL(created), nil
}

// withURL fills in the public application link. The link is derived from the
// configured base URL and the persisted code on every read, never stored, so
// it follows the deployment's external origin.
func (s *Service) withURL(f *Form) *Form {
	if f != nil && f.PublicCode != "" {
		f.ApplicationURL = fmt.Sprintf("%s/apply/%d/%s", s.baseURL, f.TenantID, f.PublicCode)
	}
	return f
}

// Get loads a tenant's form with its full tree.
func (s *Service) Get(ctx context.Context, tenantID, formID int64) (*Form, error) {
	f, err := s.repo.GetTree(ctx, tenantID, formID)
	if err != nil {
		return nil, err
	}
	return s.withURL(f), nil
}

// List returns a tenant's forms without trees.
func (s *Service) List(ctx context.Context, tenantID int64) ([]*Form, error) {
	forms, err := s.repo.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for _, f := range forms {
		s.withURL(f)
	}
	return forms, nil
}

// Delete removes a form with its schema tree. Forms with recorded
// submissions are protected by the store and cannot be deleted.
func (s *Service) Delete(ctx context.Context, tenantID, formID int64) error {
	f, err := s.repo.GetTree(ctx, tenantID, formID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, tenantID, formID); err != nil {
		return fmt.Errorf("failed to delete form: %w", err)
	}

	if err := s.cache.Invalidate(ctx, tenantID, f.PublicCode); err != nil {
		slog.WarnContext(ctx, "failed to invalidate schema cache",
			logger.FormID(formID), logger.Error(err))
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeFormDeleted,
		TenantID: tenantID,
		Resource: "form",
		Metadata: map[string]any{"form_id": formID},
	})

	return nil
}

// ResolvePublic loads the form behind a public application link, via the
// schema cache when possible. The tenant id comes from the link itself.
func (s *Service) ResolvePublic(ctx context.Context, tenantID int64, code string) (*Form, error) {
	cached, err := s.cache.Get(ctx, tenantID, code)
	if err != nil {
		slog.WarnContext(ctx, "schema cache read failed",
			logger.PublicCode(code), logger.Error(err))
	}
	if cached != nil {
		return s.withURL(cached), nil
	}

	f, err := s.repo.GetTreeByCode(ctx, tenantID, code)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, f); err != nil {
		slog.WarnContext(ctx, "schema cache write failed",
			logger.PublicCode(code), logger.Error(err))
	}

	return s.withURL(f), nil
}
