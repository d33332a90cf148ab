package form

import (
	"context"
)

// Repository defines the interface for form schema storage. Trees returned
// by Get* methods are fully loaded and sorted by order index.
type Repository interface {
	// CreateTree persists a brand-new form with its whole section/field/
	// option tree in one transaction and fills in generated ids.
	CreateTree(ctx context.Context, f *Form) error

	// ApplyPlan executes a reconciliation plan in one transaction.
	// Deleting a section cascades to its fields and options; deleting a
	// field with recorded answers is refused by the store.
	ApplyPlan(ctx context.Context, plan *Plan) error

	// GetTree loads a tenant's form with its full schema tree.
	GetTree(ctx context.Context, tenantID, formID int64) (*Form, error)

	// GetTreeByCode resolves a public application link. The tenant id
	// comes from the URL, not from any authenticated identity.
	GetTreeByCode(ctx context.Context, tenantID int64, code string) (*Form, error)

	// GetByID loads a form row without its tree, unscoped by tenant. Used
	// by the submission pipeline after tenant checks have already run.
	GetByID(ctx context.Context, formID int64) (*Form, error)

	// List returns a tenant's forms without trees, newest first.
	List(ctx context.Context, tenantID int64) ([]*Form, error)

	// Delete removes a form and, by cascade, its entire schema tree.
	// Forms with recorded submissions must be refused.
	Delete(ctx context.Context, tenantID, formID int64) error
}
