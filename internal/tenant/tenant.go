package tenant

import (
	"time"
)

// Tenant represents an institution using the portal. It is the isolation
// boundary for all forms, users and submissions.
type Tenant struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Address   string    `json:"address,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
