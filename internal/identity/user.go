package identity

import (
	"time"
)

// User represents an account in the portal. Staff (admin/manager) belong to
// the tenant they administer; students belong to the tenant whose forms they
// apply to.
type User struct {
	ID           string    `json:"id"`
	TenantID     int64     `json:"tenant_id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
