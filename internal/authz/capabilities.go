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

// Package authz maps portal roles to capability tokens. Capabilities are
// resolved once at the request boundary and passed through context; business
// logic never re-queries role membership.
package authz

// Role names
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStudent = "student"
)

// Capabilities describes what an authenticated user may do within their
// tenant.
type Capabilities struct {
	ManageForms        bool
	ViewAllSubmissions bool
	ManageUsers        bool
}

// ForRole resolves the capability set for a role. Unknown roles get no
// capabilities.
func ForRole(role string) Capabilities {
	switch role {
	case RoleAdmin:
		return Capabilities{
			ManageForms:        true,
			ViewAllSubmissions: true,
			ManageUsers:        true,
		}
	case RoleManager:
		return Capabilities{
			ManageForms:        true,
			ViewAllSubmissions: true,
		}
	default:
		return Capabilities{}
	}
}

// ValidRole reports whether role is one of the portal roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleStudent:
		return true
	}
	return false
}
