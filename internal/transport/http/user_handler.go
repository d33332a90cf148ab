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

package http

import (
	"encoding/json"
	"net/http"
)

type provisionUserRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// ProvisionUser godoc
// @Summary Create a staff or applicant account under the caller's tenant
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body provisionUserRequest true "Account details"
// @Success 201 {object} identity.User
// @Failure 409 {object} map[string]string
// @Router /users [post]
func (h *Handler) ProvisionUser(w http.ResponseWriter, r *http.Request) {
	var req provisionUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.identityService.Register(r.Context(), GetTenantID(r.Context()), req.Email, req.FullName, req.Role, req.Password)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

// ListUsers godoc
// @Summary List the tenant's accounts
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} identity.User
// @Router /users [get]
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.identityService.ListByTenant(r.Context(), GetTenantID(r.Context()))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}
