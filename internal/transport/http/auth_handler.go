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

	"github.com/openadmit/openadmit/internal/authz"
	"github.com/openadmit/openadmit/internal/identity"
	"github.com/openadmit/openadmit/internal/tenant"
)

type registerTenantRequest struct {
	TenantName    string `json:"tenant_name"`
	TenantEmail   string `json:"tenant_email"`
	Address       string `json:"address"`
	Phone         string `json:"phone"`
	AdminEmail    string `json:"admin_email"`
	AdminName     string `json:"admin_name"`
	AdminPassword string `json:"admin_password"`
}

type loginRequest struct {
	TenantID int64  `json:"tenant_id"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string         `json:"token"`
	User  *identity.User `json:"user"`
}

// RegisterTenant godoc
// @Summary Register a new institution with its first admin account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body registerTenantRequest true "Tenant registration"
// @Success 201 {object} authResponse
// @Failure 400 {object} map[string]string
// @Router /auth/register-tenant [post]
func (h *Handler) RegisterTenant(w http.ResponseWriter, r *http.Request) {
	var req registerTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.tenantService.Create(r.Context(), &tenant.Tenant{
		Name:    req.TenantName,
		Email:   req.TenantEmail,
		Address: req.Address,
		Phone:   req.Phone,
	})
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	admin, err := h.identityService.Register(r.Context(), t.ID, req.AdminEmail, req.AdminName, authz.RoleAdmin, req.AdminPassword)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	token, err := h.tokenIssuer.Issue(admin.ID, admin.TenantID, admin.Role)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, authResponse{Token: token, User: admin})
}

// Login godoc
// @Summary Authenticate a user within a tenant
// @Tags auth
// @Accept json
// @Produce json
// @Param request body loginRequest true "Credentials"
// @Success 200 {object} authResponse
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.identityService.Authenticate(r.Context(), req.TenantID, req.Email, req.Password)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	token, err := h.tokenIssuer.Issue(user.ID, user.TenantID, user.Role)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

// GetCurrentUser godoc
// @Summary Get the authenticated user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} identity.User
// @Router /auth/me [get]
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.identityService.GetByID(r.Context(), GetUserID(r.Context()))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
