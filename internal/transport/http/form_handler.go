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
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/openadmit/openadmit/internal/form"
)

// SaveForm godoc
// @Summary Create or update a form definition
// @Description An edit with id <= 0 creates a new form. Otherwise the stored
// @Description schema is reconciled against the edit: present ids update,
// @Description missing ids delete, new entries insert.
// @Tags forms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body form.FormEdit true "Desired form state"
// @Success 200 {object} form.Form
// @Failure 422 {object} map[string]any
// @Router /forms [post]
func (h *Handler) SaveForm(w http.ResponseWriter, r *http.Request) {
	var edit form.FormEdit
	if err := json.NewDecoder(r.Body).Decode(&edit); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, err := h.formService.Reconcile(r.Context(), GetTenantID(r.Context()), &edit)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, saved)
}

// ListForms godoc
// @Summary List the tenant's forms
// @Tags forms
// @Produce json
// @Security BearerAuth
// @Success 200 {array} form.Form
// @Router /forms [get]
func (h *Handler) ListForms(w http.ResponseWriter, r *http.Request) {
	forms, err := h.formService.List(r.Context(), GetTenantID(r.Context()))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, forms)
}

// GetForm godoc
// @Summary Get a form with its full schema tree
// @Tags forms
// @Produce json
// @Security BearerAuth
// @Param formID path int true "Form ID"
// @Success 200 {object} form.Form
// @Failure 404 {object} map[string]string
// @Router /forms/{formID} [get]
func (h *Handler) GetForm(w http.ResponseWriter, r *http.Request) {
	formID, err := pathID(r, "formID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid form id")
		return
	}

	f, err := h.formService.Get(r.Context(), GetTenantID(r.Context()), formID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, f)
}

// DeleteForm godoc
// @Summary Delete a form with its schema tree
// @Description Refused with 409 while the form has recorded submissions.
// @Tags forms
// @Security BearerAuth
// @Param formID path int true "Form ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /forms/{formID} [delete]
func (h *Handler) DeleteForm(w http.ResponseWriter, r *http.Request) {
	formID, err := pathID(r, "formID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid form id")
		return
	}

	if err := h.formService.Delete(r.Context(), GetTenantID(r.Context()), formID); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PublicSchema godoc
// @Summary Resolve a published application link to its form schema
// @Tags apply
// @Produce json
// @Param tenantID path int true "Tenant ID"
// @Param code path string true "Public form code"
// @Success 200 {object} form.Form
// @Failure 404 {object} map[string]string
// @Router /apply/{tenantID}/{code} [get]
func (h *Handler) PublicSchema(w http.ResponseWriter, r *http.Request) {
	tenantID, code, err := publicLink(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid application link")
		return
	}

	f, err := h.formService.ResolvePublic(r.Context(), tenantID, code)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, f)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func publicLink(r *http.Request) (int64, string, error) {
	tenantID, err := pathID(r, "tenantID")
	if err != nil {
		return 0, "", err
	}
	return tenantID, chi.URLParam(r, "code"), nil
}
