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
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/openadmit/openadmit/internal/audit"
	"github.com/openadmit/openadmit/internal/authz"
	"github.com/openadmit/openadmit/internal/export"
	"github.com/openadmit/openadmit/internal/form"
	"github.com/openadmit/openadmit/internal/observability/logger"
	"github.com/openadmit/openadmit/internal/submission"
)

type registerApplicantRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// RegisterApplicant godoc
// @Summary Create an applicant account under the tenant of a published link
// @Tags apply
// @Accept json
// @Produce json
// @Param tenantID path int true "Tenant ID"
// @Param code path string true "Public form code"
// @Param request body registerApplicantRequest true "Applicant registration"
// @Success 201 {object} authResponse
// @Failure 404 {object} map[string]string
// @Router /apply/{tenantID}/{code}/register [post]
func (h *Handler) RegisterApplicant(w http.ResponseWriter, r *http.Request) {
	tenantID, code, err := publicLink(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid application link")
		return
	}

	// The link must resolve before any account is created under its tenant.
	if _, err := h.formService.ResolvePublic(r.Context(), tenantID, code); err != nil {
		respondDomainError(w, r, err)
		return
	}

	var req registerApplicantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.identityService.Register(r.Context(), tenantID, req.Email, req.FullName, authz.RoleStudent, req.Password)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	token, err := h.tokenIssuer.Issue(user.ID, user.TenantID, user.Role)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

// SubmitApplication godoc
// @Summary Submit an application to a published form
// @Description Multipart form: text answers as field_{fieldID}, attachments
// @Description as file_{fieldID}.
// @Tags apply
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param tenantID path int true "Tenant ID"
// @Param code path string true "Public form code"
// @Success 201 {object} submission.Submission
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]any
// @Router /apply/{tenantID}/{code}/submissions [post]
func (h *Handler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	tenantID, code, err := publicLink(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid application link")
		return
	}

	// The applicant's account must belong to the tenant that published the
	// link; the token, not the URL, is the authority for who is applying.
	if GetTenantID(r.Context()) != tenantID {
		respondError(w, http.StatusForbidden, "account does not belong to this institution")
		return
	}

	f, err := h.formService.ResolvePublic(r.Context(), tenantID, code)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	// Leave headroom above the per-file cap; oversize parts still reach the
	// pipeline so the applicant gets a field-level size error, not a 400.
	if err := r.ParseMultipartForm(h.maxUploadBytes + (1 << 20)); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	defer r.MultipartForm.RemoveAll()

	input, closers, err := decodeSubmissionInput(r, f)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()

	sub, err := h.submissionService.Submit(r.Context(), f, GetUserID(r.Context()), input)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, sub)
}

// decodeSubmissionInput maps multipart parts onto schema fields. Text
// answers arrive as field_{id}; checkbox fields may repeat the part, joined
// here with a comma. Attachments arrive as file_{id}.
func decodeSubmissionInput(r *http.Request, f *form.Form) (*submission.Input, []io.Closer, error) {
	input := &submission.Input{
		Values: make(map[int64]string),
		Files:  make(map[int64]*submission.Upload),
	}
	var closers []io.Closer

	for _, fld := range f.AllFields() {
		if fld.FieldType == form.FieldTypeFile {
			headers := r.MultipartForm.File[fmt.Sprintf("file_%d", fld.ID)]
			if len(headers) == 0 {
				continue
			}
			header := headers[0]
			content, err := header.Open()
			if err != nil {
				for _, c := range closers {
					c.Close()
				}
				return nil, nil, fmt.Errorf("failed to read upload for '%s'", fld.Label)
			}
			closers = append(closers, content)
			input.Files[fld.ID] = &submission.Upload{
				Filename: header.Filename,
				Size:     header.Size,
				Content:  content,
			}
			continue
		}

		values := r.PostForm[fmt.Sprintf("field_%d", fld.ID)]
		if len(values) > 0 {
			input.Values[fld.ID] = strings.Join(values, ",")
		}
	}

	return input, closers, nil
}

// ListFormSubmissions godoc
// @Summary List a form's submissions with applicant identity
// @Tags submissions
// @Produce json
// @Security BearerAuth
// @Param formID path int true "Form ID"
// @Success 200 {array} submission.WithApplicant
// @Router /forms/{formID}/submissions [get]
func (h *Handler) ListFormSubmissions(w http.ResponseWriter, r *http.Request) {
	formID, err := pathID(r, "formID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid form id")
		return
	}

	subs, err := h.submissionService.ListByForm(r.Context(), GetTenantID(r.Context()), formID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, subs)
}

// GetSubmission godoc
// @Summary Get one submission with its answers
// @Description Applicants see their own submissions; staff with review
// @Description rights see any submission of their tenant.
// @Tags submissions
// @Produce json
// @Security BearerAuth
// @Param submissionID path int true "Submission ID"
// @Success 200 {object} submission.Submission
// @Failure 404 {object} map[string]string
// @Router /submissions/{submissionID} [get]
func (h *Handler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	submissionID, err := pathID(r, "submissionID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid submission id")
		return
	}

	sub, err := h.submissionService.Get(r.Context(), GetTenantID(r.Context()), submissionID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	if sub.UserID != GetUserID(r.Context()) && !GetCapabilities(r.Context()).ViewAllSubmissions {
		// Indistinguishable from a missing submission on purpose.
		respondError(w, http.StatusNotFound, submission.ErrSubmissionNotFound.Error())
		return
	}

	respondJSON(w, http.StatusOK, sub)
}

// MySubmissions godoc
// @Summary List the authenticated applicant's submissions
// @Tags submissions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} submission.Submission
// @Router /me/submissions [get]
func (h *Handler) MySubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.submissionService.ListByUser(r.Context(), GetUserID(r.Context()))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, subs)
}

type dashboardEntry struct {
	SubmissionID int64     `json:"submission_id"`
	FormID       int64     `json:"form_id"`
	FormName     string    `json:"form_name"`
	FormStatus   string    `json:"form_status"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// Dashboard godoc
// @Summary Applicant dashboard: submissions joined with form state
// @Tags submissions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dashboardEntry
// @Router /me/dashboard [get]
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	subs, err := h.submissionService.ListByUser(r.Context(), GetUserID(r.Context()))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	entries := make([]dashboardEntry, 0, len(subs))
	for _, sub := range subs {
		entry := dashboardEntry{
			SubmissionID: sub.ID,
			FormID:       sub.FormID,
			SubmittedAt:  sub.SubmittedAt,
		}
		if f, err := h.formService.Get(r.Context(), sub.TenantID, sub.FormID); err == nil {
			entry.FormName = f.Name
			entry.FormStatus = f.Status
		}
		entries = append(entries, entry)
	}

	respondJSON(w, http.StatusOK, entries)
}

// ExportCSV godoc
// @Summary Download a form's submissions as CSV
// @Tags export
// @Produce text/csv
// @Security BearerAuth
// @Param formID path int true "Form ID"
// @Success 200
// @Router /forms/{formID}/export.csv [get]
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "csv")
}

// ExportXLSX godoc
// @Summary Download a form's submissions as an Excel workbook
// @Tags export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param formID path int true "Form ID"
// @Success 200
// @Router /forms/{formID}/export.xlsx [get]
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "xlsx")
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request, format string) {
	formID, err := pathID(r, "formID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid form id")
		return
	}
	tenantID := GetTenantID(r.Context())

	f, err := h.formService.Get(r.Context(), tenantID, formID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	subs, err := h.submissionService.ListByForm(r.Context(), tenantID, formID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	filename := export.Filename(f.Name, format, time.Now())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		err = export.WriteCSV(w, f, subs)
	default:
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		err = export.WriteXLSX(w, f, subs)
	}
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	h.auditLogger.Log(r.Context(), audit.Event{
		Type:      audit.TypeExportGenerated,
		TenantID:  tenantID,
		ActorID:   GetUserID(r.Context()),
		Resource:  "export",
		IPAddress: getIPAddress(r),
		Metadata:  map[string]any{"form_id": formID, "format": format},
	})
}

// DownloadAttachment godoc
// @Summary Download a stored answer attachment
// @Tags submissions
// @Produce octet-stream
// @Security BearerAuth
// @Success 200
// @Failure 404 {object} map[string]string
// @Router /attachments/{path} [get]
func (h *Handler) DownloadAttachment(w http.ResponseWriter, r *http.Request) {
	storedPath := chi.URLParam(r, "*")

	// Stored paths look like uploads/{userID}/{submissionID}/{name}.
	// Applicants may fetch their own objects; reviewers may fetch anything
	// recorded against their tenant.
	parts := strings.Split(storedPath, "/")
	if len(parts) < 4 || parts[0] != "uploads" {
		respondError(w, http.StatusNotFound, "attachment not found")
		return
	}

	if parts[1] != GetUserID(r.Context()) {
		if !GetCapabilities(r.Context()).ViewAllSubmissions {
			respondError(w, http.StatusNotFound, "attachment not found")
			return
		}
		subID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			respondError(w, http.StatusNotFound, "attachment not found")
			return
		}
		if _, err := h.submissionService.Get(r.Context(), GetTenantID(r.Context()), subID); err != nil {
			respondDomainError(w, r, err)
			return
		}
	}

	content, err := h.submissionService.OpenAttachment(r.Context(), storedPath)
	if err != nil {
		respondError(w, http.StatusNotFound, "attachment not found")
		return
	}
	defer content.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", parts[len(parts)-1]))
	if _, err := io.Copy(w, content); err != nil {
		// Headers are already written; nothing to send the client but the
		// truncated stream should not go unnoticed.
		slog.WarnContext(r.Context(), "failed to stream attachment",
			logger.FilePath(storedPath), logger.Error(err))
	}
}
