// @title OpenAdmit API
// @version 1.0.0
// @description Multi-tenant admission application portal
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url https://www.apache.org/licenses/LICENSE-2.0

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/openadmit/openadmit/internal/audit"
	"github.com/openadmit/openadmit/internal/auth"
	"github.com/openadmit/openadmit/internal/form"
	"github.com/openadmit/openadmit/internal/identity"
	"github.com/openadmit/openadmit/internal/observability/logger"
	"github.com/openadmit/openadmit/internal/store"
	"github.com/openadmit/openadmit/internal/submission"
	"github.com/openadmit/openadmit/internal/tenant"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	tenantService     *tenant.Service
	identityService   *identity.Service
	formService       *form.Service
	submissionService *submission.Service
	tokenIssuer       *auth.TokenIssuer
	auditLogger       audit.Logger
	maxUploadBytes    int64
}

// NewHandler creates a new HTTP handler
func NewHandler(
	tenantService *tenant.Service,
	identityService *identity.Service,
	formService *form.Service,
	submissionService *submission.Service,
	tokenIssuer *auth.TokenIssuer,
	auditLogger audit.Logger,
	maxUploadBytes int64,
) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = submission.DefaultMaxUploadBytes
	}
	return &Handler{
		tenantService:     tenantService,
		identityService:   identityService,
		formService:       formService,
		submissionService: submissionService,
		tokenIssuer:       tokenIssuer,
		auditLogger:       auditLogger,
		maxUploadBytes:    maxUploadBytes,
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/health", h.HealthCheck)

	// Public application routes. The tenant comes from the published link
	// path and scopes reads only.
	r.Route("/apply/{tenantID}/{code}", func(r chi.Router) {
		r.Get("/", h.PublicSchema)
		r.Post("/register", h.RegisterApplicant)
		r.With(h.AuthMiddleware).Post("/submissions", h.SubmitApplication)
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Unauthenticated
		r.Post("/auth/register-tenant", h.RegisterTenant)
		r.Post("/auth/login", h.Login)

		// Authenticated: tenant context comes from the token
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Get("/auth/me", h.GetCurrentUser)

			// Applicant self-service
			r.Get("/me/submissions", h.MySubmissions)
			r.Get("/me/dashboard", h.Dashboard)

			// Schema management
			r.Group(func(r chi.Router) {
				r.Use(RequireManageForms)
				r.Post("/forms", h.SaveForm)
				r.Get("/forms", h.ListForms)
				r.Get("/forms/{formID}", h.GetForm)
				r.Delete("/forms/{formID}", h.DeleteForm)
			})

			// Applicant review and export
			r.Group(func(r chi.Router) {
				r.Use(RequireViewAllSubmissions)
				r.Get("/forms/{formID}/submissions", h.ListFormSubmissions)
				r.Get("/forms/{formID}/export.csv", h.ExportCSV)
				r.Get("/forms/{formID}/export.xlsx", h.ExportXLSX)
			})

			r.Get("/submissions/{submissionID}", h.GetSubmission)
			r.Get("/attachments/*", h.DownloadAttachment)

			// Staff provisioning
			r.Group(func(r chi.Router) {
				r.Use(RequireManageUsers)
				r.Post("/users", h.ProvisionUser)
				r.Get("/users", h.ListUsers)
			})
		})
	})

	return r
}

// HealthCheck godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondDomainError maps domain errors onto HTTP statuses. Anything
// unrecognized is logged and reported as a 500 without leaking detail.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var formValidation *form.ValidationError
	var subValidation *submission.ValidationError
	var sizeErr *submission.SizeLimitError
	var persistence *store.PersistenceError

	switch {
	case errors.Is(err, tenant.ErrTenantNotFound),
		errors.Is(err, form.ErrFormNotFound),
		errors.Is(err, submission.ErrSubmissionNotFound),
		errors.Is(err, identity.ErrUserNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, identity.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, identity.ErrUserAlreadyExists),
		errors.Is(err, submission.ErrDuplicateSubmission),
		errors.Is(err, submission.ErrNotAccepting):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, identity.ErrInvalidEmail),
		errors.Is(err, identity.ErrInvalidRole):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &formValidation):
		respondJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "invalid form definition",
			"errors": formValidation.Messages,
		})
	case errors.As(err, &subValidation):
		respondJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "submission rejected",
			"errors": subValidation.Messages(),
		})
	case errors.As(err, &sizeErr):
		respondError(w, http.StatusRequestEntityTooLarge, sizeErr.Error())
	case errors.As(err, &persistence):
		respondError(w, http.StatusConflict, "the change conflicts with recorded data")
	default:
		slog.ErrorContext(r.Context(), "unhandled error", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func getIPAddress(r *http.Request) string {
	// Check X-Forwarded-For header first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
