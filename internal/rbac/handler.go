package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/farmdesk/farmdesk/internal/platform/httpx"
	"github.com/farmdesk/farmdesk/internal/shared"
)

// Handler serves the users, roles and permissions listings plus the access
// probe used by the front end to gate its own routes.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	authorizer *Authorizer
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, authorizer *Authorizer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, authorizer: authorizer}
}

// MountRoutes registers directory routes. Access is enforced by the route
// guard in front of the dashboard.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/users", h.listUsers)
	r.Get("/roles", h.listRoles)
	r.Get("/permissions", h.listPermissions)
}

// MountAPIRoutes registers the principal and access probe endpoints.
func (h *Handler) MountAPIRoutes(r chi.Router) {
	r.Get("/me", h.me)
	r.Get("/access", h.access)
}

type accessResponse struct {
	Path     string   `json:"path"`
	Required []string `json:"required"`
	Allowed  bool     `json:"allowed"`
	Decision string   `json:"decision"`
}

type landingResponse struct {
	User  *AuthUser `json:"user"`
	Areas []string  `json:"areas"`
	Error string    `json:"error,omitempty"`
}

type meResponse struct {
	User        *AuthUser `json:"user"`
	Permissions []string  `json:"permissions"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		httpx.RespondError(w, shared.ErrNotAuthenticated)
		return
	}
	users, err := h.service.ListUsers(r.Context(), user.TenantID)
	if err != nil {
		h.logger.Error("list users failed", slog.Int64("tenant_id", user.TenantID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": nonNil(users)})
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		httpx.RespondError(w, shared.ErrNotAuthenticated)
		return
	}
	roles, err := h.service.ListRoles(r.Context(), user.TenantID)
	if err != nil {
		h.logger.Error("list roles failed", slog.Int64("tenant_id", user.TenantID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": nonNil(roles)})
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": nonNil(perms)})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		httpx.RespondError(w, shared.ErrNotAuthenticated)
		return
	}
	httpx.JSON(w, http.StatusOK, meResponse{User: user, Permissions: user.Permissions()})
}

// Landing lists the dashboard areas the current user may open. The error
// query parameter set by the route guard is echoed back.
func (h *Handler) Landing(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		httpx.RespondError(w, shared.ErrNotAuthenticated)
		return
	}
	areas := []string{}
	for _, prefix := range h.authorizer.Map.Prefixes() {
		if h.authorizer.Decide(user, prefix) == DecisionAllow {
			areas = append(areas, prefix)
		}
	}
	httpx.JSON(w, http.StatusOK, landingResponse{User: user, Areas: areas, Error: r.URL.Query().Get("error")})
}

func (h *Handler) access(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "path is required")
		return
	}
	required := h.authorizer.Map.RequiredPermissions(path)
	decision := h.authorizer.Decide(UserFromContext(r.Context()), path)
	httpx.JSON(w, http.StatusOK, accessResponse{
		Path:     path,
		Required: nonNil(required),
		Allowed:  decision == DecisionAllow,
		Decision: decision.String(),
	})
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
