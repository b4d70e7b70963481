package app

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/farmdesk/farmdesk/internal/expenses"
	"github.com/farmdesk/farmdesk/internal/observability"
	"github.com/farmdesk/farmdesk/internal/platform/httpx"
	"github.com/farmdesk/farmdesk/internal/rbac"
	"github.com/farmdesk/farmdesk/internal/shared"
	"github.com/farmdesk/farmdesk/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	SessionManager  *shared.SessionManager
	Principals      rbac.UserLoader
	RBACMiddleware  rbac.Middleware
	RBACHandler     *rbac.Handler
	ExpensesHandler *expenses.Handler
	JobHandler      *jobs.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with console defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Principals:     params.Principals,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	loginPath := "/login"
	if params.Config != nil && params.Config.LoginPath != "" {
		loginPath = params.Config.LoginPath
	}
	landingPath := "/dashboard"
	if params.Config != nil && params.Config.LandingPath != "" {
		landingPath = params.Config.LandingPath
	}
	devLogin := params.Config != nil && !params.Config.IsProduction() && params.Principals != nil
	r.Get(loginPath, func(w http.ResponseWriter, r *http.Request) {
		if raw := r.URL.Query().Get("user_id"); devLogin && raw != "" {
			signInDirectoryUser(w, r, params.Principals, raw, landingPath)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{
			"login_required": rbac.UserFromContext(r.Context()) == nil,
			"next":           r.URL.Query().Get("next"),
		})
	})
	r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
		if params.SessionManager != nil {
			params.SessionManager.Destroy(shared.SessionFromContext(r.Context()))
		}
		http.Redirect(w, r, loginPath+"?next="+url.QueryEscape("/"), http.StatusSeeOther)
	})

	if params.RBACHandler != nil {
		r.Route("/api", params.RBACHandler.MountAPIRoutes)
	}

	r.Route("/dashboard", func(r chi.Router) {
		r.Use(params.RBACMiddleware.Guard())
		if params.RBACHandler != nil {
			r.With(params.RBACMiddleware.RequireUser()).Get("/", params.RBACHandler.Landing)
			params.RBACHandler.MountRoutes(r)
		}
		if params.ExpensesHandler != nil {
			r.Route("/expenses", params.ExpensesHandler.MountRoutes)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

// signInDirectoryUser binds the session to an existing directory user and
// redirects to next. Only reachable outside production.
func signInDirectoryUser(w http.ResponseWriter, r *http.Request, principals rbac.UserLoader, rawID, landingPath string) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(w, fmt.Errorf("user_id must be a positive integer: %w", shared.ErrValidation))
		return
	}
	user, err := principals.LoadUser(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.RespondError(w, errors.New("app: session unavailable"))
		return
	}
	sess.SetUser(strconv.FormatInt(user.ID, 10))
	http.Redirect(w, r, localRedirect(r.URL.Query().Get("next"), landingPath), http.StatusSeeOther)
}

// localRedirect returns next when it is a path on this host, fallback otherwise.
func localRedirect(next, fallback string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}
