package rbac

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/farmdesk/farmdesk/internal/observability"
	"github.com/farmdesk/farmdesk/internal/platform/httpx"
	"github.com/farmdesk/farmdesk/internal/shared"
)

const (
	defaultLoginPath   = "/login"
	defaultLandingPath = "/dashboard"
)

// UserLoader resolves a principal from a session user id.
type UserLoader interface {
	LoadUser(ctx context.Context, id int64) (*AuthUser, error)
}

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Authorizer  *Authorizer
	Logger      *slog.Logger
	Metrics     *observability.Metrics
	LoginPath   string
	LandingPath string
}

// Guard gates every request by the permission map. Anonymous visitors of a
// protected path are sent to the login page, signed-in users without a
// matching permission to the landing page with an error marker.
func (m Middleware) Guard() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			decision := m.Authorizer.Decide(user, r.URL.Path)
			m.Metrics.RecordGuardDecision(decision.String())
			if decision == DecisionAllow {
				next.ServeHTTP(w, r)
				return
			}
			m.logger().Debug("route guard denied",
				slog.String("path", r.URL.Path),
				slog.String("decision", decision.String()),
				slog.Int64("user_id", userID(user)))
			m.deny(w, r, decision)
		})
	}
}

// RequireAny ensures the current user has at least one of the required permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	required := normalizePermissions(perms)
	return m.require(func(user *AuthUser) bool { return HasAnyPermission(user, required) }, len(required) == 0)
}

// RequireAll ensures the current user has all required permissions.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	required := normalizePermissions(perms)
	return m.require(func(user *AuthUser) bool { return HasAllPermissions(user, required) }, len(required) == 0)
}

// RequireUser ensures a principal is present without checking permissions.
func (m Middleware) RequireUser() func(http.Handler) http.Handler {
	return m.require(func(*AuthUser) bool { return true }, false)
}

func (m Middleware) require(check func(*AuthUser) bool, open bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if open {
				next.ServeHTTP(w, r)
				return
			}
			user := UserFromContext(r.Context())
			switch {
			case user == nil:
				m.deny(w, r, DecisionNotAuthenticated)
			case check(user):
				next.ServeHTTP(w, r)
			default:
				m.deny(w, r, DecisionUnauthorized)
			}
		})
	}
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request, decision Decision) {
	if httpx.WantsJSON(r) {
		if decision == DecisionNotAuthenticated {
			httpx.RespondError(w, shared.ErrNotAuthenticated)
		} else {
			httpx.RespondError(w, shared.ErrUnauthorized)
		}
		return
	}
	if decision == DecisionNotAuthenticated {
		target := m.LoginPath
		if target == "" {
			target = defaultLoginPath
		}
		http.Redirect(w, r, target+"?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
		return
	}
	target := m.LandingPath
	if target == "" {
		target = defaultLandingPath
	}
	http.Redirect(w, r, target+"?error=unauthorized", http.StatusSeeOther)
}

func (m Middleware) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

// PrincipalLoader resolves the signed-in user from the session and stores
// it in the request context. Requests without a valid session continue
// anonymously; the guard decides what they may see.
func PrincipalLoader(loader UserLoader, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil {
				next.ServeHTTP(w, r)
				return
			}
			raw := strings.TrimSpace(sess.User())
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				logger.Warn("rbac parse session user id", slog.String("value", raw))
				next.ServeHTTP(w, r)
				return
			}
			user, err := loader.LoadUser(r.Context(), id)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					next.ServeHTTP(w, r)
					return
				}
				logger.Error("rbac load principal", slog.Int64("user_id", id), slog.Any("error", err))
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

func userID(user *AuthUser) int64 {
	if user == nil {
		return 0
	}
	return user.ID
}
