package rbac

import (
	"context"
	"strings"
)

// Decision is the outcome of a route access check.
type Decision int

const (
	// DecisionAllow lets the request through.
	DecisionAllow Decision = iota
	// DecisionNotAuthenticated means a principal is required but missing.
	DecisionNotAuthenticated
	// DecisionUnauthorized means the principal lacks every required permission.
	DecisionUnauthorized
)

func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionNotAuthenticated:
		return "not_authenticated"
	case DecisionUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// HasAnyPermission reports whether user holds at least one of required.
// Super admins pass every check and an empty requirement is always met.
func HasAnyPermission(user *AuthUser, required []string) bool {
	required = normalizePermissions(required)
	if len(required) == 0 {
		return true
	}
	if user == nil {
		return false
	}
	if user.IsSuperAdmin {
		return true
	}
	granted := permissionSet(user)
	for _, r := range required {
		if _, ok := granted[r]; ok {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether user holds every permission in required.
func HasAllPermissions(user *AuthUser, required []string) bool {
	required = normalizePermissions(required)
	if len(required) == 0 {
		return true
	}
	if user == nil {
		return false
	}
	if user.IsSuperAdmin {
		return true
	}
	granted := permissionSet(user)
	for _, r := range required {
		if _, ok := granted[r]; !ok {
			return false
		}
	}
	return true
}

func permissionSet(user *AuthUser) map[string]struct{} {
	set := make(map[string]struct{})
	for _, role := range user.Roles {
		for _, p := range role.Permissions {
			set[strings.TrimSpace(strings.ToLower(p))] = struct{}{}
		}
	}
	return set
}

// Authorizer combines the permission map with permission checks.
type Authorizer struct {
	Map *PermissionMap
}

// NewAuthorizer builds an Authorizer over pm.
func NewAuthorizer(pm *PermissionMap) *Authorizer {
	return &Authorizer{Map: pm}
}

// Decide evaluates whether user may view path. Public paths are allowed
// without a principal.
func (a *Authorizer) Decide(user *AuthUser, path string) Decision {
	var required []string
	if a != nil {
		required = a.Map.RequiredPermissions(path)
	}
	if len(required) == 0 {
		return DecisionAllow
	}
	if user == nil {
		return DecisionNotAuthenticated
	}
	if HasAnyPermission(user, required) {
		return DecisionAllow
	}
	return DecisionUnauthorized
}

type userContextKey struct{}

// ContextWithUser stores the resolved principal in ctx.
func ContextWithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the principal stored in ctx, or nil.
func UserFromContext(ctx context.Context) *AuthUser {
	user, _ := ctx.Value(userContextKey{}).(*AuthUser)
	return user
}
