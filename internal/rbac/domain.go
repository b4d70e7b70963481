package rbac

import (
	"strings"
	"time"
)

// Role is a named permission grouping assigned to users.
type Role struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions"`
}

// Permission represents an atomic capability.
type Permission struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// User is a directory entry shown on the users page.
type User struct {
	ID           int64     `json:"id"`
	TenantID     int64     `json:"tenant_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	IsSuperAdmin bool      `json:"is_super_admin"`
	IsOwner      bool      `json:"is_owner"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuthUser is the signed-in principal with its roles already resolved.
// It is read-only once loaded.
type AuthUser struct {
	ID           int64  `json:"id"`
	TenantID     int64  `json:"tenant_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	IsSuperAdmin bool   `json:"is_super_admin"`
	IsOwner      bool   `json:"is_owner"`
	Roles        []Role `json:"roles"`
}

// Permissions returns the deduplicated, lower-cased union of the user's role
// permissions in role order.
func (u *AuthUser) Permissions() []string {
	if u == nil {
		return nil
	}
	var all []string
	for _, role := range u.Roles {
		all = append(all, role.Permissions...)
	}
	return normalizePermissions(all)
}

// RoleNames lists role names in assignment order.
func (u *AuthUser) RoleNames() []string {
	if u == nil {
		return nil
	}
	names := make([]string, 0, len(u.Roles))
	for _, role := range u.Roles {
		names = append(names, role.Name)
	}
	return names
}

// normalizePermissions trims, lower-cases and deduplicates names while
// keeping the order of first appearance.
func normalizePermissions(perms []string) []string {
	seen := make(map[string]struct{}, len(perms))
	normalized := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		normalized = append(normalized, p)
	}
	return normalized
}
