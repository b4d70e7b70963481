package rbac

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/farmdesk/farmdesk/internal/shared"
)

// MemoryRepository is a read-only directory held in memory. It backs the
// console when records come from fixtures instead of PostgreSQL.
type MemoryRepository struct {
	users     []User
	roles     []memoryRole
	userRoles map[int64][]int64
}

type memoryRole struct {
	Role
	// tenantID 0 marks a role shared by every tenant.
	tenantID int64
}

type directoryFile struct {
	Users []directoryUser `json:"users"`
	Roles []directoryRole `json:"roles"`
}

type directoryUser struct {
	ID           int64    `json:"id"`
	TenantID     int64    `json:"tenant_id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	IsSuperAdmin bool     `json:"is_super_admin"`
	IsOwner      bool     `json:"is_owner"`
	IsActive     *bool    `json:"is_active"`
	CreatedAt    string   `json:"created_at"`
	Roles        []string `json:"roles"`
}

type directoryRole struct {
	ID          int64    `json:"id"`
	TenantID    int64    `json:"tenant_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

// LoadDirectory reads the "users" and "roles" arrays of a fixture document.
// Other top-level keys are ignored so the same document can carry farm
// records. Users reference roles by name and default to active.
func LoadDirectory(r io.Reader) (*MemoryRepository, error) {
	var file directoryFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("rbac: decode directory: %w", err)
	}

	repo := &MemoryRepository{userRoles: make(map[int64][]int64, len(file.Users))}
	roleIDs := make(map[string]int64, len(file.Roles))
	for i, dr := range file.Roles {
		name := strings.TrimSpace(dr.Name)
		if dr.ID <= 0 || name == "" {
			return nil, fmt.Errorf("rbac: role #%d needs an id and a name: %w", i, shared.ErrValidation)
		}
		if _, dup := roleIDs[name]; dup {
			return nil, fmt.Errorf("rbac: role %q declared twice: %w", name, shared.ErrValidation)
		}
		roleIDs[name] = dr.ID
		repo.roles = append(repo.roles, memoryRole{
			Role: Role{
				ID:          dr.ID,
				Name:        name,
				Description: dr.Description,
				Permissions: normalizePermissions(dr.Permissions),
			},
			tenantID: dr.TenantID,
		})
	}

	seen := make(map[int64]struct{}, len(file.Users))
	for i, du := range file.Users {
		if du.ID <= 0 {
			return nil, fmt.Errorf("rbac: user #%d needs a positive id: %w", i, shared.ErrValidation)
		}
		if _, dup := seen[du.ID]; dup {
			return nil, fmt.Errorf("rbac: user %d declared twice: %w", du.ID, shared.ErrValidation)
		}
		seen[du.ID] = struct{}{}

		user := User{
			ID:           du.ID,
			TenantID:     du.TenantID,
			Name:         du.Name,
			Email:        du.Email,
			IsSuperAdmin: du.IsSuperAdmin,
			IsOwner:      du.IsOwner,
			IsActive:     du.IsActive == nil || *du.IsActive,
		}
		if du.CreatedAt != "" {
			created, err := time.Parse(time.RFC3339, du.CreatedAt)
			if err != nil {
				return nil, fmt.Errorf("rbac: user %d created_at: %w", du.ID, shared.ErrValidation)
			}
			user.CreatedAt = created
		}
		for _, name := range du.Roles {
			id, ok := roleIDs[strings.TrimSpace(name)]
			if !ok {
				return nil, fmt.Errorf("rbac: user %d references unknown role %q: %w", du.ID, name, shared.ErrValidation)
			}
			repo.userRoles[du.ID] = append(repo.userRoles[du.ID], id)
		}
		repo.users = append(repo.users, user)
	}
	return repo, nil
}

// FindUser returns the user with id or shared.ErrNotFound.
func (m *MemoryRepository) FindUser(_ context.Context, id int64) (User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, shared.ErrNotFound
}

// UserRoles returns the roles of userID in assignment order.
func (m *MemoryRepository) UserRoles(_ context.Context, userID int64) ([]Role, error) {
	var roles []Role
	for _, id := range m.userRoles[userID] {
		if role, ok := m.role(id); ok {
			roles = append(roles, role)
		}
	}
	return roles, nil
}

// ListUsers returns the users of tenantID ordered by name.
func (m *MemoryRepository) ListUsers(_ context.Context, tenantID int64) ([]User, error) {
	var users []User
	for _, u := range m.users {
		if u.TenantID == tenantID {
			users = append(users, u)
		}
	}
	slices.SortFunc(users, func(a, b User) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return users, nil
}

// ListRoles returns tenant roles plus shared roles ordered by name.
func (m *MemoryRepository) ListRoles(_ context.Context, tenantID int64) ([]Role, error) {
	var roles []Role
	for _, r := range m.roles {
		if r.tenantID == 0 || r.tenantID == tenantID {
			roles = append(roles, cloneRole(r.Role))
		}
	}
	slices.SortFunc(roles, func(a, b Role) int { return strings.Compare(a.Name, b.Name) })
	return roles, nil
}

// ListPermissions returns every permission granted by some role, ordered by
// name. Ids follow that order.
func (m *MemoryRepository) ListPermissions(context.Context) ([]Permission, error) {
	var names []string
	for _, r := range m.roles {
		names = append(names, r.Permissions...)
	}
	names = normalizePermissions(names)
	slices.Sort(names)
	perms := make([]Permission, 0, len(names))
	for i, name := range names {
		perms = append(perms, Permission{ID: int64(i + 1), Name: name})
	}
	return perms, nil
}

func (m *MemoryRepository) role(id int64) (Role, bool) {
	for _, r := range m.roles {
		if r.ID == id {
			return cloneRole(r.Role), true
		}
	}
	return Role{}, false
}

func cloneRole(r Role) Role {
	r.Permissions = append([]string(nil), r.Permissions...)
	return r
}
