package rbac

import (
	"sort"
	"strings"

	"github.com/farmdesk/farmdesk/internal/shared"
)

// PermissionMap maps console path prefixes to the permissions that grant
// access. A user needs at least one permission of the matched entry. The map
// is immutable after construction and safe for concurrent use.
type PermissionMap struct {
	exact map[string][]string
	// prefixes is ordered longest first so the most specific entry wins.
	prefixes []string
}

// NewPermissionMap builds a map from path prefix to permission names.
func NewPermissionMap(entries map[string][]string) *PermissionMap {
	pm := &PermissionMap{exact: make(map[string][]string, len(entries))}
	for path, perms := range entries {
		key := normalizePath(path)
		if key == "" {
			continue
		}
		pm.exact[key] = normalizePermissions(append(pm.exact[key], perms...))
	}
	pm.prefixes = make([]string, 0, len(pm.exact))
	for key := range pm.exact {
		pm.prefixes = append(pm.prefixes, key)
	}
	sort.Slice(pm.prefixes, func(i, j int) bool {
		if len(pm.prefixes[i]) != len(pm.prefixes[j]) {
			return len(pm.prefixes[i]) > len(pm.prefixes[j])
		}
		return pm.prefixes[i] < pm.prefixes[j]
	})
	return pm
}

// RequiredPermissions returns the permissions guarding path. An exact entry
// wins; otherwise the longest configured prefix of path applies. An empty
// result means the path is public.
func (pm *PermissionMap) RequiredPermissions(path string) []string {
	if pm == nil {
		return nil
	}
	key := normalizePath(path)
	if perms, ok := pm.exact[key]; ok {
		return clonePermissions(perms)
	}
	for _, prefix := range pm.prefixes {
		if strings.HasPrefix(key, prefix) {
			return clonePermissions(pm.exact[prefix])
		}
	}
	return nil
}

// Entries returns a copy of the table keyed by normalised path.
func (pm *PermissionMap) Entries() map[string][]string {
	if pm == nil {
		return nil
	}
	out := make(map[string][]string, len(pm.exact))
	for k, v := range pm.exact {
		out[k] = clonePermissions(v)
	}
	return out
}

// Prefixes lists configured paths, most specific first.
func (pm *PermissionMap) Prefixes() []string {
	if pm == nil {
		return nil
	}
	return append([]string(nil), pm.prefixes...)
}

// DefaultPermissionMap returns the route table of the farm console.
func DefaultPermissionMap() *PermissionMap {
	return NewPermissionMap(map[string][]string{
		"/dashboard/users":        {shared.PermUsersView, shared.PermUsersManage},
		"/dashboard/users/invite": {shared.PermUsersManage, shared.PermUsersInvite},
		"/dashboard/roles":        {shared.PermRolesView, shared.PermRolesManage},
		"/dashboard/permissions":  {shared.PermPermissionsManage},
		"/dashboard/farms":        {shared.PermFarmsView, shared.PermFarmsManage},
		"/dashboard/animals":      {shared.PermAnimalsView, shared.PermAnimalsManage},
		"/dashboard/animals/new":  {shared.PermAnimalsManage},
		"/dashboard/animal-hire":  {shared.PermAnimalHireView, shared.PermAnimalHireManage},
		"/dashboard/medical":      {shared.PermMedicalView, shared.PermMedicalManage},
		"/dashboard/sales":        {shared.PermSalesView, shared.PermSalesManage},
		"/dashboard/sales/new":    {shared.PermSalesManage},
		"/dashboard/expenses":     {shared.PermExpensesView, shared.PermExpensesManage},
		"/dashboard/expenses/new": {shared.PermExpensesManage},
		"/dashboard/settings":     {shared.PermSettingsManage},

		"/dashboard/expenses/summary/refresh": {shared.PermExpensesManage},
	})
}

func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}

func clonePermissions(perms []string) []string {
	if len(perms) == 0 {
		return nil
	}
	return append([]string(nil), perms...)
}
