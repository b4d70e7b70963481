package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmdesk/farmdesk/internal/shared"
)

func TestRequiredPermissionsExactMatch(t *testing.T) {
	pm := DefaultPermissionMap()
	for path, perms := range pm.Entries() {
		require.Equal(t, perms, pm.RequiredPermissions(path), path)
	}
	require.Equal(t, []string{shared.PermUsersManage, shared.PermUsersInvite}, pm.RequiredPermissions("/dashboard/users/invite"))
}

func TestRequiredPermissionsPublicPaths(t *testing.T) {
	pm := DefaultPermissionMap()
	for _, path := range []string{"/", "/login", "/dashboard", "/healthz", "/api/access", ""} {
		assert.Empty(t, pm.RequiredPermissions(path), path)
	}
}

func TestRequiredPermissionsLongestPrefixWins(t *testing.T) {
	pm := NewPermissionMap(map[string][]string{
		"/dashboard/users":        {"view_users"},
		"/dashboard/users/invite": {"manage_users"},
	})
	require.Equal(t, []string{"manage_users"}, pm.RequiredPermissions("/dashboard/users/invite/pending"))
	require.Equal(t, []string{"view_users"}, pm.RequiredPermissions("/dashboard/users/12"))
	require.Equal(t, []string{"view_users"}, pm.RequiredPermissions("/dashboard/users"))
}

func TestRequiredPermissionsIndependentOfInsertionOrder(t *testing.T) {
	// Go maps randomise iteration, so building the same table repeatedly
	// exercises different insertion orders.
	for i := 0; i < 50; i++ {
		pm := NewPermissionMap(map[string][]string{
			"/a":     {"p1"},
			"/a/b":   {"p2"},
			"/a/b/c": {"p3"},
			"/a/bd":  {"p4"},
		})
		require.Equal(t, []string{"p3"}, pm.RequiredPermissions("/a/b/c/d"))
		require.Equal(t, []string{"p2"}, pm.RequiredPermissions("/a/b/x"))
		require.Equal(t, []string{"p4"}, pm.RequiredPermissions("/a/bd/1"))
		require.Equal(t, []string{"p1"}, pm.RequiredPermissions("/a/z"))
	}
}

func TestPermissionMapNormalisesInput(t *testing.T) {
	pm := NewPermissionMap(map[string][]string{
		"dashboard/sales/": {" View_Sales ", "view_sales", "", "MANAGE_SALES"},
	})
	require.Equal(t, []string{"view_sales", "manage_sales"}, pm.RequiredPermissions("/dashboard/sales"))
	require.Equal(t, []string{"view_sales", "manage_sales"}, pm.RequiredPermissions("/dashboard/sales/?page=2"))
	require.Equal(t, []string{"/dashboard/sales"}, pm.Prefixes())
}

func TestRequiredPermissionsReturnsCopy(t *testing.T) {
	pm := DefaultPermissionMap()
	got := pm.RequiredPermissions("/dashboard/expenses")
	require.NotEmpty(t, got)
	got[0] = "tampered"
	require.NotContains(t, pm.RequiredPermissions("/dashboard/expenses"), "tampered")
}

func TestNilPermissionMap(t *testing.T) {
	var pm *PermissionMap
	require.Empty(t, pm.RequiredPermissions("/dashboard/users"))
	require.Nil(t, pm.Entries())
}
