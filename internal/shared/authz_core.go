package shared

// Console administration permissions.
const (
	PermUsersView   = "view_users"
	PermUsersManage = "manage_users"
	PermUsersInvite = "invite_users"

	PermRolesView   = "view_roles"
	PermRolesManage = "manage_roles"

	PermPermissionsManage = "manage_permissions"

	PermSettingsManage = "manage_settings"
)

// CoreScopes lists all permissions related to console administration.
func CoreScopes() []string {
	return []string{
		PermUsersView,
		PermUsersManage,
		PermUsersInvite,
		PermRolesView,
		PermRolesManage,
		PermPermissionsManage,
		PermSettingsManage,
	}
}
