// ABOUTME: Per-role permission catalog and membership queries.
// ABOUTME: The catalog is an explicit table — rank does not imply a permission superset.
package authz

// Permission is an opaque named capability from the closed catalog below.
type Permission string

// The permission catalog. Callers check capabilities by name; role rank is
// never consulted for a capability decision.
const (
	PermViewPublicPages            Permission = "view_public_pages"
	PermSubmitForms                Permission = "submit_forms"
	PermManageOwnProfile           Permission = "manage_own_profile"
	PermViewOwnNotifications       Permission = "view_own_notifications"
	PermViewOwnProjects            Permission = "view_own_projects"
	PermSubmitEstimates            Permission = "submit_estimates"
	PermViewAssignedProjects       Permission = "view_assigned_projects"
	PermManageClientCommunications Permission = "manage_client_communications"
	PermViewAllProjects            Permission = "view_all_projects"
	PermViewReports                Permission = "view_reports"
	PermManageUsers                Permission = "manage_users"
	PermManageSystemSettings       Permission = "manage_system_settings"
	PermFullSystemAccess           Permission = "full_system_access"
)

// rolePermissions is the explicit per-role table. It is intentionally NOT
// derived as "union of everything at or below rank": srm and accounting drop
// submit_forms despite ranking above agent, and accounting additionally
// drops the agent collaboration permissions. Keep the carve-outs literal.
var rolePermissions = map[Role][]Permission{
	RoleGuest: {
		PermViewPublicPages,
		PermSubmitForms,
	},
	RoleHomeowner: {
		PermViewPublicPages,
		PermSubmitForms,
		PermManageOwnProfile,
		PermViewOwnNotifications,
		PermViewOwnProjects,
	},
	RoleProvider: {
		PermViewPublicPages,
		PermSubmitForms,
		PermManageOwnProfile,
		PermViewOwnNotifications,
		PermViewOwnProjects,
	},
	RoleAgent: {
		PermViewPublicPages,
		PermSubmitForms,
		PermManageOwnProfile,
		PermViewOwnNotifications,
		PermViewOwnProjects,
		PermSubmitEstimates,
		PermViewAssignedProjects,
		PermManageClientCommunications,
	},
	// srm keeps the agent collaboration set plus cross-project visibility,
	// but does not submit public forms.
	RoleSRM: {
		PermViewPublicPages,
		PermManageOwnProfile,
		PermViewOwnNotifications,
		PermViewOwnProjects,
		PermSubmitEstimates,
		PermViewAssignedProjects,
		PermManageClientCommunications,
		PermViewAllProjects,
		PermViewReports,
	},
	// accounting is the most restrictive high-rank role: read access across
	// projects and reports, nothing client-facing.
	RoleAccounting: {
		PermViewPublicPages,
		PermManageOwnProfile,
		PermViewOwnNotifications,
		PermViewOwnProjects,
		PermViewAllProjects,
		PermViewReports,
	},
	RoleAdmin:      adminPermissions,
	RoleSuperAdmin: adminPermissions,
}

// adminPermissions is the full catalog. admin and super_admin hold identical
// permission sets; they differ only under the mutation policy (policy.go).
var adminPermissions = []Permission{
	PermViewPublicPages,
	PermSubmitForms,
	PermManageOwnProfile,
	PermViewOwnNotifications,
	PermViewOwnProjects,
	PermSubmitEstimates,
	PermViewAssignedProjects,
	PermManageClientCommunications,
	PermViewAllProjects,
	PermViewReports,
	PermManageUsers,
	PermManageSystemSettings,
	PermFullSystemAccess,
}

// PermissionsFor returns the permission set for role. Unknown roles get the
// guest set — profile data with a bad role string must degrade, not fail.
func PermissionsFor(role Role) []Permission {
	if perms, ok := rolePermissions[role]; ok {
		return perms
	}
	return rolePermissions[RoleGuest]
}

// HasPermission reports whether role holds perm.
func HasPermission(role Role, perm Permission) bool {
	for _, p := range PermissionsFor(role) {
		if p == perm {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether role holds at least one of perms.
// An empty perms list is false.
func HasAnyPermission(role Role, perms ...Permission) bool {
	for _, p := range perms {
		if HasPermission(role, p) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether role holds every permission in perms.
// An empty perms list is true.
func HasAllPermissions(role Role, perms ...Permission) bool {
	for _, p := range perms {
		if !HasPermission(role, p) {
			return false
		}
	}
	return true
}

// HasMinimumRole reports whether role ranks at or above min. Unknown roles
// compare as guest.
func HasMinimumRole(role Role, min Role) bool {
	return role.AtLeast(min)
}
