// ABOUTME: Role-mutation policy — who may assign which role to whom.
// ABOUTME: Ordered guard clauses; the admin/super_admin boundary is hard-coded, not rank-derived.
package authz

// Decision is the outcome of a mutation-policy check. A denial is a normal
// result the caller surfaces to the user, never an error.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// CanAssign decides whether an actor with actorRole may change a target user
// from targetCurrentRole to requestedRole. targetIsProtected marks the one
// reserved super-admin account, which no actor may modify.
//
// The guards run first-match-wins. This is deliberately NOT a generic
// "actor outranks requested role" comparison: accounting and srm rank above
// agent yet any admin may assign them freely. Only the admin/super_admin
// boundary is restricted.
func CanAssign(actorRole, targetCurrentRole Role, targetIsProtected bool, requestedRole Role) Decision {
	_ = targetCurrentRole // accepted for auditability and future guards; no current guard reads it

	if targetIsProtected {
		return Decision{Allowed: false, Reason: "cannot modify super admin account"}
	}

	if (requestedRole == RoleAdmin || requestedRole == RoleSuperAdmin) && actorRole != RoleSuperAdmin {
		return Decision{Allowed: false, Reason: "only super admin can assign admin/super admin roles"}
	}

	// Redundant with the guard above; kept as an explicit defense-in-depth
	// check so the admin boundary survives edits to the previous clause.
	if actorRole == RoleAdmin && (requestedRole == RoleAdmin || requestedRole == RoleSuperAdmin) {
		return Decision{Allowed: false, Reason: "only super admin can assign admin/super admin roles"}
	}

	return Decision{Allowed: true}
}
