// ABOUTME: Role type with ordered integer ranks for hierarchy comparison.
// ABOUTME: ParseRole converts a profile role string to a Role value.
package authz

import "encoding/json"

// Role is a named position in the fixed role hierarchy. Higher integer
// values rank higher; rank does NOT imply a permission superset (see
// permissions.go for the deliberate carve-outs).
type Role int

// Role rank constants, ordered from least to most privileged. The relative
// order of srm and accounting carries no business meaning — they are
// incomparable roles that still need fixed, distinct ranks.
const (
	RoleGuest      Role = 1 // unauthenticated / unresolved profile
	RoleHomeowner  Role = 2
	RoleProvider   Role = 3 // service provider (contractor)
	RoleAgent      Role = 4 // real-estate agent
	RoleSRM        Role = 5 // senior relationship manager
	RoleAccounting Role = 6
	RoleAdmin      Role = 7
	RoleSuperAdmin Role = 8
)

// roleNames maps each Role to its wire/storage name.
var roleNames = map[Role]string{
	RoleGuest:      "guest",
	RoleHomeowner:  "homeowner",
	RoleProvider:   "provider",
	RoleAgent:      "agent",
	RoleSRM:        "srm",
	RoleAccounting: "accounting",
	RoleAdmin:      "admin",
	RoleSuperAdmin: "super_admin",
}

// AllRoles lists every role in ascending rank order.
func AllRoles() []Role {
	return []Role{
		RoleGuest, RoleHomeowner, RoleProvider, RoleAgent,
		RoleSRM, RoleAccounting, RoleAdmin, RoleSuperAdmin,
	}
}

// String returns the storage name of the role ("guest" for unknown values,
// matching the least-privilege fallback used everywhere else).
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "guest"
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// Rank returns the role's position in the hierarchy's total order.
// Unknown values rank as guest.
func (r Role) Rank() int {
	if r.Valid() {
		return int(r)
	}
	return int(RoleGuest)
}

// AtLeast reports whether r ranks at or above min.
func (r Role) AtLeast(min Role) bool {
	return r.Rank() >= min.Rank()
}

// MarshalJSON emits the role's storage name so API payloads carry role
// names, never bare rank integers.
func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON accepts a role name, degrading unknown values to guest the
// same way ParseRole does.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = ParseRole(s)
	return nil
}

// ParseRole converts a role string from the database or a token claim to a
// Role. Unknown or empty values map to RoleGuest — upstream profile data is
// frequently incomplete, and an unset role must never fail a request.
func ParseRole(s string) Role {
	switch s {
	case "super_admin":
		return RoleSuperAdmin
	case "admin":
		return RoleAdmin
	case "accounting":
		return RoleAccounting
	case "srm":
		return RoleSRM
	case "agent":
		return RoleAgent
	case "provider":
		return RoleProvider
	case "homeowner":
		return RoleHomeowner
	default:
		return RoleGuest
	}
}
