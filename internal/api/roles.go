// ABOUTME: Public read-only role catalog endpoints (huma / OpenAPI 3.1).
// ABOUTME: GET /roles lists the hierarchy; GET /roles/{role}/permissions resolves the catalog.
package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/doron007/realtechee-auth/internal/authz"
)

// RoleEntry is one role in the hierarchy listing.
type RoleEntry struct {
	Role string `json:"role"`
	Rank int    `json:"rank"`
}

type listRolesOutput struct {
	Body struct {
		Roles []RoleEntry `json:"roles"`
	}
}

type rolePermissionsInput struct {
	Role string `path:"role" doc:"Role name, e.g. agent"`
}

type rolePermissionsOutput struct {
	Body struct {
		Role        string   `json:"role"`
		Rank        int      `json:"rank"`
		Permissions []string `json:"permissions"`
	}
}

// registerRoleCatalogRoutes wires the public role-catalog endpoints.
// Both are pure lookups against in-process tables; no store access.
func registerRoleCatalogRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-roles",
		Method:      http.MethodGet,
		Path:        "/roles",
		Summary:     "List roles",
		Description: "Returns the full role hierarchy in ascending rank order.",
		Tags:        []string{"Roles"},
	}, listRolesHandler)

	huma.Register(api, huma.Operation{
		OperationID: "get-role-permissions",
		Method:      http.MethodGet,
		Path:        "/roles/{role}/permissions",
		Summary:     "Get role permissions",
		Description: "Returns the permission set for a role. Rank does not imply a permission superset.",
		Tags:        []string{"Roles"},
	}, getRolePermissionsHandler)
}

func listRolesHandler(_ context.Context, _ *struct{}) (*listRolesOutput, error) {
	out := &listRolesOutput{}
	for _, role := range authz.AllRoles() {
		out.Body.Roles = append(out.Body.Roles, RoleEntry{
			Role: role.String(),
			Rank: role.Rank(),
		})
	}
	return out, nil
}

func getRolePermissionsHandler(_ context.Context, in *rolePermissionsInput) (*rolePermissionsOutput, error) {
	role := authz.ParseRole(in.Role)
	// ParseRole degrades unknown names to guest; for an explicit catalog
	// lookup that would silently lie, so reject names that don't round-trip.
	if role.String() != in.Role {
		return nil, huma.Error404NotFound("unknown role: " + in.Role)
	}

	out := &rolePermissionsOutput{}
	out.Body.Role = role.String()
	out.Body.Rank = role.Rank()
	for _, p := range authz.PermissionsFor(role) {
		out.Body.Permissions = append(out.Body.Permissions, string(p))
	}
	return out, nil
}
