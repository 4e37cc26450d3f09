// ABOUTME: Role and permission middleware backed by the user_profiles table.
// ABOUTME: A missing profile or unknown role string degrades to guest, never to an error.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/doron007/realtechee-auth/internal/authz"
)

// resolveRole loads the authenticated user's role from user_profiles.
// Users without a profile row (or with an unrecognized role string) resolve
// to guest — upstream profile data is frequently incomplete and an
// unresolved role must deny by rank, not fail the request.
func (srv *Server) resolveRole(r *http.Request) (authz.Role, bool) {
	userID, ok := r.Context().Value(ctxUserID).(uuid.UUID)
	if !ok {
		return authz.RoleGuest, false
	}
	profile, err := srv.store.GetProfileByID(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "resolve role", "error", err)
		return authz.RoleGuest, false
	}
	if profile == nil {
		return authz.RoleGuest, true
	}
	return authz.ParseRole(profile.Role), true
}

// RequireMinimumRole returns a middleware that verifies the authenticated
// user's profile role ranks at or above minRole. On success it injects
// ctxRole into the request context.
//
// Must run after RequireAuthenticated.
func (srv *Server) RequireMinimumRole(minRole authz.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := srv.resolveRole(r)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !role.AtLeast(minRole) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			ctx := context.WithValue(r.Context(), ctxRole, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission returns a middleware that verifies the authenticated
// user's role holds perm in the permission catalog. Role rank is never
// consulted here — accounting outranks agent yet lacks several of its
// permissions. On success it injects ctxRole into the request context.
//
// Must run after RequireAuthenticated.
func (srv *Server) RequirePermission(perm authz.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := srv.resolveRole(r)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !authz.HasPermission(role, perm) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			ctx := context.WithValue(r.Context(), ctxRole, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
