// ABOUTME: HTTP handlers for user profiles: me, listing, role mutation, audit trail.
// ABOUTME: Role changes pass through authz.CanAssign; denials surface as 403 with a reason.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/doron007/realtechee-auth/internal/authz"
	"github.com/doron007/realtechee-auth/internal/store"
)

// profileEntry is the JSON representation of a user profile in responses.
type profileEntry struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	CreatedAt   string `json:"created_at"`
}

// meResponseBody extends profileEntry with the effective permission set.
type meResponseBody struct {
	profileEntry
	Rank        int      `json:"rank"`
	Permissions []string `json:"permissions"`
}

// updateRoleBody is the request body for PATCH /users/{user_id}/role.
type updateRoleBody struct {
	Role string `json:"role"`
}

// roleEventEntry is one row in the role-events audit response.
type roleEventEntry struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	OldRole   string `json:"old_role"`
	NewRole   string `json:"new_role"`
	CreatedAt string `json:"created_at"`
}

func toProfileEntry(p *store.Profile) profileEntry {
	return profileEntry{
		UserID:      p.ID.String(),
		Email:       p.Email,
		DisplayName: p.DisplayName,
		Role:        authz.ParseRole(p.Role).String(),
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
}

// getMeHandler handles GET /api/v1/users/me.
// A user with no profile row is reported as guest with guest permissions —
// many accounts authenticate before their profile is provisioned.
func (srv *Server) getMeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(ctxUserID).(uuid.UUID)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	profile, err := srv.store.GetProfileByID(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "get me", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	role := authz.RoleGuest
	entry := profileEntry{
		UserID: userID.String(),
		Role:   role.String(),
	}
	if email, ok := r.Context().Value(ctxUserEmail).(string); ok {
		entry.Email = email
	}
	if profile != nil {
		role = authz.ParseRole(profile.Role)
		entry = toProfileEntry(profile)
	}

	perms := make([]string, 0)
	for _, p := range authz.PermissionsFor(role) {
		perms = append(perms, string(p))
	}
	writeJSON(w, http.StatusOK, meResponseBody{
		profileEntry: entry,
		Rank:         role.Rank(),
		Permissions:  perms,
	})
}

// listUsersHandler handles GET /api/v1/users.
// Requires the manage_users permission (enforced by middleware).
// Query params: role (repeatable), q (email substring), limit, offset.
func (srv *Server) listUsersHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ProfileFilter{
		Roles:       q["role"],
		EmailSearch: q.Get("q"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid offset", http.StatusBadRequest)
			return
		}
		filter.Offset = n
	}

	profiles, err := srv.store.ListProfiles(r.Context(), filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "list users", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	entries := make([]profileEntry, 0, len(profiles))
	for i := range profiles {
		entries = append(entries, toProfileEntry(&profiles[i]))
	}
	writeJSON(w, http.StatusOK, entries)
}

// updateUserRoleHandler handles PATCH /api/v1/users/{user_id}/role.
// Requires admin+ (enforced by middleware); the finer-grained decision —
// protected target, admin/super_admin boundary — is authz.CanAssign's.
func (srv *Server) updateUserRoleHandler(w http.ResponseWriter, r *http.Request) {
	actorID, ok := r.Context().Value(ctxUserID).(uuid.UUID)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	actorRole, ok := r.Context().Value(ctxRole).(authz.Role)
	if !ok {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	userID, err := uuid.Parse(chi.URLParam(r, "user_id"))
	if err != nil {
		http.Error(w, "invalid user_id", http.StatusBadRequest)
		return
	}

	var req updateRoleBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	requested := authz.ParseRole(req.Role)
	if requested.String() != req.Role {
		http.Error(w, "unknown role: "+req.Role, http.StatusBadRequest)
		return
	}

	target, err := srv.store.GetProfileByID(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "update role: load target", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if target == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	targetIsProtected := strings.EqualFold(strings.TrimSpace(target.Email), strings.TrimSpace(srv.cfg.ProtectedAdminEmail))
	decision := authz.CanAssign(actorRole, authz.ParseRole(target.Role), targetIsProtected, requested)
	observeMutationDecision(decision)
	if !decision.Allowed {
		writeJSON(w, http.StatusForbidden, decision)
		return
	}

	updated, err := srv.store.UpdateProfileRole(r.Context(), userID, actorID, requested.String())
	if err != nil {
		slog.ErrorContext(r.Context(), "update role", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if updated == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	slog.InfoContext(r.Context(), "role changed",
		"user_id", userID, "actor_id", actorID,
		"old_role", target.Role, "new_role", updated.Role)
	writeJSON(w, http.StatusOK, toProfileEntry(updated))
}

// listRoleEventsHandler handles GET /api/v1/users/{user_id}/role-events.
// Requires admin+. Query params: new_role (repeatable), limit.
func (srv *Server) listRoleEventsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "user_id"))
	if err != nil {
		http.Error(w, "invalid user_id", http.StatusBadRequest)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	events, err := srv.store.ListRoleEvents(r.Context(), userID, r.URL.Query()["new_role"], limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "list role events", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	entries := make([]roleEventEntry, 0, len(events))
	for _, e := range events {
		entries = append(entries, roleEventEntry{
			ID:        e.ID.String(),
			ActorID:   e.ActorID.String(),
			OldRole:   e.OldRole,
			NewRole:   e.NewRole,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, entries)
}
