// ABOUTME: Integration tests for the /users endpoints through the full Handler stack.
// ABOUTME: Covers the role-mutation policy surface and the audit trail it writes.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/doron007/realtechee-auth/internal/authz"
	"github.com/doron007/realtechee-auth/internal/store"
	"github.com/doron007/realtechee-auth/internal/testutil"
)

// newUsersTestServer builds the full handler stack against a fresh test DB.
func newUsersTestServer(t *testing.T) (*testutil.TestDB, *httptest.Server) {
	t.Helper()
	db := testutil.NewTestDB(t)
	srv := newTestServer(t, db)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return db, ts
}

func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequestWithContext(context.Background(), method, ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() }) //nolint:errcheck
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func mustCreateProfile(t *testing.T, db *testutil.TestDB, email, role string) *store.Profile {
	t.Helper()
	p, err := db.CreateProfile(context.Background(), email, "", role)
	if err != nil {
		t.Fatalf("create profile %s: %v", email, err)
	}
	return p
}

func TestUpdateUserRole_AdminAssignsStaffRole(t *testing.T) {
	t.Parallel()
	db, ts := newUsersTestServer(t)

	admin := mustCreateProfile(t, db, "mut_admin@example.com", "admin")
	target := mustCreateProfile(t, db, "mut_agent@example.com", "agent")

	resp := doJSON(t, ts, http.MethodPatch, "/api/v1/users/"+target.ID.String()+"/role",
		issueToken(t, admin.ID, admin.Email), updateRoleBody{Role: "srm"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin assigning srm: got %d, want 200", resp.StatusCode)
	}
	entry := decodeBody[profileEntry](t, resp)
	if entry.Role != "srm" {
		t.Errorf("response role = %q, want srm", entry.Role)
	}

	// The mutation must leave an audit row with old and new roles.
	events, err := db.ListRoleEvents(context.Background(), target.ID, nil, 0)
	if err != nil {
		t.Fatalf("list role events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("role events = %d, want 1", len(events))
	}
	if events[0].OldRole != "agent" || events[0].NewRole != "srm" {
		t.Errorf("event roles = %s→%s, want agent→srm", events[0].OldRole, events[0].NewRole)
	}
	if events[0].ActorID != admin.ID {
		t.Errorf("event actor = %s, want %s", events[0].ActorID, admin.ID)
	}
}

func TestUpdateUserRole_AdminCannotGrantAdmin(t *testing.T) {
	t.Parallel()
	db, ts := newUsersTestServer(t)

	admin := mustCreateProfile(t, db, "mut_admin2@example.com", "admin")
	target := mustCreateProfile(t, db, "mut_target2@example.com", "srm")

	for _, requested := range []string{"admin", "super_admin"} {
		resp := doJSON(t, ts, http.MethodPatch, "/api/v1/users/"+target.ID.String()+"/role",
			issueToken(t, admin.ID, admin.Email), updateRoleBody{Role: requested})
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("admin assigning %s: got %d, want 403", requested, resp.StatusCode)
			continue
		}
		decision := decodeBody[authz.Decision](t, resp)
		if decision.Allowed || decision.Reason == "" {
			t.Errorf("denial body = %+v, want allowed=false with reason", decision)
		}
	}

	// No audit row is written for a denied mutation.
	events, err := db.ListRoleEvents(context.Background(), target.ID, nil, 0)
	if err != nil {
		t.Fatalf("list role events: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("role events after denials = %d, want 0", len(events))
	}
}

func TestUpdateUserRole_SuperAdminGrantsAdmin(t *testing.T) {
	t.Parallel()
	db, ts := newUsersTestServer(t)

	super := mustCreateProfile(t, db, "mut_super@example.com", "super_admin")
	target := mustCreateProfile(t, db, "mut_target3@example.com", "agent")

	resp := doJSON(t, ts, http.MethodPatch, "/api/v1/users/"+target.ID.String()+"/role",
		issueToken(t, super.ID, super.Email), updateRoleBody{Role: "admin"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("super_admin assigning admin: got %d, want 200", resp.StatusCode)
	}
	entry := decodeBody[profileEntry](t, resp)
	if entry.Role != "admin" {
		t.Errorf("response role = %q, want admin", entry.Role)
	}
}

func TestUpdateUserRole_ProtectedTargetDenied(t *testing.T) {
	t.Parallel()
	db, ts := newUsersTestServer(t)

	super := mustCreateProfile(t, db, "mut_super2@example.com", "super_admin")
	// Matches ProtectedAdminEmail in the test config, case-insensitively.
	protected := mustCreateProfile(t, db, "Info@RealTechee.com", "super_admin")

	resp := doJSON(t, ts, http.MethodPatch, "/api/v1/users/"+protected.ID.String()+"/role",
		issueToken(t, super.ID, super.Email), updateRoleBody{Role: "homeowner"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("mutating protected account: got %d, want 403", resp.StatusCode)
	}
	decision := decodeBody[authz.Decision](t, resp)
	if decision.Reason != "cannot modify super admin account" {
		t.Errorf("reason = %q, want the protected-account message", decision.Reason)
	}

	// The row is untouched.
	p, err := db.GetProfileByID(context.Background(), protected.ID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if p.Role != "super_admin" {
		t.Errorf("protected role after denied mutation = %q, want super_admin", p.Role)
	}
}

func TestUpdateUserRole_UnknownRole_400(t *testing.T) {
	t.Parallel()
	db, ts := newUsersTestServer(t)

	admin := mustCreateProfile(t, db, "mut_admin3@example.com", "admin")
	target := mustCreateProfile(t, db, "mut_target4@example.com", "guest")

	// ParseRole would silently degrade these to guest; the API must reject
	// them instead of applying a role the caller did not name.
	for _, requested := range []string{"superuser", "Admin", ""} {
		resp := doJSON(t, ts, http.MethodPatch, "/api/v1/users/"+target.ID.String()+"/role",
			issueToken(t, admin.ID, admin.Email), updateRoleBody{Role: requested})
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("role %q: got %d, want 400", requested, resp.StatusCode)
		}
	}
}

func TestUpdateUserRole_TargetNotFound_404(t *testing.T) {
	t.Parallel()
	db, ts := newUsersTestServer(t)

	admin := mustCreateProfile(t, db, "mut_admin4@example.com", "admin")

	resp := doJSON(t, ts, http.MethodPatch, "/api/v1/users/"+uuid.NewString()+"/role",
		issueToken(t, admin.ID, admin.Email), updateRoleBody{Role: "agent"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown target: got %d, want 404", resp.StatusCode)
	}
}

func TestUpdateUserRole_NonAdminActor_403(t *testing.T) {
	t.Parallel()
	db, ts := newUsersTestServer(t)

	srm := mustCreateProfile(t, db, "mut_srm@example.com", "srm")
	target := mustCreateProfile(t, db, "mut_target5@example.com", "guest")

	// Blocked by the RequireMinimumRole(admin) gate before the policy runs.
	resp := doJSON(t, ts, http.MethodPatch, "/api/v1/users/"+target.ID.String()+"/role",
		issueToken(t, srm.ID, srm.Email), updateRoleBody{Role: "homeowner"})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("srm mutating role: got %d, want 403", resp.StatusCode)
	}
}

func TestGetMe_WithProfile(t *testing.T) {
	t.Parallel()
	db, ts := newUsersTestServer(t)

	agent := mustCreateProfile(t, db, "me_agent@example.com", "agent")

	resp := doJSON(t, ts, http.MethodGet, "/api/v1/users/me", issueToken(t, agent.ID, agent.Email), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get me: got %d, want 200", resp.StatusCode)
	}
	me := decodeBody[meResponseBody](t, resp)
	if me.Role != "agent" {
		t.Errorf("role = %q, want agent", me.Role)
	}
	if me.Rank != authz.RoleAgent.Rank() {
		t.Errorf("rank = %d, want %d", me.Rank, authz.RoleAgent.Rank())
	}
	found := false
	for _, p := range me.Permissions {
		if p == string(authz.PermSubmitEstimates) {
			found = true
		}
	}
	if !found {
		t.Errorf("permissions %v missing submit_estimates", me.Permissions)
	}
}

func TestGetMe_NoProfile_Guest(t *testing.T) {
	t.Parallel()
	_, ts := newUsersTestServer(t)

	resp := doJSON(t, ts, http.MethodGet, "/api/v1/users/me", issueToken(t, uuid.New(), "ghost@example.com"), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get me without profile: got %d, want 200", resp.StatusCode)
	}
	me := decodeBody[meResponseBody](t, resp)
	if me.Role != "guest" {
		t.Errorf("role = %q, want guest", me.Role)
	}
	if me.Email != "ghost@example.com" {
		t.Errorf("email = %q, want token email", me.Email)
	}
	if len(me.Permissions) != len(authz.PermissionsFor(authz.RoleGuest)) {
		t.Errorf("permissions = %v, want the guest set", me.Permissions)
	}
}

func TestListUsers_RequiresManageUsers(t *testing.T) {
	t.Parallel()
	db, ts := newUsersTestServer(t)

	admin := mustCreateProfile(t, db, "list_admin@example.com", "admin")
	mustCreateProfile(t, db, "list_agent@example.com", "agent")
	agent := mustCreateProfile(t, db, "list_agent2@example.com", "agent")

	resp := doJSON(t, ts, http.MethodGet, "/api/v1/users/?role=agent", issueToken(t, admin.ID, admin.Email), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin listing users: got %d, want 200", resp.StatusCode)
	}
	entries := decodeBody[[]profileEntry](t, resp)
	if len(entries) != 2 {
		t.Errorf("agent entries = %d, want 2", len(entries))
	}

	// Agents hold no manage_users permission.
	resp = doJSON(t, ts, http.MethodGet, "/api/v1/users/", issueToken(t, agent.ID, agent.Email), nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("agent listing users: got %d, want 403", resp.StatusCode)
	}
}

func TestListRoleEvents_FiltersByNewRole(t *testing.T) {
	t.Parallel()
	db, ts := newUsersTestServer(t)

	admin := mustCreateProfile(t, db, "ev_admin@example.com", "admin")
	target := mustCreateProfile(t, db, "ev_target@example.com", "guest")

	token := issueToken(t, admin.ID, admin.Email)
	for _, role := range []string{"agent", "srm", "agent"} {
		resp := doJSON(t, ts, http.MethodPatch, "/api/v1/users/"+target.ID.String()+"/role",
			token, updateRoleBody{Role: role})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("assign %s: got %d, want 200", role, resp.StatusCode)
		}
	}

	resp := doJSON(t, ts, http.MethodGet,
		"/api/v1/users/"+target.ID.String()+"/role-events?new_role=agent", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list role events: got %d, want 200", resp.StatusCode)
	}
	entries := decodeBody[[]roleEventEntry](t, resp)
	if len(entries) != 2 {
		t.Fatalf("agent events = %d, want 2", len(entries))
	}
	for _, e := range entries {
		if e.NewRole != "agent" {
			t.Errorf("filtered event new_role = %q, want agent", e.NewRole)
		}
	}
}
