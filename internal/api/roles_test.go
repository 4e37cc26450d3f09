// ABOUTME: Tests for the public role-catalog endpoints.
// ABOUTME: Pure in-process lookups, so no database container is needed.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/doron007/realtechee-auth/internal/authz"
	"github.com/doron007/realtechee-auth/internal/config"
)

// newCatalogServer builds the handler stack with no store; the catalog
// endpoints never touch it.
func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := NewServer(nil, &config.Config{
		JWTSecret:            "catalog-test-secret-32-bytes-xxx",
		ProtectedAdminEmail:  "info@realtechee.com",
		OperatorCompanyNames: "realtechee",
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func catalogGet(t *testing.T, ts *httptest.Server, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, ts.URL+path, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() }) //nolint:errcheck
	return resp
}

func TestListRoles(t *testing.T) {
	t.Parallel()
	ts := newCatalogServer(t)

	resp := catalogGet(t, ts, "/api/v1/roles")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list roles: got %d, want 200", resp.StatusCode)
	}

	var body struct {
		Roles []RoleEntry `json:"roles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Roles) != len(authz.AllRoles()) {
		t.Fatalf("roles = %d, want %d", len(body.Roles), len(authz.AllRoles()))
	}
	if body.Roles[0].Role != "guest" || body.Roles[0].Rank != 1 {
		t.Errorf("first role = %+v, want guest rank 1", body.Roles[0])
	}
	for i := 1; i < len(body.Roles); i++ {
		if body.Roles[i].Rank <= body.Roles[i-1].Rank {
			t.Errorf("roles not in ascending rank order at %d: %+v", i, body.Roles)
		}
	}
}

func TestGetRolePermissions(t *testing.T) {
	t.Parallel()
	ts := newCatalogServer(t)

	resp := catalogGet(t, ts, "/api/v1/roles/accounting/permissions")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get permissions: got %d, want 200", resp.StatusCode)
	}

	var body struct {
		Role        string   `json:"role"`
		Rank        int      `json:"rank"`
		Permissions []string `json:"permissions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Role != "accounting" || body.Rank != authz.RoleAccounting.Rank() {
		t.Errorf("body = %+v, want accounting with its rank", body)
	}
	// The catalog response reflects the carve-out: no submit_forms despite rank.
	for _, p := range body.Permissions {
		if p == string(authz.PermSubmitForms) {
			t.Errorf("accounting permissions %v should not include submit_forms", body.Permissions)
		}
	}
}

func TestGetRolePermissions_UnknownRole_404(t *testing.T) {
	t.Parallel()
	ts := newCatalogServer(t)

	// "Guest" would silently degrade to guest via ParseRole; the catalog
	// must 404 instead of answering for a different role.
	for _, name := range []string{"superuser", "Guest"} {
		resp := catalogGet(t, ts, "/api/v1/roles/"+name+"/permissions")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("role %q: got %d, want 404", name, resp.StatusCode)
		}
	}
}

func TestHealthz_NoDB_Degraded(t *testing.T) {
	t.Parallel()
	ts := newCatalogServer(t)

	resp := catalogGet(t, ts, "/healthz")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("healthz without db: got %d, want 503", resp.StatusCode)
	}
}
