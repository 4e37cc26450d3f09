// ABOUTME: Integration tests for the /inference and /admin/reclassify endpoints.
// ABOUTME: Exercises the SRM gate, stored-contact resolution, and the realtime audit trail.
package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/doron007/realtechee-auth/internal/inference"
	"github.com/doron007/realtechee-auth/internal/worker"
)

func TestClassify_InlineContact(t *testing.T) {
	t.Parallel()
	db, ts := newUsersTestServer(t)

	srm := mustCreateProfile(t, db, "inf_srm@example.com", "srm")

	resp := doJSON(t, ts, http.MethodPost, "/api/v1/inference/classify",
		issueToken(t, srm.ID, srm.Email),
		classifyBody{Contact: inference.Contact{Email: "jane@remax.com", Brokerage: "RE/MAX"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("classify: got %d, want 200", resp.StatusCode)
	}
	rec := decodeBody[inference.Recommendation](t, resp)
	if rec.Role.String() != "agent" || rec.Confidence != inference.ConfidenceHigh {
		t.Errorf("recommendation = %+v, want agent/high", rec)
	}
}

func TestClassify_StoredContactRecordsRecommendation(t *testing.T) {
	t.Parallel()
	db, ts := newUsersTestServer(t)
	ctx := context.Background()

	srm := mustCreateProfile(t, db, "inf_srm2@example.com", "srm")
	contact, err := db.CreateContact(ctx, "joe@acmeplumbing.com", "Joe", "Smith", "Acme Plumbing", "")
	if err != nil {
		t.Fatalf("create contact: %v", err)
	}

	resp := doJSON(t, ts, http.MethodPost, "/api/v1/inference/classify",
		issueToken(t, srm.ID, srm.Email),
		classifyBody{ContactID: &contact.ID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("classify stored contact: got %d, want 200", resp.StatusCode)
	}
	rec := decodeBody[inference.Recommendation](t, resp)
	if rec.Role.String() != "provider" {
		t.Errorf("role = %s, want provider", rec.Role)
	}

	recs, err := db.ListRecommendations(ctx, contact.ID, 0)
	if err != nil {
		t.Fatalf("list recommendations: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("recommendations = %d, want 1", len(recs))
	}
	if recs[0].Role != "provider" || recs[0].Source != "realtime" {
		t.Errorf("recorded = %+v, want provider/realtime", recs[0])
	}
}

func TestClassify_UnknownStoredContact_404(t *testing.T) {
	t.Parallel()
	db, ts := newUsersTestServer(t)

	srm := mustCreateProfile(t, db, "inf_srm3@example.com", "srm")
	missing := uuid.New()

	resp := doJSON(t, ts, http.MethodPost, "/api/v1/inference/classify",
		issueToken(t, srm.ID, srm.Email), classifyBody{ContactID: &missing})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown contact: got %d, want 404", resp.StatusCode)
	}
}

func TestInference_RequiresSRM(t *testing.T) {
	t.Parallel()
	db, ts := newUsersTestServer(t)

	agent := mustCreateProfile(t, db, "inf_agent@example.com", "agent")

	resp := doJSON(t, ts, http.MethodPost, "/api/v1/inference/classify",
		issueToken(t, agent.ID, agent.Email),
		classifyBody{Contact: inference.Contact{Email: "jane@example.com"}})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("agent calling inference: got %d, want 403", resp.StatusCode)
	}
}

func TestPossibleRoles_DefaultAlwaysLast(t *testing.T) {
	t.Parallel()
	db, ts := newUsersTestServer(t)

	srm := mustCreateProfile(t, db, "inf_srm4@example.com", "srm")

	resp := doJSON(t, ts, http.MethodPost, "/api/v1/inference/possible-roles",
		issueToken(t, srm.ID, srm.Email),
		classifyBody{Contact: inference.Contact{Email: "admin@example.com", Company: "RealTechee"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("possible-roles: got %d, want 200", resp.StatusCode)
	}
	recs := decodeBody[[]inference.Recommendation](t, resp)
	if len(recs) < 2 {
		t.Fatalf("recommendations = %d, want at least admin plus the default", len(recs))
	}
	if recs[0].Role.String() != "admin" {
		t.Errorf("first = %s, want admin", recs[0].Role)
	}
	if last := recs[len(recs)-1]; last.Role.String() != "homeowner" || last.Confidence != inference.ConfidenceLow {
		t.Errorf("last = %+v, want the homeowner/low default", last)
	}
}

func TestValidate_InvalidProposalIs200(t *testing.T) {
	t.Parallel()
	db, ts := newUsersTestServer(t)

	srm := mustCreateProfile(t, db, "inf_srm5@example.com", "srm")
	token := issueToken(t, srm.ID, srm.Email)

	body := validateBody{
		classifyBody: classifyBody{Contact: inference.Contact{Email: "jane@remax.com", Brokerage: "RE/MAX"}},
		ProposedRole: "accounting",
	}
	resp := doJSON(t, ts, http.MethodPost, "/api/v1/inference/validate", token, body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("validate: got %d, want 200 even for an unjustified proposal", resp.StatusCode)
	}
	v := decodeBody[inference.Validation](t, resp)
	if v.Valid {
		t.Error("accounting for an agent contact should be invalid")
	}
	if v.Suggested == nil || v.Suggested.Role.String() != "agent" {
		t.Errorf("suggested = %+v, want agent", v.Suggested)
	}

	// An unknown role name is a request error, not an invalid proposal.
	body.ProposedRole = "superuser"
	resp = doJSON(t, ts, http.MethodPost, "/api/v1/inference/validate", token, body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown proposed role: got %d, want 400", resp.StatusCode)
	}
}

func TestReclassify_EnqueuesJob(t *testing.T) {
	t.Parallel()
	db, ts := newUsersTestServer(t)

	admin := mustCreateProfile(t, db, "inf_admin@example.com", "admin")

	resp := doJSON(t, ts, http.MethodPost, "/api/v1/admin/reclassify",
		issueToken(t, admin.ID, admin.Email), worker.ReclassifyPayload{})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("reclassify: got %d, want 202", resp.StatusCode)
	}
	body := decodeBody[reclassifyResponseBody](t, resp)
	if _, err := uuid.Parse(body.JobID); err != nil {
		t.Errorf("job_id %q is not a UUID: %v", body.JobID, err)
	}

	job, err := db.ClaimJob(context.Background(), worker.ReclassifyQueue, "test-worker")
	if err != nil {
		t.Fatalf("claim job: %v", err)
	}
	if job == nil {
		t.Fatal("expected a claimable reclassify job")
	}
	if job.Queue != worker.ReclassifyQueue {
		t.Errorf("queue = %q, want %q", job.Queue, worker.ReclassifyQueue)
	}
}

func TestReclassify_RequiresAdmin(t *testing.T) {
	t.Parallel()
	db, ts := newUsersTestServer(t)

	srm := mustCreateProfile(t, db, "inf_srm6@example.com", "srm")

	resp := doJSON(t, ts, http.MethodPost, "/api/v1/admin/reclassify",
		issueToken(t, srm.ID, srm.Email), nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("srm calling reclassify: got %d, want 403", resp.StatusCode)
	}
}
