// ABOUTME: HTTP handlers for role inference: classify, possible-roles, validate, reclassify.
// ABOUTME: Inference is advisory — these endpoints never write user_profiles.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/doron007/realtechee-auth/internal/authz"
	"github.com/doron007/realtechee-auth/internal/inference"
	"github.com/doron007/realtechee-auth/internal/worker"
)

// classifyBody is the request body for the classify and possible-roles
// endpoints. Either a stored contact_id or inline contact fields; when
// contact_id is set the stored row wins.
type classifyBody struct {
	ContactID *uuid.UUID        `json:"contact_id,omitempty"`
	Contact   inference.Contact `json:"contact"`
}

// validateBody is the request body for POST /inference/validate.
type validateBody struct {
	classifyBody
	ProposedRole string `json:"proposed_role"`
}

// resolveContact returns the contact to classify: the stored row when
// contact_id is given, the inline fields otherwise. The bool reports whether
// a stored contact was resolved (and its recommendation should be recorded).
func (srv *Server) resolveContact(w http.ResponseWriter, r *http.Request, body *classifyBody) (inference.Contact, *uuid.UUID, bool) {
	if body.ContactID == nil {
		return body.Contact, nil, true
	}
	c, err := srv.store.GetContactByID(r.Context(), *body.ContactID)
	if err != nil {
		slog.ErrorContext(r.Context(), "load contact", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return inference.Contact{}, nil, false
	}
	if c == nil {
		http.Error(w, "contact not found", http.StatusNotFound)
		return inference.Contact{}, nil, false
	}
	return inference.Contact{
		Email:     c.Email,
		Company:   c.Company,
		Brokerage: c.Brokerage,
		FirstName: c.FirstName,
		LastName:  c.LastName,
	}, &c.ID, true
}

// classifyHandler handles POST /api/v1/inference/classify.
// Returns the primary recommendation; for a stored contact the outcome is
// also recorded as a 'realtime' role_recommendation for later review.
func (srv *Server) classifyHandler(w http.ResponseWriter, r *http.Request) {
	var body classifyBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	contact, contactID, ok := srv.resolveContact(w, r, &body)
	if !ok {
		return
	}

	rec := srv.engine.Classify(contact)

	if contactID != nil {
		if _, err := srv.store.InsertRecommendation(r.Context(), *contactID,
			rec.Role.String(), string(rec.Confidence), rec.Explanation, "realtime"); err != nil {
			// The classification itself succeeded; losing the audit row is
			// log-worthy but not a request failure.
			slog.ErrorContext(r.Context(), "record recommendation", "error", err, "contact_id", *contactID)
		}
	}

	writeJSON(w, http.StatusOK, rec)
}

// possibleRolesHandler handles POST /api/v1/inference/possible-roles.
// Returns every matching rule's recommendation; the homeowner default is
// always the final element.
func (srv *Server) possibleRolesHandler(w http.ResponseWriter, r *http.Request) {
	var body classifyBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	contact, _, ok := srv.resolveContact(w, r, &body)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, srv.engine.AllPossibleRoles(contact))
}

// validateRoleHandler handles POST /api/v1/inference/validate.
// Reports whether any rule justifies the proposed role for the contact.
// Advisory: a human may always override, so an invalid proposal is 200 with
// valid:false, not an error status.
func (srv *Server) validateRoleHandler(w http.ResponseWriter, r *http.Request) {
	var body validateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	proposed := authz.ParseRole(body.ProposedRole)
	if proposed.String() != body.ProposedRole {
		http.Error(w, "unknown role: "+body.ProposedRole, http.StatusBadRequest)
		return
	}

	contact, _, ok := srv.resolveContact(w, r, &body.classifyBody)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, srv.engine.ValidateRoleAssignment(contact, proposed))
}

// reclassifyResponseBody is the response for POST /api/v1/admin/reclassify.
type reclassifyResponseBody struct {
	JobID string `json:"job_id"`
}

// reclassifyHandler handles POST /api/v1/admin/reclassify.
// Enqueues a batch sweep (or, with contact_id, a single-contact rerun) for
// the worker pool; returns 202 with the job ID.
func (srv *Server) reclassifyHandler(w http.ResponseWriter, r *http.Request) {
	var payload worker.ReclassifyPayload
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(r.Context(), "encode reclassify payload", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	jobID, err := srv.store.EnqueueJob(r.Context(), worker.ReclassifyQueue, 0, raw, 3, nil)
	if err != nil {
		slog.ErrorContext(r.Context(), "enqueue reclassify", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, reclassifyResponseBody{JobID: jobID.String()})
}
