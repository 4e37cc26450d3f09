// ABOUTME: Batch reclassify job — re-runs role inference over the contact table.
// ABOUTME: Records 'batch' role_recommendations for admin review; never mutates profiles.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/doron007/realtechee-auth/internal/inference"
	"github.com/doron007/realtechee-auth/internal/store"
)

// ReclassifyQueue is the queue name for batch reclassification jobs.
const ReclassifyQueue = "reclassify"

// ReclassifyPayload selects what a reclassify job covers. With a ContactID
// it re-runs inference for that one contact; otherwise it sweeps the whole
// contact table.
type ReclassifyPayload struct {
	ContactID *uuid.UUID `json:"contact_id,omitempty"`
}

// NewReclassifyHandler returns the Handler for the reclassify queue. The
// handler pages through contacts batchSize at a time, classifies each with
// engine, and records the outcome as a 'batch' recommendation. Inference is
// advisory: profiles are never written here.
func NewReclassifyHandler(s *store.Store, engine *inference.Engine, batchSize int) Handler {
	return func(ctx context.Context, payload json.RawMessage) error {
		var p ReclassifyPayload
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &p); err != nil {
				return fmt.Errorf("decode reclassify payload: %w", err)
			}
		}

		if p.ContactID != nil {
			return reclassifyOne(ctx, s, engine, *p.ContactID)
		}
		return reclassifyAll(ctx, s, engine, batchSize)
	}
}

func reclassifyOne(ctx context.Context, s *store.Store, engine *inference.Engine, contactID uuid.UUID) error {
	contact, err := s.GetContactByID(ctx, contactID)
	if err != nil {
		return err
	}
	if contact == nil {
		// Deleted since enqueue; nothing to do.
		slog.Info("reclassify: contact gone", "contact_id", contactID)
		return nil
	}
	return recordRecommendation(ctx, s, engine, contact)
}

func reclassifyAll(ctx context.Context, s *store.Store, engine *inference.Engine, batchSize int) error {
	var (
		after uuid.UUID
		total int
	)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		contacts, err := s.ListContactsAfter(ctx, after, batchSize)
		if err != nil {
			return err
		}
		if len(contacts) == 0 {
			break
		}
		for i := range contacts {
			if err := recordRecommendation(ctx, s, engine, &contacts[i]); err != nil {
				return err
			}
		}
		after = contacts[len(contacts)-1].ID
		total += len(contacts)
	}
	slog.Info("reclassify sweep complete", "contacts", total)
	return nil
}

func recordRecommendation(ctx context.Context, s *store.Store, engine *inference.Engine, c *store.Contact) error {
	rec := engine.Classify(inference.Contact{
		Email:     c.Email,
		Company:   c.Company,
		Brokerage: c.Brokerage,
		FirstName: c.FirstName,
		LastName:  c.LastName,
	})
	if _, err := s.InsertRecommendation(ctx, c.ID,
		rec.Role.String(), string(rec.Confidence), rec.Explanation, "batch"); err != nil {
		return fmt.Errorf("record recommendation for contact %s: %w", c.ID, err)
	}
	return nil
}
