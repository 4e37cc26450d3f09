// ABOUTME: Store methods for contacts and the inference audit trail.
// ABOUTME: ListContactsAfter supports keyset paging for the batch reclassify sweep.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Contact is a contacts row — raw identity attributes as imported, with no
// normalization applied.
type Contact struct {
	ID        uuid.UUID
	Email     string
	FirstName string
	LastName  string
	Company   string
	Brokerage string
	CreatedAt time.Time
}

const contactColumns = "id, email, first_name, last_name, company, brokerage, created_at"

// CreateContact inserts a contact row and returns it.
func (s *Store) CreateContact(ctx context.Context, email, firstName, lastName, company, brokerage string) (*Contact, error) {
	var c Contact
	err := s.pool.QueryRow(ctx,
		`INSERT INTO contacts (email, first_name, last_name, company, brokerage)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+contactColumns,
		email, firstName, lastName, company, brokerage,
	).Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.Company, &c.Brokerage, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return &c, nil
}

// GetContactByID returns the contact with the given ID, or (nil, nil) if not found.
func (s *Store) GetContactByID(ctx context.Context, id uuid.UUID) (*Contact, error) {
	var c Contact
	err := s.pool.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id,
	).Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.Company, &c.Brokerage, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get contact by id: %w", err)
	}
	return &c, nil
}

// ListContactsAfter returns up to limit contacts with IDs greater than after,
// in ID order. Pass uuid.Nil to start from the beginning. The batch
// reclassify job pages through the whole table with this.
func (s *Store) ListContactsAfter(ctx context.Context, after uuid.UUID, limit int) ([]Contact, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+contactColumns+`
		 FROM contacts
		 WHERE id > $1
		 ORDER BY id
		 LIMIT $2`,
		after, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var out []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.Company, &c.Brokerage, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Recommendation is a role_recommendations row — one recorded inference
// output for a contact.
type Recommendation struct {
	ID          uuid.UUID
	ContactID   uuid.UUID
	Role        string
	Confidence  string
	Explanation string
	Source      string
	CreatedAt   time.Time
}

// InsertRecommendation records one inference output for a contact.
// source is "realtime" (API call) or "batch" (reclassify sweep).
func (s *Store) InsertRecommendation(ctx context.Context, contactID uuid.UUID, role, confidence, explanation, source string) (*Recommendation, error) {
	var r Recommendation
	err := s.pool.QueryRow(ctx,
		`INSERT INTO role_recommendations (contact_id, role, confidence, explanation, source)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, contact_id, role, confidence, explanation, source, created_at`,
		contactID, role, confidence, explanation, source,
	).Scan(&r.ID, &r.ContactID, &r.Role, &r.Confidence, &r.Explanation, &r.Source, &r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert recommendation: %w", err)
	}
	return &r, nil
}

// ListRecommendations returns a contact's recorded recommendations, newest first.
func (s *Store) ListRecommendations(ctx context.Context, contactID uuid.UUID, limit int) ([]Recommendation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, contact_id, role, confidence, explanation, source, created_at
		 FROM role_recommendations
		 WHERE contact_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		contactID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	defer rows.Close()

	var out []Recommendation
	for rows.Next() {
		var r Recommendation
		if err := rows.Scan(&r.ID, &r.ContactID, &r.Role, &r.Confidence, &r.Explanation, &r.Source, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
