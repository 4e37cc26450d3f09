// ABOUTME: Store methods for user profiles and the role-mutation audit trail.
// ABOUTME: Profile email lookups are case-insensitive; a missing role column means guest.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
)

// Profile is a user_profiles row. Role is stored as its string name; callers
// parse it with authz.ParseRole, which degrades unknown values to guest.
type Profile struct {
	ID          uuid.UUID
	Email       string
	DisplayName string
	Role        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const profileColumns = "id, email, display_name, role, created_at, updated_at"

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.Email, &p.DisplayName, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProfile inserts a new profile row and returns it.
func (s *Store) CreateProfile(ctx context.Context, email, displayName, role string) (*Profile, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO user_profiles (email, display_name, role)
		 VALUES ($1, $2, $3)
		 RETURNING `+profileColumns,
		email, displayName, role,
	)
	p, err := scanProfile(row)
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return p, nil
}

// GetProfileByID returns the profile with the given ID, or (nil, nil) if not found.
func (s *Store) GetProfileByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM user_profiles WHERE id = $1`, id)
	p, err := scanProfile(row)
	if err != nil {
		return nil, fmt.Errorf("get profile by id: %w", err)
	}
	return p, nil
}

// GetProfileByEmail returns the profile with the given email (compared
// case-insensitively), or (nil, nil) if not found.
func (s *Store) GetProfileByEmail(ctx context.Context, email string) (*Profile, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM user_profiles WHERE lower(email) = lower($1)`, email)
	p, err := scanProfile(row)
	if err != nil {
		return nil, fmt.Errorf("get profile by email: %w", err)
	}
	return p, nil
}

// UpdateProfileRole atomically changes a user's role and records a
// role_events audit row. Returns the updated profile, or (nil, nil) if the
// user does not exist.
func (s *Store) UpdateProfileRole(ctx context.Context, userID, actorID uuid.UUID, newRole string) (*Profile, error) {
	var updated *Profile
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var oldRole string
		err := tx.QueryRow(ctx,
			`SELECT role FROM user_profiles WHERE id = $1 FOR UPDATE`, userID,
		).Scan(&oldRole)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		row := tx.QueryRow(ctx,
			`UPDATE user_profiles
			 SET role = $2, updated_at = now()
			 WHERE id = $1
			 RETURNING `+profileColumns,
			userID, newRole,
		)
		var p Profile
		if err := row.Scan(&p.ID, &p.Email, &p.DisplayName, &p.Role, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO role_events (user_id, actor_id, old_role, new_role)
			 VALUES ($1, $2, $3, $4)`,
			userID, actorID, oldRole, newRole,
		); err != nil {
			return err
		}
		updated = &p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update profile role: %w", err)
	}
	return updated, nil
}

// ProfileFilter narrows ListProfiles. Zero values mean "no filter".
type ProfileFilter struct {
	Roles       []string // exact role names
	EmailSearch string   // case-insensitive substring
	Limit       int      // default 50
	Offset      int
}

// ListProfiles returns profiles matching filter, newest first.
func (s *Store) ListProfiles(ctx context.Context, filter ProfileFilter) ([]Profile, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	q := psql.Select("id", "email", "display_name", "role", "created_at", "updated_at").
		From("user_profiles").
		OrderBy("created_at DESC, id DESC").
		Limit(uint64(limit)).   //nolint:gosec // G115: limit is bounded above
		Offset(uint64(filter.Offset)) //nolint:gosec // G115: offset is caller-validated
	if len(filter.Roles) > 0 {
		q = q.Where(sq.Expr("role = ANY(?)", pq.Array(filter.Roles)))
	}
	if filter.EmailSearch != "" {
		q = q.Where(sq.ILike{"email": "%" + filter.EmailSearch + "%"})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list profiles query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.Email, &p.DisplayName, &p.Role, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// RoleEvent is one applied role mutation.
type RoleEvent struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ActorID   uuid.UUID
	OldRole   string
	NewRole   string
	CreatedAt time.Time
}

// ListRoleEvents returns the mutation audit trail for a user, newest first,
// optionally filtered to a set of new-role values.
func (s *Store) ListRoleEvents(ctx context.Context, userID uuid.UUID, newRoles []string, limit int) ([]RoleEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	q := psql.Select("id", "user_id", "actor_id", "old_role", "new_role", "created_at").
		From("role_events").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)) //nolint:gosec // G115: limit is bounded above
	if len(newRoles) > 0 {
		q = q.Where(sq.Expr("new_role = ANY(?)", pq.Array(newRoles)))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list role events query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list role events: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []RoleEvent
	for rows.Next() {
		var e RoleEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.ActorID, &e.OldRole, &e.NewRole, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan role event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
