package store

import (
	"context"
	"fmt"

	"github.com/soyeahso/kinobot/internal/domain"
)

// UserStore persists user profiles keyed by their channel-scoped identifier.
type UserStore struct {
	db *DB
}

// NewUserStore creates a user store using the given database.
func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

// UpsertUser records a user profile on first contact. The insert is
// idempotent: an existing row is left untouched, never overwritten.
func (s *UserStore) UpsertUser(ctx context.Context, key domain.UserKey, profile domain.UserProfile) error {
	_, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO users (id, username, first_name, last_name)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		key.String(), profile.Username, profile.FirstName, profile.LastName,
	)
	if err != nil {
		return fmt.Errorf("upserting user %s: %w", key, err)
	}
	return nil
}

// GetUser returns the stored profile for a key, or nil if unknown.
func (s *UserStore) GetUser(ctx context.Context, key domain.UserKey) (*domain.UserProfile, error) {
	var p domain.UserProfile
	err := s.db.sql.QueryRowContext(ctx,
		`SELECT username, first_name, last_name FROM users WHERE id = ?`,
		key.String(),
	).Scan(&p.Username, &p.FirstName, &p.LastName)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CountUsers returns the number of distinct stored users.
func (s *UserStore) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.db.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}
