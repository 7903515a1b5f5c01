package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// UpsertUserInfo caches a participant's latest username and display name so
// that later transitions can fall back to a stored name when the platform
// lookup fails.
func (s *Store) UpsertUserInfo(ctx context.Context, userID int64, username, displayName string) error {
	q := `
		INSERT INTO players (id, username, display_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			username     = EXCLUDED.username,
			display_name = EXCLUDED.display_name
	`
	if _, err := s.pool.Exec(ctx, q, userID, username, displayName); err != nil {
		return fmt.Errorf("upsert user info: %w", err)
	}
	return nil
}

// LookupUser returns the cached username and display name for a participant.
func (s *Store) LookupUser(ctx context.Context, userID int64) (username, displayName string, err error) {
	q := `SELECT username, display_name FROM players WHERE id = $1`
	err = s.pool.QueryRow(ctx, q, userID).Scan(&username, &displayName)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", ErrNotFound
	}
	if err != nil {
		return "", "", fmt.Errorf("lookup user %d: %w", userID, err)
	}
	return username, displayName, nil
}
