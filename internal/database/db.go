package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned by reads when no record exists.
var ErrNotFound = errors.New("record not found")

// Store wraps the Postgres connection pool holding the persistent aggregates
// (rooms, players, game history). In-flight sessions never live here; they
// belong to the session store.
type Store struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS rooms (
	id            BIGINT PRIMARY KEY,
	title         TEXT NOT NULL DEFAULT '',
	total_games   INT NOT NULL DEFAULT 0,
	total_truths  INT NOT NULL DEFAULT 0,
	total_dares   INT NOT NULL DEFAULT 0,
	highest_score INT NOT NULL DEFAULT 0,
	last_played   TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS room_players (
	seq       BIGSERIAL,
	room_id   BIGINT NOT NULL,
	player_id BIGINT NOT NULL,
	PRIMARY KEY (room_id, player_id)
);

CREATE TABLE IF NOT EXISTS game_history (
	id           BIGSERIAL PRIMARY KEY,
	room_id      BIGINT NOT NULL,
	game_id      TEXT NOT NULL,
	game_name    TEXT NOT NULL,
	start_time   TIMESTAMPTZ,
	end_time     TIMESTAMPTZ,
	player_count INT NOT NULL DEFAULT 0,
	winner       TEXT NOT NULL DEFAULT '',
	scores       JSONB NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS game_history_room_idx ON game_history (room_id, id DESC);

CREATE TABLE IF NOT EXISTS players (
	id            BIGINT PRIMARY KEY,
	username      TEXT NOT NULL DEFAULT '',
	display_name  TEXT NOT NULL DEFAULT '',
	games_played  INT NOT NULL DEFAULT 0,
	total_score   INT NOT NULL DEFAULT 0,
	highest_score INT NOT NULL DEFAULT 0,
	total_truths  INT NOT NULL DEFAULT 0,
	total_dares   INT NOT NULL DEFAULT 0,
	total_skips   INT NOT NULL DEFAULT 0,
	total_changes INT NOT NULL DEFAULT 0,
	last_played   TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS player_rooms (
	player_id BIGINT NOT NULL,
	room_id   BIGINT NOT NULL,
	PRIMARY KEY (player_id, room_id)
);
`

// Connect opens a pgx pool against url, verifies it with a short ping, and
// bootstraps the schema.
func Connect(ctx context.Context, url string) (*Store, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("schema bootstrap: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}
