package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rmehta/truthdare/internal/stats"
)

// RecordRoomGameEnd upserts the room aggregate for one finished game:
// counters increment in place, the high score keeps its maximum, the
// participant set grows with set semantics, and the history append is
// trimmed to the retention cap. All of it commits in one transaction.
func (s *Store) RecordRoomGameEnd(ctx context.Context, r stats.RoomRollup) error {
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsert := `
			INSERT INTO rooms (id, title, total_games, total_truths, total_dares, highest_score, last_played)
			VALUES ($1, $2, 1, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				title         = EXCLUDED.title,
				total_games   = rooms.total_games + 1,
				total_truths  = rooms.total_truths + EXCLUDED.total_truths,
				total_dares   = rooms.total_dares + EXCLUDED.total_dares,
				highest_score = GREATEST(rooms.highest_score, EXCLUDED.highest_score),
				last_played   = EXCLUDED.last_played
		`
		if _, err := tx.Exec(ctx, upsert, r.RoomID, r.Title, r.Truths, r.Dares, r.HighestScore, r.EndedAt); err != nil {
			return err
		}

		for _, p := range r.Players {
			q := `
				INSERT INTO room_players (room_id, player_id)
				VALUES ($1, $2)
				ON CONFLICT (room_id, player_id) DO NOTHING
			`
			if _, err := tx.Exec(ctx, q, r.RoomID, p); err != nil {
				return err
			}
		}

		scoresJSON, err := json.Marshal(r.Record.Scores)
		if err != nil {
			return fmt.Errorf("marshal history scores: %w", err)
		}
		insHistory := `
			INSERT INTO game_history (room_id, game_id, game_name, start_time, end_time, player_count, winner, scores)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		if _, err := tx.Exec(ctx, insHistory, r.RoomID,
			r.Record.GameID, r.Record.GameName, r.Record.StartTime, r.Record.EndTime,
			r.Record.PlayerCount, r.Record.Winner, scoresJSON); err != nil {
			return err
		}

		trim := `
			DELETE FROM game_history
			WHERE room_id = $1 AND id NOT IN (
				SELECT id FROM game_history
				WHERE room_id = $1
				ORDER BY id DESC
				LIMIT $2
			)
		`
		_, err = tx.Exec(ctx, trim, r.RoomID, stats.HistoryCap)
		return err
	})
	if err != nil {
		return fmt.Errorf("tx room rollup: %w", err)
	}
	return nil
}

// RecordPlayerGameEnd upserts one participant's cumulative record. The
// highest score kept is the player's best single-game score, not the running
// total.
func (s *Store) RecordPlayerGameEnd(ctx context.Context, p stats.PlayerRollup) error {
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsert := `
			INSERT INTO players (id, games_played, total_score, highest_score,
				total_truths, total_dares, total_skips, total_changes, last_played)
			VALUES ($1, 1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET
				games_played  = players.games_played + 1,
				total_score   = players.total_score + EXCLUDED.total_score,
				highest_score = GREATEST(players.highest_score, EXCLUDED.highest_score),
				total_truths  = players.total_truths + EXCLUDED.total_truths,
				total_dares   = players.total_dares + EXCLUDED.total_dares,
				total_skips   = players.total_skips + EXCLUDED.total_skips,
				total_changes = players.total_changes + EXCLUDED.total_changes,
				last_played   = EXCLUDED.last_played
		`
		if _, err := tx.Exec(ctx, upsert, p.UserID, p.Score, p.Score,
			p.Totals.Truths, p.Totals.Dares, p.Totals.Skips, p.Totals.Changes, p.EndedAt); err != nil {
			return err
		}

		q := `
			INSERT INTO player_rooms (player_id, room_id)
			VALUES ($1, $2)
			ON CONFLICT (player_id, room_id) DO NOTHING
		`
		_, err := tx.Exec(ctx, q, p.UserID, p.RoomID)
		return err
	})
	if err != nil {
		return fmt.Errorf("tx player rollup: %w", err)
	}
	return nil
}
