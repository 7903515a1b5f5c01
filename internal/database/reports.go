package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rmehta/truthdare/internal/models"
)

// RoomStats assembles the reporting projection for one room: all-time
// counters, the top participants by cumulative score (arrival order breaks
// ties), and the retained game history oldest-first.
func (s *Store) RoomStats(ctx context.Context, roomID int64) (*models.RoomStats, error) {
	out := &models.RoomStats{RoomID: roomID}

	var lastPlayed sql.NullTime
	q := `SELECT title, total_games, total_truths, total_dares, highest_score, last_played FROM rooms WHERE id = $1`
	err := s.pool.QueryRow(ctx, q, roomID).Scan(
		&out.Title, &out.TotalGames, &out.TotalTruths, &out.TotalDares, &out.HighestScore, &lastPlayed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("room %d: %w", roomID, err)
	}
	if lastPlayed.Valid {
		out.LastPlayed = lastPlayed.Time
	}

	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM room_players WHERE room_id = $1`, roomID).Scan(&out.UniquePlayers); err != nil {
		return nil, fmt.Errorf("room %d players: %w", roomID, err)
	}

	topQ := `
		SELECT p.id, p.username, p.display_name, p.total_score, p.total_truths, p.total_dares
		FROM room_players rp
		JOIN players p ON p.id = rp.player_id
		WHERE rp.room_id = $1
		ORDER BY p.total_score DESC, rp.seq ASC
		LIMIT 10
	`
	rows, err := s.pool.Query(ctx, topQ, roomID)
	if err != nil {
		return nil, fmt.Errorf("room %d top players: %w", roomID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var tp models.TopPlayer
		var displayName string
		if err := rows.Scan(&tp.UserID, &tp.Username, &displayName, &tp.Score, &tp.Truths, &tp.Dares); err != nil {
			return nil, err
		}
		tp.Name = playerName(tp.UserID, tp.Username, displayName)
		out.TopPlayers = append(out.TopPlayers, tp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	history, err := s.roomHistory(ctx, roomID)
	if err != nil {
		return nil, err
	}
	out.History = history

	return out, nil
}

func (s *Store) roomHistory(ctx context.Context, roomID int64) ([]models.GameRecord, error) {
	q := `
		SELECT game_id, game_name, start_time, end_time, player_count, winner, scores
		FROM game_history
		WHERE room_id = $1
		ORDER BY id ASC
	`
	rows, err := s.pool.Query(ctx, q, roomID)
	if err != nil {
		return nil, fmt.Errorf("room %d history: %w", roomID, err)
	}
	defer rows.Close()

	var history []models.GameRecord
	for rows.Next() {
		var rec models.GameRecord
		var scoresJSON []byte
		if err := rows.Scan(&rec.GameID, &rec.GameName, &rec.StartTime, &rec.EndTime,
			&rec.PlayerCount, &rec.Winner, &scoresJSON); err != nil {
			return nil, err
		}
		if len(scoresJSON) > 0 {
			if err := json.Unmarshal(scoresJSON, &rec.Scores); err != nil {
				return nil, fmt.Errorf("decode history scores: %w", err)
			}
		}
		history = append(history, rec)
	}
	return history, rows.Err()
}

// UserStats assembles the reporting projection for one participant.
func (s *Store) UserStats(ctx context.Context, userID int64) (*models.UserStats, error) {
	out := &models.UserStats{UserID: userID}

	var displayName string
	var lastPlayed sql.NullTime
	q := `
		SELECT username, display_name, games_played, total_score, highest_score,
			total_truths, total_dares, total_skips, total_changes, last_played
		FROM players WHERE id = $1
	`
	err := s.pool.QueryRow(ctx, q, userID).Scan(
		&out.Username, &displayName, &out.GamesPlayed, &out.TotalScore, &out.HighestScore,
		&out.TotalTruths, &out.TotalDares, &out.TotalSkips, &out.TotalChanges, &lastPlayed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", userID, err)
	}
	out.Name = playerName(userID, out.Username, displayName)
	if lastPlayed.Valid {
		out.LastPlayed = lastPlayed.Time
	}

	roomsQ := `
		SELECT r.id, r.title
		FROM player_rooms pr
		JOIN rooms r ON r.id = pr.room_id
		WHERE pr.player_id = $1
	`
	rows, err := s.pool.Query(ctx, roomsQ, userID)
	if err != nil {
		return nil, fmt.Errorf("user %d rooms: %w", userID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var ref models.RoomRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, err
		}
		out.Rooms = append(out.Rooms, ref)
	}
	return out, rows.Err()
}

// playerName prefers the display name, falls back to the username, then to a
// synthesized placeholder.
func playerName(id int64, username, displayName string) string {
	if displayName != "" {
		return displayName
	}
	if username != "" {
		return username
	}
	return fmt.Sprintf("Player_%d", id)
}
