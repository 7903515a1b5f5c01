// Package store defines the persistence contract the game engine depends on:
// single-document read/create/delete plus atomic field-scoped mutation, keyed
// by room id. Counter updates go through IncrField so that two actions
// resolving in quick succession never lose an increment to a
// read-modify-write race.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rmehta/truthdare/internal/models"
)

var (
	// ErrNotFound is returned when no session exists for a room.
	ErrNotFound = errors.New("session not found")
	// ErrExists is returned by Create when a session is already present.
	ErrExists = errors.New("session already exists")
)

// SessionStore persists the single in-flight session per room.
type SessionStore interface {
	Get(ctx context.Context, roomID int64) (*models.Session, error)
	Create(ctx context.Context, roomID int64, s *models.Session) error
	// IncrField atomically adds delta to an integer field.
	IncrField(ctx context.Context, roomID int64, field string, delta int) error
	// SetFields atomically sets the given fields.
	SetFields(ctx context.Context, roomID int64, fields map[string]any) error
	Delete(ctx context.Context, roomID int64) error
}

// Scalar field names. Both implementations share the same flat hash layout.
const (
	FieldGameID        = "game_id"
	FieldGameName      = "game_name"
	FieldAdminID       = "admin_id"
	FieldStatus        = "status"
	FieldCurrentPlayer = "current_player"
	FieldCurrentChoice = "current_choice"
	FieldCurrentPrompt = "current_prompt"
	FieldPlayers       = "players"
	FieldPlayerQueue   = "player_queue"
	FieldStartTime     = "start_time"
	FieldTruthCount    = "truth_count"
	FieldDareCount     = "dare_count"
)

// ScoreField names a player's score counter.
func ScoreField(id int64) string {
	return fmt.Sprintf("score:%d", id)
}

// StatField names one of a player's per-session stat counters
// (truths, dares, skips, changes).
func StatField(id int64, counter string) string {
	return fmt.Sprintf("stat:%d:%s", id, counter)
}

// UsedField names the used-prompt list for a category.
func UsedField(c models.Category) string {
	return "used:" + string(c)
}

// CountField names the session counter bumped when a task of category c is
// completed.
func CountField(c models.Category) string {
	if c == models.CategoryDare {
		return FieldDareCount
	}
	return FieldTruthCount
}

// EncodeField renders a field value into its stored string form.
func EncodeField(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case models.Category:
		return string(val), nil
	case models.Status:
		return string(val), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano), nil
	case []int64, []string:
		b, err := json.Marshal(val)
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("unsupported field type %T", v)
	}
}

// EncodeSession flattens a session into the stored hash layout.
func EncodeSession(s *models.Session) (map[string]string, error) {
	fields := map[string]any{
		FieldGameID:        s.GameID,
		FieldGameName:      s.GameName,
		FieldAdminID:       s.AdminID,
		FieldStatus:        s.Status,
		FieldCurrentPlayer: s.CurrentPlayer,
		FieldCurrentChoice: s.CurrentChoice,
		FieldCurrentPrompt: s.CurrentPrompt,
		FieldPlayers:       s.Players,
		FieldPlayerQueue:   s.PlayerQueue,
		FieldStartTime:     s.StartTime,
		FieldTruthCount:    s.TruthCount,
		FieldDareCount:     s.DareCount,
	}
	for _, c := range []models.Category{models.CategoryTruth, models.CategoryDare} {
		used := s.UsedQuestions[c]
		if used == nil {
			used = []string{}
		}
		fields[UsedField(c)] = used
	}
	for _, p := range s.Players {
		fields[ScoreField(p)] = s.Scores[p]
		totals := s.PlayerStats[p]
		fields[StatField(p, "truths")] = totals.Truths
		fields[StatField(p, "dares")] = totals.Dares
		fields[StatField(p, "skips")] = totals.Skips
		fields[StatField(p, "changes")] = totals.Changes
	}

	out := make(map[string]string, len(fields))
	for k, v := range fields {
		enc, err := EncodeField(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", k, err)
		}
		out[k] = enc
	}
	return out, nil
}

// DecodeSession rebuilds a session from its stored hash layout.
func DecodeSession(roomID int64, h map[string]string) (*models.Session, error) {
	s := &models.Session{
		RoomID:        roomID,
		GameID:        h[FieldGameID],
		GameName:      h[FieldGameName],
		CurrentChoice: models.Category(h[FieldCurrentChoice]),
		CurrentPrompt: h[FieldCurrentPrompt],
		Status:        models.Status(h[FieldStatus]),
		Scores:        map[int64]int{},
		PlayerStats:   map[int64]models.PlayerTotals{},
		UsedQuestions: map[models.Category][]string{},
	}

	var err error
	if s.AdminID, err = parseInt64(h[FieldAdminID]); err != nil {
		return nil, fmt.Errorf("decode admin_id: %w", err)
	}
	if s.CurrentPlayer, err = parseInt64(h[FieldCurrentPlayer]); err != nil {
		return nil, fmt.Errorf("decode current_player: %w", err)
	}
	if s.TruthCount, err = parseCount(h[FieldTruthCount]); err != nil {
		return nil, fmt.Errorf("decode truth_count: %w", err)
	}
	if s.DareCount, err = parseCount(h[FieldDareCount]); err != nil {
		return nil, fmt.Errorf("decode dare_count: %w", err)
	}
	if raw := h[FieldStartTime]; raw != "" {
		if s.StartTime, err = time.Parse(time.RFC3339Nano, raw); err != nil {
			return nil, fmt.Errorf("decode start_time: %w", err)
		}
	}
	if err = decodeJSONField(h[FieldPlayers], &s.Players); err != nil {
		return nil, fmt.Errorf("decode players: %w", err)
	}
	if err = decodeJSONField(h[FieldPlayerQueue], &s.PlayerQueue); err != nil {
		return nil, fmt.Errorf("decode player_queue: %w", err)
	}
	for _, c := range []models.Category{models.CategoryTruth, models.CategoryDare} {
		var used []string
		if err = decodeJSONField(h[UsedField(c)], &used); err != nil {
			return nil, fmt.Errorf("decode %s: %w", UsedField(c), err)
		}
		if used == nil {
			used = []string{}
		}
		s.UsedQuestions[c] = used
	}

	for k, v := range h {
		switch {
		case strings.HasPrefix(k, "score:"):
			id, err := parseInt64(strings.TrimPrefix(k, "score:"))
			if err != nil {
				return nil, fmt.Errorf("decode %s: %w", k, err)
			}
			score, err := parseCount(v)
			if err != nil {
				return nil, fmt.Errorf("decode %s: %w", k, err)
			}
			s.Scores[id] = score
		case strings.HasPrefix(k, "stat:"):
			parts := strings.SplitN(k, ":", 3)
			if len(parts) != 3 {
				continue
			}
			id, err := parseInt64(parts[1])
			if err != nil {
				return nil, fmt.Errorf("decode %s: %w", k, err)
			}
			n, err := parseCount(v)
			if err != nil {
				return nil, fmt.Errorf("decode %s: %w", k, err)
			}
			totals := s.PlayerStats[id]
			switch parts[2] {
			case "truths":
				totals.Truths = n
			case "dares":
				totals.Dares = n
			case "skips":
				totals.Skips = n
			case "changes":
				totals.Changes = n
			}
			s.PlayerStats[id] = totals
		}
	}

	return s, nil
}

func parseInt64(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func parseCount(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func decodeJSONField(raw string, dst any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), dst)
}
