// Package stats rolls terminal game sessions up into per-room and per-player
// historical aggregates. Aggregates are written only at game termination and
// are never read by an in-flight transition, so they can be treated as
// eventually consistent.
package stats

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rmehta/truthdare/internal/models"
)

// HistoryCap bounds a room's retained game history to the most recent
// entries.
const HistoryCap = 10

// RoomRollup is the per-room delta produced by one finished game.
type RoomRollup struct {
	RoomID       int64
	Title        string
	Truths       int
	Dares        int
	HighestScore int
	Players      []int64
	Record       models.GameRecord
	EndedAt      time.Time
}

// PlayerRollup is the per-player delta produced by one finished game. Score
// is the player's single-game score; the store keeps the running total and
// the all-time single-game maximum separately.
type PlayerRollup struct {
	UserID  int64
	RoomID  int64
	Score   int
	Totals  models.PlayerTotals
	EndedAt time.Time
}

// Store is the persistence capability the aggregator writes through. Both
// methods are upserts with atomic field-scoped semantics: increments, max,
// add-to-set, and capped history append.
type Store interface {
	RecordRoomGameEnd(ctx context.Context, r RoomRollup) error
	RecordPlayerGameEnd(ctx context.Context, p PlayerRollup) error
}

// Aggregator consumes terminal game summaries.
type Aggregator struct {
	store Store
}

// NewAggregator builds an aggregator over the given stats store.
func NewAggregator(st Store) *Aggregator {
	return &Aggregator{store: st}
}

// RecordGameEnd upserts the room aggregate and every participant's player
// aggregate for a finished session. Player failures are logged and do not
// abort the remaining players.
func (a *Aggregator) RecordGameEnd(ctx context.Context, sum *models.GameSummary) error {
	s := sum.Session

	highest := 0
	scores := make(map[int64]int, len(s.Players))
	for _, p := range s.Players {
		score := s.Scores[p]
		scores[p] = score
		if score > highest {
			highest = score
		}
	}

	room := RoomRollup{
		RoomID:       s.RoomID,
		Title:        sum.RoomTitle,
		Truths:       s.TruthCount,
		Dares:        s.DareCount,
		HighestScore: highest,
		Players:      s.Players,
		Record: models.GameRecord{
			GameID:      s.GameID,
			GameName:    s.GameName,
			StartTime:   s.StartTime,
			EndTime:     sum.EndedAt,
			PlayerCount: len(s.Players),
			Winner:      sum.WinnerName,
			Scores:      scores,
		},
		EndedAt: sum.EndedAt,
	}
	if err := a.store.RecordRoomGameEnd(ctx, room); err != nil {
		return fmt.Errorf("record room rollup: %w", err)
	}

	for _, p := range s.Players {
		rollup := PlayerRollup{
			UserID:  p,
			RoomID:  s.RoomID,
			Score:   s.Scores[p],
			Totals:  s.PlayerStats[p],
			EndedAt: sum.EndedAt,
		}
		if err := a.store.RecordPlayerGameEnd(ctx, rollup); err != nil {
			log.WithFields(log.Fields{"room": s.RoomID, "player": p}).Errorf("record player rollup: %v", err)
		}
	}
	return nil
}
