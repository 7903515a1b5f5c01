package stats

import (
	"context"
	"sync"

	"github.com/rmehta/truthdare/internal/models"
)

// RoomAggregate is the in-memory mirror of a room's all-time record.
type RoomAggregate struct {
	Title        string
	TotalGames   int
	TotalTruths  int
	TotalDares   int
	HighestScore int
	Players      map[int64]struct{}
	History      []models.GameRecord
}

// PlayerAggregate is the in-memory mirror of a player's all-time record.
type PlayerAggregate struct {
	GamesPlayed  int
	TotalScore   int
	HighestScore int
	Totals       models.PlayerTotals
	Rooms        map[int64]struct{}
}

// MemoryStore is a mutex-guarded Store for tests and ephemeral deployments.
// It applies the same merge semantics the Postgres store does: counters
// increment, highs keep their maximum, membership behaves as a set, and the
// history stays within HistoryCap.
type MemoryStore struct {
	mu      sync.Mutex
	rooms   map[int64]*RoomAggregate
	players map[int64]*PlayerAggregate
}

// NewMemoryStore returns an empty in-memory stats store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:   make(map[int64]*RoomAggregate),
		players: make(map[int64]*PlayerAggregate),
	}
}

func (m *MemoryStore) RecordRoomGameEnd(_ context.Context, r RoomRollup) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	agg, ok := m.rooms[r.RoomID]
	if !ok {
		agg = &RoomAggregate{Players: make(map[int64]struct{})}
		m.rooms[r.RoomID] = agg
	}
	agg.Title = r.Title
	agg.TotalGames++
	agg.TotalTruths += r.Truths
	agg.TotalDares += r.Dares
	if r.HighestScore > agg.HighestScore {
		agg.HighestScore = r.HighestScore
	}
	for _, p := range r.Players {
		agg.Players[p] = struct{}{}
	}
	agg.History = append(agg.History, r.Record)
	if len(agg.History) > HistoryCap {
		agg.History = agg.History[len(agg.History)-HistoryCap:]
	}
	return nil
}

func (m *MemoryStore) RecordPlayerGameEnd(_ context.Context, p PlayerRollup) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	agg, ok := m.players[p.UserID]
	if !ok {
		agg = &PlayerAggregate{Rooms: make(map[int64]struct{})}
		m.players[p.UserID] = agg
	}
	agg.GamesPlayed++
	agg.TotalScore += p.Score
	if p.Score > agg.HighestScore {
		agg.HighestScore = p.Score
	}
	agg.Totals.Truths += p.Totals.Truths
	agg.Totals.Dares += p.Totals.Dares
	agg.Totals.Skips += p.Totals.Skips
	agg.Totals.Changes += p.Totals.Changes
	agg.Rooms[p.RoomID] = struct{}{}
	return nil
}

// Room returns a copy of a room's aggregate, or nil if none exists.
func (m *MemoryStore) Room(roomID int64) *RoomAggregate {
	m.mu.Lock()
	defer m.mu.Unlock()
	agg, ok := m.rooms[roomID]
	if !ok {
		return nil
	}
	cp := *agg
	cp.History = append([]models.GameRecord{}, agg.History...)
	cp.Players = make(map[int64]struct{}, len(agg.Players))
	for p := range agg.Players {
		cp.Players[p] = struct{}{}
	}
	return &cp
}

// Player returns a copy of a player's aggregate, or nil if none exists.
func (m *MemoryStore) Player(userID int64) *PlayerAggregate {
	m.mu.Lock()
	defer m.mu.Unlock()
	agg, ok := m.players[userID]
	if !ok {
		return nil
	}
	cp := *agg
	cp.Rooms = make(map[int64]struct{}, len(agg.Rooms))
	for r := range agg.Rooms {
		cp.Rooms[r] = struct{}{}
	}
	return &cp
}
