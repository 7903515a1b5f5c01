// internal/store/memory_test.go
package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmehta/truthdare/internal/models"
)

func sampleSession() *models.Session {
	return &models.Session{
		RoomID:        -42,
		GameID:        "g-1",
		GameName:      "Wild Walrus #1234",
		AdminID:       1,
		Players:       []int64{1, 2},
		Scores:        map[int64]int{1: 5, 2: -6},
		PlayerStats:   map[int64]models.PlayerTotals{1: {Truths: 1}, 2: {Skips: 1}},
		PlayerQueue:   []int64{2, 1},
		CurrentPlayer: 2,
		CurrentChoice: models.CategoryTruth,
		CurrentPrompt: "What is your most irrational fear?",
		UsedQuestions: map[models.Category][]string{
			models.CategoryTruth: {"What is your most irrational fear?"},
		},
		Status:     models.StatusPlaying,
		StartTime:  time.Now().UTC().Truncate(time.Millisecond),
		TruthCount: 1,
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	want := sampleSession()

	require.NoError(t, m.Create(ctx, want.RoomID, want))

	got, err := m.Get(ctx, want.RoomID)
	require.NoError(t, err)
	assert.Equal(t, want.GameID, got.GameID)
	assert.Equal(t, want.Players, got.Players)
	assert.Equal(t, want.Scores, got.Scores)
	assert.Equal(t, want.PlayerStats, got.PlayerStats)
	assert.Equal(t, want.PlayerQueue, got.PlayerQueue)
	assert.Equal(t, want.CurrentChoice, got.CurrentChoice)
	assert.Equal(t, want.CurrentPrompt, got.CurrentPrompt)
	assert.Equal(t, want.UsedQuestions[models.CategoryTruth], got.UsedQuestions[models.CategoryTruth])
	assert.Empty(t, got.UsedQuestions[models.CategoryDare])
	assert.Equal(t, want.Status, got.Status)
	assert.True(t, want.StartTime.Equal(got.StartTime))
	assert.Equal(t, want.TruthCount, got.TruthCount)
}

func TestMemoryStoreCreateConflict(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	s := sampleSession()

	require.NoError(t, m.Create(ctx, s.RoomID, s))
	assert.ErrorIs(t, m.Create(ctx, s.RoomID, s), ErrExists)
}

func TestMemoryStoreIncrField(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	s := sampleSession()
	require.NoError(t, m.Create(ctx, s.RoomID, s))

	require.NoError(t, m.IncrField(ctx, s.RoomID, ScoreField(1), 5))
	require.NoError(t, m.IncrField(ctx, s.RoomID, ScoreField(2), -2))
	require.NoError(t, m.IncrField(ctx, s.RoomID, FieldTruthCount, 1))

	got, err := m.Get(ctx, s.RoomID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Scores[1])
	assert.Equal(t, -8, got.Scores[2])
	assert.Equal(t, 2, got.TruthCount)
}

func TestMemoryStoreSetFields(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	s := sampleSession()
	require.NoError(t, m.Create(ctx, s.RoomID, s))

	err := m.SetFields(ctx, s.RoomID, map[string]any{
		FieldCurrentPlayer: int64(1),
		FieldCurrentChoice: "",
		FieldCurrentPrompt: "",
		FieldPlayerQueue:   []int64{1, 2},
	})
	require.NoError(t, err)

	got, err := m.Get(ctx, s.RoomID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.CurrentPlayer)
	assert.Empty(t, got.CurrentChoice)
	assert.Empty(t, got.CurrentPrompt)
	assert.Equal(t, []int64{1, 2}, got.PlayerQueue)
}

func TestMemoryStoreDelete(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	s := sampleSession()
	require.NoError(t, m.Create(ctx, s.RoomID, s))

	require.NoError(t, m.Delete(ctx, s.RoomID))
	_, err := m.Get(ctx, s.RoomID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreMissingRoom(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	_, err := m.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.IncrField(ctx, 1, FieldTruthCount, 1), ErrNotFound)
	assert.ErrorIs(t, m.SetFields(ctx, 1, map[string]any{FieldStatus: "playing"}), ErrNotFound)
}
