// internal/dispatch/dispatch_test.go
package dispatch

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmehta/truthdare/internal/game"
	"github.com/rmehta/truthdare/internal/messenger"
	"github.com/rmehta/truthdare/internal/models"
	"github.com/rmehta/truthdare/internal/stats"
	"github.com/rmehta/truthdare/internal/store"
)

const testRoom = int64(-200)

// mockMessenger collects notifications instead of pushing them to a bridge.
type mockMessenger struct {
	mu    sync.Mutex
	sent  []sentMessage
	names map[int64]string
}

type sentMessage struct {
	roomID  int64
	text    string
	buttons [][]messenger.Button
}

func newMockMessenger() *mockMessenger {
	return &mockMessenger{names: map[int64]string{}}
}

func (m *mockMessenger) ResolveIdentity(_ context.Context, _, userID int64) (messenger.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if name, ok := m.names[userID]; ok {
		return messenger.Identity{DisplayName: name}, nil
	}
	return messenger.Identity{}, messenger.ErrLookupFailed
}

func (m *mockMessenger) Notify(_ context.Context, roomID int64, text string, buttons [][]messenger.Button) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{roomID: roomID, text: text, buttons: buttons})
	return nil
}

func (m *mockMessenger) last(t *testing.T) sentMessage {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	return m.sent[len(m.sent)-1]
}

func (m *mockMessenger) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}

type mockReports struct {
	stats *models.RoomStats
	err   error
}

func (m *mockReports) RoomStats(_ context.Context, _ int64) (*models.RoomStats, error) {
	return m.stats, m.err
}

func newTestDispatcher(reports RoomStatsReader) (*Dispatcher, *mockMessenger, *mockStatsStore) {
	bank := game.NewQuestionBank(
		[]string{"truth one", "truth two", "truth three"},
		[]string{"dare one", "dare two", "dare three"},
	)
	engine := game.NewEngine(store.NewMemoryStore(), bank)
	st := &mockStatsStore{}
	agg := stats.NewAggregator(st)

	msn := newMockMessenger()
	msn.names[1] = "alice"
	msn.names[2] = "bob"

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	return NewDispatcher(engine, agg, reports, msn, logger), msn, st
}

// mockStatsStore satisfies stats.Store for dispatch-level tests.
type mockStatsStore struct {
	mu      sync.Mutex
	rooms   []stats.RoomRollup
	players []stats.PlayerRollup
}

func (m *mockStatsStore) RecordRoomGameEnd(_ context.Context, r stats.RoomRollup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms = append(m.rooms, r)
	return nil
}

func (m *mockStatsStore) RecordPlayerGameEnd(_ context.Context, p stats.PlayerRollup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players = append(m.players, p)
	return nil
}

func event(kind string, userID int64, admin bool) messenger.InboundEvent {
	return messenger.InboundEvent{
		RoomID:    testRoom,
		RoomTitle: "Test Group",
		UserID:    userID,
		IsAdmin:   admin,
		Kind:      kind,
	}
}

func TestNewGameAnnouncesLobby(t *testing.T) {
	d, msn, _ := newTestDispatcher(&mockReports{})
	ctx := context.Background()

	d.Handle(ctx, event(ActionNewGame, 1, true))

	msg := msn.last(t)
	assert.Equal(t, testRoom, msg.roomID)
	assert.Contains(t, msg.text, "alice")
	require.NotEmpty(t, msg.buttons)
	assert.Equal(t, ActionJoin, msg.buttons[0][0].Action)
}

func TestNewGameByNonAdminRefused(t *testing.T) {
	d, msn, _ := newTestDispatcher(&mockReports{})

	d.Handle(context.Background(), event(ActionNewGame, 2, false))
	assert.Contains(t, msn.last(t).text, "group admin")
}

func TestStartGameNeedsPlayers(t *testing.T) {
	d, msn, _ := newTestDispatcher(&mockReports{})
	ctx := context.Background()

	d.Handle(ctx, event(ActionNewGame, 1, true))
	d.Handle(ctx, event(ActionJoin, 1, true))
	msn.clear()

	d.Handle(ctx, event(ActionStartGame, 1, true))
	assert.Contains(t, msn.last(t).text, "at least 2 players")
}

func TestChoiceButtonsOfferedOnTurn(t *testing.T) {
	d, msn, _ := newTestDispatcher(&mockReports{})
	ctx := context.Background()

	d.Handle(ctx, event(ActionNewGame, 1, true))
	d.Handle(ctx, event(ActionJoin, 1, true))
	d.Handle(ctx, event(ActionJoin, 2, false))
	msn.clear()

	d.Handle(ctx, event(ActionStartGame, 1, true))

	msg := msn.last(t)
	require.NotEmpty(t, msg.buttons)
	actions := []string{msg.buttons[0][0].Action, msg.buttons[0][1].Action}
	assert.ElementsMatch(t, []string{ActionTruth, ActionDare}, actions)
}

// playThroughChoice drives a fresh game to the point where the current
// player has a pending truth prompt, and returns that player's id.
func playThroughChoice(t *testing.T, d *Dispatcher, msn *mockMessenger) int64 {
	t.Helper()
	ctx := context.Background()

	d.Handle(ctx, event(ActionNewGame, 1, true))
	d.Handle(ctx, event(ActionJoin, 1, true))
	d.Handle(ctx, event(ActionJoin, 2, false))
	d.Handle(ctx, event(ActionStartGame, 1, true))

	s, err := d.engine.Session(ctx, testRoom)
	require.NoError(t, err)
	player := s.CurrentPlayer

	msn.clear()
	d.Handle(ctx, event(ActionTruth, player, player == 1))
	msg := msn.last(t)
	assert.Contains(t, strings.ToUpper(msg.text), "TRUTH")
	require.NotEmpty(t, msg.buttons)
	return player
}

func TestCompleteFlow(t *testing.T) {
	d, msn, _ := newTestDispatcher(&mockReports{})
	ctx := context.Background()
	playThroughChoice(t, d, msn)
	msn.clear()

	d.Handle(ctx, event(ActionComplete, 1, true))

	msn.mu.Lock()
	texts := make([]string, 0, len(msn.sent))
	for _, m := range msn.sent {
		texts = append(texts, m.text)
	}
	msn.mu.Unlock()

	require.Len(t, texts, 2, "success message then next-turn announcement")
	assert.Contains(t, texts[0], "+5")
	assert.Contains(t, texts[1], "Next Turn")
}

func TestSkipByWrongPlayerRefused(t *testing.T) {
	d, msn, _ := newTestDispatcher(&mockReports{})
	ctx := context.Background()
	player := playThroughChoice(t, d, msn)
	msn.clear()

	var other int64 = 1
	if player == 1 {
		other = 2
	}
	d.Handle(ctx, event(ActionSkip, other, false))
	assert.Contains(t, msn.last(t).text, "not your turn")
}

func TestChangeKeepsTurn(t *testing.T) {
	d, msn, _ := newTestDispatcher(&mockReports{})
	ctx := context.Background()
	player := playThroughChoice(t, d, msn)
	msn.clear()

	d.Handle(ctx, event(ActionChange, player, false))

	msg := msn.last(t)
	assert.Contains(t, msg.text, "-2")
	require.NotEmpty(t, msg.buttons, "the same player is re-prompted with task buttons")
}

func TestStopRecordsStatsAndEndsSession(t *testing.T) {
	d, msn, st := newTestDispatcher(&mockReports{})
	ctx := context.Background()
	playThroughChoice(t, d, msn)
	d.Handle(ctx, event(ActionComplete, 1, true))
	msn.clear()

	d.Handle(ctx, event(ActionStopGame, 1, true))

	assert.Contains(t, msn.last(t).text, "Game Over")
	require.Len(t, st.rooms, 1)
	assert.Equal(t, "Test Group", st.rooms[0].Title)
	assert.Len(t, st.players, 2)

	// A new game can start immediately after.
	msn.clear()
	d.Handle(ctx, event(ActionNewGame, 1, true))
	assert.NotContains(t, msn.last(t).text, "already in progress")
}

func TestScoresWithoutGame(t *testing.T) {
	d, msn, _ := newTestDispatcher(&mockReports{})

	d.Handle(context.Background(), event(ActionScores, 1, false))
	assert.Contains(t, msn.last(t).text, "no active game")
}

func TestGroupStatsRendersReport(t *testing.T) {
	reports := &mockReports{stats: &models.RoomStats{
		RoomID:     testRoom,
		Title:      "Test Group",
		TotalGames: 4,
		TopPlayers: []models.TopPlayer{{UserID: 1, Name: "alice", Score: 40}},
	}}
	d, msn, _ := newTestDispatcher(reports)

	d.Handle(context.Background(), event(ActionGroupStats, 1, false))

	msg := msn.last(t)
	assert.Contains(t, msg.text, "Test Group")
	assert.Contains(t, msg.text, "alice")
}

func TestUnknownActionIgnored(t *testing.T) {
	d, msn, _ := newTestDispatcher(&mockReports{})

	d.Handle(context.Background(), event("selfdestruct", 1, true))
	msn.mu.Lock()
	defer msn.mu.Unlock()
	assert.Empty(t, msn.sent)
}

func TestMyIDOnlyInPrivate(t *testing.T) {
	d, msn, _ := newTestDispatcher(&mockReports{})
	ctx := context.Background()

	ev := event(ActionMyID, 1, false)
	d.Handle(ctx, ev)
	assert.Contains(t, msn.last(t).text, "private chat")

	ev.Direct = true
	d.Handle(ctx, ev)
	assert.Contains(t, msn.last(t).text, "1")
}
