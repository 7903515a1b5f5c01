package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rmehta/truthdare/internal/models"
	"github.com/rmehta/truthdare/internal/store"
)

// Actor identifies who is attempting a transition. IsAdmin reflects the
// room-admin authority reported by the chat platform; the engine never
// verifies it itself.
type Actor struct {
	ID      int64
	IsAdmin bool
}

// ResolveResult describes the outcome of a complete/skip/change resolution.
type ResolveResult struct {
	Player   int64
	Category models.Category
	Delta    int
	NewScore int

	// NextPlayer is 0 when the turn did not advance (change keeps the same
	// player on the spot).
	NextPlayer int64

	// Prompt is the re-drawn prompt after a change.
	Prompt string

	Session *models.Session
}

// Engine drives the per-room session state machine. Each transition loads
// the session, evaluates its guards, and persists the result through the
// store's field-scoped operations. A per-room mutex keeps one transition in
// effect at a time for any given room; counters are additionally mutated
// only through atomic increments so rapid back-to-back resolutions never
// lose points.
type Engine struct {
	store store.SessionStore
	bank  *QuestionBank

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewEngine builds an engine over the given session store and question bank.
func NewEngine(st store.SessionStore, bank *QuestionBank) *Engine {
	return &Engine{
		store: st,
		bank:  bank,
		locks: make(map[int64]*sync.Mutex),
	}
}

func (e *Engine) roomLock(roomID int64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[roomID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[roomID] = l
	}
	return l
}

func (e *Engine) load(ctx context.Context, roomID int64) (*models.Session, error) {
	s, err := e.store.Get(ctx, roomID)
	if err == store.ErrNotFound {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return s, nil
}

// Session returns a read-only snapshot of the room's current session.
func (e *Engine) Session(ctx context.Context, roomID int64) (*models.Session, error) {
	return e.load(ctx, roomID)
}

// OpenLobby creates a fresh waiting session for the room. Fails with
// ErrSessionExists if one is already in flight.
func (e *Engine) OpenLobby(ctx context.Context, roomID int64, actor Actor) (*models.Session, error) {
	if !actor.IsAdmin {
		return nil, ErrNotAdmin
	}
	l := e.roomLock(roomID)
	l.Lock()
	defer l.Unlock()

	s := &models.Session{
		RoomID:      roomID,
		GameID:      uuid.NewString(),
		GameName:    NewGameName(),
		AdminID:     actor.ID,
		Players:     []int64{},
		Scores:      map[int64]int{},
		PlayerStats: map[int64]models.PlayerTotals{},
		PlayerQueue: []int64{},
		UsedQuestions: map[models.Category][]string{
			models.CategoryTruth: {},
			models.CategoryDare:  {},
		},
		Status:    models.StatusWaiting,
		StartTime: time.Now().UTC(),
	}
	if err := e.store.Create(ctx, roomID, s); err != nil {
		if err == store.ErrExists {
			return nil, ErrSessionExists
		}
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s, nil
}

// Join adds a player to the lobby roster with zeroed score and stats. A
// repeated join by the same identity is rejected as a no-op signal.
func (e *Engine) Join(ctx context.Context, roomID int64, userID int64) (*models.Session, error) {
	l := e.roomLock(roomID)
	l.Lock()
	defer l.Unlock()

	s, err := e.load(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if s.Status != models.StatusWaiting {
		return nil, ErrWrongState
	}
	if s.HasPlayer(userID) {
		return nil, ErrAlreadyJoined
	}

	players := append(append([]int64{}, s.Players...), userID)
	fields := map[string]any{
		store.FieldPlayers:                 players,
		store.ScoreField(userID):           0,
		store.StatField(userID, "truths"):  0,
		store.StatField(userID, "dares"):   0,
		store.StatField(userID, "skips"):   0,
		store.StatField(userID, "changes"): 0,
	}
	if err := e.store.SetFields(ctx, roomID, fields); err != nil {
		return nil, fmt.Errorf("join: %w", err)
	}
	s.Players = players
	s.Scores[userID] = 0
	s.PlayerStats[userID] = models.PlayerTotals{}
	return s, nil
}

// Start shuffles the roster into a rotation queue, flips the session to
// playing, and advances to the first turn.
func (e *Engine) Start(ctx context.Context, roomID int64, actor Actor) (*models.Session, error) {
	if !actor.IsAdmin {
		return nil, ErrNotAdmin
	}
	l := e.roomLock(roomID)
	l.Lock()
	defer l.Unlock()

	s, err := e.load(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if s.Status != models.StatusWaiting {
		return nil, ErrWrongState
	}
	if len(s.Players) < 2 {
		return nil, ErrNotEnoughPlayers
	}

	queue := ShuffleOrder(s.Players)
	if err := e.store.SetFields(ctx, roomID, map[string]any{
		store.FieldStatus:      models.StatusPlaying,
		store.FieldPlayerQueue: queue,
	}); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	s.Status = models.StatusPlaying
	s.PlayerQueue = queue

	if _, err := e.advance(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Choose draws a prompt of the requested category for the current player and
// records it as the pending task.
func (e *Engine) Choose(ctx context.Context, roomID int64, actor Actor, c models.Category) (*models.Session, error) {
	if !c.Valid() {
		return nil, ErrBadCategory
	}
	l := e.roomLock(roomID)
	l.Lock()
	defer l.Unlock()

	s, err := e.load(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if s.Status != models.StatusPlaying {
		return nil, ErrWrongState
	}
	if actor.ID != s.CurrentPlayer {
		return nil, ErrNotYourTurn
	}

	prompt, used, err := e.bank.Next(c, s.UsedQuestions[c])
	if err != nil {
		return nil, err
	}
	if err := e.store.SetFields(ctx, roomID, map[string]any{
		store.UsedField(c):       used,
		store.FieldCurrentChoice: c,
		store.FieldCurrentPrompt: prompt,
	}); err != nil {
		return nil, fmt.Errorf("choose: %w", err)
	}
	s.UsedQuestions[c] = used
	s.CurrentChoice = c
	s.CurrentPrompt = prompt
	return s, nil
}

// Complete resolves the pending task as done. Confirmation comes from a room
// admin, not the player, since self-reported completion is not verifiable.
// The current player earns the reward and the turn advances.
func (e *Engine) Complete(ctx context.Context, roomID int64, actor Actor) (*ResolveResult, error) {
	if !actor.IsAdmin {
		return nil, ErrNotAdmin
	}
	l := e.roomLock(roomID)
	l.Lock()
	defer l.Unlock()

	s, err := e.load(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if s.Status != models.StatusPlaying {
		return nil, ErrWrongState
	}
	if s.CurrentChoice == "" {
		return nil, ErrNoPendingTask
	}

	player := s.CurrentPlayer
	c := s.CurrentChoice
	incs := map[string]int{
		store.ScoreField(player):               CompleteReward,
		store.StatField(player, string(c)+"s"): 1,
		store.CountField(c):                    1,
	}
	if err := e.applyIncrements(ctx, roomID, incs); err != nil {
		return nil, err
	}
	s.Scores[player] += CompleteReward
	bumpStat(s, player, c)

	next, err := e.advance(ctx, s)
	if err != nil {
		return nil, err
	}
	return &ResolveResult{
		Player:     player,
		Category:   c,
		Delta:      CompleteReward,
		NewScore:   s.Scores[player],
		NextPlayer: next,
		Session:    s,
	}, nil
}

// Skip resolves the pending task as skipped by the current player, costing
// the skip penalty, and advances the turn.
func (e *Engine) Skip(ctx context.Context, roomID int64, actor Actor) (*ResolveResult, error) {
	l := e.roomLock(roomID)
	l.Lock()
	defer l.Unlock()

	s, err := e.load(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if s.Status != models.StatusPlaying {
		return nil, ErrWrongState
	}
	if actor.ID != s.CurrentPlayer {
		return nil, ErrNotYourTurn
	}
	if s.CurrentChoice == "" {
		return nil, ErrNoPendingTask
	}

	player := s.CurrentPlayer
	c := s.CurrentChoice
	incs := map[string]int{
		store.ScoreField(player):         SkipPenalty,
		store.StatField(player, "skips"): 1,
	}
	if err := e.applyIncrements(ctx, roomID, incs); err != nil {
		return nil, err
	}
	s.Scores[player] += SkipPenalty
	totals := s.PlayerStats[player]
	totals.Skips++
	s.PlayerStats[player] = totals

	next, err := e.advance(ctx, s)
	if err != nil {
		return nil, err
	}
	return &ResolveResult{
		Player:     player,
		Category:   c,
		Delta:      SkipPenalty,
		NewScore:   s.Scores[player],
		NextPlayer: next,
		Session:    s,
	}, nil
}

// Change swaps the pending prompt for a new one of the same category, costing
// the change penalty. The turn does not advance; the same player is
// re-prompted. There is no cap on changes per turn.
func (e *Engine) Change(ctx context.Context, roomID int64, actor Actor) (*ResolveResult, error) {
	l := e.roomLock(roomID)
	l.Lock()
	defer l.Unlock()

	s, err := e.load(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if s.Status != models.StatusPlaying {
		return nil, ErrWrongState
	}
	if actor.ID != s.CurrentPlayer {
		return nil, ErrNotYourTurn
	}
	if s.CurrentChoice == "" {
		return nil, ErrNoPendingTask
	}

	player := s.CurrentPlayer
	c := s.CurrentChoice
	prompt, used, err := e.bank.Next(c, s.UsedQuestions[c])
	if err != nil {
		return nil, err
	}

	incs := map[string]int{
		store.ScoreField(player):           ChangePenalty,
		store.StatField(player, "changes"): 1,
	}
	if err := e.applyIncrements(ctx, roomID, incs); err != nil {
		return nil, err
	}
	if err := e.store.SetFields(ctx, roomID, map[string]any{
		store.UsedField(c):       used,
		store.FieldCurrentPrompt: prompt,
	}); err != nil {
		return nil, fmt.Errorf("change: %w", err)
	}

	s.Scores[player] += ChangePenalty
	totals := s.PlayerStats[player]
	totals.Changes++
	s.PlayerStats[player] = totals
	s.UsedQuestions[c] = used
	s.CurrentPrompt = prompt

	return &ResolveResult{
		Player:   player,
		Category: c,
		Delta:    ChangePenalty,
		NewScore: s.Scores[player],
		Prompt:   prompt,
		Session:  s,
	}, nil
}

// Stop terminates the session, computes the winner, and deletes the record.
// The caller hands the returned summary to the stats aggregator; the session
// itself no longer exists once Stop returns.
func (e *Engine) Stop(ctx context.Context, roomID int64, actor Actor) (*models.GameSummary, error) {
	if !actor.IsAdmin {
		return nil, ErrNotAdmin
	}
	l := e.roomLock(roomID)
	l.Lock()
	defer l.Unlock()

	s, err := e.load(ctx, roomID)
	if err != nil {
		return nil, err
	}

	summary := &models.GameSummary{
		Session:  s,
		WinnerID: s.Winner(),
		EndedAt:  time.Now().UTC(),
	}
	if err := e.store.Delete(ctx, roomID); err != nil {
		return nil, fmt.Errorf("delete session: %w", err)
	}
	return summary, nil
}

// advance rotates the queue and installs the next player, clearing the
// pending task. Clearing is what rejects the second of two racing
// resolutions: once the first one lands there is no pending task left.
func (e *Engine) advance(ctx context.Context, s *models.Session) (int64, error) {
	next, rotated := Rotate(s.PlayerQueue)
	if err := e.store.SetFields(ctx, s.RoomID, map[string]any{
		store.FieldCurrentPlayer: next,
		store.FieldPlayerQueue:   rotated,
		store.FieldCurrentChoice: "",
		store.FieldCurrentPrompt: "",
	}); err != nil {
		return 0, fmt.Errorf("advance turn: %w", err)
	}
	s.CurrentPlayer = next
	s.PlayerQueue = rotated
	s.CurrentChoice = ""
	s.CurrentPrompt = ""
	return next, nil
}

func (e *Engine) applyIncrements(ctx context.Context, roomID int64, incs map[string]int) error {
	for field, delta := range incs {
		if err := e.store.IncrField(ctx, roomID, field, delta); err != nil {
			return fmt.Errorf("increment %s: %w", field, err)
		}
	}
	return nil
}

func bumpStat(s *models.Session, player int64, c models.Category) {
	totals := s.PlayerStats[player]
	if c == models.CategoryDare {
		totals.Dares++
	} else {
		totals.Truths++
	}
	s.PlayerStats[player] = totals
}
