// Package dispatch maps inbound chat actions onto game engine transitions
// and renders the outcome back into chat messages. Guard failures become
// user-facing refusals; a recover wrapper guarantees an unexpected failure
// never takes the process down with it.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/rmehta/truthdare/internal/game"
	"github.com/rmehta/truthdare/internal/messenger"
	"github.com/rmehta/truthdare/internal/models"
	"github.com/rmehta/truthdare/internal/stats"
)

// Action kinds carried by inbound events. Commands come from slash commands,
// the rest from button presses.
const (
	ActionStart      = "start"
	ActionHelp       = "help"
	ActionMyID       = "myid"
	ActionGroupID    = "groupid"
	ActionNewGame    = "newgame"
	ActionStartGame  = "startgame"
	ActionStopGame   = "stop"
	ActionScores     = "scores"
	ActionPlayers    = "players"
	ActionGroupStats = "groupstats"
	ActionJoin       = "join"
	ActionTruth      = "truth"
	ActionDare       = "dare"
	ActionComplete   = "complete"
	ActionSkip       = "skip"
	ActionChange     = "change"
)

// RoomStatsReader serves the /groupstats command.
type RoomStatsReader interface {
	RoomStats(ctx context.Context, roomID int64) (*models.RoomStats, error)
}

// Dispatcher routes inbound events to transitions.
type Dispatcher struct {
	engine  *game.Engine
	agg     *stats.Aggregator
	reports RoomStatsReader
	msn     messenger.Messenger
	log     *logrus.Logger
}

// NewDispatcher wires the dispatch layer.
func NewDispatcher(engine *game.Engine, agg *stats.Aggregator, reports RoomStatsReader, msn messenger.Messenger, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		engine:  engine,
		agg:     agg,
		reports: reports,
		msn:     msn,
		log:     logger,
	}
}

var taskButtons = [][]messenger.Button{
	{{Label: "✅ Mark as Complete", Action: ActionComplete}},
	{{Label: "⏭️ Skip", Action: ActionSkip}, {Label: "🔄 Change", Action: ActionChange}},
}

var choiceButtons = [][]messenger.Button{
	{{Label: "🤔 Truth", Action: ActionTruth}, {Label: "😈 Dare", Action: ActionDare}},
}

// Handle processes one inbound event to completion. It never panics
// outward: unexpected failures are logged and reported to the room as a
// generic error.
func (d *Dispatcher) Handle(ctx context.Context, ev messenger.InboundEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.log.WithFields(logrus.Fields{"room": ev.RoomID, "kind": ev.Kind}).Errorf("panic in dispatch: %v", r)
			d.notify(ctx, ev.RoomID, "🤖 Oops! Something went wrong. The developers have been notified.", nil)
		}
	}()

	var err error
	switch ev.Kind {
	case ActionStart:
		err = d.handleStart(ctx, ev)
	case ActionHelp:
		err = d.notify(ctx, ev.RoomID, helpMessage, nil)
	case ActionMyID:
		err = d.handleMyID(ctx, ev)
	case ActionGroupID:
		err = d.handleGroupID(ctx, ev)
	case ActionNewGame:
		err = d.handleNewGame(ctx, ev)
	case ActionStartGame:
		err = d.handleStartGame(ctx, ev)
	case ActionStopGame:
		err = d.handleStopGame(ctx, ev)
	case ActionScores:
		err = d.handleScores(ctx, ev)
	case ActionPlayers:
		err = d.handlePlayers(ctx, ev)
	case ActionGroupStats:
		err = d.handleGroupStats(ctx, ev)
	case ActionJoin:
		err = d.handleJoin(ctx, ev)
	case ActionTruth:
		err = d.handleChoose(ctx, ev, models.CategoryTruth)
	case ActionDare:
		err = d.handleChoose(ctx, ev, models.CategoryDare)
	case ActionComplete:
		err = d.handleComplete(ctx, ev)
	case ActionSkip:
		err = d.handleSkip(ctx, ev)
	case ActionChange:
		err = d.handleChange(ctx, ev)
	default:
		d.log.WithField("kind", ev.Kind).Debug("ignoring unknown action")
		return
	}

	if err != nil {
		d.refuse(ctx, ev, err)
	}
}

// refuse turns a validation error into a user-facing message. Anything else
// is an upstream failure: logged, with a generic apology to the room.
func (d *Dispatcher) refuse(ctx context.Context, ev messenger.InboundEvent, err error) {
	if game.IsValidation(err) {
		d.notify(ctx, ev.RoomID, refusalText(err), nil)
		return
	}
	d.log.WithFields(logrus.Fields{"room": ev.RoomID, "kind": ev.Kind}).Errorf("dispatch failed: %v", err)
	d.notify(ctx, ev.RoomID, "🤖 Oops! Something went wrong. The developers have been notified.", nil)
}

func refusalText(err error) string {
	switch {
	case errors.Is(err, game.ErrSessionExists):
		return "A game is already in progress! Use /stop to end it first."
	case errors.Is(err, game.ErrSessionNotFound):
		return "There is no active game. Start one with /newgame."
	case errors.Is(err, game.ErrNotAdmin):
		return "❌ You must be a group admin to do that."
	case errors.Is(err, game.ErrNotEnoughPlayers):
		return "You need at least 2 players to start!"
	case errors.Is(err, game.ErrAlreadyJoined):
		return "You're already in the game!"
	case errors.Is(err, game.ErrNotYourTurn):
		return "It's not your turn!"
	case errors.Is(err, game.ErrNoPendingTask):
		return "There's nothing to resolve right now."
	case errors.Is(err, game.ErrWrongState):
		return "The game isn't in the right state for that."
	case errors.Is(err, game.ErrNoPrompts):
		return "No prompts are available for that category. 😔"
	default:
		return err.Error()
	}
}

// notify sends and logs delivery failures. State and notification are not
// transactionally coupled: a failed send never rolls a transition back.
func (d *Dispatcher) notify(ctx context.Context, roomID int64, text string, buttons [][]messenger.Button) error {
	if err := d.msn.Notify(ctx, roomID, text, buttons); err != nil {
		d.log.WithField("room", roomID).Warnf("notify failed: %v", err)
	}
	return nil
}

// name resolves a display name with graceful degradation down to a
// synthesized placeholder.
func (d *Dispatcher) name(ctx context.Context, roomID, userID int64) string {
	id, err := d.msn.ResolveIdentity(ctx, roomID, userID)
	if err != nil || id.Name() == "" {
		return messenger.PlaceholderName(userID)
	}
	return id.Name()
}

func (d *Dispatcher) actor(ev messenger.InboundEvent) game.Actor {
	return game.Actor{ID: ev.UserID, IsAdmin: ev.IsAdmin}
}

func (d *Dispatcher) handleStart(ctx context.Context, ev messenger.InboundEvent) error {
	if ev.Direct {
		return d.notify(ctx, ev.RoomID, privateStartMessage, nil)
	}
	return d.notify(ctx, ev.RoomID, "👋 Bot is active! Use /help to see all commands.", nil)
}

func (d *Dispatcher) handleMyID(ctx context.Context, ev messenger.InboundEvent) error {
	if !ev.Direct {
		return d.notify(ctx, ev.RoomID, "This command only works in a private chat with me.", nil)
	}
	msg := fmt.Sprintf("✨ Your Unique User ID\n\n%d\n\nYou can use this to check your stats on our website.", ev.UserID)
	return d.notify(ctx, ev.RoomID, msg, nil)
}

func (d *Dispatcher) handleGroupID(ctx context.Context, ev messenger.InboundEvent) error {
	if ev.Direct {
		return d.notify(ctx, ev.RoomID, "This command can only be used in groups.", nil)
	}
	if !ev.IsAdmin {
		return game.ErrNotAdmin
	}
	msg := fmt.Sprintf("🔑 This Group's ID\n\n%d\n\nYou can use this to check your group's stats on our website.", ev.RoomID)
	return d.notify(ctx, ev.RoomID, msg, nil)
}

func (d *Dispatcher) handleNewGame(ctx context.Context, ev messenger.InboundEvent) error {
	s, err := d.engine.OpenLobby(ctx, ev.RoomID, d.actor(ev))
	if err != nil {
		return err
	}
	d.log.WithFields(logrus.Fields{"room": ev.RoomID, "game": s.GameID}).Infof("new game %q created", s.GameName)

	joinButtons := [][]messenger.Button{{{Label: "Join Game 🎮", Action: ActionJoin}}}
	return d.notify(ctx, ev.RoomID, newGameMessage(s.GameName, d.name(ctx, ev.RoomID, ev.UserID)), joinButtons)
}

func (d *Dispatcher) handleJoin(ctx context.Context, ev messenger.InboundEvent) error {
	if _, err := d.engine.Join(ctx, ev.RoomID, ev.UserID); err != nil {
		return err
	}
	return d.notify(ctx, ev.RoomID, fmt.Sprintf("✅ %s has joined the game!", d.name(ctx, ev.RoomID, ev.UserID)), nil)
}

func (d *Dispatcher) handleStartGame(ctx context.Context, ev messenger.InboundEvent) error {
	s, err := d.engine.Start(ctx, ev.RoomID, d.actor(ev))
	if err != nil {
		return err
	}
	d.notify(ctx, ev.RoomID, gameStartMessage(), nil)
	return d.announceTurn(ctx, ev.RoomID, s.CurrentPlayer)
}

func (d *Dispatcher) announceTurn(ctx context.Context, roomID, playerID int64) error {
	return d.notify(ctx, roomID, nextPlayerMessage(d.name(ctx, roomID, playerID)), choiceButtons)
}

func (d *Dispatcher) handleChoose(ctx context.Context, ev messenger.InboundEvent, c models.Category) error {
	s, err := d.engine.Choose(ctx, ev.RoomID, d.actor(ev), c)
	if err != nil {
		return err
	}
	name := d.name(ctx, ev.RoomID, s.CurrentPlayer)
	return d.notify(ctx, ev.RoomID, promptMessage(c, name, s.CurrentPrompt), taskButtons)
}

func (d *Dispatcher) handleComplete(ctx context.Context, ev messenger.InboundEvent) error {
	res, err := d.engine.Complete(ctx, ev.RoomID, d.actor(ev))
	if err != nil {
		return err
	}
	name := d.name(ctx, ev.RoomID, res.Player)
	d.notify(ctx, ev.RoomID, successMessage(name, res.Delta, res.NewScore), nil)
	return d.announceTurn(ctx, ev.RoomID, res.NextPlayer)
}

func (d *Dispatcher) handleSkip(ctx context.Context, ev messenger.InboundEvent) error {
	res, err := d.engine.Skip(ctx, ev.RoomID, d.actor(ev))
	if err != nil {
		return err
	}
	name := d.name(ctx, ev.RoomID, res.Player)
	d.notify(ctx, ev.RoomID, skipMessage(name, res.NewScore), nil)
	return d.announceTurn(ctx, ev.RoomID, res.NextPlayer)
}

func (d *Dispatcher) handleChange(ctx context.Context, ev messenger.InboundEvent) error {
	res, err := d.engine.Change(ctx, ev.RoomID, d.actor(ev))
	if err != nil {
		return err
	}
	name := d.name(ctx, ev.RoomID, res.Player)
	text := fmt.Sprintf("🔄 Task changed! %d points.\n\n%s", res.Delta, promptMessage(res.Category, name, res.Prompt))
	return d.notify(ctx, ev.RoomID, text, taskButtons)
}

func (d *Dispatcher) handleStopGame(ctx context.Context, ev messenger.InboundEvent) error {
	sum, err := d.engine.Stop(ctx, ev.RoomID, d.actor(ev))
	if err != nil {
		return err
	}
	sum.RoomTitle = ev.RoomTitle
	if sum.WinnerID != 0 {
		sum.WinnerName = d.name(ctx, ev.RoomID, sum.WinnerID)
	} else {
		sum.WinnerName = "No winner"
	}

	if err := d.agg.RecordGameEnd(ctx, sum); err != nil {
		// The session is already gone; stats are eventually consistent and
		// a failed rollup must not block the farewell.
		d.log.WithField("room", ev.RoomID).Errorf("stats rollup failed: %v", err)
	}

	s := sum.Session
	text := fmt.Sprintf("🏁 Game Over! 🏁\n\nThanks for playing %s!\n\n🏆 Final Scoreboard 🏆\n", s.GameName)
	if len(s.Players) == 0 {
		text += "No scores were recorded in this game."
	} else {
		text += scoreboard(s, func(id int64) string { return d.name(ctx, ev.RoomID, id) })
	}
	text += "\nUse /groupstats to see all-time records!\n" + gameEndMessage()
	d.log.WithField("room", ev.RoomID).Info("game stopped and stats saved")
	return d.notify(ctx, ev.RoomID, text, nil)
}

func (d *Dispatcher) handleScores(ctx context.Context, ev messenger.InboundEvent) error {
	s, err := d.engine.Session(ctx, ev.RoomID)
	if err != nil {
		return err
	}
	if len(s.Players) == 0 {
		return d.notify(ctx, ev.RoomID, "No scores yet. The game has just started!", nil)
	}
	text := "📊 Current Scores\n\n" + scoreboard(s, func(id int64) string { return d.name(ctx, ev.RoomID, id) })
	return d.notify(ctx, ev.RoomID, text, nil)
}

func (d *Dispatcher) handlePlayers(ctx context.Context, ev messenger.InboundEvent) error {
	s, err := d.engine.Session(ctx, ev.RoomID)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("👥 Players in %s (%d)\n\n", s.GameName, len(s.Players))
	for _, p := range s.Players {
		text += fmt.Sprintf("• %s\n", d.name(ctx, ev.RoomID, p))
	}
	return d.notify(ctx, ev.RoomID, text, nil)
}

func (d *Dispatcher) handleGroupStats(ctx context.Context, ev messenger.InboundEvent) error {
	if ev.Direct {
		return d.notify(ctx, ev.RoomID, "This command can only be used in groups.", nil)
	}
	st, err := d.reports.RoomStats(ctx, ev.RoomID)
	if err != nil {
		return d.notify(ctx, ev.RoomID, "No games have been played yet. Start one with /newgame!", nil)
	}
	if st.Title == "" {
		st.Title = ev.RoomTitle
	}
	return d.notify(ctx, ev.RoomID, groupStatsMessage(st), nil)
}
