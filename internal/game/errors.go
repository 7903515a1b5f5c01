package game

import "errors"

// Validation errors. These are recovered at the dispatch boundary and turned
// into user-facing refusals; none of them leaves a transition partially
// applied.
var (
	ErrSessionExists    = errors.New("a game is already in progress")
	ErrSessionNotFound  = errors.New("no active game in this room")
	ErrNotAdmin         = errors.New("only a room admin can do that")
	ErrWrongState       = errors.New("the game is not in the right state for that")
	ErrNotEnoughPlayers = errors.New("need at least 2 players to start")
	ErrAlreadyJoined    = errors.New("already in the game")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrNoPendingTask    = errors.New("there is no pending task to resolve")
	ErrBadCategory      = errors.New("unknown category")
	ErrNoPrompts        = errors.New("no prompts are available for that category")
)

// IsValidation reports whether err is one of the local guard failures, as
// opposed to an upstream storage or transport failure.
func IsValidation(err error) bool {
	for _, v := range []error{
		ErrSessionExists, ErrSessionNotFound, ErrNotAdmin, ErrWrongState,
		ErrNotEnoughPlayers, ErrAlreadyJoined, ErrNotYourTurn,
		ErrNoPendingTask, ErrBadCategory, ErrNoPrompts,
	} {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}
