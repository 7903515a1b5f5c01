// Package messenger is the narrow seam between the game core and the chat
// platform. The core never talks to a chat API directly; it resolves
// identities and sends notifications through the Messenger capability, and
// receives inbound actions as InboundEvent values from whatever transport
// adapter is wired in.
package messenger

import (
	"context"
	"errors"
	"fmt"
)

// ErrLookupFailed signals that an identity could not be resolved; callers
// degrade to a cached or synthesized display name instead of aborting.
var ErrLookupFailed = errors.New("identity lookup failed")

// Identity is what the platform knows about a participant in a room.
type Identity struct {
	DisplayName string `json:"display_name"`
	Username    string `json:"username,omitempty"`
	IsAdmin     bool   `json:"is_admin"`
}

// Name prefers the username, falling back to the display name.
func (id Identity) Name() string {
	if id.Username != "" {
		return id.Username
	}
	return id.DisplayName
}

// Button is one interactive option attached to an outbound message. Action
// is the event kind the platform sends back when the button is pressed.
type Button struct {
	Label  string `json:"label"`
	Action string `json:"action"`
}

// InboundEvent is a command or button press arriving from the chat platform,
// already resolved to a room, an acting identity, and an action kind. The
// sender's display info and admin flag ride along so the service can cache
// names and gate admin-only transitions without a round trip.
type InboundEvent struct {
	RoomID    int64  `json:"room_id"`
	RoomTitle string `json:"room_title,omitempty"`

	// Direct is true for one-on-one chats, where only a few informational
	// commands are available.
	Direct bool `json:"direct,omitempty"`

	UserID      int64  `json:"user_id"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	IsAdmin     bool   `json:"is_admin,omitempty"`

	Kind string `json:"kind"`
}

// Messenger is the outbound capability consumed by the dispatch layer.
type Messenger interface {
	// ResolveIdentity returns what is known about a participant. Fails with
	// ErrLookupFailed when neither the platform cache nor the user directory
	// knows the id.
	ResolveIdentity(ctx context.Context, roomID, userID int64) (Identity, error)

	// Notify sends a rendered message to a room, optionally with rows of
	// interactive buttons.
	Notify(ctx context.Context, roomID int64, text string, buttons [][]Button) error
}

// UserDirectory is the persistent name cache behind identity resolution.
type UserDirectory interface {
	UpsertUserInfo(ctx context.Context, userID int64, username, displayName string) error
	LookupUser(ctx context.Context, userID int64) (username, displayName string, err error)
}

// PlaceholderName synthesizes a stable fallback name for an unresolvable id.
func PlaceholderName(userID int64) string {
	return fmt.Sprintf("Player_%d", userID)
}
