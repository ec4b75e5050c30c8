// Package protocol defines the JSON messages exchanged between the agent
// gateway and remote players.
package protocol

import (
	"github.com/lox/blackjackforbots/internal/game"
)

// MessageType identifies the type of message
type MessageType string

const (
	// Client -> Server
	TypeReset MessageType = "reset"
	TypeStep  MessageType = "step"

	// Server -> Client
	TypeWelcome MessageType = "welcome"
	TypeState   MessageType = "state"
	TypeError   MessageType = "error"
)

// Error codes carried by Error messages.
const (
	CodeInvalidAction = "invalid_action"
	CodeAlreadyDone   = "already_done"
	CodeNotStarted    = "not_started"
	CodeBadMessage    = "bad_message"
	CodeInternal      = "internal"
)

// Reset asks the server to deal a new round.
type Reset struct {
	Type MessageType `json:"type"`
}

// Step applies a player action ("hit" or "stand").
type Step struct {
	Type   MessageType `json:"type"`
	Action string      `json:"action"`
}

// Welcome is sent once after the connection is accepted.
type Welcome struct {
	Type    MessageType `json:"type"`
	Session string      `json:"session"`
	Rules   game.Config `json:"rules"`
}

// StateUpdate answers a Reset or Step.
type StateUpdate struct {
	Type   MessageType    `json:"type"`
	State  State          `json:"state"`
	Reward int            `json:"reward"`
	Done   bool           `json:"done"`
	Info   map[string]any `json:"info,omitempty"`
}

// Error reports a rejected request. The session stays usable.
type Error struct {
	Type    MessageType `json:"type"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
}

// State is the wire form of game.State plus the visible cards.
type State struct {
	PlayerTotal int      `json:"player_total"`
	PlayerSoft  bool     `json:"player_soft"`
	DealerUp    int      `json:"dealer_up"`
	Count       *int     `json:"count,omitempty"`
	DealerKnown bool     `json:"dealer_known,omitempty"`
	DealerTotal int      `json:"dealer_total,omitempty"`
	DealerSoft  bool     `json:"dealer_soft,omitempty"`
	PlayerCards []string `json:"player_cards,omitempty"`
	DealerCards []string `json:"dealer_cards,omitempty"`
}

// FromGame converts s for the wire.
func FromGame(s game.State) State {
	return State{
		PlayerTotal: s.PlayerTotal,
		PlayerSoft:  s.PlayerSoft,
		DealerUp:    s.DealerUp,
		Count:       countToWire(s.Count),
		DealerKnown: s.DealerKnown,
		DealerTotal: s.DealerTotal,
		DealerSoft:  s.DealerSoft,
	}
}

// countToWire omits the bin when counting is off, so agents only ever see
// -1, 0 or +1.
func countToWire(b game.CountBin) *int {
	if b == game.CountUnknown {
		return nil
	}
	v := int(b)
	return &v
}

func countFromWire(v *int) game.CountBin {
	if v == nil {
		return game.CountUnknown
	}
	return game.CountBin(*v)
}

// Game converts the wire state back to a game.State.
func (s State) Game() game.State {
	return game.State{
		PlayerTotal: s.PlayerTotal,
		PlayerSoft:  s.PlayerSoft,
		DealerUp:    s.DealerUp,
		Count:       countFromWire(s.Count),
		DealerKnown: s.DealerKnown,
		DealerTotal: s.DealerTotal,
		DealerSoft:  s.DealerSoft,
	}
}

// Error implements error so clients can return the message directly.
func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// Unwrap maps the code back to the game sentinel so errors.Is works on
// remote failures.
func (e *Error) Unwrap() error {
	switch e.Code {
	case CodeInvalidAction:
		return game.ErrInvalidAction
	case CodeAlreadyDone:
		return game.ErrAlreadyDone
	case CodeNotStarted:
		return game.ErrNotStarted
	default:
		return nil
	}
}
