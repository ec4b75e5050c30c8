package game

import (
	"fmt"
	"strings"
)

// Action is a player decision.
type Action int

const (
	Hit Action = iota
	Stand
)

// NumActions is the size of the action space.
const NumActions = 2

// String returns the wire name of the action
func (a Action) String() string {
	switch a {
	case Hit:
		return "hit"
	case Stand:
		return "stand"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Valid reports whether a is Hit or Stand.
func (a Action) Valid() bool {
	return a == Hit || a == Stand
}

// ParseAction accepts "hit", "h", "stand" and "s" in any case.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hit", "h":
		return Hit, nil
	case "stand", "s":
		return Stand, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}
}

// Reward is the outcome of a finished round from the player's side.
type Reward int

const (
	Lose Reward = -1
	Draw Reward = 0
	Win  Reward = 1
)

func (r Reward) String() string {
	switch r {
	case Win:
		return "win"
	case Draw:
		return "draw"
	case Lose:
		return "lose"
	default:
		return fmt.Sprintf("reward(%d)", int(r))
	}
}

// CountBin discretises the running count into three buckets.
type CountBin int

const (
	CountLow     CountBin = -1
	CountNeutral CountBin = 0
	CountHigh    CountBin = 1

	// CountUnknown is reported when card counting is disabled.
	CountUnknown CountBin = 2
)

func (b CountBin) String() string {
	switch b {
	case CountLow:
		return "-1"
	case CountNeutral:
		return "0"
	case CountHigh:
		return "+1"
	default:
		return "unknown"
	}
}
