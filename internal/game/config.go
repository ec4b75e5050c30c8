package game

import (
	"errors"

	"github.com/lox/blackjackforbots/internal/deck"
)

// Config holds the table rules for an Env. Each Env owns its copy so
// environments with different rules can run side by side.
type Config struct {
	// Counting exposes the discretised running count in observed states.
	Counting bool `json:"counting"`

	// DealerStandOn is the total at which the dealer stops drawing. The
	// dealer stands on soft totals too.
	DealerStandOn int `json:"dealer_stand_on"`

	// ReshuffleBelow triggers a fresh shoe at Reset when fewer cards remain.
	ReshuffleBelow int `json:"reshuffle_below"`

	// CountThreshold is the running count magnitude beyond which the count
	// bin leaves neutral.
	CountThreshold int `json:"count_threshold"`
}

// DefaultConfig returns the standard table: dealer stands on 17, reshuffle
// below 10 cards, count bins split at ±5, counting disabled.
func DefaultConfig() Config {
	return Config{
		Counting:       false,
		DealerStandOn:  17,
		ReshuffleBelow: 10,
		CountThreshold: 5,
	}
}

// Validate ensures the rules are usable.
func (c Config) Validate() error {
	if c.DealerStandOn < 2 || c.DealerStandOn > 21 {
		return errors.New("dealer stand threshold must be between 2 and 21")
	}
	if c.ReshuffleBelow < 4 || c.ReshuffleBelow > deck.Size {
		return errors.New("reshuffle threshold must be between 4 and 52")
	}
	if c.CountThreshold < 0 {
		return errors.New("count threshold cannot be negative")
	}
	return nil
}
