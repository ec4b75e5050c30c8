// Package bot provides baseline player policies.
package bot

import (
	rand "math/rand/v2"

	"github.com/lox/blackjackforbots/internal/game"
)

// RandBot hits or stands with equal probability.
type RandBot struct {
	rng *rand.Rand
}

// NewRandBot creates a RandBot drawing from rng.
func NewRandBot(rng *rand.Rand) *RandBot {
	return &RandBot{rng: rng}
}

// Decide implements game.Policy.
func (r *RandBot) Decide(game.State) game.Action {
	return game.Action(r.rng.IntN(game.NumActions))
}
