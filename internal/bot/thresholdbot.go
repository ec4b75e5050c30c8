package bot

import "github.com/lox/blackjackforbots/internal/game"

// ThresholdBot mimics the dealer: hit below StandOn, stand otherwise.
type ThresholdBot struct {
	StandOn int
}

// NewThresholdBot creates a ThresholdBot standing on standOn.
func NewThresholdBot(standOn int) ThresholdBot {
	return ThresholdBot{StandOn: standOn}
}

// Decide implements game.Policy.
func (b ThresholdBot) Decide(s game.State) game.Action {
	if s.PlayerTotal < b.StandOn {
		return game.Hit
	}
	return game.Stand
}
