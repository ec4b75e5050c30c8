package main

import (
	"errors"
	"fmt"
	rand "math/rand/v2"

	"github.com/rs/zerolog"

	"github.com/lox/blackjackforbots/internal/bot"
	"github.com/lox/blackjackforbots/internal/game"
	"github.com/lox/blackjackforbots/internal/simulator"
	"github.com/lox/blackjackforbots/sdk/solver"
)

// PolicyFlags select a built-in policy on the command line.
type PolicyFlags struct {
	Policy  string `default:"threshold" enum:"random,threshold,table" help:"Policy to play with (random|threshold|table)"`
	StandOn int    `default:"17" help:"Total the threshold policy stands on"`
	Table   string `type:"path" help:"Q-table file for --policy=table"`
}

// Label names the policy in reports and stored runs.
func (f PolicyFlags) Label() string {
	switch f.Policy {
	case "threshold":
		return fmt.Sprintf("threshold-%d", f.StandOn)
	case "table":
		return "table:" + f.Table
	default:
		return f.Policy
	}
}

// Factory resolves the flags into a per-worker policy constructor. counting
// is the key scheme of the environment the policy will play in.
func (f PolicyFlags) Factory(counting bool, logger zerolog.Logger) (simulator.PolicyFactory, error) {
	switch f.Policy {
	case "random":
		return func(_ int, rng *rand.Rand) (game.Policy, error) {
			return bot.NewRandBot(rng), nil
		}, nil
	case "threshold":
		if f.StandOn < 2 || f.StandOn > 21 {
			return nil, fmt.Errorf("stand-on must be between 2 and 21, got %d", f.StandOn)
		}
		b := bot.NewThresholdBot(f.StandOn)
		return func(int, *rand.Rand) (game.Policy, error) { return b, nil }, nil
	case "table":
		if f.Table == "" {
			return nil, errors.New("--table is required with --policy=table")
		}
		table, err := loadTable(f.Table, counting, logger)
		if err != nil {
			return nil, err
		}
		p, err := greedyPolicy(table, counting)
		if err != nil {
			return nil, err
		}
		// the table is read-only from here on, so workers can share it
		return func(int, *rand.Rand) (game.Policy, error) { return p, nil }, nil
	default:
		return nil, fmt.Errorf("unknown policy %q", f.Policy)
	}
}

// loadTable reads a table file. A counting mismatch is logged rather than
// rejected: the lookups still work, they just miss every state.
func loadTable(path string, counting bool, logger zerolog.Logger) (*solver.QTable, error) {
	file, err := solver.LoadTableFile(path)
	if err != nil {
		return nil, fmt.Errorf("load table: %w", err)
	}
	if err := file.Check(counting); err != nil {
		if !errors.Is(err, solver.ErrKeySchemeMismatch) {
			return nil, err
		}
		logger.Warn().
			Str("path", path).
			Bool("table_counting", file.Counting).
			Bool("env_counting", counting).
			Msg("Table was trained with a different counting setting; most lookups will miss")
	}
	table, err := file.Table()
	if err != nil {
		return nil, fmt.Errorf("decode table: %w", err)
	}
	logger.Info().
		Str("path", path).
		Int("states", table.Len()).
		Int("episodes", file.Episodes).
		Msg("Loaded Q-table")
	return table, nil
}

func greedyPolicy(table *solver.QTable, counting bool) (game.Policy, error) {
	params := solver.DefaultParams()
	params.InitialEpsilon = 0
	params.Counting = counting
	p, err := solver.NewQPolicy(table, params, nil)
	if err != nil {
		return nil, err
	}
	return p.Greedy(), nil
}
