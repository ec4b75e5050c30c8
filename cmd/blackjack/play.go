package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/lox/blackjackforbots/internal/game"
	"github.com/lox/blackjackforbots/internal/randutil"
	"github.com/lox/blackjackforbots/internal/simulator"
	"github.com/lox/blackjackforbots/internal/tui"
)

// PlayCmd runs the interactive table.
type PlayCmd struct {
	Table   string `type:"existingfile" help:"Q-table whose greedy choice is shown as advice"`
	LogFile string `default:"blackjack-tui.log" type:"path" help:"File the TUI writes its log to"`
}

func (c *PlayCmd) Run(g *Globals) error {
	cfg, err := g.LoadConfig()
	if err != nil {
		return err
	}
	rules := cfg.Game()

	f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	logger := log.New(f)
	logger.SetLevel(log.InfoLevel)
	if g.Debug {
		logger.SetLevel(log.DebugLevel)
	}

	var opts []tui.Option
	if c.Table != "" {
		table, err := loadTable(c.Table, rules.Counting, g.Logger())
		if err != nil {
			return err
		}
		advisor, err := greedyPolicy(table, rules.Counting)
		if err != nil {
			return err
		}
		opts = append(opts, tui.WithAdvisor(advisor))
	}

	seed := randutil.Seed(cfg.Seed)
	logger.Info("Starting table", "seed", seed, "counting", rules.Counting)

	env, err := game.NewEnv(randutil.New(seed), game.WithConfig(rules))
	if err != nil {
		return err
	}

	tally, err := tui.Run(env, logger, opts...)
	if err != nil {
		return err
	}
	if tally.Rounds > 0 {
		simulator.PrintSummary(os.Stdout, &tally, "session")
	}
	return nil
}
