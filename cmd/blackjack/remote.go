package main

import (
	"fmt"
	"os"

	"github.com/lox/blackjackforbots/cmd/blackjack/shared"
	"github.com/lox/blackjackforbots/internal/randutil"
	"github.com/lox/blackjackforbots/internal/simulator"
	"github.com/lox/blackjackforbots/sdk/client"
)

// RemoteCmd plays a built-in policy through a running gateway.
type RemoteCmd struct {
	PolicyFlags `embed:""`

	Server string `default:"ws://localhost:8080/ws" help:"Gateway URL"`
	Rounds int    `default:"1000" help:"Rounds to play"`
}

func (c *RemoteCmd) Run(g *Globals) error {
	logger := g.Logger()
	cfg, err := g.LoadConfig()
	if err != nil {
		return err
	}
	if c.Rounds <= 0 {
		return fmt.Errorf("rounds must be > 0, got %d", c.Rounds)
	}

	ctx, cancel := shared.SetupSignalHandler(logger)
	defer cancel()

	cl, err := client.Dial(ctx, c.Server, client.WithLogger(logger))
	if err != nil {
		return err
	}
	defer cl.Close()

	// the gateway's rules decide the key scheme, not the local config
	rules := cl.Rules()
	factory, err := c.Factory(rules.Counting, logger)
	if err != nil {
		return err
	}
	policy, err := factory(0, randutil.New(randutil.Seed(cfg.Seed)))
	if err != nil {
		return err
	}

	logger.Info().
		Str("session", cl.Session()).
		Str("policy", c.Label()).
		Int("rounds", c.Rounds).
		Bool("counting", rules.Counting).
		Msg("Connected to gateway")

	tally, err := cl.Play(ctx, policy, c.Rounds)
	if tally != nil && tally.Rounds > 0 {
		simulator.PrintSummary(os.Stdout, tally, c.Label()+" (remote)")
	}
	return err
}
