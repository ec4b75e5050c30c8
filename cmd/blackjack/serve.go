package main

import (
	"github.com/lox/blackjackforbots/cmd/blackjack/shared"
	"github.com/lox/blackjackforbots/internal/server"
)

// ServeCmd runs the agent gateway.
type ServeCmd struct {
	Addr           string `help:"Listen address (empty uses the config file)"`
	MaxConnections int    `help:"Concurrent session limit (0 uses the config file)"`
}

func (c *ServeCmd) Run(g *Globals) error {
	logger := g.Logger()
	cfg, err := g.LoadConfig()
	if err != nil {
		return err
	}

	sc := server.Config{
		Addr:           cfg.Server.Address,
		MaxConnections: cfg.Server.MaxConnections,
		Rules:          cfg.Game(),
		Seed:           cfg.Seed,
	}
	if c.Addr != "" {
		sc.Addr = c.Addr
	}
	if c.MaxConnections > 0 {
		sc.MaxConnections = c.MaxConnections
	}

	s, err := server.NewServer(sc, logger)
	if err != nil {
		return err
	}

	logger.Info().
		Str("address", sc.Addr).
		Int("max_connections", sc.MaxConnections).
		Int64("seed", s.Seed()).
		Bool("counting", sc.Rules.Counting).
		Int("dealer_stand_on", sc.Rules.DealerStandOn).
		Msg("Starting blackjack gateway")

	ctx, cancel := shared.SetupSignalHandler(logger)
	defer cancel()

	return s.ListenAndServe(ctx)
}
