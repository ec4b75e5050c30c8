package main

import (
	"github.com/lox/blackjackforbots/cmd/blackjack/shared"
)

// EvalCmd plays a trained table greedily, with exploration switched off.
type EvalCmd struct {
	Table       string `arg:"" type:"existingfile" help:"Q-table file written by train"`
	Rounds      int    `help:"Rounds to play (0 uses the config file)"`
	Workers     int    `help:"Parallel workers (0 uses the config file, then GOMAXPROCS)"`
	DatabaseURL string `name:"database-url" env:"BLACKJACK_DATABASE_URL" help:"Postgres DSN to record the run in"`
}

func (c *EvalCmd) Run(g *Globals) error {
	logger := g.Logger()
	cfg, err := g.LoadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := shared.SetupSignalHandler(logger)
	defer cancel()

	return evaluate(ctx, evaluation{
		cfg:         cfg,
		policy:      PolicyFlags{Policy: "table", Table: c.Table},
		rounds:      c.Rounds,
		workers:     c.Workers,
		databaseURL: c.DatabaseURL,
		logger:      logger,
	})
}
