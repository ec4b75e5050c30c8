package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/lox/blackjackforbots/cmd/blackjack/shared"
	"github.com/lox/blackjackforbots/internal/config"
	"github.com/lox/blackjackforbots/internal/randutil"
	"github.com/lox/blackjackforbots/internal/simulator"
	"github.com/lox/blackjackforbots/internal/statistics"
	"github.com/lox/blackjackforbots/internal/store"
)

// SimulateCmd plays many independent rounds with a built-in policy.
type SimulateCmd struct {
	PolicyFlags `embed:""`

	Rounds      int    `help:"Rounds to play (0 uses the config file)"`
	Workers     int    `help:"Parallel workers (0 uses the config file, then GOMAXPROCS)"`
	DatabaseURL string `name:"database-url" env:"BLACKJACK_DATABASE_URL" help:"Postgres DSN to record the run in"`
}

func (c *SimulateCmd) Run(g *Globals) error {
	logger := g.Logger()
	cfg, err := g.LoadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := shared.SetupSignalHandler(logger)
	defer cancel()

	return evaluate(ctx, evaluation{
		cfg:         cfg,
		policy:      c.PolicyFlags,
		rounds:      c.Rounds,
		workers:     c.Workers,
		databaseURL: c.DatabaseURL,
		logger:      logger,
	})
}

type evaluation struct {
	cfg         *config.Config
	policy      PolicyFlags
	rounds      int
	workers     int
	databaseURL string
	logger      zerolog.Logger
}

// evaluate runs the simulator, prints the summary and optionally stores it.
func evaluate(ctx context.Context, e evaluation) error {
	rules := e.cfg.Game()
	factory, err := e.policy.Factory(rules.Counting, e.logger)
	if err != nil {
		return err
	}

	rounds := e.rounds
	if rounds <= 0 {
		rounds = e.cfg.Evaluation.Rounds
	}
	workers := e.workers
	if workers <= 0 {
		workers = e.cfg.Evaluation.Workers
	}
	seed := randutil.Seed(e.cfg.Seed)

	e.logger.Info().
		Str("policy", e.policy.Label()).
		Int("rounds", rounds).
		Int("workers", workers).
		Int64("seed", seed).
		Bool("counting", rules.Counting).
		Msg("Starting simulation")

	start := time.Now()
	tally, err := simulator.New(simulator.Config{
		Rounds:  rounds,
		Workers: workers,
		Seed:    seed,
		Env:     rules,
		Logger:  e.logger,
	}, factory).Run(ctx)
	if err != nil {
		return err
	}
	e.logger.Info().Dur("elapsed", time.Since(start)).Msg("Simulation complete")

	simulator.PrintSummary(os.Stdout, tally, e.policy.Label())

	return recordEvaluation(ctx, e, seed, tally)
}

func recordEvaluation(ctx context.Context, e evaluation, seed int64, tally *statistics.Tally) error {
	db, err := openStore(ctx, e.databaseURL, e.logger)
	if err != nil || db == nil {
		return err
	}
	defer db.Close()

	run := store.NewEvaluationRun(e.policy.Label(), seed, e.cfg.Environment.Counting, tally)
	if e.policy.Policy == "table" {
		run.TablePath = e.policy.Table
	}
	id, err := db.RecordEvaluation(ctx, run)
	if err != nil {
		return err
	}
	e.logger.Info().Str("run_id", id).Msg("Recorded evaluation")
	return nil
}
