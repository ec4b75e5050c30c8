package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lox/blackjackforbots/cmd/blackjack/shared"
	"github.com/lox/blackjackforbots/internal/store"
	"github.com/lox/blackjackforbots/sdk/solver"
)

// TrainCmd runs tabular Q-learning against the environment and writes the
// resulting table.
type TrainCmd struct {
	Episodes        int    `help:"Episodes to train (0 uses the config file)"`
	Output          string `short:"o" type:"path" help:"Table output path; a .gz suffix compresses it (empty uses the config file)"`
	Checkpoint      string `type:"path" help:"Path to write periodic checkpoints"`
	CheckpointEvery int    `help:"Checkpoint interval in episodes (0 uses the config file)"`
	Resume          string `type:"existingfile" help:"Resume training from a checkpoint file"`
	DatabaseURL     string `name:"database-url" env:"BLACKJACK_DATABASE_URL" help:"Postgres DSN to record the run in"`
}

func (c *TrainCmd) Run(g *Globals) error {
	logger := g.Logger()
	cfg, err := g.LoadConfig()
	if err != nil {
		return err
	}

	output := c.Output
	if output == "" {
		output = cfg.Training.Output
	}
	every := c.CheckpointEvery
	if every <= 0 {
		every = cfg.Training.CheckpointEvery
	}

	trainer, err := c.newTrainer(cfg.Solver(), logger)
	if err != nil {
		return err
	}
	if c.Checkpoint != "" {
		if every <= 0 {
			every = max(trainer.Config().Episodes/10, 1)
		}
		trainer.EnableCheckpoints(c.Checkpoint, every)
	}

	tc := trainer.Config()
	logger.Info().
		Int64("seed", tc.Seed).
		Int("episodes", tc.Episodes).
		Float64("learning_rate", tc.Params.LearningRate).
		Float64("discount", tc.Params.Discount).
		Bool("counting", tc.Params.Counting).
		Str("output", output).
		Msg("Training Q-learning policy")

	ctx, cancel := shared.SetupSignalHandler(logger)
	defer cancel()

	start := time.Now()
	err = trainer.Run(ctx, func(p solver.Progress) {
		logger.Info().
			Int("episode", p.Episode).
			Float64("epsilon", p.Epsilon).
			Int("states", p.TableSize).
			Float64("mean_td_error", p.MeanTDError).
			Float64("win_rate", p.WinRate()).
			Dur("elapsed", p.Elapsed).
			Msg("Training progress")
	})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			return err
		}
		logger.Warn().Int("episode", trainer.Episodes()).Msg("Training interrupted, saving partial table")
	}

	if err := trainer.TableFile().Save(output); err != nil {
		return fmt.Errorf("save table: %w", err)
	}
	logger.Info().
		Str("path", output).
		Int("states", trainer.Table().Len()).
		Int("episodes", trainer.Episodes()).
		Msg("Wrote Q-table")

	wins, draws, losses := trainer.Outcomes()
	run := store.TrainingRun{
		Seed:         tc.Seed,
		Episodes:     trainer.Episodes(),
		Counting:     tc.Params.Counting,
		LearningRate: tc.Params.LearningRate,
		Discount:     tc.Params.Discount,
		TableSize:    trainer.Table().Len(),
		Wins:         wins,
		Draws:        draws,
		Losses:       losses,
		Duration:     time.Since(start),
		OutputPath:   output,
	}
	// record even when interrupted, against a fresh context
	return recordTraining(context.Background(), c.DatabaseURL, run, logger)
}

func (c *TrainCmd) newTrainer(cfg solver.TrainingConfig, logger zerolog.Logger) (*solver.Trainer, error) {
	if c.Episodes > 0 {
		cfg.Episodes = c.Episodes
	}
	if c.Resume == "" {
		return solver.NewTrainer(cfg, solver.WithLogger(logger))
	}

	trainer, err := solver.LoadTrainerFromCheckpoint(c.Resume,
		solver.WithLogger(logger),
		solver.WithEpisodes(c.Episodes),
	)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	if trainer.Config().Params != cfg.Params {
		logger.Warn().Msg("Checkpoint parameters differ from the config file; keeping the checkpoint's")
	}
	logger.Info().
		Str("path", c.Resume).
		Int("episode", trainer.Episodes()).
		Int("states", trainer.Table().Len()).
		Msg("Resumed from checkpoint")
	return trainer, nil
}

func recordTraining(ctx context.Context, dsn string, run store.TrainingRun, logger zerolog.Logger) error {
	db, err := openStore(ctx, dsn, logger)
	if err != nil || db == nil {
		return err
	}
	defer db.Close()

	id, err := db.RecordTraining(ctx, run)
	if err != nil {
		return err
	}
	logger.Info().Str("run_id", id).Msg("Recorded training run")
	return nil
}
