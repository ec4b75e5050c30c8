// Package store records training and evaluation runs in Postgres.
package store

import (
	"context"
	"embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lox/blackjackforbots/internal/runid"
	"github.com/lox/blackjackforbots/internal/statistics"
)

//go:embed schema.sql
var schema embed.FS

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = errors.New("run not found")

type DB struct{ *pgxpool.Pool }

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*DB, error) {
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return &DB{p}, nil
}

func (db *DB) Close() { db.Pool.Close() }

// Migrate applies the embedded schema. It is idempotent.
func Migrate(ctx context.Context, db *DB) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, string(sqlBytes))
	return err
}

// TrainingRun summarises one call to the train command.
type TrainingRun struct {
	ID           string
	CreatedAt    time.Time
	Seed         int64
	Episodes     int
	Counting     bool
	LearningRate float64
	Discount     float64
	TableSize    int
	Wins         int
	Draws        int
	Losses       int
	Duration     time.Duration
	OutputPath   string
}

// EvaluationRun summarises one simulate or eval invocation.
type EvaluationRun struct {
	ID         string
	CreatedAt  time.Time
	Policy     string
	Seed       int64
	Counting   bool
	Rounds     int
	Wins       int
	Draws      int
	Losses     int
	MeanReward float64
	StdError   float64
	TablePath  string
}

// NewEvaluationRun fills the outcome fields from a tally.
func NewEvaluationRun(policy string, seed int64, counting bool, t *statistics.Tally) EvaluationRun {
	return EvaluationRun{
		Policy:     policy,
		Seed:       seed,
		Counting:   counting,
		Rounds:     t.Rounds,
		Wins:       t.Wins,
		Draws:      t.Draws,
		Losses:     t.Losses,
		MeanReward: t.Mean(),
		StdError:   t.StdError(),
	}
}

// RecordTraining inserts run and returns its id, generating one when empty.
func (db *DB) RecordTraining(ctx context.Context, run TrainingRun) (string, error) {
	if run.ID == "" {
		run.ID = runid.New()
	}
	_, err := db.Exec(ctx, `
		INSERT INTO training_runs(id, seed, episodes, counting, learning_rate, discount,
		                          table_size, wins, draws, losses, duration_ms, output_path)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, run.ID, run.Seed, run.Episodes, run.Counting, run.LearningRate, run.Discount,
		run.TableSize, run.Wins, run.Draws, run.Losses, run.Duration.Milliseconds(), run.OutputPath)
	return run.ID, err
}

// RecordEvaluation inserts run and returns its id, generating one when empty.
func (db *DB) RecordEvaluation(ctx context.Context, run EvaluationRun) (string, error) {
	if run.ID == "" {
		run.ID = runid.New()
	}
	_, err := db.Exec(ctx, `
		INSERT INTO evaluation_runs(id, policy, seed, counting, rounds, wins, draws, losses,
		                            mean_reward, std_error, table_path)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, run.ID, run.Policy, run.Seed, run.Counting, run.Rounds, run.Wins, run.Draws, run.Losses,
		run.MeanReward, run.StdError, run.TablePath)
	return run.ID, err
}

// TrainingRunByID loads one training run.
func (db *DB) TrainingRunByID(ctx context.Context, id string) (TrainingRun, error) {
	var run TrainingRun
	var durationMS int64
	err := db.QueryRow(ctx, `
		SELECT id, created_at, seed, episodes, counting, learning_rate, discount,
		       table_size, wins, draws, losses, duration_ms, output_path
		  FROM training_runs WHERE id = $1
	`, id).Scan(&run.ID, &run.CreatedAt, &run.Seed, &run.Episodes, &run.Counting, &run.LearningRate,
		&run.Discount, &run.TableSize, &run.Wins, &run.Draws, &run.Losses, &durationMS, &run.OutputPath)
	if errors.Is(err, pgx.ErrNoRows) {
		return TrainingRun{}, ErrNotFound
	}
	run.Duration = time.Duration(durationMS) * time.Millisecond
	return run, err
}

// RecentEvaluations returns up to limit evaluation runs, newest first.
func (db *DB) RecentEvaluations(ctx context.Context, limit int) ([]EvaluationRun, error) {
	rows, err := db.Query(ctx, `
		SELECT id, created_at, policy, seed, counting, rounds, wins, draws, losses,
		       mean_reward, std_error, table_path
		  FROM evaluation_runs
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EvaluationRun
	for rows.Next() {
		var r EvaluationRun
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Policy, &r.Seed, &r.Counting, &r.Rounds,
			&r.Wins, &r.Draws, &r.Losses, &r.MeanReward, &r.StdError, &r.TablePath); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
