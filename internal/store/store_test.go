package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjackforbots/internal/game"
	"github.com/lox/blackjackforbots/internal/runid"
	"github.com/lox/blackjackforbots/internal/statistics"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("BLACKJACK_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("BLACKJACK_TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Migrate(ctx, db), "migrations must be idempotent")
	return db
}

func TestRecordTrainingRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	run := TrainingRun{
		Seed:         7,
		Episodes:     1000,
		Counting:     true,
		LearningRate: 0.01,
		Discount:     0.95,
		TableSize:    540,
		Wins:         410,
		Draws:        80,
		Losses:       510,
		Duration:     1500 * time.Millisecond,
		OutputPath:   "qtable.json.gz",
	}
	id, err := db.RecordTraining(ctx, run)
	require.NoError(t, err)
	require.NoError(t, runid.Validate(id))

	got, err := db.TrainingRunByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, run.Episodes, got.Episodes)
	assert.Equal(t, run.Counting, got.Counting)
	assert.Equal(t, run.Duration, got.Duration)
	assert.Equal(t, run.OutputPath, got.OutputPath)

	_, err = db.TrainingRunByID(ctx, runid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordEvaluation(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	var tally statistics.Tally
	tally.Add(statistics.RoundResult{Reward: game.Win, DealerUp: 6})
	tally.Add(statistics.RoundResult{Reward: game.Lose, DealerUp: 10})

	id, err := db.RecordEvaluation(ctx, NewEvaluationRun("threshold", 3, false, &tally))
	require.NoError(t, err)

	runs, err := db.RecentEvaluations(ctx, 50)
	require.NoError(t, err)

	var found bool
	for _, r := range runs {
		if r.ID == id {
			found = true
			assert.Equal(t, "threshold", r.Policy)
			assert.Equal(t, 2, r.Rounds)
			assert.Equal(t, 1, r.Wins)
			assert.Equal(t, 1, r.Losses)
		}
	}
	assert.True(t, found, "recorded evaluation should be listed")
}

func TestNewEvaluationRun(t *testing.T) {
	var tally statistics.Tally
	for range 3 {
		tally.Add(statistics.RoundResult{Reward: game.Draw, DealerUp: 9})
	}
	run := NewEvaluationRun("random", 11, true, &tally)
	assert.Equal(t, 3, run.Rounds)
	assert.Equal(t, 3, run.Draws)
	assert.Zero(t, run.MeanReward)
	assert.True(t, run.Counting)
}
