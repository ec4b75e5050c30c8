package solver

import (
	"fmt"

	"github.com/lox/blackjackforbots/internal/randutil"
)

const checkpointFileVersion = 1

type checkpointSnapshot struct {
	Version  int                     `json:"version"`
	Episode  int                     `json:"episode"`
	Epsilon  float64                 `json:"epsilon"`
	Outcomes [3]int                  `json:"outcomes"`
	Training TrainingConfig          `json:"training"`
	Values   map[string]ActionValues `json:"values"`
}

// EnableCheckpoints configures the trainer to write a checkpoint every n
// episodes and once more when Run returns normally.
func (t *Trainer) EnableCheckpoints(path string, every int) {
	t.checkpointPath = path
	t.checkpointEvery = every
}

// SaveCheckpoint writes the table, progress counters and configuration to
// path atomically.
func (t *Trainer) SaveCheckpoint(path string) error {
	snap := checkpointSnapshot{
		Version:  checkpointFileVersion,
		Episode:  t.episode,
		Epsilon:  t.policy.Epsilon(),
		Outcomes: t.outcomes,
		Training: t.cfg,
		Values:   encodeValues(t.policy.Table()),
	}
	if err := saveJSON(path, snap); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	t.logger.Debug().Str("path", path).Int("episode", t.episode).Msg("Checkpoint written")
	return nil
}

// LoadTrainerFromCheckpoint restores a trainer saved by SaveCheckpoint. The
// shoe is not part of the snapshot: the resumed trainer deals from a fresh
// shoe on a stream derived from the original seed and the episode number, so
// resuming twice from the same checkpoint is reproducible.
func LoadTrainerFromCheckpoint(path string, opts ...TrainerOption) (*Trainer, error) {
	var snap checkpointSnapshot
	if err := loadJSON(path, &snap); err != nil {
		return nil, err
	}
	if snap.Version != checkpointFileVersion {
		return nil, fmt.Errorf("%w: checkpoint version %d", ErrUnsupportedVersion, snap.Version)
	}
	if err := snap.Training.Validate(); err != nil {
		return nil, fmt.Errorf("checkpoint training invalid: %w", err)
	}
	table, err := decodeValues(snap.Values)
	if err != nil {
		return nil, fmt.Errorf("checkpoint table invalid: %w", err)
	}

	rng := randutil.New(randutil.Derive(snap.Training.Seed, uint64(snap.Episode)))
	opts = append([]TrainerOption{WithTable(table)}, opts...)
	t, err := newTrainer(snap.Training, rng, snap.Episode, opts...)
	if err != nil {
		return nil, err
	}
	t.outcomes = snap.Outcomes
	if snap.Episode == 0 {
		t.policy.SetEpsilon(snap.Epsilon)
	}
	return t, nil
}
