package solver

import (
	"context"
	"fmt"
	rand "math/rand/v2"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/lox/blackjackforbots/internal/game"
	"github.com/lox/blackjackforbots/internal/randutil"
)

// Progress is reported periodically while a Trainer runs.
type Progress struct {
	Episode     int
	Epsilon     float64
	TableSize   int
	MeanTDError float64
	Wins        int
	Draws       int
	Losses      int
	Elapsed     time.Duration
}

// WinRate returns the share of finished episodes that were won.
func (p Progress) WinRate() float64 {
	total := p.Wins + p.Draws + p.Losses
	if total == 0 {
		return 0
	}
	return float64(p.Wins) / float64(total)
}

// Trainer runs Q-learning episodes against a game.Env.
type Trainer struct {
	cfg    TrainingConfig
	env    *game.Env
	policy *QPolicy
	rng    *rand.Rand
	clock  quartz.Clock
	logger zerolog.Logger

	episode    int
	outcomes   [3]int // losses, draws, wins
	tdSum      float64
	tdSamples  int
	lastReport int

	checkpointPath  string
	checkpointEvery int
}

// TrainerOption configures a Trainer.
type TrainerOption func(*Trainer)

// WithClock sets the clock used for elapsed-time reporting.
func WithClock(c quartz.Clock) TrainerOption {
	return func(t *Trainer) { t.clock = c }
}

// WithLogger attaches a logger for progress and checkpoint events.
func WithLogger(l zerolog.Logger) TrainerOption {
	return func(t *Trainer) { t.logger = l }
}

// WithTable starts training from an existing table instead of an empty one.
func WithTable(q *QTable) TrainerOption {
	return func(t *Trainer) { t.policy.table = q }
}

// WithEpisodes overrides the episode target, typically when resuming a
// checkpoint for a longer run.
func WithEpisodes(n int) TrainerOption {
	return func(t *Trainer) {
		if n > 0 {
			t.cfg.Episodes = n
		}
	}
}

// NewTrainer builds a trainer whose environment and exploration share one
// random stream seeded from cfg.Seed.
func NewTrainer(cfg TrainingConfig, opts ...TrainerOption) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Seed = randutil.Seed(cfg.Seed)
	return newTrainer(cfg, randutil.New(cfg.Seed), 0, opts...)
}

func newTrainer(cfg TrainingConfig, rng *rand.Rand, episode int, opts ...TrainerOption) (*Trainer, error) {
	env, err := game.NewEnv(rng, game.WithConfig(cfg.Env))
	if err != nil {
		return nil, err
	}
	policy, err := NewQPolicy(NewQTable(), cfg.Params, rng)
	if err != nil {
		return nil, err
	}

	t := &Trainer{
		cfg:        cfg,
		env:        env,
		policy:     policy,
		rng:        rng,
		clock:      quartz.NewReal(),
		logger:     zerolog.Nop(),
		episode:    episode,
		lastReport: episode,
	}
	for _, opt := range opts {
		opt(t)
	}
	policy.SetEpisodes(episode)
	return t, nil
}

// Run plays episodes until cfg.Episodes have completed or ctx is cancelled.
// progress, when non-nil, is called every ProgressEvery episodes (or every
// 1% of the run) and once more at the end.
func (t *Trainer) Run(ctx context.Context, progress func(Progress)) error {
	batch := t.cfg.ProgressEvery
	if batch <= 0 {
		batch = max(t.cfg.Episodes/100, 1)
	}

	start := t.clock.Now()
	t.logger.Info().
		Int("from_episode", t.episode).
		Int("episodes", t.cfg.Episodes).
		Bool("counting", t.cfg.Params.Counting).
		Msg("Training started")

	for t.episode < t.cfg.Episodes {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		reward, err := t.playEpisode()
		if err != nil {
			return fmt.Errorf("episode %d: %w", t.episode+1, err)
		}
		t.outcomes[reward+1]++
		t.episode++
		t.policy.EndEpisode()

		if t.checkpointPath != "" && t.checkpointEvery > 0 && t.episode%t.checkpointEvery == 0 {
			if err := t.SaveCheckpoint(t.checkpointPath); err != nil {
				return err
			}
		}

		if progress != nil && t.episode%batch == 0 {
			progress(t.progress(start))
		}
	}

	final := t.lastReport != t.episode
	p := t.progress(start)
	if progress != nil && final {
		progress(p)
	}
	t.logger.Info().
		Int("episodes", p.Episode).
		Int("table_size", p.TableSize).
		Float64("win_rate", p.WinRate()).
		Dur("elapsed", p.Elapsed).
		Msg("Training finished")

	if t.checkpointPath != "" && t.checkpointEvery > 0 {
		return t.SaveCheckpoint(t.checkpointPath)
	}
	return nil
}

func (t *Trainer) playEpisode() (game.Reward, error) {
	state, err := t.env.Reset()
	if err != nil {
		return 0, err
	}
	for {
		action := t.policy.Decide(state)
		res, err := t.env.Step(action)
		if err != nil {
			return 0, err
		}
		td := t.policy.Update(state, action, float64(res.Reward), res.Done, res.State)
		t.tdSum += td
		t.tdSamples++
		if res.Done {
			return res.Reward, nil
		}
		state = res.State
	}
}

// progress snapshots the counters and resets the TD window.
func (t *Trainer) progress(start time.Time) Progress {
	p := Progress{
		Episode:   t.episode,
		Epsilon:   t.policy.Epsilon(),
		TableSize: t.policy.Table().Len(),
		Losses:    t.outcomes[0],
		Draws:     t.outcomes[1],
		Wins:      t.outcomes[2],
		Elapsed:   t.clock.Since(start),
	}
	if t.tdSamples > 0 {
		p.MeanTDError = t.tdSum / float64(t.tdSamples)
	}
	t.tdSum, t.tdSamples = 0, 0
	t.lastReport = t.episode
	t.logger.Debug().
		Int("episode", p.Episode).
		Float64("epsilon", p.Epsilon).
		Int("table_size", p.TableSize).
		Float64("mean_td", p.MeanTDError).
		Msg("Training progress")
	return p
}

// Policy returns the learning policy.
func (t *Trainer) Policy() *QPolicy { return t.policy }

// Table returns the table being trained.
func (t *Trainer) Table() *QTable { return t.policy.Table() }

// Episodes returns the number of completed episodes.
func (t *Trainer) Episodes() int { return t.episode }

// Outcomes returns the win, draw and loss counts over all completed episodes.
func (t *Trainer) Outcomes() (wins, draws, losses int) {
	return t.outcomes[2], t.outcomes[1], t.outcomes[0]
}

// Config returns the training configuration.
func (t *Trainer) Config() TrainingConfig { return t.cfg }

// TableFile materialises the current table for persistence.
func (t *Trainer) TableFile() *TableFile {
	return NewTableFile(t.policy.Table(), t.episode, t.cfg.Params.Counting, t.clock.Now())
}
