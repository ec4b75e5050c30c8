package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	rand "math/rand/v2"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lox/blackjackforbots/internal/game"
	"github.com/lox/blackjackforbots/internal/randutil"
	"github.com/lox/blackjackforbots/internal/statistics"
)

// PolicyFactory builds the policy a worker plays with. rng is the worker's
// own stream, shared with its environment.
type PolicyFactory func(worker int, rng *rand.Rand) (game.Policy, error)

// Config holds configuration for running simulations
type Config struct {
	Rounds  int
	Workers int
	Seed    int64
	Env     game.Config
	Logger  zerolog.Logger
}

// Simulator plays many independent rounds with a policy and tallies results.
type Simulator struct {
	config  Config
	factory PolicyFactory
}

// New creates a new simulator with the given configuration
func New(config Config, factory PolicyFactory) *Simulator {
	return &Simulator{config: config, factory: factory}
}

// Run splits the rounds across workers, each with its own Env and random
// stream derived from the seed. Results are deterministic for a given seed
// and worker count.
func (s *Simulator) Run(ctx context.Context) (*statistics.Tally, error) {
	if s.config.Rounds <= 0 {
		return nil, errors.New("rounds must be > 0")
	}
	if s.factory == nil {
		return nil, errors.New("policy factory is required")
	}
	if err := s.config.Env.Validate(); err != nil {
		return nil, err
	}

	workers := s.config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, s.config.Rounds)
	perWorker := s.config.Rounds / workers
	remainder := s.config.Rounds % workers

	s.config.Logger.Debug().
		Int("rounds", s.config.Rounds).
		Int("workers", workers).
		Int64("seed", s.config.Seed).
		Msg("Simulation started")

	tallies := make([]statistics.Tally, workers)
	g, ctx := errgroup.WithContext(ctx)
	for w := range workers {
		rounds := perWorker
		if w < remainder {
			rounds++
		}
		g.Go(func() error {
			return s.runWorker(ctx, w, rounds, &tallies[w])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := &statistics.Tally{}
	for _, t := range tallies {
		total.Merge(t)
	}
	if err := total.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}
	return total, nil
}

func (s *Simulator) runWorker(ctx context.Context, worker, rounds int, tally *statistics.Tally) error {
	rng := randutil.New(randutil.Derive(s.config.Seed, uint64(worker)))
	env, err := game.NewEnv(rng, game.WithConfig(s.config.Env))
	if err != nil {
		return err
	}
	policy, err := s.factory(worker, rng)
	if err != nil {
		return fmt.Errorf("worker %d policy: %w", worker, err)
	}

	for i := range rounds {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		result, err := PlayRound(env, policy)
		if err != nil {
			return fmt.Errorf("worker %d round %d: %w", worker, i+1, err)
		}
		tally.Add(result)
	}
	return nil
}

// PlayRound plays one round on env and describes its outcome.
func PlayRound(env *game.Env, policy game.Policy) (statistics.RoundResult, error) {
	state, err := env.Reset()
	if err != nil {
		return statistics.RoundResult{}, err
	}
	result := statistics.RoundResult{
		DealerUp:  state.DealerUp,
		Blackjack: env.PlayerHand().IsBlackjack(),
	}

	for {
		action := policy.Decide(state)
		res, err := env.Step(action)
		if err != nil {
			return statistics.RoundResult{}, err
		}
		if action == game.Hit {
			result.Hits++
		}
		if res.Done {
			result.Reward = res.Reward
			result.PlayerTotal = res.State.PlayerTotal
			if res.State.DealerKnown {
				result.DealerTotal = res.State.DealerTotal
			}
			return result, nil
		}
		state = res.State
	}
}

// PrintSummary writes a human-readable report of a simulation.
func PrintSummary(w io.Writer, tally *statistics.Tally, label string) {
	low, high := tally.ConfidenceInterval95()

	fmt.Fprintf(w, "\n=== RESULTS: %s ===\n", label)
	fmt.Fprintf(w, "Rounds played: %d\n", tally.Rounds)
	fmt.Fprintf(w, "Wins: %d  Draws: %d  Losses: %d\n", tally.Wins, tally.Draws, tally.Losses)
	fmt.Fprintf(w, "Win rate: %.2f%%  Draw rate: %.2f%%  Loss rate: %.2f%%\n",
		100*tally.WinRate(), 100*tally.DrawRate(), 100*tally.LossRate())

	fmt.Fprintf(w, "\n=== STATISTICAL RESULTS ===\n")
	fmt.Fprintf(w, "Mean reward: %.4f per round\n", tally.Mean())
	fmt.Fprintf(w, "Std Dev: %.4f\n", tally.StdDev())
	fmt.Fprintf(w, "Std Error: %.4f\n", tally.StdError())
	fmt.Fprintf(w, "95%% CI: [%.4f, %.4f]\n", low, high)

	fmt.Fprintf(w, "\n=== ROUND DETAIL ===\n")
	fmt.Fprintf(w, "Player busts: %d  Dealer busts: %d  Naturals: %d\n",
		tally.PlayerBusts, tally.DealerBusts, tally.Blackjacks)
	fmt.Fprintf(w, "Hits per round: %.2f\n", float64(tally.Hits)/float64(max(tally.Rounds, 1)))

	fmt.Fprintf(w, "\n=== DEALER UP-CARD ===\n")
	for up := 2; up <= 11; up++ {
		uc := tally.UpCards[up]
		if uc.Rounds > 0 {
			fmt.Fprintf(w, "Up %2d: %d rounds, %.3f per round\n", up, uc.Rounds, tally.UpCardMean(up))
		}
	}
}
