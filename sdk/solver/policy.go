package solver

import (
	"errors"
	rand "math/rand/v2"

	"github.com/lox/blackjackforbots/internal/game"
)

// TDHistory is the number of recent temporal differences a QPolicy keeps.
const TDHistory = 10000

// QPolicy is an epsilon-greedy tabular Q-learning player.
type QPolicy struct {
	table    *QTable
	params   Params
	epsilon  float64
	episodes int
	rng      *rand.Rand
	tdErrors []float64
	updates  int
}

// NewQPolicy wraps table with the given parameters. rng drives exploration
// and may be nil only when the policy will be used greedily (epsilon 0); such
// a policy keeps epsilon at 0 whatever the schedule says.
func NewQPolicy(table *QTable, params Params, rng *rand.Rand) (*QPolicy, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if table == nil {
		table = NewQTable()
	}
	if rng == nil && params.InitialEpsilon > 0 {
		return nil, errors.New("exploration requires a random source")
	}
	return &QPolicy{
		table:   table,
		params:  params,
		epsilon: params.InitialEpsilon,
		rng:     rng,
	}, nil
}

// Decide explores with probability epsilon and otherwise picks the action
// with the larger stored value, preferring Hit on ties.
func (p *QPolicy) Decide(s game.State) game.Action {
	if p.epsilon > 0 && p.rng.Float64() < p.epsilon {
		return game.Action(p.rng.IntN(game.NumActions))
	}
	return p.table.Best(p.Key(s))
}

// Key reduces s with the policy's key scheme.
func (p *QPolicy) Key(s game.State) game.StateKey {
	return s.Key(p.params.Counting)
}

// Update applies one off-policy Q-learning step for the transition
// (s, a, r, next) and returns the temporal difference.
func (p *QPolicy) Update(s game.State, a game.Action, reward float64, done bool, next game.State) float64 {
	key := p.Key(s)
	target := reward
	if !done {
		target += p.params.Discount * p.table.Max(p.Key(next))
	}

	values := p.table.Values(key)
	td := target - values[a]
	values[a] += p.params.LearningRate * td
	p.table.Set(key, values)

	p.tdErrors = append(p.tdErrors, td)
	if len(p.tdErrors) >= 2*TDHistory {
		p.tdErrors = append(p.tdErrors[:0], p.tdErrors[len(p.tdErrors)-TDHistory:]...)
	}
	p.updates++
	return td
}

// EndEpisode advances the exploration schedule by one completed episode.
func (p *QPolicy) EndEpisode() {
	p.episodes++
	p.SetEpsilon(EpsilonAt(p.episodes))
}

// Greedy returns a policy that always exploits the current table.
func (p *QPolicy) Greedy() game.Policy {
	return game.PolicyFunc(func(s game.State) game.Action {
		return p.table.Best(p.Key(s))
	})
}

// Epsilon returns the current exploration rate.
func (p *QPolicy) Epsilon() float64 { return p.epsilon }

// SetEpsilon overrides the exploration rate until the next EndEpisode. It is
// a no-op without a random source.
func (p *QPolicy) SetEpsilon(eps float64) {
	if p.rng == nil {
		return
	}
	p.epsilon = eps
}

// Episodes returns the number of completed episodes.
func (p *QPolicy) Episodes() int { return p.episodes }

// SetEpisodes sets the completed episode count and the matching epsilon, used
// when resuming from a checkpoint.
func (p *QPolicy) SetEpisodes(n int) {
	p.episodes = n
	if n > 0 {
		p.SetEpsilon(EpsilonAt(n))
	}
}

// Table returns the underlying table.
func (p *QPolicy) Table() *QTable { return p.table }

// Params returns the learning parameters.
func (p *QPolicy) Params() Params { return p.params }

// TrainingErrors returns the last TDHistory temporal differences recorded by
// Update, oldest first.
func (p *QPolicy) TrainingErrors() []float64 {
	start := max(len(p.tdErrors)-TDHistory, 0)
	return append([]float64(nil), p.tdErrors[start:]...)
}

// Updates returns the total number of Update calls.
func (p *QPolicy) Updates() int { return p.updates }

// LastTDError returns the most recent temporal difference, or 0.
func (p *QPolicy) LastTDError() float64 {
	if len(p.tdErrors) == 0 {
		return 0
	}
	return p.tdErrors[len(p.tdErrors)-1]
}
