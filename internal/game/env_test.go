package game

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjackforbots/internal/deck"
	"github.com/lox/blackjackforbots/internal/randutil"
)

// filler pads stacked shoes above the reshuffle threshold.
const filler = "9c 9d 9s 8c 8d 8s"

func stackedEnv(t *testing.T, order string, opts ...Option) *Env {
	t.Helper()
	shoe := cards(order + " " + filler)
	opts = append([]Option{WithShoeFactory(func() Shoe {
		return deck.NewStackedShoe(shoe...)
	})}, opts...)
	env, err := NewEnv(nil, opts...)
	require.NoError(t, err)
	return env
}

func TestResetDealsPlayerAndUpCard(t *testing.T) {
	t.Parallel()

	env := stackedEnv(t, "2h 3h 5h 6h 7h")
	state, err := env.Reset()
	require.NoError(t, err)

	assert.Equal(t, 5, state.PlayerTotal)
	assert.Equal(t, 5, state.DealerUp)
	assert.False(t, state.PlayerSoft)
	assert.False(t, state.DealerKnown, "hole card must stay hidden")
	assert.Equal(t, CountUnknown, state.Count)
	assert.Equal(t, PhaseAwaitingAction, env.Phase())
	assert.Equal(t, 1, env.DealerHand().Len())
}

func TestStandRunsDealerAndResolves(t *testing.T) {
	t.Parallel()

	env := stackedEnv(t, "2h 3h 5h 6h 7h")
	_, err := env.Reset()
	require.NoError(t, err)

	res, err := env.Step(Stand)
	require.NoError(t, err)

	// Dealer: 5 + 6 = 11, draws 7 for 18 and stands. Player 5 loses.
	assert.True(t, res.Done)
	assert.Equal(t, Lose, res.Reward)
	assert.True(t, res.State.DealerKnown)
	assert.Equal(t, 18, res.State.DealerTotal)
	assert.Equal(t, 3, env.DealerHand().Len())
	assert.NotNil(t, res.Info)
	assert.Empty(t, res.Info)
	assert.Equal(t, PhaseRoundOver, env.Phase())

	// Identical shoe, identical outcome.
	again := stackedEnv(t, "2h 3h 5h 6h 7h")
	_, err = again.Reset()
	require.NoError(t, err)
	res2, err := again.Step(Stand)
	require.NoError(t, err)
	assert.Equal(t, res, res2)
}

func TestHitIntoBustLoses(t *testing.T) {
	t.Parallel()

	env := stackedEnv(t, "Kh Qh 5h 6h Ks")
	state, err := env.Reset()
	require.NoError(t, err)
	require.Equal(t, 20, state.PlayerTotal)

	res, err := env.Step(Hit)
	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.Equal(t, Lose, res.Reward)
	assert.Equal(t, 30, res.State.PlayerTotal)
	assert.False(t, env.HoleRevealed(), "a player bust ends the round before the dealer turn")
}

func TestHitInto21ContinuesPlay(t *testing.T) {
	t.Parallel()

	env := stackedEnv(t, "4h 6h 9h 8h As Td")
	state, err := env.Reset()
	require.NoError(t, err)
	require.Equal(t, 10, state.PlayerTotal)

	res, err := env.Step(Hit)
	require.NoError(t, err)
	assert.Equal(t, 21, res.State.PlayerTotal)
	assert.False(t, res.Done, "21 reached by hitting is not a natural")
	assert.Equal(t, Draw, res.Reward)
	assert.False(t, env.PlayerHand().IsBlackjack())
	assert.Equal(t, PhaseAwaitingAction, env.Phase())

	// Dealer 9 + 8 = 17 stands, player 21 wins on comparison.
	res, err = env.Step(Stand)
	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.Equal(t, Win, res.Reward)
	assert.Equal(t, 17, res.State.DealerTotal)
}

func TestStepErrors(t *testing.T) {
	t.Parallel()

	env, err := NewEnv(randutil.New(1))
	require.NoError(t, err)

	_, err = env.Step(Hit)
	assert.ErrorIs(t, err, ErrNotStarted)

	_, err = env.Reset()
	require.NoError(t, err)

	_, err = env.Step(Action(7))
	assert.ErrorIs(t, err, ErrInvalidAction)
	assert.Equal(t, PhaseAwaitingAction, env.Phase(), "an invalid action must not change the round")

	res, err := env.Step(Stand)
	require.NoError(t, err)
	require.True(t, res.Done)

	_, err = env.Step(Hit)
	assert.ErrorIs(t, err, ErrAlreadyDone)
	_, err = env.Step(Stand)
	assert.ErrorIs(t, err, ErrAlreadyDone)
}

func TestMissingHoleCardIsReported(t *testing.T) {
	t.Parallel()

	env := stackedEnv(t, "2h 3h 5h 6h 7h")
	_, err := env.Reset()
	require.NoError(t, err)
	env.holeDealt = false

	_, err = env.Step(Stand)
	assert.ErrorIs(t, err, ErrMissingHoleCard)
}

func TestResetInvariantsAcrossSeeds(t *testing.T) {
	t.Parallel()

	for seed := int64(0); seed < 50; seed++ {
		env, err := NewEnv(randutil.New(seed))
		require.NoError(t, err)
		for round := 0; round < 40; round++ {
			state, err := env.Reset()
			require.NoError(t, err)
			require.GreaterOrEqual(t, state.PlayerTotal, 4)
			require.LessOrEqual(t, state.PlayerTotal, 21)
			require.GreaterOrEqual(t, state.DealerUp, 2)
			require.LessOrEqual(t, state.DealerUp, 11)

			res, err := env.Step(Stand)
			require.NoError(t, err)
			require.True(t, res.Done)
			require.Contains(t, []Reward{Lose, Draw, Win}, res.Reward)
		}
	}
}

func TestAlwaysHitAlwaysEndsInBust(t *testing.T) {
	t.Parallel()

	env, err := NewEnv(randutil.New(9))
	require.NoError(t, err)
	hitter := PolicyFunc(func(State) Action { return Hit })

	for round := 0; round < 200; round++ {
		res, err := RunEpisode(env, hitter)
		require.NoError(t, err)
		require.Equal(t, Lose, res.Reward)
		require.Greater(t, res.State.PlayerTotal, 21)
	}
}

func TestRunningCountTracksVisibleCards(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Counting = true
	env := stackedEnv(t, "2h 3h 5h Th 4h 7h", WithConfig(cfg))

	state, err := env.Reset()
	require.NoError(t, err)
	// 2, 3, 5 are visible; the hole ten is not.
	assert.Equal(t, 3, env.RunningCount())
	assert.Equal(t, CountNeutral, state.Count)

	_, err = env.Step(Hit) // 4h
	require.NoError(t, err)
	assert.Equal(t, 4, env.RunningCount())

	_, err = env.Step(Stand) // hole Th, dealer 15 draws 7h
	require.NoError(t, err)
	assert.Equal(t, 3, env.RunningCount())
}

func TestCountBinThresholds(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Counting = true
	env, err := NewEnv(randutil.New(1), WithConfig(cfg))
	require.NoError(t, err)

	cases := map[int]CountBin{-9: CountLow, -6: CountLow, -5: CountNeutral, 0: CountNeutral, 5: CountNeutral, 6: CountHigh, 12: CountHigh}
	for count, want := range cases {
		env.runningCount = count
		assert.Equal(t, want, env.CountBin(), "count %d", count)
	}

	plain, err := NewEnv(randutil.New(1))
	require.NoError(t, err)
	plain.runningCount = 12
	assert.Equal(t, CountUnknown, plain.CountBin())
}

func TestResetReshufflesLowShoe(t *testing.T) {
	t.Parallel()

	built := 0
	env, err := NewEnv(nil, WithShoeFactory(func() Shoe {
		built++
		return deck.NewStackedShoe(cards("2h 2d 2c 2s 3h 3d 3c 3s 4h 4d 4c 4s")...)
	}))
	require.NoError(t, err)
	require.Equal(t, 1, built)

	_, err = env.Reset()
	require.NoError(t, err)
	assert.Equal(t, 8, env.CardsRemaining())
	assert.Equal(t, 3, env.RunningCount())

	_, err = env.Reset()
	require.NoError(t, err)
	assert.Equal(t, 2, built, "fewer than 10 cards left must trigger a fresh shoe")
	assert.Equal(t, 1, env.Shuffles())
	assert.Equal(t, 8, env.CardsRemaining())
	assert.Equal(t, 3, env.RunningCount(), "count restarts with the new shoe")
}

func TestMidRoundShortageRebuildsShoe(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.ReshuffleBelow = 4
	shoes := [][]deck.Card{
		cards("2h 3h 5h 6h"),
		cards("4c Kd 9s 9d 9h 9c 8s 8d 8h 8c"),
	}
	built := 0
	env, err := NewEnv(nil, WithConfig(cfg), WithShoeFactory(func() Shoe {
		s := shoes[built%len(shoes)]
		built++
		return deck.NewStackedShoe(s...)
	}))
	require.NoError(t, err)

	_, err = env.Reset()
	require.NoError(t, err)
	require.Equal(t, 0, env.CardsRemaining())

	res, err := env.Step(Hit)
	require.NoError(t, err)
	assert.Equal(t, 9, res.State.PlayerTotal)
	assert.Equal(t, 2, built)
	assert.Equal(t, 1, env.RunningCount(), "only the card drawn from the new shoe is counted")
}

func TestDealerStopsOn21(t *testing.T) {
	t.Parallel()

	greedy := PolicyFunc(func(State) Action { return Hit })
	env := stackedEnv(t, "Th 8h Ah Kh", WithDealerPolicy(greedy))
	_, err := env.Reset()
	require.NoError(t, err)
	before := env.CardsRemaining()

	res, err := env.Step(Stand)
	require.NoError(t, err)
	assert.Equal(t, 21, res.State.DealerTotal)
	assert.Equal(t, before, env.CardsRemaining(), "dealer must not draw past 21")
	assert.Equal(t, Lose, res.Reward)
}

func TestDealerStandThresholdIsConfigurable(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.DealerStandOn = 12
	env := stackedEnv(t, "Th 9h 5h 7h 2h", WithConfig(cfg))
	_, err := env.Reset()
	require.NoError(t, err)

	res, err := env.Step(Stand)
	require.NoError(t, err)
	assert.Equal(t, 12, res.State.DealerTotal)
	assert.Equal(t, Win, res.Reward)
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		player string
		dealer string
		want   Reward
	}{
		{"player bust loses", "Th 9h 5d", "Th 6h 9d", Lose},
		{"dealer bust", "Th 2h", "Th 6h 9d", Win},
		{"higher wins", "Th 9h", "Th 8h", Win},
		{"lower loses", "Th 7h", "Th 8h", Lose},
		{"push", "Th 8h", "9s 9h", Draw},
		{"double natural pushes on total", "As Kh", "Ad Qh", Draw},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolve(NewHand(cards(tt.player)...), NewHand(cards(tt.dealer)...))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewEnvRejectsBadConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.ReshuffleBelow = 2
	_, err := NewEnv(randutil.New(1), WithConfig(cfg))
	assert.Error(t, err)

	_, err = NewEnv(nil)
	assert.Error(t, err)
}

func TestSameSeedSameRounds(t *testing.T) {
	t.Parallel()

	play := func() []Reward {
		env, err := NewEnv(randutil.New(77))
		require.NoError(t, err)
		var out []Reward
		threshold := PolicyFunc(func(s State) Action {
			if s.PlayerTotal < 15 {
				return Hit
			}
			return Stand
		})
		for i := 0; i < 100; i++ {
			res, err := RunEpisode(env, threshold)
			require.NoError(t, err)
			out = append(out, res.Reward)
		}
		return out
	}
	assert.Equal(t, play(), play())
}

func TestRunEpisodePropagatesInvalidAction(t *testing.T) {
	t.Parallel()

	env, err := NewEnv(randutil.New(3))
	require.NoError(t, err)
	_, err = RunEpisode(env, PolicyFunc(func(State) Action { return Action(-1) }))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidAction))
}
