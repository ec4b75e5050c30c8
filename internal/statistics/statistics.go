package statistics

import (
	"fmt"
	"math"

	"github.com/lox/blackjackforbots/internal/game"
)

// RoundResult is the outcome of a single finished round.
type RoundResult struct {
	Reward      game.Reward
	DealerUp    int  // dealer up-card value, 2..11
	PlayerTotal int  // final player total
	DealerTotal int  // final dealer total, 0 when the dealer never played
	Hits        int  // player hits taken this round
	Blackjack   bool // player was dealt a natural
}

// UpCardStats aggregates rounds by the dealer's up-card.
type UpCardStats struct {
	Rounds    int
	SumReward float64
}

// Tally accumulates round outcomes for a policy.
type Tally struct {
	Rounds     int
	Wins       int
	Draws      int
	Losses     int
	SumReward  float64
	SumReward2 float64 // sum of squares for variance

	PlayerBusts int
	DealerBusts int
	Blackjacks  int
	Hits        int

	// Index 0 and 1 unused, 2..11 for up-card values.
	UpCards [12]UpCardStats
}

// Add incorporates one round.
func (t *Tally) Add(r RoundResult) {
	reward := float64(r.Reward)
	t.Rounds++
	t.SumReward += reward
	t.SumReward2 += reward * reward
	t.Hits += r.Hits

	switch r.Reward {
	case game.Win:
		t.Wins++
	case game.Draw:
		t.Draws++
	case game.Lose:
		t.Losses++
	}

	if r.PlayerTotal > 21 {
		t.PlayerBusts++
	}
	if r.DealerTotal > 21 {
		t.DealerBusts++
	}
	if r.Blackjack {
		t.Blackjacks++
	}
	if r.DealerUp >= 2 && r.DealerUp <= 11 {
		t.UpCards[r.DealerUp].Rounds++
		t.UpCards[r.DealerUp].SumReward += reward
	}
}

// Merge folds another tally into t.
func (t *Tally) Merge(o Tally) {
	t.Rounds += o.Rounds
	t.Wins += o.Wins
	t.Draws += o.Draws
	t.Losses += o.Losses
	t.SumReward += o.SumReward
	t.SumReward2 += o.SumReward2
	t.PlayerBusts += o.PlayerBusts
	t.DealerBusts += o.DealerBusts
	t.Blackjacks += o.Blackjacks
	t.Hits += o.Hits
	for i := range t.UpCards {
		t.UpCards[i].Rounds += o.UpCards[i].Rounds
		t.UpCards[i].SumReward += o.UpCards[i].SumReward
	}
}

// Mean returns the average reward per round.
func (t *Tally) Mean() float64 {
	if t.Rounds == 0 {
		return 0
	}
	return t.SumReward / float64(t.Rounds)
}

// Variance returns the sample variance of the reward.
func (t *Tally) Variance() float64 {
	if t.Rounds < 2 {
		return 0
	}
	mean := t.Mean()
	v := (t.SumReward2 - float64(t.Rounds)*mean*mean) / float64(t.Rounds-1)
	return math.Max(v, 0)
}

// StdDev returns the sample standard deviation of the reward.
func (t *Tally) StdDev() float64 {
	return math.Sqrt(t.Variance())
}

// StdError returns the standard error of the mean.
func (t *Tally) StdError() float64 {
	if t.Rounds == 0 {
		return 0
	}
	return t.StdDev() / math.Sqrt(float64(t.Rounds))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean.
func (t *Tally) ConfidenceInterval95() (float64, float64) {
	mean := t.Mean()
	margin := 1.96 * t.StdError()
	return mean - margin, mean + margin
}

// WinRate returns wins as a fraction of rounds.
func (t *Tally) WinRate() float64 { return t.rate(t.Wins) }

// DrawRate returns draws as a fraction of rounds.
func (t *Tally) DrawRate() float64 { return t.rate(t.Draws) }

// LossRate returns losses as a fraction of rounds.
func (t *Tally) LossRate() float64 { return t.rate(t.Losses) }

func (t *Tally) rate(n int) float64 {
	if t.Rounds == 0 {
		return 0
	}
	return float64(n) / float64(t.Rounds)
}

// UpCardMean returns the mean reward against a dealer up-card value.
func (t *Tally) UpCardMean(up int) float64 {
	if up < 2 || up > 11 {
		return 0
	}
	s := t.UpCards[up]
	if s.Rounds == 0 {
		return 0
	}
	return s.SumReward / float64(s.Rounds)
}

// Validate checks that the counters are consistent with each other.
func (t *Tally) Validate() error {
	if t.Rounds <= 0 {
		return fmt.Errorf("invalid round count: %d", t.Rounds)
	}
	if t.Wins+t.Draws+t.Losses != t.Rounds {
		return fmt.Errorf("outcomes (%d+%d+%d) do not match rounds (%d)", t.Wins, t.Draws, t.Losses, t.Rounds)
	}
	if want := float64(t.Wins - t.Losses); math.Abs(t.SumReward-want) > 1e-9 {
		return fmt.Errorf("reward sum %.3f does not match wins minus losses %.0f", t.SumReward, want)
	}
	up := 0
	for i := 2; i < len(t.UpCards); i++ {
		up += t.UpCards[i].Rounds
	}
	if up != t.Rounds {
		return fmt.Errorf("up-card rounds (%d) do not match rounds (%d)", up, t.Rounds)
	}
	return nil
}

// Summary renders the tally in the form printed by the CLI.
func (t *Tally) Summary() string {
	lo, hi := t.ConfidenceInterval95()
	return fmt.Sprintf("rounds=%d W/D/L=%d/%d/%d win=%.2f%% mean=%.4f ±%.4f (95%% CI [%.4f, %.4f])",
		t.Rounds, t.Wins, t.Draws, t.Losses, 100*t.WinRate(), t.Mean(), 1.96*t.StdError(), lo, hi)
}
