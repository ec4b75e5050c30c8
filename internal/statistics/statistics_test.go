package statistics

import (
	"math"
	"testing"

	"github.com/lox/blackjackforbots/internal/game"
)

func TestTally_Empty(t *testing.T) {
	var tally Tally

	if tally.Mean() != 0 {
		t.Errorf("Expected mean of 0 for empty tally, got %f", tally.Mean())
	}
	if tally.Variance() != 0 {
		t.Errorf("Expected variance of 0 for empty tally, got %f", tally.Variance())
	}
	if tally.StdError() != 0 {
		t.Errorf("Expected stderr of 0 for empty tally, got %f", tally.StdError())
	}
	if tally.WinRate() != 0 {
		t.Errorf("Expected win rate of 0 for empty tally, got %f", tally.WinRate())
	}
	if err := tally.Validate(); err == nil {
		t.Error("Expected empty tally to fail validation")
	}
}

func TestTally_Outcomes(t *testing.T) {
	var tally Tally
	results := []RoundResult{
		{Reward: game.Win, DealerUp: 6, PlayerTotal: 18, DealerTotal: 23},
		{Reward: game.Lose, DealerUp: 10, PlayerTotal: 24, Hits: 2},
		{Reward: game.Draw, DealerUp: 10, PlayerTotal: 19, DealerTotal: 19},
		{Reward: game.Win, DealerUp: 11, PlayerTotal: 21, DealerTotal: 20, Blackjack: true},
		{Reward: game.Lose, DealerUp: 2, PlayerTotal: 17, DealerTotal: 18, Hits: 1},
	}
	for _, r := range results {
		tally.Add(r)
	}

	if tally.Rounds != 5 || tally.Wins != 2 || tally.Draws != 1 || tally.Losses != 2 {
		t.Fatalf("unexpected outcome counts: %+v", tally)
	}
	if tally.Mean() != 0 {
		t.Errorf("Expected mean of 0, got %f", tally.Mean())
	}
	// Rewards 1,-1,0,1,-1: sum of squares 4, variance 4/4 = 1.
	if math.Abs(tally.Variance()-1) > 1e-12 {
		t.Errorf("Expected variance of 1, got %f", tally.Variance())
	}
	if math.Abs(tally.StdError()-1/math.Sqrt(5)) > 1e-12 {
		t.Errorf("Unexpected stderr %f", tally.StdError())
	}
	if tally.PlayerBusts != 1 || tally.DealerBusts != 1 || tally.Blackjacks != 1 || tally.Hits != 3 {
		t.Errorf("unexpected detail counters: %+v", tally)
	}
	if got := tally.UpCardMean(10); got != -0.5 {
		t.Errorf("Expected up-card 10 mean of -0.5, got %f", got)
	}
	if got := tally.UpCardMean(3); got != 0 {
		t.Errorf("Expected unused up-card mean of 0, got %f", got)
	}
	if math.Abs(tally.WinRate()-0.4) > 1e-12 || math.Abs(tally.DrawRate()-0.2) > 1e-12 || math.Abs(tally.LossRate()-0.4) > 1e-12 {
		t.Errorf("unexpected rates %f %f %f", tally.WinRate(), tally.DrawRate(), tally.LossRate())
	}
	if err := tally.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestTally_ConfidenceInterval(t *testing.T) {
	var tally Tally
	for i := 0; i < 100; i++ {
		r := game.Lose
		if i%2 == 0 {
			r = game.Win
		}
		tally.Add(RoundResult{Reward: r, DealerUp: 10})
	}
	lo, hi := tally.ConfidenceInterval95()
	if lo >= 0 || hi <= 0 {
		t.Errorf("Expected interval to straddle 0, got [%f, %f]", lo, hi)
	}
	if math.Abs((hi-lo)/2-1.96*tally.StdError()) > 1e-12 {
		t.Errorf("Interval half width should be 1.96 stderr")
	}
}

func TestTally_Merge(t *testing.T) {
	var a, b, all Tally
	results := []RoundResult{
		{Reward: game.Win, DealerUp: 5, PlayerTotal: 20, DealerTotal: 25},
		{Reward: game.Lose, DealerUp: 9, PlayerTotal: 22, Hits: 1},
		{Reward: game.Draw, DealerUp: 7, PlayerTotal: 17, DealerTotal: 17},
		{Reward: game.Win, DealerUp: 4, PlayerTotal: 19, DealerTotal: 18},
	}
	for i, r := range results {
		all.Add(r)
		if i%2 == 0 {
			a.Add(r)
		} else {
			b.Add(r)
		}
	}

	a.Merge(b)
	if a != all {
		t.Errorf("merged tally differs:\n got %+v\nwant %+v", a, all)
	}
}

func TestTally_ValidateDetectsMismatch(t *testing.T) {
	tally := Tally{Rounds: 3, Wins: 1, Draws: 1, Losses: 0}
	if err := tally.Validate(); err == nil {
		t.Error("Expected outcome mismatch to fail validation")
	}
}
