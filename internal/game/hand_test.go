package game

import (
	"testing"

	"github.com/lox/blackjackforbots/internal/deck"
)

func cards(s string) []deck.Card {
	return deck.MustParseCards(s)
}

func TestHandValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cards     string
		value     int
		soft      bool
		blackjack bool
		bust      bool
	}{
		{name: "empty", cards: "", value: 0},
		{name: "natural", cards: "As Th", value: 21, soft: true, blackjack: true},
		{name: "soft 18", cards: "As 7h", value: 18, soft: true},
		{name: "ace downgraded", cards: "As Th 5d", value: 16},
		{name: "two aces", cards: "As Ah", value: 12, soft: true},
		{name: "four aces", cards: "As Ah Ad Ac", value: 14, soft: true},
		{name: "three card 21", cards: "7s 7h 7d", value: 21},
		{name: "soft three card 21", cards: "As 5h 5d", value: 21, soft: true},
		{name: "bust", cards: "Ts Th 5d", value: 25, bust: true},
		{name: "bust with low aces", cards: "As Ah Ts Kh", value: 22, bust: true},
		{name: "hard 20", cards: "Ks Qh", value: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHand(cards(tt.cards)...)
			if h.Value() != tt.value {
				t.Errorf("value = %d, want %d", h.Value(), tt.value)
			}
			if h.IsSoft() != tt.soft {
				t.Errorf("soft = %t, want %t", h.IsSoft(), tt.soft)
			}
			if h.IsBlackjack() != tt.blackjack {
				t.Errorf("blackjack = %t, want %t", h.IsBlackjack(), tt.blackjack)
			}
			if h.IsBust() != tt.bust {
				t.Errorf("bust = %t, want %t", h.IsBust(), tt.bust)
			}
		})
	}
}

func TestHandSoftFlipsOnDowngrade(t *testing.T) {
	t.Parallel()

	h := NewHand(cards("As Th")...)
	if !h.IsSoft() || h.Value() != 21 || !h.IsBlackjack() {
		t.Fatalf("expected soft natural 21, got %s", h)
	}

	h.Add(cards("5d")...)
	if h.IsSoft() {
		t.Fatalf("adding 5 must downgrade the ace, got %s", h)
	}
	if h.Value() != 16 {
		t.Fatalf("value = %d, want 16", h.Value())
	}
	if h.IsBlackjack() {
		t.Fatal("three cards are never a blackjack")
	}
}

// bestTotal enumerates every ace assignment and returns the largest total
// not above 21, or the minimum total when all of them bust.
func bestTotal(hand []deck.Card) (int, bool) {
	base := 0
	aces := 0
	for _, c := range hand {
		if c.IsAce() {
			aces++
			base++
		} else {
			base += c.BlackjackValue(false)
		}
	}
	best := -1
	bestSoft := false
	for high := 0; high <= aces; high++ {
		total := base + 10*high
		if total <= 21 && total > best {
			best = total
			bestSoft = high > 0
		}
	}
	if best < 0 {
		return base, false
	}
	return best, bestSoft
}

func TestHandValueMatchesExhaustiveEnumeration(t *testing.T) {
	t.Parallel()

	ranks := []deck.Rank{deck.Two, deck.Five, deck.Seven, deck.Nine, deck.Ten, deck.King, deck.Ace}
	var walk func(prefix []deck.Card, depth int)
	walk = func(prefix []deck.Card, depth int) {
		if len(prefix) > 0 {
			h := NewHand(prefix...)
			want, wantSoft := bestTotal(prefix)
			if h.Value() != want || h.IsSoft() != wantSoft {
				t.Fatalf("%s: got (%d, %t), want (%d, %t)", h, h.Value(), h.IsSoft(), want, wantSoft)
			}
			if h.IsBlackjack() != (len(prefix) == 2 && want == 21) {
				t.Fatalf("%s: blackjack flag wrong", h)
			}
		}
		if depth == 0 {
			return
		}
		for i, r := range ranks {
			next := append(append([]deck.Card(nil), prefix...), deck.NewCard(r, deck.Suit(i%4)))
			walk(next, depth-1)
		}
	}
	walk(nil, 5)
}

func TestHandCardsIsCopy(t *testing.T) {
	t.Parallel()

	h := NewHand(cards("2h 3h")...)
	cs := h.Cards()
	cs[0] = deck.NewCard(deck.Ace, deck.Spades)
	if h.Value() != 5 || h.Cards()[0].Rank != deck.Two {
		t.Fatal("mutating the returned slice must not change the hand")
	}
}

func TestHandString(t *testing.T) {
	t.Parallel()

	if got := NewHand(cards("As 7h")...).String(); got != "[A♠ 7♥] = 18 (soft)" {
		t.Errorf("got %q", got)
	}
	if got := NewHand(cards("Ks 7h")...).String(); got != "[K♠ 7♥] = 17" {
		t.Errorf("got %q", got)
	}
}
