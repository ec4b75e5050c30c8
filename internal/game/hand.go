package game

import (
	"fmt"
	"strings"

	"github.com/lox/blackjackforbots/internal/deck"
)

// Hand is the ordered set of cards held by one participant for a round.
// Value and softness are recomputed from scratch whenever cards are added.
type Hand struct {
	cards []deck.Card
	value int
	soft  bool
}

// NewHand returns a hand holding the given cards.
func NewHand(cards ...deck.Card) *Hand {
	h := &Hand{}
	h.Add(cards...)
	return h
}

// Add appends cards and refreshes the cached value.
func (h *Hand) Add(cards ...deck.Card) {
	h.cards = append(h.cards, cards...)
	h.recompute()
}

// recompute counts every Ace as 11, then downgrades one Ace at a time while
// the total is over 21. This yields the best total not above 21 when one
// exists, and the minimum total otherwise.
func (h *Hand) recompute() {
	highAces := 0
	value := 0
	for _, c := range h.cards {
		if c.IsAce() {
			highAces++
		}
		value += c.BlackjackValue(true)
	}
	for value > 21 && highAces > 0 {
		value -= 10
		highAces--
	}
	h.value = value
	h.soft = highAces > 0
}

// Value returns the best total of the hand.
func (h *Hand) Value() int { return h.value }

// IsSoft reports whether an Ace is still counted as 11 in Value.
func (h *Hand) IsSoft() bool { return h.soft }

// Len returns the number of cards held.
func (h *Hand) Len() int { return len(h.cards) }

// Cards returns a copy of the cards in deal order.
func (h *Hand) Cards() []deck.Card {
	return append([]deck.Card(nil), h.cards...)
}

// Is21 reports whether the hand totals exactly 21.
func (h *Hand) Is21() bool { return h.value == 21 }

// IsBlackjack reports a natural: exactly two cards totalling 21.
func (h *Hand) IsBlackjack() bool { return len(h.cards) == 2 && h.value == 21 }

// IsBust reports whether the hand is over 21.
func (h *Hand) IsBust() bool { return h.value > 21 }

func (h *Hand) clone() *Hand {
	return &Hand{cards: h.Cards(), value: h.value, soft: h.soft}
}

// String renders the hand like "[A♠ 7♥] = 18 (soft)".
func (h *Hand) String() string {
	parts := make([]string, len(h.cards))
	for i, c := range h.cards {
		parts[i] = c.String()
	}
	s := fmt.Sprintf("[%s] = %d", strings.Join(parts, " "), h.value)
	if h.soft {
		s += " (soft)"
	}
	return s
}
