package deck

import (
	"errors"
	"fmt"
	rand "math/rand/v2"
)

// Size is the number of distinct cards in a fresh shoe.
const Size = 52

// ErrInsufficientCards is returned when a draw asks for more cards than remain.
var ErrInsufficientCards = errors.New("deck: not enough cards left in the shoe")

// Shoe is an ordered, single-deck card source. Draws remove cards from the
// front; nothing is returned to the shoe until a fresh one is built.
// A Shoe is not safe for concurrent use.
type Shoe struct {
	cards []Card
	rng   *rand.Rand
}

// NewShoe creates a full 52-card shoe and shuffles it with rng.
func NewShoe(rng *rand.Rand) *Shoe {
	s := &Shoe{
		cards: make([]Card, 0, Size),
		rng:   rng,
	}
	for rank := Two; rank <= Ace; rank++ {
		for suit := Hearts; suit <= Spades; suit++ {
			s.cards = append(s.cards, NewCard(rank, suit))
		}
	}
	s.Shuffle()
	return s
}

// NewStackedShoe returns a shoe that deals exactly the given cards in order.
// It is never shuffled, which makes it useful for replays and tests.
func NewStackedShoe(cards ...Card) *Shoe {
	return &Shoe{cards: append([]Card(nil), cards...)}
}

// Shuffle reorders the remaining cards with Fisher-Yates. It is a no-op for
// stacked shoes.
func (s *Shoe) Shuffle() {
	if s.rng == nil {
		return
	}
	for i := len(s.cards) - 1; i > 0; i-- {
		j := s.rng.IntN(i + 1)
		s.cards[i], s.cards[j] = s.cards[j], s.cards[i]
	}
}

// Draw removes and returns the first n cards.
func (s *Shoe) Draw(n int) ([]Card, error) {
	if n < 0 {
		return nil, fmt.Errorf("deck: negative draw %d", n)
	}
	if n > len(s.cards) {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrInsufficientCards, n, len(s.cards))
	}
	drawn := make([]Card, n)
	copy(drawn, s.cards[:n])
	s.cards = s.cards[n:]
	return drawn, nil
}

// CardsRemaining returns the number of cards left in the shoe
func (s *Shoe) CardsRemaining() int {
	return len(s.cards)
}
