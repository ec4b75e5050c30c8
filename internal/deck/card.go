package deck

import (
	"fmt"
	"strings"
)

// Suit represents a card suit
type Suit int

const (
	Hearts Suit = iota
	Diamonds
	Clubs
	Spades
)

// String returns the string representation of a suit
func (s Suit) String() string {
	switch s {
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	case Spades:
		return "♠"
	default:
		return "?"
	}
}

// IsRed returns true if the suit is red (Hearts or Diamonds)
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Rank is the ordinal rank of a card, 2 through 14 with the face cards and the
// Ace at the top.
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// String returns the string representation of a rank
func (r Rank) String() string {
	switch r {
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	default:
		if r >= Two && r <= Ten {
			return fmt.Sprintf("%d", int(r))
		}
		return "?"
	}
}

// hiLo holds the running-count weight for each rank, indexed by rank.
var hiLo = [...]int{
	Two: 1, Three: 1, Four: 1, Five: 1, Six: 1,
	Seven: 0, Eight: 0, Nine: 0,
	Ten: -1, Jack: -1, Queen: -1, King: -1, Ace: -1,
}

// Card is an immutable playing card. Cards are comparable and can be used as
// map keys directly.
type Card struct {
	Rank Rank
	Suit Suit
}

// NewCard creates a new card
func NewCard(rank Rank, suit Suit) Card {
	return Card{Rank: rank, Suit: suit}
}

// BlackjackValue returns the points the card is worth. Face cards count 10;
// an Ace counts 11 when aceHigh is set and 1 otherwise.
func (c Card) BlackjackValue(aceHigh bool) int {
	if c.Rank == Ace {
		if aceHigh {
			return 11
		}
		return 1
	}
	return min(int(c.Rank), 10)
}

// CountWeight returns the hi-lo counting weight: +1 for 2-6, 0 for 7-9 and -1
// for tens, faces and aces.
func (c Card) CountWeight() int {
	if c.Rank < Two || c.Rank > Ace {
		return 0
	}
	return hiLo[c.Rank]
}

// IsAce returns true if the card is an Ace
func (c Card) IsAce() bool {
	return c.Rank == Ace
}

// Index returns a stable identifier in [0, 52).
func (c Card) Index() int {
	return int(c.Rank-Two)*4 + int(c.Suit)
}

// IsValid reports whether the card has a known rank and suit.
func (c Card) IsValid() bool {
	return c.Rank >= Two && c.Rank <= Ace && c.Suit >= Hearts && c.Suit <= Spades
}

// String returns the string representation of a card (e.g., "A♠")
func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// ParseCard parses cards written as "As", "Th", "10d" or "A♠".
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) < 2 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}

	suitRune := runes[len(runes)-1]
	rankStr := strings.ToUpper(string(runes[:len(runes)-1]))

	var suit Suit
	switch suitRune {
	case 'h', 'H', '♥':
		suit = Hearts
	case 'd', 'D', '♦':
		suit = Diamonds
	case 'c', 'C', '♣':
		suit = Clubs
	case 's', 'S', '♠':
		suit = Spades
	default:
		return Card{}, fmt.Errorf("invalid suit in card %q", s)
	}

	var rank Rank
	switch rankStr {
	case "A":
		rank = Ace
	case "K":
		rank = King
	case "Q":
		rank = Queen
	case "J":
		rank = Jack
	case "T", "10":
		rank = Ten
	default:
		if len(rankStr) != 1 || rankStr[0] < '2' || rankStr[0] > '9' {
			return Card{}, fmt.Errorf("invalid rank in card %q", s)
		}
		rank = Rank(rankStr[0] - '0')
	}
	return NewCard(rank, suit), nil
}

// MustParseCards parses a whitespace separated card list and panics on error.
// Intended for tests and fixtures.
func MustParseCards(s string) []Card {
	fields := strings.Fields(s)
	cards := make([]Card, 0, len(fields))
	for _, f := range fields {
		c, err := ParseCard(f)
		if err != nil {
			panic(err)
		}
		cards = append(cards, c)
	}
	return cards
}
