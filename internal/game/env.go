package game

import (
	"fmt"
	rand "math/rand/v2"

	"github.com/lox/blackjackforbots/internal/deck"
)

// Shoe is the card source an Env deals from. *deck.Shoe satisfies it.
type Shoe interface {
	Draw(n int) ([]deck.Card, error)
	CardsRemaining() int
}

// Phase is the lifecycle position of the current round.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseAwaitingAction
	PhaseRoundOver
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseAwaitingAction:
		return "awaiting_action"
	case PhaseRoundOver:
		return "round_over"
	default:
		return "unknown"
	}
}

// StepResult is returned by every transition.
type StepResult struct {
	State  State
	Reward Reward
	Done   bool
	Info   map[string]any
}

// Env runs one round of Blackjack at a time: deal, player turn, dealer
// autoplay, resolution. The running count persists across rounds until the
// shoe is replaced.
type Env struct {
	cfg          Config
	rng          *rand.Rand
	newShoe      func() Shoe
	dealerPolicy Policy

	shoe         Shoe
	shuffles     int
	runningCount int

	phase        Phase
	player       *Hand
	dealer       *Hand
	upCard       deck.Card
	hole         deck.Card
	holeDealt    bool
	holeRevealed bool
	lastReward   Reward
}

// Option configures an Env.
type Option func(*Env)

// WithConfig replaces the default table rules.
func WithConfig(cfg Config) Option {
	return func(e *Env) { e.cfg = cfg }
}

// WithDealerPolicy overrides the dealer's decision rule. By default the
// dealer follows DealerPolicy with the configured stand threshold.
func WithDealerPolicy(p Policy) Option {
	return func(e *Env) { e.dealerPolicy = p }
}

// WithShoeFactory overrides how fresh shoes are built. The factory is called
// once at construction and again on every reshuffle.
func WithShoeFactory(f func() Shoe) Option {
	return func(e *Env) { e.newShoe = f }
}

// NewEnv builds an environment dealing from shoes shuffled with rng.
func NewEnv(rng *rand.Rand, opts ...Option) (*Env, error) {
	e := &Env{
		cfg:    DefaultConfig(),
		rng:    rng,
		player: NewHand(),
		dealer: NewHand(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	if e.newShoe == nil {
		if rng == nil {
			return nil, fmt.Errorf("game: a random source or shoe factory is required")
		}
		e.newShoe = func() Shoe { return deck.NewShoe(e.rng) }
	}
	if e.dealerPolicy == nil {
		e.dealerPolicy = DealerPolicy{StandOn: e.cfg.DealerStandOn}
	}
	e.shoe = e.newShoe()
	return e, nil
}

// Config returns the rules the Env was built with.
func (e *Env) Config() Config { return e.cfg }

// Reset starts a new round: reshuffle if the shoe is low, deal two cards to
// the player, an up-card and a hole card to the dealer, and return the
// player's view.
func (e *Env) Reset() (State, error) {
	if e.shoe.CardsRemaining() < e.cfg.ReshuffleBelow {
		e.reshuffle()
	}

	e.player = NewHand()
	e.dealer = NewHand()
	e.holeDealt = false
	e.holeRevealed = false
	e.lastReward = Draw

	cards, err := e.draw(4)
	if err != nil {
		return State{}, err
	}
	e.player.Add(cards[0], cards[1])
	e.upCard = cards[2]
	e.dealer.Add(e.upCard)
	e.hole = cards[3]
	e.holeDealt = true

	e.reveal(cards[0], cards[1], cards[2])
	e.phase = PhaseAwaitingAction
	return e.observe(), nil
}

// Step applies a player action. Hitting to 21 does not end the round; only a
// bust or a stand does.
func (e *Env) Step(action Action) (StepResult, error) {
	switch e.phase {
	case PhaseNotStarted:
		return StepResult{}, ErrNotStarted
	case PhaseRoundOver:
		return StepResult{}, ErrAlreadyDone
	}

	switch action {
	case Hit:
		return e.hit()
	case Stand:
		return e.stand()
	default:
		return StepResult{}, fmt.Errorf("%w: %s", ErrInvalidAction, action)
	}
}

func (e *Env) hit() (StepResult, error) {
	cards, err := e.draw(1)
	if err != nil {
		return StepResult{}, err
	}
	e.player.Add(cards...)
	e.reveal(cards...)

	if e.player.IsBust() {
		return e.finish(Lose), nil
	}
	return StepResult{State: e.observe(), Reward: Draw, Info: map[string]any{}}, nil
}

func (e *Env) stand() (StepResult, error) {
	if err := e.playDealer(); err != nil {
		return StepResult{}, err
	}
	return e.finish(resolve(e.player, e.dealer)), nil
}

// playDealer reveals the hole card and draws while the dealer policy asks for
// a card. Drawing stops at once on a bust or a 21.
func (e *Env) playDealer() error {
	if !e.holeDealt {
		return ErrMissingHoleCard
	}
	e.dealer.Add(e.hole)
	e.reveal(e.hole)
	e.holeRevealed = true

	for !e.dealer.IsBust() && !e.dealer.Is21() {
		if e.dealerPolicy.Decide(e.dealerView()) != Hit {
			break
		}
		cards, err := e.draw(1)
		if err != nil {
			return err
		}
		e.dealer.Add(cards...)
		e.reveal(cards...)
	}
	return nil
}

// resolve compares two final hands.
func resolve(player, dealer *Hand) Reward {
	switch {
	case player.IsBust():
		return Lose
	case dealer.IsBust():
		return Win
	case player.Value() > dealer.Value():
		return Win
	case player.Value() < dealer.Value():
		return Lose
	default:
		return Draw
	}
}

func (e *Env) finish(r Reward) StepResult {
	e.phase = PhaseRoundOver
	e.lastReward = r
	return StepResult{State: e.observe(), Reward: r, Done: true, Info: map[string]any{}}
}

// draw takes n cards, replacing the shoe first when it cannot cover the
// request so a shortage never surfaces mid-round.
func (e *Env) draw(n int) ([]deck.Card, error) {
	if e.shoe.CardsRemaining() < n {
		e.reshuffle()
	}
	return e.shoe.Draw(n)
}

func (e *Env) reshuffle() {
	e.shoe = e.newShoe()
	e.runningCount = 0
	e.shuffles++
}

func (e *Env) reveal(cards ...deck.Card) {
	for _, c := range cards {
		e.runningCount += c.CountWeight()
	}
}

func (e *Env) observe() State {
	s := State{
		PlayerTotal: e.player.Value(),
		PlayerSoft:  e.player.IsSoft(),
		DealerUp:    e.upCard.BlackjackValue(true),
		Count:       e.CountBin(),
	}
	if e.holeRevealed {
		s.DealerKnown = true
		s.DealerTotal = e.dealer.Value()
		s.DealerSoft = e.dealer.IsSoft()
	}
	return s
}

func (e *Env) dealerView() State {
	s := e.observe()
	s.DealerKnown = true
	s.DealerTotal = e.dealer.Value()
	s.DealerSoft = e.dealer.IsSoft()
	return s
}

// CountBin returns the discretised running count, or CountUnknown when
// counting is disabled.
func (e *Env) CountBin() CountBin {
	if !e.cfg.Counting {
		return CountUnknown
	}
	switch {
	case e.runningCount > e.cfg.CountThreshold:
		return CountHigh
	case e.runningCount < -e.cfg.CountThreshold:
		return CountLow
	default:
		return CountNeutral
	}
}

// RunningCount returns the hi-lo count of every card revealed since the
// current shoe was built.
func (e *Env) RunningCount() int { return e.runningCount }

// Phase returns the lifecycle position of the current round.
func (e *Env) Phase() Phase { return e.phase }

// PlayerHand returns a copy of the player's hand.
func (e *Env) PlayerHand() *Hand { return e.player.clone() }

// DealerHand returns a copy of the dealer's visible hand. Before the dealer
// turn it holds only the up-card.
func (e *Env) DealerHand() *Hand { return e.dealer.clone() }

// UpCard returns the dealer's face-up card for the current round.
func (e *Env) UpCard() deck.Card { return e.upCard }

// HoleRevealed reports whether the dealer's hole card has been turned over.
func (e *Env) HoleRevealed() bool { return e.holeRevealed }

// LastReward returns the reward of the most recently finished round.
func (e *Env) LastReward() Reward { return e.lastReward }

// CardsRemaining returns the number of cards left in the current shoe.
func (e *Env) CardsRemaining() int { return e.shoe.CardsRemaining() }

// Shuffles returns how many times the shoe has been replaced.
func (e *Env) Shuffles() int { return e.shuffles }
