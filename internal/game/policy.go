package game

// Policy produces an action for a state. Dealer rules, random play, learned
// tables and remote agents all satisfy it.
type Policy interface {
	Decide(State) Action
}

// PolicyFunc adapts a plain function to Policy.
type PolicyFunc func(State) Action

// Decide calls f(s).
func (f PolicyFunc) Decide(s State) Action { return f(s) }

// DealerPolicy hits below StandOn and stands otherwise, regardless of
// softness. It reads the dealer's own total, so it must only be handed states
// produced during the dealer turn.
type DealerPolicy struct {
	StandOn int
}

// Decide implements Policy.
func (p DealerPolicy) Decide(s State) Action {
	if !s.DealerKnown {
		panic("game: dealer policy needs the dealer total")
	}
	if s.DealerTotal < p.StandOn {
		return Hit
	}
	return Stand
}
