// Package game implements a single-player Blackjack round against a dealer
// that follows a fixed policy.
//
// The main type is Env, a step-wise state machine suited to driving automated
// agents:
//
//	env, _ := game.NewEnv(randutil.New(42))
//	state, _ := env.Reset()
//	for {
//	    res, err := env.Step(policy.Decide(state))
//	    if err != nil || res.Done {
//	        break
//	    }
//	    state = res.State
//	}
//
// # Deterministic Testing
//
// All randomness flows from the *rand.Rand handed to NewEnv. For complete
// control over the cards, install a stacked shoe:
//
//	env, _ := game.NewEnv(nil, game.WithShoeFactory(func() game.Shoe {
//	    return deck.NewStackedShoe(deck.MustParseCards("2h 3h 5h 6h Kh ...")...)
//	}))
//
// An Env is not safe for concurrent use; run one per goroutine.
package game
