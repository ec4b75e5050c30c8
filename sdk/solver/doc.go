// Package solver trains and runs a tabular Q-learning player.
//
// A QTable maps reduced states (see game.StateKey) to one value per action.
// QPolicy selects actions epsilon-greedily from a table and applies the
// one-step Q-learning update; Trainer drives a game.Env and feeds every
// transition back into the policy. Tables are persisted as TableFile.
//
// Nothing in this package locks. A table shared by several training loops
// must be guarded by the caller; read-only sharing for greedy evaluation is
// safe because lookups never insert.
package solver
