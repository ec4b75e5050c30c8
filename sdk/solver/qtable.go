package solver

import (
	"maps"
	"slices"
	"strings"

	"github.com/lox/blackjackforbots/internal/game"
)

// ActionValues holds one estimate per action, indexed by game.Action.
type ActionValues [game.NumActions]float64

// QTable is a sparse state-key to action-value mapping. Keys that were never
// written read as the zero vector.
type QTable struct {
	values map[game.StateKey]ActionValues
}

// NewQTable returns an empty table.
func NewQTable() *QTable {
	return &QTable{values: make(map[game.StateKey]ActionValues)}
}

// Values returns the estimates for key without inserting it.
func (t *QTable) Values(key game.StateKey) ActionValues {
	return t.values[key]
}

// Has reports whether key has been written.
func (t *QTable) Has(key game.StateKey) bool {
	_, ok := t.values[key]
	return ok
}

// Set stores the estimates for key.
func (t *QTable) Set(key game.StateKey, v ActionValues) {
	t.values[key] = v
}

// Best returns the action with the larger value. Ties go to the lower action
// index, so an untouched key prefers Hit.
func (t *QTable) Best(key game.StateKey) game.Action {
	return argmax(t.values[key])
}

// Max returns the largest value stored for key.
func (t *QTable) Max(key game.StateKey) float64 {
	v := t.values[key]
	return v[argmax(v)]
}

// Len returns the number of keys written.
func (t *QTable) Len() int {
	return len(t.values)
}

// Keys returns all written keys ordered by their string form.
func (t *QTable) Keys() []game.StateKey {
	keys := slices.Collect(maps.Keys(t.values))
	slices.SortFunc(keys, func(a, b game.StateKey) int {
		return strings.Compare(a.String(), b.String())
	})
	return keys
}

// Clone returns a deep copy.
func (t *QTable) Clone() *QTable {
	return &QTable{values: maps.Clone(t.values)}
}

func argmax(v ActionValues) game.Action {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return game.Action(best)
}
