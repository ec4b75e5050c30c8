package game

import (
	"fmt"
	"strconv"
	"strings"
)

// State is an immutable snapshot of a round as seen by a decision maker.
// Dealer totals are only populated once the dealer's hand is resolved.
type State struct {
	PlayerTotal int
	PlayerSoft  bool
	DealerUp    int
	Count       CountBin

	DealerKnown bool
	DealerTotal int
	DealerSoft  bool
}

// Key reduces the state to the lookup key used by tabular policies. The
// dealer's total and softness are dropped; the count bin is kept only when
// counting is enabled.
func (s State) Key(counting bool) StateKey {
	k := StateKey{
		PlayerTotal: s.PlayerTotal,
		DealerUp:    s.DealerUp,
		PlayerSoft:  s.PlayerSoft,
		Count:       CountUnknown,
	}
	if counting {
		k.Count = s.Count
	}
	return k
}

func (s State) String() string {
	out := fmt.Sprintf("player=%d soft=%t up=%d count=%s", s.PlayerTotal, s.PlayerSoft, s.DealerUp, s.Count)
	if s.DealerKnown {
		out += fmt.Sprintf(" dealer=%d dealer_soft=%t", s.DealerTotal, s.DealerSoft)
	}
	return out
}

// StateKey is the reduced, comparable state used as a value-table key.
type StateKey struct {
	PlayerTotal int
	DealerUp    int
	PlayerSoft  bool
	Count       CountBin
}

// Counting reports whether the key carries a count bin.
func (k StateKey) Counting() bool {
	return k.Count != CountUnknown
}

// String encodes the key as "total_up_soft" or "total_up_soft_bin". This is
// the persisted form of the key.
func (k StateKey) String() string {
	soft := 0
	if k.PlayerSoft {
		soft = 1
	}
	if !k.Counting() {
		return fmt.Sprintf("%d_%d_%d", k.PlayerTotal, k.DealerUp, soft)
	}
	return fmt.Sprintf("%d_%d_%d_%d", k.PlayerTotal, k.DealerUp, soft, int(k.Count))
}

// ParseStateKey is the inverse of StateKey.String.
func ParseStateKey(s string) (StateKey, error) {
	parts := strings.Split(s, "_")
	if len(parts) != 3 && len(parts) != 4 {
		return StateKey{}, fmt.Errorf("invalid state key %q", s)
	}
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return StateKey{}, fmt.Errorf("invalid state key %q: %w", s, err)
		}
		nums[i] = n
	}
	if nums[2] != 0 && nums[2] != 1 {
		return StateKey{}, fmt.Errorf("invalid soft flag in state key %q", s)
	}

	k := StateKey{
		PlayerTotal: nums[0],
		DealerUp:    nums[1],
		PlayerSoft:  nums[2] == 1,
		Count:       CountUnknown,
	}
	if len(nums) == 4 {
		bin := CountBin(nums[3])
		if bin != CountLow && bin != CountNeutral && bin != CountHigh {
			return StateKey{}, fmt.Errorf("invalid count bin in state key %q", s)
		}
		k.Count = bin
	}
	return k, nil
}
