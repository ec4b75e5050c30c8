package game

import "testing"

func TestStateKeyDropsDealerDetails(t *testing.T) {
	t.Parallel()

	a := State{PlayerTotal: 15, DealerUp: 10, PlayerSoft: false, Count: CountNeutral}
	b := a
	b.DealerKnown = true
	b.DealerTotal = 19
	b.DealerSoft = true

	if a.Key(false) != b.Key(false) {
		t.Fatal("dealer resolution must not change the key")
	}
	if a.Key(true) != b.Key(true) {
		t.Fatal("dealer resolution must not change the counting key")
	}
}

func TestStateKeyCountingScheme(t *testing.T) {
	t.Parallel()

	s := State{PlayerTotal: 12, DealerUp: 2, PlayerSoft: true, Count: CountHigh}
	plain := s.Key(false)
	counted := s.Key(true)

	if plain.Counting() {
		t.Fatal("plain key should not carry a count")
	}
	if !counted.Counting() || counted.Count != CountHigh {
		t.Fatalf("counting key lost the bin: %+v", counted)
	}
	if plain == counted {
		t.Fatal("keys from different schemes must differ")
	}
	if got := plain.String(); got != "12_2_1" {
		t.Errorf("plain key = %q", got)
	}
	if got := counted.String(); got != "12_2_1_1" {
		t.Errorf("counting key = %q", got)
	}
}

func TestStateKeyCollisionFree(t *testing.T) {
	t.Parallel()

	seen := make(map[string]StateKey)
	bins := []CountBin{CountLow, CountNeutral, CountHigh}
	for total := 4; total <= 21; total++ {
		for up := 2; up <= 11; up++ {
			for _, soft := range []bool{false, true} {
				s := State{PlayerTotal: total, DealerUp: up, PlayerSoft: soft}
				keys := []StateKey{s.Key(false)}
				for _, b := range bins {
					s.Count = b
					keys = append(keys, s.Key(true))
				}
				for _, k := range keys {
					str := k.String()
					if prev, dup := seen[str]; dup && prev != k {
						t.Fatalf("%q encodes both %+v and %+v", str, prev, k)
					}
					seen[str] = k

					back, err := ParseStateKey(str)
					if err != nil {
						t.Fatalf("parse %q: %v", str, err)
					}
					if back != k {
						t.Fatalf("round trip %q: got %+v want %+v", str, back, k)
					}
				}
			}
		}
	}
	if want := 18 * 10 * 2 * 4; len(seen) != want {
		t.Fatalf("expected %d distinct keys, got %d", want, len(seen))
	}
}

func TestParseStateKeyRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "12", "12_3", "a_b_c", "12_3_2", "12_3_1_5", "1_2_3_4_5"} {
		if _, err := ParseStateKey(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestParseAction(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Action{"hit": Hit, "H": Hit, " stand ": Stand, "s": Stand} {
		got, err := ParseAction(in)
		if err != nil || got != want {
			t.Errorf("ParseAction(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseAction("double"); err == nil {
		t.Error("double must be rejected")
	}
}

func TestDealerPolicyThreshold(t *testing.T) {
	t.Parallel()

	p := DealerPolicy{StandOn: 17}
	for total := 4; total <= 26; total++ {
		want := Stand
		if total <= 16 {
			want = Hit
		}
		for _, soft := range []bool{false, true} {
			got := p.Decide(State{DealerKnown: true, DealerTotal: total, DealerSoft: soft})
			if got != want {
				t.Errorf("total %d soft %t: got %s want %s", total, soft, got, want)
			}
		}
	}
}

func TestDealerPolicyPanicsWithoutDealerTotal(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	DealerPolicy{StandOn: 17}.Decide(State{PlayerTotal: 12, DealerUp: 10})
}
