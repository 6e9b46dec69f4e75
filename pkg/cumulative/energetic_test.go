package cumulative

import (
	"math/rand"
	"reflect"
	"sort"
	"testing"
)

func erOnlyEngine() *Engine {
	return NewEngine(Config{EnergeticReasoning: true, MaxRounds: 1})
}

// TestOverlapAt checks the interval intersection helper.
func TestOverlapAt(t *testing.T) {
	cases := []struct {
		s, dur, a, b int
		want         int
	}{
		{0, 4, 1, 3, 2},  // window inside the run
		{2, 2, 0, 10, 2}, // run inside the window
		{0, 2, 2, 4, 0},  // touching, half-open
		{5, 3, 0, 6, 1},
		{0, 0, 0, 5, 0},
	}
	for _, tc := range cases {
		if got := overlapAt(tc.s, tc.dur, tc.a, tc.b); got != tc.want {
			t.Errorf("overlapAt(%d,%d,%d,%d) = %d, want %d", tc.s, tc.dur, tc.a, tc.b, got, tc.want)
		}
	}
}

// TestMinIntersection_IsExtremal verifies that the closed-form minimum
// overlap equals the smaller of the two extreme placements, over random
// windows. The overlap is unimodal in the start time, so the minimum over
// an interval of starts sits at one of its ends.
func TestMinIntersection_IsExtremal(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 1000; i++ {
		lb := rng.Intn(10)
		w := Window{
			Lb:       lb,
			Ub:       lb + rng.Intn(5),
			Duration: rng.Intn(6),
			Demand:   1 + rng.Intn(3),
		}
		a := rng.Intn(12)
		b := a + 1 + rng.Intn(6)

		want := leftShiftOverlap(w, a, b)
		if r := rightShiftOverlap(w, a, b); r < want {
			want = r
		}
		if got := minIntersection(w, a, b); got != want {
			t.Fatalf("minIntersection(%+v, %d, %d) = %d, want %d", w, a, b, got, want)
		}

		// Exhaustive cross-check against every admissible start.
		lowest := -1
		for s := w.Lb; s <= w.Ub; s++ {
			if o := overlapAt(s, w.Duration, a, b); lowest < 0 || o < lowest {
				lowest = o
			}
		}
		if got := minIntersection(w, a, b); got != lowest {
			t.Fatalf("minIntersection(%+v, %d, %d) = %d, exhaustive minimum %d", w, a, b, got, lowest)
		}
	}
}

// TestCandidateTimes returns the sorted deduplicated endpoint union.
func TestCandidateTimes(t *testing.T) {
	ws := []Window{
		{Lb: 0, Ub: 0, Duration: 2}, // 0 0 2 2
		{Lb: 1, Ub: 3, Duration: 2}, // 1 3 3 5
	}
	got := candidateTimes(ws)
	want := []int{0, 1, 2, 3, 5}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("candidateTimes = %v, want %v", got, want)
	}
	if !sort.IntsAreSorted(got) {
		t.Fatal("candidate times must be sorted")
	}
}

// TestEnergetic_LowerBoundPush: a fixed full-demand job occupies [0,2)
// completely, so a demand-1 job of duration 3 cannot spend the required
// energy there when starting at 0; its start moves to 2.
func TestEnergetic_LowerBoundPush(t *testing.T) {
	store := NewIntervalStore()
	vA := store.MustAddVar(0, 0)
	vB := store.MustAddVar(0, 8)
	c := mustConstraint(t, 2, []Job{
		{Start: vA, Duration: 2, Demand: 2},
		{Start: vB, Duration: 3, Demand: 1},
	})

	res := erOnlyEngine().Propagate(c, store, store)
	if res.Status != StatusTightened || res.Tightened != 1 {
		t.Fatalf("Propagate = %+v, want one tightening", res)
	}
	if lb := store.LowerBound(vB); lb != 2 {
		t.Fatalf("lb(B) = %d, want 2", lb)
	}
	if ub := store.UpperBound(vB); ub != 8 {
		t.Fatalf("ub(B) = %d, want unchanged 8", ub)
	}
	info, ok := store.InferInfoFor(vB, BoundLower)
	if !ok || info.Rule() != RuleEnergeticReasoning {
		t.Fatalf("info = (%v,%v), want an energetic record", info, ok)
	}
	if b, e := info.Window(); b != 0 || e != 2 {
		t.Fatalf("window = [%d,%d), want [0,2)", b, e)
	}
}

// TestEnergetic_UpperBoundPush is the mirrored deduction: the blocked
// window sits at the end of the job's range, so its latest start moves
// down.
func TestEnergetic_UpperBoundPush(t *testing.T) {
	store := NewIntervalStore()
	vA := store.MustAddVar(3, 3)
	vB := store.MustAddVar(0, 4)
	c := mustConstraint(t, 2, []Job{
		{Start: vA, Duration: 2, Demand: 2},
		{Start: vB, Duration: 3, Demand: 1},
	})

	res := erOnlyEngine().Propagate(c, store, store)
	if res.Status != StatusTightened || res.Tightened != 1 {
		t.Fatalf("Propagate = %+v, want one tightening", res)
	}
	if ub := store.UpperBound(vB); ub != 0 {
		t.Fatalf("ub(B) = %d, want 0", ub)
	}
	info, _ := store.InferInfoFor(vB, BoundUpper)
	if b, e := info.Window(); b != 3 || e != 5 {
		t.Fatalf("window = [%d,%d), want [3,5)", b, e)
	}
}

// TestEnergetic_WindowOverloadCutoff: two fixed jobs demand 8 energy units
// from a window offering 6.
func TestEnergetic_WindowOverloadCutoff(t *testing.T) {
	store := NewIntervalStore()
	vA := store.MustAddVar(2, 2)
	vB := store.MustAddVar(2, 2)
	c := mustConstraint(t, 3, []Job{
		{Start: vA, Duration: 2, Demand: 2},
		{Start: vB, Duration: 2, Demand: 2},
	})

	res := erOnlyEngine().Propagate(c, store, store)
	if res.Status != StatusCutoff {
		t.Fatalf("Propagate = %+v, want cutoff", res)
	}
	set, ok := store.LastConflict()
	if !ok {
		t.Fatal("missing conflict set")
	}
	want := []BoundRef{
		{Var: vA, Kind: BoundLower},
		{Var: vA, Kind: BoundUpper},
		{Var: vB, Kind: BoundLower},
		{Var: vB, Kind: BoundUpper},
	}
	if !reflect.DeepEqual(set, want) {
		t.Fatalf("conflict = %v, want %v", set, want)
	}
}

// TestEnergetic_NoFalseDeduction leaves a comfortably feasible instance
// alone.
func TestEnergetic_NoFalseDeduction(t *testing.T) {
	store := NewIntervalStore()
	vA := store.MustAddVar(0, 5)
	vB := store.MustAddVar(0, 5)
	c := mustConstraint(t, 2, []Job{
		{Start: vA, Duration: 2, Demand: 2},
		{Start: vB, Duration: 2, Demand: 2},
	})
	res := erOnlyEngine().Propagate(c, store, store)
	if res.Status != StatusNothing {
		t.Fatalf("Propagate = %+v, want nothing", res)
	}
	if len(store.Journal()) != 0 {
		t.Fatalf("journal = %v, want empty", store.Journal())
	}
}
