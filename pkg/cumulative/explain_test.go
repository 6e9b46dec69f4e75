package cumulative

import (
	"reflect"
	"testing"
)

// TestResolvePropagation_CoreTimes rebuilds a core-times justification:
// the job's own opposite bound first, then the cores intersecting the
// recorded window.
func TestResolvePropagation_CoreTimes(t *testing.T) {
	store := NewIntervalStore()
	vA := store.MustAddVar(0, 0)
	vB := store.MustAddVar(0, 10)
	c := mustConstraint(t, 4, []Job{
		{Start: vA, Duration: 4, Demand: 3},
		{Start: vB, Duration: 4, Demand: 3},
	})
	if res := defaultEngine().Propagate(c, store, store); res.Status != StatusTightened {
		t.Fatalf("Propagate = %+v", res)
	}
	info, ok := store.InferInfoFor(vB, BoundLower)
	if !ok {
		t.Fatal("missing inference record")
	}

	got := ResolvePropagation(c, store, vB, BoundLower, info)
	want := []BoundRef{
		{Var: vB, Kind: BoundUpper},
		{Var: vA, Kind: BoundLower},
		{Var: vA, Kind: BoundUpper},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("refs = %v, want %v", got, want)
	}
}

// TestResolvePropagation_EdgeFinding rebuilds the omega set from the
// recorded window. The pushed job itself never appears; the short variant
// drops members whose energy is not needed to certify the bound.
func TestResolvePropagation_EdgeFinding(t *testing.T) {
	store := NewIntervalStore()
	vA := store.MustAddVar(0, 1)
	vB := store.MustAddVar(1, 1)
	vC := store.MustAddVar(0, 2)
	vR := store.MustAddVar(0, 7)
	c := mustConstraint(t, 3, []Job{
		{Start: vA, Duration: 2, Demand: 2},
		{Start: vB, Duration: 2, Demand: 2},
		{Start: vC, Duration: 1, Demand: 1},
		{Start: vR, Duration: 2, Demand: 2},
	})

	eng := NewEngine(Config{EdgeFinding: true, ShortExplanations: true, MaxRounds: 1})
	res := eng.Propagate(c, store, store)
	if res.Status != StatusTightened || res.Tightened != 1 {
		t.Fatalf("Propagate = %+v", res)
	}
	if lb := store.LowerBound(vR); lb != 3 {
		t.Fatalf("lb(R) = %d, want 3", lb)
	}
	info, ok := store.InferInfoFor(vR, BoundLower)
	if !ok || info.Rule() != RuleEdgeFinding {
		t.Fatalf("info = (%v,%v)", info, ok)
	}
	if b, e := info.Window(); b != 0 || e != 3 {
		t.Fatalf("window = [%d,%d), want [0,3)", b, e)
	}

	long := ResolvePropagation(c, store, vR, BoundLower, info)
	wantLong := []BoundRef{
		{Var: vA, Kind: BoundLower}, {Var: vA, Kind: BoundUpper},
		{Var: vB, Kind: BoundLower}, {Var: vB, Kind: BoundUpper},
		{Var: vC, Kind: BoundLower}, {Var: vC, Kind: BoundUpper},
	}
	if !reflect.DeepEqual(long, wantLong) {
		t.Fatalf("long refs = %v, want %v", long, wantLong)
	}

	// The two big jobs alone carry the 8 energy units the push needs; the
	// small job is trimmed.
	short := eng.ResolvePropagation(c, store, vR, BoundLower, info)
	wantShort := []BoundRef{
		{Var: vA, Kind: BoundLower}, {Var: vA, Kind: BoundUpper},
		{Var: vB, Kind: BoundLower}, {Var: vB, Kind: BoundUpper},
	}
	if !reflect.DeepEqual(short, wantShort) {
		t.Fatalf("short refs = %v, want %v", short, wantShort)
	}
}

// TestResolvePropagation_Energetic reports the jobs intersecting the
// recorded window. After the push the job's own window may have left it,
// in which case not even its opposite bound is needed.
func TestResolvePropagation_Energetic(t *testing.T) {
	store := NewIntervalStore()
	vA := store.MustAddVar(0, 0)
	vB := store.MustAddVar(0, 8)
	c := mustConstraint(t, 2, []Job{
		{Start: vA, Duration: 2, Demand: 2},
		{Start: vB, Duration: 3, Demand: 1},
	})
	if res := erOnlyEngine().Propagate(c, store, store); res.Status != StatusTightened {
		t.Fatalf("Propagate = %+v", res)
	}
	info, ok := store.InferInfoFor(vB, BoundLower)
	if !ok || info.Rule() != RuleEnergeticReasoning {
		t.Fatalf("info = (%v,%v)", info, ok)
	}

	got := ResolvePropagation(c, store, vB, BoundLower, info)
	want := []BoundRef{
		{Var: vA, Kind: BoundLower},
		{Var: vA, Kind: BoundUpper},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("refs = %v, want %v", got, want)
	}
}

// TestResolvePropagation_Fallbacks: the invalid record, an unknown
// variable, and a hole record without an encoding all resolve to the
// conservative full explanation.
func TestResolvePropagation_Fallbacks(t *testing.T) {
	store := NewIntervalStore()
	vA := store.MustAddVar(0, 0)
	vB := store.MustAddVar(2, 8)
	c := mustConstraint(t, 2, []Job{
		{Start: vA, Duration: 2, Demand: 2},
		{Start: vB, Duration: 3, Demand: 1},
	})

	var invalid InferInfo
	got := ResolvePropagation(c, store, vB, BoundLower, invalid)
	want := []BoundRef{
		{Var: vA, Kind: BoundLower},
		{Var: vA, Kind: BoundUpper},
		{Var: vB, Kind: BoundUpper},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid record: refs = %v, want %v", got, want)
	}

	// A variable the constraint does not know cannot be matched to a job.
	got = ResolvePropagation(c, store, 99, BoundLower, NewInferInfo(RuleCoreTimes, 0, 4))
	want = []BoundRef{
		{Var: vA, Kind: BoundLower}, {Var: vA, Kind: BoundUpper},
		{Var: vB, Kind: BoundLower}, {Var: vB, Kind: BoundUpper},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unknown variable: refs = %v, want %v", got, want)
	}

	// A hole record is meaningless without an attached encoding.
	got = ResolvePropagation(c, store, vB, BoundUpper, NewInferInfo(RuleCoreHoles, 1, 2))
	want = []BoundRef{
		{Var: vA, Kind: BoundLower},
		{Var: vA, Kind: BoundUpper},
		{Var: vB, Kind: BoundLower},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("hole record without encoding: refs = %v, want %v", got, want)
	}
}

// TestResolvePropagation_Pure: reconstruction reads bounds but never
// writes, so the journal stays as propagation left it.
func TestResolvePropagation_Pure(t *testing.T) {
	store := NewIntervalStore()
	vA := store.MustAddVar(0, 0)
	vB := store.MustAddVar(0, 10)
	c := mustConstraint(t, 4, []Job{
		{Start: vA, Duration: 4, Demand: 3},
		{Start: vB, Duration: 4, Demand: 3},
	})
	defaultEngine().Propagate(c, store, store)
	before := len(store.Journal())

	info, _ := store.InferInfoFor(vB, BoundLower)
	for i := 0; i < 3; i++ {
		ResolvePropagation(c, store, vB, BoundLower, info)
	}
	if after := len(store.Journal()); after != before {
		t.Fatalf("journal grew from %d to %d entries", before, after)
	}
}
