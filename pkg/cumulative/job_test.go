package cumulative

import (
	"strings"
	"testing"
)

// TestNewConstraint_Validation rejects bad capacities, bad job fields and
// shared start variables.
func TestNewConstraint_Validation(t *testing.T) {
	ok := []Job{{Start: 0, Duration: 2, Demand: 1}}

	if _, err := NewConstraint(0, ok); err == nil {
		t.Error("expected error for capacity 0")
	}
	if _, err := NewConstraint(-3, ok); err == nil {
		t.Error("expected error for negative capacity")
	}
	if _, err := NewConstraint(2, nil); err == nil {
		t.Error("expected error for empty job list")
	}
	if _, err := NewConstraint(2, []Job{{Start: 0, Duration: -1, Demand: 1}}); err == nil {
		t.Error("expected error for negative duration")
	}
	if _, err := NewConstraint(2, []Job{{Start: 0, Duration: 1, Demand: -1}}); err == nil {
		t.Error("expected error for negative demand")
	}
	if _, err := NewConstraint(2, []Job{{Start: -1, Duration: 1, Demand: 1}}); err == nil {
		t.Error("expected error for negative start variable id")
	}
	dup := []Job{
		{Start: 4, Duration: 2, Demand: 1},
		{Start: 4, Duration: 3, Demand: 1},
	}
	if _, err := NewConstraint(2, dup); err == nil {
		t.Error("expected error for shared start variable")
	}
}

// TestNewConstraint_FiltersInertJobs drops zero-duration and zero-demand
// jobs and reindexes the survivors in input order.
func TestNewConstraint_FiltersInertJobs(t *testing.T) {
	jobs := []Job{
		{Start: 0, Duration: 0, Demand: 5},
		{Start: 1, Duration: 3, Demand: 2},
		{Start: 2, Duration: 4, Demand: 0},
		{Start: 3, Duration: 1, Demand: 1},
	}
	c, err := NewConstraint(4, jobs)
	if err != nil {
		t.Fatalf("NewConstraint failed: %v", err)
	}
	if c.NumJobs() != 2 {
		t.Fatalf("expected 2 surviving jobs, got %d", c.NumJobs())
	}
	if c.Job(0).Start != 1 || c.Job(1).Start != 3 {
		t.Errorf("surviving jobs reference wrong variables: %v", c.Jobs())
	}
	if i, ok := c.JobByVar(3); !ok || i != 1 {
		t.Errorf("JobByVar(3) = (%d,%v), want (1,true)", i, ok)
	}
	if _, ok := c.JobByVar(0); ok {
		t.Error("JobByVar must not resolve a filtered job's variable")
	}
	// Duplicate start variables on filtered jobs are harmless.
	if _, err := NewConstraint(4, []Job{
		{Start: 7, Duration: 0, Demand: 1},
		{Start: 7, Duration: 2, Demand: 1},
	}); err != nil {
		t.Errorf("duplicate variable on a dropped job should be accepted, got %v", err)
	}
}

// TestWindow_Derived checks the derived time points, the compulsory part and
// the energy of a window.
func TestWindow_Derived(t *testing.T) {
	w := Window{Job: 0, Lb: 2, Ub: 5, Duration: 4, Demand: 3}
	if w.Est() != 2 || w.Lst() != 5 || w.Ect() != 6 || w.Lct() != 9 {
		t.Fatalf("derived times wrong: est=%d lst=%d ect=%d lct=%d", w.Est(), w.Lst(), w.Ect(), w.Lct())
	}
	if !w.HasCore() {
		t.Fatal("window [2,5] with duration 4 must have a core")
	}
	if b, e := w.Core(); b != 5 || e != 6 {
		t.Fatalf("Core() = [%d,%d), want [5,6)", b, e)
	}
	if w.Fixed() {
		t.Error("window with lb < ub must not be fixed")
	}
	if w.Energy() != 12 {
		t.Errorf("Energy() = %d, want 12", w.Energy())
	}

	loose := Window{Lb: 0, Ub: 10, Duration: 3, Demand: 1}
	if loose.HasCore() {
		t.Error("window [0,10] with duration 3 must not have a core")
	}
	fixed := Window{Lb: 4, Ub: 4, Duration: 2, Demand: 1}
	if !fixed.Fixed() || !fixed.HasCore() {
		t.Error("fixed window must have a core covering its whole run")
	}
	if b, e := fixed.Core(); b != 4 || e != 6 {
		t.Errorf("fixed core = [%d,%d), want [4,6)", b, e)
	}
}

// TestWindow_CoreGrowsUnderTightening sweeps all small windows and all ways
// of tightening them: the compulsory part may only extend, never recede, and
// a window that has one keeps it.
func TestWindow_CoreGrowsUnderTightening(t *testing.T) {
	for lb := 0; lb <= 5; lb++ {
		for ub := lb; ub <= 5; ub++ {
			for dur := 0; dur <= 4; dur++ {
				w := Window{Lb: lb, Ub: ub, Duration: dur}
				b0, e0 := w.Core()
				for lb2 := lb; lb2 <= ub; lb2++ {
					for ub2 := lb2; ub2 <= ub; ub2++ {
						tw := Window{Lb: lb2, Ub: ub2, Duration: dur}
						b1, e1 := tw.Core()
						if b1 > b0 || e1 < e0 {
							t.Fatalf("core receded: [%d,%d] -> [%d,%d] dur=%d: core [%d,%d) -> [%d,%d)",
								lb, ub, lb2, ub2, dur, b0, e0, b1, e1)
						}
						if w.HasCore() && !tw.HasCore() {
							t.Fatalf("core lost: [%d,%d] -> [%d,%d] dur=%d", lb, ub, lb2, ub2, dur)
						}
					}
				}
			}
		}
	}
}

// TestConstraint_Windows reads fresh windows from the store in job order.
func TestConstraint_Windows(t *testing.T) {
	store := NewIntervalStore()
	a := store.MustAddVar(0, 5)
	b := store.MustAddVar(3, 8)
	c, err := NewConstraint(2, []Job{
		{Start: a, Duration: 2, Demand: 1},
		{Start: b, Duration: 4, Demand: 2},
	})
	if err != nil {
		t.Fatalf("NewConstraint failed: %v", err)
	}
	ws := c.Windows(store)
	if len(ws) != 2 {
		t.Fatalf("expected 2 windows, got %d", len(ws))
	}
	if ws[0].Lb != 0 || ws[0].Ub != 5 || ws[0].Duration != 2 || ws[0].Demand != 1 || ws[0].Job != 0 {
		t.Errorf("window 0 wrong: %+v", ws[0])
	}
	if ws[1].Lb != 3 || ws[1].Ub != 8 {
		t.Errorf("window 1 wrong: %+v", ws[1])
	}
	if out := store.TightenLowerBound(b, 5, 0); !out.Accepted {
		t.Fatalf("tighten failed: %+v", out)
	}
	if got := c.window(store, 1); got.Lb != 5 {
		t.Errorf("window must re-read bounds, got lb=%d", got.Lb)
	}
}

// TestConstraint_String covers the named and unnamed forms.
func TestConstraint_String(t *testing.T) {
	c, err := NewConstraint(3, []Job{{Start: 0, Duration: 1, Demand: 1}})
	if err != nil {
		t.Fatalf("NewConstraint failed: %v", err)
	}
	if got := c.String(); got != "Cumulative(n=1, capacity=3)" {
		t.Errorf("String() = %q", got)
	}
	c.SetName("machine-1")
	if got := c.String(); !strings.Contains(got, "machine-1") {
		t.Errorf("named String() = %q, want the name included", got)
	}
	if c.Name() != "machine-1" {
		t.Errorf("Name() = %q", c.Name())
	}
}

// TestSortByLct orders by latest completion time with job-index tie-breaks.
func TestSortByLct(t *testing.T) {
	ws := []Window{
		{Job: 0, Lb: 0, Ub: 3, Duration: 2}, // lct 5
		{Job: 1, Lb: 0, Ub: 1, Duration: 2}, // lct 3
		{Job: 2, Lb: 0, Ub: 3, Duration: 2}, // lct 5
	}
	order := sortByLct(ws)
	want := []int{1, 0, 2}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if m := makespan(ws); m != 5 {
		t.Errorf("makespan = %d, want 5", m)
	}
	if m := makespan(nil); m != 0 {
		t.Errorf("makespan(nil) = %d, want 0", m)
	}
}
