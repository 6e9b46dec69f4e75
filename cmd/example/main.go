// Package main demonstrates basic usage patterns of the cumulative
// propagation engine: building a constraint, propagating bounds, probing
// decisions with snapshot and undo, reading conflicts and explanations,
// and verifying a finished schedule.
package main

import (
	"fmt"

	"github.com/gitrdm/gocumulative/pkg/cumulative"
)

func main() {
	fmt.Println("=== Cumulative Engine Examples ===")
	fmt.Println()

	basicPropagation()
	snapshotAndUndo()
	conflictsAndExplanations()
	scheduleVerification()
}

// basicPropagation runs one round of time-table filtering.
func basicPropagation() {
	fmt.Println("1. Basic Propagation:")

	store := cumulative.NewIntervalStore()
	vA := store.MustAddVar(0, 0)
	vB := store.MustAddVar(0, 10)
	c, err := cumulative.NewConstraint(4, []cumulative.Job{
		{Start: vA, Duration: 4, Demand: 3},
		{Start: vB, Duration: 4, Demand: 3},
	})
	if err != nil {
		panic(err)
	}

	eng := cumulative.NewEngine(cumulative.DefaultConfig())
	res := eng.Propagate(c, store, store)
	fmt.Printf("   status=%s tightened=%d\n", res.Status, res.Tightened)
	fmt.Printf("   B's window is now [%d,%d]: it must wait for A's compulsory part\n",
		store.LowerBound(vB), store.UpperBound(vB))
	fmt.Println()
}

// snapshotAndUndo probes a branching decision and rolls it back.
func snapshotAndUndo() {
	fmt.Println("2. Snapshot and Undo:")

	store := cumulative.NewIntervalStore()
	vA := store.MustAddVar(0, 0)
	vB := store.MustAddVar(4, 10)
	c, err := cumulative.NewConstraint(4, []cumulative.Job{
		{Start: vA, Duration: 4, Demand: 3},
		{Start: vB, Duration: 4, Demand: 3},
	})
	if err != nil {
		panic(err)
	}
	eng := cumulative.NewEngine(cumulative.DefaultConfig())

	mark := store.Snapshot()
	var decision cumulative.InferInfo // host decisions carry no rule record
	store.TightenUpperBound(vB, 5, decision)
	res := eng.Propagate(c, store, store)
	fmt.Printf("   probe B<=5: status=%s, B=[%d,%d]\n",
		res.Status, store.LowerBound(vB), store.UpperBound(vB))

	store.Undo(mark)
	fmt.Printf("   after undo: B=[%d,%d]\n", store.LowerBound(vB), store.UpperBound(vB))
	fmt.Println()
}

// conflictsAndExplanations shows a cutoff's conflict set and the lazy
// reconstruction of a tightening's justification.
func conflictsAndExplanations() {
	fmt.Println("3. Conflicts and Explanations:")

	// Three jobs carrying 12 energy units into a window that holds 10.
	store := cumulative.NewIntervalStore()
	jobs := make([]cumulative.Job, 3)
	for i := range jobs {
		jobs[i] = cumulative.Job{Start: store.MustAddVar(0, 3), Duration: 2, Demand: 2}
	}
	c, err := cumulative.NewConstraint(2, jobs)
	if err != nil {
		panic(err)
	}
	eng := cumulative.NewEngine(cumulative.DefaultConfig())
	res := eng.Propagate(c, store, store)
	fmt.Printf("   overloaded instance: status=%s\n", res.Status)
	if set, ok := store.LastConflict(); ok {
		fmt.Printf("   conflict set: %v\n", set)
	}

	// Explanations are rebuilt on demand from the journal's records.
	store2 := cumulative.NewIntervalStore()
	vA := store2.MustAddVar(0, 0)
	vB := store2.MustAddVar(0, 10)
	c2, err := cumulative.NewConstraint(4, []cumulative.Job{
		{Start: vA, Duration: 4, Demand: 3},
		{Start: vB, Duration: 4, Demand: 3},
	})
	if err != nil {
		panic(err)
	}
	eng.Propagate(c2, store2, store2)
	if info, ok := store2.InferInfoFor(vB, cumulative.BoundLower); ok {
		refs := cumulative.ResolvePropagation(c2, store2, vB, cumulative.BoundLower, info)
		fmt.Printf("   lb(B) was derived by %v, justified by %v\n", info, refs)
	}
	fmt.Println()
}

// scheduleVerification checks fixed assignments against the capacity.
func scheduleVerification() {
	fmt.Println("4. Schedule Verification:")

	c, err := cumulative.NewConstraint(4, []cumulative.Job{
		{Start: 0, Duration: 4, Demand: 3},
		{Start: 1, Duration: 4, Demand: 3},
	})
	if err != nil {
		panic(err)
	}
	for _, starts := range [][]int{{0, 4}, {0, 2}} {
		rep, err := cumulative.CheckFeasibility(c, starts)
		if err != nil {
			panic(err)
		}
		fmt.Printf("   starts %v: %s\n", starts, rep)
	}
}
