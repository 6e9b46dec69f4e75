// Package cumulative: host solver interfaces.
//
// The propagation engine never owns variable bounds. It reads and tightens
// them through BoundStore and reports conflicts through ConflictSink, so any
// bound-consistent host (a CP solver's trail, an LP-based branch-and-bound
// node, the reference IntervalStore in this package) can drive it.
package cumulative

import "fmt"

// BoundKind distinguishes the two bounds of an integer variable.
type BoundKind uint8

const (
	// BoundLower identifies the lower bound of a variable.
	BoundLower BoundKind = iota
	// BoundUpper identifies the upper bound of a variable.
	BoundUpper
)

// Opposite returns the other bound kind.
func (k BoundKind) Opposite() BoundKind {
	if k == BoundLower {
		return BoundUpper
	}
	return BoundLower
}

// String returns "lower" or "upper".
func (k BoundKind) String() string {
	if k == BoundLower {
		return "lower"
	}
	return "upper"
}

// TightenOutcome reports the effect of a bound-tightening request.
//
// Accepted means the store narrowed the bound. Infeasible means the request
// crossed the opposite bound and the store did not apply it; the engine then
// turns the deduction into a conflict. Both false means the request was a
// no-op (the bound was already at least as tight).
type TightenOutcome struct {
	Accepted   bool
	Infeasible bool
}

// BoundStore is the engine's view of the host solver's variable bounds.
//
// Implementations must keep LowerBound(id) <= UpperBound(id) at all times
// and must treat tightening requests that would violate that invariant as
// infeasible rather than applying them. The InferInfo passed to a tighten
// call must be recorded with the change so the host can later hand it back
// to ResolvePropagation during conflict analysis.
type BoundStore interface {
	// LowerBound returns the current lower bound of the variable.
	LowerBound(id int) int

	// UpperBound returns the current upper bound of the variable.
	UpperBound(id int) int

	// TightenLowerBound requests lb(id) >= value.
	TightenLowerBound(id int, value int, info InferInfo) TightenOutcome

	// TightenUpperBound requests ub(id) <= value.
	TightenUpperBound(id int, value int, info InferInfo) TightenOutcome
}

// ConflictSink receives the explanation of an infeasibility. The engine
// brackets every explanation between Initiate and Finalize; the bounds added
// in between form a set whose conjunction is unsatisfiable together with the
// constraint.
type ConflictSink interface {
	// InitiateConflictAnalysis opens a new conflict set, discarding any
	// half-built one.
	InitiateConflictAnalysis()

	// AddConflictLowerBound records the current lower bound of the variable
	// as part of the conflict.
	AddConflictLowerBound(id int)

	// AddConflictUpperBound records the current upper bound of the variable
	// as part of the conflict.
	AddConflictUpperBound(id int)

	// FinalizeConflict closes the conflict set.
	FinalizeConflict()
}

// BoundRef names one bound of one variable, the currency of conflict sets
// and resolved explanations.
type BoundRef struct {
	Var  int
	Kind BoundKind
}

// String returns e.g. "lb(x3)" or "ub(x7)".
func (r BoundRef) String() string {
	if r.Kind == BoundLower {
		return fmt.Sprintf("lb(x%d)", r.Var)
	}
	return fmt.Sprintf("ub(x%d)", r.Var)
}

// addBoth records both bounds of a variable in the sink.
func addBoth(sink ConflictSink, id int) {
	sink.AddConflictLowerBound(id)
	sink.AddConflictUpperBound(id)
}
