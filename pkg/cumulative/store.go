// Package cumulative: reference bound store.
//
// IntervalStore is a minimal host: interval bounds per variable, a trail
// for backtracking, and a conflict log. It implements BoundStore and
// ConflictSink and is what the tests, the examples and the command-line
// tools drive the engine with. A production solver would substitute its
// own store; the engine never depends on this one.
package cumulative

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for store misuse.
var (
	// ErrInvalidBounds reports lb > ub or a negative lower bound.
	ErrInvalidBounds = errors.New("invalid bounds")
)

// BoundChange is one applied tightening, with enough state to undo it and
// to resolve it later.
type BoundChange struct {
	Var  int
	Kind BoundKind
	Old  int
	New  int
	Info InferInfo
}

// Mark is a point in the store's history for Snapshot/Undo.
type Mark struct {
	trail     int
	conflicts int
}

// IntervalStore holds integer interval bounds for a set of variables.
// The zero value is usable.
type IntervalStore struct {
	lbs   []int
	ubs   []int
	trail []BoundChange // undo trail; doubles as the inference journal

	conflicts [][]BoundRef
	current   []BoundRef
	building  bool
}

// NewIntervalStore returns an empty store.
func NewIntervalStore() *IntervalStore {
	return &IntervalStore{}
}

// AddVar registers a variable with the given bounds and returns its id.
func (s *IntervalStore) AddVar(lb, ub int) (int, error) {
	if lb > ub || lb < 0 {
		return 0, fmt.Errorf("IntervalStore.AddVar: %w: [%d,%d]", ErrInvalidBounds, lb, ub)
	}
	s.lbs = append(s.lbs, lb)
	s.ubs = append(s.ubs, ub)
	return len(s.lbs) - 1, nil
}

// MustAddVar is AddVar panicking on invalid bounds.
func (s *IntervalStore) MustAddVar(lb, ub int) int {
	id, err := s.AddVar(lb, ub)
	if err != nil {
		panic(err)
	}
	return id
}

// NumVars returns the number of registered variables.
func (s *IntervalStore) NumVars() int { return len(s.lbs) }

func (s *IntervalStore) checkVar(id int) {
	if id < 0 || id >= len(s.lbs) {
		panic(fmt.Sprintf("IntervalStore: unknown variable %d", id))
	}
}

// LowerBound returns the current lower bound of the variable.
func (s *IntervalStore) LowerBound(id int) int {
	s.checkVar(id)
	return s.lbs[id]
}

// UpperBound returns the current upper bound of the variable.
func (s *IntervalStore) UpperBound(id int) int {
	s.checkVar(id)
	return s.ubs[id]
}

// Bounds returns both bounds of the variable.
func (s *IntervalStore) Bounds(id int) (lb, ub int) {
	s.checkVar(id)
	return s.lbs[id], s.ubs[id]
}

// Fixed reports whether the variable's bounds meet.
func (s *IntervalStore) Fixed(id int) bool {
	s.checkVar(id)
	return s.lbs[id] == s.ubs[id]
}

// TightenLowerBound raises the lower bound to value if that narrows the
// interval, recording the change on the trail.
func (s *IntervalStore) TightenLowerBound(id int, value int, info InferInfo) TightenOutcome {
	s.checkVar(id)
	if value <= s.lbs[id] {
		return TightenOutcome{}
	}
	if value > s.ubs[id] {
		return TightenOutcome{Infeasible: true}
	}
	s.trail = append(s.trail, BoundChange{Var: id, Kind: BoundLower, Old: s.lbs[id], New: value, Info: info})
	s.lbs[id] = value
	return TightenOutcome{Accepted: true}
}

// TightenUpperBound lowers the upper bound to value if that narrows the
// interval, recording the change on the trail.
func (s *IntervalStore) TightenUpperBound(id int, value int, info InferInfo) TightenOutcome {
	s.checkVar(id)
	if value >= s.ubs[id] {
		return TightenOutcome{}
	}
	if value < s.lbs[id] {
		return TightenOutcome{Infeasible: true}
	}
	s.trail = append(s.trail, BoundChange{Var: id, Kind: BoundUpper, Old: s.ubs[id], New: value, Info: info})
	s.ubs[id] = value
	return TightenOutcome{Accepted: true}
}

// Fix narrows the variable to a single value.
func (s *IntervalStore) Fix(id int, value int, info InferInfo) TightenOutcome {
	out := s.TightenLowerBound(id, value, info)
	if out.Infeasible {
		return out
	}
	up := s.TightenUpperBound(id, value, info)
	return TightenOutcome{Accepted: out.Accepted || up.Accepted, Infeasible: up.Infeasible}
}

// Snapshot returns a mark for the current trail and conflict history.
func (s *IntervalStore) Snapshot() Mark {
	return Mark{trail: len(s.trail), conflicts: len(s.conflicts)}
}

// Undo rewinds bounds and conflicts back to the mark.
func (s *IntervalStore) Undo(m Mark) {
	for i := len(s.trail) - 1; i >= m.trail; i-- {
		ch := s.trail[i]
		if ch.Kind == BoundLower {
			s.lbs[ch.Var] = ch.Old
		} else {
			s.ubs[ch.Var] = ch.Old
		}
	}
	s.trail = s.trail[:m.trail]
	if m.conflicts < len(s.conflicts) {
		s.conflicts = s.conflicts[:m.conflicts]
	}
}

// Journal returns a copy of the applied changes, oldest first.
func (s *IntervalStore) Journal() []BoundChange {
	out := make([]BoundChange, len(s.trail))
	copy(out, s.trail)
	return out
}

// InferInfoFor returns the record of the most recent change to the given
// bound, as a host would hand it back during conflict analysis.
func (s *IntervalStore) InferInfoFor(id int, kind BoundKind) (InferInfo, bool) {
	for i := len(s.trail) - 1; i >= 0; i-- {
		if s.trail[i].Var == id && s.trail[i].Kind == kind {
			return s.trail[i].Info, true
		}
	}
	return 0, false
}

// InitiateConflictAnalysis opens a new conflict set.
func (s *IntervalStore) InitiateConflictAnalysis() {
	s.current = s.current[:0]
	s.building = true
}

// AddConflictLowerBound records the variable's lower bound in the open
// conflict set.
func (s *IntervalStore) AddConflictLowerBound(id int) {
	s.checkVar(id)
	if !s.building {
		panic("IntervalStore: conflict bound added outside analysis")
	}
	s.current = append(s.current, BoundRef{Var: id, Kind: BoundLower})
}

// AddConflictUpperBound records the variable's upper bound in the open
// conflict set.
func (s *IntervalStore) AddConflictUpperBound(id int) {
	s.checkVar(id)
	if !s.building {
		panic("IntervalStore: conflict bound added outside analysis")
	}
	s.current = append(s.current, BoundRef{Var: id, Kind: BoundUpper})
}

// FinalizeConflict closes the open set, deduplicated and sorted.
func (s *IntervalStore) FinalizeConflict() {
	if !s.building {
		panic("IntervalStore: FinalizeConflict without InitiateConflictAnalysis")
	}
	s.building = false
	set := make([]BoundRef, len(s.current))
	copy(set, s.current)
	sort.Slice(set, func(a, b int) bool {
		if set[a].Var != set[b].Var {
			return set[a].Var < set[b].Var
		}
		return set[a].Kind < set[b].Kind
	})
	dedup := set[:0]
	for i, r := range set {
		if i == 0 || r != dedup[len(dedup)-1] {
			dedup = append(dedup, r)
		}
	}
	s.conflicts = append(s.conflicts, dedup)
}

// Conflicts returns all finalized conflict sets, oldest first.
func (s *IntervalStore) Conflicts() [][]BoundRef {
	out := make([][]BoundRef, len(s.conflicts))
	for i, set := range s.conflicts {
		cp := make([]BoundRef, len(set))
		copy(cp, set)
		out[i] = cp
	}
	return out
}

// LastConflict returns the most recent conflict set.
func (s *IntervalStore) LastConflict() ([]BoundRef, bool) {
	if len(s.conflicts) == 0 {
		return nil, false
	}
	set := s.conflicts[len(s.conflicts)-1]
	cp := make([]BoundRef, len(set))
	copy(cp, set)
	return cp, true
}

// String lists the variables and their bounds.
func (s *IntervalStore) String() string {
	var b strings.Builder
	b.WriteString("store(")
	for i := range s.lbs {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "x%d=[%d,%d]", i, s.lbs[i], s.ubs[i])
	}
	b.WriteString(")")
	return b.String()
}

var (
	_ BoundStore   = (*IntervalStore)(nil)
	_ ConflictSink = (*IntervalStore)(nil)
)
