// Package cumulative: propagation statistics.
package cumulative

import (
	"fmt"
	"sync"
)

// PropagationStats holds counters accumulated across propagation rounds.
type PropagationStats struct {
	Rounds    int // Propagate invocations
	Redundant int // rounds that proved the constraint redundant
	Cutoffs   int // rounds that ended in a conflict

	Tightenings            int // bound changes applied, all rules
	CoreTightenings        int // by the core-times rule
	HoleFixings            int // indicators fixed by hole propagation
	EdgeFindingTightenings int // by edge-finding, both directions
	EnergeticTightenings   int // by energetic reasoning
}

// String summarizes the counters on one line.
func (s PropagationStats) String() string {
	return fmt.Sprintf("rounds=%d redundant=%d cutoffs=%d tightened=%d (core=%d holes=%d edgefinding=%d energetic=%d)",
		s.Rounds, s.Redundant, s.Cutoffs, s.Tightenings,
		s.CoreTightenings, s.HoleFixings, s.EdgeFindingTightenings, s.EnergeticTightenings)
}

// StatsMonitor guards PropagationStats for engines shared across
// goroutines. One engine invocation is single-threaded; the monitor only
// matters when several stores are propagated concurrently with a shared
// monitor.
type StatsMonitor struct {
	mu    sync.Mutex
	stats PropagationStats
}

// NewStatsMonitor returns a zeroed monitor.
func NewStatsMonitor() *StatsMonitor {
	return &StatsMonitor{}
}

// apply mutates the counters under the lock.
func (m *StatsMonitor) apply(f func(*PropagationStats)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f(&m.stats)
}

// Snapshot returns a copy of the current counters.
func (m *StatsMonitor) Snapshot() PropagationStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Reset zeroes all counters.
func (m *StatsMonitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = PropagationStats{}
}
