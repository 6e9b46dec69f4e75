// Package cumulative: final solution verification.
package cumulative

import (
	"fmt"
	"sort"
)

// Report is the verdict of CheckFeasibility. On violation it carries the
// first time at which demand exceeds capacity and the two quantities
// compared there.
type Report struct {
	Feasible      bool
	ViolationTime int
	Required      int
	Available     int
}

// String returns "feasible" or a description of the first violation.
func (r Report) String() string {
	if r.Feasible {
		return "feasible"
	}
	return fmt.Sprintf("infeasible at t=%d: required %d > available %d", r.ViolationTime, r.Required, r.Available)
}

// CheckFeasibility verifies a fixed start-time assignment against the
// capacity by an event sweep, independent of any propagation machinery.
// starts[i] is the start of the constraint's i-th (filtered) job. O(n log n).
func CheckFeasibility(c *Constraint, starts []int) (Report, error) {
	if len(starts) != len(c.jobs) {
		return Report{}, fmt.Errorf("CheckFeasibility: got %d starts for %d jobs", len(starts), len(c.jobs))
	}
	type event struct {
		t     int
		delta int
	}
	events := make([]event, 0, 2*len(starts))
	for i, s := range starts {
		if s < 0 {
			return Report{}, fmt.Errorf("CheckFeasibility: starts[%d] is negative (%d)", i, s)
		}
		j := c.jobs[i]
		events = append(events, event{s, j.Demand}, event{s + j.Duration, -j.Demand})
	}
	// Releases sort before acquisitions at equal times: intervals are
	// half-open, so a job ending at t never overlaps one starting at t.
	sort.Slice(events, func(a, b int) bool {
		if events[a].t != events[b].t {
			return events[a].t < events[b].t
		}
		return events[a].delta < events[b].delta
	})
	usage := 0
	for _, ev := range events {
		usage += ev.delta
		if usage > c.capacity {
			return Report{
				Feasible:      false,
				ViolationTime: ev.t,
				Required:      usage,
				Available:     c.capacity,
			}, nil
		}
	}
	return Report{Feasible: true, Available: c.capacity}, nil
}
