// Package cumulative: job and constraint definitions.
//
// A Job couples a start-time variable (identified by the host solver's
// integer id) with a fixed duration and a fixed resource demand. A scheduled
// job occupies the half-open interval [start, start+duration) on the time
// axis. The Constraint aggregates the jobs competing for one renewable
// resource of fixed capacity and is the unit on which the propagation
// engine operates.
package cumulative

import (
	"fmt"
	"sort"
)

// Job describes one activity on the shared resource.
//
// Start is the id of the job's start-time variable in the host's bound
// store. Duration and Demand are fixed non-negative integers; a job with
// zero duration or zero demand never influences the resource and is dropped
// when the constraint is built.
type Job struct {
	Start    int
	Duration int
	Demand   int
}

// Energy returns Duration*Demand, the area the job occupies in any
// time-resource diagram.
func (j Job) Energy() int64 {
	return int64(j.Duration) * int64(j.Demand)
}

// Window captures a job's current start-time bounds together with its fixed
// duration and demand. All derived time points follow from the bounds:
//
//	Est = Lb            earliest start
//	Lst = Ub            latest start
//	Ect = Lb + Duration earliest completion
//	Lct = Ub + Duration latest completion
//
// The compulsory part (core) is the half-open interval [Ub, Lb+Duration);
// it is non-empty exactly when Ub < Lb+Duration.
type Window struct {
	Job      int // constraint-local job index
	Lb       int
	Ub       int
	Duration int
	Demand   int
}

// Est returns the earliest start time.
func (w Window) Est() int { return w.Lb }

// Lst returns the latest start time.
func (w Window) Lst() int { return w.Ub }

// Ect returns the earliest completion time.
func (w Window) Ect() int { return w.Lb + w.Duration }

// Lct returns the latest completion time.
func (w Window) Lct() int { return w.Ub + w.Duration }

// Energy returns Duration*Demand.
func (w Window) Energy() int64 {
	return int64(w.Duration) * int64(w.Demand)
}

// HasCore reports whether the job has a non-empty compulsory part.
func (w Window) HasCore() bool { return w.Ub < w.Lb+w.Duration }

// Core returns the compulsory part [begin, end). The interval is empty
// (begin >= end) when the bounds admit no compulsory part.
func (w Window) Core() (begin, end int) {
	return w.Ub, w.Lb + w.Duration
}

// Fixed reports whether the start time is decided.
func (w Window) Fixed() bool { return w.Lb == w.Ub }

// String returns a readable description of the window.
func (w Window) String() string {
	return fmt.Sprintf("job %d: start in [%d,%d], dur=%d, dem=%d", w.Job, w.Lb, w.Ub, w.Duration, w.Demand)
}

// Constraint models a single renewable resource with fixed capacity consumed
// by a set of jobs with fixed durations and demands. It holds no variable
// bounds itself; those live in the host's BoundStore and are read fresh on
// every propagation pass.
type Constraint struct {
	capacity int
	jobs     []Job
	byVar    map[int]int // start variable id -> job index
	encoding *BinaryEncoding
	name     string
}

// NewConstraint constructs a cumulative constraint over the given jobs.
//
// Parameters:
//   - capacity: total resource capacity (must be > 0)
//   - jobs: activities (length > 0; durations >= 0, demands >= 0)
//
// Jobs with zero duration or zero demand are dropped; the surviving jobs are
// indexed 0..n-1 in input order and all reported job indices refer to this
// filtered sequence. Returns an error if inputs are invalid or if two jobs
// share a start variable.
func NewConstraint(capacity int, jobs []Job) (*Constraint, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("Cumulative: capacity must be > 0, got %d", capacity)
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("Cumulative requires at least one job")
	}
	kept := make([]Job, 0, len(jobs))
	for i, j := range jobs {
		if j.Duration < 0 {
			return nil, fmt.Errorf("Cumulative: jobs[%d].Duration must be >= 0, got %d", i, j.Duration)
		}
		if j.Demand < 0 {
			return nil, fmt.Errorf("Cumulative: jobs[%d].Demand must be >= 0, got %d", i, j.Demand)
		}
		if j.Start < 0 {
			return nil, fmt.Errorf("Cumulative: jobs[%d].Start must be a valid variable id, got %d", i, j.Start)
		}
		if j.Duration == 0 || j.Demand == 0 {
			continue
		}
		kept = append(kept, j)
	}
	byVar := make(map[int]int, len(kept))
	for i, j := range kept {
		if prev, dup := byVar[j.Start]; dup {
			return nil, fmt.Errorf("Cumulative: jobs %d and %d share start variable %d", prev, i, j.Start)
		}
		byVar[j.Start] = i
	}
	return &Constraint{
		capacity: capacity,
		jobs:     kept,
		byVar:    byVar,
	}, nil
}

// Capacity returns the resource capacity.
func (c *Constraint) Capacity() int { return c.capacity }

// NumJobs returns the number of jobs that survived filtering.
func (c *Constraint) NumJobs() int { return len(c.jobs) }

// Job returns the i-th filtered job. Panics if i is out of range.
func (c *Constraint) Job(i int) Job { return c.jobs[i] }

// Jobs returns a copy of the filtered job slice.
func (c *Constraint) Jobs() []Job {
	out := make([]Job, len(c.jobs))
	copy(out, c.jobs)
	return out
}

// JobByVar returns the index of the job whose start variable is id.
func (c *Constraint) JobByVar(id int) (int, bool) {
	i, ok := c.byVar[id]
	return i, ok
}

// SetName attaches a display name used in String and log output.
func (c *Constraint) SetName(name string) { c.name = name }

// Name returns the display name (may be empty).
func (c *Constraint) Name() string { return c.name }

// AttachBinaryEncoding links an indicator-variable encoding of the start
// times to the constraint, enabling hole propagation. Passing nil detaches
// any previous encoding.
func (c *Constraint) AttachBinaryEncoding(enc *BinaryEncoding) { c.encoding = enc }

// Encoding returns the attached binary encoding, or nil.
func (c *Constraint) Encoding() *BinaryEncoding { return c.encoding }

// String returns a readable description.
func (c *Constraint) String() string {
	if c.name != "" {
		return fmt.Sprintf("Cumulative(%s, n=%d, capacity=%d)", c.name, len(c.jobs), c.capacity)
	}
	return fmt.Sprintf("Cumulative(n=%d, capacity=%d)", len(c.jobs), c.capacity)
}

// Windows reads the current bounds of every job from the store and returns
// the per-job windows in job-index order.
func (c *Constraint) Windows(store BoundStore) []Window {
	ws := make([]Window, len(c.jobs))
	for i, j := range c.jobs {
		ws[i] = Window{
			Job:      i,
			Lb:       store.LowerBound(j.Start),
			Ub:       store.UpperBound(j.Start),
			Duration: j.Duration,
			Demand:   j.Demand,
		}
	}
	return ws
}

// window re-reads the bounds of a single job.
func (c *Constraint) window(store BoundStore, i int) Window {
	j := c.jobs[i]
	return Window{
		Job:      i,
		Lb:       store.LowerBound(j.Start),
		Ub:       store.UpperBound(j.Start),
		Duration: j.Duration,
		Demand:   j.Demand,
	}
}

// makespan returns the maximum latest completion time over the windows, the
// natural horizon for time-axis reversal. Returns 0 for an empty slice.
func makespan(ws []Window) int {
	m := 0
	for _, w := range ws {
		if lct := w.Lct(); lct > m {
			m = lct
		}
	}
	return m
}

// sortByLct returns the window indices ordered by ascending latest
// completion time, ties broken by job index for determinism.
func sortByLct(ws []Window) []int {
	order := make([]int, len(ws))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		wa, wb := ws[order[a]], ws[order[b]]
		if wa.Lct() != wb.Lct() {
			return wa.Lct() < wb.Lct()
		}
		return wa.Job < wb.Job
	})
	return order
}
