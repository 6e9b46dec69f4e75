// Package cumulative: resource profile for time-table propagation.
//
// The profile tracks the free capacity of the resource over time as a step
// function. Two parallel slices hold the breakpoints and the free capacity
// of the half-open interval starting at each breakpoint. Two sentinels are
// always present: timepoint 0 and TimeInfinity, so every query time falls
// into a well-defined interval and no scan needs a length guard.
//
// Jobs contribute their compulsory parts (cores) to the profile. A core is
// the interval [ub, lb+duration) a job occupies no matter which start in
// [lb, ub] it takes. Inserting a core subtracts the job's demand from every
// overlapping interval; a negative free capacity anywhere proves the current
// bounds infeasible.
package cumulative

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
)

// TimeInfinity is the sentinel closing the profile's time axis. All job
// windows must end strictly before it.
const TimeInfinity = math.MaxInt32

// ResourceProfile is the free-capacity step function of one resource.
// The zero value is not usable; construct with NewResourceProfile.
type ResourceProfile struct {
	capacity   int
	timepoints []int
	free       []int
}

// NewResourceProfile returns an empty profile with the given capacity.
// Panics if capacity is not positive; the constraint constructor has
// already validated user input by the time a profile is built.
func NewResourceProfile(capacity int) *ResourceProfile {
	if capacity <= 0 {
		panic(fmt.Sprintf("ResourceProfile: capacity must be > 0, got %d", capacity))
	}
	return &ResourceProfile{
		capacity:   capacity,
		timepoints: []int{0, TimeInfinity},
		free:       []int{capacity, capacity},
	}
}

// Capacity returns the resource capacity.
func (p *ResourceProfile) Capacity() int { return p.capacity }

// Len returns the number of breakpoints, sentinels included.
func (p *ResourceProfile) Len() int { return len(p.timepoints) }

// Timepoint returns the i-th breakpoint.
func (p *ResourceProfile) Timepoint(i int) int { return p.timepoints[i] }

// Free returns the free capacity of the interval starting at the i-th
// breakpoint.
func (p *ResourceProfile) Free(i int) int { return p.free[i] }

// intervalIndex returns the index i with timepoints[i] <= t < timepoints[i+1].
func (p *ResourceProfile) intervalIndex(t int) int {
	i := sort.SearchInts(p.timepoints, t)
	if i == len(p.timepoints) || p.timepoints[i] != t {
		i--
	}
	return i
}

// FreeAt returns the free capacity at time t.
func (p *ResourceProfile) FreeAt(t int) int {
	if t < 0 || t >= TimeInfinity {
		panic(fmt.Sprintf("ResourceProfile.FreeAt: time %d out of range", t))
	}
	return p.free[p.intervalIndex(t)]
}

// InsertTimepoint ensures t is a breakpoint and returns its index. The call
// is idempotent: inserting an existing breakpoint changes nothing. A new
// breakpoint splits its surrounding interval, duplicating that interval's
// free capacity.
func (p *ResourceProfile) InsertTimepoint(t int) int {
	if t < 0 || t > TimeInfinity {
		panic(fmt.Sprintf("ResourceProfile.InsertTimepoint: time %d out of range", t))
	}
	i := sort.SearchInts(p.timepoints, t)
	if i < len(p.timepoints) && p.timepoints[i] == t {
		return i
	}
	p.timepoints = slices.Insert(p.timepoints, i, t)
	p.free = slices.Insert(p.free, i, p.free[i-1])
	return i
}

// Update subtracts delta from the free capacity of every interval covered
// by [begin, end), inserting breakpoints for begin and end first. It
// reports whether any interval went negative, which proves the profile
// over-committed. A free capacity above the resource capacity indicates an
// unmatched core deletion and panics.
func (p *ResourceProfile) Update(begin, end, delta int) bool {
	if begin < 0 || begin >= end || end > TimeInfinity {
		panic(fmt.Sprintf("ResourceProfile.Update: invalid interval [%d,%d)", begin, end))
	}
	ia := p.InsertTimepoint(begin)
	ib := p.InsertTimepoint(end)
	infeasible := false
	for i := ia; i < ib; i++ {
		p.free[i] -= delta
		if p.free[i] < 0 {
			infeasible = true
		}
		if p.free[i] > p.capacity {
			panic(fmt.Sprintf("ResourceProfile.Update: free capacity %d exceeds capacity %d at [%d,%d)",
				p.free[i], p.capacity, p.timepoints[i], p.timepoints[i+1]))
		}
	}
	return infeasible
}

// InsertCore adds the compulsory part of a job with bounds [lb, ub],
// duration dur and demand dem. It reports whether a core existed at all and
// whether adding it drove some interval negative.
func (p *ResourceProfile) InsertCore(lb, ub, dur, dem int) (added, infeasible bool) {
	begin, end := ub, lb+dur
	if begin >= end {
		return false, false
	}
	return true, p.Update(begin, end, dem)
}

// DeleteCore removes a previously inserted compulsory part. It reports
// whether a core existed. The interval passed must match the insertion
// exactly; the engine re-inserts a fresh core after any bound change.
func (p *ResourceProfile) DeleteCore(lb, ub, dur, dem int) bool {
	begin, end := ub, lb+dur
	if begin >= end {
		return false
	}
	p.Update(begin, end, -dem)
	return true
}

// FirstOverload returns the index of the first interval whose free capacity
// is negative, if any.
func (p *ResourceProfile) FirstOverload() (int, bool) {
	for i, f := range p.free {
		if f < 0 {
			return i, true
		}
	}
	return 0, false
}

// IsFeasibleStart reports whether a job with the given duration and demand
// can start at time t without exceeding the remaining capacity anywhere in
// [t, t+dur). On failure the index of the first blocking interval is
// returned; on success the index is -1. Zero duration or demand is trivially
// feasible.
func (p *ResourceProfile) IsFeasibleStart(t, dur, dem int) (bool, int) {
	if t < 0 || t+dur > TimeInfinity {
		panic(fmt.Sprintf("ResourceProfile.IsFeasibleStart: window [%d,%d) out of range", t, t+dur))
	}
	if dur == 0 || dem == 0 {
		return true, -1
	}
	end := t + dur
	for i := p.intervalIndex(t); p.timepoints[i] < end; i++ {
		if p.free[i] < dem {
			return false, i
		}
	}
	return true, -1
}

// lastBlocking returns the index of the last interval in [t, t+dur) with
// free capacity below dem, or -1 if the start is feasible.
func (p *ResourceProfile) lastBlocking(t, dur, dem int) int {
	end := t + dur
	last := -1
	for i := p.intervalIndex(t); p.timepoints[i] < end; i++ {
		if p.free[i] < dem {
			last = i
		}
	}
	return last
}

// EarliestFeasibleStart scans start times from lb upward and returns the
// first one at which the job fits entirely within the remaining capacity.
// The scan jumps to the end of each blocking interval rather than stepping
// one time unit at a time. Reports infeasible when no start in [lb, ub]
// fits.
func (p *ResourceProfile) EarliestFeasibleStart(lb, ub, dur, dem int) (int, bool) {
	if dur == 0 || dem == 0 {
		return lb, false
	}
	for t := lb; t <= ub; {
		ok, blk := p.IsFeasibleStart(t, dur, dem)
		if ok {
			return t, false
		}
		t = p.timepoints[blk+1]
	}
	return lb, true
}

// LatestFeasibleStart scans start times from ub downward and returns the
// last one at which the job fits. Each failure jumps so the job ends where
// the last blocking interval begins. Reports infeasible when no start in
// [lb, ub] fits.
func (p *ResourceProfile) LatestFeasibleStart(lb, ub, dur, dem int) (int, bool) {
	if dur == 0 || dem == 0 {
		return ub, false
	}
	for t := ub; t >= lb; {
		blk := p.lastBlocking(t, dur, dem)
		if blk < 0 {
			return t, false
		}
		t = p.timepoints[blk] - dur
	}
	return ub, true
}

// String returns a readable rendering such as
// "profile(cap=5): [0,2)=5 [2,5)=2 [5,inf)=5".
func (p *ResourceProfile) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "profile(cap=%d):", p.capacity)
	for i := 0; i+1 < len(p.timepoints); i++ {
		if p.timepoints[i+1] == TimeInfinity {
			fmt.Fprintf(&b, " [%d,inf)=%d", p.timepoints[i], p.free[i])
		} else {
			fmt.Fprintf(&b, " [%d,%d)=%d", p.timepoints[i], p.timepoints[i+1], p.free[i])
		}
	}
	return b.String()
}
