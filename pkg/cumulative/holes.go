// Package cumulative: hole propagation over a binary start encoding.
//
// Bound propagation cannot express holes in a start-time domain. When the
// host maintains indicator variables ("start of job j equals position p",
// 0/1), the engine can fix interior indicators to 0 whenever the profile
// proves the position infeasible, even though the job's bounds stay put.
// The encoding is optional per constraint and may cover any subset of jobs
// and positions.
package cumulative

import (
	"fmt"
	"sort"
)

type encodedPos struct {
	job      int
	position int
}

// BinaryEncoding maps (job, candidate start position) pairs to indicator
// variable ids and back. Indicator semantics: value 1 forces the job to
// start exactly at the position, value 0 forbids it.
type BinaryEncoding struct {
	byJob map[int]map[int]int
	byVar map[int]encodedPos
}

// NewBinaryEncoding returns an empty encoding.
func NewBinaryEncoding() *BinaryEncoding {
	return &BinaryEncoding{
		byJob: make(map[int]map[int]int),
		byVar: make(map[int]encodedPos),
	}
}

// Link registers the indicator variable for a job's candidate position.
// Returns an error if the position or the variable is already linked.
func (enc *BinaryEncoding) Link(job, position, varID int) error {
	if job < 0 || position < 0 || varID < 0 {
		return fmt.Errorf("BinaryEncoding.Link: negative argument (job=%d, position=%d, var=%d)", job, position, varID)
	}
	if _, exists := enc.byVar[varID]; exists {
		return fmt.Errorf("BinaryEncoding.Link: variable %d already linked", varID)
	}
	positions := enc.byJob[job]
	if positions == nil {
		positions = make(map[int]int)
		enc.byJob[job] = positions
	}
	if _, exists := positions[position]; exists {
		return fmt.Errorf("BinaryEncoding.Link: job %d position %d already linked", job, position)
	}
	positions[position] = varID
	enc.byVar[varID] = encodedPos{job: job, position: position}
	return nil
}

// Indicator returns the indicator variable for a job's position.
func (enc *BinaryEncoding) Indicator(job, position int) (int, bool) {
	v, ok := enc.byJob[job][position]
	return v, ok
}

// Decode returns the (job, position) pair an indicator variable encodes.
func (enc *BinaryEncoding) Decode(varID int) (job, position int, ok bool) {
	p, ok := enc.byVar[varID]
	return p.job, p.position, ok
}

// Positions returns the linked candidate positions of a job, sorted.
func (enc *BinaryEncoding) Positions(job int) []int {
	m := enc.byJob[job]
	if len(m) == 0 {
		return nil
	}
	out := make([]int, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// propagateHoles fixes to 0 every linked interior position a job cannot
// start at given the other jobs' cores. Interior means strictly between the
// job's bounds; the bounds themselves belong to the core-times rule.
func (e *Engine) propagateHoles(c *Constraint, store BoundStore, sink ConflictSink) stepResult {
	enc := c.encoding
	prof := NewResourceProfile(c.capacity)
	var res stepResult
	for i := range c.jobs {
		w := c.window(store, i)
		if _, infeasible := prof.InsertCore(w.Lb, w.Ub, w.Duration, w.Demand); infeasible {
			e.explainProfileOverload(c, store, sink, prof)
			res.cutoff = true
			return res
		}
	}
	for i := range c.jobs {
		positions := enc.Positions(i)
		if len(positions) == 0 {
			continue
		}
		w := c.window(store, i)
		ownCore := w.HasCore()
		if ownCore {
			begin, end := w.Core()
			prof.Update(begin, end, -w.Demand)
		}
		for _, pos := range positions {
			if pos <= w.Lb || pos >= w.Ub {
				continue
			}
			ok, blk := prof.IsFeasibleStart(pos, w.Duration, w.Demand)
			if ok {
				continue
			}
			v, _ := enc.Indicator(i, pos)
			blockT := prof.Timepoint(blk)
			out := store.TightenUpperBound(v, 0, NewInferInfo(RuleCoreHoles, pos, blockT))
			if out.Infeasible {
				// The indicator is already fixed to 1: the job is forced
				// onto a position the cores exclude.
				e.explainHole(c, store, sink, i, v, blockT)
				res.cutoff = true
				return res
			}
			if out.Accepted {
				res.tightened++
				e.recordStat(func(s *PropagationStats) { s.HoleFixings++ })
			}
		}
		if ownCore {
			begin, end := w.Core()
			prof.Update(begin, end, w.Demand)
		}
	}
	return res
}

// explainHole reports the indicator's lower bound, the start variable's
// bounds, and enough covering cores at the blocking timepoint to rule the
// position out.
func (e *Engine) explainHole(c *Constraint, store BoundStore, sink ConflictSink, i, indicator, blockT int) {
	e.logger().Debug("hole conflict", "constraint", c.String(), "job", i, "time", blockT)
	sink.InitiateConflictAnalysis()
	sink.AddConflictLowerBound(indicator)
	addBoth(sink, c.jobs[i].Start)
	for _, k := range coveringJobsByDemand(c, store, blockT, i, c.capacity-c.jobs[i].Demand) {
		addBoth(sink, c.jobs[k].Start)
	}
	sink.FinalizeConflict()
}

// coveringJobsByDemand returns jobs (excluding skip) whose core covers t,
// taken in descending demand order until their demand sum exceeds the
// threshold. If the cores never exceed it, all covering jobs are returned.
func coveringJobsByDemand(c *Constraint, store BoundStore, t, skip, threshold int) []int {
	var covering []int
	for k := range c.jobs {
		if k == skip {
			continue
		}
		w := c.window(store, k)
		if begin, end := w.Core(); begin <= t && t < end {
			covering = append(covering, k)
		}
	}
	sort.Slice(covering, func(a, b int) bool {
		da, db := c.jobs[covering[a]].Demand, c.jobs[covering[b]].Demand
		if da != db {
			return da > db
		}
		return covering[a] < covering[b]
	})
	sum := 0
	for n, k := range covering {
		sum += c.jobs[k].Demand
		if sum > threshold {
			return covering[:n+1]
		}
	}
	return covering
}
