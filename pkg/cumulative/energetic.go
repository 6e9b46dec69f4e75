// Package cumulative: energetic reasoning.
//
// Energetic reasoning compares, for a time window [a, b), the energy the
// jobs must spend inside the window against the energy the resource offers,
// capacity*(b-a). A job's mandatory contribution is its minimum overlap
// with the window over all starts within bounds, times its demand. The
// overlap as a function of the start time is concave piecewise linear, so
// the minimum is attained at one of the two extreme starts: the left-shift
// (start at lb) or the right-shift (start at ub).
//
// When the mandatory energy of all jobs exceeds the offer the bounds are
// infeasible. When the mandatory energy of the others leaves job k less
// room than one of its extreme placements needs, that placement is
// impossible and k's bound moves: the update values follow from the same
// ceiling-division argument as edge-finding. Candidate windows are drawn
// from the jobs' est/lst/ect/lct values; these are the breakpoints of every
// contribution function, so scanning other endpoints can never reveal more.
package cumulative

import "sort"

// leftShiftOverlap returns the overlap of the job with [a, b) when it
// starts as early as possible.
func leftShiftOverlap(w Window, a, b int) int {
	return overlapAt(w.Lb, w.Duration, a, b)
}

// rightShiftOverlap returns the overlap of the job with [a, b) when it
// starts as late as possible.
func rightShiftOverlap(w Window, a, b int) int {
	return overlapAt(w.Ub, w.Duration, a, b)
}

// overlapAt returns |[s, s+dur) ∩ [a, b)|.
func overlapAt(s, dur, a, b int) int {
	lo := max(a, s)
	hi := min(b, s+dur)
	if hi <= lo {
		return 0
	}
	return hi - lo
}

// minIntersection returns the smallest overlap of the job with [a, b) over
// all starts in [lb, ub]. Equals min(leftShiftOverlap, rightShiftOverlap).
func minIntersection(w Window, a, b int) int {
	v := w.Duration
	if l := b - a; l < v {
		v = l
	}
	if l := w.Ect() - a; l < v {
		v = l
	}
	if l := b - w.Lst(); l < v {
		v = l
	}
	if v < 0 {
		return 0
	}
	return v
}

// energyContribution returns the energy the job must spend inside [a, b).
func energyContribution(w Window, a, b int) int64 {
	return int64(minIntersection(w, a, b)) * int64(w.Demand)
}

// requiredEnergy sums the mandatory contributions of all jobs in [a, b).
func requiredEnergy(ws []Window, a, b int) int64 {
	var sum int64
	for _, w := range ws {
		sum += energyContribution(w, a, b)
	}
	return sum
}

// candidateTimes returns the deduplicated, sorted union of every job's
// est, lst, ect and lct.
func candidateTimes(ws []Window) []int {
	times := make([]int, 0, 4*len(ws))
	for _, w := range ws {
		times = append(times, w.Est(), w.Lst(), w.Ect(), w.Lct())
	}
	sort.Ints(times)
	out := times[:0]
	for i, t := range times {
		if i == 0 || t != out[len(out)-1] {
			out = append(out, t)
		}
	}
	return out
}

// propagateEnergetic runs the energetic reasoning rule over all candidate
// windows. Runs last; weakest per deduction but not subsumed by the other
// rules.
func (e *Engine) propagateEnergetic(c *Constraint, store BoundStore, sink ConflictSink) stepResult {
	ws := c.Windows(store)
	times := candidateTimes(ws)
	capacity := int64(c.capacity)
	var res stepResult
	for ai := 0; ai < len(times); ai++ {
		for bi := ai + 1; bi < len(times); bi++ {
			a, b := times[ai], times[bi]
			window := int64(b - a)
			required := requiredEnergy(ws, a, b)
			if required > capacity*window {
				e.logger().Debug("energetic overload",
					"constraint", c.String(), "window_start", a, "window_end", b,
					"required", required, "available", capacity*window)
				e.explainEnergetic(c, sink, ws, a, b)
				res.cutoff = true
				return res
			}
			for k := range ws {
				w := ws[k]
				if w.Fixed() {
					continue
				}
				demand := int64(w.Demand)
				rest := required - energyContribution(w, a, b)
				slack := rest - (capacity-demand)*window
				if slack <= 0 {
					continue
				}
				if rest+demand*int64(leftShiftOverlap(w, a, b)) > capacity*window {
					newLb := a + int(ceilDiv(slack, demand))
					if newLb > w.Lb {
						out := store.TightenLowerBound(c.jobs[k].Start, newLb,
							NewInferInfo(RuleEnergeticReasoning, a, b))
						if out.Infeasible {
							e.explainEnergetic(c, sink, ws, a, b)
							res.cutoff = true
							return res
						}
						if out.Accepted {
							res.tightened++
							e.recordStat(func(s *PropagationStats) { s.EnergeticTightenings++ })
							ws[k].Lb = newLb
							w = ws[k]
						}
					}
				}
				if rest+demand*int64(rightShiftOverlap(w, a, b)) > capacity*window {
					newUb := b - int(ceilDiv(slack, demand)) - w.Duration
					if newUb < w.Ub {
						out := store.TightenUpperBound(c.jobs[k].Start, newUb,
							NewInferInfo(RuleEnergeticReasoning, a, b))
						if out.Infeasible {
							e.explainEnergetic(c, sink, ws, a, b)
							res.cutoff = true
							return res
						}
						if out.Accepted {
							res.tightened++
							e.recordStat(func(s *PropagationStats) { s.EnergeticTightenings++ })
							ws[k].Ub = newUb
						}
					}
				}
			}
		}
	}
	return res
}

// explainEnergetic reports every job whose window intersects [a, b).
func (e *Engine) explainEnergetic(c *Constraint, sink ConflictSink, ws []Window, a, b int) {
	sink.InitiateConflictAnalysis()
	for _, w := range ws {
		if w.Lb < b && w.Lct() > a {
			addBoth(sink, c.jobs[w.Job].Start)
		}
	}
	sink.FinalizeConflict()
}
