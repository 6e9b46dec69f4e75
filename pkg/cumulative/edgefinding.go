// Package cumulative: edge-finding on the Theta-Lambda tree.
//
// Edge-finding asks, for each latest completion time lct_j in descending
// order: is there a candidate job that cannot run entirely before lct_j
// once the jobs certain to run there (Theta) are accounted for? The
// Theta-Lambda tree answers in O(log n) via its envelopeLambda aggregate,
// and its backtrace names both the candidate and the Theta subset (omega)
// certifying the violation. The candidate's start is then pushed past the
// energy the omega set leaves over:
//
//	newEst = est(omega) + ceil(overflow / demand)
//	overflow = energy(omega) - (capacity-demand) * (lct(omega)-est(omega))
//
// The forward pass tightens lower bounds. The backward pass reuses the same
// code on a time-reversed axis (t -> makespan-t), which turns upper bounds
// into lower bounds and back.
package cumulative

// reverseAxis maps windows onto the reversed time axis around the horizon.
func reverseAxis(ws []Window, horizon int) []Window {
	out := make([]Window, len(ws))
	for i, w := range ws {
		out[i] = Window{
			Job:      w.Job,
			Lb:       horizon - w.Lct(),
			Ub:       horizon - w.Ect(),
			Duration: w.Duration,
			Demand:   w.Demand,
		}
	}
	return out
}

// omegaStats returns the minimum est, maximum lct and total energy of the
// given jobs on the supplied axis.
func omegaStats(axis []Window, omega []int) (est, lct int, energy int64) {
	est, lct = axis[omega[0]].Est(), axis[omega[0]].Lct()
	for _, j := range omega {
		w := axis[j]
		if w.Est() < est {
			est = w.Est()
		}
		if w.Lct() > lct {
			lct = w.Lct()
		}
		energy += w.Energy()
	}
	return est, lct, energy
}

// propagateEdgeFinding runs one direction of edge-finding. The forward
// pass works on the real axis and tightens lower bounds; the backward pass
// works on the reversed axis and tightens upper bounds.
func (e *Engine) propagateEdgeFinding(c *Constraint, store BoundStore, sink ConflictSink, backward bool) stepResult {
	ws := c.Windows(store)
	horizon := makespan(ws)
	axis := ws
	if backward {
		axis = reverseAxis(ws, horizon)
	}
	capacity := int64(c.capacity)
	tree := NewThetaLambdaTree(c.capacity, len(axis))
	leaves := make([]int, len(axis))
	for i, w := range axis {
		leaves[i] = tree.NewLeaf(w.Est(), w.Job, w.Energy())
		tree.Insert(leaves[i])
	}
	var res stepResult
	order := sortByLct(axis)
	for oi := len(order) - 1; oi >= 0; oi-- {
		j := order[oi]
		lctJ := axis[j].Lct()
		for tree.EnvelopeLambda() > capacity*int64(lctJ) {
			leaf, omega := tree.Witness()
			r := tree.LeafJob(leaf)
			wr := axis[r]
			if wr.Ect() >= lctJ {
				// The candidate cannot finish before lctJ under any bounds
				// we could derive; it carries no further information here.
				tree.Remove(leaf)
				continue
			}
			if len(omega) == 0 {
				// The candidate alone overloads the window, which means its
				// demand exceeds the capacity outright.
				e.logger().Debug("edge-finding: single job exceeds capacity",
					"constraint", c.String(), "job", r)
				sink.InitiateConflictAnalysis()
				addBoth(sink, c.jobs[r].Start)
				sink.FinalizeConflict()
				res.cutoff = true
				return res
			}
			estO, lctO, energyO := omegaStats(axis, omega)
			overflow := energyO - (capacity-int64(wr.Demand))*int64(lctO-estO)
			if overflow > 0 {
				newEst := estO + int(ceilDiv(overflow, int64(wr.Demand)))
				info := e.edgeFindingInfo(backward, horizon, estO, lctO)
				var out TightenOutcome
				if backward {
					out = store.TightenUpperBound(c.jobs[r].Start, horizon-newEst-wr.Duration, info)
				} else {
					out = store.TightenLowerBound(c.jobs[r].Start, newEst, info)
				}
				if out.Infeasible {
					e.explainEdgeFinding(c, sink, omega, r)
					res.cutoff = true
					return res
				}
				if out.Accepted {
					res.tightened++
					e.recordStat(func(s *PropagationStats) { s.EdgeFindingTightenings++ })
				}
			}
			tree.Remove(leaf)
		}
		tree.TransformToLambda(leaves[j])
	}
	return res
}

// edgeFindingInfo builds the inference record carrying the omega window on
// the real time axis.
func (e *Engine) edgeFindingInfo(backward bool, horizon, estO, lctO int) InferInfo {
	if backward {
		return NewInferInfo(RuleEdgeFinding, horizon-lctO, horizon-estO)
	}
	return NewInferInfo(RuleEdgeFinding, estO, lctO)
}

// explainEdgeFinding reports the omega jobs' bounds plus the candidate's.
func (e *Engine) explainEdgeFinding(c *Constraint, sink ConflictSink, omega []int, r int) {
	sink.InitiateConflictAnalysis()
	for _, j := range omega {
		addBoth(sink, c.jobs[j].Start)
	}
	addBoth(sink, c.jobs[r].Start)
	sink.FinalizeConflict()
}
