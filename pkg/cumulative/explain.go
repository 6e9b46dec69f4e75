// Package cumulative: lazy explanation reconstruction.
//
// Conflict analysis may ask for the justification of a bound change long
// after propagation ran, possibly on a different search path. The engine
// therefore never stores explanations; it stores an InferInfo per change,
// and reconstruction is a pure function of the constraint, the current
// bounds and that record. Reconstruction from tighter-than-original bounds
// yields a superset of the original justification, which is still a valid
// explanation.
package cumulative

import "sort"

// ResolvePropagation rebuilds the set of bounds that justified tightening
// the given bound of varID, using the full (long) explanation for every
// rule. The invalid record and any record that no longer matches the
// constraint resolve to the conservative full explanation: every job's
// bounds except the inferred one.
func ResolvePropagation(c *Constraint, store BoundStore, varID int, kind BoundKind, info InferInfo) []BoundRef {
	return resolveExplanation(c, store, varID, kind, info, false)
}

// ResolvePropagation is the engine's config-aware variant: with
// ShortExplanations set, edge-finding explanations stop as soon as the
// reported energy certifies the derived bound.
func (e *Engine) ResolvePropagation(c *Constraint, store BoundStore, varID int, kind BoundKind, info InferInfo) []BoundRef {
	return resolveExplanation(c, store, varID, kind, info, e.cfg.ShortExplanations)
}

func resolveExplanation(c *Constraint, store BoundStore, varID int, kind BoundKind, info InferInfo, short bool) []BoundRef {
	switch info.Rule() {
	case RuleCoreTimes:
		if i, ok := c.byVar[varID]; ok {
			return resolveCoreTimes(c, store, i, kind, info)
		}
	case RuleCoreHoles:
		if c.encoding != nil {
			if job, _, ok := c.encoding.Decode(varID); ok {
				return resolveHole(c, store, job, info)
			}
		}
	case RuleEdgeFinding:
		if i, ok := c.byVar[varID]; ok {
			return resolveEdgeFinding(c, store, i, kind, info, short)
		}
	case RuleEnergeticReasoning:
		return resolveEnergetic(c, store, varID, kind, info)
	}
	return fullExplanation(c, varID, kind)
}

// resolveCoreTimes reports the job's own opposite bound plus every other
// job whose core intersects the stored window, in core order.
func resolveCoreTimes(c *Constraint, store BoundStore, i int, kind BoundKind, info InferInfo) []BoundRef {
	begin, end := info.Window()
	type covered struct {
		job int
		cb  int
		ce  int
	}
	var hits []covered
	for k := range c.jobs {
		if k == i {
			continue
		}
		w := c.window(store, k)
		if cb, ce := w.Core(); cb < ce && cb < end && ce > begin {
			hits = append(hits, covered{job: k, cb: cb, ce: ce})
		}
	}
	sort.Slice(hits, func(a, b int) bool {
		if hits[a].cb != hits[b].cb {
			return hits[a].cb < hits[b].cb
		}
		if hits[a].ce != hits[b].ce {
			return hits[a].ce < hits[b].ce
		}
		return hits[a].job < hits[b].job
	})
	refs := []BoundRef{{Var: c.jobs[i].Start, Kind: kind.Opposite()}}
	for _, h := range hits {
		refs = appendJobBounds(refs, c, h.job)
	}
	return refs
}

// resolveHole reports the start variable's bounds plus covering cores at
// the blocking timepoint, largest demands first, until they exceed the
// remaining capacity.
func resolveHole(c *Constraint, store BoundStore, job int, info InferInfo) []BoundRef {
	blockT := info.Data2()
	refs := appendJobBounds(nil, c, job)
	for _, k := range coveringJobsByDemand(c, store, blockT, job, c.capacity-c.jobs[job].Demand) {
		refs = appendJobBounds(refs, c, k)
	}
	return refs
}

// resolveEdgeFinding rebuilds the omega set: every other job currently
// contained in the stored window. The short variant keeps only the most
// energetic members needed to certify the inferred bound.
func resolveEdgeFinding(c *Constraint, store BoundStore, i int, kind BoundKind, info InferInfo, short bool) []BoundRef {
	begin, end := info.Window()
	var omega []int
	for k := range c.jobs {
		if k == i {
			continue
		}
		w := c.window(store, k)
		if w.Est() >= begin && w.Lct() <= end {
			omega = append(omega, k)
		}
	}
	if short {
		omega = trimByEnergy(c, store, i, kind, begin, end, omega)
	}
	var refs []BoundRef
	for _, k := range omega {
		refs = appendJobBounds(refs, c, k)
	}
	if len(refs) == 0 {
		return fullExplanation(c, c.jobs[i].Start, kind)
	}
	return refs
}

// trimByEnergy keeps omega members in descending energy order until their
// total certifies the bound the edge-finding formula derived. Falls back to
// the whole omega set when the target is out of reach, which keeps the
// explanation sound.
func trimByEnergy(c *Constraint, store BoundStore, i int, kind BoundKind, begin, end int, omega []int) []int {
	job := c.jobs[i]
	window := int64(end - begin)
	demand := int64(job.Demand)
	spare := (int64(c.capacity) - demand) * window
	var bound int
	if kind == BoundLower {
		bound = store.LowerBound(job.Start)
	} else {
		bound = store.UpperBound(job.Start)
	}
	var needed int64
	if kind == BoundLower {
		// bound <= begin + ceil((energy-spare)/demand)
		needed = int64(bound-begin-1)*demand + spare + 1
	} else {
		// bound >= end - ceil((energy-spare)/demand) - duration
		needed = int64(end-job.Duration-bound-1)*demand + spare + 1
	}
	sorted := make([]int, len(omega))
	copy(sorted, omega)
	sort.Slice(sorted, func(a, b int) bool {
		ea, eb := c.jobs[sorted[a]].Energy(), c.jobs[sorted[b]].Energy()
		if ea != eb {
			return ea > eb
		}
		return sorted[a] < sorted[b]
	})
	var sum int64
	for n, k := range sorted {
		sum += c.jobs[k].Energy()
		if sum >= needed {
			return sorted[:n+1]
		}
	}
	return omega
}

// resolveEnergetic reports every job whose window intersects the stored
// one; the inferred job contributes only its opposite bound.
func resolveEnergetic(c *Constraint, store BoundStore, varID int, kind BoundKind, info InferInfo) []BoundRef {
	begin, end := info.Window()
	var refs []BoundRef
	for k := range c.jobs {
		w := c.window(store, k)
		if w.Lb >= end || w.Lct() <= begin {
			continue
		}
		if c.jobs[k].Start == varID {
			refs = append(refs, BoundRef{Var: varID, Kind: kind.Opposite()})
			continue
		}
		refs = appendJobBounds(refs, c, k)
	}
	if len(refs) == 0 {
		return fullExplanation(c, varID, kind)
	}
	return refs
}

// fullExplanation reports both bounds of every job except the inferred
// bound itself.
func fullExplanation(c *Constraint, varID int, kind BoundKind) []BoundRef {
	var refs []BoundRef
	for k := range c.jobs {
		id := c.jobs[k].Start
		if id == varID {
			refs = append(refs, BoundRef{Var: id, Kind: kind.Opposite()})
			continue
		}
		refs = appendJobBounds(refs, c, k)
	}
	return refs
}

func appendJobBounds(refs []BoundRef, c *Constraint, k int) []BoundRef {
	id := c.jobs[k].Start
	return append(refs,
		BoundRef{Var: id, Kind: BoundLower},
		BoundRef{Var: id, Kind: BoundUpper},
	)
}
