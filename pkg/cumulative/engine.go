// Package cumulative: the propagation engine.
//
// The engine runs the filtering rules for one constraint in a fixed order
// per round:
//
//	redundancy check -> core times -> [holes] -> overload check ->
//	[edge-finding forward, backward] -> [energetic reasoning]
//
// short-circuiting to a cutoff the moment any rule proves the bounds
// infeasible. Bound tightenings applied before the cutoff remain valid and
// stay applied. The profile and the trees live only for the duration of one
// Propagate call; nothing is cached across rounds, so an Engine value can
// serve many constraints as long as the host does not call it concurrently
// for the same store.
package cumulative

import (
	"io"
	"log/slog"
	"sort"
)

// Status classifies the outcome of one propagation round.
type Status uint8

const (
	// StatusNothing means no bound was tightened.
	StatusNothing Status = iota
	// StatusTightened means at least one bound was tightened.
	StatusTightened
	// StatusCutoff means the current bounds are infeasible; a conflict
	// explanation was delivered to the sink.
	StatusCutoff
	// StatusRedundant means the constraint can never be violated under the
	// current bounds and the host may deactivate it for this subtree.
	StatusRedundant
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusTightened:
		return "tightened"
	case StatusCutoff:
		return "cutoff"
	case StatusRedundant:
		return "redundant"
	default:
		return "nothing"
	}
}

// Result reports one propagation round: the outcome and the number of
// bound tightenings applied. Tightenings applied before a cutoff are
// counted; they hold regardless of the conflict.
type Result struct {
	Status    Status
	Tightened int
}

// Config selects the propagation rules to run. The zero value disables
// everything; start from DefaultConfig.
type Config struct {
	// CoreTimes enables time-table filtering over the resource profile.
	CoreTimes bool
	// HolePropagation enables indicator fixing for constraints that carry
	// a binary encoding.
	HolePropagation bool
	// OverloadCheck enables the Theta-tree overload test.
	OverloadCheck bool
	// EdgeFinding enables Theta-Lambda edge-finding in both directions.
	EdgeFinding bool
	// EnergeticReasoning enables the energetic reasoning rule. Off by
	// default; it is the most expensive rule and pays off mainly on highly
	// cumulative instances.
	EnergeticReasoning bool
	// ShortExplanations stops edge-finding explanations as soon as the
	// reported energy certifies the bound.
	ShortExplanations bool
	// MaxRounds caps PropagateToFixpoint.
	MaxRounds int
}

// DefaultConfig returns the standard rule selection.
func DefaultConfig() Config {
	return Config{
		CoreTimes:          true,
		HolePropagation:    true,
		OverloadCheck:      true,
		EdgeFinding:        true,
		EnergeticReasoning: false,
		MaxRounds:          100,
	}
}

// Engine drives the propagation rules. Construct with NewEngine; the zero
// value propagates nothing.
type Engine struct {
	cfg   Config
	log   *slog.Logger
	stats *StatsMonitor
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a structured logger; propagation emits debug-level
// records only.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithStats attaches a monitor that accumulates propagation counters
// across rounds.
func WithStats(m *StatsMonitor) Option {
	return func(e *Engine) { e.stats = m }
}

// NewEngine returns an engine with the given rule selection.
func NewEngine(cfg Config, opts ...Option) *Engine {
	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the engine's rule selection.
func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) logger() *slog.Logger {
	if e.log == nil {
		e.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e.log
}

// recordStat applies f to the attached monitor, if any.
func (e *Engine) recordStat(f func(*PropagationStats)) {
	if e.stats != nil {
		e.stats.apply(f)
	}
}

// stepResult is the outcome of one rule within a round.
type stepResult struct {
	tightened int
	cutoff    bool
}

// ceilDiv returns ceil(a/b) for a > 0, b > 0.
func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}

// Propagate runs one round of propagation for the constraint against the
// store. Conflict explanations go to the sink. The host must guarantee
// lb <= ub for every start variable, non-negative lower bounds, and
// windows ending before TimeInfinity; violations are programming errors
// and panic.
func (e *Engine) Propagate(c *Constraint, store BoundStore, sink ConflictSink) Result {
	if c == nil {
		panic("Engine.Propagate: nil constraint")
	}
	e.recordStat(func(s *PropagationStats) { s.Rounds++ })
	if len(c.jobs) == 0 {
		return Result{Status: StatusRedundant}
	}
	ws := c.Windows(store)
	validateWindows(ws)
	if maxWorstUsage(ws) <= c.capacity {
		e.logger().Debug("constraint redundant", "constraint", c.String())
		e.recordStat(func(s *PropagationStats) { s.Redundant++ })
		return Result{Status: StatusRedundant}
	}

	total := 0
	step := func(r stepResult) bool {
		total += r.tightened
		return r.cutoff
	}
	cutoff := func() Result {
		e.recordStat(func(s *PropagationStats) { s.Cutoffs++; s.Tightenings += total })
		return Result{Status: StatusCutoff, Tightened: total}
	}

	if e.cfg.CoreTimes {
		if step(e.propagateCores(c, store, sink)) {
			return cutoff()
		}
	}
	if e.cfg.HolePropagation && c.encoding != nil {
		if step(e.propagateHoles(c, store, sink)) {
			return cutoff()
		}
	}
	if e.cfg.OverloadCheck {
		if overloaded, jobs := CheckOverload(c.capacity, c.Windows(store)); overloaded {
			e.logger().Debug("overload detected", "constraint", c.String(), "jobs", len(jobs))
			sink.InitiateConflictAnalysis()
			for _, j := range jobs {
				addBoth(sink, c.jobs[j].Start)
			}
			sink.FinalizeConflict()
			return cutoff()
		}
	}
	if e.cfg.EdgeFinding {
		if step(e.propagateEdgeFinding(c, store, sink, false)) {
			return cutoff()
		}
		if step(e.propagateEdgeFinding(c, store, sink, true)) {
			return cutoff()
		}
	}
	if e.cfg.EnergeticReasoning {
		if step(e.propagateEnergetic(c, store, sink)) {
			return cutoff()
		}
	}

	e.recordStat(func(s *PropagationStats) { s.Tightenings += total })
	if total > 0 {
		return Result{Status: StatusTightened, Tightened: total}
	}
	return Result{Status: StatusNothing}
}

// PropagateToFixpoint repeats Propagate until a round changes nothing,
// proves redundancy, hits a cutoff, or MaxRounds is reached. Returns the
// final result with the accumulated tightening count, plus the number of
// rounds run.
func (e *Engine) PropagateToFixpoint(c *Constraint, store BoundStore, sink ConflictSink) (Result, int) {
	maxRounds := e.cfg.MaxRounds
	if maxRounds <= 0 {
		maxRounds = 1
	}
	total := 0
	for round := 1; ; round++ {
		res := e.Propagate(c, store, sink)
		total += res.Tightened
		switch res.Status {
		case StatusCutoff, StatusRedundant, StatusNothing:
			res.Tightened = total
			return res, round
		}
		if round >= maxRounds {
			e.logger().Warn("fixpoint not reached", "constraint", c.String(), "rounds", round)
			return Result{Status: StatusTightened, Tightened: total}, round
		}
	}
}

// validateWindows asserts the host kept its side of the bounds contract.
func validateWindows(ws []Window) {
	for _, w := range ws {
		if w.Lb < 0 || w.Lb > w.Ub || w.Lct() >= TimeInfinity {
			panic("Engine.Propagate: host bounds violate contract: " + w.String())
		}
	}
}

// maxWorstUsage sweeps the union of whole job windows, as if every job
// occupied [lb, lb+duration) through [ub, ub+duration) simultaneously, and
// returns the peak demand. A peak within capacity proves the constraint
// redundant under the current bounds.
func maxWorstUsage(ws []Window) int {
	type event struct {
		t     int
		delta int
	}
	events := make([]event, 0, 2*len(ws))
	for _, w := range ws {
		events = append(events, event{w.Lb, w.Demand}, event{w.Lct(), -w.Demand})
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].t != events[j].t {
			return events[i].t < events[j].t
		}
		return events[i].delta < events[j].delta
	})
	usage, peak := 0, 0
	for _, ev := range events {
		usage += ev.delta
		if usage > peak {
			peak = usage
		}
	}
	return peak
}

// coreMark remembers the exact interval a job's core occupies in the
// profile so delete-then-reinsert always matches.
type coreMark struct {
	begin, end int
	present    bool
}

// propagateCores is the time-table rule: build the profile from every
// core, then repeatedly move each non-fixed job's bounds to the nearest
// feasible starts, removing and re-adding its own core around each check
// so a job never blocks itself. Bound changes re-run the scan until no
// bound moves within this round.
func (e *Engine) propagateCores(c *Constraint, store BoundStore, sink ConflictSink) stepResult {
	prof := NewResourceProfile(c.capacity)
	marks := make([]coreMark, len(c.jobs))
	var res stepResult
	for i := range c.jobs {
		w := c.window(store, i)
		if begin, end := w.Core(); begin < end {
			marks[i] = coreMark{begin: begin, end: end, present: true}
			if _, infeasible := prof.InsertCore(w.Lb, w.Ub, w.Duration, w.Demand); infeasible {
				e.explainProfileOverload(c, store, sink, prof)
				res.cutoff = true
				return res
			}
		}
	}
	const maxPasses = 1000
	for pass, changed := 0, true; changed; pass++ {
		if pass >= maxPasses {
			e.logger().Warn("core propagation pass limit reached", "constraint", c.String())
			break
		}
		changed = false
		for i := range c.jobs {
			w := c.window(store, i)
			if w.Fixed() {
				continue
			}
			if marks[i].present {
				prof.Update(marks[i].begin, marks[i].end, -w.Demand)
				marks[i].present = false
			}
			newLb, infeasible := prof.EarliestFeasibleStart(w.Lb, w.Ub, w.Duration, w.Demand)
			if infeasible {
				e.explainCoreWindow(c, store, sink, i, w.Lb, w.Lct())
				res.cutoff = true
				return res
			}
			if newLb > w.Lb {
				info := NewInferInfo(RuleCoreTimes, w.Lb, newLb-1+w.Duration)
				out := store.TightenLowerBound(c.jobs[i].Start, newLb, info)
				if out.Infeasible {
					e.explainCoreWindow(c, store, sink, i, w.Lb, w.Lct())
					res.cutoff = true
					return res
				}
				if out.Accepted {
					res.tightened++
					changed = true
					e.recordStat(func(s *PropagationStats) { s.CoreTightenings++ })
					w.Lb = newLb
				}
			}
			// A feasible earliest start exists, so the downward scan from ub
			// cannot fail.
			newUb, _ := prof.LatestFeasibleStart(w.Lb, w.Ub, w.Duration, w.Demand)
			if newUb < w.Ub {
				info := NewInferInfo(RuleCoreTimes, newUb+1, w.Lct())
				out := store.TightenUpperBound(c.jobs[i].Start, newUb, info)
				if out.Infeasible {
					e.explainCoreWindow(c, store, sink, i, w.Lb, w.Lct())
					res.cutoff = true
					return res
				}
				if out.Accepted {
					res.tightened++
					changed = true
					e.recordStat(func(s *PropagationStats) { s.CoreTightenings++ })
					w.Ub = newUb
				}
			}
			if begin, end := w.Core(); begin < end {
				marks[i] = coreMark{begin: begin, end: end, present: true}
				if _, infeasible := prof.InsertCore(w.Lb, w.Ub, w.Duration, w.Demand); infeasible {
					e.explainProfileOverload(c, store, sink, prof)
					res.cutoff = true
					return res
				}
			}
		}
	}
	return res
}

// explainProfileOverload reports every job whose core covers the first
// over-committed profile interval.
func (e *Engine) explainProfileOverload(c *Constraint, store BoundStore, sink ConflictSink, prof *ResourceProfile) {
	idx, ok := prof.FirstOverload()
	if !ok {
		panic("cumulative: profile overload reported without negative interval")
	}
	t := prof.Timepoint(idx)
	e.logger().Debug("core overload", "constraint", c.String(), "time", t)
	sink.InitiateConflictAnalysis()
	for i := range c.jobs {
		w := c.window(store, i)
		if begin, end := w.Core(); begin <= t && t < end {
			addBoth(sink, c.jobs[i].Start)
		}
	}
	sink.FinalizeConflict()
}

// explainCoreWindow reports job i's bounds plus every job whose core
// intersects [begin, end), the window i could not be placed in.
func (e *Engine) explainCoreWindow(c *Constraint, store BoundStore, sink ConflictSink, i, begin, end int) {
	e.logger().Debug("core window conflict", "constraint", c.String(),
		"job", i, "window_start", begin, "window_end", end)
	sink.InitiateConflictAnalysis()
	addBoth(sink, c.jobs[i].Start)
	for k := range c.jobs {
		if k == i {
			continue
		}
		w := c.window(store, k)
		if cb, ce := w.Core(); cb < ce && cb < end && ce > begin {
			addBoth(sink, c.jobs[k].Start)
		}
	}
	sink.FinalizeConflict()
}
