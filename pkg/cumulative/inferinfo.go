// Package cumulative: compact inference records.
//
// Every bound change the engine applies is tagged with an InferInfo, a
// 32-bit record naming the propagation rule and the time window the
// deduction was derived from. During conflict analysis the host hands the
// record back to ResolvePropagation, which rebuilds the explaining bound set
// from the rule, the window and the then-current bounds. The record is a
// hint, not a proof: when a window does not fit the bit budget the engine
// stores the invalid record and resolution falls back to a conservative
// full explanation.
package cumulative

import "fmt"

// PropRule identifies the propagation rule that produced a deduction.
type PropRule uint8

const (
	// RuleInvalid marks an inference record that carries no usable window.
	RuleInvalid PropRule = iota
	// RuleCoreTimes tags time-table (compulsory part) bound updates.
	RuleCoreTimes
	// RuleCoreHoles tags indicator fixings from interior infeasible starts.
	RuleCoreHoles
	// RuleEdgeFinding tags Theta-Lambda edge-finding bound updates.
	RuleEdgeFinding
	// RuleEnergeticReasoning tags energetic reasoning bound updates.
	RuleEnergeticReasoning

	numPropRules
)

// String returns the rule name.
func (r PropRule) String() string {
	switch r {
	case RuleCoreTimes:
		return "coretimes"
	case RuleCoreHoles:
		return "coreholes"
	case RuleEdgeFinding:
		return "edgefinding"
	case RuleEnergeticReasoning:
		return "energetic"
	default:
		return "invalid"
	}
}

// InferInfo packs a propagation rule and two window values into 32 bits:
//
//	bits  0..2   rule (3 bits)
//	bits  3..15  data1, typically the window start (13 bits, 0..8191)
//	bits 16..30  data2, typically the window end (15 bits, 0..32767)
//
// The zero value is the invalid record.
type InferInfo uint32

const (
	data1Bits = 13
	data2Bits = 15
	data1Max  = 1<<data1Bits - 1
	data2Max  = 1<<data2Bits - 1
)

// NewInferInfo packs rule and the two data values. If either value is
// negative or exceeds its bit budget, or the rule is out of range, the
// invalid record is returned and the caller loses nothing but explanation
// precision.
func NewInferInfo(rule PropRule, data1, data2 int) InferInfo {
	if rule == RuleInvalid || rule >= numPropRules {
		return 0
	}
	if data1 < 0 || data1 > data1Max || data2 < 0 || data2 > data2Max {
		return 0
	}
	return InferInfo(uint32(rule) | uint32(data1)<<3 | uint32(data2)<<(3+data1Bits))
}

// Rule returns the propagation rule, or RuleInvalid for unusable records.
func (ii InferInfo) Rule() PropRule {
	r := PropRule(ii & 0x7)
	if r >= numPropRules {
		return RuleInvalid
	}
	return r
}

// Valid reports whether the record carries a usable rule and window.
func (ii InferInfo) Valid() bool { return ii.Rule() != RuleInvalid }

// Data1 returns the first payload value (window start, or hole position).
func (ii InferInfo) Data1() int {
	return int(uint32(ii) >> 3 & data1Max)
}

// Data2 returns the second payload value (window end, or blocking
// timepoint).
func (ii InferInfo) Data2() int {
	return int(uint32(ii) >> (3 + data1Bits) & data2Max)
}

// Window returns the stored (start, end) pair for window-based rules.
func (ii InferInfo) Window() (int, int) { return ii.Data1(), ii.Data2() }

// String returns e.g. "edgefinding[3,17)" or "invalid".
func (ii InferInfo) String() string {
	if !ii.Valid() {
		return "invalid"
	}
	return fmt.Sprintf("%s[%d,%d)", ii.Rule(), ii.Data1(), ii.Data2())
}
