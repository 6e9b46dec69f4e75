// Package cumulative: Theta-Lambda tree for edge-finding.
//
// The Theta-Lambda tree extends the Theta tree with a second job class.
// Theta jobs contribute to the plain envelope and energy aggregates exactly
// as in ThetaTree; Lambda jobs are candidates whose contribution is
// hypothetical. Each node additionally aggregates energyLambda and
// envelopeLambda, the best energy and envelope achievable when at most one
// Lambda job from the subtree joins the Theta set:
//
//	energyLambda(n)   = max(energyLambda(l) + energy(r),
//	                        energy(l) + energyLambda(r))
//	envelopeLambda(n) = max(envelopeLambda(l) + energy(r),
//	                        envelope(l) + energyLambda(r),
//	                        envelopeLambda(r))
//
// A subtree with no Lambda job carries the minusInfinity sentinel in both
// Lambda aggregates; clampedAdd keeps the sentinel exact so an equality
// test against a finite aggregate can never match it.
//
// An envelopeLambda above capacity*lct identifies one Lambda job that
// cannot run entirely before lct together with the responsible Theta
// subset; the backtrace recovers both by re-playing the max decisions that
// produced the root aggregate.
package cumulative

import (
	"fmt"
	"math"
	"sort"
)

// minusInfinity is the sentinel for "no Lambda job in this subtree". A
// quarter of the int64 range leaves headroom so sums with genuine energies
// can never be mistaken for it.
const minusInfinity = math.MinInt64 / 4

// clampedAdd adds two aggregate values, keeping the sentinel exact: any
// operand at or below the sentinel threshold forces the sentinel result.
func clampedAdd(a, b int64) int64 {
	if a <= minusInfinity/2 || b <= minusInfinity/2 {
		return minusInfinity
	}
	return a + b
}

type tlNode struct {
	parent  int
	left    int
	right   int
	est     int // minimum est key in the subtree
	job     int // tie-break job index of that key; leaf identity
	inTheta bool
	energy  int64
	env     int64
	energyL int64
	envL    int64
}

// ThetaLambdaTree maintains the four edge-finding aggregates under leaf
// insertion, Theta-to-Lambda transformation and removal. The zero value is
// not usable; construct with NewThetaLambdaTree.
type ThetaLambdaTree struct {
	capacity int64
	nodes    []tlNode
	freeList []int
}

// NewThetaLambdaTree returns an empty tree for a resource of the given
// capacity. nJobs sizes the arena. Panics if capacity is not positive.
func NewThetaLambdaTree(capacity, nJobs int) *ThetaLambdaTree {
	if capacity <= 0 {
		panic(fmt.Sprintf("ThetaLambdaTree: capacity must be > 0, got %d", capacity))
	}
	t := &ThetaLambdaTree{
		capacity: int64(capacity),
		nodes:    make([]tlNode, 1, 2*nJobs+1),
	}
	t.nodes[0] = tlNode{parent: nilNode, left: nilNode, right: nilNode}
	return t
}

// Empty reports whether no leaf is inserted.
func (t *ThetaLambdaTree) Empty() bool { return t.nodes[0].left == nilNode }

// Envelope returns the root envelope over Theta jobs, or 0 for an empty
// tree.
func (t *ThetaLambdaTree) Envelope() int64 {
	root := t.nodes[0].left
	if root == nilNode {
		return 0
	}
	return t.nodes[root].env
}

// EnvelopeLambda returns the root envelope when the best single Lambda job
// joins Theta. Without any Lambda job the sentinel minusInfinity is
// returned, which compares below every capacity*lct threshold.
func (t *ThetaLambdaTree) EnvelopeLambda() int64 {
	root := t.nodes[0].left
	if root == nilNode {
		return minusInfinity
	}
	return t.nodes[root].envL
}

// Energy returns the total energy of the Theta jobs.
func (t *ThetaLambdaTree) Energy() int64 {
	root := t.nodes[0].left
	if root == nilNode {
		return 0
	}
	return t.nodes[root].energy
}

// LeafJob returns the job index a leaf was created for.
func (t *ThetaLambdaTree) LeafJob(leaf int) int { return t.nodes[leaf].job }

// Reset removes all leaves and recycles the arena.
func (t *ThetaLambdaTree) Reset() {
	t.nodes = t.nodes[:1]
	t.nodes[0] = tlNode{parent: nilNode, left: nilNode, right: nilNode}
	t.freeList = t.freeList[:0]
}

// NewLeaf allocates a Theta leaf for a job with the given earliest start
// and energy. The leaf is not yet part of the tree; pass it to Insert.
func (t *ThetaLambdaTree) NewLeaf(est, job int, energy int64) int {
	n := t.alloc()
	t.nodes[n] = tlNode{
		parent:  nilNode,
		left:    nilNode,
		right:   nilNode,
		est:     est,
		job:     job,
		inTheta: true,
		energy:  energy,
		env:     t.capacity*int64(est) + energy,
		energyL: minusInfinity,
		envL:    minusInfinity,
	}
	return n
}

// Insert places the leaf at its est-ordered position, splitting the leaf it
// lands on with a fresh internal node, and refreshes aggregates on the path
// to the root.
func (t *ThetaLambdaTree) Insert(leaf int) {
	root := t.nodes[0].left
	if root == nilNode {
		t.nodes[0].left = leaf
		t.nodes[leaf].parent = 0
		return
	}
	cur := root
	for !t.isLeaf(cur) {
		if t.less(leaf, t.nodes[cur].right) {
			cur = t.nodes[cur].left
		} else {
			cur = t.nodes[cur].right
		}
	}
	split := t.alloc()
	parent := t.nodes[cur].parent
	if t.nodes[parent].left == cur {
		t.nodes[parent].left = split
	} else {
		t.nodes[parent].right = split
	}
	t.nodes[split] = tlNode{parent: parent, left: cur, right: leaf}
	if t.less(leaf, cur) {
		t.nodes[split].left, t.nodes[split].right = leaf, cur
	}
	t.nodes[cur].parent = split
	t.nodes[leaf].parent = split
	t.updateFrom(split)
}

// TransformToLambda moves a Theta leaf into the Lambda class. The leaf's
// energy and envelope migrate to the Lambda aggregates and its Theta
// contribution vanishes.
func (t *ThetaLambdaTree) TransformToLambda(leaf int) {
	n := &t.nodes[leaf]
	if !n.inTheta {
		panic("ThetaLambdaTree.TransformToLambda: leaf is not in Theta")
	}
	n.inTheta = false
	n.energyL = n.energy
	n.envL = n.env
	n.energy = 0
	n.env = minusInfinity
	t.updateFrom(n.parent)
}

// Remove detaches a leaf of either class; its parent collapses and the
// sibling takes the parent's place.
func (t *ThetaLambdaTree) Remove(leaf int) {
	parent := t.nodes[leaf].parent
	if parent == nilNode {
		panic("ThetaLambdaTree.Remove: leaf is not in the tree")
	}
	if parent == 0 {
		t.nodes[0].left = nilNode
		t.nodes[leaf].parent = nilNode
		return
	}
	sibling := t.nodes[parent].left
	if sibling == leaf {
		sibling = t.nodes[parent].right
	}
	grand := t.nodes[parent].parent
	if t.nodes[grand].left == parent {
		t.nodes[grand].left = sibling
	} else {
		t.nodes[grand].right = sibling
	}
	t.nodes[sibling].parent = grand
	t.nodes[leaf].parent = nilNode
	t.release(parent)
	if grand != 0 {
		t.updateFrom(grand)
	}
}

func (t *ThetaLambdaTree) isLeaf(n int) bool {
	return t.nodes[n].left == nilNode && t.nodes[n].right == nilNode
}

func (t *ThetaLambdaTree) less(a, b int) bool {
	na, nb := &t.nodes[a], &t.nodes[b]
	if na.est != nb.est {
		return na.est < nb.est
	}
	return na.job < nb.job
}

// updateFrom recomputes aggregates from n up to the root.
func (t *ThetaLambdaTree) updateFrom(n int) {
	for n != 0 {
		node := &t.nodes[n]
		l, r := &t.nodes[node.left], &t.nodes[node.right]
		node.est, node.job = l.est, l.job
		if t.less(node.right, node.left) {
			node.est, node.job = r.est, r.job
		}
		node.energy = l.energy + r.energy
		node.env = max(clampedAdd(l.env, r.energy), r.env)
		node.energyL = max(clampedAdd(l.energyL, r.energy), clampedAdd(l.energy, r.energyL))
		node.envL = max(clampedAdd(l.envL, r.energy), clampedAdd(l.env, r.energyL), r.envL)
		n = node.parent
	}
}

func (t *ThetaLambdaTree) alloc() int {
	if n := len(t.freeList); n > 0 {
		idx := t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
		return idx
	}
	t.nodes = append(t.nodes, tlNode{})
	return len(t.nodes) - 1
}

func (t *ThetaLambdaTree) release(n int) {
	t.freeList = append(t.freeList, n)
}

// traceMode selects which aggregate a backtrace step is explaining.
type traceMode uint8

const (
	traceEnvL traceMode = iota
	traceEnergyL
	traceEnv
	traceCollect
)

type traceTask struct {
	node int
	mode traceMode
}

// witness re-plays the max decisions behind the root envelopeLambda and
// returns the responsible Lambda leaf together with the contributing Theta
// jobs as (job, est) pairs. Ties resolve toward the first matching term, so
// repeated calls on an unchanged tree return the same witness. Iterative
// with an explicit stack; depth imposes no recursion limit.
func (t *ThetaLambdaTree) witness() (int, []omegaEntry) {
	root := t.nodes[0].left
	if root == nilNode || t.nodes[root].envL <= minusInfinity/2 {
		return nilNode, nil
	}
	lambdaLeaf := nilNode
	var omega []omegaEntry
	stack := []traceTask{{root, traceEnvL}}
	for len(stack) > 0 {
		tk := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := tk.node
		if t.isLeaf(n) {
			switch tk.mode {
			case traceEnvL, traceEnergyL:
				lambdaLeaf = n
			case traceEnv:
				omega = append(omega, omegaEntry{job: t.nodes[n].job, est: t.nodes[n].est})
			case traceCollect:
				if t.nodes[n].inTheta {
					omega = append(omega, omegaEntry{job: t.nodes[n].job, est: t.nodes[n].est})
				}
			}
			continue
		}
		node := t.nodes[n]
		l, r := t.nodes[node.left], t.nodes[node.right]
		switch tk.mode {
		case traceEnvL:
			switch {
			case node.envL == clampedAdd(l.envL, r.energy):
				stack = append(stack, traceTask{node.left, traceEnvL}, traceTask{node.right, traceCollect})
			case node.envL == clampedAdd(l.env, r.energyL):
				stack = append(stack, traceTask{node.left, traceEnv}, traceTask{node.right, traceEnergyL})
			case node.envL == r.envL:
				stack = append(stack, traceTask{node.right, traceEnvL})
			default:
				panic("ThetaLambdaTree.witness: envelopeLambda matches no child term")
			}
		case traceEnergyL:
			switch {
			case node.energyL == clampedAdd(l.energyL, r.energy):
				stack = append(stack, traceTask{node.left, traceEnergyL}, traceTask{node.right, traceCollect})
			case node.energyL == clampedAdd(l.energy, r.energyL):
				stack = append(stack, traceTask{node.left, traceCollect}, traceTask{node.right, traceEnergyL})
			default:
				panic("ThetaLambdaTree.witness: energyLambda matches no child term")
			}
		case traceEnv:
			switch {
			case node.env == clampedAdd(l.env, r.energy):
				stack = append(stack, traceTask{node.left, traceEnv}, traceTask{node.right, traceCollect})
			case node.env == r.env:
				stack = append(stack, traceTask{node.right, traceEnv})
			default:
				panic("ThetaLambdaTree.witness: envelope matches no child term")
			}
		case traceCollect:
			stack = append(stack, traceTask{node.left, traceCollect}, traceTask{node.right, traceCollect})
		}
	}
	return lambdaLeaf, omega
}

type omegaEntry struct {
	job int
	est int
}

// FindResponsibleLeaf returns the Lambda leaf whose hypothetical membership
// realizes the root envelopeLambda, or nilNode when no Lambda job exists.
func (t *ThetaLambdaTree) FindResponsibleLeaf() int {
	leaf, _ := t.witness()
	return leaf
}

// ReportOmegaSet returns the Theta jobs contributing to the root
// envelopeLambda, sorted by est (ties by job index) for determinism.
func (t *ThetaLambdaTree) ReportOmegaSet() []int {
	_, omega := t.witness()
	return sortOmega(omega)
}

// Witness returns the responsible Lambda leaf and the contributing Theta
// set in one traversal, guaranteeing both come from the same max decisions.
func (t *ThetaLambdaTree) Witness() (int, []int) {
	leaf, omega := t.witness()
	return leaf, sortOmega(omega)
}

func sortOmega(entries []omegaEntry) []int {
	sort.Slice(entries, func(a, b int) bool {
		if entries[a].est != entries[b].est {
			return entries[a].est < entries[b].est
		}
		return entries[a].job < entries[b].job
	})
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.job
	}
	return out
}
