// Package cumulative: Theta tree for the overload check.
//
// A Theta tree is a balanced-enough binary tree over a set of jobs ordered
// by earliest start time. Leaves carry one job each; internal nodes
// aggregate the total energy of their subtree and the energy envelope
//
//	envelope(S) = max over non-empty suffixes P of S (in est order) of
//	              capacity*est(P) + energy(P)
//
// where est(P) is the smallest est in the suffix. The root envelope equals
// the best lower bound on capacity*t achievable by any est-aligned subset,
// so envelope > capacity*lct proves an overload.
//
// Nodes live in an arena and are addressed by index; a free list recycles
// removed nodes. Index 0 is a synthetic super-root whose left child is the
// actual root, which removes every root special case from the splice
// operations.
package cumulative

import "fmt"

// nilNode marks an absent child, parent or root.
const nilNode = -1

type thetaNode struct {
	parent int
	left   int
	right  int
	est    int   // minimum est key in the subtree
	job    int   // tie-break job index of that key; leaf identity
	energy int64 // total energy of the subtree
	env    int64 // energy envelope of the subtree
}

// ThetaTree maintains envelope and energy aggregates under leaf insertion
// and removal. The zero value is not usable; construct with NewThetaTree.
type ThetaTree struct {
	capacity int64
	nodes    []thetaNode
	freeList []int
}

// NewThetaTree returns an empty tree for a resource of the given capacity.
// nJobs sizes the arena; inserting more leaves than that still works, it
// merely reallocates. Panics if capacity is not positive.
func NewThetaTree(capacity, nJobs int) *ThetaTree {
	if capacity <= 0 {
		panic(fmt.Sprintf("ThetaTree: capacity must be > 0, got %d", capacity))
	}
	t := &ThetaTree{
		capacity: int64(capacity),
		nodes:    make([]thetaNode, 1, 2*nJobs+1),
	}
	t.nodes[0] = thetaNode{parent: nilNode, left: nilNode, right: nilNode}
	return t
}

// Empty reports whether no leaf is inserted.
func (t *ThetaTree) Empty() bool { return t.nodes[0].left == nilNode }

// Envelope returns the root energy envelope, or 0 for an empty tree.
func (t *ThetaTree) Envelope() int64 {
	root := t.nodes[0].left
	if root == nilNode {
		return 0
	}
	return t.nodes[root].env
}

// Energy returns the total energy of all inserted jobs.
func (t *ThetaTree) Energy() int64 {
	root := t.nodes[0].left
	if root == nilNode {
		return 0
	}
	return t.nodes[root].energy
}

// Reset removes all leaves and recycles the arena.
func (t *ThetaTree) Reset() {
	t.nodes = t.nodes[:1]
	t.nodes[0] = thetaNode{parent: nilNode, left: nilNode, right: nilNode}
	t.freeList = t.freeList[:0]
}

// NewLeaf allocates a leaf for a job with the given earliest start and
// energy. The leaf is not yet part of the tree; pass it to Insert.
func (t *ThetaTree) NewLeaf(est, job int, energy int64) int {
	n := t.alloc()
	t.nodes[n] = thetaNode{
		parent: nilNode,
		left:   nilNode,
		right:  nilNode,
		est:    est,
		job:    job,
		energy: energy,
		env:    t.capacity*int64(est) + energy,
	}
	return n
}

// Insert places the leaf at its est-ordered position, splitting the leaf it
// lands on with a fresh internal node, and refreshes aggregates on the path
// to the root.
func (t *ThetaTree) Insert(leaf int) {
	root := t.nodes[0].left
	if root == nilNode {
		t.nodes[0].left = leaf
		t.nodes[leaf].parent = 0
		return
	}
	cur := root
	for !t.isLeaf(cur) {
		// The right child's key is the minimum of the right subtree, so a
		// smaller new key belongs left of it.
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
	t.nodes[split] = thetaNode{parent: parent, left: cur, right: leaf}
	if t.less(leaf, cur) {
		t.nodes[split].left, t.nodes[split].right = leaf, cur
	}
	t.nodes[cur].parent = split
	t.nodes[leaf].parent = split
	t.updateFrom(split)
}

// Remove detaches a previously inserted leaf. Its parent collapses: the
// sibling takes the parent's place and the internal node returns to the
// free list. The leaf itself stays allocated and owned by the caller until
// the next Reset.
func (t *ThetaTree) Remove(leaf int) {
	parent := t.nodes[leaf].parent
	if parent == nilNode {
		panic("ThetaTree.Remove: leaf is not in the tree")
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

// isLeaf reports whether the node has no children.
func (t *ThetaTree) isLeaf(n int) bool {
	return t.nodes[n].left == nilNode && t.nodes[n].right == nilNode
}

// less orders nodes by their (est, job) key pair.
func (t *ThetaTree) less(a, b int) bool {
	na, nb := &t.nodes[a], &t.nodes[b]
	if na.est != nb.est {
		return na.est < nb.est
	}
	return na.job < nb.job
}

// updateFrom recomputes aggregates from n up to the root.
func (t *ThetaTree) updateFrom(n int) {
	for n != 0 {
		node := &t.nodes[n]
		l, r := &t.nodes[node.left], &t.nodes[node.right]
		node.est, node.job = l.est, l.job
		if t.less(node.right, node.left) {
			node.est, node.job = r.est, r.job
		}
		node.energy = l.energy + r.energy
		node.env = max(l.env+r.energy, r.env)
		n = node.parent
	}
}

func (t *ThetaTree) alloc() int {
	if n := len(t.freeList); n > 0 {
		idx := t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
		return idx
	}
	t.nodes = append(t.nodes, thetaNode{})
	return len(t.nodes) - 1
}

func (t *ThetaTree) release(n int) {
	t.freeList = append(t.freeList, n)
}

// CheckOverload runs Vilim's overload test: jobs enter a Theta tree in
// order of ascending latest completion time, and after each insertion an
// envelope above capacity*lct proves that the inserted jobs cannot all fit.
// On overload it returns the indices of every job inserted so far, a set
// whose windows are jointly infeasible. O(n log n).
func CheckOverload(capacity int, ws []Window) (bool, []int) {
	if len(ws) == 0 {
		return false, nil
	}
	tree := NewThetaTree(capacity, len(ws))
	inserted := make([]int, 0, len(ws))
	for _, i := range sortByLct(ws) {
		w := ws[i]
		tree.Insert(tree.NewLeaf(w.Est(), w.Job, w.Energy()))
		inserted = append(inserted, w.Job)
		if tree.Envelope() > int64(capacity)*int64(w.Lct()) {
			return true, inserted
		}
	}
	return false, nil
}
