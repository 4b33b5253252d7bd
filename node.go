// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package trials

import "sync"

// Erased represents a type-erased case flowing through the node tree.
// Concrete types are recovered via type assertions at the Generator boundary.
type Erased = any

// node is the interface for defunctionalized generator nodes.
// Dispatch uses type switches; node is a pure marker interface.
// Nodes are immutable once built; delayNode memoizes its resolution.
type node interface {
	node() // unexported marker method
}

// onlyNode yields a single constant case.
type onlyNode struct {
	value Erased
}

func (*onlyNode) node() {}

// weights holds cumulative weights for a weighted pick.
// cumulative[i] is the sum of the weights of entries 0..i.
type weights struct {
	cumulative []int
}

func newWeights(ws []int, parameter string) weights {
	cumulative := make([]int, len(ws))
	total := 0
	for i, w := range ws {
		if w <= 0 {
			panic(configErrorf(parameter, "weight %d at position %d is not positive", w, i))
		}
		total += w
		cumulative[i] = total
	}
	return weights{cumulative: cumulative}
}

func uniformWeights(n int) weights {
	cumulative := make([]int, n)
	for i := range cumulative {
		cumulative[i] = i + 1
	}
	return weights{cumulative: cumulative}
}

func (w weights) total() int {
	if len(w.cumulative) == 0 {
		return 0
	}
	return w.cumulative[len(w.cumulative)-1]
}

// pick maps a draw in [0, total) to an entry index.
func (w weights) pick(draw int) int {
	lo, hi := 0, len(w.cumulative)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if draw < w.cumulative[mid] {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// choiceNode picks one of a finite set of constant cases.
type choiceNode struct {
	values  []Erased
	weights weights
}

func (*choiceNode) node() {}

// factoryNode streams cases from a case factory's declared input domain.
type factoryNode struct {
	lower, upper, shrunk int64
	apply                func(int64) Erased
}

func (*factoryNode) node() {}

// mapNode transforms the cases of source.
type mapNode struct {
	source node
	f      func(Erased) Erased
}

func (*mapNode) node() {}

// mapFilterNode transforms the cases of source, rejecting those f refuses.
type mapFilterNode struct {
	source node
	f      func(Erased) (Erased, bool)
}

func (*mapFilterNode) node() {}

// flatMapNode feeds each case of source to f, which builds the node that
// supplies the final case. This is the dependent expansion that raises complexity.
type flatMapNode struct {
	source node
	f      func(Erased) node
}

func (*flatMapNode) node() {}

// filterNode rejects cases of source that fail p.
type filterNode struct {
	source node
	p      func(Erased) bool
}

func (*filterNode) node() {}

// alternationNode picks a branch, then delegates to it.
type alternationNode struct {
	branches []node
	weights  weights

	costOnce sync.Once
	costs    []int
}

func (*alternationNode) node() {}

// terminationCosts returns the static termination cost of each branch,
// computed once per tree instance.
func (n *alternationNode) terminationCosts() []int {
	n.costOnce.Do(func() {
		visiting := map[node]bool{n: true}
		n.costs = make([]int, len(n.branches))
		for i, b := range n.branches {
			n.costs[i] = terminationCost(b, visiting)
		}
	})
	return n.costs
}

// soonestTerminating returns the branch index with the least termination cost;
// ties go to the lowest index.
func (n *alternationNode) soonestTerminating() int {
	costs := n.terminationCosts()
	best := 0
	for i, c := range costs {
		if c < costs[best] {
			best = i
		}
	}
	return best
}

// delayNode defers building its node until first traversal.
type delayNode struct {
	once     sync.Once
	thunk    func() node
	resolved node
}

func (*delayNode) node() {}

func (n *delayNode) resolve() node {
	n.once.Do(func() {
		n.resolved = n.thunk()
		n.thunk = nil
	})
	return n.resolved
}

// impossibleNode yields no cases.
type impossibleNode struct{}

func (*impossibleNode) node() {}

// complexitiesNode yields the running complexity of the evaluation.
type complexitiesNode struct{}

func (*complexitiesNode) node() {}

// erasedBuilder is the type-erased accumulator behind collection nodes.
type erasedBuilder interface {
	add(Erased)
	build() Erased
}

// collectionNode accumulates a variable number of elements of one node.
// A non-negative size fixes the number of elements.
type collectionNode struct {
	element    node
	size       int
	newBuilder func() erasedBuilder
}

func (*collectionNode) node() {}

// sequenceNode accumulates one element from each of its nodes, in order.
type sequenceNode struct {
	elements   []node
	newBuilder func() erasedBuilder
}

func (*sequenceNode) node() {}
