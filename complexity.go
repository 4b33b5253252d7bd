// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package trials

import "math"

// infiniteCost marks a node that cannot terminate without revisiting an
// enclosing alternation or delay, or that yields no cases at all.
const infiniteCost = math.MaxInt

func saturatingAdd(a, b int) int {
	if a == infiniteCost || b == infiniteCost || a > infiniteCost-b {
		return infiniteCost
	}
	return a + b
}

func saturatingMul(n, c int) int {
	if n == 0 || c == 0 {
		return 0
	}
	if c == infiniteCost || n > infiniteCost/c {
		return infiniteCost
	}
	return n * c
}

// terminationCost is a static estimate of the complexity a node adds before
// it terminates, counting flatMap expansions and alternations only. Paths that
// re-enter a node in visiting are infinite; variable-size collections can
// always stop at zero elements.
//
// The estimate never evaluates flatMap continuations, so it is a lower bound
// for the right-hand side.
func terminationCost(n node, visiting map[node]bool) int {
	switch n := n.(type) {
	case *onlyNode, *choiceNode, *factoryNode, *complexitiesNode:
		return 0
	case *impossibleNode, nil:
		return infiniteCost
	case *mapNode:
		return terminationCost(n.source, visiting)
	case *mapFilterNode:
		return terminationCost(n.source, visiting)
	case *filterNode:
		return terminationCost(n.source, visiting)
	case *flatMapNode:
		return saturatingAdd(1, terminationCost(n.source, visiting))
	case *alternationNode:
		if visiting[n] {
			return infiniteCost
		}
		visiting[n] = true
		defer delete(visiting, n)
		least := infiniteCost
		for _, b := range n.branches {
			least = min(least, terminationCost(b, visiting))
		}
		return saturatingAdd(1, least)
	case *delayNode:
		if visiting[n] {
			return infiniteCost
		}
		visiting[n] = true
		defer delete(visiting, n)
		return terminationCost(n.resolve(), visiting)
	case *collectionNode:
		if n.size < 0 {
			return 0
		}
		return saturatingMul(n.size, terminationCost(n.element, visiting))
	case *sequenceNode:
		total := 0
		for _, e := range n.elements {
			total = saturatingAdd(total, terminationCost(e, visiting))
		}
		return total
	default:
		panic("trials: unknown node type")
	}
}

// complexity tracks the running complexity of one evaluation.
// It starts at one and only grows.
type complexity struct {
	current int
	limit   int
}

func newComplexity(limit int) complexity {
	return complexity{current: 1, limit: limit}
}

// curtailed reports whether expansion must now prefer termination.
func (c *complexity) curtailed() bool {
	return c.current > c.limit
}

// expand records one more unit of structure. It fails once the running
// complexity overruns twice the limit, abandoning the case.
func (c *complexity) expand() error {
	c.current++
	if c.current-c.limit > c.limit {
		return errTooComplex
	}
	return nil
}
