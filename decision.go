// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package trials

import (
	"fmt"
	"strings"
)

// DecisionKind classifies a recorded decision.
type DecisionKind uint8

const (
	kindGroup DecisionKind = iota // structural, never serialized

	// DecisionChoice selects an entry of a choice or a branch of an alternation.
	DecisionChoice
	// DecisionInput is the input fed to a case factory.
	DecisionInput
	// DecisionSize is the element count of a variable-size collection.
	DecisionSize
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionChoice:
		return "choice"
	case DecisionInput:
		return "input"
	case DecisionSize:
		return "size"
	default:
		return "group"
	}
}

// Decision is one token of a recipe.
type Decision struct {
	Kind  DecisionKind
	Index int   // DecisionChoice
	Of    int   // DecisionChoice: number of entries
	Input int64 // DecisionInput
	Size  int   // DecisionSize
}

func (d Decision) String() string {
	switch d.Kind {
	case DecisionChoice:
		return fmt.Sprintf("choice %d of %d", d.Index, d.Of)
	case DecisionInput:
		return fmt.Sprintf("input %d", d.Input)
	case DecisionSize:
		return fmt.Sprintf("size %d", d.Size)
	default:
		return "group"
	}
}

// traceNode is one node of a decision trace.
//
// The trace mirrors evaluation: an alternation records its choice with the
// branch trace as the only child, a variable collection records its size with
// one child per element, and flatMap or fixed-size collections record a group
// whose children are their parts. Nodes that decide nothing leave nil.
type traceNode struct {
	tok      Decision
	target   int64 // DecisionInput: the maximally shrunk input
	children []*traceNode
}

func (t *traceNode) is(kind DecisionKind) bool {
	return t != nil && t.tok.Kind == kind
}

func (t *traceNode) child(i int) *traceNode {
	if t == nil || i < 0 || i >= len(t.children) {
		return nil
	}
	return t.children[i]
}

// walk visits the token nodes of t in pre-order.
func (t *traceNode) walk(visit func(*traceNode)) {
	if t == nil {
		return
	}
	if t.tok.Kind != kindGroup {
		visit(t)
	}
	for _, c := range t.children {
		c.walk(visit)
	}
}

// tokens returns the token nodes of t in pre-order.
func (t *traceNode) tokens() []*traceNode {
	var out []*traceNode
	t.walk(func(n *traceNode) { out = append(out, n) })
	return out
}

// decisions flattens t into the token stream a recipe serializes.
func (t *traceNode) decisions() []Decision {
	out := make([]Decision, 0, 8)
	t.walk(func(n *traceNode) { out = append(out, n.tok) })
	return out
}

// replace returns a copy of t in which target is swapped for with.
// Subtrees not on the path to target are shared.
func (t *traceNode) replace(target, with *traceNode) *traceNode {
	if t == target {
		return with
	}
	if t == nil || len(t.children) == 0 {
		return t
	}
	var children []*traceNode
	for i, c := range t.children {
		r := c.replace(target, with)
		if r != c && children == nil {
			children = make([]*traceNode, len(t.children))
			copy(children, t.children)
		}
		if children != nil {
			children[i] = r
		}
	}
	if children == nil {
		return t
	}
	cp := *t
	cp.children = children
	return &cp
}

// distance is the per-token shrink measure: how far a token sits from its
// simplest value.
func (t *traceNode) distance() uint64 {
	switch t.tok.Kind {
	case DecisionChoice:
		return uint64(t.tok.Index)
	case DecisionInput:
		return absDiff(t.tok.Input, t.target)
	case DecisionSize:
		return uint64(t.tok.Size)
	default:
		return 0
	}
}

func absDiff(a, b int64) uint64 {
	if a >= b {
		return uint64(a) - uint64(b)
	}
	return uint64(b) - uint64(a)
}

// measure is the shortlex rank of a trace: token count first, then the
// per-token distances in pre-order.
type measure []uint64

func measureOf(t *traceNode) measure {
	m := measure{}
	t.walk(func(n *traceNode) { m = append(m, n.distance()) })
	return m
}

func (m measure) compare(o measure) int {
	if len(m) != len(o) {
		if len(m) < len(o) {
			return -1
		}
		return 1
	}
	for i := range m {
		switch {
		case m[i] < o[i]:
			return -1
		case m[i] > o[i]:
			return 1
		}
	}
	return 0
}

func (m measure) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, d := range m {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d", d)
	}
	b.WriteByte(']')
	return b.String()
}
