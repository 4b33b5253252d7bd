// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package trials

import "errors"

// Evaluation outcomes that reject a case without failing the supply call.
// All of them count as starvation.
var (
	errRejected   = errors.New("trials: case rejected by filter")
	errImpossible = errors.New("trials: generator has no cases")
	errTooComplex = errors.New("trials: case exceeds the complexity ceiling")
)

// isStarvation reports whether an evaluation error merely rejects the case.
func isStarvation(err error) bool {
	return errors.Is(err, errRejected) || errors.Is(err, errImpossible) || errors.Is(err, errTooComplex)
}

// evaluator interprets a node tree under a decision source, recording the
// decision trace as it goes. One evaluator builds one case.
type evaluator[S decisionSource[S]] struct {
	src        S
	complexity complexity
}

// evaluate builds one case from root, following hint when src uses hints.
func evaluate[S decisionSource[S]](root node, src S, limit int, hint *traceNode) (Erased, *traceNode, error) {
	e := evaluator[S]{src: src, complexity: newComplexity(limit)}
	return e.eval(root, hint)
}

func (e *evaluator[S]) eval(n node, hint *traceNode) (Erased, *traceNode, error) {
	switch n := n.(type) {
	case *onlyNode:
		return n.value, nil, nil
	case *choiceNode:
		i, err := e.src.choice(hint, n.weights, e.complexity.curtailed(), 0)
		if err != nil {
			return nil, nil, err
		}
		return n.values[i], &traceNode{tok: Decision{Kind: DecisionChoice, Index: i, Of: len(n.values)}}, nil
	case *factoryNode:
		x, err := e.src.input(hint, n, e.complexity.curtailed())
		if err != nil {
			return nil, nil, err
		}
		return n.apply(x), &traceNode{tok: Decision{Kind: DecisionInput, Input: x}, target: n.shrunk}, nil
	case *mapNode:
		v, t, err := e.eval(n.source, hint)
		if err != nil {
			return nil, nil, err
		}
		return n.f(v), t, nil
	case *mapFilterNode:
		v, t, err := e.eval(n.source, hint)
		if err != nil {
			return nil, nil, err
		}
		w, ok := n.f(v)
		if !ok {
			return nil, nil, errRejected
		}
		return w, t, nil
	case *filterNode:
		v, t, err := e.eval(n.source, hint)
		if err != nil {
			return nil, nil, err
		}
		if !n.p(v) {
			return nil, nil, errRejected
		}
		return v, t, nil
	case *flatMapNode:
		left, lt, err := e.eval(n.source, hint.group(0))
		if err != nil {
			return nil, nil, err
		}
		if err := e.complexity.expand(); err != nil {
			return nil, nil, err
		}
		right, rt, err := e.eval(n.f(left), hint.group(1))
		if err != nil {
			return nil, nil, err
		}
		return right, &traceNode{children: []*traceNode{lt, rt}}, nil
	case *alternationNode:
		curtailed := e.complexity.curtailed()
		i, err := e.src.choice(hint, n.weights, curtailed, n.soonestTerminating())
		if err != nil {
			return nil, nil, err
		}
		if err := e.complexity.expand(); err != nil {
			return nil, nil, err
		}
		var branchHint *traceNode
		if hint.is(DecisionChoice) && hint.tok.Index == i {
			branchHint = hint.child(0)
		}
		v, bt, err := e.eval(n.branches[i], branchHint)
		if err != nil {
			return nil, nil, err
		}
		return v, &traceNode{tok: Decision{Kind: DecisionChoice, Index: i, Of: len(n.branches)}, children: []*traceNode{bt}}, nil
	case *delayNode:
		return e.eval(n.resolve(), hint)
	case *impossibleNode, nil:
		return nil, nil, errImpossible
	case *complexitiesNode:
		return e.complexity.current, nil, nil
	case *collectionNode:
		if n.size >= 0 {
			return e.evalFixed(n, hint)
		}
		return e.evalVariable(n, hint)
	case *sequenceNode:
		b := n.newBuilder()
		children := make([]*traceNode, len(n.elements))
		for i, el := range n.elements {
			v, t, err := e.eval(el, hint.group(i))
			if err != nil {
				return nil, nil, err
			}
			b.add(v)
			children[i] = t
		}
		return b.build(), &traceNode{children: children}, nil
	default:
		panic("trials: unknown node type")
	}
}

func (e *evaluator[S]) evalFixed(n *collectionNode, hint *traceNode) (Erased, *traceNode, error) {
	b := n.newBuilder()
	children := make([]*traceNode, n.size)
	for i := range n.size {
		if err := e.complexity.expand(); err != nil {
			return nil, nil, err
		}
		v, t, err := e.eval(n.element, hint.group(i))
		if err != nil {
			return nil, nil, err
		}
		b.add(v)
		children[i] = t
	}
	return b.build(), &traceNode{children: children}, nil
}

func (e *evaluator[S]) evalVariable(n *collectionNode, hint *traceNode) (Erased, *traceNode, error) {
	size, err := e.src.size(hint)
	if err != nil {
		return nil, nil, err
	}
	var elementHints *traceNode
	if hint.is(DecisionSize) {
		elementHints = hint
	}
	b := n.newBuilder()
	var children []*traceNode
	for i := 0; ; i++ {
		if size >= 0 {
			if i == size {
				break
			}
		} else if e.complexity.curtailed() || !e.src.more() {
			break
		}
		if err := e.complexity.expand(); err != nil {
			return nil, nil, err
		}
		v, t, err := e.eval(n.element, elementHints.child(i))
		if err != nil {
			return nil, nil, err
		}
		b.add(v)
		children = append(children, t)
	}
	return b.build(), &traceNode{tok: Decision{Kind: DecisionSize, Size: len(children)}, children: children}, nil
}

// group returns the i-th part of a structural hint, or nil when hint is not
// a group.
func (t *traceNode) group(i int) *traceNode {
	if !t.is(kindGroup) {
		return nil
	}
	return t.child(i)
}
