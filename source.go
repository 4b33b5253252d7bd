// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package trials

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// DefaultSeed seeds discovery when no seed is configured, so that supply
// calls are reproducible out of the box.
const DefaultSeed uint64 = 0x7472_6961_6c73 // "trials"

// decisionSource is an F-bounded interface for the three ways of deciding
// what a node produces. The type parameter S is the concrete source, which
// lets the evaluator be monomorphized per source. Three sources:
//   - *randomSource: draws fresh decisions (discovery)
//   - *replaySource: reads the token stream of a recipe (replay)
//   - *guidedSource: follows a candidate trace, filling gaps with the simplest decisions (shrinkage)
//
// The hint is the node of the trace being followed at the same position, or
// nil when there is none.
type decisionSource[S decisionSource[S]] interface {
	// choice picks an entry index; simplest is the preferred index when the
	// evaluation is curtailed or a hint is unusable.
	choice(hint *traceNode, w weights, curtailed bool, simplest int) (int, error)
	// input picks a factory input within the factory's bounds.
	input(hint *traceNode, f *factoryNode, curtailed bool) (int64, error)
	// size picks a variable collection size, or -1 to decide element by
	// element through more.
	size(hint *traceNode) (int, error)
	// more reports whether a collection sized element by element grows again.
	more() bool
}

// randomSource draws decisions from a seeded PCG stream.
type randomSource struct {
	rng *rand.Rand
}

func newRandomSource(seed uint64) *randomSource {
	return &randomSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *randomSource) choice(_ *traceNode, w weights, curtailed bool, simplest int) (int, error) {
	if curtailed {
		return simplest, nil
	}
	return w.pick(s.rng.IntN(w.total())), nil
}

func (s *randomSource) input(_ *traceNode, f *factoryNode, curtailed bool) (int64, error) {
	if curtailed {
		return f.shrunk, nil
	}
	span := uint64(f.upper) - uint64(f.lower)
	var offset uint64
	if span == math.MaxUint64 {
		offset = s.rng.Uint64()
	} else {
		offset = s.rng.Uint64N(span + 1)
	}
	return int64(uint64(f.lower) + offset), nil
}

func (s *randomSource) size(*traceNode) (int, error) { return -1, nil }

// more continues a collection with probability 3/4, giving a mean of three
// elements before curtailment.
func (s *randomSource) more() bool { return s.rng.IntN(4) < 3 }

// replaySource reads decisions strictly in order from a recipe.
type replaySource struct {
	tokens  []Decision
	pos     int
	maxSize int
}

func (s *replaySource) next(kind DecisionKind) (Decision, error) {
	if s.pos >= len(s.tokens) {
		return Decision{}, &RecipeMismatchError{Position: s.pos, Reason: fmt.Sprintf("recipe ended where a %s decision is needed", kind)}
	}
	d := s.tokens[s.pos]
	if d.Kind != kind {
		return Decision{}, &RecipeMismatchError{Position: s.pos, Reason: fmt.Sprintf("found a %s decision where a %s decision is needed", d.Kind, kind)}
	}
	s.pos++
	return d, nil
}

func (s *replaySource) choice(_ *traceNode, w weights, _ bool, _ int) (int, error) {
	d, err := s.next(DecisionChoice)
	if err != nil {
		return 0, err
	}
	n := len(w.cumulative)
	if d.Of != n {
		return 0, &RecipeMismatchError{Position: s.pos - 1, Reason: fmt.Sprintf("choice among %d entries where the generator offers %d", d.Of, n)}
	}
	if d.Index < 0 || d.Index >= n {
		return 0, &RecipeMismatchError{Position: s.pos - 1, Reason: fmt.Sprintf("choice index %d out of range [0, %d)", d.Index, n)}
	}
	return d.Index, nil
}

func (s *replaySource) input(_ *traceNode, f *factoryNode, _ bool) (int64, error) {
	d, err := s.next(DecisionInput)
	if err != nil {
		return 0, err
	}
	if d.Input < f.lower || d.Input > f.upper {
		return 0, &RecipeMismatchError{Position: s.pos - 1, Reason: fmt.Sprintf("input %d outside [%d, %d]", d.Input, f.lower, f.upper)}
	}
	return d.Input, nil
}

func (s *replaySource) size(*traceNode) (int, error) {
	d, err := s.next(DecisionSize)
	if err != nil {
		return 0, err
	}
	if d.Size < 0 {
		return 0, &RecipeMismatchError{Position: s.pos - 1, Reason: fmt.Sprintf("negative size %d", d.Size)}
	}
	if d.Size > s.maxSize {
		return 0, &RecipeMismatchError{Position: s.pos - 1, Reason: fmt.Sprintf("size %d exceeds the complexity ceiling %d", d.Size, s.maxSize)}
	}
	return d.Size, nil
}

func (s *replaySource) more() bool { return false }

// remaining reports how many tokens were left unread.
func (s *replaySource) remaining() int { return len(s.tokens) - s.pos }

// guidedSource follows the hint trace where it fits and otherwise makes the
// simplest decision, so any edited trace still yields a valid case.
type guidedSource struct{}

func (guidedSource) choice(hint *traceNode, w weights, _ bool, simplest int) (int, error) {
	n := len(w.cumulative)
	if hint.is(DecisionChoice) && hint.tok.Of == n && hint.tok.Index >= 0 && hint.tok.Index < n {
		return hint.tok.Index, nil
	}
	return simplest, nil
}

func (guidedSource) input(hint *traceNode, f *factoryNode, _ bool) (int64, error) {
	if hint.is(DecisionInput) && hint.tok.Input >= f.lower && hint.tok.Input <= f.upper {
		return hint.tok.Input, nil
	}
	return f.shrunk, nil
}

func (guidedSource) size(hint *traceNode) (int, error) {
	if hint.is(DecisionSize) && hint.tok.Size >= 0 {
		return hint.tok.Size, nil
	}
	return 0, nil
}

func (guidedSource) more() bool { return false }
