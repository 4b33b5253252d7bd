// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package trials

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/emirpasic/gods/v2/trees/redblacktree"
	"github.com/go-logr/logr"
)

// Shrinkage walks the decision tokens of the current best failing trace in
// pre-order, one pass after another. At each token it realizes the locally
// simpler neighbours, keeps those whose trace measures strictly smaller than
// the current best, and hands them to the consumer smallest first. The first
// neighbour that still fails becomes the current best and the walk stays at
// the same token; a token without a failing neighbour moves the walk on.
// A pass without improvement ends the search.

// stepOutcome is the result of trying to improve one token position.
type stepOutcome int

const (
	stepUnchanged stepOutcome = iota // no neighbour failed
	stepImproved                     // a neighbour became the current best
	stepPassOver                     // the pass strategy has no more to do
	stepDone                         // the search must end
)

type shrinker[T any] struct {
	p       *Supplier[T]
	consume func(trial[T]) error
	logger  logr.Logger

	best        trial[T]
	bestErr     error
	bestMeasure measure

	attempts int
	failures int
	tried    map[string]struct{}
	stop     func(T) bool
	halt     error
}

func newShrinker[T any](ctx context.Context, p *Supplier[T], consume func(trial[T]) error, seed trial[T], err error) *shrinker[T] {
	stop := NoStopping[T]()
	if p.stop != nil {
		stop = p.stop()
	}
	return &shrinker[T]{
		p:           p,
		consume:     consume,
		logger:      logr.FromContextOrDiscard(ctx).WithName("shrink"),
		best:        seed,
		bestErr:     err,
		bestMeasure: measureOf(seed.trace),
		attempts:    p.s.shrinkageAttempts,
		failures:    1,
		tried:       map[string]struct{}{seed.recipe: {}},
		stop:        stop,
	}
}

// run searches until a local minimum, the attempts budget, the stop
// predicate or cancellation ends it. It returns a non-nil error only when
// the search could not run to a trial failure at all.
func (s *shrinker[T]) run(ctx context.Context) error {
	if s.attempts == 0 || s.stop(s.best.value) {
		return nil
	}
	clk := s.p.s.clock
	started := clk.Now()
	defer func() { s.p.s.metrics.shrinkTook(clk.Since(started)) }()

	factory := s.p.s.strategyFactory()
	for pass := 0; ; pass++ {
		strategy := factory(CaseSupplyCycle{NumberOfPreviousCycles: pass + 1, NumberOfPreviousFailures: s.failures})
		if err := claimStrategy(strategy); err != nil {
			return err
		}
		improved := false
		outcome := stepUnchanged
	walk:
		for pos := 0; pos < s.best.trace.tokenCount(); {
			outcome = s.improveAt(ctx, pos, strategy)
			switch outcome {
			case stepImproved:
				improved = true
			case stepUnchanged:
				pos++
			case stepPassOver, stepDone:
				break walk
			}
		}
		s.logger.V(1).Info("shrinkage pass finished", "pass", pass, "improved", improved,
			"measure", s.bestMeasure.String(), "attemptsLeft", s.attempts)
		if outcome == stepDone || !improved {
			return s.halt
		}
	}
}

// candidate is a realized neighbour of the current best.
type candidate[T any] struct {
	trial   trial[T]
	measure measure
}

// rankKey orders candidates by measure, shortlex, then by recipe. Each
// measure component is fixed-width so that string order is shortlex order.
func rankKey(m measure, recipe string) string {
	var b strings.Builder
	b.Grow(17*(len(m)+1) + len(recipe))
	fmt.Fprintf(&b, "%016x|", len(m))
	for _, d := range m {
		fmt.Fprintf(&b, "%016x|", d)
	}
	b.WriteString(recipe)
	return b.String()
}

func (s *shrinker[T]) improveAt(ctx context.Context, pos int, strategy CasesLimitStrategy) stepOutcome {
	target := s.best.trace.tokens()[pos]
	ranked := redblacktree.New[string, *candidate[T]]()
	for _, hint := range neighbours(s.best.trace, target) {
		v, t, err := evaluate(s.p.root, guidedSource{}, s.p.s.complexityLimit, hint)
		if err != nil {
			continue
		}
		m := measureOf(t)
		if m.compare(s.bestMeasure) >= 0 {
			continue
		}
		recipe := encodeDecisions(t.decisions())
		if _, seen := s.tried[recipe]; seen {
			continue
		}
		ranked.Put(rankKey(m, recipe), &candidate[T]{
			trial:   trial[T]{value: cast[T](v), trace: t, recipe: recipe, shrinking: true},
			measure: m,
		})
	}
	s.logger.V(2).Info("ranked neighbours", "position", pos, "decision", target.tok.String(), "candidates", ranked.Size())

	for _, c := range ranked.Values() {
		if ctx.Err() != nil || s.attempts == 0 {
			return stepDone
		}
		if !strategy.MoreToDo() {
			return stepPassOver
		}
		s.attempts--
		s.tried[c.trial.recipe] = struct{}{}
		strategy.NoteEmissionOfCase()
		s.p.s.metrics.shrinkAttempted()

		err := s.p.invoke(s.consume, c.trial)
		switch {
		case err == nil:
			s.logger.V(2).Info("neighbour passed", "recipe", c.trial.recipe)
		case errors.Is(err, errStopped):
			s.halt = err
			return stepDone
		case isFiltration(err):
			strategy.NoteRejectionOfCase()
		default:
			s.best, s.bestErr, s.bestMeasure = c.trial, err, c.measure
			s.failures++
			s.p.s.metrics.shrinkImproved()
			s.logger.V(1).Info("shrunk failing case", "case", fmt.Sprintf("%v", c.trial.value), "measure", c.measure.String())
			if s.stop(c.trial.value) {
				return stepDone
			}
			return stepImproved
		}
	}
	return stepUnchanged
}

// neighbours returns hint traces that differ from root at target only, each
// locally simpler at that token.
func neighbours(root, target *traceNode) []*traceNode {
	var out []*traceNode
	with := func(repl *traceNode) { out = append(out, root.replace(target, repl)) }
	switch target.tok.Kind {
	case DecisionInput:
		d := absDiff(target.tok.Input, target.target)
		for _, e := range shrinkDistances(d) {
			repl := *target
			repl.tok.Input = towards(target.target, target.tok.Input, e)
			with(&repl)
		}
	case DecisionChoice:
		for j := range target.tok.Index {
			repl := &traceNode{tok: target.tok}
			repl.tok.Index = j
			if len(target.children) > 0 {
				// A different branch is filled with its simplest decisions.
				repl.children = []*traceNode{nil}
			}
			with(repl)
		}
	case DecisionSize:
		n := target.tok.Size
		for _, k := range shrinkDistances(uint64(n)) {
			repl := &traceNode{tok: target.tok, children: target.children[:k:k]}
			repl.tok.Size = int(k)
			with(repl)
		}
		for i := range n {
			children := slices.Delete(slices.Clone(target.children), i, i+1)
			with(&traceNode{tok: Decision{Kind: DecisionSize, Size: n - 1}, children: children})
		}
	}
	return out
}

// shrinkDistances returns the distances below d worth trying: zero, then
// halvings of d measured from both ends, ascending without duplicates.
func shrinkDistances(d uint64) []uint64 {
	if d == 0 {
		return nil
	}
	out := []uint64{0}
	for s := d >> 1; s > 0; s >>= 1 {
		out = append(out, s, d-s)
	}
	slices.Sort(out)
	out = slices.Compact(out)
	return slices.DeleteFunc(out, func(e uint64) bool { return e >= d })
}

// towards returns the value at distance e from target on the side of x.
func towards(target, x int64, e uint64) int64 {
	if x >= target {
		return int64(uint64(target) + e)
	}
	return int64(uint64(target) - e)
}

// tokenCount returns the number of tokens of t.
func (t *traceNode) tokenCount() int {
	n := 0
	t.walk(func(*traceNode) { n++ })
	return n
}
