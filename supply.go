// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package trials

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"runtime/debug"

	"github.com/go-logr/logr"
)

// Supplier feeds cases of a generator to consumers.
//
// A supply call first discovers cases, handing each to the consumer. The
// first case the consumer fails on is shrunk to a simpler failing case, and
// the call returns a single *TrialError carrying that case and a recipe that
// reproduces it. A Supplier holds no per-call state, so concurrent supply
// calls on one Supplier are safe provided the consumers are.
type Supplier[T any] struct {
	root node
	s    settings
	stop func() func(T) bool

	// replay is set when the supplier replays a single recipe.
	replay *string
}

// trial is one case handed to a consumer.
type trial[T any] struct {
	value     T
	trace     *traceNode
	recipe    string
	shrinking bool
}

// NewSupplier validates opts and binds them to g. Invalid settings fail with
// a *ConfigurationError; a recipe that does not fit g fails with a
// *RecipeMismatchError and a recipe hash missing from its store with a
// *RecipeNotFoundError.
func NewSupplier[T any](g Generator[T], opts ...Option) (*Supplier[T], error) {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	switch len(s.errs) {
	case 0:
	case 1:
		return nil, s.errs[0]
	default:
		return nil, errors.Join(s.errs...)
	}
	p := &Supplier[T]{root: g.root(), s: s}
	if s.shrinkageStop != nil {
		build, ok := s.shrinkageStop.(func() func(T) bool)
		if !ok {
			var zero T
			return nil, configErrorf("shrinkage stop", "predicate builder %T does not accept cases of type %T", s.shrinkageStop, zero)
		}
		p.stop = build
	}
	if s.hashStore != nil {
		if s.hasRecipe {
			return nil, configErrorf("recipe", "both a recipe and a recipe hash are set")
		}
		recipe, err := LookupRecipe(s.hashStore, s.recipeHash)
		if err != nil {
			return nil, err
		}
		s.recipe, s.hasRecipe = recipe, true
	}
	if s.hasRecipe {
		if _, _, err := replay(p.root, s.recipe, replayLimit(s.complexityLimit)); err != nil {
			return nil, err
		}
		recipe := s.recipe
		p.replay = &recipe
	}
	return p, nil
}

// SupplyTo hands cases to consumer until the limit strategy is done or the
// consumer fails. A nil return means every case passed or was filtered.
//
// A consumer error matching ErrFiltered rejects the case instead of failing
// it. Any other error, or a panic, starts shrinkage; the call then returns
// the *TrialError for the simplest failing case found. Cancellation of ctx
// is checked between cases.
func (p *Supplier[T]) SupplyTo(ctx context.Context, consumer func(T) error) error {
	return p.supply(ctx, func(t trial[T]) error { return consumer(t.value) }, false)
}

// supply runs one supply cycle. When iterating, consume is a range loop
// body: its panics unwind to the caller untouched and nothing is shrunk.
func (p *Supplier[T]) supply(ctx context.Context, consume func(trial[T]) error, iterating bool) error {
	if p.replay != nil {
		return p.supplyReplay(ctx, consume, iterating)
	}
	logger := logr.FromContextOrDiscard(ctx)

	strategy := p.s.strategyFactory()(CaseSupplyCycle{})
	if err := claimStrategy(strategy); err != nil {
		return err
	}
	src := newRandomSource(p.s.seed)
	seen := make(map[string]struct{})
	valid, emitted, starved := 0, 0, 0
	for strategy.MoreToDo() {
		if err := ctx.Err(); err != nil {
			return err
		}
		v, t, err := evaluate(p.root, src, p.s.complexityLimit, nil)
		if err != nil {
			if !isStarvation(err) {
				return err
			}
			strategy.NoteStarvation()
			p.s.metrics.starved()
			starved++
			continue
		}
		recipe := encodeDecisions(t.decisions())
		if _, dup := seen[recipe]; dup {
			strategy.NoteStarvation()
			p.s.metrics.starved()
			starved++
			continue
		}
		seen[recipe] = struct{}{}
		strategy.NoteEmissionOfCase()
		p.s.metrics.emitted()
		emitted++

		c := trial[T]{value: cast[T](v), trace: t, recipe: recipe}
		err = p.call(consume, c, iterating)
		switch {
		case err == nil:
			valid++
		case errors.Is(err, errStopped):
			return err
		case isFiltration(err):
			strategy.NoteRejectionOfCase()
			p.s.metrics.rejected()
		case iterating:
			return err
		default:
			logger.V(1).Info("trial failed, shrinking", "case", fmt.Sprintf("%v", c.value), "error", err.Error())
			return p.fail(ctx, consume, c, err)
		}
	}
	logger.V(1).Info("discovery finished", "emitted", emitted, "valid", valid, "starved", starved)
	if p.s.validTrialsCheck && valid == 0 {
		return ErrNoValidTrials
	}
	return nil
}

func (p *Supplier[T]) supplyReplay(ctx context.Context, consume func(trial[T]) error, iterating bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v, t, err := replay(p.root, *p.replay, replayLimit(p.s.complexityLimit))
	if err != nil {
		return err
	}
	c := trial[T]{value: cast[T](v), trace: t.root, recipe: EncodeRecipe(t)}
	err = p.call(consume, c, iterating)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errStopped):
		return err
	case isFiltration(err):
		if p.s.validTrialsCheck {
			return ErrNoValidTrials
		}
		return nil
	default:
		p.s.metrics.failed()
		return newTrialError(c, err)
	}
}

// fail shrinks a failing case and wraps the result.
func (p *Supplier[T]) fail(ctx context.Context, consume func(trial[T]) error, c trial[T], err error) error {
	s := newShrinker(ctx, p, consume, c, err)
	if halt := s.run(ctx); halt != nil {
		return halt
	}
	p.s.metrics.failed()
	if sink, ok := p.s.store.(RecipeSink); ok {
		sink.Put(s.best.recipe)
	}
	return newTrialError(s.best, s.bestErr)
}

func newTrialError[T any](c trial[T], err error) *TrialError[T] {
	return &TrialError[T]{
		ProvokingCase: c.value,
		Recipe:        c.recipe,
		RecipeHash:    RecipeHash(c.recipe),
		Err:           err,
	}
}

// call hands c to consume, recovering panics unless iterating.
func (p *Supplier[T]) call(consume func(trial[T]) error, c trial[T], iterating bool) error {
	if iterating {
		return consume(c)
	}
	return p.invoke(consume, c)
}

// invoke runs consume, converting a panic into a *PanicError.
func (p *Supplier[T]) invoke(consume func(trial[T]) error, c trial[T]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return consume(c)
}

// CaseIterator pulls accepted discovery cases one at a time.
// It is finite and cannot be restarted.
type CaseIterator[T any] struct {
	next func() (T, bool)
	stop func()
}

// Next returns the next case, or false once the cases are exhausted.
func (it *CaseIterator[T]) Next() (T, bool) { return it.next() }

// Stop releases the iterator; Next returns false afterwards.
func (it *CaseIterator[T]) Stop() { it.stop() }

// Cases returns the cases discovery would hand to a consumer, without
// failure handling or shrinkage.
func (p *Supplier[T]) Cases(ctx context.Context) *CaseIterator[T] {
	next, stop := iter.Pull(p.All(ctx))
	return &CaseIterator[T]{next: next, stop: stop}
}

// All returns the discovery cases as a push iterator. A panic in the loop
// body reaches the caller unchanged; All never shrinks.
func (p *Supplier[T]) All(ctx context.Context) iter.Seq[T] {
	return func(yield func(T) bool) {
		_ = p.supply(ctx, func(t trial[T]) error {
			if !yield(t.value) {
				return errStopped
			}
			return nil
		}, true)
	}
}
