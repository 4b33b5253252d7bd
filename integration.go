// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package trials

import (
	"context"
	"errors"
	"iter"
	"sync/atomic"

	"github.com/google/uuid"
)

// recipeNamespace scopes the name-based UUIDs derived from recipes.
var recipeNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://code.hybscloud.com/trials/recipe"))

// IntegrationContext is one case handed to a test host. The host runs its
// test against Case and reports the outcome before pulling the next context.
type IntegrationContext[T any] struct {
	trial    trial[T]
	reported atomic.Uintptr
	err      error
	filtered bool
}

// Case returns the case under test.
func (c *IntegrationContext[T]) Case() T { return c.trial.value }

// Recipe returns the recipe that reproduces Case.
func (c *IntegrationContext[T]) Recipe() string { return c.trial.recipe }

// ID is a name-based UUID of the recipe, stable across runs, suitable for
// naming the test invocation of this case.
func (c *IntegrationContext[T]) ID() uuid.UUID {
	return uuid.NewSHA1(recipeNamespace, []byte(c.trial.recipe))
}

// IsPartOfShrinkage reports whether the case is a shrinkage candidate rather
// than a discovered case. It is meant for display only.
func (c *IntegrationContext[T]) IsPartOfShrinkage() bool { return c.trial.shrinking }

// ReportFailure records the failure of the test run against Case.
// Panics if a failure was already reported for this context.
func (c *IntegrationContext[T]) ReportFailure(err error) {
	if !c.TryReportFailure(err) {
		panic("trials: failure reported twice for one case")
	}
}

// TryReportFailure records err unless a failure was already reported, and
// reports whether it did.
func (c *IntegrationContext[T]) TryReportFailure(err error) bool {
	if c.reported.Add(1) != 1 {
		return false
	}
	c.err = err
	return true
}

// Filtration returns the inlined filtration scope of this context.
func (c *IntegrationContext[T]) Filtration() InlinedFiltration {
	return InlinedFiltration{reject: func() { c.filtered = true }}
}

// outcome classifies the finished test run for the supply loop.
func (c *IntegrationContext[T]) outcome() error {
	switch {
	case c.err != nil && !isFiltration(c.err):
		return c.err
	case c.filtered || c.err != nil:
		return ErrFiltered
	default:
		return nil
	}
}

// ContextIterator pulls integration contexts one at a time. Once Next
// returns false, Err holds the result of the supply cycle: nil, a
// *TrialError, or ErrNoValidTrials.
type ContextIterator[T any] struct {
	next func() (*IntegrationContext[T], bool)
	stop func()
	err  error
}

// Next returns the next context. The outcome of the previous context must
// be reported before calling Next again.
func (it *ContextIterator[T]) Next() (*IntegrationContext[T], bool) { return it.next() }

// Err returns the result of the supply cycle after Next returned false.
func (it *ContextIterator[T]) Err() error { return it.err }

// Stop abandons the cycle.
func (it *ContextIterator[T]) Stop() { it.stop() }

// IntegrationContexts runs a full supply cycle, shrinkage included, handing
// every case to the host as an integration context.
func (p *Supplier[T]) IntegrationContexts(ctx context.Context) *ContextIterator[T] {
	it := &ContextIterator[T]{}
	seq := func(yield func(*IntegrationContext[T]) bool) {
		err := p.supply(ctx, func(t trial[T]) error {
			ic := &IntegrationContext[T]{trial: t}
			if !yield(ic) {
				return errStopped
			}
			return ic.outcome()
		}, false)
		if !errors.Is(err, errStopped) {
			it.err = err
		}
	}
	it.next, it.stop = iter.Pull(iter.Seq[*IntegrationContext[T]](seq))
	return it
}
