// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package trials

import (
	"time"

	"k8s.io/utils/clock"
)

// Default supply settings.
const (
	DefaultCasesLimit             = 100
	DefaultStarvationRatio        = 100
	DefaultComplexityLimit        = 100
	DefaultShrinkageAttemptsLimit = 100
)

// settings is the resolved configuration of one Supplier.
type settings struct {
	casesLimit        int
	starvationRatio   int
	strategy          StrategyFactory
	timeBudget        time.Duration
	clock             clock.PassiveClock
	complexityLimit   int
	shrinkageAttempts int
	shrinkageStop     any // func() func(T) bool, checked by NewSupplier
	validTrialsCheck  bool
	seed              uint64
	recipe            string
	hasRecipe         bool
	recipeHash        string
	hashStore         RecipeStore
	store             RecipeStore
	metrics           *Metrics
	errs              []error
}

func defaultSettings() settings {
	return settings{
		casesLimit:        DefaultCasesLimit,
		starvationRatio:   DefaultStarvationRatio,
		clock:             clock.RealClock{},
		complexityLimit:   DefaultComplexityLimit,
		shrinkageAttempts: DefaultShrinkageAttemptsLimit,
		validTrialsCheck:  true,
		seed:              DefaultSeed,
	}
}

func (s *settings) fail(err error) {
	s.errs = append(s.errs, err)
}

// strategyFactory picks the configured strategy: an explicit factory, then a
// time budget, then the counted limit.
func (s *settings) strategyFactory() StrategyFactory {
	switch {
	case s.strategy != nil:
		return s.strategy
	case s.timeBudget > 0:
		return timedFactory(s.timeBudget, s.clock)
	default:
		return countedFactory(s.casesLimit, s.starvationRatio)
	}
}

// Option configures a Supplier.
type Option func(*settings)

// WithLimit caps the number of cases emitted during discovery.
func WithLimit(casesLimit int) Option {
	return func(s *settings) {
		if casesLimit < 0 {
			s.fail(configErrorf("cases limit", "%d is negative", casesLimit))
			return
		}
		s.casesLimit = casesLimit
	}
}

// WithStarvationRatio bounds starved attempts to casesLimit × ratio.
func WithStarvationRatio(ratio int) Option {
	return func(s *settings) {
		if ratio < 0 {
			s.fail(configErrorf("starvation ratio", "%d is negative", ratio))
			return
		}
		s.starvationRatio = ratio
	}
}

// WithStrategy replaces the counted limit with a strategy factory, which is
// called once per supply cycle.
func WithStrategy(factory StrategyFactory) Option {
	return func(s *settings) {
		if factory == nil {
			s.fail(configErrorf("strategy", "nil strategy factory"))
			return
		}
		s.strategy = factory
	}
}

// WithTimeBudget runs each supply cycle for budget of wall-clock time
// instead of a counted number of cases.
func WithTimeBudget(budget time.Duration) Option {
	return func(s *settings) {
		if budget <= 0 {
			s.fail(configErrorf("time budget", "%v is not positive", budget))
			return
		}
		s.timeBudget = budget
	}
}

// WithClock sets the clock behind WithTimeBudget and shrinkage timing.
func WithClock(c clock.PassiveClock) Option {
	return func(s *settings) {
		if c == nil {
			s.fail(configErrorf("clock", "nil clock"))
			return
		}
		s.clock = c
	}
}

// WithComplexityLimit sets the complexity beyond which generation curtails
// expansion.
func WithComplexityLimit(limit int) Option {
	return func(s *settings) {
		if limit < 1 {
			s.fail(configErrorf("complexity limit", "%d is less than 1", limit))
			return
		}
		s.complexityLimit = limit
	}
}

// WithShrinkageAttemptsLimit caps the consumer invocations spent on
// shrinkage. Zero disables shrinkage.
func WithShrinkageAttemptsLimit(attempts int) Option {
	return func(s *settings) {
		if attempts < 0 {
			s.fail(configErrorf("shrinkage attempts limit", "%d is negative", attempts))
			return
		}
		s.shrinkageAttempts = attempts
	}
}

// WithShrinkageStop ends shrinkage early once the predicate returned by
// build accepts the current best case. build is called once per search, so
// the predicate may keep state.
func WithShrinkageStop[T any](build func() func(T) bool) Option {
	return func(s *settings) {
		if build == nil {
			s.fail(configErrorf("shrinkage stop", "nil predicate builder"))
			return
		}
		s.shrinkageStop = build
	}
}

// NoStopping never stops shrinkage early.
func NoStopping[T any]() func(T) bool {
	return func(T) bool { return false }
}

// NoShrinking stops shrinkage before it starts.
func NoShrinking[T any]() func(T) bool {
	return func(T) bool { return true }
}

// WithValidTrialsCheck controls whether a discovery cycle without a single
// valid trial fails with ErrNoValidTrials. It is on by default.
func WithValidTrialsCheck(enabled bool) Option {
	return func(s *settings) { s.validTrialsCheck = enabled }
}

// WithSeed seeds discovery. Equal seeds yield equal case sequences.
func WithSeed(seed uint64) Option {
	return func(s *settings) { s.seed = seed }
}

// WithRecipe switches the supplier to replay: every supply call builds the
// single case recipe denotes, with no discovery and no shrinkage.
func WithRecipe(recipe string) Option {
	return func(s *settings) {
		s.recipe = recipe
		s.hasRecipe = true
	}
}

// WithRecipeHash is WithRecipe with the recipe looked up in store by hash.
func WithRecipeHash(store RecipeStore, hash string) Option {
	return func(s *settings) {
		if store == nil {
			s.fail(configErrorf("recipe store", "nil store for recipe hash %s", hash))
			return
		}
		s.hashStore = store
		s.recipeHash = hash
	}
}

// WithRecipeStore records every final failing recipe in store, if it
// accepts recipes.
func WithRecipeStore(store RecipeStore) Option {
	return func(s *settings) { s.store = store }
}

// WithMetrics records supply activity in m.
func WithMetrics(m *Metrics) Option {
	return func(s *settings) { s.metrics = m }
}
