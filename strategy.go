// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package trials

import (
	"sync/atomic"
	"time"

	"k8s.io/utils/clock"
)

// CasesLimitStrategy decides how many cases a supply cycle emits.
//
// A strategy carries mutable state for exactly one cycle; the supplier asks
// its strategy factory for a fresh instance per cycle.
type CasesLimitStrategy interface {
	// MoreToDo reports whether the cycle should try to emit another case.
	MoreToDo() bool
	// NoteEmissionOfCase records a case handed to the consumer.
	NoteEmissionOfCase()
	// NoteRejectionOfCase retracts an emission the consumer filtered out.
	NoteRejectionOfCase()
	// NoteStarvation records an attempt that yielded no case.
	NoteStarvation()
}

// CaseSupplyCycle describes the cycle a strategy is built for. Cycle zero is
// discovery; every shrinkage pass is a later cycle.
type CaseSupplyCycle struct {
	NumberOfPreviousCycles   int
	NumberOfPreviousFailures int
}

// IsInitial reports whether the cycle is the discovery cycle.
func (c CaseSupplyCycle) IsInitial() bool {
	return c.NumberOfPreviousCycles == 0
}

// StrategyFactory builds the limit strategy for one supply cycle.
type StrategyFactory func(CaseSupplyCycle) CasesLimitStrategy

// claimer is implemented by strategies that detect reuse across cycles.
type claimer interface {
	claim() bool
}

// affine marks a strategy as bound to at most one cycle.
type affine struct {
	used atomic.Uintptr
}

func (a *affine) claim() bool {
	return a.used.Add(1) == 1
}

// claimStrategy binds s to the cycle about to run.
func claimStrategy(s CasesLimitStrategy) error {
	if s == nil {
		return configErrorf("strategy", "strategy factory returned nil")
	}
	if c, ok := s.(claimer); ok && !c.claim() {
		return configErrorf("strategy", "strategy instance reused across supply cycles; the factory must build a fresh one per cycle")
	}
	return nil
}

// CountedStrategy stops after a number of emitted cases or once starvation
// outgrows the permitted ratio.
type CountedStrategy struct {
	affine
	maxCases           int
	maxStarvationRatio int
	emitted            int
	starved            int
}

// Counted builds a strategy that continues while fewer than maxCases cases
// were emitted and no more than maxCases × maxStarvationRatio attempts
// starved. Panics with a *ConfigurationError on negative arguments.
func Counted(maxCases, maxStarvationRatio int) *CountedStrategy {
	if maxCases < 0 {
		panic(configErrorf("cases limit", "%d is negative", maxCases))
	}
	if maxStarvationRatio < 0 {
		panic(configErrorf("starvation ratio", "%d is negative", maxStarvationRatio))
	}
	return &CountedStrategy{maxCases: maxCases, maxStarvationRatio: maxStarvationRatio}
}

func (s *CountedStrategy) MoreToDo() bool {
	return s.emitted < s.maxCases && s.starved <= s.starvationBound()
}

func (s *CountedStrategy) starvationBound() int {
	return saturatingMul(s.maxCases, s.maxStarvationRatio)
}

func (s *CountedStrategy) NoteEmissionOfCase() { s.emitted++ }

func (s *CountedStrategy) NoteRejectionOfCase() {
	s.emitted--
	s.starved++
}

func (s *CountedStrategy) NoteStarvation() { s.starved++ }

// Emitted returns the number of cases emitted and not retracted.
func (s *CountedStrategy) Emitted() int { return s.emitted }

// Starved returns the number of attempts that yielded no case.
func (s *CountedStrategy) Starved() int { return s.starved }

// TimedStrategy continues until a deadline that starts on the first call to
// MoreToDo, not at construction.
type TimedStrategy struct {
	affine
	budget   time.Duration
	clock    clock.PassiveClock
	started  bool
	deadline time.Time
}

// Timed builds a strategy that runs for budget of wall-clock time.
// Panics with a *ConfigurationError if budget is negative.
func Timed(budget time.Duration) *TimedStrategy {
	return TimedWithClock(budget, clock.RealClock{})
}

// TimedWithClock is Timed with an injected clock.
func TimedWithClock(budget time.Duration, c clock.PassiveClock) *TimedStrategy {
	if budget < 0 {
		panic(configErrorf("time budget", "%v is negative", budget))
	}
	return &TimedStrategy{budget: budget, clock: c}
}

func (s *TimedStrategy) MoreToDo() bool {
	now := s.clock.Now()
	if !s.started {
		s.started = true
		s.deadline = now.Add(s.budget)
	}
	return now.Before(s.deadline)
}

func (s *TimedStrategy) NoteEmissionOfCase()  {}
func (s *TimedStrategy) NoteRejectionOfCase() {}
func (s *TimedStrategy) NoteStarvation()      {}

// countedFactory builds a fresh Counted strategy for every cycle.
func countedFactory(maxCases, maxStarvationRatio int) StrategyFactory {
	return func(CaseSupplyCycle) CasesLimitStrategy {
		return Counted(maxCases, maxStarvationRatio)
	}
}

// timedFactory builds a fresh Timed strategy for every cycle.
func timedFactory(budget time.Duration, c clock.PassiveClock) StrategyFactory {
	return func(CaseSupplyCycle) CasesLimitStrategy {
		return TimedWithClock(budget, c)
	}
}
