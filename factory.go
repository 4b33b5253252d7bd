// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package trials

import (
	"math"
	"time"
)

// CaseFactory is a pure, injective function from a declared int64 domain to
// cases. Inputs closer to MaximallyShrunkInput are expected to yield simpler
// cases; distinct inputs may still yield equal cases.
//
// Implementations must satisfy
// LowerBoundInput() <= MaximallyShrunkInput() <= UpperBoundInput().
type CaseFactory[T any] interface {
	Apply(input int64) T
	LowerBoundInput() int64
	UpperBoundInput() int64
	MaximallyShrunkInput() int64
}

type caseFactory[T any] struct {
	lower, upper, shrunk int64
	apply                func(int64) T
}

func (f *caseFactory[T]) Apply(input int64) T         { return f.apply(input) }
func (f *caseFactory[T]) LowerBoundInput() int64      { return f.lower }
func (f *caseFactory[T]) UpperBoundInput() int64      { return f.upper }
func (f *caseFactory[T]) MaximallyShrunkInput() int64 { return f.shrunk }

// NewCaseFactory builds a factory over [lower, upper] that shrinks towards
// shrunk.
func NewCaseFactory[T any](lower, upper, shrunk int64, apply func(int64) T) (CaseFactory[T], error) {
	if err := checkFactoryBounds(lower, upper, shrunk); err != nil {
		return nil, err
	}
	if apply == nil {
		return nil, configErrorf("case factory", "nil apply function")
	}
	return &caseFactory[T]{lower: lower, upper: upper, shrunk: shrunk, apply: apply}, nil
}

func checkFactoryBounds(lower, upper, shrunk int64) error {
	if lower > upper {
		return configErrorf("case factory bounds", "lower bound %d exceeds upper bound %d", lower, upper)
	}
	if shrunk < lower || shrunk > upper {
		return configErrorf("case factory bounds", "maximally shrunk input %d outside [%d, %d]", shrunk, lower, upper)
	}
	return nil
}

func mustFactory[T any](f CaseFactory[T], err error) CaseFactory[T] {
	if err != nil {
		panic(err)
	}
	return f
}

// clampTarget picks zero when it lies inside [lower, upper], else the nearer bound.
func clampTarget(lower, upper int64) int64 {
	switch {
	case lower > 0:
		return lower
	case upper < 0:
		return upper
	default:
		return 0
	}
}

func int64Identity(x int64) int64 { return x }

func int64ToInt(x int64) int { return int(x) }

// Int64s streams every int64, shrinking towards zero.
func Int64s() Generator[int64] {
	return Int64sBetween(math.MinInt64, math.MaxInt64)
}

// Int64sBetween streams the closed range [lower, upper], shrinking towards
// zero or the bound nearest to it.
func Int64sBetween(lower, upper int64) Generator[int64] {
	if lower > upper {
		panic(configErrorf("int64 range", "lower bound %d exceeds upper bound %d", lower, upper))
	}
	return Int64sWithTarget(lower, upper, clampTarget(lower, upper))
}

// Int64sWithTarget streams [lower, upper], shrinking towards target.
func Int64sWithTarget(lower, upper, target int64) Generator[int64] {
	return Stream(mustFactory(NewCaseFactory(lower, upper, target, int64Identity)))
}

// Integers streams every int, shrinking towards zero.
func Integers() Generator[int] {
	return IntegersBetween(math.MinInt, math.MaxInt)
}

// IntegersBetween streams the closed range [lower, upper], shrinking towards
// zero or the bound nearest to it.
func IntegersBetween(lower, upper int) Generator[int] {
	if lower > upper {
		panic(configErrorf("integer range", "lower bound %d exceeds upper bound %d", lower, upper))
	}
	return IntegersWithTarget(lower, upper, int(clampTarget(int64(lower), int64(upper))))
}

// IntegersWithTarget streams [lower, upper], shrinking towards target.
func IntegersWithTarget(lower, upper, target int) Generator[int] {
	return Stream(mustFactory(NewCaseFactory(int64(lower), int64(upper), int64(target), int64ToInt)))
}

// NonNegativeIntegers streams [0, math.MaxInt].
func NonNegativeIntegers() Generator[int] {
	return IntegersBetween(0, math.MaxInt)
}

// Bytes streams every byte value, shrinking towards zero.
func Bytes() Generator[byte] {
	return Stream(mustFactory(NewCaseFactory(0, math.MaxUint8, 0, func(x int64) byte { return byte(x) })))
}

// Runes streams the code points in [lower, upper], shrinking towards lower.
func Runes(lower, upper rune) Generator[rune] {
	return Stream(mustFactory(NewCaseFactory(int64(lower), int64(upper), int64(lower), func(x int64) rune { return rune(x) })))
}

// Booleans chooses between false and true; false is the simpler case.
func Booleans() Generator[bool] {
	return Choose(false, true)
}

// Durations streams [lower, upper] at nanosecond resolution, shrinking
// towards zero or the bound nearest to it.
func Durations(lower, upper time.Duration) Generator[time.Duration] {
	if lower > upper {
		panic(configErrorf("duration range", "lower bound %v exceeds upper bound %v", lower, upper))
	}
	target := clampTarget(int64(lower), int64(upper))
	return Stream(mustFactory(NewCaseFactory(int64(lower), int64(upper), target, func(x int64) time.Duration {
		return time.Duration(x)
	})))
}

// NonNegativeInt64s streams [0, math.MaxInt64].
func NonNegativeInt64s() Generator[int64] {
	return Int64sBetween(0, math.MaxInt64)
}

const signBit = 1 << 63

// float64Key maps floats onto int64 keys in the same order, both zeros onto
// key zero. NaN has no key.
func float64Key(f float64) int64 {
	bits := math.Float64bits(f)
	if bits&signBit != 0 {
		return -int64(bits &^ signBit)
	}
	return int64(bits)
}

func float64FromKey(k int64) float64 {
	if k < 0 {
		return math.Float64frombits(uint64(-k) | signBit)
	}
	return math.Float64frombits(uint64(k))
}

// Float64s streams every finite float64, shrinking towards zero.
func Float64s() Generator[float64] {
	return Float64sBetween(-math.MaxFloat64, math.MaxFloat64)
}

// Float64sBetween streams [lower, upper], shrinking towards zero or the
// bound nearest to it. Infinite bounds are allowed; NaN bounds are not.
//
// Shrinking works on the bit pattern, so a shrunk value loses magnitude
// and precision rather than moving towards the target in even steps.
func Float64sBetween(lower, upper float64) Generator[float64] {
	checkFloatRange(lower, upper)
	return Float64sWithTarget(lower, upper, float64FromKey(clampTarget(float64Key(lower), float64Key(upper))))
}

// Float64sWithTarget streams [lower, upper], shrinking towards target.
func Float64sWithTarget(lower, upper, target float64) Generator[float64] {
	checkFloatRange(lower, upper)
	if math.IsNaN(target) {
		panic(configErrorf("float range", "NaN shrink target"))
	}
	return Stream(mustFactory(NewCaseFactory(float64Key(lower), float64Key(upper), float64Key(target), float64FromKey)))
}

func checkFloatRange(lower, upper float64) {
	if math.IsNaN(lower) || math.IsNaN(upper) {
		panic(configErrorf("float range", "NaN bound in [%v, %v]", lower, upper))
	}
	if lower > upper {
		panic(configErrorf("float range", "lower bound %v exceeds upper bound %v", lower, upper))
	}
}

// Times streams the instants time.Time can express in Unix nanoseconds,
// shrinking towards the Unix epoch. Cases are in UTC.
func Times() Generator[time.Time] {
	return TimesBetween(time.Unix(0, math.MinInt64), time.Unix(0, math.MaxInt64))
}

// TimesBetween streams [lower, upper] at nanosecond resolution, shrinking
// towards the Unix epoch or the bound nearest to it.
func TimesBetween(lower, upper time.Time) Generator[time.Time] {
	lo, hi := unixNanos("lower bound", lower), unixNanos("upper bound", upper)
	if lo > hi {
		panic(configErrorf("time range", "lower bound %v is after upper bound %v", lower, upper))
	}
	return timesWithTarget(lo, hi, clampTarget(lo, hi))
}

// TimesWithTarget streams [lower, upper], shrinking towards target.
func TimesWithTarget(lower, upper, target time.Time) Generator[time.Time] {
	return timesWithTarget(unixNanos("lower bound", lower), unixNanos("upper bound", upper), unixNanos("shrink target", target))
}

func timesWithTarget(lower, upper, target int64) Generator[time.Time] {
	return Stream(mustFactory(NewCaseFactory(lower, upper, target, func(x int64) time.Time {
		return time.Unix(0, x).UTC()
	})))
}

// unixNanos converts t, panicking when Unix nanoseconds cannot express it.
func unixNanos(what string, t time.Time) int64 {
	n := t.UnixNano()
	if !time.Unix(0, n).Equal(t) {
		panic(configErrorf("time range", "%s %v outside the Unix nanosecond range", what, t))
	}
	return n
}
