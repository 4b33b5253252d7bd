// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package trials_test

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"testing"
	"time"

	"code.hybscloud.com/trials"
)

func decimal(x int64) string { return strconv.FormatInt(x, 10) }

func TestNewCaseFactoryBounds(t *testing.T) {
	tests := []struct {
		name                 string
		lower, upper, shrunk int64
		apply                func(int64) string
		ok                   bool
	}{
		{"valid", -5, 5, 0, decimal, true},
		{"single point", 3, 3, 3, decimal, true},
		{"full range", math.MinInt64, math.MaxInt64, 0, decimal, true},
		{"inverted", 5, -5, 0, decimal, false},
		{"shrunk below", 0, 10, -1, decimal, false},
		{"shrunk above", 0, 10, 11, decimal, false},
		{"nil apply", 0, 10, 0, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := trials.NewCaseFactory(tt.lower, tt.upper, tt.shrunk, tt.apply)
			if tt.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if f.LowerBoundInput() != tt.lower || f.UpperBoundInput() != tt.upper || f.MaximallyShrunkInput() != tt.shrunk {
					t.Fatalf("bounds not preserved")
				}
				return
			}
			var cfgErr *trials.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("got %v, want *ConfigurationError", err)
			}
		})
	}
}

// inverted declares a shrunk input outside its own range.
type inverted struct{}

func (inverted) Apply(x int64) int64         { return x }
func (inverted) LowerBoundInput() int64      { return 0 }
func (inverted) UpperBoundInput() int64      { return 10 }
func (inverted) MaximallyShrunkInput() int64 { return 20 }

func TestStreamRejectsInconsistentFactory(t *testing.T) {
	expectConfigPanic(t, func() { trials.Stream[int64](inverted{}) })
}

func TestRangeConstructorsRejectInvertedBounds(t *testing.T) {
	expectConfigPanic(t, func() { trials.IntegersBetween(1, 0) })
	expectConfigPanic(t, func() { trials.Int64sBetween(1, 0) })
	expectConfigPanic(t, func() { trials.IntegersWithTarget(0, 10, 11) })
	expectConfigPanic(t, func() { trials.Durations(time.Second, 0) })
	expectConfigPanic(t, func() { trials.Float64sBetween(1, -1) })
	expectConfigPanic(t, func() { trials.Float64sBetween(math.NaN(), 1) })
	expectConfigPanic(t, func() { trials.Float64sWithTarget(0, 1, 2) })
	expectConfigPanic(t, func() { trials.TimesBetween(time.Unix(10, 0), time.Unix(0, 0)) })
	expectConfigPanic(t, func() { trials.TimesBetween(time.Unix(0, 0), time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC)) })
	expectConfigPanic(t, func() { trials.IndexPermutationsOfSize(3, 4) })
	expectConfigPanic(t, func() { trials.IndexCombinations(-1, 0) })
}

func TestIntegersStayInRange(t *testing.T) {
	tests := []struct {
		lower, upper int
	}{
		{-5, 5},
		{0, 0},
		{10, 20},
		{-20, -10},
		{math.MinInt, math.MaxInt},
	}
	for _, tt := range tests {
		got := collect(t, trials.IntegersBetween(tt.lower, tt.upper))
		if len(got) == 0 {
			t.Fatalf("[%d, %d]: no cases", tt.lower, tt.upper)
		}
		for _, v := range got {
			if v < tt.lower || v > tt.upper {
				t.Fatalf("case %d outside [%d, %d]", v, tt.lower, tt.upper)
			}
		}
	}
}

func TestFactoryExtremeInputsReplay(t *testing.T) {
	g := trials.Int64s()
	for _, x := range []int64{math.MinInt64, -1, 0, 1, math.MaxInt64} {
		recipe := `{"version":1,"decisions":[{"input":` + decimal(x) + `}]}`
		got, err := g.Reproduce(recipe)
		if err != nil {
			t.Fatalf("Reproduce(%d): %v", x, err)
		}
		if got != x {
			t.Fatalf("got %d, want %d", got, x)
		}
	}
}

func TestShrinkTargets(t *testing.T) {
	tests := []struct {
		name string
		g    trials.Generator[int64]
		want int64
	}{
		{"zero inside", trials.Int64sBetween(-10, 10), 0},
		{"positive range", trials.Int64sBetween(5, 10), 5},
		{"negative range", trials.Int64sBetween(-10, -5), -5},
		{"explicit target", trials.Int64sWithTarget(0, 100, 42), 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := supplyFailing(t, tt.g, func(int64) error { return errBoom })
			var failure *trials.TrialError[int64]
			if !errors.As(err, &failure) {
				t.Fatalf("got %v, want *TrialError", err)
			}
			if failure.ProvokingCase != tt.want {
				t.Fatalf("shrunk to %d, want %d", failure.ProvokingCase, tt.want)
			}
		})
	}
}

func TestRunesShrinkToLowerBound(t *testing.T) {
	err := supplyFailing(t, trials.Runes('a', 'z'), func(rune) error { return errBoom })
	var failure *trials.TrialError[rune]
	if !errors.As(err, &failure) {
		t.Fatalf("got %v, want *TrialError", err)
	}
	if failure.ProvokingCase != 'a' {
		t.Fatalf("shrunk to %q, want 'a'", failure.ProvokingCase)
	}
}

func TestDurations(t *testing.T) {
	for _, d := range collect(t, trials.Durations(-time.Second, time.Minute)) {
		if d < -time.Second || d > time.Minute {
			t.Fatalf("duration %v out of range", d)
		}
	}
}

func TestNonNegativeInt64s(t *testing.T) {
	for _, v := range collect(t, trials.NonNegativeInt64s()) {
		if v < 0 {
			t.Fatalf("negative case %d", v)
		}
	}
}

func TestFloat64sStayInRange(t *testing.T) {
	got := collect(t, trials.Float64sBetween(-1.5, 2.5))
	if len(got) == 0 {
		t.Fatal("no cases")
	}
	for _, v := range got {
		if math.IsNaN(v) || v < -1.5 || v > 2.5 {
			t.Fatalf("case %v outside [-1.5, 2.5]", v)
		}
	}
	for _, v := range collect(t, trials.Float64s()) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("non-finite case %v", v)
		}
	}
}

func TestFloat64sInputsAreOrdered(t *testing.T) {
	g := trials.Float64s()
	tests := []struct {
		input int64
		want  float64
	}{
		{0, 0},
		{1, math.SmallestNonzeroFloat64},
		{-1, -math.SmallestNonzeroFloat64},
		{int64(math.Float64bits(1)), 1},
		{-int64(math.Float64bits(1)), -1},
		{int64(math.Float64bits(math.MaxFloat64)), math.MaxFloat64},
	}
	for _, tt := range tests {
		got, err := g.Reproduce(`{"version":1,"decisions":[{"input":` + decimal(tt.input) + `}]}`)
		if err != nil {
			t.Fatalf("input %d: %v", tt.input, err)
		}
		if got != tt.want {
			t.Fatalf("input %d gave %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFloat64sShrinkTowardsZero(t *testing.T) {
	err := supplyFailing(t, trials.Float64s(), func(x float64) error {
		if math.IsNaN(math.Sqrt(x)) {
			return errBoom
		}
		return nil
	}, trials.WithLimit(15))
	var failure *trials.TrialError[float64]
	if !errors.As(err, &failure) {
		t.Fatalf("got %v, want *TrialError", err)
	}
	if x := failure.ProvokingCase; x >= 0 || x < -0.1 {
		t.Fatalf("shrunk to %v, want a negative close to zero", x)
	}
}

func TestTimes(t *testing.T) {
	lower := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	upper := lower.Add(24 * time.Hour)
	for _, v := range collect(t, trials.TimesBetween(lower, upper)) {
		if v.Before(lower) || v.After(upper) {
			t.Fatalf("time %v out of range", v)
		}
	}

	err := supplyFailing(t, trials.Times(), func(time.Time) error { return errBoom })
	var failure *trials.TrialError[time.Time]
	if !errors.As(err, &failure) {
		t.Fatalf("got %v, want *TrialError", err)
	}
	if !failure.ProvokingCase.Equal(time.Unix(0, 0)) {
		t.Fatalf("shrunk to %v, want the Unix epoch", failure.ProvokingCase)
	}

	err = supplyFailing(t, trials.TimesWithTarget(lower, upper, lower.Add(time.Hour)), func(time.Time) error { return errBoom })
	if !errors.As(err, &failure) {
		t.Fatalf("got %v, want *TrialError", err)
	}
	if !failure.ProvokingCase.Equal(lower.Add(time.Hour)) {
		t.Fatalf("shrunk to %v, want the target", failure.ProvokingCase)
	}
}

func TestIndexPermutationsCoverAll(t *testing.T) {
	tests := []struct {
		n, size, count int
	}{
		{0, 0, 1},
		{3, 3, 6},
		{4, 2, 12},
		{5, 1, 5},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d of %d", tt.size, tt.n), func(t *testing.T) {
			seen := make(map[string]bool)
			for _, perm := range collect(t, trials.IndexPermutationsOfSize(tt.n, tt.size), trials.WithLimit(tt.count), trials.WithStarvationRatio(tt.count+10)) {
				if len(perm) != tt.size {
					t.Fatalf("permutation %v has size %d", perm, len(perm))
				}
				for _, i := range perm {
					if i < 0 || i >= tt.n {
						t.Fatalf("index %d outside [0, %d)", i, tt.n)
					}
				}
				sorted := slices.Clone(perm)
				slices.Sort(sorted)
				if len(slices.Compact(sorted)) != len(perm) {
					t.Fatalf("permutation %v repeats an index", perm)
				}
				seen[fmt.Sprint(perm)] = true
			}
			if len(seen) != tt.count {
				t.Fatalf("saw %d permutations, want %d", len(seen), tt.count)
			}
		})
	}
}

func TestIndexCombinationsCoverAll(t *testing.T) {
	tests := []struct {
		n, size, count int
	}{
		{3, 0, 1},
		{4, 4, 1},
		{5, 2, 10},
		{6, 3, 20},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d of %d", tt.size, tt.n), func(t *testing.T) {
			seen := make(map[string]bool)
			for _, c := range collect(t, trials.IndexCombinations(tt.n, tt.size), trials.WithLimit(tt.count), trials.WithStarvationRatio(tt.n*tt.n)) {
				if len(c) != tt.size {
					t.Fatalf("combination %v has size %d", c, len(c))
				}
				for i, x := range c {
					if x < 0 || x >= tt.n || (i > 0 && x <= c[i-1]) {
						t.Fatalf("combination %v is not strictly increasing within [0, %d)", c, tt.n)
					}
				}
				seen[fmt.Sprint(c)] = true
			}
			if len(seen) != tt.count {
				t.Fatalf("saw %d combinations, want %d", len(seen), tt.count)
			}
		})
	}
}

func TestIndexSelectionsShrinkToIdentity(t *testing.T) {
	tests := []struct {
		name string
		g    trials.Generator[[]int]
		want []int
	}{
		{"permutation", trials.IndexPermutations(5), []int{0, 1, 2, 3, 4}},
		{"partial permutation", trials.IndexPermutationsOfSize(6, 2), []int{0, 1}},
		{"combination", trials.IndexCombinations(6, 3), []int{0, 1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := supplyFailing(t, tt.g, func([]int) error { return errBoom }, trials.WithShrinkageAttemptsLimit(1000))
			var failure *trials.TrialError[[]int]
			if !errors.As(err, &failure) {
				t.Fatalf("got %v, want *TrialError", err)
			}
			if !slices.Equal(failure.ProvokingCase, tt.want) {
				t.Fatalf("shrunk to %v, want %v", failure.ProvokingCase, tt.want)
			}
		})
	}
}
