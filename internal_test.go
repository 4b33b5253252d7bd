// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package trials

import (
	"math"
	"slices"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"
)

func TestShrinkDistances(t *testing.T) {
	tests := []struct {
		d    uint64
		want []uint64
	}{
		{0, nil},
		{1, []uint64{0}},
		{2, []uint64{0, 1}},
		{7, []uint64{0, 1, 3, 4, 6}},
		{9, []uint64{0, 1, 2, 4, 5, 7, 8}},
	}
	for _, tt := range tests {
		got := shrinkDistances(tt.d)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Fatalf("shrinkDistances(%d) mismatch (-want +got):\n%s", tt.d, diff)
		}
	}
}

func TestShrinkDistancesProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := rapid.Uint64().Draw(t, "d")
		got := shrinkDistances(d)
		if d == 0 {
			if len(got) != 0 {
				t.Fatalf("got %v for zero distance", got)
			}
			return
		}
		if got[0] != 0 {
			t.Fatalf("first candidate %d, want 0", got[0])
		}
		if !slices.IsSorted(got) {
			t.Fatalf("candidates not ascending: %v", got)
		}
		for i, e := range got {
			if e >= d {
				t.Fatalf("candidate %d not below %d", e, d)
			}
			if i > 0 && got[i-1] == e {
				t.Fatalf("duplicate candidate %d", e)
			}
		}
		if d > 1 && !slices.Contains(got, d-1) {
			t.Fatalf("candidates for %d lack %d", d, d-1)
		}
	})
}

func TestTowards(t *testing.T) {
	tests := []struct {
		target, x int64
		e         uint64
		want      int64
	}{
		{0, 10, 3, 3},
		{0, -10, 3, -3},
		{5, 5, 0, 5},
		{math.MinInt64, math.MaxInt64, math.MaxUint64, math.MaxInt64},
		{math.MaxInt64, math.MinInt64, math.MaxUint64, math.MinInt64},
	}
	for _, tt := range tests {
		if got := towards(tt.target, tt.x, tt.e); got != tt.want {
			t.Fatalf("towards(%d, %d, %d) = %d, want %d", tt.target, tt.x, tt.e, got, tt.want)
		}
	}
}

func TestMeasureShortlex(t *testing.T) {
	ordered := []measure{
		{},
		{0},
		{5},
		{0, 9},
		{1, 0},
		{1, 1},
		{0, 0, 0},
	}
	for i := range ordered {
		for j := range ordered {
			got := ordered[i].compare(ordered[j])
			want := 0
			switch {
			case i < j:
				want = -1
			case i > j:
				want = 1
			}
			if got != want {
				t.Fatalf("compare(%v, %v) = %d, want %d", ordered[i], ordered[j], got, want)
			}
		}
	}
}

func TestRankKeyFollowsMeasure(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		gen := rapid.SliceOfN(rapid.Uint64(), 0, 4)
		a := measure(gen.Draw(t, "a"))
		b := measure(gen.Draw(t, "b"))
		ka, kb := rankKey(a, "x"), rankKey(b, "x")
		switch a.compare(b) {
		case -1:
			if ka >= kb {
				t.Fatalf("rankKey(%v) >= rankKey(%v)", a, b)
			}
		case 1:
			if ka <= kb {
				t.Fatalf("rankKey(%v) <= rankKey(%v)", a, b)
			}
		default:
			if ka != kb {
				t.Fatalf("equal measures %v ranked apart", a)
			}
		}
	})
}

func TestRankKeyBreaksTiesByRecipe(t *testing.T) {
	m := measure{1, 2}
	keys := []string{rankKey(m, `b`), rankKey(m, `a`), rankKey(measure{0, 9}, `z`)}
	sort.Strings(keys)
	want := []string{rankKey(measure{0, 9}, `z`), rankKey(m, `a`), rankKey(m, `b`)}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Fatalf("rank order mismatch (-want +got):\n%s", diff)
	}
}

func TestTerminationCostPrefersTerminatingBranch(t *testing.T) {
	var self Generator[int]
	self = Alternate(
		FlatMap(Delay(func() Generator[int] { return self }), func(x int) Generator[int] { return Only(x + 1) }),
		Only(0),
	)
	alt := self.root().(*alternationNode)
	costs := alt.terminationCosts()
	if costs[0] != infiniteCost {
		t.Fatalf("recursive branch cost = %d, want infinite", costs[0])
	}
	if costs[1] != 0 {
		t.Fatalf("leaf branch cost = %d, want 0", costs[1])
	}
	if got := alt.soonestTerminating(); got != 1 {
		t.Fatalf("soonestTerminating = %d, want 1", got)
	}
}

func TestTerminationCostTiesGoToLowestIndex(t *testing.T) {
	alt := Alternate(Only(1), Only(2), Map(Only(3), func(x int) int { return x })).root().(*alternationNode)
	if got := alt.soonestTerminating(); got != 0 {
		t.Fatalf("soonestTerminating = %d, want 0", got)
	}
	deeper := Alternate(FlatMap(Only(1), Only[int]), Choose(2, 3)).root().(*alternationNode)
	if got := deeper.soonestTerminating(); got != 1 {
		t.Fatalf("soonestTerminating = %d, want 1", got)
	}
}

func TestCurtailedEvaluationTerminates(t *testing.T) {
	var self Generator[int]
	self = Alternate(
		FlatMap(Delay(func() Generator[int] { return self }), func(x int) Generator[int] { return Only(x + 1) }),
		Only(0),
	)
	src := newRandomSource(42)
	for range 1000 {
		v, _, err := evaluate(self.root(), src, 10, nil)
		if err != nil {
			if !isStarvation(err) {
				t.Fatalf("unexpected error: %v", err)
			}
			continue
		}
		if depth := v.(int); depth > 10 {
			t.Fatalf("depth %d exceeds complexity limit", depth)
		}
	}
}

func TestComplexityOverrunIsStarvation(t *testing.T) {
	// Fixed-size collections cannot curtail, so they overrun.
	g := ListsOfSize(50, Only(1))
	_, _, err := evaluate(g.root(), newRandomSource(1), 10, nil)
	if err != errTooComplex {
		t.Fatalf("got %v, want errTooComplex", err)
	}
}

func TestGuidedSourceFillsGaps(t *testing.T) {
	g := Zip2(IntegersBetween(3, 9), Choose("a", "b", "c"))
	v, tr, err := evaluate(g.root(), guidedSource{}, 100, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := v.(Pair[int, string])
	if got.First != 3 || got.Second != "a" {
		t.Fatalf("got %+v, want {3 a}", got)
	}
	if n := tr.tokenCount(); n != 2 {
		t.Fatalf("got %d tokens, want 2", n)
	}
}

func TestGuidedSourceIgnoresMismatchedHints(t *testing.T) {
	g := IntegersBetween(0, 10)
	hint := &traceNode{tok: Decision{Kind: DecisionChoice, Index: 2, Of: 3}}
	v, _, err := evaluate(g.root(), guidedSource{}, 100, hint)
	if err != nil {
		t.Fatal(err)
	}
	if v.(int) != 0 {
		t.Fatalf("got %d, want 0", v)
	}
	outOfRange := &traceNode{tok: Decision{Kind: DecisionInput, Input: 42}}
	v, _, err = evaluate(g.root(), guidedSource{}, 100, outOfRange)
	if err != nil {
		t.Fatal(err)
	}
	if v.(int) != 0 {
		t.Fatalf("got %d, want 0", v)
	}
}

func TestNeighboursAreLocallySimpler(t *testing.T) {
	g := Lists(IntegersBetween(0, 100))
	src := newRandomSource(7)
	for range 200 {
		_, tr, err := evaluate(g.root(), src, 100, nil)
		if err != nil {
			t.Fatal(err)
		}
		best := measureOf(tr)
		for _, target := range tr.tokens() {
			for _, hint := range neighbours(tr, target) {
				_, realized, err := evaluate(g.root(), guidedSource{}, 100, hint)
				if err != nil {
					t.Fatal(err)
				}
				if measureOf(realized).compare(best) >= 0 {
					t.Fatalf("neighbour %v not below %v", measureOf(realized), best)
				}
			}
		}
	}
}

func TestReplaceSharesUntouchedSubtrees(t *testing.T) {
	left := &traceNode{tok: Decision{Kind: DecisionInput, Input: 1}}
	right := &traceNode{tok: Decision{Kind: DecisionInput, Input: 2}}
	root := &traceNode{children: []*traceNode{left, right}}
	with := &traceNode{tok: Decision{Kind: DecisionInput, Input: 0}}

	got := root.replace(right, with)
	if got == root {
		t.Fatal("replace returned the original root")
	}
	if got.children[0] != left {
		t.Fatal("untouched subtree was copied")
	}
	if got.children[1] != with {
		t.Fatal("target was not replaced")
	}
	if root.children[1] != right {
		t.Fatal("original trace was modified")
	}
}

func TestWeightsPick(t *testing.T) {
	w := newWeights([]int{1, 3, 2}, "weight")
	want := []int{0, 1, 1, 1, 2, 2}
	if w.total() != len(want) {
		t.Fatalf("total = %d, want %d", w.total(), len(want))
	}
	for draw, idx := range want {
		if got := w.pick(draw); got != idx {
			t.Fatalf("pick(%d) = %d, want %d", draw, got, idx)
		}
	}
}

func TestWeightedChoiceFrequency(t *testing.T) {
	g := ChooseWithWeights(Weighted[string]{Weight: 1, Value: "rare"}, Weighted[string]{Weight: 9, Value: "common"})
	src := newRandomSource(42)
	rare := 0
	const n = 10000
	for range n {
		v, _, err := evaluate(g.root(), src, 100, nil)
		if err != nil {
			t.Fatal(err)
		}
		if v.(string) == "rare" {
			rare++
		}
	}
	if rare < n/20 || rare > n/5 {
		t.Fatalf("rare picked %d of %d times, want about %d", rare, n, n/10)
	}
}

func TestFloat64KeyPreservesOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Float64().Draw(t, "a")
		b := rapid.Float64().Draw(t, "b")
		if math.IsNaN(a) || math.IsNaN(b) {
			t.Skip("NaN has no key")
		}
		ka, kb := float64Key(a), float64Key(b)
		switch {
		case a < b && ka >= kb, a > b && ka <= kb, a == b && ka != kb:
			t.Fatalf("keys %d, %d disagree with %v, %v", ka, kb, a, b)
		}
		if back := float64FromKey(ka); back != a {
			t.Fatalf("%v came back as %v", a, back)
		}
	})
}
