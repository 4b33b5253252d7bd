// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package trials

// Generator describes a domain of cases of type T.
//
// A Generator is an immutable expression tree: combinators build new trees
// around existing ones and never modify them, so one Generator may be shared
// by any number of concurrent supply calls. The zero Generator yields no
// cases, like [Impossible].
type Generator[T any] struct {
	n node
}

// Weighted pairs a value with a positive relative weight.
type Weighted[T any] struct {
	Weight int
	Value  T
}

// cast recovers a concrete case from the erased node result.
// A nil interface yields the zero value, so interface-typed cases survive.
func cast[T any](v Erased) T {
	t, _ := v.(T)
	return t
}

func impossible() node { return &impossibleNode{} }

func isImpossible(n node) bool {
	if n == nil {
		return true
	}
	_, ok := n.(*impossibleNode)
	return ok
}

// Only yields v and nothing else.
func Only[T any](v T) Generator[T] {
	return Generator[T]{n: &onlyNode{value: v}}
}

// Impossible yields no cases. Combining it with other generators propagates
// the absence of cases instead of failing at construction.
func Impossible[T any]() Generator[T] {
	return Generator[T]{n: impossible()}
}

// Choose picks uniformly from vs; earlier values are simpler.
// Choose with no values is [Impossible].
func Choose[T any](vs ...T) Generator[T] {
	if len(vs) == 0 {
		return Impossible[T]()
	}
	values := make([]Erased, len(vs))
	for i, v := range vs {
		values[i] = v
	}
	return Generator[T]{n: &choiceNode{values: values, weights: uniformWeights(len(vs))}}
}

// ChooseWithWeights picks from entries in proportion to their weights.
// Panics with a *ConfigurationError if a weight is not positive.
func ChooseWithWeights[T any](entries ...Weighted[T]) Generator[T] {
	if len(entries) == 0 {
		return Impossible[T]()
	}
	values := make([]Erased, len(entries))
	ws := make([]int, len(entries))
	for i, e := range entries {
		values[i] = e.Value
		ws[i] = e.Weight
	}
	return Generator[T]{n: &choiceNode{values: values, weights: newWeights(ws, "choice weight")}}
}

// Alternate picks one of gs uniformly, then delegates to it.
// Alternate with no generators is [Impossible].
func Alternate[T any](gs ...Generator[T]) Generator[T] {
	entries := make([]Weighted[Generator[T]], len(gs))
	for i, g := range gs {
		entries[i] = Weighted[Generator[T]]{Weight: 1, Value: g}
	}
	return AlternateWithWeights(entries...)
}

// AlternateWithWeights picks a generator in proportion to its weight, then
// delegates to it. Panics with a *ConfigurationError if a weight is not
// positive.
func AlternateWithWeights[T any](entries ...Weighted[Generator[T]]) Generator[T] {
	if len(entries) == 0 {
		return Impossible[T]()
	}
	branches := make([]node, len(entries))
	ws := make([]int, len(entries))
	for i, e := range entries {
		branches[i] = e.Value.root()
		ws[i] = e.Weight
	}
	return Generator[T]{n: &alternationNode{branches: branches, weights: newWeights(ws, "alternation weight")}}
}

// Stream treats the whole input domain of f as a source of cases.
// Panics with a *ConfigurationError if f declares inconsistent bounds.
func Stream[T any](f CaseFactory[T]) Generator[T] {
	lower, upper, shrunk := f.LowerBoundInput(), f.UpperBoundInput(), f.MaximallyShrunkInput()
	if err := checkFactoryBounds(lower, upper, shrunk); err != nil {
		panic(err)
	}
	return Generator[T]{n: &factoryNode{
		lower:  lower,
		upper:  upper,
		shrunk: shrunk,
		apply:  func(x int64) Erased { return f.Apply(x) },
	}}
}

// Map transforms every case of g with f.
func Map[A, B any](g Generator[A], f func(A) B) Generator[B] {
	if isImpossible(g.n) {
		return Impossible[B]()
	}
	return Generator[B]{n: &mapNode{
		source: g.n,
		f:      func(a Erased) Erased { return f(cast[A](a)) },
	}}
}

// MapFilter transforms every case of g with f, rejecting the cases for which
// f reports false.
func MapFilter[A, B any](g Generator[A], f func(A) (B, bool)) Generator[B] {
	if isImpossible(g.n) {
		return Impossible[B]()
	}
	return Generator[B]{n: &mapFilterNode{
		source: g.n,
		f: func(a Erased) (Erased, bool) {
			b, ok := f(cast[A](a))
			return b, ok
		},
	}}
}

// FlatMap feeds every case of g to f and supplies cases from the generator f
// returns. Each application raises the complexity of the case by one.
func FlatMap[A, B any](g Generator[A], f func(A) Generator[B]) Generator[B] {
	if isImpossible(g.n) {
		return Impossible[B]()
	}
	return Generator[B]{n: &flatMapNode{
		source: g.n,
		f:      func(a Erased) node { return f(cast[A](a)).root() },
	}}
}

// Filter rejects the cases of g that fail p. Rejected cases count as
// starvation, not as emitted cases.
func (g Generator[T]) Filter(p func(T) bool) Generator[T] {
	if isImpossible(g.n) {
		return g
	}
	return Generator[T]{n: &filterNode{
		source: g.n,
		p:      func(v Erased) bool { return p(cast[T](v)) },
	}}
}

// Delay defers calling thunk until the generator is first traversed, which
// permits recursive definitions. The thunk runs at most once per Delay value.
func Delay[T any](thunk func() Generator[T]) Generator[T] {
	return Generator[T]{n: &delayNode{thunk: func() node { return thunk().root() }}}
}

// Complexities yields the running complexity of the case under construction.
// Recursive definitions use it to scale their branching by depth.
func Complexities() Generator[int] {
	return Generator[int]{n: &complexitiesNode{}}
}

func (g Generator[T]) root() node {
	if g.n == nil {
		return impossible()
	}
	return g.n
}
