// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package trials

import "strings"

// Builder accumulates elements of type E into a collection of type C.
// A fresh Builder is requested for every case, so implementations may keep
// mutable state.
type Builder[E, C any] interface {
	Add(element E)
	Build() C
}

type builderAdapter[E, C any] struct {
	b Builder[E, C]
}

func (a builderAdapter[E, C]) add(v Erased)  { a.b.Add(cast[E](v)) }
func (a builderAdapter[E, C]) build() Erased { return a.b.Build() }

func eraseBuilder[E, C any](newBuilder func() Builder[E, C]) func() erasedBuilder {
	return func() erasedBuilder { return builderAdapter[E, C]{b: newBuilder()} }
}

// Collections accumulates a variable number of cases of element. Every added
// element raises the complexity by one; once the complexity limit is reached
// the collection stops growing.
func Collections[E, C any](element Generator[E], newBuilder func() Builder[E, C]) Generator[C] {
	return Generator[C]{n: &collectionNode{element: element.root(), size: -1, newBuilder: eraseBuilder(newBuilder)}}
}

// CollectionsOfSize accumulates exactly size cases of element.
// Panics with a *ConfigurationError if size is negative.
func CollectionsOfSize[E, C any](size int, element Generator[E], newBuilder func() Builder[E, C]) Generator[C] {
	if size < 0 {
		panic(configErrorf("collection size", "size %d is negative", size))
	}
	if size > 0 && isImpossible(element.n) {
		return Impossible[C]()
	}
	return Generator[C]{n: &collectionNode{element: element.root(), size: size, newBuilder: eraseBuilder(newBuilder)}}
}

// Sequence accumulates one case from each of elements, in order.
func Sequence[E, C any](elements []Generator[E], newBuilder func() Builder[E, C]) Generator[C] {
	nodes := make([]node, len(elements))
	for i, g := range elements {
		if isImpossible(g.n) {
			return Impossible[C]()
		}
		nodes[i] = g.n
	}
	return Generator[C]{n: &sequenceNode{elements: nodes, newBuilder: eraseBuilder(newBuilder)}}
}

type sliceBuilder[E any] struct {
	elements []E
}

func (b *sliceBuilder[E]) Add(e E)    { b.elements = append(b.elements, e) }
func (b *sliceBuilder[E]) Build() []E { return b.elements }

func newSliceBuilder[E any]() Builder[E, []E] { return &sliceBuilder[E]{elements: []E{}} }

// Lists yields slices of varying length.
func Lists[E any](element Generator[E]) Generator[[]E] {
	return Collections(element, newSliceBuilder[E])
}

// ListsOfSize yields slices of exactly size elements.
func ListsOfSize[E any](size int, element Generator[E]) Generator[[]E] {
	return CollectionsOfSize(size, element, newSliceBuilder[E])
}

type stringBuilder struct {
	sb strings.Builder
}

func (b *stringBuilder) Add(r rune)    { b.sb.WriteRune(r) }
func (b *stringBuilder) Build() string { return b.sb.String() }

// Strings yields strings of varying length built from runes.
func Strings(runes Generator[rune]) Generator[string] {
	return Collections(runes, func() Builder[rune, string] { return &stringBuilder{} })
}

// Pair holds one case from each of two generators.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Triple holds one case from each of three generators.
type Triple[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

// tupleBuilder collects erased cases positionally for the Zip combinators.
type tupleBuilder struct {
	values   []Erased
	assemble func([]Erased) Erased
}

func (b *tupleBuilder) add(v Erased)  { b.values = append(b.values, v) }
func (b *tupleBuilder) build() Erased { return b.assemble(b.values) }

func zip(build func([]Erased) Erased, roots ...node) node {
	for _, n := range roots {
		if isImpossible(n) {
			return impossible()
		}
	}
	return &sequenceNode{
		elements: roots,
		newBuilder: func() erasedBuilder {
			return &tupleBuilder{values: make([]Erased, 0, len(roots)), assemble: build}
		},
	}
}

// Zip2 supplies cases of a and b together. Shrinking treats the two halves
// independently, the first before the second.
func Zip2[A, B any](a Generator[A], b Generator[B]) Generator[Pair[A, B]] {
	return Generator[Pair[A, B]]{n: zip(func(vs []Erased) Erased {
		return Pair[A, B]{First: cast[A](vs[0]), Second: cast[B](vs[1])}
	}, a.n, b.n)}
}

// Zip3 supplies cases of a, b and c together.
func Zip3[A, B, C any](a Generator[A], b Generator[B], c Generator[C]) Generator[Triple[A, B, C]] {
	return Generator[Triple[A, B, C]]{n: zip(func(vs []Erased) Erased {
		return Triple[A, B, C]{First: cast[A](vs[0]), Second: cast[B](vs[1]), Third: cast[C](vs[2])}
	}, a.n, b.n, c.n)}
}

// IndexPermutations yields the permutations of [0, n).
func IndexPermutations(n int) Generator[[]int] {
	return IndexPermutationsOfSize(n, n)
}

// IndexPermutationsOfSize yields the ordered selections of size distinct
// indices from [0, n), shrinking towards [0, 1, ..., size-1]. Each
// permutation is drawn as a Lehmer code, so distinct decisions give
// distinct permutations.
func IndexPermutationsOfSize(n, size int) Generator[[]int] {
	if n < 0 || size < 0 || size > n {
		panic(configErrorf("index permutations", "size %d of %d indices", size, n))
	}
	code := make([]Generator[int], size)
	for i := range code {
		code[i] = IntegersBetween(0, n-1-i)
	}
	return Map(Sequence(code, newSliceBuilder[int]), func(digits []int) []int {
		left := make([]int, n)
		for i := range left {
			left[i] = i
		}
		perm := make([]int, len(digits))
		for i, c := range digits {
			perm[i] = left[c]
			left = append(left[:c], left[c+1:]...)
		}
		return perm
	})
}

// IndexCombinations yields the strictly increasing selections of size
// indices from [0, n), shrinking towards [0, 1, ..., size-1]. Every index
// raises the complexity by one.
func IndexCombinations(n, size int) Generator[[]int] {
	if n < 0 || size < 0 || size > n {
		panic(configErrorf("index combinations", "size %d of %d indices", size, n))
	}
	return combinationsFrom(0, n, size)
}

func combinationsFrom(from, n, size int) Generator[[]int] {
	if size == 0 {
		return Only([]int{})
	}
	return FlatMap(IntegersBetween(from, n-size), func(first int) Generator[[]int] {
		return Map(combinationsFrom(first+1, n, size-1), func(rest []int) []int {
			return append([]int{first}, rest...)
		})
	})
}
