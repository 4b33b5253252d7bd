// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package trials provides property-based test-case generation with
// deterministic shrinkage and exact replay.
//
// Callers describe a domain of cases as a [Generator] tree. A [Supplier]
// synthesizes cases from the tree and hands each one to a consumer. When the
// consumer fails, the supplier searches for a simpler case that still fails
// and returns a single [*TrialError] carrying that case together with a
// recipe: a short JSON document that rebuilds the exact case without any
// search.
//
// # Design Philosophy
//
// trials provides:
//   - Immutable generator trees, safe to share across concurrent supply calls
//   - Defunctionalized nodes interpreted by one evaluator under interchangeable decision sources
//   - Full determinism: a fixed seed and a fixed tree yield a fixed case sequence
//
// # Generator Tree
//
// Leaves:
//
//   - [Only]: A single constant case
//   - [Choose], [ChooseWithWeights]: A pick from a finite set of values
//   - [Stream]: The input domain of a [CaseFactory]
//   - [Impossible]: No cases at all; propagates through every combinator
//   - [Complexities]: The running complexity of the case under construction
//
// Combinators:
//
//   - [Map], [MapFilter], [FlatMap]: Transform and expand cases
//   - [Generator.Filter]: Reject cases failing a predicate
//   - [Alternate], [AlternateWithWeights]: Pick a branch, then delegate to it
//   - [Delay]: Defer construction until first traversal, for recursive definitions
//   - [Zip2], [Zip3]: Supply cases of several generators together
//
// Collections accumulate elements through a [Builder]:
//
//   - [Collections]: A variable number of elements
//   - [CollectionsOfSize]: A fixed number of elements
//   - [Sequence]: One element from each of a list of generators
//   - [Lists], [ListsOfSize], [Strings]: Slice and string conveniences
//   - [IndexPermutations], [IndexPermutationsOfSize], [IndexCombinations]: Selections of indices
//
// Built-in factories: [Integers], [IntegersBetween], [IntegersWithTarget],
// [NonNegativeIntegers], [Int64s], [Int64sBetween], [Int64sWithTarget],
// [NonNegativeInt64s], [Float64s], [Float64sBetween], [Float64sWithTarget],
// [Times], [TimesBetween], [TimesWithTarget], [Bytes], [Runes], [Booleans],
// [Durations].
//
// # Complexity
//
// Every case carries a complexity that starts at one and grows by one per
// [FlatMap] expansion, per collection element and per alternation. Once it
// exceeds the configured limit, alternations take the branch that terminates
// soonest, variable collections stop growing, choices take their first entry
// and factories their maximally shrunk input. A case that still overruns
// twice the limit is abandoned as starvation.
//
// # Decision Sources
//
// The evaluator is parameterized by an F-bounded decision source, with three
// implementations: random draws for discovery, strict reading of a recipe for
// replay, and lenient following of an edited trace for shrinkage. Every
// evaluation records its decisions as a trace; the pre-order sequence of its
// tokens is the recipe.
//
// # Supply
//
//   - [NewSupplier]: Validate options and bind them to a generator
//   - [Supplier.SupplyTo]: Run discovery, then shrinkage on failure
//   - [Supplier.Cases], [Supplier.All]: Pull or push the discovered cases
//   - [Supplier.IntegrationContexts]: Per-case contexts for test hosts
//
// Limit strategies decide how many cases a cycle emits: [Counted] and
// [Timed], or any [CasesLimitStrategy] built per cycle by a
// [StrategyFactory]. Strategy instances are single use.
//
// # Shrinkage
//
// Shrinkage ranks traces shortlex: fewer decisions first, then smaller
// per-decision distances from the simplest value, in pre-order. Only strictly
// smaller neighbours are tried, smallest first, so every new best case is
// simpler than the last. The search ends at a local minimum, when the
// attempts budget is spent, or when the [WithShrinkageStop] predicate accepts
// the current best.
//
// # Recipes
//
//   - [EncodeRecipe], [DecodeRecipe], [ParseRecipe]: Recipe codec
//   - [RecipeHash]: SHA-256 key of a recipe
//   - [RecipeStore], [LookupRecipe], [MemoryRecipeStore]: Lookup by hash
//
// A recipe decoded against a generator it does not fit fails with a
// [*RecipeMismatchError] instead of producing a different case.
package trials
