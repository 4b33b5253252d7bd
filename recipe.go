// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package trials

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tailscale/hujson"
)

// RecipeVersion is the version of the recipe format written by EncodeRecipe.
const RecipeVersion = 1

// Trace is the decision trace that built one case. Replaying a Trace
// against the generator that recorded it yields an equal case.
type Trace struct {
	root *traceNode
}

// Len returns the number of decisions in t.
func (t Trace) Len() int {
	return t.root.tokenCount()
}

// Decisions returns the decisions of t in recipe order.
func (t Trace) Decisions() []Decision {
	return t.root.decisions()
}

// Recipe encodes t; it is shorthand for EncodeRecipe(t).
func (t Trace) Recipe() string {
	return EncodeRecipe(t)
}

type recipeToken struct {
	Choice *int   `json:"choice,omitempty"`
	Of     *int   `json:"of,omitempty"`
	Input  *int64 `json:"input,omitempty"`
	Size   *int   `json:"size,omitempty"`
}

type recipeDocument struct {
	Version   int           `json:"version"`
	Decisions []recipeToken `json:"decisions"`
}

// EncodeRecipe serializes t into a versioned JSON recipe.
func EncodeRecipe(t Trace) string {
	return encodeDecisions(t.root.decisions())
}

func encodeDecisions(ds []Decision) string {
	doc := recipeDocument{Version: RecipeVersion, Decisions: make([]recipeToken, len(ds))}
	for i, d := range ds {
		switch d.Kind {
		case DecisionChoice:
			index, of := d.Index, d.Of
			doc.Decisions[i] = recipeToken{Choice: &index, Of: &of}
		case DecisionInput:
			input := d.Input
			doc.Decisions[i] = recipeToken{Input: &input}
		case DecisionSize:
			size := d.Size
			doc.Decisions[i] = recipeToken{Size: &size}
		}
	}
	buf := acquireBuffer()
	defer releaseBuffer(buf)
	enc := json.NewEncoder(buf)
	if err := enc.Encode(doc); err != nil {
		panic("trials: recipe encoding failed: " + err.Error())
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}

// ParseRecipe reads the decisions of a recipe without a generator to check
// them against. Recipes may carry comments and trailing commas.
func ParseRecipe(recipe string) ([]Decision, error) {
	data, err := hujson.Standardize([]byte(recipe))
	if err != nil {
		return nil, &RecipeMismatchError{Position: -1, Reason: "malformed recipe: " + err.Error()}
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var doc recipeDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, &RecipeMismatchError{Position: -1, Reason: "malformed recipe: " + err.Error()}
	}
	if doc.Version != RecipeVersion {
		return nil, &RecipeMismatchError{Position: -1, Reason: fmt.Sprintf("unsupported recipe version %d", doc.Version)}
	}
	ds := make([]Decision, len(doc.Decisions))
	for i, tok := range doc.Decisions {
		d, err := tok.decision()
		if err != nil {
			return nil, &RecipeMismatchError{Position: i, Reason: err.Error()}
		}
		ds[i] = d
	}
	return ds, nil
}

func (tok recipeToken) decision() (Decision, error) {
	set := 0
	for _, present := range []bool{tok.Choice != nil, tok.Input != nil, tok.Size != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return Decision{}, errors.New("decision must hold exactly one of choice, input or size")
	}
	switch {
	case tok.Choice != nil:
		if tok.Of == nil {
			return Decision{}, errors.New("choice without arity")
		}
		return Decision{Kind: DecisionChoice, Index: *tok.Choice, Of: *tok.Of}, nil
	case tok.Input != nil:
		if tok.Of != nil {
			return Decision{}, errors.New("arity on an input decision")
		}
		return Decision{Kind: DecisionInput, Input: *tok.Input}, nil
	default:
		if tok.Of != nil {
			return Decision{}, errors.New("arity on a size decision")
		}
		return Decision{Kind: DecisionSize, Size: *tok.Size}, nil
	}
}

// DecodeRecipe replays recipe against g and returns the trace it denotes.
// It fails with a *RecipeMismatchError when the recipe does not fit g
// exactly, which usually means g changed since the recipe was recorded.
func DecodeRecipe[T any](g Generator[T], recipe string) (Trace, error) {
	_, t, err := replay(g.root(), recipe, replayComplexityLimit)
	return t, err
}

// Reproduce rebuilds the case a recipe denotes.
func (g Generator[T]) Reproduce(recipe string) (T, error) {
	v, _, err := replay(g.root(), recipe, replayComplexityLimit)
	if err != nil {
		var zero T
		return zero, err
	}
	return cast[T](v), nil
}

// replayComplexityLimit is the complexity limit replays run under when no
// larger limit is configured. Discovery never records a case past twice its
// limit, so any recipe discovered under a limit up to this one replays.
const replayComplexityLimit = 1 << 16

func replayLimit(limit int) int {
	return max(limit, replayComplexityLimit)
}

func replay(root node, recipe string, limit int) (Erased, Trace, error) {
	ds, err := ParseRecipe(recipe)
	if err != nil {
		return nil, Trace{}, err
	}
	src := &replaySource{tokens: ds, maxSize: limit}
	if limit <= infiniteCost/2 {
		src.maxSize = 2 * limit
	}
	v, t, err := evaluate(root, src, limit, nil)
	if err != nil {
		var mismatch *RecipeMismatchError
		if errors.As(err, &mismatch) {
			return nil, Trace{}, err
		}
		return nil, Trace{}, &RecipeMismatchError{Position: src.pos, Reason: "recipe does not build a case: " + err.Error()}
	}
	if n := src.remaining(); n > 0 {
		return nil, Trace{}, &RecipeMismatchError{Position: src.pos, Reason: fmt.Sprintf("%d decisions left unused", n)}
	}
	return v, Trace{root: t}, nil
}

// RecipeHash is the lowercase hex SHA-256 digest of recipe, used as the key
// under which recipe stores keep recipes.
func RecipeHash(recipe string) string {
	sum := sha256.Sum256([]byte(recipe))
	return hex.EncodeToString(sum[:])
}
