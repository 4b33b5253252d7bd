// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package trials

import (
	"errors"
	"fmt"
)

// ErrFiltered classifies a consumer error as inlined filtration: the case is
// rejected rather than counted as a failure. Wrap it (or return it directly)
// from a consumer, or use [Whenever].
var ErrFiltered = errors.New("trials: case filtered out")

// ErrNoValidTrials is returned by a supply call that completed without a single
// valid trial while the valid-trials check is enabled.
var ErrNoValidTrials = errors.New("trials: no valid trials were performed")

// ConfigurationError reports an invalid limit, weight or factory bound.
// It is detected eagerly, when the offending value is constructed.
type ConfigurationError struct {
	Parameter string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return "trials: invalid " + e.Parameter + ": " + e.Reason
}

func configErrorf(parameter, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Parameter: parameter, Reason: fmt.Sprintf(format, args...)}
}

// RecipeMismatchError reports a recipe that does not fit the generator it is
// replayed against, typically because the generator changed since the recipe
// was recorded.
type RecipeMismatchError struct {
	// Position is the index of the offending decision, or -1 when the recipe
	// as a whole could not be read.
	Position int
	Reason   string
}

func (e *RecipeMismatchError) Error() string {
	if e.Position < 0 {
		return "trials: recipe does not fit generator: " + e.Reason
	}
	return fmt.Sprintf("trials: recipe does not fit generator at decision %d: %s", e.Position, e.Reason)
}

// RecipeNotFoundError reports a failed recipe-store lookup.
type RecipeNotFoundError struct {
	Hash     string
	Location string
}

func (e *RecipeNotFoundError) Error() string {
	return fmt.Sprintf("trials: no recipe found for recipe hash %s in the recipe store at %s; "+
		"either regenerate the recipe by running without %s, or supply the full recipe via %s",
		e.Hash, e.Location, EnvRecipeHash, EnvRecipe)
}

// PanicError wraps a value recovered from a panicking consumer.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("trials: consumer panicked: %v", e.Value)
}

// Unwrap exposes a panicked error value.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// TrialError is the single failure raised by a supply call: the (possibly
// shrunk) case that provoked the consumer's error, together with a recipe that
// reproduces the case exactly.
type TrialError[T any] struct {
	ProvokingCase T
	Recipe        string
	RecipeHash    string
	Err           error
}

func (e *TrialError[T]) Error() string {
	return fmt.Sprintf("trials: trial failed for case %v: %v\nrecipe hash: %s\nrecipe: %s",
		e.ProvokingCase, e.Err, e.RecipeHash, e.Recipe)
}

func (e *TrialError[T]) Unwrap() error { return e.Err }

// isFiltration reports whether a consumer error means rejection, not failure.
func isFiltration(err error) bool {
	return errors.Is(err, ErrFiltered)
}

// errStopped ends a supply run whose pull iterator was abandoned.
var errStopped = errors.New("trials: supply stopped by caller")
