// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package trials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding file configuration.
const (
	EnvCasesLimit             = "TRIALS_CASES_LIMIT"
	EnvComplexityLimit        = "TRIALS_COMPLEXITY_LIMIT"
	EnvShrinkageAttemptsLimit = "TRIALS_SHRINKAGE_ATTEMPTS_LIMIT"
	EnvSeed                   = "TRIALS_SEED"
	EnvRecipe                 = "TRIALS_RECIPE"
	EnvRecipeHash             = "TRIALS_RECIPE_HASH"
	EnvTimeBudget             = "TRIALS_TIME_BUDGET"
)

var errConfigInvalid = errors.New("invalid config")

// Config is the file and environment form of the supply settings.
type Config struct {
	CasesLimit             int    `json:"casesLimit" yaml:"casesLimit"`
	StarvationRatio        int    `json:"starvationRatio" yaml:"starvationRatio"`
	ComplexityLimit        int    `json:"complexityLimit" yaml:"complexityLimit"`
	ShrinkageAttemptsLimit int    `json:"shrinkageAttemptsLimit" yaml:"shrinkageAttemptsLimit"`
	ValidTrialsCheck       bool   `json:"validTrialsCheck" yaml:"validTrialsCheck"`
	Seed                   uint64 `json:"seed" yaml:"seed"`
	// TimeBudget, when set, is a time.ParseDuration string such as "2s".
	TimeBudget string `json:"timeBudget,omitempty" yaml:"timeBudget,omitempty"`
	Recipe     string `json:"recipe,omitempty" yaml:"recipe,omitempty"`
	RecipeHash string `json:"recipeHash,omitempty" yaml:"recipeHash,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		CasesLimit:             DefaultCasesLimit,
		StarvationRatio:        DefaultStarvationRatio,
		ComplexityLimit:        DefaultComplexityLimit,
		ShrinkageAttemptsLimit: DefaultShrinkageAttemptsLimit,
		ValidTrialsCheck:       true,
		Seed:                   DefaultSeed,
	}
}

// LoadConfig loads configuration with the following precedence (highest wins):
//  1. Defaults
//  2. The config file at path, if path is non-empty
//  3. TRIALS_* environment variables
//
// Files ending in .yaml or .yml are YAML; anything else is JSON with
// comments and trailing commas allowed.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
		if cfg, err = parseConfig(cfg, data, filepath.Ext(path)); err != nil {
			return Config{}, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
		}
	}
	cfg, err := cfg.WithEnv(os.LookupEnv)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// parseConfig overlays the keys present in data onto base.
func parseConfig(base Config, data []byte, ext string) (Config, error) {
	cfg := base
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("invalid YAML: %w", err)
		}
	default:
		standardized, err := hujson.Standardize(data)
		if err != nil {
			return Config{}, fmt.Errorf("invalid JSONC: %w", err)
		}
		if err := json.Unmarshal(standardized, &cfg); err != nil {
			return Config{}, fmt.Errorf("invalid JSON: %w", err)
		}
	}
	return cfg, nil
}

// WithEnv overlays the TRIALS_* variables found by lookup onto c.
func (c Config) WithEnv(lookup func(string) (string, bool)) (Config, error) {
	ints := []struct {
		name string
		dst  *int
	}{
		{EnvCasesLimit, &c.CasesLimit},
		{EnvComplexityLimit, &c.ComplexityLimit},
		{EnvShrinkageAttemptsLimit, &c.ShrinkageAttemptsLimit},
	}
	for _, v := range ints {
		raw, ok := lookup(v.name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s=%q: %w", errConfigInvalid, v.name, raw, err)
		}
		*v.dst = n
	}
	if raw, ok := lookup(EnvSeed); ok {
		seed, err := strconv.ParseUint(strings.TrimSpace(raw), 0, 64)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s=%q: %w", errConfigInvalid, EnvSeed, raw, err)
		}
		c.Seed = seed
	}
	if raw, ok := lookup(EnvTimeBudget); ok {
		c.TimeBudget = strings.TrimSpace(raw)
	}
	if raw, ok := lookup(EnvRecipe); ok {
		c.Recipe = raw
	}
	if raw, ok := lookup(EnvRecipeHash); ok {
		c.RecipeHash = strings.TrimSpace(raw)
	}
	return c, nil
}

// Validate reports the first invalid setting as a *ConfigurationError.
func (c Config) Validate() error {
	switch {
	case c.CasesLimit < 0:
		return configErrorf("cases limit", "%d is negative", c.CasesLimit)
	case c.StarvationRatio < 0:
		return configErrorf("starvation ratio", "%d is negative", c.StarvationRatio)
	case c.ComplexityLimit < 1:
		return configErrorf("complexity limit", "%d is less than 1", c.ComplexityLimit)
	case c.ShrinkageAttemptsLimit < 0:
		return configErrorf("shrinkage attempts limit", "%d is negative", c.ShrinkageAttemptsLimit)
	case c.Recipe != "" && c.RecipeHash != "":
		return configErrorf("recipe", "both a recipe and a recipe hash are set")
	}
	if _, err := c.timeBudget(); err != nil {
		return err
	}
	return nil
}

func (c Config) timeBudget() (time.Duration, error) {
	if c.TimeBudget == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.TimeBudget)
	if err != nil {
		return 0, configErrorf("time budget", "%q: %v", c.TimeBudget, err)
	}
	if d <= 0 {
		return 0, configErrorf("time budget", "%v is not positive", d)
	}
	return d, nil
}

// Options translates c into supplier options. A recipe hash is resolved
// against store, which may be nil when c carries no hash.
func (c Config) Options(store RecipeStore) []Option {
	opts := []Option{
		WithLimit(c.CasesLimit),
		WithStarvationRatio(c.StarvationRatio),
		WithComplexityLimit(c.ComplexityLimit),
		WithShrinkageAttemptsLimit(c.ShrinkageAttemptsLimit),
		WithValidTrialsCheck(c.ValidTrialsCheck),
		WithSeed(c.Seed),
	}
	if d, err := c.timeBudget(); err != nil {
		opts = append(opts, func(s *settings) { s.fail(err) })
	} else if d > 0 {
		opts = append(opts, WithTimeBudget(d))
	}
	if c.Recipe != "" {
		opts = append(opts, WithRecipe(c.Recipe))
	}
	if c.RecipeHash != "" {
		opts = append(opts, WithRecipeHash(store, c.RecipeHash))
	}
	if store != nil {
		opts = append(opts, WithRecipeStore(store))
	}
	return opts
}

// WithConfig applies c, validated, as supplier options.
func WithConfig(c Config, store RecipeStore) Option {
	return func(s *settings) {
		if err := c.Validate(); err != nil {
			s.fail(err)
			return
		}
		for _, opt := range c.Options(store) {
			opt(s)
		}
	}
}
