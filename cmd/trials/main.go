// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command trials inspects recipes and runs a demonstration property.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"code.hybscloud.com/trials"
)

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:          "trials",
		Short:        "Inspect trials recipes and run the demonstration property",
		SilenceUsage: true,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (.yaml, .yml or JSON with comments)")

	root.AddCommand(
		newHashCmd(),
		newInspectCmd(),
		newConfigCmd(&configPath),
		newDemoCmd(&configPath),
	)
	return root
}

// readRecipe takes the recipe from the first argument, or stdin without it.
func readRecipe(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading recipe: %w", err)
	}
	recipe := strings.TrimRight(string(data), "\r\n")
	if recipe == "" {
		return "", errors.New("no recipe given")
	}
	return recipe, nil
}

func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash [recipe]",
		Short: "Print the hash under which recipe stores keep a recipe",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recipe, err := readRecipe(cmd, args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), trials.RecipeHash(recipe))
			return nil
		},
	}
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [recipe]",
		Short: "List the decisions of a recipe",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recipe, err := readRecipe(cmd, args)
			if err != nil {
				return err
			}
			decisions, err := trials.ParseRecipe(recipe)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "version: %d\n", trials.RecipeVersion)
			fmt.Fprintf(out, "decisions: %d\n", len(decisions))
			fmt.Fprintf(out, "hash: %s\n", trials.RecipeHash(recipe))
			for i, d := range decisions {
				fmt.Fprintf(out, "%4d  %s\n", i, d)
			}
			return nil
		},
	}
}

func newConfigCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration after file and environment overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := trials.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

type demoOptions struct {
	limit      int
	seed       uint64
	complexity int
	verbose    bool
}

func (o *demoOptions) bind(fs *pflag.FlagSet) {
	fs.IntVar(&o.limit, "limit", trials.DefaultCasesLimit, "maximum number of cases to try")
	fs.Uint64Var(&o.seed, "seed", trials.DefaultSeed, "seed for case discovery")
	fs.IntVar(&o.complexity, "complexity", trials.DefaultComplexityLimit, "complexity limit for generated cases")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "log discovery and shrinkage progress")
}

func newDemoCmd(configPath *string) *cobra.Command {
	o := &demoOptions{}
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Find and shrink a bug in a sorted-insertion routine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := trials.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			fs := cmd.Flags()
			if fs.Changed("limit") {
				cfg.CasesLimit = o.limit
			}
			if fs.Changed("seed") {
				cfg.Seed = o.seed
			}
			if fs.Changed("complexity") {
				cfg.ComplexityLimit = o.complexity
			}

			ctx := logr.NewContext(cmd.Context(), newLogger(cmd.ErrOrStderr(), o.verbose))
			return runDemo(ctx, cmd.OutOrStdout(), cfg)
		},
	}
	o.bind(cmd.Flags())
	return cmd
}

func newLogger(w io.Writer, verbose bool) logr.Logger {
	level := zapcore.InfoLevel
	if verbose {
		// zapr maps V(n) to zap level -n.
		level = zapcore.Level(-2)
	}
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(w), zap.NewAtomicLevelAt(level))
	return zapr.NewLogger(zap.New(core))
}

// insertSorted is meant to insert x into the ascending slice s, but never
// considers the last element, so a value larger than every element lands in
// front of the last one.
func insertSorted(s []int, x int) []int {
	i := 0
	for i < len(s)-1 && s[i] <= x {
		i++
	}
	out := make([]int, 0, len(s)+1)
	out = append(out, s[:i]...)
	out = append(out, x)
	return append(out, s[i:]...)
}

func demoGenerator() trials.Generator[trials.Pair[[]int, int]] {
	sorted := trials.Map(trials.Lists(trials.IntegersBetween(0, 100)), func(xs []int) []int {
		slices.Sort(xs)
		return xs
	})
	return trials.Zip2(sorted, trials.IntegersBetween(0, 100))
}

func runDemo(ctx context.Context, out io.Writer, cfg trials.Config) error {
	supplier, err := trials.NewSupplier(demoGenerator(), trials.WithConfig(cfg, trials.NewMemoryRecipeStore()))
	if err != nil {
		return err
	}
	err = supplier.SupplyTo(ctx, func(c trials.Pair[[]int, int]) error {
		got := insertSorted(c.First, c.Second)
		if len(got) != len(c.First)+1 || !slices.IsSorted(got) {
			return fmt.Errorf("insertSorted(%v, %d) = %v", c.First, c.Second, got)
		}
		return nil
	})
	var failure *trials.TrialError[trials.Pair[[]int, int]]
	switch {
	case err == nil:
		fmt.Fprintln(out, "no failing case found")
		return nil
	case errors.As(err, &failure):
		fmt.Fprintf(out, "failing case: list=%v insert=%d\n", failure.ProvokingCase.First, failure.ProvokingCase.Second)
		fmt.Fprintf(out, "error: %v\n", failure.Err)
		fmt.Fprintf(out, "recipe: %s\n", failure.Recipe)
		fmt.Fprintf(out, "recipe hash: %s\n", failure.RecipeHash)
		return nil
	default:
		return err
	}
}
