/*
Copyright © 2015-2022 Leo Antunes <leo@costela.net>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <http://www.gnu.org/licenses/>.
*/
package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/costela/bilevel"
	"github.com/costela/bilevel/solver"
	"github.com/costela/bilevel/solver/glpk"
	"github.com/costela/bilevel/solver/lpsolve"
)

var (
	verbose    bool
	configFile string

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "bilevel",
	Short: "Solve bilevel interdiction problems through linear duality",
	Long: `bilevel replaces the lower level of an interdiction problem by its
linear dual, linearizes the remaining bilinear terms with a big-M
construction and solves the single-level problem with GLPK or lp_solve.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := config.Build()
		if err != nil {
			return errors.Wrap(err, "initializing logger")
		}
		logger = l

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

var solversCmd = &cobra.Command{
	Use:   "solvers",
	Short: "List the available subsolvers and transformations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		solvers, err := newSolverRegistry()
		if err != nil {
			return err
		}
		transforms, err := bilevel.DefaultTransforms()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "subsolvers:")
		for _, name := range solvers.Names() {
			fmt.Fprintln(out, "  -", name)
		}
		fmt.Fprintln(out, "transformations:")
		for _, name := range transforms.Names() {
			fmt.Fprintln(out, "  -", name)
		}

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML file with solve options")

	registerSolveFlags(solveCmd.Flags())

	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(solversCmd)
}

// newSolverRegistry registers the bundled backends, one live handle each.
func newSolverRegistry() (*solver.Registry, error) {
	reg := solver.NewRegistry()
	if err := glpk.Register(reg, solver.WithMaxHandles(1)); err != nil {
		return nil, err
	}
	if err := lpsolve.Register(reg, logger, solver.WithMaxHandles(1)); err != nil {
		return nil, err
	}

	return reg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
