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
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/costela/bilevel"
	"github.com/costela/bilevel/internal/modelfile"
	"github.com/costela/bilevel/model"
	"github.com/costela/bilevel/solver"
)

var solveCmd = &cobra.Command{
	Use:   "solve <model.yaml>",
	Short: "Solve a model document and print the results as YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runSolve,
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd.Flags(), configFile)
	if err != nil {
		return err
	}

	m, err := modelfile.LoadFile(args[0])
	if err != nil {
		return err
	}

	solvers, err := newSolverRegistry()
	if err != nil {
		return err
	}
	transforms, err := bilevel.DefaultTransforms()
	if err != nil {
		return err
	}
	s, err := bilevel.New(solvers, transforms, bilevel.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("solving", zap.String("model", m.Name()), zap.String("solver", cfg.Solver))
	res, err := s.Solve(ctx, m, cfg)
	if err != nil {
		return err
	}

	rep, err := newReport(m, res)
	if err != nil {
		return err
	}

	return writeReport(cmd.OutOrStdout(), rep)
}

type report struct {
	Solver   bilevel.SolverInfo  `yaml:"solver"`
	Problem  bilevel.ProblemInfo `yaml:"problem"`
	Runs     []runReport         `yaml:"runs"`
	Solution *solutionReport     `yaml:"solution,omitempty"`
}

type runReport struct {
	Termination solver.TerminationCondition `yaml:"termination_condition"`
	WallTime    time.Duration               `yaml:"wallclock_time"`
	CPUTime     *time.Duration              `yaml:"cpu_time,omitempty"`
}

type solutionReport struct {
	Status    model.SolutionStatus `yaml:"status"`
	Objective float64              `yaml:"objective"`
	// Variables maps full variable names to their values.
	Variables map[string]float64 `yaml:"variables"`
}

func newReport(m *model.Model, res *bilevel.Results) (*report, error) {
	rep := &report{
		Solver:  res.Solver,
		Problem: res.Problem,
	}
	for _, r := range res.Runs {
		rep.Runs = append(rep.Runs, runReport{
			Termination: r.Termination,
			WallTime:    r.WallTime,
			CPUTime:     r.CPUTime,
		})
	}

	if len(res.Solutions) > 0 {
		sol := res.Solutions[0]
		sr := &solutionReport{
			Status:    sol.Status,
			Objective: sol.Objective,
			Variables: make(map[string]float64, len(sol.Values)),
		}
		for id, val := range sol.Values {
			v, err := m.Lookup(id)
			if err != nil {
				return nil, err
			}
			sr.Variables[v.FullName()] = val
		}
		rep.Solution = sr
	}

	return rep, nil
}

func writeReport(w io.Writer, rep *report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return err
	}

	return enc.Close()
}
