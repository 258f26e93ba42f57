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
package bilevel

import (
	"time"

	"github.com/costela/bilevel/model"
	"github.com/costela/bilevel/solver"
)

// SolverInfo summarizes the subsolver invocations of a run.
type SolverInfo struct {
	Name     string        `yaml:"name"`
	WallTime time.Duration `yaml:"wallclock_time"`
	// CPUTime is the sum of the reported per-call CPU times, nil when no
	// call reported one.
	CPUTime     *time.Duration              `yaml:"cpu_time,omitempty"`
	Termination solver.TerminationCondition `yaml:"termination_condition"`
}

type ProblemInfo struct {
	Name             string `yaml:"name"`
	model.Statistics `yaml:",inline"`
}

// Results is the aggregated outcome of a run.
type Results struct {
	Solver    SolverInfo       `yaml:"solver"`
	Problem   ProblemInfo      `yaml:"problem"`
	Solutions []model.Solution `yaml:"solutions,omitempty"`
	// Runs holds the per-call results in invocation order.
	Runs []*solver.Result `yaml:"-"`
}

// aggregate builds the run summary. Problem statistics are counted on the
// model as the resolve stage leaves it (sub-models restored, dual blocks
// inactive), not on the model as it stood before the resolve.
func aggregate(rc *run, wall time.Duration) *Results {
	res := &Results{
		Solver: SolverInfo{
			Name:        rc.cfg.Solver,
			WallTime:    wall,
			CPUTime:     sumCPU(rc.results),
			Termination: solver.Optimal,
		},
		Problem: ProblemInfo{
			Name:       rc.m.Name(),
			Statistics: rc.m.Statistics(),
		},
		Solutions: rc.m.Solutions().All(),
		Runs:      rc.results,
	}

	return res
}

// sumCPU adds up the CPU times that are present.
func sumCPU(results []*solver.Result) *time.Duration {
	var (
		total time.Duration
		found bool
	)
	for _, r := range results {
		if r.CPUTime != nil {
			total += *r.CPUTime
			found = true
		}
	}
	if !found {
		return nil
	}

	return &total
}
