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
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/costela/bilevel"
	"github.com/costela/bilevel/model"
	"github.com/costela/bilevel/solver"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()

	fs := pflag.NewFlagSet("solve", pflag.ContinueOnError)
	registerSolveFlags(fs)
	require.NoError(t, fs.Parse(args))

	return fs
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(newFlags(t), "")
	require.NoError(t, err)

	assert.Equal(t, bilevel.DefaultConfig(), cfg)
}

func TestLoadConfigLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bilevel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("solver: lpsolve\ntee: true\nmipgap: 0.2\ntimelimit: 30s\nresolve_subproblem: false\n"), 0o600))

	t.Setenv("BILEVEL_BIGM", "500")
	t.Setenv("BILEVEL_MIPGAP", "0.1")

	cfg, err := loadConfig(newFlags(t, "--mipgap", "0.05"), path)
	require.NoError(t, err)

	assert.Equal(t, "lpsolve", cfg.Solver)
	assert.True(t, cfg.Tee)
	assert.False(t, cfg.ResolveSubproblem)
	assert.True(t, cfg.UseDualObjective)
	assert.Equal(t, 30*time.Second, cfg.TimeLimit)
	assert.Equal(t, 500.0, cfg.BigM)
	assert.Equal(t, 0.05, cfg.MIPGap)
}

func TestLoadConfigZeroGap(t *testing.T) {
	cfg, err := loadConfig(newFlags(t, "--mipgap", "0"), "")
	require.NoError(t, err)

	assert.Zero(t, cfg.MIPGap)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := loadConfig(newFlags(t), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestReport(t *testing.T) {
	m := model.NewModel("report")
	x, err := m.Block().AddVariable("x")
	require.NoError(t, err)
	sub, err := m.Block().AddBlock("sub")
	require.NoError(t, err)
	y, err := sub.AddVariable("y")
	require.NoError(t, err)

	cpu := 2 * time.Second
	res := &bilevel.Results{
		Solver: bilevel.SolverInfo{
			Name:        "glpk",
			WallTime:    3 * time.Second,
			CPUTime:     &cpu,
			Termination: solver.Optimal,
		},
		Problem: bilevel.ProblemInfo{
			Name:       "report",
			Statistics: model.Statistics{NumVariables: 2, NumContinuousVariables: 2},
		},
		Solutions: []model.Solution{{
			Status:    model.SolutionOptimal,
			Objective: 7,
			Values:    map[model.ID]float64{x.ID(): 1, y.ID(): 6},
		}},
		Runs: []*solver.Result{
			{Solver: "glpk", Termination: solver.Optimal, WallTime: time.Second, CPUTime: &cpu},
			{Solver: "glpk", Termination: solver.Infeasible},
		},
	}

	rep, err := newReport(m, res)
	require.NoError(t, err)
	require.NotNil(t, rep.Solution)
	assert.Equal(t, map[string]float64{"x": 1, "sub.y": 6}, rep.Solution.Variables)
	require.Len(t, rep.Runs, 2)
	assert.Nil(t, rep.Runs[1].CPUTime)

	var buf bytes.Buffer
	require.NoError(t, writeReport(&buf, rep))

	var out map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))

	solverOut := out["solver"].(map[string]interface{})
	assert.Equal(t, "glpk", solverOut["name"])
	assert.Equal(t, "optimal", solverOut["termination_condition"])
	assert.Equal(t, "2s", solverOut["cpu_time"])

	problemOut := out["problem"].(map[string]interface{})
	assert.Equal(t, 2, problemOut["number_of_variables"])

	runs := out["runs"].([]interface{})
	assert.Equal(t, "infeasible", runs[1].(map[string]interface{})["termination_condition"])
}

func TestReportWithoutSolution(t *testing.T) {
	rep, err := newReport(model.NewModel("empty"), &bilevel.Results{})
	require.NoError(t, err)
	assert.Nil(t, rep.Solution)
}
