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
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/costela/bilevel/model"
	"github.com/costela/bilevel/solver"
	"github.com/costela/bilevel/transform"
)

func TestSolveLinear(t *testing.T) {
	f := linearFixture(t)

	sc := &scripted{}
	sc.steps = []step{
		solved(seconds(2), func() map[*model.Var]float64 {
			return map[*model.Var]float64{f.x: 4, f.u: 1}
		}),
		func(m *model.Model) (*solver.Result, error) {
			assert.True(t, f.x.Fixed())
			assert.True(t, f.sub.Active())
			assert.False(t, f.dual.Active())
			assert.Equal(t, model.KindBlock, f.sub.Kind())
			return solved(nil, func() map[*model.Var]float64 {
				return map[*model.Var]float64{f.x: 4, f.y: 10}
			})(m)
		},
	}
	s, rec := newTestSolver(t, sc)

	res, err := s.Solve(context.Background(), f.m, testConfig())
	require.NoError(t, err)

	assert.Zero(t, rec.bilinear)
	assert.Empty(t, rec.bigM)
	assert.Nil(t, f.m.BilinearData())

	require.Len(t, res.Runs, 2)
	assert.Equal(t, scriptedName, res.Runs[0].Solver)
	assert.Equal(t, scriptedName, res.Solver.Name)
	assert.Equal(t, solver.Optimal, res.Solver.Termination)
	require.NotNil(t, res.Solver.CPUTime)
	assert.Equal(t, *seconds(2), *res.Solver.CPUTime)
	assert.True(t, res.Solver.WallTime > 0)

	expected := model.Statistics{
		NumConstraints:         2,
		NumVariables:           2,
		NumContinuousVariables: 2,
		NumObjectives:          1,
	}
	assert.Equal(t, "interdiction", res.Problem.Name)
	if diff := cmp.Diff(expected, res.Problem.Statistics); diff != "" {
		t.Errorf("statistics mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, res.Solutions, 1)
	assert.Equal(t, 10.0, f.y.Value())
	assert.Equal(t, 4.0, f.x.Value())
	assert.False(t, f.x.Fixed())

	assert.Equal(t, []float64{DefaultMIPGap, DefaultMIPGap}, sc.gaps)
	assert.Zero(t, sc.live())
	assert.Equal(t, 2, sc.opened)

	for _, o := range f.m.Block().Objectives() {
		assert.True(t, o.Active(), o.Name())
	}
}

func TestSolveBilinear(t *testing.T) {
	f := bilinearFixture(t)

	sc := &scripted{}
	sc.steps = []step{
		func(m *model.Model) (*solver.Result, error) {
			bd := m.BilinearData()
			require.NotNil(t, bd)
			require.Equal(t, 1, bd.Len())
			return solved(seconds(1), func() map[*model.Var]float64 {
				return map[*model.Var]float64{f.x: 0.9999996, f.u: 1, bd.Vars[0]: 1}
			})(m)
		},
		func(m *model.Model) (*solver.Result, error) {
			assert.True(t, f.x.Fixed())
			assert.Equal(t, 1.0, f.x.Value())
			assert.False(t, m.BilinearData().Active())
			return solved(seconds(0.5), func() map[*model.Var]float64 {
				return map[*model.Var]float64{f.y: 5}
			})(m)
		},
	}
	s, rec := newTestSolver(t, sc)

	res, err := s.Solve(context.Background(), f.m, testConfig())
	require.NoError(t, err)

	assert.Equal(t, 1, rec.bilinear)
	assert.Equal(t, []float64{DefaultBigM}, rec.bigM)

	bd := f.m.BilinearData()
	require.NotNil(t, bd)
	assert.Equal(t, []int{1}, bd.Boolean)
	assert.False(t, bd.Active())

	require.Len(t, res.Runs, 2)
	require.NotNil(t, res.Solver.CPUTime)
	assert.Equal(t, *seconds(1.5), *res.Solver.CPUTime)

	expected := model.Statistics{
		NumConstraints:         2,
		NumVariables:           2,
		NumBinaryVariables:     1,
		NumContinuousVariables: 1,
		NumObjectives:          1,
	}
	if diff := cmp.Diff(expected, res.Problem.Statistics); diff != "" {
		t.Errorf("statistics mismatch (-want +got):\n%s", diff)
	}

	assert.False(t, f.x.Fixed())
	assert.Equal(t, 1.0, f.x.Value())
	assert.Equal(t, 5.0, f.y.Value())
	assert.Zero(t, sc.live())
}

func TestSolveWithoutSolution(t *testing.T) {
	f := linearFixture(t)
	f.x.SetValue(2)

	sc := &scripted{steps: []step{noSolution, noSolution}}
	s, _ := newTestSolver(t, sc)

	res, err := s.Solve(context.Background(), f.m, testConfig())
	require.NoError(t, err)

	require.Len(t, res.Runs, 2)
	assert.Equal(t, solver.Infeasible, res.Runs[1].Termination)
	assert.Equal(t, solver.Optimal, res.Solver.Termination)
	assert.Empty(t, res.Solutions)
	assert.Nil(t, res.Solver.CPUTime)
	assert.False(t, f.y.HasValue())
}

func TestSolveWithoutSolutionLeavesUnsolvedFree(t *testing.T) {
	f := linearFixture(t)

	sc := &scripted{steps: []step{
		noSolution,
		func(m *model.Model) (*solver.Result, error) {
			assert.False(t, f.x.Fixed())
			return noSolution(m)
		},
	}}
	s, _ := newTestSolver(t, sc)

	res, err := s.Solve(context.Background(), f.m, testConfig())
	require.NoError(t, err)

	require.Len(t, res.Runs, 2)
	assert.Empty(t, res.Solutions)
	assert.False(t, f.x.Fixed())
	assert.False(t, f.x.HasValue())
}

func TestSolveZeroGap(t *testing.T) {
	f := linearFixture(t)

	sc := &scripted{steps: []step{noSolution}}
	s, _ := newTestSolver(t, sc)

	cfg := testConfig()
	cfg.MIPGap = 0
	cfg.ResolveSubproblem = false

	_, err := s.Solve(context.Background(), f.m, cfg)
	require.NoError(t, err)

	assert.Equal(t, []float64{0}, sc.gaps)
}

func TestResolveKeepsInactiveVariablesAndSets(t *testing.T) {
	f := linearFixture(t)
	w, err := f.sub.AddVariable("w")
	require.NoError(t, err)
	set, err := f.sub.AddSet("arcs", "a", "b")
	require.NoError(t, err)
	w.Deactivate()
	set.Deactivate()

	c, err := f.sub.Component("c")
	require.NoError(t, err)
	lower, err := f.sub.Component("lower")
	require.NoError(t, err)

	sc := &scripted{steps: []step{
		solved(nil, func() map[*model.Var]float64 {
			return map[*model.Var]float64{f.x: 1, f.u: 1}
		}),
		func(m *model.Model) (*solver.Result, error) {
			assert.True(t, f.sub.Active())
			assert.True(t, c.Active())
			assert.True(t, lower.Active())
			assert.False(t, w.Active())
			assert.False(t, set.Active())
			return noSolution(m)
		},
	}}
	s, _ := newTestSolver(t, sc)

	_, err = s.Solve(context.Background(), f.m, testConfig())
	require.NoError(t, err)

	assert.Equal(t, 2, sc.calls)
	assert.True(t, c.Active())
	assert.False(t, w.Active())
	assert.False(t, set.Active())
}

func TestSolveWithoutResolve(t *testing.T) {
	f := linearFixture(t)

	var states []State
	sc := &scripted{steps: []step{
		solved(nil, func() map[*model.Var]float64 {
			return map[*model.Var]float64{f.x: 1, f.u: 1}
		}),
	}}
	s, _ := newTestSolver(t, sc, WithStageObserver(func(_ string, st State) {
		states = append(states, st)
	}))

	cfg := testConfig()
	cfg.ResolveSubproblem = false

	res, err := s.Solve(context.Background(), f.m, cfg)
	require.NoError(t, err)

	assert.Len(t, res.Runs, 1)
	assert.Empty(t, states)
	assert.Equal(t, 1, sc.opened)
	assert.False(t, f.sub.Active())
	assert.True(t, f.dual.Active())
	assert.Equal(t, model.KindSubModel, f.sub.Kind())
}

func TestResolveStates(t *testing.T) {
	f := linearFixture(t)

	var states []State
	sc := &scripted{steps: []step{
		solved(nil, func() map[*model.Var]float64 {
			return map[*model.Var]float64{f.x: 1, f.u: 1}
		}),
		solved(nil, func() map[*model.Var]float64 {
			return map[*model.Var]float64{f.y: 10}
		}),
	}}
	s, _ := newTestSolver(t, sc, WithStageObserver(func(_ string, st State) {
		states = append(states, st)
	}))

	_, err := s.Solve(context.Background(), f.m, testConfig())
	require.NoError(t, err)

	assert.Equal(t, []State{
		StateIdle,
		StateVariablesFixed,
		StateSubmodelReactivated,
		StateResolved,
		StateVariablesUnfixed,
	}, states)
}

func TestResolveKeepsFixedVariables(t *testing.T) {
	f := linearFixture(t)
	z, err := f.m.Block().AddIntegerVariable("z")
	require.NoError(t, err)
	f.x.SetValue(3)
	f.x.Fix()

	// a second follower parameterized by an integer decision
	_, err = f.m.Block().AddSubModel("other", z)
	require.NoError(t, err)
	_, err = f.m.Block().AddBlock("other_dual")
	require.NoError(t, err)

	sc := &scripted{steps: []step{
		solved(nil, func() map[*model.Var]float64 {
			return map[*model.Var]float64{f.u: 1, z: 2.5}
		}),
		func(m *model.Model) (*solver.Result, error) {
			assert.True(t, z.Fixed())
			assert.Equal(t, 2.0, z.Value())
			return noSolution(m)
		},
	}}
	s, _ := newTestSolver(t, sc)

	_, err = s.Solve(context.Background(), f.m, testConfig())
	require.NoError(t, err)

	assert.True(t, f.x.Fixed())
	assert.Equal(t, 3.0, f.x.Value())
	assert.False(t, z.Fixed())
}

func TestResolveUnfixesOnError(t *testing.T) {
	f := linearFixture(t)
	failure := errors.New("subsolver exploded")

	var states []State
	sc := &scripted{steps: []step{
		solved(nil, func() map[*model.Var]float64 {
			return map[*model.Var]float64{f.x: 1, f.u: 1}
		}),
		func(*model.Model) (*solver.Result, error) {
			return nil, failure
		},
	}}
	s, _ := newTestSolver(t, sc, WithStageObserver(func(_ string, st State) {
		states = append(states, st)
	}))

	_, err := s.Solve(context.Background(), f.m, testConfig())
	assert.ErrorIs(t, err, failure)

	assert.False(t, f.x.Fixed())
	require.NotEmpty(t, states)
	assert.Equal(t, StateVariablesUnfixed, states[len(states)-1])
	assert.NotContains(t, states, StateResolved)
	assert.Zero(t, sc.live())
}

func TestHandleReleasedOnPanic(t *testing.T) {
	f := linearFixture(t)

	sc := &scripted{steps: []step{
		solved(nil, func() map[*model.Var]float64 {
			return map[*model.Var]float64{f.x: 1, f.u: 1}
		}),
		func(*model.Model) (*solver.Result, error) {
			panic("subsolver crashed")
		},
	}}
	s, _ := newTestSolver(t, sc)

	assert.Panics(t, func() {
		_, _ = s.Solve(context.Background(), f.m, testConfig())
	})
	assert.Zero(t, sc.live())
	assert.Equal(t, 2, sc.opened)
	assert.False(t, f.x.Fixed())
}

func TestUnknownSolver(t *testing.T) {
	f := linearFixture(t)
	s, _ := newTestSolver(t, &scripted{})

	cfg := testConfig()
	cfg.Solver = "cplex"

	_, err := s.Solve(context.Background(), f.m, cfg)
	assert.ErrorIs(t, err, solver.ErrUnknownSolver)
}

func TestTransformationFailure(t *testing.T) {
	failure := errors.New("unsupported structure")

	reg := transform.NewRegistry()
	require.NoError(t, reg.Register(transform.LinearDual, transform.Func(
		func(context.Context, *model.Model, transform.Config) error {
			return failure
		})))

	s, err := New(solver.NewRegistry(), reg)
	require.NoError(t, err)

	_, err = s.Solve(context.Background(), linearFixture(t).m, testConfig())
	assert.ErrorIs(t, err, failure)
}

func TestMissingTransformationData(t *testing.T) {
	reg := transform.NewRegistry()
	require.NoError(t, reg.Register(transform.LinearDual, transform.Func(
		func(context.Context, *model.Model, transform.Config) error {
			return nil
		})))

	s, err := New(solver.NewRegistry(), reg)
	require.NoError(t, err)

	_, err = s.Solve(context.Background(), linearFixture(t).m, testConfig())
	assert.ErrorIs(t, err, ErrNoTransformationData)
}

func TestFixedVariableNotFound(t *testing.T) {
	f := linearFixture(t)

	foreign := model.NewModel("foreign")
	var stray *model.Var
	for i := 0; i < 32; i++ {
		stray, _ = foreign.Block().AddVariable("")
	}

	reg := transform.NewRegistry()
	require.NoError(t, reg.Register(transform.LinearDual, transform.Func(
		func(_ context.Context, m *model.Model, _ transform.Config) error {
			m.SetTransformationData(transform.LinearDual, &model.TransformationData{
				Fixed: []*model.Var{stray},
			})
			return nil
		})))

	sc := &scripted{steps: []step{noSolution}}
	solvers := solver.NewRegistry()
	sc.register(t, solvers)

	s, err := New(solvers, reg)
	require.NoError(t, err)

	_, err = s.Solve(context.Background(), f.m, testConfig())
	assert.ErrorIs(t, err, model.ErrComponentNotFound)
	assert.Zero(t, sc.live())
}

func TestMetrics(t *testing.T) {
	f := linearFixture(t)
	reg := prometheus.NewRegistry()

	sc := &scripted{steps: []step{
		solved(nil, func() map[*model.Var]float64 {
			return map[*model.Var]float64{f.x: 1, f.u: 1}
		}),
		noSolution,
	}}
	s, _ := newTestSolver(t, sc, WithRegisterer(reg))

	_, err := s.Solve(context.Background(), f.m, testConfig())
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(s.metrics.invocations.WithLabelValues(scriptedName)))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.runs.WithLabelValues("true", "false")))
	assert.Equal(t, 1, testutil.CollectAndCount(s.metrics.duration))

	_, err = New(solver.NewRegistry(), transform.NewRegistry(), WithRegisterer(reg))
	assert.Error(t, err)
}

func TestLogging(t *testing.T) {
	f := linearFixture(t)
	core, logs := observer.New(zap.DebugLevel)

	sc := &scripted{steps: []step{
		solved(nil, func() map[*model.Var]float64 {
			return map[*model.Var]float64{f.x: 1, f.u: 1}
		}),
		noSolution,
	}}
	s, _ := newTestSolver(t, sc, WithLogger(zap.New(core)))

	_, err := s.Solve(context.Background(), f.m, testConfig())
	require.NoError(t, err)

	finished := logs.FilterMessage("run finished").All()
	require.Len(t, finished, 1)
	assert.NotEmpty(t, finished[0].ContextMap()["run"])
	assert.Equal(t, "interdiction", finished[0].ContextMap()["model"])

	assert.Equal(t, 2, logs.FilterMessage("subsolver finished").Len())
	assert.Equal(t, 5, logs.FilterMessage("resolve stage").Len())
}

func TestNewRejectsNilRegistry(t *testing.T) {
	_, err := New(nil, transform.NewRegistry())
	assert.Error(t, err)
}
