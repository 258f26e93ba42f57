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
package lpsolve

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/costela/bilevel/model"
	"github.com/costela/bilevel/solver"
)

const delta = 0.0000001 // acceptable numerical deviation for test results

func mipModel(t *testing.T) (*model.Model, []*model.Var) {
	t.Helper()

	m := model.NewModel("test")
	root := m.Block()
	x1, _ := root.AddDefinedVariable("x1", model.Continuous, 0, 40)
	x2, _ := root.AddDefinedVariable("x2", model.Continuous, 0, math.Inf(1))
	x3, _ := root.AddDefinedVariable("x3", model.Continuous, 0, math.Inf(1))
	x4, _ := root.AddDefinedVariable("x4", model.Integer, 2, 3)

	_, err := root.AddObjective("z", model.Maximize, model.Const(0).Add(1, x1).Add(2, x2).Add(3, x3).Add(1, x4))
	require.NoError(t, err)
	_, _ = root.AddConstraint("c1", math.Inf(-1), 20, model.Const(0).Add(-1, x1).Add(1, x2).Add(1, x3).Add(10, x4))
	_, _ = root.AddConstraint("c2", math.Inf(-1), 30, model.Const(0).Add(1, x1).Add(-3, x2).Add(1, x3))
	_, _ = root.AddConstraint("c3", 0, 0, model.Const(0).Add(1, x2).Add(-3.5, x4))

	return m, []*model.Var{x1, x2, x3, x4}
}

func TestSolveMIP(t *testing.T) {
	m, vars := mipModel(t)

	h, err := New()
	require.NoError(t, err)
	defer h.Close()

	res, err := h.Solve(context.Background(), m, solver.SolveOptions{})
	require.NoError(t, err)

	assert.Equal(t, solver.Optimal, res.Termination)
	assert.NotNil(t, res.CPUTime)
	require.NotNil(t, res.Solution)
	assert.InDelta(t, 122.5, res.Solution.Objective, delta)

	expected := []float64{40, 10.5, 19.5, 3}
	for i, x := range vars {
		assert.InDelta(t, expected[i], res.Solution.Values[x.ID()], delta)
	}
}

func TestSolveLP(t *testing.T) {
	m := model.NewModel("test")
	root := m.Block()
	x1, _ := root.AddDefinedVariable("x1", model.Continuous, 0, math.Inf(1))
	x2, _ := root.AddDefinedVariable("x2", model.Continuous, 0, math.Inf(1))
	x3, _ := root.AddDefinedVariable("x3", model.Continuous, 0, math.Inf(1))

	_, _ = root.AddObjective("z", model.Maximize, model.Const(1).Add(1, x1).Add(2, x2).Add(-1, x3))
	_, _ = root.AddConstraint("c1", math.Inf(-1), 14, model.Const(0).Add(2, x1).Add(1, x2).Add(1, x3))
	_, _ = root.AddConstraint("c2", math.Inf(-1), 28, model.Const(0).Add(4, x1).Add(2, x2).Add(3, x3))
	_, _ = root.AddConstraint("c3", math.Inf(-1), 30, model.Const(0).Add(2, x1).Add(5, x2).Add(5, x3))

	h, err := New()
	require.NoError(t, err)
	defer h.Close()

	res, err := h.Solve(context.Background(), m, solver.SolveOptions{})
	require.NoError(t, err)

	assert.Equal(t, solver.Optimal, res.Termination)
	require.NotNil(t, res.Solution)
	// objective constant is carried outside of lp_solve
	assert.InDelta(t, 14.0, res.Solution.Objective, delta)

	expected := []float64{5, 4, 0}
	for i, x := range []*model.Var{x1, x2, x3} {
		assert.InDelta(t, expected[i], res.Solution.Values[x.ID()], delta)
	}
}

func TestSolveInfeasible(t *testing.T) {
	m := model.NewModel("test")
	x, _ := m.Block().AddDefinedVariable("x", model.Continuous, 0, 1)
	_, _ = m.Block().AddObjective("z", model.Minimize, model.Const(0).Add(1, x))
	_, _ = m.Block().AddConstraint("c", 2, math.Inf(1), model.Const(0).Add(1, x))

	h, err := New()
	require.NoError(t, err)
	defer h.Close()

	res, err := h.Solve(context.Background(), m, solver.SolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, solver.Infeasible, res.Termination)
	assert.Nil(t, res.Solution)
}

func TestContext(t *testing.T) {
	m, _ := mipModel(t)

	h, err := New()
	require.NoError(t, err)
	defer h.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = h.Solve(ctx, m, solver.SolveOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOptions(t *testing.T) {
	h, err := New()
	require.NoError(t, err)
	defer h.Close()

	require.NoError(t, h.SetOption(solver.OptionMIPGap, 0.01))
	assert.Equal(t, 0.01, h.mipGap)
	assert.ErrorIs(t, h.SetOption(solver.OptionPresolve, 1), solver.ErrUnknownOption)
}

func TestClosedHandle(t *testing.T) {
	h, err := New()
	require.NoError(t, err)
	require.NoError(t, h.Close())
	require.NoError(t, h.Close())

	_, err = h.Solve(context.Background(), model.NewModel("test"), solver.SolveOptions{})
	assert.ErrorIs(t, err, solver.ErrHandleClosed)
}

// Try to detect non-reentrant code in underlying lib
func TestParallel(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test in short mode.")
	}

	reg := solver.NewRegistry()
	require.NoError(t, Register(reg, zap.NewNop()))

	wg := sync.WaitGroup{}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			m, _ := mipModel(t)
			h, err := reg.Acquire(context.Background(), Name)
			if !assert.NoError(t, err) {
				return
			}
			defer h.Close()

			res, err := h.Solve(context.Background(), m, solver.SolveOptions{})
			if assert.NoError(t, err, fmt.Sprintf("worker %d", i)) {
				assert.Equal(t, Name, res.Solver)
				assert.InDelta(t, 122.5, res.Solution.Objective, delta)
			}
		}(i)
	}
	wg.Wait()
}
