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

package solver

import (
	"math"

	"github.com/pkg/errors"

	"github.com/costela/bilevel/model"
)

var (
	ErrMultipleObjectives  = errors.New("more than one active objective")
	ErrUnreformulated      = errors.New("active disjunction must be reformulated before solving")
	ErrTriviallyInfeasible = errors.New("constant constraint is violated")
)

// feasTol is the tolerance for constraints without unfixed variables.
const feasTol = 1e-9

// Column is one decision variable of an LP.
type Column struct {
	Var          *model.Var
	Lower, Upper float64
	Cost         float64
}

// Row is lower <= Σ Coefs[k]*x[Cols[k]] <= upper.
type Row struct {
	Name         string
	Lower, Upper float64
	Cols         []int
	Coefs        []float64
}

// LP is the flat linear (mixed-integer) program a subsolver sees for a
// model: the active objective and the active constraints reachable
// through model.Walk, with fixed variables folded into constants.
type LP struct {
	Name              string
	Sense             model.Sense
	ObjectiveConstant float64
	Columns           []Column
	Rows              []Row

	index map[model.ID]int
}

// BuildLP flattens m. At most one objective may be active; none means a
// feasibility problem.
func BuildLP(m *model.Model) (*LP, error) {
	if djs := m.ActiveDisjunctions(); len(djs) > 0 {
		return nil, errors.Wrapf(ErrUnreformulated, "%q", djs[0].Name())
	}

	lp := &LP{
		Name:  m.Name(),
		index: make(map[model.ID]int),
	}

	objs := m.ActiveObjectives()
	switch len(objs) {
	case 0:
	case 1:
		repn, err := objs[0].StandardRepn()
		if err != nil {
			return nil, errors.Wrapf(err, "objective %q", objs[0].Name())
		}
		lp.Sense = objs[0].Sense()
		lp.ObjectiveConstant = repn.Constant
		for _, t := range repn.Linear {
			lp.Columns[lp.column(t.Var)].Cost += t.Coef
		}
	default:
		return nil, errors.Wrapf(ErrMultipleObjectives, "%d active", len(objs))
	}

	for _, c := range m.ActiveConstraints() {
		repn, err := c.StandardRepn()
		if err != nil {
			return nil, errors.Wrapf(err, "constraint %q", c.Name())
		}
		lower, upper := c.Bounds()
		lower -= repn.Constant
		upper -= repn.Constant

		if len(repn.Linear) == 0 {
			if lower > feasTol || upper < -feasTol {
				return nil, errors.Wrapf(ErrTriviallyInfeasible, "constraint %q", c.Name())
			}
			continue
		}
		if math.IsInf(lower, -1) && math.IsInf(upper, 1) {
			continue
		}

		row := Row{Name: c.Name(), Lower: lower, Upper: upper}
		for _, t := range repn.Linear {
			row.Cols = append(row.Cols, lp.column(t.Var))
			row.Coefs = append(row.Coefs, t.Coef)
		}
		lp.Rows = append(lp.Rows, row)
	}

	return lp, nil
}

func (lp *LP) column(v *model.Var) int {
	if j, ok := lp.index[v.ID()]; ok {
		return j
	}
	lower, upper := v.Bounds()
	j := len(lp.Columns)
	lp.Columns = append(lp.Columns, Column{Var: v, Lower: lower, Upper: upper})
	lp.index[v.ID()] = j

	return j
}

// IsMIP reports whether any column is integral.
func (lp *LP) IsMIP() bool {
	for _, col := range lp.Columns {
		if col.Var.IsInteger() {
			return true
		}
	}

	return false
}

// Solution maps column values back to model variables.
func (lp *LP) Solution(status model.SolutionStatus, objective float64, values []float64) *model.Solution {
	sol := &model.Solution{
		Status:    status,
		Objective: objective,
		Values:    make(map[model.ID]float64, len(values)),
	}
	for j, val := range values {
		if j < len(lp.Columns) {
			sol.Values[lp.Columns[j].Var.ID()] = val
		}
	}

	return sol
}
