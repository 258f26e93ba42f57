/*
Copyright © 2015 Leo Antunes <leo@costela.net>

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

package glpk

// #cgo LDFLAGS: -lglpk
// #include <glpk.h>
// #include <stdlib.h>
import "C"

import (
	"github.com/costela/bilevel/solver"
)

// solveSimplex solves the loaded problem with the primal simplex method.
func (h *Handle) solveSimplex(lp *solver.LP, tee bool, limitMs int, res *solver.Result) error {
	var parm C.glp_smcp
	C.glp_init_smcp(&parm)

	parm.msg_lev = msgLevel(tee)
	parm.presolve = onOff(h.presolve)
	if limitMs > 0 {
		parm.tm_lim = C.int(limitMs)
	}

	switch ret := C.glp_simplex(h.prob, &parm); ret {
	case 0:
	case C.GLP_ETMLIM:
		res.Termination = solver.MaxTimeLimit
	case C.GLP_ENOPFS:
		res.Termination = solver.Infeasible
		return nil
	case C.GLP_ENODFS:
		res.Termination = solver.Unbounded
		return nil
	default:
		return glpkError(ret)
	}

	status := C.glp_get_status(h.prob)
	if res.Termination == solver.TerminationUnknown {
		res.Termination = termination(status)
	}
	if status != C.GLP_OPT && status != C.GLP_FEAS {
		return nil
	}

	values := make([]float64, len(lp.Columns))
	for j := range lp.Columns {
		values[j] = float64(C.glp_get_col_prim(h.prob, C.int(j+1)))
	}
	res.Solution = lp.Solution(solutionStatus(status), float64(C.glp_get_obj_val(h.prob)), values)

	return nil
}
