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
	"github.com/costela/bilevel/model"
	"github.com/costela/bilevel/solver"
)

// solveBranchCut solves the loaded problem with the branch-and-cut
// algorithm, for problems with integer and/or binary columns.
func (h *Handle) solveBranchCut(lp *solver.LP, tee bool, limitMs int, res *solver.Result) error {
	var parm C.glp_iocp
	C.glp_init_iocp(&parm)

	parm.msg_lev = msgLevel(tee)
	// without presolve glp_intopt needs an optimal LP relaxation basis
	parm.presolve = C.GLP_ON
	parm.mip_gap = C.double(h.mipGap)
	if limitMs > 0 {
		parm.tm_lim = C.int(limitMs)
	}

	switch ret := C.glp_intopt(h.prob, &parm); ret {
	case 0, C.GLP_EMIPGAP:
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

	status := C.glp_mip_status(h.prob)
	if res.Termination == solver.TerminationUnknown {
		res.Termination = termination(status)
	}
	if status != C.GLP_OPT && status != C.GLP_FEAS {
		return nil
	}

	values := make([]float64, len(lp.Columns))
	for j := range lp.Columns {
		values[j] = float64(C.glp_mip_col_val(h.prob, C.int(j+1)))
	}
	res.Solution = lp.Solution(solutionStatus(status), float64(C.glp_mip_obj_val(h.prob)), values)

	return nil
}

func termination(status C.int) solver.TerminationCondition {
	switch status {
	case C.GLP_OPT:
		return solver.Optimal
	case C.GLP_FEAS:
		return solver.Feasible
	case C.GLP_INFEAS, C.GLP_NOFEAS:
		return solver.Infeasible
	case C.GLP_UNBND:
		return solver.Unbounded
	default:
		return solver.TerminationUnknown
	}
}

func solutionStatus(status C.int) model.SolutionStatus {
	switch status {
	case C.GLP_OPT:
		return model.SolutionOptimal
	case C.GLP_FEAS:
		return model.SolutionFeasible
	default:
		return model.SolutionUnknown
	}
}
