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

// Package glpk is the GLPK subsolver backend. Pure LPs are solved with
// the simplex method, problems with integral columns with
// branch-and-cut.
package glpk

// #cgo LDFLAGS: -lglpk
// #include <glpk.h>
// #include <stdlib.h>
import "C"

import (
	"context"
	"math"
	"runtime"
	"time"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/costela/bilevel/model"
	"github.com/costela/bilevel/solver"
)

// Name is the registry name of the backend.
const Name = "glpk"

// Register adds the backend to reg.
func Register(reg *solver.Registry, opts ...solver.RegisterOption) error {
	return reg.Register(Name, func() (solver.Handle, error) {
		return New(), nil
	}, opts...)
}

/* Types */

type Handle struct {
	prob     *C.glp_prob
	ia       []C.int
	ja       []C.int
	ar       []C.double
	mipGap   float64
	presolve bool
}

// New allocates a GLPK problem object. It is released by Close.
func New() *Handle {
	h := &Handle{
		prob:     C.glp_create_prob(),
		presolve: true,
	}

	// plug the underlying C library's destructors to the handle, in case
	// it is dropped without Close
	runtime.SetFinalizer(h, finalizeHandle)

	return h
}

func finalizeHandle(h *Handle) {
	h.Close()
}

// Close releases the GLPK problem object. It is safe to call Close
// multiple times.
func (h *Handle) Close() error {
	if h.prob != nil {
		C.glp_delete_prob(h.prob)
		h.prob = nil
	}

	return nil
}

// SetOption understands solver.OptionMIPGap and solver.OptionPresolve
// (non-zero enables).
func (h *Handle) SetOption(name string, value float64) error {
	switch name {
	case solver.OptionMIPGap:
		h.mipGap = value
	case solver.OptionPresolve:
		h.presolve = value != 0
	default:
		return errors.Wrapf(solver.ErrUnknownOption, "%s: %q", Name, name)
	}

	return nil
}

// Solve loads the model's active linear part into GLPK and solves it.
// A context deadline shortens the time limit; GLPK offers no other way
// to interrupt a running search.
func (h *Handle) Solve(ctx context.Context, m *model.Model, opts solver.SolveOptions) (*solver.Result, error) {
	if h.prob == nil {
		return nil, solver.ErrHandleClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lp, err := solver.BuildLP(m)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res := &solver.Result{Solver: Name}
	if len(lp.Columns) == 0 {
		res.Termination = solver.Optimal
		res.Solution = lp.Solution(model.SolutionOptimal, lp.ObjectiveConstant, nil)
		res.WallTime = time.Since(start)
		return res, nil
	}

	h.load(lp)
	limit := timeLimit(ctx, opts.TimeLimit)

	if lp.IsMIP() {
		err = h.solveBranchCut(lp, opts.Tee, limit, res)
	} else {
		err = h.solveSimplex(lp, opts.Tee, limit, res)
	}
	res.WallTime = time.Since(start)
	if err != nil {
		return nil, err
	}

	return res, nil
}

// timeLimit returns the effective budget in milliseconds, 0 for none.
func timeLimit(ctx context.Context, limit time.Duration) int {
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); limit <= 0 || left < limit {
			limit = left
		}
		if limit <= 0 {
			limit = time.Millisecond
		}
	}
	if limit <= 0 {
		return 0
	}
	if ms := limit.Milliseconds(); ms < math.MaxInt32 {
		return int(ms)
	}

	return math.MaxInt32
}

func (h *Handle) load(lp *solver.LP) {
	C.glp_erase_prob(h.prob)

	c_name := C.CString(lp.Name)
	defer C.free(unsafe.Pointer(c_name))
	C.glp_set_prob_name(h.prob, c_name)

	if lp.Sense == model.Maximize {
		C.glp_set_obj_dir(h.prob, C.GLP_MAX)
	} else {
		C.glp_set_obj_dir(h.prob, C.GLP_MIN)
	}
	C.glp_set_obj_coef(h.prob, 0, C.double(lp.ObjectiveConstant))

	C.glp_add_cols(h.prob, C.int(len(lp.Columns)))
	for j, col := range lp.Columns {
		idx := C.int(j + 1)
		c_col := C.CString(col.Var.FullName())
		C.glp_set_col_name(h.prob, idx, c_col)
		C.free(unsafe.Pointer(c_col))

		switch col.Var.Domain() {
		case model.Binary:
			C.glp_set_col_kind(h.prob, idx, C.GLP_BV)
		case model.Integer:
			C.glp_set_col_kind(h.prob, idx, C.GLP_IV)
			setColBounds(h.prob, idx, col.Lower, col.Upper)
		default:
			C.glp_set_col_kind(h.prob, idx, C.GLP_CV)
			setColBounds(h.prob, idx, col.Lower, col.Upper)
		}
		C.glp_set_obj_coef(h.prob, idx, C.double(col.Cost))
	}

	// glpk indices start at 1; index 0 is reserved
	h.ia = append(h.ia[:0], 0)
	h.ja = append(h.ja[:0], 0)
	h.ar = append(h.ar[:0], 0.0)

	if len(lp.Rows) > 0 {
		C.glp_add_rows(h.prob, C.int(len(lp.Rows)))
	}
	for i, row := range lp.Rows {
		idx := C.int(i + 1)
		c_row := C.CString(row.Name)
		C.glp_set_row_name(h.prob, idx, c_row)
		C.free(unsafe.Pointer(c_row))

		setRowBounds(h.prob, idx, row.Lower, row.Upper)
		for k, j := range row.Cols {
			h.ia = append(h.ia, idx)
			h.ja = append(h.ja, C.int(j+1))
			h.ar = append(h.ar, C.double(row.Coefs[k]))
		}
	}

	C.glp_load_matrix(h.prob, C.int(len(h.ia)-1), &h.ia[0], &h.ja[0], &h.ar[0])
}

func setColBounds(prob *C.glp_prob, j C.int, lower, upper float64) {
	typ, lb, ub := boundType(lower, upper)
	C.glp_set_col_bnds(prob, j, typ, lb, ub)
}

func setRowBounds(prob *C.glp_prob, i C.int, lower, upper float64) {
	typ, lb, ub := boundType(lower, upper)
	C.glp_set_row_bnds(prob, i, typ, lb, ub)
}

func boundType(lower, upper float64) (C.int, C.double, C.double) {
	switch {
	case math.IsInf(lower, 0) && math.IsInf(upper, 0):
		return C.GLP_FR, 0, 0
	case math.IsInf(lower, 0):
		return C.GLP_UP, 0, C.double(upper)
	case math.IsInf(upper, 0):
		return C.GLP_LO, C.double(lower), 0
	case upper == lower:
		return C.GLP_FX, C.double(lower), C.double(upper)
	default:
		return C.GLP_DB, C.double(lower), C.double(upper)
	}
}

func msgLevel(tee bool) C.int {
	if tee {
		return C.GLP_MSG_ON
	}

	return C.GLP_MSG_OFF
}

func onOff(b bool) C.int {
	if b {
		return C.GLP_ON
	}

	return C.GLP_OFF
}
