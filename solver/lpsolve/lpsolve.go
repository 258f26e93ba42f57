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

/*
Package lpsolve is the lp_solve subsolver backend.

The backend translates the active linear part of a model into an lp_solve
problem on every Solve, honors the relative MIP gap and the time limit,
and aborts the search when the context is cancelled.

	reg := solver.NewRegistry()
	lpsolve.Register(reg, logger)

	h, _ := reg.Acquire(ctx, lpsolve.Name)
	defer h.Close()
*/
package lpsolve

// #cgo linux LDFLAGS: -llpsolve55
// #cgo darwin LDFLAGS: -L/usr/local/lib -llpsolve55
// #cgo darwin CFLAGS: -I/usr/local/include
// #include <lp_lib.h>
// #include <stdlib.h>
/*
// https://golang.org/issue/19837
extern int abortCallback(lprec *lp, void *userhandle);
extern void logCallback(lprec *lp, void *userhandle, char *buf);
*/
import "C"

import (
	"context"
	"math"
	"sync"
	"time"
	"unsafe"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/costela/bilevel/model"
	"github.com/costela/bilevel/solver"
)

// Name is the registry name of the backend.
const Name = "lpsolve"

// Register adds the backend to reg. Handles log through logger.
func Register(reg *solver.Registry, logger *zap.Logger, opts ...solver.RegisterOption) error {
	return reg.Register(Name, func() (solver.Handle, error) {
		return New(WithLogger(logger))
	}, opts...)
}

/* Types */

type Handle struct {
	mu     sync.Mutex
	self   unsafe.Pointer
	logger *zap.Logger
	mipGap float64
	tee    bool
	closed bool
}

// New returns a handle. lp_solve problems are created per Solve, the
// handle only owns the callback registration.
func New(opts ...Option) (*Handle, error) {
	h := &Handle{
		logger: zap.NewNop(),
		mipGap: 1e-9,
	}

	for _, opt := range opts {
		if err := opt(h); err != nil {
			return nil, errors.Wrap(err, "applying handle option")
		}
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	h.self = saveRef(h)

	return h, nil
}

// Close releases the callback registration. It is safe to call Close
// multiple times.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.closed {
		freeRef(h.self)
		h.self = nil
		h.closed = true
	}

	return nil
}

// SetOption understands solver.OptionMIPGap.
func (h *Handle) SetOption(name string, value float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch name {
	case solver.OptionMIPGap:
		h.mipGap = value
	default:
		return errors.Wrapf(solver.ErrUnknownOption, "%s: %q", Name, name)
	}

	return nil
}

//export logCallback
func logCallback(prob *C.lprec, handlePtr unsafe.Pointer, msg *C.char) {
	h, ok := loadRef(handlePtr).(*Handle)
	if !ok {
		return
	}

	if h.tee {
		h.logger.Info(C.GoString(msg), zap.String("solver", Name))
	} else {
		h.logger.Debug(C.GoString(msg), zap.String("solver", Name))
	}
}

//export abortCallback
func abortCallback(prob *C.lprec, ctxPtr unsafe.Pointer) C.int {
	ctx, ok := loadRef(ctxPtr).(context.Context)
	if ok && ctx.Err() != nil {
		return C.TRUE
	}

	return C.FALSE
}

// Solve builds an lp_solve problem from the model and solves it. If the
// context is cancelled or times out, the search is aborted and the
// context error returned.
func (h *Handle) Solve(ctx context.Context, m *model.Model, opts solver.SolveOptions) (*solver.Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
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

	prob := h.build(lp)
	defer C.delete_lp(prob)

	h.tee = opts.Tee
	C.put_logfunc(prob, (*C.lphandlestr_func)(C.logCallback), h.self)
	c_empty := C.CString("")
	defer C.free(unsafe.Pointer(c_empty))
	C.set_outputfile(prob, c_empty)
	if opts.Tee {
		C.set_verbose(prob, C.NORMAL)
	} else {
		C.set_verbose(prob, C.NEUTRAL)
	}

	C.set_mip_gap(prob, C.FALSE, C.REAL(h.mipGap))
	if opts.TimeLimit > 0 {
		C.set_timeout(prob, C.long(math.Ceil(opts.TimeLimit.Seconds())))
	}

	ctxRef := saveRef(ctx)
	defer freeRef(ctxRef)
	C.put_abortfunc(prob, (*C.lphandle_intfunc)(C.abortCallback), ctxRef)
	defer C.put_abortfunc(prob, nil, nil)

	ret := C.solve(prob)
	res.WallTime = time.Since(start)
	// lp_solve has no CPU clock; time_elapsed is the library's own
	// elapsed time since the solve started and stands in for it.
	elapsed := time.Duration(float64(C.time_elapsed(prob)) * float64(time.Second))
	res.CPUTime = &elapsed

	var status model.SolutionStatus
	switch ret {
	case C.OPTIMAL:
		res.Termination = solver.Optimal
		status = model.SolutionOptimal
	case C.SUBOPTIMAL:
		res.Termination = solver.Feasible
		status = model.SolutionFeasible
	case C.INFEASIBLE:
		res.Termination = solver.Infeasible
		return res, nil
	case C.UNBOUNDED:
		res.Termination = solver.Unbounded
		return res, nil
	case C.TIMEOUT:
		res.Termination = solver.MaxTimeLimit
		return res, nil
	case C.USERABORT:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrUserAbort
	default:
		return nil, SolveError(ret)
	}

	values := make([]C.REAL, len(lp.Columns))
	C.get_variables(prob, &values[0])
	out := make([]float64, len(values))
	for j, v := range values {
		out[j] = float64(v)
	}
	res.Solution = lp.Solution(status, float64(C.get_objective(prob))+lp.ObjectiveConstant, out)

	return res, nil
}

// build creates the lp_solve problem. The caller owns the result.
func (h *Handle) build(lp *solver.LP) *C.lprec {
	prob := C.make_lp(0, C.int(len(lp.Columns)))

	c_name := C.CString(lp.Name)
	defer C.free(unsafe.Pointer(c_name))
	C.set_lp_name(prob, c_name)

	inf := float64(C.get_infinite(prob))
	clamp := func(v float64) C.REAL {
		switch {
		case math.IsInf(v, 1):
			return C.REAL(inf)
		case math.IsInf(v, -1):
			return C.REAL(-inf)
		default:
			return C.REAL(v)
		}
	}

	obj := make([]C.REAL, 0, len(lp.Columns))
	objCols := make([]C.int, 0, len(lp.Columns))
	for j, col := range lp.Columns {
		idx := C.int(j + 1)

		c_col := C.CString(col.Var.FullName())
		C.set_col_name(prob, idx, c_col)
		C.free(unsafe.Pointer(c_col))

		switch col.Var.Domain() {
		case model.Binary:
			C.set_binary(prob, idx, C.TRUE)
		case model.Integer:
			C.set_int(prob, idx, C.TRUE)
			C.set_bounds(prob, idx, clamp(col.Lower), clamp(col.Upper))
		default:
			C.set_bounds(prob, idx, clamp(col.Lower), clamp(col.Upper))
		}

		if col.Cost != 0 {
			obj = append(obj, C.REAL(col.Cost))
			objCols = append(objCols, idx)
		}
	}
	if len(obj) > 0 {
		C.set_obj_fnex(prob, C.int(len(obj)), &obj[0], &objCols[0])
	}
	if lp.Sense == model.Maximize {
		C.set_maxim(prob)
	} else {
		C.set_minim(prob)
	}

	C.set_add_rowmode(prob, C.TRUE)
	for _, r := range lp.Rows {
		row := make([]C.REAL, len(r.Cols))
		colno := make([]C.int, len(r.Cols))
		for k, j := range r.Cols {
			colno[k] = C.int(j + 1)
			row[k] = C.REAL(r.Coefs[k])
		}

		switch {
		case math.IsInf(r.Lower, 0):
			C.add_constraintex(prob, C.int(len(row)), &row[0], &colno[0], C.LE, C.REAL(r.Upper))
		case math.IsInf(r.Upper, 0):
			C.add_constraintex(prob, C.int(len(row)), &row[0], &colno[0], C.GE, C.REAL(r.Lower))
		case r.Upper == r.Lower:
			C.add_constraintex(prob, C.int(len(row)), &row[0], &colno[0], C.EQ, C.REAL(r.Upper))
		default:
			C.add_constraintex(prob, C.int(len(row)), &row[0], &colno[0], C.LE, C.REAL(r.Upper))
			C.add_constraintex(prob, C.int(len(row)), &row[0], &colno[0], C.GE, C.REAL(r.Lower))
		}
	}
	C.set_add_rowmode(prob, C.FALSE)

	return prob
}
