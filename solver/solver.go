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

// Package solver defines the subsolver contract used by the bilevel
// pipeline and an explicit registry handing out scoped subsolver
// handles by name.
package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/costela/bilevel/model"
)

var (
	ErrUnknownSolver     = errors.New("unknown subsolver")
	ErrAlreadyRegistered = errors.New("subsolver already registered")
	ErrHandleClosed      = errors.New("subsolver handle already closed")
	ErrUnknownOption     = errors.New("unknown subsolver option")
)

// Option names understood by the bundled backends.
const (
	OptionMIPGap   = "mipgap"
	OptionPresolve = "presolve"
)

// SolveOptions are passed to every Solve invocation.
type SolveOptions struct {
	// Tee streams the subsolver log.
	Tee bool
	// TimeLimit is a best-effort budget honored by the subsolver; zero
	// means none.
	TimeLimit time.Duration
}

// Handle is an acquired subsolver. A handle must be closed exactly once,
// after which it must not be used.
type Handle interface {
	SetOption(name string, value float64) error
	Solve(ctx context.Context, m *model.Model, opts SolveOptions) (*Result, error)
	Close() error
}

// Factory creates a fresh handle.
type Factory func() (Handle, error)

type TerminationCondition int

const (
	TerminationUnknown TerminationCondition = iota
	Optimal
	Feasible
	Infeasible
	Unbounded
	MaxTimeLimit
	Aborted
)

func (tc TerminationCondition) String() string {
	switch tc {
	case Optimal:
		return "optimal"
	case Feasible:
		return "feasible"
	case Infeasible:
		return "infeasible"
	case Unbounded:
		return "unbounded"
	case MaxTimeLimit:
		return "maxTimeLimit"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// MarshalText renders the condition by name.
func (tc TerminationCondition) MarshalText() ([]byte, error) {
	return []byte(tc.String()), nil
}

// Result is the outcome of one subsolver invocation.
type Result struct {
	Solver      string
	Termination TerminationCondition
	WallTime    time.Duration
	// CPUTime is nil when the subsolver does not report it. Backends
	// without a CPU clock may report their own elapsed solve time.
	CPUTime *time.Duration
	// Solution is nil when the subsolver found no point.
	Solution *model.Solution
}

func (r *Result) String() string {
	return fmt.Sprintf("%s: %s in %s", r.Solver, r.Termination, r.WallTime)
}
