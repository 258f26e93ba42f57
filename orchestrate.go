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

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/costela/bilevel/solver"
)

// solveOnce acquires a handle for the configured subsolver, solves the
// model and releases the handle on every exit path. A returned solution
// is loaded into the unfixed variables and replaces the model's stored
// solutions; a result without one clears them.
func (s *Solver) solveOnce(ctx context.Context, rc *run) (res *solver.Result, err error) {
	name := rc.cfg.Solver

	h, err := s.solvers.Acquire(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := h.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "closing %s handle", name)
		}
	}()

	if err := h.SetOption(solver.OptionMIPGap, rc.cfg.MIPGap); err != nil {
		return nil, errors.Wrapf(err, "configuring %s", name)
	}

	s.metrics.invoked(name)
	res, err = h.Solve(ctx, rc.m, solver.SolveOptions{
		Tee:       rc.cfg.Tee,
		TimeLimit: rc.cfg.TimeLimit,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "solving with %s", name)
	}

	rc.logger.Info("subsolver finished",
		zap.String("solver", name),
		zap.Stringer("termination", res.Termination),
		zap.Duration("elapsed", res.WallTime),
	)

	sols := rc.m.Solutions()
	if res.Solution == nil {
		sols.Clear()
		return res, nil
	}
	if err := rc.m.Load(*res.Solution, true); err != nil {
		return nil, errors.Wrap(err, "loading solution")
	}
	sols.Store(*res.Solution)

	return res, nil
}
