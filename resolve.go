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
	"math"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/costela/bilevel/model"
)

// State is a step of the resolve stage.
type State int

const (
	StateIdle State = iota
	StateVariablesFixed
	StateSubmodelReactivated
	StateResolved
	StateVariablesUnfixed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateVariablesFixed:
		return "variables_fixed"
	case StateSubmodelReactivated:
		return "submodel_reactivated"
	case StateResolved:
		return "resolved"
	case StateVariablesUnfixed:
		return "variables_unfixed"
	default:
		return "unknown"
	}
}

// StageObserver is notified of resolve stage transitions.
type StageObserver func(runID string, state State)

func (s *Solver) transition(rc *run, state State) {
	rc.logger.Debug("resolve stage", zap.Stringer("state", state))
	if s.observer != nil {
		s.observer(rc.id, state)
	}
}

// resolve fixes the upper-level decisions at their solved values,
// restores the original lower level in place of its dual and solves
// again. Every variable fixed here is unfixed before returning, whatever
// the outcome of the second solve.
func (s *Solver) resolve(ctx context.Context, rc *run) error {
	s.transition(rc, StateIdle)

	var (
		unfix   []*model.Var
		entered bool
	)
	defer func() {
		for _, v := range unfix {
			v.Unfix()
		}
		if entered {
			s.transition(rc, StateVariablesUnfixed)
		}
	}()

	for _, v := range rc.data.Fixed {
		live, err := rc.m.Lookup(v.ID())
		if err != nil {
			return errors.Wrapf(err, "fixing %q", v.FullName())
		}
		if live.Fixed() {
			continue
		}
		// without a solved value there is nothing to fix it at
		if !live.HasValue() {
			rc.logger.Debug("leaving variable free", zap.String("variable", live.FullName()))
			continue
		}
		val := live.Value()
		if live.IsInteger() {
			val = math.RoundToEven(val)
		}
		live.SetValue(val)
		live.Fix()
		unfix = append(unfix, live)
	}
	entered = true
	s.transition(rc, StateVariablesFixed)

	if err := reactivate(rc); err != nil {
		return err
	}
	s.transition(rc, StateSubmodelReactivated)

	res, err := s.solveOnce(ctx, rc)
	if err != nil {
		return err
	}
	rc.results = append(rc.results, res)
	s.transition(rc, StateResolved)

	return nil
}

// reactivate swaps every dual block back for its sub-model and turns the
// sub-model into an ordinary block. The top-level objectives are taken
// out so the lower-level objective drives the second solve.
func reactivate(rc *run) error {
	for _, o := range rc.m.Block().Objectives() {
		o.Deactivate()
	}

	for _, pair := range rc.data.SubModels {
		sub := pair.Primal
		sub.Activate()
		for _, c := range sub.InactiveComponents() {
			switch c.(type) {
			case *model.Var, *model.Set:
			default:
				c.Activate()
			}
		}
		pair.Dual.Deactivate()

		if err := sub.ComputeRepn(); err != nil {
			return errors.Wrapf(err, "computing representation of %q", pair.Name)
		}
		if err := rc.m.Reclassify(sub, model.KindBlock); err != nil {
			return errors.Wrapf(err, "reclassifying %q", pair.Name)
		}
	}

	return nil
}
