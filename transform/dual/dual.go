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

// Package dual applies a linear-duality reformulation that was produced
// ahead of time: every sub-model S ships with a sibling block S_dual
// holding the dual optimality conditions of the lower-level problem.
package dual

import (
	"context"

	"github.com/pkg/errors"

	"github.com/costela/bilevel/model"
	"github.com/costela/bilevel/transform"
)

// Suffix names the dual block paired with a sub-model.
const Suffix = "_dual"

var ErrMissingDual = errors.New("sub-model has no dual block")

// Register adds Precomputed to reg as the linear_dual transformation.
func Register(reg *transform.Registry) error {
	return reg.Register(transform.LinearDual, Precomputed{})
}

// Precomputed swaps every active sub-model for its dual block.
//
// The sub-model and its constraints and objectives are deactivated and
// the dual block activated. With UseDualObjective the top-level
// objectives are deactivated so the dual block's objective drives the
// solve; otherwise the dual block's own objectives are deactivated.
// TransformationData is attached under transform.LinearDual.
type Precomputed struct{}

func (Precomputed) Apply(ctx context.Context, m *model.Model, cfg transform.Config) error {
	td := &model.TransformationData{}
	seen := make(map[model.ID]struct{})

	for _, sub := range subModels(m) {
		if err := ctx.Err(); err != nil {
			return err
		}

		dualBlock, err := sub.Sibling(sub.Name() + Suffix)
		if err != nil {
			return errors.Wrapf(ErrMissingDual, "%q: %v", sub.FullName(), err)
		}

		for _, c := range sub.Components() {
			switch c.(type) {
			case *model.Constraint, *model.Objective:
				c.Deactivate()
			}
		}
		sub.Deactivate()
		dualBlock.Activate()

		if !cfg.UseDualObjective {
			for _, o := range dualBlock.Objectives() {
				o.Deactivate()
			}
		}

		for _, v := range sub.Fixed() {
			if _, ok := seen[v.ID()]; ok {
				continue
			}
			seen[v.ID()] = struct{}{}
			td.Fixed = append(td.Fixed, v)
		}
		td.SubModels = append(td.SubModels, model.SubModelPair{
			Name:   sub.Name(),
			Primal: sub,
			Dual:   dualBlock,
		})
	}

	if cfg.UseDualObjective && len(td.SubModels) > 0 {
		for _, o := range m.Block().Objectives() {
			o.Deactivate()
		}
	}

	m.SetTransformationData(transform.LinearDual, td)

	return nil
}

// subModels returns the active sub-models reachable from the root.
func subModels(m *model.Model) []*model.Block {
	var res []*model.Block
	m.Walk(func(b *model.Block) {
		for _, child := range b.Blocks() {
			if child.Active() && child.Kind() == model.KindSubModel {
				res = append(res, child)
			}
		}
	})

	return res
}
