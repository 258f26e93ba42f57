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

	"go.uber.org/zap"

	"github.com/costela/bilevel/transform"
)

// dualize replaces the lower level by its dual reformulation and keeps
// the data the reformulation attaches to the model.
func (s *Solver) dualize(ctx context.Context, rc *run) error {
	err := s.transforms.Apply(ctx, transform.LinearDual, rc.m, transform.Config{
		UseDualObjective: rc.cfg.UseDualObjective,
	})
	if err != nil {
		return err
	}

	td, ok := rc.m.TransformationData(transform.LinearDual)
	if !ok || td == nil {
		return ErrNoTransformationData
	}
	rc.data = td

	rc.logger.Debug("applied linear dual",
		zap.Int("submodels", len(td.SubModels)),
		zap.Int("fixed", len(td.Fixed)),
	)

	return nil
}

// linearize rewrites bilinear products into a big-M mixed-integer form.
// Both transformations run before anything is solved.
func (s *Solver) linearize(ctx context.Context, rc *run) error {
	cfg := transform.Config{BigM: rc.cfg.BigM}

	for _, name := range []string{transform.BilinearToDisjunctive, transform.DisjunctiveToBigM} {
		if err := s.transforms.Apply(ctx, name, rc.m, cfg); err != nil {
			return err
		}
	}

	if bd := rc.m.BilinearData(); bd != nil {
		rc.logger.Debug("linearized bilinear terms",
			zap.Int("surrogates", bd.Len()),
			zap.Float64("bigM", rc.cfg.BigM),
		)
	}

	return nil
}
