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

package gdp

import (
	"context"
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/costela/bilevel/model"
	"github.com/costela/bilevel/transform"
)

// BigM relaxes every active disjunction with one binary indicator per
// disjunct. A disjunct constraint lo <= e <= hi becomes
//
//	lo - M(1-y) <= e <= hi + M(1-y)
//
// and the indicators of a disjunction sum to one.
type BigM struct{}

func (BigM) Apply(ctx context.Context, m *model.Model, cfg transform.Config) error {
	if cfg.BigM <= 0 || math.IsInf(cfg.BigM, 0) || math.IsNaN(cfg.BigM) {
		return errors.Wrapf(ErrInvalidBigM, "got %v", cfg.BigM)
	}

	for _, d := range m.ActiveDisjunctions() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := relax(d, cfg.BigM); err != nil {
			return errors.Wrapf(err, "disjunction %q", d.Name())
		}
		d.Deactivate()
	}

	return nil
}

func relax(d *model.Disjunction, bigM float64) error {
	blk := d.Parent()
	xor := model.Const(0)

	for j, dj := range d.Disjuncts() {
		y, err := blk.AddBinaryVariable(fmt.Sprintf("%s_%s_indicator", d.Name(), dj.Name()))
		if err != nil {
			return err
		}
		dj.SetIndicator(y)
		xor = xor.Add(1, y)

		for k, c := range dj.Constraints() {
			lower, upper := c.Bounds()
			name := fmt.Sprintf("%s_%d_%d", d.Name(), j, k)
			if !math.IsInf(upper, 1) {
				if _, err := blk.AddConstraint(name+"_ub", math.Inf(-1), upper+bigM, c.Body().Add(bigM, y)); err != nil {
					return err
				}
			}
			if !math.IsInf(lower, -1) {
				if _, err := blk.AddConstraint(name+"_lb", lower-bigM, math.Inf(1), c.Body().Add(-bigM, y)); err != nil {
					return err
				}
			}
		}
	}

	_, err := blk.AddConstraint(d.Name()+"_xor", 1, 1, xor)
	return err
}
