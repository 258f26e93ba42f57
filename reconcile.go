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
	"math"

	"github.com/pkg/errors"

	"github.com/costela/bilevel/model"
)

// Threshold is the largest surrogate magnitude still read as zero.
const Threshold = 1e-7

// reconcile derives the indicator of every bilinear surrogate from its
// solved value and takes the helper block out of later solves.
func reconcile(bd *model.BilinearData) error {
	if bd == nil {
		return nil
	}

	for i, v := range bd.Vars {
		if !v.HasValue() {
			return errors.Wrapf(model.ErrNoValue, "surrogate %q", v.FullName())
		}
		if math.Abs(v.Value()) <= Threshold {
			bd.Boolean[i] = 0
		} else {
			bd.Boolean[i] = 1
		}
	}
	bd.Deactivate()

	return nil
}
