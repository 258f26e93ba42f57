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

// Package gdp reformulates bilinear products into disjunctions and
// disjunctions into big-M mixed-integer constraints.
package gdp

import (
	"github.com/pkg/errors"

	"github.com/costela/bilevel/transform"
)

// Register adds both reformulations to reg under their well-known names.
func Register(reg *transform.Registry) error {
	if err := reg.Register(transform.BilinearToDisjunctive, Bilinear{}); err != nil {
		return err
	}

	return reg.Register(transform.DisjunctiveToBigM, BigM{})
}

var ErrInvalidBigM = errors.New("big-M constant must be positive")
