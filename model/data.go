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

package model

// SubModelPair links a lower-level block to its dual reformulation.
type SubModelPair struct {
	Name   string
	Primal *Block
	Dual   *Block
}

// TransformationData is what the duality reformulation leaves on the
// model for later stages.
type TransformationData struct {
	// Fixed holds the upper-level variables the lower level treated as
	// parameters.
	Fixed     []*Var
	SubModels []SubModelPair
}

// BilinearData holds the surrogates introduced for bilinear products.
// Vars[i] and Boolean[i] refer to the same product.
type BilinearData struct {
	Block   *Block
	Vars    []*Var
	Boolean []int
}

// Append registers a new surrogate with an unset indicator slot.
func (bd *BilinearData) Append(v *Var) {
	bd.Vars = append(bd.Vars, v)
	bd.Boolean = append(bd.Boolean, 0)
}

func (bd *BilinearData) Len() int {
	return len(bd.Vars)
}

// Deactivate removes the helper block from later solves.
func (bd *BilinearData) Deactivate() {
	bd.Block.Deactivate()
}

func (bd *BilinearData) Active() bool {
	return bd.Block.Active()
}
