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

// BlockName is the name of the block holding the bilinear surrogates.
const BlockName = "bilinear_data_"

// Bilinear replaces every product b*x of an unfixed binary b and a
// continuous x by a surrogate z, tied to the product by the disjunction
//
//	[b = 0, z = 0] ∨ [b = 1, z = x]
//
// Products without a binary factor are left in place.
type Bilinear struct{}

func (Bilinear) Apply(ctx context.Context, m *model.Model, _ transform.Config) error {
	bd := m.BilinearData()
	if bd == nil {
		blk, err := m.Block().AddBlock(BlockName)
		if err != nil {
			return errors.Wrap(err, "creating bilinear block")
		}
		bd = &model.BilinearData{Block: blk}
		m.SetBilinearData(bd)
	}

	r := &rewriter{
		data:       bd,
		surrogates: make(map[[2]model.ID]*model.Var),
	}

	for _, o := range m.ActiveObjectives() {
		if err := ctx.Err(); err != nil {
			return err
		}
		expr, err := r.rewrite(o.Expr())
		if err != nil {
			return errors.Wrapf(err, "objective %q", o.Name())
		}
		o.SetExpr(expr)
	}
	for _, c := range m.ActiveConstraints() {
		if err := ctx.Err(); err != nil {
			return err
		}
		body, err := r.rewrite(c.Body())
		if err != nil {
			return errors.Wrapf(err, "constraint %q", c.Name())
		}
		c.SetBody(body)
	}

	return nil
}

type rewriter struct {
	data       *model.BilinearData
	surrogates map[[2]model.ID]*model.Var
}

// rewrite returns e with every supported product replaced by its
// surrogate.
func (r *rewriter) rewrite(e model.Expr) (model.Expr, error) {
	if len(e.Products) == 0 {
		return e, nil
	}

	res := model.Expr{Constant: e.Constant, Terms: e.Terms}
	for _, p := range e.Products {
		b, x, ok := split(p)
		if !ok {
			res = res.AddProduct(p.Coef, p.A, p.B)
			continue
		}
		z, err := r.surrogate(b, x)
		if err != nil {
			return model.Expr{}, err
		}
		res = res.Add(p.Coef, z)
	}

	return res, nil
}

// split orders the factors of p as (binary, continuous).
func split(p model.Product) (b, x *model.Var, ok bool) {
	switch {
	case p.A.IsBinary() && !p.A.Fixed() && p.B.IsContinuous():
		return p.A, p.B, true
	case p.B.IsBinary() && !p.B.Fixed() && p.A.IsContinuous():
		return p.B, p.A, true
	default:
		return nil, nil, false
	}
}

func (r *rewriter) surrogate(b, x *model.Var) (*model.Var, error) {
	key := [2]model.ID{b.ID(), x.ID()}
	if z, ok := r.surrogates[key]; ok {
		return z, nil
	}

	blk := r.data.Block
	i := r.data.Len()
	lower, upper := x.Bounds()
	z, err := blk.AddDefinedVariable(fmt.Sprintf("vlist_%d", i), model.Continuous, math.Min(lower, 0), math.Max(upper, 0))
	if err != nil {
		return nil, err
	}

	off := model.NewDisjunct("off").
		AddConstraint(0, 0, model.Const(0).Add(1, b)).
		AddConstraint(0, 0, model.Const(0).Add(1, z))
	on := model.NewDisjunct("on").
		AddConstraint(1, 1, model.Const(0).Add(1, b)).
		AddConstraint(0, 0, model.Const(0).Add(1, z).Add(-1, x))
	if _, err := blk.AddDisjunction(fmt.Sprintf("disjunction_%d", i), off, on); err != nil {
		return nil, err
	}

	r.data.Append(z)
	r.surrogates[key] = z

	return z, nil
}
