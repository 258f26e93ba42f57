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

import (
	"github.com/pkg/errors"
)

// Term is the linear monomial Coef * Var.
type Term struct {
	Coef float64
	Var  *Var
}

// Product is the bilinear monomial Coef * A * B.
type Product struct {
	Coef float64
	A, B *Var
}

// Expr is a polynomial of degree at most two:
//
//	Constant + Σ Terms + Σ Products
//
// Expr values are immutable: the builder methods return copies.
type Expr struct {
	Constant float64
	Terms    []Term
	Products []Product
}

// Const returns the constant expression c.
func Const(c float64) Expr {
	return Expr{Constant: c}
}

// Add returns e + coef*v.
func (e Expr) Add(coef float64, v *Var) Expr {
	e.Terms = append(e.Terms[:len(e.Terms):len(e.Terms)], Term{Coef: coef, Var: v})
	return e
}

// AddProduct returns e + coef*a*b.
func (e Expr) AddProduct(coef float64, a, b *Var) Expr {
	e.Products = append(e.Products[:len(e.Products):len(e.Products)], Product{Coef: coef, A: a, B: b})
	return e
}

// Plus returns e + o.
func (e Expr) Plus(o Expr) Expr {
	e.Constant += o.Constant
	e.Terms = append(e.Terms[:len(e.Terms):len(e.Terms)], o.Terms...)
	e.Products = append(e.Products[:len(e.Products):len(e.Products)], o.Products...)
	return e
}

// Scale returns k*e.
func (e Expr) Scale(k float64) Expr {
	res := Expr{Constant: k * e.Constant}
	for _, t := range e.Terms {
		res.Terms = append(res.Terms, Term{Coef: k * t.Coef, Var: t.Var})
	}
	for _, p := range e.Products {
		res.Products = append(res.Products, Product{Coef: k * p.Coef, A: p.A, B: p.B})
	}

	return res
}

// Degree returns the polynomial degree of the expression. Fixed
// variables count as constants.
func (e Expr) Degree() int {
	deg := 0
	for _, t := range e.Terms {
		if !t.Var.fixed && deg < 1 {
			deg = 1
		}
	}
	for _, p := range e.Products {
		d := 0
		if !p.A.fixed {
			d++
		}
		if !p.B.fixed {
			d++
		}
		if d > deg {
			deg = d
		}
	}

	return deg
}

// Vars returns the distinct variables referenced by the expression, in
// order of first appearance.
func (e Expr) Vars() []*Var {
	seen := make(map[ID]struct{})
	var res []*Var
	add := func(v *Var) {
		if _, ok := seen[v.id]; ok {
			return
		}
		seen[v.id] = struct{}{}
		res = append(res, v)
	}
	for _, t := range e.Terms {
		add(t.Var)
	}
	for _, p := range e.Products {
		add(p.A)
		add(p.B)
	}

	return res
}

// StandardRepn is the canonical linear form of an expression: duplicate
// variables merged, fixed variables folded into the constant, zero
// coefficients dropped.
type StandardRepn struct {
	Constant float64
	Linear   []Term
}

// Repn computes the standard representation of e, failing with
// ErrNonlinear if a product of two unfixed variables remains.
func (e Expr) Repn() (StandardRepn, error) {
	repn := StandardRepn{Constant: e.Constant}
	index := make(map[ID]int)
	addLinear := func(coef float64, v *Var) {
		if i, ok := index[v.id]; ok {
			repn.Linear[i].Coef += coef
			return
		}
		index[v.id] = len(repn.Linear)
		repn.Linear = append(repn.Linear, Term{Coef: coef, Var: v})
	}

	for _, t := range e.Terms {
		if t.Var.fixed {
			val, err := t.Var.fixedValue()
			if err != nil {
				return StandardRepn{}, errors.Wrapf(err, "fixed variable %q", t.Var.FullName())
			}
			repn.Constant += t.Coef * val
			continue
		}
		addLinear(t.Coef, t.Var)
	}

	for _, p := range e.Products {
		switch {
		case p.A.fixed && p.B.fixed:
			a, err := p.A.fixedValue()
			if err != nil {
				return StandardRepn{}, errors.Wrapf(err, "fixed variable %q", p.A.FullName())
			}
			b, err := p.B.fixedValue()
			if err != nil {
				return StandardRepn{}, errors.Wrapf(err, "fixed variable %q", p.B.FullName())
			}
			repn.Constant += p.Coef * a * b
		case p.A.fixed:
			a, err := p.A.fixedValue()
			if err != nil {
				return StandardRepn{}, errors.Wrapf(err, "fixed variable %q", p.A.FullName())
			}
			addLinear(p.Coef*a, p.B)
		case p.B.fixed:
			b, err := p.B.fixedValue()
			if err != nil {
				return StandardRepn{}, errors.Wrapf(err, "fixed variable %q", p.B.FullName())
			}
			addLinear(p.Coef*b, p.A)
		default:
			return StandardRepn{}, errors.Wrapf(ErrNonlinear, "product of %q and %q", p.A.FullName(), p.B.FullName())
		}
	}

	linear := repn.Linear[:0]
	for _, t := range repn.Linear {
		if t.Coef != 0 {
			linear = append(linear, t)
		}
	}
	repn.Linear = linear

	return repn, nil
}
