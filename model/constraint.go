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
	"math"
)

type Sense int

const (
	Minimize Sense = iota
	Maximize
)

func (s Sense) String() string {
	if s == Maximize {
		return "maximize"
	}
	return "minimize"
}

// cachedRepn holds a standard representation valid for one model
// generation.
type cachedRepn struct {
	repn       StandardRepn
	generation uint64
	valid      bool
}

func (c *cachedRepn) get(m *Model, e Expr) (StandardRepn, error) {
	if c.valid && c.generation == m.generation {
		return c.repn, nil
	}
	repn, err := e.Repn()
	if err != nil {
		c.valid = false
		return StandardRepn{}, err
	}
	c.repn, c.generation, c.valid = repn, m.generation, true

	return repn, nil
}

// Constraint is lower <= body <= upper.
type Constraint struct {
	component
	lower, upper float64
	body         Expr
	cache        cachedRepn
}

func newConstraint(b *Block, name string, lower, upper float64, body Expr) *Constraint {
	return &Constraint{
		component: component{name: name, parent: b, active: true},
		lower:     lower,
		upper:     upper,
		body:      body,
	}
}

// Bounds returns the constraint bounds; missing bounds are infinite.
func (c *Constraint) Bounds() (lower, upper float64) {
	return c.lower, c.upper
}

// IsEquality reports whether both bounds coincide.
func (c *Constraint) IsEquality() bool {
	return c.lower == c.upper && !math.IsInf(c.lower, 0)
}

func (c *Constraint) Body() Expr {
	return c.body
}

// SetBody replaces the constraint body.
func (c *Constraint) SetBody(body Expr) {
	c.body = body
	c.cache.valid = false
}

// StandardRepn returns the (cached) standard representation of the body.
func (c *Constraint) StandardRepn() (StandardRepn, error) {
	return c.cache.get(c.parent.model, c.body)
}

type Objective struct {
	component
	sense Sense
	expr  Expr
	cache cachedRepn
}

func (o *Objective) Sense() Sense {
	return o.sense
}

func (o *Objective) Expr() Expr {
	return o.expr
}

func (o *Objective) SetExpr(expr Expr) {
	o.expr = expr
	o.cache.valid = false
}

// StandardRepn returns the (cached) standard representation of the
// objective expression.
func (o *Objective) StandardRepn() (StandardRepn, error) {
	return o.cache.get(o.parent.model, o.expr)
}

// Set is a named index set. Sets carry no algebra; they only take part in
// activation.
type Set struct {
	component
	members []string
}

func (s *Set) Members() []string {
	return s.members
}

// Disjunct is one alternative of a disjunction: a conjunction of
// constraints, selected by its indicator variable once the disjunction
// is reformulated.
type Disjunct struct {
	name        string
	constraints []*Constraint
	indicator   *Var
}

func NewDisjunct(name string) *Disjunct {
	return &Disjunct{name: name}
}

func (d *Disjunct) Name() string {
	return d.name
}

// AddConstraint appends lower <= body <= upper to the disjunct.
func (d *Disjunct) AddConstraint(lower, upper float64, body Expr) *Disjunct {
	d.constraints = append(d.constraints, &Constraint{
		component: component{name: d.name, active: true},
		lower:     lower,
		upper:     upper,
		body:      body,
	})

	return d
}

func (d *Disjunct) Constraints() []*Constraint {
	return d.constraints
}

// Indicator returns the binary variable selecting this disjunct, nil
// before the disjunction is reformulated.
func (d *Disjunct) Indicator() *Var {
	return d.indicator
}

func (d *Disjunct) SetIndicator(v *Var) {
	d.indicator = v
}

type Disjunction struct {
	component
	disjuncts []*Disjunct
}

func (d *Disjunction) Disjuncts() []*Disjunct {
	return d.disjuncts
}
