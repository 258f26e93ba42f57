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
	"fmt"
	"math"

	"github.com/pkg/errors"
)

type Domain int

const (
	Continuous Domain = iota
	Binary
	Integer
)

func (d Domain) String() string {
	switch d {
	case Continuous:
		return "continuous"
	case Binary:
		return "binary"
	case Integer:
		return "integer"
	default:
		return fmt.Sprintf("domain(%d)", int(d))
	}
}

// ParseDomain is the inverse of Domain.String.
func ParseDomain(s string) (Domain, error) {
	switch s {
	case "", "continuous":
		return Continuous, nil
	case "binary":
		return Binary, nil
	case "integer":
		return Integer, nil
	default:
		return Continuous, errors.Wrapf(ErrInvalidDomain, "%q", s)
	}
}

type Var struct {
	component
	id       ID
	domain   Domain
	lower    float64
	upper    float64
	value    float64
	hasValue bool
	fixed    bool
}

func (v *Var) ID() ID {
	return v.id
}

// FullName returns the variable name qualified by its block path.
func (v *Var) FullName() string {
	if p := v.parent.FullName(); p != "" {
		return p + "." + v.name
	}

	return v.name
}

func (v *Var) Domain() Domain {
	return v.domain
}

func (v *Var) IsBinary() bool {
	return v.domain == Binary
}

// IsInteger reports whether the variable only takes integral values.
// Binary variables are integral too.
func (v *Var) IsInteger() bool {
	return v.domain == Integer || v.domain == Binary
}

func (v *Var) IsContinuous() bool {
	return v.domain == Continuous
}

// Bounds returns the variable bounds. Missing bounds are infinite.
func (v *Var) Bounds() (lower, upper float64) {
	return v.lower, v.upper
}

// SetBounds sets the variable bounds. Binary variables keep [0, 1].
func (v *Var) SetBounds(lower, upper float64) {
	if v.domain == Binary {
		return
	}
	v.lower, v.upper = lower, upper
}

// Value returns the current value, or 0 if none was assigned.
func (v *Var) Value() float64 {
	return v.value
}

func (v *Var) HasValue() bool {
	return v.hasValue
}

// SetValue assigns a value. Assigning to a fixed variable changes the
// constant it contributes to expressions.
func (v *Var) SetValue(value float64) {
	v.value = value
	v.hasValue = true
	if v.fixed {
		v.parent.model.invalidate()
	}
}

// ClearValue removes the assigned value.
func (v *Var) ClearValue() {
	v.value = 0
	v.hasValue = false
	if v.fixed {
		v.parent.model.invalidate()
	}
}

func (v *Var) Fixed() bool {
	return v.fixed
}

// Fix freezes the variable at its current value.
func (v *Var) Fix() {
	if v.fixed {
		return
	}
	v.fixed = true
	v.parent.model.invalidate()
}

func (v *Var) Unfix() {
	if !v.fixed {
		return
	}
	v.fixed = false
	v.parent.model.invalidate()
}

// fixedValue returns the value a fixed variable contributes.
func (v *Var) fixedValue() (float64, error) {
	if !v.hasValue {
		return math.NaN(), ErrNoValue
	}

	return v.value, nil
}
