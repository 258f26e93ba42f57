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
	"strings"

	"github.com/pkg/errors"
)

// Component is implemented by everything a block can own.
type Component interface {
	Name() string
	Parent() *Block
	Active() bool
	Activate()
	Deactivate()
}

type component struct {
	name   string
	parent *Block
	active bool
}

// Name returns the component's local name.
func (c *component) Name() string {
	return c.name
}

// Parent returns the block owning the component, nil for the root block.
func (c *component) Parent() *Block {
	return c.parent
}

func (c *component) Active() bool {
	return c.active
}

func (c *component) Activate() {
	c.active = true
}

func (c *component) Deactivate() {
	c.active = false
}

// Kind tells subsolvers and active walks how to treat a block.
type Kind int

const (
	// KindBlock is an ordinary block whose active contents take part in solves.
	KindBlock Kind = iota
	// KindSubModel is a lower-level problem, opaque to subsolvers.
	KindSubModel
)

func (k Kind) String() string {
	switch k {
	case KindBlock:
		return "block"
	case KindSubModel:
		return "submodel"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type Block struct {
	component
	model      *Model
	kind       Kind
	components []Component
	byName     map[string]Component
	fixed      []*Var
}

func newBlock(m *Model, parent *Block, name string, kind Kind) *Block {
	return &Block{
		component: component{name: name, parent: parent, active: true},
		model:     m,
		kind:      kind,
		byName:    make(map[string]Component),
	}
}

// Kind returns the block's current classification.
func (b *Block) Kind() Kind {
	return b.kind
}

// Model returns the model the block belongs to.
func (b *Block) Model() *Model {
	return b.model
}

// FullName returns the dotted path of the block below the root.
func (b *Block) FullName() string {
	if b.parent == nil {
		return ""
	}
	var parts []string
	for cur := b; cur.parent != nil; cur = cur.parent {
		parts = append([]string{cur.name}, parts...)
	}

	return strings.Join(parts, ".")
}

// Fixed returns the upper-level variables a sub-model treats as
// parameters.
func (b *Block) Fixed() []*Var {
	return b.fixed
}

// Component looks up a directly owned component by name.
func (b *Block) Component(name string) (Component, error) {
	c, ok := b.byName[name]
	if !ok {
		return nil, errors.Wrapf(ErrComponentNotFound, "%q in block %q", name, b.name)
	}

	return c, nil
}

// Components returns the directly owned components in declaration order.
func (b *Block) Components() []Component {
	return b.components
}

// InactiveComponents returns the directly owned components that are
// currently deactivated.
func (b *Block) InactiveComponents() []Component {
	var res []Component
	for _, c := range b.components {
		if !c.Active() {
			res = append(res, c)
		}
	}

	return res
}

func (b *Block) add(name string, c Component) error {
	if _, ok := b.byName[name]; ok {
		return errors.Wrapf(ErrDuplicateName, "%q in block %q", name, b.name)
	}
	b.byName[name] = c
	b.components = append(b.components, c)

	return nil
}

func (b *Block) uniqueName(prefix string) string {
	for i := len(b.components); ; i++ {
		name := fmt.Sprintf("%s%d", prefix, i)
		if _, ok := b.byName[name]; !ok {
			return name
		}
	}
}

/* Child blocks */

// AddBlock adds an ordinary child block.
func (b *Block) AddBlock(name string) (*Block, error) {
	child := newBlock(b.model, b, name, KindBlock)
	if err := b.add(name, child); err != nil {
		return nil, err
	}

	return child, nil
}

// AddSubModel adds a lower-level child block. The given upper-level
// variables are treated as parameters of the lower-level problem.
func (b *Block) AddSubModel(name string, fixed ...*Var) (*Block, error) {
	child := newBlock(b.model, b, name, KindSubModel)
	child.fixed = fixed
	if err := b.add(name, child); err != nil {
		return nil, err
	}

	return child, nil
}

// Blocks returns the direct child blocks.
func (b *Block) Blocks() []*Block {
	return collect[*Block](b)
}

// Sibling returns the block with the given name sharing this block's parent.
func (b *Block) Sibling(name string) (*Block, error) {
	if b.parent == nil {
		return nil, errors.Wrapf(ErrComponentNotFound, "sibling %q of root block", name)
	}
	c, err := b.parent.Component(name)
	if err != nil {
		return nil, err
	}
	sib, ok := c.(*Block)
	if !ok {
		return nil, errors.Wrapf(ErrComponentNotFound, "%q is not a block", name)
	}

	return sib, nil
}

/* Variables */

// AddVariable adds an unbounded continuous variable.
// Empty names will automatically replaced by a unique name.
func (b *Block) AddVariable(name string) (*Var, error) {
	return b.AddDefinedVariable(name, Continuous, math.Inf(-1), math.Inf(1))
}

// AddBinaryVariable is a convenience function for adding a single
// named binary variable.
func (b *Block) AddBinaryVariable(name string) (*Var, error) {
	return b.AddDefinedVariable(name, Binary, 0, 1)
}

// AddIntegerVariable is a convenience function for adding a single
// named unbounded integer variable.
func (b *Block) AddIntegerVariable(name string) (*Var, error) {
	return b.AddDefinedVariable(name, Integer, math.Inf(-1), math.Inf(1))
}

// AddDefinedVariable adds a variable with its attributes passed as
// arguments. If domain is Binary, the bounds are ignored.
func (b *Block) AddDefinedVariable(name string, domain Domain, lower, upper float64) (*Var, error) {
	if name != "" {
		if _, ok := b.byName[name]; ok {
			return nil, errors.Wrapf(ErrDuplicateName, "%q in block %q", name, b.name)
		}
	}
	v := b.model.newVar(b, name, domain, lower, upper)
	if err := b.add(v.name, v); err != nil {
		delete(b.model.vars, v.id)
		return nil, err
	}

	return v, nil
}

// Variables returns the directly owned variables.
func (b *Block) Variables() []*Var {
	return collect[*Var](b)
}

/* Constraints, objectives, sets */

// AddConstraint adds the constraint lower <= body <= upper. Use
// math.Inf for a missing bound.
func (b *Block) AddConstraint(name string, lower, upper float64, body Expr) (*Constraint, error) {
	if name == "" {
		name = b.uniqueName("C")
	}
	c := newConstraint(b, name, lower, upper, body)
	if err := b.add(name, c); err != nil {
		return nil, err
	}

	return c, nil
}

// Constraints returns the directly owned constraints.
func (b *Block) Constraints() []*Constraint {
	return collect[*Constraint](b)
}

func (b *Block) AddObjective(name string, sense Sense, expr Expr) (*Objective, error) {
	if name == "" {
		name = b.uniqueName("O")
	}
	o := &Objective{
		component: component{name: name, parent: b, active: true},
		sense:     sense,
		expr:      expr,
	}
	if err := b.add(name, o); err != nil {
		return nil, err
	}

	return o, nil
}

// Objectives returns the directly owned objectives.
func (b *Block) Objectives() []*Objective {
	return collect[*Objective](b)
}

func (b *Block) AddSet(name string, members ...string) (*Set, error) {
	s := &Set{
		component: component{name: name, parent: b, active: true},
		members:   members,
	}
	if err := b.add(name, s); err != nil {
		return nil, err
	}

	return s, nil
}

// Sets returns the directly owned sets.
func (b *Block) Sets() []*Set {
	return collect[*Set](b)
}

// AddDisjunction adds a disjunction over the given disjuncts. Exactly one
// disjunct must hold.
func (b *Block) AddDisjunction(name string, disjuncts ...*Disjunct) (*Disjunction, error) {
	if name == "" {
		name = b.uniqueName("D")
	}
	d := &Disjunction{
		component: component{name: name, parent: b, active: true},
		disjuncts: disjuncts,
	}
	for _, dj := range disjuncts {
		for _, c := range dj.constraints {
			c.parent = b
		}
	}
	if err := b.add(name, d); err != nil {
		return nil, err
	}

	return d, nil
}

// Disjunctions returns the directly owned disjunctions.
func (b *Block) Disjunctions() []*Disjunction {
	return collect[*Disjunction](b)
}

// ComputeRepn caches the standard representation of every active
// constraint and objective in the block and its descendants. It fails if
// any of them is nonlinear once fixed variables are folded in.
func (b *Block) ComputeRepn() error {
	var walk func(cur *Block) error
	walk = func(cur *Block) error {
		for _, c := range cur.Constraints() {
			if !c.active {
				continue
			}
			if _, err := c.StandardRepn(); err != nil {
				return errors.Wrapf(err, "constraint %q", c.name)
			}
		}
		for _, o := range cur.Objectives() {
			if !o.active {
				continue
			}
			if _, err := o.StandardRepn(); err != nil {
				return errors.Wrapf(err, "objective %q", o.name)
			}
		}
		for _, child := range cur.Blocks() {
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}

	return walk(b)
}

func collect[T Component](b *Block) []T {
	var res []T
	for _, c := range b.components {
		if t, ok := c.(T); ok {
			res = append(res, t)
		}
	}

	return res
}
