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

/*
Package model implements the component system the bilevel pipeline works
on: blocks, variables, constraints, objectives, sets and disjunctions,
each with its own activation state.

A model is built top-down from its root block:

	m := model.NewModel("interdiction")
	x, _ := m.Block().AddDefinedVariable("x", model.Binary, 0, 1)
	y, _ := m.Block().AddDefinedVariable("y", model.Continuous, 0, 10)
	m.Block().AddObjective("o", model.Maximize, model.Const(0).Add(1, y))

	sub, _ := m.Block().AddSubModel("sub", x)
	sub.AddConstraint("c", math.Inf(-1), 5, model.Const(0).Add(1, y).Add(5, x))

Sub-models (KindSubModel) are opaque to subsolvers: neither they nor their
contents are enumerated by the active walks until they are reclassified
as ordinary blocks.

A Model is not safe for concurrent use.
*/
package model

import (
	"fmt"

	"github.com/pkg/errors"
)

// ID identifies a variable for the lifetime of its model.
type ID uint64

type Model struct {
	name            string
	root            *Block
	vars            map[ID]*Var
	nextID          ID
	generation      uint64
	transformations map[string]*TransformationData
	bilinear        *BilinearData
	solutions       Solutions
}

// NewModel instantiates an empty model with an active root block.
func NewModel(name string) *Model {
	m := &Model{
		name:            name,
		vars:            make(map[ID]*Var),
		transformations: make(map[string]*TransformationData),
	}
	m.root = newBlock(m, nil, name, KindBlock)
	m.solutions.model = m

	return m
}

// Name returns the name provided upon instantiation of the model.
func (m *Model) Name() string {
	return m.name
}

// Block returns the root block of the model.
func (m *Model) Block() *Block {
	return m.root
}

// Lookup resolves a variable by its identifier.
func (m *Model) Lookup(id ID) (*Var, error) {
	v, ok := m.vars[id]
	if !ok {
		return nil, errors.Wrapf(ErrComponentNotFound, "variable %d", id)
	}

	return v, nil
}

// Reclassify changes how the block is treated by the active walks and
// by subsolvers.
func (m *Model) Reclassify(b *Block, kind Kind) error {
	if b == nil || b.model != m {
		return errors.Wrap(ErrComponentNotFound, "reclassifying block")
	}
	b.kind = kind

	return nil
}

// TransformationData returns the data attached by the transformation
// registered under key.
func (m *Model) TransformationData(key string) (*TransformationData, bool) {
	td, ok := m.transformations[key]
	return td, ok
}

// SetTransformationData attaches data to the model under key, replacing
// any previous data.
func (m *Model) SetTransformationData(key string, td *TransformationData) {
	m.transformations[key] = td
}

// BilinearData returns the bilinear helper structure, or nil if no
// bilinear reformulation was applied.
func (m *Model) BilinearData() *BilinearData {
	return m.bilinear
}

func (m *Model) SetBilinearData(bd *BilinearData) {
	m.bilinear = bd
}

// Solutions returns the model's solution store.
func (m *Model) Solutions() *Solutions {
	return &m.solutions
}

// Walk calls fn for the root block and, recursively, for every active
// child block of kind KindBlock. Sub-models are not descended into.
func (m *Model) Walk(fn func(b *Block)) {
	var walk func(b *Block)
	walk = func(b *Block) {
		fn(b)
		for _, child := range b.Blocks() {
			if child.active && child.kind == KindBlock {
				walk(child)
			}
		}
	}
	walk(m.root)
}

// ActiveObjectives returns the active objectives reachable through Walk,
// in declaration order.
func (m *Model) ActiveObjectives() []*Objective {
	var objs []*Objective
	m.Walk(func(b *Block) {
		for _, o := range b.Objectives() {
			if o.active {
				objs = append(objs, o)
			}
		}
	})

	return objs
}

// ActiveConstraints returns the active constraints reachable through Walk,
// in declaration order.
func (m *Model) ActiveConstraints() []*Constraint {
	var cons []*Constraint
	m.Walk(func(b *Block) {
		for _, c := range b.Constraints() {
			if c.active {
				cons = append(cons, c)
			}
		}
	})

	return cons
}

// ActiveDisjunctions returns the active disjunctions reachable through Walk.
func (m *Model) ActiveDisjunctions() []*Disjunction {
	var djs []*Disjunction
	m.Walk(func(b *Block) {
		for _, d := range b.Disjunctions() {
			if d.active {
				djs = append(djs, d)
			}
		}
	})

	return djs
}

// Statistics summarizes the part of the model a subsolver would see.
type Statistics struct {
	NumConstraints         int `yaml:"number_of_constraints"`
	NumVariables           int `yaml:"number_of_variables"`
	NumBinaryVariables     int `yaml:"number_of_binary_variables"`
	NumIntegerVariables    int `yaml:"number_of_integer_variables"`
	NumContinuousVariables int `yaml:"number_of_continuous_variables"`
	NumObjectives          int `yaml:"number_of_objectives"`
}

// Statistics counts the active constraints and objectives and the
// variables declared in the blocks reachable through Walk.
func (m *Model) Statistics() Statistics {
	var st Statistics
	m.Walk(func(b *Block) {
		for _, c := range b.Constraints() {
			if c.active {
				st.NumConstraints++
			}
		}
		for _, o := range b.Objectives() {
			if o.active {
				st.NumObjectives++
			}
		}
		for _, v := range b.Variables() {
			st.NumVariables++
			switch v.domain {
			case Binary:
				st.NumBinaryVariables++
			case Integer:
				st.NumIntegerVariables++
			default:
				st.NumContinuousVariables++
			}
		}
	})

	return st
}

func (m *Model) newVar(b *Block, name string, domain Domain, lower, upper float64) *Var {
	id := m.nextID
	m.nextID++
	if name == "" {
		name = fmt.Sprintf("V%d", id)
	}
	v := &Var{
		component: component{name: name, parent: b, active: true},
		id:        id,
		domain:    domain,
		lower:     lower,
		upper:     upper,
	}
	if domain == Binary {
		v.lower, v.upper = 0, 1
	}
	m.vars[id] = v

	return v
}

// invalidate bumps the generation counter, discarding cached
// representations.
func (m *Model) invalidate() {
	m.generation++
}
