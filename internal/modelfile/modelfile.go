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

// Package modelfile reads bilevel models from YAML documents.
//
// A document is a tree of blocks. Every block declares its variables,
// objectives, constraints and child blocks; a block of kind "submodel"
// is a lower-level problem and names the upper-level variables it treats
// as parameters in "fixed". Variables are referenced either by a dotted
// path from the root ("sub.y") or by a plain name, which is looked up in
// the enclosing block and then in its ancestors.
//
//	name: interdiction
//	variables:
//	  - {name: x, domain: binary}
//	objectives:
//	  - name: upper
//	    sense: minimize
//	    expr: {terms: [{coef: 1, vars: [sub.y]}]}
//	blocks:
//	  - name: sub
//	    kind: submodel
//	    fixed: [x]
//	    variables:
//	      - {name: y, lower: 0}
package modelfile

import (
	"bytes"
	"io"
	"math"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/costela/bilevel/model"
)

var (
	ErrInvalidDocument = errors.New("invalid model document")
	ErrUnknownVariable = errors.New("unknown variable")
)

const (
	KindBlock    = "block"
	KindSubModel = "submodel"
)

// Block is the document form of a model block. The root block's name is
// the model name.
type Block struct {
	Name        string       `yaml:"name"`
	Kind        string       `yaml:"kind,omitempty"`
	Inactive    bool         `yaml:"inactive,omitempty"`
	Fixed       []string     `yaml:"fixed,omitempty"`
	Variables   []Variable   `yaml:"variables,omitempty"`
	Objectives  []Objective  `yaml:"objectives,omitempty"`
	Constraints []Constraint `yaml:"constraints,omitempty"`
	Blocks      []Block      `yaml:"blocks,omitempty"`
}

// Variable bounds default to unbounded; binary variables ignore them.
type Variable struct {
	Name   string   `yaml:"name"`
	Domain string   `yaml:"domain,omitempty"`
	Lower  *float64 `yaml:"lower,omitempty"`
	Upper  *float64 `yaml:"upper,omitempty"`
	Value  *float64 `yaml:"value,omitempty"`
	Fixed  bool     `yaml:"fixed,omitempty"`
}

type Objective struct {
	Name     string `yaml:"name"`
	Sense    string `yaml:"sense"`
	Expr     Expr   `yaml:"expr"`
	Inactive bool   `yaml:"inactive,omitempty"`
}

// Constraint is lower <= body <= upper, a missing bound is infinite.
type Constraint struct {
	Name     string   `yaml:"name"`
	Lower    *float64 `yaml:"lower,omitempty"`
	Upper    *float64 `yaml:"upper,omitempty"`
	Body     Expr     `yaml:"body"`
	Inactive bool     `yaml:"inactive,omitempty"`
}

type Expr struct {
	Constant float64 `yaml:"constant,omitempty"`
	Terms    []Term  `yaml:"terms,omitempty"`
}

// Term is a linear term with one variable or a bilinear product with two.
type Term struct {
	Coef float64  `yaml:"coef"`
	Vars []string `yaml:"vars"`
}

// LoadFile reads the model document at path.
func LoadFile(path string) (*model.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening model file")
	}
	defer f.Close()

	m, err := Load(f)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}

	return m, nil
}

// Load decodes a single document from r and builds the model.
func Load(r io.Reader) (*model.Model, error) {
	var doc Block

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(ErrInvalidDocument, err.Error())
	}

	return Build(&doc)
}

// Parse is Load for in-memory documents.
func Parse(data []byte) (*model.Model, error) {
	return Load(bytes.NewReader(data))
}

// scope resolves plain variable names from the innermost block outwards.
type scope struct {
	vars   map[string]*model.Var
	parent *scope
}

func (s *scope) lookup(name string) (*model.Var, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}

	return nil, false
}

type builder struct {
	m      *model.Model
	byPath map[string]*model.Var
	// deferred activation changes, applied once every expression exists
	inactive []model.Component
}

func (b *builder) resolve(s *scope, name string) (*model.Var, error) {
	if strings.Contains(name, ".") {
		if v, ok := b.byPath[name]; ok {
			return v, nil
		}
	} else if v, ok := s.lookup(name); ok {
		return v, nil
	}

	return nil, errors.Wrapf(ErrUnknownVariable, "%q", name)
}

// Build turns a decoded document into a model.
func Build(doc *Block) (*model.Model, error) {
	if doc.Name == "" {
		return nil, errors.Wrap(ErrInvalidDocument, "model name is required")
	}
	if doc.Kind != "" && doc.Kind != KindBlock {
		return nil, errors.Wrapf(ErrInvalidDocument, "root block cannot be of kind %q", doc.Kind)
	}

	b := &builder{
		m:      model.NewModel(doc.Name),
		byPath: make(map[string]*model.Var),
	}

	scopes := make(map[*Block]*scope)
	if err := b.declare(doc, b.m.Block(), nil, scopes); err != nil {
		return nil, err
	}
	if err := b.define(doc, b.m.Block(), scopes); err != nil {
		return nil, err
	}

	for _, c := range b.inactive {
		c.Deactivate()
	}

	return b.m, nil
}

// declare creates the blocks and variables of d below blk.
func (b *builder) declare(d *Block, blk *model.Block, parent *scope, scopes map[*Block]*scope) error {
	s := &scope{vars: make(map[string]*model.Var), parent: parent}
	scopes[d] = s

	for _, dv := range d.Variables {
		v, err := b.variable(blk, dv)
		if err != nil {
			return err
		}
		s.vars[dv.Name] = v
		b.byPath[v.FullName()] = v
	}

	for i := range d.Blocks {
		child := &d.Blocks[i]
		if child.Name == "" {
			return errors.Wrap(ErrInvalidDocument, "blocks must be named")
		}

		var (
			cb  *model.Block
			err error
		)
		switch child.Kind {
		case "", KindBlock:
			if len(child.Fixed) > 0 {
				return errors.Wrapf(ErrInvalidDocument, "block %q: only sub-models declare fixed variables", child.Name)
			}
			cb, err = blk.AddBlock(child.Name)
		case KindSubModel:
			fixed := make([]*model.Var, 0, len(child.Fixed))
			for _, name := range child.Fixed {
				v, err := b.resolve(s, name)
				if err != nil {
					return errors.Wrapf(err, "sub-model %q", child.Name)
				}
				fixed = append(fixed, v)
			}
			cb, err = blk.AddSubModel(child.Name, fixed...)
		default:
			return errors.Wrapf(ErrInvalidDocument, "block %q: unknown kind %q", child.Name, child.Kind)
		}
		if err != nil {
			return err
		}
		if child.Inactive {
			b.inactive = append(b.inactive, cb)
		}

		if err := b.declare(child, cb, s, scopes); err != nil {
			return err
		}
	}

	return nil
}

func (b *builder) variable(blk *model.Block, dv Variable) (*model.Var, error) {
	if dv.Name == "" {
		return nil, errors.Wrap(ErrInvalidDocument, "variables must be named")
	}

	domain := model.Continuous
	if dv.Domain != "" {
		d, err := model.ParseDomain(dv.Domain)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidDocument, "variable %q: %v", dv.Name, err)
		}
		domain = d
	}

	v, err := blk.AddDefinedVariable(dv.Name, domain, bound(dv.Lower, math.Inf(-1)), bound(dv.Upper, math.Inf(1)))
	if err != nil {
		return nil, err
	}
	if dv.Value != nil {
		v.SetValue(*dv.Value)
	}
	if dv.Fixed {
		if dv.Value == nil {
			return nil, errors.Wrapf(ErrInvalidDocument, "fixed variable %q needs a value", dv.Name)
		}
		v.Fix()
	}

	return v, nil
}

// define adds the objectives and constraints of d, once every variable
// of the document exists.
func (b *builder) define(d *Block, blk *model.Block, scopes map[*Block]*scope) error {
	s := scopes[d]

	for _, do := range d.Objectives {
		sense, err := parseSense(do.Sense)
		if err != nil {
			return errors.Wrapf(err, "objective %q", do.Name)
		}
		e, err := b.expr(s, do.Expr)
		if err != nil {
			return errors.Wrapf(err, "objective %q", do.Name)
		}
		o, err := blk.AddObjective(do.Name, sense, e)
		if err != nil {
			return err
		}
		if do.Inactive {
			b.inactive = append(b.inactive, o)
		}
	}

	for _, dc := range d.Constraints {
		e, err := b.expr(s, dc.Body)
		if err != nil {
			return errors.Wrapf(err, "constraint %q", dc.Name)
		}
		c, err := blk.AddConstraint(dc.Name, bound(dc.Lower, math.Inf(-1)), bound(dc.Upper, math.Inf(1)), e)
		if err != nil {
			return err
		}
		if dc.Inactive {
			b.inactive = append(b.inactive, c)
		}
	}

	for i := range d.Blocks {
		child, err := blk.Component(d.Blocks[i].Name)
		if err != nil {
			return err
		}
		if err := b.define(&d.Blocks[i], child.(*model.Block), scopes); err != nil {
			return err
		}
	}

	return nil
}

func (b *builder) expr(s *scope, de Expr) (model.Expr, error) {
	e := model.Const(de.Constant)
	for _, t := range de.Terms {
		switch len(t.Vars) {
		case 1:
			v, err := b.resolve(s, t.Vars[0])
			if err != nil {
				return model.Expr{}, err
			}
			e = e.Add(t.Coef, v)
		case 2:
			v1, err := b.resolve(s, t.Vars[0])
			if err != nil {
				return model.Expr{}, err
			}
			v2, err := b.resolve(s, t.Vars[1])
			if err != nil {
				return model.Expr{}, err
			}
			e = e.AddProduct(t.Coef, v1, v2)
		default:
			return model.Expr{}, errors.Wrapf(ErrInvalidDocument, "terms take one or two variables, got %d", len(t.Vars))
		}
	}

	return e, nil
}

func parseSense(s string) (model.Sense, error) {
	switch strings.ToLower(s) {
	case "", "minimize", "min":
		return model.Minimize, nil
	case "maximize", "max":
		return model.Maximize, nil
	default:
		return model.Minimize, errors.Wrapf(ErrInvalidDocument, "unknown sense %q", s)
	}
}

func bound(v *float64, def float64) float64 {
	if v == nil {
		return def
	}

	return *v
}
