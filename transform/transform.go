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

// Package transform provides the registry through which model
// reformulations are looked up and applied.
package transform

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/costela/bilevel/model"
)

// Well-known transformation names.
const (
	LinearDual            = "linear_dual"
	BilinearToDisjunctive = "bilinear_to_disjunctive"
	DisjunctiveToBigM     = "disjunctive_to_bigm"
)

var (
	ErrUnknownTransformation = errors.New("unknown transformation")
	ErrAlreadyRegistered     = errors.New("transformation already registered")
)

// Config carries the parameters recognized by the transformations.
// Each transformation reads only the fields it needs.
type Config struct {
	UseDualObjective bool
	BigM             float64
}

// Transformation mutates a model in place.
type Transformation interface {
	Apply(ctx context.Context, m *model.Model, cfg Config) error
}

// Func adapts a plain function to Transformation.
type Func func(ctx context.Context, m *model.Model, cfg Config) error

func (f Func) Apply(ctx context.Context, m *model.Model, cfg Config) error {
	return f(ctx, m, cfg)
}

// Registry maps names to transformations. The zero value is not usable;
// use NewRegistry.
type Registry struct {
	mu    sync.RWMutex
	items map[string]Transformation
}

func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Transformation)}
}

// Register adds t under name. Registering a name twice is an error.
func (r *Registry) Register(name string, t Transformation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[name]; ok {
		return errors.Wrap(ErrAlreadyRegistered, name)
	}
	r.items[name] = t

	return nil
}

// Apply runs the transformation registered under name on m. Errors from
// the transformation are returned wrapped with its name.
func (r *Registry) Apply(ctx context.Context, name string, m *model.Model, cfg Config) error {
	r.mu.RLock()
	t, ok := r.items[name]
	r.mu.RUnlock()

	if !ok {
		return errors.Wrap(ErrUnknownTransformation, name)
	}
	if err := t.Apply(ctx, m, cfg); err != nil {
		return errors.Wrapf(err, "applying %s", name)
	}

	return nil
}

// Names returns the registered names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
