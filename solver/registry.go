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

package solver

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/costela/bilevel/model"
)

type entry struct {
	factory Factory
	sem     *semaphore.Weighted
}

type RegisterOption func(*entry)

// WithMaxHandles bounds the number of handles of a subsolver that may be
// alive at the same time. Acquire blocks until a slot is free.
func WithMaxHandles(n int64) RegisterOption {
	return func(e *entry) {
		if n > 0 {
			e.sem = semaphore.NewWeighted(n)
		}
	}
}

// Registry maps subsolver names to factories. Implementations are
// registered programmatically by the caller.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

func (r *Registry) Register(name string, factory Factory, opts ...RegisterOption) error {
	e := &entry{factory: factory}
	for _, opt := range opts {
		opt(e)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[name]; ok {
		return errors.Wrap(ErrAlreadyRegistered, name)
	}
	r.entries[name] = e

	return nil
}

// Names returns the registered subsolver names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Acquire creates a handle for the named subsolver. The caller owns the
// handle and must Close it; closing releases its registry slot.
func (r *Registry) Acquire(ctx context.Context, name string) (Handle, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, errors.Wrap(ErrUnknownSolver, name)
	}

	if e.sem != nil {
		if err := e.sem.Acquire(ctx, 1); err != nil {
			return nil, errors.Wrapf(err, "waiting for a %s handle", name)
		}
	}
	release := func() {
		if e.sem != nil {
			e.sem.Release(1)
		}
	}

	h, err := e.factory()
	if err != nil {
		release()
		return nil, errors.Wrapf(err, "creating %s handle", name)
	}

	return &scopedHandle{name: name, inner: h, release: release}, nil
}

// scopedHandle guarantees the inner handle is closed and the registry
// slot released at most once.
type scopedHandle struct {
	name    string
	inner   Handle
	release func()
	once    sync.Once
	closed  bool
	err     error
}

func (h *scopedHandle) SetOption(name string, value float64) error {
	if h.closed {
		return ErrHandleClosed
	}

	return h.inner.SetOption(name, value)
}

func (h *scopedHandle) Solve(ctx context.Context, m *model.Model, opts SolveOptions) (*Result, error) {
	if h.closed {
		return nil, ErrHandleClosed
	}

	res, err := h.inner.Solve(ctx, m, opts)
	if res != nil && res.Solver == "" {
		res.Solver = h.name
	}

	return res, err
}

func (h *scopedHandle) Close() error {
	h.once.Do(func() {
		h.closed = true
		defer h.release()
		h.err = h.inner.Close()
	})

	return h.err
}
