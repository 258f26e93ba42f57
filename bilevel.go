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
Package bilevel solves bilevel interdiction problems through linear
duality.

The lower-level sub-model is replaced by its dual reformulation, bilinear
products left over by the reformulation are linearized with a big-M
construction and the resulting single-level problem is handed to a
subsolver. Optionally the lower level is then re-solved in its original
form with the upper-level decisions fixed.

Example:

	transforms, _ := bilevel.DefaultTransforms()
	solvers := solver.NewRegistry()
	glpk.Register(solvers)

	s, _ := bilevel.New(solvers, transforms, bilevel.WithLogger(logger))
	res, err := s.Solve(ctx, m, bilevel.DefaultConfig())

A Solver may be shared, but a model must not be solved by two runs at the
same time.
*/
package bilevel

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/costela/bilevel/model"
	"github.com/costela/bilevel/solver"
	"github.com/costela/bilevel/transform"
	"github.com/costela/bilevel/transform/dual"
	"github.com/costela/bilevel/transform/gdp"
)

/* Types */

type Solver struct {
	solvers    *solver.Registry
	transforms *transform.Registry
	logger     *zap.Logger
	metrics    *metrics
	observer   StageObserver
}

// run carries the state of a single Solve call through the stages.
type run struct {
	id        string
	m         *model.Model
	cfg       Config
	logger    *zap.Logger
	nonlinear bool
	data      *model.TransformationData
	results   []*solver.Result
}

// New returns a Solver drawing subsolvers and transformations from the
// given registries.
func New(solvers *solver.Registry, transforms *transform.Registry, opts ...Option) (*Solver, error) {
	if solvers == nil || transforms == nil {
		return nil, errors.New("bilevel: nil registry")
	}

	s := &Solver{
		solvers:    solvers,
		transforms: transforms,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, errors.Wrap(err, "applying solver option")
		}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	return s, nil
}

// DefaultTransforms returns a registry with the reformulations the
// pipeline needs: the precomputed linear_dual and the gdp bilinear and
// big-M transformations.
func DefaultTransforms() (*transform.Registry, error) {
	reg := transform.NewRegistry()
	if err := dual.Register(reg); err != nil {
		return nil, err
	}
	if err := gdp.Register(reg); err != nil {
		return nil, err
	}

	return reg, nil
}

// Solve runs the pipeline on m. The model is mutated in place: the
// selected solution is loaded into its variables and the auxiliary
// blocks are left deactivated.
//
// The reported termination condition is always solver.Optimal; the
// per-call conditions are available in Results.Runs.
func (s *Solver) Solve(ctx context.Context, m *model.Model, cfg Config) (*Results, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	id := uuid.NewString()
	rc := &run{
		id:     id,
		m:      m,
		cfg:    cfg,
		logger: s.logger.With(zap.String("run", id), zap.String("model", m.Name())),
	}

	if err := s.dualize(ctx, rc); err != nil {
		return nil, err
	}

	rc.nonlinear = classify(m)
	rc.logger.Debug("classified model", zap.Bool("nonlinear", rc.nonlinear))

	if rc.nonlinear {
		if err := s.linearize(ctx, rc); err != nil {
			return nil, err
		}
	}

	res, err := s.solveOnce(ctx, rc)
	if err != nil {
		return nil, err
	}
	rc.results = append(rc.results, res)

	if rc.nonlinear {
		if err := reconcile(m.BilinearData()); err != nil {
			return nil, errors.Wrap(err, "reconciling bilinear surrogates")
		}
	}

	if cfg.ResolveSubproblem {
		if err := s.resolve(ctx, rc); err != nil {
			return nil, err
		}
	}

	if m.Solutions().Len() > 0 {
		if err := m.Solutions().Select(0, true); err != nil {
			return nil, errors.Wrap(err, "selecting solution")
		}
	}

	wall := time.Since(start)
	results := aggregate(rc, wall)

	for _, o := range m.Block().Objectives() {
		o.Activate()
	}

	s.metrics.finished(cfg.ResolveSubproblem, rc.nonlinear, wall)
	rc.logger.Info("run finished",
		zap.Int("solves", len(rc.results)),
		zap.Duration("elapsed", wall),
	)

	return results, nil
}
