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
package bilevel

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

const (
	DefaultSolver = "glpk"
	DefaultMIPGap = 0.001
	DefaultBigM   = 100000
)

// Config enumerates the options recognized by Solve.
type Config struct {
	// ResolveSubproblem re-solves the lower level in its original form
	// with the upper-level decisions fixed.
	ResolveSubproblem bool `mapstructure:"resolve_subproblem" yaml:"resolve_subproblem"`
	// UseDualObjective is passed to the linear_dual reformulation.
	UseDualObjective bool   `mapstructure:"use_dual_objective" yaml:"use_dual_objective"`
	Solver           string `mapstructure:"solver" yaml:"solver"`
	// MIPGap is the relative optimality gap passed to the subsolver.
	MIPGap float64 `mapstructure:"mipgap" yaml:"mipgap"`
	// BigM is the constant used by disjunctive_to_bigm.
	BigM float64 `mapstructure:"bigM" yaml:"bigM"`
	// Tee streams the subsolver log.
	Tee bool `mapstructure:"tee" yaml:"tee"`
	// TimeLimit is the per-invocation budget. Zero means none.
	TimeLimit time.Duration `mapstructure:"timelimit" yaml:"timelimit"`
}

func DefaultConfig() Config {
	return Config{
		ResolveSubproblem: true,
		UseDualObjective:  true,
		Solver:            DefaultSolver,
		MIPGap:            DefaultMIPGap,
		BigM:              DefaultBigM,
	}
}

// withDefaults fills the zero values that have no meaning of their own.
// A zero MIPGap asks for proven optimality and is kept.
func (c Config) withDefaults() Config {
	if c.Solver == "" {
		c.Solver = DefaultSolver
	}
	if c.BigM == 0 {
		c.BigM = DefaultBigM
	}

	return c
}

func (c Config) validate() error {
	switch {
	case c.MIPGap < 0 || math.IsNaN(c.MIPGap):
		return errors.Wrapf(ErrInvalidConfig, "mipgap %v", c.MIPGap)
	case c.TimeLimit < 0:
		return errors.Wrapf(ErrInvalidConfig, "timelimit %v", c.TimeLimit)
	}

	return nil
}
