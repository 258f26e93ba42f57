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

type SolutionStatus int

const (
	SolutionUnknown SolutionStatus = iota
	SolutionOptimal
	SolutionFeasible
)

func (s SolutionStatus) String() string {
	switch s {
	case SolutionOptimal:
		return "optimal"
	case SolutionFeasible:
		return "feasible"
	default:
		return "unknown"
	}
}

func (s SolutionStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Solution is a point reported by a subsolver.
type Solution struct {
	Status    SolutionStatus `yaml:"status"`
	Objective float64        `yaml:"objective"`
	Values    map[ID]float64 `yaml:"values"`
}

// Solutions stores the solutions of the latest solve.
type Solutions struct {
	model *Model
	list  []Solution
}

// Store replaces the stored solutions with sol.
func (s *Solutions) Store(sol Solution) {
	s.list = []Solution{sol}
}

func (s *Solutions) Clear() {
	s.list = nil
}

func (s *Solutions) Len() int {
	return len(s.list)
}

// All returns a copy of the stored solutions.
func (s *Solutions) All() []Solution {
	return append([]Solution(nil), s.list...)
}

// Select loads the i-th stored solution into the model variables.
func (s *Solutions) Select(i int, ignoreFixed bool) error {
	if i < 0 || i >= len(s.list) {
		return errors.Errorf("solution index %d out of range [0, %d)", i, len(s.list))
	}

	return s.model.Load(s.list[i], ignoreFixed)
}

// Load assigns the values of sol to the model variables. With
// ignoreFixed, fixed variables keep their value.
func (m *Model) Load(sol Solution, ignoreFixed bool) error {
	for id, val := range sol.Values {
		v, err := m.Lookup(id)
		if err != nil {
			return err
		}
		if ignoreFixed && v.fixed {
			continue
		}
		v.SetValue(val)
	}

	return nil
}
