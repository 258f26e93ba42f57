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
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type Option func(*Solver) error

func WithLogger(logger *zap.Logger) Option {
	return func(s *Solver) error {
		s.logger = logger

		return nil
	}
}

// WithRegisterer registers the pipeline metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Solver) error {
		m, err := newMetrics(reg)
		if err != nil {
			return err
		}
		s.metrics = m

		return nil
	}
}

// WithStageObserver calls fn on every resolve stage transition.
func WithStageObserver(fn StageObserver) Option {
	return func(s *Solver) error {
		s.observer = fn

		return nil
	}
}
