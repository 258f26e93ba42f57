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
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	invocations *prometheus.CounterVec
	runs        *prometheus.CounterVec
	duration    prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bilevel",
			Name:      "subsolver_invocations_total",
			Help:      "Number of subsolver invocations.",
		}, []string{"solver"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bilevel",
			Name:      "runs_total",
			Help:      "Number of completed pipeline runs.",
		}, []string{"resolved", "linearized"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bilevel",
			Name:      "run_duration_seconds",
			Help:      "Wall time of completed pipeline runs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}

	for _, c := range []prometheus.Collector{m.invocations, m.runs, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "registering metrics")
		}
	}

	return m, nil
}

// The zero *metrics records nothing.

func (m *metrics) invoked(solver string) {
	if m == nil {
		return
	}
	m.invocations.WithLabelValues(solver).Inc()
}

func (m *metrics) finished(resolved, linearized bool, wall time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(strconv.FormatBool(resolved), strconv.FormatBool(linearized)).Inc()
	m.duration.Observe(wall.Seconds())
}
