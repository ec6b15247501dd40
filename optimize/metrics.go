/*
 * metrics.go, part of gostk.
 *
 * Copyright 2024 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package optimize

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

//Metrics are the Prometheus collectors of an Optimizer.
type Metrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

//NewMetrics creates the collectors and registers them with reg, unless it is nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	M := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gostk_optimizations_total",
			Help: "Optimizations requested, by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gostk_optimization_duration_seconds",
			Help:    "Duration of the optimizations that ran, by strategy.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"strategy"}),
	}
	if reg == nil {
		return M, nil
	}
	for _, c := range []prometheus.Collector{M.runs, M.duration} {
		if err := reg.Register(c); err != nil {
			return nil, &Error{msg: "Can't register metrics: " + err.Error(), deco: []string{"NewMetrics"}}
		}
	}
	return M, nil
}

//Outcomes of an optimization request.
const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeTimeout = "timeout"
	outcomeNoop    = "noop"
	outcomeSkipped = "skipped"
)

func (M *Metrics) count(strategy, outcome string) {
	if M == nil {
		return
	}
	M.runs.WithLabelValues(strategy, outcome).Inc()
}

func (M *Metrics) observe(strategy string, d time.Duration) {
	if M == nil {
		return
	}
	M.duration.WithLabelValues(strategy).Observe(d.Seconds())
}
