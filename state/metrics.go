// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package state

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tokenledger/spstore/crowdsale"
)

const metricsNamespace = "spstore"

type metrics struct {
	registry *prometheus.Registry

	blocks     prometheus.Counter
	rollbacks  prometheus.Counter
	popped     prometheus.Counter
	properties prometheus.Counter
	purchases  prometheus.Counter
	closed     *prometheus.CounterVec
	live       prometheus.Gauge
}

// each context owns its registry so several can exist in one process
func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		blocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "blocks_processed_total",
			Help:      "Blocks whose state was checkpointed.",
		}),
		rollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rollbacks_total",
			Help:      "Chain reorganisations applied.",
		}),
		popped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "properties_popped_total",
			Help:      "Property records deleted or restored by block rollback.",
		}),
		properties: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "properties_created_total",
			Help:      "Properties created.",
		}),
		purchases: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "crowdsale_purchases_total",
			Help:      "Crowdsale contributions applied.",
		}),
		closed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "crowdsales_closed_total",
			Help:      "Crowdsales closed by reason.",
		}, []string{"reason"}),
		live: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "crowdsales_live",
			Help:      "Crowdsales currently open.",
		}),
	}
	m.registry.MustRegister(
		m.blocks,
		m.rollbacks,
		m.popped,
		m.properties,
		m.purchases,
		m.closed,
		m.live,
	)
	return m
}

func (m *metrics) observeClosures(closures ...crowdsale.Closure) {
	for _, closure := range closures {
		m.closed.WithLabelValues(closure.Reason.String()).Inc()
	}
}
