/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess    = "success"
	outcomeError      = "error"
	outcomeNotIndexed = "not_indexed"
)

var (
	// Global metrics with consistent dimensions
	indexCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repolens_index_requests_total",
			Help: "Total number of repository index requests",
		},
		[]string{"outcome"},
	)

	queryCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repolens_query_requests_total",
			Help: "Total number of repository query requests",
		},
		[]string{"outcome"},
	)

	indexedReposGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "repolens_indexed_repos",
			Help: "Number of repositories currently indexed in memory",
		},
	)
)
