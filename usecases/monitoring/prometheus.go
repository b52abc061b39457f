//                           _       _
// __      _____  __ ___   ___  __ _| |_ ___
// \ \ /\ / / _ \/ _` \ \ / / |/ _` | __/ _ \
//  \ V  V /  __/ (_| |\ V /| | (_| | ||  __/
//   \_/\_/ \___|\__,_| \_/ |_|\__,_|\__\___|
//
//  Copyright © 2016 - 2024 Weaviate B.V. All rights reserved.
//
//  CONTACT: hello@weaviate.io
//

package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics holds every metric vector of the storage engine. All
// vectors carry an array_name label so one registry can serve many open
// arrays. A nil *PrometheusMetrics disables instrumentation entirely.
type PrometheusMetrics struct {
	Registerer prometheus.Registerer

	FragmentsLive       *prometheus.GaugeVec
	FragmentsWritten    *prometheus.CounterVec
	ConsolidationCount  *prometheus.CounterVec
	ConsolidationLevels *prometheus.CounterVec
	ConsolidationCells  *prometheus.CounterVec
	ConsolidationTime   *prometheus.HistogramVec
	TombstonesDropped   *prometheus.CounterVec
}

func NewPrometheusMetrics() *PrometheusMetrics {
	reg := prometheus.DefaultRegisterer
	return newPrometheusMetrics(reg)
}

// NewNoopMetrics returns metrics wired to a registry that discards
// everything, for callers that need a non-nil instance without exposing
// anything.
func NewNoopMetrics() *PrometheusMetrics {
	return newPrometheusMetrics(noop)
}

func newPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	pm := &PrometheusMetrics{
		Registerer: reg,

		FragmentsLive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tilestore_fragments_live",
			Help: "Number of live fragments of an array",
		}, []string{"array_name"}),
		FragmentsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tilestore_fragments_written_total",
			Help: "Fragments committed to an array, including consolidation outputs",
		}, []string{"array_name"}),
		ConsolidationCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tilestore_consolidations_total",
			Help: "Completed consolidation merges",
		}, []string{"array_name"}),
		ConsolidationLevels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tilestore_consolidation_level_total",
			Help: "Completed consolidation merges by fragment tree level",
		}, []string{"array_name", "level"}),
		ConsolidationCells: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tilestore_consolidation_cells_total",
			Help: "Cells written by consolidation merges",
		}, []string{"array_name"}),
		ConsolidationTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tilestore_consolidation_duration_seconds",
			Help:    "Duration of a single consolidation merge",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"array_name"}),
		TombstonesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tilestore_tombstones_dropped_total",
			Help: "Deletion markers discarded because the merged fragment covers the full history",
		}, []string{"array_name"}),
	}

	reg.MustRegister(
		pm.FragmentsLive,
		pm.FragmentsWritten,
		pm.ConsolidationCount,
		pm.ConsolidationLevels,
		pm.ConsolidationCells,
		pm.ConsolidationTime,
		pm.TombstonesDropped,
	)

	return pm
}

// DeleteArray removes every label combination of one array, so dropped
// arrays do not linger in scrapes.
func (pm *PrometheusMetrics) DeleteArray(arrayName string) {
	if pm == nil {
		return
	}

	labels := prometheus.Labels{"array_name": arrayName}
	pm.FragmentsLive.DeletePartialMatch(labels)
	pm.FragmentsWritten.DeletePartialMatch(labels)
	pm.ConsolidationCount.DeletePartialMatch(labels)
	pm.ConsolidationLevels.DeletePartialMatch(labels)
	pm.ConsolidationCells.DeletePartialMatch(labels)
	pm.ConsolidationTime.DeletePartialMatch(labels)
	pm.TombstonesDropped.DeletePartialMatch(labels)
}
