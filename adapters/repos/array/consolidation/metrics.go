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

package consolidation

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/weaviate/tilestore/usecases/monitoring"
)

// metrics binds the shared vectors to one array name. A nil *metrics is
// valid and records nothing.
type metrics struct {
	pm        *monitoring.PrometheusMetrics
	arrayName string

	fragmentsLive     prometheus.Gauge
	fragmentsWritten  prometheus.Counter
	consolidations    prometheus.Counter
	cellsWritten      prometheus.Counter
	tombstonesDropped prometheus.Counter
	duration          prometheus.Observer
}

func newMetrics(pm *monitoring.PrometheusMetrics, arrayName string) *metrics {
	if pm == nil {
		return nil
	}

	return &metrics{
		pm:                pm,
		arrayName:         arrayName,
		fragmentsLive:     pm.FragmentsLive.WithLabelValues(arrayName),
		fragmentsWritten:  pm.FragmentsWritten.WithLabelValues(arrayName),
		consolidations:    pm.ConsolidationCount.WithLabelValues(arrayName),
		cellsWritten:      pm.ConsolidationCells.WithLabelValues(arrayName),
		tombstonesDropped: pm.TombstonesDropped.WithLabelValues(arrayName),
		duration:          pm.ConsolidationTime.WithLabelValues(arrayName),
	}
}

func (m *metrics) FragmentsLive(n int) {
	if m == nil {
		return
	}
	m.fragmentsLive.Set(float64(n))
}

func (m *metrics) FragmentWritten() {
	if m == nil {
		return
	}
	m.fragmentsWritten.Inc()
}

func (m *metrics) Consolidation(level uint32, cells, tombstones uint64, took time.Duration) {
	if m == nil {
		return
	}
	m.consolidations.Inc()
	m.pm.ConsolidationLevels.WithLabelValues(m.arrayName, strconv.FormatUint(uint64(level), 10)).Inc()
	m.cellsWritten.Add(float64(cells))
	m.tombstonesDropped.Add(float64(tombstones))
	m.duration.Observe(took.Seconds())
}
