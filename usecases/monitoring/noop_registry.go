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

import "github.com/prometheus/client_golang/prometheus"

var noop prometheus.Registerer = &NoopPrometheusRegistry{}

// NoopPrometheusRegistry discards every registration, so metrics code can
// run unchanged with monitoring disabled.
type NoopPrometheusRegistry struct{}

func (n *NoopPrometheusRegistry) Register(prometheus.Collector) error {
	return nil
}

func (n *NoopPrometheusRegistry) MustRegister(...prometheus.Collector) {
}

func (n *NoopPrometheusRegistry) Unregister(prometheus.Collector) bool {
	return true
}
