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
	"github.com/sirupsen/logrus"

	"github.com/weaviate/tilestore/usecases/monitoring"
)

type config struct {
	logger  logrus.FieldLogger
	metrics *monitoring.PrometheusMetrics
}

type Option func(*config)

func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func WithMetrics(pm *monitoring.PrometheusMetrics) Option {
	return func(c *config) {
		c.metrics = pm
	}
}
