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

// Package array ties the pieces of one on-disk array together: the
// schema file, the filesystem fragment store, and the consolidating
// fragment tree. An array is a directory holding schema.json, the
// fragment tree file, and one subdirectory per live fragment.
package array

import (
	stderrors "errors"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/weaviate/tilestore/adapters/repos/array/consolidation"
	"github.com/weaviate/tilestore/adapters/repos/array/storage"
	"github.com/weaviate/tilestore/entities/schema"
	"github.com/weaviate/tilestore/usecases/monitoring"
)

var (
	// ErrArrayNotFound is returned when the directory holds no array.
	ErrArrayNotFound = stderrors.New("array not found")

	// ErrArrayExists is returned when creating an array over an
	// existing one.
	ErrArrayExists = stderrors.New("array already exists")
)

type options struct {
	logger  logrus.FieldLogger
	metrics *monitoring.PrometheusMetrics
}

type Option func(*options)

func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithMetrics(pm *monitoring.PrometheusMetrics) Option {
	return func(o *options) {
		o.metrics = pm
	}
}

// Create initializes the directory of a new array by persisting its
// schema. The fragment tree starts out empty, so it has no file yet.
func Create[T schema.Scalar](dir string, s *schema.ArraySchema[T]) error {
	if err := s.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create array dir %q", dir)
	}

	path := filepath.Join(dir, schema.FileName)
	if _, err := os.Stat(path); err == nil {
		return errors.Wrap(ErrArrayExists, dir)
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "stat %q", path)
	}

	data, err := schema.Marshal(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "write array schema")
	}
	return nil
}

// Open loads the array in dir with a known coordinate datatype. The
// persisted schema must agree on the datatype or opening fails with
// schema.ErrDatatypeMismatch.
func Open[T schema.Scalar](dir string, opts ...Option) (*consolidation.Array[T], error) {
	data, err := readSchema(dir)
	if err != nil {
		return nil, err
	}
	return open[T](dir, data, applyOptions(opts))
}

func open[T schema.Scalar](dir string, data []byte, o options) (*consolidation.Array[T], error) {
	s, err := schema.Unmarshal[T](data)
	if err != nil {
		return nil, errors.Wrapf(err, "array %q", dir)
	}

	store := storage.New(dir, s, o.logger)
	return consolidation.New(s, store,
		consolidation.WithLogger(o.logger),
		consolidation.WithMetrics(o.metrics))
}

func readSchema(dir string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(dir, schema.FileName))
	if os.IsNotExist(err) {
		return nil, errors.Wrap(ErrArrayNotFound, dir)
	}
	if err != nil {
		return nil, errors.Wrap(err, "read array schema")
	}
	return data, nil
}

func applyOptions(opts []Option) options {
	o := options{logger: logrus.New()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
