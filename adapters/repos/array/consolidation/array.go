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
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/weaviate/tilestore/adapters/repos/array/fragtree"
	"github.com/weaviate/tilestore/adapters/repos/array/geometry"
	"github.com/weaviate/tilestore/entities/schema"
)

// Array is one open array: its schema, its domain geometry, and the
// fragment tree that tracks which fragments exist and when they merge.
// Methods are safe for concurrent use, but only a single fragment may be
// under construction at a time.
type Array[T schema.Scalar] struct {
	sync.Mutex

	schema  *schema.ArraySchema[T]
	domain  *geometry.Domain[T]
	store   Store[T]
	tree    *fragtree.Tree
	logger  logrus.FieldLogger
	metrics *metrics
}

func New[T schema.Scalar](s *schema.ArraySchema[T], store Store[T], opts ...Option) (*Array[T], error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	domain, err := geometry.NewDomain(s)
	if err != nil {
		return nil, err
	}

	tree, err := store.LoadTree(s.ConsolidationStep)
	if err != nil {
		return nil, errors.Wrapf(err, "open array %q", s.ArrayName)
	}

	cfg := config{logger: logrus.New()}
	for _, opt := range opts {
		opt(&cfg)
	}

	a := &Array[T]{
		schema: s,
		domain: domain,
		store:  store,
		tree:   tree,
		logger: cfg.logger.WithFields(logrus.Fields{
			"action": "tilestore_array",
			"array":  s.ArrayName,
		}),
		metrics: newMetrics(cfg.metrics, s.ArrayName),
	}
	a.metrics.FragmentsLive(len(tree.Suffixes()))

	return a, nil
}

func (a *Array[T]) Schema() *schema.ArraySchema[T] {
	return a.schema
}

func (a *Array[T]) Domain() *geometry.Domain[T] {
	return a.domain
}

// Tree returns a copy of the current fragment tree.
func (a *Array[T]) Tree() *fragtree.Tree {
	a.Lock()
	defer a.Unlock()
	return a.tree.Clone()
}

// FragmentName derives the canonical on-disk name of a fragment from the
// sequence range it covers.
func (a *Array[T]) FragmentName(r fragtree.Range) string {
	return fmt.Sprintf("%s_%d_%d", a.schema.ArrayName, r.Start, r.End)
}

// NextFragmentName is the name the next written fragment must use.
func (a *Array[T]) NextFragmentName() string {
	a.Lock()
	defer a.Unlock()
	seq := a.tree.NextSeq()
	return a.FragmentName(fragtree.Range{Start: seq, End: seq})
}

// FragmentNames lists the live fragments, oldest first.
func (a *Array[T]) FragmentNames() []string {
	a.Lock()
	defer a.Unlock()

	suffixes := a.tree.Suffixes()
	out := make([]string, len(suffixes))
	for i, r := range suffixes {
		out[i] = a.FragmentName(r)
	}
	return out
}

// CreateFragment opens a writer for the next fragment. The caller fills
// and commits it, then calls CommitFragment to make it part of the array.
func (a *Array[T]) CreateFragment() (FragmentWriter[T], string, error) {
	name := a.NextFragmentName()
	w, err := a.store.CreateFragment(name)
	if err != nil {
		return nil, "", errors.Wrapf(err, "create fragment %q", name)
	}
	return w, name, nil
}

// CommitFragment registers the freshly written fragment with the tree and
// runs every consolidation merge this triggers. If any merge fails the
// tree is left unchanged and the partial outputs are removed, so a retry
// of CommitFragment sees the same state.
func (a *Array[T]) CommitFragment(ctx context.Context) error {
	a.Lock()
	defer a.Unlock()

	clone := a.tree.Clone()
	jobs := clone.Add()

	var created []string
	removeCreated := func() {
		for _, name := range created {
			if derr := a.store.DeleteFragment(name); derr != nil {
				a.logger.WithError(derr).WithField("fragment", name).
					Warn("failed to remove partial consolidation output")
			}
		}
	}

	for _, job := range jobs {
		if err := a.consolidate(ctx, job); err != nil {
			removeCreated()
			return errors.Wrapf(err, "consolidate level %d", job.Level)
		}
		created = append(created, a.FragmentName(job.Result))
	}

	// the tree is only adopted once it is durable
	if err := a.store.FlushTree(clone); err != nil {
		removeCreated()
		return errors.Wrap(err, "flush fragment tree")
	}
	a.tree = clone

	// the consumed inputs are unreachable now, removal is best effort
	for _, job := range jobs {
		for _, in := range job.Inputs {
			name := a.FragmentName(in)
			if err := a.store.DeleteFragment(name); err != nil {
				a.logger.WithError(err).WithField("fragment", name).
					Warn("failed to remove consolidated fragment")
			}
		}
	}

	a.metrics.FragmentWritten()
	a.metrics.FragmentsLive(len(clone.Suffixes()))
	return nil
}

func (a *Array[T]) consolidate(ctx context.Context, job fragtree.MergeJob) error {
	before := time.Now()

	sources := make([]FragmentSource[T], 0, len(job.Inputs))
	defer func() {
		for _, src := range sources {
			if err := src.Close(); err != nil {
				a.logger.WithError(err).Warn("failed to close consolidation input")
			}
		}
	}()

	for _, in := range job.Inputs {
		src, err := a.store.OpenFragment(a.FragmentName(in))
		if err != nil {
			return errors.Wrapf(err, "open input %q", a.FragmentName(in))
		}
		sources = append(sources, src)
	}

	resultName := a.FragmentName(job.Result)
	w, err := a.store.CreateFragment(resultName)
	if err != nil {
		return errors.Wrapf(err, "create output %q", resultName)
	}

	c := newCompactor(a.domain, a.schema.Capacity, sources, w, job.Result.IsFull())
	if err := c.do(ctx); err != nil {
		if aerr := w.Abort(); aerr != nil {
			a.logger.WithError(aerr).WithField("fragment", resultName).
				Warn("failed to abort consolidation output")
		}
		return err
	}
	if err := w.Commit(); err != nil {
		return errors.Wrapf(err, "commit output %q", resultName)
	}

	took := time.Since(before)
	a.metrics.FragmentWritten()
	a.metrics.Consolidation(job.Level, c.cellsWritten, c.tombstonesDropped, took)
	a.logger.WithFields(logrus.Fields{
		"fragment":           resultName,
		"level":              job.Level,
		"inputs":             len(job.Inputs),
		"cells_written":      c.cellsWritten,
		"tombstones_dropped": c.tombstonesDropped,
		"took":               took,
	}).Debug("consolidated fragments")

	return nil
}
