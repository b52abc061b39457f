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

// Package storage persists array fragments on the local filesystem. A
// fragment is a directory holding one file per attribute plus a
// coordinates file, each a flat sequence of tiles. Writers build the
// fragment in a hidden temp directory and publish it with a single
// rename, readers memory-map the files.
package storage

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/weaviate/tilestore/adapters/repos/array/consolidation"
	"github.com/weaviate/tilestore/adapters/repos/array/fragtree"
	"github.com/weaviate/tilestore/entities/schema"
)

// ErrCorruptFragment marks fragment files that cannot be decoded against
// the array schema.
var ErrCorruptFragment = stderrors.New("corrupt fragment")

const (
	// the double underscore keeps the coordinates file out of the
	// attribute namespace
	coordsFileName = "__coords.dat"

	tileHeaderSize = 16 // tile id + cell count, both uint64
)

// Store persists the fragments and the fragment tree of one array under a
// single directory.
type Store[T schema.Scalar] struct {
	dir    string
	schema *schema.ArraySchema[T]
	logger logrus.FieldLogger

	scalarSize int
	attrSizes  []int
}

func New[T schema.Scalar](dir string, s *schema.ArraySchema[T], logger logrus.FieldLogger) *Store[T] {
	attrSizes := make([]int, len(s.Attributes))
	for i, attr := range s.Attributes {
		attrSizes[i] = attr.Type.Size()
	}

	return &Store[T]{
		dir:        dir,
		schema:     s,
		logger:     logger.WithField("action", "tilestore_storage"),
		scalarSize: s.Datatype().Size(),
		attrSizes:  attrSizes,
	}
}

func (s *Store[T]) LoadTree(step int) (*fragtree.Tree, error) {
	return fragtree.Load(filepath.Join(s.dir, fragtree.FileName), step)
}

func (s *Store[T]) FlushTree(t *fragtree.Tree) error {
	return t.Flush(filepath.Join(s.dir, fragtree.FileName))
}

func (s *Store[T]) OpenFragment(name string) (consolidation.FragmentSource[T], error) {
	dir := filepath.Join(s.dir, name)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, errors.Wrap(consolidation.ErrFragmentNotFound, name)
	} else if err != nil {
		return nil, errors.Wrapf(err, "stat fragment %q", name)
	}

	return newFragmentSource(dir, s)
}

func (s *Store[T]) CreateFragment(name string) (consolidation.FragmentWriter[T], error) {
	final := filepath.Join(s.dir, name)
	if _, err := os.Stat(final); err == nil {
		return nil, errors.Wrap(consolidation.ErrFragmentExists, name)
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "stat fragment %q", name)
	}

	tmp := filepath.Join(s.dir, fmt.Sprintf(".tmp-%s-%s", name, uuid.New().String()))
	if err := os.MkdirAll(tmp, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create fragment dir for %q", name)
	}

	return newFragmentWriter(tmp, final, s)
}

func (s *Store[T]) DeleteFragment(name string) error {
	dir := filepath.Join(s.dir, name)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return errors.Wrap(consolidation.ErrFragmentNotFound, name)
	} else if err != nil {
		return errors.Wrapf(err, "stat fragment %q", name)
	}
	return os.RemoveAll(dir)
}

// fileNames lists the fragment's files in cursor order, coordinates
// first, then the attributes in schema order.
func (s *Store[T]) fileNames() []string {
	out := make([]string, 0, len(s.schema.Attributes)+1)
	out = append(out, coordsFileName)
	for _, attr := range s.schema.Attributes {
		out = append(out, attr.Name+".dat")
	}
	return out
}
