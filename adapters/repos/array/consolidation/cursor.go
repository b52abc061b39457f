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

// Package consolidation merges the fragments of an array. Whenever the
// fragment tree schedules a merge, the step input fragments are streamed
// in global cell order through a k-way merge that keeps the newest value
// of every coordinate, and the result replaces the inputs as a single
// fragment one level up.
package consolidation

import (
	stderrors "errors"

	"github.com/weaviate/tilestore/adapters/repos/array/fragtree"
	"github.com/weaviate/tilestore/entities/schema"
)

var (
	// ErrFragmentExists is returned when creating a fragment whose name
	// is already taken.
	ErrFragmentExists = stderrors.New("fragment already exists")

	// ErrFragmentNotFound is returned when opening or deleting an
	// unknown fragment.
	ErrFragmentNotFound = stderrors.New("fragment not found")
)

// Cell is one logical cell of a fragment: its coordinates, one fixed-size
// encoded value per schema attribute, and whether the cell is a deletion
// marker. A marker's values are empty per-attribute slices.
type Cell[T schema.Scalar] struct {
	Coords  []T
	Values  [][]byte
	Deleted bool
}

// FragmentSource streams the cells of one fragment in global cell order,
// tile by tile. first returns the first cell, next every subsequent one;
// both return nil once the fragment is exhausted. The returned cell is
// only valid until the following call.
type FragmentSource[T schema.Scalar] interface {
	First() (*Cell[T], error)
	Next() (*Cell[T], error)
	Close() error
}

// FragmentWriter builds one new fragment. Cells arrive in global cell
// order, grouped into tiles by explicit BeginTile calls. Append must not
// retain the cell or its slices past the call. Either Commit or Abort
// must be called exactly once; Abort discards everything written so far.
type FragmentWriter[T schema.Scalar] interface {
	BeginTile(tileID uint64) error
	Append(cell *Cell[T]) error
	Commit() error
	Abort() error
}

// Store is the persistence backend of one array. Implementations must
// make Commit on a returned writer atomic: a fragment is either fully
// present or absent, never half written.
type Store[T schema.Scalar] interface {
	LoadTree(step int) (*fragtree.Tree, error)
	FlushTree(t *fragtree.Tree) error

	OpenFragment(name string) (FragmentSource[T], error)
	CreateFragment(name string) (FragmentWriter[T], error)
	DeleteFragment(name string) error
}
