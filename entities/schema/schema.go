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

package schema

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidSchema marks configuration errors. They are fatal at
	// array-open time and never retried.
	ErrInvalidSchema = stderrors.New("invalid array schema")

	// ErrDatatypeMismatch marks an attempt to use persisted array state under
	// a coordinate kind other than the one it was written with.
	ErrDatatypeMismatch = stderrors.New("coordinate datatype mismatch")
)

// Dimension is one axis of the coordinate space: an inclusive domain range
// plus an optional regular tile extent. If any dimension of an array has no
// tile extent, the whole array has no regular tile grid.
type Dimension[T Scalar] struct {
	Name       string
	Lo, Hi     T
	TileExtent *T
}

// Attribute describes one value stored per non-empty cell.
type Attribute struct {
	Name string   `json:"name"`
	Type Datatype `json:"type"`
}

// ArraySchema is the immutable description of one array: its domain, its
// attributes and its tiling/consolidation configuration. It is created once
// and never mutated afterwards.
type ArraySchema[T Scalar] struct {
	ArrayName  string
	Dimensions []Dimension[T]
	Attributes []Attribute

	CellOrder Layout
	TileOrder Layout

	// Capacity bounds the cell count of one tile for arrays without a
	// regular tile grid.
	Capacity uint64

	// ConsolidationStep is the branching factor of the leveled merge
	// schedule. Must be greater than 1.
	ConsolidationStep int
}

func (s *ArraySchema[T]) Datatype() Datatype {
	return DatatypeOf[T]()
}

func (s *ArraySchema[T]) DimNum() int {
	return len(s.Dimensions)
}

// HasRegularTiles reports whether every dimension carries a tile extent.
func (s *ArraySchema[T]) HasRegularTiles() bool {
	if len(s.Dimensions) == 0 {
		return false
	}
	for i := range s.Dimensions {
		if s.Dimensions[i].TileExtent == nil {
			return false
		}
	}
	return true
}

func (s *ArraySchema[T]) Validate() error {
	if s.ArrayName == "" {
		return errors.Wrap(ErrInvalidSchema, "array name must not be empty")
	}
	if len(s.Dimensions) == 0 {
		return errors.Wrap(ErrInvalidSchema, "at least one dimension required")
	}

	extents := 0
	for i := range s.Dimensions {
		dim := &s.Dimensions[i]
		if dim.Name == "" {
			return errors.Wrapf(ErrInvalidSchema, "dimension %d has no name", i)
		}
		if dim.Lo > dim.Hi {
			return errors.Wrapf(ErrInvalidSchema,
				"dimension %q: lower bound exceeds upper bound", dim.Name)
		}
		if dim.TileExtent != nil {
			if *dim.TileExtent <= 0 {
				return errors.Wrapf(ErrInvalidSchema,
					"dimension %q: tile extent must be positive", dim.Name)
			}
			extents++
		}
	}
	// all or nothing: a partially tiled domain has no regular grid and the
	// leftover extents would silently be ignored
	if extents != 0 && extents != len(s.Dimensions) {
		return errors.Wrap(ErrInvalidSchema,
			"tile extents must be set on either all dimensions or none")
	}

	if len(s.Attributes) == 0 {
		return errors.Wrap(ErrInvalidSchema, "at least one attribute required")
	}
	seen := map[string]struct{}{}
	for i, attr := range s.Attributes {
		if attr.Name == "" {
			return errors.Wrapf(ErrInvalidSchema, "attribute %d has no name", i)
		}
		if !attr.Type.Valid() {
			return errors.Wrapf(ErrInvalidSchema,
				"attribute %q has an unknown datatype", attr.Name)
		}
		if _, ok := seen[attr.Name]; ok {
			return errors.Wrapf(ErrInvalidSchema,
				"duplicate attribute name %q", attr.Name)
		}
		seen[attr.Name] = struct{}{}
	}

	if !s.CellOrder.Valid() {
		return errors.Wrap(ErrInvalidSchema, "unknown cell order")
	}
	if s.TileOrder != LayoutRowMajor && s.TileOrder != LayoutColMajor {
		return errors.Wrap(ErrInvalidSchema,
			"tile order must be row-major or col-major")
	}

	if !s.HasRegularTiles() && s.Capacity == 0 {
		return errors.Wrap(ErrInvalidSchema,
			"arrays without a regular tile grid need a positive capacity")
	}

	if s.ConsolidationStep <= 1 {
		return errors.Wrap(ErrInvalidSchema,
			"consolidation step must be greater than 1")
	}

	return nil
}
