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

package geometry

import (
	"github.com/pkg/errors"
	"github.com/weaviate/tilestore/entities/schema"
)

// NextCellCoords advances coords in place to its successor inside the
// rectangular window, a mixed-radix odometer over the configured cell
// order: the fastest-varying dimension is incremented and overflow carries
// into the next one. The returned bool is false once the window is
// exhausted; coords content is then undefined and the state terminal.
// Hilbert cell orders have no odometer successor.
func (d *Domain[T]) NextCellCoords(window []T, coords []T) (bool, error) {
	if err := d.checkRect(window); err != nil {
		return false, err
	}
	if err := d.checkCoords(coords); err != nil {
		return false, err
	}

	switch d.cellOrder {
	case schema.LayoutRowMajor:
		return advanceRowMajor(window, coords, d.dimNum), nil
	case schema.LayoutColMajor:
		return advanceColMajor(window, coords, d.dimNum), nil
	default:
		return false, errors.Wrapf(ErrUnsupportedLayout,
			"cell successor under %s order", d.cellOrder)
	}
}

// PreviousCellCoords is the reverse odometer: it steps coords back to its
// predecessor inside the window. The returned bool is false when coords was
// the window's first cell.
func (d *Domain[T]) PreviousCellCoords(window []T, coords []T) (bool, error) {
	if err := d.checkRect(window); err != nil {
		return false, err
	}
	if err := d.checkCoords(coords); err != nil {
		return false, err
	}

	switch d.cellOrder {
	case schema.LayoutRowMajor:
		return retreatRowMajor(window, coords, d.dimNum), nil
	case schema.LayoutColMajor:
		return retreatColMajor(window, coords, d.dimNum), nil
	default:
		return false, errors.Wrapf(ErrUnsupportedLayout,
			"cell predecessor under %s order", d.cellOrder)
	}
}

// NextTileCoords advances a tile-coordinate tuple inside tileWindow (a
// rectangle in tile coordinates, len 2*dim) under the configured tile
// order. Same odometer semantics as NextCellCoords.
func (d *Domain[T]) NextTileCoords(tileWindow []uint64, tileCoords []uint64) (bool, error) {
	if !d.HasRegularTiles() {
		return false, errors.Wrap(ErrNoRegularTiles, "tile successor")
	}
	if len(tileWindow) != 2*d.dimNum || len(tileCoords) != d.dimNum {
		return false, ErrCoordsArity
	}

	if d.tileOrder == schema.LayoutColMajor {
		return advanceColMajor(tileWindow, tileCoords, d.dimNum), nil
	}
	return advanceRowMajor(tileWindow, tileCoords, d.dimNum), nil
}

func advanceRowMajor[T schema.Scalar](window, coords []T, dimNum int) bool {
	i := dimNum - 1
	coords[i]++
	for i > 0 && coords[i] > window[2*i+1] {
		coords[i] = window[2*i]
		i--
		coords[i]++
	}
	return !(i == 0 && coords[i] > window[2*i+1])
}

func advanceColMajor[T schema.Scalar](window, coords []T, dimNum int) bool {
	i := 0
	coords[i]++
	for i < dimNum-1 && coords[i] > window[2*i+1] {
		coords[i] = window[2*i]
		i++
		coords[i]++
	}
	return !(i == dimNum-1 && coords[i] > window[2*i+1])
}

func retreatRowMajor[T schema.Scalar](window, coords []T, dimNum int) bool {
	i := dimNum - 1
	if coords[i] > window[2*i] {
		coords[i]--
		return true
	}
	for i > 0 && coords[i] == window[2*i] {
		coords[i] = window[2*i+1]
		i--
		if coords[i] > window[2*i] {
			coords[i]--
			return true
		}
	}
	return false
}

func retreatColMajor[T schema.Scalar](window, coords []T, dimNum int) bool {
	i := 0
	if coords[i] > window[2*i] {
		coords[i]--
		return true
	}
	for i < dimNum-1 && coords[i] == window[2*i] {
		coords[i] = window[2*i+1]
		i++
		if coords[i] > window[2*i] {
			coords[i]--
			return true
		}
	}
	return false
}
