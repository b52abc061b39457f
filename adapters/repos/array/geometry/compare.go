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

// CellOrderCmp totally orders two coordinate tuples under the configured
// cell order. On domains with a regular tile grid the order is only global
// within one tile; callers that need a global order across tiles must use
// TileCellOrderCmp.
func (d *Domain[T]) CellOrderCmp(a, b []T) (int, error) {
	return d.cellOrderCmp(a, b, nil)
}

func (d *Domain[T]) cellOrderCmp(a, b []T, scratch *Scratch[T]) (int, error) {
	if err := d.checkCoords(a); err != nil {
		return 0, err
	}
	if err := d.checkCoords(b); err != nil {
		return 0, err
	}

	switch d.cellOrder {
	case schema.LayoutRowMajor:
		return d.cmpRowMajor(a, b), nil
	case schema.LayoutColMajor:
		for i := d.dimNum - 1; i >= 0; i-- {
			if a[i] < b[i] {
				return -1, nil
			}
			if a[i] > b[i] {
				return 1, nil
			}
		}
		return 0, nil
	case schema.LayoutHilbert:
		if scratch == nil {
			scratch = d.NewScratch()
		}
		idA := d.hilbertCellID(a, scratch.axesA)
		idB := d.hilbertCellID(b, scratch.axesB)
		if idA < idB {
			return -1, nil
		}
		if idA > idB {
			return 1, nil
		}
		// identical Hilbert ids, break the tie in row-major order
		return d.cmpRowMajor(a, b), nil
	default:
		return 0, errors.Wrapf(ErrUnsupportedLayout, "cell order %s", d.cellOrder)
	}
}

func (d *Domain[T]) cmpRowMajor(a, b []T) int {
	for i := 0; i < d.dimNum; i++ {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	return 0
}

// TileCellOrderCmp is the global total order over coordinate tuples: tile
// order first, cell order as the tie break. On domains without a regular
// tile grid it degenerates to the plain cell order, which is global there.
// scratch is reused across calls to avoid per-comparison allocation.
func (d *Domain[T]) TileCellOrderCmp(a, b []T, scratch *Scratch[T]) (int, error) {
	if !d.HasRegularTiles() {
		return d.cellOrderCmp(a, b, scratch)
	}

	idA, err := d.TileID(a)
	if err != nil {
		return 0, err
	}
	idB, err := d.TileID(b)
	if err != nil {
		return 0, err
	}
	if idA < idB {
		return -1, nil
	}
	if idA > idB {
		return 1, nil
	}

	return d.cellOrderCmp(a, b, scratch)
}

// TileID floor-divides coords by the tile extents and linearizes the
// resulting tile coordinates under the configured tile order. Only defined
// on domains with a regular tile grid.
func (d *Domain[T]) TileID(coords []T) (uint64, error) {
	if !d.HasRegularTiles() {
		return 0, errors.Wrap(ErrNoRegularTiles, "tile id")
	}
	if err := d.checkCoords(coords); err != nil {
		return 0, err
	}

	offsets := d.tileOffsetsRow
	if d.tileOrder == schema.LayoutColMajor {
		offsets = d.tileOffsetsCol
	}

	var id uint64
	for i := 0; i < d.dimNum; i++ {
		id += d.tileCoord(i, coords[i]) * offsets[i]
	}
	return id, nil
}

// CellPos is the position of coords within its own tile under the cell
// order. Not defined for a Hilbert cell order, which has no dense in-tile
// positions.
func (d *Domain[T]) CellPos(coords []T) (uint64, error) {
	if !d.HasRegularTiles() {
		return 0, errors.Wrap(ErrNoRegularTiles, "cell pos")
	}
	if err := d.checkCoords(coords); err != nil {
		return 0, err
	}

	var offsets []uint64
	switch d.cellOrder {
	case schema.LayoutRowMajor:
		offsets = d.cellOffsetsRow
	case schema.LayoutColMajor:
		offsets = d.cellOffsetsCol
	default:
		return 0, errors.Wrapf(ErrUnsupportedLayout, "cell pos under %s order", d.cellOrder)
	}

	var pos uint64
	for i := 0; i < d.dimNum; i++ {
		pos += d.intraTileOffset(i, coords[i]) * offsets[i]
	}
	return pos, nil
}
