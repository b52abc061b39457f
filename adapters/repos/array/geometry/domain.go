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

// Package geometry maps application-level coordinates in an N-dimensional
// domain onto the linear addressing scheme of tiles and cell positions
// within tiles. All operations are pure; a Domain is immutable after
// NewDomain and safe for concurrent readers.
package geometry

import (
	stderrors "errors"

	"github.com/pkg/errors"
	"github.com/weaviate/tilestore/entities/schema"
)

var (
	// ErrNoRegularTiles is returned by operations that are only defined on
	// domains where every dimension carries a tile extent.
	ErrNoRegularTiles = stderrors.New("domain has no regular tile grid")

	// ErrCoordsArity is returned when a coordinate tuple or rectangle does
	// not match the domain's dimensionality.
	ErrCoordsArity = stderrors.New("coordinate tuple does not match domain dimensionality")

	// ErrUnsupportedLayout is returned by positional operations under a
	// Hilbert cell order. A Hilbert order defines precedence, not dense
	// positions.
	ErrUnsupportedLayout = stderrors.New("operation not defined for this layout")
)

// Domain is the coordinate space of one array plus its tiling and traversal
// configuration, with the per-order stride tables precomputed. Rectangles
// ("subarrays") are passed as flat slices of length 2*dim: lo/hi pairs per
// dimension, bounds inclusive.
type Domain[T schema.Scalar] struct {
	dimNum    int
	cellOrder schema.Layout
	tileOrder schema.Layout

	// lo/hi interleaved, len 2*dimNum
	bounds []T

	// nil when the array has no regular tile grid
	tileExtents []T

	// derived, regular grids only
	cellNumPerTile uint64
	tilesPerDim    []uint64
	tileOffsetsRow []uint64
	tileOffsetsCol []uint64
	cellOffsetsRow []uint64
	cellOffsetsCol []uint64

	// bits per axis for Hilbert cell ids, 0 unless the cell order is Hilbert
	hilbertBits int
}

// Scratch holds reusable intermediate buffers for repeated comparison
// calls, so that a tight merge loop does not allocate per cell. One Scratch
// must not be shared between goroutines.
type Scratch[T schema.Scalar] struct {
	axesA []uint64
	axesB []uint64
}

func (d *Domain[T]) NewScratch() *Scratch[T] {
	return &Scratch[T]{
		axesA: make([]uint64, d.dimNum),
		axesB: make([]uint64, d.dimNum),
	}
}

func NewDomain[T schema.Scalar](s *schema.ArraySchema[T]) (*Domain[T], error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	d := &Domain[T]{
		dimNum:    s.DimNum(),
		cellOrder: s.CellOrder,
		tileOrder: s.TileOrder,
		bounds:    make([]T, 2*s.DimNum()),
	}
	for i := range s.Dimensions {
		d.bounds[2*i] = s.Dimensions[i].Lo
		d.bounds[2*i+1] = s.Dimensions[i].Hi
	}

	if s.HasRegularTiles() {
		d.tileExtents = make([]T, d.dimNum)
		for i := range s.Dimensions {
			d.tileExtents[i] = *s.Dimensions[i].TileExtent
		}

		d.cellNumPerTile = 1
		d.tilesPerDim = make([]uint64, d.dimNum)
		for i := 0; i < d.dimNum; i++ {
			d.cellNumPerTile *= uint64(d.tileExtents[i])
			d.tilesPerDim[i] = tilesIn(d.span(i), d.tileExtents[i])
		}

		d.tileOffsetsRow, d.tileOffsetsCol = strides(d.tilesPerDim)

		extentCells := make([]uint64, d.dimNum)
		for i := 0; i < d.dimNum; i++ {
			extentCells[i] = uint64(d.tileExtents[i])
		}
		d.cellOffsetsRow, d.cellOffsetsCol = strides(extentCells)
	}

	if s.CellOrder == schema.LayoutHilbert {
		bits, err := hilbertBitsFor(d)
		if err != nil {
			return nil, err
		}
		d.hilbertBits = bits
	}

	return d, nil
}

func (d *Domain[T]) DimNum() int              { return d.dimNum }
func (d *Domain[T]) CellOrder() schema.Layout { return d.cellOrder }
func (d *Domain[T]) TileOrder() schema.Layout { return d.tileOrder }

func (d *Domain[T]) HasRegularTiles() bool {
	return d.tileExtents != nil
}

// Bounds returns the whole-domain rectangle as a fresh slice.
func (d *Domain[T]) Bounds() []T {
	out := make([]T, len(d.bounds))
	copy(out, d.bounds)
	return out
}

// CellNumPerTile is the number of cells of one regular tile. Zero for
// domains without a regular tile grid.
func (d *Domain[T]) CellNumPerTile() uint64 {
	return d.cellNumPerTile
}

// TileNum returns the number of regular tiles of the whole domain.
func (d *Domain[T]) TileNum() (uint64, error) {
	if !d.HasRegularTiles() {
		return 0, errors.Wrap(ErrNoRegularTiles, "tile num")
	}
	num := uint64(1)
	for i := 0; i < d.dimNum; i++ {
		num *= d.tilesPerDim[i]
	}
	return num, nil
}

// TileNumIn returns the number of regular tiles intersecting window.
func (d *Domain[T]) TileNumIn(window []T) (uint64, error) {
	if !d.HasRegularTiles() {
		return 0, errors.Wrap(ErrNoRegularTiles, "tile num")
	}
	if err := d.checkRect(window); err != nil {
		return 0, err
	}
	num := uint64(1)
	for i := 0; i < d.dimNum; i++ {
		start := d.tileCoord(i, window[2*i])
		end := d.tileCoord(i, window[2*i+1])
		num *= end - start + 1
	}
	return num, nil
}

// ExpandDomain rounds each dimension of rect outward to the nearest
// tile-aligned boundary, in place. A no-op for domains without a regular
// tile grid.
func (d *Domain[T]) ExpandDomain(rect []T) error {
	if err := d.checkRect(rect); err != nil {
		return err
	}
	if !d.HasRegularTiles() {
		return nil
	}
	for i := 0; i < d.dimNum; i++ {
		lo := d.bounds[2*i]
		extent := d.tileExtents[i]
		rect[2*i] = T(d.tileCoord(i, rect[2*i]))*extent + lo
		rect[2*i+1] = T(d.tileCoord(i, rect[2*i+1])+1)*extent - 1 + lo
	}
	return nil
}

// TileSubarray writes the rectangle covered by the tile at tileCoords into
// out (len 2*dim).
func (d *Domain[T]) TileSubarray(tileCoords []uint64, out []T) error {
	if !d.HasRegularTiles() {
		return errors.Wrap(ErrNoRegularTiles, "tile subarray")
	}
	if len(tileCoords) != d.dimNum || len(out) != 2*d.dimNum {
		return ErrCoordsArity
	}
	for i := 0; i < d.dimNum; i++ {
		lo := d.bounds[2*i]
		extent := d.tileExtents[i]
		out[2*i] = T(tileCoords[i])*extent + lo
		out[2*i+1] = T(tileCoords[i]+1)*extent - 1 + lo
	}
	return nil
}

// SubarrayTileDomain writes the tile-coordinate rectangle of the tiles
// intersecting window into out (len 2*dim), clamped to the domain's tile
// grid.
func (d *Domain[T]) SubarrayTileDomain(window []T, out []uint64) error {
	if !d.HasRegularTiles() {
		return errors.Wrap(ErrNoRegularTiles, "subarray tile domain")
	}
	if err := d.checkRect(window); err != nil {
		return err
	}
	if len(out) != 2*d.dimNum {
		return ErrCoordsArity
	}
	for i := 0; i < d.dimNum; i++ {
		lo := d.tileCoord(i, window[2*i])
		hi := d.tileCoord(i, window[2*i+1])
		if max := d.tilesPerDim[i] - 1; hi > max {
			hi = max
		}
		out[2*i] = lo
		out[2*i+1] = hi
	}
	return nil
}

func (d *Domain[T]) checkCoords(coords []T) error {
	if len(coords) != d.dimNum {
		return errors.Wrapf(ErrCoordsArity, "got %d coordinates, domain has %d dimensions",
			len(coords), d.dimNum)
	}
	return nil
}

func (d *Domain[T]) checkRect(rect []T) error {
	if len(rect) != 2*d.dimNum {
		return errors.Wrapf(ErrCoordsArity, "got rectangle of %d bounds, expected %d",
			len(rect), 2*d.dimNum)
	}
	return nil
}

func (d *Domain[T]) span(i int) T {
	return d.bounds[2*i+1] - d.bounds[2*i] + 1
}

// tileCoord floor-divides the i-th coordinate by its tile extent. Assumes a
// regular grid and coordinates within the domain.
func (d *Domain[T]) tileCoord(i int, c T) uint64 {
	return uint64((c - d.bounds[2*i]) / d.tileExtents[i])
}

// intraTileOffset is the i-th coordinate's offset inside its own tile.
func (d *Domain[T]) intraTileOffset(i int, c T) uint64 {
	norm := c - d.bounds[2*i]
	extent := d.tileExtents[i]
	return uint64(norm - T(uint64(norm/extent))*extent)
}

// tilesIn counts the tiles covering a span, rounding the last partial tile
// up.
func tilesIn[T schema.Scalar](span, extent T) uint64 {
	n := uint64(span / extent)
	if T(n)*extent < span {
		n++
	}
	return n
}

// strides builds the row-major and column-major linearization stride tables
// for a lattice with the given per-dimension cardinalities.
func strides(card []uint64) (row, col []uint64) {
	n := len(card)
	row = make([]uint64, n)
	col = make([]uint64, n)

	col[0] = 1
	for i := 1; i < n; i++ {
		col[i] = col[i-1] * card[i-1]
	}

	row[n-1] = 1
	for i := n - 2; i >= 0; i-- {
		row[i] = row[i+1] * card[i+1]
	}

	return row, col
}
