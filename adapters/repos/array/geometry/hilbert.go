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

// hilbertBitsFor picks the per-axis bit width of the Hilbert curve: enough
// bits for the longest per-dimension range the curve has to cover. On a
// regular grid ids are local to one tile, so the tile extent bounds the
// range; otherwise the whole domain span does.
func hilbertBitsFor[T schema.Scalar](d *Domain[T]) (int, error) {
	var maxRange uint64
	for i := 0; i < d.dimNum; i++ {
		var r uint64
		if d.HasRegularTiles() {
			r = uint64(d.tileExtents[i])
		} else {
			r = uint64(d.span(i))
		}
		if r > maxRange {
			maxRange = r
		}
	}

	bits := 1
	for uint64(1)<<bits < maxRange {
		bits++
	}

	if bits*d.dimNum > 64 {
		return 0, errors.Wrapf(schema.ErrInvalidSchema,
			"hilbert order needs %d bits per axis over %d dimensions, exceeds 64",
			bits, d.dimNum)
	}
	return bits, nil
}

// hilbertCellID maps coords onto its Hilbert index. On regular grids the
// index is local to the coordinate's own tile, mirroring how in-tile cell
// positions work for the other layouts. axes is a caller-owned buffer of
// len dimNum.
func (d *Domain[T]) hilbertCellID(coords []T, axes []uint64) uint64 {
	for i := 0; i < d.dimNum; i++ {
		if d.HasRegularTiles() {
			axes[i] = d.intraTileOffset(i, coords[i])
		} else {
			axes[i] = uint64(coords[i] - d.bounds[2*i])
		}
	}
	return hilbertIndex(axes, d.hilbertBits)
}

// hilbertIndex computes the Hilbert-curve index of a lattice point. Each
// axis value must be < 1<<bits and bits*len(axes) must not exceed 64. The
// axes buffer is clobbered. This is Skilling's transposed-index transform
// followed by bit interleaving.
func hilbertIndex(axes []uint64, bits int) uint64 {
	n := len(axes)

	// inverse undo excess work
	for q := uint64(1) << (bits - 1); q > 1; q >>= 1 {
		p := q - 1
		for i := 0; i < n; i++ {
			if axes[i]&q != 0 {
				axes[0] ^= p
			} else {
				t := (axes[0] ^ axes[i]) & p
				axes[0] ^= t
				axes[i] ^= t
			}
		}
	}

	// Gray encode
	for i := 1; i < n; i++ {
		axes[i] ^= axes[i-1]
	}
	var t uint64
	for q := uint64(1) << (bits - 1); q > 1; q >>= 1 {
		if axes[n-1]&q != 0 {
			t ^= q - 1
		}
	}
	for i := 0; i < n; i++ {
		axes[i] ^= t
	}

	// interleave the transposed form, axis 0 carrying the most significant
	// bit of every round
	var h uint64
	for b := bits - 1; b >= 0; b-- {
		for i := 0; i < n; i++ {
			h = h<<1 | (axes[i]>>b)&1
		}
	}
	return h
}
