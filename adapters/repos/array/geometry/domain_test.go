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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/tilestore/entities/schema"
)

func extent[T schema.Scalar](v T) *T {
	return &v
}

func denseSchema(cellOrder, tileOrder schema.Layout) *schema.ArraySchema[int64] {
	return &schema.ArraySchema[int64]{
		ArrayName: "dense",
		Dimensions: []schema.Dimension[int64]{
			{Name: "d0", Lo: 0, Hi: 9, TileExtent: extent[int64](5)},
			{Name: "d1", Lo: 0, Hi: 9, TileExtent: extent[int64](5)},
		},
		Attributes:        []schema.Attribute{{Name: "a", Type: schema.DatatypeInt64}},
		CellOrder:         cellOrder,
		TileOrder:         tileOrder,
		ConsolidationStep: 2,
	}
}

func gridlessSchema() *schema.ArraySchema[int64] {
	s := denseSchema(schema.LayoutRowMajor, schema.LayoutRowMajor)
	s.Dimensions[0].TileExtent = nil
	s.Dimensions[1].TileExtent = nil
	s.Capacity = 4
	return s
}

func mustDomain[T schema.Scalar](t *testing.T, s *schema.ArraySchema[T]) *Domain[T] {
	t.Helper()
	d, err := NewDomain(s)
	require.Nil(t, err)
	return d
}

func TestTileID(t *testing.T) {
	t.Run("row-major tile order", func(t *testing.T) {
		d := mustDomain(t, denseSchema(schema.LayoutRowMajor, schema.LayoutRowMajor))

		// (7,3) lives in tile coordinates (1,0): 1*2+0 = 2
		id, err := d.TileID([]int64{7, 3})
		require.Nil(t, err)
		assert.Equal(t, uint64(2), id)

		id, err = d.TileID([]int64{0, 0})
		require.Nil(t, err)
		assert.Equal(t, uint64(0), id)

		id, err = d.TileID([]int64{9, 9})
		require.Nil(t, err)
		assert.Equal(t, uint64(3), id)
	})

	t.Run("col-major tile order", func(t *testing.T) {
		d := mustDomain(t, denseSchema(schema.LayoutRowMajor, schema.LayoutColMajor))

		// same tile coordinates (1,0), col-major linearization: 1+0*2 = 1
		id, err := d.TileID([]int64{7, 3})
		require.Nil(t, err)
		assert.Equal(t, uint64(1), id)
	})

	t.Run("non-zero domain origin", func(t *testing.T) {
		s := denseSchema(schema.LayoutRowMajor, schema.LayoutRowMajor)
		s.Dimensions[0].Lo, s.Dimensions[0].Hi = 100, 109
		s.Dimensions[1].Lo, s.Dimensions[1].Hi = -10, -1
		d := mustDomain(t, s)

		id, err := d.TileID([]int64{107, -7})
		require.Nil(t, err)
		assert.Equal(t, uint64(2), id)
	})

	t.Run("invariant under tile-aligned sub-windows", func(t *testing.T) {
		// restricting the domain along the slowest dimension of the tile
		// order keeps the stride table, so ids must not change
		whole := mustDomain(t, denseSchema(schema.LayoutRowMajor, schema.LayoutRowMajor))

		sub := denseSchema(schema.LayoutRowMajor, schema.LayoutRowMajor)
		sub.Dimensions[0].Hi = 4
		subDomain := mustDomain(t, sub)

		for c0 := int64(0); c0 <= 4; c0++ {
			for c1 := int64(0); c1 <= 9; c1++ {
				idWhole, err := whole.TileID([]int64{c0, c1})
				require.Nil(t, err)
				idSub, err := subDomain.TileID([]int64{c0, c1})
				require.Nil(t, err)
				assert.Equal(t, idWhole, idSub)
			}
		}
	})

	t.Run("no regular tile grid", func(t *testing.T) {
		d := mustDomain(t, gridlessSchema())
		_, err := d.TileID([]int64{1, 1})
		assert.ErrorIs(t, err, ErrNoRegularTiles)
	})

	t.Run("arity mismatch", func(t *testing.T) {
		d := mustDomain(t, denseSchema(schema.LayoutRowMajor, schema.LayoutRowMajor))
		_, err := d.TileID([]int64{1})
		assert.ErrorIs(t, err, ErrCoordsArity)
	})
}

func TestCellPos(t *testing.T) {
	t.Run("row-major cell order", func(t *testing.T) {
		d := mustDomain(t, denseSchema(schema.LayoutRowMajor, schema.LayoutRowMajor))

		// (7,3) sits at in-tile offsets (2,3), row-major strides (5,1)
		pos, err := d.CellPos([]int64{7, 3})
		require.Nil(t, err)
		assert.Equal(t, uint64(13), pos)

		pos, err = d.CellPos([]int64{5, 0})
		require.Nil(t, err)
		assert.Equal(t, uint64(0), pos)
	})

	t.Run("col-major cell order", func(t *testing.T) {
		d := mustDomain(t, denseSchema(schema.LayoutColMajor, schema.LayoutRowMajor))

		// in-tile offsets (2,3), col-major strides (1,5)
		pos, err := d.CellPos([]int64{7, 3})
		require.Nil(t, err)
		assert.Equal(t, uint64(17), pos)
	})

	t.Run("hilbert cell order has no dense positions", func(t *testing.T) {
		d := mustDomain(t, denseSchema(schema.LayoutHilbert, schema.LayoutRowMajor))
		_, err := d.CellPos([]int64{7, 3})
		assert.ErrorIs(t, err, ErrUnsupportedLayout)
	})
}

func TestCellOrderCmp(t *testing.T) {
	t.Run("row-major", func(t *testing.T) {
		d := mustDomain(t, denseSchema(schema.LayoutRowMajor, schema.LayoutRowMajor))

		cmp, err := d.CellOrderCmp([]int64{1, 2}, []int64{1, 3})
		require.Nil(t, err)
		assert.Equal(t, -1, cmp)

		cmp, err = d.CellOrderCmp([]int64{2, 0}, []int64{1, 9})
		require.Nil(t, err)
		assert.Equal(t, 1, cmp)

		cmp, err = d.CellOrderCmp([]int64{4, 4}, []int64{4, 4})
		require.Nil(t, err)
		assert.Equal(t, 0, cmp)
	})

	t.Run("col-major compares the last dimension first", func(t *testing.T) {
		d := mustDomain(t, denseSchema(schema.LayoutColMajor, schema.LayoutRowMajor))

		cmp, err := d.CellOrderCmp([]int64{9, 0}, []int64{0, 1})
		require.Nil(t, err)
		assert.Equal(t, -1, cmp)
	})
}

func TestTileCellOrderCmp(t *testing.T) {
	t.Run("tile order dominates cell order", func(t *testing.T) {
		d := mustDomain(t, denseSchema(schema.LayoutRowMajor, schema.LayoutRowMajor))
		scratch := d.NewScratch()

		// (0,9) is in tile 1, (7,0) in tile 2: tile order wins even though
		// (0,9) precedes (7,0) in plain row-major cell order as well
		cmp, err := d.TileCellOrderCmp([]int64{0, 9}, []int64{7, 0}, scratch)
		require.Nil(t, err)
		assert.Equal(t, -1, cmp)

		// (4,0) is in tile 0, (0,5) in tile 1: cell order alone would say
		// the opposite
		cmp, err = d.TileCellOrderCmp([]int64{4, 0}, []int64{0, 5}, scratch)
		require.Nil(t, err)
		assert.Equal(t, -1, cmp)

		cmp, err = d.TileCellOrderCmp([]int64{0, 5}, []int64{4, 0}, scratch)
		require.Nil(t, err)
		assert.Equal(t, 1, cmp)
	})

	t.Run("same tile falls back to cell order", func(t *testing.T) {
		d := mustDomain(t, denseSchema(schema.LayoutRowMajor, schema.LayoutRowMajor))
		scratch := d.NewScratch()

		cmp, err := d.TileCellOrderCmp([]int64{1, 2}, []int64{1, 3}, scratch)
		require.Nil(t, err)
		assert.Equal(t, -1, cmp)
	})

	t.Run("gridless degenerates to global cell order", func(t *testing.T) {
		d := mustDomain(t, gridlessSchema())
		scratch := d.NewScratch()

		cmp, err := d.TileCellOrderCmp([]int64{0, 9}, []int64{7, 0}, scratch)
		require.Nil(t, err)
		assert.Equal(t, -1, cmp)
	})
}

func TestExpandDomain(t *testing.T) {
	t.Run("rounds outward to tile boundaries", func(t *testing.T) {
		d := mustDomain(t, denseSchema(schema.LayoutRowMajor, schema.LayoutRowMajor))

		rect := []int64{3, 6, 3, 6}
		require.Nil(t, d.ExpandDomain(rect))
		assert.Equal(t, []int64{0, 9, 0, 9}, rect)
	})

	t.Run("aligned rectangle unchanged", func(t *testing.T) {
		d := mustDomain(t, denseSchema(schema.LayoutRowMajor, schema.LayoutRowMajor))

		rect := []int64{5, 9, 0, 4}
		require.Nil(t, d.ExpandDomain(rect))
		assert.Equal(t, []int64{5, 9, 0, 4}, rect)
	})

	t.Run("no-op without a tile grid", func(t *testing.T) {
		d := mustDomain(t, gridlessSchema())

		rect := []int64{3, 6, 3, 6}
		require.Nil(t, d.ExpandDomain(rect))
		assert.Equal(t, []int64{3, 6, 3, 6}, rect)
	})
}

func TestTileNum(t *testing.T) {
	d := mustDomain(t, denseSchema(schema.LayoutRowMajor, schema.LayoutRowMajor))

	num, err := d.TileNum()
	require.Nil(t, err)
	assert.Equal(t, uint64(4), num)

	num, err = d.TileNumIn([]int64{3, 6, 3, 6})
	require.Nil(t, err)
	assert.Equal(t, uint64(4), num)

	num, err = d.TileNumIn([]int64{0, 4, 0, 4})
	require.Nil(t, err)
	assert.Equal(t, uint64(1), num)

	gridless := mustDomain(t, gridlessSchema())
	_, err = gridless.TileNum()
	assert.ErrorIs(t, err, ErrNoRegularTiles)
}

func TestTileSubarray(t *testing.T) {
	d := mustDomain(t, denseSchema(schema.LayoutRowMajor, schema.LayoutRowMajor))

	out := make([]int64, 4)
	require.Nil(t, d.TileSubarray([]uint64{1, 0}, out))
	assert.Equal(t, []int64{5, 9, 0, 4}, out)
}

func TestSubarrayTileDomain(t *testing.T) {
	d := mustDomain(t, denseSchema(schema.LayoutRowMajor, schema.LayoutRowMajor))

	out := make([]uint64, 4)
	require.Nil(t, d.SubarrayTileDomain([]int64{3, 6, 0, 4}, out))
	assert.Equal(t, []uint64{0, 1, 0, 0}, out)
}

func TestCellNumPerTile(t *testing.T) {
	d := mustDomain(t, denseSchema(schema.LayoutRowMajor, schema.LayoutRowMajor))
	assert.Equal(t, uint64(25), d.CellNumPerTile())

	gridless := mustDomain(t, gridlessSchema())
	assert.Equal(t, uint64(0), gridless.CellNumPerTile())
}
