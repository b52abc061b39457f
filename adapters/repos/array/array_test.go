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

package array

import (
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weaviate/tilestore/adapters/repos/array/consolidation"
	"github.com/weaviate/tilestore/adapters/repos/array/fragtree"
	"github.com/weaviate/tilestore/adapters/repos/array/storage"
	"github.com/weaviate/tilestore/entities/schema"
)

func extent[T schema.Scalar](v T) *T {
	return &v
}

func tempSchema() *schema.ArraySchema[int64] {
	return &schema.ArraySchema[int64]{
		ArrayName: "temps",
		Dimensions: []schema.Dimension[int64]{
			{Name: "rows", Lo: 0, Hi: 9, TileExtent: extent[int64](5)},
			{Name: "cols", Lo: 0, Hi: 9, TileExtent: extent[int64](5)},
		},
		Attributes:        []schema.Attribute{{Name: "temp", Type: schema.DatatypeFloat32}},
		CellOrder:         schema.LayoutRowMajor,
		TileOrder:         schema.LayoutRowMajor,
		ConsolidationStep: 2,
	}
}

func commitOne(t *testing.T, a *consolidation.Array[int64], row, col int64, temp float32) {
	t.Helper()

	w, _, err := a.CreateFragment()
	require.NoError(t, err)

	tileID, err := a.Domain().TileID([]int64{row, col})
	require.NoError(t, err)
	require.NoError(t, w.BeginTile(tileID))

	val := binary.LittleEndian.AppendUint32(nil, math.Float32bits(temp))
	require.NoError(t, w.Append(&consolidation.Cell[int64]{
		Coords: []int64{row, col},
		Values: [][]byte{val},
	}))
	require.NoError(t, w.Commit())
	require.NoError(t, a.CommitFragment(context.Background()))
}

func TestArrayLifecycle(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "temps")
	logger, _ := test.NewNullLogger()

	require.NoError(t, Create(dir, tempSchema()))

	t.Run("create refuses to overwrite", func(t *testing.T) {
		err := Create(dir, tempSchema())
		assert.ErrorIs(t, err, ErrArrayExists)
	})

	a, err := Open[int64](dir, WithLogger(logger))
	require.NoError(t, err)

	commitOne(t, a, 0, 0, 1.5)
	commitOne(t, a, 1, 1, 2.5)
	commitOne(t, a, 6, 6, 3.5)
	commitOne(t, a, 6, 6, 4.5) // overwrites the previous write

	assert.Equal(t, []string{"temps_0_3"}, a.FragmentNames())
	assert.Equal(t, uint64(4), a.Tree().NextSeq())

	t.Run("only the merged fragment remains on disk", func(t *testing.T) {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)

		var dirs []string
		for _, e := range entries {
			if e.IsDir() {
				dirs = append(dirs, e.Name())
			}
		}
		assert.Equal(t, []string{"temps_0_3"}, dirs)
	})

	t.Run("merged fragment holds the newest versions", func(t *testing.T) {
		store := storage.New(dir, tempSchema(), logger)
		src, err := store.OpenFragment("temps_0_3")
		require.NoError(t, err)
		defer src.Close()

		type row struct {
			coords []int64
			temp   float32
		}
		var got []row
		for cell, err := src.First(); cell != nil; cell, err = src.Next() {
			require.NoError(t, err)
			got = append(got, row{
				coords: append([]int64(nil), cell.Coords...),
				temp:   math.Float32frombits(binary.LittleEndian.Uint32(cell.Values[0])),
			})
		}

		assert.Equal(t, []row{
			{[]int64{0, 0}, 1.5},
			{[]int64{1, 1}, 2.5},
			{[]int64{6, 6}, 4.5},
		}, got)
	})

	t.Run("reopen restores the tree", func(t *testing.T) {
		reopened, err := Open[int64](dir, WithLogger(logger))
		require.NoError(t, err)
		assert.Equal(t, uint64(4), reopened.Tree().NextSeq())
		assert.Equal(t, []fragtree.Level{{Level: 2, Count: 1}}, reopened.Tree().Levels())
	})
}

func TestOpenErrors(t *testing.T) {
	t.Run("missing array", func(t *testing.T) {
		_, err := Open[int64](filepath.Join(t.TempDir(), "nope"))
		assert.ErrorIs(t, err, ErrArrayNotFound)
	})

	t.Run("datatype mismatch", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "temps")
		require.NoError(t, Create(dir, tempSchema()))

		_, err := Open[float32](dir)
		assert.ErrorIs(t, err, schema.ErrDatatypeMismatch)
	})

	t.Run("invalid schema rejected at create", func(t *testing.T) {
		s := tempSchema()
		s.Attributes = nil
		err := Create(filepath.Join(t.TempDir(), "bad"), s)
		assert.ErrorIs(t, err, schema.ErrInvalidSchema)
	})
}

func TestOpenAny(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "temps")
	logger, _ := test.NewNullLogger()
	require.NoError(t, Create(dir, tempSchema()))

	a, err := Open[int64](dir, WithLogger(logger))
	require.NoError(t, err)
	commitOne(t, a, 2, 3, 9.5)

	h, err := OpenAny(dir, WithLogger(logger))
	require.NoError(t, err)

	assert.Equal(t, "temps", h.ArrayName())
	assert.Equal(t, schema.DatatypeInt64, h.Datatype())
	assert.Equal(t, []string{"rows", "cols"}, h.DimensionNames())
	assert.Equal(t, []string{"temp"}, h.AttributeNames())
	assert.Equal(t, []string{"temps_0_0"}, h.FragmentNames())
	assert.Equal(t, "temps_1_1", h.NextFragmentName())
	assert.Equal(t, uint64(1), h.Tree().NextSeq())
}
