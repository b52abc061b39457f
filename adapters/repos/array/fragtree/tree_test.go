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

package fragtree

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("valid step", func(t *testing.T) {
		tree, err := New(2)
		require.NoError(t, err)
		assert.Equal(t, 2, tree.Step())
		assert.Equal(t, uint64(0), tree.NextSeq())
		assert.Empty(t, tree.Levels())
	})

	t.Run("step too small", func(t *testing.T) {
		_, err := New(1)
		assert.ErrorIs(t, err, ErrConsolidationStep)

		_, err = New(0)
		assert.ErrorIs(t, err, ErrConsolidationStep)
	})
}

func TestAddCascade(t *testing.T) {
	// with step 2 the fourth fragment triggers two cascading merges and
	// leaves a single fragment covering the entire history
	tree, err := New(2)
	require.NoError(t, err)

	assert.Empty(t, tree.Add()) // seq 0
	assert.Equal(t, []Level{{Level: 0, Count: 1}}, tree.Levels())

	jobs := tree.Add() // seq 1, merges 0+1
	require.Len(t, jobs, 1)
	assert.Equal(t, MergeJob{
		Level:  0,
		Inputs: []Range{{0, 0}, {1, 1}},
		Result: Range{0, 1},
	}, jobs[0])
	assert.Equal(t, []Level{{Level: 1, Count: 1}}, tree.Levels())

	assert.Empty(t, tree.Add()) // seq 2
	assert.Equal(t, []Level{{Level: 1, Count: 1}, {Level: 0, Count: 1}}, tree.Levels())

	jobs = tree.Add() // seq 3, cascades to the root
	require.Len(t, jobs, 2)
	assert.Equal(t, MergeJob{
		Level:  0,
		Inputs: []Range{{2, 2}, {3, 3}},
		Result: Range{2, 3},
	}, jobs[0])
	assert.Equal(t, MergeJob{
		Level:  1,
		Inputs: []Range{{0, 1}, {2, 3}},
		Result: Range{0, 3},
	}, jobs[1])

	assert.Equal(t, []Level{{Level: 2, Count: 1}}, tree.Levels())
	assert.Equal(t, uint64(4), tree.NextSeq())
}

func TestAddStepThree(t *testing.T) {
	tree, err := New(3)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		assert.Empty(t, tree.Add())
	}

	jobs := tree.Add()
	require.Len(t, jobs, 1)
	assert.Equal(t, MergeJob{
		Level:  0,
		Inputs: []Range{{0, 0}, {1, 1}, {2, 2}},
		Result: Range{0, 2},
	}, jobs[0])
	assert.Equal(t, []Level{{Level: 1, Count: 1}}, tree.Levels())
}

func TestAccountingInvariant(t *testing.T) {
	// the levels always account for every sequence number added so far
	for _, step := range []int{2, 3, 4} {
		tree, err := New(step)
		require.NoError(t, err)

		for i := 0; i < 200; i++ {
			tree.Add()

			total := uint64(0)
			for _, level := range tree.Levels() {
				assert.Less(t, level.Count, uint32(step))
				assert.NotZero(t, level.Count)
				total += uint64(level.Count) * pow(uint64(step), level.Level)
			}
			require.Equal(t, tree.NextSeq(), total,
				"step %d after %d adds", step, i+1)
		}
	}
}

func TestSuffixes(t *testing.T) {
	tree, err := New(2)
	require.NoError(t, err)

	assert.Empty(t, tree.Suffixes())

	for i := 0; i < 7; i++ {
		tree.Add()
	}
	// 7 = 4 + 2 + 1
	assert.Equal(t, []Range{{0, 3}, {4, 5}, {6, 6}}, tree.Suffixes())

	tree.Add()
	assert.Equal(t, []Range{{0, 7}}, tree.Suffixes())
}

func TestMergeJobResultRanges(t *testing.T) {
	// every job's result covers exactly its inputs, the inputs are
	// contiguous and oldest first, and the final cascade ends at the
	// just-added sequence number
	tree, err := New(3)
	require.NoError(t, err)

	for i := 0; i < 500; i++ {
		jobs := tree.Add()
		for _, job := range jobs {
			require.NotEmpty(t, job.Inputs)
			assert.Equal(t, job.Inputs[0].Start, job.Result.Start)
			assert.Equal(t, job.Inputs[len(job.Inputs)-1].End, job.Result.End)
			for j := 1; j < len(job.Inputs); j++ {
				assert.Equal(t, job.Inputs[j-1].End+1, job.Inputs[j].Start)
				assert.Equal(t, job.Inputs[j-1].Size(), job.Inputs[j].Size())
			}
		}
		if len(jobs) > 0 {
			assert.Equal(t, uint64(i), jobs[len(jobs)-1].Result.End)
		}
	}
}

func TestClone(t *testing.T) {
	tree, err := New(2)
	require.NoError(t, err)
	tree.Add()

	clone := tree.Clone()
	clone.Add()

	assert.Equal(t, uint64(1), tree.NextSeq())
	assert.Equal(t, uint64(2), clone.NextSeq())
	assert.Equal(t, []Level{{Level: 0, Count: 1}}, tree.Levels())
	assert.Equal(t, []Level{{Level: 1, Count: 1}}, clone.Levels())
}

func TestRange(t *testing.T) {
	assert.Equal(t, uint64(4), Range{Start: 2, End: 5}.Size())
	assert.True(t, Range{Start: 0, End: 5}.IsFull())
	assert.False(t, Range{Start: 2, End: 5}.IsFull())
}

func TestSerializeRoundTrip(t *testing.T) {
	tree, err := New(3)
	require.NoError(t, err)
	for i := 0; i < 17; i++ {
		tree.Add()
	}

	data, err := tree.MarshalBinary()
	require.NoError(t, err)

	restored, err := New(3)
	require.NoError(t, err)
	require.NoError(t, restored.UnmarshalBinary(data))

	assert.Equal(t, tree.Levels(), restored.Levels())
	assert.Equal(t, tree.NextSeq(), restored.NextSeq())
}

func TestUnmarshalCorrupt(t *testing.T) {
	t.Run("truncated pair", func(t *testing.T) {
		tree, err := New(2)
		require.NoError(t, err)
		assert.ErrorIs(t, tree.UnmarshalBinary(make([]byte, 7)), ErrCorrupt)
	})

	t.Run("count out of range", func(t *testing.T) {
		tree, err := New(2)
		require.NoError(t, err)
		// level 0, count 2 is impossible with step 2
		data := []byte{0, 0, 0, 0, 2, 0, 0, 0}
		assert.ErrorIs(t, tree.UnmarshalBinary(data), ErrCorrupt)
	})

	t.Run("zero count", func(t *testing.T) {
		tree, err := New(3)
		require.NoError(t, err)
		data := []byte{1, 0, 0, 0, 0, 0, 0, 0}
		assert.ErrorIs(t, tree.UnmarshalBinary(data), ErrCorrupt)
	})

	t.Run("levels not descending", func(t *testing.T) {
		tree, err := New(3)
		require.NoError(t, err)
		data := []byte{
			0, 0, 0, 0, 1, 0, 0, 0,
			1, 0, 0, 0, 1, 0, 0, 0,
		}
		assert.ErrorIs(t, tree.UnmarshalBinary(data), ErrCorrupt)
	})
}

func TestLoadFlush(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	t.Run("missing file means empty tree", func(t *testing.T) {
		tree, err := Load(path, 2)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), tree.NextSeq())
	})

	t.Run("flush and reload", func(t *testing.T) {
		tree, err := New(2)
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			tree.Add()
		}
		require.NoError(t, tree.Flush(path))

		restored, err := Load(path, 2)
		require.NoError(t, err)
		assert.Equal(t, tree.Levels(), restored.Levels())
		assert.Equal(t, uint64(5), restored.NextSeq())
	})

	t.Run("empty tree flushes to empty file", func(t *testing.T) {
		tree, err := New(2)
		require.NoError(t, err)
		require.NoError(t, tree.Flush(path))

		restored, err := Load(path, 2)
		require.NoError(t, err)
		assert.Empty(t, restored.Levels())
	})
}
