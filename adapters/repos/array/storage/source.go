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

package storage

import (
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"

	"github.com/weaviate/tilestore/adapters/repos/array/consolidation"
	"github.com/weaviate/tilestore/entities/schema"
)

// fragmentSource memory-maps the fragment's files and walks them in
// lockstep, one tile header at a time. The attribute files must carry the
// same tile sequence as the coordinates file.
type fragmentSource[T schema.Scalar] struct {
	store *Store[T]
	dir   string

	maps    []mmap.MMap
	data    [][]byte // maps[i] or nil for empty files
	offsets []int

	remaining uint64
	coords    []T
	cell      consolidation.Cell[T]
}

func newFragmentSource[T schema.Scalar](dir string, store *Store[T]) (*fragmentSource[T], error) {
	names := store.fileNames()
	s := &fragmentSource[T]{
		store:   store,
		dir:     dir,
		maps:    make([]mmap.MMap, len(names)),
		data:    make([][]byte, len(names)),
		offsets: make([]int, len(names)),
		coords:  make([]T, len(store.schema.Dimensions)),
		cell: consolidation.Cell[T]{
			Values: make([][]byte, len(store.attrSizes)),
		},
	}

	for i, name := range names {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			s.Close()
			return nil, errors.Wrapf(err, "open fragment file %q", name)
		}

		info, err := f.Stat()
		if err != nil {
			f.Close()
			s.Close()
			return nil, errors.Wrapf(err, "stat fragment file %q", name)
		}
		if info.Size() == 0 {
			f.Close()
			continue
		}

		m, err := mmap.Map(f, mmap.RDONLY, 0)
		// the mapping survives the file handle
		f.Close()
		if err != nil {
			s.Close()
			return nil, errors.Wrapf(err, "mmap fragment file %q", name)
		}
		s.maps[i] = m
		s.data[i] = m
	}

	return s, nil
}

func (s *fragmentSource[T]) First() (*consolidation.Cell[T], error) {
	for i := range s.offsets {
		s.offsets[i] = 0
	}
	s.remaining = 0
	return s.read()
}

func (s *fragmentSource[T]) Next() (*consolidation.Cell[T], error) {
	return s.read()
}

func (s *fragmentSource[T]) read() (*consolidation.Cell[T], error) {
	for s.remaining == 0 {
		if s.offsets[0] >= len(s.data[0]) {
			return nil, nil
		}
		if err := s.readTileHeaders(); err != nil {
			return nil, err
		}
	}

	cellSize := len(s.coords)*s.store.scalarSize + 1
	off := s.offsets[0]
	if len(s.data[0])-off < cellSize {
		return nil, errors.Wrapf(ErrCorruptFragment,
			"%s: truncated coordinates tile", s.dir)
	}
	for d := range s.coords {
		s.coords[d] = decodeScalar[T](s.data[0][off:])
		off += s.store.scalarSize
	}
	s.cell.Deleted = s.data[0][off] == 1
	s.offsets[0] = off + 1

	for i, size := range s.store.attrSizes {
		off := s.offsets[i+1]
		if len(s.data[i+1])-off < size {
			return nil, errors.Wrapf(ErrCorruptFragment,
				"%s: truncated tile of attribute %q", s.dir, s.store.schema.Attributes[i].Name)
		}
		s.cell.Values[i] = s.data[i+1][off : off+size : off+size]
		s.offsets[i+1] = off + size
	}

	s.cell.Coords = s.coords
	s.remaining--
	return &s.cell, nil
}

// readTileHeaders consumes the next tile header from every file and
// verifies they agree on the cell count.
func (s *fragmentSource[T]) readTileHeaders() error {
	for i := range s.data {
		if len(s.data[i])-s.offsets[i] < tileHeaderSize {
			return errors.Wrapf(ErrCorruptFragment, "%s: truncated tile header", s.dir)
		}
		count := binary.LittleEndian.Uint64(s.data[i][s.offsets[i]+8:])
		s.offsets[i] += tileHeaderSize

		if i == 0 {
			s.remaining = count
		} else if count != s.remaining {
			return errors.Wrapf(ErrCorruptFragment,
				"%s: attribute %q tile has %d cells, coordinates have %d",
				s.dir, s.store.schema.Attributes[i-1].Name, count, s.remaining)
		}
	}
	return nil
}

func (s *fragmentSource[T]) Close() error {
	var firstErr error
	for i, m := range s.maps {
		if m == nil {
			continue
		}
		if err := m.Unmap(); err != nil && firstErr == nil {
			firstErr = errors.Wrap(err, "unmap fragment file")
		}
		s.maps[i] = nil
		s.data[i] = nil
	}
	return firstErr
}
