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

package consolidation

import (
	"github.com/pkg/errors"

	"github.com/weaviate/tilestore/adapters/repos/array/fragtree"
	"github.com/weaviate/tilestore/entities/schema"
)

// memStore is an in-memory Store used to exercise the merge logic without
// touching disk.
type memStore[T schema.Scalar] struct {
	treeData  []byte
	fragments map[string][]memTile[T]

	// failCreate makes CreateFragment fail for the named fragments
	failCreate map[string]error

	// failFlush makes the next FlushTree fail, then clears itself
	failFlush error
}

type memTile[T schema.Scalar] struct {
	tileID uint64
	cells  []Cell[T]
}

func newMemStore[T schema.Scalar]() *memStore[T] {
	return &memStore[T]{
		fragments:  map[string][]memTile[T]{},
		failCreate: map[string]error{},
	}
}

func (s *memStore[T]) LoadTree(step int) (*fragtree.Tree, error) {
	t, err := fragtree.New(step)
	if err != nil {
		return nil, err
	}
	if s.treeData != nil {
		if err := t.UnmarshalBinary(s.treeData); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (s *memStore[T]) FlushTree(t *fragtree.Tree) error {
	if s.failFlush != nil {
		err := s.failFlush
		s.failFlush = nil
		return err
	}

	data, err := t.MarshalBinary()
	if err != nil {
		return err
	}
	s.treeData = data
	return nil
}

func (s *memStore[T]) OpenFragment(name string) (FragmentSource[T], error) {
	tiles, ok := s.fragments[name]
	if !ok {
		return nil, errors.Wrap(ErrFragmentNotFound, name)
	}
	return &memSource[T]{tiles: tiles}, nil
}

func (s *memStore[T]) CreateFragment(name string) (FragmentWriter[T], error) {
	if err, ok := s.failCreate[name]; ok {
		return nil, err
	}
	if _, ok := s.fragments[name]; ok {
		return nil, errors.Wrap(ErrFragmentExists, name)
	}
	return &memWriter[T]{store: s, name: name}, nil
}

func (s *memStore[T]) DeleteFragment(name string) error {
	if _, ok := s.fragments[name]; !ok {
		return errors.Wrap(ErrFragmentNotFound, name)
	}
	delete(s.fragments, name)
	return nil
}

type memSource[T schema.Scalar] struct {
	tiles []memTile[T]
	tile  int
	cell  int
}

func (s *memSource[T]) First() (*Cell[T], error) {
	s.tile, s.cell = 0, 0
	return s.current(), nil
}

func (s *memSource[T]) Next() (*Cell[T], error) {
	s.cell++
	if s.tile < len(s.tiles) && s.cell >= len(s.tiles[s.tile].cells) {
		s.tile++
		s.cell = 0
	}
	return s.current(), nil
}

func (s *memSource[T]) current() *Cell[T] {
	for s.tile < len(s.tiles) && len(s.tiles[s.tile].cells) == 0 {
		s.tile++
		s.cell = 0
	}
	if s.tile >= len(s.tiles) {
		return nil
	}
	return &s.tiles[s.tile].cells[s.cell]
}

func (s *memSource[T]) Close() error {
	return nil
}

type memWriter[T schema.Scalar] struct {
	store *memStore[T]
	name  string
	tiles []memTile[T]
	done  bool
}

func (w *memWriter[T]) BeginTile(tileID uint64) error {
	w.tiles = append(w.tiles, memTile[T]{tileID: tileID})
	return nil
}

func (w *memWriter[T]) Append(cell *Cell[T]) error {
	if len(w.tiles) == 0 {
		return errors.New("append before BeginTile")
	}

	cp := Cell[T]{
		Coords:  append([]T(nil), cell.Coords...),
		Values:  make([][]byte, len(cell.Values)),
		Deleted: cell.Deleted,
	}
	for i, v := range cell.Values {
		cp.Values[i] = append([]byte(nil), v...)
	}

	last := len(w.tiles) - 1
	w.tiles[last].cells = append(w.tiles[last].cells, cp)
	return nil
}

func (w *memWriter[T]) Commit() error {
	if w.done {
		return errors.New("writer already finished")
	}
	w.done = true
	if _, ok := w.store.fragments[w.name]; ok {
		return errors.Wrap(ErrFragmentExists, w.name)
	}
	w.store.fragments[w.name] = w.tiles
	return nil
}

func (w *memWriter[T]) Abort() error {
	w.done = true
	w.tiles = nil
	return nil
}
