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
	"context"

	"github.com/pkg/errors"

	"github.com/weaviate/tilestore/adapters/repos/array/geometry"
	"github.com/weaviate/tilestore/entities/schema"
)

// compactor streams the cells of the input fragments, oldest first,
// through a k-way merge into a single output fragment. Coordinates
// written by more than one input keep only the newest version, and
// deletion markers are dropped entirely once the output covers the whole
// history of the array.
type compactor[T schema.Scalar] struct {
	domain  *geometry.Domain[T]
	scratch *geometry.Scratch[T]

	// sources are ordered oldest first, so on a coordinate collision the
	// highest index holds the winning version
	sources []FragmentSource[T]
	heads   []*Cell[T]

	w              FragmentWriter[T]
	dropTombstones bool

	// output tiling: regular grids cut a tile whenever the tile id of
	// the written cell changes, gridless arrays cut every capacity cells
	capacity    uint64
	curTileID   uint64
	tileOpen    bool
	cellsInTile uint64

	// prev snapshots the coordinates of the written cell, because
	// advancing a source invalidates the cell it handed out
	prev []T

	cellsWritten      uint64
	tombstonesDropped uint64
}

func newCompactor[T schema.Scalar](domain *geometry.Domain[T], capacity uint64,
	sources []FragmentSource[T], w FragmentWriter[T], dropTombstones bool,
) *compactor[T] {
	return &compactor[T]{
		domain:         domain,
		scratch:        domain.NewScratch(),
		sources:        sources,
		heads:          make([]*Cell[T], len(sources)),
		w:              w,
		dropTombstones: dropTombstones,
		capacity:       capacity,
	}
}

func (c *compactor[T]) do(ctx context.Context) error {
	for i, src := range c.sources {
		head, err := src.First()
		if err != nil {
			return errors.Wrapf(err, "read first cell of input %d", i)
		}
		c.heads[i] = head
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		winner, err := c.selectWinner()
		if err != nil {
			return err
		}
		if winner < 0 {
			return nil
		}

		cell := c.heads[winner]
		c.prev = append(c.prev[:0], cell.Coords...)

		if cell.Deleted && c.dropTombstones {
			c.tombstonesDropped++
		} else if err := c.write(cell); err != nil {
			return err
		}

		if err := c.advance(c.prev); err != nil {
			return err
		}
	}
}

// selectWinner returns the index of the head holding the globally
// smallest coordinates. When several inputs hold the same coordinates the
// newest one wins. Returns -1 once all inputs are exhausted.
func (c *compactor[T]) selectWinner() (int, error) {
	winner := -1
	for i, head := range c.heads {
		if head == nil {
			continue
		}
		if winner < 0 {
			winner = i
			continue
		}
		cmp, err := c.domain.TileCellOrderCmp(head.Coords, c.heads[winner].Coords, c.scratch)
		if err != nil {
			return 0, err
		}
		// <= keeps the newest version on equal coordinates
		if cmp <= 0 {
			winner = i
		}
	}
	return winner, nil
}

// advance moves every input whose head sits at the written coordinates,
// which discards the older versions of a collided cell.
func (c *compactor[T]) advance(written []T) error {
	for i, head := range c.heads {
		if head == nil {
			continue
		}
		cmp, err := c.domain.TileCellOrderCmp(head.Coords, written, c.scratch)
		if err != nil {
			return err
		}
		if cmp != 0 {
			continue
		}
		next, err := c.sources[i].Next()
		if err != nil {
			return errors.Wrapf(err, "read next cell of input %d", i)
		}
		c.heads[i] = next
	}
	return nil
}

func (c *compactor[T]) write(cell *Cell[T]) error {
	if c.domain.HasRegularTiles() {
		tileID, err := c.domain.TileID(cell.Coords)
		if err != nil {
			return err
		}
		if !c.tileOpen || tileID != c.curTileID {
			if err := c.w.BeginTile(tileID); err != nil {
				return err
			}
			c.curTileID = tileID
			c.tileOpen = true
		}
	} else if !c.tileOpen || c.cellsInTile == c.capacity {
		// gridless tiles carry ordinal ids
		var next uint64
		if c.tileOpen {
			next = c.curTileID + 1
		}
		if err := c.w.BeginTile(next); err != nil {
			return err
		}
		c.curTileID = next
		c.tileOpen = true
		c.cellsInTile = 0
	}

	if err := c.w.Append(cell); err != nil {
		return err
	}
	c.cellsInTile++
	c.cellsWritten++
	return nil
}
