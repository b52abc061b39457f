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
	"bufio"
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/weaviate/tilestore/adapters/repos/array/consolidation"
	"github.com/weaviate/tilestore/entities/schema"
)

// fragmentWriter streams cells into per-file tile buffers. A tile's cell
// count precedes its payload on disk, so the payload is held back until
// the tile ends. Commit publishes the temp directory with a rename, which
// makes the fragment appear atomically.
type fragmentWriter[T schema.Scalar] struct {
	store    *Store[T]
	tmpDir   string
	finalDir string

	files []*tileFile
	buf   []byte

	tileOpen  bool
	tileID    uint64
	cellCount uint64
	done      bool
}

type tileFile struct {
	f    *os.File
	w    *bufio.Writer
	tile []byte
}

func newFragmentWriter[T schema.Scalar](tmpDir, finalDir string, store *Store[T]) (*fragmentWriter[T], error) {
	names := store.fileNames()
	files := make([]*tileFile, 0, len(names))
	for _, name := range names {
		f, err := os.Create(filepath.Join(tmpDir, name))
		if err != nil {
			for _, tf := range files {
				tf.f.Close()
			}
			os.RemoveAll(tmpDir)
			return nil, errors.Wrapf(err, "create fragment file %q", name)
		}
		files = append(files, &tileFile{f: f, w: bufio.NewWriter(f)})
	}

	return &fragmentWriter[T]{
		store:    store,
		tmpDir:   tmpDir,
		finalDir: finalDir,
		files:    files,
	}, nil
}

func (w *fragmentWriter[T]) BeginTile(tileID uint64) error {
	if w.done {
		return errors.New("fragment writer already finished")
	}
	if err := w.flushTile(); err != nil {
		return err
	}
	w.tileID = tileID
	w.tileOpen = true
	return nil
}

func (w *fragmentWriter[T]) Append(cell *consolidation.Cell[T]) error {
	if !w.tileOpen {
		return errors.New("append outside of a tile")
	}
	if len(cell.Coords) != len(w.store.schema.Dimensions) {
		return errors.Errorf("got %d coordinates, schema has %d dimensions",
			len(cell.Coords), len(w.store.schema.Dimensions))
	}
	if len(cell.Values) != len(w.store.attrSizes) {
		return errors.Errorf("got %d values, schema has %d attributes",
			len(cell.Values), len(w.store.attrSizes))
	}

	w.buf = w.buf[:0]
	for _, c := range cell.Coords {
		w.buf = appendScalar(w.buf, c)
	}
	if cell.Deleted {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
	w.files[0].tile = append(w.files[0].tile, w.buf...)

	for i, v := range cell.Values {
		size := w.store.attrSizes[i]
		switch {
		case len(v) == size:
			w.files[i+1].tile = append(w.files[i+1].tile, v...)
		case len(v) == 0 && cell.Deleted:
			// deletion markers carry no values, pad the slot
			w.files[i+1].tile = append(w.files[i+1].tile, make([]byte, size)...)
		default:
			return errors.Errorf("attribute %q value has %d bytes, want %d",
				w.store.schema.Attributes[i].Name, len(v), size)
		}
	}

	w.cellCount++
	return nil
}

func (w *fragmentWriter[T]) flushTile() error {
	if !w.tileOpen {
		return nil
	}

	var header [tileHeaderSize]byte
	binary.LittleEndian.PutUint64(header[:8], w.tileID)
	binary.LittleEndian.PutUint64(header[8:], w.cellCount)

	for _, tf := range w.files {
		if _, err := tf.w.Write(header[:]); err != nil {
			return errors.Wrap(err, "write tile header")
		}
		if _, err := tf.w.Write(tf.tile); err != nil {
			return errors.Wrap(err, "write tile payload")
		}
		tf.tile = tf.tile[:0]
	}

	w.tileOpen = false
	w.cellCount = 0
	return nil
}

func (w *fragmentWriter[T]) Commit() error {
	if w.done {
		return errors.New("fragment writer already finished")
	}
	w.done = true

	if err := w.flushTile(); err != nil {
		w.cleanup()
		return err
	}

	for _, tf := range w.files {
		if err := tf.w.Flush(); err != nil {
			w.cleanup()
			return errors.Wrap(err, "flush fragment file")
		}
		if err := tf.f.Sync(); err != nil {
			w.cleanup()
			return errors.Wrap(err, "sync fragment file")
		}
		if err := tf.f.Close(); err != nil {
			w.cleanup()
			return errors.Wrap(err, "close fragment file")
		}
	}

	if err := os.Rename(w.tmpDir, w.finalDir); err != nil {
		os.RemoveAll(w.tmpDir)
		return errors.Wrap(err, "publish fragment")
	}
	return nil
}

func (w *fragmentWriter[T]) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	w.cleanup()
	return nil
}

func (w *fragmentWriter[T]) cleanup() {
	for _, tf := range w.files {
		tf.f.Close()
	}
	if err := os.RemoveAll(w.tmpDir); err != nil {
		w.store.logger.WithError(err).WithField("dir", w.tmpDir).
			Warn("failed to remove fragment temp dir")
	}
}
