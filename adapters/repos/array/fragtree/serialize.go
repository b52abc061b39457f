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
	"encoding/binary"
	"os"

	"github.com/pkg/errors"
)

// FileName is the file inside an array directory holding the persisted
// tree. A missing file means an empty tree.
const FileName = "fragment_tree"

// MarshalBinary encodes the levels as consecutive little-endian
// (level int32, count int32) pairs, oldest level first. An empty tree
// encodes to zero bytes.
func (t *Tree) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, len(t.levels)*8)
	for _, level := range t.levels {
		buf = binary.LittleEndian.AppendUint32(buf, level.Level)
		buf = binary.LittleEndian.AppendUint32(buf, level.Count)
	}
	return buf, nil
}

// UnmarshalBinary decodes and validates persisted levels and recomputes
// the next fragment sequence number from them.
func (t *Tree) UnmarshalBinary(data []byte) error {
	if len(data)%8 != 0 {
		return errors.Wrapf(ErrCorrupt, "length %d is not a whole number of level pairs", len(data))
	}

	levels := make([]Level, 0, len(data)/8)
	nextSeq := uint64(0)
	for i := 0; i < len(data); i += 8 {
		level := Level{
			Level: binary.LittleEndian.Uint32(data[i:]),
			Count: binary.LittleEndian.Uint32(data[i+4:]),
		}
		if level.Count == 0 || level.Count >= uint32(t.step) {
			return errors.Wrapf(ErrCorrupt, "level %d has count %d, want 1..%d",
				level.Level, level.Count, t.step-1)
		}
		if n := len(levels); n > 0 && levels[n-1].Level <= level.Level {
			return errors.Wrapf(ErrCorrupt, "levels not strictly descending at level %d", level.Level)
		}
		levels = append(levels, level)
		nextSeq += uint64(level.Count) * pow(uint64(t.step), level.Level)
	}

	t.levels = levels
	t.nextSeq = nextSeq
	return nil
}

// Load reads the tree of one array directory. A missing file yields an
// empty tree, which is the state of a freshly created array.
func Load(path string, step int) (*Tree, error) {
	t, err := New(step)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return t, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read fragment tree")
	}

	if err := t.UnmarshalBinary(data); err != nil {
		return nil, errors.Wrapf(err, "decode fragment tree %q", path)
	}
	return t, nil
}

// Flush atomically replaces the persisted tree with the current state.
func (t *Tree) Flush(path string) error {
	data, err := t.MarshalBinary()
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "write fragment tree")
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrap(err, "replace fragment tree")
	}
	return nil
}
