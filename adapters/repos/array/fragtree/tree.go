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

// Package fragtree schedules fragment consolidation. The set of live
// fragments of an array is tracked as the digits of a counter in base
// "consolidation step": digit i counts the live fragments that each cover
// step^i consecutive fragment sequence numbers. Appending a fragment
// increments the counter; every carry corresponds to one merge of step
// sibling fragments into a fragment one level up.
package fragtree

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

var (
	// ErrConsolidationStep marks the fatal configuration error of a
	// branching factor that cannot schedule anything.
	ErrConsolidationStep = stderrors.New("consolidation step must be greater than 1")

	// ErrCorrupt marks persisted tree state that cannot be decoded.
	ErrCorrupt = stderrors.New("corrupt fragment tree")
)

// Level is one digit of the counter: count live fragments that each cover
// step^level sequence numbers.
type Level struct {
	Level uint32
	Count uint32
}

// Range is an inclusive range of fragment sequence numbers.
type Range struct {
	Start uint64
	End   uint64
}

// Size is the number of fragment sequence numbers the range covers.
func (r Range) Size() uint64 {
	return r.End - r.Start + 1
}

// IsFull reports whether a fragment with this range covers the entire
// history of its array, which makes it safe to drop deletion markers when
// merging into it.
func (r Range) IsFull() bool {
	return r.Start == 0
}

// MergeJob names one due merge: the step sibling fragments to consolidate,
// oldest first, and the range of the fragment replacing them.
type MergeJob struct {
	Level  uint32
	Inputs []Range
	Result Range
}

// Tree is the in-memory fragment counter of one open array. It is not safe
// for concurrent use; the caller serializes access per array.
type Tree struct {
	step    int
	levels  []Level // ordered by descending level, oldest fragments first
	nextSeq uint64
}

func New(step int) (*Tree, error) {
	if step <= 1 {
		return nil, errors.Wrapf(ErrConsolidationStep, "got %d", step)
	}
	return &Tree{step: step}, nil
}

func (t *Tree) Step() int {
	return t.step
}

// NextSeq is the sequence number the next committed fragment will carry.
func (t *Tree) NextSeq() uint64 {
	return t.nextSeq
}

// Levels returns a copy of the tree's levels, ordered oldest (highest
// level) first.
func (t *Tree) Levels() []Level {
	out := make([]Level, len(t.levels))
	copy(out, t.levels)
	return out
}

// Clone returns an independent copy. Callers mutate the clone, run the
// resulting merge jobs, and only adopt the clone once all of them
// succeeded, so a failed merge leaves the original tree untouched.
func (t *Tree) Clone() *Tree {
	return &Tree{
		step:    t.step,
		levels:  append([]Level(nil), t.levels...),
		nextSeq: t.nextSeq,
	}
}

// Add appends one new singleton fragment and performs all carries it
// triggers, returning the due merge jobs in cascade order (lowest level
// first). Pure bookkeeping: no I/O happens here, the caller is responsible
// for actually executing the jobs.
func (t *Tree) Add() []MergeJob {
	if n := len(t.levels); n == 0 || t.levels[n-1].Level > 0 {
		t.levels = append(t.levels, Level{Level: 0, Count: 1})
	} else {
		t.levels[n-1].Count++
	}

	seq := t.nextSeq
	t.nextSeq++

	var jobs []MergeJob
	for len(t.levels) > 0 && t.levels[len(t.levels)-1].Count == uint32(t.step) {
		level := t.levels[len(t.levels)-1].Level
		subtree := pow(uint64(t.step), level)

		job := MergeJob{
			Level:  level,
			Inputs: make([]Range, 0, t.step),
		}
		for i := 0; i < t.step; i++ {
			start := seq - uint64(t.step-i)*subtree + 1
			job.Inputs = append(job.Inputs, Range{Start: start, End: start + subtree - 1})
		}
		job.Result = Range{Start: seq - uint64(t.step)*subtree + 1, End: seq}
		jobs = append(jobs, job)

		// carry: the step siblings collapse into one fragment one level up
		t.levels = t.levels[:len(t.levels)-1]
		if n := len(t.levels); n > 0 && t.levels[n-1].Level == level+1 {
			t.levels[n-1].Count++
		} else {
			t.levels = append(t.levels, Level{Level: level + 1, Count: 1})
		}
	}

	return jobs
}

// Suffixes reconstructs the ranges of every currently live fragment, in
// increasing start-sequence order. This list is exactly the set of physical
// fragments present on disk.
func (t *Tree) Suffixes() []Range {
	var out []Range
	start := uint64(0)
	for _, level := range t.levels {
		subtree := pow(uint64(t.step), level.Level)
		for i := uint32(0); i < level.Count; i++ {
			out = append(out, Range{Start: start, End: start + subtree - 1})
			start += subtree
		}
	}
	return out
}

func pow(base uint64, exp uint32) uint64 {
	out := uint64(1)
	for ; exp > 0; exp-- {
		out *= base
	}
	return out
}
