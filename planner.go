// Copyright 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package melsec

const (
	// MaxBitPoints is the per-frame ceiling for bit-unit access.
	MaxBitPoints = 7168
	// MaxWordPoints is the per-frame ceiling for word-unit access. A
	// DWord tag consumes two word points.
	MaxWordPoints = 960
)

// batchEntry is one tag inside a planned frame, remembering the caller's
// original position so results can be reassembled in request order.
type batchEntry struct {
	// Index is the tag's position in the caller's request.
	Index int
	Tag   QueryTag
}

// batch is one outgoing frame's worth of device accesses. All entries
// share the same access unit because the wire format encodes one unit
// type per frame.
type batch struct {
	Unit    AccessUnit
	Entries []batchEntry
}

// points is the number of device points the batch occupies in its unit.
func (b *batch) points() int {
	n := 0
	for _, e := range b.Entries {
		n += e.Tag.Type.Points()
	}
	return n
}

// indices lists the original request indices covered by the batch.
func (b *batch) indices() []int {
	out := make([]int, len(b.Entries))
	for i, e := range b.Entries {
		out[i] = e.Index
	}
	return out
}

func ceiling(unit AccessUnit) int {
	if unit == UnitBit {
		return MaxBitPoints
	}
	return MaxWordPoints
}

// plan partitions tags into frames: a stable split by access unit first,
// then chunks no larger than the unit's point ceiling. Devices within a
// chunk need not be contiguous, so no coalescing is attempted.
func plan(tags []QueryTag) ([]batch, error) {
	if len(tags) == 0 {
		return nil, ErrEmptyBatch
	}

	var batches []batch
	for _, unit := range []AccessUnit{UnitBit, UnitWord} {
		var current *batch
		points := 0
		for i, tag := range tags {
			if tag.Type.Unit() != unit {
				continue
			}
			need := tag.Type.Points()
			if current == nil || points+need > ceiling(unit) {
				batches = append(batches, batch{Unit: unit})
				current = &batches[len(batches)-1]
				points = 0
			}
			current.Entries = append(current.Entries, batchEntry{Index: i, Tag: tag})
			points += need
		}
	}
	return batches, nil
}
