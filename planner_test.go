// Copyright 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package melsec

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanEmpty(t *testing.T) {
	if _, err := plan(nil); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, actual %v", err)
	}
}

func TestPlanSingleBatch(t *testing.T) {
	tags := []QueryTag{
		{Device: "D100", Type: Word},
		{Device: "D200", Type: DWord},
		{Device: "W1F", Type: Word},
	}
	batches, err := plan(tags)
	if err != nil {
		t.Fatal(err)
	}
	assert.Len(t, batches, 1)
	assert.Equal(t, UnitWord, batches[0].Unit)
	assert.Equal(t, 4, batches[0].points())
	assert.Equal(t, []int{0, 1, 2}, batches[0].indices())
}

func TestPlanSplitsByUnit(t *testing.T) {
	tags := []QueryTag{
		{Device: "D100", Type: Word},
		{Device: "M0", Type: Bit},
		{Device: "D101", Type: Word},
		{Device: "M1", Type: Bit},
	}
	batches, err := plan(tags)
	if err != nil {
		t.Fatal(err)
	}
	assert.Len(t, batches, 2)
	// bit batches come first, each preserving request order
	assert.Equal(t, UnitBit, batches[0].Unit)
	assert.Equal(t, []int{1, 3}, batches[0].indices())
	assert.Equal(t, UnitWord, batches[1].Unit)
	assert.Equal(t, []int{0, 2}, batches[1].indices())
}

func TestPlanWordCeiling(t *testing.T) {
	tags := make([]QueryTag, 1000)
	for i := range tags {
		tags[i] = QueryTag{Device: fmt.Sprintf("D%d", i), Type: Word}
	}
	batches, err := plan(tags)
	if err != nil {
		t.Fatal(err)
	}
	assert.Len(t, batches, 2)
	assert.Equal(t, MaxWordPoints, batches[0].points())
	assert.Equal(t, 1000-MaxWordPoints, batches[1].points())
}

func TestPlanDWordNeverSplit(t *testing.T) {
	// 959 words leave one free point in the frame; a dword needs two, so
	// it moves whole to the second frame instead of straddling.
	tags := make([]QueryTag, 961)
	for i := 0; i < 959; i++ {
		tags[i] = QueryTag{Device: fmt.Sprintf("D%d", i), Type: Word}
	}
	tags[959] = QueryTag{Device: "D1000", Type: DWord}
	tags[960] = QueryTag{Device: "D1002", Type: DWord}

	batches, err := plan(tags)
	if err != nil {
		t.Fatal(err)
	}
	assert.Len(t, batches, 2)
	assert.Equal(t, 959, batches[0].points())
	assert.Equal(t, []int{959, 960}, batches[1].indices())
	assert.Equal(t, 4, batches[1].points())
}

func TestPlanBitCeiling(t *testing.T) {
	tags := make([]QueryTag, MaxBitPoints+1)
	for i := range tags {
		tags[i] = QueryTag{Device: fmt.Sprintf("M%d", i), Type: Bit}
	}
	batches, err := plan(tags)
	if err != nil {
		t.Fatal(err)
	}
	assert.Len(t, batches, 2)
	assert.Equal(t, MaxBitPoints, batches[0].points())
	assert.Equal(t, 1, batches[1].points())
}
