// Copyright 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package melsec

import (
	"errors"
	"strings"
	"testing"
)

func TestPLCErrorText(t *testing.T) {
	err := &PLCError{EndCode: 0xC059}
	if !strings.Contains(err.Error(), "0xC059") {
		t.Fatalf("end code missing from message: %v", err)
	}
	if !strings.Contains(err.Error(), "not supported") {
		t.Fatalf("known code should carry the manual text: %v", err)
	}

	// unknown codes still render
	err = &PLCError{EndCode: 0x4031}
	if !strings.Contains(err.Error(), "0x4031") {
		t.Fatalf("end code missing from message: %v", err)
	}
}

func TestBatchErrorUnwrap(t *testing.T) {
	inner := &PLCError{EndCode: 0xC05B}
	err := &BatchError{Batch: 2, TagIndices: []int{5, 6}, Err: inner}

	var plcErr *PLCError
	if !errors.As(err, &plcErr) {
		t.Fatalf("expected unwrap to PLCError, actual %v", err)
	}
	if !strings.Contains(err.Error(), "batch 2") {
		t.Fatalf("batch number missing from message: %v", err)
	}
}
