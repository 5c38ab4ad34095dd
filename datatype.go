// Copyright 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package melsec

import (
	"fmt"
	"math"
	"strings"
)

// AccessUnit is the granularity of one frame: the wire format encodes a
// single unit type per frame, so mixed-unit requests are split beforehand.
type AccessUnit int

const (
	// UnitBit addresses devices bit by bit.
	UnitBit AccessUnit = iota
	// UnitWord addresses devices in 16-bit words.
	UnitWord
)

func (u AccessUnit) String() string {
	if u == UnitBit {
		return "bit"
	}
	return "word"
}

// DataType is the value kind exchanged for one tag.
type DataType int

const (
	// Bit is a single bit, transmitted nibble-packed in binary frames.
	Bit DataType = iota
	// Word is an unsigned 16-bit value.
	Word
	// DWord is an unsigned 32-bit value, two consecutive words low first.
	DWord
	// LWord is an unsigned 64-bit value, four consecutive words low
	// first. The accessors expose it as signed, unsigned or float64.
	LWord
)

// Unit reports the access unit the type is transferred in.
func (dt DataType) Unit() AccessUnit {
	if dt == Bit {
		return UnitBit
	}
	return UnitWord
}

// Words is the number of word points the type occupies, zero for Bit.
func (dt DataType) Words() int {
	switch dt {
	case Word:
		return 1
	case DWord:
		return 2
	case LWord:
		return 4
	}
	return 0
}

// Points is the number of device points the type occupies in its unit.
func (dt DataType) Points() int {
	if dt == Bit {
		return 1
	}
	return dt.Words()
}

// Max is the largest value the type can carry.
func (dt DataType) Max() uint64 {
	switch dt {
	case Bit:
		return 1
	case Word:
		return 0xFFFF
	case DWord:
		return 0xFFFFFFFF
	}
	return math.MaxUint64
}

func (dt DataType) String() string {
	switch dt {
	case Bit:
		return "bit"
	case Word:
		return "word"
	case DWord:
		return "dword"
	case LWord:
		return "lword"
	}
	return fmt.Sprintf("DataType(%d)", int(dt))
}

// ParseDataType parses the textual type names used by configuration and
// the command line. Names are case-insensitive.
func ParseDataType(s string) (DataType, error) {
	switch strings.ToLower(s) {
	case "bit", "b":
		return Bit, nil
	case "word", "w":
		return Word, nil
	case "dword", "dw":
		return DWord, nil
	case "lword", "lw":
		return LWord, nil
	}
	return 0, fmt.Errorf("melsec: unknown data type %q", s)
}
