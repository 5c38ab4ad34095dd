// Copyright 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package melsec

import (
	"fmt"
	"math"
)

// Value is one decoded device point. The raw bits are kept unsigned and
// the accessors give the typed views, so a DWord read from a pair of
// registers can be taken as uint32, int32 or float32 as the application
// sees fit, and an LWord as uint64, int64 or float64.
type Value struct {
	Device string
	Type   DataType

	raw uint64
}

func newValue(device string, dt DataType, raw uint64) Value {
	return Value{Device: device, Type: dt, raw: raw}
}

// Bool reports the value as a bit.
func (v Value) Bool() bool { return v.raw != 0 }

// Uint16 reports the value as an unsigned word.
func (v Value) Uint16() uint16 { return uint16(v.raw) }

// Int16 reports the value as a signed word.
func (v Value) Int16() int16 { return int16(v.raw) }

// Uint32 reports the value as an unsigned double word.
func (v Value) Uint32() uint32 { return uint32(v.raw) }

// Int32 reports the value as a signed double word.
func (v Value) Int32() int32 { return int32(v.raw) }

// Float32 reinterprets a double word as an IEEE 754 single.
func (v Value) Float32() float32 { return math.Float32frombits(uint32(v.raw)) }

// Uint64 reports the value as an unsigned long word.
func (v Value) Uint64() uint64 { return v.raw }

// Int64 reports the value as a signed long word.
func (v Value) Int64() int64 { return int64(v.raw) }

// Float64 reinterprets a long word as an IEEE 754 double.
func (v Value) Float64() float64 { return math.Float64frombits(v.raw) }

func (v Value) String() string {
	switch v.Type {
	case Bit:
		if v.Bool() {
			return fmt.Sprintf("%s=1", v.Device)
		}
		return fmt.Sprintf("%s=0", v.Device)
	case Word:
		return fmt.Sprintf("%s=%d", v.Device, v.Uint16())
	case DWord:
		return fmt.Sprintf("%s=%d", v.Device, v.Uint32())
	}
	return fmt.Sprintf("%s=%d", v.Device, v.Uint64())
}

// TypeMismatchError reports a write value that does not fit its declared
// data type.
type TypeMismatchError struct {
	Device string
	Type   DataType
	Value  uint64
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("melsec: value %d does not fit %s device %s (max %d)",
		e.Value, e.Type, e.Device, e.Type.Max())
}
