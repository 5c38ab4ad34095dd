// Copyright 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package melsec

import (
	"math"
	"testing"
)

func TestDataType(t *testing.T) {
	type testCase struct {
		dt     DataType
		unit   AccessUnit
		points int
		max    uint64
	}

	tests := []testCase{
		{Bit, UnitBit, 1, 1},
		{Word, UnitWord, 1, 0xFFFF},
		{DWord, UnitWord, 2, 0xFFFFFFFF},
		{LWord, UnitWord, 4, math.MaxUint64},
	}

	for _, tc := range tests {
		t.Run(tc.dt.String(), func(t *testing.T) {
			if u := tc.dt.Unit(); u != tc.unit {
				t.Errorf("unit: expected %v, actual %v", tc.unit, u)
			}
			if p := tc.dt.Points(); p != tc.points {
				t.Errorf("points: expected %v, actual %v", tc.points, p)
			}
			if m := tc.dt.Max(); m != tc.max {
				t.Errorf("max: expected %v, actual %v", tc.max, m)
			}
		})
	}
}

func TestParseDataType(t *testing.T) {
	for name, expected := range map[string]DataType{
		"bit": Bit, "b": Bit,
		"word": Word, "w": Word,
		"dword": DWord, "dw": DWord,
		"lword": LWord, "lw": LWord,
	} {
		dt, err := ParseDataType(name)
		if err != nil {
			t.Fatal(err)
		}
		if dt != expected {
			t.Fatalf("%s: expected %v, actual %v", name, expected, dt)
		}
	}
	if _, err := ParseDataType("qword"); err == nil {
		t.Fatal("expected an error for qword")
	}
}
