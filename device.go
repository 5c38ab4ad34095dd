// Copyright 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package melsec

import (
	"fmt"
	"strconv"
	"strings"
)

// Series identifies a PLC product family. The series selects the device
// table, the device-spec width and the subcommand set.
type Series int

const (
	// SeriesQ is the MELSEC-Q family.
	SeriesQ Series = iota
	// SeriesL is the MELSEC-L family.
	SeriesL
	// SeriesQnA is the QnA family.
	SeriesQnA
	// SeriesIQL is the MELSEC iQ-L family.
	SeriesIQL
	// SeriesIQR is the MELSEC iQ-R family.
	SeriesIQR
)

func (s Series) String() string {
	switch s {
	case SeriesQ:
		return "Q"
	case SeriesL:
		return "L"
	case SeriesQnA:
		return "QnA"
	case SeriesIQL:
		return "iQ-L"
	case SeriesIQR:
		return "iQ-R"
	}
	return fmt.Sprintf("Series(%d)", int(s))
}

// ParseSeries parses a series name as printed on the product line:
// Q, L, QnA, iQ-L or iQ-R.
func ParseSeries(name string) (Series, error) {
	switch name {
	case "Q":
		return SeriesQ, nil
	case "L":
		return SeriesL, nil
	case "QnA":
		return SeriesQnA, nil
	case "iQ-L":
		return SeriesIQL, nil
	case "iQ-R":
		return SeriesIQR, nil
	}
	return 0, fmt.Errorf("melsec: unknown PLC series %q", name)
}

// Subcommand selects the series' subcommand for an access unit.
func (s Series) Subcommand(unit AccessUnit) uint16 {
	if s == SeriesIQR {
		if unit == UnitBit {
			return SubBitIQR
		}
		return SubWordIQR
	}
	if unit == UnitBit {
		return SubBitQ
	}
	return SubWordQ
}

func (s Series) table() map[string]deviceEntry {
	if s == SeriesIQR {
		return iqrDevices
	}
	return qDevices
}

// maxDeviceIndex is the ceiling of the 3-byte device-number field used by
// the Q-family device spec. iQ-R uses a 4-byte field but shares the same
// addressable ceiling here.
const maxDeviceIndex = 0xFFFFFF

// Device is a parsed symbolic device reference: a device code, a numeric
// index and the code's numbering base. Immutable once parsed.
type Device struct {
	Code  string
	Index uint32
	// Base is the numbering base of the device code, 10 or 16. It is a
	// property of the code, not of the series.
	Base int
}

// String renders the device back to its symbolic form.
func (d Device) String() string {
	if d.Base == 16 {
		return fmt.Sprintf("%s%X", d.Code, d.Index)
	}
	return fmt.Sprintf("%s%d", d.Code, d.Index)
}

// offset returns the device count points further along the same code.
func (d Device) offset(count int) Device {
	return Device{Code: d.Code, Index: d.Index + uint32(count), Base: d.Base}
}

// InvalidAddressError reports a device string that could not be parsed.
type InvalidAddressError struct {
	Address string
	Reason  string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("melsec: invalid device address %q: %s", e.Address, e.Reason)
}

// UnsupportedDeviceError reports a device code the series does not define.
type UnsupportedDeviceError struct {
	Series Series
	Code   string
}

func (e *UnsupportedDeviceError) Error() string {
	return fmt.Sprintf("melsec: device code %q is not defined on series %s", e.Code, e.Series)
}

// ParseDevice parses a symbolic device reference such as "M8304", "D100"
// or "X1F" against the series' device table. The numeric suffix is read
// in the device code's numbering base, so X1F is index 31.
func ParseDevice(series Series, text string) (Device, error) {
	s := strings.ToUpper(strings.TrimSpace(text))
	if s == "" {
		return Device{}, &InvalidAddressError{Address: text, Reason: "empty"}
	}
	table := series.table()

	// Longest matching code wins: DX1F is device DX, not D with a stray X.
	for l := 4; l >= 1; l-- {
		if l > len(s) {
			continue
		}
		code := s[:l]
		entry, ok := table[code]
		if !ok {
			continue
		}
		if l == len(s) {
			return Device{}, &InvalidAddressError{Address: text, Reason: "missing device index"}
		}
		index, err := strconv.ParseUint(s[l:], entry.base, 32)
		if err != nil {
			return Device{}, &InvalidAddressError{
				Address: text,
				Reason:  fmt.Sprintf("index %q is not a base-%d integer", s[l:], entry.base),
			}
		}
		if index > maxDeviceIndex {
			return Device{}, &InvalidAddressError{
				Address: text,
				Reason:  fmt.Sprintf("index %d exceeds the device-number field maximum %d", index, maxDeviceIndex),
			}
		}
		return Device{Code: code, Index: uint32(index), Base: entry.base}, nil
	}

	// No table entry matched; report the letter prefix as unsupported.
	prefix := s
	for i, r := range s {
		if r >= '0' && r <= '9' {
			prefix = s[:i]
			break
		}
	}
	return Device{}, &UnsupportedDeviceError{Series: series, Code: prefix}
}

// deviceEntry is one row of a series' device table: the protocol-level
// numeric code for binary frames, the padded mnemonic for ASCII frames
// and the numbering base of the device's index.
type deviceEntry struct {
	binary uint16
	ascii  string
	base   int
}

// qDevices is the device table shared by the Q, L, QnA and iQ-L series.
// ASCII mnemonics are two characters, padded with '*'.
var qDevices = map[string]deviceEntry{
	"SM": {0x91, "SM", 10},
	"SD": {0xA9, "SD", 10},
	"X":  {0x9C, "X*", 16},
	"Y":  {0x9D, "Y*", 16},
	"M":  {0x90, "M*", 10},
	"L":  {0x92, "L*", 10},
	"F":  {0x93, "F*", 10},
	"V":  {0x94, "V*", 10},
	"B":  {0xA0, "B*", 16},
	"D":  {0xA8, "D*", 10},
	"W":  {0xB4, "W*", 16},
	"TS": {0xC1, "TS", 10},
	"TC": {0xC0, "TC", 10},
	"TN": {0xC2, "TN", 10},
	"SS": {0xC7, "SS", 10},
	"SC": {0xC6, "SC", 10},
	"SN": {0xC8, "SN", 10},
	"CS": {0xC4, "CS", 10},
	"CC": {0xC3, "CC", 10},
	"CN": {0xC5, "CN", 10},
	"SB": {0xA1, "SB", 16},
	"SW": {0xB5, "SW", 16},
	"DX": {0xA2, "DX", 16},
	"DY": {0xA3, "DY", 16},
	"Z":  {0xCC, "Z*", 10},
	"R":  {0xAF, "R*", 10},
	"ZR": {0xB0, "ZR", 16},
}

// iqrDevices is the iQ-R device table. Codes are two bytes on the wire
// and ASCII mnemonics are four characters. The long timer/counter devices
// at the bottom exist only on this series.
var iqrDevices = map[string]deviceEntry{
	"SM": {0x0091, "SM**", 10},
	"SD": {0x00A9, "SD**", 10},
	"X":  {0x009C, "X***", 16},
	"Y":  {0x009D, "Y***", 16},
	"M":  {0x0090, "M***", 10},
	"L":  {0x0092, "L***", 10},
	"F":  {0x0093, "F***", 10},
	"V":  {0x0094, "V***", 10},
	"B":  {0x00A0, "B***", 16},
	"D":  {0x00A8, "D***", 10},
	"W":  {0x00B4, "W***", 16},
	"TS": {0x00C1, "TS**", 10},
	"TC": {0x00C0, "TC**", 10},
	"TN": {0x00C2, "TN**", 10},
	"SS": {0x00C7, "SS**", 10},
	"SC": {0x00C6, "SC**", 10},
	"SN": {0x00C8, "SN**", 10},
	"CS": {0x00C4, "CS**", 10},
	"CC": {0x00C3, "CC**", 10},
	"CN": {0x00C5, "CN**", 10},
	"SB": {0x00A1, "SB**", 16},
	"SW": {0x00B5, "SW**", 16},
	"DX": {0x00A2, "DX**", 16},
	"DY": {0x00A3, "DY**", 16},
	"Z":  {0x00CC, "Z***", 10},
	"R":  {0x00AF, "R***", 10},
	"ZR": {0x00B0, "ZR**", 16},

	"LTS":  {0x0051, "LTS*", 10},
	"LTC":  {0x0050, "LTC*", 10},
	"LTN":  {0x0052, "LTN*", 10},
	"LSTS": {0x0059, "LSTS", 10},
	"LSTC": {0x0058, "LSTC", 10},
	"LSTN": {0x005A, "LSTN", 10},
	"LCS":  {0x0055, "LCS*", 10},
	"LCC":  {0x0054, "LCC*", 10},
	"LCN":  {0x0056, "LCN*", 10},
	"LZ":   {0x0062, "LZ**", 10},
	"RD":   {0x002C, "RD**", 10},
}

// lookupDevice resolves a parsed device against a series table. ParseDevice
// already guarantees the code exists for addresses it produced, but block
// operations re-resolve after offsetting.
func lookupDevice(series Series, code string) (deviceEntry, error) {
	entry, ok := series.table()[code]
	if !ok {
		return deviceEntry{}, &UnsupportedDeviceError{Series: series, Code: code}
	}
	return entry, nil
}
