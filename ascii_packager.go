// Copyright 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package melsec

import (
	"fmt"
	"strconv"
)

const hexTable = "0123456789ABCDEF"

// asciiPackager implements Packager for ASCII 3E and 4E frames. The field
// layout mirrors the binary dialect with every field rendered as
// uppercase hexadecimal characters in big-endian text order, so all
// widths double.
type asciiPackager struct {
	profile frameProfile
	series  Series

	// Access route, local-station defaults as in the binary dialect.
	Network      byte
	PC           byte
	DestModuleIO uint16
	DestStation  byte

	// Serial is the 4E subheader serial number echoed by the PLC.
	Serial uint16

	timer uint16
}

func newASCIIPackager(profile frameProfile, series Series) asciiPackager {
	return asciiPackager{
		profile:      profile,
		series:       series,
		Network:      0x00,
		PC:           0xFF,
		DestModuleIO: 0x03FF,
		DestStation:  0x00,
		timer:        defaultMonitoringTimer,
	}
}

// Series reports the PLC series the packager encodes for.
func (mb *asciiPackager) Series() Series { return mb.series }

// SetMonitoringTimer sets the PLC-side wait in 250 ms ticks. Zero is
// rejected because the protocol reads it as "wait forever"; use
// SetWaitForever if that is really wanted.
func (mb *asciiPackager) SetMonitoringTimer(ticks uint16) error {
	if ticks == 0 {
		return fmt.Errorf("melsec: monitoring timer 0 means wait forever, use SetWaitForever to opt in")
	}
	mb.timer = ticks
	return nil
}

// SetWaitForever makes the PLC wait indefinitely for command completion.
func (mb *asciiPackager) SetWaitForever() { mb.timer = 0 }

// Encode wraps a request into an ASCII frame:
//
//	Subheader             : 4 chars ("5000"/"5400")
//	Serial + reserved     : 8 chars (4E only)
//	Access route          : 10 chars
//	Request length        : 4 chars (character count, timer onward)
//	Monitoring timer      : 4 chars
//	Command               : 4 chars
//	Subcommand            : 4 chars
//	Data                  : n chars
func (mb *asciiPackager) Encode(req *Request) ([]byte, error) {
	length := 4 + 4 + 4 + len(req.Data)
	if length > 0xFFFF {
		return nil, fmt.Errorf("melsec: request data length %d exceeds the frame length field", len(req.Data))
	}

	frame := make([]byte, 0, 2*mb.profile.requestHeaderLen()+length)
	frame = appendHex16(frame, mb.profile.subheader)
	if mb.profile.hasSerial {
		frame = appendHex16(frame, mb.Serial)
		frame = append(frame, "0000"...)
	}
	frame = appendHex8(frame, mb.Network)
	frame = appendHex8(frame, mb.PC)
	frame = appendHex16(frame, mb.DestModuleIO)
	frame = appendHex8(frame, mb.DestStation)
	frame = appendHex16(frame, uint16(length))
	frame = appendHex16(frame, mb.timer)
	frame = appendHex16(frame, req.Command)
	frame = appendHex16(frame, req.Subcommand)
	frame = append(frame, req.Data...)
	return frame, nil
}

// Decode parses an ASCII response frame; the envelope mirrors Encode with
// the end code (4 chars) in place of the command pair.
func (mb *asciiPackager) Decode(frame []byte) (*Response, error) {
	header := mb.responseHeaderLen()
	if len(frame) < header+4 {
		return nil, fmt.Errorf("%w: %d chars is shorter than the %s ASCII response envelope", ErrMalformedFrame, len(frame), mb.profile.name)
	}
	sub, err := parseHex(frame[:4])
	if err != nil || uint16(sub) != mb.profile.respSubheader {
		return nil, fmt.Errorf("%w: subheader %q does not match expected %04X", ErrMalformedFrame, frame[:4], mb.profile.respSubheader)
	}
	if mb.profile.hasSerial {
		serial, err := parseHex(frame[4:8])
		if err != nil || uint16(serial) != mb.Serial {
			return nil, fmt.Errorf("%w: serial %q does not match request serial %d", ErrMalformedFrame, frame[4:8], mb.Serial)
		}
	}
	declared64, err := parseHex(frame[header-4 : header])
	if err != nil {
		return nil, fmt.Errorf("%w: length field %q is not hexadecimal", ErrMalformedFrame, frame[header-4:header])
	}
	declared := int(declared64)
	if declared < 4 {
		return nil, ErrFrameLength(declared)
	}
	if len(frame)-header != declared {
		return nil, fmt.Errorf("%w: received %d payload chars, header declares %d", ErrMalformedFrame, len(frame)-header, declared)
	}
	endCode, err := parseHex(frame[header : header+4])
	if err != nil {
		return nil, fmt.Errorf("%w: end code %q is not hexadecimal", ErrMalformedFrame, frame[header:header+4])
	}
	if endCode != 0 {
		return nil, &PLCError{EndCode: uint16(endCode)}
	}
	return &Response{Data: frame[header+4:]}, nil
}

// responseHeaderLen implements framing: chars before the end code.
func (mb *asciiPackager) responseHeaderLen() int {
	if mb.profile.hasSerial {
		return 26
	}
	return 18
}

// responseBodyLen implements framing.
func (mb *asciiPackager) responseBodyLen(header []byte) (int, error) {
	declared64, err := parseHex(header[len(header)-4:])
	if err != nil {
		return 0, fmt.Errorf("%w: length field %q is not hexadecimal", ErrMalformedFrame, header[len(header)-4:])
	}
	declared := int(declared64)
	if declared < 4 || declared > tcpMaxLength-len(header) {
		return 0, ErrFrameLength(declared)
	}
	return declared, nil
}

// DeviceSpec encodes a device reference: the padded mnemonic followed by
// the index rendered in the device's numbering base, 2+6 chars on the Q
// family and 4+8 chars on iQ-R.
func (mb *asciiPackager) DeviceSpec(dev Device) ([]byte, error) {
	entry, err := lookupDevice(mb.series, dev.Code)
	if err != nil {
		return nil, err
	}
	digits := 6
	if mb.series == SeriesIQR {
		digits = 8
	}
	// The index must fit both the protocol ceiling and the fixed-width
	// character field, which a 6-digit decimal device narrows further.
	limit := uint32(maxDeviceIndex)
	if entry.base == 10 && digits == 6 {
		limit = 999999
	}
	if dev.Index > limit {
		return nil, &InvalidAddressError{
			Address: dev.String(),
			Reason:  fmt.Sprintf("index %d does not fit the %d-digit device field", dev.Index, digits),
		}
	}
	if entry.base == 16 {
		return fmt.Appendf([]byte(entry.ascii), "%0*X", digits, dev.Index), nil
	}
	return fmt.Appendf([]byte(entry.ascii), "%0*d", digits, dev.Index), nil
}

// PointCount encodes a point or length count as 4 hex chars.
func (mb *asciiPackager) PointCount(n int) []byte {
	return appendHex16(nil, uint16(n))
}

// PackBits packs bit values one '0'/'1' character per point.
func (mb *asciiPackager) PackBits(values []bool) []byte {
	data := make([]byte, len(values))
	for i, v := range values {
		if v {
			data[i] = '1'
		} else {
			data[i] = '0'
		}
	}
	return data
}

// UnpackBits is the inverse of PackBits.
func (mb *asciiPackager) UnpackBits(data []byte, count int) ([]bool, error) {
	if len(data) != count {
		return nil, fmt.Errorf("%w: %d payload chars do not hold %d bit points", ErrMalformedFrame, len(data), count)
	}
	values := make([]bool, count)
	for i, c := range data {
		switch c {
		case '0':
		case '1':
			values[i] = true
		default:
			return nil, fmt.Errorf("%w: bit value %q is not '0' or '1'", ErrMalformedFrame, c)
		}
	}
	return values, nil
}

// PackWords packs 16-bit values as 4 hex chars each.
func (mb *asciiPackager) PackWords(words []uint16) []byte {
	data := make([]byte, 0, 4*len(words))
	for _, w := range words {
		data = appendHex16(data, w)
	}
	return data
}

// UnpackWords is the inverse of PackWords.
func (mb *asciiPackager) UnpackWords(data []byte, count int) ([]uint16, error) {
	if len(data) != 4*count {
		return nil, fmt.Errorf("%w: %d payload chars do not hold %d word points", ErrMalformedFrame, len(data), count)
	}
	words := make([]uint16, count)
	for i := range words {
		w, err := parseHex(data[4*i : 4*i+4])
		if err != nil {
			return nil, fmt.Errorf("%w: word value %q is not hexadecimal", ErrMalformedFrame, data[4*i:4*i+4])
		}
		words[i] = uint16(w)
	}
	return words, nil
}

func appendHex8(dst []byte, v byte) []byte {
	return append(dst, hexTable[v>>4], hexTable[v&0xF])
}

func appendHex16(dst []byte, v uint16) []byte {
	return append(dst, hexTable[v>>12&0xF], hexTable[v>>8&0xF], hexTable[v>>4&0xF], hexTable[v&0xF])
}

func parseHex(data []byte) (uint64, error) {
	return strconv.ParseUint(string(data), 16, 32)
}
