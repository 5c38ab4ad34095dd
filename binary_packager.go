// Copyright 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package melsec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// frameProfile fixes the envelope constants of one frame dialect.
type frameProfile struct {
	name          string
	subheader     uint16
	respSubheader uint16
	// 4E frames carry a serial number and two reserved bytes after the
	// subheader; 3E frames do not.
	hasSerial bool
}

var (
	profile3E = frameProfile{name: "3E", subheader: 0x5000, respSubheader: 0xD000}
	profile4E = frameProfile{name: "4E", subheader: 0x5400, respSubheader: 0xD400, hasSerial: true}
)

// requestHeaderLen is the byte count before the length field.
func (p frameProfile) requestHeaderLen() int {
	if p.hasSerial {
		return 13 // subheader + serial + reserved + route + length
	}
	return 9 // subheader + route + length
}

// binaryPackager implements Packager for binary 3E and 4E frames.
type binaryPackager struct {
	profile frameProfile
	series  Series

	// Access route. The defaults address the local station; change them
	// only when routing through a network bridge.
	Network      byte
	PC           byte
	DestModuleIO uint16
	DestStation  byte

	// Serial is the 4E subheader serial number; the PLC echoes it in the
	// response and Decode rejects a mismatch.
	Serial uint16

	timer uint16
}

func newBinaryPackager(profile frameProfile, series Series) binaryPackager {
	return binaryPackager{
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
func (mb *binaryPackager) Series() Series { return mb.series }

// SetMonitoringTimer sets the PLC-side wait in 250 ms ticks. Zero is
// rejected because the protocol reads it as "wait forever"; use
// SetWaitForever if that is really wanted.
func (mb *binaryPackager) SetMonitoringTimer(ticks uint16) error {
	if ticks == 0 {
		return fmt.Errorf("melsec: monitoring timer 0 means wait forever, use SetWaitForever to opt in")
	}
	mb.timer = ticks
	return nil
}

// SetWaitForever makes the PLC wait indefinitely for command completion.
// The transport read timeout still applies on top of this.
func (mb *binaryPackager) SetWaitForever() { mb.timer = 0 }

// Encode wraps a request into a binary frame:
//
//	Subheader             : 2 bytes (0x5000/0x5400, big-endian on the wire)
//	Serial + reserved     : 4 bytes (4E only, serial little-endian)
//	Network number        : 1 byte
//	PC number             : 1 byte
//	Destination module IO : 2 bytes
//	Destination station   : 1 byte
//	Request length        : 2 bytes (monitoring timer onward)
//	Monitoring timer      : 2 bytes
//	Command               : 2 bytes
//	Subcommand            : 2 bytes
//	Data                  : n bytes
func (mb *binaryPackager) Encode(req *Request) ([]byte, error) {
	length := 2 + 2 + 2 + len(req.Data) // timer + command + subcommand + data
	if length > math.MaxUint16 {
		return nil, fmt.Errorf("melsec: request data length %d exceeds the frame length field", len(req.Data))
	}

	frame := make([]byte, 0, mb.profile.requestHeaderLen()+length)
	frame = binary.BigEndian.AppendUint16(frame, mb.profile.subheader)
	if mb.profile.hasSerial {
		frame = binary.LittleEndian.AppendUint16(frame, mb.Serial)
		frame = append(frame, 0x00, 0x00)
	}
	frame = append(frame, mb.Network, mb.PC)
	frame = binary.LittleEndian.AppendUint16(frame, mb.DestModuleIO)
	frame = append(frame, mb.DestStation)
	frame = binary.LittleEndian.AppendUint16(frame, uint16(length))
	frame = binary.LittleEndian.AppendUint16(frame, mb.timer)
	frame = binary.LittleEndian.AppendUint16(frame, req.Command)
	frame = binary.LittleEndian.AppendUint16(frame, req.Subcommand)
	frame = append(frame, req.Data...)
	return frame, nil
}

// Decode parses a binary response frame:
//
//	Subheader             : 2 bytes (0xD000/0xD400)
//	Serial + reserved     : 4 bytes (4E only)
//	Access route echo     : 5 bytes
//	Response length       : 2 bytes (end code onward)
//	End code              : 2 bytes
//	Data                  : n bytes
//
// A nonzero end code is returned as *PLCError and the remaining bytes are
// never interpreted as data.
func (mb *binaryPackager) Decode(frame []byte) (*Response, error) {
	header := mb.responseHeaderLen()
	if len(frame) < header+2 {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the %s response envelope", ErrMalformedFrame, len(frame), mb.profile.name)
	}
	if got := binary.BigEndian.Uint16(frame); got != mb.profile.respSubheader {
		return nil, fmt.Errorf("%w: subheader 0x%04X does not match expected 0x%04X", ErrMalformedFrame, got, mb.profile.respSubheader)
	}
	if mb.profile.hasSerial {
		if got := binary.LittleEndian.Uint16(frame[2:]); got != mb.Serial {
			return nil, fmt.Errorf("%w: serial %d does not match request serial %d", ErrMalformedFrame, got, mb.Serial)
		}
	}
	declared := int(binary.LittleEndian.Uint16(frame[header-2:]))
	if declared < 2 {
		return nil, ErrFrameLength(declared)
	}
	if len(frame)-header != declared {
		return nil, fmt.Errorf("%w: received %d payload bytes, header declares %d", ErrMalformedFrame, len(frame)-header, declared)
	}
	endCode := binary.LittleEndian.Uint16(frame[header:])
	if endCode != 0 {
		return nil, &PLCError{EndCode: endCode}
	}
	return &Response{Data: frame[header+2:]}, nil
}

// responseHeaderLen implements framing: bytes before the end code,
// including the length field.
func (mb *binaryPackager) responseHeaderLen() int {
	if mb.profile.hasSerial {
		return 13
	}
	return 9
}

// responseBodyLen implements framing: parses the declared length out of a
// full response header.
func (mb *binaryPackager) responseBodyLen(header []byte) (int, error) {
	declared := int(binary.LittleEndian.Uint16(header[len(header)-2:]))
	if declared < 2 || declared > tcpMaxLength-len(header) {
		return 0, ErrFrameLength(declared)
	}
	return declared, nil
}

// DeviceSpec encodes a device reference: a little-endian index followed
// by the numeric device code, 3+1 bytes on the Q family and 4+2 bytes on
// iQ-R.
func (mb *binaryPackager) DeviceSpec(dev Device) ([]byte, error) {
	entry, err := lookupDevice(mb.series, dev.Code)
	if err != nil {
		return nil, err
	}
	// Offset-derived indices can land past the field ceiling even when
	// the parsed start device was in range.
	if dev.Index > maxDeviceIndex {
		return nil, &InvalidAddressError{
			Address: dev.String(),
			Reason:  fmt.Sprintf("index %d exceeds the device-number field maximum %d", dev.Index, uint32(maxDeviceIndex)),
		}
	}
	if mb.series == SeriesIQR {
		spec := make([]byte, 6)
		binary.LittleEndian.PutUint32(spec, dev.Index)
		binary.LittleEndian.PutUint16(spec[4:], entry.binary)
		return spec, nil
	}
	spec := make([]byte, 4)
	binary.LittleEndian.PutUint32(spec, dev.Index)
	spec[3] = byte(entry.binary)
	return spec, nil
}

// PointCount encodes a point or length count as a little-endian word.
func (mb *binaryPackager) PointCount(n int) []byte {
	return binary.LittleEndian.AppendUint16(nil, uint16(n))
}

// PackBits packs bit values two per byte, first point in the low nibble.
func (mb *binaryPackager) PackBits(values []bool) []byte {
	data := make([]byte, (len(values)+1)/2)
	for i, v := range values {
		if !v {
			continue
		}
		shift := 0
		if i%2 == 1 {
			shift = 4
		}
		data[i/2] |= 1 << shift
	}
	return data
}

// UnpackBits is the inverse of PackBits.
func (mb *binaryPackager) UnpackBits(data []byte, count int) ([]bool, error) {
	if len(data) != (count+1)/2 {
		return nil, fmt.Errorf("%w: %d payload bytes do not hold %d bit points", ErrMalformedFrame, len(data), count)
	}
	values := make([]bool, count)
	for i := range values {
		shift := 0
		if i%2 == 1 {
			shift = 4
		}
		values[i] = data[i/2]>>shift&1 == 1
	}
	return values, nil
}

// PackWords packs 16-bit values little-endian.
func (mb *binaryPackager) PackWords(words []uint16) []byte {
	data := make([]byte, 0, 2*len(words))
	for _, w := range words {
		data = binary.LittleEndian.AppendUint16(data, w)
	}
	return data
}

// UnpackWords is the inverse of PackWords.
func (mb *binaryPackager) UnpackWords(data []byte, count int) ([]uint16, error) {
	if len(data) != 2*count {
		return nil, fmt.Errorf("%w: %d payload bytes do not hold %d word points", ErrMalformedFrame, len(data), count)
	}
	words := make([]uint16, count)
	for i := range words {
		words[i] = binary.LittleEndian.Uint16(data[2*i:])
	}
	return words, nil
}
