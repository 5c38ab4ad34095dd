// Copyright 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

/*
Package melsec provides a client for the Mitsubishi MELSEC Communication
(MC) protocol over TCP, supporting the 3E and 4E frame dialects in both
binary and ASCII form.
*/
package melsec

import (
	"context"
	"errors"
	"fmt"
)

const (
	// CmdRandomRead reads a list of named device points.
	CmdRandomRead = 0x0403
	// CmdRandomWrite writes a list of named device points.
	CmdRandomWrite = 0x1402
	// CmdBatchRead reads a contiguous run of device points.
	CmdBatchRead = 0x0401
	// CmdBatchWrite writes a contiguous run of device points.
	CmdBatchWrite = 0x1401
	// CmdSelfTest performs a loopback test against the PLC.
	CmdSelfTest = 0x0619
)

const (
	// SubWordQ selects word-unit access on Q/L/QnA/iQ-L series.
	SubWordQ = 0x0000
	// SubBitQ selects bit-unit access on Q/L/QnA/iQ-L series.
	SubBitQ = 0x0001
	// SubWordIQR selects word-unit access on iQ-R series.
	SubWordIQR = 0x0002
	// SubBitIQR selects bit-unit access on iQ-R series.
	SubBitIQR = 0x0003
)

// defaultMonitoringTimer is the PLC-side wait in 250 ms ticks (4 = 1 s).
// The zero value means "wait forever" on the wire, so packagers are
// constructed with this non-zero default and zero must be opted into via
// SetWaitForever.
const defaultMonitoringTimer uint16 = 4

// ErrEmptyBatch is returned when an operation is invoked with no tags.
var ErrEmptyBatch = errors.New("melsec: empty batch")

// ErrMalformedBatch is returned when a batch's declared point count does
// not line up with the data type widths of its tags.
var ErrMalformedBatch = errors.New("melsec: malformed batch")

// ErrMalformedFrame is returned when a response does not match the
// expected envelope shape. The connection must be closed and not reused.
var ErrMalformedFrame = errors.New("melsec: malformed response frame")

// ErrConnectionLost is returned when the transport reports a closed or
// reset connection. The client never reconnects on its own; a write may
// have partially executed on the PLC, so reconnection is a caller decision.
var ErrConnectionLost = errors.New("melsec: connection lost")

// PLCError is a nonzero end code reported by the PLC itself. The raw code
// is preserved so callers can consult the vendor documentation.
type PLCError struct {
	EndCode uint16
}

func (e *PLCError) Error() string {
	if text, ok := endCodeText[e.EndCode]; ok {
		return fmt.Sprintf("melsec: plc rejected request, end code 0x%04X: %s", e.EndCode, text)
	}
	return fmt.Sprintf("melsec: plc rejected request, end code 0x%04X", e.EndCode)
}

// endCodeText maps known end codes to the vendor manual's description.
var endCodeText = map[uint16]string{
	0x0050: "ASCII data received that cannot be converted to binary",
	0x0051: "number of read or write points is outside the allowable range",
	0x0052: "number of read or write points is outside the allowable range",
	0x0053: "number of read or write points is outside the allowable range",
	0x0054: "number of read or write points is outside the allowable range",
	0x0055: "online change is disabled and a RUN-state write was requested",
	0xC056: "read or write request exceeds the maximum address",
	0xC058: "request data length does not match the character area",
	0xC059: "command or subcommand not supported by the CPU module",
	0xC05B: "CPU module cannot access the specified device",
	0xC05C: "request data is incorrect (e.g. bit access to a word device)",
	0xC05D: "no monitor registration",
	0xC05F: "request cannot be executed on the CPU module",
	0xC060: "request data is incorrect (e.g. bit device data specification)",
	0xC061: "request data length does not match the number of data points",
	0xC06F: "communication data code mismatch (binary vs ASCII)",
	0xC070: "device memory extension cannot be specified for the target",
	0xC0B5: "CPU module cannot handle the data specified",
	0xC200: "remote password is incorrect",
	0xC201: "communication port is locked with the remote password",
	0xC204: "different device requested remote password unlock",
}

// BatchError reports which frame of a multi-frame operation failed, by
// the caller's original tag indices. Frames already sent remain executed
// on the PLC; the caller decides on compensating action.
type BatchError struct {
	Batch      int
	TagIndices []int
	Err        error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("melsec: batch %d (tags %v) failed: %v", e.Batch, e.TagIndices, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// Request is a dialect-independent MC command before framing.
type Request struct {
	Command    uint16
	Subcommand uint16
	Data       []byte
}

// Response is the decoded payload of a response frame. A nonzero end code
// is surfaced by Decode as *PLCError instead, so Data is only ever valid
// payload bytes.
type Response struct {
	EndCode uint16
	Data    []byte
}

// Packager specifies one frame dialect: it wraps commands into wire
// frames, parses response frames, and owns the dialect's device-spec and
// payload encodings.
type Packager interface {
	// Encode wraps a request into a complete frame for the wire.
	Encode(req *Request) (frame []byte, err error)
	// Decode parses a response frame. A nonzero end code is returned as
	// *PLCError and no payload is extracted.
	Decode(frame []byte) (resp *Response, err error)
	// Series reports the PLC series the packager encodes for.
	Series() Series

	// DeviceSpec encodes a single device reference.
	DeviceSpec(dev Device) ([]byte, error)
	// PointCount encodes a point or length count field.
	PointCount(n int) []byte
	// PackBits packs bit values for a write payload.
	PackBits(values []bool) []byte
	// UnpackBits unpacks count bit values from a response payload.
	UnpackBits(data []byte, count int) ([]bool, error)
	// PackWords packs 16-bit values for a write payload.
	PackWords(words []uint16) []byte
	// UnpackWords unpacks count 16-bit values from a response payload.
	UnpackWords(data []byte, count int) ([]uint16, error)
}

// Transporter specifies the transport layer.
type Transporter interface {
	Send(ctx context.Context, request []byte) (response []byte, err error)
}

// Connector exposes the underlying handler capability for open/connect and close the transport channel.
type Connector interface {
	Connect() error
	Close() error
}
