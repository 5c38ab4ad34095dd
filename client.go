// Copyright 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package melsec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
)

// logger is the interface to the required logging functions
type logger interface {
	Printf(format string, v ...interface{})
}

// ClientHandler is the interface that groups the Packager and Transporter methods.
type ClientHandler interface {
	Packager
	Transporter
	Connector
}

type client struct {
	packager    Packager
	transporter Transporter
	connector   Connector
}

// NewClient creates a new MC protocol client with given backend handler.
func NewClient(handler ClientHandler) Client {
	return &client{packager: handler, transporter: handler, connector: handler}
}

// NewClient2 creates a new MC protocol client with given backend packager
// and transporter. The caller owns the connection lifecycle: after a
// malformed response the client has no Connector to tear down, so the
// caller must discard the connection itself.
func NewClient2(packager Packager, transporter Transporter) Client {
	return &client{packager: packager, transporter: transporter}
}

// Read implements random (named-point) access, command 0x0403.
//
// Request data:
//
//	Point count           : 1 count field
//	Device spec           : 1 per point, DWord split into two word points
//
// Response data:
//
//	Values                : nibble-packed bits or little-endian words
func (mb *client) Read(ctx context.Context, tags []QueryTag) ([]Value, error) {
	devices, err := mb.parseTags(tags)
	if err != nil {
		return nil, err
	}
	batches, err := plan(tags)
	if err != nil {
		return nil, err
	}

	results := make([]Value, len(tags))
	for bi := range batches {
		b := &batches[bi]
		data, err := mb.encodeRandomRead(b, devices)
		if err != nil {
			return nil, err
		}
		resp, err := mb.send(ctx, &Request{
			Command:    CmdRandomRead,
			Subcommand: mb.packager.Series().Subcommand(b.Unit),
			Data:       data,
		})
		if err != nil {
			return nil, &BatchError{Batch: bi, TagIndices: b.indices(), Err: err}
		}
		if err := mb.decodeBatch(b, devices, resp.Data, results); err != nil {
			return nil, &BatchError{Batch: bi, TagIndices: b.indices(), Err: err}
		}
	}
	return results, nil
}

// Write implements random (named-point) access, command 0x1402. Values
// are validated against their declared type width before any frame is
// built, so a TypeMismatchError never leaves devices partially written.
func (mb *client) Write(ctx context.Context, writes []TagWrite) error {
	tags := make([]QueryTag, len(writes))
	for i, w := range writes {
		if w.Value > w.Tag.Type.Max() {
			return &TypeMismatchError{Device: w.Tag.Device, Type: w.Tag.Type, Value: w.Value}
		}
		tags[i] = w.Tag
	}
	devices, err := mb.parseTags(tags)
	if err != nil {
		return err
	}
	batches, err := plan(tags)
	if err != nil {
		return err
	}

	for bi := range batches {
		b := &batches[bi]
		data, err := mb.encodeRandomWrite(b, devices, writes)
		if err != nil {
			return err
		}
		_, err = mb.send(ctx, &Request{
			Command:    CmdRandomWrite,
			Subcommand: mb.packager.Series().Subcommand(b.Unit),
			Data:       data,
		})
		if err != nil {
			return &BatchError{Batch: bi, TagIndices: b.indices(), Err: err}
		}
	}
	return nil
}

// ReadBlock implements contiguous batch access, command 0x0401.
//
// Request data:
//
//	Device spec           : starting device
//	Point count           : count in the type's access unit
func (mb *client) ReadBlock(ctx context.Context, start string, count int, dt DataType) ([]Value, error) {
	if count <= 0 {
		return nil, ErrEmptyBatch
	}
	series := mb.packager.Series()
	dev, err := ParseDevice(series, start)
	if err != nil {
		return nil, err
	}
	points := count * dt.Points()
	if points > ceiling(dt.Unit()) {
		return nil, fmt.Errorf("%w: %d %s points exceed the per-frame maximum %d",
			ErrMalformedBatch, points, dt.Unit(), ceiling(dt.Unit()))
	}
	if err := checkBlockEnd(start, dev, points); err != nil {
		return nil, err
	}

	spec, err := mb.packager.DeviceSpec(dev)
	if err != nil {
		return nil, err
	}
	data := append(spec, mb.packager.PointCount(points)...)
	resp, err := mb.send(ctx, &Request{
		Command:    CmdBatchRead,
		Subcommand: series.Subcommand(dt.Unit()),
		Data:       data,
	})
	if err != nil {
		return nil, err
	}

	results := make([]Value, count)
	if dt == Bit {
		bits, err := mb.packager.UnpackBits(resp.Data, count)
		if err != nil {
			return nil, err
		}
		for i, bit := range bits {
			raw := uint64(0)
			if bit {
				raw = 1
			}
			results[i] = newValue(dev.offset(i).String(), dt, raw)
		}
		return results, nil
	}
	words, err := mb.packager.UnpackWords(resp.Data, points)
	if err != nil {
		return nil, err
	}
	for i := range results {
		var raw uint64
		for w := 0; w < dt.Words(); w++ {
			raw |= uint64(words[i*dt.Words()+w]) << (16 * w)
		}
		results[i] = newValue(dev.offset(i*dt.Points()).String(), dt, raw)
	}
	return results, nil
}

// WriteBlock implements contiguous batch access, command 0x1401.
func (mb *client) WriteBlock(ctx context.Context, start string, dt DataType, values []uint64) error {
	if len(values) == 0 {
		return ErrEmptyBatch
	}
	series := mb.packager.Series()
	dev, err := ParseDevice(series, start)
	if err != nil {
		return err
	}
	points := len(values) * dt.Points()
	if points > ceiling(dt.Unit()) {
		return fmt.Errorf("%w: %d %s points exceed the per-frame maximum %d",
			ErrMalformedBatch, points, dt.Unit(), ceiling(dt.Unit()))
	}
	if err := checkBlockEnd(start, dev, points); err != nil {
		return err
	}
	for i, v := range values {
		if v > dt.Max() {
			return &TypeMismatchError{Device: dev.offset(i * dt.Points()).String(), Type: dt, Value: v}
		}
	}

	spec, err := mb.packager.DeviceSpec(dev)
	if err != nil {
		return err
	}
	data := append(spec, mb.packager.PointCount(points)...)
	if dt == Bit {
		bits := make([]bool, len(values))
		for i, v := range values {
			bits[i] = v != 0
		}
		data = append(data, mb.packager.PackBits(bits)...)
	} else {
		data = append(data, mb.packager.PackWords(wordsOf(dt, values))...)
	}

	_, err = mb.send(ctx, &Request{
		Command:    CmdBatchWrite,
		Subcommand: series.Subcommand(dt.Unit()),
		Data:       data,
	})
	return err
}

// SelfTest sends a loopback frame, command 0x0619. The payload is limited
// to the characters 0-9 and A-F by the protocol and is echoed verbatim on
// success.
func (mb *client) SelfTest(ctx context.Context, payload []byte) error {
	if len(payload) == 0 {
		return ErrEmptyBatch
	}
	for _, c := range payload {
		if (c < '0' || c > '9') && (c < 'A' || c > 'F') {
			return fmt.Errorf("melsec: loopback payload byte %q is outside 0-9 A-F", c)
		}
	}

	data := append(mb.packager.PointCount(len(payload)), payload...)
	resp, err := mb.send(ctx, &Request{Command: CmdSelfTest, Subcommand: 0x0000, Data: data})
	if err != nil {
		return err
	}
	if !bytes.Equal(resp.Data, data) {
		return fmt.Errorf("%w: loopback response does not echo the request payload", ErrMalformedFrame)
	}
	return nil
}

// Helpers

// send encodes a request, performs one round-trip and decodes the
// response. A nonzero end code surfaces as *PLCError from Decode. A
// Decode failure means the stream position is unknown, so the
// connection is closed rather than reused.
func (mb *client) send(ctx context.Context, request *Request) (*Response, error) {
	frame, err := mb.packager.Encode(request)
	if err != nil {
		return nil, err
	}
	respFrame, err := mb.transporter.Send(ctx, frame)
	if err != nil {
		return nil, err
	}
	resp, err := mb.packager.Decode(respFrame)
	if err != nil {
		mb.dropDesynced(err)
	}
	return resp, err
}

// dropDesynced closes the connection after a framing-level decode
// failure. PLC end codes arrive in well-formed frames and keep the
// connection.
func (mb *client) dropDesynced(err error) {
	if mb.connector == nil {
		return
	}
	var lenErr ErrFrameLength
	if errors.Is(err, ErrMalformedFrame) || errors.As(err, &lenErr) {
		mb.connector.Close()
	}
}

// checkBlockEnd rejects a block whose last point falls past the
// device-number field maximum before any frame is built.
func checkBlockEnd(start string, dev Device, points int) error {
	if end := uint64(dev.Index) + uint64(points) - 1; end > maxDeviceIndex {
		return &InvalidAddressError{
			Address: start,
			Reason: fmt.Sprintf("block end index %d exceeds the device-number field maximum %d",
				end, uint32(maxDeviceIndex)),
		}
	}
	return nil
}

// parseTags validates every device reference before any network I/O.
func (mb *client) parseTags(tags []QueryTag) ([]Device, error) {
	if len(tags) == 0 {
		return nil, ErrEmptyBatch
	}
	series := mb.packager.Series()
	devices := make([]Device, len(tags))
	for i, tag := range tags {
		dev, err := ParseDevice(series, tag.Device)
		if err != nil {
			return nil, err
		}
		devices[i] = dev
	}
	return devices, nil
}

// encodeRandomRead builds the data block for one read frame: the point
// count followed by one device spec per point, a DWord expanding into its
// two consecutive word devices.
func (mb *client) encodeRandomRead(b *batch, devices []Device) ([]byte, error) {
	data := mb.packager.PointCount(b.points())
	for _, e := range b.Entries {
		specs, err := mb.deviceSpecs(e, devices)
		if err != nil {
			return nil, err
		}
		data = append(data, specs...)
	}
	return data, nil
}

// encodeRandomWrite builds the data block for one write frame: the point
// count, every device spec, then the packed payload block.
func (mb *client) encodeRandomWrite(b *batch, devices []Device, writes []TagWrite) ([]byte, error) {
	data := mb.packager.PointCount(b.points())
	for _, e := range b.Entries {
		specs, err := mb.deviceSpecs(e, devices)
		if err != nil {
			return nil, err
		}
		data = append(data, specs...)
	}
	if b.Unit == UnitBit {
		bits := make([]bool, 0, len(b.Entries))
		for _, e := range b.Entries {
			bits = append(bits, writes[e.Index].Value != 0)
		}
		return append(data, mb.packager.PackBits(bits)...), nil
	}
	var words []uint16
	for _, e := range b.Entries {
		v := writes[e.Index].Value
		for w := 0; w < e.Tag.Type.Words(); w++ {
			words = append(words, uint16(v>>(16*w)))
		}
	}
	return append(data, mb.packager.PackWords(words)...), nil
}

// deviceSpecs encodes the device references one batch entry occupies.
func (mb *client) deviceSpecs(e batchEntry, devices []Device) ([]byte, error) {
	dev := devices[e.Index]
	var out []byte
	for p := 0; p < e.Tag.Type.Points(); p++ {
		spec, err := mb.packager.DeviceSpec(dev.offset(p))
		if err != nil {
			return nil, err
		}
		out = append(out, spec...)
	}
	return out, nil
}

// decodeBatch unpacks one response payload into the caller-ordered result
// slice using the batch's original indices.
func (mb *client) decodeBatch(b *batch, devices []Device, data []byte, results []Value) error {
	if b.Unit == UnitBit {
		bits, err := mb.packager.UnpackBits(data, b.points())
		if err != nil {
			return err
		}
		for i, e := range b.Entries {
			raw := uint64(0)
			if bits[i] {
				raw = 1
			}
			results[e.Index] = newValue(devices[e.Index].String(), e.Tag.Type, raw)
		}
		return nil
	}

	words, err := mb.packager.UnpackWords(data, b.points())
	if err != nil {
		return err
	}
	pos := 0
	for _, e := range b.Entries {
		var raw uint64
		for w := 0; w < e.Tag.Type.Words(); w++ {
			raw |= uint64(words[pos+w]) << (16 * w)
		}
		results[e.Index] = newValue(devices[e.Index].String(), e.Tag.Type, raw)
		pos += e.Tag.Type.Words()
	}
	return nil
}

// wordsOf expands write values into their word stream, low word first.
func wordsOf(dt DataType, values []uint64) []uint16 {
	words := make([]uint16, 0, len(values)*dt.Words())
	for _, v := range values {
		for w := 0; w < dt.Words(); w++ {
			words = append(words, uint16(v>>(16*w)))
		}
	}
	return words
}
