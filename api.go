// Copyright 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package melsec

import "context"

// QueryTag is one unit of work: a symbolic device reference and the data
// type to exchange it as.
type QueryTag struct {
	Device string
	Type   DataType
}

// TagWrite pairs a tag with the value to write. The value must fit the
// tag's data type width.
type TagWrite struct {
	Tag   QueryTag
	Value uint64
}

// Client declares the functionality of an MC protocol client regardless
// of the frame dialect and underlying transport.
//
// A Client is not safe for concurrent use: the protocol allows one
// request in flight per connection and a multi-frame operation must run
// to completion before the next begins. Callers sharing a Client across
// goroutines must serialize access themselves.
type Client interface {
	// Read reads a list of named device points and returns their values
	// in the order requested. Tags may mix access units and device
	// codes; the client splits them into as many frames as the per-frame
	// point ceilings require.
	Read(ctx context.Context, tags []QueryTag) ([]Value, error)
	// Write writes a list of named device points. If the operation
	// spans several frames and one fails, frames already sent remain
	// executed on the PLC; the returned *BatchError names the failed
	// tags by their original indices.
	Write(ctx context.Context, writes []TagWrite) error

	// ReadBlock reads count consecutive points of the given type
	// starting at the start device.
	ReadBlock(ctx context.Context, start string, count int, dt DataType) ([]Value, error)
	// WriteBlock writes consecutive points of the given type starting
	// at the start device.
	WriteBlock(ctx context.Context, start string, dt DataType, values []uint64) error

	// SelfTest sends a loopback frame and verifies the PLC echoes the
	// payload, which may only contain the characters 0-9 and A-F.
	SelfTest(ctx context.Context, payload []byte) error
}
