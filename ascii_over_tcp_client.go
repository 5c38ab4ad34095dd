// Copyright 2018 xft. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package melsec

// ASCII3EOverTCPClientHandler bundles an ASCII 3E packager with a TCP
// transporter. The ASCII dialect trades frame size for readability on
// the wire; the transport underneath is the same.
type ASCII3EOverTCPClientHandler struct {
	asciiPackager
	tcpTransporter
}

// NewASCII3EOverTCPClientHandler allocates and initializes an ASCII3EOverTCPClientHandler.
func NewASCII3EOverTCPClientHandler(address string, series Series) *ASCII3EOverTCPClientHandler {
	h := &ASCII3EOverTCPClientHandler{asciiPackager: newASCIIPackager(profile3E, series)}
	h.Address = address
	h.Timeout = tcpTimeout
	h.IdleTimeout = tcpIdleTimeout
	h.framing = &h.asciiPackager
	return h
}

// ASCII4EOverTCPClientHandler bundles an ASCII 4E packager with a TCP transporter.
type ASCII4EOverTCPClientHandler struct {
	asciiPackager
	tcpTransporter
}

// NewASCII4EOverTCPClientHandler allocates and initializes an ASCII4EOverTCPClientHandler.
func NewASCII4EOverTCPClientHandler(address string, series Series) *ASCII4EOverTCPClientHandler {
	h := &ASCII4EOverTCPClientHandler{asciiPackager: newASCIIPackager(profile4E, series)}
	h.Address = address
	h.Timeout = tcpTimeout
	h.IdleTimeout = tcpIdleTimeout
	h.framing = &h.asciiPackager
	return h
}

// ASCIIOverTCPClient creates an ASCII 3E client with default handler and
// given connect string.
func ASCIIOverTCPClient(address string, series Series) Client {
	handler := NewASCII3EOverTCPClientHandler(address, series)
	return NewClient(handler)
}
