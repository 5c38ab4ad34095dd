// Copyright 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package melsec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"syscall"
	"time"
)

const (
	// tcpMaxLength bounds a whole response frame; the largest legal
	// payload is a full word batch in ASCII form.
	tcpMaxLength = 8192

	tcpTimeout     = 10 * time.Second
	tcpIdleTimeout = 60 * time.Second
)

// ErrFrameLength informs about an out-of-range length field in a
// response header.
type ErrFrameLength int

func (length ErrFrameLength) Error() string {
	return fmt.Sprintf("melsec: length in response header '%d' must cover the end code and not exceed '%d'",
		int(length), tcpMaxLength)
}

// framing is the packager's view the transporter needs to cut one
// response out of the byte stream without knowing the dialect.
type framing interface {
	responseHeaderLen() int
	responseBodyLen(header []byte) (int, error)
}

// TCP3EClientHandler bundles a binary 3E packager with a TCP transporter.
type TCP3EClientHandler struct {
	binaryPackager
	tcpTransporter
}

// NewTCP3EClientHandler allocates a new TCP3EClientHandler.
func NewTCP3EClientHandler(address string, series Series) *TCP3EClientHandler {
	h := &TCP3EClientHandler{binaryPackager: newBinaryPackager(profile3E, series)}
	h.Address = address
	h.Timeout = tcpTimeout
	h.IdleTimeout = tcpIdleTimeout
	h.framing = &h.binaryPackager
	return h
}

// TCP4EClientHandler bundles a binary 4E packager with a TCP transporter.
type TCP4EClientHandler struct {
	binaryPackager
	tcpTransporter
}

// NewTCP4EClientHandler allocates a new TCP4EClientHandler.
func NewTCP4EClientHandler(address string, series Series) *TCP4EClientHandler {
	h := &TCP4EClientHandler{binaryPackager: newBinaryPackager(profile4E, series)}
	h.Address = address
	h.Timeout = tcpTimeout
	h.IdleTimeout = tcpIdleTimeout
	h.framing = &h.binaryPackager
	return h
}

// TCPClient creates a binary 3E client with default handler and given
// connect string.
func TCPClient(address string, series Series) Client {
	handler := NewTCP3EClientHandler(address, series)
	return NewClient(handler)
}

// tcpTransporter implements Transporter interface.
type tcpTransporter struct {
	// Connect string
	Address string
	// Connect & Read timeout
	Timeout time.Duration
	// Idle timeout to close the connection
	IdleTimeout time.Duration
	// Transmission logger
	Logger logger

	// Response envelope geometry, wired in by the handler constructor.
	framing framing

	// TCP connection
	mu           sync.Mutex
	conn         net.Conn
	closeTimer   *time.Timer
	lastActivity time.Time
}

// Send performs one request/response round-trip. The protocol carries no
// request identifiers, so the mutex keeps a single frame in flight per
// connection. Any framing failure tears the connection down: there is no
// way to resynchronize mid-frame.
func (mb *tcpTransporter) Send(ctx context.Context, request []byte) ([]byte, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := mb.connect(); err != nil {
		return nil, err
	}

	// Set timer to close when idle
	mb.lastActivity = time.Now()
	mb.startCloseTimer()

	var deadline time.Time
	if mb.Timeout > 0 {
		deadline = mb.lastActivity.Add(mb.Timeout)
	}
	if ctxDeadline, ok := ctx.Deadline(); ok && (deadline.IsZero() || ctxDeadline.Before(deadline)) {
		deadline = ctxDeadline
	}
	if err := mb.conn.SetDeadline(deadline); err != nil {
		return nil, err
	}

	mb.logf("melsec: send % x", request)
	if _, err := mb.conn.Write(request); err != nil {
		mb.close()
		return nil, wrapConnErr(err)
	}

	headerLen := mb.framing.responseHeaderLen()
	response := make([]byte, headerLen, tcpMaxLength)
	if _, err := io.ReadFull(mb.conn, response); err != nil {
		mb.close()
		return nil, wrapConnErr(err)
	}
	bodyLen, err := mb.framing.responseBodyLen(response)
	if err != nil {
		mb.close()
		return nil, err
	}
	response = response[:headerLen+bodyLen]
	if _, err := io.ReadFull(mb.conn, response[headerLen:]); err != nil {
		mb.close()
		return nil, wrapConnErr(err)
	}
	mb.logf("melsec: recv % x", response)
	return response, nil
}

// wrapConnErr marks closed, reset and timed-out connections so callers can
// tell a dead transport from a protocol failure. The connection has already
// been torn down by the time this is returned.
func wrapConnErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return fmt.Errorf("%w: %v", ErrConnectionLost, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrConnectionLost, err)
	}
	return err
}

// Connect establishes a new connection to the address in Address.
// Connect and Close are exported so that multiple requests can be done with one session
func (mb *tcpTransporter) Connect() error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	return mb.connect()
}

func (mb *tcpTransporter) connect() error {
	if mb.conn == nil {
		dialer := net.Dialer{Timeout: mb.Timeout}
		conn, err := dialer.Dial("tcp", mb.Address)
		if err != nil {
			return err
		}
		mb.conn = conn
	}
	return nil
}

func (mb *tcpTransporter) startCloseTimer() {
	if mb.IdleTimeout <= 0 {
		return
	}
	if mb.closeTimer == nil {
		mb.closeTimer = time.AfterFunc(mb.IdleTimeout, mb.closeIdle)
	} else {
		mb.closeTimer.Reset(mb.IdleTimeout)
	}
}

// Close closes current connection.
func (mb *tcpTransporter) Close() error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	return mb.close()
}

func (mb *tcpTransporter) logf(format string, v ...interface{}) {
	if mb.Logger != nil {
		mb.Logger.Printf(format, v...)
	}
}

// close closes current connection. Caller must hold the mutex before calling this method.
func (mb *tcpTransporter) close() (err error) {
	if mb.conn != nil {
		err = mb.conn.Close()
		mb.conn = nil
	}
	return
}

// closeIdle closes the connection if last activity is passed behind IdleTimeout.
func (mb *tcpTransporter) closeIdle() {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if mb.IdleTimeout <= 0 {
		return
	}
	idle := time.Since(mb.lastActivity)
	if idle >= mb.IdleTimeout {
		mb.logf("melsec: closing connection due to idle timeout: %v", idle)
		mb.close()
	}
}
