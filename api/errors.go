// File: api/errors.go
// Package api defines the contracts shared by the wspipe packages.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error taxonomy for the handshake engine. Validation problems carry the
// offending request line; infrastructure problems are sentinel values so
// callers can branch with errors.Is.

package api

import (
	"errors"
	"fmt"
)

var (
	// ErrConnClosed reports a connection that became inactive while a
	// handshake attempt was still pending.
	ErrConnClosed = errors.New("connection closed before handshake completed")

	// ErrNoHTTPCodec reports a pipeline missing both the standalone HTTP
	// decoder stage and the combined HTTP server codec stage.
	ErrNoHTTPCodec = errors.New("no HTTP decoder and no HTTP server codec in the pipeline")
)

// HandshakeError reports a request that failed WebSocket upgrade validation.
// The connection stays open; closing it is the caller's decision.
type HandshakeError struct {
	Reason string
	Method string
	URI    string
}

func (e *HandshakeError) Error() string {
	if e.Method == "" && e.URI == "" {
		return "websocket handshake: " + e.Reason
	}
	return fmt.Sprintf("websocket handshake: %s (%s %s)", e.Reason, e.Method, e.URI)
}

// WriteError wraps a transport failure while writing the handshake response
// or a close frame. Writes are never retried: partial bytes may be out.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return "websocket handshake write: " + e.Err.Error()
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
