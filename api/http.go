// File: api/http.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// HTTP message objects flowing through a pipeline. A request is delivered
// either whole as a FullRequest, or streamed as a headers-only
// *http.Request followed by zero or more Content chunks and a terminal
// LastContent marker.

package api

import "net/http"

// Content is one body chunk of a streamed HTTP request.
type Content struct {
	Data []byte
}

// LastContent terminates a streamed HTTP request. It may carry the final
// body bytes; an empty LastContent just marks the end.
type LastContent struct {
	Data []byte
}

// FullRequest is a complete HTTP request: the header part plus the whole
// body. The handshake engine borrows it for the duration of the
// synchronous handshake call and never retains it.
type FullRequest struct {
	Req  *http.Request
	Body []byte
}
