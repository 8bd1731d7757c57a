// File: protocol/handshaker.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Version handshake strategy contract. One engine drives a closed set of
// per-version strategies; each strategy validates an upgrade request,
// builds the response, and supplies the frame codec pair for its wire
// version.

package protocol

import (
	"net/http"
	"strings"

	"github.com/emailbike/wspipe/api"
	"github.com/emailbike/wspipe/extension"
)

// SubprotocolWildcard accepts any requested subprotocol.
const SubprotocolWildcard = "*"

// HandshakeResult is the attempt-scoped outcome of a validated upgrade
// request. The selected subprotocol lives here, never on the strategy, so
// one strategy instance may serve concurrent attempts.
type HandshakeResult struct {
	// Response is the 101 response to transmit.
	Response *http.Response

	// Subprotocol is the selected subprotocol, "" when none matched.
	Subprotocol string

	// Extensions holds the negotiated extensions awaiting codec install.
	Extensions extension.Result
}

// ServerHandshaker is the per-version handshake strategy.
type ServerHandshaker interface {
	// URI returns the target WebSocket URL, e.g. "ws://host/path".
	URI() string

	// NewHandshakeResponse validates req and builds the handshake
	// response plus attempt-scoped negotiation results. Extra headers are
	// merged into the response before the mandatory ones.
	NewHandshakeResponse(req *api.FullRequest, extra http.Header) (*HandshakeResult, error)

	// NewFrameDecoder returns the inbound frame codec stage for this
	// version. Used only after a successful handshake.
	NewFrameDecoder() api.Stage

	// NewFrameEncoder returns the outbound frame codec stage.
	NewFrameEncoder() api.Stage
}

// SelectSubprotocol returns the first requested token, scanning left to
// right, that matches a supported token or the wildcard. Pure function:
// same inputs, same selection. Returns "" when nothing matches.
func SelectSubprotocol(requested string, supported []string) string {
	if requested == "" || len(supported) == 0 {
		return ""
	}
	for _, req := range strings.Split(requested, ",") {
		req = strings.TrimSpace(req)
		for _, sup := range supported {
			if sup == SubprotocolWildcard || req == sup {
				return req
			}
		}
	}
	return ""
}

// SplitSubprotocols parses a CSV of subprotocol tokens, trimming each.
func SplitSubprotocols(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}
