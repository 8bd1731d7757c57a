// File: protocol/accept.go
// Package protocol implements the server side of the RFC6455 opening and
// closing handshakes.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Accept-key derivation and upgrade-header validation helpers.

package protocol

import (
	"crypto/sha1"
	"encoding/base64"
	"net/http"

	"golang.org/x/net/http/httpguts"
)

// WebSocketGUID is the fixed RFC6455 key-hashing GUID.
const WebSocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// MaxHandshakeHeadersSize caps the combined length of handshake headers.
const MaxHandshakeHeadersSize = 8192

// Standard handshake header names.
const (
	HeaderConnection             = "Connection"
	HeaderUpgrade                = "Upgrade"
	HeaderSecWebSocketKey        = "Sec-WebSocket-Key"
	HeaderSecWebSocketAccept     = "Sec-WebSocket-Accept"
	HeaderSecWebSocketProtocol   = "Sec-WebSocket-Protocol"
	HeaderSecWebSocketExtensions = "Sec-WebSocket-Extensions"
)

// ComputeAcceptKey derives the Sec-WebSocket-Accept value from the
// client's Sec-WebSocket-Key per RFC6455 section 1.3. Pure function of
// the key string.
func ComputeAcceptKey(clientKey string) string {
	hash := sha1.Sum([]byte(clientKey + WebSocketGUID))
	return base64.StdEncoding.EncodeToString(hash[:])
}

// headerContainsToken reports whether any value of the named header
// contains the token, case-insensitively.
func headerContainsToken(h http.Header, name, token string) bool {
	return httpguts.HeaderValuesContainsToken(h.Values(name), token)
}

// headersWithinLimit guards against oversized handshake headers.
func headersWithinLimit(h http.Header) bool {
	total := 0
	for k, vs := range h {
		total += len(k)
		for _, v := range vs {
			total += len(v)
			if total > MaxHandshakeHeadersSize {
				return false
			}
		}
	}
	return true
}
