// File: protocol/handshaker13.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// RFC6455 (version 13) server handshake strategy.
//
// Client request:
//
//	GET /chat HTTP/1.1
//	Host: server.example.com
//	Upgrade: websocket
//	Connection: Upgrade
//	Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==
//	Sec-WebSocket-Protocol: chat, superchat
//	Sec-WebSocket-Version: 13
//
// Server response:
//
//	HTTP/1.1 101 Switching Protocols
//	Upgrade: websocket
//	Connection: Upgrade
//	Sec-WebSocket-Accept: s3pPLMBiTxaQ9kYGzzhZRbK+xOo=
//	Sec-WebSocket-Protocol: chat

package protocol

import (
	"log"
	"net/http"

	"github.com/emailbike/wspipe/api"
	"github.com/emailbike/wspipe/extension"
)

// Handshaker13 performs the version 13 opening handshake. The
// configuration is immutable after construction; every attempt's mutable
// outcome lives in the returned HandshakeResult.
type Handshaker13 struct {
	uri          string
	subprotocols []string
	cfg          DecoderConfig
	extensions   []extension.Handshaker
	logf         func(format string, args ...any)
}

// Handshaker13Option configures a Handshaker13.
type Handshaker13Option func(*Handshaker13)

// WithExtensionHandshakers sets the ordered extension negotiation policy.
// Ignored unless the decoder config allows extensions.
func WithExtensionHandshakers(hs ...extension.Handshaker) Handshaker13Option {
	return func(h *Handshaker13) { h.extensions = hs }
}

// WithHandshakerLogf overrides the debug log sink. Pass nil to silence.
func WithHandshakerLogf(logf func(string, ...any)) Handshaker13Option {
	return func(h *Handshaker13) { h.logf = logf }
}

// NewHandshaker13 builds a version 13 handshaker for the given WebSocket
// URL and CSV of supported subprotocols ("" for none, "*" for any).
func NewHandshaker13(uri, subprotocols string, cfg DecoderConfig, opts ...Handshaker13Option) *Handshaker13 {
	h := &Handshaker13{
		uri:          uri,
		subprotocols: SplitSubprotocols(subprotocols),
		cfg:          cfg,
		logf:         log.Printf,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// URI returns the target WebSocket URL.
func (h *Handshaker13) URI() string {
	return h.uri
}

// Subprotocols returns the configured subprotocol tokens.
func (h *Handshaker13) Subprotocols() []string {
	out := make([]string, len(h.subprotocols))
	copy(out, h.subprotocols)
	return out
}

// DecoderConfig returns the frame decoder limits.
func (h *Handshaker13) DecoderConfig() DecoderConfig {
	return h.cfg
}

// NewHandshakeResponse implements ServerHandshaker.
func (h *Handshaker13) NewHandshakeResponse(req *api.FullRequest, extra http.Header) (*HandshakeResult, error) {
	r := req.Req
	if r.Method != http.MethodGet {
		return nil, h.fail(r, "invalid handshake method "+r.Method)
	}
	if !headersWithinLimit(r.Header) {
		return nil, h.fail(r, "handshake headers too large")
	}
	if !headerContainsToken(r.Header, HeaderConnection, "Upgrade") {
		return nil, h.fail(r, "|Connection| header must include the 'Upgrade' token")
	}
	if !headerContainsToken(r.Header, HeaderUpgrade, "websocket") {
		return nil, h.fail(r, "|Upgrade| header must contain 'websocket'")
	}
	key := r.Header.Get(HeaderSecWebSocketKey)
	if key == "" {
		return nil, h.fail(r, "missing Sec-WebSocket-Key header")
	}

	hdr := make(http.Header)
	for k, vs := range extra {
		for _, v := range vs {
			hdr.Add(k, v)
		}
	}
	hdr.Set(HeaderUpgrade, "websocket")
	hdr.Set(HeaderConnection, "Upgrade")
	hdr.Set(HeaderSecWebSocketAccept, ComputeAcceptKey(key))

	res := &HandshakeResult{
		Response: &http.Response{
			StatusCode: http.StatusSwitchingProtocols,
			ProtoMajor: 1,
			ProtoMinor: 1,
			Header:     hdr,
		},
	}

	if requested := r.Header.Get(HeaderSecWebSocketProtocol); requested != "" {
		selected := SelectSubprotocol(requested, h.subprotocols)
		if selected == "" {
			h.debugf("requested subprotocol(s) not supported: %s", requested)
		} else {
			hdr.Set(HeaderSecWebSocketProtocol, selected)
			res.Subprotocol = selected
		}
	}

	if offered := r.Header.Get(HeaderSecWebSocketExtensions); offered != "" &&
		h.cfg.AllowExtensions() && len(h.extensions) > 0 {
		offers := extension.ParseHeader(offered)
		res.Extensions = extension.Negotiate(offers, h.extensions)
		if value := res.Extensions.ResponseHeader(); value != "" {
			hdr.Set(HeaderSecWebSocketExtensions, value)
		} else {
			h.debugf("offered extension(s) not negotiated: %s", offered)
		}
	}

	return res, nil
}

// NewFrameDecoder implements ServerHandshaker.
func (h *Handshaker13) NewFrameDecoder() api.Stage {
	return NewFrameDecoder(h.cfg)
}

// NewFrameEncoder implements ServerHandshaker.
func (h *Handshaker13) NewFrameEncoder() api.Stage {
	return NewFrameEncoder()
}

func (h *Handshaker13) fail(r *http.Request, reason string) error {
	uri := r.RequestURI
	if uri == "" && r.URL != nil {
		uri = r.URL.String()
	}
	return &api.HandshakeError{Reason: reason, Method: r.Method, URI: uri}
}

func (h *Handshaker13) debugf(format string, args ...any) {
	if h.logf != nil {
		h.logf(format, args...)
	}
}
