// File: protocol/config.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Immutable frame decoder configuration. Built once at handshaker
// construction; read-only afterwards.

package protocol

// DefaultMaxFramePayload bounds a single frame's payload unless
// configured otherwise. Protects against memory exhaustion from
// oversized frames.
const DefaultMaxFramePayload = 1 << 20 // 1 MiB

// DecoderConfig carries the frame decoder limits negotiated at
// handshaker construction time.
type DecoderConfig struct {
	maxFramePayloadLength int64
	allowMaskMismatch     bool
	allowExtensions       bool
}

// DecoderOption configures a DecoderConfig.
type DecoderOption func(*DecoderConfig)

// WithMaxFramePayloadLength bounds a single frame's payload. Values <= 0
// keep the default.
func WithMaxFramePayloadLength(n int64) DecoderOption {
	return func(c *DecoderConfig) {
		if n > 0 {
			c.maxFramePayloadLength = n
		}
	}
}

// WithAllowMaskMismatch accepts frames that are not masked properly
// according to the standard.
func WithAllowMaskMismatch() DecoderOption {
	return func(c *DecoderConfig) { c.allowMaskMismatch = true }
}

// WithAllowExtensions permits use of the reserved frame-header bits and
// enables extension negotiation during the handshake.
func WithAllowExtensions() DecoderOption {
	return func(c *DecoderConfig) { c.allowExtensions = true }
}

// NewDecoderConfig builds a decoder configuration.
func NewDecoderConfig(opts ...DecoderOption) DecoderConfig {
	c := DecoderConfig{maxFramePayloadLength: DefaultMaxFramePayload}
	for _, o := range opts {
		o(&c)
	}
	return c
}

// MaxFramePayloadLength returns the payload cap for a single frame.
func (c DecoderConfig) MaxFramePayloadLength() int64 {
	return c.maxFramePayloadLength
}

// AllowMaskMismatch reports whether improperly masked frames pass.
func (c DecoderConfig) AllowMaskMismatch() bool {
	return c.allowMaskMismatch
}

// AllowExtensions reports whether reserved bits and extension
// negotiation are permitted.
func (c DecoderConfig) AllowExtensions() bool {
	return c.allowExtensions
}
