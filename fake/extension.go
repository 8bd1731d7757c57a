// File: fake/extension.go
// Package fake
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Scriptable extension handshaker and extension doubles mirroring the
// extension package contracts.

package fake

import (
	"github.com/emailbike/wspipe/api"
	"github.com/emailbike/wspipe/extension"
)

// ExtensionStage is an inert pipeline stage standing in for an extension
// codec. Inbound and outbound events pass through untouched.
type ExtensionStage struct {
	Label string
}

// HandleInbound implements api.InboundStage.
func (s *ExtensionStage) HandleInbound(ctx api.PipelineContext, msg any) error {
	return ctx.FireInbound(msg)
}

// HandleOutbound implements api.OutboundStage.
func (s *ExtensionStage) HandleOutbound(msg any) (any, error) {
	return msg, nil
}

// Extension is a scriptable extension.Extension.
type Extension struct {
	Name    string
	RSVBits byte
	Params  []extension.Param

	EncoderCalls int
	DecoderCalls int
}

// RSV implements extension.Extension.
func (e *Extension) RSV() byte { return e.RSVBits }

// NewResponseOffer implements extension.Extension.
func (e *Extension) NewResponseOffer() extension.Offer {
	return extension.Offer{Name: e.Name, Params: e.Params}
}

// NewEncoder implements extension.Extension.
func (e *Extension) NewEncoder() api.Stage {
	e.EncoderCalls++
	return &ExtensionStage{Label: e.Name + "-encoder"}
}

// NewDecoder implements extension.Extension.
func (e *Extension) NewDecoder() api.Stage {
	e.DecoderCalls++
	return &ExtensionStage{Label: e.Name + "-decoder"}
}

// ExtensionHandshaker matches offers by name against scripted extensions.
type ExtensionHandshaker struct {
	// Matches maps offer names to the extension to return.
	Matches map[string]*Extension

	// Seen records every offer name this handshaker was asked about.
	Seen []string
}

// NewExtensionHandshaker builds a handshaker accepting the given
// extensions by name.
func NewExtensionHandshaker(exts ...*Extension) *ExtensionHandshaker {
	m := make(map[string]*Extension, len(exts))
	for _, e := range exts {
		m[e.Name] = e
	}
	return &ExtensionHandshaker{Matches: m}
}

// HandshakeExtension implements extension.Handshaker.
func (h *ExtensionHandshaker) HandshakeExtension(offer extension.Offer) extension.Extension {
	h.Seen = append(h.Seen, offer.Name)
	if e, ok := h.Matches[offer.Name]; ok {
		return e
	}
	return nil
}
