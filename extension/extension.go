// File: extension/extension.go
// Package extension implements server-side negotiation of WebSocket
// protocol extensions advertised through Sec-WebSocket-Extensions.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package extension

import "github.com/emailbike/wspipe/api"

// Reserved frame-header bits an extension may claim. Two negotiated
// extensions must never share a bit.
const (
	RSV1 byte = 0x04
	RSV2 byte = 0x02
	RSV3 byte = 0x01
)

// Param is one extension parameter. Order matters on the wire, so offers
// carry a slice rather than a map.
type Param struct {
	Name  string
	Value string
}

// Offer is one client-requested extension entry: a name plus its ordered
// parameters.
type Offer struct {
	Name   string
	Params []Param
}

// Param returns the value of the named parameter and whether it was
// present. Parameter names match case-sensitively.
func (o Offer) Param(name string) (string, bool) {
	for _, p := range o.Params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// Extension is one negotiated extension instance.
type Extension interface {
	// RSV returns the reserved-bit mask this extension claims.
	RSV() byte

	// NewResponseOffer returns the entry to echo in the response header.
	NewResponseOffer() Offer

	// NewEncoder returns the outbound codec stage for this extension.
	NewEncoder() api.Stage

	// NewDecoder returns the inbound codec stage for this extension.
	NewDecoder() api.Stage
}

// Handshaker negotiates a single extension offer.
type Handshaker interface {
	// HandshakeExtension returns the negotiated extension for the offer,
	// or nil when the offer does not match.
	HandshakeExtension(offer Offer) Extension
}
