// File: extension/negotiator.go
// Package extension
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Negotiation policy: offers are tried in client-advertised order, each
// against the configured handshakers in priority order; the first
// non-nil match wins. A match whose reserved bits collide with an
// already-accepted extension is discarded — first accepted wins, no
// backtracking. Codec installation happens only after the full decision.

package extension

import (
	"fmt"

	"github.com/emailbike/wspipe/api"
)

type accepted struct {
	ext   Extension
	offer Offer
}

// Result is an ordered set of accepted extensions with pairwise-disjoint
// reserved bits. The zero value is an empty result.
type Result struct {
	list []accepted
}

// Negotiate runs the negotiation policy over the client's offers.
// Offers with no matching handshaker are dropped silently; duplicate
// offer names are evaluated independently.
func Negotiate(offers []Offer, handshakers []Handshaker) Result {
	var res Result
	var claimed byte
	for _, offer := range offers {
		var ext Extension
		for _, h := range handshakers {
			if e := h.HandshakeExtension(offer); e != nil {
				ext = e
				break
			}
		}
		if ext == nil {
			continue
		}
		if ext.RSV()&claimed != 0 {
			continue
		}
		claimed |= ext.RSV()
		res.list = append(res.list, accepted{ext: ext, offer: ext.NewResponseOffer()})
	}
	return res
}

// Empty reports whether no extension was accepted.
func (r Result) Empty() bool {
	return len(r.list) == 0
}

// Names returns the accepted extension names in acceptance order.
func (r Result) Names() []string {
	out := make([]string, len(r.list))
	for i, a := range r.list {
		out[i] = a.offer.Name
	}
	return out
}

// ResponseHeader renders the Sec-WebSocket-Extensions response value, or
// "" when nothing was accepted.
func (r Result) ResponseHeader() string {
	if r.Empty() {
		return ""
	}
	offers := make([]Offer, len(r.list))
	for i, a := range r.list {
		offers[i] = a.offer
	}
	return FormatHeader(offers)
}

// Install places every accepted extension's codecs into the pipeline:
// encoders directly after the WebSocket frame encoder, decoders directly
// before the frame decoder, both in acceptance order. Installation is
// all-or-nothing per accepted extension.
func (r Result) Install(p api.Pipeline) error {
	encAnchor := api.StageWSEncoder
	for i, a := range r.list {
		encName := fmt.Sprintf("wsext%d-encoder", i)
		if err := p.InsertAfter(encAnchor, encName, a.ext.NewEncoder()); err != nil {
			return err
		}
		encAnchor = encName

		decName := fmt.Sprintf("wsext%d-decoder", i)
		if err := p.InsertBefore(api.StageWSDecoder, decName, a.ext.NewDecoder()); err != nil {
			return err
		}
	}
	return nil
}
