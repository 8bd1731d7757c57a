// File: extension/header.go
// Package extension
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Sec-WebSocket-Extensions header grammar: comma-separated entries, each
// entry "name[; param[=value]]*". Names and parameter names are matched
// case-sensitively; whitespace is trimmed at every boundary.

package extension

import "strings"

// ParseHeader parses a Sec-WebSocket-Extensions header value into offers
// in their advertised order. Empty entries are skipped; a malformed entry
// degrades to whatever tokens it yields rather than failing the parse.
func ParseHeader(value string) []Offer {
	var offers []Offer
	for _, entry := range strings.Split(value, ",") {
		parts := strings.Split(entry, ";")
		name := strings.TrimSpace(parts[0])
		if name == "" {
			continue
		}
		offer := Offer{Name: name}
		for _, raw := range parts[1:] {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			k, v, _ := strings.Cut(raw, "=")
			offer.Params = append(offer.Params, Param{
				Name:  strings.TrimSpace(k),
				Value: strings.TrimSpace(v),
			})
		}
		offers = append(offers, offer)
	}
	return offers
}

// FormatHeader renders offers as a response header value.
func FormatHeader(offers []Offer) string {
	entries := make([]string, len(offers))
	for i, o := range offers {
		var b strings.Builder
		b.WriteString(o.Name)
		for _, p := range o.Params {
			b.WriteString("; ")
			b.WriteString(p.Name)
			if p.Value != "" {
				b.WriteString("=")
				b.WriteString(p.Value)
			}
		}
		entries[i] = b.String()
	}
	return strings.Join(entries, ", ")
}
