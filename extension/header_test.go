// File: extension/header_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package extension

import (
	"reflect"
	"testing"
)

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []Offer
	}{
		{
			name:  "single name",
			value: "permessage-deflate",
			want:  []Offer{{Name: "permessage-deflate"}},
		},
		{
			name:  "parameters with and without values",
			value: "permessage-deflate; client_max_window_bits; server_max_window_bits=10",
			want: []Offer{{
				Name: "permessage-deflate",
				Params: []Param{
					{Name: "client_max_window_bits"},
					{Name: "server_max_window_bits", Value: "10"},
				},
			}},
		},
		{
			name:  "multiple entries preserve order",
			value: "main, fallback",
			want:  []Offer{{Name: "main"}, {Name: "fallback"}},
		},
		{
			name:  "whitespace trimmed at boundaries",
			value: "  main ;  p = v  ,  fallback ",
			want: []Offer{
				{Name: "main", Params: []Param{{Name: "p", Value: "v"}}},
				{Name: "fallback"},
			},
		},
		{
			name:  "empty entries skipped",
			value: ", main,,",
			want:  []Offer{{Name: "main"}},
		},
		{
			name:  "empty value",
			value: "",
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseHeader(tt.value)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseHeader(%q) = %+v, want %+v", tt.value, got, tt.want)
			}
		})
	}
}

func TestFormatHeader(t *testing.T) {
	offers := []Offer{
		{Name: "main", Params: []Param{{Name: "p", Value: "1"}, {Name: "flag"}}},
		{Name: "fallback"},
	}
	got := FormatHeader(offers)
	want := "main; p=1; flag, fallback"
	if got != want {
		t.Errorf("FormatHeader = %q, want %q", got, want)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	value := "main; p=1, fallback; q"
	if got := FormatHeader(ParseHeader(value)); got != value {
		t.Errorf("round trip = %q, want %q", got, value)
	}
}

func TestOfferParamLookup(t *testing.T) {
	o := Offer{Name: "x", Params: []Param{{Name: "A", Value: "1"}}}
	if v, ok := o.Param("A"); !ok || v != "1" {
		t.Errorf("Param(A) = %q %v", v, ok)
	}
	// Parameter names match case-sensitively.
	if _, ok := o.Param("a"); ok {
		t.Error("parameter lookup must be case-sensitive")
	}
}
