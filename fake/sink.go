// File: fake/sink.go
// Package fake provides in-memory test doubles for the pipeline and the
// extension negotiation contracts.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package fake

import "errors"

// ErrSinkClosed reports a write after Close.
var ErrSinkClosed = errors.New("fake: sink is closed")

// Sink records every outbound byte slice and can inject write failures.
type Sink struct {
	Writes   [][]byte
	Closed   bool
	FailWith error
}

// NewSink returns an empty recording sink.
func NewSink() *Sink {
	return &Sink{}
}

// WriteBytes records b, or returns the injected failure.
func (s *Sink) WriteBytes(b []byte) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	if s.Closed {
		return ErrSinkClosed
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	s.Writes = append(s.Writes, cp)
	return nil
}

// Close marks the sink closed.
func (s *Sink) Close() error {
	s.Closed = true
	return nil
}

// LastWrite returns the most recent write, or nil.
func (s *Sink) LastWrite() []byte {
	if len(s.Writes) == 0 {
		return nil
	}
	return s.Writes[len(s.Writes)-1]
}
