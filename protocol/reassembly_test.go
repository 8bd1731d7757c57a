// File: protocol/reassembly_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package protocol

import (
	"errors"
	"testing"

	"github.com/emailbike/wspipe/api"
	"github.com/emailbike/wspipe/fake"
	"github.com/emailbike/wspipe/httpcodec"
	"github.com/emailbike/wspipe/pipeline"
)

func newStreamedAttempt(t *testing.T) (*pipeline.Pipeline, *reassembler, *api.Promise) {
	t.Helper()
	hs := NewHandshaker13("ws://example.com/chat", "", NewDecoderConfig(), WithHandshakerLogf(nil))
	eng := NewEngine(hs, WithEngineLogf(nil))

	p := pipeline.New(fake.NewSink())
	if err := p.AddLast(api.StageHTTPCodec, httpcodec.NewServerCodec()); err != nil {
		t.Fatal(err)
	}
	pr := eng.HandshakeStreamed(p, upgradeRequest(nil).Req, nil)

	s, ok := p.Lookup(api.StageHandshaker)
	if !ok {
		t.Fatal("reassembly stage not installed")
	}
	return p, s.(*reassembler), pr
}

func TestReassembler_StateTransitions(t *testing.T) {
	hs := NewHandshaker13("ws://example.com/chat", "", NewDecoderConfig(), WithHandshakerLogf(nil))
	eng := NewEngine(hs, WithEngineLogf(nil))
	if r := newReassembler(eng, nil, api.NewPromise()); r.state != stateIdle {
		t.Errorf("fresh attempt state = %d, want Idle", r.state)
	}

	p, r, pr := newStreamedAttempt(t)
	if r.state != stateAwaitingFullRequest {
		t.Errorf("state after headers = %d, want AwaitingFullRequest", r.state)
	}

	if err := p.FireInbound(api.Content{Data: []byte("x")}); err != nil {
		t.Fatal(err)
	}
	if r.state != stateAwaitingFullRequest {
		t.Errorf("state after body chunk = %d, want AwaitingFullRequest", r.state)
	}

	if err := p.FireInbound(api.LastContent{}); err != nil {
		t.Fatal(err)
	}
	if err := pr.Err(); err != nil {
		t.Fatalf("handshake failed: %v", err)
	}
	if r.state != stateCompleted {
		t.Errorf("terminal state = %d, want Completed", r.state)
	}
}

func TestReassembler_StateFailedOnConnectionClose(t *testing.T) {
	p, r, pr := newStreamedAttempt(t)

	p.FireInactive()

	if !errors.Is(pr.Err(), api.ErrConnClosed) {
		t.Fatalf("err = %v, want ErrConnClosed", pr.Err())
	}
	if r.state != stateFailed {
		t.Errorf("terminal state = %d, want Failed", r.state)
	}
}
