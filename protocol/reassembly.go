// File: protocol/reassembly.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Temporary pipeline stage that reassembles a streamed HTTP request
// (headers, zero or more content chunks, terminal marker) into one
// complete request, then hands it to the engine and removes itself.
// At most one request is in flight per attempt; the buffer is released
// on completion, connection shutdown, and stage removal alike.

package protocol

import (
	"net/http"

	"github.com/eapache/queue"

	"github.com/emailbike/wspipe/api"
)

// reassembler implements api.InboundStage, api.InactiveAware and
// api.RemovalAware. It is installed under api.StageHandshaker directly
// after the HTTP decoding stage.
type reassembler struct {
	engine  *Engine
	extra   http.Header
	promise *api.Promise

	state  attemptState
	head   *api.FullRequest
	chunks *queue.Queue
	total  int
}

func newReassembler(e *Engine, extra http.Header, promise *api.Promise) *reassembler {
	r := &reassembler{engine: e, extra: extra, promise: promise, state: stateIdle}
	promise.OnComplete(func(p *api.Promise) {
		if p.Err() != nil {
			r.state = stateFailed
			return
		}
		r.state = stateCompleted
	})
	return r
}

// HandleInbound consumes HTTP message objects; anything else is passed
// along untouched.
func (r *reassembler) HandleInbound(ctx api.PipelineContext, msg any) error {
	switch m := msg.(type) {
	case *api.FullRequest:
		// Aggregated upstream; nothing to reassemble.
		r.state = stateHandshaking
		ctx.Pipeline().Remove(api.StageHandshaker)
		r.engine.handshake0(ctx.Pipeline(), m, r.extra, r.promise)
		return nil

	case *http.Request:
		r.state = stateAwaitingFullRequest
		r.head = &api.FullRequest{Req: m}
		r.chunks = queue.New()
		return nil

	case api.Content:
		if r.head == nil {
			return nil
		}
		r.chunks.Add(m.Data)
		r.total += len(m.Data)
		return nil

	case api.LastContent:
		if r.head == nil {
			return nil
		}
		full := r.assemble(m.Data)
		r.state = stateHandshaking
		ctx.Pipeline().Remove(api.StageHandshaker)
		r.engine.handshake0(ctx.Pipeline(), full, r.extra, r.promise)
		return nil

	default:
		return ctx.FireInbound(msg)
	}
}

// HandleInactive fails the pending attempt once and drops the buffer.
func (r *reassembler) HandleInactive(ctx api.PipelineContext) {
	if !r.promise.IsDone() {
		r.state = stateFailed
		r.promise.Fail(api.ErrConnClosed)
	}
	r.release()
}

// HandleRemoved releases any buffered partial request.
func (r *reassembler) HandleRemoved() {
	r.release()
}

// assemble concatenates the buffered chunks plus the terminal content
// into a synthetic complete request.
func (r *reassembler) assemble(last []byte) *api.FullRequest {
	full := r.head
	body := make([]byte, 0, r.total+len(last))
	for r.chunks.Length() > 0 {
		body = append(body, r.chunks.Remove().([]byte)...)
	}
	body = append(body, last...)
	full.Body = body
	r.release()
	return full
}

func (r *reassembler) release() {
	r.head = nil
	r.chunks = nil
	r.total = 0
}
