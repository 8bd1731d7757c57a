// File: protocol/engine.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Handshake engine: drives the opening handshake end to end — request
// validation through the version strategy, pipeline mutation, response
// transmission, post-write cleanup — and exposes the closing handshake.
//
// Ordering guarantees: the WebSocket frame decoder is installed before
// the response write starts, so a client frame arriving right behind the
// 101 is never parsed as HTTP; the HTTP response encoder is removed only
// after the write completes, so the 101 itself is framed as HTTP.

package protocol

import (
	"log"
	"net/http"

	"github.com/emailbike/wspipe/api"
)

// Attempt states. One handshake attempt moves Idle →
// AwaitingFullRequest (streamed input only) → Handshaking → Completed or
// Failed, and resolves its promise exactly once.
type attemptState int32

const (
	stateIdle attemptState = iota
	stateAwaitingFullRequest
	stateHandshaking
	stateCompleted
	stateFailed
)

// Engine orchestrates opening and closing handshakes over one version
// strategy. An Engine is stateless across attempts; per-attempt state
// lives on the promise and, for streamed input, on the temporary
// reassembly stage.
type Engine struct {
	hs   ServerHandshaker
	logf func(format string, args ...any)
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineLogf overrides the debug log sink. Pass nil to silence.
func WithEngineLogf(logf func(string, ...any)) EngineOption {
	return func(e *Engine) { e.logf = logf }
}

// NewEngine builds a handshake engine over the given version strategy.
func NewEngine(hs ServerHandshaker, opts ...EngineOption) *Engine {
	e := &Engine{hs: hs, logf: log.Printf}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Handshake performs the opening handshake for a complete request. The
// request is borrowed: the engine never retains it past this call. The
// promise resolves with the attempt's *HandshakeResult on success.
func (e *Engine) Handshake(p api.Pipeline, req *api.FullRequest, extra http.Header) *api.Promise {
	promise := api.NewPromise()
	e.handshake0(p, req, extra, promise)
	return promise
}

// HandshakeStreamed performs the opening handshake for a streamed
// request: req carries the headers; body chunks and the terminal marker
// arrive through the pipeline as api.Content / api.LastContent. The
// engine buffers them in a temporary reassembly stage, builds a
// synthetic complete request, and proceeds as in Handshake.
func (e *Engine) HandshakeStreamed(p api.Pipeline, req *http.Request, extra http.Header) *api.Promise {
	promise := api.NewPromise()

	anchor := api.StageHTTPDecoder
	if _, ok := p.Lookup(anchor); !ok {
		anchor = api.StageHTTPCodec
		if _, ok := p.Lookup(anchor); !ok {
			promise.Fail(api.ErrNoHTTPCodec)
			return promise
		}
	}

	r := newReassembler(e, extra, promise)
	if err := p.InsertAfter(anchor, api.StageHandshaker, r); err != nil {
		promise.Fail(err)
		return promise
	}

	// Replay the headers part from the pipeline head; the HTTP stages
	// forward non-byte messages untouched, so it lands on the
	// reassembler first.
	if err := p.FireInbound(req); err != nil {
		promise.Fail(err)
	}
	return promise
}

// handshake0 runs the Handshaking phase against an already-complete
// request and resolves promise exactly once.
func (e *Engine) handshake0(p api.Pipeline, req *api.FullRequest, extra http.Header, promise *api.Promise) {
	e.debugf("websocket server handshake, uri=%s", e.hs.URI())

	res, err := e.hs.NewHandshakeResponse(req, extra)
	if err != nil {
		promise.Fail(err)
		return
	}

	// HTTP aggregation and compression make no sense on a WebSocket
	// stream; drop them if the pipeline carries them.
	if _, ok := p.Lookup(api.StageHTTPAggregator); ok {
		p.Remove(api.StageHTTPAggregator)
	}
	if _, ok := p.Lookup(api.StageHTTPCompressor); ok {
		p.Remove(api.StageHTTPCompressor)
	}

	var encoderName string
	if _, ok := p.Lookup(api.StageHTTPDecoder); ok {
		if _, ok := p.Lookup(api.StageHTTPEncoder); !ok {
			promise.Fail(api.ErrNoHTTPCodec)
			return
		}
		if err := p.Replace(api.StageHTTPDecoder, api.StageWSDecoder, e.hs.NewFrameDecoder()); err != nil {
			promise.Fail(err)
			return
		}
		encoderName = api.StageHTTPEncoder
		if err := p.InsertBefore(encoderName, api.StageWSEncoder, e.hs.NewFrameEncoder()); err != nil {
			promise.Fail(err)
			return
		}
	} else if _, ok := p.Lookup(api.StageHTTPCodec); ok {
		// The user runs a combined HTTP server codec.
		if err := p.InsertBefore(api.StageHTTPCodec, api.StageWSEncoder, e.hs.NewFrameEncoder()); err != nil {
			promise.Fail(err)
			return
		}
		if err := p.InsertBefore(api.StageHTTPCodec, api.StageWSDecoder, e.hs.NewFrameDecoder()); err != nil {
			promise.Fail(err)
			return
		}
		encoderName = api.StageHTTPCodec
	} else {
		promise.Fail(api.ErrNoHTTPCodec)
		return
	}

	// Extension codecs anchor on the freshly installed ws codecs, and
	// only after the full negotiation decision.
	if err := res.Extensions.Install(p); err != nil {
		promise.Fail(err)
		return
	}

	p.Write(res.Response).OnComplete(func(w *api.Promise) {
		if werr := w.Err(); werr != nil {
			promise.Fail(&api.WriteError{Err: werr})
			return
		}
		// The channel speaks raw WebSocket frames now; the HTTP
		// response encoder has done its last job.
		p.Remove(encoderName)
		promise.Resolve(res)
	})
}

// Close performs the closing handshake: write the close frame and, only
// when the write succeeds, shut the transport down. A write failure is
// reported through the promise and shutdown is not attempted.
func (e *Engine) Close(p api.Pipeline, frame *WSFrame) *api.Promise {
	promise := api.NewPromise()
	p.Write(frame).OnComplete(func(w *api.Promise) {
		if werr := w.Err(); werr != nil {
			promise.Fail(&api.WriteError{Err: werr})
			return
		}
		if err := p.Close(); err != nil {
			promise.Fail(err)
			return
		}
		promise.Resolve(nil)
	})
	return promise
}

func (e *Engine) debugf(format string, args ...any) {
	if e.logf != nil {
		e.logf(format, args...)
	}
}
