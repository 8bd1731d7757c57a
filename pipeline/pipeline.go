// File: pipeline/pipeline.go
// Package pipeline implements the ordered named-stage pipeline contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A Pipeline sits between one transport connection and the application.
// Stage order: index 0 is next to the transport. Inbound events travel
// head to tail, outbound messages tail to head. The pipeline processes
// one event at a time per connection, so stage state needs no locking.

package pipeline

import (
	"errors"
	"fmt"

	"github.com/emailbike/wspipe/api"
)

var (
	// ErrStageNotFound reports a mutation against an unknown anchor or name.
	ErrStageNotFound = errors.New("pipeline: stage not found")

	// ErrDuplicateStage reports an insert under an already-registered name.
	ErrDuplicateStage = errors.New("pipeline: duplicate stage name")
)

// Sink is the transport end of a pipeline: fully-encoded outbound bytes
// land here.
type Sink interface {
	WriteBytes(b []byte) error
	Close() error
}

type namedStage struct {
	name  string
	stage api.Stage
}

// Pipeline is the concrete api.Pipeline. Not safe for concurrent use;
// the owning connection drives it from a single goroutine.
type Pipeline struct {
	stages []namedStage
	sink   Sink
	tail   func(msg any)
	closed bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTail installs a handler for inbound events that travel past the
// last stage.
func WithTail(fn func(msg any)) Option {
	return func(p *Pipeline) { p.tail = fn }
}

// New builds an empty pipeline over the given transport sink.
func New(sink Sink, opts ...Option) *Pipeline {
	p := &Pipeline{sink: sink}
	for _, o := range opts {
		o(p)
	}
	return p
}

// AddLast appends a named stage at the application end.
func (p *Pipeline) AddLast(name string, s api.Stage) error {
	if p.indexOf(name) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateStage, name)
	}
	p.stages = append(p.stages, namedStage{name, s})
	return nil
}

// InsertBefore places a stage immediately before the anchor.
func (p *Pipeline) InsertBefore(anchor, name string, s api.Stage) error {
	return p.insert(anchor, name, s, 0)
}

// InsertAfter places a stage immediately after the anchor.
func (p *Pipeline) InsertAfter(anchor, name string, s api.Stage) error {
	return p.insert(anchor, name, s, 1)
}

func (p *Pipeline) insert(anchor, name string, s api.Stage, off int) error {
	i := p.indexOf(anchor)
	if i < 0 {
		return fmt.Errorf("%w: anchor %q", ErrStageNotFound, anchor)
	}
	if p.indexOf(name) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateStage, name)
	}
	at := i + off
	p.stages = append(p.stages, namedStage{})
	copy(p.stages[at+1:], p.stages[at:])
	p.stages[at] = namedStage{name, s}
	return nil
}

// Replace swaps the anchor stage for a new named stage in place.
// The removed stage gets its removal callback.
func (p *Pipeline) Replace(anchor, name string, s api.Stage) error {
	i := p.indexOf(anchor)
	if i < 0 {
		return fmt.Errorf("%w: anchor %q", ErrStageNotFound, anchor)
	}
	if name != anchor && p.indexOf(name) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateStage, name)
	}
	old := p.stages[i].stage
	p.stages[i] = namedStage{name, s}
	notifyRemoved(old)
	return nil
}

// Remove takes the named stage out of the pipeline and fires its removal
// callback.
func (p *Pipeline) Remove(name string) error {
	i := p.indexOf(name)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrStageNotFound, name)
	}
	old := p.stages[i].stage
	p.stages = append(p.stages[:i], p.stages[i+1:]...)
	notifyRemoved(old)
	return nil
}

// Lookup finds a stage by name.
func (p *Pipeline) Lookup(name string) (api.Stage, bool) {
	if i := p.indexOf(name); i >= 0 {
		return p.stages[i].stage, true
	}
	return nil, false
}

// Names returns the current stage names head to tail.
func (p *Pipeline) Names() []string {
	out := make([]string, len(p.stages))
	for i, ns := range p.stages {
		out[i] = ns.name
	}
	return out
}

func (p *Pipeline) indexOf(name string) int {
	for i, ns := range p.stages {
		if ns.name == name {
			return i
		}
	}
	return -1
}

// FireInbound injects msg at the head of the pipeline.
func (p *Pipeline) FireInbound(msg any) error {
	return p.fireFrom(0, msg)
}

func (p *Pipeline) fireFrom(idx int, msg any) error {
	for i := idx; i < len(p.stages); i++ {
		in, ok := p.stages[i].stage.(api.InboundStage)
		if !ok {
			continue
		}
		ctx := &stageContext{p: p, name: p.stages[i].name, idx: i}
		return in.HandleInbound(ctx, msg)
	}
	if p.tail != nil {
		p.tail(msg)
	}
	return nil
}

// Write sends msg towards the transport. Each outbound stage, visited
// tail to head, may transform the message; whatever reaches the sink must
// be raw bytes.
func (p *Pipeline) Write(msg any) *api.Promise {
	promise := api.NewPromise()
	var err error
	for i := len(p.stages) - 1; i >= 0; i-- {
		out, ok := p.stages[i].stage.(api.OutboundStage)
		if !ok {
			continue
		}
		msg, err = out.HandleOutbound(msg)
		if err != nil {
			promise.Fail(err)
			return promise
		}
	}
	b, ok := msg.([]byte)
	if !ok {
		promise.Fail(fmt.Errorf("pipeline: unencoded outbound message %T", msg))
		return promise
	}
	if err := p.sink.WriteBytes(b); err != nil {
		promise.Fail(err)
		return promise
	}
	promise.Resolve(nil)
	return promise
}

// FireInactive notifies InactiveAware stages that the connection is gone.
// Stages are visited head to tail; each may remove itself while handling
// the event.
func (p *Pipeline) FireInactive() {
	// Snapshot: stages may mutate the pipeline while being notified.
	snapshot := make([]namedStage, len(p.stages))
	copy(snapshot, p.stages)
	for _, ns := range snapshot {
		ia, ok := ns.stage.(api.InactiveAware)
		if !ok {
			continue
		}
		if p.indexOf(ns.name) < 0 {
			continue
		}
		ctx := &stageContext{p: p, name: ns.name, idx: p.indexOf(ns.name)}
		ia.HandleInactive(ctx)
	}
}

// Close shuts the transport down and fires the inactive event once.
func (p *Pipeline) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	err := p.sink.Close()
	p.FireInactive()
	return err
}

func notifyRemoved(s api.Stage) {
	if ra, ok := s.(api.RemovalAware); ok {
		ra.HandleRemoved()
	}
}

type stageContext struct {
	p    *Pipeline
	name string
	idx  int
}

func (c *stageContext) Name() string { return c.name }

func (c *stageContext) Pipeline() api.Pipeline { return c.p }

// FireInbound continues propagation at the stage after the receiver.
// The successor is found by name so a stage that removed itself mid-event
// does not skip its former neighbour.
func (c *stageContext) FireInbound(msg any) error {
	if i := c.p.indexOf(c.name); i >= 0 {
		return c.p.fireFrom(i+1, msg)
	}
	return c.p.fireFrom(c.idx, msg)
}
