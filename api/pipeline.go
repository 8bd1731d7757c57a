// File: api/pipeline.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Named-stage pipeline capability consumed by the handshake engine.
// The engine only ever inserts, replaces, removes and looks up stages by
// name; it assumes nothing about the pipeline's internal representation.

package api

// Conventional stage names. The engine anchors its mutations on these.
const (
	StageHTTPDecoder    = "httpDecoder"
	StageHTTPEncoder    = "httpEncoder"
	StageHTTPCodec      = "httpCodec"
	StageHTTPAggregator = "httpAggregator"
	StageHTTPCompressor = "httpCompressor"
	StageWSDecoder      = "wsdecoder"
	StageWSEncoder      = "wsencoder"
	StageHandshaker     = "handshaker"
)

// Stage is a named member of a connection pipeline. A concrete stage
// implements InboundStage, OutboundStage, or both; the lifecycle
// interfaces below are optional.
type Stage interface{}

// InboundStage consumes events travelling from the transport towards the
// application. A stage that does not recognise a message forwards it with
// ctx.FireInbound.
type InboundStage interface {
	HandleInbound(ctx PipelineContext, msg any) error
}

// OutboundStage transforms messages travelling towards the transport.
// A stage that does not recognise a message returns it unchanged.
type OutboundStage interface {
	HandleOutbound(msg any) (any, error)
}

// InactiveAware stages observe connection shutdown.
type InactiveAware interface {
	HandleInactive(ctx PipelineContext)
}

// RemovalAware stages release held resources when taken out of the pipeline.
type RemovalAware interface {
	HandleRemoved()
}

// PipelineContext is handed to an inbound stage per delivered event.
type PipelineContext interface {
	// Name is the receiving stage's registered name.
	Name() string

	// Pipeline returns the owning pipeline for mutation.
	Pipeline() Pipeline

	// FireInbound passes msg to the next inbound stage towards the tail.
	FireInbound(msg any) error
}

// Pipeline is an ordered collection of named stages between a transport
// and the application, plus the mutation primitives the handshake needs.
// Index 0 sits next to the transport. Inbound events travel head to tail;
// outbound messages travel tail to head.
type Pipeline interface {
	// InsertBefore places a stage immediately before the anchor,
	// on the transport side of it.
	InsertBefore(anchor, name string, s Stage) error

	// InsertAfter places a stage immediately after the anchor,
	// on the application side of it.
	InsertAfter(anchor, name string, s Stage) error

	// Replace swaps the anchor stage for a new named stage in place.
	Replace(anchor, name string, s Stage) error

	// Remove takes the named stage out of the pipeline.
	Remove(name string) error

	// Lookup finds a stage by name.
	Lookup(name string) (Stage, bool)

	// FireInbound injects msg at the head of the pipeline.
	FireInbound(msg any) error

	// Write sends msg towards the transport through the outbound stages.
	// The returned promise resolves when the transport accepted the bytes.
	Write(msg any) *Promise

	// Close shuts the transport down and notifies InactiveAware stages.
	Close() error
}
