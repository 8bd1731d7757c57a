// File: httpcodec/httpcodec.go
// Package httpcodec provides the HTTP stages a server pipeline carries
// before a connection upgrades to WebSocket framing.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// RequestDecoder parses raw bytes into complete requests, ResponseEncoder
// serialises responses back to bytes, and ServerCodec combines both under
// a single stage name. The handshake engine anchors on these stages and
// retires them once the connection speaks raw WebSocket frames.

package httpcodec

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/emailbike/wspipe/api"
)

// RequestDecoder accumulates inbound bytes and emits one api.FullRequest
// per complete HTTP request. Register it as api.StageHTTPDecoder.
type RequestDecoder struct {
	buf []byte
}

// NewRequestDecoder returns an empty request decoder.
func NewRequestDecoder() *RequestDecoder {
	return &RequestDecoder{}
}

// HandleInbound implements api.InboundStage.
func (d *RequestDecoder) HandleInbound(ctx api.PipelineContext, msg any) error {
	raw, ok := msg.([]byte)
	if !ok {
		return ctx.FireInbound(msg)
	}
	d.buf = append(d.buf, raw...)
	for {
		full, rest, err := decodeRequest(d.buf)
		if err != nil {
			return err
		}
		if full == nil {
			return nil
		}
		d.buf = rest
		if err := ctx.FireInbound(full); err != nil {
			return err
		}
	}
}

// decodeRequest attempts to parse one complete request with its body.
// Returns (nil, buf, nil) when more bytes are needed.
func decodeRequest(buf []byte) (*api.FullRequest, []byte, error) {
	r := bytes.NewReader(buf)
	br := bufio.NewReader(r)
	req, err := http.ReadRequest(br)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, buf, nil
		}
		return nil, buf, fmt.Errorf("httpcodec: decode request: %w", err)
	}
	var body []byte
	if req.ContentLength > 0 {
		body = make([]byte, req.ContentLength)
		if _, err := io.ReadFull(br, body); err != nil {
			// Body not fully buffered yet.
			return nil, buf, nil
		}
	}
	// bufio reads ahead of the parser; what it buffered but did not hand
	// out is still unconsumed input.
	consumed := len(buf) - br.Buffered() - r.Len()
	return &api.FullRequest{Req: req, Body: body}, buf[consumed:], nil
}

// ResponseEncoder serialises *http.Response messages to wire bytes.
// Register it as api.StageHTTPEncoder.
type ResponseEncoder struct{}

// NewResponseEncoder returns a response encoder stage.
func NewResponseEncoder() *ResponseEncoder {
	return &ResponseEncoder{}
}

// HandleOutbound implements api.OutboundStage.
func (e *ResponseEncoder) HandleOutbound(msg any) (any, error) {
	res, ok := msg.(*http.Response)
	if !ok {
		return msg, nil
	}
	return encodeResponse(res)
}

func encodeResponse(res *http.Response) ([]byte, error) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "HTTP/%d.%d %d %s\r\n",
		res.ProtoMajor, res.ProtoMinor, res.StatusCode, http.StatusText(res.StatusCode))
	if err := res.Header.Write(&b); err != nil {
		return nil, fmt.Errorf("httpcodec: encode response: %w", err)
	}
	b.WriteString("\r\n")
	if res.Body != nil {
		if _, err := b.ReadFrom(res.Body); err != nil {
			return nil, fmt.Errorf("httpcodec: encode response body: %w", err)
		}
		res.Body.Close()
	}
	return b.Bytes(), nil
}

// ServerCodec is the combined request decoder + response encoder.
// Register it as api.StageHTTPCodec.
type ServerCodec struct {
	dec RequestDecoder
	enc ResponseEncoder
}

// NewServerCodec returns a combined HTTP server codec stage.
func NewServerCodec() *ServerCodec {
	return &ServerCodec{}
}

// HandleInbound implements api.InboundStage.
func (c *ServerCodec) HandleInbound(ctx api.PipelineContext, msg any) error {
	return c.dec.HandleInbound(ctx, msg)
}

// HandleOutbound implements api.OutboundStage.
func (c *ServerCodec) HandleOutbound(msg any) (any, error) {
	return c.enc.HandleOutbound(msg)
}
