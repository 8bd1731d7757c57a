// File: protocol/frame_codec.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// WebSocket frame codec stages with payload size enforcement. The
// decoder accumulates raw bytes and emits complete frames; the encoder
// serialises frames into wire bytes. Both are installed into the
// pipeline by the handshake engine after a successful upgrade.

package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/emailbike/wspipe/api"
)

var (
	// ErrFrameTooLarge reports a frame payload above the configured cap.
	ErrFrameTooLarge = errors.New("frame payload exceeds maximum allowed size")

	// ErrMaskMismatch reports a client frame without the mandatory mask.
	ErrMaskMismatch = errors.New("client frame is not masked")

	// ErrReservedBits reports reserved bits set while extensions are off.
	ErrReservedBits = errors.New("reserved bits set without negotiated extension")
)

// DecodeFrame parses one frame from raw, enforcing cfg limits.
// Returns the frame and the number of consumed bytes; (nil, 0, nil) means
// the input is incomplete.
func DecodeFrame(raw []byte, cfg DecoderConfig) (*WSFrame, int, error) {
	if len(raw) < 2 {
		return nil, 0, nil
	}
	fin := raw[0]&0x80 != 0
	rsv := (raw[0] >> 4) & 0x07
	opcode := raw[0] & 0x0F
	masked := raw[1]&0x80 != 0
	length := int64(raw[1] & 0x7F)
	offset := 2

	if rsv != 0 && !cfg.AllowExtensions() {
		return nil, 0, ErrReservedBits
	}
	if !masked && !cfg.AllowMaskMismatch() {
		return nil, 0, ErrMaskMismatch
	}

	switch length {
	case 126:
		if len(raw) < offset+2 {
			return nil, 0, nil
		}
		length = int64(binary.BigEndian.Uint16(raw[offset:]))
		offset += 2
	case 127:
		if len(raw) < offset+8 {
			return nil, 0, nil
		}
		length = int64(binary.BigEndian.Uint64(raw[offset:]))
		offset += 8
		// RFC6455 section 5.2: the most significant bit of the 64-bit
		// length must be 0. A set bit reads as a negative int64 that
		// would slip past the cap check below.
		if length < 0 {
			return nil, 0, ErrFrameTooLarge
		}
	}

	if length > cfg.MaxFramePayloadLength() {
		return nil, 0, ErrFrameTooLarge
	}

	var maskKey [4]byte
	if masked {
		if len(raw) < offset+4 {
			return nil, 0, nil
		}
		copy(maskKey[:], raw[offset:offset+4])
		offset += 4
	}

	totalLen := offset + int(length)
	if len(raw) < totalLen {
		return nil, 0, nil
	}

	payload := make([]byte, length)
	copy(payload, raw[offset:totalLen])
	if masked {
		for i := range payload {
			payload[i] ^= maskKey[i%4]
		}
	}

	return &WSFrame{
		IsFinal: fin,
		RSV:     rsv,
		Opcode:  opcode,
		Masked:  masked,
		MaskKey: maskKey,
		Payload: payload,
	}, totalLen, nil
}

// EncodeFrame serialises f into wire bytes. When f.Masked is set the
// frame is masked with f.MaskKey.
func EncodeFrame(f *WSFrame) ([]byte, error) {
	return EncodeFrameToBuffer(f, nil)
}

// EncodeFrameToBuffer serialises f into a caller-managed buffer,
// minimising allocations. The returned slice aliases dst.
func EncodeFrameToBuffer(f *WSFrame, dst []byte) ([]byte, error) {
	var b0 byte
	if f.IsFinal {
		b0 = 0x80
	}
	b0 |= (f.RSV & 0x07) << 4
	b0 |= f.Opcode & 0x0F

	var maskBit byte
	if f.Masked {
		maskBit = 0x80
	}

	plen := len(f.Payload)
	var hdr [10]byte
	var header []byte

	switch {
	case plen <= 125:
		header = hdr[:2]
		header[1] = byte(plen) | maskBit
	case plen <= 0xFFFF:
		header = hdr[:4]
		header[1] = 126 | maskBit
		binary.BigEndian.PutUint16(header[2:], uint16(plen))
	default:
		header = hdr[:10]
		header[1] = 127 | maskBit
		binary.BigEndian.PutUint64(header[2:], uint64(plen))
	}
	header[0] = b0

	dst = append(dst[:0], header...)
	if f.Masked {
		dst = append(dst, f.MaskKey[:]...)
	}

	start := len(dst)
	dst = append(dst, f.Payload...)
	if f.Masked {
		for i := 0; i < plen; i++ {
			dst[start+i] ^= f.MaskKey[i%4]
		}
	}
	return dst, nil
}

// FrameDecoder is the inbound pipeline stage turning raw bytes into
// WSFrame events. Installed under api.StageWSDecoder.
type FrameDecoder struct {
	cfg DecoderConfig
	buf []byte
}

// NewFrameDecoder builds a frame decoder stage with the given limits.
func NewFrameDecoder(cfg DecoderConfig) *FrameDecoder {
	return &FrameDecoder{cfg: cfg}
}

// HandleInbound implements api.InboundStage.
func (d *FrameDecoder) HandleInbound(ctx api.PipelineContext, msg any) error {
	raw, ok := msg.([]byte)
	if !ok {
		return ctx.FireInbound(msg)
	}
	d.buf = append(d.buf, raw...)
	for {
		frame, n, err := DecodeFrame(d.buf, d.cfg)
		if err != nil {
			return fmt.Errorf("websocket frame decode: %w", err)
		}
		if frame == nil {
			return nil
		}
		d.buf = d.buf[n:]
		if err := ctx.FireInbound(frame); err != nil {
			return err
		}
	}
}

// FrameEncoder is the outbound pipeline stage serialising WSFrame
// messages. Installed under api.StageWSEncoder. Non-frame messages pass
// through untouched so the 101 response can still cross this stage.
type FrameEncoder struct{}

// NewFrameEncoder builds a frame encoder stage.
func NewFrameEncoder() *FrameEncoder {
	return &FrameEncoder{}
}

// HandleOutbound implements api.OutboundStage.
func (e *FrameEncoder) HandleOutbound(msg any) (any, error) {
	f, ok := msg.(*WSFrame)
	if !ok {
		return msg, nil
	}
	return EncodeFrame(f)
}
