// File: protocol/wsframe.go
// Package protocol
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// WSFrame is the in-memory form of one WebSocket frame.

package protocol

import "encoding/binary"

// Frame opcodes per RFC6455 section 5.2.
const (
	OpcodeContinuation byte = 0x0
	OpcodeText         byte = 0x1
	OpcodeBinary       byte = 0x2
	OpcodeClose        byte = 0x8
	OpcodePing         byte = 0x9
	OpcodePong         byte = 0xA
)

// WSFrame represents a single WebSocket frame. RSV holds the reserved
// bits in extension mask form (extension.RSV1..RSV3); the codec shifts
// them into header position.
type WSFrame struct {
	IsFinal bool
	RSV     byte
	Opcode  byte
	Masked  bool
	MaskKey [4]byte
	Payload []byte
}

// NewCloseFrame builds a close frame with the given status code and
// reason text.
func NewCloseFrame(code uint16, reason string) *WSFrame {
	payload := make([]byte, 2+len(reason))
	binary.BigEndian.PutUint16(payload, code)
	copy(payload[2:], reason)
	return &WSFrame{IsFinal: true, Opcode: OpcodeClose, Payload: payload}
}

// CloseDetails returns the status code and reason of a close frame.
// ok is false for non-close frames or close frames without a code.
func (f *WSFrame) CloseDetails() (code uint16, reason string, ok bool) {
	if f.Opcode != OpcodeClose || len(f.Payload) < 2 {
		return 0, "", false
	}
	return binary.BigEndian.Uint16(f.Payload), string(f.Payload[2:]), true
}
