// SPDX-License-Identifier: MIT
/*
Package transport moves meter frames and gate events out of the process and
parameter changes into it.

A Publisher samples the meters on a ticker and hands each Frame to every
Transport. Transports own their encoding: the WebSocket server sends JSON,
the udp package packs a binary packet, LoggingTransport writes debug lines.
*/
package transport

import (
	"bass/internal/analysis"
	"bass/internal/param"
)

// Transport sends frames or events. Implementations must be safe for use
// from the publisher goroutine while Close is called from another.
type Transport interface {
	Send(data any) error
	Close() error
}

// FrameType is the "type" field of a meter frame.
const FrameType = "meter"

// Frame is one meter update. Magnitudes aliases a publisher buffer and is
// only valid for the duration of Send; Bands is freshly allocated per frame.
type Frame struct {
	Type      string `json:"type"`
	Seq       uint32 `json:"seq"`
	Timestamp int64  `json:"ts"` // Nanoseconds since epoch
	analysis.MeterReading
	Params     param.Snapshot     `json:"params"`
	Bands      map[string]float64 `json:"bands,omitempty"`
	Magnitudes []float32          `json:"-"`
}

// MeterSource provides the latest block statistics.
type MeterSource interface {
	Read() analysis.MeterReading
}

// ParamSource provides the current parameter targets.
type ParamSource interface {
	Snapshot() param.Snapshot
}

// Controller resolves parameters for remote control messages.
type Controller interface {
	Get(id param.ID) (*param.Param, error)
}

var (
	_ MeterSource = (*analysis.Meter)(nil)
	_ ParamSource = (*param.Set)(nil)
	_ Controller  = (*param.Set)(nil)
)
