// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"bass/internal/transport"
)

/*
Meter packet (BigEndian):

	+-----------------+---------+------+----------------------------------+
	| Field           | Type    | Size | Description                      |
	|-----------------|---------|------|----------------------------------|
	| Sequence Number | uint32  | 4    | Monotonically increasing         |
	| Timestamp       | int64   | 8    | Nanoseconds since epoch          |
	| Input RMS       | float32 | 4    | Block RMS before processing      |
	| Output RMS      | float32 | 4    | Block RMS after processing       |
	| Gate            | float32 | 4    | Gate gain in [0, 1]              |
	| Open            | uint8   | 1    | 1 while the gate heads open      |
	| Magnitude Count | uint16  | 2    | Number of floats (N)             |
	| Magnitudes      | float32 | N*4  | FFT magnitudes, DC first         |
	+-----------------+---------+------+----------------------------------+
*/

// HeaderSize is the packet size without magnitudes.
const HeaderSize = 4 + 8 + 4 + 4 + 4 + 1 + 2

// MaxMagnitudes is the largest magnitude count a packet can carry.
const MaxMagnitudes = math.MaxUint16

// ErrShortPacket is returned when a packet is smaller than its header says.
var ErrShortPacket = errors.New("udp packet too short")

// Packet is the decoded form of a meter packet.
type Packet struct {
	Seq        uint32
	Timestamp  int64
	InputRMS   float32
	OutputRMS  float32
	Gate       float32
	Open       bool
	Magnitudes []float32
}

type header struct {
	Seq       uint32
	Timestamp int64
	InputRMS  float32
	OutputRMS float32
	Gate      float32
	Open      uint8
	Count     uint16
}

// EncodeFrame writes f into buf (after resetting it). Magnitudes beyond
// MaxMagnitudes are truncated.
func EncodeFrame(buf *bytes.Buffer, f *transport.Frame) error {
	mags := f.Magnitudes
	if len(mags) > MaxMagnitudes {
		mags = mags[:MaxMagnitudes]
	}

	h := header{
		Seq:       f.Seq,
		Timestamp: f.Timestamp,
		InputRMS:  f.InputRMS,
		OutputRMS: f.OutputRMS,
		Gate:      f.Gate,
		Count:     uint16(len(mags)),
	}
	if f.Open {
		h.Open = 1
	}

	buf.Reset()
	buf.Grow(HeaderSize + 4*len(mags))
	if err := binary.Write(buf, binary.BigEndian, &h); err != nil {
		return fmt.Errorf("failed to pack header: %w", err)
	}
	if err := binary.Write(buf, binary.BigEndian, mags); err != nil {
		return fmt.Errorf("failed to pack magnitudes: %w", err)
	}
	return nil
}

// DecodePacket parses a meter packet.
func DecodePacket(data []byte) (Packet, error) {
	if len(data) < HeaderSize {
		return Packet{}, fmt.Errorf("%w: %d bytes", ErrShortPacket, len(data))
	}

	var h header
	r := bytes.NewReader(data)
	if err := binary.Read(r, binary.BigEndian, &h); err != nil {
		return Packet{}, fmt.Errorf("failed to unpack header: %w", err)
	}
	if r.Len() < int(h.Count)*4 {
		return Packet{}, fmt.Errorf("%w: %d magnitudes announced, %d bytes left", ErrShortPacket, h.Count, r.Len())
	}

	p := Packet{
		Seq:        h.Seq,
		Timestamp:  h.Timestamp,
		InputRMS:   h.InputRMS,
		OutputRMS:  h.OutputRMS,
		Gate:       h.Gate,
		Open:       h.Open != 0,
		Magnitudes: make([]float32, h.Count),
	}
	if err := binary.Read(r, binary.BigEndian, p.Magnitudes); err != nil {
		return Packet{}, fmt.Errorf("failed to unpack magnitudes: %w", err)
	}
	return p, nil
}
