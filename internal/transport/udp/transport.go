// SPDX-License-Identifier: MIT
// Package udp sends meter frames as compact binary packets.
package udp

import (
	"bytes"
	"sync"

	applog "bass/internal/log"
	"bass/internal/transport"
)

// Transport encodes frames and sends them with a UDPSender. Gate events are
// not carried over UDP; receivers derive them from the Open field.
type Transport struct {
	sender *UDPSender
	mu     sync.Mutex
	buf    bytes.Buffer
}

// NewTransport dials targetAddress and returns a frame transport.
func NewTransport(targetAddress string) (*Transport, error) {
	sender, err := NewUDPSender(targetAddress)
	if err != nil {
		return nil, err
	}
	return &Transport{sender: sender}, nil
}

// Send encodes and sends data if it is a frame; other types are ignored.
func (t *Transport) Send(data any) error {
	var frame *transport.Frame
	switch v := data.(type) {
	case transport.Frame:
		frame = &v
	case *transport.Frame:
		frame = v
	default:
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := EncodeFrame(&t.buf, frame); err != nil {
		applog.Errorf("UDPTransport: %v", err)
		return err
	}
	if err := t.sender.Send(t.buf.Bytes()); err != nil {
		return err
	}
	applog.Debugf("UDPTransport: Sent packet %d (%d bytes)", frame.Seq, t.buf.Len())
	return nil
}

// Close closes the sender.
func (t *Transport) Close() error {
	return t.sender.Close()
}

var _ transport.Transport = (*Transport)(nil)
