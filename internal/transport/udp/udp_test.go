// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"net"
	"testing"
	"time"

	"bass/internal/analysis"
	"bass/internal/transport"
)

func testFrame() transport.Frame {
	return transport.Frame{
		Type:      transport.FrameType,
		Seq:       7,
		Timestamp: 1_700_000_000_000_000_000,
		MeterReading: analysis.MeterReading{
			InputRMS:  0.5,
			OutputRMS: 0.25,
			Gate:      0.875,
			Open:      true,
		},
		Magnitudes: []float32{1, 2.5, -0},
	}
}

func TestEncodeFrameLayout(t *testing.T) {
	f := testFrame()
	var buf bytes.Buffer
	if err := EncodeFrame(&buf, &f); err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}

	b := buf.Bytes()
	if len(b) != HeaderSize+3*4 {
		t.Fatalf("packet length = %d, want %d", len(b), HeaderSize+12)
	}

	be := binary.BigEndian
	checks := []struct {
		name string
		got  uint64
		want uint64
	}{
		{"seq", uint64(be.Uint32(b[0:4])), 7},
		{"timestamp", be.Uint64(b[4:12]), uint64(f.Timestamp)},
		{"input rms", uint64(be.Uint32(b[12:16])), uint64(math.Float32bits(0.5))},
		{"output rms", uint64(be.Uint32(b[16:20])), uint64(math.Float32bits(0.25))},
		{"gate", uint64(be.Uint32(b[20:24])), uint64(math.Float32bits(0.875))},
		{"open", uint64(b[24]), 1},
		{"count", uint64(be.Uint16(b[25:27])), 3},
		{"magnitude[1]", uint64(be.Uint32(b[31:35])), uint64(math.Float32bits(2.5))},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}
}

func TestDecodePacketRoundTrip(t *testing.T) {
	f := testFrame()
	var buf bytes.Buffer
	if err := EncodeFrame(&buf, &f); err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}

	p, err := DecodePacket(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodePacket: %v", err)
	}
	if p.Seq != f.Seq || p.Timestamp != f.Timestamp || !p.Open || p.Gate != f.Gate {
		t.Errorf("decoded = %+v", p)
	}
	if len(p.Magnitudes) != 3 || p.Magnitudes[1] != 2.5 {
		t.Errorf("magnitudes = %v", p.Magnitudes)
	}
}

func TestDecodePacketShort(t *testing.T) {
	tests := []struct {
		desc string
		data []byte
	}{
		{"Empty", nil},
		{"Truncated header", make([]byte, HeaderSize-1)},
		{"Missing magnitudes", func() []byte {
			b := make([]byte, HeaderSize)
			binary.BigEndian.PutUint16(b[25:27], 4)
			return b
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if _, err := DecodePacket(tt.data); !errors.Is(err, ErrShortPacket) {
				t.Errorf("error = %v, want ErrShortPacket", err)
			}
		})
	}
}

func TestTransportSendsFrames(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	defer conn.Close()

	tr, err := NewTransport(conn.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	defer tr.Close()

	// Events are ignored; only the frame arrives.
	if err := tr.Send(analysis.GateEvent{Type: "event", Name: analysis.EventGateOpen}); err != nil {
		t.Fatalf("Send(event): %v", err)
	}
	if err := tr.Send(testFrame()); err != nil {
		t.Fatalf("Send(frame): %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1500)
	n, _, err := conn.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("ReadFromUDP: %v", err)
	}
	p, err := DecodePacket(buf[:n])
	if err != nil {
		t.Fatalf("DecodePacket: %v", err)
	}
	if p.Seq != 7 {
		t.Errorf("Seq = %d, want 7", p.Seq)
	}
}

func TestSenderClosed(t *testing.T) {
	s, err := NewUDPSender("127.0.0.1:9")
	if err != nil {
		t.Fatalf("NewUDPSender: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := s.Send([]byte{1}); !errors.Is(err, ErrClosed) {
		t.Errorf("Send after Close = %v, want ErrClosed", err)
	}
}

func TestNewUDPSenderBadAddress(t *testing.T) {
	if _, err := NewUDPSender("not an address"); err == nil {
		t.Error("expected error for bad address")
	}
}

func BenchmarkEncodeFrame(b *testing.B) {
	f := testFrame()
	f.Magnitudes = make([]float32, 513)
	var buf bytes.Buffer

	b.ReportAllocs()
	for b.Loop() {
		_ = EncodeFrame(&buf, &f)
	}
}
