package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/packet"
)

// Legacy frame type byte. This pre-standard framing is a compatibility
// artifact kept only to exercise the host stack and Casimir controller
// without a real socket (see original_source's Rust test harness); the
// Casimir TCP listener always speaks the standard 3-octet framing.
const (
	LegacyTypeData         byte = 0x00
	LegacyTypeCommand      byte = 0x01
	LegacyTypeResponse     byte = 0x02
	LegacyTypeNotification byte = 0x03
	LegacyTypeTermination  byte = 0x04
)

// ErrTermination is returned by LegacyTransport.ReadPacket when a
// Termination frame is received; it is not an I/O error.
var ErrTermination = errors.New("transport: legacy termination frame")

func legacyTypeFor(mt packet.MessageType) (byte, error) {
	switch mt {
	case packet.MTData:
		return LegacyTypeData, nil
	case packet.MTCommand:
		return LegacyTypeCommand, nil
	case packet.MTResponse:
		return LegacyTypeResponse, nil
	case packet.MTNotification:
		return LegacyTypeNotification, nil
	default:
		return 0, fmt.Errorf("transport: legacy: unknown message type %s", mt)
	}
}

// LegacyTransport implements the 1-byte-type + 2-byte-length test framing:
// [type(1)][length(2, big-endian)][payload]. For Data/Command/Response/
// Notification frames, payload is the standard 3-octet NCI header followed
// by the packet's payload bytes; the leading type byte simply mirrors MT.
// A Termination frame carries no payload and surfaces as ErrTermination.
type LegacyTransport struct {
	rw io.ReadWriter

	writeMu sync.Mutex
}

// NewLegacyTransport wraps rw (typically a net.Pipe or in-memory buffer
// pair in tests) as a Transport speaking the legacy framing.
func NewLegacyTransport(rw io.ReadWriter) *LegacyTransport {
	return &LegacyTransport{rw: rw}
}

func (t *LegacyTransport) ReadPacket(ctx context.Context) (packet.Packet, error) {
	select {
	case <-ctx.Done():
		return packet.Packet{}, ctx.Err()
	default:
	}

	var prefix [3]byte
	if _, err := io.ReadFull(t.rw, prefix[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return packet.Packet{}, ErrClosed
		}
		return packet.Packet{}, fmt.Errorf("transport: legacy: read prefix: %w", err)
	}

	frameType := prefix[0]
	length := binary.BigEndian.Uint16(prefix[1:3])

	if frameType == LegacyTypeTermination {
		return packet.Packet{}, ErrTermination
	}

	body := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(t.rw, body); err != nil {
			return packet.Packet{}, fmt.Errorf("transport: legacy: read body: %w", err)
		}
	}

	return packet.Parse(body)
}

func (t *LegacyTransport) WritePacket(ctx context.Context, pkt packet.Packet) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	frameType, err := legacyTypeFor(pkt.GetMT())
	if err != nil {
		return err
	}

	body := pkt.Bytes()

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	var prefix [3]byte
	prefix[0] = frameType
	binary.BigEndian.PutUint16(prefix[1:3], uint16(len(body)))

	if _, err := t.rw.Write(prefix[:]); err != nil {
		return fmt.Errorf("transport: legacy: write prefix: %w", err)
	}
	if _, err := t.rw.Write(body); err != nil {
		return fmt.Errorf("transport: legacy: write body: %w", err)
	}
	return nil
}

// WriteTermination writes a Termination frame, signaling clean shutdown to
// a peer reading with ReadPacket.
func (t *LegacyTransport) WriteTermination() error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	var prefix [3]byte
	prefix[0] = LegacyTypeTermination
	_, err := t.rw.Write(prefix[:])
	return err
}

// Close closes the underlying stream if it supports io.Closer; otherwise
// it is a no-op (in-memory test pipes are closed by their owner).
func (t *LegacyTransport) Close() error {
	if c, ok := t.rw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
