// Package transport implements the frame-delimited byte transport NCI
// packets travel over: the standard 3-octet-header TCP framing used by the
// Casimir emulator and the host stack, and a legacy 1-byte-type test
// framing kept only for exercising the stack without a real socket.
package transport

import (
	"context"
	"errors"

	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/packet"
)

// ErrClosed is returned by ReadPacket when the read reaches end of stream,
// i.e. the peer has disconnected. WritePacket does not return it.
var ErrClosed = errors.New("transport: closed")

// Transport delivers complete header-framed packets to the segment
// reassembler and accepts complete header-framed packets for transmission.
// A single segment is not necessarily a fully reassembled message; segment
// reassembly is internal/nci/segment's job.
type Transport interface {
	ReadPacket(ctx context.Context) (packet.Packet, error)
	WritePacket(ctx context.Context, pkt packet.Packet) error
	Close() error
}
