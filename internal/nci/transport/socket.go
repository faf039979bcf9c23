package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/logger"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/packet"
)

// SocketTransport frames NCI packets over a net.Conn using the standard
// 3-octet header followed by PayloadLength bytes, as used by the Casimir
// TCP listener and any host-side connection to it.
type SocketTransport struct {
	conn net.Conn

	writeMu sync.Mutex
}

// NewSocketTransport wraps conn (already connected/accepted) as a Transport.
func NewSocketTransport(conn net.Conn) *SocketTransport {
	return &SocketTransport{conn: conn}
}

func (t *SocketTransport) ReadPacket(ctx context.Context) (packet.Packet, error) {
	select {
	case <-ctx.Done():
		return packet.Packet{}, ctx.Err()
	default:
	}

	var hdr [packet.HeaderSize]byte
	if _, err := io.ReadFull(t.conn, hdr[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return packet.Packet{}, ErrClosed
		}
		return packet.Packet{}, fmt.Errorf("transport: read header: %w", err)
	}

	h, err := packet.ParseHeader(hdr[:])
	if err != nil {
		return packet.Packet{}, fmt.Errorf("transport: %w", err)
	}

	payload := make([]byte, h.PayloadLength)
	if h.PayloadLength > 0 {
		if _, err := io.ReadFull(t.conn, payload); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return packet.Packet{}, ErrClosed
			}
			return packet.Packet{}, fmt.Errorf("transport: read payload: %w", err)
		}
	}

	logger.DebugCtx(ctx, "nci packet read", "mt", h.MT.String(), "len", h.PayloadLength)
	return packet.Packet{Header: h, Payload: payload}, nil
}

func (t *SocketTransport) WritePacket(ctx context.Context, pkt packet.Packet) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if _, err := t.conn.Write(pkt.Bytes()); err != nil {
		return fmt.Errorf("transport: write: %w", err)
	}
	return nil
}

func (t *SocketTransport) Close() error {
	return t.conn.Close()
}
