package transport

import (
	"bytes"
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/packet"
)

func TestSocketTransportRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	clientT := NewSocketTransport(client)
	serverT := NewSocketTransport(server)

	pkt := packet.BuildCommand(packet.OpcodeCoreReset, []byte{0x01})

	errCh := make(chan error, 1)
	go func() { errCh <- clientT.WritePacket(context.Background(), pkt) }()

	got, err := serverT.ReadPacket(context.Background())
	require.NoError(t, err)
	require.NoError(t, <-errCh)

	assert.Equal(t, pkt.Header, got.Header)
	assert.Equal(t, pkt.Payload, got.Payload)
}

type loopback struct {
	buf *bytes.Buffer
}

func (l loopback) Read(p []byte) (int, error)  { return l.buf.Read(p) }
func (l loopback) Write(p []byte) (int, error) { return l.buf.Write(p) }

func TestLegacyTransportRoundTrip(t *testing.T) {
	rw := loopback{buf: &bytes.Buffer{}}
	tr := NewLegacyTransport(rw)

	pkt := packet.BuildResponse(packet.OpcodeCoreReset, []byte{byte(packet.StatusOk)})
	require.NoError(t, tr.WritePacket(context.Background(), pkt))

	got, err := tr.ReadPacket(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pkt.Header, got.Header)
	assert.Equal(t, pkt.Payload, got.Payload)
}

func TestLegacyTransportTermination(t *testing.T) {
	rw := loopback{buf: &bytes.Buffer{}}
	tr := NewLegacyTransport(rw)

	require.NoError(t, tr.WriteTermination())
	_, err := tr.ReadPacket(context.Background())
	assert.ErrorIs(t, err, ErrTermination)
}
