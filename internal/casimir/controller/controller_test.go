package controller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/packet"
)

// memTransport is an in-memory transport.Transport: writes are recorded,
// reads are served from an inbound queue fed by the test.
type memTransport struct {
	mu      sync.Mutex
	written []packet.Packet
	in      chan packet.Packet
}

func newMemTransport() *memTransport {
	return &memTransport{in: make(chan packet.Packet, 16)}
}

func (m *memTransport) ReadPacket(ctx context.Context) (packet.Packet, error) {
	select {
	case pkt := <-m.in:
		return pkt, nil
	case <-ctx.Done():
		return packet.Packet{}, ctx.Err()
	}
}

func (m *memTransport) WritePacket(_ context.Context, pkt packet.Packet) error {
	m.mu.Lock()
	m.written = append(m.written, pkt)
	m.mu.Unlock()
	return nil
}

func (m *memTransport) Close() error { return nil }

func (m *memTransport) popWritten(t *testing.T) packet.Packet {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		m.mu.Lock()
		if len(m.written) > 0 {
			pkt := m.written[0]
			m.written = m.written[1:]
			m.mu.Unlock()
			return pkt
		}
		m.mu.Unlock()
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for written packet")
	return packet.Packet{}
}

func startController(t *testing.T) (*memTransport, context.CancelFunc) {
	t.Helper()
	tr := newMemTransport()
	rfIn := make(chan []byte)
	ctrl := New(0, tr, rfIn, func(context.Context, []byte) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = ctrl.Run(ctx) }()

	// Drain the construction-time CoreResetNtf (trigger=PowerOn).
	reset := tr.popWritten(t)
	require.Equal(t, packet.MTNotification, reset.GetMT())
	require.Equal(t, packet.OpcodeCoreReset, reset.GetOpcode())

	return tr, cancel
}

// Scenario 1: Reset/init.
func TestControllerResetInitScenario(t *testing.T) {
	tr, cancel := startController(t)
	defer cancel()

	tr.in <- packet.BuildCommand(packet.OpcodeCoreReset, packet.CoreResetCmd{ResetType: packet.ResetResetConfig}.Encode())

	resetRsp := tr.popWritten(t)
	assert.Equal(t, packet.MTResponse, resetRsp.GetMT())
	rsp, err := packet.DecodeCoreResetRsp(resetRsp.Payload)
	require.NoError(t, err)
	assert.Equal(t, packet.StatusOk, rsp.Status)

	resetNtf := tr.popWritten(t)
	assert.Equal(t, packet.MTNotification, resetNtf.GetMT())
	ntf, err := packet.DecodeCoreResetNtf(resetNtf.Payload)
	require.NoError(t, err)
	assert.Equal(t, packet.TriggerResetCommand, ntf.Trigger)
	assert.Equal(t, packet.ConfigReset, ntf.ConfigStatus)
	assert.Equal(t, packet.Version11, ntf.NciVersion)

	tr.in <- packet.BuildCommand(packet.OpcodeCoreInit, nil)
	initRsp := tr.popWritten(t)
	rsp2, err := packet.DecodeCoreInitRsp(initRsp.Payload)
	require.NoError(t, err)
	assert.Equal(t, packet.StatusOk, rsp2.Status)
	assert.EqualValues(t, 2, rsp2.MaxLogicalConnections)
	assert.EqualValues(t, 512, rsp2.MaxRoutingTableSize)
	assert.EqualValues(t, 0, rsp2.NumberOfCredits)
}

// Scenario 2: Set/Get config round-trip.
func TestControllerSetGetConfigScenario(t *testing.T) {
	tr, cancel := startController(t)
	defer cancel()

	tr.in <- packet.BuildCommand(packet.OpcodeCoreSetConfig, packet.CoreSetConfigCmd{
		Params: []packet.ConfigParam{{ID: 0x00, Value: []byte{0x11, 0x22}}},
	}.Encode())
	setRsp, err := packet.DecodeCoreSetConfigRsp(tr.popWritten(t).Payload)
	require.NoError(t, err)
	assert.Equal(t, packet.StatusOk, setRsp.Status)
	assert.Empty(t, setRsp.InvalidParams)

	tr.in <- packet.BuildCommand(packet.OpcodeCoreGetConfig, packet.CoreGetConfigCmd{IDs: []uint8{0x00, 0xFF}}.Encode())
	getRsp, err := packet.DecodeCoreGetConfigRsp(tr.popWritten(t).Payload)
	require.NoError(t, err)
	assert.Equal(t, packet.StatusInvalidParam, getRsp.Status)
	require.Len(t, getRsp.Params, 1)
	assert.EqualValues(t, 0xFF, getRsp.Params[0].ID)
	assert.Empty(t, getRsp.Params[0].Value)
}

// Scenario 3: Conn create/close.
func TestControllerConnCreateCloseScenario(t *testing.T) {
	tr, cancel := startController(t)
	defer cancel()

	createCmd := packet.CoreConnCreateCmd{
		DestinationType: packet.DestRemoteNfcEndpoint,
		Params:          []packet.DestParam{{Type: packet.DestParamRfDiscovery, Value: []byte{0x01, 0x04}}},
	}

	tr.in <- packet.BuildCommand(packet.OpcodeCoreConnCreate, createCmd.Encode())
	rsp1, err := packet.DecodeCoreConnCreateRsp(tr.popWritten(t).Payload)
	require.NoError(t, err)
	assert.Equal(t, packet.StatusOk, rsp1.Status)
	assert.EqualValues(t, 0, rsp1.ConnID)
	assert.EqualValues(t, 255, rsp1.MaxDataPacketPayloadSize)
	assert.EqualValues(t, 255, rsp1.InitialNumberOfCredits)

	tr.in <- packet.BuildCommand(packet.OpcodeCoreConnCreate, createCmd.Encode())
	rsp2, err := packet.DecodeCoreConnCreateRsp(tr.popWritten(t).Payload)
	require.NoError(t, err)
	assert.Equal(t, packet.StatusRejected, rsp2.Status)

	tr.in <- packet.BuildCommand(packet.OpcodeCoreConnClose, packet.CoreConnCloseCmd{ConnID: 0}.Encode())
	closeRsp1, err := packet.DecodeCoreConnCloseRsp(tr.popWritten(t).Payload)
	require.NoError(t, err)
	assert.Equal(t, packet.StatusOk, closeRsp1.Status)

	tr.in <- packet.BuildCommand(packet.OpcodeCoreConnClose, packet.CoreConnCloseCmd{ConnID: 0}.Encode())
	closeRsp2, err := packet.DecodeCoreConnCloseRsp(tr.popWritten(t).Payload)
	require.NoError(t, err)
	assert.Equal(t, packet.StatusRejected, closeRsp2.Status)
}

func TestControllerRfDeactivateScenario(t *testing.T) {
	tr, cancel := startController(t)
	defer cancel()

	tr.in <- packet.BuildCommand(packet.OpcodeRfDeactivate, packet.RfDeactivateCmd{DeactivationType: 0x01}.Encode())

	rsp := tr.popWritten(t)
	assert.Equal(t, packet.MTResponse, rsp.GetMT())

	ntf := tr.popWritten(t)
	assert.Equal(t, packet.MTNotification, ntf.GetMT())
	decoded, err := packet.DecodeRfDeactivateNtf(ntf.Payload)
	require.NoError(t, err)
	assert.EqualValues(t, 0x01, decoded.DeactivationType)
	assert.Equal(t, packet.ReasonDhRequest, decoded.Reason)
}

func TestControllerUnsupportedOpcodeTerminatesSession(t *testing.T) {
	tr := newMemTransport()
	rfIn := make(chan []byte)
	ctrl := New(0, tr, rfIn, func(context.Context, []byte) error { return nil })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- ctrl.Run(ctx) }()

	tr.popWritten(t) // construction-time CoreResetNtf

	bogus := packet.Opcode{GID: 0x3, OID: 0x3F}
	tr.in <- packet.BuildCommand(bogus, nil)

	select {
	case err := <-runErr:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("controller did not terminate on unsupported opcode")
	}
}
