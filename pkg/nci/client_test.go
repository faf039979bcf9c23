package nci

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/conn"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/packet"
)

// fakeTransport is an in-memory transport.Transport: inbound packets are
// fed through in, outbound packets are both recorded and pushed onto
// writeNotify so a test's peer goroutine can react to them.
type fakeTransport struct {
	mu          sync.Mutex
	written     []packet.Packet
	writeNotify chan packet.Packet
	in          chan packet.Packet
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{writeNotify: make(chan packet.Packet, 8), in: make(chan packet.Packet, 8)}
}

func (f *fakeTransport) ReadPacket(ctx context.Context) (packet.Packet, error) {
	select {
	case pkt := <-f.in:
		return pkt, nil
	case <-ctx.Done():
		return packet.Packet{}, ctx.Err()
	}
}

func (f *fakeTransport) WritePacket(_ context.Context, pkt packet.Packet) error {
	f.mu.Lock()
	f.written = append(f.written, pkt)
	f.mu.Unlock()
	f.writeNotify <- pkt
	return nil
}

func (f *fakeTransport) Close() error { return nil }

func TestClientInitScenario(t *testing.T) {
	ft := newFakeTransport()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	client := Enable(ctx, ft, nil)

	go func() {
		cmd := <-ft.writeNotify
		require.Equal(t, packet.OpcodeCoreReset, cmd.GetOpcode())
		ft.in <- packet.BuildResponse(packet.OpcodeCoreReset, packet.CoreResetRsp{Status: packet.StatusOk}.Encode())
		ft.in <- packet.BuildNotification(packet.OpcodeCoreReset, packet.CoreResetNtf{
			Trigger:      packet.TriggerResetCommand,
			ConfigStatus: packet.ConfigReset,
			NciVersion:   packet.Version11,
		}.Encode())

		cmd = <-ft.writeNotify
		require.Equal(t, packet.OpcodeCoreInit, cmd.GetOpcode())
		ft.in <- packet.BuildResponse(packet.OpcodeCoreInit, packet.DefaultCoreInitRsp().Encode())
	}()

	ntf, rsp, err := client.Init(ctx)
	require.NoError(t, err)
	assert.Equal(t, packet.TriggerResetCommand, ntf.Trigger)
	assert.Equal(t, packet.ConfigReset, ntf.ConfigStatus)
	assert.Equal(t, packet.StatusOk, rsp.Status)
	assert.EqualValues(t, 2, rsp.MaxLogicalConnections)
	assert.Equal(t, packet.MaxRoutingTableSize, client.GetLmrtSize())
}

func TestClientConnLifecycle(t *testing.T) {
	ft := newFakeTransport()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	client := Enable(ctx, ft, nil)

	events := make(chan string, 4)
	cb := func(connID uint8, eventCode uint8, payload []byte) {
		events <- eventName(eventCode)
	}

	go func() {
		cmd := <-ft.writeNotify
		require.Equal(t, packet.OpcodeCoreConnCreate, cmd.GetOpcode())
		ft.in <- packet.BuildResponse(packet.OpcodeCoreConnCreate, packet.CoreConnCreateRsp{
			Status:                   packet.StatusOk,
			ConnID:                   0,
			MaxDataPacketPayloadSize: 255,
			InitialNumberOfCredits:   1,
		}.Encode())
	}()

	rsp, err := client.ConnCreate(ctx, 0x01, 0x04, cb)
	require.NoError(t, err)
	assert.Equal(t, packet.StatusOk, rsp.Status)
	assert.Equal(t, 1, client.OpenConnections())

	credits, ok := client.ConnCredits(0)
	require.True(t, ok)
	assert.Equal(t, 1, credits)

	require.NoError(t, client.SendData(ctx, 0, []byte{0xAA, 0xBB}))
	dataPkt := <-ft.writeNotify
	assert.Equal(t, packet.MTData, dataPkt.GetMT())
	assert.Equal(t, []byte{0xAA, 0xBB}, dataPkt.Payload)

	assert.True(t, client.FlushData(0))

	go func() {
		cmd := <-ft.writeNotify
		require.Equal(t, packet.OpcodeCoreConnClose, cmd.GetOpcode())
		ft.in <- packet.BuildResponse(packet.OpcodeCoreConnClose, packet.CoreConnCloseRsp{Status: packet.StatusOk}.Encode())
	}()

	closeRsp, err := client.ConnClose(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, packet.StatusOk, closeRsp.Status)
	assert.Equal(t, 0, client.OpenConnections())

	select {
	case ev := <-events:
		assert.Equal(t, "close", ev)
	case <-time.After(time.Second):
		t.Fatal("expected close callback event")
	}
}

func TestClientDisableFiresEventDisabled(t *testing.T) {
	ft := newFakeTransport()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	fired := make(chan uint16, 1)
	client := Enable(ctx, ft, func(eventCode uint16, _ []byte) { fired <- eventCode })

	client.Disable()

	select {
	case code := <-fired:
		assert.Equal(t, EventDisabled, code)
	case <-time.After(time.Second):
		t.Fatal("Disable did not fire EventDisabled")
	}
}

// WaitNotification lets a caller drain a peer's unsolicited notification -
// an NFCC emulator's construction-time power-on CoreResetNotification, in
// practice - before Init registers its own sink for the same opcode. Without
// it, either ordering between the two would collide: the power-on
// notification firing with no sink registered yet, or Init's sink catching
// the power-on notification and leaving the real post-CORE_RESET one
// unregistered.
func TestClientWaitNotificationThenInit(t *testing.T) {
	ft := newFakeTransport()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	client := Enable(ctx, ft, nil)

	ft.in <- packet.BuildNotification(packet.OpcodeCoreReset, packet.CoreResetNtf{
		Trigger:      packet.TriggerPowerOn,
		ConfigStatus: packet.ConfigReset,
		NciVersion:   packet.Version11,
	}.Encode())

	powerOnPkt, err := client.WaitNotification(ctx, packet.OpcodeCoreReset)
	require.NoError(t, err)
	powerOn, err := packet.DecodeCoreResetNtf(powerOnPkt.Payload)
	require.NoError(t, err)
	assert.Equal(t, packet.TriggerPowerOn, powerOn.Trigger)

	go func() {
		cmd := <-ft.writeNotify
		require.Equal(t, packet.OpcodeCoreReset, cmd.GetOpcode())
		ft.in <- packet.BuildResponse(packet.OpcodeCoreReset, packet.CoreResetRsp{Status: packet.StatusOk}.Encode())
		ft.in <- packet.BuildNotification(packet.OpcodeCoreReset, packet.CoreResetNtf{
			Trigger:      packet.TriggerResetCommand,
			ConfigStatus: packet.ConfigReset,
			NciVersion:   packet.Version11,
		}.Encode())

		cmd = <-ft.writeNotify
		require.Equal(t, packet.OpcodeCoreInit, cmd.GetOpcode())
		ft.in <- packet.BuildResponse(packet.OpcodeCoreInit, packet.DefaultCoreInitRsp().Encode())
	}()

	ntf, rsp, err := client.Init(ctx)
	require.NoError(t, err)
	assert.Equal(t, packet.TriggerResetCommand, ntf.Trigger)
	assert.Equal(t, packet.StatusOk, rsp.Status)
}

func eventName(code uint8) string {
	switch code {
	case conn.EventClose:
		return "close"
	case packet.EventDataStart:
		return "data_start"
	case packet.EventData:
		return "data"
	default:
		return "unknown"
	}
}
