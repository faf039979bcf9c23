// Package nci is the high-level NCI host API (C1): the façade application
// code drives instead of touching the dispatcher, connection registry and
// wire packets directly. Its method set mirrors the nfc_* entry points of
// the original host stack - enable/disable, init, config get/set,
// connection lifecycle, data send/flush and discovery mapping - adapted to
// Go naming and error-return conventions.
package nci

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/logger"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/metrics"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/conn"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/dispatch"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/packet"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/segment"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/transport"
)

const ioQueueDepth = 16

// EventDisabled is the event code Disable's callback fires with once
// shutdown completes, matching the original HAL's shutdown-complete event
// code delivered to the stack's generic callback.
const EventDisabled uint16 = 1

// Callback receives host-stack lifecycle events reported directly by the
// Client, as opposed to conn.Callback which carries per-connection data
// events.
type Callback func(eventCode uint16, payload []byte)

// Client is the application-facing handle onto one running NCI session.
// It is safe for concurrent use.
type Client struct {
	commands *dispatch.CommandSender
	conns    *conn.Registry

	mu       sync.Mutex
	callback Callback

	cancel       context.CancelFunc
	dispatchDone chan struct{}
}

// Enable wires a Dispatcher and logical-connection Registry onto t and
// starts them running in the background, returning a ready-to-use Client.
// callback is retained only to report the eventual EventDisabled event;
// per-connection data is delivered through the callbacks passed to
// ConnCreate, SetStaticRfCallback and SetStaticHciCallback.
func Enable(ctx context.Context, t transport.Transport, callback Callback) *Client {
	runCtx, cancel := context.WithCancel(ctx)

	controlIn := make(chan packet.Packet, ioQueueDepth)
	dataIn := make(chan packet.Packet, ioQueueDepth)

	registry := conn.NewRegistry(t.WritePacket)
	d, sender := dispatch.New(t, registry, controlIn, dataIn)

	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		if err := d.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.ErrorCtx(runCtx, "nci: dispatcher session ended", "error", err)
		}
	}()

	go readLoop(runCtx, t, controlIn, dataIn)

	return &Client{
		commands:     sender,
		conns:        registry,
		callback:     callback,
		cancel:       cancel,
		dispatchDone: dispatchDone,
	}
}

// readLoop feeds raw segments read from t through a Reassembler and hands
// each fully reassembled packet to the control or data channel the
// Dispatcher reads from, until ctx is cancelled or the transport fails.
func readLoop(ctx context.Context, t transport.Transport, controlIn, dataIn chan<- packet.Packet) {
	defer close(controlIn)
	defer close(dataIn)

	reasm := segment.NewReassembler()
	for {
		pkt, err := t.ReadPacket(ctx)
		if err != nil {
			return
		}

		complete, done := reasm.Push(pkt)
		metrics.SegmentsReassembled(1)
		if !done {
			continue
		}

		dest := dataIn
		if complete.Header.IsControl() {
			dest = controlIn
		}
		select {
		case dest <- complete:
		case <-ctx.Done():
			return
		}
	}
}

// Disable unwinds the session: it drops the Client's CommandSender, which
// the dispatcher observes as end of input and uses to unwind its Run loop,
// cancels the reader goroutine's context, waits for the dispatcher to
// finish, then fires EventDisabled on the callback passed to Enable.
func (c *Client) Disable() {
	c.commands.Close()
	c.cancel()
	<-c.dispatchDone

	c.mu.Lock()
	cb := c.callback
	c.mu.Unlock()
	if cb != nil {
		cb(EventDisabled, nil)
	}
}

// Init performs the CORE_RESET / CORE_INIT handshake: it issues CORE_RESET
// with ResetResetConfig, waits for both its response and the CORE_RESET
// notification that follows, then issues CORE_INIT and returns its
// response alongside the notification.
func (c *Client) Init(ctx context.Context) (packet.CoreResetNtf, packet.CoreInitRsp, error) {
	resetCmd := packet.BuildCommand(packet.OpcodeCoreReset, packet.CoreResetCmd{ResetType: packet.ResetResetConfig}.Encode())
	_, ntfPkt, err := c.commands.SendAndNotify(ctx, resetCmd, packet.OpcodeCoreReset)
	if err != nil {
		return packet.CoreResetNtf{}, packet.CoreInitRsp{}, fmt.Errorf("nci: init: core_reset: %w", err)
	}
	ntf, err := packet.DecodeCoreResetNtf(ntfPkt.Payload)
	if err != nil {
		return packet.CoreResetNtf{}, packet.CoreInitRsp{}, fmt.Errorf("nci: init: %w", err)
	}

	initRspPkt, err := c.commands.Send(ctx, packet.BuildCommand(packet.OpcodeCoreInit, nil))
	if err != nil {
		return ntf, packet.CoreInitRsp{}, fmt.Errorf("nci: init: core_init: %w", err)
	}
	rsp, err := packet.DecodeCoreInitRsp(initRspPkt.Payload)
	if err != nil {
		return ntf, packet.CoreInitRsp{}, fmt.Errorf("nci: init: %w", err)
	}
	return ntf, rsp, nil
}

// WaitNotification blocks until a notification for opcode arrives, or ctx is
// cancelled. It is for notifications the peer emits unsolicited, outside any
// command/response exchange - draining the NFCC emulator's construction-time
// power-on CoreResetNotification before Init is the motivating case, since
// Init registers its own sink for the same opcode to catch the notification
// that follows CORE_RESET.
func (c *Client) WaitNotification(ctx context.Context, opcode packet.Opcode) (packet.Packet, error) {
	return c.commands.WaitNotification(ctx, opcode)
}

// GetLmrtSize returns the maximum listen-mode-routing-table size the
// controller reports. It is a fixed constant, not queried over the wire.
func (c *Client) GetLmrtSize() uint16 {
	return packet.MaxRoutingTableSize
}

// SetConfig issues CORE_SET_CONFIG with params.
func (c *Client) SetConfig(ctx context.Context, params []packet.ConfigParam) (packet.CoreSetConfigRsp, error) {
	cmd := packet.BuildCommand(packet.OpcodeCoreSetConfig, packet.CoreSetConfigCmd{Params: params}.Encode())
	rspPkt, err := c.commands.Send(ctx, cmd)
	if err != nil {
		return packet.CoreSetConfigRsp{}, err
	}
	return packet.DecodeCoreSetConfigRsp(rspPkt.Payload)
}

// GetConfig issues CORE_GET_CONFIG for the given parameter ids.
func (c *Client) GetConfig(ctx context.Context, ids []uint8) (packet.CoreGetConfigRsp, error) {
	cmd := packet.BuildCommand(packet.OpcodeCoreGetConfig, packet.CoreGetConfigCmd{IDs: ids}.Encode())
	rspPkt, err := c.commands.Send(ctx, cmd)
	if err != nil {
		return packet.CoreGetConfigRsp{}, err
	}
	return packet.DecodeCoreGetConfigRsp(rspPkt.Payload)
}

// ConnCreate issues CORE_CONN_CREATE for a remote NFC endpoint identified
// by rfDiscoveryID/rfProtocolType and, on a successful response, opens the
// logical connection in the registry with cb installed as its data
// callback.
func (c *Client) ConnCreate(ctx context.Context, rfDiscoveryID, rfProtocolType uint8, cb conn.Callback) (packet.CoreConnCreateRsp, error) {
	cmd := packet.BuildCommand(packet.OpcodeCoreConnCreate, packet.CoreConnCreateCmd{
		DestinationType: packet.DestRemoteNfcEndpoint,
		Params: []packet.DestParam{{
			Type:  packet.DestParamRfDiscovery,
			Value: []byte{rfDiscoveryID, rfProtocolType},
		}},
	}.Encode())

	rspPkt, err := c.commands.Send(ctx, cmd)
	if err != nil {
		return packet.CoreConnCreateRsp{}, err
	}
	rsp, err := packet.DecodeCoreConnCreateRsp(rspPkt.Payload)
	if err != nil {
		return packet.CoreConnCreateRsp{}, err
	}
	if rsp.Status == packet.StatusOk {
		if err := c.conns.Open(rsp.ConnID, cb, rsp.MaxDataPacketPayloadSize, rsp.InitialNumberOfCredits); err != nil {
			return rsp, err
		}
	}
	return rsp, nil
}

// ConnClose issues CORE_CONN_CLOSE for connID and, on a successful
// response, removes it from the registry - which delivers conn.EventClose
// to its installed callback.
func (c *Client) ConnClose(ctx context.Context, connID uint8) (packet.CoreConnCloseRsp, error) {
	cmd := packet.BuildCommand(packet.OpcodeCoreConnClose, packet.CoreConnCloseCmd{ConnID: connID}.Encode())
	rspPkt, err := c.commands.Send(ctx, cmd)
	if err != nil {
		return packet.CoreConnCloseRsp{}, err
	}
	rsp, err := packet.DecodeCoreConnCloseRsp(rspPkt.Payload)
	if err != nil {
		return packet.CoreConnCloseRsp{}, err
	}
	if rsp.Status == packet.StatusOk {
		c.conns.Close(connID)
	}
	return rsp, nil
}

// SetStaticRfCallback installs cb as the static RF connection's (Conn ID 0)
// data callback.
func (c *Client) SetStaticRfCallback(cb conn.Callback) {
	c.conns.SetStaticCallback(conn.ConnIDStaticRF, cb)
}

// SetStaticHciCallback installs cb as the static HCI connection's (Conn ID
// 1) data callback.
func (c *Client) SetStaticHciCallback(cb conn.Callback) {
	c.conns.SetStaticCallback(conn.ConnIDStaticHCI, cb)
}

// SendData queues data for transmission on connID, segmenting and
// flow-controlling it through the connection registry.
func (c *Client) SendData(ctx context.Context, connID uint8, data []byte) error {
	return c.conns.SendPacket(ctx, connID, packet.NewDataPacket(connID, packet.PBFCompleteOrFinal, 0, data))
}

// FlushData discards connID's queued-but-uncredited outbound data.
func (c *Client) FlushData(connID uint8) bool {
	return c.conns.Flush(connID)
}

// DiscoveryMap issues RF_DISCOVER_MAP with the given raw mapping entries.
// The emulator does not interpret map contents; the command exists to
// exercise the discovery handshake ahead of RF_DISCOVER.
func (c *Client) DiscoveryMap(ctx context.Context, mappings []byte) (packet.RfDiscoverMapRsp, error) {
	rspPkt, err := c.commands.Send(ctx, packet.BuildCommand(packet.OpcodeRfDiscoverMap, mappings))
	if err != nil {
		return packet.RfDiscoverMapRsp{}, err
	}
	return packet.DecodeRfDiscoverMapRsp(rspPkt.Payload)
}

// ConnCredits returns connID's current credit count, for status reporting.
func (c *Client) ConnCredits(connID uint8) (int, bool) {
	return c.conns.Credits(connID)
}

// OpenConnections returns the number of currently open logical connections.
func (c *Client) OpenConnections() int {
	return c.conns.Count()
}
