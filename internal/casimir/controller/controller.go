// Package controller implements the NFCC emulator core (C6): one instance
// per connected DH, holding a configuration parameter map and the fixed-size
// logical-connections table, multiplexing inbound NCI traffic, RF traffic
// relayed by the scene, and a 5ms tick.
package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/logger"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/metrics"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/packet"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/segment"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/transport"
)

const tickInterval = 5 * time.Millisecond

// configRFUThreshold marks the start of the reserved-for-future-use config
// parameter ID range; IDs at or above it are always rejected by CoreSetConfig
// and CoreGetConfig, regardless of the emulator's current config map.
const configRFUThreshold uint8 = 0xA0

func isRFUConfigParam(id uint8) bool { return id >= configRFUThreshold }

// remoteEndpoint identifies the destination of an open logical connection,
// used to reject duplicate CoreConnCreate requests for the same endpoint.
type remoteEndpoint struct {
	rfDiscoveryID  uint8
	rfProtocolType uint8
}

// RFSend hands an RF payload to the scene's shared mailbox, tagged with this
// controller's device id by the caller.
type RFSend func(ctx context.Context, payload []byte) error

// Controller is one emulated NFCC instance.
type Controller struct {
	id     int
	nci    transport.Transport
	rfIn   <-chan []byte
	rfSend RFSend
	reasm  *segment.Reassembler

	configParams map[uint8][]byte
	conns        [packet.MaxLogicalConnections]*remoteEndpoint
}

// New constructs a Controller for device id, communicating over nci and
// relaying RF traffic through rfIn (inbound, fed by the scene) and rfSend
// (outbound, to the scene's mailbox).
func New(id int, nci transport.Transport, rfIn <-chan []byte, rfSend RFSend) *Controller {
	return &Controller{
		id:           id,
		nci:          nci,
		rfIn:         rfIn,
		rfSend:       rfSend,
		reasm:        segment.NewReassembler(),
		configParams: make(map[uint8][]byte),
	}
}

type readResult struct {
	pkt packet.Packet
	err error
}

// Run drives the controller's main loop until ctx is cancelled, the
// transport closes, or a protocol violation (an opcode the emulator does not
// implement) occurs - any of which ends this controller's session only.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.sendNotification(ctx, packet.OpcodeCoreReset, packet.CoreResetNtf{
		Trigger:      packet.TriggerPowerOn,
		ConfigStatus: packet.ConfigReset,
		NciVersion:   packet.Version11,
	}.Encode()); err != nil {
		return err
	}

	reads := make(chan readResult)
	go func() {
		for {
			pkt, err := c.nci.ReadPacket(ctx)
			select {
			case reads <- readResult{pkt: pkt, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case res := <-reads:
			if res.err != nil {
				return fmt.Errorf("controller[%d]: transport closed: %w", c.id, res.err)
			}
			complete, done := c.reasm.Push(res.pkt)
			metrics.SegmentsReassembled(1)
			if !done {
				continue
			}
			if complete.Header.IsControl() {
				if err := c.receiveCommand(ctx, complete); err != nil {
					return err
				}
			} else {
				c.receiveData(ctx, complete)
			}

		case payload, ok := <-c.rfIn:
			if !ok {
				c.rfIn = nil
				continue
			}
			c.receiveRF(ctx, payload)

		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

// tick is the hook for future timer-driven behavior (RF polling, discovery
// loop state machines); the emulator does not yet drive anything from it.
func (c *Controller) tick(context.Context) {}

// receiveData accepts an inbound NCI data packet but does not yet process
// it, preserving the buffering/dispatch point for future payload handling.
func (c *Controller) receiveData(ctx context.Context, pkt packet.Packet) {
	logger.DebugCtx(ctx, "controller: data packet accepted, not processed", "conn_id", pkt.GetConnID(), "len", len(pkt.Payload))
}

// receiveRF accepts an RF payload relayed by the scene but does not yet
// process it.
func (c *Controller) receiveRF(ctx context.Context, payload []byte) {
	logger.DebugCtx(ctx, "controller: rf payload accepted, not processed", "len", len(payload))
}

func (c *Controller) sendControl(ctx context.Context, pkt packet.Packet) error {
	return c.nci.WritePacket(ctx, pkt)
}

func (c *Controller) sendResponse(ctx context.Context, op packet.Opcode, payload []byte) error {
	return c.sendControl(ctx, packet.BuildResponse(op, payload))
}

func (c *Controller) sendNotification(ctx context.Context, op packet.Opcode, payload []byte) error {
	return c.sendControl(ctx, packet.BuildNotification(op, payload))
}

// receiveCommand decodes and dispatches one inbound command. An opcode this
// emulator does not implement is a fatal protocol violation for this
// controller's session, per the spec's "unhandled opcodes ... cause the
// controller task to fail".
func (c *Controller) receiveCommand(ctx context.Context, pkt packet.Packet) error {
	if pkt.GetMT() != packet.MTCommand {
		return fmt.Errorf("controller[%d]: unexpected message type %s on control input", c.id, pkt.GetMT())
	}

	switch pkt.GetOpcode() {
	case packet.OpcodeCoreReset:
		return c.handleCoreReset(ctx, pkt)
	case packet.OpcodeCoreInit:
		return c.handleCoreInit(ctx)
	case packet.OpcodeCoreSetConfig:
		return c.handleCoreSetConfig(ctx, pkt)
	case packet.OpcodeCoreGetConfig:
		return c.handleCoreGetConfig(ctx, pkt)
	case packet.OpcodeCoreConnCreate:
		return c.handleCoreConnCreate(ctx, pkt)
	case packet.OpcodeCoreConnClose:
		return c.handleCoreConnClose(ctx, pkt)
	case packet.OpcodeCoreSetPowerSubState:
		return c.sendResponse(ctx, packet.OpcodeCoreSetPowerSubState, packet.CoreSetPowerSubStateRsp{Status: packet.StatusOk}.Encode())
	case packet.OpcodeRfDiscoverMap:
		return c.sendResponse(ctx, packet.OpcodeRfDiscoverMap, packet.RfDiscoverMapRsp{Status: packet.StatusOk}.Encode())
	case packet.OpcodeRfSetListenModeRouting:
		return c.sendResponse(ctx, packet.OpcodeRfSetListenModeRouting, packet.RfSetListenModeRoutingRsp{Status: packet.StatusOk}.Encode())
	case packet.OpcodeRfGetListenModeRouting:
		return c.sendResponse(ctx, packet.OpcodeRfGetListenModeRouting, packet.RfGetListenModeRoutingRsp{Status: packet.StatusOk, MoreToFollow: 0}.Encode())
	case packet.OpcodeRfDiscover:
		return c.sendResponse(ctx, packet.OpcodeRfDiscover, packet.RfDiscoverRsp{Status: packet.StatusOk}.Encode())
	case packet.OpcodeRfDeactivate:
		return c.handleRfDeactivate(ctx, pkt)
	case packet.OpcodeNfceeDiscover:
		return c.sendResponse(ctx, packet.OpcodeNfceeDiscover, packet.NfceeDiscoverRsp{Status: packet.StatusOk, NumberOfNfcees: 0}.Encode())
	default:
		return fmt.Errorf("controller[%d]: unsupported opcode %s", c.id, pkt.GetOpcode())
	}
}

func (c *Controller) handleCoreReset(ctx context.Context, pkt packet.Packet) error {
	cmd, err := packet.DecodeCoreResetCmd(pkt.Payload)
	if err != nil {
		logger.ErrorCtx(ctx, "controller: malformed CoreResetCmd", "error", err)
		return nil
	}

	if err := c.sendResponse(ctx, packet.OpcodeCoreReset, packet.CoreResetRsp{Status: packet.StatusOk}.Encode()); err != nil {
		return err
	}

	configStatus := packet.ConfigKept
	if cmd.ResetType == packet.ResetResetConfig {
		configStatus = packet.ConfigReset
		c.configParams = make(map[uint8][]byte)
	}

	return c.sendNotification(ctx, packet.OpcodeCoreReset, packet.CoreResetNtf{
		Trigger:      packet.TriggerResetCommand,
		ConfigStatus: configStatus,
		NciVersion:   packet.Version11,
	}.Encode())
}

func (c *Controller) handleCoreInit(ctx context.Context) error {
	return c.sendResponse(ctx, packet.OpcodeCoreInit, packet.DefaultCoreInitRsp().Encode())
}

func (c *Controller) handleCoreSetConfig(ctx context.Context, pkt packet.Packet) error {
	cmd, err := packet.DecodeCoreSetConfigCmd(pkt.Payload)
	if err != nil {
		logger.ErrorCtx(ctx, "controller: malformed CoreSetConfigCmd", "error", err)
		return nil
	}

	var invalid []uint8
	for _, p := range cmd.Params {
		if isRFUConfigParam(p.ID) {
			invalid = append(invalid, p.ID)
			continue
		}
		c.configParams[p.ID] = p.Value
	}

	status := packet.StatusOk
	if len(invalid) > 0 {
		status = packet.StatusInvalidParam
	}
	return c.sendResponse(ctx, packet.OpcodeCoreSetConfig, packet.CoreSetConfigRsp{Status: status, InvalidParams: invalid}.Encode())
}

func (c *Controller) handleCoreGetConfig(ctx context.Context, pkt packet.Packet) error {
	cmd, err := packet.DecodeCoreGetConfigCmd(pkt.Payload)
	if err != nil {
		logger.ErrorCtx(ctx, "controller: malformed CoreGetConfigCmd", "error", err)
		return nil
	}

	var valid, invalid []packet.ConfigParam
	for _, id := range cmd.IDs {
		if v, ok := c.configParams[id]; ok {
			valid = append(valid, packet.ConfigParam{ID: id, Value: v})
		} else {
			invalid = append(invalid, packet.ConfigParam{ID: id, Value: []byte{}})
		}
	}

	if len(invalid) > 0 {
		return c.sendResponse(ctx, packet.OpcodeCoreGetConfig, packet.CoreGetConfigRsp{Status: packet.StatusInvalidParam, Params: invalid}.Encode())
	}
	return c.sendResponse(ctx, packet.OpcodeCoreGetConfig, packet.CoreGetConfigRsp{Status: packet.StatusOk, Params: valid}.Encode())
}

func (c *Controller) handleCoreConnCreate(ctx context.Context, pkt packet.Packet) error {
	cmd, err := packet.DecodeCoreConnCreateCmd(pkt.Payload)
	if err != nil {
		logger.ErrorCtx(ctx, "controller: malformed CoreConnCreateCmd", "error", err)
		return nil
	}

	connID, endpoint, status := c.resolveConnCreate(cmd)
	if status != packet.StatusOk {
		return c.sendResponse(ctx, packet.OpcodeCoreConnCreate, packet.CoreConnCreateRsp{
			Status:                 status,
			InitialNumberOfCredits: 0xff,
		}.Encode())
	}

	c.conns[connID] = &endpoint
	return c.sendResponse(ctx, packet.OpcodeCoreConnCreate, packet.CoreConnCreateRsp{
		Status:                   packet.StatusOk,
		ConnID:                   connID,
		MaxDataPacketPayloadSize: packet.MaxDataPacketPayloadSize,
		InitialNumberOfCredits:   0xff,
	}.Encode())
}

func (c *Controller) resolveConnCreate(cmd packet.CoreConnCreateCmd) (uint8, remoteEndpoint, packet.Status) {
	var connID uint8
	found := false
	for i := uint8(0); i < packet.MaxLogicalConnections; i++ {
		if c.conns[i] == nil {
			connID = i
			found = true
			break
		}
	}
	if !found {
		return 0, remoteEndpoint{}, packet.StatusRejected
	}

	if cmd.DestinationType != packet.DestRemoteNfcEndpoint {
		return 0, remoteEndpoint{}, packet.StatusRejected
	}

	var endpoint remoteEndpoint
	haveParam := false
	for _, p := range cmd.Params {
		if p.Type != packet.DestParamRfDiscovery {
			return 0, remoteEndpoint{}, packet.StatusRejected
		}
		rf, err := packet.DecodeRfDiscoveryParam(p.Value)
		if err != nil {
			return 0, remoteEndpoint{}, packet.StatusRejected
		}
		endpoint = remoteEndpoint{rfDiscoveryID: rf.RfDiscoveryID, rfProtocolType: rf.RfProtocolType}
		haveParam = true
	}
	if !haveParam {
		return 0, remoteEndpoint{}, packet.StatusRejected
	}

	for _, existing := range c.conns {
		if existing != nil && *existing == endpoint {
			return 0, remoteEndpoint{}, packet.StatusRejected
		}
	}

	return connID, endpoint, packet.StatusOk
}

func (c *Controller) handleCoreConnClose(ctx context.Context, pkt packet.Packet) error {
	cmd, err := packet.DecodeCoreConnCloseCmd(pkt.Payload)
	if err != nil {
		logger.ErrorCtx(ctx, "controller: malformed CoreConnCloseCmd", "error", err)
		return nil
	}

	status := packet.StatusRejected
	if cmd.ConnID < packet.MaxLogicalConnections && c.conns[cmd.ConnID] != nil {
		c.conns[cmd.ConnID] = nil
		status = packet.StatusOk
	}
	return c.sendResponse(ctx, packet.OpcodeCoreConnClose, packet.CoreConnCloseRsp{Status: status}.Encode())
}

func (c *Controller) handleRfDeactivate(ctx context.Context, pkt packet.Packet) error {
	cmd, err := packet.DecodeRfDeactivateCmd(pkt.Payload)
	if err != nil {
		logger.ErrorCtx(ctx, "controller: malformed RfDeactivateCmd", "error", err)
		return nil
	}

	if err := c.sendResponse(ctx, packet.OpcodeRfDeactivate, packet.RfDeactivateRsp{Status: packet.StatusOk}.Encode()); err != nil {
		return err
	}
	return c.sendNotification(ctx, packet.OpcodeRfDeactivate, packet.RfDeactivateNtf{
		DeactivationType: cmd.DeactivationType,
		Reason:           packet.ReasonDhRequest,
	}.Encode())
}
