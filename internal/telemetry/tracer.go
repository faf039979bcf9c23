package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for NCI/Casimir operations, following OpenTelemetry
// semantic-convention naming (dotted, lower-case namespaces).
const (
	// Transport / session attributes
	AttrPeerAddr  = "nci.peer.address"
	AttrDeviceID  = "nci.device.id"
	AttrSessionID = "nci.session.id"

	// Packet / opcode attributes
	AttrMessageType = "nci.packet.mt"
	AttrGID         = "nci.packet.gid"
	AttrOID         = "nci.packet.oid"
	AttrOpcode      = "nci.packet.opcode"
	AttrPayloadLen  = "nci.packet.payload_len"
	AttrPBF         = "nci.packet.pbf"

	// Logical-connection attributes
	AttrConnID   = "nci.conn.id"
	AttrCredits  = "nci.conn.credits"
	AttrCreditCR = "nci.conn.cr"

	// Dispatcher / status attributes
	AttrStatus   = "nci.status"
	AttrTimedOut = "nci.dispatch.timed_out"
	AttrRFBytes  = "nci.rf.bytes"
	AttrRFSender = "nci.rf.sender_id"
)

// Span names for dispatcher and controller operations.
const (
	SpanDispatchCommand  = "nci.dispatch.command"
	SpanDispatchNotify   = "nci.dispatch.notification"
	SpanControllerHandle = "casimir.controller.handle"
	SpanSceneRelay       = "casimir.scene.relay"
)

// PeerAddr returns an attribute for the remote TCP peer address.
func PeerAddr(addr string) attribute.KeyValue {
	return attribute.String(AttrPeerAddr, addr)
}

// DeviceID returns an attribute for the emulator device slot index.
func DeviceID(id int) attribute.KeyValue {
	return attribute.Int(AttrDeviceID, id)
}

// SessionID returns an attribute for a per-connection session identifier.
func SessionID(id string) attribute.KeyValue {
	return attribute.String(AttrSessionID, id)
}

// Opcode returns attributes identifying a control packet's (GID, OID) pair.
func Opcode(gid, oid uint8) attribute.KeyValue {
	return attribute.String(AttrOpcode, formatOpcode(gid, oid))
}

// ConnID returns an attribute for a logical connection identifier.
func ConnID(connID uint8) attribute.KeyValue {
	return attribute.Int(AttrConnID, int(connID))
}

// Credits returns an attribute for a connection's current credit count.
func Credits(n int) attribute.KeyValue {
	return attribute.Int(AttrCredits, n)
}

// PayloadLen returns an attribute for a packet's payload length in bytes.
func PayloadLen(n int) attribute.KeyValue {
	return attribute.Int(AttrPayloadLen, n)
}

// Status returns an attribute for an NCI status byte.
func Status(status uint8) attribute.KeyValue {
	return attribute.Int(AttrStatus, int(status))
}

// TimedOut returns an attribute marking a command dispatch as timed out.
func TimedOut(timedOut bool) attribute.KeyValue {
	return attribute.Bool(AttrTimedOut, timedOut)
}

// RFBytes returns an attribute for the size of an RF payload relayed by the scene.
func RFBytes(n int) attribute.KeyValue {
	return attribute.Int(AttrRFBytes, n)
}

// RFSender returns an attribute for the originating device slot of an RF payload.
func RFSender(id int) attribute.KeyValue {
	return attribute.Int(AttrRFSender, id)
}

// StartDispatchSpan starts a span around a dispatcher command round-trip.
func StartDispatchSpan(ctx context.Context, gid, oid uint8, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{Opcode(gid, oid)}, attrs...)
	return StartSpan(ctx, SpanDispatchCommand, trace.WithAttributes(allAttrs...))
}

// StartControllerSpan starts a span around a Casimir controller command handler.
func StartControllerSpan(ctx context.Context, deviceID int, gid, oid uint8, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{DeviceID(deviceID), Opcode(gid, oid)}, attrs...)
	return StartSpan(ctx, SpanControllerHandle, trace.WithAttributes(allAttrs...))
}

func formatOpcode(gid, oid uint8) string {
	const hex = "0123456789abcdef"
	b := [4]byte{hex[gid&0xf], ':', hex[(oid>>4)&0xf], hex[oid&0xf]}
	return string(b[:])
}
