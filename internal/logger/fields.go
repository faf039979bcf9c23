package logger

import (
	"log/slog"
)

// Standard field keys for structured logging across the NCI host stack and
// the Casimir emulator. Use these keys consistently across all log
// statements so log aggregation and querying stays uniform.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Transport / session
	// ========================================================================
	KeyPeerAddr = "peer_addr" // Remote TCP peer address
	KeyDeviceID = "device_id" // Emulator device slot index

	// ========================================================================
	// Packet / opcode
	// ========================================================================
	KeyOpcode     = "opcode"      // "GID:OID" of the packet being handled
	KeyMT         = "mt"          // Message type (Data/Command/Response/Notification)
	KeyPBF        = "pbf"         // Packet Boundary Flag
	KeyPayloadLen = "payload_len" // Payload length in bytes

	// ========================================================================
	// Logical connection
	// ========================================================================
	KeyConnID       = "conn_id"       // Logical connection identifier
	KeyCredits      = "credits"       // Current credit counter
	KeyCreditReturn = "credit_return" // CR field from a data packet header
	KeyRfDiscoverID = "rf_discover_id"
	KeyRfProtocol   = "rf_protocol"

	// ========================================================================
	// Status / errors
	// ========================================================================
	KeyStatus    = "status"     // NCI status byte
	KeyStatusMsg = "status_msg" // Human-readable status message
	KeyError     = "error"      // Error message
	KeyTimedOut  = "timed_out"  // Command dispatch timed out

	// ========================================================================
	// RF relay
	// ========================================================================
	KeyRFBytes    = "rf_bytes"
	KeyRFSenderID = "rf_sender_id"

	// ========================================================================
	// Operation metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyOperation  = "operation"   // Sub-operation/handler name
)

// ============================================================================
// Field constructors for type safety
// ============================================================================

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// PeerAddr returns a slog.Attr for a remote TCP peer address
func PeerAddr(addr string) slog.Attr {
	return slog.String(KeyPeerAddr, addr)
}

// DeviceID returns a slog.Attr for an emulator device slot index
func DeviceID(id int) slog.Attr {
	return slog.Int(KeyDeviceID, id)
}

// Opcode returns a slog.Attr for a packet's (GID, OID) pair, formatted "g:oo"
func Opcode(gid, oid uint8) slog.Attr {
	return slog.String(KeyOpcode, formatOpcode(gid, oid))
}

// MessageType returns a slog.Attr for a packet's message type
func MessageType(mt string) slog.Attr {
	return slog.String(KeyMT, mt)
}

// PBF returns a slog.Attr for the Packet Boundary Flag
func PBF(incomplete bool) slog.Attr {
	if incomplete {
		return slog.String(KeyPBF, "incomplete")
	}
	return slog.String(KeyPBF, "complete")
}

// PayloadLen returns a slog.Attr for a packet's payload length
func PayloadLen(n int) slog.Attr {
	return slog.Int(KeyPayloadLen, n)
}

// ConnID returns a slog.Attr for a logical connection identifier
func ConnID(id uint8) slog.Attr {
	return slog.Int(KeyConnID, int(id))
}

// Credits returns a slog.Attr for a connection's current credit counter
func Credits(n int) slog.Attr {
	return slog.Int(KeyCredits, n)
}

// CreditReturn returns a slog.Attr for the CR field of a data packet header
func CreditReturn(cr uint8) slog.Attr {
	return slog.Int(KeyCreditReturn, int(cr))
}

// RfDiscoverID returns a slog.Attr for an RF discovery identifier
func RfDiscoverID(id uint8) slog.Attr {
	return slog.Int(KeyRfDiscoverID, int(id))
}

// RfProtocol returns a slog.Attr for an RF protocol type name
func RfProtocol(name string) slog.Attr {
	return slog.String(KeyRfProtocol, name)
}

// Status returns a slog.Attr for an NCI status byte
func Status(status uint8) slog.Attr {
	return slog.Int(KeyStatus, int(status))
}

// StatusMsg returns a slog.Attr for a human-readable status message
func StatusMsg(msg string) slog.Attr {
	return slog.String(KeyStatusMsg, msg)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// TimedOut returns a slog.Attr marking a command dispatch as timed out
func TimedOut(timedOut bool) slog.Attr {
	return slog.Bool(KeyTimedOut, timedOut)
}

// RFBytes returns a slog.Attr for the size of a relayed RF payload
func RFBytes(n int) slog.Attr {
	return slog.Int(KeyRFBytes, n)
}

// RFSenderID returns a slog.Attr for the originating device slot of an RF payload
func RFSenderID(id int) slog.Attr {
	return slog.Int(KeyRFSenderID, id)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Operation returns a slog.Attr for a sub-operation/handler name
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}
