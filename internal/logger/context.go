package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds connection-scoped logging context for an NCI session.
type LogContext struct {
	TraceID      string    // OpenTelemetry trace ID
	SpanID       string    // OpenTelemetry span ID
	PeerAddr     string    // Remote TCP peer address (without port normalization)
	DeviceID     int       // Emulator device slot index (-1 if not applicable)
	ConnID       int       // Logical connection ID (-1 if not applicable)
	Opcode       string    // "GID:OID" of the packet currently being handled
	RfDiscoverID uint8     // RF discovery ID associated with the current exchange
	StartTime    time.Time // For duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for a freshly accepted peer connection.
func NewLogContext(peerAddr string) *LogContext {
	return &LogContext{
		PeerAddr:  peerAddr,
		DeviceID:  -1,
		ConnID:    -1,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		TraceID:      lc.TraceID,
		SpanID:       lc.SpanID,
		PeerAddr:     lc.PeerAddr,
		DeviceID:     lc.DeviceID,
		ConnID:       lc.ConnID,
		Opcode:       lc.Opcode,
		RfDiscoverID: lc.RfDiscoverID,
		StartTime:    lc.StartTime,
	}
}

// WithDevice returns a copy with the emulator device slot set
func (lc *LogContext) WithDevice(deviceID int) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.DeviceID = deviceID
	}
	return clone
}

// WithConn returns a copy with the logical connection ID set
func (lc *LogContext) WithConn(connID int) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.ConnID = connID
	}
	return clone
}

// WithOpcode returns a copy with the current opcode set
func (lc *LogContext) WithOpcode(gid, oid uint8) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Opcode = formatOpcode(gid, oid)
	}
	return clone
}

// WithRfDiscoverID returns a copy with the RF discovery ID set
func (lc *LogContext) WithRfDiscoverID(id uint8) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.RfDiscoverID = id
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}

func formatOpcode(gid, oid uint8) string {
	const hex = "0123456789abcdef"
	b := [4]byte{hex[gid&0xf], ':', hex[(oid>>4)&0xf], hex[oid&0xf]}
	return string(b[:])
}
