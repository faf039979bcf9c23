// Package conn implements the logical-connection registry (C5): per-Conn-ID
// callback, credit counter, send queue and reassembly queue, with
// credit-based flow control and segmentation on the outbound path.
package conn

import (
	"context"
	"fmt"
	"sync"

	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/logger"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/metrics"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/packet"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/segment"
)

// Reserved Conn IDs: static RF and static HCI connections.
const (
	ConnIDStaticRF  uint8 = 0
	ConnIDStaticHCI uint8 = 1
)

// EventClose is delivered to a connection's callback on Close. It is a
// host-stack-internal signal, not an NCI wire event code.
const EventClose uint8 = 0xFF

// Callback receives data events for one logical connection: event code
// (packet.EventDataStart, packet.EventData, or EventClose) and payload.
type Callback func(connID uint8, eventCode uint8, payload []byte)

// SendFunc hands a fully segmented DataPacket to the outbound transport.
type SendFunc func(ctx context.Context, pkt packet.Packet) error

type connectionState struct {
	mu             sync.Mutex
	callback       Callback
	maxPayloadSize uint8
	credits        int
	sendQueue      []packet.Packet
	recvQueue      []packet.Packet
}

// ErrDuplicateConnID is returned by Open when conn_id is already open.
type ErrDuplicateConnID struct{ ConnID uint8 }

func (e *ErrDuplicateConnID) Error() string {
	return fmt.Sprintf("conn: duplicate conn_id %d", e.ConnID)
}

// Registry maps Conn ID to connectionState, shared by the dispatcher
// (readers: send/receive/add_credits) and the API layer (writers: open/
// close). The outer map is guarded by an RWMutex; each entry has its own
// short-lived mutex so credit updates and queue drains stay cheap.
type Registry struct {
	mu    sync.RWMutex
	conns map[uint8]*connectionState
	send  SendFunc
}

// NewRegistry creates an empty registry. send is invoked to hand a
// (possibly segmented) DataPacket to the outbound transport.
func NewRegistry(send SendFunc) *Registry {
	return &Registry{conns: make(map[uint8]*connectionState), send: send}
}

// Open creates a new logical connection. Opening a Conn ID that is already
// open returns *ErrDuplicateConnID and leaves the registry unchanged; the
// session is not torn down.
func (r *Registry) Open(connID uint8, cb Callback, maxPayloadSize uint8, initialCredits uint8) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[connID]; exists {
		return &ErrDuplicateConnID{ConnID: connID}
	}
	r.conns[connID] = &connectionState{
		callback:       cb,
		maxPayloadSize: maxPayloadSize,
		credits:        int(initialCredits),
	}
	metrics.ActiveLogicalConnections(len(r.conns))
	return nil
}

// Close removes conn_id, delivers EventClose to its installed callback
// after releasing the registry lock, and returns that callback and whether
// the connection existed.
func (r *Registry) Close(connID uint8) (Callback, bool) {
	r.mu.Lock()
	c, ok := r.conns[connID]
	if !ok {
		r.mu.Unlock()
		return nil, false
	}
	delete(r.conns, connID)
	metrics.ActiveLogicalConnections(len(r.conns))
	r.mu.Unlock()

	c.mu.Lock()
	cb := c.callback
	c.mu.Unlock()

	if cb != nil {
		cb(connID, EventClose, nil)
	}
	return cb, true
}

// SetStaticCallback replaces the callback on an already-open static
// connection (Conn ID 0 or 1). It is a no-op if the connection is not open.
func (r *Registry) SetStaticCallback(connID uint8, cb Callback) {
	if connID != ConnIDStaticRF && connID != ConnIDStaticHCI {
		logger.Warn("SetStaticCallback called for non-static conn_id", "conn_id", connID)
	}

	r.mu.RLock()
	c, ok := r.conns[connID]
	r.mu.RUnlock()
	if !ok {
		return
	}

	c.mu.Lock()
	c.callback = cb
	c.mu.Unlock()
}

// AddCredits increases conn_id's credit counter by n and immediately drains
// its send queue while credits remain and the queue is non-empty.
func (r *Registry) AddCredits(ctx context.Context, connID uint8, n uint8) {
	r.mu.RLock()
	c, ok := r.conns[connID]
	r.mu.RUnlock()
	if !ok {
		logger.WarnCtx(ctx, "AddCredits for unknown conn_id", "conn_id", connID)
		return
	}

	c.mu.Lock()
	c.credits += int(n)
	metrics.CreditsGranted(int(n))
	r.drainLocked(ctx, connID, c)
	c.mu.Unlock()
}

// SendPacket queues pkt for conn_id, splitting it into DataPacket segments
// first if its payload exceeds the connection's max payload size, then
// drains the send queue up to the credit limit.
func (r *Registry) SendPacket(ctx context.Context, connID uint8, pkt packet.Packet) error {
	r.mu.RLock()
	c, ok := r.conns[connID]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("conn: send_packet: conn_id %d not open", connID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	segments := segment.Split(pkt, c.maxPayloadSize)
	c.sendQueue = append(c.sendQueue, segments...)
	metrics.SegmentsSplit(len(segments))
	r.drainLocked(ctx, connID, c)
	return nil
}

// drainLocked hands queued packets to the transport while credits remain.
// Caller must hold c.mu.
func (r *Registry) drainLocked(ctx context.Context, connID uint8, c *connectionState) {
	for c.credits > 0 && len(c.sendQueue) > 0 {
		pkt := c.sendQueue[0]
		c.sendQueue = c.sendQueue[1:]
		if err := r.send(ctx, pkt); err != nil {
			logger.ErrorCtx(ctx, "conn: failed to send queued packet", "conn_id", connID, "error", err)
			return
		}
		c.credits--
		metrics.CreditsSpent(1)
	}
}

// Receive processes an inbound DataPacket: grants any returned credits,
// accumulates the packet into the connection's reassembly queue, and fires
// the callback with DATA_START on the first segment of a multi-segment
// message or DATA once the CompleteOrFinal segment arrives. Packets for an
// unknown Conn ID are dropped silently.
func (r *Registry) Receive(ctx context.Context, pkt packet.Packet) {
	connID := pkt.GetConnID()
	cr := pkt.GetCR()

	if cr > 0 {
		r.AddCredits(ctx, connID, cr)
	}

	r.mu.RLock()
	c, ok := r.conns[connID]
	r.mu.RUnlock()
	if !ok {
		logger.DebugCtx(ctx, "conn: data for unknown conn_id dropped", "conn_id", connID)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	done := pkt.GetPBF() == packet.PBFCompleteOrFinal

	if !done && len(c.recvQueue) == 0 {
		if c.callback != nil {
			c.callback(connID, packet.EventDataStart, nil)
		}
	}

	c.recvQueue = append(c.recvQueue, pkt)

	if !done {
		return
	}

	total := 0
	for _, p := range c.recvQueue {
		total += len(p.Payload)
	}
	body := make([]byte, 1, total+1)
	body[0] = 0 // status byte
	for _, p := range c.recvQueue {
		body = append(body, p.Payload...)
	}
	c.recvQueue = nil

	if c.callback != nil {
		c.callback(connID, packet.EventData, body)
	}
}

// Flush clears conn_id's send queue, returning whether the connection
// existed.
func (r *Registry) Flush(connID uint8) bool {
	r.mu.RLock()
	c, ok := r.conns[connID]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	c.mu.Lock()
	c.sendQueue = nil
	c.mu.Unlock()
	return true
}

// Credits returns conn_id's current credit count, for status/metrics
// reporting. Returns (0, false) if the connection is not open.
func (r *Registry) Credits(connID uint8) (int, bool) {
	r.mu.RLock()
	c, ok := r.conns[connID]
	r.mu.RUnlock()
	if !ok {
		return 0, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.credits, true
}

// Count returns the number of currently open logical connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
