// Package dispatch implements the NCI command dispatcher (C4): the single
// point in the host stack that enforces the one-command-in-flight rule,
// matches responses to their command by Opcode, delivers notifications to
// their registered one-shot sink, routes ConnCredits notifications into the
// logical-connection registry, and drops a command that goes unanswered for
// longer than CommandTimeout.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/logger"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/metrics"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/conn"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/packet"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/transport"
)

// CommandTimeout is the maximum time the dispatcher waits for a response
// before dropping the pending command.
const CommandTimeout = 20 * time.Millisecond

// commandQueueDepth bounds the number of QueuedCommands the API layer may
// have outstanding before Submit blocks - backpressure in place of an
// unbounded queue.
const commandQueueDepth = 16

// PendingCommand is the command currently awaiting a response.
type PendingCommand struct {
	Cmd          packet.Packet
	ResponseSink chan packet.Packet
}

// QueuedCommand is accepted by the dispatcher's main loop only when no
// command is already pending.
type QueuedCommand struct {
	Pending          PendingCommand
	NotifyOpcode     packet.Opcode
	NotificationSink chan packet.Packet // nil if the command expects no notification
}

// Dispatcher owns the single-in-flight command slot and the notification
// registry for one NCI session (one transport connection).
type Dispatcher struct {
	transport transport.Transport
	conns     *conn.Registry

	controlIn <-chan packet.Packet
	dataIn    <-chan packet.Packet
	commands  chan QueuedCommand

	notifications *notificationRegistry
	pending       *PendingCommand
}

// New constructs a Dispatcher. controlIn and dataIn are fed reassembled
// packets by the transport-reading goroutine; t is used for the outbound
// command path; conns receives routed data packets and credit grants.
func New(t transport.Transport, conns *conn.Registry, controlIn, dataIn <-chan packet.Packet) (*Dispatcher, *CommandSender) {
	commands := make(chan QueuedCommand, commandQueueDepth)
	d := &Dispatcher{
		transport:     t,
		conns:         conns,
		controlIn:     controlIn,
		dataIn:        dataIn,
		commands:      commands,
		notifications: newNotificationRegistry(),
	}
	return d, &CommandSender{commands: commands, notifications: d.notifications}
}

// Run executes the dispatcher's select loop until ctx is cancelled or all
// input channels are closed. Protocol violations (an unexpected response
// opcode, a notification for an unregistered opcode, a duplicate
// registration) panic; Run recovers, logs, and returns an error rather than
// letting the panic escape to crash the whole process - only this session
// is torn down.
func (d *Dispatcher) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatch: protocol violation: %v", r)
			logger.ErrorCtx(ctx, "dispatch: session terminated by protocol violation", "error", err)
		}
		if d.pending != nil {
			close(d.pending.ResponseSink)
			d.pending = nil
		}
		d.notifications.drop()
	}()

	timer := time.NewTimer(CommandTimeout)
	disarmTimer(timer)
	defer timer.Stop()

	controlIn := d.controlIn
	dataIn := d.dataIn
	commands := d.commands

	for controlIn != nil || dataIn != nil || commands != nil {
		var acceptCommands chan QueuedCommand
		if d.pending == nil {
			acceptCommands = commands
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case qc, ok := <-acceptCommands:
			if !ok {
				commands = nil
				continue
			}
			d.acceptCommand(ctx, qc, timer)

		case pkt, ok := <-controlIn:
			if !ok {
				controlIn = nil
				continue
			}
			d.handleControl(ctx, pkt, timer)

		case pkt, ok := <-dataIn:
			if !ok {
				dataIn = nil
				continue
			}
			d.conns.Receive(ctx, pkt)

		case <-timer.C:
			d.handleTimeout(ctx)
		}
	}
	return nil
}

func (d *Dispatcher) acceptCommand(ctx context.Context, qc QueuedCommand, timer *time.Timer) {
	if qc.NotificationSink != nil {
		d.notifications.register(qc.NotifyOpcode, qc.NotificationSink)
	}

	if err := d.transport.WritePacket(ctx, qc.Pending.Cmd); err != nil {
		logger.ErrorCtx(ctx, "dispatch: failed to write command", "opcode", qc.Pending.Cmd.GetOpcode(), "error", err)
		close(qc.Pending.ResponseSink)
		return
	}

	pending := qc.Pending
	d.pending = &pending
	armTimer(timer, CommandTimeout)
	metrics.CommandSent()
}

func (d *Dispatcher) handleControl(ctx context.Context, pkt packet.Packet, timer *time.Timer) {
	switch pkt.GetMT() {
	case packet.MTResponse:
		d.handleResponse(ctx, pkt, timer)
	case packet.MTNotification:
		d.handleNotification(ctx, pkt)
	default:
		logger.WarnCtx(ctx, "dispatch: unexpected control message type on inbound path", "mt", pkt.GetMT())
	}
}

func (d *Dispatcher) handleResponse(ctx context.Context, pkt packet.Packet, timer *time.Timer) {
	if d.pending == nil {
		panic(fmt.Sprintf("dispatch: response for opcode %s with no command pending", pkt.GetOpcode()))
	}
	want := d.pending.Cmd.GetOpcode()
	if pkt.GetOpcode() != want {
		panic(fmt.Sprintf("dispatch: response opcode %s does not match pending command opcode %s", pkt.GetOpcode(), want))
	}

	disarmTimer(timer)
	sink := d.pending.ResponseSink
	d.pending = nil

	sink <- pkt
	close(sink)
	metrics.ResponseReceived()
}

func (d *Dispatcher) handleNotification(ctx context.Context, pkt packet.Packet) {
	if pkt.GetOpcode() == packet.OpcodeCoreConnCredits {
		ntf, err := packet.DecodeCoreConnCreditsNtf(pkt.Payload)
		if err != nil {
			logger.ErrorCtx(ctx, "dispatch: malformed ConnCredits notification", "error", err)
			return
		}
		for _, e := range ntf.Entries {
			d.conns.AddCredits(ctx, e.ConnID, e.Credits)
		}
		return
	}

	d.notifications.fire(pkt)
	metrics.NotificationDelivered()
}

func (d *Dispatcher) handleTimeout(ctx context.Context) {
	if d.pending == nil {
		return
	}
	logger.WarnCtx(ctx, "dispatch: command timed out", "opcode", d.pending.Cmd.GetOpcode())
	close(d.pending.ResponseSink)
	d.pending = nil
	metrics.CommandTimedOut()
}

// armTimer resets t to fire after d, draining any already-fired value first.
func armTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

// disarmTimer stops t and drains any already-fired value.
func disarmTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
