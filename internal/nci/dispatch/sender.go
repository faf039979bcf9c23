package dispatch

import (
	"context"
	"errors"

	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/packet"
)

// ErrCommandTimedOut is returned when the dispatcher drops a command after
// CommandTimeout without a matching response.
var ErrCommandTimedOut = errors.New("dispatch: command timed out")

// CommandSender is the API layer's handle onto a running Dispatcher. It is
// safe for concurrent use; the dispatcher itself enforces that only one
// command is in flight at a time, queuing callers behind commandQueueDepth.
type CommandSender struct {
	commands      chan<- QueuedCommand
	notifications *notificationRegistry
}

// Close drops the CommandSender's end of the command channel, which the
// dispatcher observes as end-of-input and unwinds its Run loop from - the
// last piece of the nfc_disable shutdown sequence.
func (s *CommandSender) Close() {
	close(s.commands)
}

// Send submits cmd and blocks for its response, or until ctx is cancelled.
func (s *CommandSender) Send(ctx context.Context, cmd packet.Packet) (packet.Packet, error) {
	respSink := make(chan packet.Packet, 1)
	qc := QueuedCommand{Pending: PendingCommand{Cmd: cmd, ResponseSink: respSink}}

	if err := s.enqueue(ctx, qc); err != nil {
		return packet.Packet{}, err
	}
	return s.awaitResponse(ctx, respSink)
}

// SendAndNotify submits cmd, registers a one-shot sink for notifyOpcode
// before the command is written, and waits for both the response and the
// subsequent notification.
func (s *CommandSender) SendAndNotify(ctx context.Context, cmd packet.Packet, notifyOpcode packet.Opcode) (response, notification packet.Packet, err error) {
	respSink := make(chan packet.Packet, 1)
	notifySink := make(chan packet.Packet, 1)
	qc := QueuedCommand{
		Pending:          PendingCommand{Cmd: cmd, ResponseSink: respSink},
		NotifyOpcode:     notifyOpcode,
		NotificationSink: notifySink,
	}

	if err := s.enqueue(ctx, qc); err != nil {
		return packet.Packet{}, packet.Packet{}, err
	}

	response, err = s.awaitResponse(ctx, respSink)
	if err != nil {
		return packet.Packet{}, packet.Packet{}, err
	}

	select {
	case ntf, ok := <-notifySink:
		if !ok {
			return response, packet.Packet{}, errors.New("dispatch: notification sink closed without delivery")
		}
		return response, ntf, nil
	case <-ctx.Done():
		return response, packet.Packet{}, ctx.Err()
	}
}

// WaitNotification registers a one-shot sink for opcode and blocks until a
// matching notification is delivered or ctx is cancelled. Unlike
// SendAndNotify, it registers directly against the notification registry
// without going through the single-in-flight command slot, since it has no
// command of its own to send - it exists for a peer's unsolicited
// notifications, such as the NFCC emulator's construction-time power-on
// CoreResetNotification, which a caller needs to drain before registering
// its own sink for the same opcode.
func (s *CommandSender) WaitNotification(ctx context.Context, opcode packet.Opcode) (packet.Packet, error) {
	sink := make(chan packet.Packet, 1)
	s.notifications.register(opcode, sink)

	select {
	case pkt, ok := <-sink:
		if !ok {
			return packet.Packet{}, errors.New("dispatch: notification sink closed without delivery")
		}
		return pkt, nil
	case <-ctx.Done():
		return packet.Packet{}, ctx.Err()
	}
}

func (s *CommandSender) enqueue(ctx context.Context, qc QueuedCommand) error {
	select {
	case s.commands <- qc:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *CommandSender) awaitResponse(ctx context.Context, respSink chan packet.Packet) (packet.Packet, error) {
	select {
	case resp, ok := <-respSink:
		if !ok {
			return packet.Packet{}, ErrCommandTimedOut
		}
		return resp, nil
	case <-ctx.Done():
		return packet.Packet{}, ctx.Err()
	}
}
