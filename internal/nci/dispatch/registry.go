package dispatch

import (
	"fmt"
	"sync"

	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/packet"
)

// notificationRegistry maps Opcode to a one-shot sink expecting the next
// matching notification. Registering a sink for an opcode that already has
// one, or firing a notification for an opcode with no sink, is a fatal
// programming error - both panic. A panic raised inside Dispatcher.Run is
// caught by its recover boundary; a duplicate registration made through
// CommandSender.WaitNotification panics in the caller's goroutine.
type notificationRegistry struct {
	mu    sync.Mutex
	sinks map[packet.Opcode]chan packet.Packet
}

func newNotificationRegistry() *notificationRegistry {
	return &notificationRegistry{sinks: make(map[packet.Opcode]chan packet.Packet)}
}

func (r *notificationRegistry) register(op packet.Opcode, sink chan packet.Packet) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sinks[op]; exists {
		panic(fmt.Sprintf("dispatch: duplicate notification registration for opcode %s", op))
	}
	r.sinks[op] = sink
}

// fire removes and delivers the sink registered for pkt's opcode. It panics
// if no sink is registered.
func (r *notificationRegistry) fire(pkt packet.Packet) {
	op := pkt.GetOpcode()

	r.mu.Lock()
	sink, ok := r.sinks[op]
	if ok {
		delete(r.sinks, op)
	}
	r.mu.Unlock()

	if !ok {
		panic(fmt.Sprintf("dispatch: notification for unregistered opcode %s", op))
	}
	sink <- pkt
	close(sink)
}

// drop closes every still-registered sink without delivering a value,
// called when the dispatcher terminates with standing subscriptions.
func (r *notificationRegistry) drop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for op, sink := range r.sinks {
		close(sink)
		delete(r.sinks, op)
	}
}
