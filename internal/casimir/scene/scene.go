// Package scene implements the Casimir scene (C7): up to MaxDevices
// emulated NFCCs, each driven by its own controller, relaying RF traffic
// between them through a single shared mailbox.
package scene

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/casimir/controller"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/logger"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/metrics"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/transport"
)

// MaxDevices bounds the number of concurrently connected emulated devices.
const MaxDevices = 2

const rfInboxDepth = 16
const mailboxDepth = 64

// ErrMaxConnectionsReached is returned by Accept when every device slot is
// occupied.
var ErrMaxConnectionsReached = errors.New("scene: max connections reached")

type rfMessage struct {
	senderID int
	payload  []byte
}

type device struct {
	sessionID uuid.UUID
	rfInbox   chan []byte
	cancel    context.CancelFunc
}

// DeviceStatus is a point-in-time snapshot of one occupied device slot, for
// internal/statusapi's /status endpoint.
type DeviceStatus struct {
	Slot      int       `json:"slot"`
	SessionID uuid.UUID `json:"session_id"`
}

// Scene owns the device slot table and the RF relay mailbox.
type Scene struct {
	mu      sync.Mutex
	devices [MaxDevices]*device
	mailbox chan rfMessage
}

// New constructs an empty Scene.
func New() *Scene {
	return &Scene{mailbox: make(chan rfMessage, mailboxDepth)}
}

// Run drains the RF mailbox and fans each message out to every device slot
// other than the sender, until ctx is cancelled.
func (s *Scene) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.mailbox:
			s.fanOut(msg)
		}
	}
}

func (s *Scene) fanOut(msg rfMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, d := range s.devices {
		if d == nil || i == msg.senderID {
			continue
		}
		select {
		case d.rfInbox <- msg.payload:
		default:
			logger.Warn("scene: rf inbox full, dropping relayed payload", "device", i)
		}
	}
	metrics.RFBytesRelayed(len(msg.payload))
}

// Accept allocates the first free device slot for t and spawns a controller
// task to drive it, returning ErrMaxConnectionsReached if every slot is
// occupied. ctx bounds the spawned controller's lifetime.
func (s *Scene) Accept(ctx context.Context, t transport.Transport) error {
	s.mu.Lock()
	slot := -1
	for i, d := range s.devices {
		if d == nil {
			slot = i
			break
		}
	}
	if slot == -1 {
		s.mu.Unlock()
		return ErrMaxConnectionsReached
	}

	devCtx, cancel := context.WithCancel(ctx)
	sessionID := uuid.New()
	rfInbox := make(chan []byte, rfInboxDepth)
	s.devices[slot] = &device{sessionID: sessionID, rfInbox: rfInbox, cancel: cancel}
	s.mu.Unlock()
	s.reportActiveSlots()
	logger.Info("scene: device connected", "device", slot, "session_id", sessionID)

	id := slot
	sendRF := func(ctx context.Context, payload []byte) error {
		select {
		case s.mailbox <- rfMessage{senderID: id, payload: payload}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	ctrl := controller.New(id, t, rfInbox, sendRF)

	go func() {
		defer cancel()
		err := ctrl.Run(devCtx)
		s.free(id)
		logger.Info("scene: device disconnected", "device", id, "session_id", sessionID)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scene: controller session ended", "device", id, "error", err)
		}
	}()

	return nil
}

// Devices returns a snapshot of every currently occupied device slot.
func (s *Scene) Devices() []DeviceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []DeviceStatus
	for i, d := range s.devices {
		if d != nil {
			out = append(out, DeviceStatus{Slot: i, SessionID: d.sessionID})
		}
	}
	return out
}

func (s *Scene) free(slot int) {
	s.mu.Lock()
	s.devices[slot] = nil
	s.mu.Unlock()
	s.reportActiveSlots()
}

func (s *Scene) reportActiveSlots() {
	s.mu.Lock()
	n := 0
	for _, d := range s.devices {
		if d != nil {
			n++
		}
	}
	s.mu.Unlock()
	metrics.ActiveDeviceSlots(n)
}

// Disconnect forcibly ends the controller session in slot, if occupied,
// returning whether a device was disconnected. The slot is freed by the
// controller goroutine's own cleanup once Run observes ctx cancellation.
func (s *Scene) Disconnect(slot int) bool {
	s.mu.Lock()
	d := s.devices[slot]
	s.mu.Unlock()
	if d == nil {
		return false
	}
	d.cancel()
	return true
}

// ActiveDevices returns the number of currently occupied device slots.
func (s *Scene) ActiveDevices() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, d := range s.devices {
		if d != nil {
			n++
		}
	}
	return n
}
