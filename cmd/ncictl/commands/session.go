package commands

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/conn"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/packet"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/transport"
	"github.com/GrapheneOS-Archive/platform-system-nfc/pkg/nci"
)

// session holds the state ncictl's menu actions operate on: a dialed
// transport, the enabled Client, and bookkeeping for connections opened
// during the session so send-data/conn-close can be offered against them.
type session struct {
	netConn net.Conn
	client  *nci.Client

	mu          sync.Mutex
	connIDs     []uint8
	initialized bool
	lastNtf     packet.CoreResetNtf
	lastInitRsp packet.CoreInitRsp
}

func dial(addr string) (*session, error) {
	c, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	t := transport.NewSocketTransport(c)
	s := &session{netConn: c}
	s.client = nci.Enable(context.Background(), t, s.onDisabled)

	// Casimir emits an unsolicited power-on CoreResetNotification as soon as
	// its controller is constructed, ahead of any command we issue. Absorb
	// it here so Init's own CoreReset notification sink registers only once
	// that one is out of the way, instead of racing it or catching it by
	// mistake.
	waitCtx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if _, err := s.client.WaitNotification(waitCtx, packet.OpcodeCoreReset); err != nil {
		s.client.Disable()
		_ = c.Close()
		return nil, fmt.Errorf("dial %s: waiting for power-on notification: %w", addr, err)
	}

	return s, nil
}

func (s *session) onDisabled(eventCode uint16, payload []byte) {
	if eventCode == nci.EventDisabled {
		fmt.Println("(session disabled)")
	}
}

func (s *session) close() {
	s.client.Disable()
	_ = s.netConn.Close()
}

// dataCallback prints data and close events for connID as they arrive,
// since a REPL has no natural place to return them to a caller.
func (s *session) dataCallback(connID uint8, eventCode uint8, payload []byte) {
	switch eventCode {
	case packet.EventDataStart:
		fmt.Printf("\n[conn %d] data start\n", connID)
	case packet.EventData:
		fmt.Printf("\n[conn %d] received %d byte(s): %x\n", connID, len(payload), payload)
	case conn.EventClose:
		fmt.Printf("\n[conn %d] closed by peer\n", connID)
		s.removeConnID(connID)
	}
}

func (s *session) addConnID(id uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connIDs = append(s.connIDs, id)
}

func (s *session) removeConnID(id uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.connIDs {
		if c == id {
			s.connIDs = append(s.connIDs[:i], s.connIDs[i+1:]...)
			return
		}
	}
}

func (s *session) openConnIDs() []uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint8, len(s.connIDs))
	copy(out, s.connIDs)
	return out
}
