package commands

import (
	"context"
	"testing"
	"time"

	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/casimir/scene"
	casimirserver "github.com/GrapheneOS-Archive/platform-system-nfc/internal/casimir/server"
)

// startTestController spins up a real casimir server on an ephemeral port
// and returns its address, for ncictl session tests to dial against.
func startTestController(t *testing.T) string {
	t.Helper()

	sc := scene.New()
	srv := casimirserver.New("127.0.0.1:0", sc)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	select {
	case <-srv.WaitReady():
	case <-time.After(time.Second):
		t.Fatal("server did not become ready")
	}

	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("server did not shut down")
		}
	})

	return srv.Addr().String()
}

func TestDialAndInit(t *testing.T) {
	dialTimeout = time.Second
	cmdTimeout = time.Second

	addr := startTestController(t)

	s, err := dial(addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer s.close()

	if err := actionInit(s); err != nil {
		t.Fatalf("actionInit: %v", err)
	}
	if !s.initialized {
		t.Error("expected session to be marked initialized")
	}
}

func TestConnCreateTracksConnID(t *testing.T) {
	dialTimeout = time.Second
	cmdTimeout = time.Second

	addr := startTestController(t)

	s, err := dial(addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer s.close()

	if err := actionInit(s); err != nil {
		t.Fatalf("actionInit: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
	defer cancel()

	rsp, err := s.client.ConnCreate(ctx, 0x01, 0x04, s.dataCallback)
	if err != nil {
		t.Fatalf("ConnCreate: %v", err)
	}
	s.addConnID(rsp.ConnID)

	ids := s.openConnIDs()
	if len(ids) != 1 || ids[0] != rsp.ConnID {
		t.Fatalf("expected tracked conn ID %d, got %v", rsp.ConnID, ids)
	}
}
