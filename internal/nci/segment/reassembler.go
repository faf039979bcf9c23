package segment

import (
	"sync"

	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/packet"
)

// streamKey identifies one in-progress reassembly: a control stream is
// keyed by its Opcode, a data stream by its Conn ID - all segments of one
// message share them.
type streamKey struct {
	isControl bool
	op        packet.Opcode
	connID    uint8
}

func keyFor(h packet.Header) streamKey {
	if h.IsControl() {
		return streamKey{isControl: true, op: h.Opcode()}
	}
	return streamKey{connID: h.ConnID}
}

type accumulation struct {
	header  packet.Header
	payload []byte
}

// Reassembler recombines fragmented NCI packets on ingress. One Reassembler
// may track several independent streams concurrently (the control stream
// and each open data connection), each keyed separately.
type Reassembler struct {
	mu      sync.Mutex
	pending map[streamKey]*accumulation
}

func NewReassembler() *Reassembler {
	return &Reassembler{pending: make(map[streamKey]*accumulation)}
}

// Push feeds one already-header-framed segment into the reassembler. It
// returns the fully assembled packet and true once a CompleteOrFinal
// segment closes out the stream; otherwise it returns false and the caller
// should keep reading. The assembled packet's header is that of the final
// segment, with PayloadLength updated to the concatenated length.
func (r *Reassembler) Push(pkt packet.Packet) (packet.Packet, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := keyFor(pkt.Header)
	acc, ok := r.pending[key]
	if !ok {
		acc = &accumulation{}
		r.pending[key] = acc
	}
	acc.payload = append(acc.payload, pkt.Payload...)
	acc.header = pkt.Header

	if pkt.Header.PBF.Incomplete() {
		return packet.Packet{}, false
	}

	delete(r.pending, key)
	final := acc.header
	final.PayloadLength = uint8(len(acc.payload))
	return packet.Packet{Header: final, Payload: acc.payload}, true
}
