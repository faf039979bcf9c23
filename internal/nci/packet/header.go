// Package packet implements the NCI control/data packet header and the
// typed payload surface for the command, response and notification kinds
// the host stack and the Casimir emulator exchange.
package packet

import "fmt"

// MessageType is the 3-bit MT field in octet 0 of every NCI packet header.
type MessageType uint8

const (
	MTData         MessageType = 0
	MTCommand      MessageType = 1
	MTResponse     MessageType = 2
	MTNotification MessageType = 3
)

func (mt MessageType) String() string {
	switch mt {
	case MTData:
		return "DATA"
	case MTCommand:
		return "COMMAND"
	case MTResponse:
		return "RESPONSE"
	case MTNotification:
		return "NOTIFICATION"
	default:
		return fmt.Sprintf("MT(%d)", uint8(mt))
	}
}

// PBF is the Packet Boundary Flag: bit 4 of octet 0.
type PBF uint8

const (
	PBFCompleteOrFinal PBF = 0
	PBFIncomplete      PBF = 1
)

func (p PBF) Incomplete() bool { return p == PBFIncomplete }

// Opcode identifies a control message by its Group ID and Opcode ID.
// Two opcodes are equal iff both components match; it is used as a map key.
type Opcode struct {
	GID uint8
	OID uint8
}

func (o Opcode) String() string {
	return fmt.Sprintf("%d:%02x", o.GID, o.OID)
}

const (
	// HeaderSize is the fixed 3-octet header shared by control and data packets.
	HeaderSize = 3
	// MaxPayloadLength is the largest payload a single segment may carry.
	MaxPayloadLength = 255
)

// Header is the 3-octet header shared by control and data packets. Which
// fields are meaningful depends on MT: MTData populates ConnID/CR, anything
// else populates GID/OID.
type Header struct {
	MT            MessageType
	PBF           PBF
	GID           uint8
	OID           uint8
	ConnID        uint8
	CR            uint8
	PayloadLength uint8
}

// ParseHeader decodes the 3-octet header from b. b must be at least
// HeaderSize bytes; only the first HeaderSize are consulted.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("packet: short header: need %d bytes, got %d", HeaderSize, len(b))
	}
	h := Header{
		MT:            MessageType((b[0] >> 5) & 0x7),
		PBF:           PBF((b[0] >> 4) & 0x1),
		PayloadLength: b[2],
	}
	if h.MT == MTData {
		h.ConnID = b[0] & 0x0f
		h.CR = (b[1] >> 6) & 0x3
	} else {
		h.GID = b[0] & 0x0f
		h.OID = b[1] & 0x3f
	}
	return h, nil
}

// Bytes encodes the header back to its 3-octet wire form.
func (h Header) Bytes() [HeaderSize]byte {
	var b [HeaderSize]byte
	b[0] = byte(h.MT) << 5
	b[0] |= byte(h.PBF&0x1) << 4
	if h.MT == MTData {
		b[0] |= h.ConnID & 0x0f
		b[1] = (h.CR & 0x3) << 6
	} else {
		b[0] |= h.GID & 0x0f
		b[1] = h.OID & 0x3f
	}
	b[2] = h.PayloadLength
	return b
}

// Opcode returns the (GID, OID) pair for a control header. Meaningless for
// MTData headers.
func (h Header) Opcode() Opcode {
	return Opcode{GID: h.GID, OID: h.OID}
}

// IsControl reports whether the header belongs to a control packet, i.e.
// anything but MTData.
func (h Header) IsControl() bool {
	return h.MT != MTData
}

// ParseError is returned by Parse when the supplied bytes do not form a
// well-formed packet. Callers should log and drop the packet, not tear down
// the session.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string { return "packet: parse error: " + e.Reason }

// Packet is a fully decoded header plus its raw payload bytes.
type Packet struct {
	Header  Header
	Payload []byte
}

// Parse decodes a complete, already-reassembled packet from b.
func Parse(b []byte) (Packet, error) {
	if len(b) < HeaderSize {
		return Packet{}, &ParseError{Reason: "buffer shorter than header"}
	}
	h, err := ParseHeader(b[:HeaderSize])
	if err != nil {
		return Packet{}, &ParseError{Reason: err.Error()}
	}
	n := int(h.PayloadLength)
	if len(b) < HeaderSize+n {
		return Packet{}, &ParseError{Reason: "buffer shorter than declared payload length"}
	}
	payload := make([]byte, n)
	copy(payload, b[HeaderSize:HeaderSize+n])
	return Packet{Header: h, Payload: payload}, nil
}

// Bytes serializes the packet to its wire form: header followed by payload.
func (p Packet) Bytes() []byte {
	hb := p.Header.Bytes()
	out := make([]byte, 0, HeaderSize+len(p.Payload))
	out = append(out, hb[:]...)
	out = append(out, p.Payload...)
	return out
}

func (p Packet) GetMT() MessageType          { return p.Header.MT }
func (p Packet) GetPBF() PBF                 { return p.Header.PBF }
func (p Packet) GetGID() uint8               { return p.Header.GID }
func (p Packet) GetOID() uint8               { return p.Header.OID }
func (p Packet) GetOpcode() Opcode           { return p.Header.Opcode() }
func (p Packet) GetConnID() uint8            { return p.Header.ConnID }
func (p Packet) GetCR() uint8                { return p.Header.CR }
func (p Packet) GetPayloadLength() uint8     { return p.Header.PayloadLength }
