package packet

// Data packet event codes delivered to a logical connection's callback.
const (
	EventDataStart uint8 = 5
	EventData      uint8 = 3
)

// NewDataPacket builds a single MTData packet for connID carrying payload,
// with the given PBF and credit-return count. payload must be at most
// MaxPayloadLength bytes; callers are responsible for splitting larger
// payloads before calling this (see internal/nci/segment).
func NewDataPacket(connID uint8, pbf PBF, cr uint8, payload []byte) Packet {
	return Packet{
		Header: Header{
			MT:            MTData,
			PBF:           pbf,
			ConnID:        connID,
			CR:            cr,
			PayloadLength: uint8(len(payload)),
		},
		Payload: payload,
	}
}
