// Package segment implements NCI-layer segmentation: splitting oversize
// packets into Packet-Boundary-Flag-delimited segments on egress, and
// reassembling them back into a single packet on ingress.
package segment

import "github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/packet"

// Split chunks pkt's payload into pieces of at most maxChunk bytes, each
// wrapped in a copy of pkt's header with PBF and PayloadLength adjusted.
// All but the last piece carry PBF=Incomplete; the last carries
// PBF=CompleteOrFinal. A zero-length payload yields exactly one segment.
// If len(payload) is a non-zero multiple of maxChunk, the final segment
// carries a full maxChunk bytes with PBF=CompleteOrFinal - no trailing
// zero-length segment is emitted.
func Split(pkt packet.Packet, maxChunk uint8) []packet.Packet {
	payload := pkt.Payload
	if len(payload) <= int(maxChunk) {
		h := pkt.Header
		h.PBF = packet.PBFCompleteOrFinal
		h.PayloadLength = uint8(len(payload))
		return []packet.Packet{{Header: h, Payload: payload}}
	}

	var out []packet.Packet
	for len(payload) > 0 {
		n := int(maxChunk)
		if n > len(payload) {
			n = len(payload)
		}
		chunk := append([]byte(nil), payload[:n]...)
		payload = payload[n:]

		h := pkt.Header
		h.PayloadLength = uint8(len(chunk))
		if len(payload) == 0 {
			h.PBF = packet.PBFCompleteOrFinal
		} else {
			h.PBF = packet.PBFIncomplete
		}
		out = append(out, packet.Packet{Header: h, Payload: chunk})
	}
	return out
}
