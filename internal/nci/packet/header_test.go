package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{MT: MTCommand, PBF: PBFCompleteOrFinal, GID: GIDCore, OID: OIDCoreReset, PayloadLength: 1}
	b := h.Bytes()

	got, err := ParseHeader(b[:])
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestHeaderDataFields(t *testing.T) {
	h := Header{MT: MTData, PBF: PBFIncomplete, ConnID: 3, CR: 2, PayloadLength: 10}
	b := h.Bytes()

	got, err := ParseHeader(b[:])
	require.NoError(t, err)
	assert.Equal(t, uint8(3), got.ConnID)
	assert.Equal(t, uint8(2), got.CR)
	assert.True(t, got.PBF.Incomplete())
}

func TestParsePacket(t *testing.T) {
	payload := []byte{0x01}
	pkt := BuildCommand(OpcodeCoreReset, payload)
	raw := pkt.Bytes()

	got, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, MTCommand, got.GetMT())
	assert.Equal(t, OpcodeCoreReset, got.GetOpcode())
	assert.Equal(t, payload, got.Payload)
}

func TestParseShortBuffer(t *testing.T) {
	_, err := Parse([]byte{0x01, 0x02})
	require.Error(t, err)
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestParseTruncatedPayload(t *testing.T) {
	// Declares a 5-byte payload but only supplies 1.
	_, err := Parse([]byte{byte(MTCommand) << 5, 0x00, 0x05, 0xAA})
	require.Error(t, err)
}
