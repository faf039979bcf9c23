package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/packet"
)

// Scenario 4 from the spec: max_payload_size=3, payload=[A,B,C,D,E,F,G]
// yields three segments [A,B,C]/Incomplete, [D,E,F]/Incomplete, [G]/CompleteOrFinal.
func TestSplitScenario4(t *testing.T) {
	payload := []byte{'A', 'B', 'C', 'D', 'E', 'F', 'G'}
	pkt := packet.NewDataPacket(2, packet.PBFCompleteOrFinal, 0, payload)

	segments := Split(pkt, 3)
	require.Len(t, segments, 3)

	assert.Equal(t, []byte{'A', 'B', 'C'}, segments[0].Payload)
	assert.Equal(t, packet.PBFIncomplete, segments[0].Header.PBF)
	assert.Equal(t, []byte{'D', 'E', 'F'}, segments[1].Payload)
	assert.Equal(t, packet.PBFIncomplete, segments[1].Header.PBF)
	assert.Equal(t, []byte{'G'}, segments[2].Payload)
	assert.Equal(t, packet.PBFCompleteOrFinal, segments[2].Header.PBF)

	for _, s := range segments {
		assert.Equal(t, uint8(2), s.Header.ConnID)
		assert.Equal(t, uint8(0), s.Header.CR)
	}
}

func TestSplitExactMultipleNoTrailingEmptySegment(t *testing.T) {
	payload := make([]byte, 6)
	pkt := packet.NewDataPacket(0, packet.PBFCompleteOrFinal, 0, payload)

	segments := Split(pkt, 3)
	require.Len(t, segments, 2)
	assert.Equal(t, packet.PBFIncomplete, segments[0].Header.PBF)
	assert.Equal(t, packet.PBFCompleteOrFinal, segments[1].Header.PBF)
	assert.Len(t, segments[1].Payload, 3)
}

func TestSplitEmptyPayloadSingleSegment(t *testing.T) {
	pkt := packet.NewDataPacket(0, packet.PBFCompleteOrFinal, 0, nil)
	segments := Split(pkt, 255)
	require.Len(t, segments, 1)
	assert.Equal(t, packet.PBFCompleteOrFinal, segments[0].Header.PBF)
	assert.Empty(t, segments[0].Payload)
}

func TestReassemblyRoundTrip(t *testing.T) {
	payload := make([]byte, 0, 37)
	for i := 0; i < 37; i++ {
		payload = append(payload, byte(i))
	}
	pkt := packet.NewDataPacket(1, packet.PBFCompleteOrFinal, 0, payload)
	segments := Split(pkt, 10)
	assert.Equal(t, 4, len(segments)) // ceil(37/10) = 4

	r := NewReassembler()
	var assembled packet.Packet
	var done bool
	for _, s := range segments {
		assembled, done = r.Push(s)
	}
	require.True(t, done)
	assert.Equal(t, payload, assembled.Payload)
	assert.Equal(t, packet.PBFCompleteOrFinal, assembled.Header.PBF)
}

func TestReassemblyNotDoneUntilFinalSegment(t *testing.T) {
	pkt := packet.NewDataPacket(0, packet.PBFCompleteOrFinal, 0, []byte{1, 2, 3, 4, 5})
	segments := Split(pkt, 2)
	require.Len(t, segments, 3)

	r := NewReassembler()
	_, done := r.Push(segments[0])
	assert.False(t, done)
	_, done = r.Push(segments[1])
	assert.False(t, done)
	assembled, done := r.Push(segments[2])
	assert.True(t, done)
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, assembled.Payload)
}

func TestReassemblerTracksStreamsIndependently(t *testing.T) {
	r := NewReassembler()

	dataPkt := packet.NewDataPacket(0, packet.PBFCompleteOrFinal, 0, []byte{1, 2, 3, 4})
	dataSegments := Split(dataPkt, 2)

	ctrlPkt := packet.BuildCommand(packet.OpcodeCoreReset, []byte{0xAA, 0xBB})
	ctrlSegments := Split(ctrlPkt, 1)

	_, done := r.Push(dataSegments[0])
	assert.False(t, done)
	_, done = r.Push(ctrlSegments[0])
	assert.False(t, done)

	assembled, done := r.Push(dataSegments[1])
	require.True(t, done)
	assert.Equal(t, []byte{1, 2, 3, 4}, assembled.Payload)

	assembled, done = r.Push(ctrlSegments[1])
	require.True(t, done)
	assert.Equal(t, []byte{0xAA, 0xBB}, assembled.Payload)
}
