package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoreResetNtfRoundTrip(t *testing.T) {
	ntf := CoreResetNtf{Trigger: TriggerResetCommand, ConfigStatus: ConfigReset, NciVersion: Version11}
	got, err := DecodeCoreResetNtf(ntf.Encode())
	require.NoError(t, err)
	assert.Equal(t, ntf, got)
}

func TestCoreInitRspRoundTrip(t *testing.T) {
	rsp := DefaultCoreInitRsp()
	got, err := DecodeCoreInitRsp(rsp.Encode())
	require.NoError(t, err)
	assert.Equal(t, rsp, got)
}

func TestCoreSetConfigCmdRoundTrip(t *testing.T) {
	cmd := CoreSetConfigCmd{Params: []ConfigParam{{ID: 0x00, Value: []byte{0x11, 0x22}}}}
	got, err := DecodeCoreSetConfigCmd(cmd.Encode())
	require.NoError(t, err)
	assert.Equal(t, cmd, got)
}

func TestCoreConnCreateCmdRoundTrip(t *testing.T) {
	cmd := CoreConnCreateCmd{
		DestinationType: DestRemoteNfcEndpoint,
		Params: []DestParam{
			{Type: DestParamRfDiscovery, Value: []byte{0x01, 0x04}},
		},
	}
	raw := append([]byte{byte(cmd.DestinationType), byte(len(cmd.Params))}, 0)
	raw = raw[:2]
	for _, p := range cmd.Params {
		raw = append(raw, byte(p.Type), byte(len(p.Value)))
		raw = append(raw, p.Value...)
	}
	got, err := DecodeCoreConnCreateCmd(raw)
	require.NoError(t, err)
	assert.Equal(t, cmd, got)

	rfParam, err := DecodeRfDiscoveryParam(got.Params[0].Value)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x01), rfParam.RfDiscoveryID)
	assert.Equal(t, uint8(0x04), rfParam.RfProtocolType)
}

func TestCoreConnCreditsNtfRoundTrip(t *testing.T) {
	ntf := CoreConnCreditsNtf{Entries: []CreditEntry{{ConnID: 2, Credits: 2}}}
	got, err := DecodeCoreConnCreditsNtf(ntf.Encode())
	require.NoError(t, err)
	assert.Equal(t, ntf, got)
}

func TestSpecializeUnknownOpcode(t *testing.T) {
	pkt := BuildCommand(Opcode{GID: 0xF, OID: 0x7F}, nil)
	_, err := Specialize(pkt)
	require.Error(t, err)
	var unknown *ErrUnknownOpcode
	require.ErrorAs(t, err, &unknown)
}
