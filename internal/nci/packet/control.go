package packet

import "fmt"

// Reset trigger reported in a CoreResetNotification.
type ResetTrigger uint8

const (
	TriggerPowerOn      ResetTrigger = 0x00
	TriggerResetCommand ResetTrigger = 0x01
)

// Config status reported alongside a reset trigger.
type ConfigStatus uint8

const (
	ConfigKept  ConfigStatus = 0x00
	ConfigReset ConfigStatus = 0x01
)

// Reset type requested by a CoreReset command.
type ResetType uint8

const (
	ResetKeepConfig  ResetType = 0x00
	ResetResetConfig ResetType = 0x01
)

// NciVersion identifies the protocol version reported in notifications.
type NciVersion uint8

const Version11 NciVersion = 0x11

// ConfigurationMode reported in a CoreInitResponse.
type ConfigurationMode uint8

const ConfigurationModeDhOnly ConfigurationMode = 0x00

// RfInterface identifies a supported RF interface.
type RfInterface uint8

const RfInterfaceNfcDep RfInterface = 0x03

const (
	MaxLogicalConnections       uint8  = 2
	MaxRoutingTableSize         uint16 = 512
	MaxControlPacketPayloadSize uint8  = 255
	MaxDataPacketPayloadSize    uint8  = 255
	NumberOfCredits             uint8  = 0
	MaxNfcvRfFrameSize          uint16 = 512
)

// ConfigParam is a single (id, value) TLV used by CoreSetConfig/CoreGetConfig.
type ConfigParam struct {
	ID    uint8
	Value []byte
}

// --- CoreReset -------------------------------------------------------------

// CoreResetCmd is the payload of a CORE_RESET command.
type CoreResetCmd struct {
	ResetType ResetType
}

func DecodeCoreResetCmd(payload []byte) (CoreResetCmd, error) {
	if len(payload) < 1 {
		return CoreResetCmd{}, &ParseError{Reason: "CoreResetCmd: empty payload"}
	}
	return CoreResetCmd{ResetType: ResetType(payload[0])}, nil
}

func (c CoreResetCmd) Encode() []byte { return []byte{byte(c.ResetType)} }

// CoreResetRsp is the payload of a CORE_RESET response.
type CoreResetRsp struct {
	Status Status
}

func (r CoreResetRsp) Encode() []byte { return []byte{byte(r.Status)} }

func DecodeCoreResetRsp(payload []byte) (CoreResetRsp, error) {
	if len(payload) < 1 {
		return CoreResetRsp{}, &ParseError{Reason: "CoreResetRsp: empty payload"}
	}
	return CoreResetRsp{Status: Status(payload[0])}, nil
}

// CoreResetNtf is the payload of a CORE_RESET notification.
type CoreResetNtf struct {
	Trigger      ResetTrigger
	ConfigStatus ConfigStatus
	NciVersion   NciVersion
}

func (n CoreResetNtf) Encode() []byte {
	return []byte{byte(n.Trigger), byte(n.ConfigStatus), byte(n.NciVersion)}
}

func DecodeCoreResetNtf(payload []byte) (CoreResetNtf, error) {
	if len(payload) < 3 {
		return CoreResetNtf{}, &ParseError{Reason: "CoreResetNtf: short payload"}
	}
	return CoreResetNtf{
		Trigger:      ResetTrigger(payload[0]),
		ConfigStatus: ConfigStatus(payload[1]),
		NciVersion:   NciVersion(payload[2]),
	}, nil
}

// --- CoreInit ---------------------------------------------------------------

// CoreInitRsp is the payload of a CORE_INIT response.
type CoreInitRsp struct {
	Status                      Status
	ConfigurationMode           ConfigurationMode
	SupportedRfInterfaces       []RfInterface
	MaxLogicalConnections       uint8
	MaxRoutingTableSize         uint16
	MaxControlPacketPayloadSize uint8
	MaxDataPacketPayloadSize    uint8
	NumberOfCredits             uint8
	MaxNfcvRfFrameSize          uint16
}

// DefaultCoreInitRsp builds the fixed CORE_INIT response the emulator
// always returns: all feature flags disabled, DH-only configuration mode,
// NFC-DEP as the only supported RF interface.
func DefaultCoreInitRsp() CoreInitRsp {
	return CoreInitRsp{
		Status:                      StatusOk,
		ConfigurationMode:           ConfigurationModeDhOnly,
		SupportedRfInterfaces:       []RfInterface{RfInterfaceNfcDep},
		MaxLogicalConnections:       MaxLogicalConnections,
		MaxRoutingTableSize:         MaxRoutingTableSize,
		MaxControlPacketPayloadSize: MaxControlPacketPayloadSize,
		MaxDataPacketPayloadSize:    MaxDataPacketPayloadSize,
		NumberOfCredits:             NumberOfCredits,
		MaxNfcvRfFrameSize:          MaxNfcvRfFrameSize,
	}
}

func (r CoreInitRsp) Encode() []byte {
	out := []byte{byte(r.Status), byte(r.ConfigurationMode), byte(len(r.SupportedRfInterfaces))}
	for _, i := range r.SupportedRfInterfaces {
		out = append(out, byte(i))
	}
	out = append(out, r.MaxLogicalConnections)
	out = append(out, byte(r.MaxRoutingTableSize>>8), byte(r.MaxRoutingTableSize))
	out = append(out, r.MaxControlPacketPayloadSize, r.MaxDataPacketPayloadSize, r.NumberOfCredits)
	out = append(out, byte(r.MaxNfcvRfFrameSize>>8), byte(r.MaxNfcvRfFrameSize))
	return out
}

func DecodeCoreInitRsp(payload []byte) (CoreInitRsp, error) {
	if len(payload) < 3 {
		return CoreInitRsp{}, &ParseError{Reason: "CoreInitRsp: short payload"}
	}
	n := int(payload[2])
	off := 3
	if len(payload) < off+n+8 {
		return CoreInitRsp{}, &ParseError{Reason: "CoreInitRsp: truncated"}
	}
	ifaces := make([]RfInterface, n)
	for i := 0; i < n; i++ {
		ifaces[i] = RfInterface(payload[off+i])
	}
	off += n
	r := CoreInitRsp{
		Status:                Status(payload[0]),
		ConfigurationMode:     ConfigurationMode(payload[1]),
		SupportedRfInterfaces: ifaces,
		MaxLogicalConnections: payload[off],
	}
	off++
	r.MaxRoutingTableSize = uint16(payload[off])<<8 | uint16(payload[off+1])
	off += 2
	r.MaxControlPacketPayloadSize = payload[off]
	r.MaxDataPacketPayloadSize = payload[off+1]
	r.NumberOfCredits = payload[off+2]
	off += 3
	r.MaxNfcvRfFrameSize = uint16(payload[off])<<8 | uint16(payload[off+1])
	return r, nil
}

// --- CoreSetConfig -----------------------------------------------------------

type CoreSetConfigCmd struct {
	Params []ConfigParam
}

func DecodeCoreSetConfigCmd(payload []byte) (CoreSetConfigCmd, error) {
	if len(payload) < 1 {
		return CoreSetConfigCmd{}, &ParseError{Reason: "CoreSetConfigCmd: empty payload"}
	}
	n := int(payload[0])
	params := make([]ConfigParam, 0, n)
	off := 1
	for i := 0; i < n; i++ {
		if off+2 > len(payload) {
			return CoreSetConfigCmd{}, &ParseError{Reason: "CoreSetConfigCmd: truncated TLV header"}
		}
		id := payload[off]
		l := int(payload[off+1])
		off += 2
		if off+l > len(payload) {
			return CoreSetConfigCmd{}, &ParseError{Reason: "CoreSetConfigCmd: truncated TLV value"}
		}
		value := append([]byte(nil), payload[off:off+l]...)
		off += l
		params = append(params, ConfigParam{ID: id, Value: value})
	}
	return CoreSetConfigCmd{Params: params}, nil
}

func (c CoreSetConfigCmd) Encode() []byte {
	out := []byte{byte(len(c.Params))}
	for _, p := range c.Params {
		out = append(out, p.ID, byte(len(p.Value)))
		out = append(out, p.Value...)
	}
	return out
}

type CoreSetConfigRsp struct {
	Status        Status
	InvalidParams []uint8
}

func (r CoreSetConfigRsp) Encode() []byte {
	out := []byte{byte(r.Status), byte(len(r.InvalidParams))}
	out = append(out, r.InvalidParams...)
	return out
}

func DecodeCoreSetConfigRsp(payload []byte) (CoreSetConfigRsp, error) {
	if len(payload) < 2 {
		return CoreSetConfigRsp{}, &ParseError{Reason: "CoreSetConfigRsp: short payload"}
	}
	n := int(payload[1])
	if len(payload) < 2+n {
		return CoreSetConfigRsp{}, &ParseError{Reason: "CoreSetConfigRsp: truncated invalid-param list"}
	}
	return CoreSetConfigRsp{Status: Status(payload[0]), InvalidParams: append([]byte(nil), payload[2:2+n]...)}, nil
}

// --- CoreGetConfig -----------------------------------------------------------

type CoreGetConfigCmd struct {
	IDs []uint8
}

func DecodeCoreGetConfigCmd(payload []byte) (CoreGetConfigCmd, error) {
	if len(payload) < 1 {
		return CoreGetConfigCmd{}, &ParseError{Reason: "CoreGetConfigCmd: empty payload"}
	}
	n := int(payload[0])
	if len(payload) < 1+n {
		return CoreGetConfigCmd{}, &ParseError{Reason: "CoreGetConfigCmd: truncated id list"}
	}
	ids := append([]byte(nil), payload[1:1+n]...)
	return CoreGetConfigCmd{IDs: ids}, nil
}

func (c CoreGetConfigCmd) Encode() []byte {
	out := []byte{byte(len(c.IDs))}
	return append(out, c.IDs...)
}

type CoreGetConfigRsp struct {
	Status Status
	Params []ConfigParam
}

func (r CoreGetConfigRsp) Encode() []byte {
	out := []byte{byte(r.Status), byte(len(r.Params))}
	for _, p := range r.Params {
		out = append(out, p.ID, byte(len(p.Value)))
		out = append(out, p.Value...)
	}
	return out
}

func DecodeCoreGetConfigRsp(payload []byte) (CoreGetConfigRsp, error) {
	if len(payload) < 2 {
		return CoreGetConfigRsp{}, &ParseError{Reason: "CoreGetConfigRsp: short payload"}
	}
	n := int(payload[1])
	off := 2
	params := make([]ConfigParam, 0, n)
	for i := 0; i < n; i++ {
		if off+2 > len(payload) {
			return CoreGetConfigRsp{}, &ParseError{Reason: "CoreGetConfigRsp: truncated TLV header"}
		}
		id := payload[off]
		l := int(payload[off+1])
		off += 2
		if off+l > len(payload) {
			return CoreGetConfigRsp{}, &ParseError{Reason: "CoreGetConfigRsp: truncated TLV value"}
		}
		params = append(params, ConfigParam{ID: id, Value: append([]byte(nil), payload[off:off+l]...)})
		off += l
	}
	return CoreGetConfigRsp{Status: Status(payload[0]), Params: params}, nil
}

// --- CoreConnCreate -----------------------------------------------------------

// Destination types accepted by CORE_CONN_CREATE.
type DestinationType uint8

const (
	DestNfccLoopback     DestinationType = 0x01
	DestRemoteNfcEndpoint DestinationType = 0x02
	DestNfcee             DestinationType = 0x03
)

// Destination parameter types.
type DestParamType uint8

const DestParamRfDiscovery DestParamType = 0x00

type DestParam struct {
	Type  DestParamType
	Value []byte
}

// RfDiscoveryParam is the decoded value of a DestParamRfDiscovery parameter:
// first byte is the RF discovery ID, second the RF protocol type.
type RfDiscoveryParam struct {
	RfDiscoveryID  uint8
	RfProtocolType uint8
}

func DecodeRfDiscoveryParam(value []byte) (RfDiscoveryParam, error) {
	if len(value) < 2 {
		return RfDiscoveryParam{}, &ParseError{Reason: "RfDiscoveryParam: short value"}
	}
	return RfDiscoveryParam{RfDiscoveryID: value[0], RfProtocolType: value[1]}, nil
}

type CoreConnCreateCmd struct {
	DestinationType DestinationType
	Params          []DestParam
}

func DecodeCoreConnCreateCmd(payload []byte) (CoreConnCreateCmd, error) {
	if len(payload) < 2 {
		return CoreConnCreateCmd{}, &ParseError{Reason: "CoreConnCreateCmd: short payload"}
	}
	destType := DestinationType(payload[0])
	n := int(payload[1])
	off := 2
	params := make([]DestParam, 0, n)
	for i := 0; i < n; i++ {
		if off+2 > len(payload) {
			return CoreConnCreateCmd{}, &ParseError{Reason: "CoreConnCreateCmd: truncated param header"}
		}
		ptype := DestParamType(payload[off])
		l := int(payload[off+1])
		off += 2
		if off+l > len(payload) {
			return CoreConnCreateCmd{}, &ParseError{Reason: "CoreConnCreateCmd: truncated param value"}
		}
		value := append([]byte(nil), payload[off:off+l]...)
		off += l
		params = append(params, DestParam{Type: ptype, Value: value})
	}
	return CoreConnCreateCmd{DestinationType: destType, Params: params}, nil
}

func (c CoreConnCreateCmd) Encode() []byte {
	out := []byte{byte(c.DestinationType), byte(len(c.Params))}
	for _, p := range c.Params {
		out = append(out, byte(p.Type), byte(len(p.Value)))
		out = append(out, p.Value...)
	}
	return out
}

type CoreConnCreateRsp struct {
	Status                   Status
	ConnID                   uint8
	MaxDataPacketPayloadSize uint8
	InitialNumberOfCredits   uint8
}

func (r CoreConnCreateRsp) Encode() []byte {
	return []byte{byte(r.Status), r.MaxDataPacketPayloadSize, r.InitialNumberOfCredits, r.ConnID}
}

func DecodeCoreConnCreateRsp(payload []byte) (CoreConnCreateRsp, error) {
	if len(payload) < 4 {
		return CoreConnCreateRsp{}, &ParseError{Reason: "CoreConnCreateRsp: short payload"}
	}
	return CoreConnCreateRsp{
		Status:                   Status(payload[0]),
		MaxDataPacketPayloadSize: payload[1],
		InitialNumberOfCredits:   payload[2],
		ConnID:                   payload[3],
	}, nil
}

// --- CoreConnClose -----------------------------------------------------------

type CoreConnCloseCmd struct {
	ConnID uint8
}

func DecodeCoreConnCloseCmd(payload []byte) (CoreConnCloseCmd, error) {
	if len(payload) < 1 {
		return CoreConnCloseCmd{}, &ParseError{Reason: "CoreConnCloseCmd: empty payload"}
	}
	return CoreConnCloseCmd{ConnID: payload[0]}, nil
}

func (c CoreConnCloseCmd) Encode() []byte { return []byte{c.ConnID} }

type CoreConnCloseRsp struct {
	Status Status
}

func (r CoreConnCloseRsp) Encode() []byte { return []byte{byte(r.Status)} }

func DecodeCoreConnCloseRsp(payload []byte) (CoreConnCloseRsp, error) {
	if len(payload) < 1 {
		return CoreConnCloseRsp{}, &ParseError{Reason: "CoreConnCloseRsp: empty payload"}
	}
	return CoreConnCloseRsp{Status: Status(payload[0])}, nil
}

// --- CoreConnCredits notification --------------------------------------------

type CreditEntry struct {
	ConnID  uint8
	Credits uint8
}

type CoreConnCreditsNtf struct {
	Entries []CreditEntry
}

func (n CoreConnCreditsNtf) Encode() []byte {
	out := []byte{byte(len(n.Entries))}
	for _, e := range n.Entries {
		out = append(out, e.ConnID, e.Credits)
	}
	return out
}

func DecodeCoreConnCreditsNtf(payload []byte) (CoreConnCreditsNtf, error) {
	if len(payload) < 1 {
		return CoreConnCreditsNtf{}, &ParseError{Reason: "CoreConnCreditsNtf: empty payload"}
	}
	n := int(payload[0])
	if len(payload) < 1+2*n {
		return CoreConnCreditsNtf{}, &ParseError{Reason: "CoreConnCreditsNtf: truncated entries"}
	}
	entries := make([]CreditEntry, n)
	off := 1
	for i := 0; i < n; i++ {
		entries[i] = CreditEntry{ConnID: payload[off], Credits: payload[off+1]}
		off += 2
	}
	return CoreConnCreditsNtf{Entries: entries}, nil
}

// --- CoreSetPowerSubState -----------------------------------------------------

type CoreSetPowerSubStateCmd struct {
	PowerState uint8
}

func DecodeCoreSetPowerSubStateCmd(payload []byte) (CoreSetPowerSubStateCmd, error) {
	if len(payload) < 1 {
		return CoreSetPowerSubStateCmd{}, &ParseError{Reason: "CoreSetPowerSubStateCmd: empty payload"}
	}
	return CoreSetPowerSubStateCmd{PowerState: payload[0]}, nil
}

type CoreSetPowerSubStateRsp struct {
	Status Status
}

func (r CoreSetPowerSubStateRsp) Encode() []byte { return []byte{byte(r.Status)} }

func DecodeCoreSetPowerSubStateRsp(payload []byte) (CoreSetPowerSubStateRsp, error) {
	if len(payload) < 1 {
		return CoreSetPowerSubStateRsp{}, &ParseError{Reason: "CoreSetPowerSubStateRsp: empty payload"}
	}
	return CoreSetPowerSubStateRsp{Status: Status(payload[0])}, nil
}

// --- RF management: simple OK-stub commands -----------------------------------

type RfDiscoverMapRsp struct{ Status Status }

func (r RfDiscoverMapRsp) Encode() []byte { return []byte{byte(r.Status)} }

func DecodeRfDiscoverMapRsp(payload []byte) (RfDiscoverMapRsp, error) {
	if len(payload) < 1 {
		return RfDiscoverMapRsp{}, &ParseError{Reason: "RfDiscoverMapRsp: empty payload"}
	}
	return RfDiscoverMapRsp{Status: Status(payload[0])}, nil
}

type RfSetListenModeRoutingRsp struct{ Status Status }

func (r RfSetListenModeRoutingRsp) Encode() []byte { return []byte{byte(r.Status)} }

func DecodeRfSetListenModeRoutingRsp(payload []byte) (RfSetListenModeRoutingRsp, error) {
	if len(payload) < 1 {
		return RfSetListenModeRoutingRsp{}, &ParseError{Reason: "RfSetListenModeRoutingRsp: empty payload"}
	}
	return RfSetListenModeRoutingRsp{Status: Status(payload[0])}, nil
}

type RfGetListenModeRoutingRsp struct {
	Status       Status
	MoreToFollow uint8
	Routing      []byte
}

func (r RfGetListenModeRoutingRsp) Encode() []byte {
	out := []byte{byte(r.Status), r.MoreToFollow, byte(len(r.Routing))}
	return append(out, r.Routing...)
}

func DecodeRfGetListenModeRoutingRsp(payload []byte) (RfGetListenModeRoutingRsp, error) {
	if len(payload) < 3 {
		return RfGetListenModeRoutingRsp{}, &ParseError{Reason: "RfGetListenModeRoutingRsp: short payload"}
	}
	n := int(payload[2])
	if len(payload) < 3+n {
		return RfGetListenModeRoutingRsp{}, &ParseError{Reason: "RfGetListenModeRoutingRsp: truncated routing"}
	}
	return RfGetListenModeRoutingRsp{
		Status:       Status(payload[0]),
		MoreToFollow: payload[1],
		Routing:      append([]byte(nil), payload[3:3+n]...),
	}, nil
}

type RfDiscoverRsp struct{ Status Status }

func (r RfDiscoverRsp) Encode() []byte { return []byte{byte(r.Status)} }

func DecodeRfDiscoverRsp(payload []byte) (RfDiscoverRsp, error) {
	if len(payload) < 1 {
		return RfDiscoverRsp{}, &ParseError{Reason: "RfDiscoverRsp: empty payload"}
	}
	return RfDiscoverRsp{Status: Status(payload[0])}, nil
}

// --- RfDeactivate --------------------------------------------------------------

type RfDeactivateCmd struct {
	DeactivationType uint8
}

func DecodeRfDeactivateCmd(payload []byte) (RfDeactivateCmd, error) {
	if len(payload) < 1 {
		return RfDeactivateCmd{}, &ParseError{Reason: "RfDeactivateCmd: empty payload"}
	}
	return RfDeactivateCmd{DeactivationType: payload[0]}, nil
}

func (c RfDeactivateCmd) Encode() []byte { return []byte{c.DeactivationType} }

type RfDeactivateRsp struct{ Status Status }

func (r RfDeactivateRsp) Encode() []byte { return []byte{byte(r.Status)} }

func DecodeRfDeactivateRsp(payload []byte) (RfDeactivateRsp, error) {
	if len(payload) < 1 {
		return RfDeactivateRsp{}, &ParseError{Reason: "RfDeactivateRsp: empty payload"}
	}
	return RfDeactivateRsp{Status: Status(payload[0])}, nil
}

// Deactivation reasons reported in an RfDeactivateNtf.
const ReasonDhRequest uint8 = 0x00

type RfDeactivateNtf struct {
	DeactivationType uint8
	Reason           uint8
}

func (n RfDeactivateNtf) Encode() []byte { return []byte{n.DeactivationType, n.Reason} }

func DecodeRfDeactivateNtf(payload []byte) (RfDeactivateNtf, error) {
	if len(payload) < 2 {
		return RfDeactivateNtf{}, &ParseError{Reason: "RfDeactivateNtf: short payload"}
	}
	return RfDeactivateNtf{DeactivationType: payload[0], Reason: payload[1]}, nil
}

// --- NfceeDiscover ---------------------------------------------------------------

type NfceeDiscoverCmd struct {
	DiscoveryAction uint8
}

func DecodeNfceeDiscoverCmd(payload []byte) (NfceeDiscoverCmd, error) {
	if len(payload) < 1 {
		return NfceeDiscoverCmd{}, &ParseError{Reason: "NfceeDiscoverCmd: empty payload"}
	}
	return NfceeDiscoverCmd{DiscoveryAction: payload[0]}, nil
}

type NfceeDiscoverRsp struct {
	Status         Status
	NumberOfNfcees uint8
}

func (r NfceeDiscoverRsp) Encode() []byte { return []byte{byte(r.Status), r.NumberOfNfcees} }

func DecodeNfceeDiscoverRsp(payload []byte) (NfceeDiscoverRsp, error) {
	if len(payload) < 2 {
		return NfceeDiscoverRsp{}, &ParseError{Reason: "NfceeDiscoverRsp: short payload"}
	}
	return NfceeDiscoverRsp{Status: Status(payload[0]), NumberOfNfcees: payload[1]}, nil
}

// --- Builders ------------------------------------------------------------------

// BuildCommand wraps an encoded payload into a Command packet for the given opcode.
func BuildCommand(op Opcode, payload []byte) Packet {
	return Packet{
		Header: Header{MT: MTCommand, PBF: PBFCompleteOrFinal, GID: op.GID, OID: op.OID, PayloadLength: uint8(len(payload))},
		Payload: payload,
	}
}

// BuildResponse wraps an encoded payload into a Response packet for the given opcode.
func BuildResponse(op Opcode, payload []byte) Packet {
	return Packet{
		Header: Header{MT: MTResponse, PBF: PBFCompleteOrFinal, GID: op.GID, OID: op.OID, PayloadLength: uint8(len(payload))},
		Payload: payload,
	}
}

// BuildNotification wraps an encoded payload into a Notification packet for the given opcode.
func BuildNotification(op Opcode, payload []byte) Packet {
	return Packet{
		Header: Header{MT: MTNotification, PBF: PBFCompleteOrFinal, GID: op.GID, OID: op.OID, PayloadLength: uint8(len(payload))},
		Payload: payload,
	}
}

// ErrUnknownOpcode is returned by Specialize when a control packet's
// (MT, GID, OID) does not match any known variant.
type ErrUnknownOpcode struct {
	MT MessageType
	Op Opcode
}

func (e *ErrUnknownOpcode) Error() string {
	return fmt.Sprintf("packet: unknown %s opcode %s", e.MT, e.Op)
}

// Specialize destructures a control packet into its typed payload, tagged
// by (MT, Opcode). Unknown (MT, GID, OID) combinations return ErrUnknownOpcode;
// callers within a known group should treat this as fatal to the session,
// per the component's "unhandled opcode" rule.
func Specialize(p Packet) (any, error) {
	op := p.GetOpcode()
	switch p.GetMT() {
	case MTCommand:
		switch op {
		case OpcodeCoreReset:
			return DecodeCoreResetCmd(p.Payload)
		case OpcodeCoreInit:
			return struct{}{}, nil
		case OpcodeCoreSetConfig:
			return DecodeCoreSetConfigCmd(p.Payload)
		case OpcodeCoreGetConfig:
			return DecodeCoreGetConfigCmd(p.Payload)
		case OpcodeCoreConnCreate:
			return DecodeCoreConnCreateCmd(p.Payload)
		case OpcodeCoreConnClose:
			return DecodeCoreConnCloseCmd(p.Payload)
		case OpcodeCoreSetPowerSubState:
			return DecodeCoreSetPowerSubStateCmd(p.Payload)
		case OpcodeRfDiscoverMap, OpcodeRfSetListenModeRouting, OpcodeRfGetListenModeRouting, OpcodeRfDiscover:
			return struct{}{}, nil
		case OpcodeRfDeactivate:
			return DecodeRfDeactivateCmd(p.Payload)
		case OpcodeNfceeDiscover:
			return DecodeNfceeDiscoverCmd(p.Payload)
		}
	case MTResponse:
		switch op {
		case OpcodeCoreReset:
			return DecodeCoreResetRsp(p.Payload)
		case OpcodeCoreInit:
			return DecodeCoreInitRsp(p.Payload)
		case OpcodeCoreSetConfig:
			return DecodeCoreSetConfigRsp(p.Payload)
		case OpcodeCoreGetConfig:
			return DecodeCoreGetConfigRsp(p.Payload)
		case OpcodeCoreConnCreate:
			return DecodeCoreConnCreateRsp(p.Payload)
		case OpcodeCoreConnClose:
			return DecodeCoreConnCloseRsp(p.Payload)
		case OpcodeCoreSetPowerSubState:
			return DecodeCoreSetPowerSubStateRsp(p.Payload)
		case OpcodeRfDiscoverMap:
			return DecodeRfDiscoverMapRsp(p.Payload)
		case OpcodeRfSetListenModeRouting:
			return DecodeRfSetListenModeRoutingRsp(p.Payload)
		case OpcodeRfGetListenModeRouting:
			return DecodeRfGetListenModeRoutingRsp(p.Payload)
		case OpcodeRfDiscover:
			return DecodeRfDiscoverRsp(p.Payload)
		case OpcodeRfDeactivate:
			return DecodeRfDeactivateRsp(p.Payload)
		case OpcodeNfceeDiscover:
			return DecodeNfceeDiscoverRsp(p.Payload)
		}
	case MTNotification:
		switch op {
		case OpcodeCoreReset:
			return DecodeCoreResetNtf(p.Payload)
		case OpcodeCoreConnCredits:
			return DecodeCoreConnCreditsNtf(p.Payload)
		case OpcodeRfDeactivate:
			return DecodeRfDeactivateNtf(p.Payload)
		}
	}
	return nil, &ErrUnknownOpcode{MT: p.GetMT(), Op: op}
}
