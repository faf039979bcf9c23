package packet

// Group identifiers (GID), octet 0 bits 3-0 of a control header.
const (
	GIDCore            uint8 = 0x0
	GIDRFManagement    uint8 = 0x1
	GIDNFCEEManagement uint8 = 0x2
)

// Opcode identifiers (OID) within the Core group.
const (
	OIDCoreReset            uint8 = 0x00
	OIDCoreInit             uint8 = 0x01
	OIDCoreSetConfig        uint8 = 0x02
	OIDCoreGetConfig        uint8 = 0x03
	OIDCoreConnCreate       uint8 = 0x04
	OIDCoreConnClose        uint8 = 0x05
	OIDCoreConnCredits      uint8 = 0x06
	OIDCoreSetPowerSubState uint8 = 0x09
)

// Opcode identifiers (OID) within the RF Management group.
const (
	OIDRfDiscoverMap          uint8 = 0x00
	OIDRfSetListenModeRouting uint8 = 0x01
	OIDRfGetListenModeRouting uint8 = 0x02
	OIDRfDiscover             uint8 = 0x03
	OIDRfDeactivate           uint8 = 0x06
)

// Opcode identifiers (OID) within the NFCEE Management group.
const (
	OIDNfceeDiscover uint8 = 0x00
)

// Well-known opcodes, named for readability at call sites (dispatcher
// matching, notification registration, logging).
var (
	OpcodeCoreReset            = Opcode{GID: GIDCore, OID: OIDCoreReset}
	OpcodeCoreInit             = Opcode{GID: GIDCore, OID: OIDCoreInit}
	OpcodeCoreSetConfig        = Opcode{GID: GIDCore, OID: OIDCoreSetConfig}
	OpcodeCoreGetConfig        = Opcode{GID: GIDCore, OID: OIDCoreGetConfig}
	OpcodeCoreConnCreate       = Opcode{GID: GIDCore, OID: OIDCoreConnCreate}
	OpcodeCoreConnClose        = Opcode{GID: GIDCore, OID: OIDCoreConnClose}
	OpcodeCoreConnCredits      = Opcode{GID: GIDCore, OID: OIDCoreConnCredits}
	OpcodeCoreSetPowerSubState = Opcode{GID: GIDCore, OID: OIDCoreSetPowerSubState}

	OpcodeRfDiscoverMap          = Opcode{GID: GIDRFManagement, OID: OIDRfDiscoverMap}
	OpcodeRfSetListenModeRouting = Opcode{GID: GIDRFManagement, OID: OIDRfSetListenModeRouting}
	OpcodeRfGetListenModeRouting = Opcode{GID: GIDRFManagement, OID: OIDRfGetListenModeRouting}
	OpcodeRfDiscover             = Opcode{GID: GIDRFManagement, OID: OIDRfDiscover}
	OpcodeRfDeactivate           = Opcode{GID: GIDRFManagement, OID: OIDRfDeactivate}

	OpcodeNfceeDiscover = Opcode{GID: GIDNFCEEManagement, OID: OIDNfceeDiscover}
)
