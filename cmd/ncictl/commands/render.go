package commands

import (
	"fmt"

	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/packet"
)

// configParamTable renders a []packet.ConfigParam as an id/value table for
// get-config.
type configParamTable struct {
	params []packet.ConfigParam
}

func (t configParamTable) Headers() []string { return []string{"ID", "VALUE (hex)"} }

func (t configParamTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.params))
	for _, p := range t.params {
		rows = append(rows, []string{fmt.Sprintf("0x%02x", p.ID), fmt.Sprintf("%x", p.Value)})
	}
	return rows
}

// connTable renders the connection IDs opened during the session, along
// with their current credit counts.
type connTable struct {
	ids     []uint8
	credits func(uint8) (int, bool)
}

func (t connTable) Headers() []string { return []string{"CONN ID", "CREDITS"} }

func (t connTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.ids))
	for _, id := range t.ids {
		credits := "-"
		if n, ok := t.credits(id); ok {
			credits = fmt.Sprintf("%d", n)
		}
		rows = append(rows, []string{fmt.Sprintf("%d", id), credits})
	}
	return rows
}

func rfInterfaceNames(ifaces []packet.RfInterface) string {
	out := ""
	for i, iface := range ifaces {
		if i > 0 {
			out += ", "
		}
		switch iface {
		case packet.RfInterfaceNfcDep:
			out += "NFC-DEP"
		default:
			out += fmt.Sprintf("0x%02x", byte(iface))
		}
	}
	return out
}
