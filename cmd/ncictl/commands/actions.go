package commands

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/cli/output"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/cli/prompt"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/nci/packet"
)

func actionInit(s *session) error {
	ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
	defer cancel()

	ntf, rsp, err := s.client.Init(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.initialized = true
	s.lastNtf = ntf
	s.lastInitRsp = rsp
	s.mu.Unlock()

	fmt.Println()
	return output.SimpleTable(os.Stdout, [][2]string{
		{"Reset trigger", fmt.Sprintf("0x%02x", byte(ntf.Trigger))},
		{"Config status", fmt.Sprintf("0x%02x", byte(ntf.ConfigStatus))},
		{"NCI version", fmt.Sprintf("0x%02x", byte(ntf.NciVersion))},
		{"Init status", fmt.Sprintf("0x%02x", byte(rsp.Status))},
		{"RF interfaces", rfInterfaceNames(rsp.SupportedRfInterfaces)},
		{"Max logical conns", fmt.Sprintf("%d", rsp.MaxLogicalConnections)},
		{"Max routing table", fmt.Sprintf("%d", rsp.MaxRoutingTableSize)},
	})
}

func actionSetConfig(s *session) error {
	idStr, err := prompt.InputRequired("Config ID (hex, e.g. a0)")
	if err != nil {
		return abortOr(err)
	}
	valStr, err := prompt.Input("Value (hex, empty for none)", "")
	if err != nil {
		return abortOr(err)
	}

	id, err := parseHexByte(idStr)
	if err != nil {
		return err
	}
	value, err := hex.DecodeString(valStr)
	if err != nil {
		return fmt.Errorf("invalid hex value: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
	defer cancel()

	rsp, err := s.client.SetConfig(ctx, []packet.ConfigParam{{ID: id, Value: value}})
	if err != nil {
		return err
	}

	fmt.Println()
	if err := output.SimpleTable(os.Stdout, [][2]string{
		{"Status", fmt.Sprintf("0x%02x", byte(rsp.Status))},
	}); err != nil {
		return err
	}
	if len(rsp.InvalidParams) > 0 {
		fmt.Printf("Rejected parameter IDs: %x\n", rsp.InvalidParams)
	}
	return nil
}

func actionGetConfig(s *session) error {
	idStr, err := prompt.InputRequired("Config ID (hex, e.g. a0)")
	if err != nil {
		return abortOr(err)
	}
	id, err := parseHexByte(idStr)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
	defer cancel()

	rsp, err := s.client.GetConfig(ctx, []uint8{id})
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("Status: 0x%02x\n\n", byte(rsp.Status))
	return output.PrintTable(os.Stdout, configParamTable{params: rsp.Params})
}

func actionConnCreate(s *session) error {
	discIDStr, err := prompt.Input("RF discovery ID (hex)", "01")
	if err != nil {
		return abortOr(err)
	}
	protoStr, err := prompt.Input("RF protocol type (hex)", "04")
	if err != nil {
		return abortOr(err)
	}

	discID, err := parseHexByte(discIDStr)
	if err != nil {
		return err
	}
	proto, err := parseHexByte(protoStr)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
	defer cancel()

	rsp, err := s.client.ConnCreate(ctx, discID, proto, s.dataCallback)
	if err != nil {
		return err
	}

	fmt.Println()
	if err := output.SimpleTable(os.Stdout, [][2]string{
		{"Status", fmt.Sprintf("0x%02x", byte(rsp.Status))},
		{"Conn ID", fmt.Sprintf("%d", rsp.ConnID)},
		{"Max data payload", fmt.Sprintf("%d", rsp.MaxDataPacketPayloadSize)},
		{"Initial credits", fmt.Sprintf("%d", rsp.InitialNumberOfCredits)},
	}); err != nil {
		return err
	}
	if rsp.Status == packet.StatusOk {
		s.addConnID(rsp.ConnID)
	}
	return nil
}

func actionConnClose(s *session) error {
	ids := s.openConnIDs()
	if len(ids) == 0 {
		fmt.Println("No open connections.")
		return nil
	}

	items := make([]string, len(ids))
	for i, id := range ids {
		items[i] = fmt.Sprintf("%d", id)
	}
	choice, err := prompt.SelectString("Connection to close", items)
	if err != nil {
		return abortOr(err)
	}
	id, err := parseDecByte(choice)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
	defer cancel()

	rsp, err := s.client.ConnClose(ctx, id)
	if err != nil {
		return err
	}

	fmt.Println()
	return output.SimpleTable(os.Stdout, [][2]string{
		{"Status", fmt.Sprintf("0x%02x", byte(rsp.Status))},
	})
}

func actionSendData(s *session) error {
	ids := s.openConnIDs()
	if len(ids) == 0 {
		fmt.Println("No open connections. Use conn-create first.")
		return nil
	}

	items := make([]string, len(ids))
	for i, id := range ids {
		items[i] = fmt.Sprintf("%d", id)
	}
	choice, err := prompt.SelectString("Connection to send on", items)
	if err != nil {
		return abortOr(err)
	}
	id, err := parseDecByte(choice)
	if err != nil {
		return err
	}

	dataStr, err := prompt.InputRequired("Data (hex)")
	if err != nil {
		return abortOr(err)
	}
	data, err := hex.DecodeString(dataStr)
	if err != nil {
		return fmt.Errorf("invalid hex data: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
	defer cancel()

	if err := s.client.SendData(ctx, id, data); err != nil {
		return err
	}
	fmt.Println("Sent.")
	return nil
}

func actionFlushData(s *session) error {
	ids := s.openConnIDs()
	if len(ids) == 0 {
		fmt.Println("No open connections.")
		return nil
	}
	items := make([]string, len(ids))
	for i, id := range ids {
		items[i] = fmt.Sprintf("%d", id)
	}
	choice, err := prompt.SelectString("Connection to flush", items)
	if err != nil {
		return abortOr(err)
	}
	id, err := parseDecByte(choice)
	if err != nil {
		return err
	}

	flushed := s.client.FlushData(id)
	fmt.Printf("Flushed: %v\n", flushed)
	return nil
}

func actionDiscoveryMap(s *session) error {
	mapStr, err := prompt.Input("Mapping bytes (hex, empty for none)", "")
	if err != nil {
		return abortOr(err)
	}
	mappings, err := hex.DecodeString(mapStr)
	if err != nil {
		return fmt.Errorf("invalid hex mappings: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
	defer cancel()

	rsp, err := s.client.DiscoveryMap(ctx, mappings)
	if err != nil {
		return err
	}

	fmt.Println()
	return output.SimpleTable(os.Stdout, [][2]string{
		{"Status", fmt.Sprintf("0x%02x", byte(rsp.Status))},
	})
}

func actionStatus(s *session) error {
	ids := s.openConnIDs()
	fmt.Println()
	if err := output.SimpleTable(os.Stdout, [][2]string{
		{"Remote address", s.netConn.RemoteAddr().String()},
		{"Initialized", fmt.Sprintf("%v", s.initialized)},
		{"Open connections", fmt.Sprintf("%d", s.client.OpenConnections())},
		{"LMRT size", fmt.Sprintf("%d", s.client.GetLmrtSize())},
	}); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	fmt.Println()
	return output.PrintTable(os.Stdout, connTable{ids: ids, credits: s.client.ConnCredits})
}

func parseHexByte(s string) (uint8, error) {
	b, err := hex.DecodeString(trimHexPrefix(s))
	if err != nil || len(b) != 1 {
		return 0, fmt.Errorf("invalid single hex byte: %q", s)
	}
	return b[0], nil
}

func parseDecByte(s string) (uint8, error) {
	var v int
	if _, err := fmt.Sscanf(s, "%d", &v); err != nil || v < 0 || v > 255 {
		return 0, fmt.Errorf("invalid connection id: %q", s)
	}
	return uint8(v), nil
}

func trimHexPrefix(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
