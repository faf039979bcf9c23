package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/cli/prompt"
)

type menuAction struct {
	label string
	run   func(*session) error
}

var menuActions = []menuAction{
	{"init - CORE_RESET + CORE_INIT handshake", actionInit},
	{"set-config - CORE_SET_CONFIG", actionSetConfig},
	{"get-config - CORE_GET_CONFIG", actionGetConfig},
	{"conn-create - CORE_CONN_CREATE", actionConnCreate},
	{"conn-close - CORE_CONN_CLOSE", actionConnClose},
	{"send-data - write to a connection", actionSendData},
	{"flush-data - discard queued outbound data", actionFlushData},
	{"discovery-map - RF_DISCOVER_MAP", actionDiscoveryMap},
	{"status - session summary", actionStatus},
	{"quit", nil},
}

func runRepl(cmd *cobra.Command, args []string) error {
	fmt.Printf("Dialing %s ...\n", dialAddr)
	s, err := dial(dialAddr)
	if err != nil {
		return err
	}
	defer s.close()
	fmt.Println("Connected. Type init first to bring the controller up.")

	items := make([]string, len(menuActions))
	for i, a := range menuActions {
		items[i] = a.label
	}

	for {
		fmt.Println()
		choice, err := prompt.SelectString("ncictl", items)
		if err != nil {
			if prompt.IsAborted(err) {
				fmt.Println("\nBye.")
				return nil
			}
			return err
		}

		action := menuActions[indexOf(items, choice)]
		if action.run == nil {
			fmt.Println("Bye.")
			return nil
		}

		if err := action.run(s); err != nil {
			if errors.Is(err, errAborted) {
				fmt.Println("Aborted.")
				continue
			}
			printErr(err)
		}
	}
}

func indexOf(items []string, v string) int {
	for i, s := range items {
		if s == v {
			return i
		}
	}
	return -1
}
