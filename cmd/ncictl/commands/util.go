package commands

import (
	"errors"

	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/cli/prompt"
)

// errAborted signals that the user cancelled a prompt mid-action (Ctrl+C).
// The REPL loop treats it as a silent return to the menu rather than an error.
var errAborted = errors.New("aborted")

// abortOr converts a prompt abort into errAborted, passing any other error
// through unchanged.
func abortOr(err error) error {
	if prompt.IsAborted(err) {
		return errAborted
	}
	return err
}
