package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Write a default casimir configuration file.

Examples:
  casimir init
  casimir init --config /etc/casimir/config.yaml
  casimir init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	var configPath string
	var err error

	if f := GetConfigFile(); f != "" {
		configPath = f
		err = config.InitConfigToPath(f, initForce)
	} else {
		configPath, err = config.InitConfig(initForce)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Start the emulator with: casimir start")
	fmt.Printf("  3. Or specify a custom config: casimir start --config %s\n", configPath)
	return nil
}
