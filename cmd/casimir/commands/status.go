package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/casimir/scene"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/cli/health"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/cli/output"
	"github.com/GrapheneOS-Archive/platform-system-nfc/internal/cli/timeutil"
)

var (
	statusOutput string
	statusListen string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show casimir's status",
	Long: `Query a running casimir instance's statusapi and display liveness,
uptime, and connected device information.

Examples:
  casimir status
  casimir status --listen 127.0.0.1:7001
  casimir status --output json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusListen, "listen", "127.0.0.1:7001", "statusapi address")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// statusDataResponse mirrors internal/statusapi's GET /status payload.
type statusDataResponse struct {
	MaxDevices     int `json:"max_devices"`
	ActiveDevices  int `json:"active_devices"`
	ConnectedSlots []struct {
		Slot      int    `json:"slot"`
		SessionID string `json:"session_id"`
	} `json:"connected_slots"`
}

// cliStatus is what runStatus actually renders, combining the liveness and
// status endpoint responses.
type cliStatus struct {
	Running        bool   `json:"running" yaml:"running"`
	Healthy        bool   `json:"healthy" yaml:"healthy"`
	Message        string `json:"message" yaml:"message"`
	StartedAt      string `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	Uptime         string `json:"uptime,omitempty" yaml:"uptime,omitempty"`
	MaxDevices     int    `json:"max_devices" yaml:"max_devices"`
	ActiveDevices  int    `json:"active_devices" yaml:"active_devices"`
	ConnectedSlots []int  `json:"connected_slots" yaml:"connected_slots"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	status := cliStatus{Message: "casimir is not reachable"}
	client := &http.Client{Timeout: 2 * time.Second}

	if resp, err := client.Get(fmt.Sprintf("http://%s/healthz", statusListen)); err == nil {
		defer func() { _ = resp.Body.Close() }()
		var healthResp health.Response
		if err := json.NewDecoder(resp.Body).Decode(&healthResp); err == nil {
			status.Running = true
			status.Healthy = healthResp.Status == "healthy"
			status.StartedAt = healthResp.Data.StartedAt
			status.Uptime = healthResp.Data.Uptime
			if status.Healthy {
				status.Message = "casimir is running and healthy"
			} else {
				status.Message = fmt.Sprintf("casimir is running but unhealthy: %s", healthResp.Error)
			}
		}
	}

	if status.Running {
		if resp, err := client.Get(fmt.Sprintf("http://%s/status", statusListen)); err == nil {
			defer func() { _ = resp.Body.Close() }()
			var envelope struct {
				Data statusDataResponse `json:"data"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
				status.MaxDevices = envelope.Data.MaxDevices
				status.ActiveDevices = envelope.Data.ActiveDevices
				for _, slot := range envelope.Data.ConnectedSlots {
					status.ConnectedSlots = append(status.ConnectedSlots, slot.Slot)
				}
			}
		}
	} else {
		status.MaxDevices = scene.MaxDevices
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, status)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, status)
	default:
		printStatusTable(status)
	}
	return nil
}

func printStatusTable(status cliStatus) {
	fmt.Println()
	fmt.Println("Casimir Status")
	fmt.Println("==============")
	fmt.Println()

	if status.Running {
		if status.Healthy {
			fmt.Printf("  Status:     \033[32m● Running\033[0m\n")
		} else {
			fmt.Printf("  Status:     \033[33m● Running (unhealthy)\033[0m\n")
		}
		if status.StartedAt != "" {
			fmt.Printf("  Started:    %s\n", timeutil.FormatTime(status.StartedAt))
		}
		if status.Uptime != "" {
			fmt.Printf("  Uptime:     %s\n", timeutil.FormatUptime(status.Uptime))
		}
		fmt.Printf("  Devices:    %d/%d connected\n", status.ActiveDevices, status.MaxDevices)
	} else {
		fmt.Printf("  Status:     \033[31m○ Stopped\033[0m\n")
	}

	fmt.Println()
	fmt.Printf("  %s\n", status.Message)
	fmt.Println()
}
