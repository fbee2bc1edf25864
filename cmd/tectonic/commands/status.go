package commands

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/erismart/tectonic/internal/cli/output"
)

var (
	statusOutput  string
	statusPidFile string
	statusListen  string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long: `Display the current status of the tectonic server.

Checks the PID file (if any) and the control plane's /healthz endpoint.

Examples:
  tectonic status
  tectonic status --listen localhost:8080
  tectonic status --output json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusPidFile, "pid-file", "", "Path to PID file used by 'tectonic serve --pid-file'")
	statusCmd.Flags().StringVar(&statusListen, "listen", "localhost:8080", "Control plane API address to health-check")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// ServerStatus is the status report printed by the status command.
type ServerStatus struct {
	Running bool   `json:"running" yaml:"running"`
	PID     int    `json:"pid,omitempty" yaml:"pid,omitempty"`
	Healthy bool   `json:"healthy" yaml:"healthy"`
	Message string `json:"message" yaml:"message"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	status := ServerStatus{Message: "server is not running"}

	if statusPidFile != "" {
		if data, err := os.ReadFile(statusPidFile); err == nil {
			if pid, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil {
				if process, err := os.FindProcess(pid); err == nil {
					if process.Signal(syscall.Signal(0)) == nil {
						status.Running = true
						status.PID = pid
					}
				}
			}
		}
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://%s/healthz", statusListen))
	if err == nil {
		defer func() { _ = resp.Body.Close() }()
		status.Running = true
		status.Healthy = resp.StatusCode == http.StatusOK
	}

	switch {
	case status.Running && status.Healthy:
		status.Message = "server is running and healthy"
	case status.Running:
		status.Message = "server is running but the control plane is unreachable or unhealthy"
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, status)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, status)
	default:
		printStatusTable(status)
		return nil
	}
}

func printStatusTable(status ServerStatus) {
	fmt.Println()
	if status.Running {
		if status.Healthy {
			fmt.Println("  Status:  running (healthy)")
		} else {
			fmt.Println("  Status:  running")
		}
		if status.PID != 0 {
			fmt.Printf("  PID:     %d\n", status.PID)
		}
	} else {
		fmt.Println("  Status:  stopped")
	}
	fmt.Printf("  %s\n", status.Message)
	fmt.Println()
}
