package commands

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/smartmonitor/onboard-go/pkg/provisioning"
)

func (a *app) scanCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List devices advertising the provisioning service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := a.engine(cmd.Context())
			if err != nil {
				return err
			}

			if timeout <= 0 {
				timeout = a.cfg.Timeouts.Scan.Std()
			}

			w := cmd.OutOrStdout()
			var mu sync.Mutex
			devices, err := o.ScanForDevices(cmd.Context(), func(d provisioning.DiscoveredDevice) {
				mu.Lock()
				defer mu.Unlock()
				printDevice(w, d)
			}, timeout)
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}

			fmt.Fprintf(w, "%d device(s) found\n", len(devices))
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "scan duration (default from config)")
	return cmd
}

func printDevice(w io.Writer, d provisioning.DiscoveredDevice) {
	id := "-"
	if d.DeviceID != nil {
		id = fmt.Sprintf("%d", *d.DeviceID)
	}
	fmt.Fprintf(w, "%-20s %-18s id=%-6s rssi=%d dBm\n", d.Name, d.Address, id, d.RSSI)
}
