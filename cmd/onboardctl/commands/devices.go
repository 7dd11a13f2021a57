package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/smartmonitor/onboard-go/pkg/discovery"
	"github.com/smartmonitor/onboard-go/pkg/persistence"
)

func (a *app) devicesCmd() *cobra.Command {
	var (
		online  bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List the devices provisioned from this host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.registry()
			if err != nil {
				return err
			}
			reg, err := store.Load()
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			if reg == nil {
				reg = &persistence.Registry{}
			}

			var seen map[int]*discovery.DeviceService
			if online {
				if timeout <= 0 {
					timeout = a.cfg.Verify.Timeout.Std()
				}
				seen, err = browseDevices(cmd.Context(), a.newBrowser(), timeout)
				if err != nil {
					return err
				}
				now := time.Now()
				for i, d := range reg.Devices {
					if d.DeviceID == 0 || seen[d.DeviceID] == nil {
						continue
					}
					if err := store.MarkVerified(d.DeviceID, now); err != nil {
						a.logger.Warn("registry update failed", "device", d.DeviceID, "error", err)
						continue
					}
					reg.Devices[i].VerifiedAt = now
				}
			}

			writeDevices(cmd.OutOrStdout(), reg, seen, time.Now())
			return nil
		},
	}

	cmd.Flags().BoolVar(&online, "online", false, "browse the local network and show which devices are announced")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "browse duration for --online (default from config)")

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget every provisioned device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.registry()
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return fmt.Errorf("failed to clear registry: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", store.Path())
			return nil
		},
	})
	return cmd
}

// browseDevices collects announcements until timeout.
func browseDevices(ctx context.Context, b discovery.Browser, timeout time.Duration) (map[int]*discovery.DeviceService, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results, err := b.Browse(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to browse: %w", err)
	}

	seen := make(map[int]*discovery.DeviceService)
	for svc := range results {
		seen[svc.DeviceID] = svc
	}
	return seen, nil
}

// writeDevices prints the registry as a table. online is nil when the
// network was not browsed.
func writeDevices(w io.Writer, reg *persistence.Registry, online map[int]*discovery.DeviceService, now time.Time) {
	if len(reg.Devices) == 0 {
		fmt.Fprintln(w, "No provisioned devices")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := "ID\tNAME\tTRANSPORT\tSSID\tPROVISIONED\tVERIFIED"
	if online != nil {
		header += "\tONLINE"
	}
	fmt.Fprintln(tw, header)

	for _, d := range reg.Devices {
		id := "-"
		if d.DeviceID != 0 {
			id = strconv.Itoa(d.DeviceID)
		}
		name := d.Name
		if name == "" {
			name = d.Address
		}
		provisioned := humanize.RelTime(d.ProvisionedAt, now, "ago", "from now")
		if d.Reprovisioned > 0 {
			provisioned = fmt.Sprintf("%s (+%d)", provisioned, d.Reprovisioned)
		}
		verified := "never"
		if !d.VerifiedAt.IsZero() {
			verified = humanize.RelTime(d.VerifiedAt, now, "ago", "from now")
		}

		row := fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%s", id, name, d.Transport, d.SSID, provisioned, verified)
		if online != nil {
			col := "-"
			if d.DeviceID != 0 {
				col = onlineColumn(online[d.DeviceID])
			}
			row += "\t" + col
		}
		fmt.Fprintln(tw, row)
	}
	tw.Flush()
}

func onlineColumn(svc *discovery.DeviceService) string {
	if svc == nil {
		return "no"
	}
	if len(svc.Addresses) > 0 {
		return svc.Addresses[0]
	}
	return "yes"
}
