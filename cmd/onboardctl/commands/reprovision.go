package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/smartmonitor/onboard-go/pkg/radio"
)

func (a *app) reprovisionCmd() *cobra.Command {
	var (
		creds       credentialFlags
		name        string
		scanTimeout time.Duration
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "reprovision",
		Short: "Move an already provisioned device to new credentials",
		Long: `Move a device that is already on a network to new credentials.

Provisioned devices no longer advertise the provisioning service, so the
scan is unfiltered and the first device whose advertised name contains
--name (case-insensitive) is used.`,
		Example: `  onboardctl reprovision --name SmartMonitor_7 --ssid NewNet`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.credentials(cmd, &creds)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			o, err := a.engine(ctx)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			res, err := o.ReprovisionDevice(ctx, radio.ReprovisionOptions{
				NamePattern:         name,
				Credentials:         c,
				ScanTimeout:         scanTimeout,
				ConfirmationTimeout: timeout,
				OnProgress:          progressPrinter(w),
			})
			if err != nil {
				return err
			}
			printResult(w, res)
			return res.Err()
		},
	}

	creds.register(cmd)
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "advertised name of the device, matched as a substring")
	f.DurationVar(&scanTimeout, "scan-timeout", 0, "how long to search for the device (default from config)")
	f.DurationVar(&timeout, "timeout", 0, "acknowledgment timeout (default from config)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
