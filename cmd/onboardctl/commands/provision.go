package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/smartmonitor/onboard-go/pkg/onboard"
	"github.com/smartmonitor/onboard-go/pkg/provisioning"
)

var errAborted = errors.New("aborted")

// credentialFlags are shared by provision and reprovision.
type credentialFlags struct {
	ssid     string
	password string
	email    string
}

func (c *credentialFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.ssid, "ssid", "", "network name the device should join")
	cmd.Flags().StringVar(&c.password, "password", "", "network password; prompted for when omitted, empty for an open network")
	cmd.Flags().StringVar(&c.email, "email", "", "account email forwarded to the device")
	_ = cmd.MarkFlagRequired("ssid")
}

// credentials returns validated credentials, prompting for the password
// when the flag was not given.
func (a *app) credentials(cmd *cobra.Command, c *credentialFlags) (provisioning.Credentials, error) {
	creds := provisioning.Credentials{SSID: c.ssid, Password: c.password, Email: c.email}
	if !cmd.Flags().Changed("password") {
		pw, err := a.promptPassword(fmt.Sprintf("Password for %s: ", c.ssid))
		if err != nil {
			return provisioning.Credentials{}, err
		}
		creds.Password = pw
	}
	if err := creds.Validate(); err != nil {
		return provisioning.Credentials{}, err
	}
	return creds, nil
}

// readPassword reads a masked line from the terminal.
func readPassword(stderr io.Writer, prompt string) (string, error) {
	rl, err := readline.NewEx(&readline.Config{
		Stdout:          stderr,
		InterruptPrompt: "^C",
	})
	if err != nil {
		return "", fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	pw, err := rl.ReadPassword(prompt)
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return "", errAborted
	}
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func (a *app) provisionCmd() *cobra.Command {
	var (
		creds     credentialFlags
		transport string
		address   string
		name      string
		timeout   time.Duration
		verify    bool
	)

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Send WiFi credentials to an unprovisioned device",
		Long: `Send WiFi credentials to a device waiting for provisioning.

Over the radio the device is selected by --address, or by scanning for an
advertised name containing --name. Over the access point the host leaves
its network, joins the device network, delivers the credentials and
rejoins the original network.`,
		Example: `  onboardctl provision --address AA:BB:CC:00:00:07 --ssid HomeNet
  onboardctl provision --name SmartMonitor_7 --ssid HomeNet --verify
  onboardctl provision --transport ap --ssid HomeNet --password secret123`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := provisioning.ParseTransportKind(transport)
			if err != nil {
				return err
			}
			if kind == provisioning.TransportRadio && address == "" && name == "" {
				return errors.New("--address or --name is required for the radio transport")
			}

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
			target := onboard.AccessPointTarget()
			if kind == provisioning.TransportRadio {
				device, err := a.selectDevice(ctx, o, w, address, name)
				if err != nil {
					return err
				}
				target = onboard.RadioTarget(device)
			}
			target.ConfirmationTimeout = timeout

			res, err := o.ProvisionDevice(ctx, target, c, progressPrinter(w))
			if err != nil {
				return err
			}
			printResult(w, res)
			if !res.Success {
				return res.Err()
			}

			if verify || a.cfg.Verify.Enabled {
				return verifyDevice(ctx, o, w, res)
			}
			return nil
		},
	}

	creds.register(cmd)
	f := cmd.Flags()
	f.StringVar(&transport, "transport", "radio", "transport: radio, ap")
	f.StringVar(&address, "address", "", "radio address of the device")
	f.StringVar(&name, "name", "", "select the first scanned device whose name contains this")
	f.DurationVar(&timeout, "timeout", 0, "acknowledgment timeout (default from config)")
	f.BoolVar(&verify, "verify", false, "wait for the device to announce itself on the network")
	return cmd
}

// selectDevice returns the radio target. With only a name it scans and
// picks the first device whose name contains it.
func (a *app) selectDevice(ctx context.Context, o *onboard.Onboarder, w io.Writer, address, name string) (provisioning.DiscoveredDevice, error) {
	if address != "" {
		return provisioning.NewDiscoveredDevice(address, name, 0), nil
	}

	fmt.Fprintf(w, "Scanning for %s...\n", name)
	devices, err := o.ScanForDevices(ctx, nil, a.cfg.Timeouts.Scan.Std())
	if err != nil {
		return provisioning.DiscoveredDevice{}, fmt.Errorf("scan failed: %w", err)
	}
	if d, ok := matchDevice(devices, name); ok {
		return d, nil
	}
	return provisioning.DiscoveredDevice{}, fmt.Errorf("no device named like %q found among %d", name, len(devices))
}

func matchDevice(devices []provisioning.DiscoveredDevice, name string) (provisioning.DiscoveredDevice, bool) {
	pattern := strings.ToLower(name)
	for _, d := range devices {
		if strings.Contains(strings.ToLower(d.Name), pattern) {
			return d, true
		}
	}
	return provisioning.DiscoveredDevice{}, false
}

func progressPrinter(w io.Writer) provisioning.ProgressFunc {
	return func(step string) {
		fmt.Fprintf(w, "  - %s\n", step)
	}
}

func printResult(w io.Writer, res provisioning.Result) {
	if res.Success {
		fmt.Fprintf(w, "OK    %s\n", res)
	} else {
		fmt.Fprintf(w, "FAIL  %s\n", res)
		if hint := res.Kind.Hint(); hint != "" {
			fmt.Fprintf(w, "      %s\n", hint)
		}
	}
	if !res.Restored() {
		fmt.Fprintln(w, "      warning: could not rejoin the original network")
	}
	if res.SessionID != "" {
		fmt.Fprintf(w, "      session %s\n", shortenSessionID(res.SessionID))
	}
}

func verifyDevice(ctx context.Context, o *onboard.Onboarder, w io.Writer, res provisioning.Result) error {
	if res.DeviceID == nil {
		fmt.Fprintln(w, "Skipping verification: the device reported no id")
		return nil
	}

	id := *res.DeviceID
	fmt.Fprintf(w, "Waiting for device %d on the network...\n", id)
	svc, err := o.VerifyDevice(ctx, id)
	if err != nil {
		return err
	}

	where := fmt.Sprintf("%s:%d", svc.Host, svc.Port)
	if len(svc.Addresses) > 0 {
		where = fmt.Sprintf("%s (%s)", where, strings.Join(svc.Addresses, ", "))
	}
	fmt.Fprintf(w, "Device %d is online at %s\n", id, where)
	return nil
}
