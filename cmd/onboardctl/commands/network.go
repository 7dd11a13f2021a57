package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) networkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "network",
		Short: "Show the host network and whether a device network is in range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			o, err := a.engine(ctx)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if name, ok := o.CurrentNetworkName(ctx); ok {
				fmt.Fprintf(w, "Current network: %s\n", name)
			} else {
				fmt.Fprintln(w, "Current network: none")
			}
			fmt.Fprintf(w, "On device network: %s\n", yesNo(o.IsConnectedToDeviceNetwork(ctx)))
			fmt.Fprintf(w, "Device network visible: %s\n", yesNo(o.IsDevicePresent(ctx)))
			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
