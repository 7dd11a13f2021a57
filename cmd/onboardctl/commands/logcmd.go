package commands

import (
	"github.com/spf13/cobra"
)

func (a *app) logCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Inspect provisioning event logs written with --event-log",
	}

	var viewFilter filterFlags
	view := &cobra.Command{
		Use:   "view <file>",
		Short: "Print events in human-readable form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := viewFilter.build()
			if err != nil {
				return err
			}
			return RunView(args[0], filter, cmd.OutOrStdout())
		},
	}
	viewFilter.register(view)

	var statsFilter filterFlags
	stats := &cobra.Command{
		Use:   "stats <file>",
		Short: "Summarize sessions and outcomes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := statsFilter.build()
			if err != nil {
				return err
			}
			return RunStats(args[0], filter, cmd.OutOrStdout())
		},
	}
	statsFilter.register(stats)

	var (
		exportFilter filterFlags
		format       string
		output       string
	)
	export := &cobra.Command{
		Use:   "export <file>",
		Short: "Export events as JSON lines or CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := exportFilter.build()
			if err != nil {
				return err
			}
			return RunExport(args[0], filter, format, output, cmd.OutOrStdout())
		},
	}
	exportFilter.register(export)
	export.Flags().StringVar(&format, "format", "jsonl", "output format: jsonl, csv")
	export.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")

	cmd.AddCommand(view, stats, export)
	return cmd
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.session, "session", "", "session ID or prefix")
	fs.StringVar(&f.device, "device-id", "", "device ID")
	fs.StringVar(&f.layer, "layer", "", "layer: session, radio, ap")
	fs.StringVar(&f.direction, "direction", "", "frame direction: in, out")
	fs.StringVar(&f.category, "category", "", "category: frame, state, error, outcome")
	fs.StringVar(&f.since, "since", "", "events at or after this time (RFC3339)")
	fs.StringVar(&f.until, "until", "", "events before this time (RFC3339)")
}
