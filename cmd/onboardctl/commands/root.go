// Package commands implements the onboardctl CLI commands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smartmonitor/onboard-go/pkg/config"
	"github.com/smartmonitor/onboard-go/pkg/discovery"
	"github.com/smartmonitor/onboard-go/pkg/onboard"
)

// Version is set at build time.
var Version = "dev"

// options holds the global flags. Non-empty values override the config
// file.
type options struct {
	configPath   string
	logLevel     string
	stateDir     string
	eventLog     string
	codec        string
	metricsAddr  string
	otlpEndpoint string
}

// app is the state shared by the commands of one invocation.
type app struct {
	opts   options
	cfg    config.Config
	logger *slog.Logger

	// stderr receives logs and prompts.
	stderr io.Writer

	// Host-facing constructors. Tests replace them.
	newOnboarder   func(ctx context.Context) (*onboard.Onboarder, error)
	newBrowser     func() discovery.Browser
	promptPassword func(prompt string) (string, error)

	onboarder *onboard.Onboarder
	closers   []func(context.Context) error
}

func newApp(stderr io.Writer) *app {
	a := &app{stderr: stderr}
	a.newOnboarder = a.buildOnboarder
	a.newBrowser = a.browser
	a.promptPassword = func(prompt string) (string, error) {
		return readPassword(stderr, prompt)
	}
	return a
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "onboardctl",
		Short: "Put SmartMonitor devices on a WiFi network",
		Long: `onboardctl delivers WiFi credentials to SmartMonitor devices, either over
the provisioning radio service or through the temporary network the device
hosts, and keeps a registry of the devices it provisioned.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.opts.configPath, "config", "", "config file (default is the user config dir onboard/onboard.yaml)")
	f.StringVar(&a.opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	f.StringVar(&a.opts.stateDir, "state-dir", "", "directory of the device registry")
	f.StringVar(&a.opts.eventLog, "event-log", "", "append provisioning events to this CBOR log file")
	f.StringVar(&a.opts.codec, "codec", "", "wire encoding: json, cbor")
	f.StringVar(&a.opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	f.StringVar(&a.opts.otlpEndpoint, "otlp-endpoint", "", "export traces to this OTLP gRPC collector")

	root.AddCommand(
		a.scanCmd(),
		a.provisionCmd(),
		a.reprovisionCmd(),
		a.networkCmd(),
		a.devicesCmd(),
		a.logCmd(),
	)
	return root
}

// Run executes onboardctl with args and releases everything the command
// opened, whether or not it failed.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	return newApp(stderr).execute(ctx, args, stdout)
}

func (a *app) execute(ctx context.Context, args []string, stdout io.Writer) error {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	return errors.Join(err, a.close())
}

// Execute runs onboardctl on the process arguments and exits non-zero on
// failure. SIGINT and SIGTERM cancel the running operation.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// load reads the config file and applies flag overrides.
func (a *app) load() error {
	path := a.opts.configPath
	if path == "" {
		path = config.DefaultPath()
	}

	var (
		cfg config.Config
		err error
	)
	if a.opts.configPath != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadOrDefault(path)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if a.opts.logLevel != "" {
		cfg.LogLevel = a.opts.logLevel
	}
	if a.opts.stateDir != "" {
		cfg.StateDir = a.opts.stateDir
	}
	if a.opts.eventLog != "" {
		cfg.EventLog = a.opts.eventLog
	}
	if a.opts.codec != "" {
		cfg.Codec = a.opts.codec
	}
	if a.opts.metricsAddr != "" {
		cfg.Metrics.Listen = a.opts.metricsAddr
	}
	if a.opts.otlpEndpoint != "" {
		cfg.Tracing.Endpoint = a.opts.otlpEndpoint
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = newLogger(a.stderr, cfg.LogLevel)
	return nil
}

// newLogger creates a text logger at level. Validate has already
// rejected unknown levels.
func newLogger(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	_ = l.UnmarshalText([]byte(level))
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

// engine returns the onboarder, building it on first use.
func (a *app) engine(ctx context.Context) (*onboard.Onboarder, error) {
	if a.onboarder != nil {
		return a.onboarder, nil
	}
	o, err := a.newOnboarder(ctx)
	if err != nil {
		return nil, err
	}
	a.onboarder = o
	a.closers = append(a.closers, func(context.Context) error { return o.Close() })
	return o, nil
}

// close releases everything the commands opened, newest first.
func (a *app) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	a.onboarder = nil
	return errors.Join(errs...)
}
