package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/entrhq/xpidriver/pkg/service"
	"github.com/entrhq/xpidriver/pkg/ui"
)

type serveOptions struct {
	port     int
	xpi      string
	firefox  string
	headless bool
	copyURL  bool
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start Firefox and keep the endpoint up until interrupted",
		Example: `  xpidriver serve                    # any free port, bundled extension
  xpidriver serve --port 7055 --headless
  xpidriver serve --xpi ./webdriver.xpi --copy-url`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, root, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "endpoint port (default: config, else any free port)")
	cmd.Flags().StringVar(&opts.xpi, "xpi", "", "WebDriver extension to inject instead of the bundled one")
	cmd.Flags().StringVar(&opts.firefox, "firefox", "", "Firefox executable")
	cmd.Flags().BoolVar(&opts.headless, "headless", false, "run Firefox headless")
	cmd.Flags().BoolVar(&opts.copyURL, "copy-url", false, "copy the endpoint URL to the clipboard")

	return cmd
}

func runServe(cmd *cobra.Command, root *rootOptions, opts *serveOptions) error {
	cfg, err := root.load()
	if err != nil {
		return err
	}
	if opts.port != 0 {
		cfg.Port = opts.port
		cfg.AnyFreePort = false
	}
	if opts.xpi != "" {
		cfg.Extension.Path = opts.xpi
	}
	if opts.firefox != "" {
		cfg.Firefox.Binary = opts.firefox
	}
	if opts.headless {
		cfg.Firefox.Args = append(cfg.Firefox.Args, "-headless")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := root.logger(cfg, cmd)
	defer logger.Close()

	svcOpts, err := cfg.ServiceOptions(logger)
	if err != nil {
		return err
	}
	svc, err := service.New(svcOpts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	label := fmt.Sprintf("Starting Firefox on port %d", svc.Port())
	if err := ui.RunWithSpinner(out, label, root.plain, func() error { return svc.Start(ctx) }); err != nil {
		svc.Stop()
		return err
	}

	endpoint := svc.URL().String()
	fmt.Fprintln(out, ui.KeyValue("endpoint", endpoint))
	fmt.Fprintln(out, ui.KeyValue("firefox", svc.Executable()))
	if path := logger.LogPath(); path != "" {
		fmt.Fprintln(out, ui.KeyValue("log", path))
	}

	if opts.copyURL {
		if err := clipboard.WriteAll(endpoint); err != nil {
			logger.Warnf("failed to copy endpoint to clipboard: %v", err)
			fmt.Fprintln(out, ui.Muted("clipboard unavailable, endpoint not copied"))
		} else {
			fmt.Fprintln(out, ui.Muted("endpoint copied to clipboard"))
		}
	}

	fmt.Fprintln(out, ui.Muted("Press Ctrl+C to stop."))
	<-ctx.Done()

	fmt.Fprintln(out, "\nShutting down gracefully...")
	svc.Stop()
	return nil
}
