package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entrhq/xpidriver/pkg/config"
	"github.com/entrhq/xpidriver/pkg/logging"
)

// rootOptions holds the flags shared by every subcommand.
type rootOptions struct {
	configFile string
	envFile    string
	logLevel   string
	plain      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "xpidriver",
		Short: "Run Firefox with the WebDriver extension on a local port",
		Long: `xpidriver launches a local Firefox configured with the WebDriver
extension, waits until its endpoint answers on http://localhost:<port>/hub
and stops it again on Ctrl+C.

Configuration is read from --config (YAML), then --env-file, then the
environment (XPIDRIVER_DRIVER_XPI, XPIDRIVER_FIREFOX_BIN, XPIDRIVER_PORT,
XPIDRIVER_LOG_LEVEL).`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file with XPIDRIVER_* overrides (skipped when missing)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&opts.plain, "plain", false, "plain output without colors or animation")

	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newProfileCmd(opts))
	rootCmd.AddCommand(newLocateCmd(opts))
	rootCmd.AddCommand(newURLCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// load reads the configuration and applies the --log-level flag.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configFile, o.envFile)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		if _, err := logging.ParseLevel(o.logLevel); err != nil {
			return nil, err
		}
		cfg.Logging.Level = o.logLevel
	}
	return cfg, nil
}

// logger opens the session log file, falling back to stderr.
func (o *rootOptions) logger(cfg *config.Config, cmd *cobra.Command) *logging.Logger {
	logger, err := logging.NewLogger("xpidriver")
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: file logging unavailable: %v\n", err)
	}
	logger.SetLevel(cfg.LogLevel())
	return logger
}
