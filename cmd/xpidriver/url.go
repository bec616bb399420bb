package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/entrhq/xpidriver/pkg/portalloc"
	"github.com/entrhq/xpidriver/pkg/service"
)

func newURLCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "url [port]",
		Short: "Print the endpoint URL for a port",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var port int
			if len(args) == 1 {
				p, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid port %q", args[0])
				}
				port = p
			} else {
				cfg, err := root.load()
				if err != nil {
					return err
				}
				port = cfg.Port
			}

			if err := portalloc.Validate(port); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), service.HubURL(port))
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the xpidriver version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "xpidriver v%s\n", version)
		},
	}
}
