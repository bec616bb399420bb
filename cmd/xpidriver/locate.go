package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entrhq/xpidriver/pkg/firefox"
)

func newLocateCmd(root *rootOptions) *cobra.Command {
	var usePlaywright bool

	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Print the Firefox executable that would be launched",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}

			path, err := firefox.Locate(cfg.Firefox.Binary, firefox.LocateOptions{
				UsePlaywright: usePlaywright || cfg.Firefox.UsePlaywright,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&usePlaywright, "playwright", false, "fall back to a Playwright-managed Firefox (downloads it if needed)")
	return cmd
}
