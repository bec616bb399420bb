package main

import (
	"fmt"
	"io"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/spf13/cobra"

	"github.com/entrhq/xpidriver/pkg/extension"
	"github.com/entrhq/xpidriver/pkg/portalloc"
	"github.com/entrhq/xpidriver/pkg/service"
)

func newProfileCmd(root *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the user.js and extensions a launch would use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if port == 0 {
				port = cfg.Port
			}
			if port == 0 {
				if port, err = portalloc.Free(); err != nil {
					return err
				}
			}
			if err := portalloc.Validate(port); err != nil {
				return err
			}

			prof, err := cfg.BuildProfile()
			if err != nil {
				return err
			}
			if err := service.ConfigureProfile(prof, port, extension.NewResolver(cfg.Extension.Path)); err != nil {
				return err
			}

			userJS, err := prof.UserJS()
			if err != nil {
				return err
			}

			var src string
			for _, a := range prof.Extensions() {
				src += fmt.Sprintf("// extension: %s (%s)\n", a.Path(), a.Source())
			}
			src += userJS

			return writeHighlighted(cmd.OutOrStdout(), src, root.plain)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to render (default: config, else any free port)")
	return cmd
}

// writeHighlighted prints JavaScript source, colored unless plain.
func writeHighlighted(w io.Writer, src string, plain bool) error {
	if plain {
		_, err := io.WriteString(w, src)
		return err
	}
	if err := quick.Highlight(w, src, "javascript", "terminal256", "monokai"); err != nil {
		_, err = io.WriteString(w, src)
		return err
	}
	return nil
}
