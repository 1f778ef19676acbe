package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newPullCmd(opts *rootOptions) *cobra.Command {
	var url, path string
	cmd := &cobra.Command{
		Use:     "pull",
		Short:   "Download the model if it is not present",
		Example: "  lmchat pull\n  lmchat pull --url https://host/model.gguf --path model.gguf",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := opts.openApp(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			pp := newProgressPrinter(cmd.ErrOrStderr())
			return a.Download(ctx, url, path, pp.handle)
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "Source URL (default: configured model URL)")
	cmd.Flags().StringVar(&path, "path", "", "Target path inside the models dir (default: configured model path)")
	return cmd
}
