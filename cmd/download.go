package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the latest address list",
	Long: `Fetches the configured source URL and saves the body unchanged as
data/<name>_<YYYY-MM-DD>.<ext>, with the extension taken from the response Content-Type.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if u, _ := cmd.Flags().GetString("url"); u != "" {
			cfg.Source.URL = u
		}

		d, err := newDownloader(cfg, newStore(cfg))
		if err != nil {
			return err
		}
		res, err := d.Run(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%d bytes)\n", res.Artifact.Path, res.Bytes)
		return nil
	},
}

func init() {
	downloadCmd.Flags().String("url", "", "source URL (overrides source.url)")
	rootCmd.AddCommand(downloadCmd)
}
