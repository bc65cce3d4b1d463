package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/address-pipeline/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run download, geocode, and load in order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		strategy := cfg.Loader.Strategy
		if s, _ := cmd.Flags().GetString("strategy"); s != "" {
			strategy = s
		}

		// Open the database first so a bad DSN fails before any network work.
		l, closeDB, err := openLoader(ctx, cfg, strategy)
		if err != nil {
			return err
		}
		defer closeDB()

		store := newStore(cfg)
		d, err := newDownloader(cfg, store)
		if err != nil {
			return err
		}

		p := &pipeline.Pipeline{
			Downloader: d,
			Geocoder:   newGeocoder(cfg, store, ""),
			Load:       pipeline.NewLoadStage(loadConfig(cfg), l, store),
		}
		rep, err := p.Run(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "downloaded %s\n", rep.Download.Artifact.Path)
		fmt.Fprintf(cmd.OutOrStdout(), "geocoded %s (%d matched of %d)\n",
			rep.Geocode.Artifact.Path, rep.Geocode.Stats.Matched, rep.Geocode.Stats.Total)
		printSummary(cmd, rep.Load)
		return nil
	},
}

func init() {
	runCmd.Flags().String("strategy", "", "load strategy: in_process or native (overrides loader.strategy)")
	rootCmd.AddCommand(runCmd)
}
