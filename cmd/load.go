package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/address-pipeline/internal/loader"
	"github.com/sells-group/address-pipeline/internal/pipeline"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load address and geocode artifacts into the database",
	Long: `Recreates the addresses and geocoded_address_results tables and bulk-loads the
newest artifacts. --strategy selects in_process (parse in Go, insert in chunks)
or native (Postgres COPY FROM STDIN).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		strategy := cfg.Loader.Strategy
		if s, _ := cmd.Flags().GetString("strategy"); s != "" {
			strategy = s
		}

		l, closeDB, err := openLoader(ctx, cfg, strategy)
		if err != nil {
			return err
		}
		defer closeDB()

		lc := loadConfig(cfg)
		lc.AddressesPath, _ = cmd.Flags().GetString("addresses")
		lc.GeocodedPath, _ = cmd.Flags().GetString("geocoded")

		sum, err := pipeline.NewLoadStage(lc, l, newStore(cfg)).Run(ctx)
		if err != nil {
			return err
		}

		printSummary(cmd, sum)
		return nil
	},
}

func printSummary(cmd *cobra.Command, sum *loader.Summary) {
	for _, tc := range sum.Tables {
		fmt.Fprintf(cmd.OutOrStdout(), "loaded %d rows into %s (%s)\n", tc.Rows, tc.Table, sum.Strategy)
	}
	if sum.OrphanResults > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "warning: %d geocode results reference unknown addresses\n", sum.OrphanResults)
	}
}

func init() {
	loadCmd.Flags().String("strategy", "", "load strategy: in_process or native (overrides loader.strategy)")
	loadCmd.Flags().String("addresses", "", "address artifact to load (default: latest)")
	loadCmd.Flags().String("geocoded", "", "geocode artifact to load (default: latest)")
	rootCmd.AddCommand(loadCmd)
}
