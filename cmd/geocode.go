package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Geocode the latest address artifact",
	Long: `Reads the newest address artifact (or --input), submits it to the Census batch
geocoder, and saves one result per address as data/geocoded_addresses_<YYYY-MM-DD>.csv.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		input, _ := cmd.Flags().GetString("input")

		res, err := newGeocoder(cfg, newStore(cfg), input).Run(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%d addresses, %d matched, %d unmatched, %d tie)\n",
			res.Artifact.Path, res.Stats.Total, res.Stats.Matched, res.Stats.NoMatch, res.Stats.Tie)
		return nil
	},
}

func init() {
	geocodeCmd.Flags().String("input", "", "address artifact to geocode (default: latest)")
	rootCmd.AddCommand(geocodeCmd)
}
