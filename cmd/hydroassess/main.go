// Command hydroassess assesses a single site from the command line, prints
// the effective rate table, and bulk-loads groundwater stations.
package main

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "hydroassess",
		Short:         "Rainwater harvesting feasibility, design and cost",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			return nil
		},
	}

	rootCmd.AddCommand(assessCmd())
	rootCmd.AddCommand(ratesCmd())
	rootCmd.AddCommand(stationsCmd())
	return rootCmd
}
