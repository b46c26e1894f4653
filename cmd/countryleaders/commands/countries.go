package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var countriesCmd = &cobra.Command{
	Use:   "countries",
	Short: "List the country codes known to the API",
	Args:  cobra.NoArgs,
	RunE:  runCountries,
}

func init() {
	rootCmd.AddCommand(countriesCmd)
}

func runCountries(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	countries, err := newClient(cfg).ListCountries(ctx)
	if err != nil {
		logError("%v", err)
		return err
	}

	out := cmd.OutOrStdout()
	for _, c := range countries {
		fmt.Fprintln(out, c)
	}
	return nil
}
