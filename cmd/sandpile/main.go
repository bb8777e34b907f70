package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sandpile",
		Short: "Abelian sandpile avalanche experiments",
		Long: `sandpile runs the Bak–Tang–Wiesenfeld sandpile on a square grid.

It seeds a supercritical grid, relaxes it onto the critical state, then drops
single grains and records the size of every avalanche they trigger.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Experiment YAML file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: error, warn, info, debug, trace")
	rootCmd.PersistentFlags().String("db", "", "SQLite database for snapshots and runs")
	rootCmd.PersistentFlags().StringArray("set", nil, "Model parameter override in key=value form (repeatable)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newParamsCmd(),
		newEquilibrateCmd(),
		newRunCmd(),
		newCompareCmd(),
		newRunsCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sandpile version %s\n", version)
		},
	}
}
