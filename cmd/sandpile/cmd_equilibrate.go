package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kachinap/sandpile-project/internal/app"
	"github.com/kachinap/sandpile-project/internal/sims/sandpile"
)

func newEquilibrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "equilibrate",
		Short: "Relax the seeded grid onto the critical state and save it",
		Long: `Seed every interior cell with the fill value, relax the grid until no
cell exceeds the threshold, and save the result as a snapshot that later runs
can start from with --from.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			pile, err := sandpile.New(e.cfg.Sandpile)
			if err != nil {
				return err
			}
			rel := app.New(pile, app.Options{Logger: e.log}).Equilibrate()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Equilibrated %dx%d grid: %s topples in %d sweeps, mass %s\n",
				pile.Size().W, pile.Size().H,
				humanize.Comma(int64(rel.Topples)), rel.Sweeps,
				humanize.Comma(int64(pile.Grid().Mass())))

			label, _ := cmd.Flags().GetString("save")
			if label == "" {
				return nil
			}
			refs, err := e.saveGrid(cmd.Context(), label, pile.Snapshot())
			if err != nil {
				return err
			}
			if len(refs) == 0 {
				e.log.Warn("no snapshot store configured, grid not saved", "label", label)
				return nil
			}
			fmt.Fprintf(out, "Saved snapshot %q: %s\n", label, strings.Join(refs, ", "))
			return nil
		},
	}
	cmd.Flags().String("save", "equilibrium", "Snapshot label; empty skips saving")
	return cmd
}
