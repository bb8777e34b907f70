package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kachinap/sandpile-project/internal/app"
	"github.com/kachinap/sandpile-project/internal/sims/sandpile"
	"github.com/kachinap/sandpile-project/internal/stats"
	"github.com/kachinap/sandpile-project/internal/store"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drop grains one at a time and collect avalanche sizes",
		Long: `Start from the seeded grid (or a saved snapshot with --from), optionally
relax it first, then deposit single grains and relax after each one. The size
of every avalanche is collected into a frequency table.

Interrupting the run stops it between avalanches; the statistics gathered so
far are still reported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()
			ctx := cmd.Context()

			if cmd.Flags().Changed("avalanches") {
				e.cfg.Run.Avalanches, _ = cmd.Flags().GetInt("avalanches")
			}
			if noEq, _ := cmd.Flags().GetBool("no-equilibrate"); noEq {
				e.cfg.Run.Equilibrate = false
			}
			if e.cfg.Run.Avalanches < 0 {
				return fmt.Errorf("avalanches must be non-negative, got %d", e.cfg.Run.Avalanches)
			}
			record, _ := cmd.Flags().GetBool("record")
			if record && e.cfg.Storage.DBPath == "" {
				return errors.New("--record needs a database (--db or storage.db_path)")
			}

			pile, err := sandpile.New(e.cfg.Sandpile)
			if err != nil {
				return err
			}
			if from, _ := cmd.Flags().GetString("from"); from != "" {
				g, err := e.loadGrid(ctx, from)
				if err != nil {
					return err
				}
				if err := pile.LoadGrid(g); err != nil {
					return err
				}
				e.log.Info("loaded snapshot", "ref", from, "mass", humanize.Comma(int64(g.Mass())))
			}

			exp := app.New(pile, app.Options{
				ProgressInterval: e.cfg.Run.ProgressInterval,
				KeepAvalanches:   record,
				Logger:           e.log,
			})
			if e.cfg.Run.Equilibrate {
				exp.Equilibrate()
			}

			res, runErr := exp.Run(ctx, e.cfg.Run.Avalanches)
			if runErr != nil && !errors.Is(runErr, ctx.Err()) {
				return runErr
			}

			out := cmd.OutOrStdout()
			printSummary(out, res.Summary)

			if path, _ := cmd.Flags().GetString("csv"); path != "" {
				if err := writeFrequencyCSV(path, res.Summary.Frequencies); err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote frequency table to %s\n", path)
			}
			if path, _ := cmd.Flags().GetString("hist-csv"); path != "" {
				h := stats.NewLogHistogram(exp.Sizes(), e.cfg.Run.HistogramBins)
				if err := writeHistogramCSV(path, h); err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote log histogram to %s\n", path)
			}

			// Persist even after an interrupt, with a fresh context.
			persistCtx := ctx
			if runErr != nil {
				persistCtx = context.WithoutCancel(ctx)
			}
			if record {
				db, err := e.openDB()
				if err != nil {
					return err
				}
				id, err := db.InsertRun(persistCtx, store.Run{Config: e.cfg.Sandpile}, exp.Avalanches())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Recorded run %s\n", id)
			}
			if label, _ := cmd.Flags().GetString("save"); label != "" {
				refs, err := e.saveGrid(persistCtx, label, pile.Snapshot())
				if err != nil {
					return err
				}
				e.log.Info("saved final grid", "label", label, "refs", refs)
			}
			return runErr
		},
	}
	cmd.Flags().Int("avalanches", 0, "Number of avalanches (default from config)")
	cmd.Flags().String("from", "", "Start from a snapshot: file path, database ID or label")
	cmd.Flags().Bool("no-equilibrate", false, "Skip the initial relaxation")
	cmd.Flags().String("csv", "", "Write the size/count table to this CSV file")
	cmd.Flags().String("hist-csv", "", "Write log-spaced histogram bins to this CSV file")
	cmd.Flags().Bool("record", false, "Record the run and every avalanche in the database")
	cmd.Flags().String("save", "", "Save the final grid under this snapshot label")
	return cmd
}

func printSummary(w io.Writer, s stats.Summary) {
	if s.Empty() {
		fmt.Fprintln(w, "No avalanches: no data")
		return
	}
	fmt.Fprintf(w, "Avalanches: %s\n", humanize.Comma(int64(s.Count)))
	fmt.Fprintf(w, "Min size:   %d\n", s.Min)
	fmt.Fprintf(w, "Max size:   %s\n", humanize.Comma(int64(s.Max)))
	fmt.Fprintf(w, "Mean size:  %.3f\n", s.Mean)
	fmt.Fprintf(w, "Distinct:   %d sizes\n", len(s.Frequencies))
	if fit, err := stats.FitPowerLaw(s.Frequencies); err == nil {
		fmt.Fprintf(w, "Power law:  exponent %.3f (R² %.3f over %d sizes)\n", fit.Exponent, fit.RSquared, fit.Points)
	}
}
