package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kachinap/sandpile-project/internal/stats"
	"github.com/kachinap/sandpile-project/internal/store"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect runs recorded in the database",
	}
	cmd.AddCommand(newRunsListCmd(), newRunsShowCmd())
	return cmd
}

// requireDB loads the environment and opens its database, failing when no
// database is configured.
func requireDB(cmd *cobra.Command) (*env, *store.DB, error) {
	e, err := loadEnv(cmd)
	if err != nil {
		return nil, nil, err
	}
	db, err := e.openDB()
	if err != nil {
		return nil, nil, err
	}
	if db == nil {
		return nil, nil, errors.New("no database configured (--db or storage.db_path)")
	}
	return e, db, nil
}

func newRunsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, db, err := requireDB(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			limit, _ := cmd.Flags().GetInt("limit")
			runs, err := db.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No recorded runs.")
				return nil
			}
			for _, r := range runs {
				c := r.Config
				fmt.Fprintf(out, "%s  %s  N=%d K=%d %s %s seed=%d  %s avalanches, %s topples\n",
					r.ID, humanize.Time(r.CreatedAt), c.Size, c.Threshold, c.Boundary, c.Placement, c.Seed,
					humanize.Comma(int64(r.Avalanches)), humanize.Comma(int64(r.TotalTopples)))
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum runs to list (0 for all)")
	return cmd
}

func newRunsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Summarize the avalanche sizes of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, db, err := requireDB(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			sizes, err := db.RunSizes(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), stats.Summarize(sizes))
			return nil
		},
	}
}
