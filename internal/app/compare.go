package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/kachinap/sandpile-project/internal/core"
	"github.com/kachinap/sandpile-project/internal/sims/sandpile"
	"github.com/kachinap/sandpile-project/internal/stats"
)

// Comparison is the outcome of one placement strategy in a Compare run.
type Comparison struct {
	Placement string
	Summary   stats.Summary
	// Fit is nil when too few distinct sizes were observed.
	Fit *stats.PowerLaw
}

// Compare runs n avalanches for each placement strategy, every one starting
// from a copy of start (or the freshly seeded and equilibrated grid when
// start is nil), and returns the results ranked by mean avalanche size,
// largest first. Strategies run one after another.
func Compare(ctx context.Context, base sandpile.Config, start *core.IntGrid, placements []string, n int, logger *slog.Logger) ([]Comparison, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if len(placements) == 0 {
		placements = sandpile.PlacementNames()
	}

	results := make([]Comparison, 0, len(placements))
	for _, name := range placements {
		cfg := base
		cfg.Placement = name
		pile, err := sandpile.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("placement %s: %w", name, err)
		}
		if start != nil {
			if err := pile.LoadGrid(start); err != nil {
				return nil, fmt.Errorf("placement %s: %w", name, err)
			}
		} else {
			pile.Equilibrate()
		}

		exp := New(pile, Options{Logger: logger.With("placement", name)})
		res, err := exp.Run(ctx, n)
		if err != nil {
			return nil, err
		}
		c := Comparison{Placement: name, Summary: res.Summary}
		if fit, err := stats.FitPowerLaw(res.Summary.Frequencies); err == nil {
			c.Fit = &fit
		}
		results = append(results, c)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Summary.Mean > results[j].Summary.Mean
	})
	return results, nil
}
