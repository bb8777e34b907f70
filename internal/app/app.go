// Package app drives sandpile experiments: it feeds grains into a Pile,
// collects avalanche statistics and reports progress.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/kachinap/sandpile-project/internal/core"
	"github.com/kachinap/sandpile-project/internal/logging"
	"github.com/kachinap/sandpile-project/internal/sims/sandpile"
	"github.com/kachinap/sandpile-project/internal/stats"
)

// Options tune an Experiment. The zero value is usable.
type Options struct {
	// ProgressInterval is the minimum time between progress log lines.
	// Zero disables progress logging.
	ProgressInterval time.Duration
	// KeepAvalanches retains every Avalanche, not just its size, so a run can
	// be recorded with its deposit sites.
	KeepAvalanches bool
	Logger         *slog.Logger
}

// Experiment adapts a Pile to a long avalanche-collecting run.
type Experiment struct {
	pile       *sandpile.Pile
	collector  *stats.Collector
	avalanches []sandpile.Avalanche
	keep       bool

	log      *slog.Logger
	throttle *core.Throttle
}

// Result describes one call to Run.
type Result struct {
	// Completed is the number of avalanches this call performed.
	Completed int
	Elapsed   time.Duration
	// Summary covers every avalanche since the last Reset.
	Summary stats.Summary
}

// New constructs an Experiment around pile.
func New(pile *sandpile.Pile, opts Options) *Experiment {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	e := &Experiment{
		pile:      pile,
		collector: stats.NewCollector(),
		keep:      opts.KeepAvalanches,
		log:       logger.With("sim", pile.Name()),
	}
	if opts.ProgressInterval > 0 {
		e.throttle = core.NewThrottle(opts.ProgressInterval)
	}
	return e
}

// Pile returns the underlying sandpile.
func (e *Experiment) Pile() *sandpile.Pile { return e.pile }

// Reset reinitializes the pile with seed and discards collected statistics.
func (e *Experiment) Reset(seed int64) {
	e.pile.Reset(seed)
	e.collector = stats.NewCollector()
	e.avalanches = nil
}

// Equilibrate relaxes the current grid and logs the outcome.
func (e *Experiment) Equilibrate() sandpile.Relaxation {
	start := time.Now()
	rel := e.pile.Equilibrate()
	e.log.Info("equilibrated",
		"topples", humanize.Comma(int64(rel.Topples)),
		"sweeps", rel.Sweeps,
		"mass", humanize.Comma(int64(e.pile.Grid().Mass())),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return rel
}

// Run performs n single-grain depositions. Cancellation is checked between
// avalanches, never during a relaxation; on cancellation the statistics
// gathered so far are kept and ctx.Err() is returned alongside them.
func (e *Experiment) Run(ctx context.Context, n int) (Result, error) {
	start := time.Now()
	res := Result{}
	if e.throttle != nil {
		e.throttle.Due()
	}
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			e.log.Warn("run interrupted", "completed", humanize.Comma(int64(res.Completed)), "requested", humanize.Comma(int64(n)))
			return e.finish(res, start), err
		}
		a := e.pile.Step()
		e.collector.Add(a.Size)
		if e.keep {
			e.avalanches = append(e.avalanches, a)
		}
		res.Completed++
		e.log.Log(ctx, logging.LevelTrace, "avalanche", "deposit", a.Deposit.String(), "size", a.Size, "sweeps", a.Sweeps)

		if e.throttle != nil && e.throttle.Due() {
			e.log.Info("progress",
				"avalanches", humanize.Comma(int64(res.Completed)),
				"of", humanize.Comma(int64(n)),
				"largest", humanize.Comma(int64(e.collector.Summary().Max)))
		}
	}
	res = e.finish(res, start)
	e.log.Info("run complete",
		"avalanches", humanize.Comma(int64(res.Completed)),
		"mean", res.Summary.Mean,
		"max", humanize.Comma(int64(res.Summary.Max)),
		"elapsed", res.Elapsed.Round(time.Millisecond))
	return res, nil
}

func (e *Experiment) finish(res Result, start time.Time) Result {
	res.Elapsed = time.Since(start)
	res.Summary = e.collector.Summary()
	return res
}

// Summary returns statistics over every avalanche since the last Reset.
func (e *Experiment) Summary() stats.Summary { return e.collector.Summary() }

// Sizes returns every avalanche size since the last Reset, in order.
func (e *Experiment) Sizes() []int { return e.collector.Sizes() }

// Avalanches returns the retained avalanches. It is empty unless the
// Experiment was created with KeepAvalanches.
func (e *Experiment) Avalanches() []sandpile.Avalanche {
	return append([]sandpile.Avalanche(nil), e.avalanches...)
}
