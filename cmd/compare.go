package main

import (
	"context"
	"fmt"

	"github.com/sagebrushdata/nvenr/internal/shared"
	"github.com/sagebrushdata/nvenr/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Compare reports district-level enrollment change between two years.
func (r *Runner) Compare(ctx context.Context, cmd *cli.Command) error {
	yearA := cmd.Int("from")
	yearB := cmd.Int("to")

	if yearA == yearB {
		return fmt.Errorf("%w: --from and --to must differ", shared.ErrInvalidFlag)
	}

	if err := r.ensureCache(); err != nil {
		r.logger.Warn("cache unavailable, fetching without persistence", "error", err)
	}

	r.logger.Info("comparing years", "from", yearA, "to", yearB)
	r.writePlain("Comparing %d and %d...\n\n", yearA, yearB)

	progressCh := make(chan tasks.ProgressUpdate, 10)
	go func() {
		for update := range progressCh {
			r.writePlain("📥 %s\n", update.Message)
		}
	}()

	result, err := r.engine.Compare(ctx, progressCh, yearA, yearB)
	close(progressCh)

	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.writePlain("\n")
	r.writePlainHeader("Comparison Results")
	r.writePlain("Statewide %d: %s students\n", yearA, shared.FormatCount(result.TotalBefore))
	r.writePlain("Statewide %d: %s students\n", yearB, shared.FormatCount(result.TotalAfter))
	r.writePlain("Change: %+.0f\n\n", result.TotalDelta)

	if len(result.Deltas) > 0 {
		r.writePlain("Districts by absolute change:\n")
		for i, delta := range result.Deltas {
			r.writePlain("  %d. %s: %s → %s (%+.0f)\n",
				i+1, delta.DistrictName,
				shared.FormatCount(delta.Before), shared.FormatCount(delta.After),
				delta.Delta)
		}
	}

	if len(result.OnlyInA) > 0 {
		r.writePlain("\nOnly reported in %d:\n", yearA)
		for _, name := range result.OnlyInA {
			r.writePlain("  - %s\n", name)
		}
	}

	if len(result.OnlyInB) > 0 {
		r.writePlain("\nOnly reported in %d:\n", yearB)
		for _, name := range result.OnlyInB {
			r.writePlain("  - %s\n", name)
		}
	}

	return nil
}
