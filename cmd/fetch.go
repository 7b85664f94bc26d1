package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sagebrushdata/nvenr/internal/shared"
	"github.com/sagebrushdata/nvenr/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Years prints the range of school years the provider publishes.
func (r *Runner) Years(ctx context.Context, cmd *cli.Command) error {
	if r.service == nil {
		return fmt.Errorf("%w: enrollment service not initialized", shared.ErrServiceUnavailable)
	}

	years, err := r.service.AvailableYears(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch available years: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(years, cmd.Bool("pretty"))
	}

	r.writePlain("Available school years: %d through %d\n", years.Min, years.Max)
	r.writePlain("(%d means the %d-%02d school year)\n", years.Max, years.Max-1, years.Max%100)
	return nil
}

// Fetch retrieves enrollment data for one or more years.
//
// Single year uses --year, multiple years use --years and stack into one
// table. Cached snapshots are reused unless --refresh is set.
func (r *Runner) Fetch(ctx context.Context, cmd *cli.Command) error {
	year := cmd.Int("year")
	years := cmd.IntSlice("years")

	if year == 0 && len(years) == 0 {
		return fmt.Errorf("%w: --year or --years is required", shared.ErrMissingArgument)
	}
	if year != 0 && len(years) > 0 {
		return fmt.Errorf("%w: cannot specify both --year and --years", shared.ErrInvalidFlag)
	}

	if err := r.ensureCache(); err != nil {
		r.logger.Warn("cache unavailable, fetching without persistence", "error", err)
	}

	refresh := cmd.Bool("refresh")

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			switch update.Phase {
			case tasks.CacheRead:
				r.writePlain("💾 %s\n", update.Message)
			case tasks.FetchYear:
				r.writePlain("📥 %s\n", update.Message)
			}
		}
	}()

	var result *tasks.FetchResult
	var err error
	if len(years) > 0 {
		result, err = r.engine.FetchMulti(ctx, progressCh, years, refresh)
	} else {
		result, err = r.engine.Fetch(ctx, progressCh, year, refresh)
	}
	close(progressCh)

	if err != nil {
		return err
	}

	var payload any = result.Table
	if cmd.Bool("tidy") {
		tidy, err := r.service.TidyEnr(result.Table)
		if err != nil {
			return fmt.Errorf("failed to reshape table: %w", err)
		}
		payload = tidy
	}

	if outputPath := cmd.String("output"); outputPath != "" {
		data, err := shared.MarshalJSON(payload, true)
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		r.writePlain("✓ Saved to %s\n", outputPath)
		return nil
	}

	if cmd.Bool("json") {
		return r.writeJSON(payload, cmd.Bool("pretty"))
	}

	table := result.Table
	r.writePlainHeader("Enrollment Fetched")
	r.writePlain("Years: %v\n", table.Years())
	r.writePlain("Rows: %s\n", shared.FormatCount(float64(table.Len())))
	r.writePlain("Districts: %d\n", len(table.Districts()))
	r.writePlain("Total students: %s\n", shared.FormatCount(table.TotalStudents()))
	if len(result.CachedYears) > 0 {
		r.writePlain("From cache: %v\n", result.CachedYears)
	}
	if len(result.FetchedYears) > 0 {
		r.writePlain("From provider: %v\n", result.FetchedYears)
	}
	return nil
}
