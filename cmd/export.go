package main

import (
	"context"

	"github.com/sagebrushdata/nvenr/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Export runs a concurrent multi-year export to disk.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	years := cmd.IntSlice("years")

	format := cmd.String("format")
	if format == "" {
		format = r.config.Export.Format
	}
	outputDir := cmd.String("output")
	if outputDir == "" {
		outputDir = r.config.Export.OutputDir
	}

	if err := r.ensureCache(); err != nil {
		r.logger.Warn("cache unavailable, fetching without persistence", "error", err)
	}

	r.logger.Info("starting export", "years", years, "format", format)
	r.writePlain("Exporting %d years as %s...\n\n", len(years), format)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchYear, tasks.CacheRead:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ExportYear:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.BulkExport(ctx, progressCh, years, tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  outputDir,
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
		Tidy:       cmd.Bool("tidy"),
		Refresh:    cmd.Bool("refresh"),
	})
	close(progressCh)

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Output directory: %s\n", result.OutputDirectory)
	r.writePlain("Manifest: %s\n", result.ManifestPath)
	r.writePlain("Exported: %d/%d years\n", result.SuccessfulExports, result.TotalYears)

	if result.FailedExports > 0 {
		r.writePlain("\nFailed to export %d years:\n", result.FailedExports)
		for _, yearResult := range result.Results {
			if yearResult.Error != nil {
				r.writePlain("  - %d: %v\n", yearResult.Year, yearResult.Error)
			}
		}
	}

	return nil
}
