package main

import (
	"context"
	"fmt"

	"github.com/sagebrushdata/nvenr/internal/repositories"
	"github.com/urfave/cli/v3"
)

// snapshotRow is the JSON shape for one cached snapshot in cache list output.
type snapshotRow struct {
	ID        string `json:"id"`
	Sequence  int    `json:"sequence"`
	EndYear   int    `json:"end_year"`
	Provider  string `json:"provider"`
	RowCount  int    `json:"row_count"`
	FetchedAt string `json:"fetched_at"`
}

// CacheList lists cached enrollment snapshots.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureCache(); err != nil {
		return err
	}

	snapshots, err := r.snapshots.List(nil)
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	if cmd.Bool("json") {
		rows := make([]snapshotRow, 0, len(snapshots))
		for _, s := range snapshots {
			rows = append(rows, snapshotRow{
				ID:        s.ID(),
				Sequence:  s.Sequence(),
				EndYear:   s.EndYear(),
				Provider:  s.Provider(),
				RowCount:  s.RowCount(),
				FetchedAt: s.FetchedAt().Format("2006-01-02 15:04:05"),
			})
		}
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}

	if len(snapshots) == 0 {
		r.writePlain("No cached snapshots.\n")
		r.writePlain("Run 'nvenr fetch --year <year>' to populate the cache.\n")
		return nil
	}

	r.writePlainHeader("Cached Snapshots")
	for _, s := range snapshots {
		r.writePlain("%d. year %d: %d rows via %s (fetched %s)\n",
			s.Sequence(), s.EndYear(), s.RowCount(), s.Provider(),
			s.FetchedAt().Format("2006-01-02 15:04"))
	}
	return nil
}

// CacheClear soft-deletes every cached snapshot.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureCache(); err != nil {
		return err
	}

	cleared, err := repositories.NewYearCacheAdapter(r.snapshots).Clear()
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	r.logger.Info("cache cleared", "snapshots", cleared)
	r.writePlain("✓ Cleared %d cached snapshots\n", cleared)
	return nil
}
