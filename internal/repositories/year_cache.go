package repositories

import (
	"errors"
	"fmt"

	"github.com/sagebrushdata/nvenr/internal/enrollment"
	"github.com/sagebrushdata/nvenr/internal/models"
	"github.com/sagebrushdata/nvenr/internal/shared"
)

// YearCacheAdapter provides year-keyed access to cached enrollment tables.
//
// Each stored year is a snapshot plus its wide rows; lookups return the most
// recent live snapshot for the year. Storing a year again creates a new
// snapshot rather than overwriting, so older fetches stay inspectable until
// cleared.
type YearCacheAdapter struct {
	repo *SnapshotRepository
}

// NewYearCacheAdapter creates a new YearCacheAdapter with the given repository
func NewYearCacheAdapter(repo *SnapshotRepository) *YearCacheAdapter {
	return &YearCacheAdapter{repo: repo}
}

// PutYear stores a fetched table under a new snapshot for its year.
func (a *YearCacheAdapter) PutYear(year int, provider string, table *enrollment.Table) error {
	snapshot := models.NewSnapshot(year, provider, table.Len())

	if err := a.repo.Create(snapshot); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}

	if err := a.repo.InsertRecords(snapshot.ID(), table.Records); err != nil {
		return fmt.Errorf("failed to store records: %w", err)
	}

	return nil
}

// GetYear loads the most recently fetched table for a year.
//
// The second return value reports whether the year was cached at all.
func (a *YearCacheAdapter) GetYear(year int) (*enrollment.Table, bool, error) {
	snapshot, err := a.repo.GetLatestByYear(year)
	if errors.Is(err, shared.ErrSnapshotNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up year %d: %w", year, err)
	}

	records, err := a.repo.RecordsBySnapshot(snapshot.ID())
	if err != nil {
		return nil, false, fmt.Errorf("failed to load records for year %d: %w", year, err)
	}

	return &enrollment.Table{Records: records}, true, nil
}

// Snapshots lists all live snapshots, oldest first.
func (a *YearCacheAdapter) Snapshots() ([]*models.Snapshot, error) {
	return a.repo.List(map[string]any{})
}

// Clear soft-deletes every live snapshot.
func (a *YearCacheAdapter) Clear() (int, error) {
	snapshots, err := a.repo.List(map[string]any{})
	if err != nil {
		return 0, err
	}

	for _, snapshot := range snapshots {
		if err := a.repo.Delete(snapshot.ID()); err != nil {
			return 0, fmt.Errorf("failed to delete snapshot %s: %w", snapshot.ID(), err)
		}
	}

	return len(snapshots), nil
}
