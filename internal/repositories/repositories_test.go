package repositories

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/sagebrushdata/nvenr/internal/models"
	"github.com/sagebrushdata/nvenr/internal/shared"
	helpers "github.com/sagebrushdata/nvenr/internal/testing"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestSnapshotRepository(t *testing.T) {
	t.Run("Create assigns id and sequence", func(t *testing.T) {
		repo := NewSnapshotRepository(setupTestDB(t))

		snapshot := models.NewSnapshot(2026, "Nevada Report Card", 5955)
		if err := repo.Create(snapshot); err != nil {
			t.Fatalf("failed to create snapshot: %v", err)
		}

		if snapshot.ID() == "" {
			t.Error("expected generated snapshot id")
		}
		if snapshot.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", snapshot.Sequence())
		}

		second := models.NewSnapshot(2025, "Nevada Report Card", 5900)
		if err := repo.Create(second); err != nil {
			t.Fatalf("failed to create second snapshot: %v", err)
		}
		if second.Sequence() != 2 {
			t.Errorf("expected sequence 2, got %d", second.Sequence())
		}
	})

	t.Run("Get round-trips fields", func(t *testing.T) {
		repo := NewSnapshotRepository(setupTestDB(t))

		snapshot := models.NewSnapshot(2026, "Nevada Report Card", 5955)
		if err := repo.Create(snapshot); err != nil {
			t.Fatalf("failed to create snapshot: %v", err)
		}

		got, err := repo.Get(snapshot.ID())
		if err != nil {
			t.Fatalf("failed to get snapshot: %v", err)
		}

		if got.EndYear() != 2026 {
			t.Errorf("expected end year 2026, got %d", got.EndYear())
		}
		if got.Provider() != "Nevada Report Card" {
			t.Errorf("expected provider name, got %s", got.Provider())
		}
		if got.RowCount() != 5955 {
			t.Errorf("expected row count 5955, got %d", got.RowCount())
		}
	})

	t.Run("Get unknown id returns sentinel", func(t *testing.T) {
		repo := NewSnapshotRepository(setupTestDB(t))

		if _, err := repo.Get("missing"); !errors.Is(err, shared.ErrSnapshotNotFound) {
			t.Errorf("expected ErrSnapshotNotFound, got %v", err)
		}
	})

	t.Run("GetLatestByYear prefers the newest fetch", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewSnapshotRepository(db)

		older := models.NewSnapshot(2026, "Nevada Report Card", 100)
		if err := repo.Create(older); err != nil {
			t.Fatalf("failed to create snapshot: %v", err)
		}

		newer := models.NewSnapshot(2026, "Nevada Report Card", 200)
		if err := repo.Create(newer); err != nil {
			t.Fatalf("failed to create snapshot: %v", err)
		}
		// Force a strictly later fetch time so ordering never depends on clock resolution.
		if _, err := db.Exec("UPDATE snapshots SET fetched_at = datetime(fetched_at, '+1 hour') WHERE id = ?", newer.ID()); err != nil {
			t.Fatalf("failed to bump fetched_at: %v", err)
		}

		got, err := repo.GetLatestByYear(2026)
		if err != nil {
			t.Fatalf("failed to get latest: %v", err)
		}
		if got.ID() != newer.ID() {
			t.Errorf("expected newest snapshot %s, got %s", newer.ID(), got.ID())
		}
	})

	t.Run("Delete soft-deletes", func(t *testing.T) {
		repo := NewSnapshotRepository(setupTestDB(t))

		snapshot := models.NewSnapshot(2026, "Nevada Report Card", 10)
		if err := repo.Create(snapshot); err != nil {
			t.Fatalf("failed to create snapshot: %v", err)
		}

		if err := repo.Delete(snapshot.ID()); err != nil {
			t.Fatalf("failed to delete snapshot: %v", err)
		}

		if _, err := repo.Get(snapshot.ID()); !errors.Is(err, shared.ErrSnapshotNotFound) {
			t.Errorf("expected deleted snapshot to be hidden, got %v", err)
		}

		if err := repo.Delete(snapshot.ID()); !errors.Is(err, shared.ErrSnapshotNotFound) {
			t.Errorf("expected second delete to fail, got %v", err)
		}
	})

	t.Run("List filters by criteria", func(t *testing.T) {
		repo := NewSnapshotRepository(setupTestDB(t))

		for _, year := range []int{2024, 2025, 2025} {
			if err := repo.Create(models.NewSnapshot(year, "Nevada Report Card", 10)); err != nil {
				t.Fatalf("failed to create snapshot: %v", err)
			}
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list snapshots: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("expected 3 snapshots, got %d", len(all))
		}

		filtered, err := repo.List(map[string]any{"end_year": 2025})
		if err != nil {
			t.Fatalf("failed to list snapshots: %v", err)
		}
		if len(filtered) != 2 {
			t.Errorf("expected 2 snapshots for 2025, got %d", len(filtered))
		}
	})

	t.Run("InsertRecords and RecordsBySnapshot round-trip", func(t *testing.T) {
		repo := NewSnapshotRepository(setupTestDB(t))

		table := helpers.SmallTable(2026)
		snapshot := models.NewSnapshot(2026, "mock", table.Len())
		if err := repo.Create(snapshot); err != nil {
			t.Fatalf("failed to create snapshot: %v", err)
		}

		if err := repo.InsertRecords(snapshot.ID(), table.Records); err != nil {
			t.Fatalf("failed to insert records: %v", err)
		}

		records, err := repo.RecordsBySnapshot(snapshot.ID())
		if err != nil {
			t.Fatalf("failed to load records: %v", err)
		}

		if len(records) != table.Len() {
			t.Fatalf("expected %d records, got %d", table.Len(), len(records))
		}
		if records[0] != table.Records[0] {
			t.Errorf("first record changed in round-trip:\n got %+v\nwant %+v", records[0], table.Records[0])
		}
	})
}

func TestYearCacheAdapter(t *testing.T) {
	t.Run("GetYear misses before PutYear", func(t *testing.T) {
		cache := NewYearCacheAdapter(NewSnapshotRepository(setupTestDB(t)))

		_, ok, err := cache.GetYear(2026)
		if err != nil {
			t.Fatalf("expected no error on miss, got %v", err)
		}
		if ok {
			t.Error("expected cache miss for unstored year")
		}
	})

	t.Run("PutYear then GetYear round-trips the table", func(t *testing.T) {
		cache := NewYearCacheAdapter(NewSnapshotRepository(setupTestDB(t)))

		table := helpers.SmallTable(2026)
		if err := cache.PutYear(2026, "mock", table); err != nil {
			t.Fatalf("failed to store year: %v", err)
		}

		got, ok, err := cache.GetYear(2026)
		if err != nil {
			t.Fatalf("failed to load year: %v", err)
		}
		if !ok {
			t.Fatal("expected cache hit")
		}
		if got.Len() != table.Len() {
			t.Errorf("expected %d rows, got %d", table.Len(), got.Len())
		}
	})

	t.Run("Clear hides all snapshots", func(t *testing.T) {
		cache := NewYearCacheAdapter(NewSnapshotRepository(setupTestDB(t)))

		for _, year := range []int{2025, 2026} {
			if err := cache.PutYear(year, "mock", helpers.SmallTable(year)); err != nil {
				t.Fatalf("failed to store year %d: %v", year, err)
			}
		}

		cleared, err := cache.Clear()
		if err != nil {
			t.Fatalf("failed to clear cache: %v", err)
		}
		if cleared != 2 {
			t.Errorf("expected 2 cleared snapshots, got %d", cleared)
		}

		_, ok, err := cache.GetYear(2026)
		if err != nil {
			t.Fatalf("expected no error after clear, got %v", err)
		}
		if ok {
			t.Error("expected miss after clearing the cache")
		}
	})
}
