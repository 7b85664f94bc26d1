package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/sagebrushdata/nvenr/internal/enrollment"
	"github.com/sagebrushdata/nvenr/internal/shared"
	helpers "github.com/sagebrushdata/nvenr/internal/testing"
)

// memoryCache is an in-process YearCache double.
type memoryCache struct {
	tables map[int]*enrollment.Table
	puts   []int
	putErr error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{tables: make(map[int]*enrollment.Table)}
}

func (m *memoryCache) GetYear(year int) (*enrollment.Table, bool, error) {
	table, ok := m.tables[year]
	return table, ok, nil
}

func (m *memoryCache) PutYear(year int, provider string, table *enrollment.Table) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.puts = append(m.puts, year)
	m.tables[year] = table
	return nil
}

func newTestEngine(cache YearCache) (*EnrollmentEngine, *helpers.MockProvider) {
	provider := helpers.NewMockProvider()
	return NewEnrollmentEngine(enrollment.NewService(provider), cache), provider
}

func TestEnrollmentEngineFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches from the provider without a cache", func(t *testing.T) {
		engine, provider := newTestEngine(nil)

		result, err := engine.Fetch(ctx, nil, 2026, false)
		if err != nil {
			t.Fatalf("failed to fetch: %v", err)
		}

		if result.Table.Len() == 0 {
			t.Error("expected a non-empty table")
		}
		if len(result.FetchedYears) != 1 || result.FetchedYears[0] != 2026 {
			t.Errorf("expected fetched years [2026], got %v", result.FetchedYears)
		}
		if len(provider.FetchCalls) != 1 {
			t.Errorf("expected one provider call, got %d", len(provider.FetchCalls))
		}
	})

	t.Run("stores the snapshot in the cache", func(t *testing.T) {
		cache := newMemoryCache()
		engine, _ := newTestEngine(cache)

		if _, err := engine.Fetch(ctx, nil, 2026, false); err != nil {
			t.Fatalf("failed to fetch: %v", err)
		}

		if len(cache.puts) != 1 || cache.puts[0] != 2026 {
			t.Errorf("expected one cache write for 2026, got %v", cache.puts)
		}
	})

	t.Run("serves the cache without calling the provider", func(t *testing.T) {
		cache := newMemoryCache()
		cache.tables[2026] = helpers.StatewideTable(2026)
		engine, provider := newTestEngine(cache)

		result, err := engine.Fetch(ctx, nil, 2026, false)
		if err != nil {
			t.Fatalf("failed to fetch: %v", err)
		}

		if len(result.CachedYears) != 1 || result.CachedYears[0] != 2026 {
			t.Errorf("expected cached years [2026], got %v", result.CachedYears)
		}
		if len(provider.FetchCalls) != 0 {
			t.Errorf("expected no provider calls, got %v", provider.FetchCalls)
		}
	})

	t.Run("refresh bypasses the cache", func(t *testing.T) {
		cache := newMemoryCache()
		cache.tables[2026] = helpers.SmallTable(2026)
		engine, provider := newTestEngine(cache)

		result, err := engine.Fetch(ctx, nil, 2026, true)
		if err != nil {
			t.Fatalf("failed to fetch: %v", err)
		}

		if len(provider.FetchCalls) != 1 {
			t.Errorf("expected one provider call, got %v", provider.FetchCalls)
		}
		if result.Table.Len() == helpers.SmallTable(2026).Len() {
			t.Error("expected the refreshed table, not the stale cached one")
		}
		if cache.tables[2026].Len() != result.Table.Len() {
			t.Error("expected the refreshed snapshot to replace the cached one")
		}
	})

	t.Run("rejects out-of-range years", func(t *testing.T) {
		engine, provider := newTestEngine(nil)

		if _, err := engine.Fetch(ctx, nil, 1800, false); !errors.Is(err, shared.ErrInvalidYear) {
			t.Errorf("expected ErrInvalidYear, got %v", err)
		}
		if len(provider.FetchCalls) != 0 {
			t.Errorf("expected no provider calls, got %v", provider.FetchCalls)
		}
	})

	t.Run("cache write failure surfaces", func(t *testing.T) {
		cache := newMemoryCache()
		cache.putErr = errors.New("disk full")
		engine, _ := newTestEngine(cache)

		if _, err := engine.Fetch(ctx, nil, 2026, false); err == nil {
			t.Error("expected cache write failure to surface")
		}
	})

	t.Run("emits progress updates without blocking", func(t *testing.T) {
		engine, _ := newTestEngine(newMemoryCache())

		progress := make(chan ProgressUpdate, 16)
		if _, err := engine.Fetch(ctx, progress, 2026, false); err != nil {
			t.Fatalf("failed to fetch: %v", err)
		}
		close(progress)

		var phases []Phase
		for update := range progress {
			phases = append(phases, update.Phase)
		}
		if len(phases) < 2 {
			t.Fatalf("expected fetch and cache updates, got %v", phases)
		}
		if phases[0] != FetchYear {
			t.Errorf("expected the first update to be fetch_year, got %s", phases[0])
		}
	})

	t.Run("nil service returns ErrServiceUnavailable", func(t *testing.T) {
		engine := NewEnrollmentEngine(nil, nil)

		if _, err := engine.Fetch(ctx, nil, 2026, false); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestEnrollmentEngineFetchMulti(t *testing.T) {
	ctx := context.Background()

	t.Run("concatenates years in request order", func(t *testing.T) {
		engine, _ := newTestEngine(nil)

		result, err := engine.FetchMulti(ctx, nil, []int{2024, 2025}, false)
		if err != nil {
			t.Fatalf("failed to fetch: %v", err)
		}

		single := helpers.StatewideTable(2024)
		if result.Table.Len() != 2*single.Len() {
			t.Errorf("expected %d rows, got %d", 2*single.Len(), result.Table.Len())
		}
		if result.Table.Records[0].EndYear != 2024 {
			t.Errorf("expected 2024 rows first, got %d", result.Table.Records[0].EndYear)
		}
	})

	t.Run("empty years returns ErrEmptyYears", func(t *testing.T) {
		engine, _ := newTestEngine(nil)

		if _, err := engine.FetchMulti(ctx, nil, nil, false); !errors.Is(err, shared.ErrEmptyYears) {
			t.Errorf("expected ErrEmptyYears, got %v", err)
		}
	})

	t.Run("invalid year fails before any fetch", func(t *testing.T) {
		engine, provider := newTestEngine(nil)

		_, err := engine.FetchMulti(ctx, nil, []int{2024, 2099}, false)
		if !errors.Is(err, shared.ErrInvalidYear) {
			t.Errorf("expected ErrInvalidYear, got %v", err)
		}
		if len(provider.FetchCalls) != 0 {
			t.Errorf("expected no provider calls, got %v", provider.FetchCalls)
		}
	})

	t.Run("tracks provenance per year", func(t *testing.T) {
		cache := newMemoryCache()
		cache.tables[2024] = helpers.StatewideTable(2024)
		engine, _ := newTestEngine(cache)

		result, err := engine.FetchMulti(ctx, nil, []int{2024, 2025}, false)
		if err != nil {
			t.Fatalf("failed to fetch: %v", err)
		}

		if len(result.CachedYears) != 1 || result.CachedYears[0] != 2024 {
			t.Errorf("expected cached years [2024], got %v", result.CachedYears)
		}
		if len(result.FetchedYears) != 1 || result.FetchedYears[0] != 2025 {
			t.Errorf("expected fetched years [2025], got %v", result.FetchedYears)
		}
	})
}

func TestEnrollmentEngineCompare(t *testing.T) {
	ctx := context.Background()

	t.Run("reports a delta per district", func(t *testing.T) {
		engine, _ := newTestEngine(nil)

		result, err := engine.Compare(ctx, nil, 2024, 2026)
		if err != nil {
			t.Fatalf("failed to compare: %v", err)
		}

		districts := helpers.StatewideTable(2024).Districts()
		if len(result.Deltas) != len(districts) {
			t.Errorf("expected %d deltas, got %d", len(districts), len(result.Deltas))
		}
		if len(result.OnlyInA) != 0 || len(result.OnlyInB) != 0 {
			t.Errorf("expected full district overlap, got only_in_a=%v only_in_b=%v", result.OnlyInA, result.OnlyInB)
		}
		if result.TotalDelta <= 0 {
			t.Errorf("expected enrollment growth from 2024 to 2026, got delta %v", result.TotalDelta)
		}
		if result.TotalDelta != result.TotalAfter-result.TotalBefore {
			t.Error("expected total delta to equal after minus before")
		}
	})

	t.Run("orders deltas by absolute change", func(t *testing.T) {
		engine, _ := newTestEngine(nil)

		result, err := engine.Compare(ctx, nil, 2024, 2026)
		if err != nil {
			t.Fatalf("failed to compare: %v", err)
		}

		if result.Deltas[0].DistrictName != "Clark County" {
			t.Errorf("expected the largest district first, got %s", result.Deltas[0].DistrictName)
		}
	})

	t.Run("reports districts missing from one year", func(t *testing.T) {
		cache := newMemoryCache()
		cache.tables[2024] = helpers.StatewideTable(2024)
		cache.tables[2026] = helpers.SmallTable(2026)
		engine, _ := newTestEngine(cache)

		result, err := engine.Compare(ctx, nil, 2024, 2026)
		if err != nil {
			t.Fatalf("failed to compare: %v", err)
		}

		if len(result.Deltas) != 1 || result.Deltas[0].DistrictName != "Washoe County" {
			t.Errorf("expected a single Washoe County delta, got %v", result.Deltas)
		}
		if len(result.OnlyInA) != len(helpers.StatewideTable(2024).Districts())-1 {
			t.Errorf("expected the remaining districts in only_in_a, got %d", len(result.OnlyInA))
		}
		if len(result.OnlyInB) != 0 {
			t.Errorf("expected no extra districts, got %v", result.OnlyInB)
		}
	})

	t.Run("invalid year surfaces the fetch error", func(t *testing.T) {
		engine, _ := newTestEngine(nil)

		if _, err := engine.Compare(ctx, nil, 1800, 2026); !errors.Is(err, shared.ErrInvalidYear) {
			t.Errorf("expected ErrInvalidYear, got %v", err)
		}
	})
}
