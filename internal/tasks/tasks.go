// package tasks implements cache-aware enrollment operations over the provider service.
//
// The core abstraction is Engine, which orchestrates fetches, year comparisons, and bulk exports.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"sort"

	"github.com/sagebrushdata/nvenr/internal/enrollment"
	"github.com/sagebrushdata/nvenr/internal/shared"
)

// FetchResult contains the table returned by a cache-aware fetch plus the
// provenance of each requested year.
type FetchResult struct {
	Table        *enrollment.Table // Combined wide table
	CachedYears  []int             // Years served from the local cache
	FetchedYears []int             // Years fetched from the provider
}

// DistrictDelta describes one district's enrollment change between two years.
type DistrictDelta struct {
	DistrictName string  `json:"district_name"`
	Before       float64 `json:"before"`
	After        float64 `json:"after"`
	Delta        float64 `json:"delta"`
}

// CompareResult contains district-level comparison details between two years.
type CompareResult struct {
	YearA       int             `json:"year_a"`
	YearB       int             `json:"year_b"`
	Deltas      []DistrictDelta `json:"deltas"`       // Districts present in both years, largest absolute delta first
	OnlyInA     []string        `json:"only_in_a"`    // Districts reported only in year A
	OnlyInB     []string        `json:"only_in_b"`    // Districts reported only in year B
	TotalBefore float64         `json:"total_before"` // Statewide total for year A
	TotalAfter  float64         `json:"total_after"`  // Statewide total for year B
	TotalDelta  float64         `json:"total_delta"`  // TotalAfter minus TotalBefore
}

// YearCache persists one snapshot per fetch and serves the newest one back.
//
// Implemented by repositories.YearCacheAdapter. A nil YearCache disables
// persistence.
type YearCache interface {
	GetYear(year int) (*enrollment.Table, bool, error)
	PutYear(year int, provider string, table *enrollment.Table) error
}

// Engine defines cache-aware operations over the enrollment service.
type Engine interface {
	// Fetch retrieves one year, serving the cache first unless refresh is set.
	Fetch(ctx context.Context, progress chan<- ProgressUpdate, year int, refresh bool) (*FetchResult, error)

	// FetchMulti retrieves several years and concatenates them in request order.
	FetchMulti(ctx context.Context, progress chan<- ProgressUpdate, years []int, refresh bool) (*FetchResult, error)

	// Compare joins district TOTAL rows of two years and reports per-district deltas.
	Compare(ctx context.Context, progress chan<- ProgressUpdate, yearA, yearB int) (*CompareResult, error)

	// BulkExport exports multiple years concurrently with rate limiting.
	BulkExport(ctx context.Context, progress chan<- ProgressUpdate, years []int, opts BulkExportOpts) (*BulkExportResult, error)
}

// EnrollmentEngine implements Engine over an enrollment service and an
// optional snapshot cache.
type EnrollmentEngine struct {
	service *enrollment.Service
	cache   YearCache
}

// NewEnrollmentEngine creates a new EnrollmentEngine. The cache may be nil.
func NewEnrollmentEngine(service *enrollment.Service, cache YearCache) *EnrollmentEngine {
	return &EnrollmentEngine{
		service: service,
		cache:   cache,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *EnrollmentEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// fetchYear resolves one year through the cache or the provider. Cache read
// and write failures degrade to a provider fetch rather than failing the
// operation.
func (e *EnrollmentEngine) fetchYear(ctx context.Context, progress chan<- ProgressUpdate, step, total, year int, refresh bool) (*enrollment.Table, bool, error) {
	if e.cache != nil && !refresh {
		if table, ok, err := e.cache.GetYear(year); err == nil && ok {
			e.sendProgress(progress, cacheHitUpdate(step, total, year, table))
			return table, true, nil
		}
	}

	e.sendProgress(progress, fetchYearUpdate(step, total, year))
	table, err := e.service.FetchEnr(ctx, year)
	if err != nil {
		return nil, false, err
	}

	if e.cache != nil {
		e.sendProgress(progress, cacheWriteUpdate(step, total, year))
		if err := e.cache.PutYear(year, e.service.ProviderName(), table); err != nil {
			return nil, false, fmt.Errorf("fetched %d but failed to cache snapshot: %w", year, err)
		}
	}

	return table, false, nil
}

// Fetch retrieves one year's table, cache first.
func (e *EnrollmentEngine) Fetch(ctx context.Context, progress chan<- ProgressUpdate, year int, refresh bool) (*FetchResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: enrollment service not initialized", shared.ErrServiceUnavailable)
	}

	table, cached, err := e.fetchYear(ctx, progress, 1, 1, year, refresh)
	if err != nil {
		return nil, err
	}

	result := &FetchResult{Table: table}
	if cached {
		result.CachedYears = []int{year}
	} else {
		result.FetchedYears = []int{year}
	}
	return result, nil
}

// FetchMulti retrieves several years and concatenates them in request order.
// Years are validated against provider bounds before any fetch starts.
func (e *EnrollmentEngine) FetchMulti(ctx context.Context, progress chan<- ProgressUpdate, years []int, refresh bool) (*FetchResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: enrollment service not initialized", shared.ErrServiceUnavailable)
	}
	if len(years) == 0 {
		return nil, shared.ErrEmptyYears
	}

	bounds, err := e.service.AvailableYears(ctx)
	if err != nil {
		return nil, err
	}
	for _, year := range years {
		if !bounds.Contains(year) {
			return nil, fmt.Errorf("%w: %d is not between %d and %d", shared.ErrInvalidYear, year, bounds.Min, bounds.Max)
		}
	}

	result := &FetchResult{Table: &enrollment.Table{}}
	for i, year := range years {
		table, cached, err := e.fetchYear(ctx, progress, i+1, len(years), year, refresh)
		if err != nil {
			return nil, err
		}
		result.Table = result.Table.Concat(table)
		if cached {
			result.CachedYears = append(result.CachedYears, year)
		} else {
			result.FetchedYears = append(result.FetchedYears, year)
		}
	}
	return result, nil
}

// Compare fetches two years and reports district-level enrollment deltas.
func (e *EnrollmentEngine) Compare(ctx context.Context, progress chan<- ProgressUpdate, yearA, yearB int) (*CompareResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: enrollment service not initialized", shared.ErrServiceUnavailable)
	}

	before, _, err := e.fetchYear(ctx, progress, 1, 2, yearA, false)
	if err != nil {
		return nil, err
	}
	after, _, err := e.fetchYear(ctx, progress, 2, 2, yearB, false)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, compareUpdate(1, 1, yearA, yearB))

	beforeTotals := districtTotalsByKey(before)
	afterTotals := districtTotalsByKey(after)

	result := &CompareResult{
		YearA:       yearA,
		YearB:       yearB,
		TotalBefore: before.TotalStudents(),
		TotalAfter:  after.TotalStudents(),
	}
	result.TotalDelta = result.TotalAfter - result.TotalBefore

	for key, b := range beforeTotals {
		a, found := afterTotals[key]
		if !found {
			result.OnlyInA = append(result.OnlyInA, b.name)
			continue
		}
		result.Deltas = append(result.Deltas, DistrictDelta{
			DistrictName: b.name,
			Before:       b.total,
			After:        a.total,
			Delta:        a.total - b.total,
		})
	}
	for key, a := range afterTotals {
		if _, found := beforeTotals[key]; !found {
			result.OnlyInB = append(result.OnlyInB, a.name)
		}
	}

	sort.Slice(result.Deltas, func(i, j int) bool {
		di, dj := result.Deltas[i].Delta, result.Deltas[j].Delta
		if di < 0 {
			di = -di
		}
		if dj < 0 {
			dj = -dj
		}
		if di != dj {
			return di > dj
		}
		return result.Deltas[i].DistrictName < result.Deltas[j].DistrictName
	})
	sort.Strings(result.OnlyInA)
	sort.Strings(result.OnlyInB)

	return result, nil
}

type districtTotal struct {
	name  string
	total float64
}

// districtTotalsByKey sums district TOTAL rows keyed by normalized
// organization key so casing and spacing differences between years still join.
func districtTotalsByKey(table *enrollment.Table) map[string]districtTotal {
	totals := make(map[string]districtTotal)
	for _, r := range table.Records {
		if !r.IsDistrict || r.GradeLevel != enrollment.GradeTotal {
			continue
		}
		key := r.OrgKey()
		entry := totals[key]
		if entry.name == "" {
			entry.name = r.DistrictName
		}
		entry.total += r.NStudents
		totals[key] = entry
	}
	return totals
}
