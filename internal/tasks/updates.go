package tasks

import (
	"fmt"

	"github.com/sagebrushdata/nvenr/internal/enrollment"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchYear Phase = iota
	CacheRead
	CacheWrite
	CompareYears
	ExportYear
)

func (p Phase) String() string {
	switch p {
	case FetchYear:
		return "fetch_year"
	case CacheRead:
		return "cache_read"
	case CacheWrite:
		return "cache_write"
	case CompareYears:
		return "compare_years"
	case ExportYear:
		return "export_year"
	default:
		return ""
	}
}

func fetchYearUpdate(step, total, year int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchYear,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching enrollment for %d...", year),
	}
}

func cacheHitUpdate(step, total, year int, table *enrollment.Table) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CacheRead,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Loaded %d from cache (%d rows)", year, table.Len()),
		Data:    table,
	}
}

func cacheWriteUpdate(step, total, year int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CacheWrite,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Caching snapshot for %d...", year),
	}
}

func compareUpdate(step, total, yearA, yearB int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CompareYears,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Comparing %d against %d...", yearA, yearB),
	}
}

func exportingYearUpdate(step, total, year int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportYear,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting %d...", step, total, year),
	}
}

func exportCompletedUpdate(step, total, year, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportYear,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %d (%d files)", step, total, year, filesCount),
	}
}

func exportFailedUpdate(step, total, year int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportYear,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %d: %v", step, total, year, err),
	}
}
