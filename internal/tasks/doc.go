// Package tasks orchestrates long-running enrollment operations with real-time progress reporting.
//
// # Core Operations
//
// The [Engine] interface defines three operations:
//
//  1. [Engine.Fetch] : Cache-aware single year fetch
//     - Serves the newest cached snapshot when one exists
//     - Falls back to the provider and stores the result
//     - Returns the wide table plus cache provenance
//
//  2. [Engine.Compare] : District-level comparison of two school years
//     - Fetches both years (cache-aware)
//     - Joins district TOTAL rows on normalized organization keys
//     - Reports per-district deltas plus districts present in only one year
//
//  3. [Engine.BulkExport] : Concurrent multi-year export
//     - Worker pool with a shared rate limiter on provider fetches
//     - Writes one export per year in the configured format
//     - Generates a manifest file summarizing the run
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Caching
//
// The optional [YearCache] interface enables snapshot persistence during fetches.
// A nil cache disables persistence without changing fetch semantics.
//
// # Implementation
//
// [EnrollmentEngine] implements [Engine] with dependencies on:
//   - [enrollment.Service] : validated provider access
//   - [YearCache] : optional persistence layer (repositories.YearCacheAdapter)
package tasks
