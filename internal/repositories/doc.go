// Package repositories provides the persistence layer for the local
// enrollment cache.
//
// [SnapshotRepository] implements models.Repository[*models.Snapshot] over
// SQLite, handling CRUD with soft deletes and sequence generation, plus bulk
// storage of each snapshot's wide enrollment rows.
//
// [YearCacheAdapter] wraps the repository with the year-keyed lookup the CLI
// uses: fetch a year once, replay it from disk afterwards.
package repositories
