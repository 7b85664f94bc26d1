// Package models defines domain entities and persistence interfaces for the
// local enrollment cache.
//
// [Snapshot] is the one persistent entity: a record of a single provider
// fetch (which year, when, how many rows) whose wide rows live in the
// enrollment_records table keyed by snapshot id.
//
// All persistent entities implement the Model interface providing ID
// generation, timestamps, validation, and soft delete support. The
// Repository[T] interface defines standard CRUD operations for database
// access.
package models
