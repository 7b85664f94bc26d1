package models

import (
	"fmt"
	"time"

	"github.com/sagebrushdata/nvenr/internal/shared"
)

// Snapshot records one provider fetch cached locally: the school year, the
// provider that served it, row count, and when it was fetched.
type Snapshot struct {
	id        string
	sequence  int
	endYear   int
	provider  string
	rowCount  int
	fetchedAt time.Time
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewSnapshot creates a Snapshot for a freshly fetched year table.
func NewSnapshot(endYear int, provider string, rowCount int) *Snapshot {
	now := time.Now()
	return &Snapshot{
		endYear:   endYear,
		provider:  provider,
		rowCount:  rowCount,
		fetchedAt: now,
		createdAt: now,
		updatedAt: now,
	}
}

// RestoreSnapshot rebuilds a Snapshot from stored columns.
func RestoreSnapshot(id string, sequence, endYear int, provider string, rowCount int, fetchedAt, createdAt, updatedAt time.Time, deletedAt *time.Time) *Snapshot {
	return &Snapshot{
		id:        id,
		sequence:  sequence,
		endYear:   endYear,
		provider:  provider,
		rowCount:  rowCount,
		fetchedAt: fetchedAt,
		createdAt: createdAt,
		updatedAt: updatedAt,
		deletedAt: deletedAt,
	}
}

func (s *Snapshot) ID() string           { return s.id }
func (s *Snapshot) Sequence() int        { return s.sequence }
func (s *Snapshot) EndYear() int         { return s.endYear }
func (s *Snapshot) Provider() string     { return s.provider }
func (s *Snapshot) RowCount() int        { return s.rowCount }
func (s *Snapshot) FetchedAt() time.Time { return s.fetchedAt }
func (s *Snapshot) CreatedAt() time.Time { return s.createdAt }
func (s *Snapshot) UpdatedAt() time.Time { return s.updatedAt }

func (s *Snapshot) SetID(id string)           { s.id = id }
func (s *Snapshot) SetSequence(seq int)       { s.sequence = seq }
func (s *Snapshot) SetRowCount(n int)         { s.rowCount = n }
func (s *Snapshot) SetUpdatedAt(t time.Time)  { s.updatedAt = t }
func (s *Snapshot) SetDeletedAt(t *time.Time) { s.deletedAt = t }
func (s *Snapshot) DeletedAt() *time.Time     { return s.deletedAt }

// Validate checks the snapshot's data before persistence.
func (s *Snapshot) Validate() error {
	if s.id == "" {
		return fmt.Errorf("%w: snapshot id", shared.ErrInvalidInput)
	}
	if s.endYear <= 0 {
		return fmt.Errorf("%w: snapshot end year", shared.ErrInvalidInput)
	}
	if s.provider == "" {
		return fmt.Errorf("%w: snapshot provider", shared.ErrInvalidInput)
	}
	if s.rowCount < 0 {
		return fmt.Errorf("%w: snapshot row count", shared.ErrInvalidInput)
	}
	return nil
}
