package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sagebrushdata/nvenr/internal/enrollment"
	"github.com/sagebrushdata/nvenr/internal/models"
	"github.com/sagebrushdata/nvenr/internal/shared"
)

// SnapshotRepository implements models.Repository[*models.Snapshot] for the
// local enrollment cache.
//
// Handles snapshot CRUD with soft delete support plus bulk storage and
// retrieval of each snapshot's wide rows.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new SnapshotRepository with the given database connection
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Create inserts a new snapshot into the database with generated ID and sequence
func (r *SnapshotRepository) Create(snapshot *models.Snapshot) error {
	sequence, err := NextSequence(r.db, "snapshots")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	snapshot.SetID(id)
	snapshot.SetSequence(sequence)

	if err := snapshot.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO snapshots (id, sequence, end_year, provider, row_count, fetched_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		snapshot.EndYear(),
		snapshot.Provider(),
		snapshot.RowCount(),
		snapshot.FetchedAt(),
		snapshot.CreatedAt(),
		snapshot.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return nil
}

// Get retrieves a snapshot by ID, excluding soft-deleted snapshots
func (r *SnapshotRepository) Get(id string) (*models.Snapshot, error) {
	query := `
		SELECT id, sequence, end_year, provider, row_count, fetched_at, created_at, updated_at, deleted_at
		FROM snapshots
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetLatestByYear retrieves the most recent live snapshot for a school year.
func (r *SnapshotRepository) GetLatestByYear(endYear int) (*models.Snapshot, error) {
	query := `
		SELECT id, sequence, end_year, provider, row_count, fetched_at, created_at, updated_at, deleted_at
		FROM snapshots
		WHERE end_year = ? AND deleted_at IS NULL
		ORDER BY fetched_at DESC
		LIMIT 1
	`

	return r.scanOne(r.db.QueryRow(query, endYear))
}

// Update modifies an existing snapshot in the database
func (r *SnapshotRepository) Update(snapshot *models.Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	snapshot.SetUpdatedAt(now)

	query := `
		UPDATE snapshots
		SET row_count = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, snapshot.RowCount(), now, snapshot.ID())
	if err != nil {
		return fmt.Errorf("failed to update snapshot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSnapshotNotFound, snapshot.ID())
	}

	return nil
}

// Delete soft-deletes a snapshot by ID
func (r *SnapshotRepository) Delete(id string) error {
	query := `
		UPDATE snapshots
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSnapshotNotFound, id)
	}

	return nil
}

// List retrieves live snapshots matching the given criteria.
//
// Supported criteria: "end_year" (int), "provider" (string).
func (r *SnapshotRepository) List(criteria map[string]any) ([]*models.Snapshot, error) {
	query := `
		SELECT id, sequence, end_year, provider, row_count, fetched_at, created_at, updated_at, deleted_at
		FROM snapshots
		WHERE deleted_at IS NULL
	`
	var args []any

	if endYear, ok := criteria["end_year"]; ok {
		query += " AND end_year = ?"
		args = append(args, endYear)
	}
	if provider, ok := criteria["provider"]; ok {
		query += " AND provider = ?"
		args = append(args, provider)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.Snapshot
	for rows.Next() {
		snapshot, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}

	return snapshots, rows.Err()
}

// InsertRecords bulk-inserts a snapshot's wide rows in one transaction.
func (r *SnapshotRepository) InsertRecords(snapshotID string, records []enrollment.Record) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO enrollment_records (
			snapshot_id, end_year, district_id, district_name, school_id, school_name,
			is_district, grade_level, n_students, male, female, american_indian, asian,
			black, hispanic, pacific_islander, white, two_or_more, iep, ell, frl
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		_, err := stmt.Exec(
			snapshotID, rec.EndYear, rec.DistrictID, rec.DistrictName, rec.SchoolID, rec.SchoolName,
			rec.IsDistrict, rec.GradeLevel, rec.NStudents, rec.Male, rec.Female, rec.AmericanIndian, rec.Asian,
			rec.Black, rec.Hispanic, rec.PacificIslander, rec.White, rec.TwoOrMore, rec.IEP, rec.ELL, rec.FRL,
		)
		if err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}

	return tx.Commit()
}

// RecordsBySnapshot loads a snapshot's wide rows in insertion order.
func (r *SnapshotRepository) RecordsBySnapshot(snapshotID string) ([]enrollment.Record, error) {
	query := `
		SELECT end_year, district_id, district_name, school_id, school_name, is_district,
			grade_level, n_students, male, female, american_indian, asian, black, hispanic,
			pacific_islander, white, two_or_more, iep, ell, frl
		FROM enrollment_records
		WHERE snapshot_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.Query(query, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []enrollment.Record
	for rows.Next() {
		var rec enrollment.Record
		err := rows.Scan(
			&rec.EndYear, &rec.DistrictID, &rec.DistrictName, &rec.SchoolID, &rec.SchoolName, &rec.IsDistrict,
			&rec.GradeLevel, &rec.NStudents, &rec.Male, &rec.Female, &rec.AmericanIndian, &rec.Asian, &rec.Black, &rec.Hispanic,
			&rec.PacificIslander, &rec.White, &rec.TwoOrMore, &rec.IEP, &rec.ELL, &rec.FRL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// scanOne scans a single snapshot row, mapping sql.ErrNoRows to a sentinel.
func (r *SnapshotRepository) scanOne(row *sql.Row) (*models.Snapshot, error) {
	var (
		id, provider                  string
		sequence, endYear, rowCount   int
		fetchedAt, createdAt, updated time.Time
		deletedAt                     sql.NullTime
	)

	err := row.Scan(&id, &sequence, &endYear, &provider, &rowCount, &fetchedAt, &createdAt, &updated, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w", shared.ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	return restoreFromColumns(id, sequence, endYear, provider, rowCount, fetchedAt, createdAt, updated, deletedAt), nil
}

// scanRow scans a snapshot from a multi-row result set.
func (r *SnapshotRepository) scanRow(rows *sql.Rows) (*models.Snapshot, error) {
	var (
		id, provider                  string
		sequence, endYear, rowCount   int
		fetchedAt, createdAt, updated time.Time
		deletedAt                     sql.NullTime
	)

	err := rows.Scan(&id, &sequence, &endYear, &provider, &rowCount, &fetchedAt, &createdAt, &updated, &deletedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	return restoreFromColumns(id, sequence, endYear, provider, rowCount, fetchedAt, createdAt, updated, deletedAt), nil
}

func restoreFromColumns(id string, sequence, endYear int, provider string, rowCount int, fetchedAt, createdAt, updatedAt time.Time, deletedAt sql.NullTime) *models.Snapshot {
	var deleted *time.Time
	if deletedAt.Valid {
		deleted = &deletedAt.Time
	}
	return models.RestoreSnapshot(id, sequence, endYear, provider, rowCount, fetchedAt, createdAt, updatedAt, deleted)
}
