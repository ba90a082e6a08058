package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/desertthunder/tunedash/internal/models"
	"github.com/desertthunder/tunedash/internal/shared"
)

// SnapshotRepository implements models.Repository[*models.Snapshot].
//
// The dashboard is stored as a JSON payload; time_range and top_genre are copied into
// columns for filtering and listing without decoding.
type SnapshotRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.Snapshot] = (*SnapshotRepository)(nil)

// NewSnapshotRepository creates a new SnapshotRepository with the given database connection
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

const snapshotColumns = "id, sequence, owner, payload, created_at, updated_at, deleted_at"

// Create inserts a new snapshot with a generated ID and sequence.
func (r *SnapshotRepository) Create(s *models.Snapshot) error {
	sequence, err := NextSequence(r.db, "snapshots")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	s.SetID(id)
	s.SetSequence(sequence)

	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	payload, err := encodeDashboard(s.Dashboard())
	if err != nil {
		return err
	}

	query := `
		INSERT INTO snapshots (id, sequence, owner, time_range, top_genre, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query,
		id,
		sequence,
		s.Owner(),
		string(s.TimeRange()),
		topGenre(s.Dashboard()),
		payload,
		s.CreatedAt(),
		s.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// SaveDashboard stores d as a new snapshot owned by owner.
func (r *SnapshotRepository) SaveDashboard(owner string, d *models.Dashboard) (*models.Snapshot, error) {
	s := models.NewSnapshot(0, owner, d)
	if err := r.Create(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Get retrieves a snapshot by ID, excluding soft-deleted snapshots.
func (r *SnapshotRepository) Get(id string) (*models.Snapshot, error) {
	query := "SELECT " + snapshotColumns + " FROM snapshots WHERE id = ? AND deleted_at IS NULL"
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetBySequence retrieves a snapshot by its sequence number.
func (r *SnapshotRepository) GetBySequence(sequence int) (*models.Snapshot, error) {
	query := "SELECT " + snapshotColumns + " FROM snapshots WHERE sequence = ? AND deleted_at IS NULL"
	return r.scanOne(r.db.QueryRow(query, sequence))
}

// Latest returns the most recent snapshot for r.
func (r *SnapshotRepository) Latest(tr models.TimeRange) (*models.Snapshot, error) {
	query := "SELECT " + snapshotColumns + ` FROM snapshots
		WHERE time_range = ? AND deleted_at IS NULL
		ORDER BY sequence DESC LIMIT 1`
	return r.scanOne(r.db.QueryRow(query, string(tr)))
}

// Update rewrites the owner and dashboard of an existing snapshot.
func (r *SnapshotRepository) Update(s *models.Snapshot) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	payload, err := encodeDashboard(s.Dashboard())
	if err != nil {
		return err
	}

	now := time.Now()
	s.SetUpdatedAt(now)

	query := `
		UPDATE snapshots
		SET owner = ?, time_range = ?, top_genre = ?, payload = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`
	result, err := r.db.Exec(query,
		s.Owner(),
		string(s.TimeRange()),
		topGenre(s.Dashboard()),
		payload,
		now,
		s.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update snapshot: %w", err)
	}
	return expectAffected(result, s.ID())
}

// Delete soft-deletes a snapshot by ID.
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
	return expectAffected(result, id)
}

// List retrieves snapshots newest first, excluding soft-deleted ones.
//
// Supported criteria: "time_range" (models.TimeRange or string), "owner" (string) and "limit" (int).
func (r *SnapshotRepository) List(criteria map[string]any) ([]*models.Snapshot, error) {
	query := "SELECT " + snapshotColumns + " FROM snapshots WHERE deleted_at IS NULL"
	args := []any{}

	switch tr := criteria["time_range"].(type) {
	case models.TimeRange:
		if tr != "" {
			query += " AND time_range = ?"
			args = append(args, string(tr))
		}
	case string:
		if tr != "" {
			query += " AND time_range = ?"
			args = append(args, tr)
		}
	}

	if owner, ok := criteria["owner"].(string); ok && owner != "" {
		query += " AND owner = ?"
		args = append(args, owner)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return snapshots, nil
}

// Prune soft-deletes all but the newest keep snapshots of each time range and returns how many it removed.
func (r *SnapshotRepository) Prune(keep int) (int64, error) {
	if keep < 0 {
		return 0, fmt.Errorf("%w: keep must not be negative", shared.ErrInvalidArgument)
	}

	query := `
		UPDATE snapshots
		SET deleted_at = ?
		WHERE deleted_at IS NULL AND id NOT IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY time_range ORDER BY sequence DESC) AS rn
				FROM snapshots
				WHERE deleted_at IS NULL
			) WHERE rn <= ?
		)
	`
	result, err := r.db.Exec(query, time.Now(), keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *SnapshotRepository) scanOne(row *sql.Row) (*models.Snapshot, error) {
	s, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrSnapshotNotFound
	}
	return s, err
}

// scanSnapshot scans one row of snapshotColumns into a [models.Snapshot].
func scanSnapshot(row scanner) (*models.Snapshot, error) {
	var (
		id        string
		sequence  int
		owner     string
		payload   string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(&id, &sequence, &owner, &payload, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	var d models.Dashboard
	if err := json.Unmarshal([]byte(payload), &d); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", id, err)
	}

	s := models.NewSnapshot(sequence, owner, &d)
	s.SetID(id)
	s.SetCreatedAt(createdAt)
	s.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		s.SetDeletedAt(&deletedAt.Time)
	}
	return s, nil
}

func encodeDashboard(d *models.Dashboard) (string, error) {
	data, err := shared.MarshalJSON(d, false)
	if err != nil {
		return "", fmt.Errorf("failed to encode dashboard: %w", err)
	}
	return string(data), nil
}

func topGenre(d *models.Dashboard) string {
	if g, ok := d.Analysis.TopGenre(); ok {
		return g.Genre
	}
	return ""
}

func expectAffected(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSnapshotNotFound, id)
	}
	return nil
}
