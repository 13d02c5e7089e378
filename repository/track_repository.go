package repository

import (
	"context"
	"database/sql"
	"fmt"

	"musicify/model"
)

// TrackRepository defines the interface for track data operations. Tracks
// are insert-only in this service; deletion is an administrative action
// outside the API.
type TrackRepository interface {
	CreateTrack(ctx context.Context, track *model.Track) error
}

// mysqlTrackRepository implements TrackRepository for MySQL.
type mysqlTrackRepository struct {
	db *sql.DB
}

// NewMySQLTrackRepository creates a new instance of mysqlTrackRepository
// over the given database handle.
func NewMySQLTrackRepository(db *sql.DB) TrackRepository {
	return &mysqlTrackRepository{db: db}
}

// CreateTrack adds a new track to the database.
func (r *mysqlTrackRepository) CreateTrack(ctx context.Context, track *model.Track) error {
	query := `INSERT INTO tracks (id, original_filename, stored_filename, mimetype, size, duration_seconds, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for CreateTrack: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, track.ID, track.OriginalFilename, track.StoredFilename,
		track.Mimetype, track.Size, track.DurationSeconds, track.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute CreateTrack: %w", err)
	}
	return nil
}
