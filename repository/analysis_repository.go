package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"musicify/model"
)

// AnalysisListRow is one joined row for the list view: analysis fields plus
// the originating track's display metadata.
type AnalysisListRow struct {
	ID               string         `json:"id"`
	OriginalFilename string         `json:"original_filename"`
	UploadedAt       time.Time      `json:"uploaded_at"`
	Summary          sql.NullString `json:"summary"`
	ChordsJSON       string         `json:"chords_json"`
	CreatedAt        time.Time      `json:"created_at"`
}

// AnalysisDetailRow is one joined row for the detail view, carrying the full
// track metadata needed to build the asset URL.
type AnalysisDetailRow struct {
	ID               string         `json:"id"`
	OriginalFilename string         `json:"original_filename"`
	StoredFilename   string         `json:"stored_filename"`
	Mimetype         string         `json:"mimetype"`
	Size             int64          `json:"size"`
	Summary          sql.NullString `json:"summary"`
	ChordsJSON       string         `json:"chords_json"`
	TabsJSON         string         `json:"tabs_json"`
	CreatedAt        time.Time      `json:"created_at"`
}

// AnalysisRepository defines the interface for analysis data operations.
// Analyses are immutable once written; there is no update or delete.
type AnalysisRepository interface {
	CreateAnalysis(ctx context.Context, analysis *model.Analysis) error
	ListAnalyses(ctx context.Context) ([]*AnalysisListRow, error)
	GetAnalysisByID(ctx context.Context, id string) (*AnalysisDetailRow, error)
}

// mysqlAnalysisRepository implements AnalysisRepository for MySQL.
type mysqlAnalysisRepository struct {
	db *sql.DB
}

// NewMySQLAnalysisRepository creates a new instance of mysqlAnalysisRepository
// over the given database handle.
func NewMySQLAnalysisRepository(db *sql.DB) AnalysisRepository {
	return &mysqlAnalysisRepository{db: db}
}

// CreateAnalysis adds a new analysis to the database. The referenced track
// row must already exist; the foreign key rejects anything else.
func (r *mysqlAnalysisRepository) CreateAnalysis(ctx context.Context, analysis *model.Analysis) error {
	query := `INSERT INTO analyses (id, track_id, chords_json, tabs_json, summary, created_at)
	           VALUES (?, ?, ?, ?, ?, ?)`
	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for CreateAnalysis: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, analysis.ID, analysis.TrackID, analysis.ChordsJSON,
		analysis.TabsJSON, analysis.Summary, analysis.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute CreateAnalysis: %w", err)
	}
	return nil
}

// ListAnalyses retrieves all analyses joined to their track metadata,
// ordered by analysis creation time, newest first.
func (r *mysqlAnalysisRepository) ListAnalyses(ctx context.Context) ([]*AnalysisListRow, error) {
	query := `SELECT a.id, t.original_filename, t.created_at AS uploaded_at, a.summary, a.chords_json, a.created_at
	           FROM analyses a
	           JOIN tracks t ON t.id = a.track_id
	           ORDER BY a.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	result := make([]*AnalysisListRow, 0)
	for rows.Next() {
		row := &AnalysisListRow{}
		err := rows.Scan(&row.ID, &row.OriginalFilename, &row.UploadedAt, &row.Summary, &row.ChordsJSON, &row.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis in ListAnalyses: %w", err)
		}
		result = append(result, row)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in ListAnalyses: %w", err)
	}

	return result, nil
}

// GetAnalysisByID retrieves one analysis with full track metadata. Returns
// (nil, nil) when no such analysis exists.
func (r *mysqlAnalysisRepository) GetAnalysisByID(ctx context.Context, id string) (*AnalysisDetailRow, error) {
	query := `SELECT a.id, t.original_filename, t.stored_filename, t.mimetype, t.size, a.summary, a.chords_json, a.tabs_json, a.created_at
	           FROM analyses a
	           JOIN tracks t ON t.id = a.track_id
	           WHERE a.id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	detail := &AnalysisDetailRow{}
	err := row.Scan(&detail.ID, &detail.OriginalFilename, &detail.StoredFilename, &detail.Mimetype,
		&detail.Size, &detail.Summary, &detail.ChordsJSON, &detail.TabsJSON, &detail.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // analysis not found
		}
		return nil, fmt.Errorf("failed to scan analysis by ID %s: %w", id, err)
	}
	return detail, nil
}
