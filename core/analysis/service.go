package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"musicify/cache"
	"musicify/core/asset"
	"musicify/logger"
	"musicify/model"
	"musicify/repository"
	"musicify/storage"
)

// uploadsPathSegment is the public path under which stored files are served.
const uploadsPathSegment = "/uploads/"

// Analyzer is the capability the orchestrator needs from the analysis
// client. It always resolves; failures are absorbed into fallback outcomes.
type Analyzer interface {
	Analyze(ctx context.Context, filePath string, meta Metadata) Outcome
}

// Service sequences asset acquisition, analysis and persistence for the two
// entry flows, and projects stored rows for the read side. All collaborators
// are injected at startup.
type Service struct {
	tracks   repository.TrackRepository
	analyses repository.AnalysisRepository
	acquirer *asset.Acquirer
	analyzer Analyzer
	cache    *cache.AnalysisCache // optional; nil disables caching
	archive  storage.ArchiveStore // optional; nil disables mirroring
}

// NewService wires the orchestrator. cache and archive may be nil.
func NewService(
	tracks repository.TrackRepository,
	analyses repository.AnalysisRepository,
	acquirer *asset.Acquirer,
	analyzer Analyzer,
	analysisCache *cache.AnalysisCache,
	archive storage.ArchiveStore,
) *Service {
	return &Service{
		tracks:   tracks,
		analyses: analyses,
		acquirer: acquirer,
		analyzer: analyzer,
		cache:    analysisCache,
		archive:  archive,
	}
}

// Source tags a result with where its audio came from.
type Source struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// AnalysisResult is the response for both create flows.
type AnalysisResult struct {
	ID        string          `json:"id"`
	TrackID   string          `json:"trackId"`
	Summary   string          `json:"summary"`
	Chords    json.RawMessage `json:"chords"`
	Tabs      json.RawMessage `json:"tabs"`
	CreatedAt time.Time       `json:"createdAt"`
	FileName  string          `json:"fileName"`
	AudioURL  string          `json:"audioUrl"`
	Source    *Source         `json:"source,omitempty"`
}

// Preview is one list-view entry with the derived chord and roman-numeral
// previews.
type Preview struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	UploadedAt       time.Time `json:"uploaded_at"`
	Summary          string    `json:"summary"`
	ChordsPreview    []string  `json:"chords_preview"`
	RomanPreview     []string  `json:"roman_preview"`
	CreatedAt        time.Time `json:"created_at"`
}

// Detail is the single-record view with the full chord array and tablature.
type Detail struct {
	ID        string          `json:"id"`
	FileName  string          `json:"fileName"`
	Summary   string          `json:"summary"`
	Chords    json.RawMessage `json:"chords"`
	Tabs      json.RawMessage `json:"tabs"`
	CreatedAt time.Time       `json:"createdAt"`
	AudioURL  string          `json:"audioUrl"`
}

// UploadInput describes an already-staged multipart upload.
type UploadInput struct {
	StoredName   string
	OriginalName string
	Mimetype     string
	Size         int64
}

// AnalyzeUpload runs the upload flow: wrap the staged file, persist the
// track, analyze (with fallback), persist the analysis, assemble the
// response. The track row is written before the analyzer call; if a later
// step fails the track row remains as a documented dangling artifact.
func (s *Service) AnalyzeUpload(ctx context.Context, in UploadInput, baseURL string) (*AnalysisResult, error) {
	trackID := uuid.NewString()
	analysisID := uuid.NewString()
	now := time.Now().UTC()

	acquired, err := s.acquirer.FromUpload(trackID, in.StoredName, in.OriginalName, in.Mimetype, in.Size)
	if err != nil {
		return nil, err
	}

	return s.analyzeAcquired(ctx, acquired, analysisID, now, baseURL, "")
}

// AnalyzeYouTube runs the remote-fetch flow: download the audio, persist the
// track, analyze (with fallback), persist the analysis, assemble the
// response tagged with its source URL.
func (s *Service) AnalyzeYouTube(ctx context.Context, url, baseURL string) (*AnalysisResult, error) {
	trackID := uuid.NewString()
	analysisID := uuid.NewString()
	now := time.Now().UTC()

	acquired, err := s.acquirer.FromURL(ctx, trackID, url)
	if err != nil {
		return nil, err
	}

	return s.analyzeAcquired(ctx, acquired, analysisID, now, baseURL, url)
}

// analyzeAcquired is the shared tail of both flows. youtubeURL is empty for
// uploads.
func (s *Service) analyzeAcquired(ctx context.Context, acquired *asset.Asset, analysisID string, now time.Time, baseURL, youtubeURL string) (*AnalysisResult, error) {
	track := &model.Track{
		ID:               acquired.TrackID,
		OriginalFilename: acquired.OriginalName,
		StoredFilename:   acquired.StoredName,
		Mimetype:         acquired.Mimetype,
		Size:             acquired.Size,
		CreatedAt:        now,
	}
	if err := s.tracks.CreateTrack(ctx, track); err != nil {
		return nil, fmt.Errorf("failed to persist track: %w", err)
	}

	s.mirrorToArchive(ctx, acquired)

	outcome := s.analyzer.Analyze(ctx, acquired.Path, Metadata{
		OriginalName: acquired.OriginalName,
		Mimetype:     acquired.Mimetype,
		YoutubeURL:   youtubeURL,
	})
	if outcome.Fallback {
		logger.Warn("Serving fallback analysis",
			logger.String("trackId", acquired.TrackID),
			logger.String("reason", outcome.Reason),
		)
	}

	record := &model.Analysis{
		ID:         analysisID,
		TrackID:    acquired.TrackID,
		ChordsJSON: string(outcome.Result.Chords),
		TabsJSON:   string(outcome.Result.Tabs),
		Summary:    outcome.Result.Summary,
		CreatedAt:  now,
	}
	if err := s.analyses.CreateAnalysis(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist analysis: %w", err)
	}

	result := &AnalysisResult{
		ID:        analysisID,
		TrackID:   acquired.TrackID,
		Summary:   outcome.Result.Summary,
		Chords:    outcome.Result.Chords,
		Tabs:      outcome.Result.Tabs,
		CreatedAt: now,
		FileName:  acquired.OriginalName,
		AudioURL:  audioURL(baseURL, acquired.StoredName),
	}
	if youtubeURL != "" {
		result.Source = &Source{Type: "youtube", URL: youtubeURL}
	}
	return result, nil
}

// mirrorToArchive copies the acquired audio to object storage when an
// archive is configured. Failures are logged and never fail the request.
func (s *Service) mirrorToArchive(ctx context.Context, acquired *asset.Asset) {
	if s.archive == nil {
		return
	}
	objectName := "audio/" + acquired.StoredName
	if err := s.archive.UploadAudio(ctx, acquired.Path, objectName, acquired.Mimetype); err != nil {
		logger.Warn("Failed to mirror audio to archive storage",
			logger.String("trackId", acquired.TrackID),
			logger.String("objectName", objectName),
			logger.ErrorField(err),
		)
	}
}

// List projects stored analyses into list previews, newest first. A
// malformed chords document on one row degrades that row's previews to empty
// without affecting the rest.
func (s *Service) List(ctx context.Context) ([]*Preview, error) {
	rows, err := s.analyses.ListAnalyses(ctx)
	if err != nil {
		return nil, err
	}

	previews := make([]*Preview, 0, len(rows))
	for _, row := range rows {
		chords, numerals := ChordPreview(row.ChordsJSON)
		previews = append(previews, &Preview{
			ID:               row.ID,
			OriginalFilename: row.OriginalFilename,
			UploadedAt:       row.UploadedAt,
			Summary:          row.Summary.String,
			ChordsPreview:    chords,
			RomanPreview:     numerals,
			CreatedAt:        row.CreatedAt,
		})
	}
	return previews, nil
}

// Get returns the full single-record view, or (nil, nil) when the analysis
// does not exist. Rows are immutable, so a cached copy is always current.
func (s *Service) Get(ctx context.Context, id, baseURL string) (*Detail, error) {
	row, ok := s.cache.Get(ctx, id)
	if !ok {
		var err error
		row, err = s.analyses.GetAnalysisByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if row == nil {
			return nil, nil
		}
		s.cache.Set(ctx, id, row)
	}

	return &Detail{
		ID:        row.ID,
		FileName:  row.OriginalFilename,
		Summary:   row.Summary.String,
		Chords:    json.RawMessage(row.ChordsJSON),
		Tabs:      json.RawMessage(row.TabsJSON),
		CreatedAt: row.CreatedAt,
		AudioURL:  audioURL(baseURL, row.StoredFilename),
	}, nil
}

func audioURL(baseURL, storedName string) string {
	return baseURL + uploadsPathSegment + storedName
}
