package analysis_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musicify/core/analysis"
	"musicify/core/asset"
	"musicify/model"
	"musicify/repository"
)

type memTrackRepo struct {
	tracks    []*model.Track
	createErr error
	order     *[]string
}

func (r *memTrackRepo) CreateTrack(ctx context.Context, track *model.Track) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.tracks = append(r.tracks, track)
	if r.order != nil {
		*r.order = append(*r.order, "track:"+track.ID)
	}
	return nil
}

type memAnalysisRepo struct {
	analyses  []*model.Analysis
	createErr error
	listRows  []*repository.AnalysisListRow
	details   map[string]*repository.AnalysisDetailRow
	order     *[]string
	getCalls  int
}

func (r *memAnalysisRepo) CreateAnalysis(ctx context.Context, a *model.Analysis) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.analyses = append(r.analyses, a)
	if r.order != nil {
		*r.order = append(*r.order, "analysis:"+a.TrackID)
	}
	return nil
}

func (r *memAnalysisRepo) ListAnalyses(ctx context.Context) ([]*repository.AnalysisListRow, error) {
	return r.listRows, nil
}

func (r *memAnalysisRepo) GetAnalysisByID(ctx context.Context, id string) (*repository.AnalysisDetailRow, error) {
	r.getCalls++
	return r.details[id], nil
}

type staticAnalyzer struct {
	outcome analysis.Outcome
}

func (a *staticAnalyzer) Analyze(ctx context.Context, filePath string, meta analysis.Metadata) analysis.Outcome {
	return a.outcome
}

type serviceFetcher struct {
	fail    bool
	onFetch func(outputTemplate string)
}

func (f *serviceFetcher) FetchTitle(ctx context.Context, url string) (string, error) {
	return "Fetched Title", nil
}

func (f *serviceFetcher) FetchBestAudio(ctx context.Context, url, outputTemplate string) error {
	if f.fail {
		return errors.New("exit status 1")
	}
	if f.onFetch != nil {
		f.onFetch(outputTemplate)
	}
	return nil
}

func liveOutcome() analysis.Outcome {
	return analysis.Outcome{
		Result: analysis.Result{
			Summary: "Analyzed. 93 BPM.",
			Chords:  json.RawMessage(`[{"time":0,"duration":2,"chord":"Am","section":"Verse"}]`),
			Tabs:    json.RawMessage(`{"tuning":"E A D G B E","allStrings":["","","","","",""],"singleStringOptions":[]}`),
		},
	}
}

func newTestService(tracks *memTrackRepo, analyses *memAnalysisRepo, fetcher asset.MediaFetcher, dir string, analyzer analysis.Analyzer) *analysis.Service {
	return analysis.NewService(tracks, analyses, asset.NewAcquirer(fetcher, dir), analyzer, nil, nil)
}

func TestAnalyzeUploadPersistsTrackThenAnalysis(t *testing.T) {
	var order []string
	tracks := &memTrackRepo{order: &order}
	analyses := &memAnalysisRepo{order: &order}
	svc := newTestService(tracks, analyses, &serviceFetcher{}, t.TempDir(), &staticAnalyzer{outcome: liveOutcome()})

	result, err := svc.AnalyzeUpload(context.Background(), analysis.UploadInput{
		StoredName:   "171234-000000042.mp3",
		OriginalName: "song.mp3",
		Mimetype:     "audio/mpeg",
		Size:         1234,
	}, "http://localhost:5000")
	require.NoError(t, err)

	require.Len(t, tracks.tracks, 1)
	require.Len(t, analyses.analyses, 1)
	track := tracks.tracks[0]
	record := analyses.analyses[0]

	// The analysis row always follows its track row.
	require.Len(t, order, 2)
	assert.Equal(t, "track:"+track.ID, order[0])
	assert.Equal(t, "analysis:"+track.ID, order[1])

	assert.Equal(t, track.ID, record.TrackID)
	assert.Equal(t, track.CreatedAt, record.CreatedAt, "one shared timestamp per request")
	assert.Nil(t, track.DurationSeconds, "duration is not computed here")

	assert.Equal(t, record.ID, result.ID)
	assert.Equal(t, track.ID, result.TrackID)
	assert.Equal(t, "song.mp3", result.FileName)
	assert.Equal(t, "http://localhost:5000/uploads/171234-000000042.mp3", result.AudioURL)
	assert.Nil(t, result.Source)
}

func TestAnalyzeUploadMissingFile(t *testing.T) {
	svc := newTestService(&memTrackRepo{}, &memAnalysisRepo{}, &serviceFetcher{}, t.TempDir(), &staticAnalyzer{outcome: liveOutcome()})

	_, err := svc.AnalyzeUpload(context.Background(), analysis.UploadInput{}, "http://localhost:5000")
	assert.ErrorIs(t, err, asset.ErrInvalidInput)
}

func TestAnalyzeUploadAnalysisPersistenceFailureLeavesOrphanTrack(t *testing.T) {
	tracks := &memTrackRepo{}
	analyses := &memAnalysisRepo{createErr: errors.New("disk full")}
	svc := newTestService(tracks, analyses, &serviceFetcher{}, t.TempDir(), &staticAnalyzer{outcome: liveOutcome()})

	_, err := svc.AnalyzeUpload(context.Background(), analysis.UploadInput{
		StoredName: "a.mp3", OriginalName: "a.mp3", Mimetype: "audio/mpeg", Size: 1,
	}, "http://localhost:5000")
	require.Error(t, err)

	// Documented non-atomic behavior: the track row stays, no analysis row.
	assert.Len(t, tracks.tracks, 1)
	assert.Empty(t, analyses.analyses)
}

func TestAnalyzeYouTubeFlow(t *testing.T) {
	dir := t.TempDir()
	fetcher := &serviceFetcher{
		onFetch: func(outputTemplate string) {
			name := filepath.Base(outputTemplate)
			name = strings.TrimSuffix(name, ".%(ext)s") + ".webm"
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("audio"), 0644))
		},
	}
	tracks := &memTrackRepo{}
	analyses := &memAnalysisRepo{}
	svc := newTestService(tracks, analyses, fetcher, dir, &staticAnalyzer{outcome: liveOutcome()})

	result, err := svc.AnalyzeYouTube(context.Background(), "https://youtu.be/abc123", "http://localhost:5000")
	require.NoError(t, err)

	require.Len(t, tracks.tracks, 1)
	track := tracks.tracks[0]
	assert.Equal(t, "Fetched Title", track.OriginalFilename)
	assert.Equal(t, track.ID+".webm", track.StoredFilename)
	assert.Equal(t, "audio/mpeg", track.Mimetype)
	assert.Equal(t, int64(len("audio")), track.Size)

	require.NotNil(t, result.Source)
	assert.Equal(t, "youtube", result.Source.Type)
	assert.Equal(t, "https://youtu.be/abc123", result.Source.URL)
	assert.True(t, strings.HasSuffix(result.AudioURL, "/uploads/"+track.StoredFilename))
}

func TestAnalyzeYouTubeDownloadFailurePersistsNothing(t *testing.T) {
	tracks := &memTrackRepo{}
	analyses := &memAnalysisRepo{}
	svc := newTestService(tracks, analyses, &serviceFetcher{fail: true}, t.TempDir(), &staticAnalyzer{outcome: liveOutcome()})

	_, err := svc.AnalyzeYouTube(context.Background(), "https://youtu.be/abc123", "http://localhost:5000")
	require.Error(t, err)
	assert.ErrorIs(t, err, asset.ErrDownloadFailed)

	assert.Empty(t, tracks.tracks)
	assert.Empty(t, analyses.analyses)
}

func TestListIsolatesMalformedRows(t *testing.T) {
	now := time.Now().UTC()
	analyses := &memAnalysisRepo{
		listRows: []*repository.AnalysisListRow{
			{
				ID:               "a2",
				OriginalFilename: "two.mp3",
				Summary:          sql.NullString{String: "ok", Valid: true},
				ChordsJSON:       `[{"progression":["Cmaj7","G7"]}]`,
				CreatedAt:        now,
			},
			{
				ID:               "a1",
				OriginalFilename: "one.mp3",
				ChordsJSON:       `{"broken`,
				CreatedAt:        now.Add(-time.Hour),
			},
		},
	}
	svc := newTestService(&memTrackRepo{}, analyses, &serviceFetcher{}, t.TempDir(), &staticAnalyzer{outcome: liveOutcome()})

	previews, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, previews, 2)

	assert.Equal(t, "a2", previews[0].ID)
	assert.Equal(t, []string{"Cmaj7", "G7"}, previews[0].ChordsPreview)
	assert.Equal(t, []string{"I", "V"}, previews[0].RomanPreview)

	// The malformed row still appears, with empty previews.
	assert.Equal(t, "a1", previews[1].ID)
	assert.Empty(t, previews[1].ChordsPreview)
	assert.Empty(t, previews[1].RomanPreview)
}

func TestGetAnalysis(t *testing.T) {
	now := time.Now().UTC()
	analyses := &memAnalysisRepo{
		details: map[string]*repository.AnalysisDetailRow{
			"a1": {
				ID:               "a1",
				OriginalFilename: "song.mp3",
				StoredFilename:   "stored.mp3",
				Mimetype:         "audio/mpeg",
				Size:             9,
				Summary:          sql.NullString{String: "nice", Valid: true},
				ChordsJSON:       `[{"time":0,"duration":2,"chord":"Am","section":"Verse"}]`,
				TabsJSON:         `{"tuning":"E A D G B E","allStrings":["","","","","",""],"singleStringOptions":[]}`,
				CreatedAt:        now,
			},
		},
	}
	svc := newTestService(&memTrackRepo{}, analyses, &serviceFetcher{}, t.TempDir(), &staticAnalyzer{outcome: liveOutcome()})

	detail, err := svc.Get(context.Background(), "a1", "https://music.example.com")
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, "song.mp3", detail.FileName)
	assert.Equal(t, "https://music.example.com/uploads/stored.mp3", detail.AudioURL)

	// Stored analyses are immutable: a second read is byte-identical.
	again, err := svc.Get(context.Background(), "a1", "https://music.example.com")
	require.NoError(t, err)
	assert.Equal(t, string(detail.Chords), string(again.Chords))
	assert.Equal(t, string(detail.Tabs), string(again.Tabs))
}

func TestGetAnalysisNotFound(t *testing.T) {
	svc := newTestService(&memTrackRepo{}, &memAnalysisRepo{}, &serviceFetcher{}, t.TempDir(), &staticAnalyzer{outcome: liveOutcome()})

	detail, err := svc.Get(context.Background(), "missing", "http://localhost:5000")
	require.NoError(t, err)
	assert.Nil(t, detail)
}
