package asset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"musicify/logger"
)

var (
	// ErrInvalidInput means no file payload or source URL was supplied.
	ErrInvalidInput = errors.New("no audio file supplied")
	// ErrDownloadFailed means the external downloader errored or timed out.
	ErrDownloadFailed = errors.New("audio download failed")
	// ErrAssetNotFound means the downloader reported success but no file with
	// the expected name prefix appeared in the storage directory.
	ErrAssetNotFound = errors.New("downloaded audio file not found")
)

// defaultRemoteTitle is used when the title probe fails; the download itself
// is unaffected.
const defaultRemoteTitle = "YouTube audio"

// remoteMimetype is assigned to remote-fetched assets; the container format
// is chosen by the downloader and not introspected here.
const remoteMimetype = "audio/mpeg"

// Asset is a playable local audio file plus its descriptive metadata,
// regardless of how it was obtained.
type Asset struct {
	TrackID      string
	Path         string // absolute or working-dir-relative path to the stored file
	StoredName   string // file name inside the storage directory
	OriginalName string // client-supplied name or fetched title
	Mimetype     string
	Size         int64
}

// Acquirer obtains local audio files from the two supported sources: an
// already-staged upload, or a remote URL fetched through a MediaFetcher.
type Acquirer struct {
	fetcher MediaFetcher
	dir     string
}

// NewAcquirer creates an Acquirer storing files under dir.
func NewAcquirer(fetcher MediaFetcher, dir string) *Acquirer {
	return &Acquirer{fetcher: fetcher, dir: dir}
}

// Dir returns the storage directory.
func (a *Acquirer) Dir() string { return a.dir }

// FromUpload wraps an already-staged upload into an Asset. Codec validity is
// not checked here; that is the analyzer's concern.
func (a *Acquirer) FromUpload(trackID, storedName, originalName, mimetype string, size int64) (*Asset, error) {
	if strings.TrimSpace(storedName) == "" {
		return nil, ErrInvalidInput
	}
	return &Asset{
		TrackID:      trackID,
		Path:         filepath.Join(a.dir, storedName),
		StoredName:   storedName,
		OriginalName: originalName,
		Mimetype:     mimetype,
		Size:         size,
	}, nil
}

// FromURL downloads the best available audio for url into the storage
// directory and resolves the concrete file the downloader produced. The
// output name is templated on trackID with the extension left to the
// downloader, so the file is discovered afterwards by its name prefix.
func (a *Acquirer) FromURL(ctx context.Context, trackID, url string) (*Asset, error) {
	if strings.TrimSpace(url) == "" {
		return nil, ErrInvalidInput
	}

	// Concurrent acquirers share this directory; creation races are benign.
	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", a.dir, err)
	}

	// Title probe is best-effort; a failure only costs the display name.
	title, err := a.fetcher.FetchTitle(ctx, url)
	if err != nil || strings.TrimSpace(title) == "" {
		if err != nil {
			logger.Warn("Title fetch failed, falling back to default title",
				logger.String("url", url),
				logger.ErrorField(err),
			)
		}
		title = defaultRemoteTitle
	}

	outputTemplate := filepath.Join(a.dir, trackID+".%(ext)s")
	if err := a.fetcher.FetchBestAudio(ctx, url, outputTemplate); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}

	storedName, err := a.findByPrefix(trackID)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(a.dir, storedName)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat downloaded file %s: %w", path, err)
	}

	return &Asset{
		TrackID:      trackID,
		Path:         path,
		StoredName:   storedName,
		OriginalName: title,
		Mimetype:     remoteMimetype,
		Size:         info.Size(),
	}, nil
}

// findByPrefix scans the storage directory for the first entry whose name
// starts with trackID. The downloader contract is that a successful fetch
// leaves exactly one such file.
func (a *Acquirer) findByPrefix(trackID string) (string, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return "", fmt.Errorf("failed to read storage directory %s: %w", a.dir, err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), trackID) {
			return entry.Name(), nil
		}
	}
	return "", fmt.Errorf("%w: no file with prefix %s in %s", ErrAssetNotFound, trackID, a.dir)
}
