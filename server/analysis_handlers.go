package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"musicify/config"
	"musicify/core/analysis"
	"musicify/core/asset"
	"musicify/logger"
)

// maxUploadBytes caps direct audio uploads.
const maxUploadBytes = 50 << 20 // 50MB

// APIHandler handles all analysis API requests.
type APIHandler struct {
	svc *analysis.Service
	cfg *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(svc *analysis.Service, cfg *config.Config) *APIHandler {
	return &APIHandler{svc: svc, cfg: cfg}
}

// resolveBaseURL picks the base for derived asset URLs: the configured
// override when set, otherwise the inbound request's scheme and host.
func (h *APIHandler) resolveBaseURL(r *http.Request) string {
	if h.cfg.PublicBaseURL != "" {
		return strings.TrimRight(h.cfg.PublicBaseURL, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

// stagedFilename builds the stored name for a direct upload: a unique
// timestamp-random prefix with the original extension preserved.
func stagedFilename(originalName string) string {
	ext := filepath.Ext(originalName)
	return fmt.Sprintf("%d-%09d%s", time.Now().UnixMilli(), rand.Intn(1_000_000_000), ext)
}

// UploadAnalyzeHandler handles POST /api/audio/analyze. It stages the
// multipart "file" payload under the upload directory and runs the upload
// flow. Missing payloads are client errors; all other failures collapse to
// one opaque failed-request response.
func (h *APIHandler) UploadAnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondError(w, http.StatusBadRequest, "No audio file uploaded", err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No audio file uploaded", "")
		return
	}
	defer file.Close()

	storedName, size, err := h.stageUpload(file, header.Filename)
	if err != nil {
		logger.Error("Failed to stage uploaded file", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to analyze audio", err.Error())
		return
	}

	result, err := h.svc.AnalyzeUpload(r.Context(), analysis.UploadInput{
		StoredName:   storedName,
		OriginalName: header.Filename,
		Mimetype:     header.Header.Get("Content-Type"),
		Size:         size,
	}, h.resolveBaseURL(r))
	if err != nil {
		if errors.Is(err, asset.ErrInvalidInput) {
			respondError(w, http.StatusBadRequest, "No audio file uploaded", "")
			return
		}
		logger.Error("Error analyzing audio", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to analyze audio", err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// stageUpload writes the multipart payload into the upload directory and
// returns the stored name and byte count.
func (h *APIHandler) stageUpload(file io.Reader, originalName string) (string, int64, error) {
	if err := os.MkdirAll(h.cfg.UploadDir, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create upload directory: %w", err)
	}

	storedName := stagedFilename(originalName)
	path := filepath.Join(h.cfg.UploadDir, storedName)

	dst, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create staged file: %w", err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, file)
	if err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("failed to write staged file: %w", err)
	}
	return storedName, size, nil
}

type youtubeRequest struct {
	URL string `json:"url"`
}

// YoutubeAnalyzeHandler handles POST /api/audio/analyze-youtube.
func (h *APIHandler) YoutubeAnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	var req youtubeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		respondError(w, http.StatusBadRequest, "Invalid YouTube URL", "")
		return
	}

	result, err := h.svc.AnalyzeYouTube(r.Context(), req.URL, h.resolveBaseURL(r))
	if err != nil {
		if errors.Is(err, asset.ErrInvalidInput) {
			respondError(w, http.StatusBadRequest, "Invalid YouTube URL", "")
			return
		}
		logger.Error("Error analyzing YouTube audio", logger.String("url", req.URL), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to analyze YouTube URL", err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// ListAnalysesHandler handles GET /api/audio/.
func (h *APIHandler) ListAnalysesHandler(w http.ResponseWriter, r *http.Request) {
	previews, err := h.svc.List(r.Context())
	if err != nil {
		logger.Error("Error fetching analyses", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to list analyses", "")
		return
	}
	respondJSON(w, http.StatusOK, previews)
}

// GetAnalysisHandler handles GET /api/audio/{id}.
func (h *APIHandler) GetAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	detail, err := h.svc.Get(r.Context(), id, h.resolveBaseURL(r))
	if err != nil {
		logger.Error("Error fetching analysis", logger.String("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch analysis", "")
		return
	}
	if detail == nil {
		respondError(w, http.StatusNotFound, "Analysis not found", "")
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

// HealthHandler handles GET /.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "Musicify backend is running"})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response", logger.ErrorField(err))
	}
}

func respondError(w http.ResponseWriter, status int, message, details string) {
	body := map[string]string{"error": message}
	if details != "" {
		body["details"] = details
	}
	respondJSON(w, status, body)
}
