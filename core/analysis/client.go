package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"path/filepath"
	"syscall"
	"time"

	"musicify/logger"
)

// Metadata accompanies a file reference sent to the analyzer.
type Metadata struct {
	OriginalName string `json:"originalName"`
	Mimetype     string `json:"mimetype"`
	YoutubeURL   string `json:"youtubeUrl,omitempty"`
}

// Result is the analyzer's output: a human-readable summary plus chord and
// tablature structures kept as raw JSON so they round-trip byte-identically
// between the analyzer, the store and API responses.
type Result struct {
	Summary string          `json:"summary"`
	Chords  json.RawMessage `json:"chords"`
	Tabs    json.RawMessage `json:"tabs"`
}

// Outcome is a Result tagged with its provenance: produced live by the
// external analyzer, or synthesized locally after a failure. Callers render
// both identically; logs and metrics can tell them apart.
type Outcome struct {
	Result   Result
	Fallback bool
	Reason   string
}

// Client calls the external analyzer over HTTP. It never propagates a hard
// failure: any transport error or non-2xx response degrades to a synthetic
// fallback analysis so the pipeline stays available end to end.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client for the analyzer at baseURL, e.g.
// "http://127.0.0.1:8001".
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type analyzeRequest struct {
	FilePath string   `json:"filePath"`
	Metadata Metadata `json:"metadata"`
}

// Analyze sends the file reference to the analyzer and returns its result,
// or the fallback analysis when the analyzer is unreachable or errors.
func (c *Client) Analyze(ctx context.Context, filePath string, meta Metadata) Outcome {
	result, err := c.callAnalyzer(ctx, filePath, meta)
	if err == nil {
		logger.Info("Analysis successful", logger.String("filePath", filePath))
		return Outcome{Result: *result}
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		logger.Error("Analyzer connection refused, is the analyzer service running?",
			logger.String("analyzerUrl", c.baseURL),
			logger.ErrorField(err),
		)
	} else {
		logger.Error("Analyzer call failed, falling back to synthetic analysis",
			logger.String("analyzerUrl", c.baseURL),
			logger.ErrorField(err),
		)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return Outcome{
		Result:   FallbackAnalysis(rng),
		Fallback: true,
		Reason:   err.Error(),
	}
}

func (c *Client) callAnalyzer(ctx context.Context, filePath string, meta Metadata) (*Result, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for %s: %w", filePath, err)
	}

	body, err := json.Marshal(analyzeRequest{FilePath: absPath, Metadata: meta})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	logger.Info("Sending analysis request",
		logger.String("analyzerUrl", c.baseURL),
		logger.String("filePath", absPath),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analyzer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("analyzer returned status %d: %s", resp.StatusCode, bytes.TrimSpace(payload))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode analyzer response: %w", err)
	}
	return &result, nil
}
