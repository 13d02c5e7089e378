package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"musicify/logger"
	"musicify/repository"
)

// analysisTTL bounds how long a detail row stays cached. Rows are immutable,
// so the TTL only limits memory, not staleness.
const analysisTTL = 24 * time.Hour

// AnalysisCache is a read-side cache of analysis detail rows keyed by
// analysis id. A nil *AnalysisCache is valid and disables caching, so
// callers never need to branch on availability.
type AnalysisCache struct {
	client *redis.Client
}

// NewAnalysisCache wraps a connected Redis client.
func NewAnalysisCache(client *redis.Client) *AnalysisCache {
	return &AnalysisCache{client: client}
}

func analysisKey(id string) string {
	return fmt.Sprintf("analysis:%s", id)
}

// Get returns the cached detail row for id, or ok=false on a miss, a decode
// problem, or when caching is disabled.
func (c *AnalysisCache) Get(ctx context.Context, id string) (*repository.AnalysisDetailRow, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	payload, err := c.client.Get(ctx, analysisKey(id)).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("Analysis cache read failed", logger.String("id", id), logger.ErrorField(err))
		}
		return nil, false
	}

	row := &repository.AnalysisDetailRow{}
	if err := json.Unmarshal([]byte(payload), row); err != nil {
		logger.Warn("Analysis cache entry malformed, dropping", logger.String("id", id), logger.ErrorField(err))
		c.client.Del(ctx, analysisKey(id))
		return nil, false
	}
	return row, true
}

// Set stores a detail row fetched from the database. Failures are logged
// and otherwise ignored; the cache is an optimization only.
func (c *AnalysisCache) Set(ctx context.Context, id string, row *repository.AnalysisDetailRow) {
	if c == nil || c.client == nil || row == nil {
		return
	}

	payload, err := json.Marshal(row)
	if err != nil {
		logger.Warn("Failed to marshal analysis for cache", logger.String("id", id), logger.ErrorField(err))
		return
	}
	if err := c.client.Set(ctx, analysisKey(id), payload, analysisTTL).Err(); err != nil {
		logger.Warn("Analysis cache write failed", logger.String("id", id), logger.ErrorField(err))
	}
}
