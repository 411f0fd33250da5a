package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tunecast/logger"
	"tunecast/model"

	"github.com/redis/go-redis/v9"
)

// searchCacheTTL bounds how long catalog search results stay fresh.
const searchCacheTTL = 10 * time.Minute

// SearchKey builds the Redis key for a search query.
func SearchKey(query string) string {
	return fmt.Sprintf("search:%s", query)
}

// GetSearchResults returns cached results for a query, or (nil, false) on a
// miss. Cache errors degrade to a miss; the catalog remains authoritative.
func GetSearchResults(ctx context.Context, query string) ([]model.Track, bool) {
	if RedisClient == nil {
		return nil, false
	}

	data, err := RedisClient.Get(ctx, SearchKey(query)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("search cache read failed",
				logger.String("query", query),
				logger.ErrorField(err))
		}
		return nil, false
	}

	var tracks []model.Track
	if err := json.Unmarshal(data, &tracks); err != nil {
		logger.Warn("search cache entry corrupt",
			logger.String("query", query),
			logger.ErrorField(err))
		return nil, false
	}
	return tracks, true
}

// SetSearchResults stores results for a query. Failures are logged only.
func SetSearchResults(ctx context.Context, query string, tracks []model.Track) {
	if RedisClient == nil {
		return
	}

	data, err := json.Marshal(tracks)
	if err != nil {
		logger.Warn("failed to marshal search results", logger.ErrorField(err))
		return
	}

	if err := RedisClient.Set(ctx, SearchKey(query), data, searchCacheTTL).Err(); err != nil {
		logger.Warn("search cache write failed",
			logger.String("query", query),
			logger.ErrorField(err))
	}
}
