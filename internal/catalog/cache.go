package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"troop-cookies/internal/logger"
	"troop-cookies/internal/models"
)

// CachedProvider is a read-through redis cache in front of another Provider.
// The catalog is read-only once a season starts, so entries only expire by TTL
// or by Invalidate after an admin replaces the season.
type CachedProvider struct {
	Next   Provider
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func NewCachedProvider(next Provider, client *redis.Client, ttl time.Duration, log *logger.Logger) *CachedProvider {
	return &CachedProvider{Next: next, Client: client, TTL: ttl, Logger: log}
}

func cacheKey(programYear int) string {
	return fmt.Sprintf("catalog:%d:active", programYear)
}

func (c *CachedProvider) ActiveVariants(ctx context.Context, programYear int) ([]models.CookieVariant, error) {
	key := cacheKey(programYear)

	raw, err := c.Client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var variants []models.CookieVariant
		if jsonErr := json.Unmarshal(raw, &variants); jsonErr == nil {
			return variants, nil
		}
		c.Logger.Warn("CATALOG", fmt.Sprintf("Discarding unreadable cache entry %s", key))
	case err != redis.Nil:
		c.Logger.Warn("CATALOG", fmt.Sprintf("Redis read failed for %s, using database: %v", key, err))
	}

	variants, err := c.Next.ActiveVariants(ctx, programYear)
	if err != nil {
		return nil, err
	}
	if len(variants) == 0 {
		return variants, nil
	}

	payload, err := json.Marshal(variants)
	if err != nil {
		return variants, nil
	}
	if err := c.Client.Set(ctx, key, payload, c.TTL).Err(); err != nil {
		c.Logger.Warn("CATALOG", fmt.Sprintf("Redis write failed for %s: %v", key, err))
	}
	return variants, nil
}

func (c *CachedProvider) Invalidate(ctx context.Context, programYear int) error {
	return c.Client.Del(ctx, cacheKey(programYear)).Err()
}
