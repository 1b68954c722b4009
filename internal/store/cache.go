package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const applicationCachePrefix = "application:"

// CachedStore serves GetApplication from Redis and falls back to the
// wrapped Store. Writes go to the wrapped Store and invalidate the key.
type CachedStore struct {
	Store
	redis  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedStore(s Store, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedStore {
	return &CachedStore{Store: s, redis: client, ttl: ttl, logger: logger}
}

func applicationKey(id uuid.UUID) string { return applicationCachePrefix + id.String() }

func (c *CachedStore) GetApplication(ctx context.Context, id uuid.UUID) (*Application, error) {
	key := applicationKey(id)
	if val, err := c.redis.Get(ctx, key).Bytes(); err == nil {
		var app Application
		if err := json.Unmarshal(val, &app); err == nil {
			return &app, nil
		}
		c.logger.Warn("dropping undecodable cache entry", "key", key)
		c.redis.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("application cache read failed", "key", key, "error", err)
	}

	app, err := c.Store.GetApplication(ctx, id)
	if err != nil || app == nil {
		return app, err
	}
	c.put(ctx, app)
	return app, nil
}

func (c *CachedStore) CreateApplication(ctx context.Context, app *Application) error {
	if err := c.Store.CreateApplication(ctx, app); err != nil {
		return err
	}
	c.put(ctx, app)
	return nil
}

func (c *CachedStore) UpdateAssessment(ctx context.Context, app *Application) error {
	if err := c.Store.UpdateAssessment(ctx, app); err != nil {
		return err
	}
	c.invalidate(ctx, app.ID)
	return nil
}

func (c *CachedStore) UpdateStatus(ctx context.Context, id uuid.UUID, status ApplicationStatus) (*Application, error) {
	app, err := c.Store.UpdateStatus(ctx, id, status)
	if err != nil || app == nil {
		return app, err
	}
	c.invalidate(ctx, id)
	return app, nil
}

func (c *CachedStore) Close() error {
	_ = c.redis.Close()
	return c.Store.Close()
}

func (c *CachedStore) put(ctx context.Context, app *Application) {
	data, err := json.Marshal(app)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, applicationKey(app.ID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("application cache write failed", "id", app.ID, "error", err)
	}
}

func (c *CachedStore) invalidate(ctx context.Context, id uuid.UUID) {
	if err := c.redis.Del(ctx, applicationKey(id)).Err(); err != nil {
		c.logger.Warn("application cache invalidation failed", "id", id, "error", err)
	}
}
