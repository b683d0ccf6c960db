package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"telegram-drop-bot/internal/domain/model"
	"telegram-drop-bot/internal/domain/ports/repository"
	"telegram-drop-bot/internal/infra/metrics"
	red "telegram-drop-bot/internal/infra/redis"
)

var _ repository.CatalogRepository = (*catalogRepoCacheDecorator)(nil)

// catalogRepoCacheDecorator caches single-item lookups, which is the hot path
// (every redemption is a FindByKey). Writes invalidate both the item and the
// listing key.
type catalogRepoCacheDecorator struct {
	inner repository.CatalogRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewCatalogRepoCacheDecorator(inner repository.CatalogRepository, cache red.RedisClient, ttl time.Duration) repository.CatalogRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &catalogRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   ttl,
	}
}

func itemCacheKey(key string) string { return fmt.Sprintf("item:%s", key) }

const itemsListKey = "items:all"

func (d *catalogRepoCacheDecorator) FindByKey(ctx context.Context, key string) (*model.CatalogItem, error) {
	if val, err := d.cache.Get(ctx, itemCacheKey(key)); err == nil {
		var it model.CatalogItem
		if json.Unmarshal([]byte(val), &it) == nil {
			metrics.IncCacheRequest("item", "hit")
			return &it, nil
		}
	}

	metrics.IncCacheRequest("item", "miss")
	it, err := d.inner.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if bytes, err := json.Marshal(it); err == nil {
		_ = d.cache.Set(ctx, itemCacheKey(key), bytes, d.ttl)
	}
	return it, nil
}

func (d *catalogRepoCacheDecorator) Save(ctx context.Context, item *model.CatalogItem) error {
	_ = d.cache.Del(ctx, itemCacheKey(item.Key), itemsListKey)
	return d.inner.Save(ctx, item)
}

func (d *catalogRepoCacheDecorator) Delete(ctx context.Context, key string) error {
	_ = d.cache.Del(ctx, itemCacheKey(key), itemsListKey)
	return d.inner.Delete(ctx, key)
}

func (d *catalogRepoCacheDecorator) List(ctx context.Context, limit int) ([]*model.CatalogItem, error) {
	if val, err := d.cache.Get(ctx, itemsListKey); err == nil {
		var items []*model.CatalogItem
		if json.Unmarshal([]byte(val), &items) == nil && len(items) <= limit {
			metrics.IncCacheRequest("item_list", "hit")
			return items, nil
		}
	}

	metrics.IncCacheRequest("item_list", "miss")
	items, err := d.inner.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		if bytes, err := json.Marshal(items); err == nil {
			_ = d.cache.Set(ctx, itemsListKey, bytes, d.ttl)
		}
	}
	return items, nil
}
