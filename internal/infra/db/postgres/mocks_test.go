package postgres

import (
	"context"
	"sync"
	"time"

	"telegram-drop-bot/internal/domain"
	"telegram-drop-bot/internal/domain/model"
	red "telegram-drop-bot/internal/infra/redis"
)

// mockRedisClient is an in-memory stand-in for the cache. Expirations are
// stored but never enforced; tests assert on them directly.
type mockRedisClient struct {
	mu      sync.Mutex
	store   map[string]string
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	getHits int
}

var _ red.RedisClient = (*mockRedisClient)(nil)

func newMockRedisClient() *mockRedisClient {
	return &mockRedisClient{
		store: map[string]string{},
		ttls:  map[string]time.Duration{},
	}
}

func (m *mockRedisClient) Ping(context.Context) error { return nil }

func (m *mockRedisClient) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	switch v := value.(type) {
	case string:
		m.store[key] = v
	case []byte:
		m.store[key] = string(v)
	}
	m.ttls[key] = expiration
	return nil
}

func (m *mockRedisClient) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.store[key]
	if !ok {
		return "", red.Nil
	}
	m.getHits++
	return v, nil
}

func (m *mockRedisClient) Incr(_ context.Context, key string) (int64, error) {
	return 0, nil
}

func (m *mockRedisClient) Expire(_ context.Context, key string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ttls[key] = expiration
	return nil
}

func (m *mockRedisClient) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.store, k)
		delete(m.ttls, k)
	}
	return nil
}

func (m *mockRedisClient) Close() error { return nil }

func (m *mockRedisClient) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.store[key]
	return ok
}

// mockCatalogRepo counts calls so cache tests can tell hits from misses.
type mockCatalogRepo struct {
	mu       sync.Mutex
	items    map[string]*model.CatalogItem
	findings int
	listings int
}

func newMockCatalogRepo() *mockCatalogRepo {
	return &mockCatalogRepo{items: map[string]*model.CatalogItem{}}
}

func (m *mockCatalogRepo) Save(_ context.Context, item *model.CatalogItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *item
	m.items[item.Key] = &cp
	return nil
}

func (m *mockCatalogRepo) FindByKey(_ context.Context, key string) (*model.CatalogItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findings++
	it, ok := m.items[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (m *mockCatalogRepo) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[key]; !ok {
		return domain.ErrNotFound
	}
	delete(m.items, key)
	return nil
}

func (m *mockCatalogRepo) List(_ context.Context, limit int) ([]*model.CatalogItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings++
	out := make([]*model.CatalogItem, 0, len(m.items))
	for _, it := range m.items {
		cp := *it
		out = append(out, &cp)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockCatalogRepo) findCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findings
}

func (m *mockCatalogRepo) listCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listings
}
