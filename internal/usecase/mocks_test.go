package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"telegram-drop-bot/internal/domain"
	"telegram-drop-bot/internal/domain/model"
	"telegram-drop-bot/internal/domain/ports/adapter"
)

// memCatalogRepo is a small in-memory implementation used by unit tests.
type memCatalogRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.CatalogItem
	saveErr error // used by tests to simulate save failures
}

func newMemCatalogRepo() *memCatalogRepo {
	return &memCatalogRepo{store: make(map[string]*model.CatalogItem)}
}

func (m *memCatalogRepo) Save(ctx context.Context, item *model.CatalogItem) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *item
	m.store[item.Key] = &cp
	return nil
}

func (m *memCatalogRepo) FindByKey(ctx context.Context, key string) (*model.CatalogItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.store[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (m *memCatalogRepo) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[key]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, key)
	return nil
}

func (m *memCatalogRepo) List(ctx context.Context, limit int) ([]*model.CatalogItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.CatalogItem, 0, len(m.store))
	for _, it := range m.store {
		cp := *it
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddedAt.After(out[j].AddedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// memLedger is an in-memory delivery ledger.
type memLedger struct {
	mu        sync.RWMutex
	store     map[string]*model.DeliveryRecord
	seq       int
	recordErr error
}

func newMemLedger() *memLedger {
	return &memLedger{store: make(map[string]*model.DeliveryRecord)}
}

func (m *memLedger) Record(ctx context.Context, rec *model.DeliveryRecord) (string, error) {
	if m.recordErr != nil {
		return "", m.recordErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	rec.ID = fmt.Sprintf("d-%04d", m.seq)
	cp := *rec
	m.store[rec.ID] = &cp
	return rec.ID, nil
}

func (m *memLedger) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, id) // idempotent
	return nil
}

func (m *memLedger) ListAll(ctx context.Context) ([]*model.DeliveryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.DeliveryRecord, 0, len(m.store))
	for _, rec := range m.store {
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memLedger) size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store)
}

// mockGateway uses function fields so each test controls exactly the calls it
// cares about.
type mockGateway struct {
	SendMediaFunc          func(ctx context.Context, chatID int64, fileID, caption string) (adapter.SentMessage, error)
	SendTextFunc           func(ctx context.Context, chatID int64, text string) error
	DeleteMessageFunc      func(ctx context.Context, chatID int64, messageID int) error
	ResolveChannelFileFunc func(ctx context.Context, channelID, messageID int64) (string, error)
}

func (m *mockGateway) SendMedia(ctx context.Context, chatID int64, fileID, caption string) (adapter.SentMessage, error) {
	if m.SendMediaFunc != nil {
		return m.SendMediaFunc(ctx, chatID, fileID, caption)
	}
	return adapter.SentMessage{ChatID: chatID, MessageID: 1}, nil
}

func (m *mockGateway) SendText(ctx context.Context, chatID int64, text string) error {
	if m.SendTextFunc != nil {
		return m.SendTextFunc(ctx, chatID, text)
	}
	return nil
}

func (m *mockGateway) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if m.DeleteMessageFunc != nil {
		return m.DeleteMessageFunc(ctx, chatID, messageID)
	}
	return nil
}

func (m *mockGateway) ResolveChannelFile(ctx context.Context, channelID, messageID int64) (string, error) {
	if m.ResolveChannelFileFunc != nil {
		return m.ResolveChannelFileFunc(ctx, channelID, messageID)
	}
	return "resolved-file-id", nil
}

func (m *mockGateway) Identity(ctx context.Context) (adapter.BotIdentity, error) {
	return adapter.BotIdentity{ID: 1, Username: "test_bot"}, nil
}

// mockArmer records what the redemption flow armed.
type mockArmer struct {
	mu    sync.Mutex
	armed []*model.DeliveryRecord
}

func (m *mockArmer) Arm(rec *model.DeliveryRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.armed = append(m.armed, &cp)
}

func (m *mockArmer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.armed)
}
