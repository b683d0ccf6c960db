package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"telegram-drop-bot/internal/domain"
	"telegram-drop-bot/internal/domain/ports/adapter"
)

func TestDeliveryUseCase_RedeemCreatesOneRecord(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	catalog := newMemCatalogRepo()
	ledger := newMemLedger()
	armer := &mockArmer{}

	var sentFileID string
	sends := 0
	gw := &mockGateway{
		SendMediaFunc: func(ctx context.Context, chatID int64, fileID, caption string) (adapter.SentMessage, error) {
			sends++
			sentFileID = fileID
			return adapter.SentMessage{ChatID: chatID, MessageID: 77}, nil
		},
	}

	catalogUC := NewCatalogUseCase(catalog, gw, 0, 8, testLogger())
	if _, err := catalogUC.Register(ctx, "demo", "Demo", "ref1", 1); err != nil {
		t.Fatalf("Register: %v", err)
	}

	uc := NewDeliveryUseCase(catalog, ledger, gw, armer, testLogger())
	before := time.Now()
	rec, err := uc.Redeem(ctx, 555, "demo")
	if err != nil {
		t.Fatalf("Redeem returned error: %v", err)
	}

	if sends != 1 {
		t.Fatalf("expected exactly one send, got %d", sends)
	}
	if sentFileID != "ref1" {
		t.Fatalf("expected send with ref1, got %q", sentFileID)
	}
	if ledger.size() != 1 {
		t.Fatalf("expected one ledger row, got %d", ledger.size())
	}
	if rec.ChatID != 555 || rec.MessageID != 77 || rec.SourceKey != "demo" {
		t.Fatalf("unexpected record %+v", rec)
	}

	wantExpire := rec.DeliveredAt.Add(1 * time.Hour)
	if !rec.ExpireAt.Equal(wantExpire) {
		t.Fatalf("expected expire %v got %v", wantExpire, rec.ExpireAt)
	}
	if rec.DeliveredAt.Before(before.Add(-time.Second)) {
		t.Fatalf("DeliveredAt implausibly old: %v", rec.DeliveredAt)
	}

	if armer.count() != 1 {
		t.Fatalf("expected one armed timer, got %d", armer.count())
	}
	if armer.armed[0].ID != rec.ID {
		t.Fatalf("armed record id %q does not match ledger id %q", armer.armed[0].ID, rec.ID)
	}
}

func TestDeliveryUseCase_RedeemUnknownKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ledger := newMemLedger()
	armer := &mockArmer{}
	sends := 0
	gw := &mockGateway{
		SendMediaFunc: func(ctx context.Context, chatID int64, fileID, caption string) (adapter.SentMessage, error) {
			sends++
			return adapter.SentMessage{}, nil
		},
	}
	uc := NewDeliveryUseCase(newMemCatalogRepo(), ledger, gw, armer, testLogger())

	_, err := uc.Redeem(ctx, 555, "ghost")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if sends != 0 || ledger.size() != 0 || armer.count() != 0 {
		t.Fatalf("expected no side effects: sends=%d ledger=%d armed=%d", sends, ledger.size(), armer.count())
	}
}

func TestDeliveryUseCase_RedeemNormalizesKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	catalog := newMemCatalogRepo()
	ledger := newMemLedger()
	gw := &mockGateway{}

	catalogUC := NewCatalogUseCase(catalog, gw, 0, 8, testLogger())
	if _, err := catalogUC.Register(ctx, "demo", "Demo", "ref1", 1); err != nil {
		t.Fatalf("Register: %v", err)
	}

	uc := NewDeliveryUseCase(catalog, ledger, gw, &mockArmer{}, testLogger())
	if _, err := uc.Redeem(ctx, 555, "  DEMO "); err != nil {
		t.Fatalf("Redeem with unnormalized key: %v", err)
	}
}

func TestDeliveryUseCase_SendFailureLeavesNoRow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	catalog := newMemCatalogRepo()
	ledger := newMemLedger()
	armer := &mockArmer{}
	gw := &mockGateway{
		SendMediaFunc: func(ctx context.Context, chatID int64, fileID, caption string) (adapter.SentMessage, error) {
			return adapter.SentMessage{}, errors.New("blocked by user")
		},
	}

	catalogUC := NewCatalogUseCase(catalog, gw, 0, 8, testLogger())
	if _, err := catalogUC.Register(ctx, "demo", "Demo", "ref1", 1); err != nil {
		t.Fatalf("Register: %v", err)
	}

	uc := NewDeliveryUseCase(catalog, ledger, gw, armer, testLogger())
	if _, err := uc.Redeem(ctx, 555, "demo"); err == nil {
		t.Fatalf("expected error from failed send")
	}
	if ledger.size() != 0 {
		t.Fatalf("expected no ledger row after send failure, got %d", ledger.size())
	}
	if armer.count() != 0 {
		t.Fatalf("expected nothing armed after send failure, got %d", armer.count())
	}
}

func TestDeliveryUseCase_LedgerFailureNothingArmed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	catalog := newMemCatalogRepo()
	ledger := newMemLedger()
	ledger.recordErr = errors.New("store unreachable")
	armer := &mockArmer{}
	gw := &mockGateway{}

	catalogUC := NewCatalogUseCase(catalog, gw, 0, 8, testLogger())
	if _, err := catalogUC.Register(ctx, "demo", "Demo", "ref1", 1); err != nil {
		t.Fatalf("Register: %v", err)
	}

	uc := NewDeliveryUseCase(catalog, ledger, gw, armer, testLogger())
	if _, err := uc.Redeem(ctx, 555, "demo"); err == nil {
		t.Fatalf("expected error from failed ledger write")
	}
	// The ledger write is acknowledged before any timer is armed, never the
	// reverse.
	if armer.count() != 0 {
		t.Fatalf("expected nothing armed after ledger failure, got %d", armer.count())
	}
}

func TestDeliveryUseCase_CatalogChangeDoesNotAffectOutstanding(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	catalog := newMemCatalogRepo()
	ledger := newMemLedger()
	gw := &mockGateway{}

	catalogUC := NewCatalogUseCase(catalog, gw, 0, 8, testLogger())
	if _, err := catalogUC.Register(ctx, "demo", "Demo", "ref1", 1); err != nil {
		t.Fatalf("Register: %v", err)
	}

	uc := NewDeliveryUseCase(catalog, ledger, gw, &mockArmer{}, testLogger())
	rec, err := uc.Redeem(ctx, 555, "demo")
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	wantExpire := rec.ExpireAt

	// Re-register with a different retention, then delete the item entirely.
	if _, err := catalogUC.Register(ctx, "demo", "Demo", "ref1", 24); err != nil {
		t.Fatalf("re-Register: %v", err)
	}
	if err := catalogUC.Delete(ctx, "demo"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	all, err := ledger.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 1 || !all[0].ExpireAt.Equal(wantExpire) {
		t.Fatalf("outstanding delivery changed: %+v", all)
	}
}
