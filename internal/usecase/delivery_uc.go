package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"telegram-drop-bot/internal/domain"
	"telegram-drop-bot/internal/domain/model"
	"telegram-drop-bot/internal/domain/ports/adapter"
	"telegram-drop-bot/internal/domain/ports/repository"
	"telegram-drop-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Armer is the slice of the expiry scheduler the redemption flow needs.
type Armer interface {
	Arm(rec *model.DeliveryRecord)
}

// DeliveryUseCase implements the redemption flow: catalog lookup, media send,
// ledger record, timer arming, strictly in that order. The ledger write is
// acknowledged before the timer is armed, so a firing timer always refers to
// a record the store knows about.
type DeliveryUseCase struct {
	catalog   repository.CatalogRepository
	ledger    repository.DeliveryLedger
	gateway   adapter.MediaGateway
	scheduler Armer
	log       *zerolog.Logger
}

func NewDeliveryUseCase(catalog repository.CatalogRepository, ledger repository.DeliveryLedger, gateway adapter.MediaGateway, scheduler Armer, logger *zerolog.Logger) *DeliveryUseCase {
	l := logger.With().Str("component", "DeliveryUC").Logger()
	return &DeliveryUseCase{
		catalog:   catalog,
		ledger:    ledger,
		gateway:   gateway,
		scheduler: scheduler,
		log:       &l,
	}
}

// Redeem delivers the item registered under key to chatID and schedules the
// sent message for deletion after the item's retention window. Returns
// domain.ErrNotFound for unknown keys. On send failure no ledger row is
// created, so nothing is ever scheduled for a message that was not delivered.
func (uc *DeliveryUseCase) Redeem(ctx context.Context, chatID int64, key string) (*model.DeliveryRecord, error) {
	item, err := uc.catalog.FindByKey(ctx, model.NormalizeKey(key))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("catalog lookup: %w", err)
	}

	caption := item.Title
	sent, err := uc.gateway.SendMedia(ctx, chatID, item.FileID, caption)
	if err != nil {
		metrics.IncDeliveryFailed()
		return nil, fmt.Errorf("send media %q: %w", item.Key, err)
	}

	rec, err := model.NewDeliveryRecord(sent.ChatID, sent.MessageID, item.Key, time.Now(), item.RetentionWindow())
	if err != nil {
		return nil, err
	}
	if _, err := uc.ledger.Record(ctx, rec); err != nil {
		// The message is out but untracked; surface the storage failure so
		// the caller can tell the user, and log it loudly.
		uc.log.Error().Err(err).Int64("chat_id", sent.ChatID).Int("message_id", sent.MessageID).
			Str("key", item.Key).Msg("ledger write failed after send")
		return nil, fmt.Errorf("record delivery: %w", err)
	}
	uc.scheduler.Arm(rec)

	metrics.IncDelivered()
	uc.log.Info().Str("id", rec.ID).Str("key", item.Key).Int64("chat_id", rec.ChatID).
		Time("expire_at", rec.ExpireAt).Msg("delivered")
	return rec, nil
}
