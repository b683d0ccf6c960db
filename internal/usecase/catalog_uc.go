package usecase

import (
	"context"
	"fmt"
	"strconv"

	"telegram-drop-bot/internal/domain"
	"telegram-drop-bot/internal/domain/model"
	"telegram-drop-bot/internal/domain/ports/adapter"
	"telegram-drop-bot/internal/domain/ports/repository"
	"telegram-drop-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// ListLimit bounds the admin listing.
const ListLimit = 200

// CatalogUseCase manages the item catalog. Registration optionally resolves a
// source-channel message into a reusable file id through the gateway, so later
// redemptions never depend on the source channel still existing.
type CatalogUseCase struct {
	repo         repository.CatalogRepository
	gateway      adapter.MediaGateway
	channelID    int64
	defaultHours int
	log          *zerolog.Logger
}

func NewCatalogUseCase(repo repository.CatalogRepository, gateway adapter.MediaGateway, channelID int64, defaultHours int, logger *zerolog.Logger) *CatalogUseCase {
	l := logger.With().Str("component", "CatalogUC").Logger()
	return &CatalogUseCase{
		repo:         repo,
		gateway:      gateway,
		channelID:    channelID,
		defaultHours: defaultHours,
		log:          &l,
	}
}

// Register upserts an item. mediaRef is either a Telegram file id or, when it
// parses as an integer and a source channel is configured, a message id in
// that channel to resolve once at registration time. hours <= 0 means "use
// the configured default"; the explicit-invalid case is rejected by the
// command parser before it gets here.
func (uc *CatalogUseCase) Register(ctx context.Context, key, title, mediaRef string, hours int) (*model.CatalogItem, error) {
	if hours <= 0 {
		hours = uc.defaultHours
	}

	fileID := mediaRef
	var channelMsgID int64
	if msgID, err := strconv.ParseInt(mediaRef, 10, 64); err == nil && uc.channelID != 0 {
		resolved, err := uc.gateway.ResolveChannelFile(ctx, uc.channelID, msgID)
		if err != nil {
			return nil, fmt.Errorf("resolve channel message %d: %w", msgID, err)
		}
		fileID = resolved
		channelMsgID = msgID
	}

	item, err := model.NewCatalogItem(key, title, fileID, channelMsgID, hours)
	if err != nil {
		return nil, err
	}
	if err := uc.repo.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("save item: %w", err)
	}
	metrics.IncCatalogOp("register")
	uc.log.Info().Str("key", item.Key).Int("hours", item.RetentionHours).Msg("item registered")
	return item, nil
}

// Get retrieves an item by key (normalized).
func (uc *CatalogUseCase) Get(ctx context.Context, key string) (*model.CatalogItem, error) {
	key = model.NormalizeKey(key)
	if key == "" {
		return nil, domain.ErrInvalidArgument
	}
	return uc.repo.FindByKey(ctx, key)
}

// Delete removes an item. Outstanding deliveries keep their schedule.
func (uc *CatalogUseCase) Delete(ctx context.Context, key string) error {
	key = model.NormalizeKey(key)
	if key == "" {
		return domain.ErrInvalidArgument
	}
	if err := uc.repo.Delete(ctx, key); err != nil {
		return err
	}
	metrics.IncCatalogOp("delete")
	uc.log.Info().Str("key", key).Msg("item deleted")
	return nil
}

// List returns the newest items for administrative inspection.
func (uc *CatalogUseCase) List(ctx context.Context) ([]*model.CatalogItem, error) {
	return uc.repo.List(ctx, ListLimit)
}
