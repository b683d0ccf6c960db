package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"telegram-drop-bot/internal/domain"
	"telegram-drop-bot/internal/infra/metrics"
	"telegram-drop-bot/internal/usecase"
)

// AddItemUsage is returned verbatim for malformed /additem payloads.
const AddItemUsage = "Usage:\n/additem KEY | Title | FileID or ChannelMsgID | hours(optional)"

// RefusalText answers any non-admin traffic that is not a deep-link start.
const RefusalText = "Use the app only."

// BotFacade composes usecases into high-level bot commands.
// Keep the facade methods returning strings so the transport adapters just
// forward them to the chat.
type BotFacade struct {
	CatalogUC  *usecase.CatalogUseCase
	DeliveryUC *usecase.DeliveryUseCase

	botUsername string
}

// NewBotFacade constructs a facade. botUsername is the gateway identity
// resolved at startup; it is only used to render deep links.
func NewBotFacade(catalogUC *usecase.CatalogUseCase, deliveryUC *usecase.DeliveryUseCase, botUsername string) *BotFacade {
	return &BotFacade{
		CatalogUC:   catalogUC,
		DeliveryUC:  deliveryUC,
		botUsername: botUsername,
	}
}

// DeepLink renders the redemption link for a key. The key is query-escaped;
// normalization only lower-cases and trims, so URL-unsafe characters can
// survive it.
func (b *BotFacade) DeepLink(key string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", b.botUsername, url.QueryEscape(key))
}

// HandleAddItem parses the delimiter-separated payload
// "KEY | TITLE | MEDIA_REF | HOURS?" and registers the item. Malformed
// payloads come back as the usage string, not an error.
func (b *BotFacade) HandleAddItem(ctx context.Context, payload string) (string, error) {
	parts := strings.Split(payload, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return AddItemUsage, nil
	}

	hours := 0 // 0 = use configured default
	if len(parts) >= 4 && parts[3] != "" {
		h, err := strconv.Atoi(parts[3])
		if err != nil || h <= 0 {
			return AddItemUsage, nil
		}
		hours = h
	}

	item, err := b.CatalogUC.Register(ctx, parts[0], parts[1], parts[2], hours)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			return AddItemUsage, nil
		}
		return "", fmt.Errorf("register item: %w", err)
	}

	return fmt.Sprintf("✔ Item added!\n\n🔗 Link:\n%s", b.DeepLink(item.Key)), nil
}

// HandleDeleteItem removes an item by key.
func (b *BotFacade) HandleDeleteItem(ctx context.Context, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "Usage:\n/delitem KEY", nil
	}
	if err := b.CatalogUC.Delete(ctx, key); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "No such item.", nil
		}
		if errors.Is(err, domain.ErrInvalidArgument) {
			return "Usage:\n/delitem KEY", nil
		}
		return "", fmt.Errorf("delete item: %w", err)
	}
	return "✔ Item deleted.", nil
}

// HandleListItems renders the bounded, newest-first catalog listing.
func (b *BotFacade) HandleListItems(ctx context.Context) (string, error) {
	items, err := b.CatalogUC.List(ctx)
	if err != nil {
		return "", fmt.Errorf("list items: %w", err)
	}
	if len(items) == 0 {
		return "No items.", nil
	}
	var sb strings.Builder
	for i, it := range items {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("• %s — %s (%dh)", it.Key, it.Title, it.RetentionHours))
	}
	return sb.String(), nil
}

// HandleRedeem runs the redemption flow for a deep-link start payload.
// On success the media message itself is the reply, so the returned text is
// empty. Misses and failures map to short user-visible strings.
func (b *BotFacade) HandleRedeem(ctx context.Context, chatID int64, key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "Open this item from your app.", nil
	}
	_, err := b.DeliveryUC.Redeem(ctx, chatID, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.IncRedemptionRejected("unknown_key")
			return "Item not available.", nil
		}
		return "Failed to deliver. Try again later.", err
	}
	return "", nil
}
