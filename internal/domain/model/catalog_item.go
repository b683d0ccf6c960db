package model

import (
	"strings"
	"time"

	"telegram-drop-bot/internal/domain"
)

// CatalogItem is an admin-registered piece of media redeemable through a
// deep link. FileID is the persisted media reference; ChannelMsgID records
// where the file was resolved from and is 0 for items registered directly
// by file id.
type CatalogItem struct {
	Key            string
	Title          string
	FileID         string
	ChannelMsgID   int64
	RetentionHours int
	AddedAt        time.Time
}

func (i *CatalogItem) IsZero() bool { return i == nil || i.Key == "" }

// NormalizeKey canonicalizes a catalog key: trimmed and lower-cased.
// Applied at both registration and redemption so casing never matters.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// NewCatalogItem validates and constructs an item. The key is normalized here
// so every persisted key is already canonical.
func NewCatalogItem(key, title, fileID string, channelMsgID int64, retentionHours int) (*CatalogItem, error) {
	key = NormalizeKey(key)
	if key == "" || title == "" || fileID == "" || retentionHours <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &CatalogItem{
		Key:            key,
		Title:          title,
		FileID:         fileID,
		ChannelMsgID:   channelMsgID,
		RetentionHours: retentionHours,
		AddedAt:        time.Now(),
	}, nil
}

// RetentionWindow is the auto-delete delay for deliveries of this item.
func (i *CatalogItem) RetentionWindow() time.Duration {
	return time.Duration(i.RetentionHours) * time.Hour
}
