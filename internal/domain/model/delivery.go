package model

import (
	"time"

	"telegram-drop-bot/internal/domain"
)

// DeliveryRecord tracks one delivered message until its scheduled deletion.
// ExpireAt is fixed at delivery time from the item's retention at that moment;
// later catalog changes never touch an outstanding record.
type DeliveryRecord struct {
	ID          string
	ChatID      int64
	MessageID   int
	SourceKey   string
	DeliveredAt time.Time
	ExpireAt    time.Time
}

// NewDeliveryRecord constructs a record for a message that was just sent.
// The ledger assigns the ID at persist time.
func NewDeliveryRecord(chatID int64, messageID int, sourceKey string, deliveredAt time.Time, retention time.Duration) (*DeliveryRecord, error) {
	if chatID == 0 || messageID == 0 || sourceKey == "" || retention <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &DeliveryRecord{
		ChatID:      chatID,
		MessageID:   messageID,
		SourceKey:   sourceKey,
		DeliveredAt: deliveredAt,
		ExpireAt:    deliveredAt.Add(retention),
	}, nil
}

// Expired reports whether the record's retention window has passed at now.
func (r *DeliveryRecord) Expired(now time.Time) bool {
	return !r.ExpireAt.After(now)
}
