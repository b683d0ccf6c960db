package repository

import (
	"context"

	"telegram-drop-bot/internal/domain/model"
)

// DeliveryLedger is the port for the durable delivery ledger. The ledger is
// the sole source of truth for outstanding auto-deletes; the in-memory
// scheduler is rebuilt from ListAll after every restart.
type DeliveryLedger interface {
	// Record durably persists rec, assigns rec.ID and returns it. The row is
	// fully written before Record returns; callers may only arm a timer for
	// an id Record has acknowledged.
	Record(ctx context.Context, rec *model.DeliveryRecord) (string, error)
	// Remove is idempotent; removing an unknown id is not an error.
	Remove(ctx context.Context, id string) error
	// ListAll returns every outstanding record. Rehydration only.
	ListAll(ctx context.Context) ([]*model.DeliveryRecord, error)
}
