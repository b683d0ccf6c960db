package repository

import (
	"context"

	"telegram-drop-bot/internal/domain/model"
)

// CatalogRepository is the port for catalog item persistence.
type CatalogRepository interface {
	// Save upserts by key; re-registering a key overwrites its metadata.
	Save(ctx context.Context, item *model.CatalogItem) error
	FindByKey(ctx context.Context, key string) (*model.CatalogItem, error)
	// Delete removes the item; outstanding deliveries are unaffected.
	Delete(ctx context.Context, key string) error
	// List returns up to limit items, newest first.
	List(ctx context.Context, limit int) ([]*model.CatalogItem, error)
}
