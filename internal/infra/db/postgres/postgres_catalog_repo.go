package postgres

import (
	"context"
	"errors"
	"fmt"

	"telegram-drop-bot/internal/domain"
	"telegram-drop-bot/internal/domain/model"
	"telegram-drop-bot/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Ensure interface compliance
var _ repository.CatalogRepository = (*PostgresCatalogRepo)(nil)

type PostgresCatalogRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresCatalogRepo(pool *pgxpool.Pool) *PostgresCatalogRepo {
	return &PostgresCatalogRepo{pool: pool}
}

func (r *PostgresCatalogRepo) Save(ctx context.Context, item *model.CatalogItem) error {
	const sql = `
INSERT INTO catalog_items (key, title, file_id, channel_msg_id, retention_hours, added_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (key) DO UPDATE
  SET title           = EXCLUDED.title,
      file_id         = EXCLUDED.file_id,
      channel_msg_id  = EXCLUDED.channel_msg_id,
      retention_hours = EXCLUDED.retention_hours;
`
	_, err := r.pool.Exec(ctx, sql,
		item.Key, item.Title, item.FileID, item.ChannelMsgID, item.RetentionHours, item.AddedAt,
	)
	if err != nil {
		return fmt.Errorf("Save item: %w", err)
	}
	return nil
}

func (r *PostgresCatalogRepo) FindByKey(ctx context.Context, key string) (*model.CatalogItem, error) {
	const sql = `
SELECT key, title, file_id, channel_msg_id, retention_hours, added_at
  FROM catalog_items
 WHERE key = $1;
`
	row := r.pool.QueryRow(ctx, sql, key)
	var it model.CatalogItem
	if err := row.Scan(&it.Key, &it.Title, &it.FileID, &it.ChannelMsgID, &it.RetentionHours, &it.AddedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("FindByKey item: %w", err)
	}
	return &it, nil
}

func (r *PostgresCatalogRepo) Delete(ctx context.Context, key string) error {
	const sql = `DELETE FROM catalog_items WHERE key = $1;`
	ct, err := r.pool.Exec(ctx, sql, key)
	if err != nil {
		return fmt.Errorf("Delete item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresCatalogRepo) List(ctx context.Context, limit int) ([]*model.CatalogItem, error) {
	const sql = `
SELECT key, title, file_id, channel_msg_id, retention_hours, added_at
  FROM catalog_items
 ORDER BY added_at DESC
 LIMIT $1;
`
	rows, err := r.pool.Query(ctx, sql, limit)
	if err != nil {
		return nil, fmt.Errorf("List items: %w", err)
	}
	defer rows.Close()
	var out []*model.CatalogItem
	for rows.Next() {
		var it model.CatalogItem
		if err := rows.Scan(&it.Key, &it.Title, &it.FileID, &it.ChannelMsgID, &it.RetentionHours, &it.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, &it)
	}
	return out, rows.Err()
}
