package postgres

import (
	"context"
	"errors"
	"fmt"

	"telegram-drop-bot/internal/domain"
	"telegram-drop-bot/internal/domain/model"
	"telegram-drop-bot/internal/domain/ports/repository"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/oklog/ulid/v2"
)

// Ensure interface compliance
var _ repository.DeliveryLedger = (*PostgresDeliveryRepo)(nil)

// PostgresDeliveryRepo is the durable delivery ledger. IDs are ULIDs minted
// at Record time, monotonic within the process.
type PostgresDeliveryRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresDeliveryRepo(pool *pgxpool.Pool) *PostgresDeliveryRepo {
	return &PostgresDeliveryRepo{pool: pool}
}

func (r *PostgresDeliveryRepo) Record(ctx context.Context, rec *model.DeliveryRecord) (string, error) {
	const sql = `
INSERT INTO deliveries (id, chat_id, message_id, source_key, delivered_at, expire_at)
VALUES ($1, $2, $3, $4, $5, $6);
`
	id := ulid.Make().String()
	_, err := r.pool.Exec(ctx, sql,
		id, rec.ChatID, rec.MessageID, rec.SourceKey, rec.DeliveredAt, rec.ExpireAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// A delivery is recorded exactly once; a colliding id means the
			// caller broke that, not a recoverable condition.
			return "", fmt.Errorf("Record delivery %s: %w", id, domain.ErrInvalidArgument)
		}
		return "", fmt.Errorf("Record delivery: %w", err)
	}
	rec.ID = id
	return id, nil
}

func (r *PostgresDeliveryRepo) Remove(ctx context.Context, id string) error {
	// Idempotent: zero rows affected is fine, deletion attempts are
	// at-least-once.
	const sql = `DELETE FROM deliveries WHERE id = $1;`
	if _, err := r.pool.Exec(ctx, sql, id); err != nil {
		return fmt.Errorf("Remove delivery: %w", err)
	}
	return nil
}

func (r *PostgresDeliveryRepo) ListAll(ctx context.Context) ([]*model.DeliveryRecord, error) {
	const sql = `
SELECT id, chat_id, message_id, source_key, delivered_at, expire_at
  FROM deliveries
 ORDER BY expire_at;
`
	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("ListAll deliveries: %w", err)
	}
	defer rows.Close()
	var out []*model.DeliveryRecord
	for rows.Next() {
		var rec model.DeliveryRecord
		if err := rows.Scan(&rec.ID, &rec.ChatID, &rec.MessageID, &rec.SourceKey, &rec.DeliveredAt, &rec.ExpireAt); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}
