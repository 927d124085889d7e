// Package outbox provides the PostgreSQL-backed repository for the
// transactional outbox table.
package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/skyready/logbook-sync/internal/dbx"
	"github.com/skyready/logbook-sync/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, eventType, userID string, payload []byte) error {
	query := `INSERT INTO outbox (event_type, user_id, payload, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query, eventType, userID, payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SelectUnprocessed(ctx context.Context, limit int) ([]*models.OutboxEvent, error) {
	query := `SELECT id, event_type, user_id, payload, created_at
		FROM outbox
		WHERE processed = false
		ORDER BY created_at
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select outbox events: %w", err)
	}
	defer rows.Close()

	var result []*models.OutboxEvent
	for rows.Next() {
		var ev models.OutboxEvent
		if err := rows.Scan(&ev.ID, &ev.EventType, &ev.UserID, &ev.Payload, &ev.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) MarkProcessed(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE outbox SET processed = true, processed_at = $1 WHERE id = $2`

	res, err := r.db.ExecContext(ctx, query, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}
