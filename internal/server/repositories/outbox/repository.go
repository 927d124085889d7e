package outbox

import (
	"context"
	"time"

	"github.com/skyready/logbook-sync/internal/server/models"
)

// Repository is the storage contract for the transactional outbox.
type Repository interface {
	// Insert appends one event row. Called inside the push transaction so
	// the event commits together with the mutations it describes.
	Insert(ctx context.Context, eventType, userID string, payload []byte) error

	// SelectUnprocessed returns up to limit unprocessed rows, oldest first.
	SelectUnprocessed(ctx context.Context, limit int) ([]*models.OutboxEvent, error)

	// MarkProcessed flags one row as delivered.
	MarkProcessed(ctx context.Context, id int64, at time.Time) error
}
