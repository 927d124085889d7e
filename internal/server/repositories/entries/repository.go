package entries

import (
	"context"
	"time"

	"github.com/skyready/logbook-sync/internal/server/models"
)

// Repository is the storage contract for logbook entries. Implementations
// are bound to a dbx.DBTX, so the same repository runs against a pooled
// connection or inside a push transaction.
type Repository interface {
	// Insert adds a new entry. Returns common.ErrAlreadyExists when a row
	// with the same entry_id is already present.
	Insert(ctx context.Context, e *models.Entry, now time.Time) error

	// Update applies a full-column update to the non-deleted row owned by
	// (entryID, userID). Returns the number of rows affected.
	Update(ctx context.Context, entryID, userID string, data *models.Entry, now time.Time) (int64, error)

	// UpdatedAt fetches the stored updated_at of the non-deleted row owned
	// by (entryID, userID). found is false when no such row exists.
	UpdatedAt(ctx context.Context, entryID, userID string) (updatedAt time.Time, found bool, err error)

	// SoftDelete stamps deleted_at/updated_at on the non-deleted row owned
	// by (entryID, userID). Zero rows affected means the row was already
	// deleted or never existed; deletes are idempotent.
	SoftDelete(ctx context.Context, entryID, userID string, now time.Time) (int64, error)

	// SelectChanged returns rows for userID created, updated, or deleted
	// after since, ordered by the latest of those stamps, offset/limited
	// for cursor pagination.
	SelectChanged(ctx context.Context, userID string, since time.Time, limit, offset int) ([]*models.Entry, error)

	// HasMirror reports whether a non-deleted mirror of sourceEntryID
	// already exists in ownerID's logbook.
	HasMirror(ctx context.Context, sourceEntryID, ownerID string) (bool, error)
}
