package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/skyready/logbook-sync/internal/logging"
	"github.com/skyready/logbook-sync/internal/server/models"
	"github.com/skyready/logbook-sync/internal/server/repositories/repomanager"
)

// EventStore is the downstream sink the relay drains the outbox into.
// Implementations must tolerate duplicate deliveries: the relay is
// at-least-once and consumers treat event ids as idempotency keys.
type EventStore interface {
	Put(ctx context.Context, ev *models.OutboxEvent) error
}

// RelayService forwards unprocessed outbox rows to the event store on a
// fixed schedule. Rows are processed sequentially and marked one at a
// time: a failed row is retried on the next run without blocking or
// re-processing its batch siblings.
type RelayService struct {
	db       *sql.DB
	rm       repomanager.RepositoryManager
	store    EventStore
	logger   logging.Logger
	interval time.Duration
}

func NewRelayService(db *sql.DB, rm repomanager.RepositoryManager, store EventStore,
	logger logging.Logger, interval time.Duration) *RelayService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &RelayService{
		db:       db,
		rm:       rm,
		store:    store,
		logger:   logger.With("module", "relay"),
		interval: interval,
	}
}

// Run drains once immediately, then on every tick until ctx is canceled.
func (s *RelayService) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if processed, failed, err := s.RunOnce(ctx); err != nil {
			s.logger.Error(ctx, "relay run failed", "error", err.Error())
		} else if processed > 0 || failed > 0 {
			s.logger.Info(ctx, "relay run finished", "processed", processed, "failed", failed)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce drains up to MaxPageSize rows. The read runs in autocommit so no
// connection is held mid-transaction while downstream writes happen; each
// row is then written downstream and marked processed independently.
// Failed rows stay unprocessed and surface only through monitoring.
func (s *RelayService) RunOnce(ctx context.Context) (processed, failed int, err error) {
	repo := s.rm.Outbox(s.db)

	events, err := repo.SelectUnprocessed(ctx, MaxPageSize)
	if err != nil {
		return 0, 0, err
	}

	for _, ev := range events {
		if err := s.store.Put(ctx, ev); err != nil {
			s.logger.Error(ctx, "event store write failed", "event_id", ev.ID, "error", err.Error())
			failed++
			continue
		}
		if err := repo.MarkProcessed(ctx, ev.ID, time.Now()); err != nil {
			// The event reached the store but stays unprocessed; the next
			// run re-delivers it, which consumers de-duplicate by id.
			s.logger.Error(ctx, "mark processed failed", "event_id", ev.ID, "error", err.Error())
			failed++
			continue
		}
		processed++
	}

	return processed, failed, nil
}
