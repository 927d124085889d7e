package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/skyready/logbook-sync/internal/common"
	"github.com/skyready/logbook-sync/internal/dbx"
	"github.com/skyready/logbook-sync/internal/logging"
	"github.com/skyready/logbook-sync/internal/server/models"
	"github.com/skyready/logbook-sync/internal/server/repositories/entries"
	"github.com/skyready/logbook-sync/internal/server/repositories/repomanager"
)

// OutboxEventType is stamped on every outbox row a push writes.
const OutboxEventType = "sync_push"

// PushRequest is one batch of client-side changes plus the watermark the
// client last pulled at.
type PushRequest struct {
	LastPulledAt int64
	Changes      models.ChangeSet
}

// PushResult reports the server timestamp and the per-item conflicts. The
// conflict list is the only channel through which the client learns it
// must reconcile.
type PushResult struct {
	Timestamp int64
	Conflicts []models.Conflict
}

// PushService ingests a change batch inside one logical transaction with
// per-item savepoint isolation: a failed item rolls back alone and its
// siblings still commit, together with exactly one outbox row.
type PushService struct {
	db     *sql.DB
	rm     repomanager.RepositoryManager
	logger logging.Logger
}

func NewPushService(db *sql.DB, rm repomanager.RepositoryManager, logger logging.Logger) *PushService {
	return &PushService{db: db, rm: rm, logger: logger.With("module", "push")}
}

// Push applies the batch. Validation failures abort the whole request
// before anything is written; conflicts are recovered per item and
// surfaced in the result.
func (s *PushService) Push(ctx context.Context, userID string, req PushRequest) (*PushResult, error) {
	if err := validateChanges(&req.Changes.LogbookEntries); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(req.Changes)
	if err != nil {
		return nil, fmt.Errorf("changes encode error: %w", err)
	}

	now := time.Now()
	result := &PushResult{
		Timestamp: now.UnixMilli(),
		Conflicts: []models.Conflict{},
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.rm.Entries(tx)

		for i := range req.Changes.LogbookEntries.Created {
			if err := s.applyCreate(ctx, tx, repo, userID, &req.Changes.LogbookEntries.Created[i], req.LastPulledAt, now, i, result); err != nil {
				return err
			}
		}

		for i := range req.Changes.LogbookEntries.Updated {
			if err := s.applyUpdate(ctx, repo, userID, &req.Changes.LogbookEntries.Updated[i], req.LastPulledAt, now, result); err != nil {
				return err
			}
		}

		for _, entryID := range req.Changes.LogbookEntries.Deleted {
			n, err := repo.SoftDelete(ctx, entryID, userID, now)
			if err != nil {
				return err
			}
			if n == 0 {
				// Already deleted or never existed; deletes are idempotent.
				s.logger.Debug(ctx, "delete matched no row", "entry_id", entryID)
			}
		}

		return s.rm.Outbox(tx).Insert(ctx, OutboxEventType, userID, payload)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "push committed", "user_id", userID,
		"created", len(req.Changes.LogbookEntries.Created),
		"updated", len(req.Changes.LogbookEntries.Updated),
		"deleted", len(req.Changes.LogbookEntries.Deleted),
		"conflicts", len(result.Conflicts))

	return result, nil
}

func (s *PushService) applyCreate(ctx context.Context, tx dbx.DBTX, repo entries.Repository,
	userID string, e *models.Entry, lastPulledAt int64, now time.Time, idx int, result *PushResult) error {

	e.UserID = userID

	if e.Signed() && !VerifySignature(e) {
		result.Conflicts = append(result.Conflicts, models.Conflict{
			EntryID: e.EntryID,
			Type:    models.ConflictSignatureInvalid,
		})
		return nil
	}

	// The insert runs under a savepoint so a duplicate entry_id poisons
	// neither the transaction nor the sibling items.
	err := dbx.WithSavepoint(ctx, tx, fmt.Sprintf("create_%d", idx), func(ctx context.Context) error {
		return repo.Insert(ctx, e, now)
	})
	if errors.Is(err, common.ErrAlreadyExists) {
		result.Conflicts = append(result.Conflicts, models.Conflict{
			EntryID:         e.EntryID,
			Type:            models.ConflictAlreadyExists,
			ServerTimestamp: result.Timestamp,
		})
		return nil
	}
	if err != nil {
		return err
	}

	if e.Signed() && e.InstructorUserID != "" {
		created, err := mirrorSigned(ctx, repo, e, now)
		if err != nil {
			return err
		}
		if created {
			s.logger.Info(ctx, "mirror entry created", "source_entry_id", e.EntryID,
				"instructor_user_id", e.InstructorUserID)
		}
	}
	return nil
}

func (s *PushService) applyUpdate(ctx context.Context, repo entries.Repository,
	userID string, u *models.EntryUpdate, lastPulledAt int64, now time.Time, result *PushResult) error {

	data := &u.Data
	data.EntryID = u.EntryID
	data.UserID = userID

	if data.Signed() && !VerifySignature(data) {
		result.Conflicts = append(result.Conflicts, models.Conflict{
			EntryID: u.EntryID,
			Type:    models.ConflictSignatureInvalid,
		})
		return nil
	}

	storedAt, found, err := repo.UpdatedAt(ctx, u.EntryID, userID)
	if err != nil {
		return err
	}
	if found && ServerNewer(storedAt, lastPulledAt) {
		// Server wins; the client must re-pull before this update can land.
		result.Conflicts = append(result.Conflicts, models.Conflict{
			EntryID:         u.EntryID,
			Type:            models.ConflictServerNewer,
			ServerTimestamp: storedAt.UnixMilli(),
		})
		return nil
	}

	n, err := repo.Update(ctx, u.EntryID, userID, data, now)
	if err != nil {
		return err
	}
	if n == 0 {
		s.logger.Warn(ctx, "update matched no row", "entry_id", u.EntryID)
		return nil
	}

	if data.Signed() && data.InstructorUserID != "" {
		created, err := mirrorSigned(ctx, repo, data, now)
		if err != nil {
			return err
		}
		if created {
			s.logger.Info(ctx, "mirror entry created", "source_entry_id", data.EntryID,
				"instructor_user_id", data.InstructorUserID)
		}
	}
	return nil
}

// validateChanges enforces the hard preconditions that abort the whole
// request: every branch item must carry a well-formed entry id, and
// created entries must carry a date.
func validateChanges(ch *models.EntryChanges) error {
	for i := range ch.Created {
		e := &ch.Created[i]
		if e.EntryID == "" {
			return fmt.Errorf("%w: created entry without entryId", common.ErrValidation)
		}
		if uuid.Validate(e.EntryID) != nil {
			return fmt.Errorf("%w: entryId %q is not a UUID", common.ErrValidation, e.EntryID)
		}
		if e.Date == "" {
			return fmt.Errorf("%w: entry %s has no date", common.ErrValidation, e.EntryID)
		}
	}
	for i := range ch.Updated {
		if ch.Updated[i].EntryID == "" {
			return fmt.Errorf("%w: updated entry without entryId", common.ErrValidation)
		}
	}
	for _, id := range ch.Deleted {
		if id == "" {
			return fmt.Errorf("%w: deleted entry without entryId", common.ErrValidation)
		}
	}
	return nil
}
