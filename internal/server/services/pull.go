// Package services implements the sync core: the pull cursor engine, the
// push ingestion engine with its conflict handling and mirror side effect,
// the signature validator, and the outbox relay.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/skyready/logbook-sync/internal/common"
	"github.com/skyready/logbook-sync/internal/logging"
	"github.com/skyready/logbook-sync/internal/server/models"
	"github.com/skyready/logbook-sync/internal/server/repositories/repomanager"
)

// MaxPageSize bounds the rows returned by one pull and the rows mutated by
// one relay run.
const MaxPageSize = 100

// PullRequest is the client's delta request: its last-pull watermark plus
// a numeric offset cursor for resuming a partial pull.
type PullRequest struct {
	LastPulledAt int64
	Cursor       string
	Limit        int
}

// PullResult classifies the changed rows and carries the next cursor.
// HasMore is true iff exactly limit rows were returned; the query fetches
// limit rows, not limit+1, so the flag is approximate at the boundary
// (source behavior, kept as documented).
type PullResult struct {
	Created   []*models.Entry
	Updated   []*models.Entry
	Deleted   []string
	Cursor    string
	HasMore   bool
	Timestamp int64
}

// PullService reads delta pages from the logbook store. Read-only; store
// errors propagate without retry.
type PullService struct {
	db     *sql.DB
	rm     repomanager.RepositoryManager
	logger logging.Logger
}

func NewPullService(db *sql.DB, rm repomanager.RepositoryManager, logger logging.Logger) *PullService {
	return &PullService{db: db, rm: rm, logger: logger.With("module", "pull")}
}

func (s *PullService) Pull(ctx context.Context, userID string, req PullRequest) (*PullResult, error) {
	limit := req.Limit
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}

	offset := 0
	if req.Cursor != "" {
		parsed, err := strconv.Atoi(req.Cursor)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("%w: bad cursor %q", common.ErrValidation, req.Cursor)
		}
		offset = parsed
	}

	since := time.UnixMilli(req.LastPulledAt)
	repo := s.rm.Entries(s.db)

	rows, err := repo.SelectChanged(ctx, userID, since, limit, offset)
	if err != nil {
		return nil, err
	}

	result := &PullResult{
		Created:   []*models.Entry{},
		Updated:   []*models.Entry{},
		Deleted:   []string{},
		Cursor:    strconv.Itoa(offset + len(rows)),
		HasMore:   len(rows) == limit,
		Timestamp: time.Now().UnixMilli(),
	}

	for _, e := range rows {
		switch {
		case e.DeletedAt > req.LastPulledAt:
			result.Deleted = append(result.Deleted, e.EntryID)
		case e.CreatedAt > req.LastPulledAt:
			result.Created = append(result.Created, e)
		default:
			result.Updated = append(result.Updated, e)
		}
	}

	s.logger.Debug(ctx, "pull page served", "user_id", userID,
		"created", len(result.Created), "updated", len(result.Updated),
		"deleted", len(result.Deleted), "has_more", result.HasMore)

	return result, nil
}
