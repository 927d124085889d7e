package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/skyready/logbook-sync/internal/dbx"
	"github.com/skyready/logbook-sync/internal/logging"
	"github.com/skyready/logbook-sync/internal/server/models"
	"github.com/skyready/logbook-sync/internal/server/repositories/entries"
	"github.com/skyready/logbook-sync/internal/server/repositories/outbox"
)

// -------- test fakes --------

type fakeEntriesRepo struct {
	inserted   []*models.Entry
	insertErrs map[string]error // by entry id

	updatedAt  map[string]time.Time // stored updated_at by entry id
	updates    []*models.Entry
	updateRows int64

	deleted    []string
	deleteRows map[string]int64 // rows affected by entry id, default 0

	mirrors map[string]bool // source entry id -> mirror exists

	selChanged []*models.Entry
	selErr     error
	gotSince   time.Time
	gotLimit   int
	gotOffset  int
}

func newFakeEntriesRepo() *fakeEntriesRepo {
	return &fakeEntriesRepo{
		insertErrs: map[string]error{},
		updatedAt:  map[string]time.Time{},
		deleteRows: map[string]int64{},
		mirrors:    map[string]bool{},
	}
}

func (f *fakeEntriesRepo) Insert(ctx context.Context, e *models.Entry, now time.Time) error {
	if err := f.insertErrs[e.EntryID]; err != nil {
		return err
	}
	f.inserted = append(f.inserted, e)
	if e.MirroredFromEntryID != "" {
		f.mirrors[e.MirroredFromEntryID] = true
	}
	return nil
}

func (f *fakeEntriesRepo) Update(ctx context.Context, entryID, userID string, data *models.Entry, now time.Time) (int64, error) {
	f.updates = append(f.updates, data)
	return f.updateRows, nil
}

func (f *fakeEntriesRepo) UpdatedAt(ctx context.Context, entryID, userID string) (time.Time, bool, error) {
	at, ok := f.updatedAt[entryID]
	return at, ok, nil
}

func (f *fakeEntriesRepo) SoftDelete(ctx context.Context, entryID, userID string, now time.Time) (int64, error) {
	f.deleted = append(f.deleted, entryID)
	return f.deleteRows[entryID], nil
}

func (f *fakeEntriesRepo) SelectChanged(ctx context.Context, userID string, since time.Time, limit, offset int) ([]*models.Entry, error) {
	f.gotSince, f.gotLimit, f.gotOffset = since, limit, offset
	if f.selErr != nil {
		return nil, f.selErr
	}
	if offset > len(f.selChanged) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.selChanged) {
		end = len(f.selChanged)
	}
	return f.selChanged[offset:end], nil
}

func (f *fakeEntriesRepo) HasMirror(ctx context.Context, sourceEntryID, ownerID string) (bool, error) {
	return f.mirrors[sourceEntryID], nil
}

type outboxInsert struct {
	eventType string
	userID    string
	payload   []byte
}

type fakeOutboxRepo struct {
	inserts []outboxInsert

	events    []*models.OutboxEvent
	selErr    error
	processed map[int64]time.Time
	markErrs  map[int64]error
}

func newFakeOutboxRepo() *fakeOutboxRepo {
	return &fakeOutboxRepo{
		processed: map[int64]time.Time{},
		markErrs:  map[int64]error{},
	}
}

func (f *fakeOutboxRepo) Insert(ctx context.Context, eventType, userID string, payload []byte) error {
	f.inserts = append(f.inserts, outboxInsert{eventType, userID, payload})
	return nil
}

func (f *fakeOutboxRepo) SelectUnprocessed(ctx context.Context, limit int) ([]*models.OutboxEvent, error) {
	if f.selErr != nil {
		return nil, f.selErr
	}
	var result []*models.OutboxEvent
	for _, ev := range f.events {
		if _, done := f.processed[ev.ID]; !done {
			result = append(result, ev)
		}
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func (f *fakeOutboxRepo) MarkProcessed(ctx context.Context, id int64, at time.Time) error {
	if err := f.markErrs[id]; err != nil {
		return err
	}
	f.processed[id] = at
	return nil
}

type fakeRepoManager struct {
	entries *fakeEntriesRepo
	outbox  *fakeOutboxRepo
}

func (m *fakeRepoManager) Entries(db dbx.DBTX) entries.Repository { return m.entries }
func (m *fakeRepoManager) Outbox(db dbx.DBTX) outbox.Repository   { return m.outbox }
func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

type fakeEventStore struct {
	puts    []*models.OutboxEvent
	putErrs map[int64]error
}

func (f *fakeEventStore) Put(ctx context.Context, ev *models.OutboxEvent) error {
	if err := f.putErrs[ev.ID]; err != nil {
		return err
	}
	f.puts = append(f.puts, ev)
	return nil
}

// -------- helpers --------

func testLogger(t *testing.T) logging.Logger {
	t.Helper()
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
