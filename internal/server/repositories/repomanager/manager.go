package repomanager

import (
	"context"
	"database/sql"

	"github.com/skyready/logbook-sync/internal/dbx"
	"github.com/skyready/logbook-sync/internal/server/repositories/entries"
	"github.com/skyready/logbook-sync/internal/server/repositories/outbox"
)

// RepositoryManager vends repositories bound to a DBTX, so a service can
// run the same repository code against the pooled connection or inside a
// transaction it controls.
type RepositoryManager interface {
	Entries(db dbx.DBTX) entries.Repository
	Outbox(db dbx.DBTX) outbox.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
