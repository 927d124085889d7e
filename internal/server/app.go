// Package server initializes and runs the sync backend: it opens the
// connection provider, applies migrations, wires the pull/push services
// and the outbox relay, and serves the HTTP sync endpoints until shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/skyready/logbook-sync/internal/logging"
	"github.com/skyready/logbook-sync/internal/server/config"
	"github.com/skyready/logbook-sync/internal/server/eventstore"
	"github.com/skyready/logbook-sync/internal/server/httpapi"
	"github.com/skyready/logbook-sync/internal/server/repositories/repomanager"
	"github.com/skyready/logbook-sync/internal/server/services"
	"github.com/skyready/logbook-sync/internal/server/shared/db"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	provider *db.Provider
	pulls    *services.PullService
	pushes   *services.PushService
	relay    *services.RelayService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	provider, err := db.Open(c.DatabaseDSN, c.DBMaxOpenConns, c.DBMaxIdleConns)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, provider.DB()); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	store, err := eventstore.NewDynamoStore(ctx, eventstore.Options{
		Table:        c.EventsTable,
		Region:       c.AWSRegion,
		BaseEndpoint: c.AWSBaseEndpoint,
		AccessKey:    c.AWSAccessKey,
		SecretKey:    c.AWSSecretKey,
	})
	if err != nil {
		return nil, fmt.Errorf("event store init error: %w", err)
	}

	return &App{
		config:   c,
		logger:   logger,
		provider: provider,
		pulls:    services.NewPullService(provider.DB(), rm, logger),
		pushes:   services.NewPushService(provider.DB(), rm, logger),
		relay:    services.NewRelayService(provider.DB(), rm, store, logger, c.RelayInterval),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves the sync endpoints and drains the outbox until interrupted.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app")
	app.initSignalHandler(cancelFunc)

	srv := httpapi.NewServer(app.config.EndpointAddr, app.logger, app.pulls, app.pushes, app.config.SecretKey)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.relay.Run(ctx); err != nil && ctx.Err() == nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.provider.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}

// RunRelay drains the outbox on schedule without serving HTTP; used by the
// standalone relay binary in deployments where the drain runs separately.
func (app *App) RunRelay(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting relay")
	app.initSignalHandler(cancelFunc)

	if err := app.relay.Run(ctx); err != nil && ctx.Err() == nil {
		app.logger.Error(ctx, err.Error())
	}

	if err := app.provider.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}
