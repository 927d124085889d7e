// Package httpapi is the thin JSON-over-HTTP adapter in front of the sync
// services. The surrounding gateway stays out of scope; this package only
// decodes requests, resolves the caller from the access token, and maps
// service results and errors onto the wire.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/skyready/logbook-sync/internal/logging"
	"github.com/skyready/logbook-sync/internal/server/services"
)

// Puller and Pusher are the service seams the handlers call.
type Puller interface {
	Pull(ctx context.Context, userID string, req services.PullRequest) (*services.PullResult, error)
}

type Pusher interface {
	Push(ctx context.Context, userID string, req services.PushRequest) (*services.PushResult, error)
}

type Server struct {
	address   string
	logger    logging.Logger
	pulls     Puller
	pushes    Pusher
	jwtSecret []byte
}

func NewServer(address string, logger logging.Logger, pulls Puller, pushes Pusher, secretKey string) *Server {
	return &Server{
		address:   address,
		logger:    logger.With("module", "http_server"),
		pulls:     pulls,
		pushes:    pushes,
		jwtSecret: []byte(secretKey),
	}
}

// Router builds the route table: both sync operations sit behind the
// access-token middleware.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	sync := r.PathPrefix("/sync").Subrouter()
	sync.Use(s.accessTokenMiddleware)
	sync.HandleFunc("/pull", s.handlePull).Methods(http.MethodPost)
	sync.HandleFunc("/push", s.handlePush).Methods(http.MethodPost)

	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
