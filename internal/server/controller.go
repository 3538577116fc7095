// Package server exposes the results catalog over a small read-only
// HTTP API. It serves the same rows the pipeline persists: runs,
// per-spectrum features, and mixture solves.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/spectralsuite/nirspec/internal/database"
)

// Controller represents the results API server
type Controller struct {
	Server   http.Server
	db       *database.Client
	logger   *zap.SugaredLogger
	handlers *Handlers
}

// NewController creates a results API server over the given catalog
func NewController(db *database.Client, listenAddr string, logger *zap.SugaredLogger) *Controller {
	ctrl := &Controller{
		db:       db,
		logger:   logger,
		handlers: NewHandlers(db, logger),
	}

	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/runs", ctrl.handlers.ListRuns).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}/features", ctrl.handlers.RunFeatures).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}/mixtures", ctrl.handlers.RunMixtures).Methods(http.MethodGet)
	api.HandleFunc("/spectra/{name}/features", ctrl.handlers.SpectrumFeatures).Methods(http.MethodGet)
	api.HandleFunc("/health", ctrl.handlers.Health).Methods(http.MethodGet)

	chain := handlers.CompressHandler(
		handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(
			ctrl.requestLogger(router),
		),
	)

	ctrl.Server = http.Server{
		Addr:         listenAddr,
		Handler:      chain,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return ctrl
}

// Start runs the server until the context is cancelled
func (c *Controller) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		c.logger.Infof("results API listening on %s", c.Server.Addr)
		if err := c.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return c.Server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// statusRecorder captures the response code for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (c *Controller) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, req)
		c.logger.Infow("request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote", req.RemoteAddr,
		)
	})
}
