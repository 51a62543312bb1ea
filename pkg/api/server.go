// Package api serves the replay archive and stateless codec operations over
// a REST API.
//
// Every route under /api/v1 requires the X-API-Key header. Prometheus
// metrics are served unauthenticated at /metrics.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ssargent/gdr/pkg/codec"
)

const shutdownTimeout = 10 * time.Second

// NewRouter builds the HTTP handler for a server
func NewRouter(server *Server) http.Handler {
	metrics := server.metrics

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: server.log, NoColor: true}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition", sourceFormatHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(metrics.InstrumentAuthMiddleware(apiKeyMiddleware(server.config.APIKey)))

		// Health check
		r.Get("/health", metrics.InstrumentHandler("GET", "/api/v1/health", server.handleHealth))

		// Archive
		r.Post("/replays", metrics.InstrumentHandler("POST", "/api/v1/replays", server.handleCreateReplay))
		r.Get("/replays", metrics.InstrumentHandler("GET", "/api/v1/replays", server.handleListReplays))
		r.Get("/replays/{id}", metrics.InstrumentHandler("GET", "/api/v1/replays/{id}", server.handleGetReplay))
		r.Get("/replays/{id}/summary", metrics.InstrumentHandler("GET", "/api/v1/replays/{id}/summary", server.handleReplaySummary))
		r.Delete("/replays/{id}", metrics.InstrumentHandler("DELETE", "/api/v1/replays/{id}", server.handleDeleteReplay))

		// Stateless codec operations
		r.Post("/convert", metrics.InstrumentHandler("POST", "/api/v1/convert", server.handleConvert))
		r.Post("/inspect", metrics.InstrumentHandler("POST", "/api/v1/inspect", server.handleInspect))
	})

	return r
}

// StartServer serves the API until ctx is cancelled, then shuts down
// gracefully
func StartServer(ctx context.Context, archive IReplayArchive, c *codec.ReplayCodec, config ServerConfig) error {
	server := NewServer(archive, c, config, NewMetrics())

	bind := config.Bind
	if bind == "" {
		bind = "127.0.0.1"
	}
	addr := net.JoinHostPort(bind, strconv.Itoa(config.Port))

	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(server),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Start background metrics updater
	go server.startMetricsUpdater(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	server.log.WithField("addr", addr).Info("starting gdr REST API server")
	server.log.Infof("metrics available at http://%s/metrics", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		server.log.Info("shutting down gdr REST API server")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		return srv.Shutdown(shutdownCtx)
	}
}
