package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rpattn/memberload/internal/config"
	"github.com/rpattn/memberload/internal/credential"
	"github.com/rpattn/memberload/internal/db"
	"github.com/rpattn/memberload/internal/domain"
	"github.com/rpattn/memberload/internal/ingestion"
	"github.com/rpattn/memberload/internal/middleware"
	"github.com/rpattn/memberload/internal/repository"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 30 * time.Second

// App holds the wired dependencies of a running process.
type App struct {
	Config  config.Config
	Logger  logrus.FieldLogger
	Conn    *db.Connection
	Logs    repository.IngestionLogRepository
	Service *ingestion.Service
}

// New connects to the database and wires the ingestion service.
func New(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (*App, error) {
	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := repository.NewPostgresStore(conn.Pool)
	logs := repository.NewIngestionLogRepository(conn.Pool)

	return &App{
		Config: cfg,
		Logger: logger,
		Conn:   conn,
		Logs:   logs,
		Service: ingestion.NewService(
			store,
			logs,
			credential.Static(cfg.Upload.InitialCredential),
			ServiceOptions(cfg.Upload),
			logger,
		),
	}, nil
}

// Close releases the database pool.
func (a *App) Close() {
	if a.Conn != nil {
		a.Conn.Close()
	}
}

// ServiceOptions maps upload configuration onto pipeline options.
func ServiceOptions(cfg config.UploadConfig) ingestion.Options {
	types := make([]domain.IdentityType, 0, len(cfg.NationalIDTypes))
	for _, t := range cfg.NationalIDTypes {
		types = append(types, domain.IdentityType(t))
	}
	return ingestion.Options{
		CallTimeout:     cfg.CallTimeout,
		ReferenceMode:   cfg.ReferenceMode,
		NationalIDTypes: types,
		Parse:           ingestion.ParseOptions{QuotedFields: cfg.QuotedFields},
	}
}

// NewRouter builds the HTTP surface: upload, batch logs, metrics and health.
func NewRouter(
	service *ingestion.Service,
	logs repository.IngestionLogRepository,
	cfg config.ServerConfig,
	logger logrus.FieldLogger,
) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /api/members/upload", ingestion.NewHTTPHandler(service, logger))
	mux.Handle("GET /api/members/uploads/{batchID}/logs", ingestion.NewLogsHandler(logs))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	return corsHandler.Handler(middleware.LoggingMiddleware(logger)(mux))
}

// Serve runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func (a *App) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:         a.Config.Server.Addr,
		Handler:      NewRouter(a.Service, a.Logs, a.Config.Server, a.Logger),
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.WithField("addr", server.Addr).Info("starting member upload server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
