// Package server wires the auth server together: configuration, logging,
// PostgreSQL, the REST API, the gRPC health service and optional log
// archiving. It also handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/trackmeta/internal/logging"
	"github.com/dmitrijs2005/trackmeta/internal/server/config"
	"github.com/dmitrijs2005/trackmeta/internal/server/httpapi"
	"github.com/dmitrijs2005/trackmeta/internal/server/logarchive"
	"github.com/dmitrijs2005/trackmeta/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/trackmeta/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"

	gs "github.com/dmitrijs2005/trackmeta/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	logFiles    *logging.LogFiles
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	api         *httpapi.API
}

func NewApp(c *config.Config) (*App, error) {

	logFiles, err := logging.OpenLogFiles(c.AppLogPath, c.ErrorLogPath)
	if err != nil {
		return nil, fmt.Errorf("log init error: %w", err)
	}

	sl := slog.New(logging.NewFanoutHandler(
		slog.NewJSONHandler(os.Stdout, nil),
		logFiles.Handler(slog.LevelInfo),
	))
	logger := logging.NewSlogLogger(sl)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		_ = logFiles.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		_ = db.Close()
		_ = logFiles.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	us := services.NewUserService(db, rm, c)
	ls := services.NewClientLogService(logFiles.Handler(slog.LevelDebug))

	api := httpapi.New(us, ls,
		httpapi.WithLogger(logger.With("module", "http")),
		httpapi.WithDuplicateMessages(c.DupeUserMessage, c.DupeEmailMessage),
		httpapi.WithRateLimit(c.RateLimitRPS, c.RateLimitBurst),
		httpapi.WithCORSOrigins(c.CORSOrigins),
	)

	return &App{config: c, logger: logger, logFiles: logFiles, db: db, repomanager: rm, api: api}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.HTTPAddr,
		Handler:           app.api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "HTTP shutdown error", "err", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.HTTPAddr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s, err := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.db.PingContext, 5*time.Second)

	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	} else {

		if err := s.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}
}

func (app *App) startLogArchiver(ctx context.Context) {
	client, err := logarchive.NewS3Client(ctx, app.config)
	if err != nil {
		app.logger.Error(ctx, "log archive disabled", "err", err)
		return
	}

	a := logarchive.NewArchiver(client, app.config.S3Bucket, app.config.LogArchiveInterval, app.logger,
		app.config.AppLogPath, app.config.ErrorLogPath)
	if err := a.Run(ctx); err != nil {
		app.logger.Error(ctx, "log archive stopped", "err", err)
	}
}

// Run applies migrations and serves until ctx is cancelled or a signal
// arrives. Resources are released before it returns.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.Close()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		app.logger.Error(ctx, "migrations failed", "err", err)
		return fmt.Errorf("migrations: %w", err)
	}

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	if app.config.S3Bucket != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startLogArchiver(ctx)
		}()
	}

	wg.Wait()

	app.logger.Info(context.WithoutCancel(ctx), "App stopped")
	return nil
}

// Close releases the database and log files.
func (app *App) Close() error {
	errDB := app.db.Close()
	errLogs := app.logFiles.Close()
	return errors.Join(errDB, errLogs)
}
