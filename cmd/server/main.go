// Command server runs the Skiline Recruitment submission backend.
//
// @title                       Skiline Recruitment API
// @version                     1.0
// @description                 Job application and contact form submissions for the Skiline Recruitment site.
// @BasePath                    /api
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	_ "github.com/tbourn/skiline-backend/docs"
	"github.com/tbourn/skiline-backend/internal/config"
	httpapi "github.com/tbourn/skiline-backend/internal/http"
	"github.com/tbourn/skiline-backend/internal/notify"
	"github.com/tbourn/skiline-backend/internal/observability"
	"github.com/tbourn/skiline-backend/internal/repo"
	"github.com/tbourn/skiline-backend/internal/services"
	"github.com/tbourn/skiline-backend/internal/sysutil"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.ConfigureLogger(cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName, os.Stdout)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ver := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	store, keys, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	notifier := notify.New(cfg.Mail)
	tasks := services.NewBackground()
	svc := services.NewSubmissionService(store, keys, notifier, tasks, cfg.IdempotencyTTL)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{Submissions: svc, Keys: keys}, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("store", cfg.StoreDriver).
			Bool("mail_degraded", notifier.Degraded()).
			Str("version", ver).
			Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	// Stop accepting requests first, then drain pending notifications.
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	if err := tasks.Wait(sctx); err != nil {
		log.Warn().Err(err).Msg("pending notifications abandoned")
	}
	log.Info().Msg("bye")
	return nil
}

// openStore selects the submission store named by STORE_DRIVER. The memory
// store loses everything on restart; sqlite persists to DB_PATH.
func openStore(cfg config.Config) (services.SubmissionStore, services.IdempotencyStore, func(), error) {
	if cfg.StoreDriver != config.StoreSQLite {
		log.Warn().Msg("using in-memory store; submissions are lost on restart")
		return repo.NewMemoryStore(), repo.NewMemoryIdempotency(), func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, nil, nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := repo.OpenSQLite(cfg.DBPath, cfg.OTEL.Enabled)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, nil, nil, fmt.Errorf("migrate: %w", err)
	}
	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return repo.NewGormStore(db), repo.NewGormIdempotency(db), closeFn, nil
}
