package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweetshop/sweets-api/internal/api"
	"github.com/sweetshop/sweets-api/internal/core/service"
	"github.com/sweetshop/sweets-api/internal/infrastructure/db/mongo"
	"github.com/sweetshop/sweets-api/internal/infrastructure/db/postgres"
	"github.com/sweetshop/sweets-api/internal/infrastructure/db/redis"
	"github.com/sweetshop/sweets-api/internal/infrastructure/media"
	"github.com/sweetshop/sweets-api/internal/infrastructure/queue"
	"github.com/sweetshop/sweets-api/internal/pkg/config"
	"github.com/sweetshop/sweets-api/internal/pkg/token"
	"github.com/sweetshop/sweets-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

var (
	auditWorkers int
	skipMigrate  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVar(&auditWorkers, "audit-workers", 0, "stock movement writer goroutines (0 = default)")
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not create indexes and tables on startup")
}

func serve(ctx context.Context) error {
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close(context.Background())
	log := a.log

	if !skipMigrate {
		if err := a.migrate(ctx); err != nil {
			return err
		}
	}

	uploader, err := media.New(ctx, a.cfg.Media)
	if err != nil {
		return err
	}
	log.Info().Str("driver", a.cfg.Media.Driver).Msg("media uploader ready")

	// Audit writes leave the request path through the dispatcher.
	audit := queue.NewDispatcher(auditWorkers, mongo.NewStockMovementRepository(a.mongoDB), logger.Component("audit"))
	audit.Start(ctx)
	defer audit.Stop()

	var guard service.PurchaseGuard
	if a.rdb != nil {
		guard = redis.NewPurchaseGuard(a.rdb, a.cfg.Redis.IdempotencyTTL)
	}

	tokens := token.NewIssuer(a.cfg.JWTSecret, a.cfg.TokenTTL)
	authSvc := service.NewAuthService(a.userRepository(), tokens, logger.Component("auth"))
	catalogSvc := service.NewCatalogService(
		mongo.NewSweetRepository(a.mongoDB),
		audit,
		uploader,
		guard,
		logger.Component("catalog"),
	)

	e := api.NewRouter(api.Deps{
		Logger:          log,
		AuthService:     authSvc,
		CatalogService:  catalogSvc,
		Tokens:          tokens,
		ReadinessChecks: a.readinessChecks(),
		AllowedOrigins:  a.cfg.AllowedOrigins,
		MaxUploadMB:     a.cfg.MaxUploadMB,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", a.cfg.Port).Str("env", a.cfg.Env).Msg("server starting")
		if err := e.Start(":" + a.cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server failed")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

// migrate creates indexes, the postgres users table and the MinIO bucket.
// Every step is idempotent.
func (a *app) migrate(ctx context.Context) error {
	if err := mongo.EnsureIndexes(ctx, a.mongoDB); err != nil {
		return err
	}
	a.log.Info().Msg("mongodb indexes ensured")

	if a.pg != nil {
		if err := postgres.NewUserRepository(a.pg).Migrate(ctx); err != nil {
			return err
		}
		a.log.Info().Msg("postgres users table ensured")
	}

	if a.cfg.Media.Driver == config.MediaDriverMinio {
		uploader, err := media.NewMinioUploader(a.cfg.Media.Minio, a.cfg.Media.Folder)
		if err != nil {
			return err
		}
		if err := uploader.EnsureBucket(ctx); err != nil {
			return err
		}
		a.log.Info().Str("bucket", a.cfg.Media.Minio.Bucket).Msg("minio bucket ensured")
	}
	return nil
}
