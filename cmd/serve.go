package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"invoicedesk/internal/caching"
	"invoicedesk/internal/handlers"
	"invoicedesk/internal/jobs/background"
	"invoicedesk/internal/logger"
	"invoicedesk/internal/middleware"
	"invoicedesk/internal/repositories"
	"invoicedesk/internal/services"
	"invoicedesk/pkg/database"

	"github.com/spf13/cobra"
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply the database schema before serving")
}

func serve(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.WithComponent("server")

	pool, err := database.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.ClosePool(pool)

	if migrateOnStart {
		if err := database.Migrate(ctx, pool); err != nil {
			return err
		}
	}

	store := repositories.NewStore(pool)
	userRepo := repositories.NewUserRepo(pool)

	redisClient := caching.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer redisClient.Close()
	idempotency := caching.NewRedisIdempotencyStore(redisClient)

	storage, err := services.NewDocumentStorage(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.UseSSL, cfg.Minio.Bucket)
	if err != nil {
		return err
	}

	events := services.NewRedisEventPublisher(redisClient, cfg.Redis.EventsChannel)
	invoiceService := services.NewInvoiceService(store, services.WithEventPublisher(events))
	transactionService := services.NewTransactionService(store)
	documentService := services.NewDocumentService(invoiceService, storage, cfg.App.Currency)
	authService := services.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiry)
	auditService := services.NewLedgerAuditService(store)

	jwtAuth, err := middleware.NewJWTAuth(ctx, cfg.JWT.Secret, cfg.JWT.JWKSURL)
	if err != nil {
		return err
	}
	defer jwtAuth.Close()

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	go limiter.Run(ctx, time.Minute)

	scheduler, err := background.NewJobScheduler(auditService, cfg.Audit.Interval)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Warn().Err(err).Msg("Scheduler did not stop cleanly")
		}
	}()

	e := handlers.NewRouter(handlers.RouterDeps{
		Auth:         jwtAuth,
		RateLimiter:  limiter,
		Idempotency:  idempotency,
		Invoices:     invoiceService,
		Transactions: transactionService,
		Documents:    documentService,
		Accounts:     authService,
		Health:       handlers.NewHealthHandlers(pool, idempotency, version),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.App.Port).Str("version", version).Msg("Starting server")
		if err := e.Start(":" + cfg.App.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
