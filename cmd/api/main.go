package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/ashmitsharp/cashlens-recon/internal/config"
	"github.com/ashmitsharp/cashlens-recon/internal/database"
	"github.com/ashmitsharp/cashlens-recon/internal/handlers"
	"github.com/ashmitsharp/cashlens-recon/internal/logger"
	"github.com/ashmitsharp/cashlens-recon/internal/middleware"
	"github.com/ashmitsharp/cashlens-recon/internal/services"
	"github.com/ashmitsharp/cashlens-recon/internal/utils"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment, cfg.LogLevel)
	if envErr != nil {
		log.Debug().Msg(".env file not found, using system environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	pool, err := database.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConnections, cfg.DBConnectionTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		return err
	}
	log.Info().Msg("connected to database")

	store := database.NewStore(pool)

	storageService, err := services.NewStorageService(ctx, cfg.S3Bucket, cfg.S3Region, cfg.AWSEndpoint)
	if err != nil {
		return fmt.Errorf("failed to initialize storage service: %w", err)
	}

	parser := services.NewParser(services.WithLogger(log.With().Str("component", "parser").Logger()))
	validator := services.NewFileValidator(cfg.MaxUploadBytes)
	reconService := services.NewReconciliationService(store, cfg.ReconciliationDefaults(), log)

	uploadHandler := handlers.NewUploadHandler(storageService, parser, validator, store)
	reconHandler := handlers.NewReconciliationHandler(reconService)
	transactionHandler := handlers.NewTransactionHandler(store)

	app := fiber.New(fiber.Config{
		AppName:      "cashlens reconciliation API v1.0",
		ErrorHandler: utils.NewErrorHandler(log, !cfg.IsProduction()),
		BodyLimit:    int(cfg.MaxUploadBytes),
	})

	app.Use(recover.New())
	app.Use(middleware.CORS(nil))
	app.Use(middleware.RequestLogger(log))

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "cashlens-recon",
		})
	})

	v1 := app.Group("/v1")
	if cfg.EnableRateLimiting {
		v1.Use(middleware.RateLimit(100, time.Minute))
	}

	// Stateless matching needs no stored data, only a signed-in user
	protected := v1.Group("", middleware.ClerkAuth(middleware.ClerkVerifier(cfg.ClerkSecretKey)))
	protected.Post("/reconcile", reconHandler.Reconcile)

	protected.Post("/reconciliations", reconHandler.CreateReconciliation)
	protected.Get("/reconciliations/:id", reconHandler.GetReconciliation)
	protected.Post("/reconciliations/:id/run", reconHandler.RunReconciliation)
	protected.Post("/reconciliations/:id/finalize", reconHandler.FinalizeReconciliation)

	protected.Get("/accounts/:account_id/transactions", transactionHandler.GetTransactions)

	protected.Get("/uploads/presigned-url", uploadHandler.GetPresignedURL)
	protected.Post("/uploads/import", uploadHandler.ImportUpload)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		log.Info().Str("addr", addr).Str("environment", cfg.Environment).Msg("cashlens reconciliation API listening")
		errCh <- app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("shutting down")
	return app.ShutdownWithTimeout(cfg.ShutdownTimeout)
}
