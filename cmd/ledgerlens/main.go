package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"ledgerlens/internal/analytics"
	"ledgerlens/internal/api"
	"ledgerlens/internal/api/handlers"
	"ledgerlens/internal/extract"
	"ledgerlens/internal/repository"
	"ledgerlens/internal/service"
	"ledgerlens/pkg/auth"
	"ledgerlens/pkg/config"
	"ledgerlens/pkg/logger"
	"ledgerlens/pkg/postgres"
)

// @title LedgerLens API
// @version 1.0
// @description Document extraction and analytics service for scanned financial documents
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@ledgerlens.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting LedgerLens service")

	// Initialize database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db, appLogger)
	docRepo := repository.NewDocumentRepository(db, appLogger)
	recordRepo := repository.NewRecordRepository(db, appLogger)

	for _, ensure := range []func(context.Context) error{
		userRepo.EnsureSchema,
		docRepo.EnsureSchema,
		recordRepo.EnsureSchema,
	} {
		if err := ensure(ctx); err != nil {
			appLogger.Fatal("Failed to ensure database schema", zap.Error(err))
		}
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager, appLogger)

	visionService, err := service.NewVisionService(&cfg.GigaChat, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize vision service", zap.Error(err))
	}
	defer visionService.Close()

	opts := extract.Options{ConvertPercents: cfg.Extract.ConvertPercents}
	docService := service.NewDocumentService(docRepo, recordRepo, visionService, opts, cfg.Extract.UploadDir, appLogger)

	catalog := analytics.NewCatalog(cfg.Extract.TopN)
	analyticsService := service.NewAnalyticsService(recordRepo, catalog, appLogger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, appLogger)
	docHandler := handlers.NewDocumentHandler(docService, appLogger)
	reportHandler := handlers.NewReportHandler(analyticsService, appLogger)

	// Setup router
	app := api.SetupRouter(authHandler, docHandler, reportHandler, jwtManager, cfg.Extract.UploadDir, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
