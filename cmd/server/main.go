package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	httpapi "rentrush-backend/internal/api/http"
	"rentrush-backend/internal/config"
	"rentrush-backend/internal/invoice"
	"rentrush-backend/internal/logger"
	"rentrush-backend/internal/repository/postgres"
	"rentrush-backend/internal/security"
	"rentrush-backend/internal/service"
	"rentrush-backend/internal/storage"
	"rentrush-backend/internal/utils"
	"rentrush-backend/migrations"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting RentRush Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	logger.Info("Booking configuration", "timezone", cfg.Booking.Timezone, "boundary_policy", cfg.Booking.BoundaryPolicy)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if cfg.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}

	// Test database connection
	if err := db.PingContext(ctx); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	if cfg.Database.MigrateOnStart {
		if err := migrate(ctx, db); err != nil {
			logger.Error("Failed to run migrations", "error", err)
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)

	// Initialize Storage Service
	docs, err := storage.New(ctx, storage.Config{
		Type:      cfg.Storage.Type,
		LocalDir:  cfg.Storage.LocalDir,
		BaseURL:   cfg.Storage.BaseURL,
		SignKey:   cfg.JWT.Secret,
		Endpoint:  cfg.Storage.MinIO.Endpoint,
		AccessKey: cfg.Storage.MinIO.AccessKeyID,
		SecretKey: cfg.Storage.MinIO.SecretAccessKey,
		Bucket:    cfg.Storage.MinIO.Bucket,
		UseSSL:    cfg.Storage.MinIO.UseSSL,
	})
	if err != nil {
		logger.Error("Failed to initialize document storage", "type", cfg.Storage.Type, "error", err)
		log.Fatalf("Failed to initialize document storage: %v", err)
	}
	logger.Info("Document storage ready", "type", cfg.Storage.Type)

	// Initialize notification channels
	emailSvc := service.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
	var pushSvc service.PushService = service.NoopPushService{}
	if cfg.Firebase.Enabled {
		pushSvc, err = service.NewFirebasePushService(ctx, cfg.Firebase.CredentialsFile, cfg.Firebase.TopicPrefix)
		if err != nil {
			logger.Error("Failed to initialize push notifications", "error", err)
			log.Fatalf("Failed to initialize push notifications: %v", err)
		}
	}
	notifier := service.NewFanoutNotifier(store.Notifications(), store.Users(), emailSvc, pushSvc)

	// Initialize Services
	policy, err := utils.ParseBoundaryPolicy(cfg.Booking.BoundaryPolicy)
	if err != nil {
		log.Fatalf("Invalid boundary policy: %v", err)
	}
	renderer := invoice.NewRenderer(invoice.Issuer{
		Name:     cfg.Invoice.CompanyName,
		Address:  cfg.Invoice.CompanyAddress,
		Email:    cfg.Invoice.CompanyEmail,
		Currency: cfg.Invoice.Currency,
	})
	invoiceSvc := service.NewInvoiceService(store, store.Bookings(), store.Cars(), store.Users(), renderer, docs,
		time.Duration(cfg.Storage.PresignExpiryMinutes)*time.Minute)
	bookingSvc := service.NewBookingService(store, store.Cars(), store.Bookings(), store.Users(), invoiceSvc, notifier,
		service.BookingOptions{Location: cfg.Location(), Policy: policy})
	carSvc := service.NewCarService(store, store.Cars(), store.Bookings(), cfg.Location())
	noteSvc := service.NewNotificationService(store.Notifications())

	// Initialize HTTP handlers
	handlers := httpapi.Handlers{
		Bookings:      httpapi.NewBookingHandler(bookingSvc, invoiceSvc),
		Cars:          httpapi.NewCarHandler(carSvc),
		Notifications: httpapi.NewNotificationHandler(noteSvc),
	}
	if local, ok := docs.(*storage.LocalStore); ok {
		handlers.Documents = httpapi.NewDocumentHandler(local)
	}
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	router := httpapi.NewRouter(handlers, httpapi.NewAuthMiddleware(tokenManager, cfg.JWT.CookieName), metricsPath)

	server := httpapi.NewServer(router, httpapi.ServerOptions{
		Addr:            cfg.GetServerAddress(),
		ReadTimeout:     time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:    time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		ShutdownTimeout: time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second,
		AllowedOrigin:   cfg.Server.AllowedOrigin,
	})

	err = server.Start(ctx)
	stop()

	// Let in-flight notifications finish before the database closes.
	notifier.Wait()

	if err != nil {
		logger.Error("HTTP server stopped with error", "error", err)
		log.Fatalf("HTTP server error: %v", err)
	}
	logger.Info("RentRush Backend stopped")
}

func migrate(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("create goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		logger.Info("Applied migration", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}
