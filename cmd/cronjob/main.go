package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"rentrush-backend/internal/config"
	"rentrush-backend/internal/invoice"
	"rentrush-backend/internal/jobs"
	"rentrush-backend/internal/logger"
	"rentrush-backend/internal/repository/postgres"
	"rentrush-backend/internal/scheduler"
	"rentrush-backend/internal/service"
	"rentrush-backend/internal/storage"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'retry-failed-invoices', 'send-return-reminders', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting RentRush Cronjob Runner...", "log_level", cfg.Log.Level)

	ctx := context.Background()

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Services
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
		logger.Error("Failed to initialize document storage", "error", err)
		log.Fatalf("Failed to initialize document storage: %v", err)
	}

	emailService := service.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
	var pushService service.PushService = service.NoopPushService{}
	if cfg.Firebase.Enabled {
		pushService, err = service.NewFirebasePushService(ctx, cfg.Firebase.CredentialsFile, cfg.Firebase.TopicPrefix)
		if err != nil {
			logger.Error("Failed to initialize push notifications", "error", err)
			log.Fatalf("Failed to initialize push notifications: %v", err)
		}
	}
	notifier := service.NewFanoutNotifier(store.Notifications(), store.Users(), emailService, pushService)

	invoiceService := service.NewInvoiceService(
		store,
		store.Bookings(),
		store.Cars(),
		store.Users(),
		invoice.NewRenderer(invoice.Issuer{
			Name:     cfg.Invoice.CompanyName,
			Address:  cfg.Invoice.CompanyAddress,
			Email:    cfg.Invoice.CompanyEmail,
			Currency: cfg.Invoice.Currency,
		}),
		docs,
		time.Duration(cfg.Storage.PresignExpiryMinutes)*time.Minute,
	)

	jobServices := &jobs.Services{
		Invoices: invoiceService,
		Notifier: notifier,
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(jobServices, store.Bookings(), store.Cars(), cfg.Location())

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if err := jobRunner.Run(*runOnce); err != nil {
			logger.Error("Unknown job name", "job", *runOnce)
			printJobs(jobRunner)
			os.Exit(1)
		}
		notifier.Wait()
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner, cfg.Scheduler)
	if err != nil {
		logger.Error("Failed to register jobs", "error", err)
		log.Fatalf("Failed to register jobs: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	notifier.Wait()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

func printJobs(jobRunner *jobs.JobRunner) {
	names := make([]string, 0, len(jobRunner.Jobs()))
	for name := range jobRunner.Jobs() {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("Available jobs:\n")
	for _, name := range names {
		fmt.Printf("  - %s\n", name)
	}
	fmt.Printf("  - all\n")
}
