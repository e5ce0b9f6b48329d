package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/qasimops/intellimaintain/internal/ai"
	"github.com/qasimops/intellimaintain/internal/application/service"
	"github.com/qasimops/intellimaintain/internal/config"
	"github.com/qasimops/intellimaintain/internal/domain/workflow"
	httpserver "github.com/qasimops/intellimaintain/internal/interfaces/http"
	"github.com/qasimops/intellimaintain/internal/report"
	"github.com/qasimops/intellimaintain/internal/repository"
	"github.com/qasimops/intellimaintain/internal/worker"
	"github.com/qasimops/intellimaintain/pkg/database"
	"github.com/qasimops/intellimaintain/pkg/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting IntelliMaintain",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		logger.Fatal("Failed to create data directory", zap.Error(err))
	}
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories
	requestRepo := repository.NewRequestRepository(db.DB, logger)
	notificationRepo := repository.NewNotificationRepository(db.DB, logger)

	// Initialize AI analyzer
	analyzer := ai.NewAnalyzer(
		cfg.OpenAI.APIKey,
		cfg.OpenAI.Model,
		cfg.OpenAI.Temperature,
		cfg.OpenAI.Timeout,
		logger,
	)

	// Initialize notification dispatcher worker
	dispatcher := worker.NewNotificationDispatcher(notificationRepo, cfg.Notifications.QueueSize, logger)
	workers := worker.NewManager(logger)
	workers.Register(dispatcher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workers.StartAll(ctx); err != nil {
		logger.Fatal("Failed to start workers", zap.Error(err))
	}

	// Initialize services
	serviceLogger := &zapLoggerAdapter{logger: logger}
	directory := roleDirectory(cfg.Notifications.Recipients, logger)
	notificationService := service.NewNotificationService(notificationRepo, dispatcher, directory, serviceLogger)
	lifecycleService := service.NewLifecycleService(requestRepo, analyzer, notificationService, serviceLogger)

	// Initialize report exporter
	exporter := report.NewExporter(cfg.Report.SheetName, logger)

	// Initialize HTTP server
	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, lifecycleService, notificationService, exporter, serviceLogger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(ctx)
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutting down server...")
	case err := <-serverErr:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
		}
	}

	cancel()
	if err := server.Stop(); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	workers.StopAll()

	logger.Info("Server exited successfully")
}

// roleDirectory converts the configured recipient map into a typed
// directory. Viper lowercases map keys on unmarshal, so the role names are
// uppercased before lookup.
func roleDirectory(recipients map[string]int64, logger *zap.Logger) service.RoleDirectory {
	directory := make(service.RoleDirectory, len(recipients))
	for name, userID := range recipients {
		role := workflow.Role(strings.ToUpper(name))
		if !role.IsValid() {
			logger.Warn("Ignoring recipient for unknown role", zap.String("role", name))
			continue
		}
		directory[role] = userID
	}
	return directory
}

// zapLoggerAdapter adapts zap.Logger to the service.Logger interface.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
