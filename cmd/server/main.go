package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lst-explorer/internal/config"
	"lst-explorer/internal/dataset"
	"lst-explorer/internal/handlers"
	"lst-explorer/internal/models"
	"lst-explorer/internal/repository"
	"lst-explorer/internal/services"
	"lst-explorer/pkg/database"
	"lst-explorer/pkg/logging"
	"lst-explorer/pkg/metrics"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("lst-explorer", version, logging.ParseLevel(cfg.Logging.Level))
	defer logger.Sync()

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting LST explorer server", logging.Fields{
		"version":     version,
		"server_host": cfg.Server.Host,
		"server_port": cfg.Server.Port,
		"data_source": cfg.Dataset.Source,
	})

	metricsCollector := metrics.NewCollector("lst_explorer")

	// Pick the dataset source
	var source dataset.Source
	var db *database.PostgresDB
	switch cfg.Dataset.Source {
	case config.SourcePostgres:
		db, err = database.NewPostgresDB(cfg.Database.Postgres(), logger, metricsCollector)
		if err != nil {
			logger.Fatal(ctx, "[STARTUP_ERROR] Failed to connect to database", logging.Fields{}, err)
		}
		defer db.Close()
		source = repository.NewPostgresRepository(db, logger, metricsCollector)
	default:
		source = dataset.NewHTTPSource(cfg.Dataset.BaseURL, cfg.Dataset.FetchTimeout)
	}

	// Load every dataset before accepting requests
	loadCtx, cancelLoad := context.WithTimeout(ctx, 5*time.Minute)
	store, err := dataset.NewLoader(source, logger, metricsCollector, cfg.Dataset.Concurrency).Load(loadCtx)
	cancelLoad()
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to load dataset", logging.Fields{
			"source": source.Name(),
		}, err)
	}

	// Initialize services
	registry := services.NewStationRegistry(store.Points(), store.Observations())
	if _, err := registry.Lookup(models.DefaultStationCode); err != nil {
		logger.Warn(ctx, "[STARTUP_WARNING] Default station has no observations", logging.Fields{
			"station": models.DefaultStationCode,
		})
	}
	chartService := services.NewChartService(store, registry, logger, metricsCollector)
	selectionService := services.NewSelectionService(registry, models.DefaultStationCode, logger, metricsCollector)
	statsService := services.NewStatisticsService(chartService, logger, metricsCollector)

	// Initialize handlers
	dashboardHandler := handlers.NewDashboardHandler(chartService, selectionService, statsService, store, logger, metricsCollector)
	if db != nil {
		dashboardHandler.WithHealthCheck("database", db.HealthCheck)
	}
	pageHandler := handlers.NewPageHandler(selectionService, cfg.Map, logger)

	// Setup router
	router := mux.NewRouter()
	router.Use(handlers.RequestID, handlers.AccessLog(logger))

	dashboardHandler.RegisterRoutes(router)
	pageHandler.RegisterRoutes(router)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address":  server.Addr,
			"stations": registry.Len(),
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
