package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"lst-explorer/internal/config"
	"lst-explorer/internal/dataset"
	"lst-explorer/internal/repository"
	"lst-explorer/internal/services"
	"lst-explorer/pkg/database"
	"lst-explorer/pkg/logging"
	"lst-explorer/pkg/metrics"
)

const version = "1.0.0"

var (
	baseURL   string
	batchSize int
	resources []string
	listOnly  bool
)

var rootCmd = &cobra.Command{
	Use:   "ingester",
	Short: "Mirror the LST dataset into PostgreSQL",
	Long: `Fetches every model, satellite and observation CSV plus the station list
from the dataset host and stores them in PostgreSQL, one transaction per
resource. The server can then start with DATA_SOURCE=postgres.`,
	SilenceUsage: true,
	RunE:         runIngest,
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the resources the ingester mirrors",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, e := range dataset.Catalog() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", e.Kind, e.Resource)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", "stations", dataset.StationPointsResource)
	},
}

func init() {
	rootCmd.Flags().StringVar(&baseURL, "base-url", "", "Dataset host (default: DATASET_BASE_URL)")
	rootCmd.Flags().IntVar(&batchSize, "batch-size", repository.DefaultBatchSize, "Cells per INSERT")
	rootCmd.Flags().StringSliceVar(&resources, "resource", nil, "Mirror only these resources (repeatable)")
	rootCmd.Flags().BoolVar(&listOnly, "list", false, "List mirrored resources and exit")
	rootCmd.AddCommand(catalogCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if baseURL != "" {
		cfg.Dataset.BaseURL = baseURL
	}

	logger := logging.NewStructuredLogger("lst-ingester", version, logging.ParseLevel(cfg.Logging.Level))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsCollector := metrics.NewCollector("lst_ingester")

	db, err := database.NewPostgresDB(cfg.Database.Postgres(), logger, metricsCollector)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	repo := repository.NewPostgresRepository(db, logger, metricsCollector)

	if listOnly {
		return listResources(ctx, cmd, repo)
	}

	logger.Info(ctx, "[INGESTER_START] Starting dataset mirror", logging.Fields{
		"version":    version,
		"base_url":   cfg.Dataset.BaseURL,
		"batch_size": batchSize,
		"resources":  len(resources),
	})

	source := dataset.NewHTTPSource(cfg.Dataset.BaseURL, cfg.Dataset.FetchTimeout)
	ingestionService := services.NewIngestionService(source, repo, logger, metricsCollector)

	result, err := ingestionService.Mirror(ctx, resources, batchSize)
	if err != nil {
		logger.Error(ctx, "[INGESTION_ERROR] Mirror aborted", logging.Fields{}, err)
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, strings.Repeat("=", 80))
	fmt.Fprintln(out, "MIRROR COMPLETE")
	fmt.Fprintln(out, strings.Repeat("=", 80))
	fmt.Fprintf(out, "Resources:          %d\n", result.TotalResources)
	fmt.Fprintf(out, "Successful:         %d\n", result.SuccessfulResources)
	fmt.Fprintf(out, "Failed:             %d\n", result.FailedResources)
	fmt.Fprintf(out, "Cells Written:      %d\n", result.CellsWritten)
	fmt.Fprintf(out, "Stations Written:   %d\n", result.StationsWritten)
	fmt.Fprintf(out, "Duration:           %v\n", result.Duration)

	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "\nErrors (%d):\n", len(result.Errors))
		for _, errMsg := range result.Errors {
			fmt.Fprintf(out, "  - %s\n", errMsg)
		}
		return fmt.Errorf("%d resources failed", result.FailedResources)
	}

	logger.Info(ctx, "[INGESTER_COMPLETE] Mirror completed successfully", logging.Fields{
		"cells_written":    result.CellsWritten,
		"duration_seconds": result.Duration.Seconds(),
	})
	return nil
}

func listResources(ctx context.Context, cmd *cobra.Command, repo repository.DatasetRepository) error {
	records, err := repo.ListResources(ctx)
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Fprintf(cmd.OutOrStdout(), "%-80s %6d rows  %s\n", r.Resource, r.RowCount, r.IngestedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
