package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"lst-explorer/internal/config"
	"lst-explorer/internal/dataset"
	"lst-explorer/internal/models"
	"lst-explorer/internal/repository"
	"lst-explorer/internal/services"
	"lst-explorer/pkg/database"
	"lst-explorer/pkg/logging"
	"lst-explorer/pkg/metrics"
)

// inspect loads the dataset the way the server does and prints its shape
func main() {
	station := flag.String("station", models.DefaultStationCode, "Station to summarize")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("lst-inspect", "1.0.0", logging.WarnLevel)
	collector := metrics.NewCollector("lst_inspect")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var source dataset.Source = dataset.NewHTTPSource(cfg.Dataset.BaseURL, cfg.Dataset.FetchTimeout)
	if cfg.Dataset.Source == config.SourcePostgres {
		db, err := database.NewPostgresDB(cfg.Database.Postgres(), logger, collector)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()
		source = repository.NewPostgresRepository(db, logger, collector)
	}

	store, err := dataset.NewLoader(source, logger, collector, cfg.Dataset.Concurrency).Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load dataset: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(strings.Repeat("═", 100))
	fmt.Printf("LST DATASET (%s)\n", source.Name())
	fmt.Println(strings.Repeat("═", 100))
	for _, info := range store.Describe() {
		fmt.Printf("%-11s %-78s %5d x %-4d %s..%s\n",
			info.Kind, info.Resource, info.Rows, info.Columns,
			info.First.Format(models.DateLayout), info.Last.Format(models.DateLayout))
	}

	registry := services.NewStationRegistry(store.Points(), store.Observations())
	fmt.Println()
	fmt.Printf("Station list entries:   %d\n", len(store.Points()))
	fmt.Printf("Stations with ACIS data: %d\n", registry.Len())

	charts := services.NewChartService(store, registry, logger, collector)
	stats := services.NewStatisticsService(charts, logger, collector)

	summary, err := stats.Summarize(ctx, models.ChartRequest{
		StationCode: *station,
		Variable:    models.VariableT2,
		Years:       models.DefaultYears,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to summarize %s: %v\n", *station, err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Printf("%s, t2, %d-%d\n", summary.Station, summary.Years.Begin, summary.Years.End)
	for _, s := range summary.Series {
		if s.Count == 0 {
			fmt.Printf("  %-12s no data\n", s.Name)
			continue
		}
		fmt.Printf("  %-12s n=%-4d min=%7.2f max=%7.2f mean=%7.2f\n", s.Name, s.Count, *s.Min, *s.Max, *s.Mean)
	}
}
