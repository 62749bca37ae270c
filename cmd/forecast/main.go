package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/mercurios-ai/inventory-insights/internal/analytics"
	"github.com/mercurios-ai/inventory-insights/internal/config"
	"github.com/mercurios-ai/inventory-insights/internal/drive"
	"github.com/mercurios-ai/inventory-insights/internal/pipeline"
	"github.com/mercurios-ai/inventory-insights/internal/pipeline/forecast"
	"github.com/mercurios-ai/inventory-insights/internal/storage"
	"github.com/mercurios-ai/inventory-insights/pkg/logger"
)

type ctxKey string

const dbKey ctxKey = "db"

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func initDB(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.Context = context.WithValue(c.Context, dbKey, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey).(*sql.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func dbFromContext(c *cli.Context) (*sql.DB, error) {
	db, ok := c.Context.Value(dbKey).(*sql.DB)
	if !ok || db == nil {
		return nil, fmt.Errorf("database connection not initialized")
	}
	return db, nil
}

func forecastPipelineFlags() []cli.Flag {
	return []cli.Flag{
		newDBURLFlag(),
		&cli.StringFlag{
			Name:    "feed-dir",
			Usage:   "Local directory containing feed CSVs (inventory, articles, sales, engagement)",
			Value:   "./data/feeds",
			EnvVars: []string{"APP_FEED_DIR"},
		},
		&cli.StringFlag{
			Name:    "drive-folder-id",
			Usage:   "Google Drive folder ID to pull feed exports from before the run (optional)",
			EnvVars: []string{"FEED_DRIVE_FOLDER_ID"},
		},
		&cli.StringFlag{
			Name:    "intermediate-dir",
			Usage:   "Root directory for forecast intermediate outputs",
			Value:   "./data/intermediate/article_forecast",
			EnvVars: []string{"FORECAST_INTERMEDIATE_DIR"},
		},
		&cli.StringFlag{
			Name:    "output-dir",
			Usage:   "Directory for final aggregated forecast CSVs",
			Value:   "./data/output/article_forecast",
			EnvVars: []string{"FORECAST_OUTPUT_DIR"},
		},
		&cli.StringFlag{
			Name:    "input-date-format",
			Usage:   "Date format used in feed filenames to extract snapshot date (Go layout)",
			Value:   "20060102",
			EnvVars: []string{"FORECAST_INPUT_DATE_FORMAT"},
		},
		&cli.IntFlag{
			Name:    "sales-window-days",
			Usage:   "Days of sales history to consider, counted back from the snapshot date (0 = all)",
			Value:   0,
			EnvVars: []string{"FORECAST_SALES_WINDOW_DAYS"},
		},
		&cli.BoolFlag{
			Name:    "persist-debug-layers",
			Usage:   "Persist the assembled positions (1) intermediate layer for debugging",
			EnvVars: []string{"FORECAST_PERSIST_DEBUG_LAYERS"},
		},
		&cli.IntFlag{
			Name:    "pipeline-workers",
			Usage:   "Number of concurrent workers for the forecast pipeline",
			Value:   runtime.NumCPU(),
			EnvVars: []string{"PIPELINE_WORKERS"},
		},
		&cli.StringFlag{
			Name:    "archive-bucket",
			Usage:   "S3-compatible bucket to archive aggregated forecast CSVs into (optional)",
			EnvVars: []string{"STORAGE_BUCKET"},
		},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "forecast",
		Usage: "Run the article demand forecast pipeline and load results",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run the forecast pipeline over the feed directory",
				Flags:  forecastPipelineFlags(),
				Before: initDB,
				After:  closeDB,
				Action: runForecastPipeline,
			},
			{
				Name:  "load",
				Usage: "Load an aggregated forecast CSV directly into the database",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:     "file",
						Usage:    "Path to the aggregated forecast CSV",
						Required: true,
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: loadForecastFile,
			},
			{
				Name:   "retry",
				Usage:  "Retry failed forecast pipeline file jobs",
				Flags:  forecastPipelineFlags(),
				Before: initDB,
				After:  closeDB,
				Action: retryFailedJobs,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runForecastPipeline(c *cli.Context) error {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := dbFromContext(c)
	if err != nil {
		return err
	}

	feedDir := c.String("feed-dir")

	if folderID := c.String("drive-folder-id"); folderID != "" {
		if err := pullFeedExports(ctx, folderID, feedDir); err != nil {
			return err
		}
	}

	inputFiles, err := filepath.Glob(filepath.Join(feedDir, "*_inventory.csv"))
	if err != nil {
		return fmt.Errorf("failed to scan feed directory: %w", err)
	}

	if len(inputFiles) == 0 {
		logger.Log.Info().Str("feed_dir", feedDir).Msg("no inventory feeds found, nothing to process")
		return nil
	}

	pipelineImpl, pCfg := buildForecastPipeline(c)

	orch := pipeline.NewOrchestrator(db, pCfg)
	if err := orch.Run(ctx, pipelineImpl, inputFiles); err != nil {
		return fmt.Errorf("forecast pipeline run failed: %w", err)
	}

	if bucket := c.String("archive-bucket"); bucket != "" {
		if err := archiveOutputs(ctx, bucket, c.String("output-dir")); err != nil {
			logger.Log.Warn().Err(err).Msg("failed to archive aggregated outputs")
		}
	}

	logger.Log.Info().Msg("forecast pipeline completed successfully")
	return nil
}

func loadForecastFile(c *cli.Context) error {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := dbFromContext(c)
	if err != nil {
		return err
	}

	loader := analytics.NewLoader(db, analytics.ParseConfig{})
	return loader.LoadFile(ctx, c.String("file"))
}

func retryFailedJobs(c *cli.Context) error {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := dbFromContext(c)
	if err != nil {
		return err
	}

	pipelineImpl, pCfg := buildForecastPipeline(c)

	worker := pipeline.NewWorker(pipelineImpl, pCfg, db)
	return worker.RetryFailed(ctx)
}

func buildForecastPipeline(c *cli.Context) (*forecast.ForecastPipeline, pipeline.PipelineConfig) {
	cfg := config.Load()

	forecastCfg := forecast.Config{
		InputDateFormat:    c.String("input-date-format"),
		IntermediateDir:    c.String("intermediate-dir"),
		OutputDir:          c.String("output-dir"),
		PersistDebugLayers: c.Bool("persist-debug-layers"),
		SalesWindowDays:    c.Int("sales-window-days"),
		Policy: forecast.PolicyParams{
			LeadTimeDays:    cfg.Policy.LeadTimeDays,
			ServiceLevelZ:   cfg.Policy.ServiceLevelZ,
			OrderingCost:    cfg.Policy.OrderingCost,
			HoldingCostRate: cfg.Policy.HoldingCostRate,
		},
	}

	pipelineImpl := forecast.NewForecastPipeline(forecastCfg)

	pCfg := pipeline.DefaultPipelineConfig(pipelineImpl.Name())
	pCfg.OutputDir = c.String("output-dir")
	pCfg.IntermediateDir = c.String("intermediate-dir")
	pCfg.WorkerCount = c.Int("pipeline-workers")

	return pipelineImpl, pCfg
}

func pullFeedExports(ctx context.Context, folderID, feedDir string) error {
	credsJSON := os.Getenv("GOOGLE_DRIVE_CREDENTIALS_JSON")
	if strings.TrimSpace(credsJSON) == "" {
		return fmt.Errorf("GOOGLE_DRIVE_CREDENTIALS_JSON env is required when drive-folder-id is set")
	}

	driveSvc, err := drive.NewService(credsJSON)
	if err != nil {
		return fmt.Errorf("failed to create Drive service: %w", err)
	}
	downloader := drive.NewDownloader(driveSvc)

	logger.Log.Info().Str("folder_id", folderID).Str("feed_dir", feedDir).Msg("downloading feed exports from Drive")
	files, err := downloader.DownloadFolderCSV(ctx, drive.DownloadOptions{
		FolderID:    folderID,
		DownloadDir: feedDir,
	})
	if err != nil {
		return fmt.Errorf("failed to download feed exports: %w", err)
	}

	logger.Log.Info().Int("files", len(files)).Msg("downloaded feed exports")
	return nil
}

func archiveOutputs(ctx context.Context, bucket, outputDir string) error {
	client, err := storage.NewMinioClient(storage.MinioConfig{
		Endpoint:  os.Getenv("STORAGE_ENDPOINT"),
		AccessKey: os.Getenv("STORAGE_ACCESS_KEY"),
		SecretKey: os.Getenv("STORAGE_SECRET_KEY"),
		Bucket:    bucket,
		Region:    os.Getenv("STORAGE_REGION"),
		UseSSL:    strings.EqualFold(os.Getenv("STORAGE_USE_SSL"), "true"),
	})
	if err != nil {
		return err
	}

	outputs, err := filepath.Glob(filepath.Join(outputDir, "*.csv"))
	if err != nil {
		return fmt.Errorf("failed to scan output directory: %w", err)
	}

	for _, path := range outputs {
		key := filepath.Join("article_forecast", filepath.Base(path))
		if err := client.UploadObject(ctx, key, path); err != nil {
			return err
		}
		logger.Log.Info().Str("key", key).Msg("archived aggregated output")
	}

	return nil
}
