package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/mercurios-ai/inventory-insights/internal/analytics"
	"github.com/mercurios-ai/inventory-insights/pkg/logger"
)

// Worker processes files for a specific pipeline
type Worker struct {
	pipeline   Pipeline
	config     PipelineConfig
	repo       *Repository
	db         *sql.DB
	aggregator *StreamingAggregator
	loader     *analytics.Loader
	mu         sync.Mutex
}

// NewWorker creates a new pipeline worker
func NewWorker(pipeline Pipeline, config PipelineConfig, db *sql.DB) *Worker {
	repo := NewRepository(db)
	loader := analytics.NewLoader(db, analytics.ParseConfig{})

	return &Worker{
		pipeline: pipeline,
		config:   config,
		repo:     repo,
		db:       db,
		loader:   loader,
	}
}

// ProcessBatch processes a batch of files for a specific date
func (w *Worker) ProcessBatch(ctx context.Context, date time.Time, files []string) error {
	logger.Log.Info().
		Str("pipeline", w.pipeline.Name()).
		Str("date", date.Format("2006-01-02")).
		Int("files", len(files)).
		Msg("starting batch processing")

	run, err := w.getOrCreatePipelineRun(ctx, date, len(files))
	if err != nil {
		return fmt.Errorf("failed to create pipeline run: %w", err)
	}

	// Aggregated CSVs are loaded into the output table as soon as a buffer
	// flushes, so a long run seeds the database incrementally.
	w.aggregator = NewStreamingAggregator(
		w.pipeline,
		w.config,
		date,
		func(ctx context.Context, csvPath string) error {
			logger.Log.Info().
				Str("pipeline", w.pipeline.Name()).
				Str("path", csvPath).
				Msg("loading aggregated data")
			return w.loader.LoadFile(ctx, csvPath)
		},
	)

	fileJobs := make([]*FileJob, len(files))
	for i, file := range files {
		job := &FileJob{
			PipelineRunID: run.ID,
			FilePath:      file,
			Status:        FileStatusQueued,
		}
		if err := w.repo.CreateFileJob(ctx, job); err != nil {
			return fmt.Errorf("failed to create file job: %w", err)
		}
		fileJobs[i] = job
	}

	run.Status = StatusProcessing
	if err := w.repo.UpdatePipelineRun(ctx, run); err != nil {
		return fmt.Errorf("failed to update pipeline run: %w", err)
	}

	if err := w.processFilesParallel(ctx, run, fileJobs); err != nil {
		run.Status = StatusFailed
		run.ErrorMessage = err.Error()
		now := time.Now()
		run.CompletedAt = &now
		w.repo.UpdatePipelineRun(ctx, run)
		return err
	}

	if err := w.aggregator.Finalize(ctx); err != nil {
		run.Status = StatusFailed
		run.ErrorMessage = fmt.Sprintf("aggregation failed: %v", err)
		now := time.Now()
		run.CompletedAt = &now
		w.repo.UpdatePipelineRun(ctx, run)
		return fmt.Errorf("failed to finalize aggregation: %w", err)
	}

	run.Status = StatusCompleted
	now := time.Now()
	run.CompletedAt = &now
	if err := w.repo.UpdatePipelineRun(ctx, run); err != nil {
		return fmt.Errorf("failed to complete pipeline run: %w", err)
	}

	logger.Log.Info().
		Str("pipeline", w.pipeline.Name()).
		Int("processed_files", run.ProcessedFiles).
		Int("total_rows", run.TotalRows).
		Msg("batch processing completed")

	return nil
}

// processFilesParallel processes files using a worker pool
func (w *Worker) processFilesParallel(ctx context.Context, run *PipelineRun, jobs []*FileJob) error {
	workerCount := w.config.WorkerCount
	if workerCount < 1 {
		workerCount = 1
	}

	jobChan := make(chan *FileJob, len(jobs))
	errChan := make(chan error, workerCount)
	var wg sync.WaitGroup

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for job := range jobChan {
				if err := w.processFile(ctx, run, job); err != nil {
					logger.Log.Error().
						Err(err).
						Str("pipeline", w.pipeline.Name()).
						Int("worker", workerID).
						Str("file", job.FilePath).
						Msg("failed to process file")
					select {
					case errChan <- err:
					default:
					}
				}
			}
		}(i)
	}

	for _, job := range jobs {
		select {
		case <-ctx.Done():
			close(jobChan)
			return ctx.Err()
		case jobChan <- job:
		}
	}
	close(jobChan)

	wg.Wait()
	close(errChan)

	if err := <-errChan; err != nil {
		return err
	}

	return nil
}

// processFile processes a single file
func (w *Worker) processFile(ctx context.Context, run *PipelineRun, job *FileJob) error {
	startTime := time.Now()

	job.Status = FileStatusProcessing
	if err := w.repo.UpdateFileJob(ctx, job); err != nil {
		return err
	}

	logger.Log.Info().
		Str("pipeline", w.pipeline.Name()).
		Str("file", job.FilePath).
		Msg("processing file")

	if err := w.pipeline.Validate(job.FilePath); err != nil {
		return w.markJobFailed(ctx, job, fmt.Errorf("validation failed: %w", err))
	}

	rows, err := w.pipeline.Transform(ctx, job.FilePath)
	if err != nil {
		return w.markJobFailed(ctx, job, fmt.Errorf("transformation failed: %w", err))
	}

	if err := w.aggregator.AddFileData(ctx, rows); err != nil {
		return w.markJobFailed(ctx, job, fmt.Errorf("aggregation failed: %w", err))
	}

	job.Status = FileStatusCompleted
	now := time.Now()
	job.ProcessedAt = &now
	if err := w.repo.UpdateFileJob(ctx, job); err != nil {
		return err
	}

	if err := w.repo.IncrementProcessedFiles(ctx, run.ID); err != nil {
		logger.Log.Warn().Err(err).Str("pipeline", w.pipeline.Name()).Msg("failed to increment processed files")
	}
	if err := w.repo.AddRowCount(ctx, run.ID, len(rows)); err != nil {
		logger.Log.Warn().Err(err).Str("pipeline", w.pipeline.Name()).Msg("failed to add row count")
	}

	logger.Log.Info().
		Str("pipeline", w.pipeline.Name()).
		Str("file", job.FilePath).
		Dur("duration", time.Since(startTime)).
		Int("rows", len(rows)).
		Msg("completed file")

	return nil
}

// markJobFailed marks a job as failed and handles retry logic
func (w *Worker) markJobFailed(ctx context.Context, job *FileJob, err error) error {
	job.Status = FileStatusFailed
	job.ErrorMessage = err.Error()
	job.RetryCount++

	if updateErr := w.repo.UpdateFileJob(ctx, job); updateErr != nil {
		logger.Log.Error().Err(updateErr).Str("pipeline", w.pipeline.Name()).Msg("failed to update job status")
	}

	if job.RetryCount < w.config.RetryAttempts {
		logger.Log.Info().
			Str("pipeline", w.pipeline.Name()).
			Str("file", job.FilePath).
			Int("attempt", job.RetryCount).
			Int("max_attempts", w.config.RetryAttempts).
			Msg("job eligible for retry")
	}

	return err
}

// getOrCreatePipelineRun gets or creates a pipeline run for the date
func (w *Worker) getOrCreatePipelineRun(ctx context.Context, date time.Time, totalFiles int) (*PipelineRun, error) {
	run, err := w.repo.GetPipelineRunByDate(ctx, w.pipeline.Name(), date)
	if err != nil {
		return nil, err
	}

	if run != nil {
		if run.TotalFiles != totalFiles {
			run.TotalFiles = totalFiles
			if err := w.repo.UpdatePipelineRun(ctx, run); err != nil {
				return nil, err
			}
		}
		return run, nil
	}

	run = &PipelineRun{
		PipelineName: w.pipeline.Name(),
		Date:         date,
		Status:       StatusPending,
		TotalFiles:   totalFiles,
		StartedAt:    time.Now(),
	}

	if err := w.repo.CreatePipelineRun(ctx, run); err != nil {
		return nil, err
	}

	return run, nil
}

// RetryFailed retries all failed jobs for this pipeline
func (w *Worker) RetryFailed(ctx context.Context) error {
	jobs, err := w.repo.GetFailedFileJobs(ctx, w.pipeline.Name(), w.config.RetryAttempts)
	if err != nil {
		return fmt.Errorf("failed to get failed jobs: %w", err)
	}

	if len(jobs) == 0 {
		logger.Log.Info().Str("pipeline", w.pipeline.Name()).Msg("no failed jobs to retry")
		return nil
	}

	logger.Log.Info().
		Str("pipeline", w.pipeline.Name()).
		Int("jobs", len(jobs)).
		Msg("retrying failed jobs")

	jobsByRun := make(map[int64][]*FileJob)
	for _, job := range jobs {
		jobsByRun[job.PipelineRunID] = append(jobsByRun[job.PipelineRunID], job)
	}

	for runID, runJobs := range jobsByRun {
		run, err := w.repo.GetPipelineRun(ctx, runID)
		if err != nil {
			logger.Log.Error().Err(err).Str("pipeline", w.pipeline.Name()).Int64("run_id", runID).Msg("failed to get run")
			continue
		}

		w.aggregator = NewStreamingAggregator(
			w.pipeline,
			w.config,
			run.Date,
			func(ctx context.Context, csvPath string) error {
				return w.loader.LoadFile(ctx, csvPath)
			},
		)

		if err := w.processFilesParallel(ctx, run, runJobs); err != nil {
			logger.Log.Error().Err(err).Str("pipeline", w.pipeline.Name()).Int64("run_id", runID).Msg("failed to retry jobs")
			continue
		}

		if run.ProcessedFiles == run.TotalFiles {
			if err := w.aggregator.Finalize(ctx); err != nil {
				logger.Log.Error().Err(err).Str("pipeline", w.pipeline.Name()).Int64("run_id", runID).Msg("failed to finalize run")
			}
		}
	}

	return nil
}
