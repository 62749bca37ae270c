package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/mercurios-ai/inventory-insights/pkg/logger"
)

// StreamingAggregator buffers transformed data and flushes to CSV in batches
type StreamingAggregator struct {
	pipeline      Pipeline
	config        PipelineConfig
	date          time.Time
	buffer        [][]TransformedRow
	bufferSize    int64
	mu            sync.Mutex
	flushCallback func(ctx context.Context, csvPath string) error
	lastFlush     time.Time
}

// NewStreamingAggregator creates a new streaming aggregator for a pipeline
func NewStreamingAggregator(
	pipeline Pipeline,
	config PipelineConfig,
	date time.Time,
	flushCallback func(ctx context.Context, csvPath string) error,
) *StreamingAggregator {
	return &StreamingAggregator{
		pipeline:      pipeline,
		config:        config,
		date:          date,
		buffer:        make([][]TransformedRow, 0, config.BatchSize),
		flushCallback: flushCallback,
		lastFlush:     time.Now(),
	}
}

// AddFileData adds transformed data from a single file to the buffer
func (sa *StreamingAggregator) AddFileData(ctx context.Context, rows []TransformedRow) error {
	sa.mu.Lock()
	defer sa.mu.Unlock()

	sa.buffer = append(sa.buffer, rows)

	// Rough size estimate: 100 bytes per field
	for _, row := range rows {
		sa.bufferSize += int64(len(row.Data) * 100)
	}

	logger.Log.Debug().
		Str("pipeline", sa.pipeline.Name()).
		Int("buffered_files", len(sa.buffer)).
		Int64("buffered_bytes", sa.bufferSize).
		Msg("buffered transformed rows")

	shouldFlush := len(sa.buffer) >= sa.config.BatchSize ||
		sa.bufferSize >= sa.config.BatchSizeBytes ||
		time.Since(sa.lastFlush) >= sa.config.FlushInterval

	if shouldFlush {
		return sa.flushLocked(ctx)
	}

	return nil
}

// Finalize flushes any remaining data and writes the final aggregated CSV
func (sa *StreamingAggregator) Finalize(ctx context.Context) error {
	sa.mu.Lock()
	defer sa.mu.Unlock()

	if len(sa.buffer) == 0 {
		logger.Log.Debug().Str("pipeline", sa.pipeline.Name()).Msg("no data to finalize")
		return nil
	}

	return sa.flushLocked(ctx)
}

// flushLocked writes the current buffer to CSV and triggers the load callback
// Must be called with sa.mu locked
func (sa *StreamingAggregator) flushLocked(ctx context.Context) error {
	if len(sa.buffer) == 0 {
		return nil
	}

	logger.Log.Info().
		Str("pipeline", sa.pipeline.Name()).
		Int("files", len(sa.buffer)).
		Msg("flushing buffer to CSV")

	var allRows []TransformedRow
	for _, fileRows := range sa.buffer {
		allRows = append(allRows, fileRows...)
	}

	if err := os.MkdirAll(sa.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	csvPath := filepath.Join(
		sa.config.OutputDir,
		fmt.Sprintf("%s.csv", sa.date.Format("20060102")),
	)

	if err := sa.writeCSV(csvPath, allRows); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}

	logger.Log.Info().
		Str("pipeline", sa.pipeline.Name()).
		Int("rows", len(allRows)).
		Str("path", csvPath).
		Msg("wrote aggregated CSV")

	if sa.flushCallback != nil {
		if err := sa.flushCallback(ctx, csvPath); err != nil {
			return fmt.Errorf("flush callback failed: %w", err)
		}
	}

	sa.buffer = sa.buffer[:0]
	sa.bufferSize = 0
	sa.lastFlush = time.Now()

	return nil
}

// writeCSV writes transformed rows to a CSV file. Headers are sorted so the
// column order is stable across runs.
func (sa *StreamingAggregator) writeCSV(path string, rows []TransformedRow) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if len(rows) == 0 {
		return nil
	}

	headers := make([]string, 0, len(rows[0].Data))
	for key := range rows[0].Data {
		headers = append(headers, key)
	}
	sort.Strings(headers)

	if err := writer.Write(headers); err != nil {
		return err
	}

	for _, row := range rows {
		record := make([]string, len(headers))
		for i, header := range headers {
			if val, ok := row.Data[header]; ok {
				record[i] = fmt.Sprintf("%v", val)
			}
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return nil
}

// GetBufferStats returns current buffer statistics
func (sa *StreamingAggregator) GetBufferStats() (fileCount int, byteSize int64) {
	sa.mu.Lock()
	defer sa.mu.Unlock()
	return len(sa.buffer), sa.bufferSize
}
