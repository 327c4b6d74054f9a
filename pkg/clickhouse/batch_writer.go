// Package clickhouse provides batching support for ClickHouse inserts.
// Single row inserts are inefficient there; rows are accumulated in
// memory and flushed by size or age.
package clickhouse

import (
	"context"
	"sync"
	"time"

	"poise/pkg/logger"
)

// FlushFunc performs the actual INSERT for one accumulated batch
type FlushFunc func(ctx context.Context, batch []interface{}) error

// BatchWriter accumulates rows and flushes them in batches. Add never
// blocks on the network unless the size threshold is hit.
type BatchWriter struct {
	flushFunc FlushFunc
	log       *logger.Logger

	mu        sync.Mutex
	buffer    []interface{}
	lastFlush time.Time
	running   bool

	maxBatchSize int
	maxAge       time.Duration
	table        string

	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// BatchWriterConfig contains configuration for BatchWriter
type BatchWriterConfig struct {
	FlushFunc    FlushFunc
	Table        string
	MaxBatchSize int           // Default: 500
	MaxAge       time.Duration // Default: 5s
}

// NewBatchWriter creates a new batch writer
func NewBatchWriter(cfg BatchWriterConfig) *BatchWriter {
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 500
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 5 * time.Second
	}

	return &BatchWriter{
		flushFunc:    cfg.FlushFunc,
		buffer:       make([]interface{}, 0, cfg.MaxBatchSize),
		maxBatchSize: cfg.MaxBatchSize,
		maxAge:       cfg.MaxAge,
		table:        cfg.Table,
		lastFlush:    time.Now(),
		stopCh:       make(chan struct{}),
		log:          logger.Get().With("component", "batch_writer", "table", cfg.Table),
	}
}

// Start begins the background age-based flush loop
func (bw *BatchWriter) Start(ctx context.Context) {
	bw.mu.Lock()
	if bw.running {
		bw.mu.Unlock()
		return
	}
	bw.running = true
	bw.ticker = time.NewTicker(bw.maxAge)
	bw.mu.Unlock()

	bw.wg.Add(1)
	go bw.flushLoop(ctx)

	bw.log.Infof("BatchWriter started (maxBatchSize=%d, maxAge=%v)", bw.maxBatchSize, bw.maxAge)
}

// Add appends a row to the buffer, flushing when the size threshold is
// reached.
func (bw *BatchWriter) Add(ctx context.Context, row interface{}) error {
	bw.mu.Lock()
	bw.buffer = append(bw.buffer, row)
	full := len(bw.buffer) >= bw.maxBatchSize
	bw.mu.Unlock()

	if full {
		return bw.Flush(ctx)
	}
	return nil
}

// Flush writes all buffered rows
func (bw *BatchWriter) Flush(ctx context.Context) error {
	bw.mu.Lock()
	if len(bw.buffer) == 0 {
		bw.mu.Unlock()
		return nil
	}
	batch := bw.buffer
	bw.buffer = make([]interface{}, 0, bw.maxBatchSize)
	bw.lastFlush = time.Now()
	bw.mu.Unlock()

	// Network write happens outside the lock so Add stays cheap
	start := time.Now()
	err := bw.flushFunc(ctx, batch)
	if err != nil {
		bw.log.Errorf("Failed to flush %d rows to %s: %v (took %v)",
			len(batch), bw.table, err, time.Since(start))
		return err
	}
	bw.log.Debugf("Flushed %d rows to %s (took %v)", len(batch), bw.table, time.Since(start))
	return nil
}

func (bw *BatchWriter) flushLoop(ctx context.Context) {
	defer bw.wg.Done()

	for {
		select {
		case <-ctx.Done():
			if err := bw.Flush(context.Background()); err != nil {
				bw.log.Errorf("Final flush failed: %v", err)
			}
			return

		case <-bw.stopCh:
			if err := bw.Flush(context.Background()); err != nil {
				bw.log.Errorf("Final flush failed: %v", err)
			}
			return

		case <-bw.ticker.C:
			if err := bw.Flush(ctx); err != nil {
				bw.log.Errorf("Periodic flush failed: %v", err)
			}
		}
	}
}

// Stop flushes remaining rows and shuts the writer down
func (bw *BatchWriter) Stop(ctx context.Context) error {
	bw.mu.Lock()
	if !bw.running {
		bw.mu.Unlock()
		return nil
	}
	bw.running = false
	bw.mu.Unlock()

	if bw.ticker != nil {
		bw.ticker.Stop()
	}
	close(bw.stopCh)

	done := make(chan struct{})
	go func() {
		bw.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		bw.log.Warn("BatchWriter stop timed out")
		return ctx.Err()
	}
}

// BufferSize returns the current buffer size (for monitoring)
func (bw *BatchWriter) BufferSize() int {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	return len(bw.buffer)
}
