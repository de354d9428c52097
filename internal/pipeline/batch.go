package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/pageloader/internal/model"
)

// RunFunc downloads one page and returns its run.
type RunFunc func(ctx context.Context, pageURL string) (*model.Run, error)

// BatchProcessor downloads several pages concurrently.
//
// Design decision: A failed page does not cancel the others. Pages are
// independent runs, so one 404 should not throw away the rest of the batch.
// Failures are carried in each run's state instead.
type BatchProcessor struct {
	run         RunFunc
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets how many pages are downloaded at once. Default is 4.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor calling run for every page.
func NewBatchProcessor(run RunFunc, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		run:         run,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch downloads every page and returns their runs in input order.
// Every slot is filled: pages skipped because of cancellation get an
// errored run. The error is non-nil only when ctx was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, pages []string) ([]*model.Run, error) {
	bp.logger.Info("starting batch processing",
		"total_pages", len(pages),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	results := make([]*model.Run, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, page := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				run := model.NewRun(page, "")
				run.Fail(err)
				results[i] = run
				return err
			}

			bp.logger.Info("downloading page",
				"url", page,
				"index", i+1,
				"total", len(pages),
			)

			run, err := bp.run(gctx, page)
			if run == nil {
				run = model.NewRun(page, "")
				if err != nil {
					run.Fail(err)
				}
			}
			results[i] = run

			if err != nil {
				bp.logger.Warn("page download failed", "url", page, "error", err)
				return nil
			}
			bp.logger.Info("page download completed", "url", page, "path", run.SavedPath)
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch processing complete",
		"total_pages", len(pages),
		"elapsed", time.Since(startTime),
	)
	return results, err
}
