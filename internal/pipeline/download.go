package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/nao1215/pageloader/internal/document"
	"github.com/nao1215/pageloader/internal/fetch"
	"github.com/nao1215/pageloader/internal/model"
)

// downloadConfig holds the settings of one Download call.
type downloadConfig struct {
	fs          afero.Fs
	strategy    document.Strategy
	concurrency int
	rateLimit   float64
	maxBodySize int64
	userAgent   string
}

// DownloadOption configures Download.
type DownloadOption func(*downloadConfig)

// WithFs sets the filesystem pages and resources are written to.
func WithFs(fs afero.Fs) DownloadOption {
	return func(c *downloadConfig) {
		c.fs = fs
	}
}

// WithStrategy selects the rewrite strategy. Defaults to document.StrategyDOM.
func WithStrategy(strategy document.Strategy) DownloadOption {
	return func(c *downloadConfig) {
		c.strategy = strategy
	}
}

// WithResourceConcurrency sets how many resources are fetched at once.
// The default of 1 keeps the run strictly sequential.
func WithResourceConcurrency(n int) DownloadOption {
	return func(c *downloadConfig) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithRateLimit caps requests per second across the run. Zero disables it.
func WithRateLimit(rps float64) DownloadOption {
	return func(c *downloadConfig) {
		c.rateLimit = rps
	}
}

// WithMaxBodySize caps each response body.
func WithMaxBodySize(size int64) DownloadOption {
	return func(c *downloadConfig) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) DownloadOption {
	return func(c *downloadConfig) {
		c.userAgent = ua
	}
}

// NewDownloadPipeline builds the five-step download pipeline.
func NewDownloadPipeline(client *http.Client, logger *slog.Logger, opts ...DownloadOption) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := &downloadConfig{
		fs:          afero.NewOsFs(),
		strategy:    document.StrategyDOM,
		concurrency: 1,
		maxBodySize: fetch.DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	fetchOpts := []fetch.Option{
		fetch.WithFs(cfg.fs),
		fetch.WithRateLimit(cfg.rateLimit),
		fetch.WithMaxBodySize(cfg.maxBodySize),
		fetch.WithLogger(logger),
	}
	if cfg.userAgent != "" {
		fetchOpts = append(fetchOpts, fetch.WithUserAgent(cfg.userAgent))
	}
	fetcher := fetch.New(client, fetchOpts...)

	p := New(WithLogger(logger))
	p.AddSteps(
		NewFetchPageStep(fetcher, logger),
		NewLocateResourcesStep(logger),
		NewFetchResourcesStep(fetcher, cfg.concurrency, logger),
		NewRewriteStep(cfg.strategy, logger),
		NewSaveStep(cfg.fs, logger),
	)
	return p
}

// Run downloads pageURL into outputDir and returns the finished run.
// The run is returned on failure too, in StateErrored with its cause.
func Run(ctx context.Context, pageURL, outputDir string, client *http.Client, logger *slog.Logger, opts ...DownloadOption) (*model.Run, error) {
	absDir, err := filepath.Abs(outputDir)
	if err != nil {
		run := model.NewRun(pageURL, outputDir)
		derr := &model.DirectoryError{Path: outputDir, Err: err}
		run.Fail(derr)
		return run, derr
	}

	job := NewJob(pageURL, absDir)
	if err := NewDownloadPipeline(client, logger, opts...).Execute(ctx, job); err != nil {
		return job.Run, err
	}
	return job.Run, nil
}

// Download mirrors pageURL into outputDir and returns the absolute path of
// the saved page. An empty outputDir means the working directory.
func Download(ctx context.Context, pageURL, outputDir string, client *http.Client, logger *slog.Logger, opts ...DownloadOption) (string, error) {
	run, err := Run(ctx, pageURL, outputDir, client, logger, opts...)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", pageURL, err)
	}
	return run.SavedPath, nil
}
