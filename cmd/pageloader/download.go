package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/pageloader/internal/config"
	"github.com/nao1215/pageloader/internal/database"
	"github.com/nao1215/pageloader/internal/document"
	"github.com/nao1215/pageloader/internal/log"
	"github.com/nao1215/pageloader/internal/model"
	"github.com/nao1215/pageloader/internal/pipeline"
	"github.com/nao1215/pageloader/internal/report"
	"github.com/nao1215/pageloader/internal/transport"
)

// NewDownloadCmd creates the download command.
func NewDownloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download [url...]",
		Short: "Download pages and their same-origin resources",
		Long: `Download fetches each page, saves the images, stylesheets and scripts it
loads from its own origin into a "<page>_files" directory next to it, and
rewrites the page to point at those local copies.

The saved page path is printed for every page that succeeds.

Examples:
  # Download into the current directory
  pageloader download https://ru.hexlet.io/courses

  # Download into another directory
  pageloader download -o /var/tmp https://ru.hexlet.io/courses

  # Download several pages, two at a time, with a JSON summary
  pageloader download -b 2 --json https://example.com/a https://example.com/b

  # Go through a SOCKS5 proxy, or through an embedded Tor daemon
  pageloader download --proxy 127.0.0.1:9050 https://example.com/
  pageloader download --tor http://aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaam2dqd.onion/

Configuration file (.pageloader) example:
  defaults:
    userAgent: "Mozilla/5.0 (compatible; pageloader)"
  sites:
    ru.hexlet.io:
      cookie: "session_id=abc123"
      headers:
        Accept-Language: "ru"
      rewrite: text`,
		Args: cobra.ArbitraryArgs,
		RunE: runDownloadCmd,
	}

	cmd.Flags().StringP("output", "o", "",
		"Directory to save pages to (default: current directory)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .pageloader in current or home directory)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().Float64("rate", 0,
		"Maximum requests per second per page (0 = unlimited)")
	cmd.Flags().Int("concurrency", config.DefaultConcurrency,
		"Number of resources of one page fetched at once")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum size in bytes of a page or resource body")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of pages downloaded at once")
	cmd.Flags().String("rewrite", config.DefaultRewriteStrategy,
		"Rewrite strategy: dom or text")

	cmd.Flags().String("proxy", "",
		"Route requests through a SOCKS5 proxy at host:port")
	cmd.Flags().Bool("tor", false,
		"Route requests through an embedded Tor daemon")
	cmd.Flags().Duration("tor-timeout", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	cmd.Flags().BoolP("json", "j", false,
		"Print a JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Print a Markdown report (mutually exclusive with --json)")
	cmd.Flags().String("report", "",
		"Write the report to the specified file instead of stdout")
	cmd.Flags().Bool("no-history", false,
		"Do not record runs in the history database")
	cmd.Flags().String("data-dir", config.XDGDataDir(),
		"Directory holding the history database")

	return cmd
}

// runDownloadCmd executes the download command.
func runDownloadCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runDownload(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// buildConfig creates a Config from cobra command flags and the config file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.OutputDir, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.RequestsPerSecond, err = flags.GetFloat64("rate"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.RewriteStrategy, err = flags.GetString("rewrite"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.UseTor, err = flags.GetBool("tor"); err != nil {
		return nil, err
	}
	if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("report"); err != nil {
		return nil, err
	}
	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noHistory
	if cfg.DBDir, err = flags.GetString("data-dir"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	if cfg.SiteConfigs, err = loadSiteConfigs(cfg.ConfigFilePath); err != nil {
		return nil, err
	}

	cfg.Targets = args
	return cfg, nil
}

// loadSiteConfigs loads the configuration file. An explicitly given path
// must exist; otherwise a missing file yields an empty configuration.
func loadSiteConfigs(path string) (*config.File, error) {
	found := config.FindConfigFile(path)
	if found == "" {
		if path != "" {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, path)
		}
		return &config.File{Sites: make(map[string]config.SiteConfig)}, nil
	}

	file, err := config.LoadConfigFile(found)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
	}
	return file, nil
}

// runDownload downloads every target and reports the outcome. It returns
// an error when at least one page failed.
func runDownload(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	logger.Info("starting download",
		"targets", cfg.Targets,
		"output", cfg.OutputDir,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	var db *database.HistoryDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer db.Close()
		logger.Debug("history database opened", "path", db.Path())
	}

	client, cleanup, err := newTransportClient(ctx, cfg, logger, stderr)
	if err != nil {
		return err
	}
	defer cleanup()

	runPage := func(ctx context.Context, pageURL string) (*model.Run, error) {
		site := cfg.SiteConfigs.SiteConfigFor(pageURL)
		opts, err := downloadOptions(cfg, site)
		if err != nil {
			run := model.NewRun(pageURL, cfg.OutputDir)
			run.Fail(err)
			return run, err
		}
		httpClient := client.HTTPClientWithConfig(site.Cookie, site.Headers)
		return pipeline.Run(ctx, pageURL, cfg.OutputDir, httpClient, logger, opts...)
	}

	var runs []*model.Run
	if len(cfg.Targets) > 1 && cfg.BatchSize > 1 {
		bp := pipeline.NewBatchProcessor(runPage,
			pipeline.WithBatchLogger(logger),
			pipeline.WithConcurrency(cfg.BatchSize),
		)
		runs, err = bp.ProcessBatch(ctx, cfg.Targets)
		if err != nil {
			logger.Warn("batch interrupted", "error", err)
		}
	} else {
		for _, target := range cfg.Targets {
			if ctx.Err() != nil {
				run := model.NewRun(target, cfg.OutputDir)
				run.Fail(ctx.Err())
				runs = append(runs, run)
				continue
			}
			run, _ := runPage(ctx, target) // the run carries its error
			runs = append(runs, run)
		}
	}

	summaries := make([]*model.Summary, 0, len(runs))
	var failed []*model.Run
	for _, run := range runs {
		summary := run.Summary()
		summaries = append(summaries, summary)

		if run.State == model.StateSaved {
			if !reportsToStdout(cfg) {
				fmt.Fprintln(stdout, run.SavedPath)
			}
		} else {
			failed = append(failed, run)
			fmt.Fprintf(stderr, "failed to download %s: %v\n", run.PageURL, run.Err)
		}

		if db != nil {
			// A cancelled ctx must not prevent recording the run.
			if _, err := db.Save(context.WithoutCancel(ctx), summary); err != nil {
				logger.Error("failed to record run", "url", run.PageURL, "error", err)
			}
		}
	}

	if err := writeReport(cfg, summaries, stdout); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	switch {
	case len(failed) == 0:
		return nil
	case len(runs) == 1:
		return fmt.Errorf("download %s: %w", failed[0].PageURL, failed[0].Err)
	default:
		errs := make([]error, len(failed))
		for i, run := range failed {
			errs[i] = fmt.Errorf("download %s: %w", run.PageURL, run.Err)
		}
		return fmt.Errorf("%d of %d page(s) failed: %w", len(failed), len(runs), errors.Join(errs...))
	}
}

// downloadOptions merges global settings with the page's site settings.
func downloadOptions(cfg *config.Config, site config.SiteConfig) ([]pipeline.DownloadOption, error) {
	strategyName := cfg.RewriteStrategy
	if site.Rewrite != "" {
		strategyName = site.Rewrite
	}
	strategy, err := document.ParseStrategy(strategyName)
	if err != nil {
		return nil, err
	}

	userAgent := cfg.UserAgent
	if site.UserAgent != "" {
		userAgent = site.UserAgent
	}

	return []pipeline.DownloadOption{
		pipeline.WithStrategy(strategy),
		pipeline.WithResourceConcurrency(cfg.Concurrency),
		pipeline.WithRateLimit(cfg.RequestsPerSecond),
		pipeline.WithMaxBodySize(cfg.MaxBodySize),
		pipeline.WithUserAgent(userAgent),
	}, nil
}

// newTransportClient builds the transport client for the configured route:
// direct, SOCKS5 proxy, or embedded Tor. The returned cleanup is never nil.
func newTransportClient(ctx context.Context, cfg *config.Config, logger *slog.Logger, stderr io.Writer) (*transport.Client, func(), error) {
	noop := func() {}
	opts := []transport.Option{
		transport.WithTimeout(cfg.Timeout),
		transport.WithUserAgent(cfg.UserAgent),
	}

	if cfg.UseTor {
		return startEmbeddedTor(ctx, cfg, logger, stderr, opts)
	}

	if cfg.ProxyAddress != "" {
		opts = append(opts, transport.WithProxy(cfg.ProxyAddress))
	}
	client, err := transport.NewClient(opts...)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	if cfg.ProxyAddress != "" {
		if status := client.CheckConnection(ctx); status != transport.ProxyStatusOK {
			return nil, noop, fmt.Errorf("proxy check failed: %w (make sure a SOCKS5 proxy is running at %s)",
				status.Error(), cfg.ProxyAddress)
		}
		logger.Info("proxy connection verified", "address", cfg.ProxyAddress)
	}
	return client, noop, nil
}

// startEmbeddedTor starts an embedded Tor daemon and returns a client routed
// through it.
func startEmbeddedTor(ctx context.Context, cfg *config.Config, logger *slog.Logger, stderr io.Writer, opts []transport.Option) (*transport.Client, func(), error) {
	noop := func() {}
	fmt.Fprintln(stderr, "Starting embedded Tor daemon...")
	fmt.Fprintln(stderr, "This may take 1-3 minutes while Tor bootstraps and connects to the network.")

	embeddedTor := transport.NewEmbeddedTor(
		transport.WithStartupTimeout(cfg.TorStartupTimeout),
	)
	if err := embeddedTor.Start(ctx); err != nil {
		return nil, noop, fmt.Errorf("failed to start embedded Tor: %w", err)
	}
	cleanup := func() {
		logger.Info("stopping embedded Tor daemon...")
		if err := embeddedTor.Stop(); err != nil {
			logger.Error("failed to stop embedded Tor", "error", err)
		}
	}

	logger.Info("embedded Tor daemon started", "socksAddr", embeddedTor.SocksAddr())

	client, err := embeddedTor.NewClient(opts...)
	if err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("failed to create Tor client: %w", err)
	}
	if status := client.CheckConnection(ctx); status != transport.ProxyStatusOK {
		cleanup()
		return nil, noop, fmt.Errorf("embedded Tor proxy check failed: %w", status.Error())
	}
	return client, cleanup, nil
}

// reportsToStdout reports whether a structured report takes over stdout.
func reportsToStdout(cfg *config.Config) bool {
	return cfg.ReportFile == "" && (cfg.JSONReport || cfg.MarkdownReport)
}

// writeReport writes the run report when one was requested: a JSON or
// Markdown report, or any report file.
func writeReport(cfg *config.Config, summaries []*model.Summary, stdout io.Writer) error {
	if !cfg.JSONReport && !cfg.MarkdownReport && cfg.ReportFile == "" {
		return nil
	}

	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	if len(summaries) == 1 {
		_, err := w.Write(summaries[0])
		return err
	}
	_, err := w.WriteAll(summaries)
	return err
}
