package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/pageloader/internal/transport"
)

// Default configuration values.
const (
	// DefaultTimeout bounds one HTTP request, body included.
	DefaultTimeout = 30 * time.Second

	// DefaultConcurrency keeps resource downloads sequential.
	DefaultConcurrency = 1

	// DefaultBatchSize is how many pages are downloaded at once when more
	// than one URL is given.
	DefaultBatchSize = 4

	// DefaultRewriteStrategy mutates the parsed DOM.
	DefaultRewriteStrategy = "dom"

	// AppName is the application name used for XDG directory paths.
	AppName = "pageloader"

	// DefaultUserAgent identifies pageloader in HTTP requests.
	DefaultUserAgent = "pageloader/1.0 (+https://github.com/nao1215/pageloader)"

	// DefaultMaxBodySize limits a single page or resource body.
	DefaultMaxBodySize = 50 * 1024 * 1024 // 50MB

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute
)

// Config holds all configuration options for pageloader.
// It is populated from CLI flags and the config file, then passed down
// explicitly; nothing reads it from global state.
type Config struct {
	// OutputDir is where pages are saved. Empty means the working directory.
	OutputDir string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// MaxBodySize is the maximum body size in bytes of any response.
	// Zero uses the default.
	MaxBodySize int64

	// RequestsPerSecond paces requests within a run. Zero disables pacing.
	RequestsPerSecond float64

	// Concurrency is how many resources of one page are fetched at once.
	Concurrency int

	// BatchSize is how many pages are downloaded at once.
	BatchSize int

	// RewriteStrategy is "dom" or "text".
	RewriteStrategy string

	// ProxyAddress routes requests through a SOCKS5 proxy ("host:port").
	ProxyAddress string

	// UseTor starts an embedded Tor daemon and routes requests through it.
	// Mutually exclusive with ProxyAddress.
	UseTor bool

	// TorStartupTimeout is the maximum time to wait for the embedded Tor
	// daemon. Only used with UseTor.
	TorStartupTimeout time.Duration

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the path to the configuration file. If empty,
	// .pageloader is searched in the current and home directories.
	ConfigFilePath string

	// SiteConfigs holds the loaded configuration file, if any.
	SiteConfigs *File

	// JSONReport prints the run summary as JSON.
	JSONReport bool

	// MarkdownReport prints the run summary as Markdown.
	MarkdownReport bool

	// ReportFile writes the summary to a file instead of stdout.
	ReportFile string

	// Targets are the page URLs to download.
	Targets []string

	// DBDir is the directory holding the run history database.
	DBDir string

	// SaveToDB records finished runs in the history database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:           DefaultTimeout,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		Concurrency:       DefaultConcurrency,
		BatchSize:         DefaultBatchSize,
		RewriteStrategy:   DefaultRewriteStrategy,
		TorStartupTimeout: DefaultTorStartupTimeout,
		DBDir:             XDGDataDir(),
		SaveToDB:          true,
	}
}

// XDGDataDir returns the XDG data directory for pageloader.
// On Linux: ~/.local/share/pageloader
// On macOS: ~/Library/Application Support/pageloader
// On Windows: %LOCALAPPDATA%\pageloader
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	for _, target := range c.Targets {
		if err := ValidateTarget(target); err != nil {
			return err
		}
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.RequestsPerSecond < 0 {
		return ErrInvalidRate
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.UseTor && c.ProxyAddress != "" {
		return ErrConflictingProxy
	}
	if !IsValidRewriteStrategy(c.RewriteStrategy) {
		return fmt.Errorf("%w: %q", ErrInvalidRewriteStrategy, c.RewriteStrategy)
	}
	return nil
}

// ValidateTarget checks that target is an absolute http or https URL.
// A .onion host must also be a valid v3 onion address.
func ValidateTarget(target string) error {
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidTarget, target, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s", ErrInvalidTarget, target)
	}
	if transport.IsOnionHost(u.Host) {
		if err := transport.ValidateOnionHost(u.Host); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidTarget, target, err)
		}
	}
	return nil
}

// IsValidRewriteStrategy reports whether name is an accepted strategy.
// Empty means the default.
func IsValidRewriteStrategy(name string) bool {
	switch name {
	case "", "dom", "text":
		return true
	default:
		return false
	}
}
