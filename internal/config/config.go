package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/cmsfinger/internal/fetch"
	"github.com/nao1215/cmsfinger/internal/report"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "cmsfinger"

	// DefaultTimeout bounds one HTTP attempt.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is the total number of attempts per target.
	DefaultMaxRetries = 3

	// DefaultConcurrency is the number of targets scanned at once.
	DefaultConcurrency = 10

	// DefaultOutputMode appends each result line as it is produced.
	DefaultOutputMode = string(report.ModeStreaming)

	// DefaultMaxBodySize limits the response body size to read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB
)

// Config holds all options of a scan run.
// It is populated from defaults, the config file and CLI flags, in that
// order, and passed down explicitly rather than kept in global state.
type Config struct {
	// URLFile is a newline-delimited list of targets.
	URLFile string

	// CustomURL is a single target scanned before the URL file.
	CustomURL string

	// OutputFile receives result lines. Empty means results are only printed.
	OutputFile string

	// OutputMode is "streaming" or "batch".
	OutputMode string

	// HTTPProxy is an http:// proxy URL.
	HTTPProxy string

	// SOCKS5Proxy is a socks5:// proxy URL.
	SOCKS5Proxy string

	// Timeout bounds one HTTP attempt.
	Timeout time.Duration

	// MaxRetries is the total number of attempts per target; 0 means one.
	MaxRetries int

	// Concurrency is the number of targets scanned at once.
	Concurrency int

	// HTTPSFallback rescans http:// targets without matches over https://.
	HTTPSFallback bool

	// RateLimit is the maximum number of requests per second across the
	// whole run. 0 disables rate limiting.
	RateLimit float64

	// MaxBodySize is the maximum number of body bytes read per response.
	// 0 selects the default.
	MaxBodySize int64

	// FingerprintFiles are YAML rule files loaded after the built-in set.
	FingerprintFiles []string

	// ConfigFilePath is an explicit config file path. When empty the
	// default locations are searched.
	ConfigFilePath string

	// SaveHistory records every result in the history database.
	SaveHistory bool

	// DBDir is the directory of the history database.
	DBDir string

	// MarkdownFile receives a Markdown summary of the run when set.
	MarkdownFile string

	// Verbose enables debug logging.
	Verbose bool

	// NoProgress hides the progress bar.
	NoProgress bool

	// NoColor disables colored terminal output.
	NoColor bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		OutputMode:  DefaultOutputMode,
		Timeout:     DefaultTimeout,
		MaxRetries:  DefaultMaxRetries,
		Concurrency: DefaultConcurrency,
		MaxBodySize: DefaultMaxBodySize,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for cmsfinger.
// On Linux: ~/.local/share/cmsfinger
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for cmsfinger.
// On Linux: ~/.config/cmsfinger
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Mode returns the parsed output mode.
func (c *Config) Mode() report.OutputMode {
	mode, err := report.ParseOutputMode(c.OutputMode)
	if err != nil {
		return report.ModeStreaming
	}
	return mode
}

// ClientOptions returns the HTTP client settings derived from c.
func (c *Config) ClientOptions() fetch.ClientOptions {
	return fetch.ClientOptions{
		Timeout:     c.Timeout,
		HTTPProxy:   c.HTTPProxy,
		SOCKS5Proxy: c.SOCKS5Proxy,
	}
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if c.URLFile == "" && c.CustomURL == "" {
		return ErrNoTarget
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxRetries < 0 {
		return ErrInvalidRetries
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if _, err := report.ParseOutputMode(c.OutputMode); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidOutputMode, c.OutputMode)
	}
	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.HTTPProxy != "" {
		if err := fetch.ValidateProxy(c.HTTPProxy, "http", "https"); err != nil {
			return fmt.Errorf("%w: --http-proxy: %w", ErrInvalidProxy, err)
		}
	}
	if c.SOCKS5Proxy != "" {
		if err := fetch.ValidateProxy(c.SOCKS5Proxy, "socks5", "socks5h"); err != nil {
			return fmt.Errorf("%w: --socks5-proxy: %w", ErrInvalidProxy, err)
		}
	}
	return nil
}
