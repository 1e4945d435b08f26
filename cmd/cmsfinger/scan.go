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
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/nao1215/cmsfinger/internal/config"
	"github.com/nao1215/cmsfinger/internal/database"
	"github.com/nao1215/cmsfinger/internal/fetch"
	"github.com/nao1215/cmsfinger/internal/log"
	"github.com/nao1215/cmsfinger/internal/model"
	"github.com/nao1215/cmsfinger/internal/pipeline"
	"github.com/nao1215/cmsfinger/internal/report"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Fingerprint the CMS of one or more web sites",
		Long: `Scan fetches every target and reports which CMS fingerprints match.

Targets without a scheme are requested over http://. Each request is
retried with exponential backoff (1s, 2s, 4s, ...) when the network fails.
An unreachable target is reported with no matches and never stops the run.

Examples:
  # Scan a single site
  cmsfinger scan -c example.com

  # Scan a list of sites and append matches to a file as they are found
  cmsfinger scan -u urls.txt -o result.txt

  # Write the file once at the end, with 20 concurrent scans
  cmsfinger scan -u urls.txt -o result.txt --mode batch -n 20

  # Route requests through a SOCKS5 proxy and load extra fingerprints
  cmsfinger scan -u urls.txt --socks5-proxy socks5://127.0.0.1:1080 -f rules.yaml

Configuration file (.cmsfinger) example:
  timeout: 10
  retries: 3
  concurrency: 10
  mode: streaming
  fingerprints:
    - rules.yaml`,
		Args: cobra.NoArgs,
		RunE: runScanCmd,
	}

	// Target flags
	cmd.Flags().StringP("url-file", "u", "",
		"File with one target per line (blank lines and # comments are skipped)")
	cmd.Flags().StringP("custom-url", "c", "",
		"Single target, scanned before the URL file")

	// Output flags
	cmd.Flags().StringP("output", "o", "",
		"File that receives one line per matched target")
	cmd.Flags().String("mode", config.DefaultOutputMode,
		"Output mode: streaming (append each line) or batch (write once at the end)")
	cmd.Flags().String("markdown", "",
		"Write a Markdown summary of the run to this file")

	// Network flags
	cmd.Flags().String("http-proxy", "",
		"HTTP proxy URL (e.g., http://127.0.0.1:8080)")
	cmd.Flags().String("socks5-proxy", "",
		"SOCKS5 proxy URL (e.g., socks5://127.0.0.1:1080), takes precedence over --http-proxy")
	cmd.Flags().Int("timeout", int(config.DefaultTimeout/time.Second),
		"Per-request timeout in seconds")
	cmd.Flags().Int("retries", config.DefaultMaxRetries,
		"Total attempts per target")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of concurrent scans")
	cmd.Flags().Float64("rate", 0,
		"Maximum requests per second across all scans (0 = unlimited)")
	cmd.Flags().Bool("https-fallback", false,
		"Rescan http:// targets without matches over https://")

	// Fingerprint and configuration flags
	cmd.Flags().StringArrayP("fingerprints", "f", nil,
		"YAML fingerprint rule file (repeatable)")
	cmd.Flags().String("config", "",
		"Configuration file path (default: .cmsfinger in current or home directory)")

	// History flags
	cmd.Flags().Bool("history", false,
		"Record every result in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	// Terminal flags
	cmd.Flags().Bool("no-progress", false, "Hide the progress bar")
	cmd.Flags().Bool("no-color", false, "Disable colored output")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScan(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// buildConfig creates a Config from defaults, the config file and the
// flags the user set explicitly, in that order.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cf.Apply(cfg)
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	cfg.Verbose = getVerboseFlag(cmd)

	if cfg.URLFile, err = flags.GetString("url-file"); err != nil {
		return nil, err
	}
	if cfg.CustomURL, err = flags.GetString("custom-url"); err != nil {
		return nil, err
	}
	if cfg.OutputFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.MarkdownFile, err = flags.GetString("markdown"); err != nil {
		return nil, err
	}
	if cfg.NoProgress, err = flags.GetBool("no-progress"); err != nil {
		return nil, err
	}
	if cfg.NoColor, err = flags.GetBool("no-color"); err != nil {
		return nil, err
	}

	if flags.Changed("mode") {
		if cfg.OutputMode, err = flags.GetString("mode"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("http-proxy") {
		if cfg.HTTPProxy, err = flags.GetString("http-proxy"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("socks5-proxy") {
		if cfg.SOCKS5Proxy, err = flags.GetString("socks5-proxy"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		seconds, err := flags.GetInt("timeout")
		if err != nil {
			return nil, err
		}
		cfg.Timeout = time.Duration(seconds) * time.Second
	}
	if flags.Changed("retries") {
		if cfg.MaxRetries, err = flags.GetInt("retries"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("rate") {
		if cfg.RateLimit, err = flags.GetFloat64("rate"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("https-fallback") {
		if cfg.HTTPSFallback, err = flags.GetBool("https-fallback"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("history") {
		if cfg.SaveHistory, err = flags.GetBool("history"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return nil, err
		}
	}

	files, err := flags.GetStringArray("fingerprints")
	if err != nil {
		return nil, err
	}
	cfg.FingerprintFiles = append(cfg.FingerprintFiles, files...)

	return cfg, nil
}

// runScan scans the custom URL first and then every target of the URL file.
// All results share one output sink.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	registry, _, err := loadRegistry(cfg.FingerprintFiles)
	if err != nil {
		return err
	}

	fileTargets, err := readFileTargets(cfg, logger)
	if err != nil {
		return err
	}

	client, err := fetch.NewHTTPClient(cfg.ClientOptions())
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}

	if cfg.OutputFile == "" {
		logger.Warn("no output file specified, results are only printed")
	}
	sink, err := report.NewSink(cfg.Mode(), cfg.OutputFile)
	if err != nil {
		return err
	}

	var db *database.HistoryDB
	if cfg.SaveHistory {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			_ = sink.Close() //nolint:errcheck // Nothing was written yet
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer db.Close()
		logger.Debug("history database opened", "path", db.Path())
	}

	fetchOpts := []fetch.FetchOption{
		fetch.WithMaxRetries(cfg.MaxRetries),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithFetchLogger(logger),
	}
	if cfg.RateLimit > 0 {
		fetchOpts = append(fetchOpts, fetch.WithLimiter(rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)))
	}
	scanner := pipeline.NewScanner(
		fetch.NewFetcher(client, fetchOpts...),
		registry,
		pipeline.WithHTTPSFallback(cfg.HTTPSFallback),
		pipeline.WithScannerLogger(logger),
	)

	logger.Info("starting scan",
		"custom_url", cfg.CustomURL,
		"url_file", cfg.URLFile,
		"targets", len(fileTargets),
		"concurrency", cfg.Concurrency,
		"mode", cfg.OutputMode,
		"fingerprints", registry.Len(),
	)

	h := &resultHandler{
		ctx:     ctx,
		sink:    sink,
		db:      db,
		summary: report.NewSummary(),
		stdout:  stdout,
		matched: color.New(color.FgGreen),
		logger:  logger,
	}
	if cfg.NoColor {
		h.matched.DisableColor()
	}

	if cfg.CustomURL != "" {
		h.handle(scanner.ScanTarget(ctx, cfg.CustomURL))
	}

	var runErr error
	if len(fileTargets) > 0 {
		if !cfg.NoProgress {
			h.bar = newProgressBar(len(fileTargets), stderr, !cfg.NoColor)
		}
		scheduler := pipeline.NewScheduler(scanner,
			pipeline.WithConcurrency(cfg.Concurrency),
			pipeline.WithSchedulerLogger(logger),
		)
		runErr = scheduler.Run(ctx, fileTargets, h.handle)
		if h.bar != nil {
			_ = h.bar.Finish() //nolint:errcheck // Progress output is best effort
		}
	}

	closeErr := sink.Close()
	h.summary.Finish()

	fmt.Fprintf(stdout, "Scanned %d target(s), %d matched in %s\n",
		h.summary.Targets, h.summary.Matched(), h.summary.Duration().Round(time.Millisecond))

	if cfg.MarkdownFile != "" {
		if err := writeMarkdownSummary(cfg.MarkdownFile, h.summary); err != nil {
			return err
		}
	}

	switch {
	case ctx.Err() != nil:
		return fmt.Errorf("scan interrupted: %w", ctx.Err())
	case runErr != nil:
		return runErr
	case h.sinkErr != nil:
		return h.sinkErr
	case closeErr != nil && !errors.Is(closeErr, report.ErrSinkDisabled):
		return closeErr
	default:
		return nil
	}
}

// readFileTargets reads the URL file. When a custom URL is also given an
// unreadable file is logged and the run continues with the custom URL only.
func readFileTargets(cfg *config.Config, logger *slog.Logger) ([]string, error) {
	if cfg.URLFile == "" {
		return nil, nil
	}
	targets, err := config.ReadTargets(cfg.URLFile)
	if err != nil {
		if cfg.CustomURL == "" {
			return nil, err
		}
		logger.Error("failed to read URL file, scanning the custom URL only", "error", err)
		return nil, nil
	}
	if len(targets) == 0 {
		logger.Warn("URL file contains no targets", "path", cfg.URLFile)
	}
	return targets, nil
}

// resultHandler consumes scan results. The scheduler never calls handle
// concurrently.
type resultHandler struct {
	ctx     context.Context //nolint:containedctx // Lives for one run only
	sink    report.Sink
	db      *database.HistoryDB
	summary *report.Summary
	stdout  io.Writer
	matched *color.Color
	bar     *progressbar.ProgressBar
	logger  *slog.Logger
	sinkErr error
}

func (h *resultHandler) handle(r model.ScanResult) {
	h.summary.Add(r)

	if line := report.FormatLine(r); line != "" {
		if h.bar != nil {
			_ = h.bar.Clear() //nolint:errcheck // Progress output is best effort
		}
		h.matched.Fprintln(h.stdout, "Matched: "+line)
	}

	if err := h.sink.Add(r); err != nil && h.sinkErr == nil {
		h.sinkErr = err
		h.logger.Error("output file disabled", "error", err)
	}

	// Results completed after cancellation come from aborted fetches.
	if h.db != nil && h.ctx.Err() == nil {
		h.record(r)
	}

	if h.bar != nil {
		_ = h.bar.Add(1) //nolint:errcheck // Progress output is best effort
	}
}

// record stores r in the history database and logs a change of the
// matched fingerprints since the previous scan of the same URL.
func (h *resultHandler) record(r model.ScanResult) {
	prev, err := h.db.LatestResult(h.ctx, r.URL)
	switch {
	case err != nil:
		h.logger.Error("failed to read history", "url", r.URL, "error", err)
	case prev == nil:
	case !slices.Equal(prev.Matches, r.Matches):
		h.logger.Info("fingerprints changed since last scan",
			"url", r.URL,
			"previous", strings.Join(prev.Matches, ", "),
			"current", strings.Join(r.Matches, ", "),
			"body_changed", !model.SameBody(prev.Result(), r),
		)
	case model.SameBody(prev.Result(), r):
		h.logger.Debug("page unchanged since last scan", "url", r.URL)
	}

	if _, err := h.db.SaveResult(h.ctx, r); err != nil {
		h.logger.Error("failed to save result", "url", r.URL, "error", err)
	}
}

// newProgressBar creates the progress bar shown while the URL file is scanned.
func newProgressBar(total int, w io.Writer, colors bool) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(colors),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Scanning[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}

// writeMarkdownSummary writes the run summary as Markdown to path.
func writeMarkdownSummary(path string, s *report.Summary) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return &report.OutputFileError{Path: path, Op: "mkdir", Err: err}
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided report path is intentional
	if err != nil {
		return &report.OutputFileError{Path: path, Op: "open", Err: err}
	}

	if _, err := report.NewMarkdownWriter(f).Write(s); err != nil {
		_ = f.Close() //nolint:errcheck // The write error is reported
		return &report.OutputFileError{Path: path, Op: "write", Err: err}
	}
	if err := f.Close(); err != nil {
		return &report.OutputFileError{Path: path, Op: "close", Err: err}
	}
	return nil
}
