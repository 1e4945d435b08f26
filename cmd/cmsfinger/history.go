package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nao1215/cmsfinger/internal/config"
	"github.com/nao1215/cmsfinger/internal/database"
	"github.com/nao1215/cmsfinger/internal/fetch"
	"github.com/nao1215/cmsfinger/internal/model"
	"github.com/nao1215/cmsfinger/internal/report"
)

// defaultHistoryLimit is the number of records shown per URL.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [url]",
		Short: "Show results recorded with scan --history",
		Long: `History lists the results stored in the history database.

Without an argument it lists every recorded URL. With a URL it shows the
most recent results for that URL, newest first.

Examples:
  # List recorded URLs
  cmsfinger history

  # Show the last 5 results for a site
  cmsfinger history -n 5 example.com

  # Output as JSON
  cmsfinger history --json example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of results to show (0 = all)")
	cmd.Flags().BoolP("json", "j", false,
		"Output results in JSON format")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(dbDir, opts)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			fmt.Fprintln(out, "No scan history found.")
			fmt.Fprintln(out, "\nUse 'cmsfinger scan --history' to record results.")
			return nil
		}
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	if len(args) == 0 {
		return listRecordedURLs(ctx, out, db)
	}
	return showHistory(ctx, out, db, fetch.EnsureProtocol(args[0]), limit, jsonOutput)
}

// listRecordedURLs prints every URL that has history records.
func listRecordedURLs(ctx context.Context, out io.Writer, db *database.HistoryDB) error {
	urls, err := db.ListURLs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list URLs: %w", err)
	}

	if len(urls) == 0 {
		fmt.Fprintln(out, "No scan history found.")
		return nil
	}

	fmt.Fprintf(out, "Recorded URLs (%d):\n\n", len(urls))
	for _, u := range urls {
		fmt.Fprintf(out, "  %s\n", u)
	}
	fmt.Fprintln(out, "\nUse 'cmsfinger history <url>' to see the results for a URL.")
	return nil
}

// showHistory prints the most recent results for url.
func showHistory(ctx context.Context, out io.Writer, db *database.HistoryDB, url string, limit int, jsonOutput bool) error {
	records, err := db.ListResults(ctx, url, limit)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}

	if len(records) == 0 && !jsonOutput {
		fmt.Fprintf(out, "No scan history found for %s\n", url)
		return nil
	}

	summary := &report.Summary{
		Targets: len(records),
		Results: make([]model.ScanResult, 0, len(records)),
	}
	for _, rec := range records {
		summary.Results = append(summary.Results, rec.Result())
	}
	if len(records) > 0 {
		summary.StartedAt = records[len(records)-1].ScannedAt
		summary.FinishedAt = records[0].ScannedAt
	}

	var w report.Writer
	if jsonOutput {
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	} else {
		fmt.Fprintf(out, "History for %s (%d results):\n\n", url, len(records))
		w = report.NewSimpleWriter(out, report.WithUnmatched(true))
	}
	_, err = w.Write(summary)
	return err
}
