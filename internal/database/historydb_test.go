package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/nao1215/cmsfinger/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *HistoryDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); err != nil {
			t.Errorf("database file was not created: %v", err)
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("Path() = %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false fails for missing database", func(t *testing.T) {
		t.Parallel()

		_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		if _, err := db.SaveResult(context.Background(), model.ScanResult{URL: "http://a.example", Matches: []string{"PhpCMS"}}); err != nil {
			t.Fatal(err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen: %v", err)
		}
		defer db.Close()

		records, err := db.ListResults(context.Background(), "", 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(records) != 1 {
			t.Errorf("expected 1 record, got %d", len(records))
		}
	})
}

func TestSaveAndListResults(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	inputs := []model.ScanResult{
		{URL: "http://a.example", Matches: []string{"PhpCMS"}, Attempts: 1, BodyDigest: "aa", ScannedAt: base},
		{URL: "http://b.example", Matches: nil, Attempts: 3, ScannedAt: base.Add(time.Second)},
		{URL: "http://a.example", Matches: []string{"PhpCMS", "WordPress"}, Attempts: 2, BodyDigest: "bb", ScannedAt: base.Add(1500 * time.Millisecond)},
	}
	for _, r := range inputs {
		if _, err := db.SaveResult(ctx, r); err != nil {
			t.Fatalf("SaveResult() error = %v", err)
		}
	}

	t.Run("all results newest first", func(t *testing.T) {
		t.Parallel()

		records, err := db.ListResults(ctx, "", 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(records) != 3 {
			t.Fatalf("expected 3 records, got %d", len(records))
		}
		if records[0].BodyDigest != "bb" || records[2].BodyDigest != "aa" {
			t.Errorf("unexpected order: %+v", records)
		}
		if !records[0].ScannedAt.Equal(base.Add(1500 * time.Millisecond)) {
			t.Errorf("ScannedAt = %v", records[0].ScannedAt)
		}
	})

	t.Run("filter by url with limit", func(t *testing.T) {
		t.Parallel()

		records, err := db.ListResults(ctx, "http://a.example", 1)
		if err != nil {
			t.Fatal(err)
		}
		if len(records) != 1 {
			t.Fatalf("expected 1 record, got %d", len(records))
		}
		if !slices.Equal(records[0].Matches, []string{"PhpCMS", "WordPress"}) {
			t.Errorf("Matches = %v", records[0].Matches)
		}
		if records[0].Attempts != 2 {
			t.Errorf("Attempts = %d", records[0].Attempts)
		}
	})

	t.Run("empty matches stored as empty list", func(t *testing.T) {
		t.Parallel()

		records, err := db.ListResults(ctx, "http://b.example", 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(records) != 1 || records[0].Matches == nil || len(records[0].Matches) != 0 {
			t.Errorf("unexpected records %+v", records)
		}
		if records[0].Result().HasMatches() {
			t.Error("converted result must have no matches")
		}
	})

	t.Run("latest result", func(t *testing.T) {
		t.Parallel()

		rec, err := db.LatestResult(ctx, "http://a.example")
		if err != nil {
			t.Fatal(err)
		}
		if rec == nil || rec.BodyDigest != "bb" {
			t.Errorf("LatestResult() = %+v", rec)
		}

		none, err := db.LatestResult(ctx, "http://never.example")
		if err != nil || none != nil {
			t.Errorf("expected nil record, got %+v, %v", none, err)
		}
	})

	t.Run("list urls", func(t *testing.T) {
		t.Parallel()

		urls, err := db.ListURLs(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(urls, []string{"http://a.example", "http://b.example"}) {
			t.Errorf("ListURLs() = %v", urls)
		}
	})
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		zero bool
	}{
		{in: "2026-01-02T03:04:05.000000000Z"},
		{in: "2026-01-02T03:04:05Z"},
		{in: "2026-01-02 03:04:05"},
		{in: "not a time", zero: true},
	}
	for _, tt := range tests {
		if got := parseTimestamp(tt.in); got.IsZero() != tt.zero {
			t.Errorf("parseTimestamp(%q) = %v", tt.in, got)
		}
	}
}
