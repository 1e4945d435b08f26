// Package model defines the data structures shared by the cmsfinger packages.
//
// This package contains the following main types:
//   - Signals: the normalized strings extracted from one HTTP response
//   - ScanResult: the outcome of scanning one target
//
// Keeping these types in their own package lets the extract, fingerprint,
// pipeline, report, and database packages share them without import cycles.
package model
