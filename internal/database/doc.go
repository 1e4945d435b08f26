// Package database provides SQLite-based storage of past scan results.
//
// Every scanned target can be recorded with its matches, attempt count and
// body digest, so that later runs can show how a site's fingerprint changed
// over time. The store uses modernc.org/sqlite, which needs no cgo, and
// keeps a single database file in the XDG data directory by default.
package database
