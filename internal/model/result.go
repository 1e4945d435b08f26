package model

import (
	"encoding/hex"
	"time"

	"golang.org/x/crypto/sha3"
)

// ScanResult is the outcome of scanning one target.
// It is produced once per target and treated as immutable afterwards.
type ScanResult struct {
	// URL is the resolved URL: the scheme-normalized target, or its
	// https:// form when the HTTPS fallback produced the response.
	URL string `json:"url"`

	// Matches holds the names of matched fingerprints in registry order.
	// It is empty both when nothing matched and when the target could not
	// be fetched at all.
	Matches []string `json:"matches"`

	// Attempts is the number of fetch attempts made for the reported URL.
	Attempts int `json:"attempts"`

	// BodyDigest is the hex SHA3-256 digest of the raw response body.
	// Empty when no response was received.
	BodyDigest string `json:"body_digest,omitempty"`

	// ScannedAt is when the scan of this target finished.
	ScannedAt time.Time `json:"scanned_at"`
}

// NewScanResult creates a result for url with no matches.
func NewScanResult(url string) ScanResult {
	return ScanResult{
		URL:       url,
		Matches:   []string{},
		ScannedAt: time.Now(),
	}
}

// HasMatches reports whether at least one fingerprint matched.
func (r ScanResult) HasMatches() bool {
	return len(r.Matches) > 0
}

// DigestBody returns the hex SHA3-256 digest of body.
func DigestBody(body []byte) string {
	sum := sha3.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// SameBody reports whether two results were computed from identical bodies.
// Results without a digest never compare equal.
func SameBody(a, b ScanResult) bool {
	if a.BodyDigest == "" || b.BodyDigest == "" {
		return false
	}
	return a.BodyDigest == b.BodyDigest
}
