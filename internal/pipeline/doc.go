// Package pipeline carries targets through fetch, extraction and matching.
//
// A single target is processed by a Pipeline of Steps: FetchStep retrieves
// the response with retries, ExtractStep derives the signals and MatchStep
// evaluates the fingerprint registry. Scanner wraps that pipeline with
// scheme normalization and the optional HTTPS fallback.
//
// Scheduler fans a target list out over a bounded number of goroutines
// using errgroup and hands every result to a callback as soon as it is
// ready. Callbacks are serialized, so the callback may write to a sink
// without further locking.
package pipeline
