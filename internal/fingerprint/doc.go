// Package fingerprint holds the named CMS fingerprints and matches them
// against the signals extracted from a response.
//
// A fingerprint is a name plus an ordered list of predicates. A fingerprint
// matches when any one of its predicates holds; evaluation stops at the
// first predicate that returns true. Every fingerprint in a registry is
// evaluated independently, so one response may match several CMS names.
//
// Fingerprints come from two places: the built-in set returned by Default,
// and YAML rule files loaded with LoadFile.
package fingerprint
