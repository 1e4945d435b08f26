// Package extract derives the signals a fingerprint tests from one HTTP response.
//
// Normalization decodes HTML character entities and lower-cases the result,
// so that rules can be written as plain lower-case substrings. The title is
// taken from the first <title> element found by a tolerant HTML parse;
// malformed markup never causes an error, it only yields an empty title.
package extract
