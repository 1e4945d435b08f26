// Package report writes scan results.
//
// Result lines go to a Sink. Each line has the form
//
//	<url>, <name1>, <name2>, ...
//
// and only targets with at least one match produce a line. Two sinks are
// available: StreamSink appends and syncs every line as soon as it is
// produced, so a crash loses at most the line being written; BatchSink
// collects all lines and replaces the output file in one atomic rename
// when the run finishes.
//
// Run summaries are rendered by the Writer implementations: MarkdownWriter,
// JSONWriter and SimpleWriter.
package report
