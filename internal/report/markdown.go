package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter renders a summary as a Markdown document.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write implements Writer.
func (w *MarkdownWriter) Write(s *Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, s)
	w.writeCMSTable(md, s)
	w.writeMatches(md, s)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, s *Summary) {
	md.H1("cmsfinger Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Scan Date", s.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", s.Duration().Round(time.Millisecond).String()},
			{"Targets", strconv.Itoa(s.Targets)},
			{"Matched", strconv.Itoa(s.Matched())},
		},
	})
	md.PlainText("")

	if s.Matched() == 0 {
		md.Note("No target matched a known fingerprint. Unreachable targets are also reported without matches; check the log for warnings.")
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeCMSTable(md *markdown.Markdown, s *Summary) {
	counts := s.CountByCMS()
	if len(counts) == 0 {
		return
	}

	md.H2("Detected CMS")
	md.PlainText("")

	rows := make([][]string, len(counts))
	for i, c := range counts {
		rows[i] = []string{c.Name, strconv.Itoa(c.Count)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"CMS", "Targets"},
		Rows:   rows,
	})
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("CMS Distribution"),
		piechart.WithShowData(true),
	)
	for _, c := range counts {
		chart.LabelAndIntValue(c.Name, uint64(c.Count)) //nolint:gosec // counts are never negative
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeMatches(md *markdown.Markdown, s *Summary) {
	if len(s.Results) == 0 {
		return
	}

	md.H2("Matches")
	md.PlainText("")

	rows := make([][]string, len(s.Results))
	for i, r := range s.Results {
		rows[i] = []string{"`" + r.URL + "`", strings.Join(r.Matches, ", ")}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Fingerprints"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [cmsfinger](https://github.com/nao1215/cmsfinger)*")
}
