package extract

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/cmsfinger/internal/model"
)

// NormalizeBody decodes HTML character entities in body and lower-cases it.
//
// Decoding is repeated until the text stops changing, so that
// NormalizeBody(NormalizeBody(b)) == NormalizeBody(b) also holds for
// doubly-escaped input such as "&amp;lt;".
func NormalizeBody(body string) string {
	// cases.Caser keeps state and must not be shared between goroutines.
	lower := cases.Lower(language.Und)

	// After the first pass every change is an unescape, which shortens
	// the text, so the loop terminates.
	out := body
	for {
		next := lower.String(html.UnescapeString(out))
		if next == out {
			return out
		}
		out = next
	}
}

// Title returns the trimmed, lower-cased text of the first <title> element
// in body, or "" when there is none.
func Title(body string) string {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return ""
	}

	title, ok := findTitle(doc)
	if !ok {
		return ""
	}
	return cases.Lower(language.Und).String(strings.TrimSpace(title))
}

// findTitle walks the tree depth-first and returns the text of the first
// title element.
func findTitle(n *html.Node) (string, bool) {
	if n.Type == html.ElementNode && n.Data == "title" {
		var text strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				text.WriteString(c.Data)
			}
		}
		return text.String(), true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title, ok := findTitle(c); ok {
			return title, true
		}
	}
	return "", false
}

// PoweredBy returns the lower-cased X-Powered-By header, or "".
func PoweredBy(header http.Header) string {
	if header == nil {
		return ""
	}
	return cases.Lower(language.Und).String(header.Get("X-Powered-By"))
}

// Extract derives all four signals from one response.
// requestUA is the User-Agent sent with the request that produced body.
func Extract(body string, header http.Header, requestUA string) model.Signals {
	return model.Signals{
		Body:      NormalizeBody(body),
		Title:     Title(body),
		PoweredBy: PoweredBy(header),
		UserAgent: cases.Lower(language.Und).String(requestUA),
	}
}

// Decode reads r and converts it to UTF-8 using the charset declared in
// contentType or, failing that, sniffed from the content.
func Decode(r io.Reader, contentType string) (string, error) {
	utf8Reader, err := charset.NewReader(r, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to create charset reader: %w", err)
	}
	data, err := io.ReadAll(utf8Reader)
	if err != nil {
		return "", fmt.Errorf("failed to decode body: %w", err)
	}
	return string(data), nil
}
