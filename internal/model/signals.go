package model

// Signals are the four normalized strings a fingerprint rule may test.
// They are derived once from a single successful fetch and never mutated.
type Signals struct {
	// Body is the response body with HTML entities decoded and lower-cased.
	Body string `json:"body"`

	// Title is the trimmed, lower-cased text of the first <title> element.
	// It is empty when the page has no title.
	Title string `json:"title"`

	// PoweredBy is the lower-cased X-Powered-By response header.
	PoweredBy string `json:"powered_by"`

	// UserAgent is the lower-cased User-Agent of the outbound request.
	// It does not describe the target at all; the slot exists only so that
	// rules written against the four-signal contract keep working.
	// No built-in fingerprint tests it.
	UserAgent string `json:"user_agent"`
}

// IsZero reports whether every signal is empty.
func (s Signals) IsZero() bool {
	return s.Body == "" && s.Title == "" && s.PoweredBy == "" && s.UserAgent == ""
}
