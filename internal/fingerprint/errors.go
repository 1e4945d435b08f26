package fingerprint

import "errors"

var (
	// ErrDuplicateName is returned when a fingerprint name is registered twice.
	ErrDuplicateName = errors.New("duplicate fingerprint name")

	// ErrEmptyName is returned when a fingerprint is registered without a name.
	ErrEmptyName = errors.New("fingerprint name must not be empty")

	// ErrInvalidLocation is returned for a rule file condition whose
	// location is not body, title, powered_by or user_agent.
	ErrInvalidLocation = errors.New("invalid rule location")

	// ErrInvalidMatcher is returned for a rule file condition whose
	// matcher is not contains or regex.
	ErrInvalidMatcher = errors.New("invalid rule matcher")

	// ErrNoKeywords is returned for a rule file condition without keywords.
	ErrNoKeywords = errors.New("rule has no keywords")

	// ErrNoRules is returned for a rule file fingerprint without rules.
	ErrNoRules = errors.New("fingerprint has no rules")
)
