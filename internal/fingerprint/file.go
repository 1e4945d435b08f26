package fingerprint

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/nao1215/cmsfinger/internal/model"
)

// Rule locations accepted in rule files.
const (
	LocationBody      = "body"
	LocationTitle     = "title"
	LocationPoweredBy = "powered_by"
	LocationUserAgent = "user_agent"
)

// Rule matchers accepted in rule files.
const (
	MatcherContains = "contains"
	MatcherRegex    = "regex"
)

// File is the on-disk representation of a rule file.
//
// Example:
//
//	fingerprints:
//	  - name: ExampleCMS
//	    rules:
//	      - location: body
//	        matcher: contains
//	        keywords: ["powered by examplecms"]
type File struct {
	Fingerprints []FileFingerprint `yaml:"fingerprints"`
}

// FileFingerprint is one named fingerprint in a rule file.
type FileFingerprint struct {
	Name  string     `yaml:"name"`
	Rules []FileRule `yaml:"rules"`
}

// FileRule is one predicate in a rule file.
// Every keyword must hold for the rule to hold.
type FileRule struct {
	// Location selects the signal: body, title, powered_by or user_agent.
	Location string `yaml:"location"`

	// Matcher is contains (case-insensitive substring) or regex
	// (case-insensitive regular expression). Defaults to contains.
	Matcher string `yaml:"matcher"`

	// Keywords are combined with AND.
	Keywords []string `yaml:"keywords"`
}

// LoadFile reads and compiles the rule file at path.
func LoadFile(path string) ([]Fingerprint, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided rule file path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open rule file: %w", err)
	}
	defer f.Close()

	fps, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fps, nil
}

// Load parses and compiles a rule file from r.
func Load(r io.Reader) ([]Fingerprint, error) {
	var file File
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return []Fingerprint{}, nil
		}
		return nil, fmt.Errorf("failed to parse rule file: %w", err)
	}
	return file.Compile()
}

// Compile converts the file into fingerprints.
func (f File) Compile() ([]Fingerprint, error) {
	fps := make([]Fingerprint, 0, len(f.Fingerprints))
	for i, ff := range f.Fingerprints {
		if strings.TrimSpace(ff.Name) == "" {
			return nil, fmt.Errorf("fingerprint #%d: %w", i+1, ErrEmptyName)
		}
		if len(ff.Rules) == 0 {
			return nil, fmt.Errorf("fingerprint %q: %w", ff.Name, ErrNoRules)
		}

		rules := make([]Predicate, 0, len(ff.Rules))
		for j, fr := range ff.Rules {
			p, err := fr.Compile()
			if err != nil {
				return nil, fmt.Errorf("fingerprint %q rule #%d: %w", ff.Name, j+1, err)
			}
			rules = append(rules, p)
		}
		fps = append(fps, Fingerprint{Name: ff.Name, Rules: rules})
	}
	return fps, nil
}

// Compile converts the rule into a predicate.
func (fr FileRule) Compile() (Predicate, error) {
	selector, err := signalSelector(fr.Location)
	if err != nil {
		return nil, err
	}
	if len(fr.Keywords) == 0 {
		return nil, ErrNoKeywords
	}

	switch fr.Matcher {
	case "", MatcherContains:
		// Signals are folded with the same caser.
		lower := cases.Lower(language.Und)
		keywords := make([]string, len(fr.Keywords))
		for i, k := range fr.Keywords {
			keywords[i] = lower.String(k)
		}
		return func(s model.Signals) bool {
			data := selector(s)
			for _, k := range keywords {
				if !strings.Contains(data, k) {
					return false
				}
			}
			return true
		}, nil

	case MatcherRegex:
		patterns := make([]*regexp.Regexp, len(fr.Keywords))
		for i, k := range fr.Keywords {
			re, err := regexp.Compile("(?i)" + k)
			if err != nil {
				return nil, fmt.Errorf("invalid regex %q: %w", k, err)
			}
			patterns[i] = re
		}
		return func(s model.Signals) bool {
			data := selector(s)
			for _, re := range patterns {
				if !re.MatchString(data) {
					return false
				}
			}
			return true
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMatcher, fr.Matcher)
	}
}

func signalSelector(location string) (func(model.Signals) string, error) {
	switch location {
	case LocationBody:
		return func(s model.Signals) string { return s.Body }, nil
	case LocationTitle:
		return func(s model.Signals) string { return s.Title }, nil
	case LocationPoweredBy:
		return func(s model.Signals) string { return s.PoweredBy }, nil
	case LocationUserAgent:
		return func(s model.Signals) string { return s.UserAgent }, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidLocation, location)
	}
}

// RegisterFile loads the rule file at path and registers its fingerprints
// into reg. It stops at the first registration error.
func RegisterFile(reg *Registry, path string) (int, error) {
	fps, err := LoadFile(path)
	if err != nil {
		return 0, err
	}
	for i, fp := range fps {
		if err := reg.Register(fp.Name, fp.Rules...); err != nil {
			return i, fmt.Errorf("%s: %w", path, err)
		}
	}
	return len(fps), nil
}
