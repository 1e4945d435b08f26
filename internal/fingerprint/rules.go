package fingerprint

import (
	"regexp"
	"strings"

	"github.com/nao1215/cmsfinger/internal/model"
)

// BodyContains holds when the normalized body contains substr.
// substr is compared as given; pass lower-case text.
func BodyContains(substr string) Predicate {
	return func(s model.Signals) bool {
		return strings.Contains(s.Body, substr)
	}
}

// TitleContains holds when the normalized title contains substr.
func TitleContains(substr string) Predicate {
	return func(s model.Signals) bool {
		return strings.Contains(s.Title, substr)
	}
}

// PoweredByContains holds when the X-Powered-By header contains substr.
func PoweredByContains(substr string) Predicate {
	return func(s model.Signals) bool {
		return strings.Contains(s.PoweredBy, substr)
	}
}

// UserAgentContains holds when the request User-Agent contains substr.
func UserAgentContains(substr string) Predicate {
	return func(s model.Signals) bool {
		return strings.Contains(s.UserAgent, substr)
	}
}

// BodyMatches holds when re matches the normalized body.
func BodyMatches(re *regexp.Regexp) Predicate {
	return func(s model.Signals) bool {
		return re.MatchString(s.Body)
	}
}

// All holds when every predicate holds. All() with no predicates never holds.
func All(preds ...Predicate) Predicate {
	return func(s model.Signals) bool {
		if len(preds) == 0 {
			return false
		}
		for _, p := range preds {
			if !p(s) {
				return false
			}
		}
		return true
	}
}
