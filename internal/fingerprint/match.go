package fingerprint

import "github.com/nao1215/cmsfinger/internal/model"

// Match returns the names of the fingerprints in fps that match s,
// in the order they appear in fps. The result is never nil.
func Match(s model.Signals, fps []Fingerprint) []string {
	matches := make([]string, 0, 1)
	for _, fp := range fps {
		if fp.Matches(s) {
			matches = append(matches, fp.Name)
		}
	}
	return matches
}
