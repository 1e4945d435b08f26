package fetch

import "math/rand/v2"

// DefaultUserAgents is the pool a User-Agent is drawn from for each attempt.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/76.0.3809.100 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/76.0.3809.100 Safari/537.36",
	"Mozilla/5.0 (Windows NT 6.1; WOW64; rv:54.0) Gecko/20100101 Firefox/68.0",
}

// RandomUserAgent returns a uniformly random entry of DefaultUserAgents.
func RandomUserAgent() string {
	return pickUserAgent(DefaultUserAgents)
}

func pickUserAgent(pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	return pool[rand.IntN(len(pool))] //nolint:gosec // not security sensitive
}
