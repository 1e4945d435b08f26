package fetch

import "strings"

const (
	schemeHTTP  = "http://"
	schemeHTTPS = "https://"
)

// EnsureProtocol prepends http:// to target unless it already starts with
// http:// or https:// (compared case-insensitively). Surrounding whitespace
// is removed.
func EnsureProtocol(target string) string {
	target = strings.TrimSpace(target)
	if hasPrefixFold(target, schemeHTTP) || hasPrefixFold(target, schemeHTTPS) {
		return target
	}
	return schemeHTTP + target
}

// UpgradeScheme rewrites an http:// URL to https://.
// It reports false and returns target unchanged for any other URL.
func UpgradeScheme(target string) (string, bool) {
	if !hasPrefixFold(target, schemeHTTP) {
		return target, false
	}
	return schemeHTTPS + target[len(schemeHTTP):], true
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
