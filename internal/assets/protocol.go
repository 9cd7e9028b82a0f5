package assets

import (
	"regexp"
	"strings"
)

// InertURI replaces any URI that cannot be rendered safely.
const InertURI = "about:blank"

// Allow-list of schemes rendered unmodified. Everything else is rejected.
var safeProtocols = map[string]bool{
	"http":   true,
	"https":  true,
	"mailto": true,
	"tel":    true,
	"figure": true,
}

// Generic "scheme:" prefix (RFC 3986)
var regexScheme = regexp.MustCompile(`^[a-zA-Z][a-zA-Z\d+\-.]*:`)

// IsSafeProtocol returns if the text before the colon at the given index is an allowed scheme.
func IsSafeProtocol(value string, colon int) bool {
	if colon <= 0 || colon > len(value) {
		return false
	}
	return safeProtocols[strings.ToLower(value[:colon])]
}

// IsExternal returns if a reference points outside the subject assets (ex: https://, //cdn, data:, blob:).
func IsExternal(value string) bool {
	if strings.HasPrefix(value, "//") {
		return true
	}
	if hasPrefixFold(value, "data:") || hasPrefixFold(value, "blob:") {
		return true
	}
	return regexScheme.MatchString(value)
}

func hasPrefixFold(value, prefix string) bool {
	return len(value) >= len(prefix) && strings.EqualFold(value[:len(prefix)], prefix)
}
