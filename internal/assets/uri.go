package assets

import (
	"html"
	"strings"
)

// FigurePrefix identifies references to the figure catalog (ex: figure:grammar/verbs).
const FigurePrefix = "figure:"

// TransformMarkdownImageURI sanitizes an URI before being rendered inside HTML.
//
// Anchors, rooted paths, relative paths and URIs using an allowed scheme
// are kept unchanged. Any other scheme (javascript:, data:, vbscript:, ...) is replaced by InertURI.
// Surrounding whitespace is ignored by the checks.
func TransformMarkdownImageURI(uri string) string {
	value := strings.TrimSpace(uri)
	if value == "" {
		return ""
	}

	if value[0] == '#' || value[0] == '/' {
		return uri
	}

	colon := strings.IndexByte(value, ':')
	if colon < 0 {
		// Relative path
		return uri
	}

	// A colon after ? or # is not a scheme separator
	if question := strings.IndexByte(value, '?'); question >= 0 && question < colon {
		return uri
	}
	if hash := strings.IndexByte(value, '#'); hash >= 0 && hash < colon {
		return uri
	}

	if IsSafeProtocol(value, colon) {
		return uri
	}
	return InertURI
}

// IsSafeURI returns if the URI can be rendered without modification.
// Markdown renderers decode HTML entities in destinations (ex: javascript&#58;),
// so the decoded URI must be safe too.
func IsSafeURI(uri string) bool {
	return TransformMarkdownImageURI(uri) != InertURI &&
		TransformMarkdownImageURI(html.UnescapeString(uri)) != InertURI
}

// IsFigure returns if the reference targets the figure catalog.
func IsFigure(ref string) bool {
	return hasPrefixFold(strings.TrimSpace(ref), FigurePrefix)
}

// FigureKey returns the key of a figure reference (ex: "figure:demo/diagram" => "demo/diagram").
func FigureKey(ref string) string {
	ref = strings.TrimSpace(ref)
	if !hasPrefixFold(ref, FigurePrefix) {
		return ref
	}
	return ref[len(FigurePrefix):]
}
