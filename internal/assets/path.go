package assets

import (
	"strings"
)

// PublicPrefix is the URL space where all subject assets are served.
const PublicPrefix = "/subject-assets/"

// Segments stripped when found at the start of a path
const (
	segmentPublic        = "public"
	segmentSubjects      = "subjects"
	segmentSubjectAssets = "subject-assets"
)

// NormalizePath splits a raw path into clean segments.
//
// Ex:
//
//	"public\subject-assets\lesson-1\./img/../cat.png"
//
// Becomes:
//
//	["lesson-1", "cat.png"]
//
// A ".." never escapes above the root.
func NormalizePath(raw string) []string {
	value := strings.TrimSpace(strings.ReplaceAll(raw, `\`, "/"))

	segments := []string{}
	for _, segment := range strings.Split(value, "/") {
		switch segment {
		case "", ".":
			continue
		case "..":
			if len(segments) > 0 {
				segments = segments[:len(segments)-1]
			}
		default:
			segments = append(segments, segment)
		}
	}

	if len(segments) >= 2 && strings.EqualFold(segments[0], segmentPublic) && strings.EqualFold(segments[1], segmentSubjectAssets) {
		segments = segments[1:]
	}
	if len(segments) > 0 && strings.EqualFold(segments[0], segmentSubjects) {
		segments = segments[1:]
	}
	if len(segments) > 0 && strings.EqualFold(segments[0], segmentSubjectAssets) {
		segments = segments[1:]
	}
	return segments
}

// ResolveSubjectAssetPath converts a raw file reference to its canonical URL under /subject-assets/.
// External references are returned untouched. Query strings and fragments are preserved.
func ResolveSubjectAssetPath(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, `\`, "/")

	// Already canonical
	if hasPrefixFold(value, PublicPrefix) {
		return value
	}
	if IsExternal(value) {
		return value
	}

	path, suffix := splitSuffix(value)
	return PublicPrefix + strings.Join(NormalizePath(path), "/") + suffix
}

// ResolveLessonImageSource determines the source to use for an image inside a lesson.
// Figure references are resolved later using the figure catalog.
func ResolveLessonImageSource(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, FigurePrefix) {
		return value
	}
	if strings.HasPrefix(value, PublicPrefix) {
		return value
	}
	if IsExternal(value) {
		return value
	}
	return ResolveSubjectAssetPath(value)
}

// splitSuffix separates the path from an optional ?query or #fragment.
func splitSuffix(value string) (string, string) {
	i := strings.IndexAny(value, "?#")
	if i < 0 {
		return value, ""
	}
	return value[:i], value[i:]
}
