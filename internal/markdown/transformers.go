package markdown

import (
	"strings"

	"github.com/julien-sobczak/the-studydeck/internal/assets"
)

// Transformer applies changes on a Markdown document
type Transformer func(document Document) (Document, error)

// Transform applies transformers successively to create a new Markdown document
func (m Document) Transform(transformers ...Transformer) (Document, error) {
	result := m
	for _, transformer := range transformers {
		resultTransformed, err := transformer(result)
		if err != nil {
			return m, err
		}
		result = resultTransformed
	}
	return result, nil
}

// MustTransform is similar to Transform but does not expect an error
func (m Document) MustTransform(transformers ...Transformer) Document {
	result, err := m.Transform(transformers...)
	if err != nil {
		panic(err)
	}
	return result
}

// StripCodeBlocks blanks the lines of code blocks, preserving line numbers.
func StripCodeBlocks() Transformer {
	return func(document Document) (Document, error) {
		lines := document.Lines()
		for i, code := range document.codeLines() {
			if code {
				lines[i] = ""
			}
		}
		return Document(strings.Join(lines, "\n")), nil
	}
}

// ResolveImages rewrites embedded image URLs to their canonical subject asset URLs.
// Figure references and external URLs are left untouched.
func ResolveImages() Transformer {
	return func(document Document) (Document, error) {
		return document.replaceImages(func(link Link) Link {
			link.URL = assets.ResolveLessonImageSource(link.URL)
			return link
		}), nil
	}
}

// SanitizeImages replaces unsafe image URLs by an inert placeholder.
// URLs hiding their scheme behind HTML entities are unsafe too.
func SanitizeImages() Transformer {
	return func(document Document) (Document, error) {
		return document.replaceImages(func(link Link) Link {
			if !assets.IsSafeURI(link.URL) {
				link.URL = assets.InertURI
			}
			return link
		}), nil
	}
}
