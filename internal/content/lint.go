package content

import (
	"fmt"
	"strings"

	"github.com/julien-sobczak/the-studydeck/internal/assets"
	"github.com/julien-sobczak/the-studydeck/internal/figures"
)

// Violation describes an image reference that cannot be displayed.
type Violation struct {
	// The human-readable description of the violation
	Message string `json:"message"`
	// The relative path to the lesson containing the violation
	RelativePath string `json:"path"`
	// The line number in the file containing the violation
	Line int `json:"line"`
	// The raw reference as written in the lesson
	Reference string `json:"reference"`
}

func (v *Violation) String() string {
	return fmt.Sprintf("%s:%d: %s", v.RelativePath, v.Line, v.Message)
}

// BrokenImages returns every embedded image that resolves to nothing:
// unsafe URIs, missing subject assets, and unknown figures.
// External images are never checked. A nil catalog means no figure is known.
func (i *Index) BrokenImages(registry *assets.Registry, catalog *figures.Catalog) []*Violation {
	var violations []*Violation
	for _, lesson := range i.Lessons {
		for _, image := range lesson.Body.Images() {
			ref := strings.TrimSpace(image.URL)
			message := checkImage(ref, registry, catalog)
			if message == "" {
				continue
			}
			violations = append(violations, &Violation{
				Message:      message,
				RelativePath: lesson.RelativePath,
				Line:         lesson.BodyLine - 1 + image.Line,
				Reference:    image.URL,
			})
		}
	}
	return violations
}

func checkImage(ref string, registry *assets.Registry, catalog *figures.Catalog) string {
	if ref == "" {
		return "missing image source"
	}
	if assets.IsFigure(ref) {
		if catalog == nil {
			return fmt.Sprintf("unknown figure %q", assets.FigureKey(ref))
		}
		if _, err := catalog.Resolve(ref); err != nil {
			return fmt.Sprintf("unknown figure %q", assets.FigureKey(ref))
		}
		return ""
	}
	if !assets.IsSafeURI(ref) {
		return fmt.Sprintf("unsafe image source %q", ref)
	}
	if assets.IsExternal(ref) {
		return ""
	}
	if registry == nil {
		return fmt.Sprintf("missing subject asset %q", ref)
	}
	if _, ok := registry.Lookup(ref); !ok {
		return fmt.Sprintf("missing subject asset %q", assets.ResolveLessonImageSource(ref))
	}
	return ""
}
