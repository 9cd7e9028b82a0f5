package markdown

import (
	gohtml "html"
	"io"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/julien-sobczak/the-studydeck/internal/assets"
)

// FigureRenderer renders references like figure:<key> to HTML.
type FigureRenderer interface {
	Render(ref string) (string, error)
}

// Renderer converts Markdown to HTML.
// Every image and link destination is sanitized before being rendered.
type Renderer struct {
	// Rewrite relative image paths to /subject-assets/ URLs
	ResolveImages bool
	// Optional catalog used to render figure:<key> images
	Figures FigureRenderer
}

// ToHTML converts Markdown to sanitized HTML without resolving images.
func ToHTML(md string) string {
	return (&Renderer{}).ToHTML(md)
}

func (r *Renderer) ToHTML(md string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := markdown.Parse([]byte(md), p)

	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch n := node.(type) {
		case *ast.Image:
			n.Destination = sanitizeDestination(n.Destination, r.ResolveImages)
		case *ast.Link:
			n.Destination = sanitizeDestination(n.Destination, false)
		}
		return ast.GoToNext
	})

	renderer := html.NewRenderer(html.RendererOptions{
		// Raw HTML is never trusted
		Flags:          html.CommonFlags | html.SkipHTML,
		RenderNodeHook: r.renderFigure,
	})
	return strings.TrimSpace(string(markdown.Render(doc, renderer)))
}

// sanitizeDestination checks the destination as it will be written in the
// attribute. The renderer decodes entities once (ex: javascript&#58;) so the
// decoded value is sanitized and stored escaped.
func sanitizeDestination(destination []byte, resolve bool) []byte {
	value := gohtml.UnescapeString(string(destination))
	if resolve {
		value = assets.ResolveLessonImageSource(value)
	}
	return []byte(gohtml.EscapeString(assets.TransformMarkdownImageURI(value)))
}

// renderFigure replaces images targeting the figure catalog.
func (r *Renderer) renderFigure(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
	image, ok := node.(*ast.Image)
	if !ok || r.Figures == nil {
		return ast.GoToNext, false
	}
	ref := gohtml.UnescapeString(string(image.Destination))
	if !assets.IsFigure(ref) {
		return ast.GoToNext, false
	}
	if !entering {
		return ast.GoToNext, true
	}

	snippet, err := r.Figures.Render(ref)
	if err != nil {
		// Fallback to a standard (inert) image to keep the alternative text
		image.Destination = []byte(assets.InertURI)
		return ast.GoToNext, false
	}
	io.WriteString(w, snippet)
	return ast.SkipChildren, true
}
