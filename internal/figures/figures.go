package figures

import (
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"strings"

	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"

	"github.com/julien-sobczak/the-studydeck/internal/assets"
)

// ErrUnknownFigure is returned when a figure key is missing from the catalog.
var ErrUnknownFigure = errors.New("unknown figure")

// Figure is a reusable illustration referenced from lessons using figure:<key>.
type Figure struct {
	Key     string `yaml:"key" json:"key"`
	Title   string `yaml:"title" json:"title"`
	Caption string `yaml:"caption" json:"caption,omitempty"`
	Src     string `yaml:"src" json:"src"`
	Alt     string `yaml:"alt" json:"alt,omitempty"`
	Width   int    `yaml:"width" json:"width,omitempty"`
	Height  int    `yaml:"height" json:"height,omitempty"`
}

// Catalog is the registry of known figures.
type Catalog struct {
	figures map[string]*Figure
	keys    []string
}

type catalogFile struct {
	Figures []*Figure `yaml:"figures"`
}

// NewCatalog creates a catalog from a list of figures.
func NewCatalog(figures ...*Figure) (*Catalog, error) {
	c := &Catalog{
		figures: make(map[string]*Figure),
	}
	for _, figure := range figures {
		if err := c.Add(figure); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ReadCatalog parses a YAML catalog.
//
// Ex:
//
//	figures:
//	- key: grammar/verbs
//	  title: Strong verbs
//	  src: german/verbs.png
func ReadCatalog(r io.Reader) (*Catalog, error) {
	var file catalogFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid figure catalog: %w", err)
	}
	return NewCatalog(file.Figures...)
}

// ReadCatalogFile parses the catalog file. A missing file is considered as an empty catalog.
func ReadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return NewCatalog()
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCatalog(f)
}

// Add registers a new figure.
func (c *Catalog) Add(figure *Figure) error {
	key := NormalizeKey(figure.Key)
	if key == "" {
		return fmt.Errorf("missing key for figure %q", figure.Title)
	}
	if _, ok := c.figures[key]; ok {
		return fmt.Errorf("duplicate figure %q", figure.Key)
	}
	figure.Key = key
	c.figures[key] = figure
	c.keys = append(c.keys, key)
	return nil
}

// Keys returns the figure keys in declaration order.
func (c *Catalog) Keys() []string {
	return c.keys
}

func (c *Catalog) Len() int {
	return len(c.figures)
}

// Resolve searches for a figure using either a figure:<key> reference or a bare key.
func (c *Catalog) Resolve(ref string) (*Figure, error) {
	key := NormalizeKey(assets.FigureKey(ref))
	figure, ok := c.figures[key]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownFigure, ref)
	}
	return figure, nil
}

// Render returns the HTML snippet of a figure.
func (c *Catalog) Render(ref string) (string, error) {
	figure, err := c.Resolve(ref)
	if err != nil {
		return "", err
	}
	return figure.HTML(), nil
}

// URL returns the sanitized URL of the figure image.
func (f *Figure) URL() string {
	src := assets.ResolveLessonImageSource(f.Src)
	if assets.IsFigure(src) {
		// A figure cannot reference another figure
		return assets.InertURI
	}
	return assets.TransformMarkdownImageURI(src)
}

// HTML renders the figure.
func (f *Figure) HTML() string {
	alt := f.Alt
	if alt == "" {
		alt = f.Title
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<figure class="figure" id="figure-%s">`, html.EscapeString(slug.Make(f.Key))))
	sb.WriteString(fmt.Sprintf(`<img src="%s" alt="%s"`, html.EscapeString(f.URL()), html.EscapeString(alt)))
	if f.Width > 0 {
		sb.WriteString(fmt.Sprintf(` width="%d"`, f.Width))
	}
	if f.Height > 0 {
		sb.WriteString(fmt.Sprintf(` height="%d"`, f.Height))
	}
	sb.WriteString(" />")
	caption := f.Caption
	if caption == "" {
		caption = f.Title
	}
	if caption != "" {
		sb.WriteString(fmt.Sprintf(`<figcaption>%s</figcaption>`, html.EscapeString(caption)))
	}
	sb.WriteString("</figure>")
	return sb.String()
}

// NormalizeKey slugifies each segment of a key (ex: "Grammar/Strong Verbs" => "grammar/strong-verbs").
func NormalizeKey(key string) string {
	var segments []string
	for _, segment := range strings.Split(strings.TrimSpace(key), "/") {
		segment = slug.Make(segment)
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return strings.Join(segments, "/")
}
