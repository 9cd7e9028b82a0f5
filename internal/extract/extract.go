package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julien-sobczak/the-studydeck/internal/assets"
	"github.com/julien-sobczak/the-studydeck/internal/markdown"
	"github.com/julien-sobczak/the-studydeck/internal/medias"
)

var (
	// ErrStart is returned when the extraction command cannot be started.
	ErrStart = errors.New("unable to start extraction")
	// ErrOutput is returned when the extraction command output is not valid JSON.
	ErrOutput = errors.New("invalid extraction output")
)

// ExitError is returned when the extraction command exits with a non-zero code.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	if stderr == "" {
		return fmt.Sprintf("extraction failed with exit code %d", e.Code)
	}
	return fmt.Sprintf("extraction failed with exit code %d: %s", e.Code, stderr)
}

// Image is an image extracted from a PDF page.
type Image struct {
	Path       string `json:"path"`
	Page       int    `json:"page"`
	Index      int    `json:"index"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	ColorSpace string `json:"color_space,omitempty"`
}

// Result is the output of a single extraction.
type Result struct {
	Text      string   `json:"text"`
	Images    []*Image `json:"images"`
	OutputDir string   `json:"-"`
}

/*
 * The extraction is delegated to an external script (ex: a Python script
 * using PyMuPDF) as no PDF library is mature enough to extract both the
 * text and the embedded images.
 *
 *    $ python3 scripts/extract_pdf.py lesson.pdf out/
 *    {"text": "...", "images": [{"path": "out/page-1-0.png", "page": 1, "index": 0}]}
 */

// Extractor runs the extraction script.
type Extractor struct {
	exe     string
	script  string
	timeout time.Duration
	// Directory where a fresh sub-directory is created when no output directory is specified
	OutputDir string

	listeners []func(cmd string, args ...string)
}

// NewExtractor searches for the command in $PATH.
// A zero timeout means no timeout.
func NewExtractor(command, script string, timeout time.Duration) (*Extractor, error) {
	path, err := exec.LookPath(command)
	if err != nil {
		return nil, fmt.Errorf("executable %q not found in $PATH", command)
	}

	return &Extractor{
		exe:       path,
		script:    script,
		timeout:   timeout,
		OutputDir: filepath.Join(os.TempDir(), "study-extract"),
	}, nil
}

func (e *Extractor) OnPreExecution(fn func(cmd string, args ...string)) {
	e.listeners = append(e.listeners, fn)
}

func (e *Extractor) notifyListeners(cmd string, args ...string) {
	for _, fn := range e.listeners {
		fn(cmd, args...)
	}
}

// Extract extracts the text and the images of a PDF file.
// Images are written in outDir or in a new directory under OutputDir when empty.
func (e *Extractor) Extract(ctx context.Context, pdfPath string, outDir string) (*Result, error) {
	// Check src file exists
	if _, err := os.Stat(pdfPath); err != nil {
		return nil, err
	}

	if outDir == "" {
		outDir = filepath.Join(e.OutputDir, uuid.New().String())
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	var args []string
	if e.script != "" {
		args = append(args, e.script)
	}
	args = append(args, pdfPath, outDir)

	e.notifyListeners(e.exe, args...)
	cmd := exec.CommandContext(ctx, e.exe, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("extraction of %q interrupted: %w", pdfPath, ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ExitError{
				Code:   exitErr.ExitCode(),
				Stderr: stderr.String(),
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrStart, err)
	}

	var result Result
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutput, err)
	}
	result.OutputDir = outDir
	if result.Images == nil {
		result.Images = []*Image{}
	}
	for _, image := range result.Images {
		if !filepath.IsAbs(image.Path) {
			image.Path = filepath.Join(outDir, image.Path)
		}
		if image.Width == 0 && image.Height == 0 && medias.IsImage(filepath.Ext(image.Path)) {
			// Best effort: not all formats are supported
			if dimensions, err := medias.ReadImageDimensions(image.Path); err == nil && !dimensions.Zero() {
				image.Width = dimensions.Width
				image.Height = dimensions.Height
			}
		}
	}

	return &result, nil
}

// Markdown converts the result to a lesson snippet.
// Images located under assetsDir are embedded using their subject asset URLs.
func (r *Result) Markdown(assetsDir string) markdown.Document {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(r.Text))
	for _, image := range r.Images {
		ref := filepath.Base(image.Path)
		if relativePath, err := filepath.Rel(assetsDir, image.Path); err == nil && !strings.HasPrefix(relativePath, "..") {
			ref = filepath.ToSlash(relativePath)
		}
		sb.WriteString("\n\n")
		sb.WriteString(fmt.Sprintf("![Page %d, image %d](%s)", image.Page, image.Index+1, assets.ResolveSubjectAssetPath(ref)))
	}
	return markdown.Document(sb.String()).TrimSpace()
}
